package protocol

// Frame magics exchanged with the master. The repeater identifier that
// follows each magic is 8 ASCII digits, not NUL-terminated.
const (
	MagicDMRData         = "DMRD"
	MagicMasterACK       = "MSTACK"
	MagicMasterNAK       = "MSTNAK"
	MagicMasterPing      = "MSTPING"
	MagicMasterClosing   = "MSTCL"
	MagicRepeaterLogin   = "RPTL"
	MagicRepeaterKey     = "RPTK"
	MagicRepeaterPong    = "RPTPONG"
	MagicRepeaterClosing = "RPTCL"
	MagicRepeaterBeacon  = "RPTSBKN"
	MagicRepeaterRSSI    = "RPTRSSI"
)

// Frame sizes in bytes. Frames are identified by (length, magic); the
// master rejects anything that doesn't match bit-for-bit.
const (
	DMRDataFrameSize         = 53 // "DMRD" + header + payload
	RepeaterLoginFrameSize   = 12 // "RPTL" + 8 byte id
	MasterClosingFrameSize   = 13 // "MSTCL" + 8 byte id
	RepeaterClosingFrameSize = 13 // "RPTCL" + 8 byte id
	MasterACKFrameSize       = 14 // "MSTACK" + 8 byte id
	MasterNAKFrameSize       = 14 // "MSTNAK" + 8 byte id
	MasterPingFrameSize      = 15 // "MSTPING" + 8 byte id
	RepeaterPongFrameSize    = 15 // "RPTPONG" + 8 byte id
	RepeaterBeaconFrameSize  = 15 // "RPTSBKN" + 8 byte id
	MasterACKNonceFrameSize  = 22 // "MSTACK" + 8 byte id + 8 byte nonce
	RepeaterRSSIFrameSize    = 23 // "RPTRSSI" + payload
	RepeaterKeyFrameSize     = 76 // "RPTK" + 8 byte id + 64 hex digest chars
)

// RepeaterIDLength is the width of the ASCII repeater identifier carried
// in control frames.
const RepeaterIDLength = 8

// NonceLength is the width of the server-supplied nonce in the
// MSTACK+nonce reply.
const NonceLength = 8

// PayloadBytes is the DMR burst payload carried in a DMRD frame.
const PayloadBytes = 33

// DMRD field offsets
const (
	dmrdOffsetSeq      = 4  // 1 byte: sequence number
	dmrdOffsetSrcID    = 5  // 3 bytes: source subscriber ID
	dmrdOffsetDstID    = 8  // 3 bytes: destination ID
	dmrdOffsetRptID    = 11 // 4 bytes: repeater ID, big-endian
	dmrdOffsetBits     = 15 // 1 byte: timeslot/flco/frame kind bits
	dmrdOffsetStreamID = 16 // 4 bytes: stream ID, big-endian
	dmrdOffsetPayload  = 20 // 33 bytes: voice/data payload
)

// Byte 15 layout: bit 0 timeslot, bit 1 flco, bits 2..3 frame kind,
// bits 4..7 voice frame index or data type.
const (
	bitsTimeslotMask = 0x01
	bitsFLCOMask     = 0x02
	bitsKindMask     = 0x0c
	bitsNibbleShift  = 4

	frameKindVoice     = 0x00
	frameKindVoiceSync = 0x01
	frameKindData      = 0x02
)

// FLCO is the 1-bit call-type discriminator.
type FLCO uint8

const (
	FLCOGroup   FLCO = 0
	FLCOPrivate FLCO = 1
)

// ConfigFrameSize is the fixed-layout configuration blob sent once after
// authentication.
const ConfigFrameSize = 302
