package protocol

import (
	"encoding/binary"
	"fmt"
)

// DataType identifies what a DMR burst carries. Values 0..9 are the
// on-air data types tunnelled in the frame-kind nibble; Voice and
// VoiceSync are synthetic types for the two voice frame kinds.
type DataType uint8

const (
	DataTypeVoicePIHeader DataType = iota
	DataTypeVoiceLCHeader
	DataTypeTerminatorWithLC
	DataTypeCSBK
	DataTypeMBCHeader
	DataTypeMBCContinuation
	DataTypeDataHeader
	DataTypeRate12Data
	DataTypeRate34Data
	DataTypeIdle
	DataTypeVoice
	DataTypeVoiceSync
	DataTypeInvalid
)

var dataTypeNames = map[DataType]string{
	DataTypeVoicePIHeader:    "voice PI header",
	DataTypeVoiceLCHeader:    "voice LC header",
	DataTypeTerminatorWithLC: "terminator with LC",
	DataTypeCSBK:             "CSBK",
	DataTypeMBCHeader:        "MBC header",
	DataTypeMBCContinuation:  "MBC continuation",
	DataTypeDataHeader:       "data header",
	DataTypeRate12Data:       "rate 1/2 data",
	DataTypeRate34Data:       "rate 3/4 data",
	DataTypeIdle:             "idle",
	DataTypeVoice:            "voice",
	DataTypeVoiceSync:        "voice sync",
}

// String returns the data type name used in logs.
func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return "invalid"
}

// Packet is one decoded DMR burst. Callers receiving a *Packet from an rx
// callback must copy what they need before returning; packets handed to tx
// are borrowed only for the duration of the call.
type Packet struct {
	Sequence   byte
	SrcID      uint32 // 24-bit
	DstID      uint32 // 24-bit
	RepeaterID uint32
	Timeslot   uint8 // 0 or 1
	FLCO       FLCO
	DataType   DataType
	VoiceFrame uint8 // 0..15, logged as A..P
	StreamID   uint32
	Payload    [PayloadBytes]byte
}

// VoiceFrameLetter maps a voice frame index to its letter name: 0 is A,
// 15 is P.
func (p *Packet) VoiceFrameLetter() byte {
	return 'A' + (p.VoiceFrame & 0x0f)
}

// ParseDMRData decodes a 53-byte DMRD frame into a packet.
func ParseDMRData(data []byte) (*Packet, error) {
	if FrameTypeOf(data) != FrameDMRData {
		return nil, fmt.Errorf("protocol: not a DMRD frame (%d bytes)", len(data))
	}

	p := &Packet{
		Sequence:   data[dmrdOffsetSeq],
		SrcID:      uint32(data[dmrdOffsetSrcID])<<16 | uint32(data[dmrdOffsetSrcID+1])<<8 | uint32(data[dmrdOffsetSrcID+2]),
		DstID:      uint32(data[dmrdOffsetDstID])<<16 | uint32(data[dmrdOffsetDstID+1])<<8 | uint32(data[dmrdOffsetDstID+2]),
		RepeaterID: binary.BigEndian.Uint32(data[dmrdOffsetRptID : dmrdOffsetRptID+4]),
		StreamID:   binary.BigEndian.Uint32(data[dmrdOffsetStreamID : dmrdOffsetStreamID+4]),
	}

	bits := data[dmrdOffsetBits]
	p.Timeslot = bits & bitsTimeslotMask
	p.FLCO = FLCO((bits & bitsFLCOMask) >> 1)

	nibble := bits >> bitsNibbleShift
	switch (bits & bitsKindMask) >> 2 {
	case frameKindVoice:
		p.DataType = DataTypeVoice
		p.VoiceFrame = nibble
	case frameKindVoiceSync:
		p.DataType = DataTypeVoiceSync
	case frameKindData:
		p.DataType = DataType(nibble)
	default:
		return nil, fmt.Errorf("protocol: unexpected frame kind 0b11")
	}

	copy(p.Payload[:], data[dmrdOffsetPayload:dmrdOffsetPayload+PayloadBytes])
	return p, nil
}

// EncodeDMRData packs a packet into the 53-byte DMRD wire frame.
func EncodeDMRData(p *Packet) []byte {
	data := make([]byte, DMRDataFrameSize)
	copy(data[0:4], MagicDMRData)
	data[dmrdOffsetSeq] = p.Sequence

	data[dmrdOffsetSrcID] = byte(p.SrcID >> 16)
	data[dmrdOffsetSrcID+1] = byte(p.SrcID >> 8)
	data[dmrdOffsetSrcID+2] = byte(p.SrcID)

	data[dmrdOffsetDstID] = byte(p.DstID >> 16)
	data[dmrdOffsetDstID+1] = byte(p.DstID >> 8)
	data[dmrdOffsetDstID+2] = byte(p.DstID)

	binary.BigEndian.PutUint32(data[dmrdOffsetRptID:dmrdOffsetRptID+4], p.RepeaterID)

	bits := (p.Timeslot & 0x01) | (byte(p.FLCO&0x01) << 1)
	switch p.DataType {
	case DataTypeVoice:
		bits |= (p.VoiceFrame & 0x0f) << bitsNibbleShift
	case DataTypeVoiceSync:
		bits |= frameKindVoiceSync << 2
	default:
		bits |= frameKindData << 2
		bits |= byte(p.DataType&0x0f) << bitsNibbleShift
	}
	data[dmrdOffsetBits] = bits

	binary.BigEndian.PutUint32(data[dmrdOffsetStreamID:dmrdOffsetStreamID+4], p.StreamID)
	copy(data[dmrdOffsetPayload:], p.Payload[:])
	return data
}
