package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameType identifies a received datagram by its (length, magic) pair.
type FrameType int

const (
	FrameUnknown FrameType = iota
	FrameDMRData
	FrameMasterACK
	FrameMasterACKNonce
	FrameMasterNAK
	FrameMasterPing
	FrameMasterClosing
	FrameRepeaterLogin
	FrameRepeaterKey
	FrameRepeaterPong
	FrameRepeaterClosing
	FrameRepeaterBeacon
	FrameRepeaterRSSI
)

var frameTypeNames = map[FrameType]string{
	FrameUnknown:         "unknown",
	FrameDMRData:         "DMR data",
	FrameMasterACK:       "master ack",
	FrameMasterACKNonce:  "master ack with nonce",
	FrameMasterNAK:       "master nak",
	FrameMasterPing:      "master ping",
	FrameMasterClosing:   "master closing",
	FrameRepeaterLogin:   "repeater login",
	FrameRepeaterKey:     "repeater key",
	FrameRepeaterPong:    "repeater pong",
	FrameRepeaterClosing: "repeater closing",
	FrameRepeaterBeacon:  "repeater beacon",
	FrameRepeaterRSSI:    "repeater RSSI",
}

// String returns the frame type name used in logs.
func (f FrameType) String() string {
	if name, ok := frameTypeNames[f]; ok {
		return name
	}
	return "unknown"
}

// FrameTypeOf classifies a datagram. Classification is injective over the
// (length, magic) pairs the protocol defines; anything else is
// FrameUnknown and gets dropped by the caller.
func FrameTypeOf(data []byte) FrameType {
	switch len(data) {
	case RepeaterLoginFrameSize:
		if string(data[:4]) == MagicRepeaterLogin {
			return FrameRepeaterLogin
		}
	case MasterClosingFrameSize:
		if string(data[:5]) == MagicMasterClosing {
			return FrameMasterClosing
		}
		if string(data[:5]) == MagicRepeaterClosing {
			return FrameRepeaterClosing
		}
	case MasterACKFrameSize:
		if string(data[:6]) == MagicMasterACK {
			return FrameMasterACK
		}
		if string(data[:6]) == MagicMasterNAK {
			return FrameMasterNAK
		}
	case MasterPingFrameSize:
		if string(data[:7]) == MagicMasterPing {
			return FrameMasterPing
		}
		if string(data[:7]) == MagicRepeaterPong {
			return FrameRepeaterPong
		}
		if string(data[:7]) == MagicRepeaterBeacon {
			return FrameRepeaterBeacon
		}
	case MasterACKNonceFrameSize:
		if string(data[:6]) == MagicMasterACK {
			return FrameMasterACKNonce
		}
	case RepeaterRSSIFrameSize:
		if string(data[:7]) == MagicRepeaterRSSI {
			return FrameRepeaterRSSI
		}
	case DMRDataFrameSize:
		if string(data[:4]) == MagicDMRData {
			return FrameDMRData
		}
	case RepeaterKeyFrameSize:
		if string(data[:4]) == MagicRepeaterKey {
			return FrameRepeaterKey
		}
	}
	return FrameUnknown
}

// FormatRepeaterID renders a numeric repeater ID as the 8 ASCII digits
// carried in control frames.
func FormatRepeaterID(id uint32) []byte {
	return []byte(fmt.Sprintf("%08d", id))
}

// ParseRepeaterID reads an 8-digit ASCII repeater ID.
func ParseRepeaterID(data []byte) (uint32, error) {
	if len(data) != RepeaterIDLength {
		return 0, fmt.Errorf("protocol: expected %d id bytes, got %d", RepeaterIDLength, len(data))
	}
	id, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("protocol: bad repeater id %q: %w", data, err)
	}
	return uint32(id), nil
}

// BuildRepeaterLogin builds the 12-byte RPTL frame opening the handshake.
func BuildRepeaterLogin(repeaterID []byte) []byte {
	frame := make([]byte, 0, RepeaterLoginFrameSize)
	frame = append(frame, MagicRepeaterLogin...)
	return append(frame, repeaterID[:RepeaterIDLength]...)
}

// BuildRepeaterKey builds the 76-byte RPTK frame: magic, 8-byte id and the
// 64 lowercase hex characters of the SHA-256 challenge digest.
func BuildRepeaterKey(repeaterID []byte, digestHex string) []byte {
	frame := make([]byte, 0, RepeaterKeyFrameSize)
	frame = append(frame, MagicRepeaterKey...)
	frame = append(frame, repeaterID[:RepeaterIDLength]...)
	return append(frame, digestHex...)
}

// BuildMasterPing builds the 15-byte keepalive sent to the master.
func BuildMasterPing(repeaterID []byte) []byte {
	frame := make([]byte, 0, MasterPingFrameSize)
	frame = append(frame, MagicMasterPing...)
	return append(frame, repeaterID[:RepeaterIDLength]...)
}

// BuildRepeaterPong answers a master ping: the received 15 bytes with the
// first 7 overwritten by the pong magic.
func BuildRepeaterPong(ping []byte) []byte {
	frame := make([]byte, MasterPingFrameSize)
	copy(frame, ping[:MasterPingFrameSize])
	copy(frame, MagicRepeaterPong)
	return frame
}

// BuildRepeaterClosing builds the 13-byte graceful close frame.
func BuildRepeaterClosing(repeaterID []byte) []byte {
	frame := make([]byte, 0, RepeaterClosingFrameSize)
	frame = append(frame, MagicRepeaterClosing...)
	return append(frame, repeaterID[:RepeaterIDLength]...)
}

// Nonce extracts the 8-byte server nonce from an MSTACK+nonce frame.
func Nonce(data []byte) ([]byte, error) {
	if FrameTypeOf(data) != FrameMasterACKNonce {
		return nil, fmt.Errorf("protocol: not an ack with nonce (%d bytes)", len(data))
	}
	nonce := make([]byte, NonceLength)
	copy(nonce, data[MasterACKNonceFrameSize-NonceLength:])
	return nonce, nil
}
