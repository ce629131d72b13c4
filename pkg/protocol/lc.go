package protocol

import (
	"fmt"

	"github.com/dbehnke/dmr-bridge/pkg/fec"
)

// CRC masks applied to the Reed-Solomon parity of a full link control
// word, selecting which LC type the block claims to be.
const (
	MaskVoiceLCHeader    = 0x96
	MaskTerminatorWithLC = 0x99
)

// FullLC is the 9-byte link control word carried in voice headers and
// terminators, protected by RS(12,9,4) parity inside the burst payload.
type FullLC struct {
	FLCO  FLCO
	SrcID uint32
	DstID uint32
}

// Encode renders the LC word and its masked parity as a 12-byte block.
func (lc *FullLC) Encode(crcMask byte) ([]byte, error) {
	block := make([]byte, fec.BlockLength)

	block[0] = byte(lc.FLCO) & 0x3f
	block[1] = byte(lc.DstID >> 16)
	block[2] = byte(lc.DstID >> 8)
	block[3] = byte(lc.DstID)
	block[4] = byte(lc.SrcID >> 16)
	block[5] = byte(lc.SrcID >> 8)
	block[6] = byte(lc.SrcID)
	// bytes 7..8 are reserved options, left zero

	if err := fec.Encode12_9_4(block, crcMask); err != nil {
		return nil, err
	}
	return block, nil
}

// ParseFullLC validates a received 12-byte block against crcMask,
// repairing it when the parity allows, and extracts the LC word. A block
// the codec cannot repair is returned as fec.ErrUnrecoverable.
func ParseFullLC(block []byte, crcMask byte) (*FullLC, error) {
	if len(block) != fec.BlockLength {
		return nil, fmt.Errorf("protocol: expected %d LC bytes, got %d", fec.BlockLength, len(block))
	}

	if fec.Verify12_9_4(block, crcMask) != 0 {
		if err := fec.Decode12_9_4(block, crcMask); err != nil {
			return nil, err
		}
	}

	return &FullLC{
		FLCO:  FLCO(block[0] & 0x3f),
		DstID: uint32(block[1])<<16 | uint32(block[2])<<8 | uint32(block[3]),
		SrcID: uint32(block[4])<<16 | uint32(block[5])<<8 | uint32(block[6]),
	}, nil
}
