package fec

import (
	"bytes"
	"fmt"
	"sync"
)

// Shortened RS(12,9,4) block geometry: 9 message bytes, 3 parity bytes,
// distance 4, repairing a single symbol per block.
const (
	BlockLength   = 12
	MessageLength = 9
	ParityLength  = 3
)

// DefaultPolynomial is the GF(2^8) primitive polynomial used by DMR,
// x^8 + x^4 + x^3 + x^2 + 1.
const DefaultPolynomial = 0x11d

var (
	rs1294     *RS
	rs1294Once sync.Once
)

// rs12_9_4 returns the process-wide RS(12,9,4) context, built once on
// first use.
func rs12_9_4() *RS {
	rs1294Once.Do(func() {
		rs, err := New(DefaultPolynomial, 8, ParityLength)
		if err != nil {
			// Parameters are compile-time constants; New can only fail on
			// an invalid parameter set.
			panic(fmt.Sprintf("fec: RS(12,9,4) init: %v", err))
		}
		rs1294 = rs
	})
	return rs1294
}

// codeword expands a 12-byte block into the full 255-symbol received word:
// parity symbols first, then the message, zero-extended. Parities are
// unmasked with crcMask on the way in.
func codeword(block []byte, crcMask byte) []byte {
	rs := rs12_9_4()
	recd := make([]byte, rs.nn)
	for i := 0; i < ParityLength; i++ {
		recd[i] = block[MessageLength+i] ^ crcMask
	}
	copy(recd[ParityLength:], block[:MessageLength])
	return recd
}

// Encode12_9_4 computes the 3 parity symbols for the 9 message bytes in
// block[0..8] and stores them, XOR'd with crcMask, in block[9..11]. The
// mask is policy of the caller: 0x96 for a voice LC header, 0x99 for a
// terminator with LC.
func Encode12_9_4(block []byte, crcMask byte) error {
	if len(block) != BlockLength {
		return fmt.Errorf("fec: expected %d block bytes, got %d", BlockLength, len(block))
	}

	rs := rs12_9_4()
	data := make([]byte, rs.nn-rs.parity)
	copy(data, block[:MessageLength])
	bb := make([]byte, rs.parity)
	rs.Encode(data, bb)

	for i := 0; i < ParityLength; i++ {
		block[MessageLength+i] = bb[i] ^ crcMask
	}
	return nil
}

// Decode12_9_4 repairs a received 12-byte block in place: it unmasks the
// parities, zero-extends to the full codeword, and runs the decoder. On
// success the corrected message and re-masked parities are written back;
// on failure the block is left as received and ErrUnrecoverable is
// returned, wrapping the decoder's reason code.
func Decode12_9_4(block []byte, crcMask byte) error {
	if len(block) != BlockLength {
		return fmt.Errorf("fec: expected %d block bytes, got %d", BlockLength, len(block))
	}

	rs := rs12_9_4()
	recd := codeword(block, crcMask)
	if code := rs.Decode(recd); code != 0 {
		return fmt.Errorf("%w (code %d)", ErrUnrecoverable, code)
	}

	copy(block[:MessageLength], recd[ParityLength:ParityLength+MessageLength])
	for i := 0; i < ParityLength; i++ {
		block[MessageLength+i] = recd[i] ^ crcMask
	}
	return nil
}

// Verify12_9_4 re-encodes the 9 message bytes and compares the 3 parity
// bytes against the received ones. It returns 0 if and only if they match;
// this is the fast path when the caller only needs pass/fail.
func Verify12_9_4(block []byte, crcMask byte) int {
	if len(block) != BlockLength {
		return -1
	}

	check := make([]byte, BlockLength)
	copy(check, block[:MessageLength])
	if err := Encode12_9_4(check, crcMask); err != nil {
		return -1
	}
	return bytes.Compare(block[MessageLength:], check[MessageLength:])
}
