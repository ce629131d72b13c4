package protocol

import (
	"bytes"
	"testing"
)

func TestParseDMRData_Voice(t *testing.T) {
	data := make([]byte, DMRDataFrameSize)
	copy(data[0:4], []byte("DMRD"))
	data[4] = 0x05 // sequence
	data[5] = 0x00
	data[6] = 0x00
	data[7] = 0x0a // src 10
	data[8] = 0x00
	data[9] = 0x00
	data[10] = 0x14 // dst 20
	data[11] = 0x00
	data[12] = 0x00
	data[13] = 0x07
	data[14] = 0xb9 // repeater 0x000007b9
	data[15] = 0x03 // TS2, private, voice frame A
	data[16] = 0xde
	data[17] = 0xad
	data[18] = 0xbe
	data[19] = 0xef

	p, err := ParseDMRData(data)
	if err != nil {
		t.Fatalf("Failed to parse DMRD frame: %v", err)
	}

	if p.Sequence != 0x05 {
		t.Errorf("Expected sequence 5, got %d", p.Sequence)
	}
	if p.SrcID != 10 {
		t.Errorf("Expected src 10, got %d", p.SrcID)
	}
	if p.DstID != 20 {
		t.Errorf("Expected dst 20, got %d", p.DstID)
	}
	if p.RepeaterID != 0x000007b9 {
		t.Errorf("Expected repeater 0x000007b9, got 0x%08x", p.RepeaterID)
	}
	if p.Timeslot != 1 {
		t.Errorf("Expected timeslot 1, got %d", p.Timeslot)
	}
	if p.FLCO != FLCOPrivate {
		t.Errorf("Expected flco 1, got %d", p.FLCO)
	}
	if p.DataType != DataTypeVoice {
		t.Errorf("Expected voice, got %s", p.DataType)
	}
	if p.VoiceFrame != 0 {
		t.Errorf("Expected voice frame 0, got %d", p.VoiceFrame)
	}
	if p.StreamID != 0xdeadbeef {
		t.Errorf("Expected stream 0xdeadbeef, got 0x%08x", p.StreamID)
	}
}

func TestParseDMRData_WrongShape(t *testing.T) {
	if _, err := ParseDMRData(make([]byte, 52)); err == nil {
		t.Error("Expected error for short frame")
	}

	data := make([]byte, DMRDataFrameSize)
	copy(data[0:4], []byte("XXXX"))
	if _, err := ParseDMRData(data); err == nil {
		t.Error("Expected error for wrong magic")
	}
}

func TestEncodeDMRData_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    Packet
	}{
		{"voice frame C", Packet{Sequence: 7, SrcID: 2042099, DstID: 9, RepeaterID: 20420990, Timeslot: 0, FLCO: FLCOGroup, DataType: DataTypeVoice, VoiceFrame: 2, StreamID: 0x12345678}},
		{"voice sync", Packet{Sequence: 1, SrcID: 1, DstID: 91, Timeslot: 1, FLCO: FLCOGroup, DataType: DataTypeVoiceSync, StreamID: 42}},
		{"voice LC header", Packet{Sequence: 0, SrcID: 1234567, DstID: 3100, RepeaterID: 312000, Timeslot: 1, FLCO: FLCOPrivate, DataType: DataTypeVoiceLCHeader, StreamID: 0xffffffff}},
		{"terminator", Packet{Sequence: 60, SrcID: 10, DstID: 20, Timeslot: 0, FLCO: FLCOGroup, DataType: DataTypeTerminatorWithLC, StreamID: 7}},
		{"rate 3/4 data", Packet{Sequence: 2, SrcID: 10, DstID: 20, Timeslot: 0, FLCO: FLCOGroup, DataType: DataTypeRate34Data, StreamID: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range tt.p.Payload {
				tt.p.Payload[i] = byte(i)
			}

			data := EncodeDMRData(&tt.p)
			if len(data) != DMRDataFrameSize {
				t.Fatalf("Expected %d bytes, got %d", DMRDataFrameSize, len(data))
			}

			got, err := ParseDMRData(data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if *got != tt.p {
				t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, &tt.p)
			}
		})
	}
}

func TestEncodeDMRData_KindBits(t *testing.T) {
	sync := EncodeDMRData(&Packet{DataType: DataTypeVoiceSync})
	if sync[15] != 0x04 {
		t.Errorf("Expected voice sync bits 0x04, got 0x%02x", sync[15])
	}

	voice := EncodeDMRData(&Packet{DataType: DataTypeVoice, VoiceFrame: 5})
	if voice[15] != 0x50 {
		t.Errorf("Expected voice frame bits 0x50, got 0x%02x", voice[15])
	}

	data := EncodeDMRData(&Packet{DataType: DataTypeCSBK, Timeslot: 1})
	if data[15] != 0x39 {
		t.Errorf("Expected data bits 0x39, got 0x%02x", data[15])
	}
}

func TestEncodeDMRData_PayloadCopied(t *testing.T) {
	var p Packet
	p.Payload[0] = 0xaa
	p.Payload[32] = 0x55

	data := EncodeDMRData(&p)
	if data[20] != 0xaa || data[52] != 0x55 {
		t.Error("Payload bytes not copied to offsets 20..52")
	}
	if !bytes.Equal(data[20:53], p.Payload[:]) {
		t.Error("Payload mismatch")
	}
}

func TestVoiceFrameLetter(t *testing.T) {
	p := Packet{VoiceFrame: 0}
	if p.VoiceFrameLetter() != 'A' {
		t.Errorf("Expected A, got %c", p.VoiceFrameLetter())
	}
	p.VoiceFrame = 15
	if p.VoiceFrameLetter() != 'P' {
		t.Errorf("Expected P, got %c", p.VoiceFrameLetter())
	}
}
