package protocol

import (
	"strings"
	"testing"
)

func sampleConfig() *RepeaterConfig {
	return &RepeaterConfig{
		RepeaterID:  312000,
		Callsign:    "N0CALL",
		RXFreq:      438800000,
		TXFreq:      431200000,
		TXPower:     25,
		ColorCode:   1,
		Latitude:    52.2967,
		Longitude:   4.9558,
		Height:      12,
		Location:    "Amsterdam",
		Description: "Bridge node",
		URL:         "https://example.org",
		SoftwareID:  "dmr-bridge",
		PackageID:   "dmr-bridge:linux",
	}
}

func TestRepeaterConfigEncodeSize(t *testing.T) {
	data := sampleConfig().Encode()
	if len(data) != ConfigFrameSize {
		t.Fatalf("Expected exactly %d bytes, got %d", ConfigFrameSize, len(data))
	}
}

func TestRepeaterConfigEncodeFields(t *testing.T) {
	data := sampleConfig().Encode()

	if string(data[0:8]) != "00312000" {
		t.Errorf("Bad repeater id field %q", data[0:8])
	}
	if string(data[8:16]) != "N0CALL  " {
		t.Errorf("Callsign not left-justified: %q", data[8:16])
	}
	if string(data[16:25]) != "438800000" {
		t.Errorf("Bad RX frequency field %q", data[16:25])
	}
	if string(data[34:36]) != "25" {
		t.Errorf("Bad TX power field %q", data[34:36])
	}
	if string(data[36:38]) != " 1" {
		t.Errorf("Color code not right-justified: %q", data[36:38])
	}
	if string(data[55:58]) != " 12" {
		t.Errorf("Height not right-justified: %q", data[55:58])
	}
	if !strings.HasPrefix(string(data[58:78]), "Amsterdam") {
		t.Errorf("Bad location field %q", data[58:78])
	}
}

func TestRepeaterConfigRoundTrip(t *testing.T) {
	want := sampleConfig()

	got, err := ParseRepeaterConfig(want.Encode())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got.RepeaterID != want.RepeaterID {
		t.Errorf("RepeaterID: got %d, want %d", got.RepeaterID, want.RepeaterID)
	}
	if got.Callsign != want.Callsign {
		t.Errorf("Callsign: got %q, want %q", got.Callsign, want.Callsign)
	}
	if got.RXFreq != want.RXFreq || got.TXFreq != want.TXFreq {
		t.Errorf("Frequencies: got %d/%d, want %d/%d", got.RXFreq, got.TXFreq, want.RXFreq, want.TXFreq)
	}
	if got.TXPower != want.TXPower || got.ColorCode != want.ColorCode {
		t.Errorf("Power/color: got %d/%d, want %d/%d", got.TXPower, got.ColorCode, want.TXPower, want.ColorCode)
	}
	if got.Latitude != want.Latitude || got.Longitude != want.Longitude {
		t.Errorf("Coordinates: got %f/%f, want %f/%f", got.Latitude, got.Longitude, want.Latitude, want.Longitude)
	}
	if got.Height != want.Height {
		t.Errorf("Height: got %d, want %d", got.Height, want.Height)
	}
	if got.Location != want.Location || got.Description != want.Description {
		t.Errorf("Location/description: got %q/%q", got.Location, got.Description)
	}
	if got.URL != want.URL || got.SoftwareID != want.SoftwareID || got.PackageID != want.PackageID {
		t.Errorf("Text fields: got %q/%q/%q", got.URL, got.SoftwareID, got.PackageID)
	}
}

func TestParseRepeaterConfigWrongSize(t *testing.T) {
	if _, err := ParseRepeaterConfig(make([]byte, 306)); err == nil {
		t.Error("Expected error for the historical 306-byte layout")
	}
}

func TestRepeaterConfigLongFieldsClipped(t *testing.T) {
	cfg := sampleConfig()
	cfg.Callsign = "TOOLONGCALLSIGN"
	cfg.Location = strings.Repeat("x", 64)

	data := cfg.Encode()
	if len(data) != ConfigFrameSize {
		t.Fatalf("Overlong fields must not grow the blob: %d bytes", len(data))
	}
	if string(data[8:16]) != "TOOLONGC" {
		t.Errorf("Callsign not clipped: %q", data[8:16])
	}
}
