package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// RepeaterConfig is the fixed-layout configuration record sent once,
// immediately after authentication. On the wire it is exactly 302 bytes of
// ASCII: numeric fields right-justified and space-padded, text fields
// left-justified and space-padded.
type RepeaterConfig struct {
	RepeaterID  uint32
	Callsign    string
	RXFreq      uint32 // hertz
	TXFreq      uint32 // hertz
	TXPower     uint8
	ColorCode   uint8
	Latitude    float64 // signed degrees
	Longitude   float64 // signed degrees
	Height      uint16  // metres
	Location    string
	Description string
	URL         string
	SoftwareID  string
	PackageID   string
}

// Blob field offsets. The field widths sum to 302; anything else on the
// wire is rejected by the master.
const (
	cfgOffCallsign    = 8
	cfgOffRXFreq      = 16
	cfgOffTXFreq      = 25
	cfgOffTXPower     = 34
	cfgOffColorCode   = 36
	cfgOffLatitude    = 38
	cfgOffLongitude   = 46
	cfgOffHeight      = 55
	cfgOffLocation    = 58
	cfgOffDescription = 78
	cfgOffURL         = 98
	cfgOffSoftwareID  = 222
	cfgOffPackageID   = 262
)

// clip truncates a formatted field to its wire width.
func clip(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s
}

// Encode renders the 302-byte configuration blob.
func (c *RepeaterConfig) Encode() []byte {
	data := make([]byte, ConfigFrameSize)

	copy(data[0:cfgOffCallsign], FormatRepeaterID(c.RepeaterID))
	copy(data[cfgOffCallsign:], fmt.Sprintf("%-8s", clip(c.Callsign, 8)))
	copy(data[cfgOffRXFreq:], fmt.Sprintf("%9d", c.RXFreq))
	copy(data[cfgOffTXFreq:], fmt.Sprintf("%9d", c.TXFreq))
	copy(data[cfgOffTXPower:], fmt.Sprintf("%2d", c.TXPower))
	copy(data[cfgOffColorCode:], fmt.Sprintf("%2d", c.ColorCode))
	copy(data[cfgOffLatitude:], clip(fmt.Sprintf("%8.4f", c.Latitude), 8))
	copy(data[cfgOffLongitude:], clip(fmt.Sprintf("%9.4f", c.Longitude), 9))
	copy(data[cfgOffHeight:], fmt.Sprintf("%3d", c.Height))
	copy(data[cfgOffLocation:], fmt.Sprintf("%-20s", clip(c.Location, 20)))
	copy(data[cfgOffDescription:], fmt.Sprintf("%-20s", clip(c.Description, 20)))
	copy(data[cfgOffURL:], fmt.Sprintf("%-124s", clip(c.URL, 124)))
	copy(data[cfgOffSoftwareID:], fmt.Sprintf("%-40s", clip(c.SoftwareID, 40)))
	copy(data[cfgOffPackageID:], fmt.Sprintf("%-40s", clip(c.PackageID, 40)))

	return data
}

// ParseRepeaterConfig reads a 302-byte configuration blob.
func ParseRepeaterConfig(data []byte) (*RepeaterConfig, error) {
	if len(data) != ConfigFrameSize {
		return nil, fmt.Errorf("protocol: expected %d config bytes, got %d", ConfigFrameSize, len(data))
	}

	id, err := ParseRepeaterID(data[0:cfgOffCallsign])
	if err != nil {
		return nil, err
	}

	num := func(from, to int) uint64 {
		v, _ := strconv.ParseUint(strings.TrimSpace(string(data[from:to])), 10, 32)
		return v
	}
	deg := func(from, to int) float64 {
		v, _ := strconv.ParseFloat(strings.TrimSpace(string(data[from:to])), 64)
		return v
	}
	text := func(from, to int) string {
		return strings.TrimRight(string(data[from:to]), " \x00")
	}

	return &RepeaterConfig{
		RepeaterID:  id,
		Callsign:    text(cfgOffCallsign, cfgOffRXFreq),
		RXFreq:      uint32(num(cfgOffRXFreq, cfgOffTXFreq)),
		TXFreq:      uint32(num(cfgOffTXFreq, cfgOffTXPower)),
		TXPower:     uint8(num(cfgOffTXPower, cfgOffColorCode)),
		ColorCode:   uint8(num(cfgOffColorCode, cfgOffLatitude)),
		Latitude:    deg(cfgOffLatitude, cfgOffLongitude),
		Longitude:   deg(cfgOffLongitude, cfgOffHeight),
		Height:      uint16(num(cfgOffHeight, cfgOffLocation)),
		Location:    text(cfgOffLocation, cfgOffDescription),
		Description: text(cfgOffDescription, cfgOffURL),
		URL:         text(cfgOffURL, cfgOffSoftwareID),
		SoftwareID:  text(cfgOffSoftwareID, cfgOffPackageID),
		PackageID:   text(cfgOffPackageID, ConfigFrameSize),
	}, nil
}
