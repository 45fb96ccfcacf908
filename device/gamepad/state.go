// Package gamepad defines the normalized controller frame shared by the
// report decoders and the mapping pipeline.
package gamepad

import "math"

// Transport identifies how the physical controller is linked to the host.
// The transport selects input-report offsets, the outbound report length
// and whether a CRC trailer is appended.
type Transport int

const (
	TransportDisconnected Transport = iota
	TransportUSB
	TransportBluetoothSimple
	TransportBluetoothEnhanced
)

func (t Transport) String() string {
	switch t {
	case TransportUSB:
		return "usb"
	case TransportBluetoothSimple:
		return "bt-simple"
	case TransportBluetoothEnhanced:
		return "bt-enhanced"
	default:
		return "disconnected"
	}
}

// IsBluetooth reports whether the transport is either Bluetooth variant.
func (t Transport) IsBluetooth() bool {
	return t == TransportBluetoothSimple || t == TransportBluetoothEnhanced
}

// State is one decoded input frame. Stick axes are centered and deadzone
// applied, range -1..+1. Triggers are 0..1. Touch coordinates are raw
// touchpad units (0..1919 x 0..1079).
type State struct {
	Cross    bool
	Circle   bool
	Square   bool
	Triangle bool

	L1 bool
	R1 bool
	L3 bool
	R3 bool

	Share    bool
	Options  bool
	PS       bool
	Mute     bool
	Touchpad bool

	DPadUp    bool
	DPadDown  bool
	DPadLeft  bool
	DPadRight bool

	L2 float64
	R2 float64

	LeftX  float64
	LeftY  float64
	RightX float64
	RightY float64

	TouchX      int
	TouchY      int
	TouchActive bool

	BatteryPercent int
	IsCharging     bool

	// Raw holds a copy of the most recent report for diagnostics.
	Raw [80]byte
	// RawLen is the number of valid bytes in Raw.
	RawLen int
}

// Reset zeroes the frame in place without releasing the raw buffer.
func (s *State) Reset() {
	*s = State{}
}

// SetRaw copies up to len(Raw) bytes of the source report into the frame.
func (s *State) SetRaw(data []byte) {
	n := copy(s.Raw[:], data)
	s.RawLen = n
}

// CenterStick converts a raw 0..255 stick byte to -1..+1 with 128 as zero.
func CenterStick(v byte) float64 {
	return float64(int(v)-128) / 128.0
}

// NormalizeTrigger converts a raw 0..255 trigger byte to 0..1.
func NormalizeTrigger(v byte) float64 {
	return float64(v) / 255.0
}

// ApplyDeadzone remaps a stick vector radially. Below the deadzone radius
// both components are zero; above it the remaining range rescales so the
// deadzone boundary maps back onto the origin and magnitude 1 stays 1.
func ApplyDeadzone(x, y, deadzone float64) (float64, float64) {
	if deadzone <= 0 {
		return x, y
	}
	mag := math.Sqrt(x*x + y*y)
	if mag < deadzone {
		return 0, 0
	}
	if deadzone >= 1 {
		return 0, 0
	}
	scale := (mag - deadzone) / (1 - deadzone)
	if scale > 1 {
		scale = 1
	}
	return x / mag * scale, y / mag * scale
}
