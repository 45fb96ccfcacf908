package xbox360

// InputState represents the virtual pad state submitted to the bus driver.
// Values are more or less XInput's C API.
type InputState struct {
	// Button bitfield, see the Button* constants
	Buttons uint16
	// Triggers: 0-255
	LT, RT uint8
	// Sticks: signed 16-bit values, positive Y is up
	LX, LY int16
	RX, RY int16
}

// SetButton ORs a button mask into the bitfield when pressed.
func (x *InputState) SetButton(mask uint16, pressed bool) {
	if pressed {
		x.Buttons |= mask
	}
}

// Neutral reports whether the state carries no input at all.
func (x *InputState) Neutral() bool {
	return x.Buttons == 0 && x.LT == 0 && x.RT == 0 &&
		x.LX == 0 && x.LY == 0 && x.RX == 0 && x.RY == 0
}
