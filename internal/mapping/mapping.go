// Package mapping translates decoded controller frames into virtual pad
// state and synthetic keyboard/mouse actions according to a user-defined
// mapping set.
package mapping

import (
	"github.com/Alia5/dsbridge/device/xbox360"
)

// Source names a physical input on the controller. The touchpad is both a
// button and a vector: bound to a digital target it reads the click, bound
// to a pointer target it reads the touch-point motion. The two touchpad
// halves are synthesized: they read as pressed while the touchpad is
// clicked with an active touch on the matching half.
type Source string

const (
	SourceCross    Source = "cross"
	SourceCircle   Source = "circle"
	SourceSquare   Source = "square"
	SourceTriangle Source = "triangle"

	SourceL1 Source = "l1"
	SourceR1 Source = "r1"
	SourceL3 Source = "l3"
	SourceR3 Source = "r3"

	SourceShare    Source = "share"
	SourceOptions  Source = "options"
	SourcePS       Source = "ps"
	SourceMute     Source = "mute"
	SourceTouchpad Source = "touchpad"

	SourceDPadUp    Source = "dpad_up"
	SourceDPadDown  Source = "dpad_down"
	SourceDPadLeft  Source = "dpad_left"
	SourceDPadRight Source = "dpad_right"

	SourceL2 Source = "l2"
	SourceR2 Source = "r2"

	SourceLeftStick     Source = "left_stick"
	SourceRightStick    Source = "right_stick"
	SourceTouchpadLeft  Source = "touchpad_left"
	SourceTouchpadRight Source = "touchpad_right"
)

// Sources lists every recognized source. A normalized mapping set carries
// exactly one entry per element, even when its target list is empty.
var Sources = []Source{
	SourceCross, SourceCircle, SourceSquare, SourceTriangle,
	SourceL1, SourceR1, SourceL3, SourceR3,
	SourceShare, SourceOptions, SourcePS, SourceMute, SourceTouchpad,
	SourceDPadUp, SourceDPadDown, SourceDPadLeft, SourceDPadRight,
	SourceL2, SourceR2,
	SourceLeftStick, SourceRightStick,
	SourceTouchpadLeft, SourceTouchpadRight,
}

// TargetType discriminates the Target variant.
type TargetType string

const (
	TargetXboxButton  TargetType = "xbox_button"
	TargetXboxTrigger TargetType = "xbox_trigger"
	TargetXboxStick   TargetType = "xbox_stick"
	TargetKeyboard    TargetType = "keyboard"
	TargetMouse       TargetType = "mouse"
	TargetMouseMove   TargetType = "mouse_move"
	TargetMouseScroll TargetType = "mouse_scroll"
)

// Mouse button indices for the mouse target.
const (
	MouseLeft   = 0
	MouseMiddle = 1
	MouseRight  = 2
)

// Target is one action a source drives. Only the fields of the selected
// type are meaningful.
type Target struct {
	Type TargetType `json:"type"`

	Bit     uint16 `json:"bit,omitempty"`     // xbox_button: XInput bitmask
	Trigger string `json:"trigger,omitempty"` // xbox_trigger: "lt" or "rt"
	Stick   string `json:"stick,omitempty"`   // xbox_stick: "ls" or "rs"

	VK     uint16 `json:"vk,omitempty"`     // keyboard: virtual-key code
	Button int    `json:"button,omitempty"` // mouse: 0 left, 1 middle, 2 right

	XSpeed float64 `json:"x_speed,omitempty"` // mouse_move
	YSpeed float64 `json:"y_speed,omitempty"` // mouse_move
	Speed  float64 `json:"speed,omitempty"`   // mouse_scroll
}

// Set is the full mapping: one ordered target list per source.
type Set map[Source][]Target

// Normalize returns a copy with every recognized source present and any
// unknown sources dropped.
func Normalize(s Set) Set {
	out := make(Set, len(Sources))
	for _, src := range Sources {
		if targets, ok := s[src]; ok && targets != nil {
			out[src] = append([]Target(nil), targets...)
		} else {
			out[src] = []Target{}
		}
	}
	return out
}

// DefaultSet maps every input one-to-one onto its Xbox equivalent. Mute,
// the touchpad and its halves stay unmapped.
func DefaultSet() Set {
	return Normalize(Set{
		SourceCross:    {{Type: TargetXboxButton, Bit: xbox360.ButtonA}},
		SourceCircle:   {{Type: TargetXboxButton, Bit: xbox360.ButtonB}},
		SourceSquare:   {{Type: TargetXboxButton, Bit: xbox360.ButtonX}},
		SourceTriangle: {{Type: TargetXboxButton, Bit: xbox360.ButtonY}},

		SourceL1: {{Type: TargetXboxButton, Bit: xbox360.ButtonLShoulder}},
		SourceR1: {{Type: TargetXboxButton, Bit: xbox360.ButtonRShoulder}},
		SourceL3: {{Type: TargetXboxButton, Bit: xbox360.ButtonLThumb}},
		SourceR3: {{Type: TargetXboxButton, Bit: xbox360.ButtonRThumb}},

		SourceShare:   {{Type: TargetXboxButton, Bit: xbox360.ButtonBack}},
		SourceOptions: {{Type: TargetXboxButton, Bit: xbox360.ButtonStart}},
		SourcePS:      {{Type: TargetXboxButton, Bit: xbox360.ButtonGuide}},

		SourceDPadUp:    {{Type: TargetXboxButton, Bit: xbox360.ButtonDPadUp}},
		SourceDPadDown:  {{Type: TargetXboxButton, Bit: xbox360.ButtonDPadDown}},
		SourceDPadLeft:  {{Type: TargetXboxButton, Bit: xbox360.ButtonDPadLeft}},
		SourceDPadRight: {{Type: TargetXboxButton, Bit: xbox360.ButtonDPadRight}},

		SourceL2: {{Type: TargetXboxTrigger, Trigger: "lt"}},
		SourceR2: {{Type: TargetXboxTrigger, Trigger: "rt"}},

		SourceLeftStick:  {{Type: TargetXboxStick, Stick: "ls"}},
		SourceRightStick: {{Type: TargetXboxStick, Stick: "rs"}},
	})
}
