package mapping

import (
	"math"

	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/Alia5/dsbridge/device/xbox360"
)

// Sensitivity scales the pointer output of vector sources.
type Sensitivity struct {
	MouseLeft  float64
	MouseRight float64
	Touchpad   float64
}

// KeyEdge is one synthetic key transition.
type KeyEdge struct {
	VK    uint16
	Press bool
}

// MouseEdge is one synthetic mouse button transition.
type MouseEdge struct {
	Button int
	Press  bool
}

// Output is everything one frame produces.
type Output struct {
	Pad   xbox360.InputState
	Keys  []KeyEdge
	Mouse []MouseEdge
	// MoveX/MoveY are relative cursor counts for this frame.
	MoveX, MoveY int32
	// Wheel is in 120-unit detents.
	Wheel int32
}

// digitalThreshold is where a scalar or vector source counts as pressed.
const digitalThreshold = 0.5

// baseFrameInterval normalizes pointer speed against the controller's 4 ms
// report cadence so sensitivity feels the same on USB and Bluetooth.
const baseFrameInterval = 0.004

// Engine applies a mapping set frame by frame. It owns the held-key ledger
// and the fractional pointer accumulators between frames.
type Engine struct {
	set  Set
	sens Sensitivity

	heldKeys  map[uint16]bool
	heldMouse map[int]bool

	accX, accY float64
	accWheel   float64
}

// NewEngine builds an engine over a normalized mapping set.
func NewEngine(set Set, sens Sensitivity) *Engine {
	return &Engine{
		set:       Normalize(set),
		sens:      sens,
		heldKeys:  make(map[uint16]bool),
		heldMouse: make(map[int]bool),
	}
}

// SetMappings swaps the mapping set. Keys held under the old set release
// through the next Process call's ledger diff.
func (e *Engine) SetMappings(set Set) {
	e.set = Normalize(set)
}

// SetSensitivity swaps the pointer sensitivity parameters.
func (e *Engine) SetSensitivity(sens Sensitivity) {
	e.sens = sens
}

type sourceValue struct {
	digital bool
	scalar  float64
	vx, vy  float64
	vector  bool
}

func (v sourceValue) pressed() bool {
	if v.digital || v.scalar > digitalThreshold {
		return true
	}
	return v.vector && math.Hypot(v.vx, v.vy) > digitalThreshold
}

func (v sourceValue) analog() float64 {
	if v.scalar > 0 {
		return v.scalar
	}
	if v.digital {
		return 1
	}
	if v.vector {
		return math.Min(math.Hypot(v.vx, v.vy), 1)
	}
	return 0
}

// Process evaluates one frame. dt is the wall time since the previous
// frame in seconds; it scales pointer integration.
func (e *Engine) Process(cur, prev *gamepad.State, dt float64) Output {
	var out Output

	timeScale := dt / baseFrameInterval
	if timeScale <= 0 || timeScale > 16 {
		timeScale = 1
	}

	wantKeys := make(map[uint16]bool, len(e.heldKeys))
	wantMouse := make(map[int]bool, len(e.heldMouse))

	for _, src := range Sources {
		targets := e.set[src]
		if len(targets) == 0 {
			continue
		}
		val := evalSource(src, cur, prev)
		for _, t := range targets {
			switch t.Type {
			case TargetXboxButton:
				out.Pad.SetButton(t.Bit, val.pressed())
			case TargetXboxTrigger:
				v := uint8(math.Round(val.analog() * 255))
				if t.Trigger == "lt" {
					if v > out.Pad.LT {
						out.Pad.LT = v
					}
				} else {
					if v > out.Pad.RT {
						out.Pad.RT = v
					}
				}
			case TargetXboxStick:
				x := int16(clampStick(val.vx) * 32767)
				y := int16(clampStick(-val.vy) * 32767)
				if t.Stick == "ls" {
					out.Pad.LX, out.Pad.LY = x, y
				} else {
					out.Pad.RX, out.Pad.RY = x, y
				}
			case TargetKeyboard:
				if val.pressed() {
					wantKeys[t.VK] = true
				}
			case TargetMouse:
				if val.pressed() {
					wantMouse[t.Button] = true
				}
			case TargetMouseMove:
				s := e.sensFor(src)
				e.accX += val.vx * t.XSpeed * s * timeScale
				e.accY += val.vy * t.YSpeed * s * timeScale
			case TargetMouseScroll:
				e.accWheel += -val.vy * t.Speed * e.sensFor(src) * timeScale
			}
		}
	}

	out.Keys = e.diffKeys(wantKeys)
	out.Mouse = e.diffMouse(wantMouse)

	// Pop the integer part of the accumulators, carry the fraction.
	out.MoveX = popAccum(&e.accX)
	out.MoveY = popAccum(&e.accY)
	if w := popAccum(&e.accWheel); w != 0 {
		out.Wheel = w * 120
	}

	return out
}

// ReleaseAll returns release edges for everything currently held and
// clears the ledgers. Called on disconnect and on shutdown.
func (e *Engine) ReleaseAll() ([]KeyEdge, []MouseEdge) {
	var keys []KeyEdge
	for vk := range e.heldKeys {
		keys = append(keys, KeyEdge{VK: vk, Press: false})
	}
	var mouse []MouseEdge
	for btn := range e.heldMouse {
		mouse = append(mouse, MouseEdge{Button: btn, Press: false})
	}
	e.heldKeys = make(map[uint16]bool)
	e.heldMouse = make(map[int]bool)
	e.accX, e.accY, e.accWheel = 0, 0, 0
	return keys, mouse
}

func (e *Engine) diffKeys(want map[uint16]bool) []KeyEdge {
	var edges []KeyEdge
	for vk := range want {
		if !e.heldKeys[vk] {
			edges = append(edges, KeyEdge{VK: vk, Press: true})
			e.heldKeys[vk] = true
		}
	}
	for vk := range e.heldKeys {
		if !want[vk] {
			edges = append(edges, KeyEdge{VK: vk, Press: false})
			delete(e.heldKeys, vk)
		}
	}
	return edges
}

func (e *Engine) diffMouse(want map[int]bool) []MouseEdge {
	var edges []MouseEdge
	for btn := range want {
		if !e.heldMouse[btn] {
			edges = append(edges, MouseEdge{Button: btn, Press: true})
			e.heldMouse[btn] = true
		}
	}
	for btn := range e.heldMouse {
		if !want[btn] {
			edges = append(edges, MouseEdge{Button: btn, Press: false})
			delete(e.heldMouse, btn)
		}
	}
	return edges
}

func (e *Engine) sensFor(src Source) float64 {
	switch src {
	case SourceLeftStick:
		return e.sens.MouseLeft
	case SourceRightStick:
		return e.sens.MouseRight
	case SourceTouchpad:
		return e.sens.Touchpad
	default:
		return 1
	}
}

func evalSource(src Source, cur, prev *gamepad.State) sourceValue {
	switch src {
	case SourceCross:
		return sourceValue{digital: cur.Cross}
	case SourceCircle:
		return sourceValue{digital: cur.Circle}
	case SourceSquare:
		return sourceValue{digital: cur.Square}
	case SourceTriangle:
		return sourceValue{digital: cur.Triangle}
	case SourceL1:
		return sourceValue{digital: cur.L1}
	case SourceR1:
		return sourceValue{digital: cur.R1}
	case SourceL3:
		return sourceValue{digital: cur.L3}
	case SourceR3:
		return sourceValue{digital: cur.R3}
	case SourceShare:
		return sourceValue{digital: cur.Share}
	case SourceOptions:
		return sourceValue{digital: cur.Options}
	case SourcePS:
		return sourceValue{digital: cur.PS}
	case SourceMute:
		return sourceValue{digital: cur.Mute}
	case SourceTouchpad:
		// Both a button and a vector: the click bit drives digital targets,
		// the touch-point motion drives pointer targets.
		v := sourceValue{digital: cur.Touchpad, vector: true}
		if cur.TouchActive && prev.TouchActive {
			v.vx = float64(cur.TouchX-prev.TouchX) / 1920.0
			v.vy = float64(cur.TouchY-prev.TouchY) / 1080.0
		}
		return v
	case SourceDPadUp:
		return sourceValue{digital: cur.DPadUp}
	case SourceDPadDown:
		return sourceValue{digital: cur.DPadDown}
	case SourceDPadLeft:
		return sourceValue{digital: cur.DPadLeft}
	case SourceDPadRight:
		return sourceValue{digital: cur.DPadRight}
	case SourceL2:
		return sourceValue{scalar: cur.L2}
	case SourceR2:
		return sourceValue{scalar: cur.R2}
	case SourceLeftStick:
		return sourceValue{vector: true, vx: cur.LeftX, vy: cur.LeftY}
	case SourceRightStick:
		return sourceValue{vector: true, vx: cur.RightX, vy: cur.RightY}
	case SourceTouchpadLeft:
		return sourceValue{digital: cur.Touchpad && cur.TouchActive && cur.TouchX < 960}
	case SourceTouchpadRight:
		return sourceValue{digital: cur.Touchpad && cur.TouchActive && cur.TouchX >= 960}
	default:
		return sourceValue{}
	}
}

func clampStick(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func popAccum(acc *float64) int32 {
	whole := math.Trunc(*acc)
	*acc -= whole
	return int32(whole)
}
