// Package sendinput injects synthetic keyboard and mouse events into the
// desktop session. Key and button edges come from the mapping ledger, so
// every press is eventually paired with a release.
package sendinput

import "errors"

// ErrUnsupported reports that synthetic input is not available on this
// platform.
var ErrUnsupported = errors.New("synthetic input unsupported on this platform")

// Mouse button indices, matching the mapping target encoding.
const (
	MouseLeft   = 0
	MouseMiddle = 1
	MouseRight  = 2
)

// Injector delivers synthetic input events.
type Injector interface {
	// Key injects one virtual-key transition.
	Key(vk uint16, press bool) error
	// MouseButton injects one button transition.
	MouseButton(button int, press bool) error
	// MouseMove injects a relative cursor move in mickeys.
	MouseMove(dx, dy int32) error
	// Wheel injects vertical scroll. delta is in 120-unit detents.
	Wheel(delta int32) error
}
