// Package vigem feeds virtual Xbox 360 pad state to the ViGEmBus driver
// through ViGEmClient.dll. The pad is plugged lazily and vibration coming
// back from games is surfaced through a callback.
package vigem

import (
	"errors"

	"github.com/Alia5/dsbridge/device/xbox360"
)

// ErrDriverUnavailable reports that ViGEmBus or its client library is not
// installed on this machine.
var ErrDriverUnavailable = errors.New("vigem driver unavailable")

// Vibration is one rumble notification from the driver. Motor values are
// the raw 0-255 XInput magnitudes.
type Vibration struct {
	LargeMotor byte
	SmallMotor byte
}

// Pad is the virtual Xbox 360 controller surface the bridge drives.
type Pad interface {
	// Plug makes the pad appear to the OS. Idempotent.
	Plug() error
	// Unplug removes the pad from the OS. Idempotent.
	Unplug() error
	// Plugged reports whether the pad is currently visible to the OS.
	Plugged() bool
	// Update pushes one full input state to the driver.
	Update(s xbox360.InputState) error
	// Close unplugs and releases the target.
	Close() error
}

// Bus is one connection to the ViGEmBus driver.
type Bus interface {
	// NewPad allocates an x360 target. vibration may be nil.
	NewPad(vibration func(Vibration)) (Pad, error)
	// Close tears down the driver connection.
	Close() error
}
