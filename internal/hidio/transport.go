// Package hidio wraps the hidapi binding with enumeration, transport
// classification and the read-failure bookkeeping the reconnect loop needs.
package hidio

import (
	"fmt"
	"strings"
	"time"

	hid "github.com/sstallion/go-hid"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/device/dualshock4"
	"github.com/Alia5/dsbridge/device/gamepad"
)

// Model identifies the controller family behind a handle.
type Model int

const (
	ModelUnknown Model = iota
	ModelDualSense
	ModelDualShock4
)

func (m Model) String() string {
	switch m {
	case ModelDualSense:
		return "dualsense"
	case ModelDualShock4:
		return "dualshock4"
	default:
		return "unknown"
	}
}

const (
	usagePageGenericDesktop = 0x01
	usageGamepad            = 0x05
)

// ReadTimeout bounds a single blocking read. One input-report interval.
const ReadTimeout = 4 * time.Millisecond

// Disconnect classification: this many consecutive read failures inside
// the window count as a lost link.
const (
	disconnectFailures = 3
	disconnectWindow   = 200 * time.Millisecond
)

// Candidate describes one enumerated HID interface of a controller.
type Candidate struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Serial    string
	Model     Model
	Bluetooth bool
}

// Init prepares the hidapi backend. Call once before Enumerate.
func Init() error { return hid.Init() }

// Shutdown releases the hidapi backend.
func Shutdown() error { return hid.Exit() }

// Enumerate lists Sony controllers we know how to drive. Interfaces that
// do not expose the gamepad usage are skipped so we never grab the audio
// endpoints of a DualSense.
func Enumerate() ([]Candidate, error) {
	var out []Candidate
	err := hid.Enumerate(dualsense.VendorIDSony, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		model := modelFor(info.ProductID)
		if model == ModelUnknown {
			return nil
		}
		if info.UsagePage != 0 && !(info.UsagePage == usagePageGenericDesktop && info.Usage == usageGamepad) {
			return nil
		}
		out = append(out, Candidate{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Serial:    info.SerialNbr,
			Model:     model,
			Bluetooth: info.BusType == hid.BusBluetooth,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid enumerate: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func modelFor(pid uint16) Model {
	switch pid {
	case dualsense.ProductID, dualsense.ProductIDV2:
		return ModelDualSense
	case dualshock4.ProductID, dualshock4.ProductIDV2:
		return ModelDualShock4
	default:
		return ModelUnknown
	}
}

// Device is one opened controller handle.
type Device struct {
	handle *hid.Device
	info   Candidate

	failCount int
	failFirst time.Time
}

// Open opens a candidate path.
func Open(c Candidate) (*Device, error) {
	h, err := hid.OpenPath(c.Path)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "denied") {
			return nil, fmt.Errorf("%w: %s", ErrOpenDenied, c.Path)
		}
		return nil, fmt.Errorf("open %s: %w", c.Path, err)
	}
	return &Device{handle: h, info: c}, nil
}

// Info returns the candidate this device was opened from.
func (d *Device) Info() Candidate { return d.info }

// InitialTransport classifies the link by the bus the OS reported.
// Bluetooth always starts in simple mode until the handshake promotes it.
func (d *Device) InitialTransport() gamepad.Transport {
	if d.info.Bluetooth {
		return gamepad.TransportBluetoothSimple
	}
	return gamepad.TransportUSB
}

// Read blocks for at most timeout and fills buf with one input report.
// Returns ErrReadTimeout when the interval elapses without data.
func (d *Device) Read(buf []byte, timeout time.Duration) (int, error) {
	n, err := d.handle.ReadWithTimeout(buf, timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if n == 0 {
		return 0, ErrReadTimeout
	}
	return n, nil
}

// WriteOutput sends one output report. At most one write may be in flight
// per device; the caller serializes.
func (d *Device) WriteOutput(p []byte) error {
	if _, err := d.handle.Write(p); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// GetFeature reads a feature report. buf[0] must hold the report id.
func (d *Device) GetFeature(buf []byte) (int, error) {
	n, err := d.handle.GetFeatureReport(buf)
	if err != nil {
		return 0, fmt.Errorf("get feature 0x%02X: %w", buf[0], err)
	}
	return n, nil
}

// SendFeature writes a feature report. p[0] must hold the report id.
func (d *Device) SendFeature(p []byte) error {
	if _, err := d.handle.SendFeatureReport(p); err != nil {
		return fmt.Errorf("send feature 0x%02X: %w", p[0], err)
	}
	return nil
}

// Close releases the handle.
func (d *Device) Close() error {
	if d.handle == nil {
		return nil
	}
	err := d.handle.Close()
	d.handle = nil
	return err
}

// NoteReadError records a failed read and reports whether the failure
// pattern classifies as a disconnect.
func (d *Device) NoteReadError(now time.Time) bool {
	if d.failCount == 0 || now.Sub(d.failFirst) > disconnectWindow {
		d.failCount = 1
		d.failFirst = now
		return false
	}
	d.failCount++
	return d.failCount >= disconnectFailures
}

// NoteReadOK resets the failure window.
func (d *Device) NoteReadOK() {
	d.failCount = 0
}
