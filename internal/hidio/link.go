package hidio

import (
	"log/slog"
	"time"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/device/dualshock4"
	"github.com/Alia5/dsbridge/device/gamepad"
)

// LinkState tracks the lifecycle of one opened controller.
type LinkState int

const (
	LinkUnopened LinkState = iota
	LinkOpened
	LinkHandshaking
	LinkActive
	LinkDisconnected
)

func (s LinkState) String() string {
	switch s {
	case LinkOpened:
		return "opened"
	case LinkHandshaking:
		return "handshaking"
	case LinkActive:
		return "active"
	case LinkDisconnected:
		return "disconnected"
	default:
		return "unopened"
	}
}

const (
	handshakeTimeout  = 500 * time.Millisecond
	handshakeAttempts = 2

	// A controller stuck in simple mode this long gets one silent
	// reconnect attempt before we settle for the degraded link.
	simpleModeFrameLimit = 200
)

// featureRequester is the slice of Device the handshake needs.
type featureRequester interface {
	GetFeature(buf []byte) (int, error)
}

// Link drives transport promotion for one opened controller. Bluetooth
// links start in simple mode; reading the calibration feature report flips
// the firmware into the enhanced input format, observed as a change of
// input report id within the handshake window.
type Link struct {
	dev    featureRequester
	model  Model
	logger *slog.Logger

	state     LinkState
	transport gamepad.Transport

	attempts     int
	deadline     time.Time
	simpleFrames int
	simpleWarned bool
}

// NewLink wraps an opened device. The initial transport must come from
// Device.InitialTransport.
func NewLink(dev featureRequester, model Model, transport gamepad.Transport, logger *slog.Logger) *Link {
	l := &Link{
		dev:       dev,
		model:     model,
		logger:    logger,
		state:     LinkOpened,
		transport: transport,
	}
	return l
}

// Transport returns the current transport classification.
func (l *Link) Transport() gamepad.Transport { return l.transport }

// State returns the current link state.
func (l *Link) State() LinkState { return l.state }

// SimpleModeWarning reports whether the link settled in degraded
// Bluetooth simple mode after exhausting the handshake attempts.
func (l *Link) SimpleModeWarning() bool { return l.simpleWarned }

// StartHandshake kicks off enhanced-mode promotion on a Bluetooth link.
// USB links are already in their final transport and ignore the call.
func (l *Link) StartHandshake(now time.Time) {
	if l.transport != gamepad.TransportBluetoothSimple {
		return
	}
	l.requestEnhanced(now)
}

func (l *Link) requestEnhanced(now time.Time) {
	l.attempts++
	l.state = LinkHandshaking
	l.deadline = now.Add(handshakeTimeout)

	buf := make([]byte, 64)
	switch l.model {
	case ModelDualShock4:
		buf[0] = dualshock4.ReportIDFeatureCali
	default:
		buf[0] = dualsense.ReportIDFeatureCali
	}
	n, err := l.dev.GetFeature(buf)
	if err != nil {
		l.logger.Warn("enhanced mode handshake request failed", "attempt", l.attempts, "error", err)
		return
	}
	if l.model == ModelDualSense && !dualsense.VerifyFeatureCRC(buf[:n]) {
		l.logger.Warn("calibration report failed CRC check", "attempt", l.attempts)
	}
	l.logger.Debug("requested enhanced report mode", "attempt", l.attempts, "reply", n)
}

// ObserveReportID feeds every raw input report id into the state machine.
// Returns true when the transport changed.
func (l *Link) ObserveReportID(id byte, now time.Time) bool {
	enhancedID := byte(dualsense.ReportIDInputBT)
	if l.model == ModelDualShock4 {
		enhancedID = dualshock4.ReportIDInputBT
	}

	if l.state == LinkHandshaking {
		if id == enhancedID {
			l.transport = gamepad.TransportBluetoothEnhanced
			l.state = LinkOpened
			l.simpleWarned = false
			l.logger.Info("bluetooth link promoted to enhanced mode")
			return true
		}
		if now.After(l.deadline) {
			if l.attempts < handshakeAttempts {
				l.requestEnhanced(now)
				return false
			}
			l.state = LinkOpened
			l.simpleWarned = true
			l.logger.Warn("enhanced mode handshake failed, staying in simple mode")
		}
		return false
	}

	if l.transport == gamepad.TransportBluetoothSimple && id == enhancedID {
		// Firmware flipped on its own (e.g. another client poked it).
		l.transport = gamepad.TransportBluetoothEnhanced
		l.simpleWarned = false
		l.logger.Info("bluetooth link promoted to enhanced mode")
		return true
	}
	return false
}

// Activate marks the first successfully decoded frame.
func (l *Link) Activate() {
	if l.state == LinkOpened {
		l.state = LinkActive
	}
}

// Disconnect marks the link lost.
func (l *Link) Disconnect() {
	l.state = LinkDisconnected
	l.transport = gamepad.TransportDisconnected
}

// NoteSimpleFrame counts frames decoded while still in simple mode and
// reports whether a reconnect attempt is worth a try. Fires once.
func (l *Link) NoteSimpleFrame() bool {
	if l.transport != gamepad.TransportBluetoothSimple {
		return false
	}
	l.simpleFrames++
	return l.simpleFrames == simpleModeFrameLimit
}
