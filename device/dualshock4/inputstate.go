package dualshock4

import (
	"errors"
	"fmt"

	"github.com/Alia5/dsbridge/device/gamepad"
)

var (
	ErrUnknownReportID = errors.New("unknown report id")
	ErrShortReport     = errors.New("input report too short")
)

// Decode parses one raw DualShock 4 input report into the reusable frame
// slot. USB uses id 0x01; Bluetooth after the calibration handshake uses
// id 0x11 with the same layout behind two header bytes. Bluetooth before
// the handshake reports id 0x01 in the USB layout but without touch or
// battery data.
func Decode(report []byte, transport gamepad.Transport, dzLeft, dzRight float64, out *gamepad.State) error {
	if len(report) < 1 {
		return ErrShortReport
	}
	id := report[0]

	switch transport {
	case gamepad.TransportUSB:
		if id != ReportIDInputUSB {
			return fmt.Errorf("%w: 0x%02X on usb", ErrUnknownReportID, id)
		}
		if len(report) < InOffsetBattery+1 {
			return ErrShortReport
		}
		decodeBody(report, 0, dzLeft, dzRight, out)
		decodeBattery(report, 0, out)
	case gamepad.TransportBluetoothEnhanced:
		if id != ReportIDInputBT {
			return fmt.Errorf("%w: 0x%02X on bt-enhanced", ErrUnknownReportID, id)
		}
		if len(report) < InOffsetBattery+BTInputShift+1 {
			return ErrShortReport
		}
		decodeBody(report, BTInputShift, dzLeft, dzRight, out)
		decodeBattery(report, BTInputShift, out)
	case gamepad.TransportBluetoothSimple:
		if id != ReportIDInputUSB {
			return fmt.Errorf("%w: 0x%02X on bt-simple", ErrUnknownReportID, id)
		}
		if len(report) < InOffsetR2+1 {
			return ErrShortReport
		}
		decodeBody(report, 0, dzLeft, dzRight, out)
	default:
		return fmt.Errorf("decode on %s transport", transport)
	}

	out.SetRaw(report)
	return nil
}

func decodeBody(report []byte, shift int, dzLeft, dzRight float64, out *gamepad.State) {
	out.Reset()

	lx := gamepad.CenterStick(report[InOffsetStickLX+shift])
	ly := gamepad.CenterStick(report[InOffsetStickLY+shift])
	rx := gamepad.CenterStick(report[InOffsetStickRX+shift])
	ry := gamepad.CenterStick(report[InOffsetStickRY+shift])
	out.LeftX, out.LeftY = gamepad.ApplyDeadzone(lx, ly, dzLeft)
	out.RightX, out.RightY = gamepad.ApplyDeadzone(rx, ry, dzRight)

	b0 := report[InOffsetButtons+shift]
	b1 := report[InOffsetButtons+shift+1]
	b2 := report[InOffsetButtons+shift+2]

	decodeHat(b0&HatMask, out)
	out.Square = b0&ButtonSquare != 0
	out.Cross = b0&ButtonCross != 0
	out.Circle = b0&ButtonCircle != 0
	out.Triangle = b0&ButtonTriangle != 0

	out.L1 = b1&ButtonL1 != 0
	out.R1 = b1&ButtonR1 != 0
	out.Share = b1&ButtonShare != 0
	out.Options = b1&ButtonOptions != 0
	out.L3 = b1&ButtonL3 != 0
	out.R3 = b1&ButtonR3 != 0

	out.PS = b2&ButtonPS != 0
	out.Touchpad = b2&ButtonTouchpad != 0

	if len(report) > InOffsetR2+shift {
		out.L2 = gamepad.NormalizeTrigger(report[InOffsetL2+shift])
		out.R2 = gamepad.NormalizeTrigger(report[InOffsetR2+shift])
	} else {
		if b1&ButtonL2 != 0 {
			out.L2 = 1
		}
		if b1&ButtonR2 != 0 {
			out.R2 = 1
		}
	}

	if len(report) >= InOffsetTouch+shift+4 {
		decodeTouch(report[InOffsetTouch+shift:InOffsetTouch+shift+4], out)
	}
}

func decodeHat(hat uint8, out *gamepad.State) {
	switch hat {
	case 0:
		out.DPadUp = true
	case 1:
		out.DPadUp, out.DPadRight = true, true
	case 2:
		out.DPadRight = true
	case 3:
		out.DPadDown, out.DPadRight = true, true
	case 4:
		out.DPadDown = true
	case 5:
		out.DPadDown, out.DPadLeft = true, true
	case 6:
		out.DPadLeft = true
	case 7:
		out.DPadUp, out.DPadLeft = true, true
	}
}

func decodeTouch(rec []byte, out *gamepad.State) {
	out.TouchActive = rec[0]&TouchInactiveMask == 0
	x := int(rec[1]) | int(rec[2]&0x0F)<<8
	y := int(rec[2]>>4) | int(rec[3])<<4
	if x > TouchpadMaxX {
		x = TouchpadMaxX
	}
	if y > TouchpadMaxY {
		y = TouchpadMaxY
	}
	out.TouchX = x
	out.TouchY = y
}

// decodeBattery reads the 0..10 level nibble. While a cable is attached the
// nibble tops out at 11 meaning fully charged.
func decodeBattery(report []byte, shift int, out *gamepad.State) {
	b := report[InOffsetBattery+shift]
	level := int(b & BatteryLevelMask)
	cable := b&CableStateMask != 0
	if level > 10 {
		level = 10
	}
	p := level * 10
	if !cable {
		p += 5
	}
	if p > 100 {
		p = 100
	}
	out.BatteryPercent = p
	out.IsCharging = cable
}
