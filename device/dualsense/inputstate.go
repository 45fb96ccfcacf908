package dualsense

import (
	"errors"
	"fmt"

	"github.com/Alia5/dsbridge/device/gamepad"
)

var (
	ErrUnknownReportID = errors.New("unknown report id")
	ErrShortReport     = errors.New("input report too short")
)

// Decode parses one raw input report into the reusable frame slot.
// The transport selects the expected report id and payload offsets:
//
//	USB:          id 0x01, analog from byte 1
//	BT enhanced:  id 0x31, same layout shifted by one byte
//	BT simple:    id 0x01, truncated layout, digital triggers, no touch/battery
//
// Deadzones are applied radially to both sticks before the frame is
// published. The slot is fully rewritten; no allocation happens here.
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
		decodeEnhanced(report, 0, dzLeft, dzRight, out)
		decodeBatteryUSB(report, out)
	case gamepad.TransportBluetoothEnhanced:
		if id != ReportIDInputBT {
			return fmt.Errorf("%w: 0x%02X on bt-enhanced", ErrUnknownReportID, id)
		}
		if len(report) < InOffsetBattery+BTInputShift+2 {
			return ErrShortReport
		}
		decodeEnhanced(report, BTInputShift, dzLeft, dzRight, out)
		decodeBatteryBT(report, out)
	case gamepad.TransportBluetoothSimple:
		if id != ReportIDInputUSB {
			return fmt.Errorf("%w: 0x%02X on bt-simple", ErrUnknownReportID, id)
		}
		if len(report) < 10 {
			return ErrShortReport
		}
		decodeSimple(report, dzLeft, dzRight, out)
	default:
		return fmt.Errorf("decode on %s transport", transport)
	}

	out.SetRaw(report)
	return nil
}

func decodeEnhanced(report []byte, shift int, dzLeft, dzRight float64, out *gamepad.State) {
	out.Reset()

	lx := gamepad.CenterStick(report[InOffsetStickLX+shift])
	ly := gamepad.CenterStick(report[InOffsetStickLY+shift])
	rx := gamepad.CenterStick(report[InOffsetStickRX+shift])
	ry := gamepad.CenterStick(report[InOffsetStickRY+shift])
	out.LeftX, out.LeftY = gamepad.ApplyDeadzone(lx, ly, dzLeft)
	out.RightX, out.RightY = gamepad.ApplyDeadzone(rx, ry, dzRight)

	out.L2 = gamepad.NormalizeTrigger(report[InOffsetL2+shift])
	out.R2 = gamepad.NormalizeTrigger(report[InOffsetR2+shift])

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
	out.Mute = b2&ButtonMute != 0

	if len(report) >= InOffsetTouch+shift+4 {
		decodeTouch(report[InOffsetTouch+shift:InOffsetTouch+shift+4], out)
	}
}

func decodeSimple(report []byte, dzLeft, dzRight float64, out *gamepad.State) {
	out.Reset()

	lx := gamepad.CenterStick(report[1])
	ly := gamepad.CenterStick(report[2])
	rx := gamepad.CenterStick(report[3])
	ry := gamepad.CenterStick(report[4])
	out.LeftX, out.LeftY = gamepad.ApplyDeadzone(lx, ly, dzLeft)
	out.RightX, out.RightY = gamepad.ApplyDeadzone(rx, ry, dzRight)

	b0 := report[5]
	b1 := report[6]
	b2 := report[7]

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

	// Simple mode reports the triggers only as digital bits.
	if b1&ButtonL2 != 0 {
		out.L2 = 1
	}
	if b1&ButtonR2 != 0 {
		out.R2 = 1
	}

	out.PS = b2&ButtonPS != 0
	out.Touchpad = b2&ButtonTouchpad != 0
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

// decodeTouch unpacks the first touch record: a counter byte with the
// inactive flag in bit 7 followed by 12-bit x and y packed into 3 bytes.
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

func decodeBatteryUSB(report []byte, out *gamepad.State) {
	b := report[InOffsetBattery]
	out.BatteryPercent = batteryPercent(b & BatteryLevelMask)
	out.IsCharging = b&BatteryChargingMask != 0
}

func decodeBatteryBT(report []byte, out *gamepad.State) {
	b := report[InOffsetBattery+BTInputShift]
	status := report[InOffsetBattery+BTInputShift+1]
	out.BatteryPercent = batteryPercent(b & BatteryLevelMask)
	out.IsCharging = b&BatteryChargingMask != 0 || status&BatteryStatusChargingBT != 0
}

// batteryPercent maps the firmware's 0..10 level nibble to percent.
func batteryPercent(level uint8) int {
	p := int(level)*10 + 5
	if p > 100 {
		p = 100
	}
	return p
}
