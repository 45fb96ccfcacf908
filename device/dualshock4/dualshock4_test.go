package dualshock4_test

import (
	"encoding/binary"
	"testing"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/device/dualshock4"
	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/stretchr/testify/assert"
)

func usbReport(mod func(b []byte)) []byte {
	b := make([]byte, dualshock4.InputReportSizeUSB)
	b[0] = dualshock4.ReportIDInputUSB
	b[1], b[2], b[3], b[4] = 0x80, 0x80, 0x80, 0x80
	b[dualshock4.InOffsetButtons] = dualshock4.HatNeutral
	if mod != nil {
		mod(b)
	}
	return b
}

func btReport(mod func(b []byte)) []byte {
	b := make([]byte, dualshock4.InputReportSizeBT)
	b[0] = dualshock4.ReportIDInputBT
	b[3], b[4], b[5], b[6] = 0x80, 0x80, 0x80, 0x80
	b[dualshock4.InOffsetButtons+dualshock4.BTInputShift] = dualshock4.HatNeutral
	if mod != nil {
		mod(b)
	}
	return b
}

func TestDecodeUSB(t *testing.T) {
	type testCase struct {
		name   string
		report []byte
		check  func(t *testing.T, s *gamepad.State)
	}

	cases := []testCase{
		{
			name:   "neutral",
			report: usbReport(nil),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 0.0, s.LeftX)
				assert.Equal(t, 0.0, s.RightY)
				assert.False(t, s.Cross)
				assert.False(t, s.DPadDown)
			},
		},
		{
			name: "buttons",
			report: usbReport(func(b []byte) {
				b[dualshock4.InOffsetButtons] = dualshock4.HatNeutral | dualshock4.ButtonCircle
				b[dualshock4.InOffsetButtons+1] = dualshock4.ButtonShare | dualshock4.ButtonR3
				b[dualshock4.InOffsetButtons+2] = dualshock4.ButtonPS | dualshock4.ButtonTouchpad
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.Circle)
				assert.True(t, s.Share)
				assert.True(t, s.R3)
				assert.True(t, s.PS)
				assert.True(t, s.Touchpad)
				assert.False(t, s.Mute)
			},
		},
		{
			name: "hat down-left",
			report: usbReport(func(b []byte) {
				b[dualshock4.InOffsetButtons] = 5
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.DPadDown)
				assert.True(t, s.DPadLeft)
			},
		},
		{
			name: "analog triggers",
			report: usbReport(func(b []byte) {
				b[dualshock4.InOffsetL2] = 255
				b[dualshock4.InOffsetR2] = 102
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 1.0, s.L2)
				assert.InDelta(t, 0.4, s.R2, 0.01)
			},
		},
		{
			name: "battery on cable",
			report: usbReport(func(b []byte) {
				b[dualshock4.InOffsetBattery] = 0x0B | dualshock4.CableStateMask
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 100, s.BatteryPercent)
				assert.True(t, s.IsCharging)
			},
		},
		{
			name: "battery unplugged",
			report: usbReport(func(b []byte) {
				b[dualshock4.InOffsetBattery] = 0x07
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 75, s.BatteryPercent)
				assert.False(t, s.IsCharging)
			},
		},
		{
			name: "touch record",
			report: usbReport(func(b []byte) {
				b[dualshock4.InOffsetTouch] = 0x00
				b[dualshock4.InOffsetTouch+1] = 0x7B
				b[dualshock4.InOffsetTouch+2] = 0x80
				b[dualshock4.InOffsetTouch+3] = 0x1C
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.TouchActive)
				assert.Equal(t, 123, s.TouchX)
				assert.Equal(t, 456, s.TouchY)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s gamepad.State
			err := dualshock4.Decode(tc.report, gamepad.TransportUSB, 0, 0, &s)
			if !assert.NoError(t, err) {
				return
			}
			tc.check(t, &s)
		})
	}
}

func TestDecodeBT(t *testing.T) {
	report := btReport(func(b []byte) {
		shift := dualshock4.BTInputShift
		b[dualshock4.InOffsetStickLY+shift] = 0x00
		b[dualshock4.InOffsetButtons+shift] = dualshock4.HatNeutral | dualshock4.ButtonSquare
		b[dualshock4.InOffsetL2+shift] = 0xFF
		b[dualshock4.InOffsetBattery+shift] = 0x05
	})

	var s gamepad.State
	err := dualshock4.Decode(report, gamepad.TransportBluetoothEnhanced, 0, 0, &s)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, -1.0, s.LeftY)
	assert.True(t, s.Square)
	assert.Equal(t, 1.0, s.L2)
	assert.Equal(t, 55, s.BatteryPercent)
	assert.False(t, s.IsCharging)
}

func TestDecodeBTSimpleTruncated(t *testing.T) {
	// Pre-handshake reports stop right after the trigger bytes.
	var s gamepad.State

	short := usbReport(nil)[:dualshock4.InOffsetR2]
	err := dualshock4.Decode(short, gamepad.TransportBluetoothSimple, 0, 0, &s)
	assert.ErrorIs(t, err, dualshock4.ErrShortReport)

	report := usbReport(func(b []byte) {
		b[dualshock4.InOffsetR2] = 0x80
	})[:dualshock4.InOffsetR2+1]
	err = dualshock4.Decode(report, gamepad.TransportBluetoothSimple, 0, 0, &s)
	if !assert.NoError(t, err) {
		return
	}
	assert.InDelta(t, 0.5, s.R2, 0.01)
	assert.False(t, s.TouchActive)
}

func TestDecodeErrors(t *testing.T) {
	type testCase struct {
		name      string
		report    []byte
		transport gamepad.Transport
		wantErr   error
	}

	cases := []testCase{
		{name: "empty", report: nil, transport: gamepad.TransportUSB, wantErr: dualshock4.ErrShortReport},
		{name: "bt id on usb", report: btReport(nil), transport: gamepad.TransportUSB, wantErr: dualshock4.ErrUnknownReportID},
		{name: "usb id on bt", report: usbReport(nil), transport: gamepad.TransportBluetoothEnhanced, wantErr: dualshock4.ErrUnknownReportID},
		{name: "truncated usb", report: usbReport(nil)[:8], transport: gamepad.TransportUSB, wantErr: dualshock4.ErrShortReport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s gamepad.State
			err := dualshock4.Decode(tc.report, tc.transport, 0, 0, &s)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestOutputEncodeUSB(t *testing.T) {
	o := dualshock4.OutputState{
		RumbleSmall: 0x12,
		RumbleLarge: 0xFE,
		LedRed:      0x01,
		LedGreen:    0x02,
		LedBlue:     0x03,
		FlashOn:     0x04,
		FlashOff:    0x05,
	}

	b := o.EncodeUSB()
	if !assert.Len(t, b, dualshock4.OutputReportSizeUSB) {
		return
	}
	assert.Equal(t, uint8(dualshock4.ReportIDOutputUSB), b[0])
	assert.Equal(t, dualshock4.OutFlagsUSB, b[dualshock4.OutOffsetFlags])
	assert.Equal(t, uint8(0x12), b[dualshock4.OutOffsetRumbleSmall])
	assert.Equal(t, uint8(0xFE), b[dualshock4.OutOffsetRumbleLarge])
	assert.Equal(t, uint8(0x01), b[dualshock4.OutOffsetLedRed])
	assert.Equal(t, uint8(0x02), b[dualshock4.OutOffsetLedGreen])
	assert.Equal(t, uint8(0x03), b[dualshock4.OutOffsetLedBlue])
	assert.Equal(t, uint8(0x04), b[dualshock4.OutOffsetFlashOn])
	assert.Equal(t, uint8(0x05), b[dualshock4.OutOffsetFlashOff])
}

func TestOutputEncodeBT(t *testing.T) {
	o := dualshock4.OutputState{RumbleLarge: 0x77, LedBlue: 0xFF}

	b := o.EncodeBT()
	if !assert.Len(t, b, dualshock4.OutputReportSizeBT) {
		return
	}
	assert.Equal(t, uint8(dualshock4.ReportIDOutputBT), b[0])
	assert.Equal(t, dualshock4.BTHeaderPoll, b[1])
	assert.Equal(t, dualshock4.OutFlagsBT, b[dualshock4.OutOffsetFlags+dualshock4.BTOutputShift])
	assert.Equal(t, uint8(0x77), b[dualshock4.OutOffsetRumbleLarge+dualshock4.BTOutputShift])
	assert.Equal(t, uint8(0xFF), b[dualshock4.OutOffsetLedBlue+dualshock4.BTOutputShift])

	want := dualsense.CRC(dualsense.CRCSeedOutput, b[:len(b)-4])
	assert.Equal(t, want, binary.LittleEndian.Uint32(b[len(b)-4:]))
}
