package dualsense_test

import (
	"testing"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/stretchr/testify/assert"
)

func usbReport(mod func(b []byte)) []byte {
	b := make([]byte, dualsense.InputReportSizeUSB)
	b[0] = dualsense.ReportIDInputUSB
	b[1], b[2], b[3], b[4] = 0x80, 0x80, 0x80, 0x80
	b[dualsense.InOffsetButtons] = dualsense.HatNeutral
	if mod != nil {
		mod(b)
	}
	return b
}

func btReport(mod func(b []byte)) []byte {
	b := make([]byte, dualsense.InputReportSizeBT)
	b[0] = dualsense.ReportIDInputBT
	b[2], b[3], b[4], b[5] = 0x80, 0x80, 0x80, 0x80
	b[dualsense.InOffsetButtons+dualsense.BTInputShift] = dualsense.HatNeutral
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
				assert.Equal(t, 0.0, s.LeftY)
				assert.Equal(t, 0.0, s.RightX)
				assert.Equal(t, 0.0, s.RightY)
				assert.False(t, s.Cross)
				assert.False(t, s.DPadUp)
				assert.False(t, s.TouchActive)
			},
		},
		{
			name: "face buttons",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetButtons] = dualsense.HatNeutral |
					dualsense.ButtonSquare | dualsense.ButtonCross |
					dualsense.ButtonCircle | dualsense.ButtonTriangle
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.Square)
				assert.True(t, s.Cross)
				assert.True(t, s.Circle)
				assert.True(t, s.Triangle)
			},
		},
		{
			name: "shoulder and stick clicks",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetButtons+1] = dualsense.ButtonL1 | dualsense.ButtonR1 |
					dualsense.ButtonL3 | dualsense.ButtonR3
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.L1)
				assert.True(t, s.R1)
				assert.True(t, s.L3)
				assert.True(t, s.R3)
				assert.False(t, s.Share)
			},
		},
		{
			name: "system buttons",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetButtons+2] = dualsense.ButtonPS |
					dualsense.ButtonTouchpad | dualsense.ButtonMute
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.PS)
				assert.True(t, s.Touchpad)
				assert.True(t, s.Mute)
			},
		},
		{
			name: "hat up-right",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetButtons] = 1
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.DPadUp)
				assert.True(t, s.DPadRight)
				assert.False(t, s.DPadDown)
				assert.False(t, s.DPadLeft)
			},
		},
		{
			name: "triggers analog",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetL2] = 255
				b[dualsense.InOffsetR2] = 51
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 1.0, s.L2)
				assert.InDelta(t, 0.2, s.R2, 0.01)
			},
		},
		{
			name: "touch active with coords",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetTouch] = 0x00
				b[dualsense.InOffsetTouch+1] = 0x7B
				b[dualsense.InOffsetTouch+2] = 0x80
				b[dualsense.InOffsetTouch+3] = 0x1C
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.True(t, s.TouchActive)
				assert.Equal(t, 123, s.TouchX)
				assert.Equal(t, 456, s.TouchY)
			},
		},
		{
			name: "touch inactive flag",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetTouch] = dualsense.TouchInactiveMask
				b[dualsense.InOffsetTouch+1] = 0x10
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.False(t, s.TouchActive)
			},
		},
		{
			name: "touch coords clamped",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetTouch] = 0x00
				b[dualsense.InOffsetTouch+1] = 0xFF
				b[dualsense.InOffsetTouch+2] = 0xFF
				b[dualsense.InOffsetTouch+3] = 0xFF
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, dualsense.TouchpadMaxX, s.TouchX)
				assert.Equal(t, dualsense.TouchpadMaxY, s.TouchY)
			},
		},
		{
			name: "battery level and charging",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetBattery] = 0x08 | dualsense.BatteryChargingMask
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 85, s.BatteryPercent)
				assert.True(t, s.IsCharging)
			},
		},
		{
			name: "battery full caps at 100",
			report: usbReport(func(b []byte) {
				b[dualsense.InOffsetBattery] = 0x0A
			}),
			check: func(t *testing.T, s *gamepad.State) {
				assert.Equal(t, 100, s.BatteryPercent)
				assert.False(t, s.IsCharging)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s gamepad.State
			err := dualsense.Decode(tc.report, gamepad.TransportUSB, 0, 0, &s)
			if !assert.NoError(t, err) {
				return
			}
			tc.check(t, &s)
			assert.Equal(t, len(tc.report), s.RawLen)
		})
	}
}

func TestDecodeBTEnhanced(t *testing.T) {
	report := btReport(func(b []byte) {
		b[dualsense.InOffsetStickLX+dualsense.BTInputShift] = 0xFF
		b[dualsense.InOffsetButtons+dualsense.BTInputShift] = dualsense.HatNeutral | dualsense.ButtonCross
		b[dualsense.InOffsetL2+dualsense.BTInputShift] = 255
		b[dualsense.InOffsetBattery+dualsense.BTInputShift] = 0x05
		b[dualsense.InOffsetBattery+dualsense.BTInputShift+1] = dualsense.BatteryStatusChargingBT
	})

	var s gamepad.State
	err := dualsense.Decode(report, gamepad.TransportBluetoothEnhanced, 0, 0, &s)
	if !assert.NoError(t, err) {
		return
	}
	assert.InDelta(t, 127.0/128.0, s.LeftX, 1e-9)
	assert.True(t, s.Cross)
	assert.Equal(t, 1.0, s.L2)
	assert.Equal(t, 55, s.BatteryPercent)
	assert.True(t, s.IsCharging)
}

func TestDecodeBTSimple(t *testing.T) {
	report := make([]byte, 10)
	report[0] = dualsense.ReportIDInputUSB
	report[1], report[2], report[3], report[4] = 0x00, 0x80, 0x80, 0x80
	report[5] = dualsense.HatNeutral | dualsense.ButtonTriangle
	report[6] = dualsense.ButtonL2 | dualsense.ButtonOptions
	report[7] = dualsense.ButtonPS

	var s gamepad.State
	err := dualsense.Decode(report, gamepad.TransportBluetoothSimple, 0, 0, &s)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, -1.0, s.LeftX)
	assert.True(t, s.Triangle)
	assert.True(t, s.Options)
	assert.True(t, s.PS)
	// Digital trigger bit maps to full pull.
	assert.Equal(t, 1.0, s.L2)
	assert.Equal(t, 0.0, s.R2)
}

func TestDecodeErrors(t *testing.T) {
	type testCase struct {
		name      string
		report    []byte
		transport gamepad.Transport
		wantErr   error
	}

	cases := []testCase{
		{name: "empty", report: nil, transport: gamepad.TransportUSB, wantErr: dualsense.ErrShortReport},
		{name: "wrong id on usb", report: btReport(nil), transport: gamepad.TransportUSB, wantErr: dualsense.ErrUnknownReportID},
		{name: "wrong id on bt", report: usbReport(nil), transport: gamepad.TransportBluetoothEnhanced, wantErr: dualsense.ErrUnknownReportID},
		{name: "truncated usb", report: usbReport(nil)[:20], transport: gamepad.TransportUSB, wantErr: dualsense.ErrShortReport},
		{name: "truncated bt", report: btReport(nil)[:30], transport: gamepad.TransportBluetoothEnhanced, wantErr: dualsense.ErrShortReport},
		{name: "truncated simple", report: []byte{0x01, 0x80}, transport: gamepad.TransportBluetoothSimple, wantErr: dualsense.ErrShortReport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s gamepad.State
			err := dualsense.Decode(tc.report, tc.transport, 0, 0, &s)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDecodeAppliesDeadzone(t *testing.T) {
	report := usbReport(func(b []byte) {
		b[dualsense.InOffsetStickLX] = 0x88 // small offset from center
	})

	var s gamepad.State
	err := dualsense.Decode(report, gamepad.TransportUSB, 0.1, 0.1, &s)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, 0.0, s.LeftX)
	assert.Equal(t, 0.0, s.LeftY)
}
