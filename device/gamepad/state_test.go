package gamepad_test

import (
	"testing"

	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/stretchr/testify/assert"
)

func TestCenterStick(t *testing.T) {
	type testCase struct {
		name string
		raw  byte
		want float64
	}

	cases := []testCase{
		{name: "center", raw: 128, want: 0},
		{name: "full left", raw: 0, want: -1},
		{name: "full right", raw: 255, want: 127.0 / 128.0},
		{name: "quarter", raw: 160, want: 0.25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, gamepad.CenterStick(tc.raw), 1e-9)
		})
	}
}

func TestNormalizeTrigger(t *testing.T) {
	assert.Equal(t, 0.0, gamepad.NormalizeTrigger(0))
	assert.Equal(t, 1.0, gamepad.NormalizeTrigger(255))
	assert.InDelta(t, 0.5, gamepad.NormalizeTrigger(128), 0.01)
}

func TestApplyDeadzone(t *testing.T) {
	type testCase struct {
		name     string
		x, y     float64
		deadzone float64
		wantX    float64
		wantY    float64
	}

	cases := []testCase{
		{name: "zero deadzone passes through", x: 0.3, y: -0.4, deadzone: 0, wantX: 0.3, wantY: -0.4},
		{name: "inside radius snaps to center", x: 0.05, y: 0.05, deadzone: 0.1, wantX: 0, wantY: 0},
		{name: "boundary rescales to origin", x: 0.2, y: 0, deadzone: 0.2, wantX: 0, wantY: 0},
		{name: "midrange rescales", x: 0.6, y: 0, deadzone: 0.2, wantX: 0.5, wantY: 0},
		{name: "full deflection stays full", x: 1, y: 0, deadzone: 0.2, wantX: 1, wantY: 0},
		{name: "degenerate full deadzone", x: 0.9, y: 0.1, deadzone: 1, wantX: 0, wantY: 0},
		{name: "direction preserved", x: -0.6, y: 0, deadzone: 0.2, wantX: -0.5, wantY: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotX, gotY := gamepad.ApplyDeadzone(tc.x, tc.y, tc.deadzone)
			assert.InDelta(t, tc.wantX, gotX, 1e-9)
			assert.InDelta(t, tc.wantY, gotY, 1e-9)
		})
	}
}

func TestTransportString(t *testing.T) {
	assert.Equal(t, "usb", gamepad.TransportUSB.String())
	assert.Equal(t, "bt-simple", gamepad.TransportBluetoothSimple.String())
	assert.Equal(t, "bt-enhanced", gamepad.TransportBluetoothEnhanced.String())
	assert.Equal(t, "disconnected", gamepad.TransportDisconnected.String())

	assert.True(t, gamepad.TransportBluetoothSimple.IsBluetooth())
	assert.True(t, gamepad.TransportBluetoothEnhanced.IsBluetooth())
	assert.False(t, gamepad.TransportUSB.IsBluetooth())
}

func TestSetRaw(t *testing.T) {
	var s gamepad.State
	src := []byte{0x01, 0x02, 0x03}
	s.SetRaw(src)
	assert.Equal(t, 3, s.RawLen)
	assert.Equal(t, src, s.Raw[:s.RawLen])

	s.Reset()
	assert.Equal(t, 0, s.RawLen)
}
