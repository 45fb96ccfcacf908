package dualsense_test

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/stretchr/testify/assert"
)

func TestCRCMatchesIEEE(t *testing.T) {
	data := []byte{0x31, 0x02, 0xFF, 0x00, 0x15}

	for _, seed := range []uint8{dualsense.CRCSeedOutput, dualsense.CRCSeedFeature} {
		want := crc32.ChecksumIEEE(append([]byte{seed}, data...))
		assert.Equal(t, want, dualsense.CRC(seed, data))
	}
}

func TestEncodeUSB(t *testing.T) {
	o := dualsense.OutputState{
		RumbleLeft:          0x40,
		RumbleRight:         0x20,
		LightbarR:           0x11,
		LightbarG:           0x22,
		LightbarB:           0x33,
		PlayerLEDMask:       0x04,
		PlayerLEDBrightness: dualsense.PledBrightnessMedium,
	}

	b := o.EncodeUSB()
	if !assert.Len(t, b, dualsense.OutputReportSizeUSB) {
		return
	}
	assert.Equal(t, uint8(dualsense.ReportIDOutputUSB), b[0])
	assert.Equal(t, dualsense.OutFlags0USB, b[dualsense.OutOffsetFlags0])
	assert.Equal(t, dualsense.OutFlags1, b[dualsense.OutOffsetFlags1])
	assert.Equal(t, uint8(0x20), b[dualsense.OutOffsetRumbleRight])
	assert.Equal(t, uint8(0x40), b[dualsense.OutOffsetRumbleLeft])
	assert.Equal(t, dualsense.PledSetupEnable, b[dualsense.OutOffsetPledSetup])
	assert.Equal(t, dualsense.LightbarSetupEnable, b[dualsense.OutOffsetLightbarOn])
	assert.Equal(t, dualsense.PledBrightnessMedium, b[dualsense.OutOffsetPledBright])
	assert.Equal(t, uint8(0x04)|dualsense.PledFadeOff, b[dualsense.OutOffsetPledMask])
	assert.Equal(t, uint8(0x11), b[dualsense.OutOffsetLightbarR])
	assert.Equal(t, uint8(0x22), b[dualsense.OutOffsetLightbarG])
	assert.Equal(t, uint8(0x33), b[dualsense.OutOffsetLightbarB])
}

func TestEncodeBT(t *testing.T) {
	o := dualsense.OutputState{RumbleLeft: 0xAA, RumbleRight: 0xBB}

	b := o.EncodeBT(5)
	if !assert.Len(t, b, dualsense.OutputReportSizeBT) {
		return
	}
	assert.Equal(t, uint8(dualsense.ReportIDOutputBT), b[0])
	assert.Equal(t, uint8(5<<4)|dualsense.BTHeaderOutput, b[1])
	assert.Equal(t, dualsense.OutFlags0BT, b[dualsense.OutOffsetFlags0+dualsense.BTOutputShift])
	assert.Equal(t, uint8(0xBB), b[dualsense.OutOffsetRumbleRight+dualsense.BTOutputShift])
	assert.Equal(t, uint8(0xAA), b[dualsense.OutOffsetRumbleLeft+dualsense.BTOutputShift])

	want := dualsense.CRC(dualsense.CRCSeedOutput, b[:len(b)-4])
	assert.Equal(t, want, binary.LittleEndian.Uint32(b[len(b)-4:]))
}

func TestEncodeBTSequenceWraps(t *testing.T) {
	o := dualsense.OutputState{}
	// The 4-bit sequence field masks anything above 15.
	b := o.EncodeBT(16)
	assert.Equal(t, dualsense.BTHeaderOutput, b[1])
	b = o.EncodeBT(15)
	assert.Equal(t, uint8(15<<4)|dualsense.BTHeaderOutput, b[1])
}

func TestTriggerDescriptors(t *testing.T) {
	type testCase struct {
		name   string
		effect dualsense.TriggerEffect
		want   []byte
	}

	cases := []testCase{
		{
			name:   "off is all zero",
			effect: dualsense.TriggerEffect{Mode: dualsense.TriggerModeOff, Start: 9, Force: 9},
			want:   make([]byte, dualsense.TriggerDescriptorSize),
		},
		{
			name:   "rigid",
			effect: dualsense.TriggerEffect{Mode: dualsense.TriggerModeRigid, Start: 0x20, Force: 0x80},
			want:   []byte{0x01, 0x20, 0x80, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:   "pulse",
			effect: dualsense.TriggerEffect{Mode: dualsense.TriggerModePulse, Start: 0x10, Force: 0xFF},
			want:   []byte{0x02, 0x10, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:   "section carries start and end",
			effect: dualsense.TriggerEffect{Mode: dualsense.TriggerModeSection, Start: 0x30, End: 0x60, Force: 0x90},
			want:   []byte{0x21, 0x30, 0x60, 0x90, 0, 0, 0, 0, 0, 0, 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := dualsense.OutputState{TriggerR2: tc.effect}
			b := o.EncodeUSB()
			got := b[dualsense.OutOffsetTriggerR2 : dualsense.OutOffsetTriggerR2+dualsense.TriggerDescriptorSize]
			assert.Equal(t, tc.want, got)

			o = dualsense.OutputState{TriggerL2: tc.effect}
			b = o.EncodeUSB()
			got = b[dualsense.OutOffsetTriggerL2 : dualsense.OutOffsetTriggerL2+dualsense.TriggerDescriptorSize]
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPowerOffReport(t *testing.T) {
	b := dualsense.PowerOffReport(3)
	if !assert.Len(t, b, dualsense.OutputReportSizeBT) {
		return
	}
	assert.Equal(t, uint8(dualsense.ReportIDOutputBT), b[0])
	assert.Equal(t, uint8(3<<4)|dualsense.BTHeaderOutput, b[1])
	assert.Equal(t, dualsense.BTHeaderPowerOff, b[2])

	want := dualsense.CRC(dualsense.CRCSeedOutput, b[:len(b)-4])
	assert.Equal(t, want, binary.LittleEndian.Uint32(b[len(b)-4:]))
}

func TestVerifyFeatureCRC(t *testing.T) {
	payload := []byte{0x05, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	report := make([]byte, len(payload)+4)
	copy(report, payload)
	binary.LittleEndian.PutUint32(report[len(payload):], dualsense.CRC(dualsense.CRCSeedFeature, payload))

	assert.True(t, dualsense.VerifyFeatureCRC(report))

	report[1] ^= 0xFF
	assert.False(t, dualsense.VerifyFeatureCRC(report))

	assert.False(t, dualsense.VerifyFeatureCRC([]byte{0x05, 0x01}))
}

func TestBatteryLEDMask(t *testing.T) {
	type testCase struct {
		percent int
		want    uint8
	}

	cases := []testCase{
		{percent: 0, want: 0x00},
		{percent: 9, want: 0x00},
		{percent: 10, want: 0x01},
		{percent: 29, want: 0x01},
		{percent: 30, want: 0x03},
		{percent: 49, want: 0x03},
		{percent: 50, want: 0x07},
		{percent: 69, want: 0x07},
		{percent: 70, want: 0x0F},
		{percent: 89, want: 0x0F},
		{percent: 90, want: 0x1F},
		{percent: 100, want: 0x1F},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, dualsense.BatteryLEDMask(tc.percent), "percent=%d", tc.percent)
	}
}
