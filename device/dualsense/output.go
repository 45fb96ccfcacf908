package dualsense

import "encoding/binary"

// TriggerEffect parameterizes one adaptive trigger.
type TriggerEffect struct {
	Mode  uint8
	Start uint8
	End   uint8
	Force uint8
}

// OutputState holds everything one outbound control report carries.
type OutputState struct {
	RumbleLeft  uint8
	RumbleRight uint8

	LightbarR uint8
	LightbarG uint8
	LightbarB uint8

	PlayerLEDMask       uint8
	PlayerLEDBrightness uint8

	TriggerL2 TriggerEffect
	TriggerR2 TriggerEffect
}

// EncodeUSB builds the 64-byte USB output report (id 0x02).
// Layout (indices into the returned buffer):
//
//	 0: 0x02               - Report ID
//	 1: 0xF7               - Valid flags 0 (rumble, triggers, audio mute)
//	 2: 0x15               - Valid flags 1 (lightbar, player LEDs)
//	 3: Right rumble (0-255)
//	 4: Left rumble (0-255)
//	11-21: R2 trigger descriptor
//	22-32: L2 trigger descriptor
//	39: 0x01               - Player LED brightness change request
//	42: 0x02               - Lightbar setup (releases boot animation)
//	43: Player LED brightness (0 high, 1 medium, 2 low)
//	44: Player LED mask | 0x20 (fade suppression)
//	45-47: Lightbar R, G, B
func (o *OutputState) EncodeUSB() []byte {
	b := make([]byte, OutputReportSizeUSB)
	b[0] = ReportIDOutputUSB
	o.encodeBody(b, 0, OutFlags0USB)
	return b
}

// EncodeBT builds the 78-byte Bluetooth output report (id 0x31). Byte 1 is
// (seq<<4)|0x02 with seq rolling 0..15; the logical payload is the USB
// layout shifted by one. The final four bytes are the CRC-32 over
// 0xA2 || report[0..74], little-endian.
func (o *OutputState) EncodeBT(seq uint8) []byte {
	b := make([]byte, OutputReportSizeBT)
	b[0] = ReportIDOutputBT
	b[1] = (seq&0x0F)<<4 | BTHeaderOutput
	o.encodeBody(b, BTOutputShift, OutFlags0BT)
	appendCRC(b)
	return b
}

func (o *OutputState) encodeBody(b []byte, shift int, flags0 uint8) {
	b[OutOffsetFlags0+shift] = flags0
	b[OutOffsetFlags1+shift] = OutFlags1
	b[OutOffsetRumbleRight+shift] = o.RumbleRight
	b[OutOffsetRumbleLeft+shift] = o.RumbleLeft
	encodeTrigger(b[OutOffsetTriggerR2+shift:OutOffsetTriggerR2+shift+TriggerDescriptorSize], o.TriggerR2)
	encodeTrigger(b[OutOffsetTriggerL2+shift:OutOffsetTriggerL2+shift+TriggerDescriptorSize], o.TriggerL2)
	b[OutOffsetPledSetup+shift] = PledSetupEnable
	b[OutOffsetLightbarOn+shift] = LightbarSetupEnable
	b[OutOffsetPledBright+shift] = o.PlayerLEDBrightness
	b[OutOffsetPledMask+shift] = o.PlayerLEDMask | PledFadeOff
	b[OutOffsetLightbarR+shift] = o.LightbarR
	b[OutOffsetLightbarG+shift] = o.LightbarG
	b[OutOffsetLightbarB+shift] = o.LightbarB
}

// encodeTrigger writes the 11-byte opcode+parameters descriptor. Off is an
// all-zero block; the firmware resets the trigger motor on it.
func encodeTrigger(dst []byte, t TriggerEffect) {
	for i := range dst {
		dst[i] = 0
	}
	switch t.Mode {
	case TriggerModeRigid, TriggerModePulse:
		dst[0] = t.Mode
		dst[1] = t.Start
		dst[2] = t.Force
	case TriggerModeSection:
		dst[0] = t.Mode
		dst[1] = t.Start
		dst[2] = t.End
		dst[3] = t.Force
	}
}

// PowerOffReport builds the Bluetooth report that asks the controller to
// drop the link and power down.
func PowerOffReport(seq uint8) []byte {
	b := make([]byte, OutputReportSizeBT)
	b[0] = ReportIDOutputBT
	b[1] = (seq&0x0F)<<4 | BTHeaderOutput
	b[2] = BTHeaderPowerOff
	appendCRC(b)
	return b
}

func appendCRC(b []byte) {
	crc := CRC(CRCSeedOutput, b[:OutputReportSizeBT-4])
	binary.LittleEndian.PutUint32(b[OutputReportSizeBT-4:], crc)
}

// VerifyFeatureCRC checks the trailer of a Bluetooth feature report
// (seed 0xA3). Reports shorter than the trailer never verify.
func VerifyFeatureCRC(report []byte) bool {
	if len(report) < 5 {
		return false
	}
	want := binary.LittleEndian.Uint32(report[len(report)-4:])
	return CRC(CRCSeedFeature, report[:len(report)-4]) == want
}

// BatteryLEDMask maps a battery percentage onto the five player LEDs so a
// fuller battery lights more LEDs, filling the mask upward from bit 0.
func BatteryLEDMask(percent int) uint8 {
	switch {
	case percent >= 90:
		return 0x1F
	case percent >= 70:
		return 0x0F
	case percent >= 50:
		return 0x07
	case percent >= 30:
		return 0x03
	case percent >= 10:
		return 0x01
	default:
		return 0x00
	}
}
