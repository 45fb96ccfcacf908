package dualshock4

import (
	"encoding/binary"

	"github.com/Alia5/dsbridge/device/dualsense"
)

// OutputState holds the fields a DualShock 4 control report carries. The
// DS4 has no player LEDs or adaptive triggers; the lightbar doubles as the
// battery indicator via flash timing.
type OutputState struct {
	RumbleSmall uint8
	RumbleLarge uint8

	LedRed   uint8
	LedGreen uint8
	LedBlue  uint8

	FlashOn  uint8 // units of 2.5ms
	FlashOff uint8 // units of 2.5ms
}

// EncodeUSB builds the 32-byte USB output report (id 0x05).
func (o *OutputState) EncodeUSB() []byte {
	b := make([]byte, OutputReportSizeUSB)
	b[0] = ReportIDOutputUSB
	b[OutOffsetFlags] = OutFlagsUSB
	o.encodeBody(b, 0)
	return b
}

// EncodeBT builds the 78-byte Bluetooth output report (id 0x11) with the
// 0xC0|poll header and the CRC-32 trailer seeded with 0xA2.
func (o *OutputState) EncodeBT() []byte {
	b := make([]byte, OutputReportSizeBT)
	b[0] = ReportIDOutputBT
	b[1] = BTHeaderPoll
	b[OutOffsetFlags+BTOutputShift] = OutFlagsBT
	o.encodeBody(b, BTOutputShift)
	crc := dualsense.CRC(dualsense.CRCSeedOutput, b[:OutputReportSizeBT-4])
	binary.LittleEndian.PutUint32(b[OutputReportSizeBT-4:], crc)
	return b
}

func (o *OutputState) encodeBody(b []byte, shift int) {
	b[OutOffsetRumbleSmall+shift] = o.RumbleSmall
	b[OutOffsetRumbleLarge+shift] = o.RumbleLarge
	b[OutOffsetLedRed+shift] = o.LedRed
	b[OutOffsetLedGreen+shift] = o.LedGreen
	b[OutOffsetLedBlue+shift] = o.LedBlue
	b[OutOffsetFlashOn+shift] = o.FlashOn
	b[OutOffsetFlashOff+shift] = o.FlashOff
}
