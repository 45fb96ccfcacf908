package dualsense

const (
	VendorIDSony = 0x054C
	ProductID    = 0x0CE6
	ProductIDV2  = 0x0DF2
)

const (
	ReportIDInputUSB    = 0x01
	ReportIDInputBT     = 0x31
	ReportIDOutputUSB   = 0x02
	ReportIDOutputBT    = 0x31
	ReportIDFeatureCali = 0x05
)

const (
	InputReportSizeUSB = 64
	InputReportSizeBT  = 78

	OutputReportSizeUSB = 64
	OutputReportSizeBT  = 78
)

// USB input report offsets (index 0 is the report id). The Bluetooth
// enhanced report 0x31 uses the same layout shifted by BTInputShift.
const (
	InOffsetStickLX = 1
	InOffsetStickLY = 2
	InOffsetStickRX = 3
	InOffsetStickRY = 4
	InOffsetL2      = 5
	InOffsetR2      = 6
	InOffsetSeq     = 7
	InOffsetButtons = 8
	InOffsetTouch   = 33
	InOffsetBattery = 53

	BTInputShift = 1
)

const (
	HatMask    uint8 = 0x0F
	HatNeutral uint8 = 0x08

	ButtonSquare   uint8 = 0x10
	ButtonCross    uint8 = 0x20
	ButtonCircle   uint8 = 0x40
	ButtonTriangle uint8 = 0x80
)

const (
	ButtonL1      uint8 = 0x01
	ButtonR1      uint8 = 0x02
	ButtonL2      uint8 = 0x04
	ButtonR2      uint8 = 0x08
	ButtonShare   uint8 = 0x10
	ButtonOptions uint8 = 0x20
	ButtonL3      uint8 = 0x40
	ButtonR3      uint8 = 0x80
)

const (
	ButtonPS       uint8 = 0x01
	ButtonTouchpad uint8 = 0x02
	ButtonMute     uint8 = 0x04
)

const (
	TouchInactiveMask uint8 = 0x80

	TouchpadMaxX = 1919
	TouchpadMaxY = 1079
)

const (
	BatteryLevelMask    uint8 = 0x0F
	BatteryChargingMask uint8 = 0x10

	// BT enhanced reports keep a second status byte after the battery
	// byte; bit 3 signals an attached charger.
	BatteryStatusChargingBT uint8 = 0x08
)

// Output report layout, USB indices (index 0 is the report id). The
// Bluetooth report 0x31 uses the same layout shifted by BTOutputShift
// after its sequence header byte.
const (
	OutOffsetFlags0      = 1
	OutOffsetFlags1      = 2
	OutOffsetRumbleRight = 3
	OutOffsetRumbleLeft  = 4
	OutOffsetTriggerR2   = 11
	OutOffsetTriggerL2   = 22
	OutOffsetPledSetup   = 39
	OutOffsetLightbarOn  = 42
	OutOffsetPledBright  = 43
	OutOffsetPledMask    = 44
	OutOffsetLightbarR   = 45
	OutOffsetLightbarG   = 46
	OutOffsetLightbarB   = 47

	BTOutputShift = 1
)

const (
	OutFlags0USB uint8 = 0xF7
	OutFlags0BT  uint8 = 0xFF
	OutFlags1    uint8 = 0x15

	// PledSetupEnable requests a player LED brightness change.
	PledSetupEnable uint8 = 0x01
	// LightbarSetupEnable releases the firmware's boot lightbar animation.
	LightbarSetupEnable uint8 = 0x02
	// PledFadeOff suppresses the slow LED fade-in when OR'd into the mask.
	PledFadeOff uint8 = 0x20

	// BTHeaderOutput tags byte 1 of a BT output report; the upper nibble
	// carries a rolling sequence number.
	BTHeaderOutput uint8 = 0x02
	// BTHeaderPowerOff requests a Bluetooth disconnect.
	BTHeaderPowerOff uint8 = 0x40
)

// Adaptive trigger mode opcodes.
const (
	TriggerModeOff     uint8 = 0x00
	TriggerModeRigid   uint8 = 0x01
	TriggerModePulse   uint8 = 0x02
	TriggerModeSection uint8 = 0x21

	TriggerDescriptorSize = 11
)

// Player LED brightness values as the firmware encodes them.
const (
	PledBrightnessHigh   uint8 = 0x00
	PledBrightnessMedium uint8 = 0x01
	PledBrightnessLow    uint8 = 0x02
)

// PledCenter is the single-LED indicator used when battery rendering is off.
const PledCenter uint8 = 0x04
