package sendinput

import (
	"fmt"
	"strings"
)

// Windows virtual-key codes for the keys profiles can bind.
const (
	VKBack     uint16 = 0x08
	VKTab      uint16 = 0x09
	VKReturn   uint16 = 0x0D
	VKShift    uint16 = 0x10
	VKControl  uint16 = 0x11
	VKMenu     uint16 = 0x12
	VKPause    uint16 = 0x13
	VKCapital  uint16 = 0x14
	VKEscape   uint16 = 0x1B
	VKSpace    uint16 = 0x20
	VKPageUp   uint16 = 0x21
	VKPageDown uint16 = 0x22
	VKEnd      uint16 = 0x23
	VKHome     uint16 = 0x24
	VKLeft     uint16 = 0x25
	VKUp       uint16 = 0x26
	VKRight    uint16 = 0x27
	VKDown     uint16 = 0x28
	VKSnapshot uint16 = 0x2C
	VKInsert   uint16 = 0x2D
	VKDelete   uint16 = 0x2E

	VKLWin uint16 = 0x5B
	VKRWin uint16 = 0x5C

	VKNumpad0  uint16 = 0x60
	VKMultiply uint16 = 0x6A
	VKAdd      uint16 = 0x6B
	VKSubtract uint16 = 0x6D
	VKDecimal  uint16 = 0x6E
	VKDivide   uint16 = 0x6F

	VKF1 uint16 = 0x70

	VKNumLock  uint16 = 0x90
	VKScroll   uint16 = 0x91
	VKLShift   uint16 = 0xA0
	VKRShift   uint16 = 0xA1
	VKLControl uint16 = 0xA2
	VKRControl uint16 = 0xA3
	VKLMenu    uint16 = 0xA4
	VKRMenu    uint16 = 0xA5

	VKOEM1      uint16 = 0xBA // ;:
	VKOEMPlus   uint16 = 0xBB
	VKOEMComma  uint16 = 0xBC
	VKOEMMinus  uint16 = 0xBD
	VKOEMPeriod uint16 = 0xBE
	VKOEM2      uint16 = 0xBF // /?
	VKOEM3      uint16 = 0xC0 // `~
	VKOEM4      uint16 = 0xDB // [{
	VKOEM5      uint16 = 0xDC // \|
	VKOEM6      uint16 = 0xDD // ]}
	VKOEM7      uint16 = 0xDE // '"
)

var namedKeys = map[string]uint16{
	"backspace":   VKBack,
	"tab":         VKTab,
	"enter":       VKReturn,
	"shift":       VKShift,
	"ctrl":        VKControl,
	"alt":         VKMenu,
	"pause":       VKPause,
	"capslock":    VKCapital,
	"escape":      VKEscape,
	"esc":         VKEscape,
	"space":       VKSpace,
	"pageup":      VKPageUp,
	"pagedown":    VKPageDown,
	"end":         VKEnd,
	"home":        VKHome,
	"left":        VKLeft,
	"up":          VKUp,
	"right":       VKRight,
	"down":        VKDown,
	"printscreen": VKSnapshot,
	"insert":      VKInsert,
	"delete":      VKDelete,
	"win":         VKLWin,
	"rwin":        VKRWin,
	"numlock":     VKNumLock,
	"scrolllock":  VKScroll,
	"lshift":      VKLShift,
	"rshift":      VKRShift,
	"lctrl":       VKLControl,
	"rctrl":       VKRControl,
	"lalt":        VKLMenu,
	"ralt":        VKRMenu,
	"multiply":    VKMultiply,
	"add":         VKAdd,
	"subtract":    VKSubtract,
	"decimal":     VKDecimal,
	"divide":      VKDivide,
	"semicolon":   VKOEM1,
	"equals":      VKOEMPlus,
	"comma":       VKOEMComma,
	"minus":       VKOEMMinus,
	"period":      VKOEMPeriod,
	"slash":       VKOEM2,
	"grave":       VKOEM3,
	"lbracket":    VKOEM4,
	"backslash":   VKOEM5,
	"rbracket":    VKOEM6,
	"quote":       VKOEM7,
}

// VKByName resolves a key name to its virtual-key code. Names are case
// insensitive. Letters and digits map to their own codes, "f1".."f24" to
// the function keys, "numpad0".."numpad9" to the numpad digits.
func VKByName(name string) (uint16, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) == 1 {
		c := n[0]
		if c >= 'a' && c <= 'z' {
			return uint16(c - 'a' + 'A'), nil
		}
		if c >= '0' && c <= '9' {
			return uint16(c), nil
		}
	}
	if vk, ok := namedKeys[n]; ok {
		return vk, nil
	}
	if strings.HasPrefix(n, "f") {
		var fn int
		if _, err := fmt.Sscanf(n, "f%d", &fn); err == nil && fn >= 1 && fn <= 24 {
			return VKF1 + uint16(fn-1), nil
		}
	}
	if strings.HasPrefix(n, "numpad") {
		var d int
		if _, err := fmt.Sscanf(n, "numpad%d", &d); err == nil && d >= 0 && d <= 9 {
			return VKNumpad0 + uint16(d), nil
		}
	}
	return 0, fmt.Errorf("unknown key name %q", name)
}
