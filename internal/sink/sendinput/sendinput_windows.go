//go:build windows

package sendinput

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800
)

// mouseInput mirrors MOUSEINPUT, the largest member of the INPUT union.
type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// keybdInput mirrors KEYBDINPUT. Written over the union via a cast.
type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// rawInput mirrors INPUT with the union sized for MOUSEINPUT.
type rawInput struct {
	Type uint32
	_    uint32
	MI   mouseInput
}

type injector struct{}

// New returns the SendInput backed injector.
func New() (Injector, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return injector{}, nil
}

func send(in *rawInput) error {
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(in)), unsafe.Sizeof(*in))
	if n != 1 {
		return fmt.Errorf("SendInput: %w", err)
	}
	return nil
}

func (injector) Key(vk uint16, press bool) error {
	var in rawInput
	in.Type = inputKeyboard
	ki := (*keybdInput)(unsafe.Pointer(&in.MI))
	ki.Vk = vk
	if extendedKeys[vk] {
		ki.Flags |= keyeventfExtendedKey
	}
	if !press {
		ki.Flags |= keyeventfKeyUp
	}
	return send(&in)
}

func (injector) MouseButton(button int, press bool) error {
	var flags uint32
	switch button {
	case MouseLeft:
		flags = mouseeventfLeftDown
		if !press {
			flags = mouseeventfLeftUp
		}
	case MouseMiddle:
		flags = mouseeventfMiddleDown
		if !press {
			flags = mouseeventfMiddleUp
		}
	case MouseRight:
		flags = mouseeventfRightDown
		if !press {
			flags = mouseeventfRightUp
		}
	default:
		return fmt.Errorf("unknown mouse button %d", button)
	}
	in := rawInput{Type: inputMouse, MI: mouseInput{Flags: flags}}
	return send(&in)
}

func (injector) MouseMove(dx, dy int32) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	in := rawInput{Type: inputMouse, MI: mouseInput{Dx: dx, Dy: dy, Flags: mouseeventfMove}}
	return send(&in)
}

func (injector) Wheel(delta int32) error {
	if delta == 0 {
		return nil
	}
	in := rawInput{Type: inputMouse, MI: mouseInput{MouseData: uint32(delta), Flags: mouseeventfWheel}}
	return send(&in)
}

// extendedKeys lists virtual keys that require the extended-key flag so
// the navigation cluster is not read as numpad input.
var extendedKeys = map[uint16]bool{
	VKInsert: true, VKDelete: true, VKHome: true, VKEnd: true,
	VKPageUp: true, VKPageDown: true,
	VKUp: true, VKDown: true, VKLeft: true, VKRight: true,
	VKRControl: true, VKRMenu: true, VKLWin: true, VKRWin: true,
	VKDivide: true, VKNumLock: true, VKSnapshot: true,
}
