//go:build windows

package vigem

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/Alia5/dsbridge/device/xbox360"
)

// ViGEm API status codes, VIGEM_ERROR in ViGEmClient.h.
const (
	vigemErrorNone                      = 0x20000000
	vigemErrorBusNotFound               = 0xE0000001
	vigemErrorNoFreeSlot                = 0xE0000002
	vigemErrorInvalidTarget             = 0xE0000003
	vigemErrorRemovalFailed             = 0xE0000004
	vigemErrorAlreadyConnected          = 0xE0000005
	vigemErrorTargetUninitialized       = 0xE0000006
	vigemErrorTargetNotPluggedIn        = 0xE0000007
	vigemErrorBusVersionMismatch        = 0xE0000008
	vigemErrorBusAccessFailed           = 0xE0000009
	vigemErrorCallbackAlreadyRegistered = 0xE0000010
	vigemErrorCallbackNotFound          = 0xE0000011
	vigemErrorBusAlreadyConnected       = 0xE0000012
	vigemErrorBusInvalidHandle          = 0xE0000013
	vigemErrorXusbUserIndexOutOfRange   = 0xE0000014
	vigemErrorInvalidParameter          = 0xE0000015
	vigemErrorNotSupported              = 0xE0000016
	vigemErrorWinapi                    = 0xE0000017
	vigemErrorTimedOut                  = 0xE0000018
	vigemErrorIsDisposing               = 0xE0000019
)

var (
	client = windows.NewLazySystemDLL("ViGEmClient.dll")

	procAlloc                            = client.NewProc("vigem_alloc")
	procFree                             = client.NewProc("vigem_free")
	procConnect                          = client.NewProc("vigem_connect")
	procDisconnect                       = client.NewProc("vigem_disconnect")
	procTargetAdd                        = client.NewProc("vigem_target_add")
	procTargetFree                       = client.NewProc("vigem_target_free")
	procTargetRemove                     = client.NewProc("vigem_target_remove")
	procTargetX360Alloc                  = client.NewProc("vigem_target_x360_alloc")
	procTargetX360RegisterNotification   = client.NewProc("vigem_target_x360_register_notification")
	procTargetX360UnregisterNotification = client.NewProc("vigem_target_x360_unregister_notification")
	procTargetX360Update                 = client.NewProc("vigem_target_x360_update")
)

// Error wraps one VIGEM_ERROR status.
type Error struct {
	code uint32
}

func statusErr(raw uintptr) error {
	code := uint32(raw)
	if code == vigemErrorNone {
		return nil
	}
	return &Error{code}
}

func (e *Error) Error() string {
	switch e.code {
	case vigemErrorBusNotFound:
		return "vigem: bus not found"
	case vigemErrorNoFreeSlot:
		return "vigem: no free slot"
	case vigemErrorInvalidTarget:
		return "vigem: invalid target"
	case vigemErrorRemovalFailed:
		return "vigem: removal failed"
	case vigemErrorAlreadyConnected:
		return "vigem: already connected"
	case vigemErrorTargetUninitialized:
		return "vigem: target uninitialized"
	case vigemErrorTargetNotPluggedIn:
		return "vigem: target not plugged in"
	case vigemErrorBusVersionMismatch:
		return "vigem: bus version mismatch"
	case vigemErrorBusAccessFailed:
		return "vigem: bus access failed"
	case vigemErrorCallbackAlreadyRegistered:
		return "vigem: callback already registered"
	case vigemErrorCallbackNotFound:
		return "vigem: callback not found"
	case vigemErrorBusAlreadyConnected:
		return "vigem: bus already connected"
	case vigemErrorBusInvalidHandle:
		return "vigem: bus invalid handle"
	case vigemErrorXusbUserIndexOutOfRange:
		return "vigem: xusb user index out of range"
	case vigemErrorInvalidParameter:
		return "vigem: invalid parameter"
	case vigemErrorNotSupported:
		return "vigem: not supported"
	case vigemErrorWinapi:
		return "vigem: winapi error"
	case vigemErrorTimedOut:
		return "vigem: timed out"
	case vigemErrorIsDisposing:
		return "vigem: is disposing"
	default:
		return fmt.Sprintf("vigem: status 0x%08X", e.code)
	}
}

// xusbReport mirrors XUSB_REPORT from the ViGEm headers. All fields are
// naturally aligned so the Go layout matches the C one.
type xusbReport struct {
	Buttons      uint16
	LeftTrigger  uint8
	RightTrigger uint8
	ThumbLX      int16
	ThumbLY      int16
	ThumbRX      int16
	ThumbRY      int16
}

type bus struct {
	handle uintptr
}

// Connect loads ViGEmClient.dll and opens a bus connection.
func Connect() (Bus, error) {
	if err := client.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	handle, _, err := procAlloc.Call()
	if !errors.Is(err, windows.ERROR_SUCCESS) {
		return nil, fmt.Errorf("vigem_alloc: %w", err)
	}
	status, _, err := procConnect.Call(handle)
	if !errors.Is(err, windows.ERROR_SUCCESS) {
		procFree.Call(handle)
		return nil, fmt.Errorf("vigem_connect: %w", err)
	}
	if err := statusErr(status); err != nil {
		procFree.Call(handle)
		var ve *Error
		if errors.As(err, &ve) && ve.code == vigemErrorBusNotFound {
			return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
		}
		return nil, err
	}
	return &bus{handle: handle}, nil
}

func (b *bus) NewPad(vibration func(Vibration)) (Pad, error) {
	handle, _, err := procTargetX360Alloc.Call()
	if !errors.Is(err, windows.ERROR_SUCCESS) {
		return nil, fmt.Errorf("vigem_target_x360_alloc: %w", err)
	}
	p := &pad{bus: b, handle: handle}
	if vibration != nil {
		handler := func(client, target uintptr, largeMotor, smallMotor, ledNumber byte, userData uintptr) uintptr {
			vibration(Vibration{LargeMotor: largeMotor, SmallMotor: smallMotor})
			return 0
		}
		p.callback = windows.NewCallback(handler)
	}
	return p, nil
}

func (b *bus) Close() error {
	procDisconnect.Call(b.handle)
	procFree.Call(b.handle)
	return nil
}

type pad struct {
	bus      *bus
	handle   uintptr
	callback uintptr
	plugged  bool
}

func (p *pad) Plug() error {
	if p.plugged {
		return nil
	}
	status, _, err := procTargetAdd.Call(p.bus.handle, p.handle)
	if !errors.Is(err, windows.ERROR_SUCCESS) {
		return fmt.Errorf("vigem_target_add: %w", err)
	}
	if err := statusErr(status); err != nil {
		return err
	}
	if p.callback != 0 {
		status, _, err = procTargetX360RegisterNotification.Call(p.bus.handle, p.handle, p.callback, 0)
		if !errors.Is(err, windows.ERROR_SUCCESS) {
			return fmt.Errorf("vigem_target_x360_register_notification: %w", err)
		}
		if err := statusErr(status); err != nil {
			return err
		}
	}
	p.plugged = true
	return nil
}

func (p *pad) Unplug() error {
	if !p.plugged {
		return nil
	}
	if p.callback != 0 {
		procTargetX360UnregisterNotification.Call(p.handle)
	}
	status, _, err := procTargetRemove.Call(p.bus.handle, p.handle)
	if !errors.Is(err, windows.ERROR_SUCCESS) {
		return fmt.Errorf("vigem_target_remove: %w", err)
	}
	if err := statusErr(status); err != nil {
		return err
	}
	p.plugged = false
	return nil
}

func (p *pad) Plugged() bool { return p.plugged }

func (p *pad) Update(s xbox360.InputState) error {
	report := xusbReport{
		Buttons:      s.Buttons,
		LeftTrigger:  s.LT,
		RightTrigger: s.RT,
		ThumbLX:      s.LX,
		ThumbLY:      s.LY,
		ThumbRX:      s.RX,
		ThumbRY:      s.RY,
	}
	status, _, err := procTargetX360Update.Call(p.bus.handle, p.handle, uintptr(unsafe.Pointer(&report)))
	if !errors.Is(err, windows.ERROR_SUCCESS) {
		return fmt.Errorf("vigem_target_x360_update: %w", err)
	}
	return statusErr(status)
}

func (p *pad) Close() error {
	if p.plugged {
		p.Unplug()
	}
	procTargetFree.Call(p.handle)
	return nil
}
