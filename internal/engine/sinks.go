package engine

import (
	"errors"

	"github.com/Alia5/dsbridge/device/xbox360"
	"github.com/Alia5/dsbridge/internal/hider"
	"github.com/Alia5/dsbridge/internal/mapping"
	"github.com/Alia5/dsbridge/internal/sink/vigem"
)

// probeDrivers checks the bus driver and the filter driver and updates the
// status flags. Safe to call repeatedly; an established bus connection is
// kept.
func (e *Engine) probeDrivers() {
	if e.bus == nil {
		bus, err := vigem.Connect()
		if err != nil {
			if !errors.Is(err, vigem.ErrDriverUnavailable) {
				e.logger.Warn("bus driver probe failed", "error", err)
			}
		} else {
			e.bus = bus
			pad, err := bus.NewPad(func(v vigem.Vibration) {
				e.rumble.set(v.LargeMotor, v.SmallMotor)
			})
			if err != nil {
				e.logger.Warn("virtual pad allocation failed", "error", err)
			} else {
				e.pad = pad
			}
		}
	}
	hiderOK := e.hider.Available()

	e.mu.Lock()
	e.status.BusDriverOK = e.pad != nil
	e.status.HiderOK = hiderOK
	e.mu.Unlock()
	e.publish(true)
}

// submitPad pushes one frame to the virtual pad, plugging it lazily on
// the first frame after a gap. Without the bus driver this is a no-op and
// the status flag already says so.
func (e *Engine) submitPad(s xbox360.InputState) {
	if e.pad == nil {
		return
	}
	if !e.pad.Plugged() {
		if err := e.pad.Plug(); err != nil {
			e.logger.Warn("virtual pad plug failed", "error", err)
			e.pad.Close()
			e.pad = nil
			e.mu.Lock()
			e.status.BusDriverOK = false
			e.mu.Unlock()
			return
		}
		e.mu.Lock()
		e.status.PadPlugged = true
		e.mu.Unlock()
		e.logger.Info("virtual pad plugged")
	}
	if err := e.pad.Update(s); err != nil {
		e.logger.Debug("virtual pad update failed", "error", err)
	}
}

// unplugPad removes the virtual pad from the OS, keeping the target for
// the next session.
func (e *Engine) unplugPad() {
	if e.pad == nil || !e.pad.Plugged() {
		return
	}
	if err := e.pad.Unplug(); err != nil {
		e.logger.Warn("virtual pad unplug failed", "error", err)
	}
	e.mu.Lock()
	e.status.PadPlugged = false
	e.mu.Unlock()
}

// injectOutput delivers one frame's synthetic input.
func (e *Engine) injectOutput(out mapping.Output) {
	if e.injector == nil {
		return
	}
	e.injectEdges(out.Keys, out.Mouse)
	if out.MoveX != 0 || out.MoveY != 0 {
		if err := e.injector.MouseMove(out.MoveX, out.MoveY); err != nil {
			e.logger.Debug("mouse move failed", "error", err)
		}
	}
	if out.Wheel != 0 {
		if err := e.injector.Wheel(out.Wheel); err != nil {
			e.logger.Debug("wheel scroll failed", "error", err)
		}
	}
}

// injectEdges plays key and mouse button transitions into the injector.
func (e *Engine) injectEdges(keys []mapping.KeyEdge, buttons []mapping.MouseEdge) {
	if e.injector == nil {
		return
	}
	for _, k := range keys {
		if err := e.injector.Key(k.VK, k.Press); err != nil {
			e.logger.Debug("key injection failed", "vk", k.VK, "error", err)
		}
	}
	for _, b := range buttons {
		if err := e.injector.MouseButton(b.Button, b.Press); err != nil {
			e.logger.Debug("mouse button injection failed", "button", b.Button, "error", err)
		}
	}
}

// applyHidingSetup whitelists this process with the filter driver once at
// startup so cloaking never blinds our own reads.
func (e *Engine) applyHidingSetup() {
	if !e.hider.Available() {
		return
	}
	if err := e.hider.RegisterSelf(); err != nil {
		e.logger.Warn("filter driver self-registration failed", "error", err)
	}
}

// hideInstance cloaks the opened controller when the config asks for it.
func (e *Engine) hideInstance(instanceID string) {
	e.currentInstance = instanceID
	e.applyHiding()
}

// unhideInstance reveals the controller at session end.
func (e *Engine) unhideInstance(instanceID string) {
	if instanceID == "" {
		return
	}
	if err := e.hider.Unhide(instanceID); err != nil && !errors.Is(err, hider.ErrNotInstalled) {
		e.logger.Warn("failed to unhide controller", "instance", instanceID, "error", err)
	}
	e.currentInstance = ""
}

// applyHiding reconciles the cloak state of the current controller with
// the hide_controller setting.
func (e *Engine) applyHiding() {
	if e.currentInstance == "" {
		return
	}
	e.mu.Lock()
	hide := e.cfg.HideController
	e.mu.Unlock()

	var err error
	if hide {
		err = e.hider.Hide(e.currentInstance)
	} else {
		err = e.hider.Unhide(e.currentInstance)
	}
	if err != nil {
		if errors.Is(err, hider.ErrNotInstalled) {
			e.mu.Lock()
			e.status.HiderOK = false
			e.mu.Unlock()
			e.logger.Warn("filter driver unavailable, controller stays visible")
			return
		}
		e.logger.Warn("filter driver invocation failed", "error", err)
	}
}

// teardown is the shutdown path shared by every Run exit.
func (e *Engine) teardown() {
	keys, buttons := e.mapper.ReleaseAll()
	e.injectEdges(keys, buttons)
	if e.pad != nil {
		e.pad.Close()
		e.pad = nil
	}
	if e.bus != nil {
		e.bus.Close()
		e.bus = nil
	}
	e.hider.UnhideAll()
}
