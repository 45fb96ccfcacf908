// Package engine supervises one controller session: it owns the HID
// transport, the mapping snapshot, the engine configuration and the output
// sinks, and runs the read/map/dispatch loop on a dedicated worker
// goroutine. Everything else talks to it through commands applied at frame
// boundaries.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/Alia5/dsbridge/internal/hider"
	"github.com/Alia5/dsbridge/internal/log"
	"github.com/Alia5/dsbridge/internal/mapping"
	"github.com/Alia5/dsbridge/internal/profile"
	"github.com/Alia5/dsbridge/internal/sink/sendinput"
	"github.com/Alia5/dsbridge/internal/sink/vigem"
)

// Status is one point-in-time view of the engine for the UI.
type Status struct {
	Transport         string `json:"transport"`
	Model             string `json:"model"`
	Connected         bool   `json:"connected"`
	SimpleModeWarning bool   `json:"simple_mode_warning"`
	PadPlugged        bool   `json:"pad_plugged"`
	BusDriverOK       bool   `json:"bus_driver_ok"`
	HiderOK           bool   `json:"hider_ok"`
	BatteryPercent    int    `json:"battery_percent"`
	Charging          bool   `json:"charging"`
	ActiveProfile     string `json:"active_profile"`
}

// StateUpdate is one event-stream frame, at most 60 per second.
type StateUpdate struct {
	Status Status        `json:"status"`
	Pad    gamepad.State `json:"pad"`
}

// command runs on the worker between frames.
type command func(*Engine)

// Engine is the supervisor. Create with New, run with Run.
type Engine struct {
	logger *slog.Logger
	rawLog log.RawLogger
	store  *profile.Store

	cmds chan command

	mu       sync.Mutex
	cfg      profile.EngineConfig
	mappings mapping.Set
	status   Status
	lastPad  gamepad.State

	mapper   *mapping.Engine
	injector sendinput.Injector
	hider    *hider.Hider
	bus      vigem.Bus
	pad      vigem.Pad

	// rumble holds large<<8|small, written from the driver callback.
	rumble rumbleCell

	subMu sync.Mutex
	subs  map[int]chan StateUpdate
	subID int

	lastPublish time.Time

	// worker-only session state
	forceClose      bool
	outDirty        bool
	currentInstance string
}

// New builds an engine around a profile store. The active profile from
// config.json is loaded immediately so Run starts with the user's setup.
func New(store *profile.Store, h *hider.Hider, logger *slog.Logger, rawLogger log.RawLogger) *Engine {
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	e := &Engine{
		logger: logger,
		rawLog: rawLogger,
		store:  store,
		cmds:   make(chan command, 64),
		hider:  h,
		subs:   make(map[int]chan StateUpdate),
	}
	doc := store.LoadDocument()
	p, err := store.Load(doc.ActiveProfile)
	if err != nil {
		logger.Warn("active profile unavailable, falling back to default",
			"profile", doc.ActiveProfile, "error", err)
		p = profile.DefaultProfile()
		doc.ActiveProfile = profile.DefaultName
	}
	e.cfg = p.Config
	e.mappings = p.Mappings
	e.status.ActiveProfile = doc.ActiveProfile
	e.status.Transport = gamepad.TransportDisconnected.String()
	e.mapper = mapping.NewEngine(e.mappings, e.sensitivity())
	return e
}

func (e *Engine) sensitivity() mapping.Sensitivity {
	return mapping.Sensitivity{
		MouseLeft:  e.cfg.MouseSensLeft,
		MouseRight: e.cfg.MouseSensRight,
		Touchpad:   e.cfg.TouchpadSens,
	}
}

// Snapshot returns the current status.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Config returns the current engine configuration snapshot.
func (e *Engine) Config() profile.EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Mappings returns a copy of the live mapping set.
func (e *Engine) Mappings() mapping.Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	return mapping.Normalize(e.mappings)
}

// LastPad returns the most recently decoded controller frame.
func (e *Engine) LastPad() gamepad.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPad
}

// Subscribe registers a state-update listener. Slow listeners drop frames
// rather than stall the worker.
func (e *Engine) Subscribe() (<-chan StateUpdate, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.subID
	e.subID++
	ch := make(chan StateUpdate, 4)
	e.subs[id] = ch
	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

func (e *Engine) publish(force bool) {
	now := time.Now()
	if !force && now.Sub(e.lastPublish) < time.Second/60 {
		return
	}
	e.lastPublish = now

	e.mu.Lock()
	update := StateUpdate{Status: e.status, Pad: e.lastPad}
	e.mu.Unlock()

	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

// enqueue hands a command to the worker. A full queue blocks the caller
// briefly; the worker drains at every frame boundary.
func (e *Engine) enqueue(cmd command) {
	e.cmds <- cmd
}

// drainCommands applies every queued command. Worker only.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.cmds:
			cmd(e)
		default:
			return
		}
	}
}

// waitCommand blocks for one command or the context, while disconnected.
func (e *Engine) waitCommand(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case cmd := <-e.cmds:
		cmd(e)
		e.drainCommands()
	case <-ctx.Done():
	case <-t.C:
	}
}

// UpdateMappings replaces the live mapping set.
func (e *Engine) UpdateMappings(set mapping.Set) {
	normalized := mapping.Normalize(set)
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.mappings = normalized
		e.mu.Unlock()
		e.mapper.SetMappings(normalized)
	})
}

// SetRGB updates the lightbar and schedules an immediate send.
func (e *Engine) SetRGB(r, g, b, brightness uint8) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.LightbarR, e.cfg.LightbarG, e.cfg.LightbarB = r, g, b
		e.cfg.Brightness = brightness
		e.mu.Unlock()
		e.outDirty = true
	})
}

// SetPledBrightness sets the player LED brightness level.
func (e *Engine) SetPledBrightness(level string) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.PlayerLEDBrightness = level
		e.mu.Unlock()
		e.outDirty = true
	})
}

// SetShowBatteryLED toggles battery rendering on the player LEDs.
func (e *Engine) SetShowBatteryLED(on bool) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.ShowBatteryLED = on
		e.mu.Unlock()
		e.outDirty = true
	})
}

// SetDeadzones updates the stick deadzones.
func (e *Engine) SetDeadzones(left, right float64) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.DeadzoneLeft, e.cfg.DeadzoneRight = left, right
		e.mu.Unlock()
	})
}

// SetMouseSens updates the per-stick pointer sensitivities.
func (e *Engine) SetMouseSens(left, right float64) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.MouseSensLeft, e.cfg.MouseSensRight = left, right
		e.mu.Unlock()
		e.mapper.SetSensitivity(e.sensitivity())
	})
}

// SetTouchpadSens updates the touchpad pointer sensitivity.
func (e *Engine) SetTouchpadSens(s float64) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.TouchpadSens = s
		e.mu.Unlock()
		e.mapper.SetSensitivity(e.sensitivity())
	})
}

// SetTrigger updates one adaptive-trigger descriptor. side is "l2" or
// "r2".
func (e *Engine) SetTrigger(side string, t profile.TriggerSetting) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		if side == "l2" {
			e.cfg.TriggerL2 = t
		} else {
			e.cfg.TriggerR2 = t
		}
		e.mu.Unlock()
		e.outDirty = true
	})
}

// SetHideController toggles filter-driver cloaking of the physical
// controller.
func (e *Engine) SetHideController(on bool) {
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg.HideController = on
		e.mu.Unlock()
		e.applyHiding()
	})
}

// Profiles lists the stored profile names.
func (e *Engine) Profiles() ([]string, error) {
	return e.store.List()
}

// SaveProfile persists the live configuration and mappings under name and
// marks it active.
func (e *Engine) SaveProfile(name string) error {
	e.mu.Lock()
	p := profile.Profile{Config: e.cfg, Mappings: mapping.Normalize(e.mappings)}
	e.mu.Unlock()
	if err := e.store.Save(name, p); err != nil {
		return err
	}
	e.setActiveProfile(name)
	return nil
}

// LoadProfile activates a stored profile.
func (e *Engine) LoadProfile(name string) error {
	p, err := e.store.Load(name)
	if err != nil {
		return err
	}
	e.enqueue(func(e *Engine) {
		e.mu.Lock()
		e.cfg = p.Config
		e.mappings = p.Mappings
		e.mu.Unlock()
		e.mapper.SetMappings(p.Mappings)
		e.mapper.SetSensitivity(e.sensitivity())
		e.outDirty = true
		e.applyHiding()
	})
	e.setActiveProfile(name)
	return nil
}

// DeleteProfile removes a stored profile. Deleting the active profile
// falls back to Default.
func (e *Engine) DeleteProfile(name string) error {
	if err := e.store.Delete(name); err != nil {
		return err
	}
	if e.Snapshot().ActiveProfile == name {
		return e.LoadProfile(profile.DefaultName)
	}
	return nil
}

func (e *Engine) setActiveProfile(name string) {
	e.mu.Lock()
	e.status.ActiveProfile = name
	e.mu.Unlock()
	doc := e.store.LoadDocument()
	doc.ActiveProfile = name
	if err := e.store.SaveDocument(doc); err != nil {
		e.logger.Warn("failed to persist active profile", "error", err)
	}
	e.publish(true)
}

// Disconnect force-closes the transport. The reconnect loop takes over.
func (e *Engine) Disconnect() {
	e.enqueue(func(e *Engine) {
		e.forceClose = true
	})
}

// RefreshDrivers reprobes the bus driver and the filter driver without
// dropping an active session.
func (e *Engine) RefreshDrivers() {
	e.enqueue(func(e *Engine) {
		e.probeDrivers()
	})
}

// rumbleCell passes rumble from the driver callback thread to the worker.
type rumbleCell struct {
	mu    sync.Mutex
	large byte
	small byte
	dirty bool
}

func (r *rumbleCell) set(large, small byte) {
	r.mu.Lock()
	r.large, r.small = large, small
	r.dirty = true
	r.mu.Unlock()
}

func (r *rumbleCell) consumeDirty() bool {
	r.mu.Lock()
	dirty := r.dirty
	r.dirty = false
	r.mu.Unlock()
	return dirty
}

func (r *rumbleCell) peek() (large, small byte) {
	r.mu.Lock()
	large, small = r.large, r.small
	r.mu.Unlock()
	return
}
