package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/device/dualshock4"
	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/Alia5/dsbridge/internal/hider"
	"github.com/Alia5/dsbridge/internal/hidio"
	"github.com/Alia5/dsbridge/internal/profile"
	"github.com/Alia5/dsbridge/internal/sink/sendinput"
)

const (
	reconnectInterval = time.Second

	// Periodic output cadence, with immediate sends coalesced to at
	// least this spacing.
	outputInterval   = 50 * time.Millisecond
	outputMinSpacing = 5 * time.Millisecond

	// smoothingAlpha is the per-4ms-frame EMA weight on stick vectors.
	smoothingAlpha = 0.25
)

// Run executes the supervisor loop until ctx is cancelled. It probes the
// drivers once, then alternates between reconnect waits and live sessions.
func (e *Engine) Run(ctx context.Context) error {
	if e.injector == nil {
		inj, err := sendinput.New()
		if err != nil {
			e.logger.Warn("synthetic input unavailable", "error", err)
		} else {
			e.injector = inj
		}
	}
	e.probeDrivers()
	e.applyHidingSetup()
	defer e.teardown()

	for ctx.Err() == nil {
		cand, err := e.pickCandidate()
		if err != nil {
			if !errors.Is(err, hidio.ErrNotFound) {
				e.logger.Warn("controller enumeration failed", "error", err)
			}
			e.waitCommand(ctx, reconnectInterval)
			continue
		}
		dev, err := hidio.Open(cand)
		if err != nil {
			e.logger.Warn("controller open failed", "error", err)
			e.waitCommand(ctx, reconnectInterval)
			continue
		}
		e.logger.Info("controller opened",
			"model", cand.Model, "path", cand.Path, "bluetooth", cand.Bluetooth)
		retry := e.session(ctx, dev)
		dev.Close()
		e.onDisconnected()
		if !retry || ctx.Err() != nil {
			if ctx.Err() != nil {
				break
			}
			e.waitCommand(ctx, reconnectInterval)
		}
	}
	return nil
}

func (e *Engine) pickCandidate() (hidio.Candidate, error) {
	cands, err := hidio.Enumerate()
	if err != nil {
		return hidio.Candidate{}, err
	}
	// Prefer USB over Bluetooth when the same controller is on both.
	for _, c := range cands {
		if !c.Bluetooth {
			return c, nil
		}
	}
	return cands[0], nil
}

// session drives one opened controller until disconnect or shutdown.
// Returns true when the caller should reopen immediately instead of
// waiting out the reconnect interval.
func (e *Engine) session(ctx context.Context, dev *hidio.Device) bool {
	info := dev.Info()
	link := hidio.NewLink(dev, info.Model, dev.InitialTransport(), e.logger)
	link.StartHandshake(time.Now())

	instanceID := hider.PathToInstanceID(info.Path)
	e.hideInstance(instanceID)
	defer e.unhideInstance(instanceID)

	e.mu.Lock()
	e.status.Connected = true
	e.status.Model = info.Model.String()
	e.status.Transport = link.Transport().String()
	e.mu.Unlock()
	e.publish(true)

	var (
		cur, prev gamepad.State
		havePrev  bool
		lastFrame = time.Now()
		lastSend  time.Time
		btSeq     uint8
		buf       = make([]byte, 128)
		retry     = false
	)
	e.forceClose = false
	e.outDirty = true

	for ctx.Err() == nil && !e.forceClose {
		e.drainCommands()
		if e.forceClose {
			break
		}

		n, err := dev.Read(buf, hidio.ReadTimeout)
		now := time.Now()
		if err != nil {
			if errors.Is(err, hidio.ErrReadTimeout) {
				dev.NoteReadOK()
			} else if dev.NoteReadError(now) {
				e.logger.Info("controller disconnected")
				break
			}
			e.maybeSendOutput(dev, link, now, &lastSend, &btSeq)
			continue
		}
		dev.NoteReadOK()
		e.rawLog.Log(true, buf[:n])

		if link.ObserveReportID(buf[0], now) {
			e.mu.Lock()
			e.status.Transport = link.Transport().String()
			e.mu.Unlock()
			e.outDirty = true
			e.publish(true)
		}

		prevFrame := cur
		dzLeft, dzRight := e.deadzones()
		if err := decodeFrame(info.Model, buf[:n], link.Transport(), dzLeft, dzRight, &cur); err != nil {
			e.logger.Debug("frame decode failed", "error", err)
			continue
		}
		link.Activate()
		if link.NoteSimpleFrame() {
			e.logger.Info("still in simple mode, trying a reconnect")
			retry = true
			break
		}

		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now
		if havePrev {
			smoothSticks(&cur, &prevFrame, dt)
		}
		prev = prevFrame
		if !havePrev {
			prev = cur
			havePrev = true
		}

		out := e.mapper.Process(&cur, &prev, dt)
		e.submitPad(out.Pad)
		e.injectOutput(out)

		e.mu.Lock()
		e.lastPad = cur
		e.status.BatteryPercent = cur.BatteryPercent
		e.status.Charging = cur.IsCharging
		e.status.SimpleModeWarning = link.SimpleModeWarning()
		e.mu.Unlock()
		e.publish(false)

		e.maybeSendOutput(dev, link, now, &lastSend, &btSeq)
	}

	e.endSession(dev, link, &btSeq)
	return retry
}

// endSession releases everything a live session holds: synthetic keys
// and the virtual pad. A still-connected controller first gets one last
// output report built from the current config, like any periodic send.
func (e *Engine) endSession(dev *hidio.Device, link *hidio.Link, btSeq *uint8) {
	keys, buttons := e.mapper.ReleaseAll()
	e.injectEdges(keys, buttons)

	if link.State() != hidio.LinkDisconnected {
		e.sendOutput(dev, link.Transport(), dev.Info().Model, btSeq)
	}
	e.unplugPad()
	link.Disconnect()
}

func (e *Engine) onDisconnected() {
	e.mu.Lock()
	e.status.Connected = false
	e.status.Transport = gamepad.TransportDisconnected.String()
	e.status.SimpleModeWarning = false
	e.lastPad.Reset()
	e.mu.Unlock()
	e.publish(true)
}

func (e *Engine) deadzones() (float64, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.DeadzoneLeft, e.cfg.DeadzoneRight
}

// decodeFrame dispatches one raw report to the model's decoder.
func decodeFrame(model hidio.Model, report []byte, transport gamepad.Transport, dzLeft, dzRight float64, out *gamepad.State) error {
	if model == hidio.ModelDualShock4 {
		return dualshock4.Decode(report, transport, dzLeft, dzRight, out)
	}
	return dualsense.Decode(report, transport, dzLeft, dzRight, out)
}

// smoothSticks applies a dt-scaled exponential moving average to the
// stick vectors so Bluetooth jitter does not shake the virtual sticks.
func smoothSticks(cur, prev *gamepad.State, dt float64) {
	factor := 1 - math.Pow(1-smoothingAlpha, dt/0.004)
	if factor <= 0 || factor > 1 {
		factor = smoothingAlpha
	}
	cur.LeftX = prev.LeftX + (cur.LeftX-prev.LeftX)*factor
	cur.LeftY = prev.LeftY + (cur.LeftY-prev.LeftY)*factor
	cur.RightX = prev.RightX + (cur.RightX-prev.RightX)*factor
	cur.RightY = prev.RightY + (cur.RightY-prev.RightY)*factor
}

// maybeSendOutput writes an output report when the cadence elapses or a
// config change marked the state dirty, spaced at least outputMinSpacing.
func (e *Engine) maybeSendOutput(dev *hidio.Device, link *hidio.Link, now time.Time, lastSend *time.Time, btSeq *uint8) {
	if e.rumble.consumeDirty() {
		e.outDirty = true
	}
	since := now.Sub(*lastSend)
	if since < outputMinSpacing {
		return
	}
	if !e.outDirty && since < outputInterval {
		return
	}
	e.outDirty = false
	*lastSend = now
	e.sendOutput(dev, link.Transport(), dev.Info().Model, btSeq)
}

// sendOutput builds and writes one output report for the current config.
func (e *Engine) sendOutput(dev *hidio.Device, transport gamepad.Transport, model hidio.Model, btSeq *uint8) {
	e.mu.Lock()
	cfg := e.cfg
	battery := e.status.BatteryPercent
	e.mu.Unlock()
	large, small := e.rumble.peek()

	r := scaleColor(cfg.LightbarR, cfg.Brightness)
	g := scaleColor(cfg.LightbarG, cfg.Brightness)
	b := scaleColor(cfg.LightbarB, cfg.Brightness)

	var report []byte
	if model == hidio.ModelDualShock4 {
		out := dualshock4.OutputState{
			RumbleSmall: small,
			RumbleLarge: large,
			LedRed:      r,
			LedGreen:    g,
			LedBlue:     b,
		}
		if transport.IsBluetooth() {
			report = out.EncodeBT()
		} else {
			report = out.EncodeUSB()
		}
	} else {
		mask := dualsense.PledCenter
		if cfg.ShowBatteryLED {
			mask = dualsense.BatteryLEDMask(battery)
		}
		out := dualsense.OutputState{
			RumbleLeft:          large,
			RumbleRight:         small,
			LightbarR:           r,
			LightbarG:           g,
			LightbarB:           b,
			PlayerLEDMask:       mask,
			PlayerLEDBrightness: profile.PledBrightness(cfg.PlayerLEDBrightness),
			TriggerL2:           cfg.TriggerL2.Effect(),
			TriggerR2:           cfg.TriggerR2.Effect(),
		}
		if transport.IsBluetooth() {
			report = out.EncodeBT(*btSeq)
			*btSeq = (*btSeq + 1) & 0x0F
		} else {
			report = out.EncodeUSB()
		}
	}
	e.rawLog.Log(false, report)
	if err := dev.WriteOutput(report); err != nil {
		e.logger.Debug("output write failed", "error", err)
	}
}

func scaleColor(c, brightness uint8) uint8 {
	return uint8(uint16(c) * uint16(brightness) / 255)
}
