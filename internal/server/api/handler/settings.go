package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/profile"
	"github.com/Alia5/dsbridge/internal/server/api"
)

func decodePayload[T any](req *api.Request, out *T) error {
	if req.Payload == "" {
		return api.ErrBadRequest("missing payload")
	}
	if err := json.Unmarshal([]byte(req.Payload), out); err != nil {
		return api.ErrBadRequest(fmt.Sprintf("invalid payload: %v", err))
	}
	return nil
}

// SetRGB returns a handler that updates the lightbar color and brightness.
func SetRGB(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.RGBRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		e.SetRGB(in.R, in.G, in.B, in.Brightness)
		return writeOK(res)
	}
}

// SetPledBrightness returns a handler that sets the player LED brightness
// level ("low", "medium" or "high").
func SetPledBrightness(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.LevelRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		switch in.Level {
		case "low", "medium", "high":
		default:
			return api.ErrBadRequest(fmt.Sprintf("invalid brightness level: %q", in.Level))
		}
		e.SetPledBrightness(in.Level)
		return writeOK(res)
	}
}

// SetBatteryLED returns a handler that toggles battery rendering on the
// player LEDs.
func SetBatteryLED(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.FlagRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		e.SetShowBatteryLED(in.On)
		return writeOK(res)
	}
}

// SetDeadzones returns a handler that updates the stick deadzones.
func SetDeadzones(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.DeadzoneRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		if in.Left < 0 || in.Left >= 1 || in.Right < 0 || in.Right >= 1 {
			return api.ErrBadRequest("deadzones must be in [0, 1)")
		}
		e.SetDeadzones(in.Left, in.Right)
		return writeOK(res)
	}
}

// SetMouseSens returns a handler that updates the per-stick pointer
// sensitivities.
func SetMouseSens(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.MouseSensRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		e.SetMouseSens(in.Left, in.Right)
		return writeOK(res)
	}
}

// SetTouchpadSens returns a handler that updates the touchpad pointer
// sensitivity.
func SetTouchpadSens(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.TouchpadSensRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		e.SetTouchpadSens(in.Sens)
		return writeOK(res)
	}
}

// SetTrigger returns a handler that updates one adaptive-trigger
// descriptor. The route's {side} parameter selects "l2" or "r2".
func SetTrigger(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		side := req.Params["side"]
		if side != "l2" && side != "r2" {
			return api.ErrBadRequest(fmt.Sprintf("invalid trigger side: %q", side))
		}
		var in apitypes.TriggerRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		switch in.Mode {
		case "off", "rigid", "pulse", "section":
		default:
			return api.ErrBadRequest(fmt.Sprintf("invalid trigger mode: %q", in.Mode))
		}
		e.SetTrigger(side, profile.TriggerSetting{
			Mode:  in.Mode,
			Start: in.Start,
			End:   in.End,
			Force: in.Force,
		})
		return writeOK(res)
	}
}

// SetHideController returns a handler that toggles filter-driver cloaking
// of the physical controller.
func SetHideController(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.FlagRequest
		if err := decodePayload(req, &in); err != nil {
			return err
		}
		e.SetHideController(in.On)
		return writeOK(res)
	}
}
