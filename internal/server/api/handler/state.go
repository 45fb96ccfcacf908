package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/server/api"
)

func apiStatus(s engine.Status) apitypes.Status {
	return apitypes.Status{
		Transport:         s.Transport,
		Model:             s.Model,
		Connected:         s.Connected,
		SimpleModeWarning: s.SimpleModeWarning,
		PadPlugged:        s.PadPlugged,
		BusDriverOK:       s.BusDriverOK,
		HiderOK:           s.HiderOK,
		BatteryPercent:    s.BatteryPercent,
		Charging:          s.Charging,
		ActiveProfile:     s.ActiveProfile,
	}
}

// State returns a handler that reports the full bridge state.
func State(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		payload := apitypes.StateResponse{
			Status:   apiStatus(e.Snapshot()),
			Config:   e.Config(),
			Mappings: e.Mappings(),
			Pad:      e.LastPad(),
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
