package handler

import (
	"encoding/json"
	"log/slog"
	"net"

	"github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/server/api"
)

// Events returns a stream handler that pushes state updates as JSON lines
// until the client hangs up. The engine drops frames for slow consumers, so
// a stalled UI never backs up the worker.
func Events(e *engine.Engine) api.StreamHandlerFunc {
	return func(conn net.Conn, req *api.Request, logger *slog.Logger) error {
		updates, cancel := e.Subscribe()
		defer cancel()

		enc := json.NewEncoder(conn)
		// Lead with a snapshot so clients render before the first frame.
		first := apitypes.EventFrame{Status: apiStatus(e.Snapshot()), Pad: e.LastPad()}
		if err := enc.Encode(first); err != nil {
			return nil
		}
		for update := range updates {
			frame := apitypes.EventFrame{Status: apiStatus(update.Status), Pad: update.Pad}
			if err := enc.Encode(frame); err != nil {
				// Client went away, not a server fault.
				return nil
			}
		}
		return nil
	}
}
