package handler

import (
	"log/slog"

	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/server/api"
)

// Disconnect returns a handler that force-closes the controller transport.
// The engine's reconnect loop reopens the controller afterwards.
func Disconnect(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		e.Disconnect()
		return writeOK(res)
	}
}

// DriversRefresh returns a handler that reprobes the bus driver and the
// filter driver without dropping an active session.
func DriversRefresh(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		e.RefreshDrivers()
		return writeOK(res)
	}
}
