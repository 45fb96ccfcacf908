// Package handler contains the control channel route handlers. Each
// constructor returns an api.HandlerFunc closed over the engine; error
// logging is centralized in the API server.
package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/server/api"
)

const (
	serverName    = "dsbridge"
	serverVersion = "1.0.0"
)

// Ping returns a handler that reports server identity and version.
func Ping() api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		b, err := json.Marshal(apitypes.PingResponse{Server: serverName, Version: serverVersion})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
