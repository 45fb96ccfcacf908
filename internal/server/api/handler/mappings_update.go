package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/server/api"
)

// MappingsUpdate returns a handler that replaces the live mapping set.
func MappingsUpdate(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return api.ErrBadRequest("missing mappings payload")
		}
		var in apitypes.MappingsUpdateRequest
		if err := json.Unmarshal([]byte(req.Payload), &in); err != nil {
			return api.ErrBadRequest(fmt.Sprintf("invalid mappings payload: %v", err))
		}
		e.UpdateMappings(in.Mappings)
		return writeOK(res)
	}
}

func writeOK(res *api.Response) error {
	b, err := json.Marshal(apitypes.OkResponse{Ok: true})
	if err != nil {
		return err
	}
	res.JSON = string(b)
	return nil
}
