package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/engine"
	"github.com/Alia5/dsbridge/internal/profile"
	"github.com/Alia5/dsbridge/internal/server/api"
)

func profileError(err error) error {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		return api.ErrNotFound(err.Error())
	case errors.Is(err, profile.ErrNameInvalid):
		return api.ErrBadRequest(err.Error())
	case errors.Is(err, profile.ErrImmutable):
		return api.ErrConflict(err.Error())
	default:
		return err
	}
}

// ProfileList returns a handler that lists stored profiles and the active
// one.
func ProfileList(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		names, err := e.Profiles()
		if err != nil {
			return api.ErrInternal(fmt.Sprintf("list profiles: %v", err))
		}
		payload := apitypes.ProfileListResponse{
			Profiles: names,
			Active:   e.Snapshot().ActiveProfile,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}

// ProfileSave returns a handler that persists the live configuration under
// the {name} route parameter.
func ProfileSave(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		name := req.Params["name"]
		if err := e.SaveProfile(name); err != nil {
			return profileError(err)
		}
		return writeName(res, name)
	}
}

// ProfileLoad returns a handler that activates the stored profile named by
// the {name} route parameter.
func ProfileLoad(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		name := req.Params["name"]
		if err := e.LoadProfile(name); err != nil {
			return profileError(err)
		}
		return writeName(res, name)
	}
}

// ProfileDelete returns a handler that removes the stored profile named by
// the {name} route parameter.
func ProfileDelete(e *engine.Engine) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		name := req.Params["name"]
		if err := e.DeleteProfile(name); err != nil {
			return profileError(err)
		}
		return writeName(res, name)
	}
}

func writeName(res *api.Response, name string) error {
	b, err := json.Marshal(apitypes.ProfileResponse{Name: name})
	if err != nil {
		return err
	}
	res.JSON = string(b)
	return nil
}
