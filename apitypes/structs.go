package apitypes

import (
	"fmt"

	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/Alia5/dsbridge/internal/mapping"
	"github.com/Alia5/dsbridge/internal/profile"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

// Status mirrors the engine's point-in-time view for API consumers.
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

// StateResponse is the full bridge state: status flags, the live engine
// configuration, the active mapping set and the last decoded pad frame.
type StateResponse struct {
	Status   Status               `json:"status"`
	Config   profile.EngineConfig `json:"config"`
	Mappings mapping.Set          `json:"mappings"`
	Pad      gamepad.State        `json:"pad"`
}

// EventFrame is one frame of the events stream.
type EventFrame struct {
	Status Status        `json:"status"`
	Pad    gamepad.State `json:"pad"`
}

type RGBRequest struct {
	R          uint8 `json:"r"`
	G          uint8 `json:"g"`
	B          uint8 `json:"b"`
	Brightness uint8 `json:"brightness"`
}

type LevelRequest struct {
	Level string `json:"level"`
}

type FlagRequest struct {
	On bool `json:"on"`
}

type DeadzoneRequest struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

type MouseSensRequest struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

type TouchpadSensRequest struct {
	Sens float64 `json:"sens"`
}

type TriggerRequest struct {
	Mode  string `json:"mode"`
	Start uint8  `json:"start"`
	End   uint8  `json:"end"`
	Force uint8  `json:"force"`
}

type MappingsUpdateRequest struct {
	Mappings mapping.Set `json:"mappings"`
}

type ProfileListResponse struct {
	Profiles []string `json:"profiles"`
	Active   string   `json:"active"`
}

type ProfileResponse struct {
	Name string `json:"name"`
}

type OkResponse struct {
	Ok bool `json:"ok"`
}
