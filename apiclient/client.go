package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apitypes "github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/mapping"
)

// Client provides a high-level interface to the dsbridge control channel,
// handling request formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the bridge.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
// This is primarily useful for testing or when advanced transport configuration is needed.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the bridge.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	const path = "ping"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.PingResponse](raw)
}

// State retrieves the full bridge state: status flags, the live engine
// configuration, the mapping set and the last pad frame.
func (c *Client) State() (*apitypes.StateResponse, error) {
	return c.StateCtx(context.Background())
}

func (c *Client) StateCtx(ctx context.Context) (*apitypes.StateResponse, error) {
	const path = "state"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.StateResponse](raw)
}

// UpdateMappings replaces the live mapping set.
func (c *Client) UpdateMappings(set mapping.Set) (*apitypes.OkResponse, error) {
	return c.UpdateMappingsCtx(context.Background(), set)
}

func (c *Client) UpdateMappingsCtx(ctx context.Context, set mapping.Set) (*apitypes.OkResponse, error) {
	const path = "mappings/update"
	return c.doOK(ctx, path, apitypes.MappingsUpdateRequest{Mappings: set}, nil)
}

// SetRGB updates the lightbar color and brightness.
func (c *Client) SetRGB(r, g, b, brightness uint8) (*apitypes.OkResponse, error) {
	return c.SetRGBCtx(context.Background(), r, g, b, brightness)
}

func (c *Client) SetRGBCtx(ctx context.Context, r, g, b, brightness uint8) (*apitypes.OkResponse, error) {
	const path = "set/rgb"
	return c.doOK(ctx, path, apitypes.RGBRequest{R: r, G: g, B: b, Brightness: brightness}, nil)
}

// SetPledBrightness sets the player LED brightness level ("low", "medium"
// or "high").
func (c *Client) SetPledBrightness(level string) (*apitypes.OkResponse, error) {
	return c.SetPledBrightnessCtx(context.Background(), level)
}

func (c *Client) SetPledBrightnessCtx(ctx context.Context, level string) (*apitypes.OkResponse, error) {
	const path = "set/pled-brightness"
	return c.doOK(ctx, path, apitypes.LevelRequest{Level: level}, nil)
}

// SetBatteryLED toggles battery rendering on the player LEDs.
func (c *Client) SetBatteryLED(on bool) (*apitypes.OkResponse, error) {
	return c.SetBatteryLEDCtx(context.Background(), on)
}

func (c *Client) SetBatteryLEDCtx(ctx context.Context, on bool) (*apitypes.OkResponse, error) {
	const path = "set/battery-led"
	return c.doOK(ctx, path, apitypes.FlagRequest{On: on}, nil)
}

// SetDeadzones updates the stick deadzones.
func (c *Client) SetDeadzones(left, right float64) (*apitypes.OkResponse, error) {
	return c.SetDeadzonesCtx(context.Background(), left, right)
}

func (c *Client) SetDeadzonesCtx(ctx context.Context, left, right float64) (*apitypes.OkResponse, error) {
	const path = "set/deadzones"
	return c.doOK(ctx, path, apitypes.DeadzoneRequest{Left: left, Right: right}, nil)
}

// SetMouseSens updates the per-stick pointer sensitivities.
func (c *Client) SetMouseSens(left, right float64) (*apitypes.OkResponse, error) {
	return c.SetMouseSensCtx(context.Background(), left, right)
}

func (c *Client) SetMouseSensCtx(ctx context.Context, left, right float64) (*apitypes.OkResponse, error) {
	const path = "set/mouse-sens"
	return c.doOK(ctx, path, apitypes.MouseSensRequest{Left: left, Right: right}, nil)
}

// SetTouchpadSens updates the touchpad pointer sensitivity.
func (c *Client) SetTouchpadSens(sens float64) (*apitypes.OkResponse, error) {
	return c.SetTouchpadSensCtx(context.Background(), sens)
}

func (c *Client) SetTouchpadSensCtx(ctx context.Context, sens float64) (*apitypes.OkResponse, error) {
	const path = "set/touchpad-sens"
	return c.doOK(ctx, path, apitypes.TouchpadSensRequest{Sens: sens}, nil)
}

// SetTrigger updates one adaptive-trigger descriptor. side is "l2" or "r2".
func (c *Client) SetTrigger(side string, t apitypes.TriggerRequest) (*apitypes.OkResponse, error) {
	return c.SetTriggerCtx(context.Background(), side, t)
}

func (c *Client) SetTriggerCtx(ctx context.Context, side string, t apitypes.TriggerRequest) (*apitypes.OkResponse, error) {
	pathParams := map[string]string{"side": side}
	const path = "set/trigger/{side}"
	return c.doOK(ctx, path, t, pathParams)
}

// SetHideController toggles cloaking of the physical controller.
func (c *Client) SetHideController(on bool) (*apitypes.OkResponse, error) {
	return c.SetHideControllerCtx(context.Background(), on)
}

func (c *Client) SetHideControllerCtx(ctx context.Context, on bool) (*apitypes.OkResponse, error) {
	const path = "set/hide-controller"
	return c.doOK(ctx, path, apitypes.FlagRequest{On: on}, nil)
}

// ProfileList retrieves the stored profile names and the active profile.
func (c *Client) ProfileList() (*apitypes.ProfileListResponse, error) {
	return c.ProfileListCtx(context.Background())
}

func (c *Client) ProfileListCtx(ctx context.Context) (*apitypes.ProfileListResponse, error) {
	const path = "profile/list"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ProfileListResponse](raw)
}

// ProfileSave persists the live configuration under the given name and
// marks it active.
func (c *Client) ProfileSave(name string) (*apitypes.ProfileResponse, error) {
	return c.ProfileSaveCtx(context.Background(), name)
}

func (c *Client) ProfileSaveCtx(ctx context.Context, name string) (*apitypes.ProfileResponse, error) {
	pathParams := map[string]string{"name": name}
	const path = "profile/save/{name}"
	raw, err := c.transport.DoCtx(ctx, path, nil, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ProfileResponse](raw)
}

// ProfileLoad activates a stored profile.
func (c *Client) ProfileLoad(name string) (*apitypes.ProfileResponse, error) {
	return c.ProfileLoadCtx(context.Background(), name)
}

func (c *Client) ProfileLoadCtx(ctx context.Context, name string) (*apitypes.ProfileResponse, error) {
	pathParams := map[string]string{"name": name}
	const path = "profile/load/{name}"
	raw, err := c.transport.DoCtx(ctx, path, nil, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ProfileResponse](raw)
}

// ProfileDelete removes a stored profile. Deleting the active profile
// falls back to the built-in default.
func (c *Client) ProfileDelete(name string) (*apitypes.ProfileResponse, error) {
	return c.ProfileDeleteCtx(context.Background(), name)
}

func (c *Client) ProfileDeleteCtx(ctx context.Context, name string) (*apitypes.ProfileResponse, error) {
	pathParams := map[string]string{"name": name}
	const path = "profile/delete/{name}"
	raw, err := c.transport.DoCtx(ctx, path, nil, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ProfileResponse](raw)
}

// Disconnect force-closes the controller transport; the bridge reconnects
// on its own.
func (c *Client) Disconnect() (*apitypes.OkResponse, error) {
	return c.DisconnectCtx(context.Background())
}

func (c *Client) DisconnectCtx(ctx context.Context) (*apitypes.OkResponse, error) {
	const path = "disconnect"
	return c.doOK(ctx, path, nil, nil)
}

// RefreshDrivers reprobes the bus driver and the filter driver.
func (c *Client) RefreshDrivers() (*apitypes.OkResponse, error) {
	return c.RefreshDriversCtx(context.Background())
}

func (c *Client) RefreshDriversCtx(ctx context.Context) (*apitypes.OkResponse, error) {
	const path = "drivers/refresh"
	return c.doOK(ctx, path, nil, nil)
}

func (c *Client) doOK(ctx context.Context, path string, payload any, pathParams map[string]string) (*apitypes.OkResponse, error) {
	raw, err := c.transport.DoCtx(ctx, path, payload, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.OkResponse](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
