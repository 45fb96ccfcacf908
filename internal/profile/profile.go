// Package profile persists the engine configuration and named mapping
// profiles as JSON documents in the config directory.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/internal/mapping"
)

// SchemaVersion is the current on-disk document version.
const SchemaVersion = 1

// DefaultName is the built-in profile. It always exists and cannot be
// deleted or overwritten.
const DefaultName = "Default"

var (
	ErrNotFound    = errors.New("profile not found")
	ErrNameInvalid = errors.New("profile name invalid")
	ErrImmutable   = errors.New("profile is immutable")
)

// TriggerSetting is one adaptive-trigger descriptor as stored on disk.
type TriggerSetting struct {
	Mode  string `json:"mode"` // "off", "rigid", "pulse" or "section"
	Start uint8  `json:"start"`
	End   uint8  `json:"end"`
	Force uint8  `json:"force"`
}

// Effect converts the stored descriptor into its wire form. Unknown mode
// strings read as off.
func (t TriggerSetting) Effect() dualsense.TriggerEffect {
	var mode uint8
	switch strings.ToLower(t.Mode) {
	case "rigid":
		mode = dualsense.TriggerModeRigid
	case "pulse":
		mode = dualsense.TriggerModePulse
	case "section":
		mode = dualsense.TriggerModeSection
	default:
		mode = dualsense.TriggerModeOff
	}
	return dualsense.TriggerEffect{Mode: mode, Start: t.Start, End: t.End, Force: t.Force}
}

// PledBrightness converts the stored brightness level into its wire form.
func PledBrightness(level string) uint8 {
	switch strings.ToLower(level) {
	case "low":
		return dualsense.PledBrightnessLow
	case "medium":
		return dualsense.PledBrightnessMedium
	default:
		return dualsense.PledBrightnessHigh
	}
}

// EngineConfig is everything a profile captures besides the mapping set.
type EngineConfig struct {
	DeadzoneLeft  float64 `json:"deadzone_left"`
	DeadzoneRight float64 `json:"deadzone_right"`

	MouseSensLeft  float64 `json:"mouse_sens_left"`
	MouseSensRight float64 `json:"mouse_sens_right"`
	TouchpadSens   float64 `json:"touchpad_sens"`

	LightbarR  uint8 `json:"lightbar_r"`
	LightbarG  uint8 `json:"lightbar_g"`
	LightbarB  uint8 `json:"lightbar_b"`
	Brightness uint8 `json:"brightness"`

	// PlayerLEDBrightness is "low", "medium" or "high".
	PlayerLEDBrightness string `json:"player_led_brightness"`
	ShowBatteryLED      bool   `json:"show_battery_led"`

	HideController bool `json:"hide_controller"`

	TriggerL2 TriggerSetting `json:"trigger_l2"`
	TriggerR2 TriggerSetting `json:"trigger_r2"`
}

// Profile bundles an EngineConfig with a mapping set.
type Profile struct {
	SchemaVersion int          `json:"schema_version"`
	Config        EngineConfig `json:"config"`
	Mappings      mapping.Set  `json:"mappings"`
}

// Document is the top-level config.json contents.
type Document struct {
	SchemaVersion  int    `json:"schema_version"`
	ActiveProfile  string `json:"active_profile"`
	StartMinimized bool   `json:"start_minimized"`
}

// DefaultConfig returns the built-in engine configuration.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		DeadzoneLeft:        0.1,
		DeadzoneRight:       0.1,
		MouseSensLeft:       25,
		MouseSensRight:      25,
		TouchpadSens:        25,
		LightbarR:           0,
		LightbarG:           0,
		LightbarB:           255,
		Brightness:          255,
		PlayerLEDBrightness: "high",
		ShowBatteryLED:      true,
		HideController:      true,
		TriggerL2:           TriggerSetting{Mode: "off"},
		TriggerR2:           TriggerSetting{Mode: "off"},
	}
}

// DefaultProfile returns the immutable built-in profile.
func DefaultProfile() Profile {
	return Profile{
		SchemaVersion: SchemaVersion,
		Config:        DefaultConfig(),
		Mappings:      mapping.DefaultSet(),
	}
}

// Store reads and writes profiles under one config directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore opens a store rooted at dir, creating the layout on first use.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "profiles"), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store's config directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) configPath() string { return filepath.Join(s.dir, "config.json") }

func (s *Store) profilePath(name string) string {
	return filepath.Join(s.dir, "profiles", name+".json")
}

// LoadDocument reads config.json. A missing or forward-incompatible file
// yields the defaults and, for the incompatible case, a migration notice.
func (s *Store) LoadDocument() Document {
	doc := Document{SchemaVersion: SchemaVersion, ActiveProfile: DefaultName}
	raw, err := os.ReadFile(s.configPath())
	if err != nil {
		return doc
	}
	var loaded Document
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("config.json unreadable, using defaults", "error", err)
		return doc
	}
	if loaded.SchemaVersion > SchemaVersion {
		s.logger.Warn("config.json written by a newer version, using defaults",
			"found", loaded.SchemaVersion, "supported", SchemaVersion)
		return doc
	}
	if loaded.ActiveProfile == "" {
		loaded.ActiveProfile = DefaultName
	}
	loaded.SchemaVersion = SchemaVersion
	return loaded
}

// SaveDocument writes config.json.
func (s *Store) SaveDocument(doc Document) error {
	doc.SchemaVersion = SchemaVersion
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.configPath(), raw)
}

// ValidName reports whether name is usable as a profile file name.
func ValidName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	return !strings.ContainsAny(name, `/\:*?"<>|`) && name == strings.TrimSpace(name)
}

// List returns all profile names, "Default" first, the rest sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "profiles"))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	names := []string{DefaultName}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if name == DefaultName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names, nil
}

// Load reads one profile. "Default" is served from the built-in values. A
// profile with an unknown schema version falls back to the defaults with a
// migration notice instead of failing.
func (s *Store) Load(name string) (Profile, error) {
	if name == DefaultName {
		return DefaultProfile(), nil
	}
	if !ValidName(name) {
		return Profile{}, fmt.Errorf("%w: %q", ErrNameInvalid, name)
	}
	raw, err := os.ReadFile(s.profilePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return Profile{}, fmt.Errorf("read profile %q: %w", name, err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %q: %w", name, err)
	}
	if p.SchemaVersion > SchemaVersion {
		s.logger.Warn("profile written by a newer version, using defaults",
			"profile", name, "found", p.SchemaVersion, "supported", SchemaVersion)
		return DefaultProfile(), nil
	}
	p.SchemaVersion = SchemaVersion
	p.Mappings = mapping.Normalize(p.Mappings)
	return p, nil
}

// Save writes one profile. "Default" is rejected.
func (s *Store) Save(name string, p Profile) error {
	if name == DefaultName {
		return fmt.Errorf("%w: %q", ErrImmutable, name)
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrNameInvalid, name)
	}
	p.SchemaVersion = SchemaVersion
	p.Mappings = mapping.Normalize(p.Mappings)
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.profilePath(name), raw)
}

// Delete removes one profile. "Default" is rejected.
func (s *Store) Delete(name string) error {
	if name == DefaultName {
		return fmt.Errorf("%w: %q", ErrImmutable, name)
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrNameInvalid, name)
	}
	if err := os.Remove(s.profilePath(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	return nil
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never truncates an existing profile.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
