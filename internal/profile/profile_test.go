package profile_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/internal/mapping"
	"github.com/Alia5/dsbridge/internal/profile"
	"github.com/stretchr/testify/assert"
)

func newStore(t *testing.T) *profile.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := profile.NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestValidName(t *testing.T) {
	type testCase struct {
		name  string
		input string
		want  bool
	}

	cases := []testCase{
		{name: "plain", input: "gaming", want: true},
		{name: "spaces inside", input: "couch gaming", want: true},
		{name: "empty", input: "", want: false},
		{name: "leading space", input: " x", want: false},
		{name: "trailing space", input: "x ", want: false},
		{name: "path separator", input: "a/b", want: false},
		{name: "backslash", input: `a\b`, want: false},
		{name: "wildcard", input: "a*b", want: false},
		{name: "too long", input: strings.Repeat("a", 65), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, profile.ValidName(tc.input))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)

	p := profile.DefaultProfile()
	p.Config.LightbarR = 0xFF
	p.Config.DeadzoneLeft = 0.2
	p.Mappings[mapping.SourceCross] = []mapping.Target{{Type: mapping.TargetKeyboard, VK: 0x20}}

	if !assert.NoError(t, s.Save("gaming", p)) {
		return
	}

	got, err := s.Load("gaming")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, uint8(0xFF), got.Config.LightbarR)
	assert.Equal(t, 0.2, got.Config.DeadzoneLeft)
	assert.Equal(t, p.Mappings[mapping.SourceCross], got.Mappings[mapping.SourceCross])
	assert.Len(t, got.Mappings, len(mapping.Sources))
}

func TestLoadDefaultIsBuiltIn(t *testing.T) {
	s := newStore(t)

	p, err := s.Load(profile.DefaultName)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, profile.DefaultConfig(), p.Config)
}

func TestDefaultIsImmutable(t *testing.T) {
	s := newStore(t)

	err := s.Save(profile.DefaultName, profile.DefaultProfile())
	assert.ErrorIs(t, err, profile.ErrImmutable)

	err = s.Delete(profile.DefaultName)
	assert.ErrorIs(t, err, profile.ErrImmutable)
}

func TestLoadMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.Load("nope")
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestInvalidNames(t *testing.T) {
	s := newStore(t)

	_, err := s.Load("a/b")
	assert.ErrorIs(t, err, profile.ErrNameInvalid)
	assert.ErrorIs(t, s.Save("a/b", profile.DefaultProfile()), profile.ErrNameInvalid)
	assert.ErrorIs(t, s.Delete("a/b"), profile.ErrNameInvalid)
}

func TestListSortsWithDefaultFirst(t *testing.T) {
	s := newStore(t)

	assert.NoError(t, s.Save("zebra", profile.DefaultProfile()))
	assert.NoError(t, s.Save("alpha", profile.DefaultProfile()))

	names, err := s.List()
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, []string{profile.DefaultName, "alpha", "zebra"}, names)
}

func TestDelete(t *testing.T) {
	s := newStore(t)

	assert.NoError(t, s.Save("gaming", profile.DefaultProfile()))
	assert.NoError(t, s.Delete("gaming"))
	assert.ErrorIs(t, s.Delete("gaming"), profile.ErrNotFound)
}

func TestNewerProfileFallsBack(t *testing.T) {
	s := newStore(t)

	raw, _ := json.Marshal(map[string]any{"schema_version": profile.SchemaVersion + 1})
	path := filepath.Join(s.Dir(), "profiles", "future.json")
	if !assert.NoError(t, os.WriteFile(path, raw, 0o644)) {
		return
	}

	p, err := s.Load("future")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, profile.DefaultConfig(), p.Config)
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newStore(t)

	// Missing file yields defaults.
	doc := s.LoadDocument()
	assert.Equal(t, profile.DefaultName, doc.ActiveProfile)

	doc.ActiveProfile = "gaming"
	doc.StartMinimized = true
	if !assert.NoError(t, s.SaveDocument(doc)) {
		return
	}

	got := s.LoadDocument()
	assert.Equal(t, "gaming", got.ActiveProfile)
	assert.True(t, got.StartMinimized)
	assert.Equal(t, profile.SchemaVersion, got.SchemaVersion)
}

func TestNewerDocumentFallsBack(t *testing.T) {
	s := newStore(t)

	raw, _ := json.Marshal(profile.Document{SchemaVersion: profile.SchemaVersion + 1, ActiveProfile: "x"})
	if !assert.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "config.json"), raw, 0o644)) {
		return
	}

	doc := s.LoadDocument()
	assert.Equal(t, profile.DefaultName, doc.ActiveProfile)
}

func TestTriggerSettingEffect(t *testing.T) {
	type testCase struct {
		name    string
		setting profile.TriggerSetting
		want    dualsense.TriggerEffect
	}

	cases := []testCase{
		{
			name:    "off",
			setting: profile.TriggerSetting{Mode: "off", Start: 1, End: 2, Force: 3},
			want:    dualsense.TriggerEffect{Mode: dualsense.TriggerModeOff, Start: 1, End: 2, Force: 3},
		},
		{
			name:    "rigid case-insensitive",
			setting: profile.TriggerSetting{Mode: "Rigid", Start: 0x20, Force: 0x80},
			want:    dualsense.TriggerEffect{Mode: dualsense.TriggerModeRigid, Start: 0x20, Force: 0x80},
		},
		{
			name:    "pulse",
			setting: profile.TriggerSetting{Mode: "pulse"},
			want:    dualsense.TriggerEffect{Mode: dualsense.TriggerModePulse},
		},
		{
			name:    "section",
			setting: profile.TriggerSetting{Mode: "section", Start: 0x30, End: 0x60, Force: 0x90},
			want:    dualsense.TriggerEffect{Mode: dualsense.TriggerModeSection, Start: 0x30, End: 0x60, Force: 0x90},
		},
		{
			name:    "unknown reads as off",
			setting: profile.TriggerSetting{Mode: "wobble"},
			want:    dualsense.TriggerEffect{Mode: dualsense.TriggerModeOff},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.setting.Effect())
		})
	}
}

func TestPledBrightness(t *testing.T) {
	assert.Equal(t, dualsense.PledBrightnessLow, profile.PledBrightness("low"))
	assert.Equal(t, dualsense.PledBrightnessMedium, profile.PledBrightness("Medium"))
	assert.Equal(t, dualsense.PledBrightnessHigh, profile.PledBrightness("high"))
	assert.Equal(t, dualsense.PledBrightnessHigh, profile.PledBrightness(""))
}
