// Package hider drives HidHideCLI so games see only the virtual pad while
// the physical controller stays readable by this process.
package hider

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// CLIPath is the default HidHideCLI install location.
const CLIPath = `C:\Program Files\Nefarius Software Solutions\HidHide\x64\HidHideCLI.exe`

// ErrNotInstalled reports a missing HidHideCLI binary.
var ErrNotInstalled = errors.New("hidhide not installed")

// Hider hides and unhides physical controller instances. All methods are
// best effort; a missing driver degrades to a visible controller.
type Hider struct {
	cliPath string
	logger  *slog.Logger

	hidden map[string]bool
}

// New builds a Hider over the given CLI path. An empty path selects the
// default install location.
func New(cliPath string, logger *slog.Logger) *Hider {
	if cliPath == "" {
		cliPath = CLIPath
	}
	return &Hider{
		cliPath: cliPath,
		logger:  logger,
		hidden:  make(map[string]bool),
	}
}

// Available reports whether the CLI binary exists.
func (h *Hider) Available() bool {
	_, err := os.Stat(h.cliPath)
	return err == nil
}

// RegisterSelf whitelists the current executable so our own HID reads keep
// working while the device is cloaked.
func (h *Hider) RegisterSelf() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own path: %w", err)
	}
	return h.run("--app-reg", exe)
}

// Hide cloaks one device instance and enables cloaking.
func (h *Hider) Hide(instanceID string) error {
	if instanceID == "" {
		return nil
	}
	if err := h.run("--dev-hide", instanceID); err != nil {
		return err
	}
	if err := h.run("--cloak-on"); err != nil {
		return err
	}
	h.hidden[instanceID] = true
	return nil
}

// Unhide reveals one device instance.
func (h *Hider) Unhide(instanceID string) error {
	if instanceID == "" {
		return nil
	}
	if err := h.run("--dev-unhide", instanceID); err != nil {
		return err
	}
	delete(h.hidden, instanceID)
	return nil
}

// UnhideAll reveals everything this process hid. Called on shutdown.
func (h *Hider) UnhideAll() {
	for id := range h.hidden {
		if err := h.Unhide(id); err != nil {
			h.logger.Warn("failed to unhide controller", "instance", id, "error", err)
		}
	}
}

func (h *Hider) run(args ...string) error {
	if !h.Available() {
		return ErrNotInstalled
	}
	cmd := exec.Command(h.cliPath, args...)
	hideWindow(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hidhide %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	h.logger.Debug("hidhide invoked", "args", args)
	return nil
}

// PathToInstanceID converts a hidapi device path into the device instance
// id HidHide expects. The path encodes the id with '#' separators behind
// a win32 namespace prefix, the id proper uses backslashes and upper case.
func PathToInstanceID(path string) string {
	p := strings.TrimPrefix(path, `\\?\`)
	p = strings.TrimPrefix(p, `\\.\`)
	parts := strings.Split(p, "#")
	if len(parts) < 3 {
		return ""
	}
	return strings.ToUpper(strings.Join(parts[:3], `\`))
}
