//go:build !windows

package sendinput

// New always fails off Windows. SendInput is a user32 API.
func New() (Injector, error) {
	return nil, ErrUnsupported
}
