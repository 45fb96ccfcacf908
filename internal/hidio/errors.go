package hidio

import "errors"

var (
	ErrNotFound    = errors.New("no supported controller found")
	ErrOpenDenied  = errors.New("controller open denied")
	ErrReadTimeout = errors.New("read timeout")
	ErrReadFailed  = errors.New("read failed")
	ErrWriteFailed = errors.New("write failed")
)
