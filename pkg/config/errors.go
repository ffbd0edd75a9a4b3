package config

import "errors"

var (
	// ErrParseFailed is returned when environment variables cannot be parsed
	// into the target struct (missing required vars, bad types).
	ErrParseFailed = errors.New("config: failed to parse environment")

	// ErrNilPointer is returned when Load is called with a nil destination.
	ErrNilPointer = errors.New("config: nil pointer passed to Load")
)
