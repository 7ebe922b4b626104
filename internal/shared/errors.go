package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Playback errors
	ErrEmptyPlaylist      = fmt.Errorf("playlist has no current track")
	ErrIndexOutOfRange    = fmt.Errorf("index out of range")
	ErrBackendUnavailable = fmt.Errorf("media backend unavailable")
	ErrPersistenceFailure = fmt.Errorf("persistence failure")
	ErrMalformedURI       = fmt.Errorf("malformed track uri")
	ErrUnsupported        = fmt.Errorf("operation not supported by backend")
	ErrNotFound           = fmt.Errorf("not found")

	// Lifecycle errors
	ErrEngineStopped = fmt.Errorf("engine is not running")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Remote API errors
	ErrAPIRequest = fmt.Errorf("api request failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
