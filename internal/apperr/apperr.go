package apperr

import "errors"

var (
	// ErrDeviceUnavailable means no camera index could be opened and read.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrDeviceBusy means the device is leased to another stream.
	ErrDeviceBusy = errors.New("camera device busy")
	// ErrRead is a transient per-call read failure.
	ErrRead = errors.New("failed to read frame")
	// ErrModelLoad means the model artifacts are missing or unusable.
	ErrModelLoad = errors.New("failed to load detection model")
	// ErrEncode is a transient per-frame encode failure.
	ErrEncode = errors.New("failed to encode frame")
	// ErrPipelineFailure wraps anything unexpected inside a pipeline stage.
	ErrPipelineFailure = errors.New("pipeline failure")
	// ErrGeneratorUsed is returned when a stream generator is run twice.
	ErrGeneratorUsed = errors.New("stream generator already used")
)

// IsTransient reports whether err only costs the current frame.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRead) || errors.Is(err, ErrEncode)
}
