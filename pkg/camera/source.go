package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrNoFrame is returned by Source.Frame before the first frame has been decoded.
var ErrNoFrame = errors.New("camera: no frame available")

// Source is a continuously playing camera stream.
// Frame returns the most recent decoded frame, not a queued one.
type Source interface {
	Frame() (image.Image, error)

	// Size returns the actual frame dimensions delivered by the device.
	Size() (width, height int)

	Close() error
}

// Acquirer grants a Source for the requested constraints.
type Acquirer interface {
	Acquire(ctx context.Context, cfg Config) (Source, error)
}

// AcquirerFunc adapts a function to Acquirer.
type AcquirerFunc func(ctx context.Context, cfg Config) (Source, error)

// Acquire calls f.
func (f AcquirerFunc) Acquire(ctx context.Context, cfg Config) (Source, error) {
	return f(ctx, cfg)
}

// AcquisitionError is returned when camera access is denied or no device
// satisfies the request.
type AcquisitionError struct {
	Device string
	Err    error
}

// Error implements the error interface.
func (e *AcquisitionError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("camera: acquisition failed: %v", e.Err)
	}
	return fmt.Sprintf("camera [%s]: acquisition failed: %v", e.Device, e.Err)
}

// Unwrap returns the underlying error.
func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
