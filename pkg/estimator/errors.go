package estimator

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrClosed is returned when estimating with a disposed estimator.
	ErrClosed = errors.New("estimator: closed")

	// ErrNoModel is returned when neither a model path nor URL is given.
	ErrNoModel = errors.New("estimator: model required")
)

// ModelLoadError is returned when an estimator fails to initialize.
type ModelLoadError struct {
	// Model identifies what was being loaded (path, URL or backend name).
	Model string
	Err   error
}

// Error implements the error interface.
func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("estimator [%s]: model load failed: %v", e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// EstimationError is a failure of a single Estimate call, e.g. a model
// runtime fault.
type EstimationError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *EstimationError) Error() string {
	return fmt.Sprintf("estimator [%s]: estimation failed: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *EstimationError) Unwrap() error {
	return e.Err
}

// WrapEstimation wraps err as an EstimationError unless it already is one.
func WrapEstimation(backend string, err error) error {
	if err == nil {
		return nil
	}
	var estErr *EstimationError
	if errors.As(err, &estErr) {
		return err
	}
	return &EstimationError{Backend: backend, Err: err}
}

// WrapLoad wraps err as a ModelLoadError unless it already is one.
func WrapLoad(model string, err error) error {
	if err == nil {
		return nil
	}
	var loadErr *ModelLoadError
	if errors.As(err, &loadErr) {
		return err
	}
	return &ModelLoadError{Model: model, Err: err}
}
