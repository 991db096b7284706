// Package estimator adapts pose-estimation models to the render loop.
//
// An Estimator takes a frame and returns zero or more poses. Creating one may
// fail with a ModelLoadError; each Estimate call may fail with an
// EstimationError. An empty result means nobody was found and is not an error.
package estimator

import (
	"context"
	"image"

	"github.com/teslashibe/go-posebear/pkg/pose"
)

// Options are passed with every estimation call.
type Options struct {
	// MaxPoses caps the number of returned poses. 1 is single-person mode.
	MaxPoses int `json:"maxPoses"`

	// FlipHorizontal mirrors returned keypoints. Mirroring for the
	// self-view is done on the canvas, so this stays false there.
	FlipHorizontal bool `json:"flipHorizontal"`
}

// DefaultOptions returns single-person, unflipped estimation.
func DefaultOptions() Options {
	return Options{
		MaxPoses:       1,
		FlipHorizontal: false,
	}
}

// Estimator is the interface for pose estimation backends.
type Estimator interface {
	// Estimate finds poses in the frame. Keypoints are in frame pixels.
	Estimate(ctx context.Context, frame image.Image, opts Options) ([]pose.Pose, error)

	// Topology returns the joint layout the model produces.
	Topology() pose.Topology

	// Close disposes the model. Estimate fails with ErrClosed afterwards.
	Close() error
}

// Factory creates estimators.
type Factory interface {
	Create(ctx context.Context) (Estimator, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context) (Estimator, error)

// Create calls f.
func (f FactoryFunc) Create(ctx context.Context) (Estimator, error) {
	return f(ctx)
}

// ApplyOptions enforces MaxPoses and FlipHorizontal on raw model output.
// Backends that cannot do this natively call it before returning.
func ApplyOptions(poses []pose.Pose, opts Options, frameWidth int) []pose.Pose {
	if opts.MaxPoses > 0 && len(poses) > opts.MaxPoses {
		poses = poses[:opts.MaxPoses]
	}
	if opts.FlipHorizontal {
		flipped := make([]pose.Pose, len(poses))
		for i, p := range poses {
			flipped[i] = p.FlipHorizontal(frameWidth)
		}
		poses = flipped
	}
	return poses
}
