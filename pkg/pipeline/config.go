package pipeline

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-posebear/pkg/camera"
	"github.com/teslashibe/go-posebear/pkg/estimator"
)

// TickPeriod is the fixed render loop period.
const TickPeriod = 100 * time.Millisecond

// State is the render loop lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateRunning
	StateDegraded // frame display only, estimator disposed
)

// States lists every state, in lifecycle order.
var States = []State{StateUninitialized, StateInitializing, StateRunning, StateDegraded}

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Policy decides what happens when a tick fires while an earlier tick is
// still estimating.
type Policy int

const (
	// PolicyOverlap starts every tick on schedule. Estimations may overlap
	// and results may land out of order.
	PolicyOverlap Policy = iota

	// PolicySingleFlight skips a tick while the previous one is in flight.
	PolicySingleFlight
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicySingleFlight:
		return "single-flight"
	default:
		return "overlap"
	}
}

// Config holds render loop configuration.
type Config struct {
	TickPeriod time.Duration
	Policy     Policy
	Camera     camera.Config
	Estimate   estimator.Options
}

// DefaultConfig returns the fixed production configuration.
func DefaultConfig() Config {
	return Config{
		TickPeriod: TickPeriod,
		Policy:     PolicyOverlap,
		Camera:     camera.DefaultConfig(),
		Estimate:   estimator.DefaultOptions(),
	}
}
