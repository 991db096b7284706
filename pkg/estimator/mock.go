package estimator

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/teslashibe/go-posebear/pkg/pose"
)

// Mock implements Estimator for testing.
type Mock struct {
	// EstimateFunc is called when Estimate is invoked.
	EstimateFunc func(ctx context.Context, frame image.Image, opts Options) ([]pose.Pose, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// TopologyOverride replaces the default MoveNet topology.
	TopologyOverride *pose.Topology

	mu     sync.Mutex
	calls  []MockCall
	closed bool
}

// MockCall records a method invocation.
type MockCall struct {
	Method  string
	Options Options
	Time    time.Time
}

// NewMock creates a mock that finds nobody.
func NewMock() *Mock {
	return &Mock{
		EstimateFunc: func(ctx context.Context, frame image.Image, opts Options) ([]pose.Pose, error) {
			return nil, nil
		},
	}
}

// NewMockPoses creates a mock that returns the given poses on every call.
func NewMockPoses(poses ...pose.Pose) *Mock {
	return &Mock{
		EstimateFunc: func(ctx context.Context, frame image.Image, opts Options) ([]pose.Pose, error) {
			return poses, nil
		},
	}
}

// Estimate calls EstimateFunc and records the call.
func (m *Mock) Estimate(ctx context.Context, frame image.Image, opts Options) ([]pose.Pose, error) {
	m.record("Estimate", opts)

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, WrapEstimation("mock", ErrClosed)
	}

	if m.EstimateFunc != nil {
		return m.EstimateFunc(ctx, frame, opts)
	}
	return nil, nil
}

// Topology returns MoveNet unless overridden.
func (m *Mock) Topology() pose.Topology {
	if m.TopologyOverride != nil {
		return *m.TopologyOverride
	}
	return pose.MoveNet
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close", Options{})

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// record adds a call to the tracking list.
func (m *Mock) record(method string, opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method:  method,
		Options: opts,
		Time:    time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of calls to the named method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Closed reports whether Close has been called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
