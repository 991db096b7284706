// Package pipeline drives the render loop: on every tick it copies the live
// camera frame onto the canvas, runs pose estimation and draws the result.
//
// The controller owns the estimator handle. The first estimation failure
// disposes it for good and the loop degrades to showing the mirrored frame.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-posebear/internal/log"
	"github.com/teslashibe/go-posebear/pkg/camera"
	"github.com/teslashibe/go-posebear/pkg/debug"
	"github.com/teslashibe/go-posebear/pkg/estimator"
	"github.com/teslashibe/go-posebear/pkg/metrics"
	"github.com/teslashibe/go-posebear/pkg/pose"
	"github.com/teslashibe/go-posebear/pkg/render"
)

// ErrNotReady is returned by Tick before Start has completed.
var ErrNotReady = errors.New("pipeline: not running")

// Deps are the collaborators the controller drives.
type Deps struct {
	Estimators estimator.Factory
	Camera     camera.Acquirer
	Canvas     render.Canvas
	Notifier   Notifier  // optional
	Presenter  Presenter // optional
}

// Stats is a snapshot of controller counters.
type Stats struct {
	State       State  `json:"state"`
	Policy      string `json:"policy"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Ticks       int64  `json:"ticks"`
	FrameDraws  int64  `json:"frameDraws"`
	Estimations int64  `json:"estimations"`
	Failures    int64  `json:"failures"`
	Skipped     int64  `json:"skipped"`
	Stale       int64  `json:"stale"`
	LastPoses   int    `json:"lastPoses"`
	Generation  uint64 `json:"generation"`
}

// Controller is the render loop state machine.
type Controller struct {
	config Config
	deps   Deps

	mu         sync.Mutex
	state      State
	estimator  estimator.Estimator // nil once disposed
	retired    estimator.Estimator // cleared, closed when estimating reaches zero
	estimating int                 // Estimate calls running
	generation uint64
	topology   pose.Topology
	source     camera.Source
	width      int
	height     int
	notified   bool
	stats      Stats

	canvasMu sync.Mutex // held for each drawing phase
	inFlight atomic.Bool
	wg       sync.WaitGroup
	closed   bool
}

// New creates a controller. Nothing is acquired until Start.
func New(cfg Config, deps Deps) *Controller {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = TickPeriod
	}
	c := &Controller{config: cfg, deps: deps}
	metrics.SetState(c.state.String(), stateNames()...)
	return c
}

// Start creates the estimator, acquires the camera and sizes the canvas to
// the actual frame. A failure is reported to the notifier and returned, and
// the controller goes back to Uninitialized.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("pipeline: closed")
	}
	if c.state != StateUninitialized {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("pipeline: start in state %s", state)
	}
	c.setState(StateInitializing)
	c.mu.Unlock()

	est, src, err := c.setup(ctx)
	if err != nil {
		c.mu.Lock()
		c.setState(StateUninitialized)
		c.mu.Unlock()

		if ctx.Err() != nil {
			log.Info("pipeline startup cancelled", "error", err)
			return err
		}
		log.Error("pipeline startup failed", "error", err)
		c.notify(newEvent(EventStartupFailed, StateUninitialized, err))
		return err
	}

	w, h := src.Size()
	c.canvasMu.Lock()
	c.deps.Canvas.Resize(w, h)
	c.deps.Canvas.Translate(float64(w), 0)
	c.deps.Canvas.Scale(-1, 1)
	c.canvasMu.Unlock()

	c.mu.Lock()
	c.estimator = est
	c.generation++
	c.topology = est.Topology()
	c.source = src
	c.width, c.height = w, h
	c.setState(StateRunning)
	c.mu.Unlock()

	log.Info("pipeline running",
		"width", w,
		"height", h,
		"topology", c.topology.Name+"/"+c.topology.Version,
		"policy", c.config.Policy.String(),
		"period", c.config.TickPeriod)
	return nil
}

func (c *Controller) setup(ctx context.Context) (estimator.Estimator, camera.Source, error) {
	if c.deps.Estimators == nil || c.deps.Camera == nil || c.deps.Canvas == nil {
		return nil, nil, errors.New("pipeline: estimator factory, camera and canvas are required")
	}

	est, err := c.deps.Estimators.Create(ctx)
	if err != nil {
		return nil, nil, estimator.WrapLoad("estimator", err)
	}

	topo := est.Topology()
	if err := topo.Validate(); err != nil {
		est.Close()
		return nil, nil, &estimator.ModelLoadError{Model: topo.Name, Err: err}
	}

	src, err := c.deps.Camera.Acquire(ctx, c.config.Camera)
	if err != nil {
		est.Close()
		var acqErr *camera.AcquisitionError
		if !errors.As(err, &acqErr) {
			err = &camera.AcquisitionError{Err: err}
		}
		return nil, nil, err
	}

	return est, src, nil
}

// Run starts the controller if needed, then ticks every TickPeriod until ctx
// is done. In-flight ticks are waited for and resources released before Run
// returns. Cancellation is not an error.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state == StateUninitialized {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(c.config.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			c.Close()
			return nil

		case <-ticker.C:
			c.schedule(ctx)
		}
	}
}

// schedule starts one tick according to the policy.
func (c *Controller) schedule(ctx context.Context) {
	single := c.config.Policy == PolicySingleFlight
	if single && !c.inFlight.CompareAndSwap(false, true) {
		c.mu.Lock()
		c.stats.Skipped++
		c.mu.Unlock()
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		debug.TickLog("tick skipped, previous still in flight")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if single {
			defer c.inFlight.Store(false)
		}
		if err := c.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("tick failed", "error", err)
		}
	}()
}

// Tick runs one iteration: copy frame, estimate, draw, present.
// An estimation failure is returned after the controller has degraded.
func (c *Controller) Tick(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRunning && c.state != StateDegraded {
		c.mu.Unlock()
		return ErrNotReady
	}
	est := c.estimator
	gen := c.generation
	topo := c.topology
	src := c.source
	c.stats.Ticks++
	c.mu.Unlock()

	frame, err := src.Frame()
	if err != nil {
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeNoFrame).Inc()
		if errors.Is(err, camera.ErrNoFrame) {
			return nil
		}
		return fmt.Errorf("read frame: %w", err)
	}

	c.canvasMu.Lock()
	c.deps.Canvas.DrawImage(frame)

	// The handle may have been cleared while this tick waited for the
	// frame or the canvas.
	c.mu.Lock()
	c.stats.FrameDraws++
	live := est != nil && c.estimator == est && c.generation == gen
	if live {
		c.stats.Estimations++
		c.estimating++
	} else if est != nil {
		c.stats.Stale++
	}
	c.mu.Unlock()

	if !live {
		c.present()
		c.canvasMu.Unlock()
		if est != nil {
			metrics.TicksTotal.WithLabelValues(metrics.OutcomeStale).Inc()
			debug.TickLog("skipping estimation, estimator disposed", "generation", gen)
		} else {
			metrics.TicksTotal.WithLabelValues(metrics.OutcomeFrame).Inc()
		}
		return nil
	}
	c.canvasMu.Unlock()

	metrics.InFlight.Inc()
	start := time.Now()
	poses, err := est.Estimate(ctx, frame, c.config.Estimate)
	metrics.EstimationDuration.Observe(time.Since(start).Seconds())
	metrics.InFlight.Dec()

	c.mu.Lock()
	c.estimating--
	retired := c.takeRetired()
	c.mu.Unlock()
	c.dispose(retired)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.EstimationsTotal.WithLabelValues(metrics.StatusError).Inc()
		return c.fail(gen, err)
	}

	if !c.current(gen) {
		c.mu.Lock()
		c.stats.Stale++
		c.mu.Unlock()
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		debug.TickLog("dropping result for disposed estimator", "generation", gen)
		return nil
	}

	if len(poses) == 0 {
		metrics.EstimationsTotal.WithLabelValues(metrics.StatusEmpty).Inc()
	} else {
		metrics.EstimationsTotal.WithLabelValues(metrics.StatusOK).Inc()
	}

	c.canvasMu.Lock()
	kps, segs := render.DrawPoses(c.deps.Canvas, topo, poses)
	c.present()
	c.canvasMu.Unlock()

	c.mu.Lock()
	c.stats.LastPoses = len(poses)
	c.mu.Unlock()

	metrics.PosesDrawnTotal.Add(float64(len(poses)))
	metrics.KeypointsDrawnTotal.Add(float64(kps))
	metrics.TicksTotal.WithLabelValues(metrics.OutcomeDrawn).Inc()
	debug.TickLog("tick drawn", "poses", len(poses), "keypoints", kps, "segments", segs)
	return nil
}

// current reports whether gen still names the live estimator.
func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estimator != nil && c.generation == gen
}

// fail disposes the estimator that produced err, if it is still the live one,
// and degrades. Only the first failure notifies.
func (c *Controller) fail(gen uint64, err error) error {
	err = estimator.WrapEstimation("estimator", err)

	c.mu.Lock()
	if c.estimator == nil || c.generation != gen {
		c.stats.Stale++
		c.mu.Unlock()
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		return nil
	}
	c.retired = c.estimator
	c.estimator = nil
	c.generation++
	c.stats.Failures++
	c.setState(StateDegraded)
	first := !c.notified
	c.notified = true
	retired := c.takeRetired()
	c.mu.Unlock()

	c.dispose(retired)

	log.Error("estimation failed, continuing without poses", "error", err)
	if first {
		c.notify(newEvent(EventEstimationFailed, StateDegraded, err))
	}
	return err
}

// takeRetired returns the cleared estimator once no Estimate call is still
// running on it. Must be called with mu held.
func (c *Controller) takeRetired() estimator.Estimator {
	if c.retired == nil || c.estimating > 0 {
		return nil
	}
	est := c.retired
	c.retired = nil
	return est
}

func (c *Controller) dispose(est estimator.Estimator) {
	if est == nil {
		return
	}
	if err := est.Close(); err != nil {
		log.Warn("estimator close failed", "error", err)
	}
}

// present must be called with canvasMu held.
func (c *Controller) present() {
	if c.deps.Presenter != nil {
		c.deps.Presenter.Present(c.deps.Canvas)
	}
}

func (c *Controller) notify(e Event) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Notify(e)
	}
}

// setState must be called with mu held.
func (c *Controller) setState(s State) {
	c.state = s
	c.stats.State = s
	metrics.SetState(s.String(), stateNames()...)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Topology returns the topology of the estimator chosen at startup.
func (c *Controller) Topology() (pose.Topology, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topology, c.topology.NumKeypoints() > 0
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.State = c.state
	s.Policy = c.config.Policy.String()
	s.Width, s.Height = c.width, c.height
	s.Generation = c.generation
	return s
}

// Close disposes the estimator and camera. Ticks after Close fail with
// ErrNotReady.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.estimator != nil {
		c.retired = c.estimator
	}
	src := c.source
	c.estimator = nil
	c.source = nil
	c.generation++
	c.setState(StateUninitialized)
	est := c.takeRetired()
	c.mu.Unlock()

	var errs []error
	if est != nil {
		errs = append(errs, est.Close())
	}
	if src != nil {
		errs = append(errs, src.Close())
	}
	return errors.Join(errs...)
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = s.String()
	}
	return names
}
