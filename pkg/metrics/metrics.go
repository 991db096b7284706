// Package metrics holds the Prometheus collectors for the render loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posebear_ticks_total",
		Help: "Render loop ticks, by outcome",
	}, []string{"outcome"})

	EstimationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posebear_estimations_total",
		Help: "Estimation calls, by status",
	}, []string{"status"})

	EstimationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "posebear_estimation_duration_seconds",
		Help:    "Duration of a single estimation call",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	PosesDrawnTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posebear_poses_drawn_total",
		Help: "Poses drawn onto the canvas",
	})

	KeypointsDrawnTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posebear_keypoints_drawn_total",
		Help: "Keypoints that passed the score threshold and were drawn",
	})

	InFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "posebear_estimations_in_flight",
		Help: "Estimation calls currently outstanding",
	})

	State = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "posebear_state",
		Help: "Render loop state, 1 for the current state",
	}, []string{"state"})
)

// Tick outcomes.
const (
	OutcomeDrawn   = "drawn"
	OutcomeFrame   = "frame_only"
	OutcomeNoFrame = "no_frame"
	OutcomeSkipped = "skipped"
	OutcomeStale   = "stale"
)

// Estimation statuses.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// SetState marks current as the active state among all.
func SetState(current string, all ...string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		State.WithLabelValues(s).Set(v)
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
