// Package config loads posebear settings from the environment.
// Flags in cmd/posebear override these values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Estimator backends.
const (
	EstimatorMoveNet = "movenet"
	EstimatorRemote  = "remote"
)

// Config holds deployment settings. Visual constants and the confidence
// threshold are fixed in pkg/render and do not appear here.
type Config struct {
	LogLevel string `env:"POSEBEAR_LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"POSEBEAR_DEBUG"     envDefault:"false"`

	// Camera device index or video file/stream URL.
	CameraDevice string `env:"POSEBEAR_CAMERA_DEVICE" envDefault:"0"`

	Estimator string `env:"POSEBEAR_ESTIMATOR"  envDefault:"movenet"`
	ModelPath string `env:"POSEBEAR_MODEL_PATH" envDefault:"models/movenet_singlepose_lightning.onnx"`
	ModelURL  string `env:"POSEBEAR_MODEL_URL"`
	RemoteURL string `env:"POSEBEAR_REMOTE_URL" envDefault:"ws://localhost:8765/estimate"`

	// SingleFlight skips a tick while the previous estimation is still running.
	SingleFlight bool `env:"POSEBEAR_SINGLE_FLIGHT" envDefault:"false"`

	WebPort string `env:"POSEBEAR_WEB_PORT" envDefault:"8181"`
	Window  bool   `env:"POSEBEAR_WINDOW"   envDefault:"false"`
}

// Load parses the environment into a Config. The result is not validated:
// callers apply their overrides first, then call Validate.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	switch c.Estimator {
	case EstimatorMoveNet:
		if c.ModelPath == "" {
			return fmt.Errorf("config: model path required for %s estimator", c.Estimator)
		}
	case EstimatorRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("config: remote URL required for %s estimator", c.Estimator)
		}
	default:
		return fmt.Errorf("config: unknown estimator %q (want %s or %s)",
			c.Estimator, EstimatorMoveNet, EstimatorRemote)
	}
	if c.WebPort == "" && !c.Window {
		return fmt.Errorf("config: no output enabled (set a web port or enable the window)")
	}
	return nil
}
