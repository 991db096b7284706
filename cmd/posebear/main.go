// posebear - live webcam pose estimation with a mirrored skeleton overlay
// Draws MoveNet keypoints and bones over the camera feed ~10 times a second
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/teslashibe/go-posebear/internal/config"
	"github.com/teslashibe/go-posebear/internal/log"
	"github.com/teslashibe/go-posebear/pkg/camera/device"
	"github.com/teslashibe/go-posebear/pkg/debug"
	"github.com/teslashibe/go-posebear/pkg/estimator"
	"github.com/teslashibe/go-posebear/pkg/estimator/movenet"
	"github.com/teslashibe/go-posebear/pkg/pipeline"
	"github.com/teslashibe/go-posebear/pkg/render/matcanvas"
	"github.com/teslashibe/go-posebear/pkg/web"
)

func init() {
	// OpenCV windows must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)
	debug.Enabled = cfg.Debug

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cancel, cfg); err != nil {
		log.Error("posebear stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) error {
	factory, err := estimatorFactory(cfg)
	if err != nil {
		return err
	}

	pcfg := pipeline.DefaultConfig()
	if cfg.SingleFlight {
		pcfg.Policy = pipeline.PolicySingleFlight
	}

	canvas := matcanvas.New(pcfg.Camera.Width, pcfg.Camera.Height)
	defer canvas.Close()

	notifiers := []pipeline.Notifier{pipeline.NotifierFunc(logEvent)}
	var presenters []pipeline.Presenter

	var server *web.Server
	if cfg.WebPort != "" {
		server = web.NewServer(cfg.WebPort, nil)
		notifiers = append(notifiers, server)
		presenters = append(presenters, server)
	}

	var window *windowPresenter
	if cfg.Window {
		window = newWindowPresenter("posebear")
		notifiers = append(notifiers, window)
		presenters = append(presenters, window)
	}

	ctrl := pipeline.New(pcfg, pipeline.Deps{
		Estimators: factory,
		Camera:     device.NewAcquirer(cfg.CameraDevice),
		Canvas:     canvas,
		Notifier:   pipeline.MultiNotifier(notifiers...),
		Presenter:  pipeline.MultiPresenter(presenters...),
	})

	if server != nil {
		server.SetStatus(ctrl)
		server.StartAsync(ctx)
	}

	log.Info("posebear starting",
		"estimator", cfg.Estimator,
		"camera", cfg.CameraDevice,
		"policy", pcfg.Policy.String(),
		"web", cfg.WebPort,
		"window", cfg.Window)

	errc := make(chan error, 1)
	go func() {
		err := ctrl.Run(ctx)
		if err != nil && server != nil && ctx.Err() == nil {
			// keep the live view up so the page can show the startup alert
			log.Warn("render loop stopped, live view stays up until interrupted", "error", err)
			<-ctx.Done()
		}
		errc <- err
		cancel()
	}()

	if window != nil {
		// blocks on the main thread until ctx is done or the window closes
		window.Loop(ctx, cancel)
	}

	return <-errc
}

// estimatorFactory picks the estimation backend.
func estimatorFactory(cfg *config.Config) (estimator.Factory, error) {
	switch cfg.Estimator {
	case config.EstimatorMoveNet:
		mcfg := movenet.DefaultConfig()
		mcfg.Model = estimator.ModelSpec{Path: cfg.ModelPath, URL: cfg.ModelURL}
		return movenet.Factory(mcfg), nil
	case config.EstimatorRemote:
		return estimator.RemoteFactory(estimator.DefaultRemoteConfig(cfg.RemoteURL)), nil
	default:
		return nil, fmt.Errorf("unknown estimator %q", cfg.Estimator)
	}
}

// logEvent is the always-on notifier.
func logEvent(e pipeline.Event) {
	log.Warn("⚠️  "+string(e.Kind), "id", e.ID, "state", e.State, "message", e.Message)
}

// parseFlags loads the environment, then applies command line overrides.
func parseFlags() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	debugFlag := flag.Bool("debug", cfg.Debug, "Enable verbose debug logging")
	debugTicks := flag.Bool("debug-ticks", false, "Log every tick (very verbose)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	cameraDev := flag.String("camera", cfg.CameraDevice, "Camera device index or video file/URL")
	estimatorName := flag.String("estimator", cfg.Estimator, "Estimator backend: movenet, remote")
	modelPath := flag.String("model", cfg.ModelPath, "MoveNet ONNX model path")
	modelURL := flag.String("model-url", cfg.ModelURL, "Download the model from this URL when missing")
	remoteURL := flag.String("remote", cfg.RemoteURL, "Pose server websocket URL for the remote estimator")
	singleFlight := flag.Bool("single-flight", cfg.SingleFlight, "Skip ticks while an estimation is in flight")
	port := flag.String("port", cfg.WebPort, "Live view port (empty to disable)")
	window := flag.Bool("window", cfg.Window, "Show a native preview window")
	flag.Parse()

	cfg.Debug, cfg.LogLevel = *debugFlag, *logLevel
	cfg.CameraDevice, cfg.Estimator = *cameraDev, *estimatorName
	cfg.ModelPath, cfg.ModelURL, cfg.RemoteURL = *modelPath, *modelURL, *remoteURL
	cfg.SingleFlight, cfg.WebPort, cfg.Window = *singleFlight, *port, *window

	debug.Ticks = *debugTicks
	if cfg.Debug && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	if debug.Ticks {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
