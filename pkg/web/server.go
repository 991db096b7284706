// Package web serves the live view: the mirrored canvas streamed as JPEG
// frames, failure alerts, loop status and Prometheus metrics.
package web

import (
	"context"
	_ "embed"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-posebear/internal/log"
	"github.com/teslashibe/go-posebear/pkg/hub"
	"github.com/teslashibe/go-posebear/pkg/metrics"
	"github.com/teslashibe/go-posebear/pkg/pipeline"
	"github.com/teslashibe/go-posebear/pkg/pose"
	"github.com/teslashibe/go-posebear/pkg/render"
)

//go:embed index.html
var indexHTML []byte

// maxAlerts bounds the alert history kept for /api/alerts
const maxAlerts = 50

var (
	_ pipeline.Notifier  = (*Server)(nil)
	_ pipeline.Presenter = (*Server)(nil)
)

// StatusSource reports the render loop state. *pipeline.Controller
// satisfies it.
type StatusSource interface {
	Stats() pipeline.Stats
	Topology() (pose.Topology, bool)
}

// JPEGEncoder is a canvas that can encode itself for streaming.
type JPEGEncoder interface {
	EncodeJPEG() ([]byte, error)
}

// Server is the live view server. It is the render loop's Notifier and
// Presenter.
type Server struct {
	app     *fiber.App
	port    string
	session uuid.UUID
	status  StatusSource

	alerts   []pipeline.Event
	alertsMu sync.RWMutex

	canvasHub *hub.Hub
	alertHub  *hub.Hub
}

// NewServer creates the server. status may be nil until SetStatus.
func NewServer(port string, status StatusSource) *Server {
	s := &Server{
		port:      port,
		session:   uuid.New(),
		status:    status,
		alerts:    make([]pipeline.Event, 0, maxAlerts),
		canvasHub: hub.New("canvas", hub.WithClientBuffer(4)),
		alertHub:  hub.New("alerts", hub.WithReplay()),
	}

	app := fiber.New(fiber.Config{
		AppName:               "posebear",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/topology", s.handleTopology)
	api.Get("/alerts", s.handleAlerts)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/canvas", websocket.New(s.handleCanvasWS))
	app.Get("/ws/alerts", websocket.New(s.handleAlertsWS))

	s.app = app
	return s
}

// SetStatus sets the status source after construction.
func (s *Server) SetStatus(status StatusSource) {
	s.status = status
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and listens until the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	log.Info("live view listening", "url", "http://localhost:"+s.port, "session", s.session)

	go s.canvasHub.Run(ctx)
	go s.alertHub.Run(ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine and shuts it down when ctx
// is done.
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			log.Warn("web server shutdown", "error", err)
		}
	}()
}

// Notify records the event and pushes it to alert clients.
func (s *Server) Notify(e pipeline.Event) {
	s.alertsMu.Lock()
	s.alerts = append(s.alerts, e)
	if len(s.alerts) > maxAlerts {
		s.alerts = s.alerts[1:]
	}
	s.alertsMu.Unlock()

	if err := s.alertHub.BroadcastJSON(e); err != nil {
		log.Warn("broadcast alert", "error", err)
	}
}

// Present encodes the canvas and sends it to canvas clients. Nothing is
// encoded while nobody is watching.
func (s *Server) Present(c render.Canvas) {
	if s.canvasHub.ClientCount() == 0 {
		return
	}
	enc, ok := c.(JPEGEncoder)
	if !ok {
		return
	}
	data, err := enc.EncodeJPEG()
	if err != nil {
		log.Debug("encode canvas", "error", err)
		return
	}
	s.canvasHub.BroadcastBinary(data)
}

// Alerts returns a copy of recent alerts.
func (s *Server) Alerts() []pipeline.Event {
	s.alertsMu.RLock()
	defer s.alertsMu.RUnlock()
	out := make([]pipeline.Event, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
