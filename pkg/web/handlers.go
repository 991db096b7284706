package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posebear/pkg/hub"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Session       string `json:"session"`
	Ready         bool   `json:"ready"`
	CanvasClients int    `json:"canvasClients"`
	AlertClients  int    `json:"alertClients"`
	Stats         any    `json:"stats,omitempty"`
}

// handleIndex serves the live view page
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleStatus returns the render loop snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Session:       s.session.String(),
		CanvasClients: s.canvasHub.ClientCount(),
		AlertClients:  s.alertHub.ClientCount(),
	}
	if s.status != nil {
		resp.Ready = true
		resp.Stats = s.status.Stats()
	}
	return c.JSON(resp)
}

// handleTopology returns the joint layout used for drawing
func (s *Server) handleTopology(c *fiber.Ctx) error {
	if s.status == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "render loop not attached",
		})
	}
	topo, ok := s.status.Topology()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "estimator not started",
		})
	}
	return c.JSON(topo)
}

// handleAlerts returns recent failure events
func (s *Server) handleAlerts(c *fiber.Ctx) error {
	return c.JSON(s.Alerts())
}

// handleCanvasWS streams canvas frames
func (s *Server) handleCanvasWS(c *websocket.Conn) {
	hub.NewClient(s.canvasHub, c).Run()
}

// handleAlertsWS streams failure events
func (s *Server) handleAlertsWS(c *websocket.Conn) {
	hub.NewClient(s.alertHub, c).Run()
}
