package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Juleshb/umunsiapp-realtime/internal/platform/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness verifies the registry actor is responsive. Len is a
// command round-trip, so a stuck command loop shows up here as a slow or
// failing readiness probe.
func (s *Server) handleReadiness(c echo.Context) error {
	done := make(chan int, 1)
	go func() { done <- s.registry.Len() }()

	select {
	case count := <-done:
		return c.JSON(200, map[string]any{
			"status":      "ready",
			"connections": count,
		})
	case <-time.After(2 * time.Second):
		return c.JSON(503, map[string]any{
			"status":       "unhealthy",
			"failed_check": "registry",
		})
	}
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
