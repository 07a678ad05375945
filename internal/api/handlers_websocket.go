package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleWebSocket subscribes the caller to state_changed and notification
// events.
func (s *Server) handleWebSocket(c echo.Context) error {
	return s.wsHub.Serve(c, "")
}

// getWebSocketStats returns WebSocket connection statistics
func (s *Server) getWebSocketStats(c echo.Context) error {
	stats := map[string]interface{}{
		"connected_clients": s.wsHub.ClientCount(),
		"status":            "operational",
	}
	return c.JSON(http.StatusOK, stats)
}
