package api

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// upgrader builds the websocket upgrader honoring the CORS origin list.
func (s *Server) upgrader() *websocket.Upgrader {
	allowed := s.config.Security.AllowedOrigins
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
		},
	}
}

// handleWebSocket handles GET /api/v1/ws/events
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.upgrader().Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return nil
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	if !s.hub.attach(client) {
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// webSocketStats handles GET /api/v1/ws/stats
func (s *Server) webSocketStats(c echo.Context) error {
	return c.JSON(http.StatusOK, WebSocketStats{
		ConnectedClients: s.hub.ClientCount(),
		Status:           "operational",
	})
}
