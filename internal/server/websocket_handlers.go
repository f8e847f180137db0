package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/middleware"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
)

func (s *Server) setupWebSocketRoutes(app *fiber.App) {
	if s.hub == nil {
		return
	}

	ws := app.Group("/ws", middleware.WebSocketAuthRequired(s.authService))
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/", s.WebSocketHandler())
}

// WebSocketHandler upgrades the connection and pumps realtime frames.
// Clients send watch/unwatch control messages for the topics they care
// about; the hub enforces topic authorization.
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			observability.Logger.Warn("websocket register rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		observability.Logger.Info("websocket connected", "user_id", userID)

		go client.WritePump()
		client.ReadPump(context.Background())

		s.hub.UnregisterClient(client)
		observability.Logger.Info("websocket disconnected", "user_id", userID)
	})
}
