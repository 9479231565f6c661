package server

import (
	"encoding/json"
	"log/slog"

	"postboard/internal/featureflags"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketUpgrade rejects plain HTTP requests to /ws and realtime clients
// when Redis is not configured.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if s.hub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "realtime notifications unavailable",
		})
	}
	return c.Next()
}

// WebsocketHandler streams new_follower and new_post events for the
// authenticated user.
// @Summary Realtime notifications
// @Description WebSocket upgrade. Browsers may pass the access token as the token query parameter.
// @Tags realtime
// @Param token query string false "Access token"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			slog.Warn("websocket registration rejected", "user_id", userID, "err", err)
			msg, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		hello, _ := json.Marshal(fiber.Map{
			"type": "connected",
			"payload": fiber.Map{
				"user_id":  userID,
				"realtime": s.featureFlags.Enabled(featureflags.RealtimeNotifications, userID),
			},
		})
		s.hub.Deliver(client, hello)

		go client.WritePump()
		client.ReadPump()
	})
}
