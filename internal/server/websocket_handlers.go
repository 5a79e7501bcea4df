package server

import (
	"errors"

	"storyboard/internal/middleware"
	"storyboard/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ModerationSocket streams moderation events to connected administrators.
// The route runs behind WebSocketAuthRequired and AdminRequired.
func (s *Server) ModerationSocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.hub, conn, userID)
		if err := s.hub.Register(client); err != nil {
			msg := `{"error":"moderation feed unavailable"}`
			if errors.Is(err, notifications.ErrHubFull) {
				msg = `{"error":"too many moderation connections"}`
			}
			middleware.Logger.Warn("moderation socket rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("moderation socket connected", "user_id", userID)
		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
