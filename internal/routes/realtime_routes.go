package routes

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"dealdesk/internal/realtime"
)

// SetupRealtimeRoutes exposes the fan-out hub: /ws receives every event,
// /ws/deals/:id only the given deal's room.
func SetupRealtimeRoutes(app *fiber.App, hub *realtime.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(hub.Handler(func(*websocket.Conn) uint {
		return 0
	})))

	app.Get("/ws/deals/:id", websocket.New(hub.Handler(func(c *websocket.Conn) uint {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return 0
		}
		return uint(id)
	})))
}
