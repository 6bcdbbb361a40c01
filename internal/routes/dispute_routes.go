package routes

import (
	"github.com/gofiber/fiber/v2"

	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

func SetupDisputeRoutes(app *fiber.App) {
	disputes := app.Group("/api/disputes", middleware.Protected())

	disputes.Post("/", handlers.RaiseDispute)
	disputes.Post("/:id/resolve", handlers.ResolveDispute)
}
