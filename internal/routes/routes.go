package routes

import (
	"github.com/gofiber/fiber/v2"

	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

func SetupRoutes(app *fiber.App) {
	// API routes
	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	// Profile
	api.Get("/profile", middleware.Protected(), handlers.GetProfile)

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "DealDesk API v1.0",
			"status":  "running",
		})
	})
}
