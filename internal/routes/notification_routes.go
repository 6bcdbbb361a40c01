package routes

import (
	"github.com/gofiber/fiber/v2"

	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

func SetupNotificationRoutes(app *fiber.App) {
	notifications := app.Group("/api/notifications", middleware.Protected())

	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/read-all", handlers.MarkAllAsRead)
	notifications.Put("/:id/read", handlers.MarkAsRead)

	reviews := app.Group("/api/reviews", middleware.Protected())
	reviews.Post("/", handlers.CreateReview)
	reviews.Get("/user/:id", handlers.GetUserReviews)
}
