package routes

import (
	"github.com/gofiber/fiber/v2"

	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

func SetupWalletRoutes(app *fiber.App) {
	wallet := app.Group("/api/wallet", middleware.Protected())

	wallet.Post("/deposit", handlers.Deposit)
	wallet.Post("/withdraw", handlers.Withdraw)
	wallet.Get("/balance", handlers.GetWalletBalance)
	wallet.Get("/transactions", handlers.GetTransactionHistory)
}
