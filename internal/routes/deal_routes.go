package routes

import (
	"github.com/gofiber/fiber/v2"

	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

func SetupDealRoutes(app *fiber.App) {
	deals := app.Group("/api/deals", middleware.Protected())

	// Deal lifecycle
	deals.Post("/", handlers.CreateDeal)
	deals.Get("/", handlers.SearchDeals)
	deals.Get("/:id", handlers.GetDeal)
	deals.Post("/:id/join", handlers.JoinDeal)
	deals.Post("/:id/leave", handlers.LeaveDeal)
	deals.Delete("/:id", handlers.DeleteDeal)

	// Completion (double confirmation; releases a locked escrow on convergence)
	deals.Post("/:id/complete", handlers.MarkComplete)

	// Bidding and selection consensus
	deals.Post("/:id/bids", handlers.PlaceBid)
	deals.Get("/:id/bids", handlers.ListBids)
	deals.Post("/:id/bids/:bidId/select", handlers.SelectBid)

	// Escrow funding
	deals.Post("/:id/escrow/lock", handlers.LockEscrow)
	deals.Post("/:id/escrow/release", handlers.ReleaseEscrow)
	deals.Get("/:id/escrow", handlers.GetEscrow)

	// Disputes on this deal
	deals.Get("/:id/disputes", handlers.ListDealDisputes)

	// Dealmaker recruiting handshake
	deals.Post("/:id/dealmaker-requests", handlers.RequestDealmaker)

	// Bid mutations by the bid owner
	bids := app.Group("/api/bids", middleware.Protected())
	bids.Put("/:id", handlers.UpdateBid)
	bids.Delete("/:id", handlers.WithdrawBid)

	requests := app.Group("/api/dealmaker-requests", middleware.Protected())
	requests.Post("/:id/respond", handlers.RespondToDealmakerRequest)
}
