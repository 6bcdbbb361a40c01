package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealdesk/internal/services"
)

var (
	dealService    *services.DealService
	bidService     *services.BidService
	escrowService  *services.EscrowService
	walletService  *services.WalletService
	disputeService *services.DisputeService
	notifier       *services.NotificationService
)

// Init wires the handler package to the database and the realtime fan-out.
func Init(db *gorm.DB, events services.Publisher) {
	dealService = services.NewDealService(db, events)
	bidService = services.NewBidService(db, events)
	escrowService = services.NewEscrowService(db, events)
	walletService = services.NewWalletService(db, events)
	disputeService = services.NewDisputeService(db, events)
	notifier = services.NewNotificationService(db)
}

func actingIdentity(c *fiber.Ctx) services.Identity {
	return services.Identity{
		UserID:   c.Locals("user_id").(uint),
		Username: c.Locals("username").(string),
	}
}

// fail maps a typed service error onto an HTTP status, preserving the
// descriptive message.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = fiber.StatusNotFound
	case services.KindUnauthorized:
		status = fiber.StatusForbidden
	case services.KindInvalidState, services.KindInsufficientFunds:
		status = fiber.StatusBadRequest
	case services.KindConflict:
		status = fiber.StatusConflict
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Database error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
