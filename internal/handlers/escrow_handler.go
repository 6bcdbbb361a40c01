package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// LockEscrow records the caller's escrow contribution for a deal.
func LockEscrow(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	actor := actingIdentity(c)
	res, err := escrowService.LockEscrow(uint(dealID), actor)
	if err != nil {
		return fail(c, err)
	}

	if deal, err := dealService.GetDeal(uint(dealID)); err == nil {
		if err := notifier.NotifyEscrowLocked(deal, actor, res.FullyLocked); err != nil {
			log.Printf("failed to notify escrow lock: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"message":      res.Message,
		"fully_locked": res.FullyLocked,
		"escrow":       res.Escrow,
		"balance":      res.Wallet.Balance,
	})
}

// ReleaseEscrow is the explicit release trigger for participants of a
// completed deal whose escrow is still locked. Completion convergence
// normally releases automatically.
func ReleaseEscrow(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	escrow, err := escrowService.ReleaseEscrow(uint(dealID), actingIdentity(c))
	if err != nil {
		return fail(c, err)
	}

	if err := notifier.NotifyEscrowReleased(escrow); err != nil {
		log.Printf("failed to notify escrow release: %v", err)
	}

	return c.JSON(fiber.Map{
		"message": "Escrow released to the dealmaker",
		"escrow":  escrow,
	})
}

// GetEscrow retrieves the escrow record for a deal.
func GetEscrow(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	escrow, err := escrowService.Get(uint(dealID))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"escrow": escrow,
	})
}
