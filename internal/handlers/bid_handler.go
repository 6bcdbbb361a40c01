package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PlaceBidRequest struct {
	Price decimal.Decimal `json:"price" validate:"required"`
}

type UpdateBidRequest struct {
	Price decimal.Decimal `json:"price" validate:"required"`
}

// PlaceBid records a new dealmaker offer on a deal.
func PlaceBid(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	req := new(PlaceBidRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	bid, err := bidService.PlaceBid(uint(dealID), actingIdentity(c), req.Price)
	if err != nil {
		return fail(c, err)
	}

	if deal, err := dealService.GetDeal(uint(dealID)); err == nil {
		if err := notifier.NotifyBidPlaced(deal, bid); err != nil {
			log.Printf("failed to notify bid placement: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Bid placed successfully",
		"bid":     bid,
	})
}

// ListBids returns all open bids on a deal.
func ListBids(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	bids, err := bidService.ListBids(uint(dealID))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"bids":  bids,
		"count": len(bids),
	})
}

// UpdateBid changes the price of the caller's own bid.
func UpdateBid(c *fiber.Ctx) error {
	bidID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bid id",
		})
	}

	req := new(UpdateBidRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	bid, err := bidService.UpdateBid(uint(bidID), actingIdentity(c), req.Price)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Bid updated successfully",
		"bid":     bid,
	})
}

// WithdrawBid removes the caller's own bid.
func WithdrawBid(c *fiber.Ctx) error {
	bidID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bid id",
		})
	}

	if err := bidService.WithdrawBid(uint(bidID), actingIdentity(c)); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Bid withdrawn successfully",
	})
}

// SelectBid records the caller's selection; when both parties converge on the
// same bid the deal finalizes with that bidder as dealmaker.
func SelectBid(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}
	bidID, err := c.ParamsInt("bidId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bid id",
		})
	}

	deal, finalized, err := bidService.SelectBid(uint(dealID), uint(bidID), actingIdentity(c))
	if err != nil {
		return fail(c, err)
	}

	message := "Bid selection updated"
	if finalized {
		message = "Both parties agreed: the deal has been finalized"
		if err := notifier.NotifyDealFinalized(deal); err != nil {
			log.Printf("failed to notify deal finalization: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"message":   message,
		"finalized": finalized,
		"deal":      deal,
	})
}
