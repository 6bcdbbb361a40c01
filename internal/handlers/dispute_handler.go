package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

type RaiseDisputeRequest struct {
	DealID      uint   `json:"deal_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" validate:"required"`
}

// RaiseDispute allows the deal creator or counterpart to open a dispute.
func RaiseDispute(c *fiber.Ctx) error {
	req := new(RaiseDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	dispute, err := disputeService.RaiseDispute(req.DealID, actingIdentity(c), req.Title, req.Description)
	if err != nil {
		return fail(c, err)
	}

	if deal, err := dealService.GetDeal(req.DealID); err == nil {
		if err := notifier.NotifyDisputeRaised(deal, dispute); err != nil {
			log.Printf("failed to notify dispute: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Dispute raised successfully. The dealmaker will review it.",
		"dispute": dispute,
	})
}

// ResolveDispute lets the deal's dealmaker settle an open dispute.
func ResolveDispute(c *fiber.Ctx) error {
	disputeID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid dispute id",
		})
	}

	req := new(ResolveDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	dispute, err := disputeService.ResolveDispute(uint(disputeID), actingIdentity(c), req.Resolution)
	if err != nil {
		return fail(c, err)
	}

	if err := notifier.NotifyDisputeResolved(dispute); err != nil {
		log.Printf("failed to notify dispute resolution: %v", err)
	}

	return c.JSON(fiber.Map{
		"message": "Dispute resolved",
		"dispute": dispute,
	})
}

// ListDealDisputes returns a deal's disputes.
func ListDealDisputes(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	disputes, err := disputeService.ListDisputes(uint(dealID))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"disputes": disputes,
		"count":    len(disputes),
	})
}
