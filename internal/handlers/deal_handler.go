package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"dealdesk/internal/services"
)

type CreateDealRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget" validate:"required"`
	Timeline    string          `json:"timeline"`
}

type RequestDealmakerRequest struct {
	DealmakerID       uint   `json:"dealmaker_id" validate:"required"`
	DealmakerUsername string `json:"dealmaker_username" validate:"required"`
}

type RespondDealmakerRequest struct {
	Accept bool `json:"accept"`
}

// CreateDeal posts a new deal.
func CreateDeal(c *fiber.Ctx) error {
	req := new(CreateDealRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	deal, err := dealService.CreateDeal(actingIdentity(c), services.CreateDealInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Timeline:    req.Timeline,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Deal created successfully",
		"deal":    deal,
	})
}

// SearchDeals lists deals, filtered by ?q= and ?open=true.
func SearchDeals(c *fiber.Ctx) error {
	deals, err := dealService.SearchDeals(c.Query("q"), c.Query("open") == "true")
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"deals": deals,
		"count": len(deals),
	})
}

// GetDeal retrieves one deal with its open bids.
func GetDeal(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	deal, err := dealService.GetDeal(uint(dealID))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"deal": deal,
	})
}

// JoinDeal takes the counterpart slot.
func JoinDeal(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	deal, err := dealService.JoinDeal(uint(dealID), actingIdentity(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "You joined the deal as counterpart",
		"deal":    deal,
	})
}

// LeaveDeal vacates the counterpart slot.
func LeaveDeal(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	deal, err := dealService.LeaveDeal(uint(dealID), actingIdentity(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "You left the deal",
		"deal":    deal,
	})
}

// DeleteDeal removes a deal with its bids and pending dealmaker requests.
func DeleteDeal(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	if err := dealService.DeleteDeal(uint(dealID), actingIdentity(c)); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Deal deleted successfully",
	})
}

// MarkComplete records the caller's completion confirmation. When both
// parties have confirmed, the deal completes and a locked escrow pays out.
func MarkComplete(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	res, err := dealService.MarkComplete(uint(dealID), actingIdentity(c))
	if err != nil {
		return fail(c, err)
	}

	if res.Completed && res.Escrow != nil {
		if err := notifier.NotifyEscrowReleased(res.Escrow); err != nil {
			log.Printf("failed to notify escrow release: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"message":   res.Message,
		"completed": res.Completed,
		"deal":      res.Deal,
	})
}

// RequestDealmaker invites a user to act as dealmaker on a deal.
func RequestDealmaker(c *fiber.Ctx) error {
	dealID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deal id",
		})
	}

	req := new(RequestDealmakerRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	request, err := dealService.RequestDealmaker(uint(dealID), actingIdentity(c), req.DealmakerID, req.DealmakerUsername)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Dealmaker request sent",
		"request": request,
	})
}

// RespondToDealmakerRequest lets the recruited user accept or decline.
func RespondToDealmakerRequest(c *fiber.Ctx) error {
	requestID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}

	req := new(RespondDealmakerRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	request, err := dealService.RespondDealmakerRequest(uint(requestID), actingIdentity(c), req.Accept)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Response recorded",
		"request": request,
	})
}
