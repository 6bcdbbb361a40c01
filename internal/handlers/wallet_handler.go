package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"dealdesk/internal/services"
)

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// Deposit credits the caller's wallet, creating it on first use.
func Deposit(c *fiber.Ctx) error {
	req := new(DepositRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	actor := actingIdentity(c)
	wallet, err := walletService.Deposit(actor, req.Amount)
	if err != nil {
		return fail(c, err)
	}

	if err := notifier.NotifyDeposit(actor.UserID, req.Amount, wallet.Balance); err != nil {
		log.Printf("failed to notify deposit: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Deposit completed successfully",
		"wallet":  wallet,
	})
}

// Withdraw debits the caller's wallet.
func Withdraw(c *fiber.Ctx) error {
	req := new(WithdrawRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	wallet, err := walletService.Withdraw(actingIdentity(c), req.Amount)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Withdrawal completed successfully",
		"wallet":  wallet,
	})
}

// GetWalletBalance retrieves the caller's wallet.
func GetWalletBalance(c *fiber.Ctx) error {
	wallet, err := walletService.Balance(actingIdentity(c))
	if err != nil {
		if services.KindOf(err) == services.KindNotFound {
			// No deposits yet; present an empty wallet rather than an error.
			return c.JSON(fiber.Map{
				"balance":         decimal.Zero,
				"total_deposited": decimal.Zero,
				"total_withdrawn": decimal.Zero,
			})
		}
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"balance":         wallet.Balance,
		"total_deposited": wallet.TotalDeposited,
		"total_withdrawn": wallet.TotalWithdrawn,
	})
}

// GetTransactionHistory retrieves the caller's ledger entries.
func GetTransactionHistory(c *fiber.Ctx) error {
	transactions, err := walletService.History(actingIdentity(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
