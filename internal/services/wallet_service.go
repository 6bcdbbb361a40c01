package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dealdesk/internal/database"
	"dealdesk/internal/models"
)

// WalletService owns balance arithmetic and the append-only transaction log.
type WalletService struct {
	DB     *gorm.DB
	Events Publisher
}

func NewWalletService(db *gorm.DB, events Publisher) *WalletService {
	return &WalletService{DB: db, Events: events}
}

// Deposit credits the caller's wallet, creating it lazily on first use.
func (s *WalletService) Deposit(actor Identity, amount decimal.Decimal) (*models.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, InvalidState("Deposit amount must be greater than zero")
	}

	var wallet *models.Wallet
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		wallet, err = ensureWallet(tx, actor)
		if err != nil {
			return err
		}

		wallet.Balance = wallet.Balance.Add(amount)
		wallet.TotalDeposited = wallet.TotalDeposited.Add(amount)
		if err := tx.Save(wallet).Error; err != nil {
			return internal(err)
		}

		return appendTransaction(tx, wallet, models.TransactionDeposit, amount, nil,
			fmt.Sprintf("Deposit of $%s", amount.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "wallets", 0, wallet, "deposit")
	return wallet, nil
}

// Withdraw debits the caller's wallet. The balance check and debit happen in
// one transaction so the balance never goes negative.
func (s *WalletService) Withdraw(actor Identity, amount decimal.Decimal) (*models.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, InvalidState("Withdrawal amount must be greater than zero")
	}

	var wallet *models.Wallet
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		wallet, err = findWallet(tx, actor.UserID)
		if err != nil {
			return err
		}

		if wallet.Balance.LessThan(amount) {
			return InsufficientFunds("Insufficient funds. Required: $%s, Available: $%s",
				amount.StringFixed(2), wallet.Balance.StringFixed(2))
		}

		wallet.Balance = wallet.Balance.Sub(amount)
		wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(amount)
		if err := tx.Save(wallet).Error; err != nil {
			return internal(err)
		}

		return appendTransaction(tx, wallet, models.TransactionWithdraw, amount, nil,
			fmt.Sprintf("Withdrawal of $%s", amount.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "wallets", 0, wallet, "withdraw")
	return wallet, nil
}

// Balance returns the caller's wallet.
func (s *WalletService) Balance(actor Identity) (*models.Wallet, error) {
	return findWallet(s.DB, actor.UserID)
}

// History returns the caller's ledger entries, newest first.
func (s *WalletService) History(actor Identity) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.DB.Where("user_id = ?", actor.UserID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, internal(err)
	}
	return transactions, nil
}

func findWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := database.LockForUpdate(tx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Wallet not found. Make a deposit to open one.")
		}
		return nil, internal(err)
	}
	return &wallet, nil
}

// ensureWallet looks up the caller's wallet under a row lock, creating an
// empty one when none exists yet.
func ensureWallet(tx *gorm.DB, owner Identity) (*models.Wallet, error) {
	var wallet models.Wallet
	err := database.LockForUpdate(tx).Where("user_id = ?", owner.UserID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal(err)
	}

	wallet = models.Wallet{
		UserID:   owner.UserID,
		Username: owner.Username,
	}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, internal(err)
	}
	return &wallet, nil
}

// appendTransaction writes one ledger row; BalanceAfter snapshots the wallet
// balance as already mutated in this transaction.
func appendTransaction(tx *gorm.DB, w *models.Wallet, txType models.TransactionType, amount decimal.Decimal, dealID *uint, description string) error {
	entry := models.Transaction{
		UserID:       w.UserID,
		Username:     w.Username,
		Type:         txType,
		Amount:       amount,
		DealID:       dealID,
		Status:       models.TransactionCompleted,
		Reference:    newReference(txType),
		Description:  description,
		BalanceAfter: w.Balance,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return internal(err)
	}
	return nil
}

func newReference(txType models.TransactionType) string {
	prefix := "TRX"
	switch txType {
	case models.TransactionDeposit:
		prefix = "DEP"
	case models.TransactionWithdraw:
		prefix = "WTH"
	case models.TransactionEscrowLock:
		prefix = "ESL"
	case models.TransactionEscrowRelease:
		prefix = "ESR"
	case models.TransactionPaymentReceived:
		prefix = "PAY"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}
