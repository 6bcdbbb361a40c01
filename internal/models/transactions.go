package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string
type TransactionStatus string

const (
	TransactionDeposit         TransactionType = "deposit"
	TransactionWithdraw        TransactionType = "withdraw"
	TransactionEscrowLock      TransactionType = "escrow_lock"
	TransactionEscrowRelease   TransactionType = "escrow_release"
	TransactionPaymentReceived TransactionType = "payment_received"
)

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is an append-only ledger entry. BalanceAfter snapshots the
// wallet balance immediately after the associated mutation, written in the
// same database transaction.
type Transaction struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	Username     string            `gorm:"size:64;not null" json:"username"`
	Type         TransactionType   `gorm:"type:varchar(20);not null" json:"type"`
	Amount       decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	DealID       *uint             `gorm:"index" json:"deal_id,omitempty"`
	Status       TransactionStatus `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	Reference    string            `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	Description  string            `gorm:"type:text" json:"description"`
	BalanceAfter decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"balance_after"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
