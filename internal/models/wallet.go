package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds a user's spendable balance. Created lazily on first deposit or
// credit; the balance never goes negative as the effect of any operation.
type Wallet struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	UserID         uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Username       string          `gorm:"size:64;not null" json:"username"`
	Balance        decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"balance"`
	TotalDeposited decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"total_withdrawn"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
