package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bid is a candidate dealmaker's offer on a deal. One bid per (deal, bidder),
// enforced in the service layer. All bids are removed when the deal finalizes.
type Bid struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	DealID         uint            `gorm:"not null;index" json:"deal_id"`
	BidderID       uint            `gorm:"not null;index" json:"bidder_id"`
	BidderUsername string          `gorm:"size:64;not null" json:"bidder_username"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Bid) TableName() string {
	return "bids"
}
