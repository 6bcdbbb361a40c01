package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deal is the aggregate root of the marketplace. A dealer creates it, a
// counterpart joins the single open slot, prospective dealmakers bid, and the
// two counterparties finalize one bid by both selecting it.
type Deal struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Budget      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"budget"`
	Timeline    string          `gorm:"type:varchar(100)" json:"timeline"`

	CreatorID       uint   `gorm:"not null;index" json:"creator_id"`
	CreatorUsername string `gorm:"size:64;not null" json:"creator_username"`

	CounterpartID       *uint  `gorm:"index" json:"counterpart_id,omitempty"`
	CounterpartUsername string `gorm:"size:64" json:"counterpart_username,omitempty"`

	// Set only once both selected-bid fields converge on the same bid.
	DealmakerID       *uint  `gorm:"index" json:"dealmaker_id,omitempty"`
	DealmakerUsername string `gorm:"size:64" json:"dealmaker_username,omitempty"`

	CreatorSelectedBidID     *uint `json:"creator_selected_bid_id,omitempty"`
	CounterpartSelectedBidID *uint `json:"counterpart_selected_bid_id,omitempty"`

	CompletedByCreator     bool       `gorm:"default:false" json:"completed_by_creator"`
	CompletedByCounterpart bool       `gorm:"default:false" json:"completed_by_counterpart"`
	IsCompleted            bool       `gorm:"default:false;index" json:"is_completed"`
	CompletionDate         *time.Time `json:"completion_date,omitempty"`

	IsProtected  bool            `gorm:"default:false" json:"is_protected"`
	EscrowLocked bool            `gorm:"default:false" json:"escrow_locked"`
	EscrowAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"escrow_amount"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Bids []Bid `gorm:"foreignKey:DealID" json:"bids,omitempty"`
}

func (Deal) TableName() string {
	return "deals"
}

// IsParticipant reports whether the given user is the deal's creator or
// counterpart. Dealmakers are not participants in this sense.
func (d *Deal) IsParticipant(userID uint) bool {
	if d.CreatorID == userID {
		return true
	}
	return d.CounterpartID != nil && *d.CounterpartID == userID
}
