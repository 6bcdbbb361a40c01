package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "pending"
	EscrowLocked   EscrowStatus = "locked"
	EscrowReleased EscrowStatus = "released"
)

// Escrow is the per-deal funding record, at most one per deal. It is created
// lazily on the first lock attempt and the contribution split is fixed at that
// point; it is never deleted once created.
type Escrow struct {
	ID     uint `gorm:"primarykey" json:"id"`
	DealID uint `gorm:"uniqueIndex;not null" json:"deal_id"`

	TotalAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	CreatorAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"creator_amount"`
	CounterpartAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"counterpart_amount"`

	CreatorPaid     bool `gorm:"default:false" json:"creator_paid"`
	CounterpartPaid bool `gorm:"default:false" json:"counterpart_paid"`

	Status EscrowStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	DealmakerID       uint   `gorm:"not null" json:"dealmaker_id"`
	DealmakerUsername string `gorm:"size:64;not null" json:"dealmaker_username"`

	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Escrow) TableName() string {
	return "escrows"
}

// AnyPaid reports whether either party has locked their contribution. Deals
// with a paid escrow cannot be deleted or left.
func (e *Escrow) AnyPaid() bool {
	return e.CreatorPaid || e.CounterpartPaid
}
