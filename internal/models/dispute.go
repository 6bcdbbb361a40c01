package models

import (
	"time"

	"gorm.io/gorm"
)

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
	DisputeClosed   DisputeStatus = "closed"
)

// Dispute is a secondary overlay on a finalized deal. Only the creator or
// counterpart may raise one; only the dealmaker may resolve it. Resolution is
// terminal.
type Dispute struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	DealID           uint           `gorm:"not null;index" json:"deal_id"`
	RaisedByID       uint           `gorm:"not null;index" json:"raised_by_id"`
	RaisedByUsername string         `gorm:"size:64;not null" json:"raised_by_username"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Description      string         `gorm:"type:text;not null" json:"description"`
	Status           DisputeStatus  `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Resolution       string         `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedByID     *uint          `gorm:"index" json:"resolved_by_id,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Dispute) TableName() string {
	return "disputes"
}
