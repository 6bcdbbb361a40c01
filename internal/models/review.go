package models

import (
	"time"

	"gorm.io/gorm"
)

// Review can only be attached to a completed deal by one of its participants.
type Review struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	DealID           uint           `gorm:"not null;index" json:"deal_id"`
	ReviewerID       uint           `gorm:"not null;index" json:"reviewer_id"`
	ReviewerUsername string         `gorm:"size:64;not null" json:"reviewer_username"`
	RevieweeID       uint           `gorm:"not null;index" json:"reviewee_id"`
	Rating           int            `gorm:"not null" json:"rating"`
	Comment          string         `gorm:"type:text" json:"comment"`
	CreatedAt        time.Time      `json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
