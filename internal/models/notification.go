package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationDealCreated     NotificationType = "deal_created"
	NotificationDealJoined      NotificationType = "deal_joined"
	NotificationDealLeft        NotificationType = "deal_left"
	NotificationDealFinalized   NotificationType = "deal_finalized"
	NotificationDealCompleted   NotificationType = "deal_completed"
	NotificationBidPlaced       NotificationType = "bid_placed"
	NotificationBidSelected     NotificationType = "bid_selected"
	NotificationEscrowLock      NotificationType = "escrow_locked"
	NotificationEscrowReleased  NotificationType = "escrow_released"
	NotificationDisputeRaised   NotificationType = "dispute_raised"
	NotificationDisputeResolved NotificationType = "dispute_resolved"
	NotificationDepositSuccess  NotificationType = "deposit_success"
)

type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate hook
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	n.CreatedAt = time.Now()
	return nil
}
