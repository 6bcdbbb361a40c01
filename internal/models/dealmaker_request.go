package models

import (
	"time"

	"gorm.io/gorm"
)

type DealmakerRequestStatus string

const (
	DealmakerRequestPending  DealmakerRequestStatus = "pending"
	DealmakerRequestAccepted DealmakerRequestStatus = "accepted"
	DealmakerRequestDeclined DealmakerRequestStatus = "declined"
)

// DealmakerRequest is the recruiting handshake: a deal participant invites a
// specific user to act as dealmaker. Pending rows are removed together with
// their deal.
type DealmakerRequest struct {
	ID                uint                   `gorm:"primarykey" json:"id"`
	DealID            uint                   `gorm:"not null;index" json:"deal_id"`
	RequesterID       uint                   `gorm:"not null;index" json:"requester_id"`
	DealmakerID       uint                   `gorm:"not null;index" json:"dealmaker_id"`
	DealmakerUsername string                 `gorm:"size:64;not null" json:"dealmaker_username"`
	Status            DealmakerRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	DeletedAt         gorm.DeletedAt         `gorm:"index" json:"-"`
}

func (DealmakerRequest) TableName() string {
	return "dealmaker_requests"
}
