package services

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dealdesk/internal/models"
)

// NotificationService persists per-user notifications for the state
// transitions the realtime hub also broadcasts. Failures are logged by the
// callers and never block the underlying operation.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

func (s *NotificationService) CreateNotification(userID uint, notifType models.NotificationType, title, message string, data map[string]interface{}) error {
	var dataJSON []byte
	if data != nil {
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = jsonBytes
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    dataJSON,
		IsRead:  false,
	}

	if err := s.DB.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// NotifyBidPlaced tells both deal participants about a new bid.
func (s *NotificationService) NotifyBidPlaced(deal *models.Deal, bid *models.Bid) error {
	message := fmt.Sprintf("%s placed a bid of $%s on \"%s\"",
		bid.BidderUsername, bid.Price.StringFixed(2), deal.Title)
	data := map[string]interface{}{
		"deal_id": deal.ID,
		"bid_id":  bid.ID,
		"price":   bid.Price,
	}

	if err := s.CreateNotification(deal.CreatorID, models.NotificationBidPlaced, "New Bid", message, data); err != nil {
		return err
	}
	if deal.CounterpartID != nil {
		return s.CreateNotification(*deal.CounterpartID, models.NotificationBidPlaced, "New Bid", message, data)
	}
	return nil
}

// NotifyDealFinalized tells the winning bidder they are now the dealmaker.
func (s *NotificationService) NotifyDealFinalized(deal *models.Deal) error {
	if deal.DealmakerID == nil {
		return nil
	}
	return s.CreateNotification(
		*deal.DealmakerID,
		models.NotificationDealFinalized,
		"You Are the Dealmaker",
		fmt.Sprintf("Both parties selected your bid on \"%s\". The agreed budget is $%s.",
			deal.Title, deal.Budget.StringFixed(2)),
		map[string]interface{}{
			"deal_id": deal.ID,
			"budget":  deal.Budget,
		},
	)
}

// NotifyEscrowLocked tells the other party a contribution was recorded.
func (s *NotificationService) NotifyEscrowLocked(deal *models.Deal, payer Identity, fullyLocked bool) error {
	otherID := deal.CreatorID
	if payer.UserID == deal.CreatorID && deal.CounterpartID != nil {
		otherID = *deal.CounterpartID
	}

	message := fmt.Sprintf("%s paid their escrow contribution on \"%s\"", payer.Username, deal.Title)
	if fullyLocked {
		message = fmt.Sprintf("Escrow on \"%s\" is fully locked. The deal is now payment-protected.", deal.Title)
	}

	return s.CreateNotification(otherID, models.NotificationEscrowLock, "Escrow Payment", message,
		map[string]interface{}{"deal_id": deal.ID})
}

// NotifyEscrowReleased tells the dealmaker the payout landed.
func (s *NotificationService) NotifyEscrowReleased(escrow *models.Escrow) error {
	return s.CreateNotification(
		escrow.DealmakerID,
		models.NotificationEscrowReleased,
		"Payment Received",
		fmt.Sprintf("Escrow of $%s for deal #%d has been released to your wallet.",
			escrow.TotalAmount.StringFixed(2), escrow.DealID),
		map[string]interface{}{
			"deal_id": escrow.DealID,
			"amount":  escrow.TotalAmount,
		},
	)
}

// NotifyDisputeRaised tells the dealmaker a dispute needs their attention.
func (s *NotificationService) NotifyDisputeRaised(deal *models.Deal, dispute *models.Dispute) error {
	if deal.DealmakerID == nil {
		return nil
	}
	return s.CreateNotification(
		*deal.DealmakerID,
		models.NotificationDisputeRaised,
		"Dispute Raised",
		fmt.Sprintf("%s raised a dispute on \"%s\": %s", dispute.RaisedByUsername, deal.Title, dispute.Title),
		map[string]interface{}{
			"deal_id":    deal.ID,
			"dispute_id": dispute.ID,
		},
	)
}

// NotifyDisputeResolved tells the raiser the dealmaker settled it.
func (s *NotificationService) NotifyDisputeResolved(dispute *models.Dispute) error {
	return s.CreateNotification(
		dispute.RaisedByID,
		models.NotificationDisputeResolved,
		"Dispute Resolved",
		fmt.Sprintf("Your dispute \"%s\" has been resolved: %s", dispute.Title, dispute.Resolution),
		map[string]interface{}{
			"deal_id":    dispute.DealID,
			"dispute_id": dispute.ID,
		},
	)
}

// NotifyDeposit confirms a wallet credit.
func (s *NotificationService) NotifyDeposit(userID uint, amount decimal.Decimal, balance decimal.Decimal) error {
	return s.CreateNotification(
		userID,
		models.NotificationDepositSuccess,
		"Deposit Successful",
		fmt.Sprintf("$%s has been added to your wallet. New balance: $%s",
			amount.StringFixed(2), balance.StringFixed(2)),
		map[string]interface{}{"amount": amount},
	)
}
