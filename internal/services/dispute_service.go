package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dealdesk/internal/models"
)

// DisputeService gates the dealmaker's authority to settle conflicts on a
// finalized deal. It never touches the ledger.
type DisputeService struct {
	DB     *gorm.DB
	Events Publisher
}

func NewDisputeService(db *gorm.DB, events Publisher) *DisputeService {
	return &DisputeService{DB: db, Events: events}
}

// RaiseDispute opens a dispute on a deal. Only the creator or counterpart may
// raise one, the deal must have a dealmaker (nobody could resolve it
// otherwise), and at most one open dispute exists per deal.
func (s *DisputeService) RaiseDispute(dealID uint, actor Identity, title, description string) (*models.Dispute, error) {
	if title == "" || description == "" {
		return nil, InvalidState("Dispute title and description are required")
	}

	var dispute models.Dispute
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if !deal.IsParticipant(actor.UserID) {
			return Unauthorized("Only the deal creator or counterpart can raise a dispute")
		}
		if deal.DealmakerID == nil {
			return InvalidState("A dispute can only be raised once the deal has a dealmaker")
		}

		var existing models.Dispute
		if err := tx.Where("deal_id = ? AND status = ?", dealID, models.DisputeOpen).
			First(&existing).Error; err == nil {
			return Conflict("An open dispute already exists for this deal")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return internal(err)
		}

		dispute = models.Dispute{
			DealID:           dealID,
			RaisedByID:       actor.UserID,
			RaisedByUsername: actor.Username,
			Title:            title,
			Description:      description,
			Status:           models.DisputeOpen,
		}
		if err := tx.Create(&dispute).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, dispute, "dispute_raised")
	return &dispute, nil
}

// ResolveDispute closes an open dispute. Dealmaker only; terminal.
func (s *DisputeService) ResolveDispute(disputeID uint, actor Identity, resolution string) (*models.Dispute, error) {
	if resolution == "" {
		return nil, InvalidState("A resolution text is required")
	}

	var dispute models.Dispute
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dispute, disputeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Dispute not found")
			}
			return internal(err)
		}

		deal, err := dealForUpdate(tx, dispute.DealID)
		if err != nil {
			return err
		}
		if deal.DealmakerID == nil || *deal.DealmakerID != actor.UserID {
			return Unauthorized("Only the deal's dealmaker can resolve a dispute")
		}
		if dispute.Status != models.DisputeOpen {
			return InvalidState("Dispute has already been %s", dispute.Status)
		}

		now := time.Now()
		resolvedBy := actor.UserID
		dispute.Status = models.DisputeResolved
		dispute.Resolution = resolution
		dispute.ResolvedByID = &resolvedBy
		dispute.ResolvedAt = &now
		if err := tx.Save(&dispute).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dispute.DealID, dispute, "dispute_resolved")
	return &dispute, nil
}

// ListDisputes returns a deal's disputes, newest first.
func (s *DisputeService) ListDisputes(dealID uint) ([]models.Dispute, error) {
	var disputes []models.Dispute
	if err := s.DB.Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&disputes).Error; err != nil {
		return nil, internal(err)
	}
	return disputes, nil
}
