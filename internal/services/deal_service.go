package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dealdesk/internal/database"
	"dealdesk/internal/models"
)

// DealService is the aggregate-root lifecycle: creation, the single
// counterpart slot, completion convergence and the deletion/leave guards that
// keep funded deals intact.
type DealService struct {
	DB     *gorm.DB
	Events Publisher
}

func NewDealService(db *gorm.DB, events Publisher) *DealService {
	return &DealService{DB: db, Events: events}
}

type CreateDealInput struct {
	Title       string
	Description string
	Budget      decimal.Decimal
	Timeline    string
}

func (s *DealService) CreateDeal(actor Identity, in CreateDealInput) (*models.Deal, error) {
	if in.Title == "" {
		return nil, InvalidState("Deal title is required")
	}
	if in.Budget.LessThanOrEqual(decimal.Zero) {
		return nil, InvalidState("Deal budget must be greater than zero")
	}

	deal := models.Deal{
		Title:           in.Title,
		Description:     in.Description,
		Budget:          in.Budget,
		Timeline:        in.Timeline,
		CreatorID:       actor.UserID,
		CreatorUsername: actor.Username,
	}
	if err := s.DB.Create(&deal).Error; err != nil {
		return nil, internal(err)
	}

	publish(s.Events, "deals", deal.ID, deal, "deal_created")
	return &deal, nil
}

func (s *DealService) GetDeal(dealID uint) (*models.Deal, error) {
	var deal models.Deal
	if err := s.DB.Preload("Bids").First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Deal not found")
		}
		return nil, internal(err)
	}
	return &deal, nil
}

// SearchDeals lists deals, optionally filtered by a title substring and by
// openness (no dealmaker assigned yet).
func (s *DealService) SearchDeals(query string, openOnly bool) ([]models.Deal, error) {
	q := s.DB.Order("created_at DESC")
	if query != "" {
		q = q.Where("title LIKE ?", "%"+query+"%")
	}
	if openOnly {
		q = q.Where("dealmaker_id IS NULL")
	}

	var deals []models.Deal
	if err := q.Find(&deals).Error; err != nil {
		return nil, internal(err)
	}
	return deals, nil
}

// JoinDeal fills the single counterpart slot, first come first served.
func (s *DealService) JoinDeal(dealID uint, actor Identity) (*models.Deal, error) {
	var deal *models.Deal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		deal, err = dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if deal.CreatorID == actor.UserID {
			return InvalidState("You cannot join your own deal")
		}
		if deal.CounterpartID != nil {
			return Conflict("This deal already has a counterpart")
		}
		if deal.IsCompleted {
			return InvalidState("Deal is already completed")
		}

		userID := actor.UserID
		deal.CounterpartID = &userID
		deal.CounterpartUsername = actor.Username
		if err := tx.Save(deal).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, deal, "deal_joined")
	return deal, nil
}

// LeaveDeal clears the counterpart slot. Once any escrow payment exists the
// deal is protected and the counterpart can no longer walk away.
func (s *DealService) LeaveDeal(dealID uint, actor Identity) (*models.Deal, error) {
	var deal *models.Deal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		deal, err = dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if deal.CounterpartID == nil || *deal.CounterpartID != actor.UserID {
			return Unauthorized("Only the deal's counterpart can leave it")
		}

		if deal.DealmakerID != nil {
			if err := rejectIfEscrowPaid(tx, dealID, "left"); err != nil {
				return err
			}
		}

		deal.CounterpartID = nil
		deal.CounterpartUsername = ""
		deal.CounterpartSelectedBidID = nil
		if err := tx.Save(deal).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, deal, "deal_left")
	return deal, nil
}

// DeleteDeal removes a deal with its bids and pending dealmaker requests in
// one transaction, children first. Creators only, and never once an escrow
// payment has been made.
func (s *DealService) DeleteDeal(dealID uint, actor Identity) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if deal.CreatorID != actor.UserID {
			return Unauthorized("Only the deal creator can delete it")
		}
		if err := rejectIfEscrowPaid(tx, dealID, "deleted"); err != nil {
			return err
		}

		if err := tx.Where("deal_id = ?", dealID).Delete(&models.DealmakerRequest{}).Error; err != nil {
			return internal(err)
		}
		if err := tx.Where("deal_id = ?", dealID).Delete(&models.Bid{}).Error; err != nil {
			return internal(err)
		}
		if err := tx.Delete(deal).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.Events, "deals", dealID, nil, "deal_deleted")
	return nil
}

// CompletionResult reports the outcome of a completion confirmation.
type CompletionResult struct {
	Message   string
	Completed bool
	Deal      *models.Deal
	Escrow    *models.Escrow
}

// MarkComplete records the acting party's completion confirmation, preserving
// the other party's flag. When both confirmations converge the deal completes
// and, if a locked escrow exists, the payout to the dealmaker happens in the
// same transaction.
func (s *DealService) MarkComplete(dealID uint, actor Identity) (*CompletionResult, error) {
	res := &CompletionResult{}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if !deal.IsParticipant(actor.UserID) {
			return Unauthorized("Only the deal creator or counterpart can confirm completion")
		}
		if deal.IsCompleted {
			return InvalidState("Deal is already completed")
		}

		if actor.UserID == deal.CreatorID {
			deal.CompletedByCreator = true
		} else {
			deal.CompletedByCounterpart = true
		}

		if deal.CompletedByCreator && deal.CompletedByCounterpart {
			now := time.Now()
			deal.IsCompleted = true
			deal.CompletionDate = &now
			res.Completed = true
			res.Message = "Deal completed. Escrow has been released to the dealmaker."

			var escrow models.Escrow
			err := tx.Where("deal_id = ?", dealID).First(&escrow).Error
			switch {
			case err == nil && escrow.Status == models.EscrowLocked:
				released, err := releaseEscrowTx(tx, dealID)
				if err != nil {
					return err
				}
				res.Escrow = released
			case err == nil:
				res.Message = "Deal completed."
			case errors.Is(err, gorm.ErrRecordNotFound):
				res.Message = "Deal completed."
			default:
				return internal(err)
			}
		} else {
			res.Message = "Your confirmation has been recorded. Waiting for the other party."
		}

		if err := tx.Save(deal).Error; err != nil {
			return internal(err)
		}
		res.Deal = deal
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, res.Deal, "progress_updated")
	if res.Completed {
		publish(s.Events, "deals", dealID, res.Deal, "deal_completed")
		if res.Escrow != nil {
			publish(s.Events, "deals", dealID, res.Escrow, "escrow_released")
		}
	}
	return res, nil
}

// RequestDealmaker records the recruiting handshake. Accepting it only flips
// the request flag: a dealmaker is appointed exclusively through bid
// selection.
func (s *DealService) RequestDealmaker(dealID uint, actor Identity, dealmakerID uint, dealmakerUsername string) (*models.DealmakerRequest, error) {
	var request models.DealmakerRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if !deal.IsParticipant(actor.UserID) {
			return Unauthorized("Only the deal creator or counterpart can request a dealmaker")
		}
		if deal.IsParticipant(dealmakerID) {
			return InvalidState("Deal participants cannot be recruited as dealmaker")
		}

		var existing models.DealmakerRequest
		if err := tx.Where("deal_id = ? AND dealmaker_id = ? AND status = ?",
			dealID, dealmakerID, models.DealmakerRequestPending).
			First(&existing).Error; err == nil {
			return Conflict("A pending dealmaker request for this user already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return internal(err)
		}

		request = models.DealmakerRequest{
			DealID:            dealID,
			RequesterID:       actor.UserID,
			DealmakerID:       dealmakerID,
			DealmakerUsername: dealmakerUsername,
			Status:            models.DealmakerRequestPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, request, "dealmaker_requested")
	return &request, nil
}

// RespondDealmakerRequest lets the recruited user accept or decline.
func (s *DealService) RespondDealmakerRequest(requestID uint, actor Identity, accept bool) (*models.DealmakerRequest, error) {
	var request models.DealmakerRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Dealmaker request not found")
			}
			return internal(err)
		}
		if request.DealmakerID != actor.UserID {
			return Unauthorized("Only the requested dealmaker can respond")
		}
		if request.Status != models.DealmakerRequestPending {
			return InvalidState("Request has already been %s", request.Status)
		}

		if accept {
			request.Status = models.DealmakerRequestAccepted
		} else {
			request.Status = models.DealmakerRequestDeclined
		}
		if err := tx.Save(&request).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", request.DealID, request, "dealmaker_request_updated")
	return &request, nil
}

func dealForUpdate(tx *gorm.DB, dealID uint) (*models.Deal, error) {
	var deal models.Deal
	if err := database.LockForUpdate(tx).First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Deal not found")
		}
		return nil, internal(err)
	}
	return &deal, nil
}

// rejectIfEscrowPaid surfaces the distinct protected-state error so callers
// can explain exactly why the deal cannot be deleted or left.
func rejectIfEscrowPaid(tx *gorm.DB, dealID uint, action string) error {
	var escrow models.Escrow
	err := tx.Where("deal_id = ?", dealID).First(&escrow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return internal(err)
	}
	if escrow.AnyPaid() {
		return InvalidState("This deal is payment-protected: an escrow payment has been made, so it cannot be %s", action)
	}
	return nil
}
