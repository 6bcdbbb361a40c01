package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dealdesk/internal/models"
)

// BidService tracks candidate dealmaker offers and runs the double-sided
// selection consensus: a deal finalizes only when creator and counterpart
// independently select the same bid.
type BidService struct {
	DB     *gorm.DB
	Events Publisher
}

func NewBidService(db *gorm.DB, events Publisher) *BidService {
	return &BidService{DB: db, Events: events}
}

// PlaceBid records a new offer. Deal participants cannot bid, and a bidder
// holds at most one bid per deal.
func (s *BidService) PlaceBid(dealID uint, actor Identity, price decimal.Decimal) (*models.Bid, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, InvalidState("Bid price must be greater than zero")
	}

	var bid models.Bid
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if deal.DealmakerID != nil {
			return InvalidState("Deal already has a dealmaker; bidding is closed")
		}
		if deal.IsParticipant(actor.UserID) {
			return Unauthorized("Deal participants cannot bid on their own deal")
		}

		var existing models.Bid
		if err := tx.Where("deal_id = ? AND bidder_id = ?", dealID, actor.UserID).
			First(&existing).Error; err == nil {
			return Conflict("You have already placed a bid on this deal")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return internal(err)
		}

		bid = models.Bid{
			DealID:         dealID,
			BidderID:       actor.UserID,
			BidderUsername: actor.Username,
			Price:          price,
		}
		if err := tx.Create(&bid).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, bid, "bid_placed")
	return &bid, nil
}

// UpdateBid changes the price of the caller's own bid.
func (s *BidService) UpdateBid(bidID uint, actor Identity, price decimal.Decimal) (*models.Bid, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, InvalidState("Bid price must be greater than zero")
	}

	var bid models.Bid
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, bidID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Bid not found")
			}
			return internal(err)
		}
		if bid.BidderID != actor.UserID {
			return Unauthorized("Only the bid owner can update it")
		}

		bid.Price = price
		if err := tx.Save(&bid).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", bid.DealID, bid, "bid_updated")
	return &bid, nil
}

// WithdrawBid removes the caller's own bid.
func (s *BidService) WithdrawBid(bidID uint, actor Identity) error {
	var bid models.Bid
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, bidID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Bid not found")
			}
			return internal(err)
		}
		if bid.BidderID != actor.UserID {
			return Unauthorized("Only the bid owner can withdraw it")
		}
		if err := tx.Delete(&bid).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.Events, "deals", bid.DealID, bid, "bid_withdrawn")
	return nil
}

// ListBids returns all open bids on a deal, newest first.
func (s *BidService) ListBids(dealID uint) ([]models.Bid, error) {
	var bids []models.Bid
	if err := s.DB.Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&bids).Error; err != nil {
		return nil, internal(err)
	}
	return bids, nil
}

// SelectBid records the acting party's selection with toggling semantics:
// re-selecting the currently selected bid clears it, anything else replaces
// the prior selection. When both parties' selections converge on the same bid
// the deal finalizes: the bidder becomes dealmaker, the bid price becomes the
// deal budget and every bid on the deal is removed. The returned flag reports
// whether finalization happened in this call.
func (s *BidService) SelectBid(dealID, bidID uint, actor Identity) (*models.Deal, bool, error) {
	var deal *models.Deal
	finalized := false

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		deal, err = dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if deal.DealmakerID != nil {
			return InvalidState("Deal is already finalized; bid selection is closed")
		}
		if !deal.IsParticipant(actor.UserID) {
			return Unauthorized("Only the deal creator or counterpart can select a bid")
		}

		var bid models.Bid
		if err := tx.Where("id = ? AND deal_id = ?", bidID, dealID).First(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Bid not found on this deal")
			}
			return internal(err)
		}

		selected := bidID
		if actor.UserID == deal.CreatorID {
			if deal.CreatorSelectedBidID != nil && *deal.CreatorSelectedBidID == bidID {
				deal.CreatorSelectedBidID = nil
			} else {
				deal.CreatorSelectedBidID = &selected
			}
		} else {
			if deal.CounterpartSelectedBidID != nil && *deal.CounterpartSelectedBidID == bidID {
				deal.CounterpartSelectedBidID = nil
			} else {
				deal.CounterpartSelectedBidID = &selected
			}
		}

		// Any selection change invalidates a prior half-converged assignment.
		deal.DealmakerID = nil
		deal.DealmakerUsername = ""

		if deal.CreatorSelectedBidID != nil && deal.CounterpartSelectedBidID != nil &&
			*deal.CreatorSelectedBidID == *deal.CounterpartSelectedBidID {
			dealmakerID := bid.BidderID
			deal.DealmakerID = &dealmakerID
			deal.DealmakerUsername = bid.BidderUsername
			deal.Budget = bid.Price

			// The agreed price lives on the deal now; the bids, including the
			// winning one, have served their purpose.
			if err := tx.Where("deal_id = ?", dealID).Delete(&models.Bid{}).Error; err != nil {
				return internal(err)
			}
			finalized = true
		}

		if err := tx.Save(deal).Error; err != nil {
			return internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	publish(s.Events, "deals", dealID, deal, "bid_selected")
	if finalized {
		publish(s.Events, "deals", dealID, deal, "deal_finalized")
	}
	return deal, finalized, nil
}
