package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dealdesk/internal/database"
	"dealdesk/internal/models"
)

// EscrowService enforces the two-party funding protocol: both counterparties
// lock their contribution before the deal becomes payment-protected, and the
// pooled amount is released to the dealmaker exactly once.
type EscrowService struct {
	DB     *gorm.DB
	Events Publisher
}

func NewEscrowService(db *gorm.DB, events Publisher) *EscrowService {
	return &EscrowService{DB: db, Events: events}
}

// LockResult reports the outcome of an escrow lock call.
type LockResult struct {
	Message     string
	FullyLocked bool
	Escrow      *models.Escrow
	Wallet      *models.Wallet
}

// LockEscrow debits the acting party's wallet by their contribution share and
// marks their side of the escrow paid. The escrow row is created lazily on
// the first lock attempt, splitting the deal budget 50/50. When the second
// party pays, the escrow locks and the deal becomes protected.
func (s *EscrowService) LockEscrow(dealID uint, actor Identity) (*LockResult, error) {
	res := &LockResult{}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}

		if deal.DealmakerID == nil {
			return InvalidState("Escrow can only be funded once the deal has a dealmaker")
		}
		if !deal.IsParticipant(actor.UserID) {
			return Unauthorized("Only the deal creator or counterpart can fund escrow")
		}

		escrow, err := escrowForUpdate(tx, dealID)
		if err != nil {
			if KindOf(err) != KindNotFound {
				return err
			}
			escrow, err = createEscrow(tx, deal)
			if err != nil {
				return err
			}
		}

		isCreator := actor.UserID == deal.CreatorID
		required := escrow.CreatorAmount
		if !isCreator {
			required = escrow.CounterpartAmount
		}

		if (isCreator && escrow.CreatorPaid) || (!isCreator && escrow.CounterpartPaid) {
			return InvalidState("You have already paid your escrow contribution for this deal")
		}

		wallet, err := findWallet(tx, actor.UserID)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return InsufficientFunds("Insufficient funds. Required: $%s, Available: $0.00",
					required.StringFixed(2))
			}
			return err
		}
		if wallet.Balance.LessThan(required) {
			return InsufficientFunds("Insufficient funds. Required: $%s, Available: $%s",
				required.StringFixed(2), wallet.Balance.StringFixed(2))
		}

		wallet.Balance = wallet.Balance.Sub(required)
		if err := tx.Save(wallet).Error; err != nil {
			return internal(err)
		}
		if err := appendTransaction(tx, wallet, models.TransactionEscrowLock, required, &deal.ID,
			fmt.Sprintf("Escrow contribution of $%s for deal #%d", required.StringFixed(2), deal.ID)); err != nil {
			return err
		}

		if isCreator {
			escrow.CreatorPaid = true
		} else {
			escrow.CounterpartPaid = true
		}

		if escrow.CreatorPaid && escrow.CounterpartPaid {
			escrow.Status = models.EscrowLocked
			deal.IsProtected = true
			deal.EscrowLocked = true
			deal.EscrowAmount = escrow.TotalAmount
			if err := tx.Save(deal).Error; err != nil {
				return internal(err)
			}
			res.FullyLocked = true
			res.Message = "Escrow fully locked. The deal is now payment-protected."
		} else {
			res.Message = "Your contribution has been recorded. Waiting for the other party to pay."
		}

		if err := tx.Save(escrow).Error; err != nil {
			return internal(err)
		}

		res.Escrow = escrow
		res.Wallet = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}

	updateType := "escrow_funded"
	if res.FullyLocked {
		updateType = "escrow_locked"
	}
	publish(s.Events, "deals", dealID, res.Escrow, updateType)
	return res, nil
}

// ReleaseEscrow transfers the pooled amount to the dealmaker's wallet. The
// completion workflow normally releases automatically; this explicit trigger
// covers deals that completed before their escrow locked, so it demands a
// participant caller and a completed deal, and stays idempotent through the
// status check.
func (s *EscrowService) ReleaseEscrow(dealID uint, actor Identity) (*models.Escrow, error) {
	var escrow *models.Escrow
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deal, err := dealForUpdate(tx, dealID)
		if err != nil {
			return err
		}
		if !deal.IsParticipant(actor.UserID) {
			return Unauthorized("Only the deal creator or counterpart can release escrow")
		}
		if !deal.IsCompleted {
			return InvalidState("Escrow is released only after both parties confirm completion")
		}

		escrow, err = releaseEscrowTx(tx, dealID)
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(s.Events, "deals", dealID, escrow, "escrow_released")
	return escrow, nil
}

// Get returns the escrow record for a deal.
func (s *EscrowService) Get(dealID uint) (*models.Escrow, error) {
	var escrow models.Escrow
	if err := s.DB.Where("deal_id = ?", dealID).First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No escrow exists for this deal yet")
		}
		return nil, internal(err)
	}
	return &escrow, nil
}

func escrowForUpdate(tx *gorm.DB, dealID uint) (*models.Escrow, error) {
	var escrow models.Escrow
	if err := database.LockForUpdate(tx).Where("deal_id = ?", dealID).First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No escrow exists for this deal yet")
		}
		return nil, internal(err)
	}
	return &escrow, nil
}

// createEscrow fixes the contribution split at creation time. The counterpart
// share is the remainder so the two halves always sum to the exact total.
func createEscrow(tx *gorm.DB, deal *models.Deal) (*models.Escrow, error) {
	creatorShare := deal.Budget.Div(decimal.NewFromInt(2)).Round(2)
	escrow := models.Escrow{
		DealID:            deal.ID,
		TotalAmount:       deal.Budget,
		CreatorAmount:     creatorShare,
		CounterpartAmount: deal.Budget.Sub(creatorShare),
		Status:            models.EscrowPending,
		DealmakerID:       *deal.DealmakerID,
		DealmakerUsername: deal.DealmakerUsername,
	}
	if err := tx.Create(&escrow).Error; err != nil {
		return nil, internal(err)
	}
	return &escrow, nil
}

// releaseEscrowTx performs the release inside the caller's transaction so the
// completion workflow can compose with it atomically. Only a locked escrow
// can release; the status check makes double-release a no-op failure.
func releaseEscrowTx(tx *gorm.DB, dealID uint) (*models.Escrow, error) {
	if _, err := dealForUpdate(tx, dealID); err != nil {
		return nil, err
	}

	escrow, err := escrowForUpdate(tx, dealID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != models.EscrowLocked {
		return nil, InvalidState("Cannot release escrow with status: %s", escrow.Status)
	}

	wallet, err := ensureWallet(tx, Identity{UserID: escrow.DealmakerID, Username: escrow.DealmakerUsername})
	if err != nil {
		return nil, err
	}

	wallet.Balance = wallet.Balance.Add(escrow.TotalAmount)
	if err := tx.Save(wallet).Error; err != nil {
		return nil, internal(err)
	}
	if err := appendTransaction(tx, wallet, models.TransactionPaymentReceived, escrow.TotalAmount, &dealID,
		fmt.Sprintf("Escrow payout of $%s for deal #%d", escrow.TotalAmount.StringFixed(2), dealID)); err != nil {
		return nil, err
	}

	now := time.Now()
	escrow.Status = models.EscrowReleased
	escrow.ReleasedAt = &now
	if err := tx.Save(escrow).Error; err != nil {
		return nil, internal(err)
	}
	return escrow, nil
}
