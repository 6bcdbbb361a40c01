package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/models"
)

func TestLockEscrowFirstContribution(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, alice, 500)

	res, err := NewEscrowService(db, nil).LockEscrow(deal.ID, alice)
	require.NoError(t, err)

	assert.False(t, res.FullyLocked)
	assert.Contains(t, res.Message, "Waiting for the other party")
	assert.Equal(t, models.EscrowPending, res.Escrow.Status)
	assert.True(t, res.Escrow.CreatorPaid)
	assert.False(t, res.Escrow.CounterpartPaid)
	assert.Equal(t, "800.00", res.Escrow.TotalAmount.StringFixed(2))
	assert.Equal(t, "400.00", res.Escrow.CreatorAmount.StringFixed(2))
	assert.Equal(t, "100.00", res.Wallet.Balance.StringFixed(2))
}

func TestLockEscrowInsufficientFunds(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, alice, 500)
	fund(t, db, bob, 300)

	escrows := NewEscrowService(db, nil)
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)

	_, err = escrows.LockEscrow(deal.ID, bob)
	require.Error(t, err)
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
	assert.Contains(t, err.Error(), "Required: $400.00")
	assert.Contains(t, err.Error(), "Available: $300.00")

	// The rejection must leave no trace.
	assert.Equal(t, "300.00", walletBalance(t, db, bob.UserID).StringFixed(2))
	var escrow models.Escrow
	require.NoError(t, db.Where("deal_id = ?", deal.ID).First(&escrow).Error)
	assert.False(t, escrow.CounterpartPaid)
}

func TestLockEscrowIdempotentPerParty(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, alice, 1000)

	escrows := NewEscrowService(db, nil)
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)

	_, err = escrows.LockEscrow(deal.ID, alice)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))

	// Debited exactly once.
	assert.Equal(t, "600.00", walletBalance(t, db, alice.UserID).StringFixed(2))
}

func TestLockEscrowBothPartiesProtectsDeal(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, alice, 500)
	fund(t, db, bob, 400)

	escrows := NewEscrowService(db, nil)
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)

	res, err := escrows.LockEscrow(deal.ID, bob)
	require.NoError(t, err)
	assert.True(t, res.FullyLocked)
	assert.Equal(t, models.EscrowLocked, res.Escrow.Status)
	assert.Equal(t, "0.00", res.Wallet.Balance.StringFixed(2))

	var updated models.Deal
	require.NoError(t, db.First(&updated, deal.ID).Error)
	assert.True(t, updated.IsProtected)
	assert.True(t, updated.EscrowLocked)
	assert.Equal(t, "800.00", updated.EscrowAmount.StringFixed(2))

	// Protected deals cannot be deleted or left, by anyone.
	deals := NewDealService(db, nil)
	err = deals.DeleteDeal(deal.ID, alice)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Contains(t, err.Error(), "payment-protected")

	_, err = deals.LeaveDeal(deal.ID, bob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment-protected")
}

func TestLockEscrowRequiresDealmaker(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	fund(t, db, alice, 1000)

	_, err := NewEscrowService(db, nil).LockEscrow(deal.ID, alice)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestLockEscrowOutsiderRejected(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, dave, 1000)

	_, err := NewEscrowService(db, nil).LockEscrow(deal.ID, dave)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestReleaseEscrowExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)

	// Both parties confirm completion before any escrow exists, so the
	// explicit trigger is the only release path left.
	completeDeal(t, db, deal.ID)

	fund(t, db, alice, 400)
	fund(t, db, bob, 400)
	escrows := NewEscrowService(db, nil)
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)
	_, err = escrows.LockEscrow(deal.ID, bob)
	require.NoError(t, err)

	escrow, err := escrows.ReleaseEscrow(deal.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowReleased, escrow.Status)
	require.NotNil(t, escrow.ReleasedAt)

	// The dealmaker's wallet was created lazily and credited the full pool.
	assert.Equal(t, "800.00", walletBalance(t, db, carol.UserID).StringFixed(2))

	// Double release fails and does not credit again.
	_, err = escrows.ReleaseEscrow(deal.ID, bob)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "800.00", walletBalance(t, db, carol.UserID).StringFixed(2))
}

func TestReleaseEscrowRequiresLockedStatus(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	completeDeal(t, db, deal.ID)
	fund(t, db, alice, 400)

	escrows := NewEscrowService(db, nil)
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)

	// Only one side paid; the escrow is still pending.
	_, err = escrows.ReleaseEscrow(deal.ID, alice)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestReleaseEscrowGuardedByRoleAndCompletion(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, alice, 400)
	fund(t, db, bob, 400)

	escrows := NewEscrowService(db, nil)
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)
	_, err = escrows.LockEscrow(deal.ID, bob)
	require.NoError(t, err)

	// An outsider cannot trigger the payout.
	_, err = escrows.ReleaseEscrow(deal.ID, dave)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	// Neither can a participant before both confirmed completion.
	_, err = escrows.ReleaseEscrow(deal.ID, alice)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))

	// Nothing moved: the escrow is still locked and the dealmaker unpaid.
	escrow, err := escrows.Get(deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowLocked, escrow.Status)
	var wallet models.Wallet
	assert.Error(t, db.Where("user_id = ?", carol.UserID).First(&wallet).Error)
}

type eventRecorder struct {
	types []string
}

func (r *eventRecorder) Publish(topic string, dealID uint, payload any, updateType string) error {
	r.types = append(r.types, updateType)
	return nil
}

func TestLockEscrowEventTypes(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)
	fund(t, db, alice, 400)
	fund(t, db, bob, 400)

	rec := &eventRecorder{}
	escrows := NewEscrowService(db, rec)

	// The partial contribution and the full lock are distinct transitions.
	_, err := escrows.LockEscrow(deal.ID, alice)
	require.NoError(t, err)
	_, err = escrows.LockEscrow(deal.ID, bob)
	require.NoError(t, err)

	require.Len(t, rec.types, 2)
	assert.Equal(t, "escrow_funded", rec.types[0])
	assert.Equal(t, "escrow_locked", rec.types[1])
}

func TestEscrowSplitSumsToTotal(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 555)
	fund(t, db, alice, 1000)

	res, err := NewEscrowService(db, nil).LockEscrow(deal.ID, alice)
	require.NoError(t, err)

	sum := res.Escrow.CreatorAmount.Add(res.Escrow.CounterpartAmount)
	assert.True(t, sum.Equal(res.Escrow.TotalAmount),
		"split %s + %s should equal %s",
		res.Escrow.CreatorAmount, res.Escrow.CounterpartAmount, res.Escrow.TotalAmount)
}
