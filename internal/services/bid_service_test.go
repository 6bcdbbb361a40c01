package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/models"
)

func TestSelectBidConsensusFinalizes(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	bid, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(800))
	require.NoError(t, err)

	// First selection alone does not finalize.
	updated, finalized, err := bids.SelectBid(deal.ID, bid.ID, alice)
	require.NoError(t, err)
	assert.False(t, finalized)
	assert.Nil(t, updated.DealmakerID)
	require.NotNil(t, updated.CreatorSelectedBidID)
	assert.Equal(t, bid.ID, *updated.CreatorSelectedBidID)

	// Counterpart agreeing on the same bid finalizes the deal.
	updated, finalized, err = bids.SelectBid(deal.ID, bid.ID, bob)
	require.NoError(t, err)
	assert.True(t, finalized)
	require.NotNil(t, updated.DealmakerID)
	assert.Equal(t, carol.UserID, *updated.DealmakerID)
	assert.Equal(t, "carol", updated.DealmakerUsername)
	assert.Equal(t, "800.00", updated.Budget.StringFixed(2))

	// All bids, including the winning one, are gone.
	var count int64
	require.NoError(t, db.Model(&models.Bid{}).Where("deal_id = ?", deal.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSelectBidToggleClearsSelection(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	bid, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(500))
	require.NoError(t, err)

	updated, _, err := bids.SelectBid(deal.ID, bid.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, updated.CreatorSelectedBidID)

	// Selecting the same bid again clears the selection.
	updated, finalized, err := bids.SelectBid(deal.ID, bid.ID, alice)
	require.NoError(t, err)
	assert.False(t, finalized)
	assert.Nil(t, updated.CreatorSelectedBidID)
	assert.Nil(t, updated.DealmakerID)
}

func TestSelectBidReplacesPriorSelection(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	bid1, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(700))
	require.NoError(t, err)
	bid2, err := bids.PlaceBid(deal.ID, dave, decimal.NewFromInt(650))
	require.NoError(t, err)

	_, _, err = bids.SelectBid(deal.ID, bid1.ID, alice)
	require.NoError(t, err)

	// A new selection by the same party replaces the old one.
	updated, finalized, err := bids.SelectBid(deal.ID, bid2.ID, alice)
	require.NoError(t, err)
	assert.False(t, finalized)
	require.NotNil(t, updated.CreatorSelectedBidID)
	assert.Equal(t, bid2.ID, *updated.CreatorSelectedBidID)

	// Counterpart picking the other bid does not converge.
	updated, finalized, err = bids.SelectBid(deal.ID, bid1.ID, bob)
	require.NoError(t, err)
	assert.False(t, finalized)
	assert.Nil(t, updated.DealmakerID)

	// Counterpart switching to the creator's choice converges on dave.
	updated, finalized, err = bids.SelectBid(deal.ID, bid2.ID, bob)
	require.NoError(t, err)
	assert.True(t, finalized)
	require.NotNil(t, updated.DealmakerID)
	assert.Equal(t, dave.UserID, *updated.DealmakerID)
	assert.Equal(t, "650.00", updated.Budget.StringFixed(2))
}

func TestSelectBidRejectsFinalizedDeal(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	finalizeDeal(t, db, deal, 800)

	_, _, err := NewBidService(db, nil).SelectBid(deal.ID, 42, alice)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestSelectBidAuthorization(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	bid, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(500))
	require.NoError(t, err)

	_, _, err = bids.SelectBid(deal.ID, bid.ID, dave)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestPlaceBidRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	_, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(500))
	require.NoError(t, err)

	_, err = bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(450))
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestPlaceBidRejectsParticipants(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	_, err := bids.PlaceBid(deal.ID, alice, decimal.NewFromInt(500))
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = bids.PlaceBid(deal.ID, bob, decimal.NewFromInt(500))
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestBidMutationsOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	deal := newDeal(t, db, 1000)
	bids := NewBidService(db, nil)

	bid, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(500))
	require.NoError(t, err)

	_, err = bids.UpdateBid(bid.ID, dave, decimal.NewFromInt(400))
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	err = bids.WithdrawBid(bid.ID, dave)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	updated, err := bids.UpdateBid(bid.ID, carol, decimal.NewFromInt(400))
	require.NoError(t, err)
	assert.Equal(t, "400.00", updated.Price.StringFixed(2))

	require.NoError(t, bids.WithdrawBid(bid.ID, carol))

	remaining, err := bids.ListBids(deal.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
