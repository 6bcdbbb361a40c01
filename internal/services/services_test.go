package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dealdesk/internal/models"
)

var (
	alice = Identity{UserID: 1, Username: "alice"}
	bob   = Identity{UserID: 2, Username: "bob"}
	carol = Identity{UserID: 3, Username: "carol"}
	dave  = Identity{UserID: 4, Username: "dave"}
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Deal{},
		&models.Bid{},
		&models.Escrow{},
		&models.Wallet{},
		&models.Transaction{},
		&models.Dispute{},
		&models.DealmakerRequest{},
		&models.Review{},
		&models.Notification{},
	))
	return db
}

// newDeal creates a deal owned by alice with bob joined as counterpart.
func newDeal(t *testing.T, db *gorm.DB, budget int64) *models.Deal {
	t.Helper()

	svc := NewDealService(db, nil)
	deal, err := svc.CreateDeal(alice, CreateDealInput{
		Title:    "Warehouse clearance",
		Budget:   decimal.NewFromInt(budget),
		Timeline: "2 weeks",
	})
	require.NoError(t, err)

	deal, err = svc.JoinDeal(deal.ID, bob)
	require.NoError(t, err)
	return deal
}

// finalizeDeal runs the full consensus path: carol bids the given price and
// both participants select her bid, making her the dealmaker.
func finalizeDeal(t *testing.T, db *gorm.DB, deal *models.Deal, price int64) *models.Deal {
	t.Helper()

	bids := NewBidService(db, nil)
	bid, err := bids.PlaceBid(deal.ID, carol, decimal.NewFromInt(price))
	require.NoError(t, err)

	_, finalized, err := bids.SelectBid(deal.ID, bid.ID, alice)
	require.NoError(t, err)
	require.False(t, finalized)

	updated, finalized, err := bids.SelectBid(deal.ID, bid.ID, bob)
	require.NoError(t, err)
	require.True(t, finalized)
	return updated
}

// completeDeal records both participants' completion confirmations.
func completeDeal(t *testing.T, db *gorm.DB, dealID uint) {
	t.Helper()

	deals := NewDealService(db, nil)
	_, err := deals.MarkComplete(dealID, alice)
	require.NoError(t, err)
	_, err = deals.MarkComplete(dealID, bob)
	require.NoError(t, err)
}

// fund gives the identity a wallet holding the given amount.
func fund(t *testing.T, db *gorm.DB, who Identity, amount int64) {
	t.Helper()

	_, err := NewWalletService(db, nil).Deposit(who, decimal.NewFromInt(amount))
	require.NoError(t, err)
}

func walletBalance(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&wallet).Error)
	return wallet.Balance
}
