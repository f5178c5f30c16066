package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/listings"
	"github.com/sahilmehra/campustrade-backend/internal/notify"
	"github.com/sahilmehra/campustrade-backend/internal/trust"
	"github.com/sahilmehra/campustrade-backend/pkg/config"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  avatar_url TEXT,
  role TEXT NOT NULL DEFAULT 'member',
  trust_penalty INTEGER NOT NULL DEFAULT 0,
  failed_payments INTEGER NOT NULL DEFAULT 0,
  blacklisted_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  price_cents INTEGER NOT NULL,
  mrp_cents INTEGER,
  negotiable INTEGER NOT NULL DEFAULT 0,
  is_auction INTEGER NOT NULL DEFAULT 0,
  allow_bids INTEGER NOT NULL DEFAULT 1,
  auction_ends_at DATETIME,
  status TEXT NOT NULL DEFAULT 'active',
  payment_methods TEXT NOT NULL DEFAULT '{cash}',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS bids (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  bidder_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  listing_id TEXT,
  group_order_id TEXT,
  total_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_payment',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  delivery_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'cash',
  payment_screenshot_url TEXT,
  rejection_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  listing_id TEXT,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  reviewer_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newOrdersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	trustSvc, err := trust.NewService(trust.NewRepository(db), config.TrustConfig{
		PenaltyStep:        10,
		DeliveryReward:     5,
		BlacklistThreshold: 5,
		BlacklistBase:      24 * time.Hour,
	})
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test"})
	emitter, err := notify.NewEmitter(notify.NewRepository(db), logg)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, trustSvc, emitter)
	require.NoError(t, err)
	return svc
}

func seedOrderUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s@campus.edu", uuid.NewString()[:8]),
		PasswordHash: "x",
		FirstName:    "Order",
		LastName:     "User",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedSaleListing(t *testing.T, db *gorm.DB, owner uuid.UUID, price int, methods []string) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:             uuid.New(),
		OwnerID:        owner,
		Title:          "Desk lamp",
		PriceCents:     price,
		Negotiable:     true,
		Status:         enums.ListingStatusActive,
		PaymentMethods: methods,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestCreateOrder_cashPurchase(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 150000, []string{"cash"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 150000, order.TotalCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Desk lamp", order.Items[0].Name)

	var notified int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", seller.ID).Count(&notified).Error)
	assert.Equal(t, int64(1), notified)

	// Second buyer is blocked while the first order is pending.
	other := seedOrderUser(t, db)
	_, err = svc.Create(context.Background(), CreateOrderInput{
		BuyerID: other.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateOrder_guards(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 150000, []string{"cash"})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: seller.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodUPI,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	until := time.Now().UTC().Add(time.Hour)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).
		Update("blacklisted_until", until).Error)
	_, err = svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeBlacklisted, pkgerrors.As(err).Code())
}

func TestCreateOrder_acceptedOfferPricing(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 200000, []string{"cash", "upi"})

	offer := &models.Offer{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		UserID:      buyer.ID,
		AmountCents: 170000,
		Status:      enums.OfferStatusAccepted,
	}
	require.NoError(t, db.Create(offer).Error)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, OfferID: &offer.ID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 170000, order.TotalCents)

	// A pending offer cannot back an order.
	pending := &models.Offer{
		ID: uuid.New(), ListingID: listing.ID, UserID: buyer.ID,
		AmountCents: 160000, Status: enums.OfferStatusPending,
	}
	require.NoError(t, db.Create(pending).Error)
	_, err = svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, OfferID: &pending.ID,
		PaymentMethod: enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSubmitPaymentProof(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 90000, []string{"cash", "upi"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodUPI,
	})
	require.NoError(t, err)

	// UPI demands a screenshot.
	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: seller.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	shot := "https://cdn.campus.edu/proofs/upi.png"
	submitted, err := svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID, ScreenshotURL: &shot,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusVerificationPending, submitted.PaymentStatus)

	// Proof cannot be resubmitted while verification is pending.
	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID, ScreenshotURL: &shot,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestVerifyPayment_approveCompletesSale(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 120000, []string{"cash"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)

	// Cash needs no screenshot.
	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID,
	})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID, ActorID: buyer.ID, Decision: enums.DecisionApprove,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	verified, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID, ActorID: seller.ID, Decision: enums.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusVerified, verified.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCompleted, verified.Status)

	var sold models.Listing
	require.NoError(t, db.First(&sold, "id = ?", listing.ID).Error)
	assert.Equal(t, enums.ListingStatusSold, sold.Status)
}

func TestVerifyPayment_rejectRecordsFailedPayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 120000, []string{"cash"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)
	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID,
	})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID, ActorID: seller.ID, Decision: enums.DecisionReject,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	reason := "screenshot does not match the amount"
	rejected, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID, ActorID: seller.ID, Decision: enums.DecisionReject, Reason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, rejected.Status)
	assert.Equal(t, enums.PaymentStatusRejected, rejected.PaymentStatus)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, reason, *rejected.RejectionReason)

	var rated models.User
	require.NoError(t, db.First(&rated, "id = ?", buyer.ID).Error)
	assert.Equal(t, 1, rated.FailedPayments)
	assert.Equal(t, 10, rated.TrustPenalty)

	var note models.Notification
	require.NoError(t, db.Where("user_id = ? AND title = ?", buyer.ID, "Payment rejected").First(&note).Error)

	// The buyer may retry with corrected proof; the stale reason is wiped.
	resubmitted, err := svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusVerificationPending, resubmitted.PaymentStatus)
	assert.Nil(t, resubmitted.RejectionReason)
}

func TestCancel_reactivatesSoldListing(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 80000, []string{"cash"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)

	// A sale marks the listing sold before payment is verified.
	require.NoError(t, db.Model(&models.Listing{}).Where("id = ?", listing.ID).
		Update("status", enums.ListingStatusSold).Error)

	cancelled, err := svc.Cancel(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	var back models.Listing
	require.NoError(t, db.First(&back, "id = ?", listing.ID).Error)
	assert.Equal(t, enums.ListingStatusActive, back.Status)

	_, err = svc.Cancel(context.Background(), buyer.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func newAuctionService(t *testing.T, db *gorm.DB) listings.Service {
	t.Helper()

	trustSvc, err := trust.NewService(trust.NewRepository(db), config.TrustConfig{
		PenaltyStep:        10,
		DeliveryReward:     5,
		BlacklistThreshold: 5,
		BlacklistBase:      24 * time.Hour,
	})
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test"})
	emitter, err := notify.NewEmitter(notify.NewRepository(db), logg)
	require.NoError(t, err)

	svc, err := listings.NewService(listings.NewRepository(db), gormTxRunner{db: db}, trustSvc, emitter)
	require.NoError(t, err)
	return svc
}

func TestCreateOrder_auctionCannotBeBoughtDirectly(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)

	endsAt := time.Now().UTC().Add(time.Hour)
	auction := &models.Listing{
		ID:             uuid.New(),
		OwnerID:        seller.ID,
		Title:          "Mountain bike",
		PriceCents:     40000,
		IsAuction:      true,
		AllowBids:      true,
		AuctionEndsAt:  &endsAt,
		Status:         enums.ListingStatusActive,
		PaymentMethods: []string{"cash"},
	}
	require.NoError(t, db.Create(auction).Error)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: auction.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("listing_id = ?", auction.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCancel_auctionWinClosesAuction(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)
	auctions := newAuctionService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)

	endsAt := time.Now().UTC().Add(-time.Minute)
	auction := &models.Listing{
		ID:             uuid.New(),
		OwnerID:        seller.ID,
		Title:          "Dorm fridge",
		PriceCents:     30000,
		IsAuction:      true,
		AllowBids:      true,
		AuctionEndsAt:  &endsAt,
		Status:         enums.ListingStatusActive,
		PaymentMethods: []string{"cash"},
	}
	require.NoError(t, db.Create(auction).Error)
	require.NoError(t, db.Create(&models.Bid{
		ID: uuid.New(), ListingID: auction.ID, BidderID: buyer.ID, AmountCents: 30000,
	}).Error)

	outcome, err := auctions.Finalize(context.Background(), auction.ID)
	require.NoError(t, err)
	require.True(t, outcome.Sold)
	require.NotNil(t, outcome.OrderID)

	cancelled, err := svc.Cancel(context.Background(), buyer.ID, *outcome.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	// The deadline has passed, so the auction closes instead of reopening
	// with the withdrawn winner's bid still on the book.
	var closed models.Listing
	require.NoError(t, db.First(&closed, "id = ?", auction.ID).Error)
	assert.Equal(t, enums.ListingStatusExpired, closed.Status)

	var bidCount int64
	require.NoError(t, db.Model(&models.Bid{}).Where("listing_id = ?", auction.ID).Count(&bidCount).Error)
	assert.Equal(t, int64(0), bidCount)

	again, err := auctions.Finalize(context.Background(), auction.ID)
	require.NoError(t, err)
	assert.False(t, again.Finalized)

	var buyerOrders int64
	require.NoError(t, db.Model(&models.Order{}).Where("buyer_id = ?", buyer.ID).Count(&buyerOrders).Error)
	assert.Equal(t, int64(1), buyerOrders)
}

func TestDeliveryLifecycle(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", seller.ID).
		Update("trust_penalty", 20).Error)
	listing := seedSaleListing(t, db, seller.ID, 60000, []string{"cash"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)

	// Shipping before payment verification is blocked.
	_, err = svc.MarkShipped(context.Background(), seller.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// Receiving before the parcel ships is blocked too, and leaves no trace.
	_, err = svc.MarkReceived(context.Background(), buyer.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	var untouched models.Order
	require.NoError(t, db.First(&untouched, "id = ?", order.ID).Error)
	assert.Equal(t, enums.DeliveryStatusPending, untouched.DeliveryStatus)

	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID,
	})
	require.NoError(t, err)
	_, err = svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID, ActorID: seller.ID, Decision: enums.DecisionApprove,
	})
	require.NoError(t, err)

	shipped, err := svc.MarkShipped(context.Background(), seller.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusShipped, shipped.DeliveryStatus)

	_, err = svc.MarkReceived(context.Background(), seller.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	received, err := svc.MarkReceived(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, received.DeliveryStatus)

	// Confirmed delivery claws back part of the seller's penalty.
	var rewarded models.User
	require.NoError(t, db.First(&rewarded, "id = ?", seller.ID).Error)
	assert.Equal(t, 15, rewarded.TrustPenalty)
}

func TestReview_onceAfterDelivery(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)
	listing := seedSaleListing(t, db, seller.ID, 50000, []string{"cash"})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), ReviewInput{
		OrderID: order.ID, BuyerID: buyer.ID, Rating: 5,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.SubmitPaymentProof(context.Background(), SubmitPaymentProofInput{
		OrderID: order.ID, BuyerID: buyer.ID,
	})
	require.NoError(t, err)
	_, err = svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID, ActorID: seller.ID, Decision: enums.DecisionApprove,
	})
	require.NoError(t, err)
	_, err = svc.MarkShipped(context.Background(), seller.ID, order.ID)
	require.NoError(t, err)
	_, err = svc.MarkReceived(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)

	comment := "exactly as described"
	review, err := svc.Review(context.Background(), ReviewInput{
		OrderID: order.ID, BuyerID: buyer.ID, Rating: 4, Comment: &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)

	_, err = svc.Review(context.Background(), ReviewInput{
		OrderID: order.ID, BuyerID: buyer.ID, Rating: 5,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.Review(context.Background(), ReviewInput{
		OrderID: order.ID, BuyerID: buyer.ID, Rating: 7,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListOrders_pagesBySide(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db)

	seller := seedOrderUser(t, db)
	buyer := seedOrderUser(t, db)

	for i := 0; i < 3; i++ {
		listing := seedSaleListing(t, db, seller.ID, 10000*(i+1), []string{"cash"})
		order, err := svc.Create(context.Background(), CreateOrderInput{
			BuyerID: buyer.ID, ListingID: listing.ID, PaymentMethod: enums.PaymentMethodCash,
		})
		require.NoError(t, err)
		_, err = svc.Cancel(context.Background(), buyer.ID, order.ID)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), ListOrdersParams{UserID: buyer.ID, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(context.Background(), ListOrdersParams{
		UserID: buyer.ID, Limit: 2, Cursor: page.Cursor,
	})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)

	sold, err := svc.List(context.Background(), ListOrdersParams{UserID: seller.ID, AsSeller: true, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, sold.Items, 3)

	none, err := svc.List(context.Background(), ListOrdersParams{UserID: uuid.New(), Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
}
