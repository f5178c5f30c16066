package offers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/notify"
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

func setupOffersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
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
		`CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
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

func newOffersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test"})
	emitter, err := notify.NewEmitter(notify.NewRepository(db), logg)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, emitter)
	require.NoError(t, err)
	return svc
}

func seedNegotiableListing(t *testing.T, db *gorm.DB, owner uuid.UUID) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:             uuid.New(),
		OwnerID:        owner,
		Title:          "Mini fridge",
		PriceCents:     400000,
		Negotiable:     true,
		Status:         enums.ListingStatusActive,
		PaymentMethods: []string{"cash", "upi"},
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestPlaceOffer(t *testing.T) {
	db := setupOffersTestDB(t)
	svc := newOffersService(t, db)

	owner := uuid.New()
	buyer := uuid.New()
	listing := seedNegotiableListing(t, db, owner)

	offer, err := svc.Place(context.Background(), PlaceOfferInput{
		ListingID: listing.ID, UserID: buyer, AmountCents: 350000,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusPending, offer.Status)

	var notified int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", owner).Count(&notified).Error)
	assert.Equal(t, int64(1), notified)

	_, err = svc.Place(context.Background(), PlaceOfferInput{
		ListingID: listing.ID, UserID: owner, AmountCents: 350000,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	nonNegotiable := &models.Listing{
		ID: uuid.New(), OwnerID: owner, Title: "Books", PriceCents: 10000,
		Status: enums.ListingStatusActive, PaymentMethods: []string{"cash"},
	}
	require.NoError(t, db.Create(nonNegotiable).Error)
	_, err = svc.Place(context.Background(), PlaceOfferInput{
		ListingID: nonNegotiable.ID, UserID: buyer, AmountCents: 5000,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestDecideOffer(t *testing.T) {
	db := setupOffersTestDB(t)
	svc := newOffersService(t, db)

	owner := uuid.New()
	buyer := uuid.New()
	listing := seedNegotiableListing(t, db, owner)

	offer, err := svc.Place(context.Background(), PlaceOfferInput{
		ListingID: listing.ID, UserID: buyer, AmountCents: 350000,
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), DecideOfferInput{
		OfferID: offer.ID, ActorID: buyer, Decision: enums.DecisionApprove,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	decided, err := svc.Decide(context.Background(), DecideOfferInput{
		OfferID: offer.ID, ActorID: owner, Decision: enums.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusAccepted, decided.Status)

	// The decision is one-way.
	_, err = svc.Decide(context.Background(), DecideOfferInput{
		OfferID: offer.ID, ActorID: owner, Decision: enums.DecisionReject,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var offerNote models.Notification
	require.NoError(t, db.Where("user_id = ? AND title = ?", buyer, "Offer accepted").First(&offerNote).Error)
}

func TestListForListing(t *testing.T) {
	db := setupOffersTestDB(t)
	svc := newOffersService(t, db)

	owner := uuid.New()
	listing := seedNegotiableListing(t, db, owner)
	_, err := svc.Place(context.Background(), PlaceOfferInput{
		ListingID: listing.ID, UserID: uuid.New(), AmountCents: 300000,
	})
	require.NoError(t, err)

	offers, err := svc.ListForListing(context.Background(), owner, listing.ID)
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	_, err = svc.ListForListing(context.Background(), uuid.New(), listing.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
