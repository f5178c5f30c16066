package reports

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

func setupReportsTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  reporter_id TEXT NOT NULL,
  reported_id TEXT NOT NULL,
  listing_id TEXT,
  order_id TEXT,
  reason TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  resolved_at DATETIME,
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

func newReportsService(t *testing.T, db *gorm.DB) Service {
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

func seedReportUser(t *testing.T, db *gorm.DB, role enums.Role) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s@campus.edu", uuid.NewString()[:8]),
		PasswordHash: "x",
		FirstName:    "Report",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestFileReport(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newReportsService(t, db)

	reporter := seedReportUser(t, db, enums.RoleMember)
	reported := seedReportUser(t, db, enums.RoleMember)

	report, err := svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID, ReportedID: reported.ID, Reason: "counterfeit goods",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusPending, report.Status)

	_, err = svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID, ReportedID: reporter.ID, Reason: "self",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID, ReportedID: reported.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID, ReportedID: uuid.New(), Reason: "ghost",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestResolve_approvePenalizesReported(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newReportsService(t, db)

	reporter := seedReportUser(t, db, enums.RoleMember)
	reported := seedReportUser(t, db, enums.RoleMember)
	moderator := seedReportUser(t, db, enums.RoleModerator)

	listing := &models.Listing{
		ID: uuid.New(), OwnerID: reported.ID, Title: "Fake sneakers",
		PriceCents: 500000, Status: enums.ListingStatusActive,
		PaymentMethods: []string{"cash"},
	}
	require.NoError(t, db.Create(listing).Error)

	report, err := svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID, ReportedID: reported.ID,
		ListingID: &listing.ID, Reason: "counterfeit goods",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), ResolveReportInput{
		ReportID: report.ID, ActorID: reporter.ID, Decision: enums.DecisionApprove,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	resolved, err := svc.Resolve(context.Background(), ResolveReportInput{
		ReportID: report.ID, ActorID: moderator.ID, Decision: enums.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusResolvedApprove, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	var removed models.Listing
	require.NoError(t, db.First(&removed, "id = ?", listing.ID).Error)
	assert.Equal(t, enums.ListingStatusDeleted, removed.Status)

	var penalized models.User
	require.NoError(t, db.First(&penalized, "id = ?", reported.ID).Error)
	assert.Equal(t, 10, penalized.TrustPenalty)

	var untouched models.User
	require.NoError(t, db.First(&untouched, "id = ?", reporter.ID).Error)
	assert.Equal(t, 0, untouched.TrustPenalty)

	var notified int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("type = ?", enums.NotificationTypeReportAlert).Count(&notified).Error)
	assert.Equal(t, int64(2), notified)

	// Resolution is exactly-once.
	_, err = svc.Resolve(context.Background(), ResolveReportInput{
		ReportID: report.ID, ActorID: moderator.ID, Decision: enums.DecisionReject,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var penaltyAfter models.User
	require.NoError(t, db.First(&penaltyAfter, "id = ?", reported.ID).Error)
	assert.Equal(t, 10, penaltyAfter.TrustPenalty)
}

func TestResolve_rejectPenalizesReporter(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newReportsService(t, db)

	reporter := seedReportUser(t, db, enums.RoleMember)
	reported := seedReportUser(t, db, enums.RoleMember)
	moderator := seedReportUser(t, db, enums.RoleModerator)

	report, err := svc.File(context.Background(), FileReportInput{
		ReporterID: reporter.ID, ReportedID: reported.ID, Reason: "late reply",
	})
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), ResolveReportInput{
		ReportID: report.ID, ActorID: moderator.ID, Decision: enums.DecisionReject,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusResolvedReject, resolved.Status)

	var penalized models.User
	require.NoError(t, db.First(&penalized, "id = ?", reporter.ID).Error)
	assert.Equal(t, 10, penalized.TrustPenalty)

	var untouched models.User
	require.NoError(t, db.First(&untouched, "id = ?", reported.ID).Error)
	assert.Equal(t, 0, untouched.TrustPenalty)

	// Only the reporter hears about a dismissal.
	var notes []models.Notification
	require.NoError(t, db.Where("type = ?", enums.NotificationTypeReportAlert).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, reporter.ID, notes[0].UserID)
}

func TestListReports_moderatorQueue(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newReportsService(t, db)

	reporter := seedReportUser(t, db, enums.RoleMember)
	reported := seedReportUser(t, db, enums.RoleMember)
	moderator := seedReportUser(t, db, enums.RoleModerator)

	for i := 0; i < 3; i++ {
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: reporter.ID, ReportedID: reported.ID, Reason: "spam",
		})
		require.NoError(t, err)
	}

	_, err := svc.List(context.Background(), ListParams{ActorID: reporter.ID, Limit: 10})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	pending := enums.ReportStatusPending
	page, err := svc.List(context.Background(), ListParams{
		ActorID: moderator.ID, Status: &pending, Limit: 2,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(context.Background(), ListParams{
		ActorID: moderator.ID, Status: &pending, Limit: 2, Cursor: page.Cursor,
	})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
}
