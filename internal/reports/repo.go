package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/repo"
	"github.com/sahilmehra/campustrade-backend/pkg/db"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	"github.com/sahilmehra/campustrade-backend/pkg/pagination"
)

// Repository exposes persistence helpers for moderation reports.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Report, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params listReportsParams) ([]models.Report, *pagination.Cursor, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SoftDeleteListing(ctx context.Context, listingID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(dbConn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(dbConn)}
}

type listReportsParams struct {
	Status *enums.ReportStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	return r.DB(ctx).Create(report).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.DB(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := db.ForUpdate(r.DB(ctx)).First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Report{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params listReportsParams) ([]models.Report, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).Model(&models.Report{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var reports []models.Report
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&reports).Error; err != nil {
		return nil, nil, err
	}

	if len(reports) > normalized {
		next := reports[normalized]
		reports = reports[:normalized]
		return reports, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return reports, nil, nil
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) SoftDeleteListing(ctx context.Context, listingID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Update("status", enums.ListingStatusDeleted).Error
}
