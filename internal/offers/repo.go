package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/repo"
	"github.com/sahilmehra/campustrade-backend/pkg/db"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// Repository exposes persistence helpers for offers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error
}

type repository struct {
	repo.Base
}

// NewRepository returns an offers repository bound to the provided database.
func NewRepository(dbConn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(dbConn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	return r.DB(ctx).Create(offer).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.DB(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := db.ForUpdate(r.DB(ctx)).First(&offer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.DB(ctx).First(&listing, "id = ?", listingID).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.DB(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	return r.DB(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("status", status).Error
}
