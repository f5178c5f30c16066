package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lookups into
// neighboring tables (listings, offers, reviews).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	FindListingForUpdate(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	UpdateListing(ctx context.Context, listingID uuid.UUID, updates map[string]any) error
	DeleteListingBids(ctx context.Context, listingID uuid.UUID) (int64, error)
	CountPendingForListing(ctx context.Context, listingID uuid.UUID) (int64, error)
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error)
	CreateReview(ctx context.Context, review *models.Review) error
	HasReview(ctx context.Context, listingID, reviewerID uuid.UUID) (bool, error)
}
