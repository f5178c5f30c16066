package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/repo"
	"github.com/sahilmehra/campustrade-backend/pkg/db"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	"github.com/sahilmehra/campustrade-backend/pkg/pagination"
)

// Repository exposes persistence helpers for listings and bids.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params listListingsParams) ([]models.Listing, *pagination.Cursor, error)
	ListExpiredActiveAuctions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	CreateBid(ctx context.Context, bid *models.Bid) error
	ListBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)
	HighestBid(ctx context.Context, listingID uuid.UUID) (*models.Bid, error)
	DistinctBidders(ctx context.Context, listingID uuid.UUID) ([]uuid.UUID, error)
	DeleteBids(ctx context.Context, listingID uuid.UUID) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a listings repository bound to the provided database.
func NewRepository(dbConn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(dbConn)}
}

type listListingsParams struct {
	Limit    int
	Cursor   *pagination.Cursor
	Status   *enums.ListingStatus
	Category string
	OwnerID  *uuid.UUID
	Query    string
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	return r.DB(ctx).Create(listing).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.DB(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := db.ForUpdate(r.DB(ctx)).First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params listListingsParams) ([]models.Listing, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).Model(&models.Listing{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status <> ?", enums.ListingStatusDeleted)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}
	if params.Query != "" {
		like := "%" + params.Query + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var listings []models.Listing
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&listings).Error; err != nil {
		return nil, nil, err
	}

	if len(listings) > normalized {
		next := listings[normalized]
		listings = listings[:normalized]
		return listings, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return listings, nil, nil
}

func (r *repository) ListExpiredActiveAuctions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.Listing{}).
		Where("is_auction = ? AND status = ? AND auction_ends_at IS NOT NULL AND auction_ends_at < ?",
			true, enums.ListingStatusActive, now).
		Order("auction_ends_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) CreateBid(ctx context.Context, bid *models.Bid) error {
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	return r.DB(ctx).Create(bid).Error
}

func (r *repository) ListBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.DB(ctx).
		Where("listing_id = ?", listingID).
		Order("amount_cents DESC, created_at ASC").
		Find(&bids).Error
	return bids, err
}

func (r *repository) HighestBid(ctx context.Context, listingID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.DB(ctx).
		Where("listing_id = ?", listingID).
		Order("amount_cents DESC, created_at ASC").
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repository) DistinctBidders(ctx context.Context, listingID uuid.UUID) ([]uuid.UUID, error) {
	var bidders []uuid.UUID
	err := r.DB(ctx).
		Model(&models.Bid{}).
		Where("listing_id = ?", listingID).
		Distinct("bidder_id").
		Pluck("bidder_id", &bidders).Error
	return bidders, err
}

func (r *repository) DeleteBids(ctx context.Context, listingID uuid.UUID) (int64, error) {
	result := r.DB(ctx).
		Where("listing_id = ?", listingID).
		Delete(&models.Bid{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
	}
	return r.DB(ctx).Create(order).Error
}
