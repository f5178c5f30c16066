package orders

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

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(dbConn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(dbConn)}
}

type listOrdersParams struct {
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	Status   *enums.OrderStatus
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := db.ForUpdate(r.DB(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).Model(&models.Order{}).Preload("Items")
	if params.BuyerID != nil {
		query = query.Where("buyer_id = ?", *params.BuyerID)
	}
	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		next := orders[normalized]
		orders = orders[:normalized]
		return orders, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return orders, nil, nil
}

func (r *repository) FindListingForUpdate(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := db.ForUpdate(r.DB(ctx)).First(&listing, "id = ?", listingID).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) UpdateListing(ctx context.Context, listingID uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(updates).Error
}

func (r *repository) DeleteListingBids(ctx context.Context, listingID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("listing_id = ?", listingID).Delete(&models.Bid{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountPendingForListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("listing_id = ? AND status = ?", listingID, enums.OrderStatusPendingPayment).
		Count(&count).Error
	return count, err
}

func (r *repository) FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.DB(ctx).First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.DB(ctx).Create(review).Error
}

func (r *repository) HasReview(ctx context.Context, listingID, reviewerID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Review{}).
		Where("listing_id = ? AND reviewer_id = ?", listingID, reviewerID).
		Count(&count).Error
	return count > 0, err
}
