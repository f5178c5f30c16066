package grouporders

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

// Repository exposes persistence helpers for group orders, their contributed
// items, and the orders fanned out at finalization.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, group *models.GroupOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.GroupOrderStatus) error
	List(ctx context.Context, params listGroupOrdersParams) ([]models.GroupOrder, *pagination.Cursor, error)
	CreateItem(ctx context.Context, item *models.GroupOrderItem) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.GroupOrderItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, groupOrderID uuid.UUID) ([]models.GroupOrderItem, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	ListLinkedOrders(ctx context.Context, groupOrderID uuid.UUID) ([]models.Order, error)
	UpdateLinkedOrders(ctx context.Context, groupOrderID uuid.UUID, updates map[string]any) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a group orders repository bound to the provided database.
func NewRepository(dbConn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(dbConn)}
}

type listGroupOrdersParams struct {
	CreatorID *uuid.UUID
	Status    *enums.GroupOrderStatus
	Limit     int
	Cursor    *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, group *models.GroupOrder) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	return r.DB(ctx).Create(group).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := r.DB(ctx).
		Preload("Items").
		First(&group, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := db.ForUpdate(r.DB(ctx)).First(&group, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.GroupOrderStatus) error {
	return r.DB(ctx).
		Model(&models.GroupOrder{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) List(ctx context.Context, params listGroupOrdersParams) ([]models.GroupOrder, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).Model(&models.GroupOrder{}).Preload("Items")
	if params.CreatorID != nil {
		query = query.Where("creator_id = ?", *params.CreatorID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var groups []models.GroupOrder
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&groups).Error; err != nil {
		return nil, nil, err
	}

	if len(groups) > normalized {
		next := groups[normalized]
		groups = groups[:normalized]
		return groups, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return groups, nil, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.GroupOrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.DB(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.GroupOrderItem, error) {
	var item models.GroupOrderItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.GroupOrderItem{}, "id = ?", id).Error
}

func (r *repository) ListItems(ctx context.Context, groupOrderID uuid.UUID) ([]models.GroupOrderItem, error) {
	var items []models.GroupOrderItem
	err := r.DB(ctx).
		Where("group_order_id = ?", groupOrderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
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

func (r *repository) ListLinkedOrders(ctx context.Context, groupOrderID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Where("group_order_id = ?", groupOrderID).
		Find(&orders).Error
	return orders, err
}

func (r *repository) UpdateLinkedOrders(ctx context.Context, groupOrderID uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("group_order_id = ?", groupOrderID).
		Updates(updates).Error
}
