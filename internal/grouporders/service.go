package grouporders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/notify"
	"github.com/sahilmehra/campustrade-backend/pkg/config"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type blacklistGuard interface {
	EnsureActive(ctx context.Context, userID uuid.UUID) error
}

// Service owns pooled group orders: the host opens a cart against an external
// platform, participants contribute lines until the cutoff, and finalization
// splits the delivery and handling fees proportionally into one order per
// contributor.
type Service interface {
	Create(ctx context.Context, input CreateGroupOrderInput) (*models.GroupOrder, error)
	Get(ctx context.Context, groupOrderID uuid.UUID) (*models.GroupOrder, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	AddItem(ctx context.Context, input AddItemInput) (*models.GroupOrderItem, error)
	RemoveItem(ctx context.Context, input RemoveItemInput) error
	Finalize(ctx context.Context, creatorID, groupOrderID uuid.UUID) (*FinalizeResult, error)
	BroadcastStatus(ctx context.Context, input BroadcastStatusInput) (*models.GroupOrder, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	trust   blacklistGuard
	emitter notify.Emitter
	cfg     config.GroupOrdersConfig
	now     func() time.Time
}

// CreateGroupOrderInput captures the host's pooled cart parameters.
type CreateGroupOrderInput struct {
	CreatorID        uuid.UUID
	Platform         string
	Cutoff           time.Time
	DeliveryFeeCents int
	PaymentMethods   []string
}

// AddItemInput is one participant's contributed line.
type AddItemInput struct {
	GroupOrderID uuid.UUID
	UserID       uuid.UUID
	Name         string
	AmountCents  int
	Qty          int
}

// RemoveItemInput identifies the line a participant wants withdrawn.
type RemoveItemInput struct {
	GroupOrderID uuid.UUID
	ItemID       uuid.UUID
	UserID       uuid.UUID
}

// BroadcastStatusInput carries the host's update on the external order.
type BroadcastStatusInput struct {
	GroupOrderID uuid.UUID
	CreatorID    uuid.UUID
	Status       enums.GroupOrderStatus
}

// ListParams configures the group order feed query.
type ListParams struct {
	CreatorID *uuid.UUID
	Status    *enums.GroupOrderStatus
	Limit     int
	Cursor    string
}

// ListResult wraps a page of group orders and the next cursor.
type ListResult struct {
	Items  []models.GroupOrder `json:"items"`
	Cursor string              `json:"cursor"`
}

// ParticipantShare is one contributor's settled amount after finalization.
type ParticipantShare struct {
	UserID       uuid.UUID `json:"user_id"`
	ItemsCents   int       `json:"items_cents"`
	PayableCents int       `json:"payable_cents"`
	OrderID      uuid.UUID `json:"order_id"`
}

// FinalizeResult reports the fan-out produced by finalization.
type FinalizeResult struct {
	GroupOrder *models.GroupOrder `json:"group_order"`
	Shares     []ParticipantShare `json:"shares"`
}

// NewService wires the group order service with its dependencies.
func NewService(repo Repository, tx txRunner, trust blacklistGuard, emitter notify.Emitter, cfg config.GroupOrdersConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("group orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if trust == nil {
		return nil, fmt.Errorf("trust guard required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("notification emitter required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		trust:   trust,
		emitter: emitter,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateGroupOrderInput) (*models.GroupOrder, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Platform == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform required")
	}
	if !input.Cutoff.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cutoff must be in the future")
	}
	if input.DeliveryFeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}
	methods, err := normalizePaymentMethods(input.PaymentMethods)
	if err != nil {
		return nil, err
	}

	if err := s.trust.EnsureActive(ctx, input.CreatorID); err != nil {
		return nil, err
	}

	group := &models.GroupOrder{
		CreatorID:        input.CreatorID,
		Platform:         input.Platform,
		Cutoff:           input.Cutoff.UTC(),
		Status:           enums.GroupOrderStatusOpen,
		DeliveryFeeCents: input.DeliveryFeeCents,
		PaymentMethods:   methods,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create group order")
	}
	return group, nil
}

func normalizePaymentMethods(raw []string) (pq.StringArray, error) {
	if len(raw) == 0 {
		return pq.StringArray{enums.PaymentMethodCash.String()}, nil
	}
	seen := make(map[string]bool, len(raw))
	methods := make(pq.StringArray, 0, len(raw))
	for _, m := range raw {
		if _, err := enums.ParsePaymentMethod(m); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
				WithDetails(map[string]any{"method": m})
		}
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	return methods, nil
}

func (s *service) Get(ctx context.Context, groupOrderID uuid.UUID) (*models.GroupOrder, error) {
	if groupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}

	group, err := s.repo.FindByID(ctx, groupOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
	}
	return group, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listGroupOrdersParams{
		CreatorID: params.CreatorID,
		Status:    params.Status,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list group orders")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.GroupOrderItem, error) {
	if input.GroupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item amount must be positive")
	}
	qty := input.Qty
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if err := s.trust.EnsureActive(ctx, input.UserID); err != nil {
		return nil, err
	}

	var item *models.GroupOrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		group, err := repo.FindByIDForUpdate(ctx, input.GroupOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if err := ensureOpen(group, s.now()); err != nil {
			return err
		}

		item = &models.GroupOrderItem{
			GroupOrderID: group.ID,
			UserID:       input.UserID,
			Name:         input.Name,
			AmountCents:  input.AmountCents,
			Qty:          qty,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add group order item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, input RemoveItemInput) error {
	if input.GroupOrderID == uuid.Nil || input.ItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group order id and item id required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		group, err := repo.FindByIDForUpdate(ctx, input.GroupOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if err := ensureOpen(group, s.now()); err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order item")
		}
		if item.GroupOrderID != group.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "group order item not found")
		}
		if item.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "participants can only remove their own items")
		}

		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove group order item")
		}
		return nil
	})
}

func ensureOpen(group *models.GroupOrder, now time.Time) error {
	if group.Status != enums.GroupOrderStatusOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "group order is no longer open")
	}
	if !now.Before(group.Cutoff) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "group order cutoff has passed")
	}
	return nil
}

// Finalize snapshots the pooled cart into one pending-payment order per
// contributor. Delivery and handling fees are split proportionally to each
// participant's item total; the whole fan-out commits or rolls back together.
func (s *service) Finalize(ctx context.Context, creatorID, groupOrderID uuid.UUID) (*FinalizeResult, error) {
	if groupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *FinalizeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		group, err := repo.FindByIDForUpdate(ctx, groupOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if group.CreatorID != creatorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the creator can finalize the group order")
		}
		if group.Status != enums.GroupOrderStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "group order already finalized")
		}

		items, err := repo.ListItems(ctx, group.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "group order has no items")
		}

		shares, err := s.fanOut(ctx, repo, group, items)
		if err != nil {
			return err
		}

		if err := repo.UpdateStatus(ctx, group.ID, enums.GroupOrderStatusPaymentPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update group order status")
		}
		group.Status = enums.GroupOrderStatusPaymentPending
		result = &FinalizeResult{GroupOrder: group, Shares: shares}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, share := range result.Shares {
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  share.UserID,
			Type:    enums.NotificationTypeGroupOrderAlert,
			Title:   "Group order finalized",
			Message: fmt.Sprintf("Your share of the %s order is %d", result.GroupOrder.Platform, share.PayableCents),
		})
	}
	return result, nil
}

func (s *service) fanOut(ctx context.Context, repo Repository, group *models.GroupOrder, items []models.GroupOrderItem) ([]ParticipantShare, error) {
	byUser := make(map[uuid.UUID][]models.GroupOrderItem)
	order := make([]uuid.UUID, 0)
	total := 0
	for _, item := range items {
		if _, ok := byUser[item.UserID]; !ok {
			order = append(order, item.UserID)
		}
		byUser[item.UserID] = append(byUser[item.UserID], item)
		total += item.LineTotalCents()
	}

	fees := decimal.NewFromInt(int64(group.DeliveryFeeCents + s.cfg.HandlingFeeCents))
	totalDec := decimal.NewFromInt(int64(total))

	method := enums.PaymentMethodCash
	if len(group.PaymentMethods) > 0 {
		if parsed, err := enums.ParsePaymentMethod(group.PaymentMethods[0]); err == nil {
			method = parsed
		}
	}

	shares := make([]ParticipantShare, 0, len(order))
	for _, userID := range order {
		lines := byUser[userID]
		itemsCents := 0
		for _, line := range lines {
			itemsCents += line.LineTotalCents()
		}

		itemsDec := decimal.NewFromInt(int64(itemsCents))
		share := decimal.Zero
		if total > 0 {
			share = itemsDec.Div(totalDec).Mul(fees)
		}
		payable := int(itemsDec.Add(share).Round(0).IntPart())
		if payable <= 0 {
			continue
		}

		groupID := group.ID
		participantOrder := &models.Order{
			BuyerID:       userID,
			SellerID:      group.CreatorID,
			GroupOrderID:  &groupID,
			TotalCents:    payable,
			Status:        enums.OrderStatusPendingPayment,
			PaymentStatus: enums.PaymentStatusPending,
			PaymentMethod: method,
		}
		for _, line := range lines {
			participantOrder.Items = append(participantOrder.Items, models.OrderItem{
				Name:       line.Name,
				PriceCents: line.AmountCents,
				Qty:        line.Qty,
			})
		}
		if err := repo.CreateOrder(ctx, participantOrder); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create participant order")
		}

		shares = append(shares, ParticipantShare{
			UserID:       userID,
			ItemsCents:   itemsCents,
			PayableCents: payable,
			OrderID:      participantOrder.ID,
		})
	}
	return shares, nil
}

// BroadcastStatus pushes the external order's progress onto every linked
// participant order and notifies the buyers.
func (s *service) BroadcastStatus(ctx context.Context, input BroadcastStatusInput) (*models.GroupOrder, error) {
	if input.GroupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var delivery enums.DeliveryStatus
	switch input.Status {
	case enums.GroupOrderStatusOrderPlaced:
		delivery = enums.DeliveryStatusOrderPlaced
	case enums.GroupOrderStatusReceived:
		delivery = enums.DeliveryStatusReceivedFromPartner
	case enums.GroupOrderStatusDelivered:
		delivery = enums.DeliveryStatusDelivered
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be order_placed, received, or delivered")
	}

	var group *models.GroupOrder
	var buyers []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, input.GroupOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if loaded.CreatorID != input.CreatorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the creator can broadcast status")
		}
		if loaded.Status == enums.GroupOrderStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "group order is not finalized yet")
		}

		if err := repo.UpdateStatus(ctx, loaded.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update group order status")
		}
		if err := repo.UpdateLinkedOrders(ctx, loaded.ID, map[string]any{
			"delivery_status": delivery,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update linked orders")
		}

		linked, err := repo.ListLinkedOrders(ctx, loaded.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list linked orders")
		}
		for _, o := range linked {
			buyers = append(buyers, o.BuyerID)
		}

		loaded.Status = input.Status
		group = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.EmitMany(ctx, buyers, notify.EmitInput{
		Type:    enums.NotificationTypeGroupOrderAlert,
		Title:   "Group order update",
		Message: fmt.Sprintf("The %s order is now %s", group.Platform, input.Status),
	})
	return group, nil
}
