package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/notify"
	"github.com/sahilmehra/campustrade-backend/internal/trust"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle. Payment and delivery progress on
// independent tracks; delivery is gated behind payment verification.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListOrdersParams) (*ListResult, error)
	SubmitPaymentProof(ctx context.Context, input SubmitPaymentProofInput) (*models.Order, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.Order, error)
	Cancel(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	MarkShipped(ctx context.Context, sellerID, orderID uuid.UUID) (*models.Order, error)
	MarkReceived(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	Review(ctx context.Context, input ReviewInput) (*models.Review, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	trust   trust.Service
	emitter notify.Emitter
}

// CreateOrderInput captures a direct or offer-based purchase. OfferID, when
// set, must reference an accepted offer owned by the buyer; the order is then
// priced at the offer amount instead of the listing price.
type CreateOrderInput struct {
	BuyerID       uuid.UUID
	ListingID     uuid.UUID
	OfferID       *uuid.UUID
	PaymentMethod enums.PaymentMethod
}

// SubmitPaymentProofInput attaches payment evidence to an order.
type SubmitPaymentProofInput struct {
	OrderID       uuid.UUID
	BuyerID       uuid.UUID
	ScreenshotURL *string
}

// VerifyPaymentInput carries the seller's approve/reject verdict.
type VerifyPaymentInput struct {
	OrderID  uuid.UUID
	ActorID  uuid.UUID
	Decision enums.Decision
	Reason   *string
}

// ReviewInput captures the buyer's post-delivery rating.
type ReviewInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Rating  int
	Comment *string
}

// ListOrdersParams filters the order history for one side of the trade.
type ListOrdersParams struct {
	UserID   uuid.UUID
	AsSeller bool
	Status   *enums.OrderStatus
	Limit    int
	Cursor   string
}

// ListResult wraps a page of orders and the next cursor.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// NewService builds the order lifecycle service with its dependencies.
func NewService(repo Repository, tx txRunner, trustSvc trust.Service, emitter notify.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if trustSvc == nil {
		return nil, fmt.Errorf("trust service required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("notification emitter required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		trust:   trustSvc,
		emitter: emitter,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	if err := s.trust.EnsureActive(ctx, input.BuyerID); err != nil {
		return nil, err
	}

	var order *models.Order
	var sellerID uuid.UUID
	var title string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindListingForUpdate(ctx, input.ListingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.OwnerID == input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot buy own listing")
		}
		if listing.Status != enums.ListingStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not active")
		}
		// Auction stock moves only through the winning bid; finalization
		// creates the winner's order itself.
		if listing.IsAuction {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction listings cannot be bought directly")
		}
		if !listing.AllowsPaymentMethod(input.PaymentMethod) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment method not accepted for this listing")
		}

		amount := listing.PriceCents
		if input.OfferID != nil {
			offer, err := repo.FindOffer(ctx, *input.OfferID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
			}
			if offer.UserID != input.BuyerID || offer.ListingID != listing.ID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "offer does not belong to buyer and listing")
			}
			if offer.Status != enums.OfferStatusAccepted {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "offer is not accepted")
			}
			amount = offer.AmountCents
		}

		// One pending purchase at a time per listing; the row lock above
		// serializes concurrent attempts.
		pending, err := repo.CountPendingForListing(ctx, listing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending orders")
		}
		if pending > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "listing already has a pending purchase")
		}

		listingID := listing.ID
		order = &models.Order{
			BuyerID:       input.BuyerID,
			SellerID:      listing.OwnerID,
			ListingID:     &listingID,
			TotalCents:    amount,
			Status:        enums.OrderStatusPendingPayment,
			PaymentStatus: enums.PaymentStatusPending,
			PaymentMethod: input.PaymentMethod,
			Items: []models.OrderItem{{
				ListingID:  &listingID,
				Name:       listing.Title,
				PriceCents: amount,
				Qty:        1,
			}},
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		sellerID = listing.OwnerID
		title = listing.Title
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  sellerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "New order",
		Message: fmt.Sprintf("%q has a buyer; awaiting their payment", title),
	})
	return order, nil
}

func (s *service) Get(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != actorID && order.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListOrdersParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listOrdersParams{
		Status: params.Status,
		Limit:  params.Limit,
	}
	if params.AsSeller {
		query.SellerID = &params.UserID
	} else {
		query.BuyerID = &params.UserID
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) SubmitPaymentProof(ctx context.Context, input SubmitPaymentProofInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can submit payment proof")
		}
		if loaded.Status != enums.OrderStatusPendingPayment {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}
		if loaded.PaymentStatus != enums.PaymentStatusPending && loaded.PaymentStatus != enums.PaymentStatusRejected {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment proof already submitted")
		}
		if loaded.PaymentMethod.RequiresProof() && (input.ScreenshotURL == nil || *input.ScreenshotURL == "") {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment screenshot required for this method")
		}

		// A resubmission after rejection wipes the stale reason.
		updates := map[string]any{
			"payment_status":   enums.PaymentStatusVerificationPending,
			"rejection_reason": nil,
		}
		if input.ScreenshotURL != nil {
			updates["payment_screenshot_url"] = *input.ScreenshotURL
		}
		if err := repo.Update(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}

		loaded.PaymentStatus = enums.PaymentStatusVerificationPending
		loaded.PaymentScreenshotURL = input.ScreenshotURL
		loaded.RejectionReason = nil
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  order.SellerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Payment submitted",
		Message: "A buyer submitted payment proof; please verify",
	})
	return order, nil
}

func (s *service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	if input.Decision == enums.DecisionReject && (input.Reason == nil || *input.Reason == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.SellerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can verify payment")
		}
		if loaded.PaymentStatus != enums.PaymentStatusVerificationPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not awaiting verification")
		}

		if input.Decision == enums.DecisionApprove {
			updates := map[string]any{
				"payment_status": enums.PaymentStatusVerified,
				"status":         enums.OrderStatusCompleted,
			}
			if err := repo.Update(ctx, loaded.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve payment")
			}
			if loaded.ListingID != nil {
				if err := repo.UpdateListing(ctx, *loaded.ListingID, map[string]any{
					"status": enums.ListingStatusSold,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark listing sold")
				}
			}
			loaded.PaymentStatus = enums.PaymentStatusVerified
			loaded.Status = enums.OrderStatusCompleted
		} else {
			// Only the payment track is marked; the order stays in
			// pending_payment so the buyer can submit corrected proof or
			// cancel.
			updates := map[string]any{
				"payment_status":   enums.PaymentStatusRejected,
				"rejection_reason": *input.Reason,
			}
			if err := repo.Update(ctx, loaded.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject payment")
			}
			if _, err := s.trust.RecordFailedPayment(ctx, tx, loaded.BuyerID); err != nil {
				return err
			}
			loaded.PaymentStatus = enums.PaymentStatusRejected
			loaded.RejectionReason = input.Reason
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Decision == enums.DecisionApprove {
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  order.BuyerID,
			Type:    enums.NotificationTypeOrderAlert,
			Title:   "Payment verified",
			Message: "Your payment was verified; the seller will ship soon",
		})
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  order.SellerID,
			Type:    enums.NotificationTypeOrderAlert,
			Title:   "Sale confirmed",
			Message: "You approved the payment; please arrange delivery",
		})
	} else {
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  order.BuyerID,
			Type:    enums.NotificationTypeOrderAlert,
			Title:   "Payment rejected",
			Message: fmt.Sprintf("Your payment was rejected: %s", *input.Reason),
		})
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can cancel the order")
		}
		if loaded.Status != enums.OrderStatusPendingPayment {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only unpaid orders can be cancelled")
		}

		if err := repo.Update(ctx, loaded.ID, map[string]any{
			"status": enums.OrderStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		// Cancelling the unpaid order releases the listing. Fixed-price
		// listings go back on the market; an auction's deadline has already
		// passed, so its bid book is cleared and the listing expires rather
		// than re-finalizing against the withdrawn winner.
		if loaded.ListingID != nil {
			listing, err := repo.FindListingForUpdate(ctx, *loaded.ListingID)
			if err == nil && listing.Status == enums.ListingStatusSold {
				next := enums.ListingStatusActive
				if listing.IsAuction {
					if _, err := repo.DeleteListingBids(ctx, listing.ID); err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear bids")
					}
					next = enums.ListingStatusExpired
				}
				if err := repo.UpdateListing(ctx, listing.ID, map[string]any{
					"status": next,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release listing")
				}
			} else if err != nil && err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
			}
		}

		loaded.Status = enums.OrderStatusCancelled
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  order.SellerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Order cancelled",
		Message: "The buyer cancelled an unpaid order",
	})
	return order, nil
}

func (s *service) MarkShipped(ctx context.Context, sellerID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can mark the order shipped")
		}
		if loaded.PaymentStatus != enums.PaymentStatusVerified {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment must be verified before shipping")
		}
		if loaded.DeliveryStatus != enums.DeliveryStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting shipment")
		}

		if err := repo.Update(ctx, loaded.ID, map[string]any{
			"delivery_status": enums.DeliveryStatusShipped,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark shipped")
		}
		loaded.DeliveryStatus = enums.DeliveryStatusShipped
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  order.BuyerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Order shipped",
		Message: "Your order is on its way",
	})
	return order, nil
}

func (s *service) MarkReceived(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can confirm receipt")
		}
		if loaded.DeliveryStatus != enums.DeliveryStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be shipped before it can be received")
		}

		if err := repo.Update(ctx, loaded.ID, map[string]any{
			"delivery_status": enums.DeliveryStatusDelivered,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark received")
		}
		if _, err := s.trust.RewardDelivery(ctx, tx, loaded.SellerID); err != nil {
			return err
		}
		loaded.DeliveryStatus = enums.DeliveryStatusDelivered
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  order.SellerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Delivery confirmed",
		Message: "The buyer confirmed delivery",
	})
	return order, nil
}

func (s *service) Review(ctx context.Context, input ReviewInput) (*models.Review, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can review the order")
	}
	if order.DeliveryStatus != enums.DeliveryStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be delivered before it can be reviewed")
	}
	if order.ListingID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ad-hoc group orders cannot be reviewed")
	}

	exists, err := s.repo.HasReview(ctx, *order.ListingID, input.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing already reviewed by this user")
	}

	review := &models.Review{
		ListingID:  *order.ListingID,
		ReviewerID: input.BuyerID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return review, nil
}
