package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/notify"
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

// Service owns the listing lifecycle: creation, edits with bid reset, soft
// deletion, bid acceptance, and lazy auction finalization.
type Service interface {
	Create(ctx context.Context, input CreateListingInput) (*models.Listing, error)
	Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, input UpdateListingInput) (*models.Listing, error)
	Delete(ctx context.Context, actorID, listingID uuid.UUID) error
	PlaceBid(ctx context.Context, input PlaceBidInput) (*models.Bid, error)
	ListBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)
	Finalize(ctx context.Context, listingID uuid.UUID) (*FinalizeOutcome, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	trust   blacklistGuard
	emitter notify.Emitter
	now     func() time.Time
}

// CreateListingInput captures the seller-supplied listing fields. For
// auctions, PriceCents is the starting price and AuctionDuration computes the
// deadline.
type CreateListingInput struct {
	OwnerID         uuid.UUID
	Title           string
	Description     string
	Category        string
	ImageURL        *string
	PriceCents      int
	MRPCents        *int
	Negotiable      bool
	IsAuction       bool
	AuctionDuration time.Duration
	PaymentMethods  []string
}

// UpdateListingInput carries partial edits; nil pointers leave fields alone.
// Editing an auction that already has bids resets the auction.
type UpdateListingInput struct {
	ActorID        uuid.UUID
	ListingID      uuid.UUID
	Title          *string
	Description    *string
	Category       *string
	ImageURL       *string
	PriceCents     *int
	MRPCents       *int
	Negotiable     *bool
	PaymentMethods []string
}

// PlaceBidInput captures one bid attempt.
type PlaceBidInput struct {
	ListingID   uuid.UUID
	BidderID    uuid.UUID
	AmountCents int
}

// ListParams configures the listing feed query.
type ListParams struct {
	Limit    int
	Cursor   string
	Status   *enums.ListingStatus
	Category string
	OwnerID  *uuid.UUID
	Query    string
}

// ListResult wraps a page of listings and the next cursor.
type ListResult struct {
	Items  []models.Listing `json:"items"`
	Cursor string           `json:"cursor"`
}

// FinalizeOutcome describes what lazy finalization did to an expired auction.
type FinalizeOutcome struct {
	Finalized bool       `json:"finalized"`
	Sold      bool       `json:"sold"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
}

// NewService wires the listing state machine with its dependencies.
func NewService(repo Repository, tx txRunner, trust blacklistGuard, emitter notify.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
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
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateListingInput) (*models.Listing, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.IsAuction && input.AuctionDuration <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction duration must be positive")
	}
	methods, err := normalizePaymentMethods(input.PaymentMethods)
	if err != nil {
		return nil, err
	}

	if err := s.trust.EnsureActive(ctx, input.OwnerID); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		OwnerID:        input.OwnerID,
		Title:          input.Title,
		Description:    input.Description,
		Category:       input.Category,
		ImageURL:       input.ImageURL,
		PriceCents:     input.PriceCents,
		MRPCents:       input.MRPCents,
		Negotiable:     input.Negotiable,
		IsAuction:      input.IsAuction,
		AllowBids:      input.IsAuction,
		Status:         enums.ListingStatusActive,
		PaymentMethods: methods,
	}
	if input.IsAuction {
		endsAt := s.now().Add(input.AuctionDuration)
		listing.AuctionEndsAt = &endsAt
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return listing, nil
}

// Get loads one listing, finalizing it first when it is an expired active
// auction. Reads are the trigger for auction settlement.
func (s *service) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	if listing.Status == enums.ListingStatusActive && listing.AuctionExpired(s.now()) {
		if _, err := s.Finalize(ctx, listingID); err != nil {
			return nil, err
		}
		listing, err = s.repo.FindByID(ctx, listingID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload listing")
		}
	}
	return listing, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listListingsParams{
		Limit:    params.Limit,
		Status:   params.Status,
		Category: params.Category,
		OwnerID:  params.OwnerID,
		Query:    params.Query,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}

	// Settle any expired auctions the page surfaced, then re-read so callers
	// never see a stale "active" status.
	settled := false
	now := s.now()
	for i := range rows {
		if rows[i].Status == enums.ListingStatusActive && rows[i].AuctionExpired(now) {
			if _, err := s.Finalize(ctx, rows[i].ID); err != nil {
				return nil, err
			}
			settled = true
		}
	}
	if settled {
		rows, next, err = s.repo.List(ctx, query)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload listings")
		}
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, input UpdateListingInput) (*models.Listing, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PriceCents != nil && *input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	var resetBidders []uuid.UUID
	var updated *models.Listing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, input.ListingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.OwnerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
		}
		if listing.Status != enums.ListingStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only active listings can be edited")
		}

		updates := map[string]any{}
		if input.Title != nil {
			if *input.Title == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
			}
			updates["title"] = *input.Title
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Category != nil {
			updates["category"] = *input.Category
		}
		if input.ImageURL != nil {
			updates["image_url"] = *input.ImageURL
		}
		if input.PriceCents != nil {
			updates["price_cents"] = *input.PriceCents
		}
		if input.MRPCents != nil {
			updates["mrp_cents"] = *input.MRPCents
		}
		if input.Negotiable != nil {
			updates["negotiable"] = *input.Negotiable
		}
		if input.PaymentMethods != nil {
			methods, err := normalizePaymentMethods(input.PaymentMethods)
			if err != nil {
				return err
			}
			updates["payment_methods"] = methods
		}

		// Editing a live auction invalidates its bids: terms changed under
		// the bidders, so every bid is wiped and each bidder told. The
		// listing price tracks the high bid, so wiping the book requires the
		// owner to restate the starting price; otherwise later bidders would
		// have to beat a price no live bid supports.
		if listing.IsAuction {
			bidders, err := repo.DistinctBidders(ctx, listing.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bidders")
			}
			if len(bidders) > 0 {
				if input.PriceCents == nil {
					return pkgerrors.New(pkgerrors.CodeValidation, "starting price required when editing an auction with bids")
				}
				if _, err := repo.DeleteBids(ctx, listing.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset bids")
				}
				resetBidders = bidders
			}
		}

		if len(updates) == 0 && len(resetBidders) == 0 {
			updated = listing
			return nil
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, listing.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
			}
		}

		updated, err = repo.FindByID(ctx, listing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload listing")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(resetBidders) > 0 {
		s.emitter.EmitMany(ctx, resetBidders, notify.EmitInput{
			Type:    enums.NotificationTypeBidAlert,
			Title:   "Bid reset",
			Message: fmt.Sprintf("The listing %q was edited and all bids were reset", updated.Title),
		})
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actorID, listingID uuid.UUID) error {
	if listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var bidders []uuid.UUID
	var title string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.OwnerID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
		}
		if listing.Status == enums.ListingStatusDeleted {
			return nil
		}

		title = listing.Title
		bidders, err = repo.DistinctBidders(ctx, listing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bidders")
		}
		if err := repo.Update(ctx, listing.ID, map[string]any{"status": enums.ListingStatusDeleted}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(bidders) > 0 {
		s.emitter.EmitMany(ctx, bidders, notify.EmitInput{
			Type:    enums.NotificationTypeListingAlert,
			Title:   "Listing removed",
			Message: fmt.Sprintf("The listing %q you bid on was removed", title),
		})
	}
	return nil
}

func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*models.Bid, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.BidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	if err := s.trust.EnsureActive(ctx, input.BidderID); err != nil {
		return nil, err
	}

	var bid *models.Bid
	var ownerID uuid.UUID
	var title string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, input.ListingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.OwnerID == input.BidderID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "owner cannot bid on own listing")
		}
		if listing.Status != enums.ListingStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not active")
		}
		if !listing.IsAuction || !listing.AllowBids {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing does not accept bids")
		}
		if listing.AuctionEndsAt == nil || !listing.AuctionEndsAt.After(s.now()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction has ended")
		}
		if input.AmountCents <= listing.PriceCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "bid must exceed current price").
				WithDetails(map[string]any{"current_price_cents": listing.PriceCents})
		}

		bid = &models.Bid{
			ListingID:   listing.ID,
			BidderID:    input.BidderID,
			AmountCents: input.AmountCents,
		}
		if err := repo.CreateBid(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert bid")
		}
		if err := repo.Update(ctx, listing.ID, map[string]any{"price_cents": input.AmountCents}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance listing price")
		}
		ownerID = listing.OwnerID
		title = listing.Title
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  ownerID,
		Type:    enums.NotificationTypeBidAlert,
		Title:   "New bid",
		Message: fmt.Sprintf("A bid of %d was placed on %q", bid.AmountCents, title),
	})
	return bid, nil
}

func (s *service) ListBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	bids, err := s.repo.ListBids(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return bids, nil
}

// Finalize settles an expired active auction exactly once. The listing row is
// locked and the status re-checked inside the transaction, so a concurrent
// finalizer observes the updated status and takes the no-op path.
func (s *service) Finalize(ctx context.Context, listingID uuid.UUID) (*FinalizeOutcome, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	outcome := &FinalizeOutcome{}
	var sellerID uuid.UUID
	var title string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.Status != enums.ListingStatusActive || !listing.AuctionExpired(s.now()) {
			return nil
		}

		sellerID = listing.OwnerID
		title = listing.Title

		winning, err := repo.HighestBid(ctx, listing.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load highest bid")
		}

		if winning == nil {
			if err := repo.Update(ctx, listing.ID, map[string]any{"status": enums.ListingStatusExpired}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire listing")
			}
			outcome.Finalized = true
			return nil
		}

		if err := repo.Update(ctx, listing.ID, map[string]any{"status": enums.ListingStatusSold}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark listing sold")
		}

		listingID := listing.ID
		order := &models.Order{
			BuyerID:       winning.BidderID,
			SellerID:      listing.OwnerID,
			ListingID:     &listingID,
			TotalCents:    winning.AmountCents,
			Status:        enums.OrderStatusPendingPayment,
			PaymentStatus: enums.PaymentStatusPending,
			PaymentMethod: enums.PaymentMethodCash,
			Items: []models.OrderItem{{
				ListingID:  &listingID,
				Name:       listing.Title,
				PriceCents: winning.AmountCents,
				Qty:        1,
			}},
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create winning order")
		}

		outcome.Finalized = true
		outcome.Sold = true
		outcome.WinnerID = &winning.BidderID
		outcome.OrderID = &order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Finalized {
		if outcome.Sold {
			s.emitter.Emit(ctx, notify.EmitInput{
				UserID:  *outcome.WinnerID,
				Type:    enums.NotificationTypeBidAlert,
				Title:   "Auction won",
				Message: fmt.Sprintf("You won the auction for %q; payment is due", title),
			})
			s.emitter.Emit(ctx, notify.EmitInput{
				UserID:  sellerID,
				Type:    enums.NotificationTypeListingAlert,
				Title:   "Auction sold",
				Message: fmt.Sprintf("Your auction %q closed with a winning bid", title),
			})
		} else {
			s.emitter.Emit(ctx, notify.EmitInput{
				UserID:  sellerID,
				Type:    enums.NotificationTypeListingAlert,
				Title:   "Auction expired",
				Message: fmt.Sprintf("Your auction %q ended without bids", title),
			})
		}
	}
	return outcome, nil
}

func normalizePaymentMethods(methods []string) (pq.StringArray, error) {
	if len(methods) == 0 {
		return pq.StringArray{enums.PaymentMethodCash.String()}, nil
	}
	out := make(pq.StringArray, 0, len(methods))
	for _, raw := range methods {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
		}
		out = append(out, method.String())
	}
	return out, nil
}
