package offers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/notify"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the offer negotiation side channel. Accepting an offer does
// not change listing state; it only authorizes a later order at the offer
// amount for that user.
type Service interface {
	Place(ctx context.Context, input PlaceOfferInput) (*models.Offer, error)
	Decide(ctx context.Context, input DecideOfferInput) (*models.Offer, error)
	ListForListing(ctx context.Context, actorID, listingID uuid.UUID) ([]models.Offer, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	emitter notify.Emitter
}

// PlaceOfferInput captures one price proposal.
type PlaceOfferInput struct {
	ListingID   uuid.UUID
	UserID      uuid.UUID
	AmountCents int
}

// DecideOfferInput carries the owner's accept/reject decision.
type DecideOfferInput struct {
	OfferID  uuid.UUID
	ActorID  uuid.UUID
	Decision enums.Decision
}

// NewService wires the offers service.
func NewService(repo Repository, tx txRunner, emitter notify.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("notification emitter required")
	}
	return &service{repo: repo, tx: tx, emitter: emitter}, nil
}

func (s *service) Place(ctx context.Context, input PlaceOfferInput) (*models.Offer, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer amount must be positive")
	}

	listing, err := s.repo.FindListing(ctx, input.ListingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.OwnerID == input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "owner cannot offer on own listing")
	}
	if listing.Status != enums.ListingStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not active")
	}
	if listing.IsAuction {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auctions take bids, not offers")
	}
	if !listing.Negotiable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not negotiable")
	}

	offer := &models.Offer{
		ListingID:   listing.ID,
		UserID:      input.UserID,
		AmountCents: input.AmountCents,
		Status:      enums.OfferStatusPending,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}

	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  listing.OwnerID,
		Type:    enums.NotificationTypeOfferAlert,
		Title:   "New offer",
		Message: fmt.Sprintf("An offer of %d was made on %q", offer.AmountCents, listing.Title),
	})
	return offer, nil
}

func (s *service) Decide(ctx context.Context, input DecideOfferInput) (*models.Offer, error) {
	if input.OfferID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	target := enums.OfferStatusAccepted
	if input.Decision == enums.DecisionReject {
		target = enums.OfferStatusRejected
	}

	var decided *models.Offer
	var listingTitle string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindByIDForUpdate(ctx, input.OfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}

		listing, err := repo.FindListing(ctx, offer.ListingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.OwnerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner can decide offers")
		}
		if offer.Status != enums.OfferStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "offer already decided")
		}

		if err := repo.UpdateStatus(ctx, offer.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer status")
		}
		offer.Status = target
		decided = offer
		listingTitle = listing.Title
		return nil
	})
	if err != nil {
		return nil, err
	}

	verdict := "accepted"
	if target == enums.OfferStatusRejected {
		verdict = "rejected"
	}
	s.emitter.Emit(ctx, notify.EmitInput{
		UserID:  decided.UserID,
		Type:    enums.NotificationTypeOfferAlert,
		Title:   "Offer " + verdict,
		Message: fmt.Sprintf("Your offer on %q was %s", listingTitle, verdict),
	})
	return decided, nil
}

func (s *service) ListForListing(ctx context.Context, actorID, listingID uuid.UUID) ([]models.Offer, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	listing, err := s.repo.FindListing(ctx, listingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner can view offers")
	}

	offers, err := s.repo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return offers, nil
}
