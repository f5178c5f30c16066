package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	"github.com/sahilmehra/campustrade-backend/api/validators"
	"github.com/sahilmehra/campustrade-backend/internal/offers"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type placeOfferPayload struct {
	AmountCents int `json:"amount_cents" validate:"required,min=1"`
}

type decideOfferPayload struct {
	Decision string `json:"decision" validate:"required"`
}

// OfferPlace submits a price proposal on a negotiable listing.
func OfferPlace(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		user, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body placeOfferPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		offer, err := svc.Place(ctx, offers.PlaceOfferInput{
			ListingID:   listingID,
			UserID:      user,
			AmountCents: body.AmountCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

// OfferDecide records the listing owner's accept or reject verdict.
func OfferDecide(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		offerID, err := pathUUID(chi.URLParam(r, "offerId"), "offer id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body decideOfferPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		decision := enums.Decision(strings.ToLower(strings.TrimSpace(body.Decision)))
		if !decision.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject"))
			return
		}

		offer, err := svc.Decide(ctx, offers.DecideOfferInput{
			OfferID:  offerID,
			ActorID:  actor,
			Decision: decision,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// OfferListForListing lets the listing owner review pending proposals.
func OfferListForListing(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListForListing(ctx, actor, listingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
