package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	"github.com/sahilmehra/campustrade-backend/api/validators"
	"github.com/sahilmehra/campustrade-backend/internal/listings"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type createListingPayload struct {
	Title                  string   `json:"title" validate:"required"`
	Description            string   `json:"description"`
	Category               string   `json:"category" validate:"required"`
	ImageURL               *string  `json:"image_url,omitempty"`
	PriceCents             int      `json:"price_cents" validate:"min=0"`
	MRPCents               *int     `json:"mrp_cents,omitempty"`
	Negotiable             bool     `json:"negotiable"`
	IsAuction              bool     `json:"is_auction"`
	AuctionDurationMinutes int      `json:"auction_duration_minutes"`
	PaymentMethods         []string `json:"payment_methods"`
}

type updateListingPayload struct {
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Category       *string  `json:"category,omitempty"`
	ImageURL       *string  `json:"image_url,omitempty"`
	PriceCents     *int     `json:"price_cents,omitempty"`
	MRPCents       *int     `json:"mrp_cents,omitempty"`
	Negotiable     *bool    `json:"negotiable,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
}

type placeBidPayload struct {
	AmountCents int `json:"amount_cents" validate:"required,min=1"`
}

const (
	maxTitleLen       = 120
	maxDescriptionLen = 4000
)

// ListingCreate publishes a new fixed-price or auction listing.
func ListingCreate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		owner, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body createListingPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listing, err := svc.Create(ctx, listings.CreateListingInput{
			OwnerID:         owner,
			Title:           validators.SanitizeString(body.Title, maxTitleLen),
			Description:     validators.SanitizeString(body.Description, maxDescriptionLen),
			Category:        body.Category,
			ImageURL:        body.ImageURL,
			PriceCents:      body.PriceCents,
			MRPCents:        body.MRPCents,
			Negotiable:      body.Negotiable,
			IsAuction:       body.IsAuction,
			AuctionDuration: time.Duration(body.AuctionDurationMinutes) * time.Minute,
			PaymentMethods:  body.PaymentMethods,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// ListingList serves the browse feed with optional filters.
func ListingList(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := listings.ListParams{
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseListingStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("owner_id")); raw != "" {
			var owner uuid.UUID
			if raw == "me" {
				owner, err = actorID(ctx)
			} else {
				owner, err = pathUUID(raw, "owner id")
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			params.OwnerID = &owner
		}

		result, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListingDetail returns one listing; expired auctions settle on read.
func ListingDetail(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listing, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListingUpdate applies partial edits to a listing the actor owns.
func ListingUpdate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body updateListingPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if body.Title != nil {
			*body.Title = validators.SanitizeString(*body.Title, maxTitleLen)
		}
		if body.Description != nil {
			*body.Description = validators.SanitizeString(*body.Description, maxDescriptionLen)
		}

		listing, err := svc.Update(ctx, listings.UpdateListingInput{
			ActorID:        actor,
			ListingID:      id,
			Title:          body.Title,
			Description:    body.Description,
			Category:       body.Category,
			ImageURL:       body.ImageURL,
			PriceCents:     body.PriceCents,
			MRPCents:       body.MRPCents,
			Negotiable:     body.Negotiable,
			PaymentMethods: body.PaymentMethods,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListingDelete soft-deletes the actor's listing.
func ListingDelete(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, actor, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// BidPlace records a bid on an active auction.
func BidPlace(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		bidder, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body placeBidPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		bid, err := svc.PlaceBid(ctx, listings.PlaceBidInput{
			ListingID:   id,
			BidderID:    bidder,
			AmountCents: body.AmountCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bid)
	}
}

// BidList returns the bid history for an auction, highest first.
func BidList(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := pathUUID(chi.URLParam(r, "listingId"), "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		bids, err := svc.ListBids(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids)
	}
}
