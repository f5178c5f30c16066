package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	"github.com/sahilmehra/campustrade-backend/api/validators"
	"github.com/sahilmehra/campustrade-backend/internal/orders"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type createOrderPayload struct {
	ListingID     string  `json:"listing_id" validate:"required"`
	OfferID       *string `json:"offer_id,omitempty"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
}

type paymentProofPayload struct {
	ScreenshotURL *string `json:"screenshot_url,omitempty"`
}

type verifyPaymentPayload struct {
	Decision string  `json:"decision" validate:"required"`
	Reason   *string `json:"reason,omitempty"`
}

type reviewPayload struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

// OrderCreate places a direct or offer-backed purchase.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyer, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body createOrderPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := pathUUID(body.ListingID, "listing id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := orders.CreateOrderInput{
			BuyerID:       buyer,
			ListingID:     listingID,
			PaymentMethod: method,
		}
		if body.OfferID != nil {
			offerID, err := pathUUID(*body.OfferID, "offer id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.OfferID = &offerID
		}

		order, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderList pages through the actor's purchase or sales history.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		user, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := orders.ListOrdersParams{
			UserID:   user,
			AsSeller: strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("side")), "seller"),
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		result, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderDetail returns one order visible to either side of the trade.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := pathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, actor, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderSubmitPaymentProof attaches the buyer's payment screenshot.
func OrderSubmitPaymentProof(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyer, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := pathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body paymentProofPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.SubmitPaymentProof(ctx, orders.SubmitPaymentProofInput{
			OrderID:       orderID,
			BuyerID:       buyer,
			ScreenshotURL: body.ScreenshotURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderVerifyPayment records the seller's approve or reject verdict.
func OrderVerifyPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := pathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body verifyPaymentPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		decision := enums.Decision(strings.ToLower(strings.TrimSpace(body.Decision)))
		if !decision.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject"))
			return
		}

		order, err := svc.VerifyPayment(ctx, orders.VerifyPaymentInput{
			OrderID:  orderID,
			ActorID:  actor,
			Decision: decision,
			Reason:   body.Reason,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel lets the buyer back out before completion.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, func(ctx context.Context, actor, orderID uuid.UUID) (any, error) {
		return svc.Cancel(ctx, actor, orderID)
	})
}

// OrderMarkShipped records the seller's handoff.
func OrderMarkShipped(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, func(ctx context.Context, actor, orderID uuid.UUID) (any, error) {
		return svc.MarkShipped(ctx, actor, orderID)
	})
}

// OrderMarkReceived confirms delivery from the buyer's side.
func OrderMarkReceived(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, func(ctx context.Context, actor, orderID uuid.UUID) (any, error) {
		return svc.MarkReceived(ctx, actor, orderID)
	})
}

func orderTransition(svc orders.Service, logg *logger.Logger, fn func(ctx context.Context, actor, orderID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := pathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := fn(ctx, actor, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderReview records the buyer's post-delivery rating.
func OrderReview(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyer, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := pathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body reviewPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		review, err := svc.Review(ctx, orders.ReviewInput{
			OrderID: orderID,
			BuyerID: buyer,
			Rating:  body.Rating,
			Comment: body.Comment,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}
