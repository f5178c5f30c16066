package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	"github.com/sahilmehra/campustrade-backend/api/validators"
	"github.com/sahilmehra/campustrade-backend/internal/grouporders"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type createGroupOrderPayload struct {
	Platform         string   `json:"platform" validate:"required"`
	Cutoff           string   `json:"cutoff" validate:"required"`
	DeliveryFeeCents int      `json:"delivery_fee_cents" validate:"min=0"`
	PaymentMethods   []string `json:"payment_methods"`
}

type addGroupItemPayload struct {
	Name        string `json:"name" validate:"required"`
	AmountCents int    `json:"amount_cents" validate:"required,min=1"`
	Qty         int    `json:"qty" validate:"min=0"`
}

type broadcastStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// GroupOrderCreate opens a pooled external cart.
func GroupOrderCreate(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		creator, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body createGroupOrderPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cutoff, err := time.Parse(time.RFC3339, body.Cutoff)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cutoff must be RFC3339"))
			return
		}

		group, err := svc.Create(ctx, grouporders.CreateGroupOrderInput{
			CreatorID:        creator,
			Platform:         body.Platform,
			Cutoff:           cutoff,
			DeliveryFeeCents: body.DeliveryFeeCents,
			PaymentMethods:   body.PaymentMethods,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

// GroupOrderList pages open group orders, optionally scoped to the caller.
func GroupOrderList(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := grouporders.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("mine")), "true") {
			creator, err := actorID(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			params.CreatorID = &creator
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseGroupOrderStatus(raw)
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

// GroupOrderDetail returns one group order with its contributed items.
func GroupOrderDetail(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		id, err := pathUUID(chi.URLParam(r, "groupOrderId"), "group order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		group, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

// GroupOrderAddItem contributes a line to an open group order.
func GroupOrderAddItem(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		user, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		groupID, err := pathUUID(chi.URLParam(r, "groupOrderId"), "group order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body addGroupItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.AddItem(ctx, grouporders.AddItemInput{
			GroupOrderID: groupID,
			UserID:       user,
			Name:         body.Name,
			AmountCents:  body.AmountCents,
			Qty:          body.Qty,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// GroupOrderRemoveItem withdraws one of the caller's lines before cutoff.
func GroupOrderRemoveItem(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		user, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		groupID, err := pathUUID(chi.URLParam(r, "groupOrderId"), "group order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		itemID, err := pathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RemoveItem(ctx, grouporders.RemoveItemInput{
			GroupOrderID: groupID,
			ItemID:       itemID,
			UserID:       user,
		}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// GroupOrderFinalize settles shares and fans out per-participant orders.
func GroupOrderFinalize(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		creator, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		groupID, err := pathUUID(chi.URLParam(r, "groupOrderId"), "group order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Finalize(ctx, creator, groupID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GroupOrderBroadcastStatus relays the host's external order progress.
func GroupOrderBroadcastStatus(svc grouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		creator, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		groupID, err := pathUUID(chi.URLParam(r, "groupOrderId"), "group order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body broadcastStatusPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseGroupOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		group, err := svc.BroadcastStatus(ctx, grouporders.BroadcastStatusInput{
			GroupOrderID: groupID,
			CreatorID:    creator,
			Status:       status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}
