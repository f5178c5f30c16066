package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	"github.com/sahilmehra/campustrade-backend/api/validators"
	"github.com/sahilmehra/campustrade-backend/internal/reports"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type fileReportPayload struct {
	ReportedID string  `json:"reported_id" validate:"required"`
	ListingID  *string `json:"listing_id,omitempty"`
	OrderID    *string `json:"order_id,omitempty"`
	Reason     string  `json:"reason" validate:"required"`
}

type resolveReportPayload struct {
	Decision string `json:"decision" validate:"required"`
}

// ReportFile records a complaint against another user.
func ReportFile(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		reporter, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body fileReportPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reported, err := pathUUID(body.ReportedID, "reported user id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := reports.FileReportInput{
			ReporterID: reporter,
			ReportedID: reported,
			Reason:     validators.SanitizeString(body.Reason, maxDescriptionLen),
		}
		if body.ListingID != nil {
			id, err := pathUUID(*body.ListingID, "listing id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.ListingID = &id
		}
		if body.OrderID != nil {
			id, err := pathUUID(*body.OrderID, "order id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.OrderID = &id
		}

		report, err := svc.File(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}

// ReportList serves the moderation queue.
func ReportList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := reports.ListParams{
			ActorID: actor,
			Limit:   limit,
			Cursor:  strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseReportStatus(raw)
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

// ReportDetail returns a single report for moderator review.
func ReportDetail(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reportID, err := pathUUID(chi.URLParam(r, "reportId"), "report id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Get(ctx, actor, reportID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportResolve applies a moderator verdict exactly once.
func ReportResolve(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reportID, err := pathUUID(chi.URLParam(r, "reportId"), "report id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body resolveReportPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		decision := enums.Decision(strings.ToLower(strings.TrimSpace(body.Decision)))
		if !decision.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject"))
			return
		}

		report, err := svc.Resolve(ctx, reports.ResolveReportInput{
			ReportID: reportID,
			ActorID:  actor,
			Decision: decision,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
