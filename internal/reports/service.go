package reports

import (
	"context"
	"fmt"
	"time"

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

// Service owns the moderation loop. Filing is open to any user; resolution is
// moderator-only and happens exactly once per report. The losing side of a
// resolution takes a trust penalty so frivolous reports carry the same cost
// as bad behavior.
type Service interface {
	File(ctx context.Context, input FileReportInput) (*models.Report, error)
	Get(ctx context.Context, actorID, reportID uuid.UUID) (*models.Report, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Resolve(ctx context.Context, input ResolveReportInput) (*models.Report, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	trust   trust.Service
	emitter notify.Emitter
	now     func() time.Time
}

// FileReportInput captures a user's complaint about another user.
type FileReportInput struct {
	ReporterID uuid.UUID
	ReportedID uuid.UUID
	ListingID  *uuid.UUID
	OrderID    *uuid.UUID
	Reason     string
}

// ResolveReportInput carries the moderator's verdict.
type ResolveReportInput struct {
	ReportID uuid.UUID
	ActorID  uuid.UUID
	Decision enums.Decision
}

// ListParams configures the moderation queue query.
type ListParams struct {
	ActorID uuid.UUID
	Status  *enums.ReportStatus
	Limit   int
	Cursor  string
}

// ListResult wraps a page of reports and the next cursor.
type ListResult struct {
	Items  []models.Report `json:"items"`
	Cursor string          `json:"cursor"`
}

// NewService wires the moderation service with its dependencies.
func NewService(repo Repository, tx txRunner, trustSvc trust.Service, emitter notify.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
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
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) File(ctx context.Context, input FileReportInput) (*models.Report, error) {
	if input.ReporterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ReportedID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reported user id required")
	}
	if input.ReporterID == input.ReportedID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot report yourself")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	if _, err := s.repo.FindUser(ctx, input.ReportedID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reported user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reported user")
	}

	report := &models.Report{
		ReporterID: input.ReporterID,
		ReportedID: input.ReportedID,
		ListingID:  input.ListingID,
		OrderID:    input.OrderID,
		Reason:     input.Reason,
		Status:     enums.ReportStatusPending,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return report, nil
}

func (s *service) Get(ctx context.Context, actorID, reportID uuid.UUID) (*models.Report, error) {
	if reportID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}

	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
	}

	if report.ReporterID != actorID {
		if err := s.ensureModerator(ctx, actorID); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if err := s.ensureModerator(ctx, params.ActorID); err != nil {
		return nil, err
	}

	query := listReportsParams{
		Status: params.Status,
		Limit:  params.Limit,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// Resolve adjudicates a pending report. The status re-check under the row lock
// makes resolution exactly-once even when two moderators race.
func (s *service) Resolve(ctx context.Context, input ResolveReportInput) (*models.Report, error) {
	if input.ReportID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	if err := s.ensureModerator(ctx, input.ActorID); err != nil {
		return nil, err
	}

	var report *models.Report
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, input.ReportID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
		}
		if loaded.Status != enums.ReportStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "report already resolved")
		}

		status := enums.ReportStatusResolvedApprove
		penalized := loaded.ReportedID
		if input.Decision == enums.DecisionReject {
			status = enums.ReportStatusResolvedReject
			penalized = loaded.ReporterID
		}

		if input.Decision == enums.DecisionApprove && loaded.ListingID != nil {
			if err := repo.SoftDeleteListing(ctx, *loaded.ListingID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove reported listing")
			}
		}
		if _, err := s.trust.ApplyPenalty(ctx, tx, penalized); err != nil {
			return err
		}

		resolvedAt := s.now()
		if err := repo.Update(ctx, loaded.ID, map[string]any{
			"status":      status,
			"resolved_at": resolvedAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve report")
		}

		loaded.Status = status
		loaded.ResolvedAt = &resolvedAt
		report = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Decision == enums.DecisionApprove {
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  report.ReporterID,
			Type:    enums.NotificationTypeReportAlert,
			Title:   "Report upheld",
			Message: "Your report was reviewed and action was taken",
		})
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  report.ReportedID,
			Type:    enums.NotificationTypeReportAlert,
			Title:   "Moderation action",
			Message: "A report against you was upheld and a penalty applied",
		})
	} else {
		s.emitter.Emit(ctx, notify.EmitInput{
			UserID:  report.ReporterID,
			Type:    enums.NotificationTypeReportAlert,
			Title:   "Report dismissed",
			Message: "Your report was reviewed and dismissed",
		})
	}
	return report, nil
}

func (s *service) ensureModerator(ctx context.Context, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindUser(ctx, actorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Role != enums.RoleModerator {
		return pkgerrors.New(pkgerrors.CodeForbidden, "moderator role required")
	}
	return nil
}
