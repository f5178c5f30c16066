package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

// Emitter writes in-app notifications. Delivery is best-effort: a failed
// write is logged and swallowed so it can never roll back the business
// transaction that triggered it. The emitter therefore always writes on the
// base connection, never inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, input EmitInput)
	EmitMany(ctx context.Context, userIDs []uuid.UUID, input EmitInput)
}

// EmitInput carries a single notification payload.
type EmitInput struct {
	UserID  uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    *string
}

type emitter struct {
	repo Repository
	logg *logger.Logger
}

// NewEmitter wires a best-effort notification emitter.
func NewEmitter(repo Repository, logg *logger.Logger) (Emitter, error) {
	if repo == nil {
		return nil, fmt.Errorf("notify repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &emitter{repo: repo, logg: logg}, nil
}

func (e *emitter) Emit(ctx context.Context, input EmitInput) {
	if input.UserID == uuid.Nil || !input.Type.IsValid() {
		e.logg.Warn(e.logg.WithField(ctx, "notification_type", string(input.Type)), "dropping malformed notification")
		return
	}

	notification := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		Link:    input.Link,
	}
	if err := e.repo.Create(ctx, notification); err != nil {
		scoped := e.logg.WithFields(ctx, map[string]any{
			"user_id":           input.UserID.String(),
			"notification_type": string(input.Type),
			"error":             err.Error(),
		})
		e.logg.Warn(scoped, "notification write failed")
	}
}

func (e *emitter) EmitMany(ctx context.Context, userIDs []uuid.UUID, input EmitInput) {
	for _, userID := range userIDs {
		scoped := input
		scoped.UserID = userID
		e.Emit(ctx, scoped)
	}
}
