package trust

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/pkg/config"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
)

// Service mutates trust state. All mutating operations take the caller's
// transaction handle so trust writes commit or roll back with the business
// event that caused them.
type Service interface {
	ApplyPenalty(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	RewardDelivery(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	RecordFailedPayment(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*FailedPaymentResult, error)
	EnsureActive(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
	cfg  config.TrustConfig
	now  func() time.Time
}

// FailedPaymentResult reports the user's trust state after a failed payment
// was recorded.
type FailedPaymentResult struct {
	TrustScore       int        `json:"trust_score"`
	FailedPayments   int        `json:"failed_payments"`
	BlacklistedUntil *time.Time `json:"blacklisted_until,omitempty"`
}

// NewService wires trust accounting with the provided repository.
func NewService(repo Repository, cfg config.TrustConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trust repository required")
	}
	return &service{
		repo: repo,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// BlacklistDuration returns how long a user is blacklisted after their Nth
// failed payment. The window doubles with every failure past the threshold:
// base at the threshold, 2x base one failure later, and so on.
func BlacklistDuration(cfg config.TrustConfig, failedPayments int) time.Duration {
	if failedPayments < cfg.BlacklistThreshold {
		return 0
	}
	duration := cfg.BlacklistBase
	for i := cfg.BlacklistThreshold; i < failedPayments; i++ {
		duration *= 2
	}
	return duration
}

func (s *service) ApplyPenalty(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	repo := s.repo.WithTx(tx)
	user, err := repo.FindUserForUpdate(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user for penalty")
	}

	penalty := user.TrustPenalty + s.cfg.PenaltyStep
	if err := repo.UpdateTrust(ctx, userID, map[string]any{"trust_penalty": penalty}); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply trust penalty")
	}

	user.TrustPenalty = penalty
	return user.TrustScore(), nil
}

func (s *service) RewardDelivery(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	repo := s.repo.WithTx(tx)
	user, err := repo.FindUserForUpdate(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user for reward")
	}

	penalty := user.TrustPenalty - s.cfg.DeliveryReward
	if penalty < 0 {
		penalty = 0
	}
	if err := repo.UpdateTrust(ctx, userID, map[string]any{"trust_penalty": penalty}); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reduce trust penalty")
	}

	user.TrustPenalty = penalty
	return user.TrustScore(), nil
}

func (s *service) RecordFailedPayment(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*FailedPaymentResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	repo := s.repo.WithTx(tx)
	user, err := repo.FindUserForUpdate(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user for failed payment")
	}

	failed := user.FailedPayments + 1
	penalty := user.TrustPenalty + s.cfg.PenaltyStep
	updates := map[string]any{
		"failed_payments": failed,
		"trust_penalty":   penalty,
	}

	result := &FailedPaymentResult{FailedPayments: failed}
	if duration := BlacklistDuration(s.cfg, failed); duration > 0 {
		until := s.now().Add(duration)
		updates["blacklisted_until"] = until
		result.BlacklistedUntil = &until
	}

	if err := repo.UpdateTrust(ctx, userID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed payment")
	}

	user.TrustPenalty = penalty
	result.TrustScore = user.TrustScore()
	return result, nil
}

func (s *service) EnsureActive(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}
	if user.IsBlacklisted(s.now()) {
		return pkgerrors.New(pkgerrors.CodeBlacklisted, "account temporarily restricted").
			WithDetails(map[string]any{"blacklisted_until": user.BlacklistedUntil})
	}
	return nil
}
