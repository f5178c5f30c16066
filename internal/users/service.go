package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
)

// Service exposes profile reads and self-service updates.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*UserDTO, error)
	SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*UserDTO, error)
}

// UpdateProfileInput carries the self-editable profile fields. Nil pointers
// leave the current value untouched.
type UpdateProfileInput struct {
	UserID    uuid.UUID
	FirstName *string
	LastName  *string
	Phone     *string
}

type service struct {
	repo *Repository
}

// NewService wires the users service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*UserDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		updates["last_name"] = *input.LastName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if len(updates) == 0 {
		return s.Profile(ctx, input.UserID)
	}

	if err := s.repo.UpdateProfile(ctx, input.UserID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.Profile(ctx, input.UserID)
}

func (s *service) SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if avatarURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatar url required")
	}

	if err := s.repo.UpdateProfile(ctx, userID, map[string]any{"avatar_url": avatarURL}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update avatar")
	}
	return s.Profile(ctx, userID)
}
