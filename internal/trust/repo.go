package trust

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/repo"
	"github.com/sahilmehra/campustrade-backend/pkg/db"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
)

// Repository exposes the persistence helpers trust accounting needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateTrust(ctx context.Context, userID uuid.UUID, updates map[string]any) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a trust repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) FindUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.ForUpdate(r.DB(ctx)).
		First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateTrust(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}
