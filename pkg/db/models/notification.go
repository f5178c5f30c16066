package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// Notification stores in-app inbox entries scoped to users. Rows are written
// best-effort by the emitter; read-state is the only mutation afterwards.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"type:text;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Message   string                 `gorm:"type:text;not null"`
	Link      *string                `gorm:"type:text"`
	ReadAt    *time.Time             `gorm:"type:timestamptz"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
