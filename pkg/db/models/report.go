package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// Report is a user-filed moderation report. Resolution happens exactly once.
type Report struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReporterID uuid.UUID          `gorm:"column:reporter_id;type:uuid;not null;index"`
	ReportedID uuid.UUID          `gorm:"column:reported_id;type:uuid;not null;index"`
	ListingID  *uuid.UUID         `gorm:"column:listing_id;type:uuid"`
	OrderID    *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Reason     string             `gorm:"column:reason;not null"`
	Status     enums.ReportStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
