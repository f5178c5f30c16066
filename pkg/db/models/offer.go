package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// Offer is a negotiation proposal on a fixed-price listing. An accepted offer
// authorizes one order at the offer amount for the offering user.
type Offer struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID   uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;index"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	AmountCents int               `gorm:"column:amount_cents;not null"`
	Status      enums.OfferStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
