package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an immutable record of an accepted auction bid. Bids are only ever
// deleted wholesale when a listing edit resets the auction.
type Bid struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID   uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index"`
	BidderID    uuid.UUID `gorm:"column:bidder_id;type:uuid;not null;index"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
