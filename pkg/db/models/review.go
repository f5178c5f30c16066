package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a buyer's post-delivery rating of a listing. One per
// (listing, reviewer) pair.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID  uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:idx_reviews_listing_reviewer"`
	ReviewerID uuid.UUID `gorm:"column:reviewer_id;type:uuid;not null;uniqueIndex:idx_reviews_listing_reviewer"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    *string   `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
