package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// Listing is a sellable item, fixed-price or auction. For auctions PriceCents
// is the current high bid; for fixed-price listings it is the ask and is never
// advanced by a third party.
type Listing struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	Title          string              `gorm:"column:title;not null"`
	Description    string              `gorm:"column:description;not null"`
	Category       string              `gorm:"column:category;not null"`
	ImageURL       *string             `gorm:"column:image_url"`
	PriceCents     int                 `gorm:"column:price_cents;not null"`
	MRPCents       *int                `gorm:"column:mrp_cents"`
	Negotiable     bool                `gorm:"column:negotiable;not null;default:false"`
	IsAuction      bool                `gorm:"column:is_auction;not null;default:false"`
	AllowBids      bool                `gorm:"column:allow_bids;not null;default:true"`
	AuctionEndsAt  *time.Time          `gorm:"column:auction_ends_at"`
	Status         enums.ListingStatus `gorm:"column:status;type:text;not null;default:'active'"`
	PaymentMethods pq.StringArray      `gorm:"column:payment_methods;type:text[];not null;default:ARRAY['cash']::text[]"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// AllowsPaymentMethod reports whether the buyer-requested method is accepted.
func (l *Listing) AllowsPaymentMethod(method enums.PaymentMethod) bool {
	for _, m := range l.PaymentMethods {
		if m == method.String() {
			return true
		}
	}
	return false
}

// AuctionExpired reports whether an auction listing's deadline has passed.
func (l *Listing) AuctionExpired(now time.Time) bool {
	return l.IsAuction && l.AuctionEndsAt != nil && l.AuctionEndsAt.Before(now)
}
