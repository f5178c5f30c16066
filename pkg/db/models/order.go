package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// Order is one buyer's purchase instance. Payment and delivery progress on
// independent tracks; Status summarizes the overall outcome.
type Order struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID              uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID             uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	ListingID            *uuid.UUID           `gorm:"column:listing_id;type:uuid;index"`
	GroupOrderID         *uuid.UUID           `gorm:"column:group_order_id;type:uuid;index"`
	TotalCents           int                  `gorm:"column:total_cents;not null"`
	Status               enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending_payment'"`
	PaymentStatus        enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	DeliveryStatus       enums.DeliveryStatus `gorm:"column:delivery_status;type:text;not null;default:'pending'"`
	PaymentMethod        enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	PaymentScreenshotURL *string              `gorm:"column:payment_screenshot_url"`
	RejectionReason      *string              `gorm:"column:rejection_reason"`
	Items                []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem captures the snapshot of each line within an order. ListingID is
// nil for ad-hoc group order lines; Name is the fallback label.
type OrderItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ListingID  *uuid.UUID `gorm:"column:listing_id;type:uuid"`
	Name       string     `gorm:"column:name;not null"`
	PriceCents int        `gorm:"column:price_cents;not null"`
	Qty        int        `gorm:"column:qty;not null;default:1"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
