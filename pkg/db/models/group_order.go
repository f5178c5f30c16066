package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// GroupOrder is a pooled cart placed externally by its creator. Participants
// contribute items before the cutoff; finalization snapshots items into one
// Order per contributor.
type GroupOrder struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID        uuid.UUID              `gorm:"column:creator_id;type:uuid;not null;index"`
	Platform         string                 `gorm:"column:platform;not null"`
	Cutoff           time.Time              `gorm:"column:cutoff;not null"`
	Status           enums.GroupOrderStatus `gorm:"column:status;type:text;not null;default:'open'"`
	DeliveryFeeCents int                    `gorm:"column:delivery_fee_cents;not null;default:0"`
	PaymentMethods   pq.StringArray         `gorm:"column:payment_methods;type:text[];not null;default:ARRAY['cash']::text[]"`
	Items            []GroupOrderItem       `gorm:"foreignKey:GroupOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// AllowsPaymentMethod reports whether the requested method is accepted.
func (g *GroupOrder) AllowsPaymentMethod(method enums.PaymentMethod) bool {
	for _, m := range g.PaymentMethods {
		if m == method.String() {
			return true
		}
	}
	return false
}

// GroupOrderItem is one participant's contributed line item.
type GroupOrderItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID uuid.UUID `gorm:"column:group_order_id;type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	AmountCents  int       `gorm:"column:amount_cents;not null"`
	Qty          int       `gorm:"column:qty;not null;default:1"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// LineTotalCents is the item's contribution to the pooled total.
func (i *GroupOrderItem) LineTotalCents() int {
	return i.AmountCents * i.Qty
}
