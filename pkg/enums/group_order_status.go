package enums

import "fmt"

// GroupOrderStatus tracks a pooled group order. After finalization the host
// broadcasts the external order's progress through the later phases.
type GroupOrderStatus string

const (
	GroupOrderStatusOpen           GroupOrderStatus = "open"
	GroupOrderStatusPaymentPending GroupOrderStatus = "payment_pending"
	GroupOrderStatusOrderPlaced    GroupOrderStatus = "order_placed"
	GroupOrderStatusReceived       GroupOrderStatus = "received"
	GroupOrderStatusDelivered      GroupOrderStatus = "delivered"
)

var validGroupOrderStatuses = []GroupOrderStatus{
	GroupOrderStatusOpen,
	GroupOrderStatusPaymentPending,
	GroupOrderStatusOrderPlaced,
	GroupOrderStatusReceived,
	GroupOrderStatusDelivered,
}

// String implements fmt.Stringer.
func (g GroupOrderStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GroupOrderStatus.
func (g GroupOrderStatus) IsValid() bool {
	for _, candidate := range validGroupOrderStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGroupOrderStatus converts raw input into a GroupOrderStatus.
func ParseGroupOrderStatus(value string) (GroupOrderStatus, error) {
	for _, candidate := range validGroupOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group order status %q", value)
}
