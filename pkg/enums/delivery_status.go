package enums

import "fmt"

// DeliveryStatus tracks the delivery track of an order. The first three values
// form the peer-to-peer handoff flow; the group variants are broadcast by a
// group order host after the external order is placed.
type DeliveryStatus string

const (
	DeliveryStatusPending             DeliveryStatus = "pending"
	DeliveryStatusShipped             DeliveryStatus = "shipped"
	DeliveryStatusDelivered           DeliveryStatus = "delivered"
	DeliveryStatusOrderPlaced         DeliveryStatus = "order_placed"
	DeliveryStatusReceivedFromPartner DeliveryStatus = "received_from_partner"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusShipped,
	DeliveryStatusDelivered,
	DeliveryStatusOrderPlaced,
	DeliveryStatusReceivedFromPartner,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
