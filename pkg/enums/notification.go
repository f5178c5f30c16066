package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
	NotificationTypeListingAlert       NotificationType = "listing_alert"
	NotificationTypeBidAlert           NotificationType = "bid_alert"
	NotificationTypeOfferAlert         NotificationType = "offer_alert"
	NotificationTypeOrderAlert         NotificationType = "order_alert"
	NotificationTypeGroupOrderAlert    NotificationType = "group_order_alert"
	NotificationTypeReportAlert        NotificationType = "report_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSystemAnnouncement,
	NotificationTypeListingAlert,
	NotificationTypeBidAlert,
	NotificationTypeOfferAlert,
	NotificationTypeOrderAlert,
	NotificationTypeGroupOrderAlert,
	NotificationTypeReportAlert,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
