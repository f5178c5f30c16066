package enums

import "fmt"

// ReportStatus tracks a moderation report. Transitions are one-way and happen
// exactly once.
type ReportStatus string

const (
	ReportStatusPending         ReportStatus = "pending"
	ReportStatusResolvedApprove ReportStatus = "resolved_approve"
	ReportStatusResolvedReject  ReportStatus = "resolved_reject"
)

var validReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusResolvedApprove,
	ReportStatusResolvedReject,
}

// String implements fmt.Stringer.
func (r ReportStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReportStatus.
func (r ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportStatus converts raw input into a ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}
