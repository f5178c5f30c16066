package enums

// Decision represents the binary call an actor makes on a pending item:
// a seller verifying payment proof, an owner answering an offer, or a
// moderator resolving a report.
type Decision string

const (
	// DecisionApprove indicates the pending item is accepted.
	DecisionApprove Decision = "approve"
	// DecisionReject indicates the pending item is declined.
	DecisionReject Decision = "reject"
)

// IsValid reports whether the value is a known Decision.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}
