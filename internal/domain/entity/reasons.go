package entity

// Built-in rejection reasons shared by every item kind. Callers may append
// kind-specific reasons through NewReasonList.
const (
	ReasonInsufficientDocumentation  = "Insufficient Documentation"
	ReasonIncorrectAmount            = "Incorrect Amount"
	ReasonUnauthorizedTransaction    = "Unauthorized Transaction"
	ReasonDuplicateEntry             = "Duplicate Entry"
	ReasonPolicyViolation            = "Policy Violation"
	ReasonRequiresAdditionalApproval = "Requires Additional Approval"
	ReasonOther                      = "Other"
)

// ReasonList is the set of rejection reasons a reviewer may choose from
type ReasonList []string

// DefaultRejectionReasons returns the built-in reason list
func DefaultRejectionReasons() ReasonList {
	return ReasonList{
		ReasonInsufficientDocumentation,
		ReasonIncorrectAmount,
		ReasonUnauthorizedTransaction,
		ReasonDuplicateEntry,
		ReasonPolicyViolation,
		ReasonRequiresAdditionalApproval,
		ReasonOther,
	}
}

// NewReasonList returns the default reasons extended with caller-specific
// additions, dropping duplicates while preserving order
func NewReasonList(extra ...string) ReasonList {
	reasons := DefaultRejectionReasons()
	seen := make(map[string]bool, len(reasons)+len(extra))
	for _, r := range reasons {
		seen[r] = true
	}
	for _, r := range extra {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		reasons = append(reasons, r)
	}
	return reasons
}

// Contains reports whether the reason is in the list
func (l ReasonList) Contains(reason string) bool {
	for _, r := range l {
		if r == reason {
			return true
		}
	}
	return false
}
