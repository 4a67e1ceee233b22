package gate

// isSelfApproval is the single separation-of-duties predicate. Both the
// sod_violation checker and the standalone pre-submission check go through it
// so the two entry points cannot drift apart.
func isSelfApproval(requestedByUserID, currentUserID string) bool {
	return requestedByUserID != "" && requestedByUserID == currentUserID
}

// SoDDecision is the outcome of a standalone separation-of-duties check.
type SoDDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckSoDForApproval decides whether currentUserID may decide an approval
// request raised by requestedByUserID. It needs no fact snapshot, so callers
// can run it at submission time before any approval record exists.
// preventSelfApproval=false disables the rule entirely (site policy).
func CheckSoDForApproval(requestedByUserID, currentUserID string, preventSelfApproval bool) SoDDecision {
	if !preventSelfApproval {
		return SoDDecision{Allowed: true}
	}
	if isSelfApproval(requestedByUserID, currentUserID) {
		return SoDDecision{
			Allowed: false,
			Reason:  "approval requests cannot be decided by the user who raised them",
		}
	}
	return SoDDecision{Allowed: true}
}
