package gate

import dErrors "gatehouse/pkg/domain-errors"

// GateID identifies a gate definition. IDs are stable: once shipped, an id's
// meaning never changes. Adding a gate means adding a new id, a catalog entry,
// and a paired checker.
//
// Usage: construct via ParseGateID at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type GateID string

const (
	GateCalibrationExpired       GateID = "calibration_expired"
	GateCleanlinessOutOfSpec     GateID = "cleanliness_out_of_spec"
	GateSerialScansMissing       GateID = "serial_scans_missing"
	GateSerialScansDuplicate     GateID = "serial_scans_duplicate"
	GateTestVerdictPending       GateID = "test_verdict_pending"
	GateTestVerdictFail          GateID = "test_verdict_fail"
	GateFinalQCNotSigned         GateID = "final_qc_not_signed"
	GateSoDViolation             GateID = "sod_violation"
	GateApprovalPending          GateID = "approval_pending"
	GatePreviousStepIncomplete   GateID = "previous_step_incomplete"
	GateRequiredDocumentsMissing GateID = "required_documents_missing"
)

// ParseGateID constructs a GateID from external input.
func ParseGateID(s string) (GateID, error) {
	id := GateID(s)
	if _, ok := catalog[id]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown gate id")
	}
	return id, nil
}

// BlockedAction names a higher-level operation that active gates can block.
type BlockedAction string

const (
	ActionStartTest           BlockedAction = "start_test"
	ActionCompleteStep        BlockedAction = "complete_step"
	ActionCompletePacking     BlockedAction = "complete_packing"
	ActionPrintLabel          BlockedAction = "print_label"
	ActionProceedNextStep     BlockedAction = "proceed_next_step"
	ActionApproveOwnRequest   BlockedAction = "approve_own_request"
	ActionHandover            BlockedAction = "handover"
	ActionFinalQCSignoff      BlockedAction = "final_qc_signoff"
	ActionGenerateCertificate BlockedAction = "generate_certificate"
)

// validActions is the single source of truth for valid blocked actions.
var validActions = map[BlockedAction]bool{
	ActionStartTest:           true,
	ActionCompleteStep:        true,
	ActionCompletePacking:     true,
	ActionPrintLabel:          true,
	ActionProceedNextStep:     true,
	ActionApproveOwnRequest:   true,
	ActionHandover:            true,
	ActionFinalQCSignoff:      true,
	ActionGenerateCertificate: true,
}

// IsValid checks if the action is one of the supported enum values.
func (a BlockedAction) IsValid() bool {
	return validActions[a]
}

// Severity ranks how strongly an active gate should be surfaced to operators.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Gate is an evaluated gate instance: immutable catalog metadata plus the
// per-evaluation activation state and operator-facing detail.
type Gate struct {
	ID             GateID          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Severity       Severity        `json:"severity"`
	BlockedActions []BlockedAction `json:"blocked_actions"`
	Active         bool            `json:"active"`
	Details        string          `json:"details,omitempty"`
}
