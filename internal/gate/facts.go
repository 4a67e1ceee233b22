package gate

import "time"

// Fact records are produced and owned by the external collaborator services;
// the engine never mutates them. A nil slice or pointer means the family was
// not supplied for this evaluation, and its checkers are skipped entirely
// rather than treated as passing.

// CalibrationStatus describes the calibration state of one piece of equipment.
type CalibrationStatus string

const (
	CalibrationValid        CalibrationStatus = "valid"
	CalibrationExpiringSoon CalibrationStatus = "expiring_soon"
	CalibrationExpired      CalibrationStatus = "expired"
)

// CalibrationRecord is one equipment calibration entry from the registry.
type CalibrationRecord struct {
	EquipmentID   string            `json:"equipment_id"`
	EquipmentName string            `json:"equipment_name"`
	Status        CalibrationStatus `json:"status"`
	ExpiresAt     time.Time         `json:"expires_at,omitzero"`
}

// CleanlinessStatus is the outcome of a work-area cleanliness inspection.
type CleanlinessStatus string

const (
	CleanlinessPass    CleanlinessStatus = "pass"
	CleanlinessFail    CleanlinessStatus = "fail"
	CleanlinessPending CleanlinessStatus = "pending"
)

// CleanlinessCheck is the latest cleanliness inspection result for the work
// area.
type CleanlinessCheck struct {
	Status    CleanlinessStatus `json:"status"`
	Area      string            `json:"area,omitempty"`
	CheckedAt time.Time         `json:"checked_at,omitzero"`
}

// SerialScanRecord is one serial number scan from the ledger.
type SerialScanRecord struct {
	Serial    string `json:"serial"`
	Valid     bool   `json:"valid"`
	Duplicate bool   `json:"duplicate"`
}

// TestVerdict is the outcome of the functional test.
type TestVerdict string

const (
	VerdictPending TestVerdict = "pending"
	VerdictPass    TestVerdict = "pass"
	VerdictFail    TestVerdict = "fail"
)

// TestVerdictRecord is the functional test result for the work order. An empty
// Verdict counts as pending.
type TestVerdictRecord struct {
	Verdict  TestVerdict `json:"verdict"`
	TestName string      `json:"test_name,omitempty"`
}

// FinalQCSignoff records whether final quality control signed the work order
// off.
type FinalQCSignoff struct {
	Signed   bool   `json:"signed"`
	SignedBy string `json:"signed_by,omitempty"`
}

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ApprovalRecord is one approval request raised against the work order.
type ApprovalRecord struct {
	ID                string         `json:"id"`
	RequestedByUserID string         `json:"requested_by_user_id"`
	Status            ApprovalStatus `json:"status"`
	Reason            string         `json:"reason,omitempty"`
}

// StepID names a routing step in the canonical gate order.
type StepID string

// The canonical five-step order the previous_step_incomplete gate checks
// against. The full work-order routing model carries more steps
// (serialization, handover); the divergence is tracked in DESIGN.md and must
// not be silently reconciled here.
const (
	StepKitting  StepID = "kitting"
	StepAssembly StepID = "assembly"
	StepTesting  StepID = "testing"
	StepFinalQC  StepID = "final_qc"
	StepPacking  StepID = "packing"
)

// StepOrder is the canonical step sequence, first to last.
var StepOrder = []StepID{StepKitting, StepAssembly, StepTesting, StepFinalQC, StepPacking}

// PreviousStep returns the canonical predecessor of a step. ok is false for
// the first step and for steps outside the canonical order.
func PreviousStep(step StepID) (StepID, bool) {
	for i, s := range StepOrder {
		if s == step {
			if i == 0 {
				return "", false
			}
			return StepOrder[i-1], true
		}
	}
	return "", false
}

// StepCompletionRecord reports whether one routing step is complete.
type StepCompletionRecord struct {
	StepID   StepID `json:"step_id"`
	Complete bool   `json:"complete"`
}

// DocumentRecord is one entry from the work order's document bundle.
type DocumentRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Complete bool   `json:"complete"`
}

// EvaluationInput is the fact snapshot one evaluation runs over. Every fact
// family is independently optional: nil means "not supplied" and skips the
// family's checkers.
type EvaluationInput struct {
	WorkOrderID   string `json:"work_order_id"`
	CurrentUserID string `json:"current_user_id"`
	CurrentStep   StepID `json:"current_step"`

	Calibrations        []CalibrationRecord    `json:"calibrations,omitempty"`
	Cleanliness         *CleanlinessCheck      `json:"cleanliness,omitempty"`
	SerialScans         []SerialScanRecord     `json:"serial_scans,omitempty"`
	RequiredSerialCount *int                   `json:"required_serial_count,omitempty"`
	TestVerdict         *TestVerdictRecord     `json:"test_verdict,omitempty"`
	FinalQC             *FinalQCSignoff        `json:"final_qc,omitempty"`
	Approvals           []ApprovalRecord       `json:"approvals,omitempty"`
	StepCompletions     []StepCompletionRecord `json:"step_completions,omitempty"`
	Documents           []DocumentRecord       `json:"documents,omitempty"`
}
