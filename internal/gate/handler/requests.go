package handler

import (
	"strings"

	"gatehouse/internal/gate"
	dErrors "gatehouse/pkg/domain-errors"
)

// EvaluateRequest is the HTTP request body for POST /gates/evaluate. It
// carries an explicit fact snapshot; the caller owns gathering. Every family
// is optional, and an omitted family skips its checkers.
type EvaluateRequest struct {
	WorkOrderID string `json:"work_order_id"`
	CurrentStep string `json:"current_step"`

	Calibrations        []gate.CalibrationRecord    `json:"calibrations"`
	Cleanliness         *gate.CleanlinessCheck      `json:"cleanliness"`
	SerialScans         []gate.SerialScanRecord     `json:"serial_scans"`
	RequiredSerialCount *int                        `json:"required_serial_count"`
	TestVerdict         *gate.TestVerdictRecord     `json:"test_verdict"`
	FinalQC             *gate.FinalQCSignoff        `json:"final_qc"`
	Approvals           []gate.ApprovalRecord       `json:"approvals"`
	StepCompletions     []gate.StepCompletionRecord `json:"step_completions"`
	Documents           []gate.DocumentRecord       `json:"documents"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	r.WorkOrderID = strings.TrimSpace(r.WorkOrderID)
	if r.WorkOrderID == "" {
		return dErrors.New(dErrors.CodeValidation, "work_order_id is required")
	}
	if r.RequiredSerialCount != nil && *r.RequiredSerialCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "required_serial_count must not be negative")
	}
	return nil
}

// Input assembles the engine snapshot. The evaluating user always comes from
// the authenticated context, never the body.
func (r *EvaluateRequest) Input(currentUserID string) gate.EvaluationInput {
	return gate.EvaluationInput{
		WorkOrderID:         r.WorkOrderID,
		CurrentUserID:       currentUserID,
		CurrentStep:         gate.StepID(r.CurrentStep),
		Calibrations:        r.Calibrations,
		Cleanliness:         r.Cleanliness,
		SerialScans:         r.SerialScans,
		RequiredSerialCount: r.RequiredSerialCount,
		TestVerdict:         r.TestVerdict,
		FinalQC:             r.FinalQC,
		Approvals:           r.Approvals,
		StepCompletions:     r.StepCompletions,
		Documents:           r.Documents,
	}
}

// SoDCheckRequest is the HTTP request body for POST /approvals/sod-check.
type SoDCheckRequest struct {
	RequestedByUserID string `json:"requested_by_user_id"`
}

func (r *SoDCheckRequest) Validate() error {
	r.RequestedByUserID = strings.TrimSpace(r.RequestedByUserID)
	if r.RequestedByUserID == "" {
		return dErrors.New(dErrors.CodeValidation, "requested_by_user_id is required")
	}
	return nil
}

// SubmitApprovalRequest is the body for raising an approval request.
type SubmitApprovalRequest struct {
	Reason string `json:"reason"`
}

func (r *SubmitApprovalRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// DecideApprovalRequest is the body for deciding an approval request.
type DecideApprovalRequest struct {
	Approve *bool `json:"approve"`
}

func (r *DecideApprovalRequest) Validate() error {
	if r.Approve == nil {
		return dErrors.New(dErrors.CodeValidation, "approve is required")
	}
	return nil
}
