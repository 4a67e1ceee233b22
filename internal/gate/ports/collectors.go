// Package ports defines the read interfaces the gate session uses to gather
// fact snapshots. Each collaborator exposes one family; the session never
// needs write access. Implementations must return a consistent snapshot for a
// single call; partial availability (a nil Collectors field) is valid and
// simply skips that family.
package ports

import (
	"context"

	"gatehouse/internal/gate"
)

// CalibrationRegistry serves equipment calibration records per work order.
type CalibrationRegistry interface {
	Calibrations(ctx context.Context, workOrderID string) ([]gate.CalibrationRecord, error)
}

// CleanlinessInspection serves the latest work-area cleanliness check. A nil
// record with a nil error means no check exists yet.
type CleanlinessInspection interface {
	LatestCheck(ctx context.Context, workOrderID string) (*gate.CleanlinessCheck, error)
}

// SerialScanLedger serves recorded serial scans and the scan quota for a work
// order.
type SerialScanLedger interface {
	Scans(ctx context.Context, workOrderID string) ([]gate.SerialScanRecord, error)
	RequiredSerialCount(ctx context.Context, workOrderID string) (int, error)
}

// TestVerdictService serves the functional test verdict. A nil record with a
// nil error means no test run exists yet.
type TestVerdictService interface {
	Verdict(ctx context.Context, workOrderID string) (*gate.TestVerdictRecord, error)
}

// FinalQCService serves the final quality control sign-off state.
type FinalQCService interface {
	Signoff(ctx context.Context, workOrderID string) (*gate.FinalQCSignoff, error)
}

// ApprovalWorkflow serves approval requests, pending and historical.
type ApprovalWorkflow interface {
	Approvals(ctx context.Context, workOrderID string) ([]gate.ApprovalRecord, error)
}

// StepTracker serves per-step completion records.
type StepTracker interface {
	StepCompletions(ctx context.Context, workOrderID string) ([]gate.StepCompletionRecord, error)
}

// DocumentBundle serves the work order's document completeness records.
type DocumentBundle interface {
	Documents(ctx context.Context, workOrderID string) ([]gate.DocumentRecord, error)
}

// Collectors bundles every fact source the session can draw from. A nil field
// marks the family as unavailable; its checkers are skipped.
type Collectors struct {
	Calibration CalibrationRegistry
	Cleanliness CleanlinessInspection
	Serials     SerialScanLedger
	Verdicts    TestVerdictService
	FinalQC     FinalQCService
	Approvals   ApprovalWorkflow
	Steps       StepTracker
	Documents   DocumentBundle
}
