package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gatehouse/internal/gate"
	"gatehouse/internal/gate/metrics"
	"gatehouse/internal/gate/ports"
)

// Fact family names, used for unknown-state reporting and metric labels.
const (
	FamilyCalibration = "calibration"
	FamilyCleanliness = "cleanliness"
	FamilySerials     = "serials"
	FamilyVerdict     = "verdict"
	FamilyFinalQC     = "final_qc"
	FamilyApprovals   = "approvals"
	FamilySteps       = "steps"
	FamilyDocuments   = "documents"
)

// Snapshot is one gathered fact round: the assembled evaluation input plus
// the families that could not be fetched. A failed family is absent from the
// input (its checkers are skipped) and listed in Unknown so callers can tell
// "checked and passed" from "never checked". That distinction matters for
// error-severity gates.
type Snapshot struct {
	Input   gate.EvaluationInput
	Unknown []string
}

// Gather fans out one fetch per available fact family and assembles the
// snapshot. Families are independent, so fetches run concurrently; a failure
// in one never aborts the others. Gather itself never returns an error —
// per-family failures degrade to Unknown entries.
func Gather(ctx context.Context, collectors ports.Collectors, workOrderID string, m *metrics.Metrics, logger *slog.Logger) Snapshot {
	snap := Snapshot{
		Input: gate.EvaluationInput{WorkOrderID: workOrderID},
	}

	var mu sync.Mutex
	markUnknown := func(family string, err error) {
		mu.Lock()
		snap.Unknown = append(snap.Unknown, family)
		mu.Unlock()
		m.IncrementUnknownFamily(family)
		if logger != nil {
			logger.WarnContext(ctx, "fact family unavailable",
				"work_order_id", workOrderID,
				"family", family,
				"error", err,
			)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if collectors.Calibration != nil {
		g.Go(func() error {
			start := time.Now()
			records, err := collectors.Calibration.Calibrations(ctx, workOrderID)
			m.ObserveFactFetch(FamilyCalibration, time.Since(start))
			if err != nil {
				markUnknown(FamilyCalibration, err)
				return nil
			}
			snap.Input.Calibrations = records
			return nil
		})
	}

	if collectors.Cleanliness != nil {
		g.Go(func() error {
			start := time.Now()
			check, err := collectors.Cleanliness.LatestCheck(ctx, workOrderID)
			m.ObserveFactFetch(FamilyCleanliness, time.Since(start))
			if err != nil {
				markUnknown(FamilyCleanliness, err)
				return nil
			}
			snap.Input.Cleanliness = check
			return nil
		})
	}

	if collectors.Serials != nil {
		g.Go(func() error {
			start := time.Now()
			scans, err := collectors.Serials.Scans(ctx, workOrderID)
			if err == nil {
				var required int
				required, err = collectors.Serials.RequiredSerialCount(ctx, workOrderID)
				if err == nil {
					snap.Input.SerialScans = scans
					snap.Input.RequiredSerialCount = &required
				}
			}
			m.ObserveFactFetch(FamilySerials, time.Since(start))
			if err != nil {
				markUnknown(FamilySerials, err)
			}
			return nil
		})
	}

	if collectors.Verdicts != nil {
		g.Go(func() error {
			start := time.Now()
			verdict, err := collectors.Verdicts.Verdict(ctx, workOrderID)
			m.ObserveFactFetch(FamilyVerdict, time.Since(start))
			if err != nil {
				markUnknown(FamilyVerdict, err)
				return nil
			}
			snap.Input.TestVerdict = verdict
			return nil
		})
	}

	if collectors.FinalQC != nil {
		g.Go(func() error {
			start := time.Now()
			signoff, err := collectors.FinalQC.Signoff(ctx, workOrderID)
			m.ObserveFactFetch(FamilyFinalQC, time.Since(start))
			if err != nil {
				markUnknown(FamilyFinalQC, err)
				return nil
			}
			snap.Input.FinalQC = signoff
			return nil
		})
	}

	if collectors.Approvals != nil {
		g.Go(func() error {
			start := time.Now()
			approvals, err := collectors.Approvals.Approvals(ctx, workOrderID)
			m.ObserveFactFetch(FamilyApprovals, time.Since(start))
			if err != nil {
				markUnknown(FamilyApprovals, err)
				return nil
			}
			snap.Input.Approvals = approvals
			return nil
		})
	}

	if collectors.Steps != nil {
		g.Go(func() error {
			start := time.Now()
			completions, err := collectors.Steps.StepCompletions(ctx, workOrderID)
			m.ObserveFactFetch(FamilySteps, time.Since(start))
			if err != nil {
				markUnknown(FamilySteps, err)
				return nil
			}
			snap.Input.StepCompletions = completions
			return nil
		})
	}

	if collectors.Documents != nil {
		g.Go(func() error {
			start := time.Now()
			documents, err := collectors.Documents.Documents(ctx, workOrderID)
			m.ObserveFactFetch(FamilyDocuments, time.Since(start))
			if err != nil {
				markUnknown(FamilyDocuments, err)
				return nil
			}
			snap.Input.Documents = documents
			return nil
		})
	}

	// Goroutines always return nil; Wait only synchronizes.
	_ = g.Wait()
	return snap
}
