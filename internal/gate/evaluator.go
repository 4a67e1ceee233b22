package gate

import "time"

// checker pairs a gate id with the function that decides its activation for a
// snapshot. Every catalog entry has exactly one checker.
type checker struct {
	id  GateID
	run func(in EvaluationInput) *Gate
}

var checkers = []checker{
	{GateCalibrationExpired, func(in EvaluationInput) *Gate {
		return checkCalibrationExpired(in.Calibrations)
	}},
	{GateCleanlinessOutOfSpec, func(in EvaluationInput) *Gate {
		return checkCleanlinessOutOfSpec(in.Cleanliness)
	}},
	{GateSerialScansMissing, func(in EvaluationInput) *Gate {
		return checkSerialScansMissing(in.SerialScans, in.RequiredSerialCount)
	}},
	{GateSerialScansDuplicate, func(in EvaluationInput) *Gate {
		return checkSerialScansDuplicate(in.SerialScans)
	}},
	{GateTestVerdictPending, func(in EvaluationInput) *Gate {
		return checkTestVerdictPending(in.TestVerdict)
	}},
	{GateTestVerdictFail, func(in EvaluationInput) *Gate {
		return checkTestVerdictFail(in.TestVerdict)
	}},
	{GateFinalQCNotSigned, func(in EvaluationInput) *Gate {
		return checkFinalQCNotSigned(in.FinalQC)
	}},
	{GateSoDViolation, func(in EvaluationInput) *Gate {
		return checkSoDViolation(in.Approvals, in.CurrentUserID)
	}},
	{GateApprovalPending, func(in EvaluationInput) *Gate {
		return checkApprovalPending(in.Approvals)
	}},
	{GatePreviousStepIncomplete, func(in EvaluationInput) *Gate {
		return checkPreviousStepIncomplete(in.StepCompletions, in.CurrentStep)
	}},
	{GateRequiredDocumentsMissing, func(in EvaluationInput) *Gate {
		return checkRequiredDocumentsMissing(in.Documents)
	}},
}

// CheckResult is the immutable outcome of one evaluation. BlockedActions is
// fully derived from ActiveGates; the two never diverge.
type CheckResult struct {
	AllPassed      bool                     `json:"all_passed"`
	ActiveGates    []Gate                   `json:"active_gates"`
	BlockedActions map[BlockedAction][]Gate `json:"blocked_actions"`
	EvaluatedAt    time.Time                `json:"evaluated_at"`
}

// Evaluate runs every applicable checker over the snapshot and assembles the
// result. It is pure: no I/O, no retained state, same input same output.
func Evaluate(in EvaluationInput) *CheckResult {
	return evaluate(checkers, in)
}

// evaluate exists separately so tests can permute the checker order and prove
// the accumulation is commutative.
func evaluate(cs []checker, in EvaluationInput) *CheckResult {
	byID := make(map[GateID]Gate, len(cs))
	for _, c := range cs {
		if g := c.run(in); g != nil {
			byID[g.ID] = *g
		}
	}

	result := &CheckResult{
		BlockedActions: make(map[BlockedAction][]Gate),
		EvaluatedAt:    time.Now().UTC(),
	}
	// Report in catalog order regardless of checker order.
	for _, id := range catalogOrder {
		g, ok := byID[id]
		if !ok {
			continue
		}
		result.ActiveGates = append(result.ActiveGates, g)
		for _, action := range g.BlockedActions {
			result.BlockedActions[action] = append(result.BlockedActions[action], g)
		}
	}
	result.AllPassed = len(result.ActiveGates) == 0
	return result
}

// CanPerformAction reports whether no active gate blocks the action. Unknown
// action names are never blocked. O(1) over the prebuilt index; checkers are
// not re-run.
func (r *CheckResult) CanPerformAction(action BlockedAction) bool {
	if r == nil {
		return false
	}
	return len(r.BlockedActions[action]) == 0
}

// BlockingGates returns the active gates blocking the action, empty for
// unknown or unblocked actions.
func (r *CheckResult) BlockingGates(action BlockedAction) []Gate {
	if r == nil {
		return nil
	}
	gates := r.BlockedActions[action]
	out := make([]Gate, len(gates))
	copy(out, gates)
	return out
}

// BlockingReasons returns operator-facing reasons for each gate blocking the
// action.
func (r *CheckResult) BlockingReasons(action BlockedAction) []string {
	gates := r.BlockingGates(action)
	reasons := make([]string, 0, len(gates))
	for _, g := range gates {
		reason := g.Name
		if g.Details != "" {
			reason = g.Name + ": " + g.Details
		}
		reasons = append(reasons, reason)
	}
	return reasons
}
