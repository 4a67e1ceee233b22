package gate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeIDs(result *CheckResult) []GateID {
	ids := make([]GateID, 0, len(result.ActiveGates))
	for _, g := range result.ActiveGates {
		ids = append(ids, g.ID)
	}
	return ids
}

// richInput activates a broad mix of gates for the property tests.
func richInput() EvaluationInput {
	required := 3
	return EvaluationInput{
		WorkOrderID:   "WO-100",
		CurrentUserID: "u1",
		CurrentStep:   StepTesting,
		Calibrations: []CalibrationRecord{
			{EquipmentName: "Torque Driver", Status: CalibrationExpired},
		},
		Cleanliness: &CleanlinessCheck{Status: CleanlinessFail, Area: "cleanroom-3"},
		SerialScans: []SerialScanRecord{
			{Serial: "SN-1", Valid: true},
			{Serial: "SN-1", Valid: true, Duplicate: true},
		},
		RequiredSerialCount: &required,
		TestVerdict:         &TestVerdictRecord{Verdict: VerdictFail},
		FinalQC:             &FinalQCSignoff{Signed: false},
		Approvals: []ApprovalRecord{
			{ID: "a1", RequestedByUserID: "u1", Status: ApprovalPending},
		},
		StepCompletions: []StepCompletionRecord{
			{StepID: StepAssembly, Complete: false},
		},
		Documents: []DocumentRecord{
			{ID: "d1", Name: "Test report", Complete: false},
		},
	}
}

func TestEvaluateEmptySnapshotPasses(t *testing.T) {
	result := Evaluate(EvaluationInput{WorkOrderID: "WO-1"})

	assert.True(t, result.AllPassed)
	assert.Empty(t, result.ActiveGates)
	assert.Empty(t, result.BlockedActions)
	assert.True(t, result.CanPerformAction(ActionStartTest))
}

func TestEvaluateScenarioExpiredCalibration(t *testing.T) {
	result := Evaluate(EvaluationInput{
		WorkOrderID:  "WO-1",
		Calibrations: []CalibrationRecord{{EquipmentName: "CMM", Status: CalibrationExpired}},
	})

	assert.Equal(t, []GateID{GateCalibrationExpired}, activeIDs(result))
	assert.False(t, result.CanPerformAction(ActionStartTest))
	assert.True(t, result.CanPerformAction(ActionPrintLabel))
}

func TestEvaluateScenarioSerialScansShort(t *testing.T) {
	required := 3
	result := Evaluate(EvaluationInput{
		WorkOrderID: "WO-1",
		SerialScans: []SerialScanRecord{
			{Serial: "SN-1", Valid: true},
			{Serial: "SN-2", Valid: true},
		},
		RequiredSerialCount: &required,
	})

	assert.Equal(t, []GateID{GateSerialScansMissing}, activeIDs(result))
	assert.False(t, result.CanPerformAction(ActionCompletePacking))
}

func TestEvaluateScenarioFailedVerdict(t *testing.T) {
	result := Evaluate(EvaluationInput{
		WorkOrderID: "WO-1",
		TestVerdict: &TestVerdictRecord{Verdict: VerdictFail},
	})

	assert.Equal(t, []GateID{GateTestVerdictFail}, activeIDs(result))
	assert.False(t, result.CanPerformAction(ActionPrintLabel))
	assert.False(t, result.CanPerformAction(ActionHandover))
	assert.NotContains(t, activeIDs(result), GateTestVerdictPending)
}

func TestEvaluateScenarioCleanPass(t *testing.T) {
	result := Evaluate(EvaluationInput{
		WorkOrderID: "WO-1",
		TestVerdict: &TestVerdictRecord{Verdict: VerdictPass},
		FinalQC:     &FinalQCSignoff{Signed: true},
	})

	assert.True(t, result.AllPassed)
	assert.Empty(t, result.ActiveGates)
}

func TestEvaluateScenarioSelfApproval(t *testing.T) {
	result := Evaluate(EvaluationInput{
		WorkOrderID:   "WO-1",
		CurrentUserID: "u1",
		Approvals: []ApprovalRecord{
			{ID: "a1", RequestedByUserID: "u1", Status: ApprovalPending},
		},
	})

	assert.Contains(t, activeIDs(result), GateSoDViolation)
	assert.False(t, result.CanPerformAction(ActionApproveOwnRequest))
}

func TestEvaluateAllPassedMatchesActiveGates(t *testing.T) {
	inputs := []EvaluationInput{
		{},
		richInput(),
		{TestVerdict: &TestVerdictRecord{Verdict: VerdictPass}},
		{Cleanliness: &CleanlinessCheck{Status: CleanlinessFail}},
	}
	for _, in := range inputs {
		result := Evaluate(in)
		assert.Equal(t, len(result.ActiveGates) == 0, result.AllPassed)
	}
}

// canPerformAction must agree with a direct scan over the active gates.
func TestCanPerformActionMatchesActiveGates(t *testing.T) {
	result := Evaluate(richInput())

	for action := range validActions {
		blockedByScan := false
		for _, g := range result.ActiveGates {
			for _, a := range g.BlockedActions {
				if a == action {
					blockedByScan = true
				}
			}
		}
		assert.Equal(t, !blockedByScan, result.CanPerformAction(action), "action %s", action)
	}
}

func TestEvaluateOrderIndependent(t *testing.T) {
	in := richInput()
	baseline := evaluate(checkers, in)
	require.False(t, baseline.AllPassed)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]checker, len(checkers))
		copy(shuffled, checkers)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		result := evaluate(shuffled, in)
		assert.Equal(t, baseline.ActiveGates, result.ActiveGates)
		assert.Equal(t, baseline.BlockedActions, result.BlockedActions)
		assert.Equal(t, baseline.AllPassed, result.AllPassed)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	in := richInput()
	first := Evaluate(in)
	second := Evaluate(in)

	assert.Equal(t, first.ActiveGates, second.ActiveGates)
	assert.Equal(t, first.BlockedActions, second.BlockedActions)
	assert.Equal(t, first.AllPassed, second.AllPassed)
}

// The two verdict gates derive from one fact and can never fire together.
func TestVerdictGatesMutuallyExclusive(t *testing.T) {
	verdicts := []TestVerdict{VerdictPending, VerdictPass, VerdictFail, ""}
	for _, v := range verdicts {
		result := Evaluate(EvaluationInput{TestVerdict: &TestVerdictRecord{Verdict: v}})
		ids := activeIDs(result)
		both := false
		if containsID(ids, GateTestVerdictPending) && containsID(ids, GateTestVerdictFail) {
			both = true
		}
		assert.False(t, both, "verdict %q activated both verdict gates", v)
	}
}

func containsID(ids []GateID, id GateID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func TestBlockedActionsSurfaceEveryBlockingGate(t *testing.T) {
	required := 5
	result := Evaluate(EvaluationInput{
		WorkOrderID: "WO-1",
		SerialScans: []SerialScanRecord{
			{Serial: "SN-1", Valid: true},
			{Serial: "SN-1", Valid: true, Duplicate: true},
		},
		RequiredSerialCount: &required,
	})

	// Both serial gates block print_label; both must be surfaced.
	blocking := result.BlockingGates(ActionPrintLabel)
	require.Len(t, blocking, 2)
	assert.Equal(t, GateSerialScansMissing, blocking[0].ID)
	assert.Equal(t, GateSerialScansDuplicate, blocking[1].ID)

	reasons := result.BlockingReasons(ActionPrintLabel)
	require.Len(t, reasons, 2)
	assert.Contains(t, reasons[0], "Serial scans missing")
}

func TestQueriesTolerateUnknownActions(t *testing.T) {
	result := Evaluate(richInput())

	assert.True(t, result.CanPerformAction(BlockedAction("launch_rocket")))
	assert.Empty(t, result.BlockingGates(BlockedAction("launch_rocket")))
	assert.Empty(t, result.BlockingReasons(BlockedAction("launch_rocket")))
}

func TestNilResultQueriesFailClosed(t *testing.T) {
	var result *CheckResult

	assert.False(t, result.CanPerformAction(ActionStartTest))
	assert.Empty(t, result.BlockingGates(ActionStartTest))
	assert.Empty(t, result.BlockingReasons(ActionStartTest))
}
