package gate

import (
	"fmt"
	"strings"
)

// Checkers are pure predicates over one fact family. Each returns an active
// Gate instance or nil; nil covers both "family not supplied" (checker does
// not apply) and "condition does not hold".

func checkCalibrationExpired(records []CalibrationRecord) *Gate {
	if len(records) == 0 {
		return nil
	}
	var expired []string
	for _, r := range records {
		if r.Status == CalibrationExpired {
			name := r.EquipmentName
			if name == "" {
				name = r.EquipmentID
			}
			expired = append(expired, name)
		}
	}
	if len(expired) == 0 {
		return nil
	}
	return activeGate(GateCalibrationExpired,
		fmt.Sprintf("%d equipment calibration(s) expired: %s", len(expired), strings.Join(expired, ", ")))
}

// A pending cleanliness check does not block. Whether it should is an open
// policy question tracked in DESIGN.md.
func checkCleanlinessOutOfSpec(check *CleanlinessCheck) *Gate {
	if check == nil || check.Status != CleanlinessFail {
		return nil
	}
	details := "cleanliness inspection failed"
	if check.Area != "" {
		details = fmt.Sprintf("cleanliness inspection failed for area %s", check.Area)
	}
	return activeGate(GateCleanlinessOutOfSpec, details)
}

func checkSerialScansMissing(scans []SerialScanRecord, required *int) *Gate {
	if scans == nil || required == nil || *required <= 0 {
		return nil
	}
	usable := 0
	for _, s := range scans {
		if s.Valid && !s.Duplicate {
			usable++
		}
	}
	if usable >= *required {
		return nil
	}
	return activeGate(GateSerialScansMissing,
		fmt.Sprintf("%d of %d required serial scans recorded", usable, *required))
}

func checkSerialScansDuplicate(scans []SerialScanRecord) *Gate {
	if len(scans) == 0 {
		return nil
	}
	var dupes []string
	for _, s := range scans {
		if s.Duplicate {
			dupes = append(dupes, s.Serial)
		}
	}
	if len(dupes) == 0 {
		return nil
	}
	return activeGate(GateSerialScansDuplicate,
		fmt.Sprintf("%d duplicate serial scan(s): %s", len(dupes), strings.Join(dupes, ", ")))
}

func checkTestVerdictPending(rec *TestVerdictRecord) *Gate {
	if rec == nil {
		return nil
	}
	// An empty verdict on a supplied record counts as pending.
	if rec.Verdict == VerdictPass || rec.Verdict == VerdictFail {
		return nil
	}
	details := "test verdict not yet recorded"
	if rec.TestName != "" {
		details = fmt.Sprintf("verdict for test %q not yet recorded", rec.TestName)
	}
	return activeGate(GateTestVerdictPending, details)
}

func checkTestVerdictFail(rec *TestVerdictRecord) *Gate {
	if rec == nil || rec.Verdict != VerdictFail {
		return nil
	}
	details := "functional test failed"
	if rec.TestName != "" {
		details = fmt.Sprintf("test %q failed", rec.TestName)
	}
	return activeGate(GateTestVerdictFail, details)
}

func checkFinalQCNotSigned(signoff *FinalQCSignoff) *Gate {
	if signoff == nil || signoff.Signed {
		return nil
	}
	return activeGate(GateFinalQCNotSigned, "final QC sign-off has not been recorded")
}

func checkSoDViolation(approvals []ApprovalRecord, currentUserID string) *Gate {
	if len(approvals) == 0 || currentUserID == "" {
		return nil
	}
	own := 0
	for _, a := range approvals {
		if a.Status == ApprovalPending && isSelfApproval(a.RequestedByUserID, currentUserID) {
			own++
		}
	}
	if own == 0 {
		return nil
	}
	return activeGate(GateSoDViolation,
		fmt.Sprintf("%d pending approval request(s) were raised by the current user", own))
}

func checkApprovalPending(approvals []ApprovalRecord) *Gate {
	if len(approvals) == 0 {
		return nil
	}
	pending := 0
	for _, a := range approvals {
		if a.Status == ApprovalPending {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}
	return activeGate(GateApprovalPending,
		fmt.Sprintf("%d approval request(s) awaiting a decision", pending))
}

func checkPreviousStepIncomplete(completions []StepCompletionRecord, currentStep StepID) *Gate {
	if completions == nil {
		return nil
	}
	prev, ok := PreviousStep(currentStep)
	if !ok {
		// First step, or a step outside the canonical order.
		return nil
	}
	for _, c := range completions {
		if c.StepID == prev {
			if c.Complete {
				return nil
			}
			break
		}
	}
	// Predecessor missing from the records counts as incomplete.
	return activeGate(GatePreviousStepIncomplete,
		fmt.Sprintf("step %s must be completed before %s", prev, currentStep))
}

func checkRequiredDocumentsMissing(documents []DocumentRecord) *Gate {
	if len(documents) == 0 {
		return nil
	}
	var missing []string
	for _, d := range documents {
		if !d.Complete {
			name := d.Name
			if name == "" {
				name = d.ID
			}
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return activeGate(GateRequiredDocumentsMissing,
		fmt.Sprintf("%d of %d document(s) incomplete: %s", len(missing), len(documents), strings.Join(missing, ", ")))
}
