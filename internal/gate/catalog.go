package gate

// definition is the immutable catalog metadata for one gate.
type definition struct {
	Name           string
	Description    string
	Severity       Severity
	BlockedActions []BlockedAction
}

// catalogOrder fixes the order in which gates are reported. Evaluation itself
// is order-independent; this only keeps output deterministic for operators,
// logs, and tests.
var catalogOrder = []GateID{
	GateCalibrationExpired,
	GateCleanlinessOutOfSpec,
	GateSerialScansMissing,
	GateSerialScansDuplicate,
	GateTestVerdictPending,
	GateTestVerdictFail,
	GateFinalQCNotSigned,
	GateSoDViolation,
	GateApprovalPending,
	GatePreviousStepIncomplete,
	GateRequiredDocumentsMissing,
}

// catalog is the read-only gate definition table. Never repurpose an id; add a
// new one and a paired checker instead.
var catalog = map[GateID]definition{
	GateCalibrationExpired: {
		Name:        "Calibration expired",
		Description: "One or more pieces of equipment assigned to this work order have an expired calibration.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionStartTest, ActionCompleteStep,
		},
	},
	GateCleanlinessOutOfSpec: {
		Name:        "Cleanliness out of spec",
		Description: "The latest cleanliness inspection for the work area failed.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionStartTest, ActionCompleteStep,
		},
	},
	GateSerialScansMissing: {
		Name:        "Serial scans missing",
		Description: "Fewer valid unique serial scans were recorded than the work order requires.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionCompletePacking, ActionPrintLabel, ActionProceedNextStep,
		},
	},
	GateSerialScansDuplicate: {
		Name:        "Duplicate serial scans",
		Description: "At least one serial number was scanned more than once.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionCompletePacking, ActionPrintLabel,
		},
	},
	GateTestVerdictPending: {
		Name:        "Test verdict pending",
		Description: "The functional test for this work order has not produced a verdict yet.",
		Severity:    SeverityWarning,
		BlockedActions: []BlockedAction{
			ActionPrintLabel, ActionProceedNextStep, ActionFinalQCSignoff,
		},
	},
	GateTestVerdictFail: {
		Name:        "Test verdict fail",
		Description: "The functional test for this work order failed.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionPrintLabel, ActionHandover, ActionProceedNextStep, ActionGenerateCertificate,
		},
	},
	GateFinalQCNotSigned: {
		Name:        "Final QC not signed",
		Description: "Final quality control has not been signed off.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionHandover, ActionGenerateCertificate,
		},
	},
	GateSoDViolation: {
		Name:        "Separation of duties violation",
		Description: "The current user has pending approval requests they raised themselves.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionApproveOwnRequest,
		},
	},
	GateApprovalPending: {
		Name:        "Approval pending",
		Description: "One or more approval requests for this work order are awaiting a decision.",
		Severity:    SeverityWarning,
		BlockedActions: []BlockedAction{
			ActionProceedNextStep, ActionCompleteStep,
		},
	},
	GatePreviousStepIncomplete: {
		Name:        "Previous step incomplete",
		Description: "The preceding routing step has not been completed.",
		Severity:    SeverityError,
		BlockedActions: []BlockedAction{
			ActionCompleteStep, ActionProceedNextStep,
		},
	},
	GateRequiredDocumentsMissing: {
		Name:        "Required documents missing",
		Description: "Required work order documents are incomplete.",
		Severity:    SeverityWarning,
		BlockedActions: []BlockedAction{
			ActionHandover, ActionGenerateCertificate, ActionFinalQCSignoff,
		},
	},
}

// Definition returns the catalog metadata for a gate id.
func Definition(id GateID) (Gate, bool) {
	def, ok := catalog[id]
	if !ok {
		return Gate{}, false
	}
	return newGate(id, def, "", false), true
}

// Catalog returns every gate definition in reporting order, inactive.
func Catalog() []Gate {
	gates := make([]Gate, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		gates = append(gates, newGate(id, catalog[id], "", false))
	}
	return gates
}

func newGate(id GateID, def definition, details string, active bool) Gate {
	actions := make([]BlockedAction, len(def.BlockedActions))
	copy(actions, def.BlockedActions)
	return Gate{
		ID:             id,
		Name:           def.Name,
		Description:    def.Description,
		Severity:       def.Severity,
		BlockedActions: actions,
		Active:         active,
		Details:        details,
	}
}

// activeGate builds an active Gate instance for a catalog id. Panics on an
// unknown id: checkers are paired with catalog entries at compile time, so a
// miss is a programming error, not an input error.
func activeGate(id GateID, details string) *Gate {
	def, ok := catalog[id]
	if !ok {
		panic("gate: no catalog entry for " + string(id))
	}
	g := newGate(id, def, details, true)
	return &g
}
