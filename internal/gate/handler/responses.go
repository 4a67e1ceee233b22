package handler

import (
	"time"

	"gatehouse/internal/gate"
)

// CheckResultResponse is the wire form of a gate evaluation. Only data
// crosses the boundary: the blocked-action index maps action names to gate
// ids, and clients rebuild their own query helpers over it.
type CheckResultResponse struct {
	AllPassed       bool                `json:"all_passed"`
	ActiveGates     []gate.Gate         `json:"active_gates"`
	BlockedActions  map[string][]string `json:"blocked_actions"`
	UnknownFamilies []string            `json:"unknown_families,omitempty"`
	EvaluatedAt     time.Time           `json:"evaluated_at"`
}

// FromResult converts an engine result to an HTTP response.
func FromResult(result *gate.CheckResult, unknown []string) *CheckResultResponse {
	blocked := make(map[string][]string, len(result.BlockedActions))
	for action, gates := range result.BlockedActions {
		ids := make([]string, 0, len(gates))
		for _, g := range gates {
			ids = append(ids, string(g.ID))
		}
		blocked[string(action)] = ids
	}
	resp := &CheckResultResponse{
		AllPassed:       result.AllPassed,
		ActiveGates:     result.ActiveGates,
		BlockedActions:  blocked,
		UnknownFamilies: unknown,
		EvaluatedAt:     result.EvaluatedAt,
	}
	if resp.ActiveGates == nil {
		resp.ActiveGates = []gate.Gate{}
	}
	return resp
}

// GateStatusResponse reports a polled session's lifecycle state plus its
// latest evaluation, when one exists. No result with state "loading" means
// the first refresh has not finished; clients treat that as all actions
// blocked.
type GateStatusResponse struct {
	State           string               `json:"state"`
	Degraded        bool                 `json:"degraded"`
	UnknownFamilies []string             `json:"unknown_families,omitempty"`
	Result          *CheckResultResponse `json:"result,omitempty"`
}

// ActionResponse answers a single can-I-do-this query.
type ActionResponse struct {
	Action     string   `json:"action"`
	CanPerform bool     `json:"can_perform"`
	Reasons    []string `json:"reasons"`
}

// SoDCheckResponse is the wire form of a standalone SoD decision.
type SoDCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ApprovalResponse is the wire form of an approval record.
type ApprovalResponse struct {
	ID                string `json:"id"`
	WorkOrderID       string `json:"work_order_id"`
	RequestedByUserID string `json:"requested_by_user_id"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
}
