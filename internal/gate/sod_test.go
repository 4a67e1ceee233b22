package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSoDForApproval(t *testing.T) {
	t.Run("self approval denied when rule enabled", func(t *testing.T) {
		decision := CheckSoDForApproval("u1", "u1", true)
		assert.False(t, decision.Allowed)
		assert.NotEmpty(t, decision.Reason)
	})

	t.Run("different user allowed", func(t *testing.T) {
		decision := CheckSoDForApproval("u1", "u2", true)
		assert.True(t, decision.Allowed)
		assert.Empty(t, decision.Reason)
	})

	t.Run("rule disabled allows self approval", func(t *testing.T) {
		decision := CheckSoDForApproval("u1", "u1", false)
		assert.True(t, decision.Allowed)
	})

	t.Run("empty requester never matches", func(t *testing.T) {
		decision := CheckSoDForApproval("", "", true)
		assert.True(t, decision.Allowed)
	})
}

// The standalone check and the sod_violation gate share one predicate; this
// pins their agreement across representative cases.
func TestStandaloneCheckAgreesWithGate(t *testing.T) {
	cases := []struct {
		requestedBy string
		currentUser string
	}{
		{"u1", "u1"},
		{"u1", "u2"},
		{"", "u1"},
	}
	for _, tc := range cases {
		decision := CheckSoDForApproval(tc.requestedBy, tc.currentUser, true)

		gateActive := checkSoDViolation([]ApprovalRecord{
			{ID: "a1", RequestedByUserID: tc.requestedBy, Status: ApprovalPending},
		}, tc.currentUser) != nil

		assert.Equal(t, !decision.Allowed, gateActive,
			"requestedBy=%q currentUser=%q", tc.requestedBy, tc.currentUser)
	}
}
