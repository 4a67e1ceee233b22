package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Gate ids are shipped identifiers; changing one silently breaks every stored
// reference and dashboard filter built on it.
func TestGateIDsAreStable(t *testing.T) {
	expected := []GateID{
		"calibration_expired",
		"cleanliness_out_of_spec",
		"serial_scans_missing",
		"serial_scans_duplicate",
		"test_verdict_pending",
		"test_verdict_fail",
		"final_qc_not_signed",
		"sod_violation",
		"approval_pending",
		"previous_step_incomplete",
		"required_documents_missing",
	}
	assert.Equal(t, expected, catalogOrder)
}

func TestEveryGateHasCatalogEntryAndChecker(t *testing.T) {
	require.Len(t, catalog, len(catalogOrder))

	checkerIDs := make(map[GateID]bool, len(checkers))
	for _, c := range checkers {
		assert.False(t, checkerIDs[c.id], "duplicate checker for %s", c.id)
		checkerIDs[c.id] = true
	}
	for _, id := range catalogOrder {
		assert.Contains(t, catalog, id)
		assert.True(t, checkerIDs[id], "gate %s has no checker", id)
	}
}

func TestCatalogMetadataComplete(t *testing.T) {
	for id, def := range catalog {
		assert.NotEmpty(t, def.Name, "gate %s has no name", id)
		assert.NotEmpty(t, def.Description, "gate %s has no description", id)
		assert.NotEmpty(t, def.BlockedActions, "gate %s blocks nothing", id)
		assert.Contains(t, []Severity{SeverityError, SeverityWarning, SeverityInfo}, def.Severity)
		for _, action := range def.BlockedActions {
			assert.True(t, action.IsValid(), "gate %s blocks unknown action %s", id, action)
		}
	}
}

func TestCatalogReturnsDefensiveCopies(t *testing.T) {
	first := Catalog()
	first[0].BlockedActions[0] = "tampered"

	second := Catalog()
	assert.NotEqual(t, BlockedAction("tampered"), second[0].BlockedActions[0])
}

func TestParseGateID(t *testing.T) {
	id, err := ParseGateID("calibration_expired")
	require.NoError(t, err)
	assert.Equal(t, GateCalibrationExpired, id)

	_, err = ParseGateID("no_such_gate")
	assert.Error(t, err)
}
