package facts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"gatehouse/internal/gate"
	"gatehouse/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func (s *MemoryStoreSuite) TestUnknownWorkOrderIsEmptyNotError() {
	ctx := context.Background()

	records, err := s.store.Calibrations(ctx, "missing")
	s.Require().NoError(err)
	s.Empty(records)

	check, err := s.store.LatestCheck(ctx, "missing")
	s.Require().NoError(err)
	s.Nil(check)

	verdict, err := s.store.Verdict(ctx, "missing")
	s.Require().NoError(err)
	s.Nil(verdict)

	count, err := s.store.RequiredSerialCount(ctx, "missing")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *MemoryStoreSuite) TestCalibrationsRoundTrip() {
	ctx := context.Background()
	records := []gate.CalibrationRecord{
		{EquipmentID: "EQ-1", EquipmentName: "Torque Driver", Status: gate.CalibrationExpired},
	}
	s.store.SetCalibrations("WO-1", records)

	got, err := s.store.Calibrations(ctx, "WO-1")
	s.Require().NoError(err)
	s.Equal(records, got)

	// Mutating the returned slice must not touch the store.
	got[0].Status = gate.CalibrationValid
	again, err := s.store.Calibrations(ctx, "WO-1")
	s.Require().NoError(err)
	s.Equal(gate.CalibrationExpired, again[0].Status)
}

func (s *MemoryStoreSuite) TestScansAndQuota() {
	ctx := context.Background()
	s.store.AppendScan("WO-1", gate.SerialScanRecord{Serial: "SN-1", Valid: true})
	s.store.AppendScan("WO-1", gate.SerialScanRecord{Serial: "SN-2", Valid: true})
	s.store.SetRequiredSerialCount("WO-1", 3)

	scans, err := s.store.Scans(ctx, "WO-1")
	s.Require().NoError(err)
	s.Len(scans, 2)

	count, err := s.store.RequiredSerialCount(ctx, "WO-1")
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *MemoryStoreSuite) TestApprovalLifecycle() {
	ctx := context.Background()
	record := gate.ApprovalRecord{ID: "a1", RequestedByUserID: "u1", Status: gate.ApprovalPending}
	s.Require().NoError(s.store.AppendApproval(ctx, "WO-1", record))

	s.Require().NoError(s.store.UpdateApprovalStatus(ctx, "WO-1", "a1", gate.ApprovalApproved))

	records, err := s.store.Approvals(ctx, "WO-1")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(gate.ApprovalApproved, records[0].Status)
}

func (s *MemoryStoreSuite) TestUpdateMissingApprovalReturnsNotFound() {
	err := s.store.UpdateApprovalStatus(context.Background(), "WO-1", "nope", gate.ApprovalApproved)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestStepCompletionUpsert() {
	ctx := context.Background()
	s.store.SetStepCompletion("WO-1", gate.StepKitting, false)
	s.store.SetStepCompletion("WO-1", gate.StepKitting, true)
	s.store.SetStepCompletion("WO-1", gate.StepAssembly, false)

	records, err := s.store.StepCompletions(ctx, "WO-1")
	s.Require().NoError(err)
	s.Len(records, 2)
	for _, r := range records {
		if r.StepID == gate.StepKitting {
			s.True(r.Complete)
		}
	}
}
