// Package facts implements the fact collaborator services behind the gate
// session's collector ports: per-family repositories with in-memory, Postgres,
// and Redis backings, plus the approval workflow service.
//
// Stores are always injected, never package-level singletons, so tests cannot
// leak state into each other.
package facts

import (
	"context"
	"sync"

	"gatehouse/internal/gate"
	"gatehouse/pkg/platform/sentinel"
)

// MemoryStore is the in-memory repository for every fact family. It backs
// development and tests, and stands in for any family whose external service
// is not configured.
type MemoryStore struct {
	mu              sync.RWMutex
	calibrations    map[string][]gate.CalibrationRecord
	cleanliness     map[string]gate.CleanlinessCheck
	scans           map[string][]gate.SerialScanRecord
	requiredSerials map[string]int
	verdicts        map[string]gate.TestVerdictRecord
	signoffs        map[string]gate.FinalQCSignoff
	approvals       map[string][]gate.ApprovalRecord
	steps           map[string][]gate.StepCompletionRecord
	documents       map[string][]gate.DocumentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calibrations:    make(map[string][]gate.CalibrationRecord),
		cleanliness:     make(map[string]gate.CleanlinessCheck),
		scans:           make(map[string][]gate.SerialScanRecord),
		requiredSerials: make(map[string]int),
		verdicts:        make(map[string]gate.TestVerdictRecord),
		signoffs:        make(map[string]gate.FinalQCSignoff),
		approvals:       make(map[string][]gate.ApprovalRecord),
		steps:           make(map[string][]gate.StepCompletionRecord),
		documents:       make(map[string][]gate.DocumentRecord),
	}
}

func (s *MemoryStore) Calibrations(_ context.Context, workOrderID string) ([]gate.CalibrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]gate.CalibrationRecord{}, s.calibrations[workOrderID]...), nil
}

func (s *MemoryStore) SetCalibrations(workOrderID string, records []gate.CalibrationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibrations[workOrderID] = append([]gate.CalibrationRecord{}, records...)
}

// LatestCheck returns nil when no cleanliness inspection exists yet.
func (s *MemoryStore) LatestCheck(_ context.Context, workOrderID string) (*gate.CleanlinessCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	check, ok := s.cleanliness[workOrderID]
	if !ok {
		return nil, nil
	}
	return &check, nil
}

func (s *MemoryStore) SetCleanliness(workOrderID string, check gate.CleanlinessCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanliness[workOrderID] = check
}

func (s *MemoryStore) Scans(_ context.Context, workOrderID string) ([]gate.SerialScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]gate.SerialScanRecord{}, s.scans[workOrderID]...), nil
}

func (s *MemoryStore) AppendScan(workOrderID string, scan gate.SerialScanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans[workOrderID] = append(s.scans[workOrderID], scan)
}

func (s *MemoryStore) RequiredSerialCount(_ context.Context, workOrderID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requiredSerials[workOrderID], nil
}

func (s *MemoryStore) SetRequiredSerialCount(workOrderID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requiredSerials[workOrderID] = count
}

// Verdict returns nil when no test run exists yet.
func (s *MemoryStore) Verdict(_ context.Context, workOrderID string) (*gate.TestVerdictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	verdict, ok := s.verdicts[workOrderID]
	if !ok {
		return nil, nil
	}
	return &verdict, nil
}

func (s *MemoryStore) SetVerdict(workOrderID string, verdict gate.TestVerdictRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts[workOrderID] = verdict
}

// Signoff returns nil when final QC has not been recorded at all.
func (s *MemoryStore) Signoff(_ context.Context, workOrderID string) (*gate.FinalQCSignoff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	signoff, ok := s.signoffs[workOrderID]
	if !ok {
		return nil, nil
	}
	return &signoff, nil
}

func (s *MemoryStore) SetSignoff(workOrderID string, signoff gate.FinalQCSignoff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signoffs[workOrderID] = signoff
}

func (s *MemoryStore) Approvals(_ context.Context, workOrderID string) ([]gate.ApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]gate.ApprovalRecord{}, s.approvals[workOrderID]...), nil
}

func (s *MemoryStore) AppendApproval(_ context.Context, workOrderID string, record gate.ApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[workOrderID] = append(s.approvals[workOrderID], record)
	return nil
}

func (s *MemoryStore) UpdateApprovalStatus(_ context.Context, workOrderID, approvalID string, status gate.ApprovalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.approvals[workOrderID]
	for i := range records {
		if records[i].ID == approvalID {
			records[i].Status = status
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) StepCompletions(_ context.Context, workOrderID string) ([]gate.StepCompletionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]gate.StepCompletionRecord{}, s.steps[workOrderID]...), nil
}

func (s *MemoryStore) SetStepCompletion(workOrderID string, step gate.StepID, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.steps[workOrderID]
	for i := range records {
		if records[i].StepID == step {
			records[i].Complete = complete
			return
		}
	}
	s.steps[workOrderID] = append(records, gate.StepCompletionRecord{StepID: step, Complete: complete})
}

func (s *MemoryStore) Documents(_ context.Context, workOrderID string) ([]gate.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]gate.DocumentRecord{}, s.documents[workOrderID]...), nil
}

func (s *MemoryStore) SetDocuments(workOrderID string, records []gate.DocumentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[workOrderID] = append([]gate.DocumentRecord{}, records...)
}
