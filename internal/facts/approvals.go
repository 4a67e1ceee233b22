package facts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatehouse/internal/gate"
	dErrors "gatehouse/pkg/domain-errors"
)

// ApprovalStore is the persistence the approval workflow needs. MemoryStore
// and PostgresStore both satisfy it.
type ApprovalStore interface {
	Approvals(ctx context.Context, workOrderID string) ([]gate.ApprovalRecord, error)
	AppendApproval(ctx context.Context, workOrderID string, record gate.ApprovalRecord) error
	UpdateApprovalStatus(ctx context.Context, workOrderID, approvalID string, status gate.ApprovalStatus) error
}

// ApprovalService is the approval workflow collaborator. Reads satisfy the
// session's ApprovalWorkflow port; writes enforce separation of duties through
// the gate engine's standalone check before touching the store.
type ApprovalService struct {
	store               ApprovalStore
	events              EventPublisher
	preventSelfApproval bool
	logger              *slog.Logger
}

func NewApprovalService(store ApprovalStore, events EventPublisher, preventSelfApproval bool, logger *slog.Logger) *ApprovalService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ApprovalService{
		store:               store,
		events:              events,
		preventSelfApproval: preventSelfApproval,
		logger:              logger,
	}
}

// Approvals returns pending and historical approval requests for a work
// order.
func (s *ApprovalService) Approvals(ctx context.Context, workOrderID string) ([]gate.ApprovalRecord, error) {
	return s.store.Approvals(ctx, workOrderID)
}

// Submit raises a new approval request.
func (s *ApprovalService) Submit(ctx context.Context, workOrderID, requestedByUserID, reason string) (gate.ApprovalRecord, error) {
	record := gate.ApprovalRecord{
		ID:                uuid.NewString(),
		RequestedByUserID: requestedByUserID,
		Status:            gate.ApprovalPending,
		Reason:            reason,
	}
	if err := s.store.AppendApproval(ctx, workOrderID, record); err != nil {
		return gate.ApprovalRecord{}, fmt.Errorf("append approval: %w", err)
	}
	s.publish(ctx, "approval.requested", workOrderID, record.ID, requestedByUserID, gate.ApprovalPending)
	return record, nil
}

// Decide approves or rejects a pending request. The separation-of-duties rule
// is checked here, at decision time, against the same predicate the
// sod_violation gate uses.
func (s *ApprovalService) Decide(ctx context.Context, workOrderID, approvalID, decidedByUserID string, approve bool) error {
	records, err := s.store.Approvals(ctx, workOrderID)
	if err != nil {
		return fmt.Errorf("load approvals: %w", err)
	}

	var record *gate.ApprovalRecord
	for i := range records {
		if records[i].ID == approvalID {
			record = &records[i]
			break
		}
	}
	if record == nil {
		return dErrors.New(dErrors.CodeNotFound, "approval request not found")
	}
	if record.Status != gate.ApprovalPending {
		return dErrors.New(dErrors.CodeConflict, "approval request already decided")
	}

	if sod := gate.CheckSoDForApproval(record.RequestedByUserID, decidedByUserID, s.preventSelfApproval); !sod.Allowed {
		return dErrors.New(dErrors.CodeForbidden, sod.Reason)
	}

	status := gate.ApprovalRejected
	if approve {
		status = gate.ApprovalApproved
	}
	if err := s.store.UpdateApprovalStatus(ctx, workOrderID, approvalID, status); err != nil {
		return fmt.Errorf("update approval %s: %w", approvalID, err)
	}
	s.publish(ctx, "approval.decided", workOrderID, approvalID, decidedByUserID, status)
	return nil
}

// publish is best-effort: a broker outage must not fail the workflow write.
func (s *ApprovalService) publish(ctx context.Context, eventType, workOrderID, approvalID, actorID string, status gate.ApprovalStatus) {
	err := s.events.Publish(ctx, ApprovalEvent{
		Type:        eventType,
		WorkOrderID: workOrderID,
		ApprovalID:  approvalID,
		ActorUserID: actorID,
		Status:      string(status),
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish approval event",
			"type", eventType,
			"work_order_id", workOrderID,
			"approval_id", approvalID,
			"error", err,
		)
	}
}
