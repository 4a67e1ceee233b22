package facts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gatehouse/internal/gate"
	"gatehouse/pkg/platform/sentinel"
)

// Schema holds the DDL for the Postgres-backed fact families. Applied by
// EnsureSchema; production deployments manage it through migrations instead.
const Schema = `
CREATE TABLE IF NOT EXISTS approvals (
	id            TEXT PRIMARY KEY,
	work_order_id TEXT NOT NULL,
	requested_by  TEXT NOT NULL,
	status        TEXT NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS approvals_work_order_idx ON approvals (work_order_id);

CREATE TABLE IF NOT EXISTS step_completions (
	work_order_id TEXT NOT NULL,
	step_id       TEXT NOT NULL,
	complete      BOOLEAN NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (work_order_id, step_id)
);
`

// PostgresStore persists approvals and step completions in PostgreSQL. It
// satisfies ApprovalStore and the session's StepTracker port.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the backing tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure facts schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Approvals(ctx context.Context, workOrderID string) ([]gate.ApprovalRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, requested_by, status, reason
		 FROM approvals WHERE work_order_id = $1 ORDER BY created_at`,
		workOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query approvals: %w", err)
	}
	defer rows.Close()

	var records []gate.ApprovalRecord
	for rows.Next() {
		var r gate.ApprovalRecord
		if err := rows.Scan(&r.ID, &r.RequestedByUserID, &r.Status, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvals: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) AppendApproval(ctx context.Context, workOrderID string, record gate.ApprovalRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO approvals (id, work_order_id, requested_by, status, reason)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, workOrderID, record.RequestedByUserID, record.Status, record.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateApprovalStatus(ctx context.Context, workOrderID, approvalID string, status gate.ApprovalStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE approvals SET status = $3 WHERE work_order_id = $1 AND id = $2`,
		workOrderID, approvalID, status,
	)
	if err != nil {
		return fmt.Errorf("update approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) StepCompletions(ctx context.Context, workOrderID string) ([]gate.StepCompletionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT step_id, complete FROM step_completions WHERE work_order_id = $1`,
		workOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query step completions: %w", err)
	}
	defer rows.Close()

	var records []gate.StepCompletionRecord
	for rows.Next() {
		var r gate.StepCompletionRecord
		if err := rows.Scan(&r.StepID, &r.Complete); err != nil {
			return nil, fmt.Errorf("scan step completion: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step completions: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) SetStepCompletion(ctx context.Context, workOrderID string, step gate.StepID, complete bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO step_completions (work_order_id, step_id, complete)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (work_order_id, step_id)
		 DO UPDATE SET complete = EXCLUDED.complete, updated_at = now()`,
		workOrderID, step, complete,
	)
	if err != nil {
		return fmt.Errorf("upsert step completion: %w", err)
	}
	return nil
}
