package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists exception requests in PostgreSQL. Pure I/O; the
// one-way transition invariant is enforced by the service through the model.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req Request) error {
	query := `
		INSERT INTO exception_requests (
			id, tenant_id, job_id, finding_id, rule_id, justification,
			status, created_by, created_at, decided_by, decided_at, decision_comment
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, NULLIF($12, ''))
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID, req.TenantID, req.JobID, req.FindingID, req.RuleID, req.Justification,
		string(req.Status), req.CreatedBy, req.CreatedAt,
		req.DecidedBy, nullTime(req.DecidedAt), req.DecisionComment,
	)
	if err != nil {
		return fmt.Errorf("create exception request: %w", err)
	}
	return nil
}

const requestColumns = `
	id, tenant_id, job_id, finding_id, rule_id, justification,
	status, created_by, created_at,
	COALESCE(decided_by, ''), decided_at, COALESCE(decision_comment, '')
`

func (s *PostgresStore) Get(ctx context.Context, tenantID, id string) (Request, error) {
	query := `SELECT ` + requestColumns + ` FROM exception_requests WHERE tenant_id = $1 AND id = $2`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("get exception request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) Update(ctx context.Context, req Request) error {
	query := `
		UPDATE exception_requests SET
			status = $3,
			decided_by = NULLIF($4, ''),
			decided_at = $5,
			decision_comment = NULLIF($6, '')
		WHERE tenant_id = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		req.TenantID, req.ID, string(req.Status),
		req.DecidedBy, nullTime(req.DecidedAt), req.DecisionComment,
	)
	if err != nil {
		return fmt.Errorf("update exception request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exception request: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID string) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM exception_requests WHERE tenant_id = $1 ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list exception requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exception requests: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	var status string
	var decidedAt sql.NullTime
	err := row.Scan(
		&req.ID, &req.TenantID, &req.JobID, &req.FindingID, &req.RuleID, &req.Justification,
		&status, &req.CreatedBy, &req.CreatedAt,
		&req.DecidedBy, &decidedAt, &req.DecisionComment,
	)
	if err != nil {
		return Request{}, err
	}
	req.Status = Status(status)
	if decidedAt.Valid {
		ts := decidedAt.Time
		req.DecidedAt = &ts
	}
	return req, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
