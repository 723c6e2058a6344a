package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists audit rows in PostgreSQL. Pure I/O: idempotency on
// the row id is enforced with ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, row Log) error {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, tenant_id, job_id, action, created_at, payload)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, row.ID, row.TenantID, row.JobID, row.Action, row.CreatedAt, payload); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID string) ([]Log, error) {
	query := `
		SELECT id, tenant_id, COALESCE(job_id, ''), action, created_at, payload
		FROM audit_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	return scanLogs(rows)
}

func (s *PostgresStore) ListByJob(ctx context.Context, tenantID, jobID string) ([]Log, error) {
	query := `
		SELECT id, tenant_id, COALESCE(job_id, ''), action, created_at, payload
		FROM audit_logs
		WHERE tenant_id = $1 AND job_id = $2
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID, jobID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs by job: %w", err)
	}
	defer rows.Close()
	return scanLogs(rows)
}

func scanLogs(rows *sql.Rows) ([]Log, error) {
	var out []Log
	for rows.Next() {
		var row Log
		var payload []byte
		if err := rows.Scan(&row.ID, &row.TenantID, &row.JobID, &row.Action, &row.CreatedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &row.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload: %w", err)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return out, nil
}
