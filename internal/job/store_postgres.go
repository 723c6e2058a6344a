package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tribultz/internal/validation"
	dErrors "tribultz/pkg/domain-errors"
)

// PostgresStore persists job snapshots in PostgreSQL. Structured columns hold
// identity and lifecycle; input/output/evidence/findings and the pending
// validation result live in JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, j Job) error {
	input, err := json.Marshal(j.Input)
	if err != nil {
		return fmt.Errorf("marshal job input: %w", err)
	}
	output, err := marshalNullable(j.Output)
	if err != nil {
		return fmt.Errorf("marshal job output: %w", err)
	}
	evidence, err := json.Marshal(j.Evidence)
	if err != nil {
		return fmt.Errorf("marshal job evidence: %w", err)
	}
	findings, err := marshalNullable(j.Findings)
	if err != nil {
		return fmt.Errorf("marshal job findings: %w", err)
	}
	pending, err := marshalNullable(j.PendingValidation)
	if err != nil {
		return fmt.Errorf("marshal pending validation: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, tenant_id, job_type, status, created_at, updated_at,
			input, output, report_markdown, evidence, findings,
			ready_at, pending_validation
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id, id) DO UPDATE SET
			job_type = EXCLUDED.job_type,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			input = EXCLUDED.input,
			output = EXCLUDED.output,
			report_markdown = EXCLUDED.report_markdown,
			evidence = EXCLUDED.evidence,
			findings = EXCLUDED.findings,
			ready_at = EXCLUDED.ready_at,
			pending_validation = EXCLUDED.pending_validation
	`
	_, err = s.db.ExecContext(ctx, query,
		j.ID, j.TenantID, j.JobType, string(j.Status), j.CreatedAt, j.UpdatedAt,
		input, output, nullString(j.ReportMarkdown), evidence, findings,
		nullTime(j.ReadyAt), pending,
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

const jobColumns = `
	id, tenant_id, job_type, status, created_at, updated_at,
	input, output, COALESCE(report_markdown, ''), evidence, findings,
	ready_at, pending_validation
`

func (s *PostgresStore) Get(ctx context.Context, tenantID, jobID string) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE tenant_id = $1 AND id = $2`
	j, err := scanJob(s.db.QueryRowContext(ctx, query, tenantID, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, dErrors.Wrap(err, dErrors.CodeInternal, "get job")
	}
	return j, nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID string) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE tenant_id = $1 ORDER BY updated_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var status string
	var input, output, evidence, findings, pending []byte
	var readyAt sql.NullTime

	err := row.Scan(
		&j.ID, &j.TenantID, &j.JobType, &status, &j.CreatedAt, &j.UpdatedAt,
		&input, &output, &j.ReportMarkdown, &evidence, &findings,
		&readyAt, &pending,
	)
	if err != nil {
		return Job{}, err
	}
	j.Status = Status(status)
	if readyAt.Valid {
		ts := readyAt.Time
		j.ReadyAt = &ts
	}
	if err := unmarshalInto(input, &j.Input); err != nil {
		return Job{}, fmt.Errorf("unmarshal job input: %w", err)
	}
	if err := unmarshalInto(output, &j.Output); err != nil {
		return Job{}, fmt.Errorf("unmarshal job output: %w", err)
	}
	if err := unmarshalInto(evidence, &j.Evidence); err != nil {
		return Job{}, fmt.Errorf("unmarshal job evidence: %w", err)
	}
	if err := unmarshalInto(findings, &j.Findings); err != nil {
		return Job{}, fmt.Errorf("unmarshal job findings: %w", err)
	}
	if len(pending) > 0 {
		var result validation.Result
		if err := json.Unmarshal(pending, &result); err != nil {
			return Job{}, fmt.Errorf("unmarshal pending validation: %w", err)
		}
		j.PendingValidation = &result
	}
	return j, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch value := v.(type) {
	case map[string]any:
		if value == nil {
			return nil, nil
		}
	case []validation.Finding:
		if value == nil {
			return nil, nil
		}
	case *validation.Result:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalInto(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
