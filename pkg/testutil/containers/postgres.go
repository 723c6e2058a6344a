//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                 TEXT        NOT NULL,
	tenant_id          TEXT        NOT NULL,
	job_type           TEXT        NOT NULL,
	status             TEXT        NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL,
	input              JSONB       NOT NULL,
	output             JSONB,
	report_markdown    TEXT,
	evidence           JSONB       NOT NULL,
	findings           JSONB,
	ready_at           TIMESTAMPTZ,
	pending_validation JSONB,
	PRIMARY KEY (tenant_id, id)
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         TEXT        PRIMARY KEY,
	tenant_id  TEXT        NOT NULL,
	job_id     TEXT,
	action     TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	payload    JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_logs_tenant_created_idx ON audit_logs (tenant_id, created_at DESC);

CREATE TABLE IF NOT EXISTS exception_requests (
	id               TEXT        NOT NULL,
	tenant_id        TEXT        NOT NULL,
	job_id           TEXT        NOT NULL,
	finding_id       TEXT        NOT NULL,
	rule_id          TEXT        NOT NULL,
	justification    TEXT        NOT NULL,
	status           TEXT        NOT NULL,
	created_by       TEXT        NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	decided_by       TEXT,
	decided_at       TIMESTAMPTZ,
	decision_comment TEXT,
	PRIMARY KEY (tenant_id, id)
);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tribultz_test"),
		tcpostgres.WithUsername("tribultz"),
		tcpostgres.WithPassword("tribultz"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return pc
}

// Truncate clears all rows. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `TRUNCATE jobs, audit_logs, exception_requests`)
	return err
}
