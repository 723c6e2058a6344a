package job

import (
	"context"

	dErrors "tribultz/pkg/domain-errors"
)

// ErrNotFound keeps store-level 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "job not found")

// Store persists job snapshots. Interface-driven so the domain logic stays
// testable and memory/Postgres implementations swap without rewiring.
type Store interface {
	Upsert(ctx context.Context, j Job) error
	Get(ctx context.Context, tenantID, jobID string) (Job, error)
	List(ctx context.Context, tenantID string) ([]Job, error)
}
