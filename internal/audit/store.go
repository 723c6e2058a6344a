package audit

import "context"

// Store persists audit rows. Append is idempotent on the row id: lifecycle
// sync re-derives the same completion events on every list, and only the
// first append of a given id may win.
type Store interface {
	Append(ctx context.Context, row Log) error
	List(ctx context.Context, tenantID string) ([]Log, error)
	ListByJob(ctx context.Context, tenantID, jobID string) ([]Log, error)
}
