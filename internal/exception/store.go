package exception

import (
	"context"

	dErrors "tribultz/pkg/domain-errors"
)

// ErrNotFound keeps store-level 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "exception request not found")

// Store persists exception requests.
type Store interface {
	Create(ctx context.Context, req Request) error
	Get(ctx context.Context, tenantID, id string) (Request, error)
	Update(ctx context.Context, req Request) error
	List(ctx context.Context, tenantID string) ([]Request, error)
}
