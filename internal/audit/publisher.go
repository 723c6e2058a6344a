package audit

import (
	"context"
	"log/slog"

	"tribultz/pkg/requestcontext"
)

// Sink receives a copy of every appended audit row, off the request path.
type Sink interface {
	Produce(ctx context.Context, row Log)
}

// Publisher is the single write path for audit rows. It persists through the
// store and, when a sink is enabled, forwards a copy through a bounded inbox
// drained by Worker. A full inbox drops the copy rather than blocking the
// request: the store remains the durable record. Without a sink no inbox
// exists and rows only hit the store.
type Publisher struct {
	store  Store
	inbox  chan Log
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		logger: logger,
	}
}

// EnableSink allocates the bounded sink inbox and returns the feed for a
// Worker to drain. Call once during wiring, before the first Emit.
func (p *Publisher) EnableSink() <-chan Log {
	p.inbox = make(chan Log, 256)
	return p.inbox
}

// Emit appends the row, defaulting CreatedAt to the request clock.
func (p *Publisher) Emit(ctx context.Context, row Log) error {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = requestcontext.Now(ctx)
	}
	if err := p.store.Append(ctx, row); err != nil {
		return err
	}
	if p.inbox == nil {
		return nil
	}
	select {
	case p.inbox <- row:
	default:
		p.logger.Warn("audit inbox full, dropping sink copy", "audit_id", row.ID)
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, tenantID string) ([]Log, error) {
	return p.store.List(ctx, tenantID)
}

func (p *Publisher) ListByJob(ctx context.Context, tenantID, jobID string) ([]Log, error) {
	return p.store.ListByJob(ctx, tenantID, jobID)
}
