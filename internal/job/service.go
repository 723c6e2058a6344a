package job

import (
	"context"
	"log/slog"

	"tribultz/internal/audit"
	"tribultz/pkg/requestcontext"
)

// Service serves job snapshots, applying lifecycle sync on every read so
// RUNNING jobs whose execution window elapsed surface as completed without a
// background scheduler.
type Service struct {
	store  Store
	audits *audit.Publisher
	logger *slog.Logger
}

func NewService(store Store, audits *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, audits: audits, logger: logger}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Job, error) {
	jobs, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	synced, completions := CompleteDue(jobs, requestcontext.Now(ctx))
	if err := s.persistCompletions(ctx, synced, completions); err != nil {
		return nil, err
	}
	return synced, nil
}

func (s *Service) Get(ctx context.Context, tenantID, jobID string) (Job, error) {
	j, err := s.store.Get(ctx, tenantID, jobID)
	if err != nil {
		return Job{}, err
	}
	synced, completions := CompleteDue([]Job{j}, requestcontext.Now(ctx))
	if err := s.persistCompletions(ctx, synced, completions); err != nil {
		return Job{}, err
	}
	return synced[0], nil
}

func (s *Service) persistCompletions(ctx context.Context, synced []Job, completions []Completion) error {
	if len(completions) == 0 {
		return nil
	}
	byID := make(map[string]Job, len(synced))
	for _, j := range synced {
		byID[j.ID] = j
	}
	for _, c := range completions {
		j := byID[c.JobID]
		if err := s.store.Upsert(ctx, j); err != nil {
			return err
		}
		// The audit id is deterministic, so a concurrent sync of the same job
		// cannot double-log the completion.
		err := s.audits.Emit(ctx, audit.Log{
			ID:       c.AuditID(),
			TenantID: c.TenantID,
			JobID:    c.JobID,
			Action:   "validation_succeeded",
			Payload:  map[string]any{"status": string(StatusSuccess), "source": "lifecycle_sync"},
		})
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "job completed by lifecycle sync",
			"tenant_id", c.TenantID,
			"job_id", c.JobID,
		)
	}
	return nil
}
