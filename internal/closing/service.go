package closing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"tribultz/internal/audit"
	"tribultz/internal/exception"
	"tribultz/internal/job"
	"tribultz/pkg/requestcontext"
)

const snapshotKeyPrefix = "closing:snapshot:"

// JobLister yields the synced job list for a tenant.
type JobLister interface {
	List(ctx context.Context, tenantID string) ([]job.Job, error)
}

// AuditLister yields the audit trail for a tenant.
type AuditLister interface {
	List(ctx context.Context, tenantID string) ([]audit.Log, error)
}

// ExceptionLister yields the exception requests for a tenant.
type ExceptionLister interface {
	List(ctx context.Context, tenantID string) ([]exception.Request, error)
}

// Service builds closing snapshots from the three row sources, with an
// optional Redis read-through cache keyed per tenant and window.
type Service struct {
	jobs       JobLister
	audits     AuditLister
	exceptions ExceptionLister
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *slog.Logger
}

func NewService(jobs JobLister, audits AuditLister, exceptions ExceptionLister, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		jobs:       jobs,
		audits:     audits,
		exceptions: exceptions,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Snapshot aggregates the closing window ending at the request clock. Cache
// misses and cache failures both fall through to a fresh aggregation; the
// cache only ever shortcuts the read path.
func (s *Service) Snapshot(ctx context.Context, tenantID string, days, listLimit int) (Snapshot, error) {
	now := requestcontext.Now(ctx)
	key := cacheKey(tenantID, now, days, listLimit)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	var (
		jobs       []job.Job
		audits     []audit.Log
		exceptions []exception.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jobs, err = s.jobs.List(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		audits, err = s.audits.List(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		exceptions, err = s.exceptions.List(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snapshot := BuildSnapshot(Input{
		Jobs:       jobs,
		Audits:     audits,
		Exceptions: exceptions,
		Now:        now,
		Days:       days,
		ListLimit:  listLimit,
	})
	s.toCache(ctx, key, snapshot)
	return snapshot, nil
}

func cacheKey(tenantID string, now time.Time, days, listLimit int) string {
	if days <= 0 {
		days = DefaultWindowDays
	}
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	// The truncated clock keeps concurrent requests within the same minute on
	// one cache entry without serving stale windows for long.
	return snapshotKeyPrefix + tenantID + ":" +
		now.UTC().Truncate(time.Minute).Format("200601021504") + ":" +
		strconv.Itoa(days) + ":" + strconv.Itoa(listLimit)
}

func (s *Service) fromCache(ctx context.Context, key string) (Snapshot, bool) {
	if s.cache == nil {
		return Snapshot{}, false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false
	}
	if err != nil {
		s.logger.WarnContext(ctx, "closing snapshot cache read failed", "error", err)
		return Snapshot{}, false
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.logger.WarnContext(ctx, "closing snapshot cache entry corrupt", "error", err)
		return Snapshot{}, false
	}
	return snapshot, true
}

func (s *Service) toCache(ctx context.Context, key string, snapshot Snapshot) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "closing snapshot cache write failed", "error", err)
	}
}
