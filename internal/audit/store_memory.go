package audit

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps audit rows per tenant. It favors clarity over
// performance and is the default store for tests and single-node runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]Log
	seen map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rows: make(map[string][]Log),
		seen: make(map[string]bool),
	}
}

func (s *InMemoryStore) Append(_ context.Context, row Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[row.ID] {
		return nil
	}
	s.seen[row.ID] = true
	s.rows[row.TenantID] = append(s.rows[row.TenantID], row)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID string) ([]Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.rows[tenantID], nil), nil
}

func (s *InMemoryStore) ListByJob(_ context.Context, tenantID, jobID string) ([]Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match := func(row Log) bool { return row.JobID == jobID }
	return sortedCopy(s.rows[tenantID], match), nil
}

func sortedCopy(rows []Log, match func(Log) bool) []Log {
	out := make([]Log, 0, len(rows))
	for _, row := range rows {
		if match == nil || match(row) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
