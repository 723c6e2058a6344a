package job

import (
	"context"
	"sort"
	"sync"
)

type tenantKey struct {
	tenantID string
	jobID    string
}

// InMemoryStore keeps job snapshots keyed by tenant and job id.
type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[tenantKey]Job
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[tenantKey]Job)}
}

func (s *InMemoryStore) Upsert(_ context.Context, j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[tenantKey{j.TenantID, j.ID}] = j
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID, jobID string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j, ok := s.jobs[tenantKey{tenantID, jobID}]; ok {
		return j, nil
	}
	return Job{}, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, tenantID string) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Job
	for key, j := range s.jobs {
		if key.tenantID == tenantID {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
