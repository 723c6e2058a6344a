package exception

import (
	"context"
	"sort"
	"sync"
)

type key struct {
	tenantID string
	id       string
}

// InMemoryStore keeps exception requests per tenant.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[key]Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[key]Request)}
}

func (s *InMemoryStore) Create(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[key{req.TenantID, req.ID}] = req
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID, id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if req, ok := s.requests[key{tenantID, id}]; ok {
		return req, nil
	}
	return Request{}, ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[key{req.TenantID, req.ID}]; !ok {
		return ErrNotFound
	}
	s.requests[key{req.TenantID, req.ID}] = req
	return nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID string) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for k, req := range s.requests {
		if k.tenantID == tenantID {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
