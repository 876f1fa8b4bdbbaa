package leads

import (
	"context"
	"sync"
)

// MemoryStore keeps leads in process. It backs the "memory" backend and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]Lead
	order []string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[string]Lead)}
}

func (s *MemoryStore) Create(_ context.Context, lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; ok {
		return ErrDuplicate
	}
	s.leads[lead.ID] = lead
	s.order = append(s.order, lead.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

// All returns the leads in insertion order.
func (s *MemoryStore) All() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lead, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.leads[id])
	}
	return out
}

func (s *MemoryStore) Close() error { return nil }
