package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for development and testing.
// Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	diagrams map[string]*Diagram
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{diagrams: make(map[string]*Diagram)}
}

// Put stores a diagram under its ID.
func (s *MemoryStore) Put(ctx context.Context, d *Diagram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagrams[d.ID] = d
	return nil
}

// Get retrieves a diagram by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diagrams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// List returns stored diagrams, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Diagram, 0, len(s.diagrams))
	for _, d := range s.diagrams {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a diagram by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.diagrams[id]; !ok {
		return ErrNotFound
	}
	delete(s.diagrams, id)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
