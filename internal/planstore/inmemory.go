package planstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/fitcoach/internal/plan"
)

// InMemoryStore is a simple in-process plan store for local/dev use.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]plan.Record
	byUser map[string][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[string]plan.Record),
		byUser: make(map[string][]string),
	}
}

func (s *InMemoryStore) Save(_ context.Context, rec plan.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.byID[rec.ID]; !exists {
		s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec.ID)
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (plan.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return plan.Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) Latest(_ context.Context, userID string) (plan.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	if len(ids) == 0 {
		return plan.Record{}, ErrNotFound
	}
	return s.byID[ids[len(ids)-1]], nil
}

func (s *InMemoryStore) Close() error { return nil }
