package memory

import (
	"context"
	"sync"
	"time"

	"edumint-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore, useful for
// tests and demos.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]time.Time
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]time.Time)}
}

func (s *AttemptStore) Get(_ context.Context, wallet string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.attempts[wallet]
	return at, ok, nil
}

func (s *AttemptStore) RecordPass(_ context.Context, wallet string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[wallet] = at
	return nil
}

// StaticProvider serves a fixed question pool (useful for tests/demos).
type StaticProvider struct {
	items []domain.TriviaItem
}

func NewStaticProvider(items []domain.TriviaItem) *StaticProvider {
	return &StaticProvider{items: items}
}

func (p *StaticProvider) Fetch(_ context.Context) ([]domain.TriviaItem, error) {
	return p.items, nil
}
