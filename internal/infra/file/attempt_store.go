// Package file persists attempt records as a single JSON object on disk,
// mapping wallet address to the millisecond timestamp of the last passing
// attempt. The whole map is rewritten synchronously on every pass.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type AttemptStore struct {
	path string

	mu       sync.RWMutex
	attempts map[string]int64
}

// NewAttemptStore loads the backing file, creating it as an empty object when
// absent.
func NewAttemptStore(path string) (*AttemptStore, error) {
	store := &AttemptStore{path: path, attempts: make(map[string]int64)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create attempts dir: %w", err)
			}
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			return nil, fmt.Errorf("init attempts file: %w", err)
		}
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read attempts file: %w", err)
	}

	if err := json.Unmarshal(data, &store.attempts); err != nil {
		return nil, fmt.Errorf("parse attempts file: %w", err)
	}
	return store, nil
}

func (s *AttemptStore) Get(_ context.Context, wallet string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.attempts[wallet]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// RecordPass upserts the wallet's timestamp and flushes the full map to disk
// before returning.
func (s *AttemptStore) RecordPass(_ context.Context, wallet string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[wallet] = at.UnixMilli()
	data, err := json.MarshalIndent(s.attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write attempts file: %w", err)
	}
	return nil
}
