package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps last-pass timestamps in Redis, one key per wallet holding
// the millisecond timestamp. Keys expire at the rate window, which is
// equivalent to an expired record for gating purposes.
type AttemptStore struct {
	client *redis.Client
	window time.Duration
}

func NewAttemptStore(client *redis.Client, window time.Duration) *AttemptStore {
	return &AttemptStore{client: client, window: window}
}

func (s *AttemptStore) Get(ctx context.Context, wallet string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.key(wallet)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt timestamp: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

func (s *AttemptStore) RecordPass(ctx context.Context, wallet string, at time.Time) error {
	if err := s.client.Set(ctx, s.key(wallet), at.UnixMilli(), s.window).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *AttemptStore) key(wallet string) string {
	return "attempt:last_pass:" + wallet
}
