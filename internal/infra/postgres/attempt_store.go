package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists last-pass timestamps in the attempts table.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Get(ctx context.Context, wallet string) (time.Time, bool, error) {
	var ms int64
	err := s.pool.QueryRow(ctx, `SELECT last_pass_ms FROM attempts WHERE wallet=$1`, wallet).Scan(&ms)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load attempt: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

func (s *AttemptStore) RecordPass(ctx context.Context, wallet string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (wallet, last_pass_ms) VALUES ($1, $2)
		 ON CONFLICT (wallet) DO UPDATE SET last_pass_ms=EXCLUDED.last_pass_ms`,
		wallet, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}
