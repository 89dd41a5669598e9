// Package storage persists finished games to Postgres. A running
// game lives only in its GameActor; storage only ever sees the
// terminal snapshot a match ends with, plus lookups for replay/review.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catan-server/internal/boardgame/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	code        TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	state       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);
`

// Store is a pgxpool-backed persistence adapter implementing the
// saveFinished/loadGame contract: games are written once, at the
// moment they end, and read back by code for history or dispute
// resolution.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and ensures the games table exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// SaveFinished persists a game's terminal state. It is the only
// write path: games in progress are never written, since the
// authoritative copy of an in-progress game is its GameActor.
func (s *Store) SaveFinished(ctx context.Context, state engine.GameState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("storage: marshal state: %w", err)
	}

	finishedAt := state.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO games (code, status, state, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			finished_at = EXCLUDED.finished_at
	`, state.Code, string(state.Status), payload, state.CreatedAt, finishedAt)
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", state.Code, err)
	}
	return nil
}

// LoadGame returns the persisted state for code, if one exists.
func (s *Store) LoadGame(ctx context.Context, code string) (engine.GameState, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM games WHERE code = $1`, code).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.GameState{}, false, nil
		}
		return engine.GameState{}, false, fmt.Errorf("storage: load %s: %w", code, err)
	}

	var state engine.GameState
	if err := json.Unmarshal(payload, &state); err != nil {
		return engine.GameState{}, false, fmt.Errorf("storage: unmarshal %s: %w", code, err)
	}
	return state, true, nil
}

// DeleteOlderThan removes finished games whose finished_at predates
// the cutoff, bounding table growth the way the gateway's periodic
// cleanup task expects.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE finished_at IS NOT NULL AND finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}
