// Package store is the persisted-state collaborator (§6 "Persisted
// state"): a Postgres-backed record of each game's slot layout and
// action history, written only so a restarted bot can offer a
// save-game export. The core never reads this back into a live Game.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"
)

// Store wraps a pgx connection pool for the collaborator's own schema.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store handle.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to store database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging store database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool. RunMigrations does not use it; it
// opens its own database/sql connection from the DSN.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// SaveSlotSnapshot records the current slot layout for gameID, encoded
// by the caller (internal/game has no JSON dependency of its own; the
// collaborator boundary is where that encoding happens).
func (s *Store) SaveSlotSnapshot(ctx context.Context, gameID uuid.UUID, hostCounter uint32, takenAt time.Time, slotsJSON []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO slot_snapshots (game_id, host_counter, taken_at, slots)
		 VALUES ($1, $2, $3, $4)`,
		gameID, hostCounter, takenAt, slotsJSON,
	)
	if err != nil {
		return fmt.Errorf("saving slot snapshot for game %s: %w", gameID, err)
	}
	return nil
}

// AppendActionFrame records one serialized action frame for replay
// export, keyed by a monotonically increasing sequence number.
func (s *Store) AppendActionFrame(ctx context.Context, gameID uuid.UUID, seq int64, frame []byte, recordedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO action_history (game_id, seq, frame, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		gameID, seq, frame, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("appending action frame %d for game %s: %w", seq, gameID, err)
	}
	return nil
}

// ActionHistory returns every recorded frame for gameID in sequence
// order, for a save-game export.
func (s *Store) ActionHistory(ctx context.Context, gameID uuid.UUID) ([][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT frame FROM action_history WHERE game_id = $1 ORDER BY seq ASC`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying action history for game %s: %w", gameID, err)
	}
	defer rows.Close()

	var frames [][]byte
	for rows.Next() {
		var frame []byte
		if err := rows.Scan(&frame); err != nil {
			return nil, fmt.Errorf("scanning action frame for game %s: %w", gameID, err)
		}
		frames = append(frames, frame)
	}
	return frames, rows.Err()
}
