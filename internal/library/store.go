// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/persistence/sqlite"
)

// Store is the SQLite catalog of recording sessions.
type Store struct {
	db *sql.DB
}

// NewStore opens the catalog at dbPath, runs migrations and a quick
// integrity check. Corruption is logged, not fatal: the catalog only
// enriches listings.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if issues, err := sqlite.VerifyIntegrity(ctx, db, false); err != nil || issues != nil {
		logger := log.WithComponent("catalog")
		logger.Warn().
			Err(err).
			Strs("issues", issues).
			Str(log.FieldPath, dbPath).
			Msg("catalog integrity check reported problems")
	}
	return s, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		mode TEXT NOT NULL,
		resolution TEXT NOT NULL DEFAULT '',
		frame_rate INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL CHECK(outcome IN ('completed', 'cancelled')),
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_path ON sessions(path);
	CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record inserts or replaces the catalog row of a session.
func (s *Store) Record(ctx context.Context, e Entry) error {
	query := `
	INSERT INTO sessions (session_id, path, mode, resolution, frame_rate, duration_ms, outcome, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		path = excluded.path,
		mode = excluded.mode,
		resolution = excluded.resolution,
		frame_rate = excluded.frame_rate,
		duration_ms = excluded.duration_ms,
		outcome = excluded.outcome,
		started_at = excluded.started_at,
		ended_at = excluded.ended_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.SessionID, e.Path, e.Mode, e.Resolution, e.FrameRate,
		e.Duration.Milliseconds(), string(e.Outcome),
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ByPath returns the latest completed session that wrote path.
func (s *Store) ByPath(ctx context.Context, path string) (*Entry, error) {
	query := `
	SELECT session_id, path, mode, resolution, frame_rate, duration_ms, outcome, started_at, ended_at
	FROM sessions
	WHERE path = ? AND outcome = 'completed'
	ORDER BY ended_at DESC
	LIMIT 1
	`
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
	SELECT session_id, path, mode, resolution, frame_rate, duration_ms, outcome, started_at, ended_at
	FROM sessions
	ORDER BY ended_at DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Repath points every session of oldPath to newPath after a rename.
func (s *Store) Repath(ctx context.Context, oldPath, newPath string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET path = ? WHERE path = ?`, newPath, oldPath)
	return err
}

// Forget removes the sessions of a deleted file.
func (s *Store) Forget(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE path = ?`, path)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e              Entry
		outcome        string
		durMS          int64
		started, ended string
	)
	if err := row.Scan(&e.SessionID, &e.Path, &e.Mode, &e.Resolution, &e.FrameRate, &durMS, &outcome, &started, &ended); err != nil {
		return nil, err
	}
	e.Outcome = Outcome(outcome)
	e.Duration = time.Duration(durMS) * time.Millisecond
	if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
		e.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, ended); err == nil {
		e.EndedAt = t
	}
	return &e, nil
}
