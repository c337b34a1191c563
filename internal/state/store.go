// Package state persists build history and input fingerprints in SQLite.
//
// Each build row carries the fingerprint of its inputs: the same input tree
// hashes to the same fingerprint, and a build whose fingerprint matches the
// last successful one can be elided entirely.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome enumerates terminal build states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
	OutcomeSkipped  Outcome = "skipped"
)

// BuildRecord is one row of build history.
type BuildRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     Outcome
	Pages       int
	Fingerprint string
	Detail      string
}

// Store is the SQLite-backed build history store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the store, creating parent directories for
// file-backed paths.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_fingerprint ON builds(fingerprint);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a finished build.
func (s *Store) Record(ctx context.Context, r BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, finished_at, outcome, pages, fingerprint, detail) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.StartedAt.Unix(), r.FinishedAt.Unix(), string(r.Outcome), r.Pages, r.Fingerprint, r.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// LastSuccessful returns the most recent successful build, or ok=false when
// history is empty.
func (s *Store) LastSuccessful(ctx context.Context) (BuildRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, outcome, pages, fingerprint, COALESCE(detail, '') FROM builds WHERE outcome IN (?, ?) ORDER BY started_at DESC, id DESC LIMIT 1",
		string(OutcomeSuccess), string(OutcomeWarning),
	)
	r, err := scanBuild(row)
	if err == sql.ErrNoRows {
		return BuildRecord{}, false, nil
	}
	if err != nil {
		return BuildRecord{}, false, fmt.Errorf("query last successful build: %w", err)
	}
	return r, true, nil
}

// History returns up to limit most recent builds, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, pages, fingerprint, COALESCE(detail, '') FROM builds ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query build history: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		r, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UnchangedSince reports whether fingerprint matches the last successful build.
func (s *Store) UnchangedSince(ctx context.Context, fingerprint string) (bool, error) {
	last, ok, err := s.LastSuccessful(ctx)
	if err != nil || !ok {
		return false, err
	}
	return last.Fingerprint == fingerprint, nil
}

// Close releases the underlying database handle.
// Close is safe on a nil store so callers can defer it unconditionally.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (BuildRecord, error) {
	var r BuildRecord
	var started, finished int64
	var outcome string
	if err := row.Scan(&r.ID, &started, &finished, &outcome, &r.Pages, &r.Fingerprint, &r.Detail); err != nil {
		return BuildRecord{}, err
	}
	r.StartedAt = time.Unix(started, 0).UTC()
	r.FinishedAt = time.Unix(finished, 0).UTC()
	r.Outcome = Outcome(outcome)
	return r, nil
}
