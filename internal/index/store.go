// Package index maintains a local SQLite catalog of recordings found on
// disk, so repeated sessions can list and filter files without re-opening
// every container.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one cataloged recording.
type Entry struct {
	ID string
	// ScanID groups the entries refreshed by one scanner run.
	ScanID             string
	Path               string
	Format             string
	SweepCount         int
	ClampMode          string
	Protocol           string
	SampleRate         float64
	SessionDescription string
	ScannedAt          time.Time
}

// Store wraps the catalog database. Safe for concurrent use; database/sql
// serializes access to the single connection modernc's driver provides.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	id          TEXT PRIMARY KEY,
	scan_id     TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL UNIQUE,
	format      TEXT NOT NULL,
	sweep_count INTEGER NOT NULL,
	clamp_mode  TEXT NOT NULL,
	protocol    TEXT NOT NULL,
	sample_rate REAL NOT NULL,
	session_description TEXT NOT NULL DEFAULT '',
	scanned_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recordings_protocol ON recordings(protocol);
CREATE INDEX IF NOT EXISTS idx_recordings_clamp_mode ON recordings(clamp_mode);
`

// Open opens (creating if needed) the catalog at path. ":memory:" gives an
// ephemeral catalog for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or refreshes the entry for a path. The entry keeps its ID
// across rescans so external references stay stable.
func (s *Store) Upsert(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO recordings (id, scan_id, path, format, sweep_count, clamp_mode, protocol, sample_rate, session_description, scanned_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	scan_id = excluded.scan_id,
	format = excluded.format,
	sweep_count = excluded.sweep_count,
	clamp_mode = excluded.clamp_mode,
	protocol = excluded.protocol,
	sample_rate = excluded.sample_rate,
	session_description = excluded.session_description,
	scanned_at = excluded.scanned_at`,
		e.ID, e.ScanID, e.Path, e.Format, e.SweepCount, e.ClampMode, e.Protocol,
		e.SampleRate, e.SessionDescription, e.ScannedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("upserting %s: %w", e.Path, err)
	}
	return s.ByPath(ctx, e.Path)
}

// ByPath returns the entry for a path.
func (s *Store) ByPath(ctx context.Context, path string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scan_id, path, format, sweep_count, clamp_mode, protocol, sample_rate, session_description, scanned_at
		 FROM recordings WHERE path = ?`, path)
	return scanEntry(row)
}

// Query filters the catalog. Empty fields impose no constraint; protocol
// matches by substring.
type Query struct {
	ClampMode string
	Protocol  string
}

// List returns entries matching the query, ordered by path.
func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	where := "1=1"
	args := []any{}
	if q.ClampMode != "" {
		where += " AND clamp_mode = ?"
		args = append(args, q.ClampMode)
	}
	if q.Protocol != "" {
		where += " AND protocol LIKE ?"
		args = append(args, "%"+q.Protocol+"%")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scan_id, path, format, sweep_count, clamp_mode, protocol, sample_rate, session_description, scanned_at
		 FROM recordings WHERE `+where+` ORDER BY path`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the entry for a path. Deleting a missing path is not an
// error.
func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE path = ?`, path)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.ScanID, &e.Path, &e.Format, &e.SweepCount, &e.ClampMode,
		&e.Protocol, &e.SampleRate, &e.SessionDescription, &e.ScannedAt)
	return e, err
}
