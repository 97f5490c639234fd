// Package store persists which posting identities have already been
// delivered. It is the single source of truth for "have we seen this
// posting"; everything else in a run is recomputed from scratch.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/NoaVaturi/JobBot/internal/domain"
)

// ErrLocked means another process holds the store's file lock.
var ErrLocked = errors.New("seen store is locked by another process")

// SeenStore tracks delivered posting identities in SQLite.
type SeenStore struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open opens (or creates) the database at path and takes an exclusive file
// lock next to it so two processes never share one seen-store. The in-process
// single-flight lock lives in the pipeline; this one guards across processes.
func Open(path string) (*SeenStore, error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock seen store: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("open seen store: %w", err)
	}

	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = fl.Unlock()
		return nil, fmt.Errorf("ping seen store: %w", err)
	}

	s := &SeenStore{db: db, lock: fl}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SeenStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS seen_postings (
  source        TEXT NOT NULL,
  external_id   TEXT NOT NULL,
  first_seen_at TEXT NOT NULL,
  PRIMARY KEY (source, external_id)
);`)
	if err != nil {
		return fmt.Errorf("migrate seen store: %w", err)
	}
	return nil
}

// Has reports whether the identity was ever recorded.
func (s *SeenStore) Has(ctx context.Context, id domain.Identity) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_postings WHERE source = ? AND external_id = ?`,
		string(id.Source), id.ExternalID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seen lookup %s/%s: %w", id.Source, id.ExternalID, err)
	}
	return true, nil
}

// Record marks the identity as seen. Recording the same identity again is a
// no-op, never an error and never a duplicate row.
func (s *SeenStore) Record(ctx context.Context, id domain.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_postings (source, external_id, first_seen_at) VALUES (?, ?, ?)`,
		string(id.Source), id.ExternalID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record seen %s/%s: %w", id.Source, id.ExternalID, err)
	}
	return nil
}

// Count returns the number of recorded identities.
func (s *SeenStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_postings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count seen: %w", err)
	}
	return n, nil
}

// CountSince returns how many identities were first recorded at or after t.
func (s *SeenStore) CountSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_postings WHERE first_seen_at >= ?`,
		t.UTC().Format(time.RFC3339),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count seen since %s: %w", t, err)
	}
	return n, nil
}

// Reset drops and recreates the table. Operator action, never called by the
// pipeline.
func (s *SeenStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS seen_postings`); err != nil {
		return fmt.Errorf("reset seen store: %w", err)
	}
	return s.migrate()
}

func (s *SeenStore) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}
