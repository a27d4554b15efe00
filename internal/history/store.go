// Package history keeps a SQLite journal of every screenshot rename.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/five82/wrldshot/internal/session"
)

// DefaultFileName is the journal file inside the data directory.
const DefaultFileName = "history.db"

// Entry is a journaled rename.
type Entry = session.Entry

// WorldCount is the number of renames recorded for one world.
type WorldCount struct {
	WorldID string `json:"worldId"`
	Count   int    `json:"count"`
}

// Store handles SQLite persistence for rename entries.
type Store struct {
	db   *sql.DB
	path string
}

var _ session.Journal = (*Store)(nil)

// Open opens or creates the journal at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// The tail goroutines and the API share one connection; SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS renames (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			world TEXT NOT NULL,
			log_file TEXT NOT NULL,
			renamed_at INTEGER NOT NULL,
			historical INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_renames_at ON renames(renamed_at);
		CREATE INDEX IF NOT EXISTS idx_renames_world ON renames(world);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts e, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renames (id, source, target, world, log_file, renamed_at, historical)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.Target, e.WorldID, e.LogFile, e.At.UnixMilli(), boolToInt(e.Historical))
	if err != nil {
		return fmt.Errorf("record rename: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = session.DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, world, log_file, renamed_at, historical
		FROM renames
		ORDER BY renamed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query renames: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var at int64
		var historical int
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.WorldID, &e.LogFile, &at, &historical); err != nil {
			return nil, fmt.Errorf("scan rename: %w", err)
		}
		e.At = time.UnixMilli(at)
		e.Historical = historical != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByWorld returns rename counts per world, most frequent first.
func (s *Store) CountByWorld(ctx context.Context) ([]WorldCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT world, COUNT(*) AS n
		FROM renames
		GROUP BY world
		ORDER BY n DESC, world
	`)
	if err != nil {
		return nil, fmt.Errorf("query world counts: %w", err)
	}
	defer rows.Close()

	counts := []WorldCount{}
	for rows.Next() {
		var c WorldCount
		if err := rows.Scan(&c.WorldID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan world count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
