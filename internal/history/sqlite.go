package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id               TEXT PRIMARY KEY,
	source           TEXT NOT NULL,
	filename         TEXT NOT NULL DEFAULT '',
	file_size        INTEGER NOT NULL DEFAULT 0,
	column_name      TEXT NOT NULL DEFAULT '',
	total            INTEGER NOT NULL DEFAULT 0,
	positive_count   INTEGER NOT NULL DEFAULT 0,
	negative_count   INTEGER NOT NULL DEFAULT 0,
	neutral_count    INTEGER NOT NULL DEFAULT 0,
	degraded_count   INTEGER NOT NULL DEFAULT 0,
	duration_seconds REAL NOT NULL DEFAULT 0,
	status           TEXT NOT NULL,
	error_code       TEXT NOT NULL DEFAULT '',
	client_ip        TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL,
	results          TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
`

// SQLiteStore keeps analysis history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
	q  queries
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent analyses.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, q: sqliteQueries()}, nil
}

// SaveAnalysis inserts rec.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *core.AnalysisRecord) error {
	query, args, err := s.q.insert(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert analysis %s: %w", rec.ID, err)
	}
	return nil
}

// ListAnalyses returns the newest analyses first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]core.AnalysisRecord, error) {
	query, args, err := s.q.list(validLimit(limit))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	records := make([]core.AnalysisRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAnalysis returns one analysis with its results.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	query, args, err := s.q.get(id)
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return &rec, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
