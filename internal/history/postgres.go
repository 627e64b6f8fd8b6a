package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id               TEXT PRIMARY KEY,
	source           TEXT NOT NULL,
	filename         TEXT NOT NULL DEFAULT '',
	file_size        BIGINT NOT NULL DEFAULT 0,
	column_name      TEXT NOT NULL DEFAULT '',
	total            INTEGER NOT NULL DEFAULT 0,
	positive_count   INTEGER NOT NULL DEFAULT 0,
	negative_count   INTEGER NOT NULL DEFAULT 0,
	neutral_count    INTEGER NOT NULL DEFAULT 0,
	degraded_count   INTEGER NOT NULL DEFAULT 0,
	duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	status           TEXT NOT NULL,
	error_code       TEXT NOT NULL DEFAULT '',
	client_ip        TEXT NOT NULL DEFAULT '',
	created_at       BIGINT NOT NULL,
	results          TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
`

// PoolOptions tunes the Postgres connection pool. Zero fields keep pgx defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// PostgresStore keeps analysis history in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    queries
}

// OpenPostgres connects a pool to url, pings it, and ensures the schema.
func OpenPostgres(ctx context.Context, url string, opts PoolOptions) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}

	return &PostgresStore{pool: pool, q: postgresQueries()}, nil
}

// SaveAnalysis inserts rec.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, rec *core.AnalysisRecord) error {
	query, args, err := s.q.insert(rec)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert analysis %s: %w", rec.ID, err)
	}
	return nil
}

// ListAnalyses returns the newest analyses first.
func (s *PostgresStore) ListAnalyses(ctx context.Context, limit int) ([]core.AnalysisRecord, error) {
	query, args, err := s.q.list(validLimit(limit))
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	query, args, err := s.q.get(id)
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return &rec, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
