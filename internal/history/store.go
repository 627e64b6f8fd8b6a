// Package history persists analysis records so completed and failed
// analyses can be listed, inspected, and exported later.
//
// Two backends share one query layer: SQLite (modernc.org/sqlite, the
// default) and Postgres (pgx). The backend is chosen from the history URL.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/reviewsense/internal/config"
	"github.com/JonMunkholm/reviewsense/internal/core"
)

// Store is a core.AnalysisStore that owns a database handle.
type Store interface {
	core.AnalysisStore
	Close() error
}

// Open connects to the store selected by cfg.URL and ensures its schema.
// It returns a nil Store when history is disabled.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	driver, dsn, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverNone:
		slog.Info("analysis history disabled")
		return nil, nil
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		slog.Info("analysis history enabled", "driver", driver, "path", dsn)
		return s, nil
	case config.DriverPostgres:
		s, err := OpenPostgres(ctx, dsn, PoolOptions{
			MaxConns:        int32(cfg.MaxConns),
			MinConns:        int32(cfg.MinConns),
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("analysis history enabled", "driver", driver)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
}
