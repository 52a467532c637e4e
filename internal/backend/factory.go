// Package backend selects and builds the persistence store from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"finapp/internal/config"
	"finapp/internal/ledger"
	"finapp/internal/memory"
	"finapp/internal/storage"
)

// CleanupFunc releases the store's resources at shutdown.
type CleanupFunc func() error

func noCleanup() error { return nil }

// Create builds the configured store. The returned cleanup is never nil.
func Create(cfg *config.Config, logger *slog.Logger) (ledger.Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, store.Close, nil
	case "memory":
		logger.Info("Initialized memory backend")
		return memory.New(), noCleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.Backend)
	}
}
