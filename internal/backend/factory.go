// Package backend selects and builds the persistence layer from the runtime
// configuration. Both backends satisfy snapshot.Store; callers never branch
// on the backend kind after startup.
package backend

import (
	"fmt"
	"log/slog"

	"bigbudget/internal/config"
	"bigbudget/internal/snapshot"
	"bigbudget/internal/storage"
)

type Kind string

const (
	FileBackend   Kind = "file"
	SQLiteBackend Kind = "sqlite"
)

func (k Kind) IsValid() bool {
	switch k {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

type Result struct {
	Store   snapshot.Store
	Cleanup CleanupFunc
}

// New builds the snapshot store named by the configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kind := Kind(cfg.DataBackend)
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch kind {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		store := snapshot.NewFileStore(cfg.DataDir)
		logger.Info("Initialized file backend", "data_dir", cfg.DataDir)
		return &Result{Store: store, Cleanup: nil}, nil
	}
}
