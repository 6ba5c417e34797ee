package storage

import (
	"fmt"
	"log/slog"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/storage/memory"
	"github.com/tmoosting/tactical-tangle/internal/storage/postgres"
	"github.com/tmoosting/tactical-tangle/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log *slog.Logger) (Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("storage", cfg.Type)

	switch cfg.Type {
	case "postgres":
		b, err := postgresstorage.New(cfg.DB, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sqlite":
		b, err := sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpPath:     cfg.SQLite.DumpPath,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
