// Package postgresstorage stores armies in Postgres through the shared gorm backend.
package postgresstorage

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/database"
	gormstorage "github.com/tmoosting/tactical-tangle/internal/storage/gorm"
)

// DefaultMaxOpenConns bounds the pool; the editor saves one army at a time.
const DefaultMaxOpenConns = 4

type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	log *slog.Logger
}

// New opens cfg without connecting; Init pings and migrates.
func New(cfg config.DBConfig, log *slog.Logger) (*Backend, error) {
	db, err := database.GetPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return NewWithDB(db, log), nil
}

// NewWithDB wraps an open connection.
func NewWithDB(db *gorm.DB, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{Backend: gormstorage.New(db, log), db: db, log: log}
}

func (b *Backend) Init() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	if b.db.Dialector.Name() == "postgres" {
		sqlDB.SetMaxOpenConns(DefaultMaxOpenConns)
	}
	if err := b.Backend.Init(); err != nil {
		return err
	}
	b.log.Info("Connected to database", "dialect", b.db.Dialector.Name())
	return nil
}

func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
