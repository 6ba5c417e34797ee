// Package sqlitestorage stores armies in SQLite through the shared gorm
// backend. With an empty Path the database lives in memory and is dumped
// to DumpPath with VACUUM INTO on a ticker and on Close.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tmoosting/tactical-tangle/internal/database"
	gormstorage "github.com/tmoosting/tactical-tangle/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path         string
	DumpPath     string
	DumpInterval time.Duration
}

type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func New(cfg Config, log *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		Backend:  gormstorage.New(db, log),
		db:       db,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

func (b *Backend) inMemory() bool {
	return b.cfg.Path == ""
}

// Init migrates the schema and starts the dump loop for in-memory databases.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.inMemory() && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump loop, writes a final dump and closes the database.
func (b *Backend) Close() error {
	var err error
	b.once.Do(func() {
		close(b.stopChan)
		b.wg.Wait()

		if b.inMemory() && b.cfg.DumpPath != "" {
			if dumpErr := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); dumpErr != nil {
				err = dumpErr
			}
		}
		sqlDB, dbErr := b.db.DB()
		if dbErr == nil {
			dbErr = sqlDB.Close()
		}
		if err == nil && dbErr != nil {
			err = fmt.Errorf("failed to close SQLite DB: %w", dbErr)
		}
	})
	return err
}

// Dump writes the database to DumpPath now.
func (b *Backend) Dump() error {
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.Error("Error dumping SQLite DB to disk", "error", err)
			} else {
				b.log.Debug("Dumped SQLite DB to disk", "duration", time.Since(start))
			}
		}
	}
}
