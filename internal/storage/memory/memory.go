// Package memory keeps armies in a map and optionally persists them as one
// JSON (or gzipped JSON) file in OutputDir.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Backend stores deep copies of army records keyed by player id.
type Backend struct {
	cfg    config.MemoryConfig
	armies map[string]core.ArmyRecord
	now    func() time.Time

	lastExportPath string
	mu             sync.RWMutex
}

func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		armies: make(map[string]core.ArmyRecord),
		now:    time.Now,
	}
}

// Init loads the export file from OutputDir if one exists.
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.importJSON()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.PlayerID == "" {
			continue
		}
		b.armies[r.PlayerID] = r.Clone()
	}
	return nil
}

// Close writes the export file when OutputDir is set.
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exportJSON()
}

func (b *Backend) Load(playerID string) (core.ArmyRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.armies[playerID]
	if !ok {
		return core.ArmyRecord{}, core.ErrNoRecord
	}
	return r.Clone(), nil
}

func (b *Backend) Save(rec core.ArmyRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := rec.Clone()
	now := b.now()
	if prev, ok := b.armies[rec.PlayerID]; ok && !prev.CreatedAt.IsZero() {
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	b.armies[rec.PlayerID] = c
	return nil
}

// Players returns saved player ids in ascending order.
func (b *Backend) Players() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.armies))
	for id := range b.armies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
