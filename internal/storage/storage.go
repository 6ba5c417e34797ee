package storage

import "github.com/tmoosting/tactical-tangle/pkg/core"

// ErrNotFound is returned by Load when a player has no saved army.
// Backends return core.ErrNoRecord, which this aliases.
var ErrNotFound = core.ErrNoRecord

// Backend persists one record per player.
type Backend interface {
	Init() error
	Close() error

	// Load returns a deep copy of the saved army or ErrNotFound.
	Load(playerID string) (core.ArmyRecord, error)
	// Save replaces the player's army, units included.
	Save(rec core.ArmyRecord) error
}

// Lister is implemented by backends that can enumerate saved armies.
type Lister interface {
	Players() ([]string, error)
}

// Exporter is implemented by backends that write a file on Close.
type Exporter interface {
	ExportedFilePath() string
}
