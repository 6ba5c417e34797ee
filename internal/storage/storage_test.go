package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/storage/memory"
	postgresstorage "github.com/tmoosting/tactical-tangle/internal/storage/postgres"
	sqlitestorage "github.com/tmoosting/tactical-tangle/internal/storage/sqlite"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

var (
	_ Backend  = (*memory.Backend)(nil)
	_ Lister   = (*memory.Backend)(nil)
	_ Exporter = (*memory.Backend)(nil)
	_ Backend  = (*sqlitestorage.Backend)(nil)
	_ Lister   = (*sqlitestorage.Backend)(nil)
	_ Backend  = (*postgresstorage.Backend)(nil)
)

func TestErrNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrNotFound, core.ErrNoRecord)
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    any
		wantErr string
	}{
		{"memory", config.StorageConfig{Type: "memory"}, &memory.Backend{}, ""},
		{"default", config.StorageConfig{}, &memory.Backend{}, ""},
		{"sqlite", config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "a.db")}}, &sqlitestorage.Backend{}, ""},
		{"postgres", config.StorageConfig{Type: "postgres", DB: config.DBConfig{Host: "127.0.0.1", Port: "1"}}, &postgresstorage.Backend{}, ""},
		{"unknown", config.StorageConfig{Type: "redis"}, nil, "unknown storage type: redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.cfg, nil)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			if s, ok := b.(*sqlitestorage.Backend); ok {
				s.Close()
			}
		})
	}
}
