package postgresstorage

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// The backend logic is dialect independent; SQLite stands in for Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestNewWithDB_SaveLoad(t *testing.T) {
	b := NewWithDB(newTestDB(t), nil)
	require.NoError(t, b.Init())

	rec := core.ArmyRecord{PlayerID: "player1", MaxPoints: 1000, Units: []core.Unit{}}
	require.NoError(t, b.Save(rec))

	got, err := b.Load("player1")
	require.NoError(t, err)
	assert.Equal(t, "player1", got.PlayerID)
	assert.Empty(t, got.Units)

	players, err := b.Players()
	require.NoError(t, err)
	assert.Equal(t, []string{"player1"}, players)

	require.NoError(t, b.Close())
}

func TestInit_ClosedDB(t *testing.T) {
	db := newTestDB(t)
	sqlDB, _ := db.DB()
	require.NoError(t, sqlDB.Close())

	err := NewWithDB(db, nil).Init()
	assert.ErrorContains(t, err, "failed to validate connection")
}

func TestNew_DoesNotConnect(t *testing.T) {
	b, err := New(config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "d"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, b)
}
