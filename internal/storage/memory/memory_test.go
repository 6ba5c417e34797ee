package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func record(player string) core.ArmyRecord {
	return core.ArmyRecord{
		PlayerID:   player,
		MaxPoints:  1000,
		UsedPoints: 160,
		Units: []core.Unit{{
			ID: "u-1", Type: core.Cavalry, Name: "Cavalry 1", SoldierCount: 40,
			Formation: core.Formation{Width: 8, Depth: 5}, Position: core.Position{X: 20, Y: 20},
			Cost: 160, General: "leonidas", Soldiers: []string{"dienekes"},
		}},
		Templates: map[core.UnitType]core.Template{core.Cavalry: {SoldierCount: 40, Formation: core.Formation{Width: 8, Depth: 5}}},
	}
}

func fixedClock(b *Backend, t time.Time) {
	b.now = func() time.Time { return t }
}

func TestLoad_NotFound(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())

	_, err := b.Load("player1")
	assert.ErrorIs(t, err, core.ErrNoRecord)
}

func TestSaveLoad_DeepCopies(t *testing.T) {
	b := New(config.MemoryConfig{})
	rec := record("player1")
	require.NoError(t, b.Save(rec))

	rec.Units[0].Soldiers[0] = "mutated"
	got, err := b.Load("player1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dienekes"}, got.Units[0].Soldiers)

	got.Units[0].Name = "changed"
	again, _ := b.Load("player1")
	assert.Equal(t, "Cavalry 1", again.Units[0].Name)
}

func TestSave_Timestamps(t *testing.T) {
	b := New(config.MemoryConfig{})
	t0 := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	fixedClock(b, t0)
	require.NoError(t, b.Save(record("player1")))

	fixedClock(b, t0.Add(time.Minute))
	require.NoError(t, b.Save(record("player1")))

	got, _ := b.Load("player1")
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
}

func TestPlayers(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Save(record("sparta")))
	require.NoError(t, b.Save(record("athens")))

	ids, err := b.Players()
	require.NoError(t, err)
	assert.Equal(t, []string{"athens", "sparta"}, ids)
}

func TestClose_NoOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Save(record("player1")))
	require.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFilePath())
}

func TestExportImport(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
		file     string
	}{
		{"plain", false, "armies.json"},
		{"gzip", true, "armies.json.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			cfg := config.MemoryConfig{OutputDir: dir, CompressOutput: tt.compress}

			b := New(cfg)
			require.NoError(t, b.Init())
			require.NoError(t, b.Save(record("player1")))
			require.NoError(t, b.Save(record("player2")))
			require.NoError(t, b.Close())
			assert.Equal(t, filepath.Join(dir, tt.file), b.ExportedFilePath())

			reloaded := New(cfg)
			require.NoError(t, reloaded.Init())
			ids, _ := reloaded.Players()
			assert.Equal(t, []string{"player1", "player2"}, ids)

			got, err := reloaded.Load("player2")
			require.NoError(t, err)
			want, _ := b.Load("player2")
			assert.Equal(t, want.Units, got.Units)
			assert.Equal(t, want.Templates, got.Templates)
			assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
		})
	}
}

func TestExport_Format(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	fixedClock(b, time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC))
	require.NoError(t, b.Save(record("player1")))
	require.NoError(t, b.Close())

	data, err := os.ReadFile(filepath.Join(dir, "armies.json"))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(ExportVersion), out["version"])
	assert.Equal(t, "2026-10-14T08:00:00Z", out["savedAt"])
	armies := out["armies"].([]any)
	require.Len(t, armies, 1)
	assert.Equal(t, "player1", armies[0].(map[string]any)["playerId"])
}

func TestInit_PrefersGzip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "armies.json"), []byte(`{"version":1,"armies":[{"playerId":"plain"}]}`), 0644))

	f, err := os.Create(filepath.Join(dir, "armies.json.gz"))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(`{"version":1,"armies":[{"playerId":"zipped"},{"playerId":""}]}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.Init())
	ids, _ := b.Players()
	assert.Equal(t, []string{"zipped"}, ids)
}

func TestInit_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "armies.json"), []byte("{not json"), 0644))

	err := New(config.MemoryConfig{OutputDir: dir}).Init()
	assert.ErrorContains(t, err, "failed to decode")
}

func TestInit_MissingDir(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: filepath.Join(t.TempDir(), "absent")})
	assert.NoError(t, b.Init())
}
