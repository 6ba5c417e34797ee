package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/internal/config"
)

// setupConfigDir writes a config using memory storage under a temp dir.
func setupConfigDir(t *testing.T, extra map[string]any) string {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := map[string]any{
		"logLevel": "debug",
		"logsDir":  filepath.Join(dir, "logs"),
		"editor": map[string]any{
			"players": []string{"athens", "sparta"},
		},
		"storage": map[string]any{
			"type":   "memory",
			"memory": map[string]any{"outputDir": filepath.Join(dir, "armies")},
		},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), data, 0644))
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"--config", dir}, args...), &out, &errOut)
	return out.String(), err
}

func TestSpawnPersistsAcrossRuns(t *testing.T) {
	dir := setupConfigDir(t, nil)

	out, err := execute(t, dir, "spawn", "athens", "hoplite")
	require.NoError(t, err)
	assert.Contains(t, out, "Hoplite 1")
	assert.FileExists(t, filepath.Join(dir, "armies", "armies.json"))

	out, err = execute(t, dir, "show", "athens")
	require.NoError(t, err)
	assert.Contains(t, out, "athens: 1 unit(s)")
	assert.Contains(t, out, "Hoplite 1")

	out, err = execute(t, dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Points: 240/1000")
	assert.Contains(t, out, "sparta")

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestSpawnUnknownType(t *testing.T) {
	dir := setupConfigDir(t, nil)

	_, err := execute(t, dir, "spawn", "athens", "chariot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown unit type")

	_, err = execute(t, dir, "show", "thebes")
	require.Error(t, err)
}

func TestReplay(t *testing.T) {
	dir := setupConfigDir(t, nil)
	script := filepath.Join(dir, "opening.txt")
	require.NoError(t, os.WriteFile(script, []byte(`# opening moves
:UNIT:CREATE: athens light

:UNIT:CREATE: athens chariot
:HISTORY:UNDO: athens
:UNIT:CREATE: sparta cavalry
`), 0644))

	out, err := execute(t, dir, "replay", script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 command(s) failed")
	assert.Contains(t, out, "OK   2: :UNIT:CREATE: athens light")
	assert.Contains(t, out, "FAIL 4: :UNIT:CREATE: athens chariot")
	assert.Contains(t, out, "OK   5: :HISTORY:UNDO: athens")

	// the run still persists
	out, err = execute(t, dir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "athens: 0 unit(s)")
	assert.Contains(t, out, "sparta: 1 unit(s)")
}

func TestHistoryOnlyThroughReplay(t *testing.T) {
	dir := setupConfigDir(t, nil)

	_, err := execute(t, dir, "undo", "athens")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "undo"`)

	script := filepath.Join(dir, "history.txt")
	require.NoError(t, os.WriteFile(script, []byte(`:UNIT:CREATE: athens light
:UNIT:CREATE: athens hoplite
:HISTORY:UNDO: athens
:HISTORY:REDO: athens
:HISTORY:UNDO: athens
`), 0644))
	out, err := execute(t, dir, "replay", script)
	require.NoError(t, err)
	assert.Contains(t, out, "OK   4: :HISTORY:REDO: athens")

	out, err = execute(t, dir, "show", "athens")
	require.NoError(t, err)
	assert.Contains(t, out, "athens: 1 unit(s)")
	assert.Contains(t, out, "Light 1")
	assert.NotContains(t, out, "Hoplite 1")
}

func TestRoster(t *testing.T) {
	chars := filepath.Join(t.TempDir(), "characters.json")
	require.NoError(t, os.WriteFile(chars, []byte(`[
		{"id": "leonidas", "name": "Leonidas", "description": "King of Sparta"},
		{"id": "pericles", "name": "Pericles", "description": "Strategos"}
	]`), 0644))
	dir := setupConfigDir(t, map[string]any{
		"roster": map[string]any{"source": "file", "path": chars},
	})

	out, err := execute(t, dir, "roster", "--filter", `name startsWith "Leo"`)
	require.NoError(t, err)
	assert.Contains(t, out, "leonidas")
	assert.Contains(t, out, "free")
	assert.NotContains(t, out, "pericles")

	_, err = execute(t, dir, "roster", "--filter", "name +")
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "armies.db")
	dir := setupConfigDir(t, map[string]any{
		"storage": map[string]any{
			"type":   "sqlite",
			"sqlite": map[string]any{"path": dbPath},
		},
	})

	out, err := execute(t, dir, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated sqlite schema")
	assert.FileExists(t, dbPath)

	// the migrated file backs a normal session
	_, err = execute(t, dir, "spawn", "sparta", "cavalry")
	require.NoError(t, err)
	out, err = execute(t, dir, "show", "sparta")
	require.NoError(t, err)
	assert.Contains(t, out, "Cavalry 1")
}

func TestMigrateMemoryStorage(t *testing.T) {
	dir := setupConfigDir(t, nil)

	_, err := execute(t, dir, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema to migrate")
}
