package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/internal/army"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func newArmy() *army.Army {
	n := 0
	return army.New(army.Options{NewID: func() string {
		n++
		return fmt.Sprintf("u-%d", n)
	}})
}

func create(t *testing.T, a *army.Army, typ core.UnitType) core.Unit {
	t.Helper()
	res := a.CreateUnit(typ)
	require.True(t, res.Success)
	u, _ := res.Unit()
	return u
}

func TestManager_EmptyIsNoop(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)

	assert.False(t, m.Undo())
	assert.False(t, m.Redo())
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	assert.Equal(t, -1, m.Index())
}

func TestManager_UndoRedoExact(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)

	s0 := a.Snapshot()
	m.Save()
	u := create(t, a, core.Hoplite)
	s1 := a.Snapshot()

	m.Save()
	require.True(t, a.UpdateUnit(u.ID, core.UnitPatch{Position: &core.Position{X: 500, Y: 400}}).Success)
	s2 := a.Snapshot()

	require.True(t, m.Undo())
	assert.True(t, s1.Equal(a.Snapshot()))
	require.True(t, m.Undo())
	assert.True(t, s0.Equal(a.Snapshot()))
	assert.False(t, m.Undo(), "undo at index 0 is a no-op")
	assert.True(t, s0.Equal(a.Snapshot()))

	require.True(t, m.Redo())
	assert.True(t, s1.Equal(a.Snapshot()))
	require.True(t, m.Redo())
	assert.True(t, s2.Equal(a.Snapshot()))
	assert.False(t, m.Redo(), "redo at the end is a no-op")
}

func TestManager_UnchangedSaveAddsNothing(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)
	create(t, a, core.Light)

	m.Save()
	m.Save() // cancelled gesture
	m.Save()

	assert.Equal(t, 1, m.Len())
	assert.False(t, m.CanUndo())
}

func TestManager_SaveDiscardsRedo(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)

	m.Save()
	create(t, a, core.Light)
	require.True(t, m.Undo())
	assert.True(t, m.CanRedo())

	m.Save()
	create(t, a, core.Cavalry)

	assert.False(t, m.CanRedo())
	require.True(t, m.Undo())
	assert.Equal(t, 0, a.Len())
	require.True(t, m.Redo())
	units := a.Units()
	require.Len(t, units, 1)
	assert.Equal(t, core.Cavalry, units[0].Type)
}

func TestManager_Bounded(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 5)

	for i := 0; i < 12; i++ {
		m.Save()
		create(t, a, core.Cavalry)
	}
	assert.LessOrEqual(t, m.Len(), 5)

	undone := 0
	for m.Undo() {
		undone++
	}
	assert.Equal(t, 4, undone)
	assert.Equal(t, 8, a.Len())
}

func TestManager_DefaultBound(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)

	for i := 0; i < DefaultMaxSize+10; i++ {
		m.Save()
		if a.Len() < 40 {
			create(t, a, core.Cavalry)
		} else {
			a.RemoveUnit(a.Units()[0].ID)
		}
	}

	assert.Equal(t, DefaultMaxSize, m.Len())
}

func TestManager_Clear(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)
	m.Save()
	create(t, a, core.Light)

	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Undo())
	assert.Equal(t, 1, a.Len())
}

func TestManager_Resync(t *testing.T) {
	a := newArmy()
	m := NewManager(a, 0)
	m.Resync()
	assert.Equal(t, -1, m.Index())

	m.Save()
	u := create(t, a, core.Light)
	m.Save()
	create(t, a, core.Light)

	require.True(t, m.Undo())
	require.True(t, a.RemoveUnit(u.ID).Success)
	m.Resync()
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.CanRedo())

	// no pending change is recorded, so undo steps straight to the empty army
	require.True(t, m.Undo())
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 3, m.Len())
}
