// Package history keeps a bounded list of army snapshots for undo and redo.
package history

import "github.com/tmoosting/tactical-tangle/pkg/core"

// DefaultMaxSize is the number of snapshots kept when none is configured.
const DefaultMaxSize = 50

// Snapshotter is the state history saves and restores.
type Snapshotter interface {
	Snapshot() core.ArmySnapshot
	Restore(core.ArmySnapshot)
}

// Manager is the undo/redo stack of one army. It is not safe for concurrent use.
//
// entries[index] is the state the target was in when it was last saved or
// restored. A live state that differs from it is a pending change, and Undo
// appends it first so Redo can return to it.
type Manager struct {
	target  Snapshotter
	entries []core.ArmySnapshot
	index   int
	maxSize int
}

// NewManager creates an empty history for target. maxSize <= 0 uses DefaultMaxSize.
func NewManager(target Snapshotter, maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{
		target:  target,
		entries: make([]core.ArmySnapshot, 0, maxSize),
		index:   -1,
		maxSize: maxSize,
	}
}

// Save records the current state. Call it once at the start of a mutating
// gesture. Any redo steps are discarded. Saving an unchanged state adds nothing.
func (m *Manager) Save() {
	cur := m.target.Snapshot()
	m.entries = m.entries[:m.index+1]
	if m.index >= 0 && m.entries[m.index].Equal(cur) {
		return
	}
	m.push(cur)
}

// Undo restores the previous state. It reports whether anything changed.
func (m *Manager) Undo() bool {
	if m.index < 0 {
		return false
	}
	if cur := m.target.Snapshot(); !m.entries[m.index].Equal(cur) {
		m.entries = m.entries[:m.index+1]
		m.push(cur)
	}
	if m.index == 0 {
		return false
	}
	m.index--
	m.target.Restore(m.entries[m.index])
	return true
}

// Redo re-applies the state undone last. It reports whether anything changed.
func (m *Manager) Redo() bool {
	if m.index < 0 || m.index >= len(m.entries)-1 {
		return false
	}
	m.index++
	m.target.Restore(m.entries[m.index])
	return true
}

// Resync replaces the current snapshot with the live state. Call it after
// the target was adjusted outside a gesture, e.g. right after a restore.
func (m *Manager) Resync() {
	if m.index < 0 {
		return
	}
	m.entries[m.index] = m.target.Snapshot()
}

// CanUndo reports whether Undo would change anything.
func (m *Manager) CanUndo() bool {
	if m.index < 0 {
		return false
	}
	return m.index > 0 || !m.entries[m.index].Equal(m.target.Snapshot())
}

// CanRedo reports whether Redo would change anything.
func (m *Manager) CanRedo() bool {
	return m.index >= 0 && m.index < len(m.entries)-1
}

// Len returns the number of stored snapshots.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Index returns the position of the current snapshot, -1 when empty.
func (m *Manager) Index() int {
	return m.index
}

// Clear drops every snapshot.
func (m *Manager) Clear() {
	m.entries = m.entries[:0]
	m.index = -1
}

func (m *Manager) push(s core.ArmySnapshot) {
	m.entries = append(m.entries, s)
	m.index++
	if len(m.entries) > m.maxSize {
		m.entries = append(m.entries[:0], m.entries[1:]...)
		m.index--
	}
}
