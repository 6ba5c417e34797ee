package cache

import (
	"sync"

	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Assignment locates a character inside the battle.
type Assignment struct {
	PlayerID string
	UnitID   string
	Role     core.Role
}

// AssignmentIndex maps character ids to the unit slot holding them, across
// both armies. It is rebuilt from unit fields after every committed change
// so it can never drift from the armies.
type AssignmentIndex struct {
	mu          sync.RWMutex
	assignments map[string]Assignment
}

func NewAssignmentIndex() *AssignmentIndex {
	return &AssignmentIndex{
		assignments: make(map[string]Assignment),
	}
}

// ArmyUnits is the unit list of one player.
type ArmyUnits struct {
	PlayerID string
	Units    []core.Unit
}

// Rebuild replaces the index with the references found in armies. The first
// reference in army order wins when a character appears twice.
func (c *AssignmentIndex) Rebuild(armies []ArmyUnits) {
	next := make(map[string]Assignment)
	for _, a := range armies {
		player := a.PlayerID
		for _, u := range a.Units {
			if u.General != "" {
				if _, taken := next[u.General]; !taken {
					next[u.General] = Assignment{PlayerID: player, UnitID: u.ID, Role: core.RoleGeneral}
				}
			}
			for _, s := range u.Soldiers {
				if _, taken := next[s]; !taken {
					next[s] = Assignment{PlayerID: player, UnitID: u.ID, Role: core.RoleSoldier}
				}
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments = next
}

func (c *AssignmentIndex) Get(characterID string) (Assignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assignments[characterID]
	return a, ok
}

// Assigned reports whether characterID holds any slot.
func (c *AssignmentIndex) Assigned(characterID string) bool {
	_, ok := c.Get(characterID)
	return ok
}

func (c *AssignmentIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assignments)
}

func (c *AssignmentIndex) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments = make(map[string]Assignment)
}
