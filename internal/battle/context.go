// Package battle pairs the armies of one battle and enforces the rules that
// span them, chiefly that a character holds at most one slot.
package battle

import (
	"slices"
	"sync"

	"github.com/tmoosting/tactical-tangle/internal/army"
	"github.com/tmoosting/tactical-tangle/internal/cache"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Context holds the armies of the current battle. The map of armies is
// guarded; the armies themselves are not safe for concurrent use.
type Context struct {
	mu      sync.RWMutex
	players []string
	armies  map[string]*army.Army
	index   *cache.AssignmentIndex
	roster  *cache.RosterCache
}

// NewContext creates a Context over armies. A nil roster accepts any character id.
func NewContext(roster *cache.RosterCache, armies ...*army.Army) *Context {
	c := &Context{
		armies: make(map[string]*army.Army, len(armies)),
		index:  cache.NewAssignmentIndex(),
		roster: roster,
	}
	for _, a := range armies {
		c.players = append(c.players, a.PlayerID())
		c.armies[a.PlayerID()] = a
	}
	c.Reindex()
	return c
}

// Players returns the player ids in the order their armies were added.
func (c *Context) Players() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.players)
}

// Army returns the army of player.
func (c *Context) Army(player string) (*army.Army, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.armies[player]
	return a, ok
}

// SetArmy adds or replaces the army of a.PlayerID().
func (c *Context) SetArmy(a *army.Army) {
	c.mu.Lock()
	if _, ok := c.armies[a.PlayerID()]; !ok {
		c.players = append(c.players, a.PlayerID())
	}
	c.armies[a.PlayerID()] = a
	c.mu.Unlock()
	c.Reindex()
}

// FindUnit returns the army owning unitID and a copy of the unit.
func (c *Context) FindUnit(unitID string) (*army.Army, core.Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.players {
		a := c.armies[p]
		if u, ok := a.Unit(unitID); ok {
			return a, u, true
		}
	}
	return nil, core.Unit{}, false
}

// Reindex rebuilds the character index from the armies.
func (c *Context) Reindex() {
	c.mu.RLock()
	units := make([]cache.ArmyUnits, 0, len(c.players))
	for _, p := range c.players {
		units = append(units, cache.ArmyUnits{PlayerID: p, Units: c.armies[p].Units()})
	}
	c.mu.RUnlock()
	c.index.Rebuild(units)
}

// Assignment reports where characterID is assigned.
func (c *Context) Assignment(characterID string) (cache.Assignment, bool) {
	return c.index.Get(characterID)
}

// Roster returns every known character, or nil without a roster.
func (c *Context) Roster() []core.Character {
	if c.roster == nil {
		return nil
	}
	return c.roster.All()
}

// AvailableCharacters lists the roster entries not referenced by any unit
// of either army. A non-empty unitID must exist.
func (c *Context) AvailableCharacters(unitID string) core.Result {
	if unitID != "" {
		if _, _, ok := c.FindUnit(unitID); !ok {
			return core.Fail(core.NotFoundError("unit %q not found", unitID))
		}
	}
	out := []core.Character{}
	for _, ch := range c.Roster() {
		if !c.index.Assigned(ch.ID) {
			out = append(out, ch)
		}
	}
	return core.OK(out)
}

// AssignCharacter puts characterID into the role slot of unitID. An occupied
// general slot is only replaced when replace is set.
func (c *Context) AssignCharacter(unitID, characterID string, role core.Role, replace bool) core.Result {
	a, u, ok := c.FindUnit(unitID)
	if !ok {
		return core.Fail(core.NotFoundError("unit %q not found", unitID))
	}
	if characterID == "" {
		return core.Fail(core.ValidationError("character id is required"))
	}
	if c.roster != nil {
		if _, known := c.roster.Get(characterID); !known {
			return core.Fail(core.NotFoundError("character %q not found", characterID))
		}
	}
	if at, taken := c.index.Get(characterID); taken {
		return core.Fail(core.ValidationError("character %q is already assigned to unit %q", characterID, at.UnitID))
	}

	var patch core.UnitPatch
	switch role {
	case core.RoleGeneral:
		if u.General != "" && !replace {
			return core.Fail(core.ValidationError("unit %q already has a general", unitID))
		}
		patch.General = &characterID
	case core.RoleSoldier:
		patch.Soldiers = append(slices.Clone(u.Soldiers), characterID)
		patch.SetSoldiers = true
	default:
		return core.Fail(core.ValidationError("unknown role %q", role))
	}

	res := a.UpdateUnit(unitID, patch)
	if res.Success {
		c.Reindex()
	}
	return res
}

// RemoveCharacter clears a slot of unitID. For soldiers characterID picks
// the entry; for the general it is optional and must match when given.
func (c *Context) RemoveCharacter(unitID string, role core.Role, characterID string) core.Result {
	a, u, ok := c.FindUnit(unitID)
	if !ok {
		return core.Fail(core.NotFoundError("unit %q not found", unitID))
	}

	var patch core.UnitPatch
	switch role {
	case core.RoleGeneral:
		if u.General == "" || (characterID != "" && u.General != characterID) {
			return core.Fail(core.NotFoundError("unit %q has no such general", unitID))
		}
		patch.General = core.Ptr("")
	case core.RoleSoldier:
		i := slices.Index(u.Soldiers, characterID)
		if i < 0 {
			return core.Fail(core.NotFoundError("character %q is not a soldier of unit %q", characterID, unitID))
		}
		patch.Soldiers = slices.Delete(slices.Clone(u.Soldiers), i, i+1)
		patch.SetSoldiers = true
	default:
		return core.Fail(core.ValidationError("unknown role %q", role))
	}

	res := a.UpdateUnit(unitID, patch)
	if res.Success {
		c.Reindex()
	}
	return res
}

// StripConflicts removes from player's army every character that another
// army also references. It runs after an undo or redo, which restores one
// army without regard to the other. Returns the stripped character ids.
func (c *Context) StripConflicts(player string) []string {
	c.mu.RLock()
	target, ok := c.armies[player]
	others := make(map[string]struct{})
	for p, a := range c.armies {
		if p == player {
			continue
		}
		for _, u := range a.Units() {
			for _, id := range u.CharacterIDs() {
				others[id] = struct{}{}
			}
		}
	}
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	var stripped []string
	for _, u := range target.Units() {
		var patch core.UnitPatch
		changed := false
		if _, dup := others[u.General]; dup && u.General != "" {
			stripped = append(stripped, u.General)
			patch.General = core.Ptr("")
			changed = true
		}
		keep := make([]string, 0, len(u.Soldiers))
		for _, s := range u.Soldiers {
			if _, dup := others[s]; dup {
				stripped = append(stripped, s)
				continue
			}
			keep = append(keep, s)
		}
		if len(keep) != len(u.Soldiers) {
			patch.Soldiers = keep
			patch.SetSoldiers = true
			changed = true
		}
		if changed {
			target.UpdateUnit(u.ID, patch)
		}
	}
	c.Reindex()
	return stripped
}
