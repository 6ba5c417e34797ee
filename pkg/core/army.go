package core

import "time"

// Template is a per-type spawn default captured from an existing unit.
type Template struct {
	SoldierCount int       `json:"soldierCount"`
	Formation    Formation `json:"formation"`
}

// ArmySnapshot is the unit of restoration for undo/redo.
type ArmySnapshot struct {
	Units      []Unit
	UsedPoints int
}

// Clone returns a deep copy of s.
func (s ArmySnapshot) Clone() ArmySnapshot {
	units := make([]Unit, len(s.Units))
	for i, u := range s.Units {
		units[i] = u.Clone()
	}
	return ArmySnapshot{Units: units, UsedPoints: s.UsedPoints}
}

// Equal reports whether both snapshots hold the same units in the same order.
func (s ArmySnapshot) Equal(o ArmySnapshot) bool {
	if s.UsedPoints != o.UsedPoints || len(s.Units) != len(o.Units) {
		return false
	}
	for i := range s.Units {
		if !s.Units[i].Equal(o.Units[i]) {
			return false
		}
	}
	return true
}

// ArmyRecord is the persisted form of one player's army.
type ArmyRecord struct {
	PlayerID   string                `json:"playerId"`
	Units      []Unit                `json:"units"`
	MaxPoints  int                   `json:"maxPoints"`
	UsedPoints int                   `json:"usedPoints"`
	Templates  map[UnitType]Template `json:"templates,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// Clone returns a deep copy of r.
func (r ArmyRecord) Clone() ArmyRecord {
	c := r
	c.Units = make([]Unit, len(r.Units))
	for i, u := range r.Units {
		c.Units[i] = u.Clone()
	}
	if r.Templates != nil {
		c.Templates = make(map[UnitType]Template, len(r.Templates))
		for k, v := range r.Templates {
			c.Templates[k] = v
		}
	}
	return c
}

// ArmyStats is the derived summary shown by the editor chrome.
type ArmyStats struct {
	UnitsByType        map[UnitType]int `json:"unitsByType"`
	TotalUnits         int              `json:"totalUnits"`
	TotalSoldiers      int              `json:"totalSoldiers"`
	GeneralsAssigned   int              `json:"generalsAssigned"`
	CharactersAssigned int              `json:"charactersAssigned"`
	UsedPoints         int              `json:"usedPoints"`
	MaxPoints          int              `json:"maxPoints"`
	// OverBudget is advisory only. Commands never fail on it.
	OverBudget bool `json:"overBudget"`
}
