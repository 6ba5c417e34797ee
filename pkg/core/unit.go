package core

import "slices"

// Formation is the grid of soldiers backing a unit's footprint.
type Formation struct {
	Width int `json:"width"`
	Depth int `json:"depth"`
}

// Position is a top-left anchored point on the editing surface.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned footprint on the editing surface.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Origin returns the top-left corner of r.
func (r Rect) Origin() Position {
	return Position{X: r.X, Y: r.Y}
}

// Unit is one placed formation block.
// ID is unique across both armies and never reused after removal.
type Unit struct {
	ID           string    `json:"id"`
	Type         UnitType  `json:"type"`
	Name         string    `json:"name"`
	SoldierCount int       `json:"soldierCount"`
	Formation    Formation `json:"formation"`
	Position     Position  `json:"position"`
	Cost         int       `json:"cost"`
	General      string    `json:"general,omitempty"`
	Soldiers     []string  `json:"soldiers"`
	Hierarchy    int       `json:"hierarchy"`
}

// Clone returns a deep copy of u.
func (u Unit) Clone() Unit {
	c := u
	c.Soldiers = slices.Clone(u.Soldiers)
	if c.Soldiers == nil {
		c.Soldiers = []string{}
	}
	return c
}

// Equal compares every field of u and o, treating nil and empty soldier lists alike.
func (u Unit) Equal(o Unit) bool {
	if u.ID != o.ID || u.Type != o.Type || u.Name != o.Name ||
		u.SoldierCount != o.SoldierCount || u.Formation != o.Formation ||
		u.Position != o.Position || u.Cost != o.Cost ||
		u.General != o.General || u.Hierarchy != o.Hierarchy {
		return false
	}
	return slices.Equal(u.Soldiers, o.Soldiers)
}

// References reports whether characterID is the general or one of the soldiers of u.
func (u Unit) References(characterID string) bool {
	if characterID == "" {
		return false
	}
	return u.General == characterID || slices.Contains(u.Soldiers, characterID)
}

// CharacterIDs returns the general (if any) followed by the soldiers.
func (u Unit) CharacterIDs() []string {
	ids := make([]string, 0, len(u.Soldiers)+1)
	if u.General != "" {
		ids = append(ids, u.General)
	}
	return append(ids, u.Soldiers...)
}

// UnitPatch is a partial update. Nil fields are left untouched.
type UnitPatch struct {
	Name         *string
	SoldierCount *int
	Formation    *Formation
	Position     *Position
	General      *string
	Soldiers     []string
	// SetSoldiers distinguishes "replace with an empty list" from "leave alone".
	SetSoldiers bool
	Hierarchy   *int
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}
