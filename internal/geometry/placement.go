package geometry

import (
	"math"

	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// OverlapMessage is the validator's rejection text.
const OverlapMessage = "Units cannot overlap"

// Surface is the size of the editing area. Positions live in [0,W]x[0,H].
type Surface struct {
	W float64
	H float64
}

// Contains reports whether r lies fully inside the surface.
func (s Surface) Contains(r core.Rect) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.W <= s.W && r.Y+r.H <= s.H
}

// Clamp confines a w x h footprint at pos to the surface.
func (s Surface) Clamp(pos core.Position, w, h float64) core.Position {
	return core.Position{
		X: math.Max(0, math.Min(pos.X, s.W-w)),
		Y: math.Max(0, math.Min(pos.Y, s.H-h)),
	}
}

// Placement is the validator's verdict.
type Placement struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Overlaps reports whether a and b share any area. Touching edges do not count.
func Overlaps(a, b core.Rect) bool {
	separated := a.X+a.W <= b.X || // a left of b
		b.X+b.W <= a.X || // a right of b
		a.Y+a.H <= b.Y || // a above b
		b.Y+b.H <= a.Y // a below b
	return !separated
}

// ValidatePlacement checks unitID's current formation at pos against every other unit.
func ValidatePlacement(units []core.Unit, unitID string, pos core.Position) Placement {
	for _, u := range units {
		if u.ID == unitID {
			return ValidateFootprint(units, unitID, RectAt(u, pos))
		}
	}
	return Placement{Valid: false, Error: "unit not found"}
}

// ValidateFootprint checks an explicit rectangle for unitID against every other unit.
func ValidateFootprint(units []core.Unit, unitID string, r core.Rect) Placement {
	for _, other := range units {
		if other.ID == unitID {
			continue
		}
		if Overlaps(r, RectOf(other)) {
			return Placement{Valid: false, Error: OverlapMessage}
		}
	}
	return Placement{Valid: true}
}
