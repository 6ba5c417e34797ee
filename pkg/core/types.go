package core

import "strings"

// UnitType identifies the troop class of a unit. Fixed at creation.
type UnitType string

const (
	Light   UnitType = "light"
	Hoplite UnitType = "hoplite"
	Cavalry UnitType = "cavalry"
)

// TypeSpec holds the static rules for one unit type.
type TypeSpec struct {
	Type           UnitType
	DisplayName    string
	MinSize        int
	MaxSize        int
	DefaultSize    int
	CostPerSoldier int
	// AspectRatio is the canonical width:depth ratio of the formation grid.
	AspectRatio float64
}

var typeSpecs = map[UnitType]TypeSpec{
	Light: {
		Type:           Light,
		DisplayName:    "Light Infantry",
		MinSize:        20,
		MaxSize:        200,
		DefaultSize:    60,
		CostPerSoldier: 1,
		AspectRatio:    3,
	},
	Hoplite: {
		Type:           Hoplite,
		DisplayName:    "Hoplite",
		MinSize:        40,
		MaxSize:        400,
		DefaultSize:    120,
		CostPerSoldier: 2,
		AspectRatio:    4,
	},
	Cavalry: {
		Type:           Cavalry,
		DisplayName:    "Cavalry",
		MinSize:        10,
		MaxSize:        120,
		DefaultSize:    40,
		CostPerSoldier: 4,
		AspectRatio:    2,
	},
}

// AllUnitTypes returns every known type in display order.
func AllUnitTypes() []UnitType {
	return []UnitType{Light, Hoplite, Cavalry}
}

// Spec returns the rules for t and whether t is a known type.
func Spec(t UnitType) (TypeSpec, bool) {
	s, ok := typeSpecs[t]
	return s, ok
}

// ParseUnitType accepts the canonical name or the display name, case-insensitive.
func ParseUnitType(s string) (UnitType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllUnitTypes() {
		spec := typeSpecs[t]
		if s == string(t) || s == strings.ToLower(spec.DisplayName) {
			return t, true
		}
	}
	return "", false
}

// CostPerSoldier returns the point cost of one soldier of type t, 0 for unknown types.
func CostPerSoldier(t UnitType) int {
	return typeSpecs[t].CostPerSoldier
}

// InBounds reports whether count is a legal soldier count for t.
func (s TypeSpec) InBounds(count int) bool {
	return count >= s.MinSize && count <= s.MaxSize
}
