package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func TestDefaultFormationFor(t *testing.T) {
	tests := []struct {
		name  string
		count int
		typ   core.UnitType
		want  core.Formation
	}{
		{"hoplite default", 120, core.Hoplite, core.Formation{Width: 20, Depth: 6}},
		{"light default", 60, core.Light, core.Formation{Width: 12, Depth: 5}},
		{"cavalry default", 40, core.Cavalry, core.Formation{Width: 8, Depth: 5}},
		{"single soldier", 1, core.Light, core.Formation{Width: 1, Depth: 1}},
		{"hoplite max", 400, core.Hoplite, core.Formation{Width: 40, Depth: 10}},
		{"zero clamps to one", 0, core.Cavalry, core.Formation{Width: 1, Depth: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFormationFor(tt.count, tt.typ))
		})
	}
}

func TestDefaultFormationFor_CoversCount(t *testing.T) {
	for _, typ := range core.AllUnitTypes() {
		spec, ok := core.Spec(typ)
		require.True(t, ok)
		for n := spec.MinSize; n <= spec.MaxSize; n++ {
			f := DefaultFormationFor(n, typ)
			require.GreaterOrEqual(t, f.Width*f.Depth, n, "type %s count %d", typ, n)
		}
	}
}

func TestFootprintOf_Clamps(t *testing.T) {
	w, h := FootprintOf(core.Formation{Width: 20, Depth: 6})
	assert.Equal(t, 240.0, w)
	assert.Equal(t, 72.0, h)

	w, h = FootprintOf(core.Formation{Width: 50, Depth: 2})
	assert.Equal(t, MaxFootprint, w)
	assert.Equal(t, MinFootprint, h)
}

func TestCountFromFootprint(t *testing.T) {
	tests := []struct {
		name      string
		w, h      float64
		formation core.Formation
		count     int
	}{
		{"light default size", 144, 60, core.Formation{Width: 12, Depth: 5}, 60},
		{"below light minimum", 40, 60, core.Formation{Width: 3, Depth: 5}, 15},
		{"tiny floors to one", 5, 5, core.Formation{Width: 1, Depth: 1}, 1},
		{"rounds half up", 18, 30, core.Formation{Width: 2, Depth: 3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, n := CountFromFootprint(tt.w, tt.h)
			assert.Equal(t, tt.formation, f)
			assert.Equal(t, tt.count, n)
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := core.Rect{X: 100, Y: 100, W: 50, H: 50}

	tests := []struct {
		name  string
		other core.Rect
		want  bool
	}{
		{"identical", base, true},
		{"contained", core.Rect{X: 110, Y: 110, W: 10, H: 10}, true},
		{"partial", core.Rect{X: 140, Y: 140, W: 50, H: 50}, true},
		{"touching right edge", core.Rect{X: 150, Y: 100, W: 50, H: 50}, false},
		{"touching bottom edge", core.Rect{X: 100, Y: 150, W: 50, H: 50}, false},
		{"left", core.Rect{X: 0, Y: 100, W: 50, H: 50}, false},
		{"above", core.Rect{X: 100, Y: 0, W: 50, H: 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(base, tt.other))
			assert.Equal(t, tt.want, Overlaps(tt.other, base), "overlap must be symmetric")
		})
	}
}

func TestValidatePlacement(t *testing.T) {
	units := []core.Unit{
		{ID: "a", Formation: core.Formation{Width: 10, Depth: 5}, Position: core.Position{X: 0, Y: 0}},
		{ID: "b", Formation: core.Formation{Width: 10, Depth: 5}, Position: core.Position{X: 300, Y: 0}},
	}

	p := ValidatePlacement(units, "b", core.Position{X: 50, Y: 10})
	assert.False(t, p.Valid)
	assert.Equal(t, OverlapMessage, p.Error)

	p = ValidatePlacement(units, "b", core.Position{X: 120, Y: 0})
	assert.True(t, p.Valid)
	assert.Empty(t, p.Error)

	// a unit never collides with itself
	p = ValidatePlacement(units, "a", core.Position{X: 5, Y: 5})
	assert.True(t, p.Valid)

	p = ValidatePlacement(units, "missing", core.Position{})
	assert.False(t, p.Valid)
}

func TestSurface(t *testing.T) {
	s := Surface{W: 1600, H: 900}

	assert.True(t, s.Contains(core.Rect{X: 0, Y: 0, W: 1600, H: 900}))
	assert.False(t, s.Contains(core.Rect{X: -1, Y: 0, W: 10, H: 10}))
	assert.False(t, s.Contains(core.Rect{X: 1590, Y: 0, W: 20, H: 10}))

	assert.Equal(t, core.Position{X: 1500, Y: 0}, s.Clamp(core.Position{X: 2000, Y: -50}, 100, 40))
}
