package army

import (
	"github.com/tmoosting/tactical-tangle/internal/geometry"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// spawn grid
const (
	gridCols    = 5
	gridOriginX = 20.0
	gridOriginY = 20.0
	gridPitchX  = 300.0
	gridPitchY  = 100.0
)

// free reports whether r is on the surface and clear of every committed unit.
func (a *Army) free(r core.Rect) bool {
	return a.surface.Contains(r) && geometry.ValidateFootprint(a.units, "", r).Valid
}

// spawnPosition tries the grid slot for the current unit count, then the
// first free slot in row-major order.
func (a *Army) spawnPosition(u core.Unit) (core.Position, bool) {
	n := len(a.units)
	slot := core.Position{
		X: gridOriginX + float64(n%gridCols)*gridPitchX,
		Y: gridOriginY + float64(n/gridCols)*gridPitchY,
	}
	if a.free(geometry.RectAt(u, slot)) {
		return slot, true
	}
	return a.scan(u)
}

func (a *Army) scan(u core.Unit) (core.Position, bool) {
	w, h := geometry.FootprintOf(u.Formation)
	for y := gridOriginY; y+h <= a.surface.H; y += gridPitchY {
		for x := gridOriginX; x+w <= a.surface.W; x += gridPitchX {
			pos := core.Position{X: x, Y: y}
			if a.free(geometry.RectAt(u, pos)) {
				return pos, true
			}
		}
	}
	return core.Position{}, false
}

func (a *Army) duplicatePosition(src core.Unit) (core.Position, bool) {
	r := geometry.RectOf(src)
	candidates := []core.Position{
		{X: r.X + r.W + gap, Y: r.Y}, // right
		{X: r.X - r.W - gap, Y: r.Y}, // left
		{X: r.X, Y: r.Y + r.H + gap}, // below
		a.surface.Clamp(core.Position{X: r.X + 20, Y: r.Y + 20}, r.W, r.H),
	}
	for _, pos := range candidates {
		if a.free(geometry.RectAt(src, pos)) {
			return pos, true
		}
	}
	return a.scan(src)
}
