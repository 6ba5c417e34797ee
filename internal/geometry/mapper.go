// Package geometry maps between a unit's formation grid and its footprint on
// the editing surface, and checks footprints against each other.
// Everything here is pure: no state, no failures.
package geometry

import (
	"math"

	"github.com/tmoosting/tactical-tangle/pkg/core"
)

const (
	// PxPerUnit is the footprint length of one formation rank or file.
	PxPerUnit = 12.0
	// MinFootprint is the smallest width or height a footprint can have.
	MinFootprint = 40.0
	// MaxFootprint is the largest width or height a footprint can have.
	MaxFootprint = 480.0
)

// FootprintOf returns the visual size of a formation.
func FootprintOf(f core.Formation) (w, h float64) {
	w = clamp(float64(f.Width)*PxPerUnit, MinFootprint, MaxFootprint)
	h = clamp(float64(f.Depth)*PxPerUnit, MinFootprint, MaxFootprint)
	return w, h
}

// RectOf returns the footprint of u at its current position.
func RectOf(u core.Unit) core.Rect {
	return RectAt(u, u.Position)
}

// RectAt returns the footprint of u as if it were placed at pos.
func RectAt(u core.Unit, pos core.Position) core.Rect {
	w, h := FootprintOf(u.Formation)
	return core.Rect{X: pos.X, Y: pos.Y, W: w, H: h}
}

// DefaultFormationFor returns the canonical grid for count soldiers of type t.
// depth = ceil(sqrt(count / r)), width = ceil(count / depth), r = width:depth aspect.
func DefaultFormationFor(count int, t core.UnitType) core.Formation {
	if count < 1 {
		count = 1
	}
	r := 1.0
	if spec, ok := core.Spec(t); ok && spec.AspectRatio > 0 {
		r = spec.AspectRatio
	}
	depth := int(math.Ceil(math.Sqrt(float64(count) / r)))
	if depth < 1 {
		depth = 1
	}
	width := int(math.Ceil(float64(count) / float64(depth)))
	if width < 1 {
		width = 1
	}
	return core.Formation{Width: width, Depth: depth}
}

// CountFromFootprint is the inverse mapping used while resizing.
func CountFromFootprint(w, h float64) (core.Formation, int) {
	fw := int(math.Round(w / PxPerUnit))
	if fw < 1 {
		fw = 1
	}
	fd := int(math.Round(h / PxPerUnit))
	if fd < 1 {
		fd = 1
	}
	return core.Formation{Width: fw, Depth: fd}, fw * fd
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
