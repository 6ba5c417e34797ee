package interaction

import (
	"math"

	"github.com/tmoosting/tactical-tangle/internal/geometry"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Step returns the state after ev and the effects to run. It never mutates
// the model; commits are requested through effects.
func Step(s State, ev Event, env Env) (State, []Effect) {
	switch e := ev.(type) {
	case PointerDown:
		return pointerDown(s, e, env)
	case PointerMove:
		switch s.Mode {
		case Dragging:
			return dragMove(s, e.Point, env)
		case Resizing:
			return resizeMove(s, e.Point, env)
		}
	case PointerUp:
		switch s.Mode {
		case Dragging:
			return dragUp(s, e.Point, env)
		case Resizing:
			return resizeUp(s, e.Point, env)
		}
	case Cancel:
		return cancel(s)
	case Command:
		return command(s, e, env)
	}
	return s, nil
}

func pointerDown(s State, e PointerDown, env Env) (State, []Effect) {
	if s.Mode != Idle {
		return s, nil
	}
	u, ok := env.Units.Unit(e.UnitID)
	if !ok {
		return s, nil
	}

	var effects []Effect
	if s.Pending != nil {
		effects = append(effects, AssignCancelled{UnitID: s.Pending.UnitID, CharacterID: s.Pending.CharacterID})
	}
	if env.Caps.History {
		effects = append(effects, SaveHistory{UnitID: u.ID})
	}

	r := geometry.RectOf(u)
	next := State{UnitID: u.ID, Start: r, Current: r}
	if e.Target == Handle {
		next.Mode = Resizing
		next.Corner = e.Corner
	} else {
		next.Mode = Dragging
		next.Offset = core.Position{X: e.Point.X - r.X, Y: e.Point.Y - r.Y}
	}
	return next, effects
}

func dragTarget(s State, p core.Position, env Env) core.Rect {
	pos := env.Surface.Clamp(core.Position{X: p.X - s.Offset.X, Y: p.Y - s.Offset.Y}, s.Start.W, s.Start.H)
	return core.Rect{X: pos.X, Y: pos.Y, W: s.Start.W, H: s.Start.H}
}

func dragMove(s State, p core.Position, env Env) (State, []Effect) {
	r := dragTarget(s, p, env)
	s.Current = r
	v := env.Units.ValidateFootprint(s.UnitID, r)
	return s, []Effect{PreviewMoved{UnitID: s.UnitID, Position: r.Origin(), Overlapping: !v.Valid}}
}

func dragUp(s State, p core.Position, env Env) (State, []Effect) {
	r := dragTarget(s, p, env)
	v := env.Units.ValidateFootprint(s.UnitID, r)
	if !v.Valid {
		return State{}, []Effect{Reverted{UnitID: s.UnitID, Rect: s.Start, Err: core.ValidationError("%s", v.Error)}}
	}
	return State{}, []Effect{CommitMove{UnitID: s.UnitID, Position: r.Origin()}}
}

// resizeRect keeps the edges opposite the dragged corner fixed.
func resizeRect(s State, p core.Position, surface geometry.Surface) core.Rect {
	start := s.Start
	left := s.Corner == NW || s.Corner == SW
	top := s.Corner == NW || s.Corner == NE

	var fx, fy, w, h float64
	if left {
		fx = start.X + start.W
		w = fx - p.X
	} else {
		fx = start.X
		w = p.X - fx
	}
	if top {
		fy = start.Y + start.H
		h = fy - p.Y
	} else {
		fy = start.Y
		h = p.Y - fy
	}

	w = math.Max(geometry.MinFootprint, math.Min(geometry.MaxFootprint, w))
	h = math.Max(geometry.MinFootprint, math.Min(geometry.MaxFootprint, h))

	// clip to the surface
	if left {
		w = math.Min(w, fx)
	} else {
		w = math.Min(w, surface.W-fx)
	}
	if top {
		h = math.Min(h, fy)
	} else {
		h = math.Min(h, surface.H-fy)
	}

	r := core.Rect{X: fx, Y: fy, W: w, H: h}
	if left {
		r.X = fx - w
	}
	if top {
		r.Y = fy - h
	}
	return r
}

func resizeMove(s State, p core.Position, env Env) (State, []Effect) {
	r := resizeRect(s, p, env.Surface)
	s.Current = r
	formation, count := geometry.CountFromFootprint(r.W, r.H)
	inBounds := false
	if u, ok := env.Units.Unit(s.UnitID); ok {
		spec, _ := core.Spec(u.Type)
		inBounds = spec.InBounds(count)
	}
	v := env.Units.ValidateFootprint(s.UnitID, r)
	return s, []Effect{PreviewResized{
		UnitID:         s.UnitID,
		Rect:           r,
		Formation:      formation,
		SoldierPreview: count,
		InBounds:       inBounds,
		Overlapping:    !v.Valid,
	}}
}

func resizeUp(s State, p core.Position, env Env) (State, []Effect) {
	r := resizeRect(s, p, env.Surface)
	formation, count := geometry.CountFromFootprint(r.W, r.H)
	revert := func(err *core.Error) (State, []Effect) {
		return State{}, []Effect{Reverted{UnitID: s.UnitID, Rect: s.Start, Err: err}}
	}

	u, ok := env.Units.Unit(s.UnitID)
	if !ok {
		return revert(core.NotFoundError("unit %q not found", s.UnitID))
	}
	spec, _ := core.Spec(u.Type)
	if !spec.InBounds(count) {
		return revert(core.ValidationError("%s must have between %d and %d soldiers, got %d",
			spec.DisplayName, spec.MinSize, spec.MaxSize, count))
	}
	c := committedRect(s.Corner, r, formation)
	if v := env.Units.ValidateFootprint(s.UnitID, c); !v.Valid {
		return revert(core.ValidationError("%s", v.Error))
	}
	return State{}, []Effect{CommitResize{
		UnitID:       s.UnitID,
		SoldierCount: count,
		Formation:    formation,
		Position:     c.Origin(),
	}}
}

// committedRect is the footprint of the rounded formation, anchored on the
// edges the dragged corner leaves fixed.
func committedRect(corner Corner, preview core.Rect, f core.Formation) core.Rect {
	w, h := geometry.FootprintOf(f)
	c := core.Rect{X: preview.X, Y: preview.Y, W: w, H: h}
	if corner == NW || corner == SW {
		c.X = math.Max(0, preview.X+preview.W-w)
	}
	if corner == NW || corner == NE {
		c.Y = math.Max(0, preview.Y+preview.H-h)
	}
	return c
}

func cancel(s State) (State, []Effect) {
	switch s.Mode {
	case Dragging, Resizing:
		return State{}, []Effect{Reverted{UnitID: s.UnitID, Rect: s.Start}}
	}
	if s.Pending != nil {
		p := s.Pending
		return State{}, []Effect{AssignCancelled{UnitID: p.UnitID, CharacterID: p.CharacterID}}
	}
	return s, nil
}

func command(s State, c Command, env Env) (State, []Effect) {
	if s.Mode != Idle {
		return s, nil
	}
	if c.Kind.needsHistory() && !env.Caps.History {
		return s, nil
	}
	if c.Kind.needsCharacters() && !env.Caps.CharacterAssignment {
		return s, nil
	}

	switch c.Kind {
	case CmdConfirmAssign:
		if s.Pending == nil {
			return s, nil
		}
		p := s.Pending
		return State{}, []Effect{Execute{Command: Command{
			Kind:        CmdAssign,
			UnitID:      p.UnitID,
			CharacterID: p.CharacterID,
			Role:        core.RoleGeneral,
			Replace:     true,
		}}}
	case CmdCancelAssign:
		return cancel(s)
	case CmdAssign:
		var effects []Effect
		if s.Pending != nil {
			effects = append(effects, AssignCancelled{UnitID: s.Pending.UnitID, CharacterID: s.Pending.CharacterID})
		}
		if c.Role == core.RoleGeneral && !c.Replace {
			if u, ok := env.Units.Unit(c.UnitID); ok && u.General != "" {
				pending := &PendingAssign{UnitID: u.ID, CharacterID: c.CharacterID, Current: u.General}
				effects = append(effects, ConfirmRequested{UnitID: u.ID, CharacterID: c.CharacterID, Current: u.General})
				return State{Pending: pending}, effects
			}
		}
		return State{}, append(effects, Execute{Command: c})
	}

	// any other command drops a pending confirmation
	var effects []Effect
	if s.Pending != nil {
		effects = append(effects, AssignCancelled{UnitID: s.Pending.UnitID, CharacterID: s.Pending.CharacterID})
	}
	return State{}, append(effects, Execute{Command: c})
}
