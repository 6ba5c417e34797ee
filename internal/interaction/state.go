// Package interaction turns pointer and command input into editor effects.
//
// Step is a pure transition function over State. Controller runs it against
// an Editor and queues the render effects for the view layer.
package interaction

import (
	"github.com/tmoosting/tactical-tangle/internal/geometry"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Mode is the gesture the controller is in.
type Mode int

const (
	Idle Mode = iota
	Dragging
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "unknown"
}

// Corner is a resize handle.
type Corner int

const (
	NW Corner = iota
	NE
	SW
	SE
)

func (c Corner) String() string {
	switch c {
	case NW:
		return "nw"
	case NE:
		return "ne"
	case SW:
		return "sw"
	case SE:
		return "se"
	}
	return "unknown"
}

// Capabilities switch optional parts of the controller on.
type Capabilities struct {
	History             bool
	CharacterAssignment bool
}

// PendingAssign is a general replacement waiting for confirmation.
type PendingAssign struct {
	UnitID      string
	CharacterID string
	Current     string
}

// State is the controller state between events.
type State struct {
	Mode   Mode
	UnitID string
	// Start is the committed footprint when the gesture began.
	Start core.Rect
	// Offset is the pointer position relative to the unit origin while dragging.
	Offset core.Position
	Corner Corner
	// Current is the footprint last previewed.
	Current core.Rect
	Pending *PendingAssign
}

// Units is the read-only view of the armies Step needs.
type Units interface {
	Unit(id string) (core.Unit, bool)
	ValidateFootprint(id string, r core.Rect) geometry.Placement
}

// Env is everything Step reads besides the state and the event.
type Env struct {
	Units   Units
	Surface geometry.Surface
	Caps    Capabilities
}
