package interaction

import "github.com/tmoosting/tactical-tangle/pkg/core"

// Event is an input to Step.
type Event interface {
	event()
}

// Target is the part of a unit the pointer went down on.
type Target int

const (
	Body Target = iota
	Handle
)

type PointerDown struct {
	UnitID string
	Target Target
	// Corner is only read when Target is Handle.
	Corner Corner
	Point  core.Position
}

type PointerMove struct {
	Point core.Position
}

type PointerUp struct {
	Point core.Position
}

// Cancel aborts the current gesture or a pending confirmation.
type Cancel struct{}

// CommandKind names an idle-only command.
type CommandKind string

const (
	CmdDuplicate       CommandKind = "duplicate"
	CmdDelete          CommandKind = "delete"
	CmdCopyShape       CommandKind = "copy-shape"
	CmdAlignRight      CommandKind = "align-right"
	CmdSetTemplate     CommandKind = "set-template"
	CmdUndo            CommandKind = "undo"
	CmdRedo            CommandKind = "redo"
	CmdAssign          CommandKind = "assign"
	CmdRemoveCharacter CommandKind = "remove-character"
	CmdConfirmAssign   CommandKind = "confirm-assign"
	CmdCancelAssign    CommandKind = "cancel-assign"
)

// Command is a discrete user command. Only the fields its Kind needs are read.
type Command struct {
	Kind        CommandKind
	UnitID      string
	Player      string
	CharacterID string
	Role        core.Role
	Replace     bool
}

func (PointerDown) event() {}
func (PointerMove) event() {}
func (PointerUp) event()   {}
func (Cancel) event()      {}
func (Command) event()     {}

func (k CommandKind) needsHistory() bool {
	return k == CmdUndo || k == CmdRedo
}

func (k CommandKind) needsCharacters() bool {
	switch k {
	case CmdAssign, CmdRemoveCharacter, CmdConfirmAssign, CmdCancelAssign:
		return true
	}
	return false
}
