package interaction

import "github.com/tmoosting/tactical-tangle/pkg/core"

// Effect is an output of Step or of the Controller.
type Effect interface {
	effect()
}

// SaveHistory asks for a snapshot before the gesture on UnitID mutates anything.
type SaveHistory struct {
	UnitID string
}

// PreviewMoved is drag feedback. The model is untouched.
type PreviewMoved struct {
	UnitID      string
	Position    core.Position
	Overlapping bool
}

// PreviewResized is resize feedback. The model is untouched.
type PreviewResized struct {
	UnitID         string
	Rect           core.Rect
	Formation      core.Formation
	SoldierPreview int
	InBounds       bool
	Overlapping    bool
}

type CommitMove struct {
	UnitID   string
	Position core.Position
}

type CommitResize struct {
	UnitID       string
	SoldierCount int
	Formation    core.Formation
	Position     core.Position
}

// Reverted puts the view of UnitID back to Rect. Err is nil for a plain cancel.
type Reverted struct {
	UnitID string
	Rect   core.Rect
	Err    *core.Error
}

// Execute runs an idle command against the editor.
type Execute struct {
	Command Command
}

// ConfirmRequested asks the user whether Current may be replaced as general.
type ConfirmRequested struct {
	UnitID      string
	CharacterID string
	Current     string
}

// AssignCancelled reports that a pending replacement was dropped.
type AssignCancelled struct {
	UnitID      string
	CharacterID string
}

// Committed is emitted by the Controller after the model accepted a gesture.
type Committed struct {
	Unit core.Unit
}

// CommandDone is emitted by the Controller after an Execute ran.
type CommandDone struct {
	Command Command
	Result  core.Result
}

// AvailabilityChanged carries the characters still free after an assignment change.
type AvailabilityChanged struct {
	UnitID     string
	Characters []core.Character
}

func (SaveHistory) effect()         {}
func (PreviewMoved) effect()        {}
func (PreviewResized) effect()      {}
func (CommitMove) effect()          {}
func (CommitResize) effect()        {}
func (Reverted) effect()            {}
func (Execute) effect()             {}
func (ConfirmRequested) effect()    {}
func (AssignCancelled) effect()     {}
func (Committed) effect()           {}
func (CommandDone) effect()         {}
func (AvailabilityChanged) effect() {}
