package interaction

import (
	"log/slog"

	"github.com/tmoosting/tactical-tangle/internal/geometry"
	"github.com/tmoosting/tactical-tangle/internal/queue"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// DefaultOutboxLimit bounds the render outbox when the view stops draining it.
const DefaultOutboxLimit = 1024

// Editor is the command surface the Controller drives.
type Editor interface {
	Units

	SaveHistory(unitID string)
	UpdateUnit(id string, patch core.UnitPatch) core.Result
	DuplicateUnit(id string) core.Result
	RemoveUnit(id string) core.Result
	CopyShapeToType(id string) core.Result
	AlignToRight(id string) core.Result
	SetDefaultTemplate(id string) core.Result
	Undo(player string) core.Result
	Redo(player string) core.Result
	AssignCharacter(unitID, characterID string, role core.Role, replace bool) core.Result
	RemoveCharacter(unitID string, role core.Role, characterID string) core.Result
	AvailableCharacters(unitID string) core.Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory enables gesture snapshots and the undo/redo commands.
func WithHistory() Option {
	return func(c *Controller) { c.caps.History = true }
}

// WithCharacterAssignment enables the character commands.
func WithCharacterAssignment() Option {
	return func(c *Controller) { c.caps.CharacterAssignment = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithOutboxLimit(n int) Option {
	return func(c *Controller) { c.outboxLimit = n }
}

// Controller feeds events through Step, executes the resulting effects
// against the editor and queues render effects in the outbox.
type Controller struct {
	state       State
	editor      Editor
	surface     geometry.Surface
	caps        Capabilities
	logger      *slog.Logger
	outboxLimit int
	outbox      *queue.Queue[Effect]
}

func NewController(editor Editor, surface geometry.Surface, opts ...Option) *Controller {
	c := &Controller{
		editor:      editor,
		surface:     surface,
		logger:      slog.Default(),
		outboxLimit: DefaultOutboxLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.outbox = queue.New[Effect](c.outboxLimit)
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Capabilities() Capabilities {
	return c.caps
}

// Outbox holds render effects until the view drains them.
func (c *Controller) Outbox() *queue.Queue[Effect] {
	return c.outbox
}

// Handle processes one event and returns the render effects it produced.
// The same effects are pushed to the outbox.
func (c *Controller) Handle(ev Event) []Effect {
	prev := c.state
	next, effects := Step(prev, ev, Env{Units: c.editor, Surface: c.surface, Caps: c.caps})
	c.state = next
	if prev.Mode != next.Mode {
		c.logger.Debug("interaction mode changed", "from", prev.Mode.String(), "to", next.Mode.String(), "unit", next.UnitID)
	}

	var rendered []Effect
	for _, eff := range effects {
		rendered = append(rendered, c.run(prev, eff)...)
	}
	if len(rendered) > 0 {
		c.outbox.Push(rendered...)
	}
	return rendered
}

func (c *Controller) run(prev State, eff Effect) []Effect {
	switch e := eff.(type) {
	case SaveHistory:
		c.editor.SaveHistory(e.UnitID)
		return nil
	case CommitMove:
		return c.commit(prev, e.UnitID, c.editor.UpdateUnit(e.UnitID, core.UnitPatch{Position: &e.Position}))
	case CommitResize:
		return c.commit(prev, e.UnitID, c.editor.UpdateUnit(e.UnitID, core.UnitPatch{
			SoldierCount: &e.SoldierCount,
			Formation:    &e.Formation,
			Position:     &e.Position,
		}))
	case Execute:
		return c.execute(e.Command)
	}
	return []Effect{eff}
}

func (c *Controller) commit(prev State, unitID string, res core.Result) []Effect {
	if !res.Success {
		c.logger.Info("gesture rejected", "unit", unitID, "error", res.Err.Message)
		return []Effect{Reverted{UnitID: unitID, Rect: prev.Start, Err: res.Err}}
	}
	u, _ := res.Unit()
	return []Effect{Committed{Unit: u}}
}

func (c *Controller) execute(cmd Command) []Effect {
	var res core.Result
	switch cmd.Kind {
	case CmdDuplicate:
		res = c.editor.DuplicateUnit(cmd.UnitID)
	case CmdDelete:
		res = c.editor.RemoveUnit(cmd.UnitID)
	case CmdCopyShape:
		res = c.editor.CopyShapeToType(cmd.UnitID)
	case CmdAlignRight:
		res = c.editor.AlignToRight(cmd.UnitID)
	case CmdSetTemplate:
		res = c.editor.SetDefaultTemplate(cmd.UnitID)
	case CmdUndo:
		res = c.editor.Undo(cmd.Player)
	case CmdRedo:
		res = c.editor.Redo(cmd.Player)
	case CmdAssign:
		res = c.editor.AssignCharacter(cmd.UnitID, cmd.CharacterID, cmd.Role, cmd.Replace)
	case CmdRemoveCharacter:
		res = c.editor.RemoveCharacter(cmd.UnitID, cmd.Role, cmd.CharacterID)
	default:
		res = core.Fail(core.ValidationError("unknown command %q", cmd.Kind))
	}
	if !res.Success {
		c.logger.Info("command failed", "command", string(cmd.Kind), "unit", cmd.UnitID, "error", res.Err.Message)
	}

	out := []Effect{CommandDone{Command: cmd, Result: res}}
	if res.Success && (cmd.Kind == CmdAssign || cmd.Kind == CmdRemoveCharacter) {
		if avail := c.editor.AvailableCharacters(cmd.UnitID); avail.Success {
			chars, _ := avail.Data.([]core.Character)
			out = append(out, AvailabilityChanged{UnitID: cmd.UnitID, Characters: chars})
		}
	}
	return out
}
