package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmoosting/tactical-tangle/internal/dispatcher"
	"github.com/tmoosting/tactical-tangle/internal/util"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Command names served by RegisterHandlers.
const (
	CmdUnitCreate         = ":UNIT:CREATE:"
	CmdUnitMove           = ":UNIT:MOVE:"
	CmdUnitResize         = ":UNIT:RESIZE:"
	CmdUnitRename         = ":UNIT:RENAME:"
	CmdUnitRemove         = ":UNIT:REMOVE:"
	CmdUnitDuplicate      = ":UNIT:DUPLICATE:"
	CmdUnitCopyShape      = ":UNIT:COPYSHAPE:"
	CmdUnitAlign          = ":UNIT:ALIGN:"
	CmdUnitTemplate       = ":UNIT:TEMPLATE:"
	CmdHistoryUndo        = ":HISTORY:UNDO:"
	CmdHistoryRedo        = ":HISTORY:REDO:"
	CmdCharacterAssign    = ":CHARACTER:ASSIGN:"
	CmdCharacterRemove    = ":CHARACTER:REMOVE:"
	CmdArmyList           = ":ARMY:LIST:"
	CmdArmyStats          = ":ARMY:STATS:"
	CmdPlacementValidate  = ":PLACEMENT:VALIDATE:"
	CmdCharacterAvailable = ":CHARACTER:AVAILABLE:"
)

// RegisterHandlers registers the editor commands with the dispatcher.
// Handlers return a core.Result; malformed arguments are returned as errors.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Unit commands - sync, the caller renders the result
	d.Register(CmdUnitCreate, s.handleCreate, dispatcher.Logged())
	d.Register(CmdUnitMove, s.handleMove, dispatcher.Logged())
	d.Register(CmdUnitResize, s.handleResize, dispatcher.Logged())
	d.Register(CmdUnitRename, s.handleRename, dispatcher.Logged())
	d.Register(CmdUnitRemove, oneArg(s.RemoveUnit), dispatcher.Logged())
	d.Register(CmdUnitDuplicate, oneArg(s.DuplicateUnit), dispatcher.Logged())
	d.Register(CmdUnitCopyShape, oneArg(s.CopyShapeToType), dispatcher.Logged())
	d.Register(CmdUnitAlign, oneArg(s.AlignToRight), dispatcher.Logged())
	d.Register(CmdUnitTemplate, oneArg(s.SetDefaultTemplate), dispatcher.Logged())

	// History
	d.Register(CmdHistoryUndo, oneArg(s.Undo), dispatcher.Logged())
	d.Register(CmdHistoryRedo, oneArg(s.Redo), dispatcher.Logged())

	// Characters
	d.Register(CmdCharacterAssign, s.handleAssign, dispatcher.Logged())
	d.Register(CmdCharacterRemove, s.handleRemoveCharacter, dispatcher.Logged())
	d.Register(CmdCharacterAvailable, s.handleAvailable)

	// Queries
	d.Register(CmdArmyList, oneArg(s.ListUnits))
	d.Register(CmdArmyStats, oneArg(s.GetArmyStats))
	d.Register(CmdPlacementValidate, s.handleValidate)
}

func args(e dispatcher.Event, lo, hi int) ([]string, error) {
	if len(e.Args) < lo || len(e.Args) > hi {
		if lo == hi {
			return nil, fmt.Errorf("%s expects %d args, got %d", e.Command, lo, len(e.Args))
		}
		return nil, fmt.Errorf("%s expects %d to %d args, got %d", e.Command, lo, hi, len(e.Args))
	}
	out := make([]string, len(e.Args))
	for i, v := range e.Args {
		out[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	return out, nil
}

func parsePosition(xs, ys string) (core.Position, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return core.Position{}, fmt.Errorf("error converting x '%s' to float: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return core.Position{}, fmt.Errorf("error converting y '%s' to float: %w", ys, err)
	}
	return core.Position{X: x, Y: y}, nil
}

// oneArg adapts a command taking a unit or player id.
func oneArg(cmd func(string) core.Result) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		a, err := args(e, 1, 1)
		if err != nil {
			return nil, err
		}
		return cmd(a[0]), nil
	}
}

func (s *Service) handleCreate(e dispatcher.Event) (any, error) {
	a, err := args(e, 2, 2)
	if err != nil {
		return nil, err
	}
	t, ok := core.ParseUnitType(a[1])
	if !ok {
		return core.Fail(core.ValidationError("unknown unit type %q", a[1])), nil
	}
	return s.CreateUnit(a[0], t), nil
}

// handleMove is a one-shot drag: snapshot, then commit if the spot is free.
func (s *Service) handleMove(e dispatcher.Event) (any, error) {
	a, err := args(e, 3, 3)
	if err != nil {
		return nil, err
	}
	pos, err := parsePosition(a[1], a[2])
	if err != nil {
		return nil, err
	}
	s.SaveHistory(a[0])
	return s.UpdateUnit(a[0], core.UnitPatch{Position: &pos}), nil
}

func (s *Service) handleResize(e dispatcher.Event) (any, error) {
	a, err := args(e, 2, 2)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(a[1])
	if err != nil {
		return nil, fmt.Errorf("error converting soldier count '%s' to int: %w", a[1], err)
	}
	s.SaveHistory(a[0])
	return s.UpdateUnit(a[0], core.UnitPatch{SoldierCount: &n}), nil
}

func (s *Service) handleRename(e dispatcher.Event) (any, error) {
	a, err := args(e, 2, 2)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(a[1])
	if name == "" {
		return core.Fail(core.ValidationError("name must not be empty")), nil
	}
	s.SaveHistory(a[0])
	return s.UpdateUnit(a[0], core.UnitPatch{Name: &name}), nil
}

func (s *Service) handleAssign(e dispatcher.Event) (any, error) {
	a, err := args(e, 3, 4)
	if err != nil {
		return nil, err
	}
	role, ok := core.ParseRole(a[2])
	if !ok {
		return core.Fail(core.ValidationError("unknown role %q", a[2])), nil
	}
	replace := false
	if len(a) == 4 {
		if a[3] != "replace" {
			return nil, fmt.Errorf("%s: unexpected flag %q", e.Command, a[3])
		}
		replace = true
	}
	return s.AssignCharacter(a[0], a[1], role, replace), nil
}

func (s *Service) handleRemoveCharacter(e dispatcher.Event) (any, error) {
	a, err := args(e, 2, 3)
	if err != nil {
		return nil, err
	}
	role, ok := core.ParseRole(a[1])
	if !ok {
		return core.Fail(core.ValidationError("unknown role %q", a[1])), nil
	}
	charID := ""
	if len(a) == 3 {
		charID = a[2]
	}
	return s.RemoveCharacter(a[0], role, charID), nil
}

func (s *Service) handleAvailable(e dispatcher.Event) (any, error) {
	a, err := args(e, 0, 1)
	if err != nil {
		return nil, err
	}
	unitID := ""
	if len(a) == 1 {
		unitID = a[0]
	}
	return s.AvailableCharacters(unitID), nil
}

func (s *Service) handleValidate(e dispatcher.Event) (any, error) {
	a, err := args(e, 3, 3)
	if err != nil {
		return nil, err
	}
	pos, err := parsePosition(a[1], a[2])
	if err != nil {
		return nil, err
	}
	return s.ValidatePlacement(a[0], pos), nil
}
