package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/internal/army"
	"github.com/tmoosting/tactical-tangle/internal/battle"
	"github.com/tmoosting/tactical-tangle/internal/cache"
	"github.com/tmoosting/tactical-tangle/internal/history"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// fakeEditor drives a single army directly.
type fakeEditor struct {
	*army.Army
	hist          *history.Manager
	battle        *battle.Context
	saves         int
	rejectUpdates bool
}

func newFakeEditor(t *testing.T) *fakeEditor {
	a := twoLights(t)
	roster := cache.NewRosterCache([]core.Character{{ID: "leonidas"}, {ID: "dienekes"}})
	return &fakeEditor{
		Army:   a,
		hist:   history.NewManager(a, 0),
		battle: battle.NewContext(roster, a),
	}
}

func (f *fakeEditor) SaveHistory(string) {
	f.saves++
	f.hist.Save()
}

func (f *fakeEditor) UpdateUnit(id string, patch core.UnitPatch) core.Result {
	if f.rejectUpdates {
		return core.Fail(core.ValidationError("rejected"))
	}
	return f.Army.UpdateUnit(id, patch)
}

func (f *fakeEditor) Undo(string) core.Result {
	return core.OK(f.hist.Undo())
}

func (f *fakeEditor) Redo(string) core.Result {
	return core.OK(f.hist.Redo())
}

func (f *fakeEditor) AssignCharacter(unitID, characterID string, role core.Role, replace bool) core.Result {
	return f.battle.AssignCharacter(unitID, characterID, role, replace)
}

func (f *fakeEditor) RemoveCharacter(unitID string, role core.Role, characterID string) core.Result {
	return f.battle.RemoveCharacter(unitID, role, characterID)
}

func (f *fakeEditor) AvailableCharacters(unitID string) core.Result {
	return f.battle.AvailableCharacters(unitID)
}

func fullController(ed Editor, opts ...Option) *Controller {
	return NewController(ed, surface, append([]Option{WithHistory(), WithCharacterAssignment()}, opts...)...)
}

func TestController_Options(t *testing.T) {
	ed := newFakeEditor(t)

	c := NewController(ed, surface)
	assert.Equal(t, Capabilities{}, c.Capabilities())

	c = fullController(ed)
	assert.Equal(t, Capabilities{History: true, CharacterAssignment: true}, c.Capabilities())
	assert.Equal(t, Idle, c.State().Mode)
}

func TestController_RejectedDragLeavesArmyUnchanged(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed)
	before := ed.Snapshot()

	c.Handle(PointerDown{UnitID: "u-2", Point: core.Position{X: 330, Y: 30}})
	c.Handle(PointerMove{Point: core.Position{X: 100, Y: 30}})
	out := c.Handle(PointerUp{Point: core.Position{X: 30, Y: 30}})

	require.Len(t, out, 1)
	rev := out[0].(Reverted)
	assert.Equal(t, core.Position{X: 320, Y: 20}, rev.Rect.Origin())
	assert.True(t, before.Equal(ed.Snapshot()))
	assert.Equal(t, 1, ed.saves)
	assert.False(t, ed.hist.CanUndo(), "a rejected gesture leaves nothing to undo")
}

func TestController_RejectedResizeRevertsEverything(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed)
	before, _ := ed.Unit("u-1")

	c.Handle(PointerDown{UnitID: "u-1", Target: Handle, Corner: SE})
	c.Handle(PointerMove{Point: core.Position{X: 60, Y: 80}})
	out := c.Handle(PointerUp{Point: core.Position{X: 60, Y: 80}})

	require.Len(t, out, 1)
	rev := out[0].(Reverted)
	assert.ErrorIs(t, rev.Err, core.ErrValidation)
	after, _ := ed.Unit("u-1")
	assert.True(t, before.Equal(after))
}

func TestController_ResizeCommitAndUndo(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed)

	c.Handle(PointerDown{UnitID: "u-1", Target: Handle, Corner: SE})
	out := c.Handle(PointerUp{Point: core.Position{X: 260, Y: 92}})

	require.Len(t, out, 1)
	committed := out[0].(Committed)
	assert.Equal(t, 120, committed.Unit.SoldierCount)
	assert.Equal(t, 120, committed.Unit.Cost)

	out = c.Handle(Command{Kind: CmdUndo, Player: "player1"})
	require.Len(t, out, 1)
	done := out[0].(CommandDone)
	assert.Equal(t, true, done.Result.Data)
	u, _ := ed.Unit("u-1")
	assert.Equal(t, 60, u.SoldierCount)

	c.Handle(Command{Kind: CmdRedo, Player: "player1"})
	u, _ = ed.Unit("u-1")
	assert.Equal(t, 120, u.SoldierCount)
}

func TestController_ModelRejectionReverts(t *testing.T) {
	ed := newFakeEditor(t)
	ed.rejectUpdates = true
	c := fullController(ed)

	c.Handle(PointerDown{UnitID: "u-2", Point: core.Position{X: 330, Y: 30}})
	out := c.Handle(PointerUp{Point: core.Position{X: 330, Y: 230}})

	require.Len(t, out, 1)
	rev := out[0].(Reverted)
	assert.Equal(t, core.Rect{X: 320, Y: 20, W: 144, H: 60}, rev.Rect)
	assert.Equal(t, "rejected", rev.Err.Message)
}

func TestController_CancelDuringDrag(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed)

	c.Handle(PointerDown{UnitID: "u-2", Point: core.Position{X: 330, Y: 30}})
	c.Handle(PointerMove{Point: core.Position{X: 700, Y: 500}})
	out := c.Handle(Cancel{})

	require.Len(t, out, 1)
	assert.Nil(t, out[0].(Reverted).Err)
	u, _ := ed.Unit("u-2")
	assert.Equal(t, core.Position{X: 320, Y: 20}, u.Position)
	assert.Equal(t, Idle, c.State().Mode)
}

func TestController_Commands(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed)

	out := c.Handle(Command{Kind: CmdDuplicate, UnitID: "u-1"})
	require.Len(t, out, 1)
	assert.True(t, out[0].(CommandDone).Result.Success)
	assert.Equal(t, 3, ed.Len())

	out = c.Handle(Command{Kind: CmdDelete, UnitID: "missing"})
	assert.ErrorIs(t, out[0].(CommandDone).Result.Error(), core.ErrNotFound)

	out = c.Handle(Command{Kind: CommandKind("explode")})
	assert.ErrorIs(t, out[0].(CommandDone).Result.Error(), core.ErrValidation)
}

func TestController_AssignmentFlow(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed)

	out := c.Handle(Command{Kind: CmdAssign, UnitID: "u-1", CharacterID: "leonidas", Role: core.RoleGeneral})
	require.Len(t, out, 2)
	assert.True(t, out[0].(CommandDone).Result.Success)
	avail := out[1].(AvailabilityChanged)
	assert.Equal(t, []core.Character{{ID: "dienekes"}}, avail.Characters)

	out = c.Handle(Command{Kind: CmdAssign, UnitID: "u-1", CharacterID: "dienekes", Role: core.RoleGeneral})
	require.Len(t, out, 1)
	assert.IsType(t, ConfirmRequested{}, out[0])
	u, _ := ed.Unit("u-1")
	assert.Equal(t, "leonidas", u.General, "nothing changes until confirmed")

	out = c.Handle(Command{Kind: CmdConfirmAssign})
	require.Len(t, out, 2)
	u, _ = ed.Unit("u-1")
	assert.Equal(t, "dienekes", u.General)
	assert.Equal(t, []core.Character{{ID: "leonidas"}}, out[1].(AvailabilityChanged).Characters)

	out = c.Handle(Command{Kind: CmdRemoveCharacter, UnitID: "u-1", Role: core.RoleGeneral})
	require.Len(t, out, 2)
	assert.Len(t, out[1].(AvailabilityChanged).Characters, 2)
}

func TestController_Outbox(t *testing.T) {
	ed := newFakeEditor(t)
	c := fullController(ed, WithOutboxLimit(2))

	c.Handle(PointerDown{UnitID: "u-2", Point: core.Position{X: 330, Y: 30}})
	for i := 0; i < 5; i++ {
		c.Handle(PointerMove{Point: core.Position{X: 400 + float64(i), Y: 300}})
	}

	drained := c.Outbox().Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, core.Position{X: 394, Y: 290}, drained[1].(PreviewMoved).Position)
	assert.Equal(t, 3, c.Outbox().Dropped())
}
