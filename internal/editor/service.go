// Package editor is the command surface of the formation editor. It owns the
// armies of one battle, their undo history and their persistence.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmoosting/tactical-tangle/internal/army"
	"github.com/tmoosting/tactical-tangle/internal/battle"
	"github.com/tmoosting/tactical-tangle/internal/cache"
	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/geometry"
	"github.com/tmoosting/tactical-tangle/internal/history"
	"github.com/tmoosting/tactical-tangle/internal/interaction"
	"github.com/tmoosting/tactical-tangle/internal/storage"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Operation names reported to the CommitObserver.
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpRemove    = "remove"
	OpDuplicate = "duplicate"
	OpCopyShape = "copy_shape"
	OpAlign     = "align"
	OpTemplate  = "template"
	OpUndo      = "undo"
	OpRedo      = "redo"
	OpAssign    = "assign"
	OpUnassign  = "unassign"
)

// CommitObserver is told about every committed change to a unit.
type CommitObserver interface {
	Commit(player, op string, u core.Unit, usedPoints int)
}

// Dependencies holds everything the Service needs.
type Dependencies struct {
	Config   config.EditorConfig
	Backend  storage.Backend
	Roster   *cache.RosterCache
	Logger   *slog.Logger
	Observer CommitObserver
	// NewID is shared by every army so ids stay unique across the battle.
	NewID army.IDGenerator
}

var _ interaction.Editor = (*Service)(nil)

// Service implements the editor queries and commands over one battle.
// It is not safe for concurrent use.
type Service struct {
	deps    Dependencies
	logger  *slog.Logger
	battle  *battle.Context
	history map[string]*history.Manager
	surface geometry.Surface
}

// NewService loads every configured player's army from the backend.
// Missing or unreadable armies start fresh.
func NewService(deps Dependencies) (*Service, error) {
	if len(deps.Config.Players) == 0 {
		return nil, errors.New("no players configured")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Service{
		deps:    deps,
		logger:  deps.Logger.With("component", "editor"),
		history: make(map[string]*history.Manager, len(deps.Config.Players)),
		surface: geometry.Surface{W: deps.Config.SurfaceWidth, H: deps.Config.SurfaceHeight},
	}
	if s.surface.W <= 0 || s.surface.H <= 0 {
		s.surface = army.DefaultSurface
	}

	s.battle = battle.NewContext(deps.Roster)
	ids := make(map[string]string)
	for _, p := range deps.Config.Players {
		if p == "" {
			return nil, errors.New("empty player id")
		}
		if _, dup := s.history[p]; dup {
			return nil, fmt.Errorf("duplicate player id %q", p)
		}
		a := s.load(p, ids)
		for _, u := range a.Units() {
			ids[u.ID] = p
		}
		s.battle.SetArmy(a)
		s.history[p] = history.NewManager(a, deps.Config.HistorySize)
	}

	// earlier players keep a character claimed by two saved armies
	for _, p := range s.battle.Players()[1:] {
		if stripped := s.battle.StripConflicts(p); len(stripped) > 0 {
			s.logger.Warn("Removed characters assigned in both armies", "player", p, "characters", stripped)
		}
	}
	return s, nil
}

func (s *Service) armyOptions(player string) army.Options {
	return army.Options{
		PlayerID:  player,
		MaxPoints: s.deps.Config.MaxPoints,
		MaxUnits:  s.deps.Config.MaxUnits,
		Surface:   s.surface,
		NewID:     s.deps.NewID,
	}
}

// load returns the saved army of player, or a fresh one when nothing usable
// is stored. taken maps unit ids already loaded to their owner.
func (s *Service) load(player string, taken map[string]string) *army.Army {
	opts := s.armyOptions(player)
	if s.deps.Backend == nil {
		return army.New(opts)
	}

	rec, err := s.deps.Backend.Load(player)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Info("No saved army, starting fresh", "player", player)
		return army.New(opts)
	case err != nil:
		s.logger.Warn("Failed to load army, starting fresh", "player", player, "error", err)
		return army.New(opts)
	}

	rec.PlayerID = player
	a, err := army.FromRecord(rec, opts)
	if err != nil {
		s.logger.Warn("Saved army is invalid, starting fresh", "player", player, "error", err)
		return army.New(opts)
	}
	for _, u := range a.Units() {
		if owner, dup := taken[u.ID]; dup {
			s.logger.Warn("Saved army reuses a unit id, starting fresh", "player", player, "unit", u.ID, "owner", owner)
			return army.New(opts)
		}
	}
	s.logger.Info("Loaded army", "player", player, "units", a.Len(), "usedPoints", a.UsedPoints())
	return a
}

// Players returns the player ids in configuration order.
func (s *Service) Players() []string {
	return s.battle.Players()
}

// Surface returns the editing area shared by both armies.
func (s *Service) Surface() geometry.Surface {
	return s.surface
}

// Controller returns an interaction controller driving this service.
func (s *Service) Controller(opts ...interaction.Option) *interaction.Controller {
	return interaction.NewController(s, s.surface, append([]interaction.Option{interaction.WithLogger(s.logger)}, opts...)...)
}

func (s *Service) army(player string) (*army.Army, *core.Error) {
	a, ok := s.battle.Army(player)
	if !ok {
		return nil, core.NotFoundError("player %q not found", player)
	}
	return a, nil
}

func (s *Service) owner(unitID string) (*army.Army, *core.Error) {
	a, _, ok := s.battle.FindUnit(unitID)
	if !ok {
		return nil, core.NotFoundError("unit %q not found", unitID)
	}
	return a, nil
}

// Unit returns a copy of the unit with the given id from either army.
func (s *Service) Unit(id string) (core.Unit, bool) {
	_, u, ok := s.battle.FindUnit(id)
	return u, ok
}

// ValidateFootprint tests r against the other units of id's army.
func (s *Service) ValidateFootprint(id string, r core.Rect) geometry.Placement {
	a, _, ok := s.battle.FindUnit(id)
	if !ok {
		return geometry.Placement{Valid: false, Error: fmt.Sprintf("unit %q not found", id)}
	}
	return a.ValidateFootprint(id, r)
}

// ListUnits returns the units of player in creation order.
func (s *Service) ListUnits(player string) core.Result {
	a, err := s.army(player)
	if err != nil {
		return core.Fail(err)
	}
	return core.OK(a.Units())
}

// GetArmyStats returns the derived summary of player's army.
func (s *Service) GetArmyStats(player string) core.Result {
	a, err := s.army(player)
	if err != nil {
		return core.Fail(err)
	}
	return core.OK(a.Stats())
}

// ValidatePlacement reports whether unitID may sit at pos. Data is a
// geometry.Placement.
func (s *Service) ValidatePlacement(unitID string, pos core.Position) core.Result {
	a, err := s.owner(unitID)
	if err != nil {
		return core.Fail(err)
	}
	return core.OK(a.ValidatePlacement(unitID, pos))
}

// AvailableCharacters lists the roster entries not assigned in either army.
func (s *Service) AvailableCharacters(unitID string) core.Result {
	return s.battle.AvailableCharacters(unitID)
}

// SaveHistory snapshots the army owning unitID. Gestures call it once at
// their start.
func (s *Service) SaveHistory(unitID string) {
	a, _, ok := s.battle.FindUnit(unitID)
	if !ok {
		return
	}
	s.history[a.PlayerID()].Save()
}

func (s *Service) saveHistoryFor(player string) {
	if h, ok := s.history[player]; ok {
		h.Save()
	}
}

// CreateUnit spawns a unit of type t in player's army.
func (s *Service) CreateUnit(player string, t core.UnitType) core.Result {
	a, err := s.army(player)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(player)
	res := a.CreateUnit(t)
	if res.Success {
		u, _ := res.Unit()
		s.commit(a, OpCreate, u)
	}
	return res
}

// UpdateUnit patches a unit. It does not snapshot history; the caller
// saves once per gesture. Character ids set through the patch must not be
// held by another unit.
func (s *Service) UpdateUnit(id string, patch core.UnitPatch) core.Result {
	a, err := s.owner(id)
	if err != nil {
		return core.Fail(err)
	}
	if err := s.checkPatchCharacters(id, patch); err != nil {
		return core.Fail(err)
	}
	res := a.UpdateUnit(id, patch)
	if res.Success {
		if patch.General != nil || patch.SetSoldiers {
			s.battle.Reindex()
		}
		u, _ := res.Unit()
		s.commit(a, OpUpdate, u)
	}
	return res
}

func (s *Service) checkPatchCharacters(unitID string, patch core.UnitPatch) *core.Error {
	var ids []string
	if patch.General != nil && *patch.General != "" {
		ids = append(ids, *patch.General)
	}
	if patch.SetSoldiers {
		ids = append(ids, patch.Soldiers...)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return core.ValidationError("character %q is listed twice", id)
		}
		seen[id] = struct{}{}
		if at, ok := s.battle.Assignment(id); ok && at.UnitID != unitID {
			return core.ValidationError("character %q is already assigned to unit %q", id, at.UnitID)
		}
	}
	return nil
}

// RemoveUnit deletes a unit and frees its characters.
func (s *Service) RemoveUnit(id string) core.Result {
	a, err := s.owner(id)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(a.PlayerID())
	res := a.RemoveUnit(id)
	if res.Success {
		s.battle.Reindex()
		u, _ := res.Unit()
		s.commit(a, OpRemove, u)
	}
	return res
}

// DuplicateUnit clones a unit next to the original without its characters.
func (s *Service) DuplicateUnit(id string) core.Result {
	a, err := s.owner(id)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(a.PlayerID())
	res := a.DuplicateUnit(id)
	if res.Success {
		u, _ := res.Unit()
		s.commit(a, OpDuplicate, u)
	}
	return res
}

// CopyShapeToType applies a unit's formation to the rest of its type.
func (s *Service) CopyShapeToType(id string) core.Result {
	a, err := s.owner(id)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(a.PlayerID())
	res := a.CopyShapeToType(id)
	if res.Success {
		if sc, ok := res.Data.(army.ShapeCopy); ok {
			s.commitIDs(a, OpCopyShape, sc.Applied)
		}
	}
	return res
}

// AlignToRight lines up the rest of a unit's type to its right.
func (s *Service) AlignToRight(id string) core.Result {
	a, err := s.owner(id)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(a.PlayerID())
	res := a.AlignToRight(id)
	if res.Success {
		if al, ok := res.Data.(army.Alignment); ok {
			s.commitIDs(a, OpAlign, al.Moved)
		}
	}
	return res
}

// SetDefaultTemplate makes a unit's shape the spawn default of its type.
func (s *Service) SetDefaultTemplate(id string) core.Result {
	a, err := s.owner(id)
	if err != nil {
		return core.Fail(err)
	}
	res := a.SetDefaultTemplate(id)
	if res.Success {
		u, _ := a.Unit(id)
		s.commit(a, OpTemplate, u)
	}
	return res
}

// Undo steps player's army back. Data is false when there was nothing to undo.
func (s *Service) Undo(player string) core.Result {
	return s.step(player, OpUndo, (*history.Manager).Undo)
}

// Redo steps player's army forward. Data is false at the newest state.
func (s *Service) Redo(player string) core.Result {
	return s.step(player, OpRedo, (*history.Manager).Redo)
}

func (s *Service) step(player, op string, move func(*history.Manager) bool) core.Result {
	a, err := s.army(player)
	if err != nil {
		return core.Fail(err)
	}
	if !move(s.history[player]) {
		return core.OK(false)
	}
	s.battle.Reindex()
	if stripped := s.battle.StripConflicts(player); len(stripped) > 0 {
		s.history[player].Resync()
		s.logger.Info("Removed characters now assigned in the other army", "player", player, "op", op, "characters", stripped)
	}
	s.persist(a)
	s.logger.Debug("History step", "player", player, "op", op, "units", a.Len())
	return core.OK(true)
}

// AssignCharacter puts a character into a unit slot. An occupied general
// slot is only replaced when replace is set.
func (s *Service) AssignCharacter(unitID, characterID string, role core.Role, replace bool) core.Result {
	a, err := s.owner(unitID)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(a.PlayerID())
	res := s.battle.AssignCharacter(unitID, characterID, role, replace)
	if res.Success {
		u, _ := res.Unit()
		s.commit(a, OpAssign, u)
	}
	return res
}

// RemoveCharacter clears a unit slot.
func (s *Service) RemoveCharacter(unitID string, role core.Role, characterID string) core.Result {
	a, err := s.owner(unitID)
	if err != nil {
		return core.Fail(err)
	}
	s.saveHistoryFor(a.PlayerID())
	res := s.battle.RemoveCharacter(unitID, role, characterID)
	if res.Success {
		u, _ := res.Unit()
		s.commit(a, OpUnassign, u)
	}
	return res
}

func (s *Service) commitIDs(a *army.Army, op string, ids []string) {
	if len(ids) == 0 {
		return
	}
	s.persist(a)
	if s.deps.Observer == nil {
		return
	}
	for _, id := range ids {
		if u, ok := a.Unit(id); ok {
			s.deps.Observer.Commit(a.PlayerID(), op, u, a.UsedPoints())
		}
	}
}

func (s *Service) commit(a *army.Army, op string, u core.Unit) {
	s.persist(a)
	if s.deps.Observer != nil {
		s.deps.Observer.Commit(a.PlayerID(), op, u, a.UsedPoints())
	}
}

// persist saves a. A failed save is logged; the in-memory army stays authoritative.
func (s *Service) persist(a *army.Army) {
	if s.deps.Backend == nil {
		return
	}
	if err := s.deps.Backend.Save(a.Record()); err != nil {
		s.logger.Error("Failed to save army", "player", a.PlayerID(), "error", err)
	}
}

// Close saves every army and closes the backend.
func (s *Service) Close() error {
	if s.deps.Backend == nil {
		return nil
	}
	var errs []error
	for _, p := range s.battle.Players() {
		a, _ := s.battle.Army(p)
		if err := s.deps.Backend.Save(a.Record()); err != nil {
			errs = append(errs, fmt.Errorf("saving army of %s: %w", p, err))
		}
	}
	if err := s.deps.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	return errors.Join(errs...)
}
