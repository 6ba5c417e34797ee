// Package army holds one player's ordered set of units and enforces the
// per-army rules: type bounds, cost, the unit cap and non-overlap.
package army

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tmoosting/tactical-tangle/internal/geometry"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

const (
	DefaultMaxPoints = 1000
	DefaultMaxUnits  = 40

	// spacing between units placed next to each other by duplicate and align
	gap = 10.0
)

// DefaultSurface is the editing area used when Options leaves it empty.
var DefaultSurface = geometry.Surface{W: 1600, H: 900}

// IDGenerator returns a new globally unique unit id on every call.
type IDGenerator func() string

// Options configures a new Army. Zero values fall back to the defaults.
type Options struct {
	PlayerID  string
	MaxPoints int
	MaxUnits  int
	Surface   geometry.Surface
	NewID     IDGenerator
}

func (o Options) withDefaults() Options {
	if o.MaxPoints <= 0 {
		o.MaxPoints = DefaultMaxPoints
	}
	if o.MaxUnits <= 0 {
		o.MaxUnits = DefaultMaxUnits
	}
	if o.Surface.W <= 0 || o.Surface.H <= 0 {
		o.Surface = DefaultSurface
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// ShapeCopy reports which units received a copied formation.
type ShapeCopy struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
}

// Alignment reports which units were lined up.
type Alignment struct {
	Moved   []string `json:"moved"`
	Skipped []string `json:"skipped"`
}

// Army is one player's army. It is not safe for concurrent use.
type Army struct {
	playerID   string
	units      []core.Unit
	usedPoints int
	maxPoints  int
	maxUnits   int
	surface    geometry.Surface
	templates  map[core.UnitType]core.Template
	newID      IDGenerator
	createdAt  time.Time
}

// New creates an empty army.
func New(opts Options) *Army {
	opts = opts.withDefaults()
	return &Army{
		playerID:  opts.PlayerID,
		units:     []core.Unit{},
		maxPoints: opts.MaxPoints,
		maxUnits:  opts.MaxUnits,
		surface:   opts.Surface,
		templates: make(map[core.UnitType]core.Template),
		newID:     opts.NewID,
		createdAt: time.Now().UTC(),
	}
}

// FromRecord rebuilds an army from its persisted form. A record that breaks
// an army rule is rejected so the caller can fall back to a fresh army.
func FromRecord(rec core.ArmyRecord, opts Options) (*Army, error) {
	if rec.PlayerID != "" {
		opts.PlayerID = rec.PlayerID
	}
	if rec.MaxPoints > 0 {
		opts.MaxPoints = rec.MaxPoints
	}
	a := New(opts)
	if !rec.CreatedAt.IsZero() {
		a.createdAt = rec.CreatedAt
	}

	seen := make(map[string]struct{}, len(rec.Units))
	for _, u := range rec.Units {
		spec, ok := core.Spec(u.Type)
		if !ok {
			return nil, fmt.Errorf("unit %q: unknown type %q", u.ID, u.Type)
		}
		if u.ID == "" {
			return nil, fmt.Errorf("unit with empty id")
		}
		if _, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("duplicate unit id %q", u.ID)
		}
		seen[u.ID] = struct{}{}
		if !spec.InBounds(u.SoldierCount) {
			return nil, fmt.Errorf("unit %q: soldier count %d outside [%d, %d]", u.ID, u.SoldierCount, spec.MinSize, spec.MaxSize)
		}
		if u.Formation.Width < 1 || u.Formation.Depth < 1 {
			return nil, fmt.Errorf("unit %q: invalid formation %dx%d", u.ID, u.Formation.Width, u.Formation.Depth)
		}
		if p := geometry.ValidateFootprint(a.units, u.ID, geometry.RectOf(u)); !p.Valid {
			return nil, fmt.Errorf("unit %q: %s", u.ID, p.Error)
		}
		c := u.Clone()
		c.Cost = c.SoldierCount * spec.CostPerSoldier
		a.units = append(a.units, c)
	}
	if len(a.units) > a.maxUnits {
		return nil, fmt.Errorf("%d units exceed the cap of %d", len(a.units), a.maxUnits)
	}
	for t, tpl := range rec.Templates {
		if spec, ok := core.Spec(t); ok && spec.InBounds(tpl.SoldierCount) {
			a.templates[t] = tpl
		}
	}
	a.recompute()
	return a, nil
}

// Record returns the persisted form of the army.
func (a *Army) Record() core.ArmyRecord {
	rec := core.ArmyRecord{
		PlayerID:   a.playerID,
		Units:      a.Units(),
		MaxPoints:  a.maxPoints,
		UsedPoints: a.usedPoints,
		Templates:  make(map[core.UnitType]core.Template, len(a.templates)),
		CreatedAt:  a.createdAt,
		UpdatedAt:  time.Now().UTC(),
	}
	for t, tpl := range a.templates {
		rec.Templates[t] = tpl
	}
	return rec
}

func (a *Army) PlayerID() string { return a.playerID }
func (a *Army) MaxPoints() int { return a.maxPoints }
func (a *Army) UsedPoints() int { return a.usedPoints }
func (a *Army) Len() int { return len(a.units) }
func (a *Army) Surface() geometry.Surface { return a.surface }

// Units returns a deep copy of the units in creation order.
func (a *Army) Units() []core.Unit {
	out := make([]core.Unit, len(a.units))
	for i, u := range a.units {
		out[i] = u.Clone()
	}
	return out
}

// Unit returns a copy of the unit with the given id.
func (a *Army) Unit(id string) (core.Unit, bool) {
	if i := a.indexOf(id); i >= 0 {
		return a.units[i].Clone(), true
	}
	return core.Unit{}, false
}

// Template returns the spawn default for t, falling back to the type defaults.
func (a *Army) Template(t core.UnitType) (core.Template, bool) {
	if tpl, ok := a.templates[t]; ok {
		return tpl, true
	}
	spec, ok := core.Spec(t)
	if !ok {
		return core.Template{}, false
	}
	return core.Template{
		SoldierCount: spec.DefaultSize,
		Formation:    geometry.DefaultFormationFor(spec.DefaultSize, t),
	}, true
}

// CreateUnit spawns a unit of type t on the first free grid slot.
func (a *Army) CreateUnit(t core.UnitType) core.Result {
	spec, ok := core.Spec(t)
	if !ok {
		return core.Fail(core.ValidationError("unknown unit type %q", t))
	}
	if len(a.units) >= a.maxUnits {
		return core.Fail(core.LimitError("army already has the maximum of %d units", a.maxUnits))
	}

	tpl, _ := a.Template(t)
	u := core.Unit{
		ID:           a.newID(),
		Type:         t,
		Name:         fmt.Sprintf("%s %d", spec.DisplayName, a.countType(t)+1),
		SoldierCount: tpl.SoldierCount,
		Formation:    tpl.Formation,
		Cost:         tpl.SoldierCount * spec.CostPerSoldier,
		Soldiers:     []string{},
		Hierarchy:    0,
	}

	pos, ok := a.spawnPosition(u)
	if !ok {
		return core.Fail(core.ValidationError("no free placement"))
	}
	u.Position = pos

	a.units = append(a.units, u)
	a.recompute()
	return core.OK(u.Clone())
}

// UpdateUnit applies patch to the unit with the given id. On failure the
// unit is left unchanged.
func (a *Army) UpdateUnit(id string, patch core.UnitPatch) core.Result {
	i := a.indexOf(id)
	if i < 0 {
		return core.Fail(core.NotFoundError("unit %q not found", id))
	}
	u := a.units[i].Clone()
	spec, _ := core.Spec(u.Type)

	if patch.SoldierCount != nil {
		n := *patch.SoldierCount
		if !spec.InBounds(n) {
			return core.Fail(core.ValidationError("%s must have between %d and %d soldiers, got %d",
				spec.DisplayName, spec.MinSize, spec.MaxSize, n))
		}
		u.SoldierCount = n
		u.Cost = n * spec.CostPerSoldier
		if patch.Formation == nil {
			u.Formation = geometry.DefaultFormationFor(n, u.Type)
		}
	}
	if patch.Formation != nil {
		f := *patch.Formation
		if f.Width < 1 || f.Depth < 1 {
			return core.Fail(core.ValidationError("invalid formation %dx%d", f.Width, f.Depth))
		}
		u.Formation = f
	}
	if patch.Position != nil {
		u.Position = *patch.Position
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.General != nil {
		u.General = *patch.General
	}
	if patch.SetSoldiers {
		u.Soldiers = slices.Clone(patch.Soldiers)
		if u.Soldiers == nil {
			u.Soldiers = []string{}
		}
	}
	if patch.Hierarchy != nil {
		u.Hierarchy = *patch.Hierarchy
	}

	if p := geometry.ValidateFootprint(a.units, id, geometry.RectOf(u)); !p.Valid {
		return core.Fail(core.ValidationError("%s", p.Error))
	}

	a.units[i] = u
	a.recompute()
	return core.OK(u.Clone())
}

// RemoveUnit deletes the unit with the given id.
func (a *Army) RemoveUnit(id string) core.Result {
	i := a.indexOf(id)
	if i < 0 {
		return core.Fail(core.NotFoundError("unit %q not found", id))
	}
	removed := a.units[i]
	a.units = slices.Delete(a.units, i, i+1)
	a.recompute()
	return core.OK(removed)
}

// DuplicateUnit clones a unit next to the original. Characters are not copied.
func (a *Army) DuplicateUnit(id string) core.Result {
	i := a.indexOf(id)
	if i < 0 {
		return core.Fail(core.NotFoundError("unit %q not found", id))
	}
	if len(a.units) >= a.maxUnits {
		return core.Fail(core.LimitError("army already has the maximum of %d units", a.maxUnits))
	}

	src := a.units[i]
	dup := src.Clone()
	dup.ID = a.newID()
	dup.Name = src.Name + " (copy)"
	dup.General = ""
	dup.Soldiers = []string{}

	pos, ok := a.duplicatePosition(src)
	if !ok {
		return core.Fail(core.ValidationError("no free placement"))
	}
	dup.Position = pos

	a.units = append(a.units, dup)
	a.recompute()
	return core.OK(dup.Clone())
}

// ValidatePlacement checks whether the unit could sit at pos.
func (a *Army) ValidatePlacement(id string, pos core.Position) geometry.Placement {
	return geometry.ValidatePlacement(a.units, id, pos)
}

// ValidateFootprint checks an explicit rectangle for the unit.
func (a *Army) ValidateFootprint(id string, r core.Rect) geometry.Placement {
	if a.indexOf(id) < 0 {
		return geometry.Placement{Valid: false, Error: "unit not found"}
	}
	return geometry.ValidateFootprint(a.units, id, r)
}

// CopyShapeToType gives every other unit of the same type the source's
// formation and soldier count. Units that would then overlap are skipped.
func (a *Army) CopyShapeToType(id string) core.Result {
	i := a.indexOf(id)
	if i < 0 {
		return core.Fail(core.NotFoundError("unit %q not found", id))
	}
	src := a.units[i]
	res := ShapeCopy{Applied: []string{}, Skipped: []string{}}

	for j := range a.units {
		u := a.units[j]
		if u.ID == src.ID || u.Type != src.Type {
			continue
		}
		u.Formation = src.Formation
		u.SoldierCount = src.SoldierCount
		u.Cost = src.Cost
		if p := geometry.ValidateFootprint(a.units, u.ID, geometry.RectOf(u)); !p.Valid {
			res.Skipped = append(res.Skipped, u.ID)
			continue
		}
		a.units[j] = u
		res.Applied = append(res.Applied, u.ID)
	}

	a.recompute()
	return core.OK(res)
}

// AlignToRight lines up the other units of the same type to the right of
// the source, left to right, on the source's row.
func (a *Army) AlignToRight(id string) core.Result {
	i := a.indexOf(id)
	if i < 0 {
		return core.Fail(core.NotFoundError("unit %q not found", id))
	}
	src := a.units[i]
	srcRect := geometry.RectOf(src)
	res := Alignment{Moved: []string{}, Skipped: []string{}}

	var order []int
	for j, u := range a.units {
		if u.ID != src.ID && u.Type == src.Type {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(x, y int) bool {
		return a.units[order[x]].Position.X < a.units[order[y]].Position.X
	})

	x := srcRect.X + srcRect.W + gap
	for _, j := range order {
		u := a.units[j]
		r := geometry.RectAt(u, core.Position{X: x, Y: src.Position.Y})
		if !a.surface.Contains(r) || !geometry.ValidateFootprint(a.units, u.ID, r).Valid {
			res.Skipped = append(res.Skipped, u.ID)
			continue
		}
		a.units[j].Position = r.Origin()
		res.Moved = append(res.Moved, u.ID)
		x += r.W + gap
	}
	return core.OK(res)
}

// SetDefaultTemplate stores the unit's shape as the spawn default of its type.
func (a *Army) SetDefaultTemplate(id string) core.Result {
	i := a.indexOf(id)
	if i < 0 {
		return core.Fail(core.NotFoundError("unit %q not found", id))
	}
	u := a.units[i]
	tpl := core.Template{SoldierCount: u.SoldierCount, Formation: u.Formation}
	a.templates[u.Type] = tpl
	return core.OK(tpl)
}

// Snapshot returns a deep copy of the restorable state.
func (a *Army) Snapshot() core.ArmySnapshot {
	return core.ArmySnapshot{Units: a.units, UsedPoints: a.usedPoints}.Clone()
}

// Restore replaces the unit list and point total wholesale.
func (a *Army) Restore(s core.ArmySnapshot) {
	c := s.Clone()
	a.units = c.Units
	a.usedPoints = c.UsedPoints
}

// Stats summarises the army.
func (a *Army) Stats() core.ArmyStats {
	st := core.ArmyStats{
		UnitsByType: make(map[core.UnitType]int, len(core.AllUnitTypes())),
		TotalUnits:  len(a.units),
		UsedPoints:  a.usedPoints,
		MaxPoints:   a.maxPoints,
	}
	for _, t := range core.AllUnitTypes() {
		st.UnitsByType[t] = 0
	}
	for _, u := range a.units {
		st.UnitsByType[u.Type]++
		st.TotalSoldiers += u.SoldierCount
		if u.General != "" {
			st.GeneralsAssigned++
		}
		st.CharactersAssigned += len(u.CharacterIDs())
	}
	st.OverBudget = st.UsedPoints > st.MaxPoints
	return st
}

func (a *Army) indexOf(id string) int {
	return slices.IndexFunc(a.units, func(u core.Unit) bool { return u.ID == id })
}

func (a *Army) countType(t core.UnitType) int {
	n := 0
	for _, u := range a.units {
		if u.Type == t {
			n++
		}
	}
	return n
}

func (a *Army) recompute() {
	total := 0
	for _, u := range a.units {
		total += u.Cost
	}
	a.usedPoints = total
}
