// Package convert maps persisted gorm rows to and from core army records.
package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/tmoosting/tactical-tangle/internal/model"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func pointToPosition(p geom.Point) core.Position {
	c, ok := p.Coordinates()
	if !ok {
		return core.Position{}
	}
	return core.Position{X: c.XY.X, Y: c.XY.Y}
}

// ArmyUnitToCore fails on an unreadable soldier list.
func ArmyUnitToCore(u model.ArmyUnit) (core.Unit, error) {
	soldiers := []string{}
	if len(u.Soldiers) > 0 {
		if err := json.Unmarshal(u.Soldiers, &soldiers); err != nil {
			return core.Unit{}, fmt.Errorf("unit %s: bad soldier list: %w", u.UnitID, err)
		}
		if soldiers == nil {
			soldiers = []string{}
		}
	}
	return core.Unit{
		ID:           u.UnitID,
		Type:         core.UnitType(u.Type),
		Name:         u.Name,
		SoldierCount: u.SoldierCount,
		Formation:    core.Formation{Width: u.FormationWidth, Depth: u.FormationDepth},
		Position:     pointToPosition(u.Position),
		Cost:         u.Cost,
		General:      u.General,
		Soldiers:     soldiers,
		Hierarchy:    u.Hierarchy,
	}, nil
}

// ArmyToCore converts a loaded army row, ordering units by Ordinal.
func ArmyToCore(a model.Army) (core.ArmyRecord, error) {
	rows := make([]model.ArmyUnit, len(a.Units))
	copy(rows, a.Units)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Ordinal < rows[j].Ordinal })

	units := make([]core.Unit, 0, len(rows))
	for _, row := range rows {
		u, err := ArmyUnitToCore(row)
		if err != nil {
			return core.ArmyRecord{}, err
		}
		units = append(units, u)
	}

	var templates map[core.UnitType]core.Template
	if len(a.Templates) > 0 {
		if err := json.Unmarshal(a.Templates, &templates); err != nil {
			return core.ArmyRecord{}, fmt.Errorf("army %s: bad templates: %w", a.PlayerID, err)
		}
		if len(templates) == 0 {
			templates = nil
		}
	}

	return core.ArmyRecord{
		PlayerID:   a.PlayerID,
		Units:      units,
		MaxPoints:  a.MaxPoints,
		UsedPoints: a.UsedPoints,
		Templates:  templates,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}, nil
}
