package convert

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/tmoosting/tactical-tangle/internal/model"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func positionToPoint(p core.Position) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Y}, Type: geom.DimXY})
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid position %v: %w", p, err)
	}
	return pt, nil
}

func soldiersToJSON(ids []string) datatypes.JSON {
	if len(ids) == 0 {
		return datatypes.JSON("[]")
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToArmyUnit converts a unit at list position ordinal.
func CoreToArmyUnit(u core.Unit, ordinal int) (model.ArmyUnit, error) {
	pos, err := positionToPoint(u.Position)
	if err != nil {
		return model.ArmyUnit{}, fmt.Errorf("unit %s: %w", u.ID, err)
	}
	return model.ArmyUnit{
		UnitID:         u.ID,
		Ordinal:        ordinal,
		Type:           string(u.Type),
		Name:           u.Name,
		SoldierCount:   u.SoldierCount,
		FormationWidth: u.Formation.Width,
		FormationDepth: u.Formation.Depth,
		Position:       pos,
		Cost:           u.Cost,
		General:        u.General,
		Soldiers:       soldiersToJSON(u.Soldiers),
		Hierarchy:      u.Hierarchy,
	}, nil
}

// CoreToArmy converts a record to its row plus ordered unit rows.
// ID and ArmyID are left for the caller to fill.
func CoreToArmy(r core.ArmyRecord) (model.Army, error) {
	templates := datatypes.JSON("{}")
	if len(r.Templates) > 0 {
		data, err := json.Marshal(r.Templates)
		if err != nil {
			return model.Army{}, fmt.Errorf("failed to marshal templates: %w", err)
		}
		templates = datatypes.JSON(data)
	}

	units := make([]model.ArmyUnit, len(r.Units))
	for i, u := range r.Units {
		unit, err := CoreToArmyUnit(u, i)
		if err != nil {
			return model.Army{}, err
		}
		units[i] = unit
	}

	return model.Army{
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		PlayerID:   r.PlayerID,
		MaxPoints:  r.MaxPoints,
		UsedPoints: r.UsedPoints,
		Templates:  templates,
		Units:      units,
	}, nil
}
