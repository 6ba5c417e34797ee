package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels lists every table AutoMigrate manages.
var DatabaseModels = []interface{}{
	&Army{},
	&ArmyUnit{},
}

// Army is one player's roster of units. PlayerID is the natural key.
type Army struct {
	ID         uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	PlayerID   string         `json:"playerId" gorm:"size:64;uniqueIndex"`
	MaxPoints  int            `json:"maxPoints"`
	UsedPoints int            `json:"usedPoints"`
	Templates  datatypes.JSON `json:"templates"` // map[UnitType]Template
	Units      []ArmyUnit     `json:"units" gorm:"foreignKey:ArmyID;constraint:OnDelete:CASCADE"`
}

func (*Army) TableName() string {
	return "armies"
}

// ArmyUnit is one placed formation. Ordinal preserves list order, which
// decides spawn slots and render order.
type ArmyUnit struct {
	ID             uint           `json:"id" gorm:"primarykey;autoIncrement"`
	ArmyID         uint           `json:"armyId" gorm:"index"`
	UnitID         string         `json:"unitId" gorm:"size:64;index"`
	Ordinal        int            `json:"ordinal"`
	Type           string         `json:"type" gorm:"size:32"`
	Name           string         `json:"name" gorm:"size:128"`
	SoldierCount   int            `json:"soldierCount"`
	FormationWidth int            `json:"formationWidth"`
	FormationDepth int            `json:"formationDepth"`
	Position       geom.Point     `json:"position"` // top-left corner in surface pixels
	Cost           int            `json:"cost"`
	General        string         `json:"general" gorm:"size:64"`
	Soldiers       datatypes.JSON `json:"soldiers"` // []string
	Hierarchy      int            `json:"hierarchy"`
}

func (*ArmyUnit) TableName() string {
	return "army_units"
}
