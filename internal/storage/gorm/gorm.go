// Package gormstorage implements the army persistence shared by the SQL
// backends. Owners of the *gorm.DB close it; Close here is a no-op.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/tmoosting/tactical-tangle/internal/model"
	"github.com/tmoosting/tactical-tangle/internal/model/convert"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

type Backend struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func New(db *gorm.DB, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{db: db, log: log, now: time.Now}
}

// DB exposes the connection for dumps and tests.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the army tables.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) Load(playerID string) (core.ArmyRecord, error) {
	var row model.Army
	err := b.db.Preload("Units").Where("player_id = ?", playerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ArmyRecord{}, core.ErrNoRecord
	}
	if err != nil {
		return core.ArmyRecord{}, fmt.Errorf("failed to load army %s: %w", playerID, err)
	}
	return convert.ArmyToCore(row)
}

// Save upserts the army row and rewrites its units in one transaction.
func (b *Backend) Save(rec core.ArmyRecord) error {
	if rec.PlayerID == "" {
		return errors.New("army record has no player id")
	}
	row, err := convert.CoreToArmy(rec)
	if err != nil {
		return err
	}
	units := row.Units
	row.Units = nil
	row.UpdatedAt = b.now()

	start := time.Now()
	err = b.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Army
		err := tx.Where("player_id = ?", rec.PlayerID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if row.CreatedAt.IsZero() {
				row.CreatedAt = row.UpdatedAt
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create army: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up army: %w", err)
		default:
			row.ID = existing.ID
			if err := tx.Model(&model.Army{}).Where("id = ?", existing.ID).Updates(map[string]any{
				"max_points":  row.MaxPoints,
				"used_points": row.UsedPoints,
				"templates":   row.Templates,
				"updated_at":  row.UpdatedAt,
			}).Error; err != nil {
				return fmt.Errorf("failed to update army: %w", err)
			}
			if err := tx.Where("army_id = ?", existing.ID).Delete(&model.ArmyUnit{}).Error; err != nil {
				return fmt.Errorf("failed to clear units: %w", err)
			}
		}

		if len(units) == 0 {
			return nil
		}
		for i := range units {
			units[i].ArmyID = row.ID
		}
		if err := tx.Create(&units).Error; err != nil {
			return fmt.Errorf("failed to write units: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.log.Debug("army saved", "player", rec.PlayerID, "units", len(units), "duration", time.Since(start))
	return nil
}

// Players returns saved player ids in ascending order.
func (b *Backend) Players() ([]string, error) {
	var ids []string
	if err := b.db.Model(&model.Army{}).Order("player_id").Pluck("player_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list armies: %w", err)
	}
	return ids, nil
}
