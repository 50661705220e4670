package sessions

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Rebuild replaces the stored session table with the given records. Each
// reporting run recomputes sessions from the full event history, so the
// table is rewritten wholesale rather than mutated in place.
func Rebuild(dbManager cartridge.DBManager, logger *slog.Logger, records []Record) error {
	db := dbManager.GetConnection()

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Record{}).Error; err != nil {
			return fmt.Errorf("failed to clear session records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild session records: %w", err)
	}

	logger.Info("Rebuilt session records", slog.Int("count", len(records)))
	return nil
}

// InRange loads stored session records whose first event falls in [from, to),
// ordered by first event time.
func InRange(db *gorm.DB, from, to time.Time) ([]Record, error) {
	var result []Record
	err := db.Where("first_event_time >= ? AND first_event_time < ?", from, to).
		Order("first_event_time ASC, session_id ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session records: %w", err)
	}
	return result, nil
}

// All loads the full stored session history ordered by first event time.
func All(db *gorm.DB) ([]Record, error) {
	var result []Record
	err := db.Order("first_event_time ASC, session_id ASC").Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session records: %w", err)
	}
	return result, nil
}
