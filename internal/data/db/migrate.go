package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureProgressIndexes(db)
}

// EnsureProgressIndexes creates indexes gorm tags cannot express portably.
// The same statements run on postgres and sqlite.
func EnsureProgressIndexes(db *gorm.DB) error {
	// One first completion per learner, unit and UTC day; replays are unconstrained.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_completion_first
		ON completion_record (learner_id, unit_id, day_key)
		WHERE is_first_completion = true;
	`).Error; err != nil {
		return fmt.Errorf("create idx_completion_first: %w", err)
	}

	// Latest first completion per learner (recompute watermark).
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_completion_first_learner_time
		ON completion_record (learner_id, completed_at)
		WHERE is_first_completion = true;
	`).Error; err != nil {
		return fmt.Errorf("create idx_completion_first_learner_time: %w", err)
	}

	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating progress tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
