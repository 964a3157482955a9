package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/progress"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type CompletionRecordRepo = progress.CompletionRecordRepo
type ProgressSessionRepo = progress.ProgressSessionRepo
type StreakStateRepo = progress.StreakStateRepo
type ConfidenceStateRepo = progress.ConfidenceStateRepo
type PronunciationStateRepo = progress.PronunciationStateRepo
type PracticeUnitRepo = progress.PracticeUnitRepo
type UnitAssignmentRepo = progress.UnitAssignmentRepo

func NewCompletionRecordRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRecordRepo {
	return progress.NewCompletionRecordRepo(db, baseLog)
}

func NewProgressSessionRepo(db *gorm.DB, baseLog *logger.Logger) ProgressSessionRepo {
	return progress.NewProgressSessionRepo(db, baseLog)
}

func NewStreakStateRepo(db *gorm.DB, baseLog *logger.Logger) StreakStateRepo {
	return progress.NewStreakStateRepo(db, baseLog)
}

func NewConfidenceStateRepo(db *gorm.DB, baseLog *logger.Logger) ConfidenceStateRepo {
	return progress.NewConfidenceStateRepo(db, baseLog)
}

func NewPronunciationStateRepo(db *gorm.DB, baseLog *logger.Logger) PronunciationStateRepo {
	return progress.NewPronunciationStateRepo(db, baseLog)
}

func NewPracticeUnitRepo(db *gorm.DB, baseLog *logger.Logger) PracticeUnitRepo {
	return progress.NewPracticeUnitRepo(db, baseLog)
}

func NewUnitAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) UnitAssignmentRepo {
	return progress.NewUnitAssignmentRepo(db, baseLog)
}
