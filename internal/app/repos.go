package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type Repos struct {
	Completions   repos.CompletionRecordRepo
	Sessions      repos.ProgressSessionRepo
	Streaks       repos.StreakStateRepo
	Confidence    repos.ConfidenceStateRepo
	Pronunciation repos.PronunciationStateRepo
	Units         repos.PracticeUnitRepo
	Assignments   repos.UnitAssignmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Completions:   repos.NewCompletionRecordRepo(db, log),
		Sessions:      repos.NewProgressSessionRepo(db, log),
		Streaks:       repos.NewStreakStateRepo(db, log),
		Confidence:    repos.NewConfidenceStateRepo(db, log),
		Pronunciation: repos.NewPronunciationStateRepo(db, log),
		Units:         repos.NewPracticeUnitRepo(db, log),
		Assignments:   repos.NewUnitAssignmentRepo(db, log),
	}
}
