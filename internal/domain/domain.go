package domain

import (
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
)

type CompletionRecord = progress.CompletionRecord
type ProgressSession = progress.ProgressSession
type StreakState = progress.StreakState
type ConfidenceState = progress.ConfidenceState
type PronunciationState = progress.PronunciationState
type PracticeUnit = progress.PracticeUnit
type UnitAssignment = progress.UnitAssignment

type Answer = progress.Answer
type WordScore = progress.WordScore
type Badge = progress.Badge
type WeeklySlot = progress.WeeklySlot
type ConfidenceHistoryEntry = progress.ConfidenceHistoryEntry
type PronunciationHistoryEntry = progress.PronunciationHistoryEntry

// Models lists every persisted table, in migration order.
func Models() []any {
	return []any{
		&PracticeUnit{},
		&UnitAssignment{},
		&CompletionRecord{},
		&ProgressSession{},
		&StreakState{},
		&ConfidenceState{},
		&PronunciationState{},
	}
}
