package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
)

// StreakAggregate owns streak transitions for one learner at a time.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeConflict, CodeRetryable, CodeInternal.
type StreakAggregate interface {
	Aggregate

	// RecordQualifyingCompletion applies one first completion to the learner's streak row,
	// creating the row on first use.
	RecordQualifyingCompletion(ctx context.Context, in RecordQualifyingCompletionInput) (RecordQualifyingCompletionResult, error)
}

type RecordQualifyingCompletionInput struct {
	LearnerID   uuid.UUID
	Day         string
	Score       float64
	CompletedAt time.Time
}

type RecordQualifyingCompletionResult struct {
	Streak     progress.StreakSnapshot
	Transition progress.StreakTransition
	NewBadge   *progress.Badge
}

// StreakUpdated is false for a same-day event.
func (r RecordQualifyingCompletionResult) StreakUpdated() bool {
	return progress.StreakOutcome{Transition: r.Transition}.Updated()
}

// ConfidenceAggregate stores confidence recomputes.
type ConfidenceAggregate interface {
	Aggregate

	RecomputeConfidence(ctx context.Context, in RecomputeConfidenceInput) (RecomputeConfidenceResult, error)
}

type RecomputeConfidenceInput struct {
	LearnerID      uuid.UUID
	AssignedUnits  int
	CompletedUnits int
	Attempts       []progress.ConfidenceAttempt
	// Watermark is the newest first-completion instant the inputs were read up to.
	Watermark *time.Time
	At        time.Time
}

type RecomputeConfidenceResult struct {
	State    progress.ConfidenceSnapshot
	Appended bool
}

type PronunciationAggregate interface {
	Aggregate

	RecomputePronunciation(ctx context.Context, in RecomputePronunciationInput) (RecomputePronunciationResult, error)
}

type RecomputePronunciationInput struct {
	LearnerID uuid.UUID
	Scores    []float64
	Watermark *time.Time
	At        time.Time
}

type RecomputePronunciationResult struct {
	State    progress.PronunciationSnapshot
	Appended bool
}
