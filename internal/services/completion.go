package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

const maxUnitIDLen = 128

type CompletionInput struct {
	LearnerID        uuid.UUID
	UnitID           string
	Score            float64
	CorrectCount     int
	TotalCount       int
	TimeSpentSeconds int
	Answers          []progress.Answer
}

type BadgeView struct {
	BadgeID   string `json:"badgeId"`
	BadgeName string `json:"badgeName"`
	Milestone int    `json:"milestone"`
}

type CompletionResult struct {
	StreakUpdated         bool       `json:"streakUpdated"`
	BadgeUnlocked         *BadgeView `json:"badgeUnlocked"`
	AlreadyCompletedToday bool       `json:"alreadyCompletedToday"`
	CurrentStreak         int        `json:"currentStreak"`
}

type CompletionService interface {
	Submit(ctx context.Context, in CompletionInput) (*CompletionResult, error)
}

type CompletionServiceDeps struct {
	Log          *logger.Logger
	Completions  repos.CompletionRecordRepo
	StreakStates repos.StreakStateRepo
	Streaks      domainagg.StreakAggregate
	Catalog      UnitCatalog
	Scheduler    RecomputeScheduler
	Policy       progress.Policy
	Metrics      *observability.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

type completionService struct {
	deps CompletionServiceDeps
	log  *logger.Logger
}

func NewCompletionService(deps CompletionServiceDeps) CompletionService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &completionService{deps: deps, log: deps.Log.With("service", "CompletionService")}
}

func (s *completionService) Submit(ctx context.Context, in CompletionInput) (out *CompletionResult, err error) {
	const op = "progress.completion.submit"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("unit_id", in.UnitID))
	defer func() { observability.EndSpan(span, err) }()

	in.UnitID = strings.TrimSpace(in.UnitID)
	if err := s.validate(op, in); err != nil {
		s.deps.Metrics.IncCompletion(observability.CompletionRejected)
		return nil, err
	}
	unit, err := s.deps.Catalog.Lookup(ctx, in.UnitID)
	if err != nil {
		return nil, fmt.Errorf("lookup unit: %w", err)
	}
	if unit == nil {
		s.deps.Metrics.IncCompletion(observability.CompletionRejected)
		return nil, domainagg.NotFound(op, "unknown unit %q", in.UnitID)
	}

	now := s.deps.Now().UTC()
	day := progress.DayKey(now)
	answers, err := progress.EncodeAnswers(in.Answers)
	if err != nil {
		return nil, domainagg.Validation(op, "answers: %v", err)
	}
	row := &types.CompletionRecord{
		ID:                uuid.New(),
		LearnerID:         in.LearnerID,
		UnitID:            in.UnitID,
		DayKey:            day,
		Score:             in.Score,
		CorrectCount:      in.CorrectCount,
		TotalCount:        in.TotalCount,
		TimeSpentSeconds:  in.TimeSpentSeconds,
		Answers:           answers,
		IsFirstCompletion: true,
		CompletedAt:       now,
		CreatedAt:         now,
	}

	won, err := s.deps.Completions.InsertFirst(ctx, nil, row)
	if err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}
	if !won {
		row.ID = uuid.New()
		row.IsFirstCompletion = false
		if err := s.deps.Completions.InsertReplay(ctx, nil, row); err != nil {
			return nil, fmt.Errorf("record replay: %w", err)
		}
		s.deps.Metrics.IncCompletion(observability.CompletionReplay)
		span.SetAttributes(attribute.Bool("replay", true))
		return &CompletionResult{
			AlreadyCompletedToday: true,
			CurrentStreak:         s.storedStreak(ctx, in.LearnerID, day),
		}, nil
	}
	s.deps.Metrics.IncCompletion(observability.CompletionFirst)

	out = &CompletionResult{}
	res, streakErr := s.deps.Streaks.RecordQualifyingCompletion(ctx, domainagg.RecordQualifyingCompletionInput{
		LearnerID:   in.LearnerID,
		Day:         day,
		Score:       in.Score,
		CompletedAt: now,
	})
	if streakErr != nil {
		// The completion stands; the streak heals on the next qualifying event.
		s.log.Error("streak update failed after completion", "learner_id", in.LearnerID, "unit_id", in.UnitID, "error", streakErr)
		out.CurrentStreak = s.storedStreak(ctx, in.LearnerID, day)
	} else {
		out.StreakUpdated = res.StreakUpdated()
		out.CurrentStreak = res.Streak.CurrentStreak
		if b := res.NewBadge; b != nil {
			out.BadgeUnlocked = &BadgeView{BadgeID: b.BadgeID, BadgeName: b.Name, Milestone: b.Milestone}
			s.deps.Metrics.IncBadgeUnlock(b.BadgeID)
			s.log.Info("badge unlocked", "learner_id", in.LearnerID, "badge_id", b.BadgeID)
		}
	}

	if s.deps.Scheduler != nil {
		s.deps.Scheduler.Schedule(ctx, in.LearnerID, TriggerCompletion)
	}
	return out, nil
}

func (s *completionService) validate(op string, in CompletionInput) error {
	switch {
	case in.LearnerID == uuid.Nil:
		return domainagg.Validation(op, "learner id is required")
	case in.UnitID == "":
		return domainagg.Validation(op, "unit id is required")
	case len(in.UnitID) > maxUnitIDLen:
		return domainagg.Validation(op, "unit id longer than %d characters", maxUnitIDLen)
	case in.Score < 0 || in.Score > 100:
		return domainagg.Validation(op, "score must be within 0..100")
	case in.CorrectCount < 0 || in.TotalCount < 0 || in.CorrectCount > in.TotalCount:
		return domainagg.Validation(op, "correct answers must be within 0..total questions")
	case in.TimeSpentSeconds < 0:
		return domainagg.Validation(op, "time spent must be >= 0")
	}
	if in.Score < s.deps.Policy.PassingScore {
		return apierr.New(http.StatusBadRequest, "below_passing_score",
			domainagg.Validation(op, "score %.1f is below the passing score %.1f", in.Score, s.deps.Policy.PassingScore))
	}
	return nil
}

// storedStreak reads the displayed streak without failing the request.
func (s *completionService) storedStreak(ctx context.Context, learnerID uuid.UUID, today string) int {
	row, err := s.deps.StreakStates.GetByLearner(ctx, nil, learnerID)
	if err != nil || row == nil {
		return 0
	}
	snap, err := row.Snapshot()
	if err != nil {
		return row.CurrentStreak
	}
	return progress.EffectiveStreak(snap, today)
}
