package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	progressrepo "github.com/yungbote/lingua-progress-backend/internal/data/repos/progress"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/platform/dbctx"
)

type StreakAggregateDeps struct {
	BaseDeps
	Streaks    progressrepo.StreakStateRepo
	Milestones []progress.Milestone
}

type streakAggregate struct {
	deps StreakAggregateDeps
}

func NewStreakAggregate(deps StreakAggregateDeps) domainagg.StreakAggregate {
	if deps.Log != nil {
		deps.Log = deps.Log.With("aggregate", "StreakAggregate")
	}
	return &streakAggregate{deps: deps}
}

func (a *streakAggregate) Contract() domainagg.Contract {
	return domainagg.StreakAggregateContract
}

func (a *streakAggregate) RecordQualifyingCompletion(ctx context.Context, in domainagg.RecordQualifyingCompletionInput) (domainagg.RecordQualifyingCompletionResult, error) {
	const op = "progress.streak.record_qualifying_completion"
	var out domainagg.RecordQualifyingCompletionResult

	if in.LearnerID == uuid.Nil {
		return out, MapError(op, ValidationError("learner_id is required"))
	}
	if _, err := progress.ParseDayKey(in.Day); err != nil {
		return out, MapError(op, ValidationError("day must be YYYY-MM-DD"))
	}
	if in.CompletedAt.IsZero() {
		in.CompletedAt = time.Now().UTC()
	}

	err := executeWriteRetrying(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Streaks.GetByLearner(dbc.Ctx, dbc.Tx, in.LearnerID)
		if err != nil {
			return err
		}
		if row == nil {
			row = &types.StreakState{LearnerID: in.LearnerID}
			created, err := a.deps.Streaks.CreateIfAbsent(dbc.Ctx, dbc.Tx, row)
			if err != nil {
				return err
			}
			if !created {
				return ConflictError("streak state created concurrently")
			}
		}

		snap, err := row.Snapshot()
		if err != nil {
			return InvariantError("streak state is not decodable: " + err.Error())
		}
		next, outcome, err := progress.AdvanceStreak(snap, progress.StreakEvent{
			Day:   in.Day,
			Score: in.Score,
			At:    in.CompletedAt,
		}, a.deps.Milestones)
		if err != nil {
			return ValidationError(err.Error())
		}

		var staged types.StreakState
		if err := staged.Apply(next); err != nil {
			return err
		}
		ok, err := a.deps.CASGuard.UpdateByVersion(dbc, staged.TableName(), row.ID, row.Version, map[string]any{
			"current_streak":     staged.CurrentStreak,
			"streak_start_date":  staged.StreakStartDate,
			"last_activity_date": staged.LastActivityDate,
			"longest_streak":     staged.LongestStreak,
			"badges":             staged.Badges,
			"weekly_activity":    staged.WeeklyActivity,
			"updated_at":         time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "streak state version changed"); err != nil {
			return err
		}

		out = domainagg.RecordQualifyingCompletionResult{
			Streak:     next,
			Transition: outcome.Transition,
			NewBadge:   outcome.HeadlineBadge(),
		}
		return nil
	})
	if err != nil {
		return domainagg.RecordQualifyingCompletionResult{}, err
	}
	return out, nil
}
