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

type PronunciationAggregateDeps struct {
	BaseDeps
	States     progressrepo.PronunciationStateRepo
	HistoryCap int
}

type pronunciationAggregate struct {
	deps PronunciationAggregateDeps
}

func NewPronunciationAggregate(deps PronunciationAggregateDeps) domainagg.PronunciationAggregate {
	if deps.Log != nil {
		deps.Log = deps.Log.With("aggregate", "PronunciationAggregate")
	}
	return &pronunciationAggregate{deps: deps}
}

func (a *pronunciationAggregate) Contract() domainagg.Contract {
	return domainagg.PronunciationAggregateContract
}

func (a *pronunciationAggregate) RecomputePronunciation(ctx context.Context, in domainagg.RecomputePronunciationInput) (domainagg.RecomputePronunciationResult, error) {
	const op = "progress.pronunciation.recompute"
	var out domainagg.RecomputePronunciationResult

	if in.LearnerID == uuid.Nil {
		return out, MapError(op, ValidationError("learner_id is required"))
	}
	if in.At.IsZero() {
		in.At = time.Now().UTC()
	}

	err := executeWriteRetrying(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		row, err := a.deps.States.GetByLearner(dbc.Ctx, dbc.Tx, in.LearnerID)
		if err != nil {
			return err
		}
		if row == nil {
			row = &types.PronunciationState{LearnerID: in.LearnerID}
			created, err := a.deps.States.CreateIfAbsent(dbc.Ctx, dbc.Tx, row)
			if err != nil {
				return err
			}
			if !created {
				return ConflictError("pronunciation state created concurrently")
			}
		}

		prev, err := row.Snapshot()
		if err != nil {
			return InvariantError("pronunciation state is not decodable: " + err.Error())
		}
		if newerWatermark(row.SourceWatermark, in.Watermark) {
			out = domainagg.RecomputePronunciationResult{State: prev}
			return nil
		}

		next, appended := progress.ComputePronunciation(in.Scores, prev, in.At, a.deps.HistoryCap)

		var staged types.PronunciationState
		if err := staged.Apply(next); err != nil {
			return err
		}
		ok, err := a.deps.CASGuard.UpdateByVersion(dbc, staged.TableName(), row.ID, row.Version, map[string]any{
			"overall_score":          staged.OverallScore,
			"total_words_pronounced": staged.TotalWordsPronounced,
			"history":                staged.History,
			"source_watermark":       watermarkValue(in.Watermark),
			"updated_at":             time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "pronunciation state version changed"); err != nil {
			return err
		}
		out = domainagg.RecomputePronunciationResult{State: next, Appended: appended}
		return nil
	})
	if err != nil {
		return domainagg.RecomputePronunciationResult{}, err
	}
	return out, nil
}
