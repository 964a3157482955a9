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

type ConfidenceAggregateDeps struct {
	BaseDeps
	States progressrepo.ConfidenceStateRepo
	Policy progress.Policy
}

type confidenceAggregate struct {
	deps ConfidenceAggregateDeps
}

func NewConfidenceAggregate(deps ConfidenceAggregateDeps) domainagg.ConfidenceAggregate {
	if deps.Log != nil {
		deps.Log = deps.Log.With("aggregate", "ConfidenceAggregate")
	}
	return &confidenceAggregate{deps: deps}
}

func (a *confidenceAggregate) Contract() domainagg.Contract {
	return domainagg.ConfidenceAggregateContract
}

func (a *confidenceAggregate) RecomputeConfidence(ctx context.Context, in domainagg.RecomputeConfidenceInput) (domainagg.RecomputeConfidenceResult, error) {
	const op = "progress.confidence.recompute"
	var out domainagg.RecomputeConfidenceResult

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
			row = &types.ConfidenceState{LearnerID: in.LearnerID}
			created, err := a.deps.States.CreateIfAbsent(dbc.Ctx, dbc.Tx, row)
			if err != nil {
				return err
			}
			if !created {
				return ConflictError("confidence state created concurrently")
			}
		}

		prev, err := row.Snapshot()
		if err != nil {
			return InvariantError("confidence state is not decodable: " + err.Error())
		}
		// A recompute from older inputs than the stored one must not overwrite it.
		if newerWatermark(row.SourceWatermark, in.Watermark) {
			out = domainagg.RecomputeConfidenceResult{State: prev}
			return nil
		}

		next, appended := progress.ComputeConfidence(progress.ConfidenceInput{
			AssignedUnits:  in.AssignedUnits,
			CompletedUnits: in.CompletedUnits,
			Attempts:       in.Attempts,
			At:             in.At,
			SameSource:     sameWatermark(row.SourceWatermark, in.Watermark),
		}, prev, a.deps.Policy)

		var staged types.ConfidenceState
		if err := staged.Apply(next); err != nil {
			return err
		}
		ok, err := a.deps.CASGuard.UpdateByVersion(dbc, staged.TableName(), row.ID, row.Version, map[string]any{
			"assigned_units":          staged.AssignedUnits,
			"completed_units":         staged.CompletedUnits,
			"completion_rate":         staged.CompletionRate,
			"completion_contribution": staged.CompletionContribution,
			"quality_score":           staged.QualityScore,
			"quality_contribution":    staged.QualityContribution,
			"pronunciation_average":   staged.PronunciationAverage,
			"correctness_average":     staged.CorrectnessAverage,
			"confidence_score":        staged.ConfidenceScore,
			"label":                   staged.Label,
			"trend":                   string(staged.Trend),
			"history":                 staged.History,
			"source_watermark":        watermarkValue(in.Watermark),
			"updated_at":              time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "confidence state version changed"); err != nil {
			return err
		}
		out = domainagg.RecomputeConfidenceResult{State: next, Appended: appended}
		return nil
	})
	if err != nil {
		return domainagg.RecomputeConfidenceResult{}, err
	}
	return out, nil
}

// newerWatermark reports whether stored was computed from strictly newer inputs than incoming.
func newerWatermark(stored, incoming *time.Time) bool {
	if stored == nil {
		return false
	}
	if incoming == nil {
		return true
	}
	return stored.After(*incoming)
}

func sameWatermark(stored, incoming *time.Time) bool {
	if stored == nil || incoming == nil {
		return stored == nil && incoming == nil
	}
	return stored.Equal(*incoming)
}

func watermarkValue(w *time.Time) any {
	if w == nil {
		return nil
	}
	return w.UTC()
}
