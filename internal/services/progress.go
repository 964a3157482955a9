package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type StreakView struct {
	CurrentStreak    int                   `json:"currentStreak"`
	LongestStreak    int                   `json:"longestStreak"`
	StreakStartDate  string                `json:"streakStartDate,omitempty"`
	LastActivityDate string                `json:"lastActivityDate,omitempty"`
	Badges           []progress.Badge      `json:"badges"`
	LastSevenDays    []progress.WeeklySlot `json:"lastSevenDays"`
	NextMilestone    *progress.Milestone   `json:"nextMilestone"`
}

type ConfidenceView struct {
	ConfidenceScore        float64                           `json:"confidenceScore"`
	Label                  string                            `json:"label"`
	Trend                  progress.Trend                    `json:"trend"`
	AssignedUnits          int                               `json:"assignedUnits"`
	CompletedUnits         int                               `json:"completedUnits"`
	CompletionRate         float64                           `json:"completionRate"`
	CompletionContribution float64                           `json:"completionContribution"`
	QualityScore           float64                           `json:"qualityScore"`
	QualityContribution    float64                           `json:"qualityContribution"`
	PronunciationAverage   float64                           `json:"pronunciationAverage"`
	CorrectnessAverage     float64                           `json:"correctnessAverage"`
	History                []progress.ConfidenceHistoryEntry `json:"history"`
	UpdatedAt              *time.Time                        `json:"updatedAt,omitempty"`
}

type PronunciationView struct {
	OverallScore         int                                  `json:"overallScore"`
	TotalWordsPronounced int                                  `json:"totalWordsPronounced"`
	History              []progress.PronunciationHistoryEntry `json:"history"`
	UpdatedAt            *time.Time                           `json:"updatedAt,omitempty"`
}

type SummaryView struct {
	Streak        *StreakView        `json:"streak"`
	Confidence    *ConfidenceView    `json:"confidence"`
	Pronunciation *PronunciationView `json:"pronunciation"`
}

type RecomputeResult struct {
	Confidence    *ConfidenceView    `json:"confidence"`
	Pronunciation *PronunciationView `json:"pronunciation"`
}

// Recomputer rebuilds the confidence and pronunciation rows of one learner.
type Recomputer interface {
	Recompute(ctx context.Context, learnerID uuid.UUID) (*RecomputeResult, error)
}

type ProgressService interface {
	Recomputer
	GetStreak(ctx context.Context, learnerID uuid.UUID) (*StreakView, error)
	GetConfidence(ctx context.Context, learnerID uuid.UUID) (*ConfidenceView, error)
	GetPronunciation(ctx context.Context, learnerID uuid.UUID) (*PronunciationView, error)
	GetSummary(ctx context.Context, learnerID uuid.UUID) (*SummaryView, error)
}

type ProgressServiceDeps struct {
	Log                 *logger.Logger
	Completions         repos.CompletionRecordRepo
	StreakStates        repos.StreakStateRepo
	ConfidenceStates    repos.ConfidenceStateRepo
	PronunciationStates repos.PronunciationStateRepo
	Confidence          domainagg.ConfidenceAggregate
	Pronunciation       domainagg.PronunciationAggregate
	Catalog             UnitCatalog
	Assignments         AssignmentCounter
	Policy              progress.Policy
	Metrics             *observability.Metrics
	Now                 func() time.Time
}

type progressService struct {
	deps  ProgressServiceDeps
	log   *logger.Logger
	group singleflight.Group
}

func NewProgressService(deps ProgressServiceDeps) ProgressService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &progressService{deps: deps, log: deps.Log.With("service", "ProgressService")}
}

func (s *progressService) GetStreak(ctx context.Context, learnerID uuid.UUID) (*StreakView, error) {
	row, err := s.deps.StreakStates.GetByLearner(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	snap, err := row.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode streak: %w", err)
	}
	today := progress.DayKey(s.deps.Now())
	badges := snap.Badges
	if badges == nil {
		badges = []progress.Badge{}
	}
	current := progress.EffectiveStreak(snap, today)
	return &StreakView{
		CurrentStreak:    current,
		LongestStreak:    snap.LongestStreak,
		StreakStartDate:  snap.StreakStartDate,
		LastActivityDate: snap.LastActivityDate,
		Badges:           badges,
		LastSevenDays:    progress.LastSevenDays(snap, today),
		NextMilestone:    progress.NextMilestone(current, s.deps.Policy.Milestones),
	}, nil
}

func (s *progressService) GetConfidence(ctx context.Context, learnerID uuid.UUID) (*ConfidenceView, error) {
	row, err := s.deps.ConfidenceStates.GetByLearner(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	if row == nil || s.stale(ctx, learnerID, row.SourceWatermark) {
		res, err := s.recomputeShared(ctx, learnerID, TriggerRead)
		if err != nil {
			return nil, err
		}
		return res.Confidence, nil
	}
	return confidenceView(row)
}

func (s *progressService) GetPronunciation(ctx context.Context, learnerID uuid.UUID) (*PronunciationView, error) {
	row, err := s.deps.PronunciationStates.GetByLearner(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	if row == nil || s.stale(ctx, learnerID, row.SourceWatermark) {
		res, err := s.recomputeShared(ctx, learnerID, TriggerRead)
		if err != nil {
			return nil, err
		}
		return res.Pronunciation, nil
	}
	return pronunciationView(row)
}

func (s *progressService) GetSummary(ctx context.Context, learnerID uuid.UUID) (*SummaryView, error) {
	ctx, span := observability.StartSpan(ctx, "progress.summary")
	var out SummaryView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Streak, err = s.GetStreak(gctx, learnerID)
		return err
	})
	g.Go(func() (err error) {
		out.Confidence, err = s.GetConfidence(gctx, learnerID)
		return err
	})
	g.Go(func() (err error) {
		out.Pronunciation, err = s.GetPronunciation(gctx, learnerID)
		return err
	})
	err := g.Wait()
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *progressService) Recompute(ctx context.Context, learnerID uuid.UUID) (*RecomputeResult, error) {
	return s.recomputeShared(ctx, learnerID, TriggerManual)
}

// recomputeShared collapses concurrent recomputes of one learner into one scan.
func (s *progressService) recomputeShared(ctx context.Context, learnerID uuid.UUID, trigger string) (*RecomputeResult, error) {
	v, err, shared := s.group.Do(learnerID.String(), func() (any, error) {
		return s.recompute(ctx, learnerID)
	})
	if shared {
		s.deps.Metrics.IncRecomputeRequest(trigger, "coalesced")
	}
	if err != nil {
		return nil, err
	}
	return v.(*RecomputeResult), nil
}

type recomputeInputs struct {
	watermark  *time.Time
	assigned   int
	completed  int
	attempts   []progress.ConfidenceAttempt
	pronScores []float64
}

func (s *progressService) recompute(ctx context.Context, learnerID uuid.UUID) (res *RecomputeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "progress.recompute", attribute.String("learner_id", learnerID.String()))
	defer func() { observability.EndSpan(span, err) }()

	in, err := s.loadInputs(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	at := s.deps.Now().UTC()

	start := time.Now()
	conf, err := s.deps.Confidence.RecomputeConfidence(ctx, domainagg.RecomputeConfidenceInput{
		LearnerID:      learnerID,
		AssignedUnits:  in.assigned,
		CompletedUnits: in.completed,
		Attempts:       in.attempts,
		Watermark:      in.watermark,
		At:             at,
	})
	s.deps.Metrics.ObserveRecompute("confidence", statusOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	pron, err := s.deps.Pronunciation.RecomputePronunciation(ctx, domainagg.RecomputePronunciationInput{
		LearnerID: learnerID,
		Scores:    in.pronScores,
		Watermark: in.watermark,
		At:        at,
	})
	s.deps.Metrics.ObserveRecompute("pronunciation", statusOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.log.Debug("recomputed", "learner_id", learnerID, "confidence", conf.State.ConfidenceScore, "pronunciation", pron.State.OverallScore)
	return &RecomputeResult{
		Confidence:    confidenceViewFromSnapshot(conf.State, &at),
		Pronunciation: pronunciationViewFromSnapshot(pron.State, &at),
	}, nil
}

func (s *progressService) loadInputs(ctx context.Context, learnerID uuid.UUID) (*recomputeInputs, error) {
	records, err := s.deps.Completions.ListFirstByLearner(ctx, nil, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list first completions: %w", err)
	}
	unitIDs := make([]string, 0, len(records))
	seen := map[string]bool{}
	for _, r := range records {
		if !seen[r.UnitID] {
			seen[r.UnitID] = true
			unitIDs = append(unitIDs, r.UnitID)
		}
	}
	units, err := s.deps.Catalog.LookupMany(ctx, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup units: %w", err)
	}
	assigned, completed, err := s.deps.Assignments.Counts(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("assignment counts: %w", err)
	}

	in := &recomputeInputs{assigned: assigned, completed: completed}
	for _, r := range records {
		kind := ""
		if u := units[r.UnitID]; u != nil {
			kind = u.Kind
		}
		in.attempts = append(in.attempts, progress.ConfidenceAttempt{
			Score:         r.Score,
			Pronunciation: s.deps.Policy.IsPronunciationKind(kind),
		})
		in.pronScores = append(in.pronScores, progress.PronunciationScores(r.DecodedAnswers())...)
		if in.watermark == nil || r.CompletedAt.After(*in.watermark) {
			at := r.CompletedAt.UTC()
			in.watermark = &at
		}
	}
	return in, nil
}

// stale reports whether a first completion newer than the stored watermark exists.
func (s *progressService) stale(ctx context.Context, learnerID uuid.UUID, watermark *time.Time) bool {
	latest, err := s.deps.Completions.LatestFirstCompletionAt(ctx, nil, learnerID)
	if err != nil {
		s.log.Warn("watermark check failed", "learner_id", learnerID, "error", err)
		return false
	}
	if latest == nil {
		return false
	}
	return watermark == nil || latest.After(*watermark)
}

func confidenceView(row *types.ConfidenceState) (*ConfidenceView, error) {
	snap, err := row.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode confidence: %w", err)
	}
	updated := row.UpdatedAt
	return confidenceViewFromSnapshot(snap, &updated), nil
}

func confidenceViewFromSnapshot(snap progress.ConfidenceSnapshot, updatedAt *time.Time) *ConfidenceView {
	history := snap.History
	if history == nil {
		history = []progress.ConfidenceHistoryEntry{}
	}
	trend := snap.Trend
	if trend == "" {
		trend = progress.TrendStable
	}
	return &ConfidenceView{
		ConfidenceScore:        snap.ConfidenceScore,
		Label:                  snap.Label,
		Trend:                  trend,
		AssignedUnits:          snap.AssignedUnits,
		CompletedUnits:         snap.CompletedUnits,
		CompletionRate:         snap.CompletionRate,
		CompletionContribution: snap.CompletionContribution,
		QualityScore:           snap.QualityScore,
		QualityContribution:    snap.QualityContribution,
		PronunciationAverage:   snap.PronunciationAverage,
		CorrectnessAverage:     snap.CorrectnessAverage,
		History:                history,
		UpdatedAt:              updatedAt,
	}
}

func pronunciationView(row *types.PronunciationState) (*PronunciationView, error) {
	snap, err := row.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode pronunciation: %w", err)
	}
	updated := row.UpdatedAt
	return pronunciationViewFromSnapshot(snap, &updated), nil
}

func pronunciationViewFromSnapshot(snap progress.PronunciationSnapshot, updatedAt *time.Time) *PronunciationView {
	history := snap.History
	if history == nil {
		history = []progress.PronunciationHistoryEntry{}
	}
	return &PronunciationView{
		OverallScore:         snap.OverallScore,
		TotalWordsPronounced: snap.TotalWordsPronounced,
		History:              history,
		UpdatedAt:            updatedAt,
	}
}

func statusOf(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
