package aggregates

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	progressrepo "github.com/yungbote/lingua-progress-backend/internal/data/repos/progress"
	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
)

func TestStreakAggregateRecordsTransitions(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &spyHooks{}
	agg := NewStreakAggregate(StreakAggregateDeps{
		BaseDeps:   BaseDeps{DB: db, Log: log, Hooks: hooks},
		Streaks:    progressrepo.NewStreakStateRepo(db, log),
		Milestones: progress.DefaultPolicy().Milestones,
	})
	ctx := context.Background()
	learner := uuid.New()
	base := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	record := func(day time.Time, score float64) domainagg.RecordQualifyingCompletionResult {
		t.Helper()
		res, err := agg.RecordQualifyingCompletion(ctx, domainagg.RecordQualifyingCompletionInput{
			LearnerID: learner, Day: progress.DayKey(day), Score: score, CompletedAt: day,
		})
		if err != nil {
			t.Fatalf("RecordQualifyingCompletion(%s): %v", progress.DayKey(day), err)
		}
		return res
	}

	if res := record(base, 80); res.Streak.CurrentStreak != 1 || !res.StreakUpdated() {
		t.Fatalf("day1: %+v", res)
	}
	record(base.AddDate(0, 0, 1), 80)
	res := record(base.AddDate(0, 0, 2), 80)
	if res.Streak.CurrentStreak != 3 || res.NewBadge == nil || res.NewBadge.Milestone != 3 {
		t.Fatalf("day3: streak=%d badge=%+v", res.Streak.CurrentStreak, res.NewBadge)
	}
	if same := record(base.AddDate(0, 0, 2).Add(time.Hour), 95); same.StreakUpdated() || same.NewBadge != nil {
		t.Fatalf("same day replay updated streak: %+v", same)
	}
	res = record(base.AddDate(0, 0, 5), 70)
	if res.Streak.CurrentStreak != 1 || res.Streak.LongestStreak != 3 || len(res.Streak.Badges) != 1 {
		t.Fatalf("after break: %+v", res.Streak)
	}

	row, err := progressrepo.NewStreakStateRepo(db, log).GetByLearner(ctx, nil, learner)
	if err != nil || row == nil {
		t.Fatalf("GetByLearner: %v %v", row, err)
	}
	if row.Version != 5 {
		t.Fatalf("version: got %d want 5", row.Version)
	}
	snap, err := row.Snapshot()
	if err != nil || snap.CurrentStreak != 1 || snap.LongestStreak != 3 {
		t.Fatalf("stored snapshot: %+v err=%v", snap, err)
	}
	if wd := base.AddDate(0, 0, 2).Weekday(); snap.Weekly[wd].Score != 95 {
		t.Fatalf("weekly max score not stored: %+v", snap.Weekly[wd])
	}
	if len(hooks.Operations) != 5 {
		t.Fatalf("hook operations: %d", len(hooks.Operations))
	}
}

func TestStreakAggregateValidatesInput(t *testing.T) {
	agg := NewStreakAggregate(StreakAggregateDeps{BaseDeps: BaseDeps{Runner: spyTxRunner{}}})
	_, err := agg.RecordQualifyingCompletion(context.Background(), domainagg.RecordQualifyingCompletionInput{Day: "2024-01-01"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing learner: %v", err)
	}
	_, err = agg.RecordQualifyingCompletion(context.Background(), domainagg.RecordQualifyingCompletionInput{LearnerID: uuid.New(), Day: "01/01/2024"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("bad day: %v", err)
	}
	if agg.Contract().Name != domainagg.StreakAggregateContract.Name || !agg.Contract().RequiresAggregateOwnedTx() {
		t.Fatalf("contract: %+v", agg.Contract())
	}
}

func TestStreakAggregateConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	agg := NewStreakAggregate(StreakAggregateDeps{
		BaseDeps:   BaseDeps{DB: db, Log: log, MaxAttempts: 20},
		Streaks:    progressrepo.NewStreakStateRepo(db, log),
		Milestones: progress.DefaultPolicy().Milestones,
	})
	learner := uuid.New()
	day := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := agg.RecordQualifyingCompletion(context.Background(), domainagg.RecordQualifyingCompletionInput{
				LearnerID: learner, Day: progress.DayKey(day), Score: float64(70 + i), CompletedAt: day,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}

	row, err := progressrepo.NewStreakStateRepo(db, log).GetByLearner(context.Background(), nil, learner)
	if err != nil || row == nil {
		t.Fatalf("GetByLearner: %v %v", row, err)
	}
	snap, _ := row.Snapshot()
	if snap.CurrentStreak != 1 || row.Version != 8 {
		t.Fatalf("streak=%d version=%d", snap.CurrentStreak, row.Version)
	}
	if got := snap.Weekly[day.Weekday()].Score; got != 77 {
		t.Fatalf("weekly max score: got %v want 77", got)
	}
}

func TestConfidenceAggregateRecompute(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := progressrepo.NewConfidenceStateRepo(db, log)
	agg := NewConfidenceAggregate(ConfidenceAggregateDeps{
		BaseDeps: BaseDeps{DB: db, Log: log},
		States:   repo,
		Policy:   progress.DefaultPolicy(),
	})
	ctx := context.Background()
	learner := uuid.New()
	w1 := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	in := domainagg.RecomputeConfidenceInput{
		LearnerID: learner, AssignedUnits: 4, CompletedUnits: 2,
		Attempts:  []progress.ConfidenceAttempt{{Score: 90}, {Score: 70, Pronunciation: true}},
		Watermark: &w1, At: w1,
	}
	res, err := agg.RecomputeConfidence(ctx, in)
	if err != nil || !res.Appended {
		t.Fatalf("RecomputeConfidence: %+v err=%v", res, err)
	}
	if res.State.ConfidenceScore != res.State.CompletionContribution+res.State.QualityContribution {
		t.Fatalf("score is not the sum of contributions: %+v", res.State)
	}

	again, err := agg.RecomputeConfidence(ctx, in)
	if err != nil || again.Appended {
		t.Fatalf("redundant recompute appended: %+v err=%v", again, err)
	}

	// A new qualifying event appends even when the score does not move.
	w2 := w1.Add(24 * time.Hour)
	next := in
	next.Watermark = &w2
	next.At = w2
	moved, err := agg.RecomputeConfidence(ctx, next)
	if err != nil || !moved.Appended {
		t.Fatalf("new event did not append: %+v err=%v", moved, err)
	}
	if moved.State.Trend != progress.TrendStable || len(moved.State.History) != 2 {
		t.Fatalf("new event: trend=%s history=%d", moved.State.Trend, len(moved.State.History))
	}

	// Older inputs never replace a newer stored recompute.
	w0 := w1.Add(-time.Hour)
	stale := in
	stale.CompletedUnits = 1
	stale.Watermark = &w0
	old, err := agg.RecomputeConfidence(ctx, stale)
	if err != nil || old.State.CompletedUnits != 2 {
		t.Fatalf("stale recompute applied: %+v err=%v", old.State, err)
	}

	row, err := repo.GetByLearner(ctx, nil, learner)
	if err != nil || row == nil {
		t.Fatalf("GetByLearner: %v %v", row, err)
	}
	snap, _ := row.Snapshot()
	if len(snap.History) != 2 || row.SourceWatermark == nil || !row.SourceWatermark.Equal(w2) {
		t.Fatalf("stored: history=%d watermark=%v", len(snap.History), row.SourceWatermark)
	}
	if row.Label != res.State.Label || row.Trend != progress.TrendStable {
		t.Fatalf("stored label/trend: %s %s", row.Label, row.Trend)
	}
}

func TestPronunciationAggregateRecompute(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := progressrepo.NewPronunciationStateRepo(db, log)
	agg := NewPronunciationAggregate(PronunciationAggregateDeps{
		BaseDeps:   BaseDeps{DB: db, Log: log},
		States:     repo,
		HistoryCap: 50,
	})
	ctx := context.Background()
	learner := uuid.New()
	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	res, err := agg.RecomputePronunciation(ctx, domainagg.RecomputePronunciationInput{
		LearnerID: learner, Scores: []float64{80, 0, 91, 90}, Watermark: &at, At: at,
	})
	if err != nil {
		t.Fatalf("RecomputePronunciation: %v", err)
	}
	if res.State.OverallScore != 87 || res.State.TotalWordsPronounced != 3 || !res.Appended {
		t.Fatalf("state: %+v", res)
	}
	row, err := repo.GetByLearner(ctx, nil, learner)
	if err != nil || row == nil || row.OverallScore != 87 || row.Version != 1 {
		t.Fatalf("stored: %+v err=%v", row, err)
	}
}
