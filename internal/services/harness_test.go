package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-progress-backend/internal/data/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type harness struct {
	db      *gorm.DB
	clock   *fakeClock
	redis   *miniredis.Miniredis
	rdb     redis.UniversalClient
	metrics *observability.Metrics

	completionRepo repos.CompletionRecordRepo
	sessionRepo    repos.ProgressSessionRepo
	streakRepo     repos.StreakStateRepo
	confRepo       repos.ConfidenceStateRepo
	pronRepo       repos.PronunciationStateRepo

	streaks     domainagg.StreakAggregate
	completions CompletionService
	progress    ProgressService
	sessions    SessionService
	retention   RetentionService
}

var day1 = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

type harnessOption func(*CompletionServiceDeps)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &harness{
		db:             db,
		clock:          &fakeClock{now: day1},
		redis:          mr,
		rdb:            rdb,
		metrics:        observability.New(0.5),
		completionRepo: repos.NewCompletionRecordRepo(db, log),
		sessionRepo:    repos.NewProgressSessionRepo(db, log),
		streakRepo:     repos.NewStreakStateRepo(db, log),
		confRepo:       repos.NewConfidenceStateRepo(db, log),
		pronRepo:       repos.NewPronunciationStateRepo(db, log),
	}
	policy := progress.DefaultPolicy()
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(h.metrics)}
	catalog := NewRepoUnitCatalog(repos.NewPracticeUnitRepo(db, log))

	h.streaks = aggregates.NewStreakAggregate(aggregates.StreakAggregateDeps{
		BaseDeps: base, Streaks: h.streakRepo, Milestones: policy.Milestones,
	})
	h.progress = NewProgressService(ProgressServiceDeps{
		Log:                 log,
		Completions:         h.completionRepo,
		StreakStates:        h.streakRepo,
		ConfidenceStates:    h.confRepo,
		PronunciationStates: h.pronRepo,
		Confidence: aggregates.NewConfidenceAggregate(aggregates.ConfidenceAggregateDeps{
			BaseDeps: base, States: h.confRepo, Policy: policy,
		}),
		Pronunciation: aggregates.NewPronunciationAggregate(aggregates.PronunciationAggregateDeps{
			BaseDeps: base, States: h.pronRepo, HistoryCap: policy.PronunciationHistoryCap,
		}),
		Catalog:     catalog,
		Assignments: NewRepoAssignmentCounter(repos.NewUnitAssignmentRepo(db, log)),
		Policy:      policy,
		Metrics:     h.metrics,
		Now:         h.clock.Now,
	})
	scheduler := NewRecomputeScheduler(log, h.progress, nil, h.metrics, RecomputeSchedulerConfig{})

	deps := CompletionServiceDeps{
		Log:          log,
		Completions:  h.completionRepo,
		StreakStates: h.streakRepo,
		Streaks:      h.streaks,
		Catalog:      catalog,
		Scheduler:    scheduler,
		Policy:       policy,
		Metrics:      h.metrics,
		Now:          h.clock.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.completions = NewCompletionService(deps)
	h.sessions = NewSessionService(SessionServiceDeps{
		Log:      log,
		Sessions: h.sessionRepo,
		Catalog:  catalog,
		Redis:    rdb,
		CacheTTL: time.Hour,
		Metrics:  h.metrics,
		Now:      h.clock.Now,
	})
	rs := NewRetentionService(db, log, h.completionRepo, h.sessionRepo)
	rs.(*retentionService).now = h.clock.Now
	h.retention = rs
	return h
}

func (h *harness) seedUnit(t *testing.T, id, kind string) {
	t.Helper()
	testutil.SeedUnit(t, context.Background(), h.db, id, kind)
}

func (h *harness) assign(t *testing.T, learner uuid.UUID, unitIDs ...string) {
	t.Helper()
	for _, id := range unitIDs {
		testutil.SeedAssignment(t, context.Background(), h.db, learner, id)
	}
}

func (h *harness) submit(t *testing.T, learner uuid.UUID, unitID string, score float64, answers ...progress.Answer) *CompletionResult {
	t.Helper()
	res, err := h.completions.Submit(context.Background(), CompletionInput{
		LearnerID:        learner,
		UnitID:           unitID,
		Score:            score,
		CorrectCount:     4,
		TotalCount:       5,
		TimeSpentSeconds: 90,
		Answers:          answers,
	})
	if err != nil {
		t.Fatalf("Submit(%s): %v", unitID, err)
	}
	return res
}

// insertFirst stores a first completion directly, bypassing the scheduler.
func (h *harness) insertFirst(t *testing.T, learner uuid.UUID, unitID string, at time.Time, score float64, answers ...progress.Answer) {
	t.Helper()
	raw, err := progress.EncodeAnswers(answers)
	if err != nil {
		t.Fatalf("EncodeAnswers: %v", err)
	}
	ok, err := h.completionRepo.InsertFirst(context.Background(), nil, &types.CompletionRecord{
		ID:                uuid.New(),
		LearnerID:         learner,
		UnitID:            unitID,
		DayKey:            progress.DayKey(at),
		Score:             score,
		Answers:           raw,
		IsFirstCompletion: true,
		CompletedAt:       at,
	})
	if err != nil || !ok {
		t.Fatalf("InsertFirst: ok=%v err=%v", ok, err)
	}
}

func wordAnswer(scores ...float64) progress.Answer {
	a := progress.Answer{Type: "pronunciation", Submitted: true}
	for i, s := range scores {
		a.WordScores = append(a.WordScores, progress.WordScore{Word: string(rune('a' + i)), Score: s})
	}
	return a
}
