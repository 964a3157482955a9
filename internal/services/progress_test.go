package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
)

func TestGetStreakEffectiveView(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "u1", "listening")

	view, err := h.progress.GetStreak(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentStreak)
	assert.Empty(t, view.Badges)
	require.NotNil(t, view.NextMilestone)
	assert.Equal(t, 3, view.NextMilestone.Days)

	h.submit(t, learner, "u1", 80)
	h.clock.Set(day1.AddDate(0, 0, 1))
	h.submit(t, learner, "u1", 92)

	view, err = h.progress.GetStreak(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentStreak)
	require.Len(t, view.LastSevenDays, 7)
	assert.Equal(t, "2024-07-02", view.LastSevenDays[6].Date)
	assert.True(t, view.LastSevenDays[6].Completed)
	assert.Equal(t, 92.0, view.LastSevenDays[6].Score)
	assert.True(t, view.LastSevenDays[5].Completed)

	// Two idle days: the stored row is untouched but the streak reads as broken.
	h.clock.Set(day1.AddDate(0, 0, 4))
	view, err = h.progress.GetStreak(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentStreak)
	assert.Equal(t, 2, view.LongestStreak)
	assert.Equal(t, "2024-07-05", view.LastSevenDays[6].Date)
	assert.False(t, view.LastSevenDays[6].Completed)

	row, err := h.streakRepo.GetByLearner(context.Background(), nil, learner)
	require.NoError(t, err)
	assert.Equal(t, 2, row.CurrentStreak)
}

func TestRecomputeOnReadHealsStaleRows(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "speak-1", "pronunciation")
	h.seedUnit(t, "listen-1", "listening")

	h.insertFirst(t, learner, "speak-1", day1, 85, wordAnswer(80, 90, 0))

	pron, err := h.progress.GetPronunciation(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, 85, pron.OverallScore)
	assert.Equal(t, 2, pron.TotalWordsPronounced)
	require.Len(t, pron.History, 1)

	conf, err := h.progress.GetConfidence(context.Background(), learner)
	require.NoError(t, err)
	// No assignments: only quality counts, 85 * 0.6 = 51.
	assert.InDelta(t, 51, conf.ConfidenceScore, 1e-9)
	assert.Equal(t, "Developing", conf.Label)
	assert.InDelta(t, 85, conf.PronunciationAverage, 1e-9)

	// A newer completion written without a recompute makes both rows stale.
	later := day1.Add(2 * time.Hour)
	h.insertFirst(t, learner, "listen-1", later, 95)
	h.insertFirst(t, learner, "speak-1", day1.AddDate(0, 0, 1), 70, wordAnswer(70))

	conf, err = h.progress.GetConfidence(context.Background(), learner)
	require.NoError(t, err)
	assert.InDelta(t, 95, conf.CorrectnessAverage, 1e-9)
	assert.Len(t, conf.History, 2)

	pron, err = h.progress.GetPronunciation(context.Background(), learner)
	require.NoError(t, err)
	// (80 + 90 + 70) / 3
	assert.Equal(t, 80, pron.OverallScore)
	assert.Equal(t, 3, pron.TotalWordsPronounced)

	// Fresh rows are served without another recompute.
	again, err := h.progress.GetPronunciation(context.Background(), learner)
	require.NoError(t, err)
	assert.Len(t, again.History, len(pron.History))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "u1", "listening")
	h.insertFirst(t, learner, "u1", day1, 88)

	first, err := h.progress.Recompute(context.Background(), learner)
	require.NoError(t, err)
	second, err := h.progress.Recompute(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, first.Confidence.ConfidenceScore, second.Confidence.ConfidenceScore)
	assert.Len(t, second.Confidence.History, 1)
	assert.Equal(t, progress.TrendStable, second.Confidence.Trend)
	assert.Len(t, second.Pronunciation.History, 1)
}

func TestGetSummaryReadsAllAggregates(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "speak-1", "speaking")
	h.assign(t, learner, "speak-1")
	h.submit(t, learner, "speak-1", 90, wordAnswer(90))

	sum, err := h.progress.GetSummary(context.Background(), learner)
	require.NoError(t, err)
	require.NotNil(t, sum.Streak)
	require.NotNil(t, sum.Confidence)
	require.NotNil(t, sum.Pronunciation)
	assert.Equal(t, 1, sum.Streak.CurrentStreak)
	// 40 + 54
	assert.InDelta(t, 94, sum.Confidence.ConfidenceScore, 1e-9)
	assert.Equal(t, "Excellent", sum.Confidence.Label)
	assert.Equal(t, 90, sum.Pronunciation.OverallScore)
}

func TestConcurrentReadsShareOneRecompute(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "u1", "listening")
	h.insertFirst(t, learner, "u1", day1, 80)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.progress.GetConfidence(context.Background(), learner)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	row, err := h.confRepo.GetByLearner(context.Background(), nil, learner)
	require.NoError(t, err)
	snap, err := row.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.History, 1)
}

func TestNextMilestoneFollowsBrokenStreak(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "u1", "listening")
	for d := 0; d < 3; d++ {
		h.clock.Set(day1.AddDate(0, 0, d))
		h.submit(t, learner, "u1", 80)
	}

	view, err := h.progress.GetStreak(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, 3, view.CurrentStreak)
	require.NotNil(t, view.NextMilestone)
	assert.Equal(t, 7, view.NextMilestone.Days)

	h.clock.Set(day1.AddDate(0, 0, 6))
	view, err = h.progress.GetStreak(context.Background(), learner)
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentStreak)
	require.NotNil(t, view.NextMilestone)
	assert.Equal(t, 3, view.NextMilestone.Days)
	assert.Len(t, view.Badges, 1)
}

func TestConfidenceAppendsForEveryQualifyingEvent(t *testing.T) {
	h := newHarness(t)
	learner := uuid.New()
	h.seedUnit(t, "u1", "listening")
	h.seedUnit(t, "u2", "listening")
	h.assign(t, learner, "u1", "u2")

	h.submit(t, learner, "u1", 80)
	h.clock.Set(day1.AddDate(0, 0, 1))
	h.submit(t, learner, "u2", 80)

	conf, err := h.progress.GetConfidence(context.Background(), learner)
	require.NoError(t, err)
	// 40 + 80 * 0.6
	assert.InDelta(t, 88, conf.ConfidenceScore, 1e-9)
	assert.Equal(t, progress.TrendImproving, conf.Trend)
	require.Len(t, conf.History, 2)

	// A new first completion that leaves the score unchanged still counts.
	h.clock.Set(day1.AddDate(0, 0, 2))
	h.submit(t, learner, "u1", 80)

	conf, err = h.progress.GetConfidence(context.Background(), learner)
	require.NoError(t, err)
	assert.InDelta(t, 88, conf.ConfidenceScore, 1e-9)
	assert.Equal(t, progress.TrendStable, conf.Trend)
	require.Len(t, conf.History, 3)
	assert.Equal(t, conf.History[1].Score, conf.History[2].Score)

	// Reading again without new events leaves history alone.
	again, err := h.progress.GetConfidence(context.Background(), learner)
	require.NoError(t, err)
	assert.Len(t, again.History, 3)
	assert.Equal(t, progress.TrendStable, again.Trend)
}
