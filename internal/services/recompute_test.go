package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
)

type countingRecomputer struct {
	calls atomic.Int32
}

func (c *countingRecomputer) Recompute(context.Context, uuid.UUID) (*RecomputeResult, error) {
	c.calls.Add(1)
	return &RecomputeResult{}, nil
}

func TestSchedulerInlineWithoutDebounce(t *testing.T) {
	rc := &countingRecomputer{}
	s := NewRecomputeScheduler(testutil.Logger(t), rc, nil, nil, RecomputeSchedulerConfig{})
	s.Schedule(context.Background(), uuid.New(), TriggerCompletion)
	assert.Equal(t, int32(1), rc.calls.Load())
	s.Schedule(context.Background(), uuid.Nil, TriggerCompletion)
	assert.Equal(t, int32(1), rc.calls.Load())
}

func TestSchedulerCoalescesWithinWindow(t *testing.T) {
	rc := &countingRecomputer{}
	s := NewRecomputeScheduler(testutil.Logger(t), rc, nil, nil, RecomputeSchedulerConfig{Debounce: 20 * time.Millisecond})
	learner := uuid.New()
	for i := 0; i < 5; i++ {
		s.Schedule(context.Background(), learner, TriggerCompletion)
	}
	require.Eventually(t, func() bool { return rc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Schedule(context.Background(), learner, TriggerCompletion)
	s.Schedule(context.Background(), uuid.New(), TriggerCompletion)
	require.Eventually(t, func() bool { return rc.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	s.Close()
}

func TestSchedulerCloseFlushesPending(t *testing.T) {
	rc := &countingRecomputer{}
	s := NewRecomputeScheduler(testutil.Logger(t), rc, nil, nil, RecomputeSchedulerConfig{Debounce: time.Hour})
	s.Schedule(context.Background(), uuid.New(), TriggerCompletion)
	s.Schedule(context.Background(), uuid.New(), TriggerCompletion)
	assert.Equal(t, int32(0), rc.calls.Load())
	s.Close()
	assert.Equal(t, int32(2), rc.calls.Load())

	s.Schedule(context.Background(), uuid.New(), TriggerCompletion)
	assert.Equal(t, int32(2), rc.calls.Load())
}

func TestSchedulerRedisLockAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rc := &countingRecomputer{}
	cfg := RecomputeSchedulerConfig{Debounce: 10 * time.Millisecond}
	a := NewRecomputeScheduler(testutil.Logger(t), rc, rdb, nil, cfg)
	b := NewRecomputeScheduler(testutil.Logger(t), rc, rdb, nil, cfg)
	learner := uuid.New()

	a.Schedule(context.Background(), learner, TriggerCompletion)
	b.Schedule(context.Background(), learner, TriggerCompletion)
	require.Eventually(t, func() bool { return mr.Exists("progress:recompute:" + learner.String()) }, time.Second, 5*time.Millisecond)
	a.Close()
	b.Close()
	assert.Equal(t, int32(1), rc.calls.Load())
}
