package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

// Recompute triggers, used as a metrics label.
const (
	TriggerCompletion = "completion"
	TriggerRead       = "read"
	TriggerManual     = "manual"
)

const recomputeRunTimeout = 30 * time.Second

// RecomputeScheduler coalesces recompute requests per learner.
type RecomputeScheduler interface {
	Schedule(ctx context.Context, learnerID uuid.UUID, trigger string)
	// Close runs every pending recompute and waits for in-flight ones.
	Close()
}

type RecomputeSchedulerConfig struct {
	// Debounce is the coalescing window; zero runs each request inline.
	Debounce time.Duration
	// KeyPrefix namespaces the cross-instance lock keys.
	KeyPrefix string
}

type recomputeScheduler struct {
	log     *logger.Logger
	runner  Recomputer
	rdb     redis.UniversalClient
	metrics *observability.Metrics
	cfg     RecomputeSchedulerConfig

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingRecompute
	closed  bool
	wg      sync.WaitGroup
}

type pendingRecompute struct {
	timer   *time.Timer
	trigger string
}

// NewRecomputeScheduler returns a debouncer over runner. rdb may be nil, in which
// case coalescing is per process only.
func NewRecomputeScheduler(log *logger.Logger, runner Recomputer, rdb redis.UniversalClient, metrics *observability.Metrics, cfg RecomputeSchedulerConfig) RecomputeScheduler {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "progress:recompute:"
	}
	return &recomputeScheduler{
		log:     log.With("service", "RecomputeScheduler"),
		runner:  runner,
		rdb:     rdb,
		metrics: metrics,
		cfg:     cfg,
		pending: map[uuid.UUID]*pendingRecompute{},
	}
}

func (s *recomputeScheduler) Schedule(ctx context.Context, learnerID uuid.UUID, trigger string) {
	if learnerID == uuid.Nil {
		return
	}
	if s.cfg.Debounce <= 0 {
		s.run(context.WithoutCancel(ctx), learnerID, trigger, false)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.pending[learnerID]; ok {
		s.metrics.IncRecomputeRequest(trigger, "coalesced")
		return
	}
	// The window is fixed from the first request so a steady stream still
	// recomputes once per window.
	p := &pendingRecompute{trigger: trigger}
	s.wg.Add(1)
	p.timer = time.AfterFunc(s.cfg.Debounce, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.pending, learnerID)
		s.mu.Unlock()
		s.run(context.Background(), learnerID, trigger, true)
	})
	s.pending[learnerID] = p
}

func (s *recomputeScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	flush := make(map[uuid.UUID]string, len(s.pending))
	for id, p := range s.pending {
		if p.timer.Stop() {
			flush[id] = p.trigger
			s.wg.Done()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for id, trigger := range flush {
		s.run(context.Background(), id, trigger, true)
	}
	s.wg.Wait()
}

func (s *recomputeScheduler) run(ctx context.Context, learnerID uuid.UUID, trigger string, lock bool) {
	if lock && !s.acquire(ctx, learnerID) {
		s.metrics.IncRecomputeRequest(trigger, "locked")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, recomputeRunTimeout)
	defer cancel()
	if _, err := s.runner.Recompute(ctx, learnerID); err != nil {
		s.metrics.IncRecomputeRequest(trigger, "failed")
		s.log.Error("recompute failed", "learner_id", learnerID, "trigger", trigger, "error", err)
		return
	}
	s.metrics.IncRecomputeRequest(trigger, "ran")
}

// acquire takes the per-learner window lock in redis so only one instance rescans
// a learner per window. Redis errors fail open.
func (s *recomputeScheduler) acquire(ctx context.Context, learnerID uuid.UUID) bool {
	if s.rdb == nil {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, s.cfg.KeyPrefix+learnerID.String(), "1", s.cfg.Debounce).Result()
	if err != nil {
		s.log.Warn("recompute lock unavailable; running anyway", "learner_id", learnerID, "error", err)
		return true
	}
	return ok
}
