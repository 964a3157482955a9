package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
	"github.com/yungbote/lingua-progress-backend/internal/services"
)

type retentionSweep struct {
	scheduler *gocron.Scheduler
}

// startRetentionSweep runs Prune once a day at the configured UTC time.
func startRetentionSweep(ctx context.Context, log *logger.Logger, retention services.RetentionService, days int, at string) (*retentionSweep, error) {
	if days < 1 {
		return nil, fmt.Errorf("retention days must be >= 1, got %d", days)
	}
	log = log.With("component", "RetentionSweep")
	olderThan := time.Duration(days) * 24 * time.Hour

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(1).Day().At(at).Do(func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Minute)
		defer cancel()
		res, err := retention.Prune(runCtx, olderThan)
		if err != nil {
			log.Error("retention sweep failed", "error", err)
			return
		}
		log.Info("retention sweep done",
			"cutoff", res.Cutoff,
			"replays_deleted", res.ReplaysDeleted,
			"sessions_deleted", res.SessionsDeleted,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule retention sweep at %q: %w", at, err)
	}
	s.StartAsync()
	log.Info("retention sweep scheduled", "at_utc", at, "days", days)
	return &retentionSweep{scheduler: s}, nil
}

func (r *retentionSweep) Stop() {
	if r == nil || r.scheduler == nil {
		return
	}
	r.scheduler.Stop()
}
