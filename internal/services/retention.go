package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type PruneResult struct {
	Cutoff          string `json:"cutoff"`
	ReplaysDeleted  int64  `json:"replaysDeleted"`
	SessionsDeleted int64  `json:"sessionsDeleted"`
}

// RetentionService deletes replay completions and progress sessions older than a
// cutoff day. First completions are never deleted.
type RetentionService interface {
	Prune(ctx context.Context, olderThan time.Duration) (*PruneResult, error)
}

type retentionService struct {
	db          *gorm.DB
	log         *logger.Logger
	completions repos.CompletionRecordRepo
	sessions    repos.ProgressSessionRepo
	now         func() time.Time
}

func NewRetentionService(db *gorm.DB, baseLog *logger.Logger, completions repos.CompletionRecordRepo, sessions repos.ProgressSessionRepo) RetentionService {
	return &retentionService{
		db:          db,
		log:         baseLog.With("service", "RetentionService"),
		completions: completions,
		sessions:    sessions,
		now:         time.Now,
	}
}

func (s *retentionService) Prune(ctx context.Context, olderThan time.Duration) (*PruneResult, error) {
	if olderThan < 24*time.Hour {
		return nil, domainagg.Validation("progress.retention.prune", "retention must be at least one day, got %s", olderThan)
	}
	out := &PruneResult{Cutoff: progress.DayKey(s.now().Add(-olderThan))}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.completions.PruneReplaysBefore(ctx, tx, out.Cutoff)
		if err != nil {
			return fmt.Errorf("prune replays: %w", err)
		}
		out.ReplaysDeleted = n
		n, err = s.sessions.PruneBefore(ctx, tx, out.Cutoff)
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		out.SessionsDeleted = n
		return nil
	})
	if err != nil {
		s.log.Warn("Prune transaction error", "error", err)
		return nil, err
	}
	s.log.Info("retention sweep", "cutoff", out.Cutoff, "replays", out.ReplaysDeleted, "sessions", out.SessionsDeleted)
	return out, nil
}
