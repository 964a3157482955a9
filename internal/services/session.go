package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type SessionView struct {
	UnitID        string            `json:"unitId"`
	Date          string            `json:"date"`
	CurrentIndex  int               `json:"currentIndex"`
	Answers       []progress.Answer `json:"answers"`
	IsCompleted   bool              `json:"isCompleted"`
	FinalScore    *float64          `json:"finalScore,omitempty"`
	StartedAt     time.Time         `json:"startedAt"`
	LastUpdatedAt time.Time         `json:"lastUpdatedAt"`
}

type SessionSaveInput struct {
	LearnerID    uuid.UUID
	UnitID       string
	CurrentIndex int
	Answers      []progress.Answer
	IsCompleted  bool
	FinalScore   *float64
}

// SessionService stores resumable per-day unit state. Saving never records a completion.
type SessionService interface {
	Get(ctx context.Context, learnerID uuid.UUID, unitID string) (*SessionView, error)
	Save(ctx context.Context, in SessionSaveInput) (*SessionView, error)
}

type SessionServiceDeps struct {
	Log      *logger.Logger
	Sessions repos.ProgressSessionRepo
	Catalog  UnitCatalog
	// Redis is optional; without it every read goes to the database.
	Redis    redis.UniversalClient
	CacheTTL time.Duration
	Metrics  *observability.Metrics
	Now      func() time.Time
}

type sessionService struct {
	deps SessionServiceDeps
	log  *logger.Logger
}

func NewSessionService(deps SessionServiceDeps) SessionService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 24 * time.Hour
	}
	return &sessionService{deps: deps, log: deps.Log.With("service", "SessionService")}
}

func (s *sessionService) Get(ctx context.Context, learnerID uuid.UUID, unitID string) (*SessionView, error) {
	unitID = strings.TrimSpace(unitID)
	day := progress.DayKey(s.deps.Now())
	key := sessionCacheKey(learnerID, unitID, day)

	if cached, ok := s.cacheGet(ctx, key); ok {
		s.deps.Metrics.IncSessionCache("hit")
		return sessionView(cached)
	}
	s.deps.Metrics.IncSessionCache("miss")

	row, err := s.deps.Sessions.Get(ctx, nil, learnerID, unitID, day)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	s.cacheSet(ctx, key, row)
	return sessionView(row)
}

func (s *sessionService) Save(ctx context.Context, in SessionSaveInput) (*SessionView, error) {
	const op = "progress.session.save"
	in.UnitID = strings.TrimSpace(in.UnitID)
	switch {
	case in.LearnerID == uuid.Nil:
		return nil, domainagg.Validation(op, "learner id is required")
	case in.UnitID == "" || len(in.UnitID) > maxUnitIDLen:
		return nil, domainagg.Validation(op, "unit id is required (max %d characters)", maxUnitIDLen)
	case in.CurrentIndex < 0:
		return nil, domainagg.Validation(op, "currentIndex must be >= 0")
	case in.FinalScore != nil && (*in.FinalScore < 0 || *in.FinalScore > 100):
		return nil, domainagg.Validation(op, "finalScore must be within 0..100")
	}
	unit, err := s.deps.Catalog.Lookup(ctx, in.UnitID)
	if err != nil {
		return nil, fmt.Errorf("lookup unit: %w", err)
	}
	if unit == nil {
		return nil, domainagg.NotFound(op, "unknown unit %q", in.UnitID)
	}

	answers, err := progress.EncodeAnswers(in.Answers)
	if err != nil {
		return nil, domainagg.Validation(op, "answers: %v", err)
	}
	now := s.deps.Now().UTC()
	day := progress.DayKey(now)
	row := &types.ProgressSession{
		LearnerID:     in.LearnerID,
		UnitID:        in.UnitID,
		DayKey:        day,
		CurrentIndex:  in.CurrentIndex,
		Answers:       answers,
		IsCompleted:   in.IsCompleted,
		FinalScore:    in.FinalScore,
		StartedAt:     now,
		LastUpdatedAt: now,
	}
	if err := s.deps.Sessions.Upsert(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	// Re-read so an existing row's StartedAt is returned.
	stored, err := s.deps.Sessions.Get(ctx, nil, in.LearnerID, in.UnitID, day)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = row
	}
	s.cacheSet(ctx, sessionCacheKey(in.LearnerID, in.UnitID, day), stored)
	return sessionView(stored)
}

func (s *sessionService) cacheGet(ctx context.Context, key string) (*types.ProgressSession, bool) {
	if s.deps.Redis == nil {
		return nil, false
	}
	raw, err := s.deps.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("session cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var row types.ProgressSession
	if err := json.Unmarshal(raw, &row); err != nil {
		s.log.Warn("session cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return &row, true
}

func (s *sessionService) cacheSet(ctx context.Context, key string, row *types.ProgressSession) {
	if s.deps.Redis == nil || row == nil {
		return
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return
	}
	if err := s.deps.Redis.Set(ctx, key, raw, s.deps.CacheTTL).Err(); err != nil {
		s.log.Warn("session cache write failed", "key", key, "error", err)
	}
}

func sessionCacheKey(learnerID uuid.UUID, unitID, day string) string {
	return "progress:session:" + learnerID.String() + ":" + unitID + ":" + day
}

func sessionView(row *types.ProgressSession) (*SessionView, error) {
	answers, err := progress.DecodeAnswers(row.Answers)
	if err != nil {
		return nil, fmt.Errorf("decode session answers: %w", err)
	}
	return &SessionView{
		UnitID:        row.UnitID,
		Date:          row.DayKey,
		CurrentIndex:  row.CurrentIndex,
		Answers:       answers,
		IsCompleted:   row.IsCompleted,
		FinalScore:    row.FinalScore,
		StartedAt:     row.StartedAt,
		LastUpdatedAt: row.LastUpdatedAt,
	}, nil
}
