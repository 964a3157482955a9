package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

// Per-learner aggregate rows. Writes after creation go through the aggregate
// CAS guard; these repos only read and create.

type StreakStateRepo interface {
	GetByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*types.StreakState, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.StreakState) (bool, error)
}

type ConfidenceStateRepo interface {
	GetByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*types.ConfidenceState, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.ConfidenceState) (bool, error)
}

type PronunciationStateRepo interface {
	GetByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*types.PronunciationState, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.PronunciationState) (bool, error)
}

type learnerStateRepo[T any] struct {
	db  *gorm.DB
	log *logger.Logger
	id  func(*T) *uuid.UUID
	ts  func(*T) (*time.Time, *time.Time)
}

func NewStreakStateRepo(db *gorm.DB, baseLog *logger.Logger) StreakStateRepo {
	return &learnerStateRepo[types.StreakState]{
		db:  db,
		log: baseLog.With("repo", "StreakStateRepo"),
		id:  func(r *types.StreakState) *uuid.UUID { return &r.ID },
		ts:  func(r *types.StreakState) (*time.Time, *time.Time) { return &r.CreatedAt, &r.UpdatedAt },
	}
}

func NewConfidenceStateRepo(db *gorm.DB, baseLog *logger.Logger) ConfidenceStateRepo {
	return &learnerStateRepo[types.ConfidenceState]{
		db:  db,
		log: baseLog.With("repo", "ConfidenceStateRepo"),
		id:  func(r *types.ConfidenceState) *uuid.UUID { return &r.ID },
		ts:  func(r *types.ConfidenceState) (*time.Time, *time.Time) { return &r.CreatedAt, &r.UpdatedAt },
	}
}

func NewPronunciationStateRepo(db *gorm.DB, baseLog *logger.Logger) PronunciationStateRepo {
	return &learnerStateRepo[types.PronunciationState]{
		db:  db,
		log: baseLog.With("repo", "PronunciationStateRepo"),
		id:  func(r *types.PronunciationState) *uuid.UUID { return &r.ID },
		ts:  func(r *types.PronunciationState) (*time.Time, *time.Time) { return &r.CreatedAt, &r.UpdatedAt },
	}
}

func (r *learnerStateRepo[T]) GetByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*T, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if learnerID == uuid.Nil {
		return nil, nil
	}
	var row T
	err := t.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if *r.id(&row) == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// CreateIfAbsent inserts row unless the learner already has one; the bool
// reports whether this call created it.
func (r *learnerStateRepo[T]) CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *T) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return false, nil
	}
	if id := r.id(row); *id == uuid.Nil {
		*id = uuid.New()
	}
	now := time.Now().UTC()
	created, updated := r.ts(row)
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "learner_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
