package progress

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type CompletionRecordRepo interface {
	// InsertFirst stores row as the first completion of its (learner, unit, day) key.
	// It returns false without error when another first completion already holds the key.
	InsertFirst(ctx context.Context, tx *gorm.DB, row *types.CompletionRecord) (bool, error)
	InsertReplay(ctx context.Context, tx *gorm.DB, row *types.CompletionRecord) error
	GetFirst(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID, dayKey string) (*types.CompletionRecord, error)
	ListByKey(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID, dayKey string) ([]*types.CompletionRecord, error)
	ListFirstByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.CompletionRecord, error)
	LatestFirstCompletionAt(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*time.Time, error)
	ListLearnersWithFirstCompletions(ctx context.Context, tx *gorm.DB, limit int) ([]uuid.UUID, error)
	PruneReplaysBefore(ctx context.Context, tx *gorm.DB, dayKey string) (int64, error)
}

type completionRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRecordRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRecordRepo {
	return &completionRecordRepo{db: db, log: baseLog.With("repo", "CompletionRecordRepo")}
}

func (r *completionRecordRepo) prepare(row *types.CompletionRecord) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CompletedAt.IsZero() {
		row.CompletedAt = time.Now().UTC()
	}
	if len(row.Answers) == 0 {
		row.Answers = []byte("[]")
	}
}

func (r *completionRecordRepo) InsertFirst(ctx context.Context, tx *gorm.DB, row *types.CompletionRecord) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.LearnerID == uuid.Nil || strings.TrimSpace(row.UnitID) == "" || row.DayKey == "" {
		return false, nil
	}
	r.prepare(row)
	row.IsFirstCompletion = true

	// The partial unique index decides the race; a losing insert affects no rows.
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *completionRecordRepo) InsertReplay(ctx context.Context, tx *gorm.DB, row *types.CompletionRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.LearnerID == uuid.Nil || strings.TrimSpace(row.UnitID) == "" || row.DayKey == "" {
		return nil
	}
	r.prepare(row)
	row.IsFirstCompletion = false
	return t.WithContext(ctx).Create(row).Error
}

func (r *completionRecordRepo) GetFirst(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID, dayKey string) (*types.CompletionRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if learnerID == uuid.Nil || unitID == "" || dayKey == "" {
		return nil, nil
	}
	var row types.CompletionRecord
	err := t.WithContext(ctx).
		Where("learner_id = ? AND unit_id = ? AND day_key = ? AND is_first_completion = ?", learnerID, unitID, dayKey, true).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *completionRecordRepo) ListByKey(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID, dayKey string) ([]*types.CompletionRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CompletionRecord
	if learnerID == uuid.Nil || unitID == "" || dayKey == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("learner_id = ? AND unit_id = ? AND day_key = ?", learnerID, unitID, dayKey).
		Order("is_first_completion DESC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completionRecordRepo) ListFirstByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.CompletionRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CompletionRecord
	if learnerID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("learner_id = ? AND is_first_completion = ?", learnerID, true).
		Order("day_key ASC, completed_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completionRecordRepo) LatestFirstCompletionAt(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*time.Time, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if learnerID == uuid.Nil {
		return nil, nil
	}
	var row types.CompletionRecord
	err := t.WithContext(ctx).
		Select("id", "completed_at").
		Where("learner_id = ? AND is_first_completion = ?", learnerID, true).
		Order("completed_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	at := row.CompletedAt.UTC()
	return &at, nil
}

func (r *completionRecordRepo) ListLearnersWithFirstCompletions(ctx context.Context, tx *gorm.DB, limit int) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 1000
	}
	if limit > 10000 {
		limit = 10000
	}
	var ids []uuid.UUID
	if err := t.WithContext(ctx).
		Model(&types.CompletionRecord{}).
		Where("is_first_completion = ?", true).
		Distinct("learner_id").
		Order("learner_id").
		Limit(limit).
		Pluck("learner_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// PruneReplaysBefore removes replay rows older than dayKey. First completions are kept.
func (r *completionRecordRepo) PruneReplaysBefore(ctx context.Context, tx *gorm.DB, dayKey string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if dayKey == "" {
		return 0, nil
	}
	res := t.WithContext(ctx).
		Where("is_first_completion = ? AND day_key < ?", false, dayKey).
		Delete(&types.CompletionRecord{})
	return res.RowsAffected, res.Error
}
