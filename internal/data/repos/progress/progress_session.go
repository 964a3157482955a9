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

type ProgressSessionRepo interface {
	Get(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID, dayKey string) (*types.ProgressSession, error)
	// Upsert overwrites the in-progress state for the row's key; StartedAt of an existing row is kept.
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressSession) error
	PruneBefore(ctx context.Context, tx *gorm.DB, dayKey string) (int64, error)
}

type progressSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressSessionRepo(db *gorm.DB, baseLog *logger.Logger) ProgressSessionRepo {
	return &progressSessionRepo{db: db, log: baseLog.With("repo", "ProgressSessionRepo")}
}

func (r *progressSessionRepo) Get(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID, dayKey string) (*types.ProgressSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if learnerID == uuid.Nil || unitID == "" || dayKey == "" {
		return nil, nil
	}
	var row types.ProgressSession
	err := t.WithContext(ctx).
		Where("learner_id = ? AND unit_id = ? AND day_key = ?", learnerID, unitID, dayKey).
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

func (r *progressSessionRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressSession) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.LearnerID == uuid.Nil || row.UnitID == "" || row.DayKey == "" {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.StartedAt.IsZero() {
		row.StartedAt = now
	}
	if row.LastUpdatedAt.IsZero() {
		row.LastUpdatedAt = now
	}
	if len(row.Answers) == 0 {
		row.Answers = []byte("[]")
	}

	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "learner_id"}, {Name: "unit_id"}, {Name: "day_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_index",
				"answers",
				"is_completed",
				"final_score",
				"last_updated_at",
			}),
		}).
		Create(row).Error
}

func (r *progressSessionRepo) PruneBefore(ctx context.Context, tx *gorm.DB, dayKey string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if dayKey == "" {
		return 0, nil
	}
	res := t.WithContext(ctx).
		Where("day_key < ?", dayKey).
		Delete(&types.ProgressSession{})
	return res.RowsAffected, res.Error
}
