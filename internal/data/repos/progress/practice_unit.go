package progress

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lingua-progress-backend/internal/domain"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type PracticeUnitRepo interface {
	Get(ctx context.Context, tx *gorm.DB, id string) (*types.PracticeUnit, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.PracticeUnit, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.PracticeUnit, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.PracticeUnit) error
}

type practiceUnitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPracticeUnitRepo(db *gorm.DB, baseLog *logger.Logger) PracticeUnitRepo {
	return &practiceUnitRepo{db: db, log: baseLog.With("repo", "PracticeUnitRepo")}
}

func (r *practiceUnitRepo) Get(ctx context.Context, tx *gorm.DB, id string) (*types.PracticeUnit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var row types.PracticeUnit
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *practiceUnitRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.PracticeUnit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.PracticeUnit
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *practiceUnitRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.PracticeUnit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Order("id ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []*types.PracticeUnit
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *practiceUnitRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.PracticeUnit) error {
	t := tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	batch := make([]*types.PracticeUnit, 0, len(rows))
	for _, row := range rows {
		if row == nil || strings.TrimSpace(row.ID) == "" {
			continue
		}
		row.ID = strings.TrimSpace(row.ID)
		row.Kind = strings.ToLower(strings.TrimSpace(row.Kind))
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
		batch = append(batch, row)
	}
	if len(batch) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "title", "active", "updated_at"}),
		}).
		Create(&batch).Error
}
