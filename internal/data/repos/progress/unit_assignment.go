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

type UnitAssignmentRepo interface {
	// Assign is idempotent; it returns the number of new assignments.
	Assign(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitIDs []string, at time.Time) (int64, error)
	// Counts returns the learner's assigned units and how many of those have a first completion.
	Counts(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (assigned int, completed int, err error)
}

type unitAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) UnitAssignmentRepo {
	return &unitAssignmentRepo{db: db, log: baseLog.With("repo", "UnitAssignmentRepo")}
}

func (r *unitAssignmentRepo) Assign(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitIDs []string, at time.Time) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if learnerID == uuid.Nil || len(unitIDs) == 0 {
		return 0, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	seen := map[string]bool{}
	rows := make([]*types.UnitAssignment, 0, len(unitIDs))
	for _, id := range unitIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, &types.UnitAssignment{
			ID:         uuid.New(),
			LearnerID:  learnerID,
			UnitID:     id,
			AssignedAt: at.UTC(),
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}, {Name: "unit_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *unitAssignmentRepo) Counts(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (int, int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if learnerID == uuid.Nil {
		return 0, 0, nil
	}
	var assigned int64
	if err := t.WithContext(ctx).
		Model(&types.UnitAssignment{}).
		Where("learner_id = ?", learnerID).
		Count(&assigned).Error; err != nil {
		return 0, 0, err
	}
	if assigned == 0 {
		return 0, 0, nil
	}
	var completed int64
	if err := t.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT ua.unit_id)
		FROM unit_assignment ua
		JOIN completion_record cr
		  ON cr.learner_id = ua.learner_id
		 AND cr.unit_id = ua.unit_id
		 AND cr.is_first_completion = ?
		WHERE ua.learner_id = ?
	`, true, learnerID).Scan(&completed).Error; err != nil {
		return 0, 0, err
	}
	return int(assigned), int(completed), nil
}
