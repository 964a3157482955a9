package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

func SeedUnit(tb testing.TB, ctx context.Context, tx *gorm.DB, id, kind string) *types.PracticeUnit {
	tb.Helper()
	u := &types.PracticeUnit{
		ID:        id,
		Kind:      kind,
		Title:     id,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed unit: %v", err)
	}
	return u
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID string) *types.UnitAssignment {
	tb.Helper()
	a := &types.UnitAssignment{
		ID:         uuid.New(),
		LearnerID:  learnerID,
		UnitID:     unitID,
		AssignedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, unitID string, at time.Time, score float64, first bool) *types.CompletionRecord {
	tb.Helper()
	r := &types.CompletionRecord{
		ID:                uuid.New(),
		LearnerID:         learnerID,
		UnitID:            unitID,
		DayKey:            at.UTC().Format("2006-01-02"),
		Score:             score,
		CorrectCount:      1,
		TotalCount:        1,
		Answers:           []byte("[]"),
		IsFirstCompletion: first,
		CompletedAt:       at.UTC(),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	return r
}

func PtrFloat(v float64) *float64 { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
