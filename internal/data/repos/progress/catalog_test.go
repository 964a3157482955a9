package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

func TestPracticeUnitRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewPracticeUnitRepo(db, testutil.Logger(t))

	if err := repo.Upsert(ctx, tx, []*types.PracticeUnit{
		{ID: "greetings-1", Kind: "Matching", Title: "Greetings", Active: true},
		{ID: "vowels-1", Kind: "pronunciation", Title: "Vowels", Active: true},
		{ID: " "},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, tx, []*types.PracticeUnit{{ID: "greetings-1", Kind: "matching", Title: "Greetings II", Active: false}}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	u, err := repo.Get(ctx, tx, "greetings-1")
	if err != nil || u == nil {
		t.Fatalf("Get: %v err=%v", u, err)
	}
	if u.Title != "Greetings II" || u.Active || u.Kind != "matching" {
		t.Fatalf("update not applied: %+v", u)
	}
	if missing, err := repo.Get(ctx, tx, "nope"); err != nil || missing != nil {
		t.Fatalf("Get missing: %v err=%v", missing, err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []string{"greetings-1", "vowels-1", "nope"}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: len=%d err=%v", len(rows), err)
	}
	if rows, err := repo.List(ctx, tx, true); err != nil || len(rows) != 1 || rows[0].ID != "vowels-1" {
		t.Fatalf("List active: %+v err=%v", rows, err)
	}
}

func TestUnitAssignmentRepoCounts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUnitAssignmentRepo(db, testutil.Logger(t))

	learner := uuid.New()
	n, err := repo.Assign(ctx, tx, learner, []string{"a", "b", "c", "a", ""}, time.Now())
	if err != nil || n != 3 {
		t.Fatalf("Assign: n=%d err=%v", n, err)
	}
	if n, err := repo.Assign(ctx, tx, learner, []string{"a", "d"}, time.Now()); err != nil || n != 1 {
		t.Fatalf("Assign again: n=%d err=%v", n, err)
	}

	day := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	testutil.SeedCompletion(t, ctx, tx, learner, "a", day, 80, true)
	testutil.SeedCompletion(t, ctx, tx, learner, "a", day.Add(24*time.Hour), 85, true)
	testutil.SeedCompletion(t, ctx, tx, learner, "b", day, 90, false)
	testutil.SeedCompletion(t, ctx, tx, learner, "zzz", day, 90, true)

	assigned, completed, err := repo.Counts(ctx, tx, learner)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if assigned != 4 || completed != 1 {
		t.Fatalf("Counts: assigned=%d completed=%d", assigned, completed)
	}
	if a, c, err := repo.Counts(ctx, tx, uuid.New()); err != nil || a != 0 || c != 0 {
		t.Fatalf("Counts unknown learner: %d %d %v", a, c, err)
	}
}
