package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

func TestCompletionRecordRepoFirstWins(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCompletionRecordRepo(db, testutil.Logger(t))

	learner := uuid.New()
	at := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)

	first := &types.CompletionRecord{LearnerID: learner, UnitID: "u1", DayKey: "2024-04-02", Score: 80, CompletedAt: at}
	ok, err := repo.InsertFirst(ctx, tx, first)
	if err != nil || !ok {
		t.Fatalf("InsertFirst: ok=%v err=%v", ok, err)
	}

	second := &types.CompletionRecord{LearnerID: learner, UnitID: "u1", DayKey: "2024-04-02", Score: 99, CompletedAt: at.Add(time.Hour)}
	ok, err = repo.InsertFirst(ctx, tx, second)
	if err != nil || ok {
		t.Fatalf("InsertFirst duplicate: ok=%v err=%v", ok, err)
	}
	if err := repo.InsertReplay(ctx, tx, second); err != nil {
		t.Fatalf("InsertReplay: %v", err)
	}

	got, err := repo.GetFirst(ctx, tx, learner, "u1", "2024-04-02")
	if err != nil || got == nil {
		t.Fatalf("GetFirst: row=%v err=%v", got, err)
	}
	if got.Score != 80 || got.ID != first.ID {
		t.Fatalf("first completion overwritten: %+v", got)
	}

	rows, err := repo.ListByKey(ctx, tx, learner, "u1", "2024-04-02")
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByKey: err=%v len=%d", err, len(rows))
	}
	if !rows[0].IsFirstCompletion || rows[1].IsFirstCompletion {
		t.Fatalf("ListByKey order: %+v %+v", rows[0], rows[1])
	}

	// Same unit on the next day is a new first completion.
	next := &types.CompletionRecord{LearnerID: learner, UnitID: "u1", DayKey: "2024-04-03", Score: 75, CompletedAt: at.Add(24 * time.Hour)}
	if ok, err := repo.InsertFirst(ctx, tx, next); err != nil || !ok {
		t.Fatalf("InsertFirst next day: ok=%v err=%v", ok, err)
	}

	firsts, err := repo.ListFirstByLearner(ctx, tx, learner)
	if err != nil || len(firsts) != 2 {
		t.Fatalf("ListFirstByLearner: err=%v len=%d", err, len(firsts))
	}
	latest, err := repo.LatestFirstCompletionAt(ctx, tx, learner)
	if err != nil || latest == nil || !latest.Equal(next.CompletedAt) {
		t.Fatalf("LatestFirstCompletionAt: %v err=%v", latest, err)
	}
	if none, err := repo.LatestFirstCompletionAt(ctx, tx, uuid.New()); err != nil || none != nil {
		t.Fatalf("LatestFirstCompletionAt unknown learner: %v err=%v", none, err)
	}

	learners, err := repo.ListLearnersWithFirstCompletions(ctx, tx, 10)
	if err != nil || len(learners) != 1 || learners[0] != learner {
		t.Fatalf("ListLearnersWithFirstCompletions: %v err=%v", learners, err)
	}
}

func TestCompletionRecordRepoPruneKeepsFirstCompletions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCompletionRecordRepo(db, testutil.Logger(t))

	learner := uuid.New()
	old := time.Date(2023, 1, 5, 9, 0, 0, 0, time.UTC)
	testutil.SeedCompletion(t, ctx, tx, learner, "u1", old, 80, true)
	testutil.SeedCompletion(t, ctx, tx, learner, "u1", old, 90, false)
	recent := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	testutil.SeedCompletion(t, ctx, tx, learner, "u1", recent, 70, false)

	n, err := repo.PruneReplaysBefore(ctx, tx, "2023-06-01")
	if err != nil || n != 1 {
		t.Fatalf("PruneReplaysBefore: n=%d err=%v", n, err)
	}
	if rows, _ := repo.ListByKey(ctx, tx, learner, "u1", "2023-01-05"); len(rows) != 1 || !rows[0].IsFirstCompletion {
		t.Fatalf("first completion pruned: %+v", rows)
	}
	if rows, _ := repo.ListByKey(ctx, tx, learner, "u1", "2024-01-05"); len(rows) != 1 {
		t.Fatalf("recent replay pruned: %+v", rows)
	}
}

func TestCompletionRecordRepoIgnoresIncompleteRows(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCompletionRecordRepo(db, testutil.Logger(t))

	if ok, err := repo.InsertFirst(ctx, tx, &types.CompletionRecord{UnitID: "u1", DayKey: "2024-01-01"}); ok || err != nil {
		t.Fatalf("InsertFirst without learner: ok=%v err=%v", ok, err)
	}
	if row, err := repo.GetFirst(ctx, tx, uuid.Nil, "u1", "2024-01-01"); row != nil || err != nil {
		t.Fatalf("GetFirst nil learner: %v %v", row, err)
	}
}
