package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

func TestStreakStateRepoCreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewStreakStateRepo(db, testutil.Logger(t))

	learner := uuid.New()
	if row, err := repo.GetByLearner(ctx, tx, learner); err != nil || row != nil {
		t.Fatalf("GetByLearner empty: %v err=%v", row, err)
	}

	created, err := repo.CreateIfAbsent(ctx, tx, &types.StreakState{LearnerID: learner, CurrentStreak: 1})
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent: created=%v err=%v", created, err)
	}
	created, err = repo.CreateIfAbsent(ctx, tx, &types.StreakState{LearnerID: learner, CurrentStreak: 9})
	if err != nil || created {
		t.Fatalf("CreateIfAbsent duplicate: created=%v err=%v", created, err)
	}

	row, err := repo.GetByLearner(ctx, tx, learner)
	if err != nil || row == nil || row.CurrentStreak != 1 {
		t.Fatalf("GetByLearner: %+v err=%v", row, err)
	}
}

func TestConfidenceAndPronunciationStateRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)
	learner := uuid.New()

	conf := NewConfidenceStateRepo(db, log)
	if ok, err := conf.CreateIfAbsent(ctx, tx, &types.ConfidenceState{LearnerID: learner, ConfidenceScore: 42, Label: "Developing"}); err != nil || !ok {
		t.Fatalf("confidence CreateIfAbsent: ok=%v err=%v", ok, err)
	}
	if row, err := conf.GetByLearner(ctx, tx, learner); err != nil || row == nil || row.ConfidenceScore != 42 {
		t.Fatalf("confidence GetByLearner: %+v err=%v", row, err)
	}

	pron := NewPronunciationStateRepo(db, log)
	if ok, err := pron.CreateIfAbsent(ctx, tx, &types.PronunciationState{LearnerID: learner, OverallScore: 77}); err != nil || !ok {
		t.Fatalf("pronunciation CreateIfAbsent: ok=%v err=%v", ok, err)
	}
	if row, err := pron.GetByLearner(ctx, tx, learner); err != nil || row == nil || row.OverallScore != 77 {
		t.Fatalf("pronunciation GetByLearner: %+v err=%v", row, err)
	}
}
