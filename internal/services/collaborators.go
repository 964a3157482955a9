package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos"
	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

// UnitCatalog resolves practice units. Lookup returns nil, nil for an unknown id.
type UnitCatalog interface {
	Lookup(ctx context.Context, unitID string) (*types.PracticeUnit, error)
	LookupMany(ctx context.Context, unitIDs []string) (map[string]*types.PracticeUnit, error)
}

// AssignmentCounter reports how many units a learner was assigned and how many
// of those have a first completion.
type AssignmentCounter interface {
	Counts(ctx context.Context, learnerID uuid.UUID) (assigned int, completed int, err error)
}

type repoUnitCatalog struct {
	units repos.PracticeUnitRepo
}

func NewRepoUnitCatalog(units repos.PracticeUnitRepo) UnitCatalog {
	return &repoUnitCatalog{units: units}
}

func (c *repoUnitCatalog) Lookup(ctx context.Context, unitID string) (*types.PracticeUnit, error) {
	return c.units.Get(ctx, nil, unitID)
}

func (c *repoUnitCatalog) LookupMany(ctx context.Context, unitIDs []string) (map[string]*types.PracticeUnit, error) {
	rows, err := c.units.GetByIDs(ctx, nil, unitIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.PracticeUnit, len(rows))
	for _, u := range rows {
		if u != nil {
			out[u.ID] = u
		}
	}
	return out, nil
}

type repoAssignmentCounter struct {
	assignments repos.UnitAssignmentRepo
}

func NewRepoAssignmentCounter(assignments repos.UnitAssignmentRepo) AssignmentCounter {
	return &repoAssignmentCounter{assignments: assignments}
}

func (c *repoAssignmentCounter) Counts(ctx context.Context, learnerID uuid.UUID) (int, int, error) {
	return c.assignments.Counts(ctx, nil, learnerID)
}
