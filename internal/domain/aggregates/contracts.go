package aggregates

// WriteTxOwnership says who opens and commits the transaction around a write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: the aggregate opens its own transaction per write call.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate may serve.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the row the write decision depends on.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries: views and scans go through the table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

var StreakAggregateContract = Contract{
	Name:             "Progress.StreakAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the per-learner streak row: counter transitions, append-only badges and the weekday activity cache.",
}

var ConfidenceAggregateContract = Contract{
	Name:             "Progress.ConfidenceAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyTableRepoQueries,
	Notes:            "Replaces the per-learner confidence row from a full recompute; history grows by one entry per new source watermark.",
}

var PronunciationAggregateContract = Contract{
	Name:             "Progress.PronunciationAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyTableRepoQueries,
	Notes:            "Replaces the per-learner pronunciation row from a full rescan of qualifying word and scene scores.",
}

// ProgressContracts lists every aggregate that writes learner progress rows.
func ProgressContracts() []Contract {
	return []Contract{StreakAggregateContract, ConfidenceAggregateContract, PronunciationAggregateContract}
}
