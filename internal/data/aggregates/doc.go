// Package aggregates implements the per-learner progress aggregates.
//
// Each write composes the table repos from internal/data/repos/progress inside
// one transaction and guards the row with a version compare-and-set; lost races
// are retried a bounded number of times.
package aggregates
