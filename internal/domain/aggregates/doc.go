// Package aggregates defines the write boundaries of the per-learner progress
// rows (streak, confidence, pronunciation) and the typed errors they return.
//
// Contracts stay free of persistence details; implementations live in
// internal/data/aggregates.
package aggregates
