// Package progress holds the gorm repositories behind completions, sessions,
// the unit catalog and the per-learner aggregate rows.
package progress
