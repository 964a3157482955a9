package progress

import "time"

// ConfidenceAttempt is one first completion as seen by the confidence recompute.
type ConfidenceAttempt struct {
	Score         float64
	Pronunciation bool
}

type ConfidenceInput struct {
	AssignedUnits  int
	CompletedUnits int
	Attempts       []ConfidenceAttempt
	At             time.Time
	// SameSource marks a recompute over the inputs prev was already computed from.
	SameSource bool
}

// ComputeConfidence recomputes the confidence snapshot from scratch. The
// returned bool reports whether a history entry was appended. Every new
// qualifying event appends one; a SameSource recompute keeps history and trend.
func ComputeConfidence(in ConfidenceInput, prev ConfidenceSnapshot, p Policy) (ConfidenceSnapshot, bool) {
	next := ConfidenceSnapshot{
		AssignedUnits:  maxInt(in.AssignedUnits, 0),
		CompletedUnits: maxInt(in.CompletedUnits, 0),
	}

	if next.AssignedUnits > 0 {
		next.CompletionRate = clamp(float64(next.CompletedUnits)/float64(next.AssignedUnits), 0, 1)
	}
	next.CompletionContribution = next.CompletionRate * CompletionWeight

	var pronSum, corrSum float64
	var pronN, corrN int
	for _, a := range in.Attempts {
		s := clamp(a.Score, 0, 100)
		if a.Pronunciation {
			pronSum += s
			pronN++
		} else {
			corrSum += s
			corrN++
		}
	}
	if pronN > 0 {
		next.PronunciationAverage = pronSum / float64(pronN)
	}
	if corrN > 0 {
		next.CorrectnessAverage = corrSum / float64(corrN)
	}
	pw, cw := nonNegative(p.PronunciationWeight), nonNegative(p.CorrectnessWeight)
	if den := pw*float64(pronN) + cw*float64(corrN); den > 0 {
		next.QualityScore = clamp((pw*pronSum+cw*corrSum)/den, 0, 100)
	}
	next.QualityContribution = next.QualityScore * QualityWeight

	// Both contributions are already bounded, so the sum stays within [0,100].
	next.ConfidenceScore = next.CompletionContribution + next.QualityContribution
	next.Label = p.LabelFor(next.ConfidenceScore)

	history := append([]ConfidenceHistoryEntry(nil), prev.History...)
	if n := len(history); n > 0 {
		if in.SameSource {
			next.Trend = prev.Trend
			if next.Trend == "" {
				next.Trend = TrendStable
			}
			next.History = history
			return next, false
		}
		next.Trend = trendBetween(history[n-1].Score, next.ConfidenceScore, p.TrendEpsilon)
	} else {
		next.Trend = TrendStable
	}

	history = append(history, ConfidenceHistoryEntry{
		Score:          next.ConfidenceScore,
		Label:          next.Label,
		Timestamp:      in.At.UTC(),
		CompletedUnits: next.CompletedUnits,
	})
	next.History = CapHistory(history, p.ConfidenceHistoryCap)
	return next, true
}

func trendBetween(prev, cur, epsilon float64) Trend {
	switch d := cur - prev; {
	case d > epsilon:
		return TrendImproving
	case d < -epsilon:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// CapHistory keeps the newest limit entries in their original order.
func CapHistory[T any](history []T, limit int) []T {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	out := make([]T, limit)
	copy(out, history[len(history)-limit:])
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
