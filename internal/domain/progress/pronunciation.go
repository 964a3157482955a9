package progress

import (
	"math"
	"time"
)

// PronunciationScores flattens the qualifying (> 0) scores of a set of answers.
func PronunciationScores(answers []Answer) []float64 {
	var out []float64
	for _, a := range answers {
		out = append(out, a.PronunciationScores()...)
	}
	return out
}

// ComputePronunciation rescans scores into a fresh snapshot. Zero and negative
// values mean "not scored" and are skipped. The bool reports whether a history
// entry was appended.
func ComputePronunciation(scores []float64, prev PronunciationSnapshot, at time.Time, historyCap int) (PronunciationSnapshot, bool) {
	var sum float64
	count := 0
	for _, s := range scores {
		if s <= 0 {
			continue
		}
		sum += math.Min(s, 100)
		count++
	}

	next := PronunciationSnapshot{TotalWordsPronounced: count}
	if count > 0 {
		next.OverallScore = int(math.Round(sum / float64(count)))
	}

	history := append([]PronunciationHistoryEntry(nil), prev.History...)
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Score == next.OverallScore && last.WordsCount == next.TotalWordsPronounced {
			next.History = history
			return next, false
		}
	}
	history = append(history, PronunciationHistoryEntry{
		Score:      next.OverallScore,
		WordsCount: next.TotalWordsPronounced,
		Timestamp:  at.UTC(),
	})
	next.History = CapHistory(history, historyCap)
	return next, true
}
