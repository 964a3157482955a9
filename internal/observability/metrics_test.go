package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncCompletion(CompletionFirst)
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("WritePrometheus on nil: err=%v len=%d", err, buf.Len())
	}
}

func TestWritePrometheusIncludesDomainSeries(t *testing.T) {
	m := New(0.5)
	m.ObserveAPI("POST", "/api/progress/completions", "500", 2*time.Second)
	m.ObserveAPI("POST", "/api/progress/completions", "200", 10*time.Millisecond)
	m.IncCompletion(CompletionFirst)
	m.IncCompletion(CompletionReplay)
	m.IncCompletion(CompletionReplay)
	m.IncBadgeUnlock("streak_7")
	m.ObserveAggregateOperation("progress.streak.record_qualifying_completion", "success", 3*time.Millisecond)
	m.IncAggregateConflict("progress.streak.record_qualifying_completion")
	m.ObserveRecompute("confidence", "success", 5*time.Millisecond)

	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("apiReqError: got %v", got)
	}
	if got := m.apiReqGood.Value(); got != 1 {
		t.Fatalf("apiReqGood: got %v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`lp_completions_total{outcome="replay"} 2.000000`,
		`lp_badge_unlocks_total{badge_id="streak_7"} 1.000000`,
		`lp_aggregate_conflicts_total{aggregate="progress.streak.record_qualifying_completion"} 1.000000`,
		`lp_recompute_duration_seconds_count{kind="confidence",status="success"} 1`,
		`lp_api_request_duration_seconds_bucket{method="POST",route="/api/progress/completions",status="200",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelStringEscapes(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: %s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("withLe empty")
	}
}
