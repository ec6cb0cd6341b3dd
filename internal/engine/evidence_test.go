package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

func defaultAggregator(t *testing.T) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(models.DefaultEngineConfig().Aggregator)
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return agg
}

func TestNewAggregatorRejectsBadWeights(t *testing.T) {
	_, err := NewAggregator(models.AggregatorWeights{
		TestTransition: 0.5,
		RuntimeError:   0.5,
		CodeQuality:    0.5,
	})
	if err == nil {
		t.Fatal("weights summing to 1.5 must be rejected")
	}
}

func TestAggregatorEmptyEvidence(t *testing.T) {
	if got := defaultAggregator(t).Score(nil); got != 0 {
		t.Errorf("empty evidence score = %v, want 0", got)
	}
}

func TestAggregatorSingleTransition(t *testing.T) {
	evidence := []models.ValidationEvidence{
		models.TestTransitionEvidence{ID: "t1", Weight: 1.0},
	}
	got := defaultAggregator(t).Score(evidence)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("single full-weight transition score = %v, want 0.5", got)
	}
}

func TestAggregatorMixedKinds(t *testing.T) {
	evidence := []models.ValidationEvidence{
		models.TestTransitionEvidence{ID: "t1", Weight: 1.0},
		models.RuntimeErrorEvidence{ID: "r1", Weight: 0.7},
	}
	got := defaultAggregator(t).Score(evidence)
	want := 0.5*1.0 + 0.3*0.7
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("mixed evidence score = %v, want %v", got, want)
	}
}

func TestAggregatorAveragesWithinKind(t *testing.T) {
	evidence := []models.ValidationEvidence{
		models.TestTransitionEvidence{ID: "t1", Weight: 1.0},
		models.TestTransitionEvidence{ID: "t2", Weight: 0.5},
	}
	got := defaultAggregator(t).Score(evidence)
	want := 0.5 * 0.75
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("two transitions score = %v, want mean-based %v", got, want)
	}
}

func TestMeetsThreshold(t *testing.T) {
	agg := defaultAggregator(t)
	strong := []models.ValidationEvidence{
		models.TestTransitionEvidence{ID: "t1", Weight: 1.0},
		models.RuntimeErrorEvidence{ID: "r1", Weight: 0.7},
	}
	if !agg.MeetsThreshold(strong, 0.7) {
		t.Error("transition plus runtime error should clear 0.7")
	}
	weak := []models.ValidationEvidence{
		models.CodeQualityEvidence{ID: "q1", Weight: 0.6},
	}
	if agg.MeetsThreshold(weak, 0.7) {
		t.Error("a lone quality signal must not clear 0.7")
	}
	// Non-positive cutoff falls back to the default threshold.
	if agg.MeetsThreshold(weak, 0) {
		t.Error("fallback threshold should reject a lone quality signal")
	}
}

func TestEvidenceIDDeterministic(t *testing.T) {
	a := evidenceID(models.EvidenceTestTransition, "auth_test.go::TestLogin", "aaa", "bbb")
	b := evidenceID(models.EvidenceTestTransition, "auth_test.go::TestLogin", "aaa", "bbb")
	if a != b {
		t.Errorf("identical inputs yielded %s and %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("ID length = %d, want 16", len(a))
	}
	c := evidenceID(models.EvidenceTestTransition, "auth_test.go::TestLogin", "aaa", "ccc")
	if a == c {
		t.Error("different commits must yield different IDs")
	}
	d := evidenceID(models.EvidenceRuntimeError, "auth_test.go::TestLogin", "aaa", "bbb")
	if a == d {
		t.Error("kind must contribute to the ID")
	}
}

func TestCodeQualitySignals(t *testing.T) {
	rec := &models.InteractionRecord{
		ID: "rec-1",
		FileChanges: []models.FileChange{{
			Path:   "util.go",
			Before: "a\nb\nc\nd\ne\nf\n",
			After:  "a\ng\n",
		}},
	}
	diffs := []FileDiff{{Path: "util.go", Added: 1, Removed: 5}}

	evidence := codeQualitySignals(rec, diffs)
	if len(evidence) != 1 {
		t.Fatalf("expected one simplification signal, got %d", len(evidence))
	}
	quality, ok := evidence[0].(models.CodeQualityEvidence)
	if !ok {
		t.Fatalf("evidence type = %T, want CodeQualityEvidence", evidence[0])
	}
	if quality.Signal != "net_simplification" {
		t.Errorf("signal = %q, want net_simplification", quality.Signal)
	}
	if quality.InteractionID != "rec-1" {
		t.Errorf("interaction = %q, want rec-1", quality.InteractionID)
	}

	again := codeQualitySignals(rec, diffs)
	if again[0].EvidenceID() != evidence[0].EvidenceID() {
		t.Error("re-derivation must reproduce the same evidence ID")
	}
}

func TestCodeQualitySignalsDocumentation(t *testing.T) {
	rec := &models.InteractionRecord{
		ID: "rec-2",
		FileChanges: []models.FileChange{{
			Path:  "api.go",
			After: "// ServeHTTP handles one request.\n// It never panics.\n// Errors map to status codes.\nfunc ServeHTTP() {}\n",
		}},
	}
	diffs := []FileDiff{{Path: "api.go", Added: 4}}

	evidence := codeQualitySignals(rec, diffs)
	if len(evidence) != 1 {
		t.Fatalf("expected one documentation signal, got %d", len(evidence))
	}
	if q := evidence[0].(models.CodeQualityEvidence); q.Signal != "documentation_coverage" {
		t.Errorf("signal = %q, want documentation_coverage", q.Signal)
	}
}

func TestErrorSignature(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"panic: nil deref", "panic: nil deref"},
		{"panic: nil deref\ngoroutine 1 [running]:\nmain.go:10", "panic: nil deref"},
	}
	for _, tc := range cases {
		if got := errorSignature(tc.in); got != tc.want {
			t.Errorf("errorSignature(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAggregatorScoreErrorMessageNamesSum(t *testing.T) {
	_, err := NewAggregator(models.AggregatorWeights{TestTransition: 0.2})
	if err == nil || !strings.Contains(err.Error(), "sum") {
		t.Errorf("error should mention the weight sum, got %v", err)
	}
}
