package engine

import (
	"testing"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

func defaultScorer() *ConfidenceScorer {
	return NewConfidenceScorer(models.DefaultEngineConfig().Scorer)
}

func TestScoreDegenerateInputs(t *testing.T) {
	if got := defaultScorer().Score(nil, nil, 0, nil); got != 0 {
		t.Errorf("empty interaction score = %v, want 0", got)
	}
}

func TestScoreVerifiedSingleFileChange(t *testing.T) {
	seq := calls("read_file", "read_file", "edit_file", "run_terminal_cmd")
	changes := []models.FileChange{{Path: "auth.go", Before: "a\n", After: "b\n"}}
	patterns := DetectPatterns(seq)

	got := defaultScorer().Score(seq, changes, 500, patterns)
	if got < 0.6 {
		t.Errorf("verified single-file change score = %v, want >= 0.6", got)
	}
	if got > 1 {
		t.Errorf("score = %v, exceeds 1", got)
	}
}

func TestScorePureExplorationStaysLow(t *testing.T) {
	seq := calls("read_file", "grep")
	patterns := DetectPatterns(seq)

	got := defaultScorer().Score(seq, nil, 200, patterns)
	if got > 0.2 {
		t.Errorf("pure exploration score = %v, want <= 0.2", got)
	}
}

func TestScoreExecWithoutEditIsWeakSignal(t *testing.T) {
	withExec := defaultScorer().Score(calls("bash"), nil, 100, DetectPatterns(calls("bash")))
	withoutExec := defaultScorer().Score(calls("read_file"), nil, 100, DetectPatterns(calls("read_file")))
	if withExec <= withoutExec {
		t.Errorf("execution should add signal: %v vs %v", withExec, withoutExec)
	}
}

func TestScoreBreadthDiminishingReturns(t *testing.T) {
	s := defaultScorer()
	change := func(n int) []models.FileChange {
		out := make([]models.FileChange, n)
		for i := range out {
			out[i] = models.FileChange{Path: "f.go", Before: "a\n", After: "b\n"}
		}
		return out
	}

	one := s.Score(nil, change(1), 0, nil)
	two := s.Score(nil, change(2), 0, nil)
	nine := s.Score(nil, change(9), 0, nil)
	ten := s.Score(nil, change(10), 0, nil)
	if !(one < two && two < nine && nine < ten) {
		t.Errorf("breadth should grow monotonically: %v, %v, %v, %v", one, two, nine, ten)
	}
	if (two - one) <= (ten - nine) {
		t.Errorf("breadth gains should diminish: early step %v, late step %v", two-one, ten-nine)
	}
}

func TestScorerNormalizesWeights(t *testing.T) {
	// Doubled weights must behave exactly like the defaults.
	doubled := NewConfidenceScorer(models.ScorerWeights{
		Verification:   0.80,
		ChangeBreadth:  0.40,
		ResponseLength: 0.30,
		Iteration:      0.50,
	})
	seq := calls("edit_file", "bash")
	changes := []models.FileChange{{Path: "f.go", Before: "a\n", After: "b\n"}}
	patterns := DetectPatterns(seq)

	want := defaultScorer().Score(seq, changes, 300, patterns)
	got := doubled.Score(seq, changes, 300, patterns)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("doubled weights score = %v, want %v", got, want)
	}
}

func TestScorerZeroWeightsFallBackToDefaults(t *testing.T) {
	s := NewConfidenceScorer(models.ScorerWeights{})
	seq := calls("edit_file", "bash")
	patterns := DetectPatterns(seq)
	if got := s.Score(seq, nil, 100, patterns); got <= 0 {
		t.Errorf("fallback scorer produced %v, want positive score", got)
	}
}
