package engine

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// Feature: ai-context-engine, Property 3: Confidence Bounds
// The confidence score must stay within [0, 1] for any combination of tool
// calls, file changes, response length, and weights.
func TestProperty_ConfidenceBounds(t *testing.T) {
	toolNames := []string{
		"read_file", "edit_file", "codebase_search", "run_terminal_cmd",
		"grep", "reapply", "bash", "unknown_tool",
	}
	rapid.Check(t, func(rt *rapid.T) {
		weights := models.ScorerWeights{
			Verification:   rapid.Float64Range(0, 10).Draw(rt, "verification"),
			ChangeBreadth:  rapid.Float64Range(0, 10).Draw(rt, "breadth"),
			ResponseLength: rapid.Float64Range(0, 10).Draw(rt, "length"),
			Iteration:      rapid.Float64Range(0, 10).Draw(rt, "iteration"),
		}
		scorer := NewConfidenceScorer(weights)

		callCount := rapid.IntRange(0, 20).Draw(rt, "calls")
		seq := make([]models.ToolCall, callCount)
		nameGen := rapid.SampledFrom(toolNames)
		for i := range seq {
			seq[i] = models.ToolCall{Name: nameGen.Draw(rt, "tool")}
		}

		changeCount := rapid.IntRange(0, 30).Draw(rt, "changes")
		changes := make([]models.FileChange, changeCount)
		for i := range changes {
			changes[i] = models.FileChange{Path: "f.go", Before: "a\n", After: "b\n"}
		}

		responseLen := rapid.IntRange(0, 1_000_000).Draw(rt, "responseLen")

		got := scorer.Score(seq, changes, responseLen, DetectPatterns(seq))
		if got < 0 || got > 1 {
			t.Fatalf("score %v outside [0, 1]", got)
		}
	})
}
