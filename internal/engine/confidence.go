package engine

import (
	"math"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// ConfidenceScorer computes a single confidence value in [0, 1] for an
// interaction. It is pure and total: degenerate inputs (no tools, no
// changes, empty response) yield the defined minimum of 0.0, never an error.
type ConfidenceScorer struct {
	weights models.ScorerWeights
}

// NewConfidenceScorer creates a scorer. Weights that do not sum to a
// positive value are replaced by the defaults; otherwise they are
// normalized so the components always sum to 1.0.
func NewConfidenceScorer(weights models.ScorerWeights) *ConfidenceScorer {
	sum := weights.Verification + weights.ChangeBreadth + weights.ResponseLength + weights.Iteration
	if sum <= 0 {
		weights = models.DefaultEngineConfig().Scorer
		sum = weights.Verification + weights.ChangeBreadth + weights.ResponseLength + weights.Iteration
	}
	weights.Verification /= sum
	weights.ChangeBreadth /= sum
	weights.ResponseLength /= sum
	weights.Iteration /= sum
	return &ConfidenceScorer{weights: weights}
}

// Score combines four signals: presence of a verification step after
// editing, breadth of change with diminishing returns, log-scaled response
// length, and a detected iterative-refinement pattern. The result is
// clamped to [0, 1] by construction.
func (s *ConfidenceScorer) Score(calls []models.ToolCall, changes []models.FileChange, responseLen int, patterns []ToolPattern) float64 {
	verification := 0.0
	if HasPattern(patterns, PatternVerification) {
		verification = 1.0
	} else if hasExec(calls) {
		// Execution without a preceding edit is weaker evidence.
		verification = 0.3
	}

	// n/(n+1) gives diminishing returns as the file count grows.
	n := float64(len(changes))
	breadth := n / (n + 1)

	// log10 scaling keeps very long responses from dominating; ~10k chars
	// saturates the component.
	length := 0.0
	if responseLen > 0 {
		length = math.Log10(1+float64(responseLen)) / 4
		if length > 1 {
			length = 1
		}
	}

	iteration := 0.0
	if HasPattern(patterns, PatternIterativeEdit) {
		iteration = 1.0
	}

	score := s.weights.Verification*verification +
		s.weights.ChangeBreadth*breadth +
		s.weights.ResponseLength*length +
		s.weights.Iteration*iteration

	return clamp01(score)
}

func hasExec(calls []models.ToolCall) bool {
	for _, c := range calls {
		if classifyTool(c.Name) == roleExec {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
