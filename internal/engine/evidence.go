package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// DefaultPromotionThreshold gates automatic promotion when the caller does
// not supply a cutoff.
const DefaultPromotionThreshold = 0.7

// weightTolerance is the rounding slack allowed when checking that
// aggregator coefficients sum to 1.0.
const weightTolerance = 0.001

// Aggregator folds heterogeneous validation evidence into a single score.
type Aggregator struct {
	weights models.AggregatorWeights
}

// NewAggregator creates an Aggregator. The per-kind coefficients must sum
// to 1.0 (within rounding); anything else is a configuration error.
func NewAggregator(weights models.AggregatorWeights) (*Aggregator, error) {
	sum := weights.TestTransition + weights.RuntimeError + weights.CodeQuality
	if sum < 1.0-weightTolerance || sum > 1.0+weightTolerance {
		return nil, fmt.Errorf("aggregator weights must sum to 1.0, got %.3f", sum)
	}
	return &Aggregator{weights: weights}, nil
}

// Score computes the validation score: each kind present contributes its
// coefficient times the mean validation_weight of its evidence; absent kinds
// contribute nothing. The empty set scores 0.0, never an error.
func (a *Aggregator) Score(evidence []models.ValidationEvidence) float64 {
	if len(evidence) == 0 {
		return 0
	}

	sums := map[models.EvidenceKind]float64{}
	counts := map[models.EvidenceKind]int{}
	for _, e := range evidence {
		sums[e.Kind()] += e.ValidationWeight()
		counts[e.Kind()]++
	}

	score := 0.0
	for kind, total := range sums {
		mean := total / float64(counts[kind])
		score += a.coefficient(kind) * mean
	}
	return clamp01(score)
}

// MeetsThreshold reports whether the evidence set clears the caller's
// cutoff. A non-positive cutoff falls back to the default.
func (a *Aggregator) MeetsThreshold(evidence []models.ValidationEvidence, cutoff float64) bool {
	if cutoff <= 0 {
		cutoff = DefaultPromotionThreshold
	}
	return a.Score(evidence) >= cutoff
}

// coefficient is the exhaustive match over the evidence variants. An
// unrecognized kind contributes nothing rather than failing.
func (a *Aggregator) coefficient(kind models.EvidenceKind) float64 {
	switch kind {
	case models.EvidenceTestTransition:
		return a.weights.TestTransition
	case models.EvidenceRuntimeError:
		return a.weights.RuntimeError
	case models.EvidenceCodeQuality:
		return a.weights.CodeQuality
	default:
		return 0
	}
}

// evidenceID derives the deterministic evidence identifier from its source
// parts, so re-deriving from identical inputs reproduces the same evidence.
func evidenceID(kind models.EvidenceKind, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// codeQualitySignals derives CodeQualityEvidence from the shape of an
// analyzed interaction's changes: net simplification and documentation
// coverage are weak but real quality signals.
func codeQualitySignals(rec *models.InteractionRecord, diffs []FileDiff) []models.ValidationEvidence {
	var out []models.ValidationEvidence

	added, removed, docAdded := 0, 0, 0
	for _, d := range diffs {
		added += d.Added
		removed += d.Removed
	}
	for _, c := range rec.FileChanges {
		_, comment, _ := changedLineKinds(c)
		docAdded += comment
	}

	if removed > added && added > 0 {
		out = append(out, models.CodeQualityEvidence{
			ID:            evidenceID(models.EvidenceCodeQuality, rec.ID, "net_simplification"),
			Weight:        0.6,
			Signal:        "net_simplification",
			Detail:        fmt.Sprintf("+%d/-%d lines", added, removed),
			InteractionID: rec.ID,
			Chunks:        rec.RelatedChunks,
		})
	}

	if docAdded >= 3 && added > 0 {
		out = append(out, models.CodeQualityEvidence{
			ID:            evidenceID(models.EvidenceCodeQuality, rec.ID, "documentation_coverage"),
			Weight:        0.4,
			Signal:        "documentation_coverage",
			Detail:        fmt.Sprintf("%d documentation lines touched", docAdded),
			InteractionID: rec.ID,
			Chunks:        rec.RelatedChunks,
		})
	}

	return out
}

// errorSignature reduces an error message to a stable one-line signature
// used to pair runtime errors across runs.
func errorSignature(message string) string {
	line := message
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		line = message[:idx]
	}
	return strings.TrimSpace(line)
}
