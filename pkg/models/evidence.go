package models

// EvidenceKind discriminates the validation evidence variants.
type EvidenceKind string

const (
	EvidenceTestTransition EvidenceKind = "test_transition"
	EvidenceRuntimeError   EvidenceKind = "runtime_error"
	EvidenceCodeQuality    EvidenceKind = "code_quality"
)

// ValidationEvidence is the tagged-variant interface over the three evidence
// kinds. Evidence is immutable once created, carries no timestamps or random
// identifiers, and re-deriving it from identical inputs yields a bit-identical
// value, so deduplication is a plain ID comparison.
type ValidationEvidence interface {
	// EvidenceID is a deterministic identifier derived from the evidence's
	// source records.
	EvidenceID() string
	// Kind returns the variant tag.
	Kind() EvidenceKind
	// ValidationWeight is the evidence's own strength in [0, 1], before the
	// aggregator applies per-kind coefficients.
	ValidationWeight() float64
}

// TestTransitionEvidence records a test moving from failing to passing across
// two distinct commits, the strongest signal that a code change was a
// validated fix.
type TestTransitionEvidence struct {
	ID            string   `json:"id"`
	Weight        float64  `json:"validation_weight"`
	TestFile      string   `json:"test_file"`
	TestName      string   `json:"test_name"`
	FailedRunID   string   `json:"failed_run_id"`
	PassedRunID   string   `json:"passed_run_id"`
	FromCommit    string   `json:"from_commit"`
	ToCommit      string   `json:"to_commit"`
	ChangedChunks []string `json:"changed_chunks,omitempty"`
	Interactions  []string `json:"interactions,omitempty"`
}

func (e TestTransitionEvidence) EvidenceID() string        { return e.ID }
func (e TestTransitionEvidence) Kind() EvidenceKind        { return EvidenceTestTransition }
func (e TestTransitionEvidence) ValidationWeight() float64 { return e.Weight }

// RuntimeErrorEvidence records a runtime error signature that stopped
// occurring after a code change.
type RuntimeErrorEvidence struct {
	ID             string   `json:"id"`
	Weight         float64  `json:"validation_weight"`
	ErrorSignature string   `json:"error_signature"`
	FirstSeenRunID string   `json:"first_seen_run_id,omitempty"`
	ResolvedRunID  string   `json:"resolved_run_id,omitempty"`
	Interactions   []string `json:"interactions,omitempty"`
}

func (e RuntimeErrorEvidence) EvidenceID() string        { return e.ID }
func (e RuntimeErrorEvidence) Kind() EvidenceKind        { return EvidenceRuntimeError }
func (e RuntimeErrorEvidence) ValidationWeight() float64 { return e.Weight }

// CodeQualityEvidence records a measurable quality signal in the shape of a
// change itself (net simplification, documentation coverage, and similar).
type CodeQualityEvidence struct {
	ID            string   `json:"id"`
	Weight        float64  `json:"validation_weight"`
	Signal        string   `json:"signal"`
	Detail        string   `json:"detail,omitempty"`
	InteractionID string   `json:"interaction_id,omitempty"`
	Chunks        []string `json:"chunks,omitempty"`
}

func (e CodeQualityEvidence) EvidenceID() string        { return e.ID }
func (e CodeQualityEvidence) Kind() EvidenceKind        { return EvidenceCodeQuality }
func (e CodeQualityEvidence) ValidationWeight() float64 { return e.Weight }
