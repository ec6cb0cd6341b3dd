// Package engine implements the context and validation evidence pipeline:
// diff extraction, semantic chunking, tool-sequence analysis, modification
// classification, confidence scoring, bidirectional linking, test-transition
// detection, and evidence aggregation.
//
// Every component is a pure function of its explicit inputs except the link
// manager, whose writes are idempotent set unions against the injected
// store. Nothing in this package holds global state: callers pass the store
// handle in, so tests substitute an in-memory fake.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// snippetMaxLines bounds the code context snippet derived for a record.
const snippetMaxLines = 40

// RecordStore is the persistence surface the engine needs. Implementations
// sit on the external document-plus-metadata store; all writes must be
// idempotent upserts so at-least-once retry by the caller is safe.
type RecordStore interface {
	SaveInteraction(ctx context.Context, rec *models.InteractionRecord) error
	GetInteraction(ctx context.Context, id string) (*models.InteractionRecord, error)
	ListInteractions(ctx context.Context, limit int) ([]models.InteractionRecord, error)
	SaveChunk(ctx context.Context, chunk models.CodeChunk) error
	GetChunk(ctx context.Context, id string) (*models.CodeChunk, error)
	SaveTestRun(ctx context.Context, run models.TestRunRecord) error
	SaveEvidence(ctx context.Context, evidence models.ValidationEvidence) error
	GetEvidence(ctx context.Context, ids []string) ([]models.ValidationEvidence, error)
	SaveLearning(ctx context.Context, learning models.DerivedLearning) error
	Search(ctx context.Context, query string, n int) ([]SearchResult, error)
}

// VersionControl is the slice of version-control capability the engine
// consumes: file content at a commit and the files changed between two.
type VersionControl interface {
	FileAtCommit(ctx context.Context, commit, path string) (string, error)
	ChangedFiles(ctx context.Context, from, to string) ([]string, error)
}

// EventLogger receives advisory engine events (flaky tests, missing link
// targets, recorded interactions).
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// SearchResult is one hit from the store's similarity/substring query.
type SearchResult struct {
	Collection string
	ID         string
	Snippet    string
	Score      float64
}

// Engine wires the pipeline components behind the exposed operations.
type Engine struct {
	cfg        models.EngineConfig
	store      RecordStore
	chunker    *Chunker
	differ     *DiffExtractor
	scorer     *ConfidenceScorer
	aggregator *Aggregator
	linker     *LinkManager
	detector   *TransitionDetector
	events     EventLogger
}

// New creates an Engine over the given store. vcs and events may be nil;
// transition evidence then carries run references without resolved chunks,
// and advisory conditions go unlogged.
func New(cfg models.EngineConfig, store RecordStore, vcs VersionControl, events EventLogger) (*Engine, error) {
	aggregator, err := NewAggregator(cfg.Aggregator)
	if err != nil {
		return nil, fmt.Errorf("creating aggregator: %w", err)
	}

	chunker := NewChunker(cfg.Chunker)
	differ := NewDiffExtractor(cfg.Diff, chunker)

	return &Engine{
		cfg:        cfg,
		store:      store,
		chunker:    chunker,
		differ:     differ,
		scorer:     NewConfidenceScorer(cfg.Scorer),
		aggregator: aggregator,
		linker:     NewLinkManager(store, chunker, differ, events),
		detector:   NewTransitionDetector(vcs, store, chunker, events),
		events:     events,
	}, nil
}

// Chunker exposes the engine's chunker for callers that index whole files.
func (e *Engine) Chunker() *Chunker { return e.chunker }

// Config returns the engine's effective configuration.
func (e *Engine) Config() models.EngineConfig { return e.cfg }

// RecordInteraction turns a completed raw event into a fully derived
// InteractionRecord, persists it, and links it to the chunks it touched.
// Derived fields are computed together before anything is written: a failed
// call never leaves a partially derived record behind.
func (e *Engine) RecordInteraction(ctx context.Context, raw models.RawInteractionEvent) (*models.InteractionRecord, error) {
	if err := validateRawEvent(raw); err != nil {
		return nil, err
	}

	rec := &models.InteractionRecord{
		ID:              raw.ID,
		SessionID:       raw.SessionID,
		Timestamp:       raw.Timestamp,
		PromptSummary:   raw.PromptSummary,
		ResponseSummary: raw.ResponseSummary,
		Prompt:          raw.Prompt,
		Response:        raw.Response,
		ToolCalls:       raw.ToolCalls,
		FileChanges:     raw.FileChanges,
		Status:          models.StatusCaptured,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	// Derive everything before the first write.
	diffs := make([]FileDiff, len(rec.FileChanges))
	summaries := make([]string, len(rec.FileChanges))
	for i, change := range rec.FileChanges {
		diffs[i] = e.differ.Extract(change)
		summaries[i] = diffs[i].Summary()
	}

	patterns := DetectPatterns(rec.ToolCalls)
	responseLen := len(rec.Response)
	if responseLen == 0 {
		responseLen = len(rec.ResponseSummary)
	}

	rec.Derived = models.DerivedFields{
		ContextSnippet:   buildSnippet(diffs),
		DiffSummary:      strings.Join(summaries, "\n"),
		ToolSequence:     SequenceString(rec.ToolCalls),
		ToolPatterns:     PatternStrings(patterns),
		ModificationType: ClassifyModification(rec.FileChanges, rec.PromptSummary, rec.ResponseSummary),
		Confidence:       e.scorer.Score(rec.ToolCalls, rec.FileChanges, responseLen, patterns),
	}
	rec.Status = models.StatusAnalyzed

	if _, err := e.linker.Link(ctx, rec); err != nil {
		return nil, fmt.Errorf("linking interaction: %w", err)
	}

	for _, evidence := range codeQualitySignals(rec, diffs) {
		if err := e.store.SaveEvidence(ctx, evidence); err != nil {
			return nil, fmt.Errorf("saving code quality evidence: %w", err)
		}
	}

	if e.events != nil {
		_ = e.events.LogEvent("interaction.recorded", map[string]any{
			"id":         rec.ID,
			"type":       string(rec.Derived.ModificationType),
			"confidence": rec.Derived.Confidence,
			"files":      len(rec.FileChanges),
		})
	}
	return rec, nil
}

// RecordTestRun persists the runs of a report and, when a previous report
// is supplied, emits transition evidence for tests that went from failing
// to passing across distinct commits.
func (e *Engine) RecordTestRun(ctx context.Context, current, previous []models.TestRunRecord) ([]models.TestRunRecord, []models.ValidationEvidence, error) {
	for _, run := range current {
		if err := e.store.SaveTestRun(ctx, run); err != nil {
			return nil, nil, fmt.Errorf("saving test run %s: %w", run.ID, err)
		}
	}

	if len(previous) == 0 {
		return current, nil, nil
	}

	result, err := e.detector.Detect(ctx, previous, current)
	if err != nil {
		return nil, nil, fmt.Errorf("detecting transitions: %w", err)
	}
	for _, evidence := range result.Evidence {
		if err := e.store.SaveEvidence(ctx, evidence); err != nil {
			return nil, nil, fmt.Errorf("saving evidence %s: %w", evidence.EvidenceID(), err)
		}
	}
	return current, result.Evidence, nil
}

// ComputeValidationScore folds evidence into the single validation score.
func (e *Engine) ComputeValidationScore(evidence []models.ValidationEvidence) float64 {
	return e.aggregator.Score(evidence)
}

// MeetsThreshold reports whether evidence clears the configured promotion
// threshold.
func (e *Engine) MeetsThreshold(evidence []models.ValidationEvidence) bool {
	return e.aggregator.MeetsThreshold(evidence, e.cfg.PromotionThreshold)
}

// ResolveLinks returns the chunks an interaction is linked to, plus the
// identifiers of any chunks that have since disappeared from the store.
func (e *Engine) ResolveLinks(ctx context.Context, interactionID string) ([]models.CodeChunk, []string, error) {
	result, err := e.linker.ResolveLinks(ctx, interactionID)
	if err != nil {
		return nil, nil, err
	}
	return result.Chunks, result.Missing, nil
}

// PromoteInput describes a promotion request.
type PromoteInput struct {
	InteractionID string
	Description   string
	Pattern       string
	Tags          []string
	EvidenceIDs   []string
	// Approved marks an explicit promotion by the caller. Without it the
	// engine only promotes when auto-promotion is configured and the
	// evidence clears the threshold.
	Approved bool
}

// PromoteLearning elevates a scored interaction into a DerivedLearning.
func (e *Engine) PromoteLearning(ctx context.Context, input PromoteInput) (*models.DerivedLearning, error) {
	rec, err := e.store.GetInteraction(ctx, input.InteractionID)
	if err != nil {
		return nil, fmt.Errorf("loading interaction %s: %w", input.InteractionID, err)
	}

	evidence, err := e.store.GetEvidence(ctx, input.EvidenceIDs)
	if err != nil {
		return nil, fmt.Errorf("loading evidence: %w", err)
	}
	score := e.aggregator.Score(evidence)

	if !input.Approved {
		if !e.cfg.AutoPromote {
			return nil, fmt.Errorf("promoting %s: explicit approval required: %w", input.InteractionID, ErrBelowThreshold)
		}
		if !e.aggregator.MeetsThreshold(evidence, e.cfg.PromotionThreshold) {
			return nil, fmt.Errorf("promoting %s: score %.2f: %w", input.InteractionID, score, ErrBelowThreshold)
		}
	}

	description := input.Description
	if description == "" {
		description = rec.Derived.DiffSummary
	}
	example := ""
	if len(rec.RelatedChunks) > 0 {
		example = rec.RelatedChunks[0]
	}

	learning := models.DerivedLearning{
		ID:                uuid.NewString(),
		Description:       description,
		Pattern:           input.Pattern,
		ExampleChunkID:    example,
		Tags:              input.Tags,
		Confidence:        rec.Derived.Confidence,
		EvidenceIDs:       input.EvidenceIDs,
		SourceInteraction: rec.ID,
		CreatedAt:         time.Now().UTC(),
	}
	if len(evidence) > 0 {
		learning.ValidationScore = &score
	}

	if err := e.store.SaveLearning(ctx, learning); err != nil {
		return nil, fmt.Errorf("saving learning: %w", err)
	}

	rec.Status = models.StatusPromoted
	if err := e.store.SaveInteraction(ctx, rec); err != nil {
		return nil, fmt.Errorf("updating interaction status: %w", err)
	}

	if e.events != nil {
		_ = e.events.LogEvent("learning.promoted", map[string]any{
			"learning":    learning.ID,
			"interaction": rec.ID,
			"score":       score,
		})
	}
	return &learning, nil
}

// SearchContext queries the knowledge base. Read-only pass-through to the
// store's similarity search.
func (e *Engine) SearchContext(ctx context.Context, query string, n int) ([]SearchResult, error) {
	if n <= 0 {
		n = 10
	}
	return e.store.Search(ctx, query, n)
}

// validateRawEvent rejects input the pipeline cannot interpret.
func validateRawEvent(raw models.RawInteractionEvent) error {
	for _, change := range raw.FileChanges {
		if change.Path == "" {
			return fmt.Errorf("file change with empty path: %w", ErrInputMalformed)
		}
		if !utf8.ValidString(change.Before) || !utf8.ValidString(change.After) {
			return fmt.Errorf("file %s: content is not valid UTF-8: %w", change.Path, ErrInputMalformed)
		}
	}
	return nil
}

// buildSnippet assembles the bounded code context snippet from the per-file
// patches.
func buildSnippet(diffs []FileDiff) string {
	var lines []string
	for _, d := range diffs {
		if d.Patch == "" {
			continue
		}
		lines = append(lines, "--- "+d.Path)
		lines = append(lines, strings.Split(d.Patch, "\n")...)
		if len(lines) >= snippetMaxLines {
			lines = lines[:snippetMaxLines]
			break
		}
	}
	return strings.Join(lines, "\n")
}
