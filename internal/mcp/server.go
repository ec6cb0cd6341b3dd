// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the context engine as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/ai-context-engine/internal/engine"
	"github.com/valter-silva-au/ai-context-engine/internal/observability"
	"github.com/valter-silva-au/ai-context-engine/internal/storage"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// Server wraps the engine and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	engine      *engine.Engine
	records     *storage.RecordStore
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server over the given engine. metricsCalc may
// be nil if observability is disabled.
func NewServer(eng *engine.Engine, records *storage.RecordStore, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine:      eng,
		records:     records,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "ace", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type recordInteractionInput struct {
	SessionID     string              `json:"session_id,omitempty" jsonschema:"the capture session this interaction belongs to"`
	PromptSummary string              `json:"prompt_summary,omitempty" jsonschema:"short summary of the user prompt"`
	Response      string              `json:"response,omitempty" jsonschema:"the assistant response text"`
	ToolCalls     []models.ToolCall   `json:"tool_calls,omitempty" jsonschema:"ordered tool call sequence"`
	FileChanges   []models.FileChange `json:"file_changes,omitempty" jsonschema:"before/after content per touched file"`
}

type interactionOutput struct {
	ID               string   `json:"id"`
	Status           string   `json:"status"`
	ModificationType string   `json:"modification_type"`
	Confidence       float64  `json:"confidence"`
	DiffSummary      string   `json:"diff_summary,omitempty"`
	ToolSequence     string   `json:"tool_sequence,omitempty"`
	ToolPatterns     []string `json:"tool_patterns,omitempty"`
	RelatedChunks    []string `json:"related_chunks,omitempty"`
}

type recordTestRunInput struct {
	Current  []models.TestRunRecord `json:"current" jsonschema:"required,test runs from the latest report"`
	Previous []models.TestRunRecord `json:"previous,omitempty" jsonschema:"test runs from the prior report, enables transition detection"`
}

type recordTestRunOutput struct {
	Stored     int      `json:"stored"`
	EvidenceID []string `json:"evidence_ids,omitempty"`
}

type computeScoreInput struct {
	EvidenceIDs []string `json:"evidence_ids" jsonschema:"required,identifiers of the evidence to aggregate"`
}

type computeScoreOutput struct {
	Score          float64 `json:"score"`
	MeetsThreshold bool    `json:"meets_threshold"`
}

type resolveLinksInput struct {
	InteractionID string `json:"interaction_id" jsonschema:"required,the interaction whose linked chunks to resolve"`
}

type chunkOutput struct {
	ID        string `json:"id"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Symbol    string `json:"symbol,omitempty"`
	Language  string `json:"language,omitempty"`
}

type resolveLinksOutput struct {
	Chunks  []chunkOutput `json:"chunks"`
	Missing []string      `json:"missing,omitempty"`
}

type promoteLearningInput struct {
	InteractionID string   `json:"interaction_id" jsonschema:"required,the interaction to promote"`
	Description   string   `json:"description,omitempty" jsonschema:"human description of the learning"`
	Pattern       string   `json:"pattern,omitempty" jsonschema:"the reusable pattern the learning captures"`
	Tags          []string `json:"tags,omitempty"`
	EvidenceIDs   []string `json:"evidence_ids,omitempty" jsonschema:"validation evidence backing the promotion"`
	Approved      bool     `json:"approved,omitempty" jsonschema:"explicit approval, bypasses the score threshold"`
}

type promoteLearningOutput struct {
	LearningID      string   `json:"learning_id"`
	ValidationScore *float64 `json:"validation_score,omitempty"`
	Message         string   `json:"message"`
}

type searchContextInput struct {
	Query string `json:"query" jsonschema:"required,substring to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of hits, defaults to 10"`
}

type searchHitOutput struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Snippet    string `json:"snippet"`
}

type searchContextOutput struct {
	Hits  []searchHitOutput `json:"hits"`
	Count int               `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	InteractionsRecorded int            `json:"interactions_recorded"`
	InteractionsByType   map[string]int `json:"interactions_by_type"`
	TransitionsDetected  int            `json:"transitions_detected"`
	FlakyDetected        int            `json:"flaky_detected"`
	LearningsPromoted    int            `json:"learnings_promoted"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "record_interaction",
		Description: "Record a completed AI-assisted interaction. Derives diff summary, tool patterns, modification type, and confidence, and links the interaction to the code chunks it touched.",
	}, s.handleRecordInteraction)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "record_test_run",
		Description: "Record test runs from a report. With a previous report supplied, fail-to-pass transitions across commits become validation evidence.",
	}, s.handleRecordTestRun)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "compute_validation_score",
		Description: "Aggregate validation evidence into a single score in [0,1] and report whether it clears the promotion threshold.",
	}, s.handleComputeScore)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "resolve_links",
		Description: "Resolve the code chunks an interaction is linked to. Chunks that have disappeared are reported as missing, not errors.",
	}, s.handleResolveLinks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "promote_learning",
		Description: "Promote a scored interaction into a durable learning. Without explicit approval the evidence must clear the configured threshold.",
	}, s.handlePromoteLearning)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "search_context",
		Description: "Search recorded learnings, interactions, and chunks by substring.",
	}, s.handleSearchContext)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: interactions recorded, transitions detected, flaky tests, promoted learnings.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleRecordInteraction(ctx context.Context, _ *gomcp.CallToolRequest, input recordInteractionInput) (*gomcp.CallToolResult, interactionOutput, error) {
	raw := models.RawInteractionEvent{
		SessionID:     input.SessionID,
		PromptSummary: input.PromptSummary,
		Response:      input.Response,
		ToolCalls:     input.ToolCalls,
		FileChanges:   input.FileChanges,
	}

	rec, err := s.engine.RecordInteraction(ctx, raw)
	if err != nil {
		return errorResult(fmt.Sprintf("recording interaction: %s", err)), interactionOutput{}, nil
	}

	return nil, interactionToOutput(rec), nil
}

func (s *Server) handleRecordTestRun(ctx context.Context, _ *gomcp.CallToolRequest, input recordTestRunInput) (*gomcp.CallToolResult, recordTestRunOutput, error) {
	if len(input.Current) == 0 {
		return errorResult("current test runs are required"), recordTestRunOutput{}, nil
	}

	stored, evidence, err := s.engine.RecordTestRun(ctx, input.Current, input.Previous)
	if err != nil {
		return errorResult(fmt.Sprintf("recording test runs: %s", err)), recordTestRunOutput{}, nil
	}

	out := recordTestRunOutput{Stored: len(stored)}
	for _, e := range evidence {
		out.EvidenceID = append(out.EvidenceID, e.EvidenceID())
	}
	return nil, out, nil
}

func (s *Server) handleComputeScore(ctx context.Context, _ *gomcp.CallToolRequest, input computeScoreInput) (*gomcp.CallToolResult, computeScoreOutput, error) {
	evidence, err := s.records.GetEvidence(ctx, input.EvidenceIDs)
	if err != nil {
		return errorResult(fmt.Sprintf("loading evidence: %s", err)), computeScoreOutput{}, nil
	}

	out := computeScoreOutput{
		Score:          s.engine.ComputeValidationScore(evidence),
		MeetsThreshold: s.engine.MeetsThreshold(evidence),
	}
	return nil, out, nil
}

func (s *Server) handleResolveLinks(ctx context.Context, _ *gomcp.CallToolRequest, input resolveLinksInput) (*gomcp.CallToolResult, resolveLinksOutput, error) {
	if input.InteractionID == "" {
		return errorResult("interaction_id is required"), resolveLinksOutput{}, nil
	}

	chunks, missing, err := s.engine.ResolveLinks(ctx, input.InteractionID)
	if err != nil {
		return errorResult(fmt.Sprintf("resolving links for %s: %s", input.InteractionID, err)), resolveLinksOutput{}, nil
	}

	out := resolveLinksOutput{Missing: missing}
	for _, chunk := range chunks {
		out.Chunks = append(out.Chunks, chunkOutput{
			ID:        chunk.ID,
			FilePath:  chunk.FilePath,
			StartLine: chunk.StartLine,
			EndLine:   chunk.EndLine,
			Symbol:    chunk.Symbol,
			Language:  chunk.Language,
		})
	}
	return nil, out, nil
}

func (s *Server) handlePromoteLearning(ctx context.Context, _ *gomcp.CallToolRequest, input promoteLearningInput) (*gomcp.CallToolResult, promoteLearningOutput, error) {
	if input.InteractionID == "" {
		return errorResult("interaction_id is required"), promoteLearningOutput{}, nil
	}

	learning, err := s.engine.PromoteLearning(ctx, engine.PromoteInput{
		InteractionID: input.InteractionID,
		Description:   input.Description,
		Pattern:       input.Pattern,
		Tags:          input.Tags,
		EvidenceIDs:   input.EvidenceIDs,
		Approved:      input.Approved,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("promoting %s: %s", input.InteractionID, err)), promoteLearningOutput{}, nil
	}

	out := promoteLearningOutput{
		LearningID:      learning.ID,
		ValidationScore: learning.ValidationScore,
		Message:         fmt.Sprintf("interaction %s promoted as learning %s", input.InteractionID, learning.ID),
	}
	return nil, out, nil
}

func (s *Server) handleSearchContext(ctx context.Context, _ *gomcp.CallToolRequest, input searchContextInput) (*gomcp.CallToolResult, searchContextOutput, error) {
	if input.Query == "" {
		return errorResult("query is required"), searchContextOutput{}, nil
	}

	hits, err := s.engine.SearchContext(ctx, input.Query, input.Limit)
	if err != nil {
		return errorResult(fmt.Sprintf("searching: %s", err)), searchContextOutput{}, nil
	}

	out := searchContextOutput{Count: len(hits)}
	for _, hit := range hits {
		out.Hits = append(out.Hits, searchHitOutput{
			Collection: hit.Collection,
			ID:         hit.ID,
			Snippet:    hit.Snippet,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		InteractionsRecorded: metrics.InteractionsRecorded,
		InteractionsByType:   metrics.InteractionsByType,
		TransitionsDetected:  metrics.TransitionsDetected,
		FlakyDetected:        metrics.FlakyDetected,
		LearningsPromoted:    metrics.LearningsPromoted,
		EventCount:           metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func interactionToOutput(rec *models.InteractionRecord) interactionOutput {
	return interactionOutput{
		ID:               rec.ID,
		Status:           string(rec.Status),
		ModificationType: string(rec.Derived.ModificationType),
		Confidence:       rec.Derived.Confidence,
		DiffSummary:      rec.Derived.DiffSummary,
		ToolSequence:     rec.Derived.ToolSequence,
		ToolPatterns:     rec.Derived.ToolPatterns,
		RelatedChunks:    rec.RelatedChunks,
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{InteractionsByType: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
