// Package models defines the shared data types for the AI Context Engine:
// interaction records, code chunks, test runs, validation evidence, and
// derived learnings.
package models

import "time"

// InteractionStatus is the lifecycle status of an InteractionRecord.
type InteractionStatus string

const (
	StatusCaptured InteractionStatus = "captured"
	StatusAnalyzed InteractionStatus = "analyzed"
	StatusPromoted InteractionStatus = "promoted"
	StatusIgnored  InteractionStatus = "ignored"
)

// IsValid checks if the status is one of the defined lifecycle statuses.
func (s InteractionStatus) IsValid() bool {
	switch s {
	case StatusCaptured, StatusAnalyzed, StatusPromoted, StatusIgnored:
		return true
	default:
		return false
	}
}

// ToolCall is one entry in an interaction's ordered tool-call sequence.
type ToolCall struct {
	Name      string `json:"name"`
	FilePath  string `json:"file_path,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// FileChange holds the before and after contents of one file touched
// during an interaction. Before is empty for new files, After is empty
// for deleted files.
type FileChange struct {
	Path   string `json:"path"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// ModificationType classifies what kind of change an interaction made.
type ModificationType string

const (
	ModRefactor      ModificationType = "refactor"
	ModBugfix        ModificationType = "bugfix"
	ModFeature       ModificationType = "feature"
	ModDocumentation ModificationType = "documentation"
	ModOptimization  ModificationType = "optimization"
	ModTest          ModificationType = "test"
	ModConfig        ModificationType = "config"
	ModStyle         ModificationType = "style"
	ModUnknown       ModificationType = "unknown"
)

// DerivedFields holds everything the engine computes from a raw interaction.
// They are produced together: a record either carries the full set or none.
type DerivedFields struct {
	ContextSnippet   string           `json:"context_snippet,omitempty"`
	DiffSummary      string           `json:"diff_summary,omitempty"`
	ToolSequence     string           `json:"tool_sequence,omitempty"`
	ToolPatterns     []string         `json:"tool_patterns,omitempty"`
	ModificationType ModificationType `json:"modification_type"`
	Confidence       float64          `json:"confidence"`
}

// InteractionRecord is one logged AI-assisted exchange, plus the fields
// derived from it. Records are never deleted by the engine; only the status
// transitions and the related-chunk set are mutated after creation.
type InteractionRecord struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"session_id,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
	PromptSummary   string            `json:"prompt_summary,omitempty"`
	ResponseSummary string            `json:"response_summary,omitempty"`
	Prompt          string            `json:"prompt,omitempty"`
	Response        string            `json:"response,omitempty"`
	ToolCalls       []ToolCall        `json:"tool_calls,omitempty"`
	FileChanges     []FileChange      `json:"file_changes,omitempty"`
	Derived         DerivedFields     `json:"derived"`
	RelatedChunks   []string          `json:"related_chunks,omitempty"`
	Status          InteractionStatus `json:"status"`
}

// RawInteractionEvent is the caller-supplied input to record_interaction:
// a completed exchange before any derived fields exist.
type RawInteractionEvent struct {
	ID              string       `json:"id,omitempty"`
	SessionID       string       `json:"session_id,omitempty"`
	Timestamp       time.Time    `json:"timestamp,omitempty"`
	PromptSummary   string       `json:"prompt_summary,omitempty"`
	ResponseSummary string       `json:"response_summary,omitempty"`
	Prompt          string       `json:"prompt,omitempty"`
	Response        string       `json:"response,omitempty"`
	ToolCalls       []ToolCall   `json:"tool_calls,omitempty"`
	FileChanges     []FileChange `json:"file_changes,omitempty"`
}
