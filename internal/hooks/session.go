package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// SessionSnapshot is the YAML summary written under .ace/sessions/ when a
// capture session ends. It is a human-readable audit trail next to the
// store, not a source of truth.
type SessionSnapshot struct {
	SessionID     string    `yaml:"session_id"`
	InteractionID string    `yaml:"interaction_id"`
	EndedAt       time.Time `yaml:"ended_at"`
	DurationMS    int64     `yaml:"duration_ms,omitempty"`
	ToolCalls     int       `yaml:"tool_calls"`
	FilesChanged  []string  `yaml:"files_changed,omitempty"`
	Type          string    `yaml:"type,omitempty"`
	Confidence    float64   `yaml:"confidence,omitempty"`
}

// WriteSessionSnapshot writes the snapshot to basePath/.ace/sessions/<session-id>.yaml.
func WriteSessionSnapshot(basePath string, input SessionEndInput, rec *models.InteractionRecord) error {
	dir := filepath.Join(basePath, ".ace", "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating sessions directory: %w", err)
	}

	files := make([]string, 0, len(rec.FileChanges))
	for _, change := range rec.FileChanges {
		files = append(files, change.Path)
	}

	snapshot := SessionSnapshot{
		SessionID:     input.SessionID,
		InteractionID: rec.ID,
		EndedAt:       time.Now().UTC(),
		DurationMS:    input.DurationMS,
		ToolCalls:     len(rec.ToolCalls),
		FilesChanged:  files,
		Type:          string(rec.Derived.ModificationType),
		Confidence:    rec.Derived.Confidence,
	}

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding session snapshot: %w", err)
	}

	name := snapshot.SessionID
	if name == "" {
		name = rec.ID
	}
	path := filepath.Join(dir, name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session snapshot: %w", err)
	}
	return nil
}
