package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// BaselineReader supplies the pre-session content of a file, normally the
// copy at the repository HEAD.
type BaselineReader interface {
	FileAtHead(ctx context.Context, path string) (string, error)
}

// Capturer assembles a raw interaction event at session end from the change
// tracker log, the repository baseline, and the working tree.
type Capturer struct {
	tracker  *ChangeTracker
	baseline BaselineReader
	root     string
}

// NewCapturer creates a Capturer rooted at root. baseline may be nil when
// no repository is available; before-content is then empty for every file.
func NewCapturer(root string, tracker *ChangeTracker, baseline BaselineReader) *Capturer {
	return &Capturer{tracker: tracker, baseline: baseline, root: root}
}

// Assemble drains the session change log into a RawInteractionEvent. For
// each touched file the before-content comes from the baseline and the
// after-content from the working tree; a file missing on disk is recorded
// as deleted.
func (c *Capturer) Assemble(ctx context.Context, input SessionEndInput) (models.RawInteractionEvent, error) {
	calls, err := c.tracker.Read()
	if err != nil {
		return models.RawInteractionEvent{}, fmt.Errorf("reading session changes: %w", err)
	}

	event := models.RawInteractionEvent{
		SessionID:     input.SessionID,
		Timestamp:     time.Now().UTC(),
		PromptSummary: input.PromptSummary,
		Response:      input.ResponseText,
		ToolCalls:     calls,
	}

	paths, err := c.tracker.ChangedFiles()
	if err != nil {
		return models.RawInteractionEvent{}, fmt.Errorf("listing changed files: %w", err)
	}
	for _, path := range paths {
		change := models.FileChange{Path: path}

		if c.baseline != nil {
			before, err := c.baseline.FileAtHead(ctx, path)
			if err != nil {
				return models.RawInteractionEvent{}, fmt.Errorf("baseline for %s: %w", path, err)
			}
			change.Before = before
		}

		data, err := os.ReadFile(filepath.Join(c.root, path))
		if err != nil {
			if !os.IsNotExist(err) {
				return models.RawInteractionEvent{}, fmt.Errorf("reading %s: %w", path, err)
			}
			// Deleted during the session; After stays empty.
		} else {
			change.After = string(data)
		}

		if change.Before == "" && change.After == "" {
			continue
		}
		event.FileChanges = append(event.FileChanges, change)
	}

	return event, nil
}
