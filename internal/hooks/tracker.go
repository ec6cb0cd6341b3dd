package hooks

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

const sessionChangesFile = ".ace_session_changes"

// ChangeTracker manages the append-only session change log that the
// PostToolUse hook writes and the SessionEnd hook drains.
type ChangeTracker struct {
	filePath string
}

// NewChangeTracker creates a tracker that stores changes in basePath/.ace_session_changes.
func NewChangeTracker(basePath string) *ChangeTracker {
	return &ChangeTracker{
		filePath: filepath.Join(basePath, sessionChangesFile),
	}
}

// Append adds a tool call entry to the session change log.
// Format per line: timestamp|tool|filepath
func (t *ChangeTracker) Append(call models.ToolCall) error {
	if call.Timestamp == 0 {
		call.Timestamp = time.Now().UTC().Unix()
	}
	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening change tracker: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%d|%s|%s\n", call.Timestamp, call.Name, call.FilePath)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing change entry: %w", err)
	}
	return nil
}

// Read returns all tool calls from the session change log in append order.
func (t *ChangeTracker) Read() ([]models.ToolCall, error) {
	f, err := os.Open(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening change tracker: %w", err)
	}
	defer f.Close()

	var calls []models.ToolCall
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue // Skip malformed lines.
		}
		ts, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		calls = append(calls, models.ToolCall{
			Timestamp: ts,
			Name:      parts[1],
			FilePath:  parts[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return calls, fmt.Errorf("reading change tracker: %w", err)
	}
	return calls, nil
}

// ChangedFiles returns the unique file paths touched by edit-like tools,
// in first-touch order.
func (t *ChangeTracker) ChangedFiles() ([]string, error) {
	calls, err := t.Read()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var paths []string
	for _, call := range calls {
		if call.FilePath == "" || seen[call.FilePath] {
			continue
		}
		seen[call.FilePath] = true
		paths = append(paths, call.FilePath)
	}
	return paths, nil
}

// Cleanup removes the session change log file.
func (t *ChangeTracker) Cleanup() error {
	if err := os.Remove(t.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cleaning up change tracker: %w", err)
	}
	return nil
}
