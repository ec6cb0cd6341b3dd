package engine

import (
	"strings"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// ToolPattern names one entry of the fixed tool-usage taxonomy.
type ToolPattern string

const (
	PatternMultipleReads  ToolPattern = "multiple_reads_before_edit"
	PatternSearchThenEdit ToolPattern = "search_then_edit"
	PatternIterativeEdit  ToolPattern = "iterative_edit"
	PatternExploration    ToolPattern = "pure_exploration"
	PatternVerification   ToolPattern = "execution_verification"
)

// toolRole buckets tool names into the roles the pattern rules reason about.
type toolRole int

const (
	roleOther toolRole = iota
	roleRead
	roleSearch
	roleEdit
	roleExec
)

// roleTable maps known tool-name fragments to roles. Matching is
// case-insensitive on substrings so the common aliases across assistants
// (read_file/Read/view, edit_file/Edit/apply_patch, run_terminal_cmd/Bash)
// all land in the right bucket.
var roleTable = []struct {
	fragment string
	role     toolRole
}{
	{"reapply", roleEdit},
	{"apply_patch", roleEdit},
	{"edit", roleEdit},
	{"write", roleEdit},
	{"patch", roleEdit},
	{"codebase_search", roleSearch},
	{"grep", roleSearch},
	{"glob", roleSearch},
	{"search", roleSearch},
	{"find", roleSearch},
	{"read", roleRead},
	{"view", roleRead},
	{"cat", roleRead},
	{"open_file", roleRead},
	{"terminal", roleExec},
	{"bash", roleExec},
	{"shell", roleExec},
	{"exec", roleExec},
	{"run", roleExec},
	{"test", roleExec},
}

func classifyTool(name string) toolRole {
	lower := strings.ToLower(name)
	for _, entry := range roleTable {
		if strings.Contains(lower, entry.fragment) {
			return entry.role
		}
	}
	return roleOther
}

// SequenceString joins the ordered tool names into the compact arrow form,
// e.g. "read_file→edit_file→run_terminal_cmd".
func SequenceString(calls []models.ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return strings.Join(names, "→")
}

// DetectPatterns matches the fixed taxonomy against the ordered tool
// sequence using adjacency and frequency rules. Pure rule matching, no
// learning; the same sequence always yields the same patterns.
func DetectPatterns(calls []models.ToolCall) []ToolPattern {
	if len(calls) == 0 {
		return nil
	}

	roles := make([]toolRole, len(calls))
	for i, c := range calls {
		roles[i] = classifyTool(c.Name)
	}

	firstEdit := -1
	edits, reads, searches := 0, 0, 0
	for i, r := range roles {
		switch r {
		case roleEdit:
			if firstEdit < 0 {
				firstEdit = i
			}
			edits++
		case roleRead:
			reads++
		case roleSearch:
			searches++
		}
	}

	var patterns []ToolPattern

	// Two or more reads before the first edit.
	if firstEdit > 0 {
		readsBefore := 0
		for _, r := range roles[:firstEdit] {
			if r == roleRead {
				readsBefore++
			}
		}
		if readsBefore >= 2 {
			patterns = append(patterns, PatternMultipleReads)
		}
	}

	// A search with an edit somewhere after it.
	if firstEdit >= 0 {
		for i, r := range roles {
			if r == roleSearch && i < lastIndex(roles, roleEdit) {
				patterns = append(patterns, PatternSearchThenEdit)
				break
			}
		}
	}

	// Edits interleaved with reads or executions: edit ... (read|exec) ... edit,
	// or an explicit reapply tool.
	if edits >= 2 {
		if hasInterleavedEdits(roles) || hasReapply(calls) {
			patterns = append(patterns, PatternIterativeEdit)
		}
	} else if hasReapply(calls) {
		patterns = append(patterns, PatternIterativeEdit)
	}

	// Reads or searches with no edits at all.
	if edits == 0 && (reads > 0 || searches > 0) {
		patterns = append(patterns, PatternExploration)
	}

	// An execution after the last edit.
	if firstEdit >= 0 && lastIndex(roles, roleExec) > lastIndex(roles, roleEdit) {
		patterns = append(patterns, PatternVerification)
	}

	return patterns
}

// HasPattern reports whether p is among the detected patterns.
func HasPattern(patterns []ToolPattern, p ToolPattern) bool {
	for _, candidate := range patterns {
		if candidate == p {
			return true
		}
	}
	return false
}

// PatternStrings converts patterns to their string form for storage.
func PatternStrings(patterns []ToolPattern) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = string(p)
	}
	return out
}

func lastIndex(roles []toolRole, role toolRole) int {
	last := -1
	for i, r := range roles {
		if r == role {
			last = i
		}
	}
	return last
}

func hasInterleavedEdits(roles []toolRole) bool {
	seenEdit := false
	betweenOther := false
	for _, r := range roles {
		switch r {
		case roleEdit:
			if seenEdit && betweenOther {
				return true
			}
			seenEdit = true
			betweenOther = false
		case roleRead, roleExec:
			if seenEdit {
				betweenOther = true
			}
		}
	}
	return false
}

func hasReapply(calls []models.ToolCall) bool {
	for _, c := range calls {
		if strings.Contains(strings.ToLower(c.Name), "reapply") {
			return true
		}
	}
	return false
}
