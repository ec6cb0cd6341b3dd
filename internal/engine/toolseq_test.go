package engine

import (
	"testing"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

func calls(names ...string) []models.ToolCall {
	out := make([]models.ToolCall, len(names))
	for i, n := range names {
		out[i] = models.ToolCall{Name: n}
	}
	return out
}

func TestSequenceString(t *testing.T) {
	if got := SequenceString(nil); got != "" {
		t.Errorf("empty sequence = %q, want empty string", got)
	}
	got := SequenceString(calls("read_file", "edit_file", "run_terminal_cmd"))
	want := "read_file→edit_file→run_terminal_cmd"
	if got != want {
		t.Errorf("SequenceString = %q, want %q", got, want)
	}
}

func TestDetectPatterns(t *testing.T) {
	cases := []struct {
		name  string
		calls []models.ToolCall
		want  []ToolPattern
	}{
		{
			name:  "multiple reads before edit",
			calls: calls("read_file", "read_file", "edit_file"),
			want:  []ToolPattern{PatternMultipleReads},
		},
		{
			name:  "search then edit",
			calls: calls("codebase_search", "edit_file"),
			want:  []ToolPattern{PatternSearchThenEdit},
		},
		{
			name:  "iterative edit via interleaving",
			calls: calls("edit_file", "run_terminal_cmd", "edit_file"),
			want:  []ToolPattern{PatternIterativeEdit},
		},
		{
			name:  "iterative edit via reapply",
			calls: calls("edit_file", "reapply"),
			want:  []ToolPattern{PatternIterativeEdit},
		},
		{
			name:  "pure exploration",
			calls: calls("read_file", "grep", "read_file"),
			want:  []ToolPattern{PatternExploration},
		},
		{
			name:  "execution verification",
			calls: calls("edit_file", "run_terminal_cmd"),
			want:  []ToolPattern{PatternVerification},
		},
		{
			name:  "no signal from a lone edit",
			calls: calls("edit_file"),
			want:  nil,
		},
		{
			name:  "empty sequence",
			calls: nil,
			want:  nil,
		},
	}

	for _, tc := range cases {
		got := DetectPatterns(tc.calls)
		for _, p := range tc.want {
			if !HasPattern(got, p) {
				t.Errorf("%s: missing pattern %s in %v", tc.name, p, got)
			}
		}
		for _, p := range got {
			if !HasPattern(tc.want, p) {
				t.Errorf("%s: unexpected pattern %s", tc.name, p)
			}
		}
	}
}

func TestDetectPatternsCombined(t *testing.T) {
	// A realistic debugging session: explore, edit, verify, refine, verify.
	seq := calls("grep", "read_file", "read_file", "edit_file", "run_terminal_cmd", "edit_file", "run_terminal_cmd")
	got := DetectPatterns(seq)

	for _, want := range []ToolPattern{
		PatternMultipleReads,
		PatternSearchThenEdit,
		PatternIterativeEdit,
		PatternVerification,
	} {
		if !HasPattern(got, want) {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	if HasPattern(got, PatternExploration) {
		t.Errorf("sequence with edits must not be pure exploration: %v", got)
	}
}

func TestDetectPatternsDeterministic(t *testing.T) {
	seq := calls("read_file", "grep", "edit_file", "bash")
	first := DetectPatterns(seq)
	second := DetectPatterns(seq)
	if len(first) != len(second) {
		t.Fatalf("pattern count differs across runs: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("pattern %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestClassifyToolAliases(t *testing.T) {
	cases := []struct {
		name string
		want toolRole
	}{
		{"Read", roleRead},
		{"view_file", roleRead},
		{"Grep", roleSearch},
		{"codebase_search", roleSearch},
		{"Edit", roleEdit},
		{"apply_patch", roleEdit},
		{"Write", roleEdit},
		{"run_terminal_cmd", roleExec},
		{"Bash", roleExec},
		{"WebFetch", roleOther},
	}
	for _, tc := range cases {
		if got := classifyTool(tc.name); got != tc.want {
			t.Errorf("classifyTool(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestPatternStrings(t *testing.T) {
	if got := PatternStrings(nil); got != nil {
		t.Errorf("PatternStrings(nil) = %v, want nil", got)
	}
	got := PatternStrings([]ToolPattern{PatternExploration, PatternVerification})
	if len(got) != 2 || got[0] != "pure_exploration" || got[1] != "execution_verification" {
		t.Errorf("PatternStrings = %v", got)
	}
}
