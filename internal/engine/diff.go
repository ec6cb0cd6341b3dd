package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// lineOp is one line of a computed diff.
type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

// FileDiff is the extractor's output for one file: a bounded human-readable
// patch plus the counts and symbol names that feed the one-line summary.
type FileDiff struct {
	Path           string
	Added          int
	Removed        int
	AddedSymbols   []string
	RemovedSymbols []string
	Patch          string
}

// Summary renders the one-line-per-file form, e.g.
// "auth.py: +2/-0 (added check_token)".
func (d FileDiff) Summary() string {
	switch {
	case d.Added == 0 && d.Removed == 0:
		return fmt.Sprintf("%s: no changes", d.Path)
	case d.Removed == 0 && len(d.RemovedSymbols) == 0 && d.Patch == "":
		return fmt.Sprintf("%s: added %d lines", d.Path, d.Added)
	case d.Added == 0 && len(d.AddedSymbols) == 0 && d.Patch == "":
		return fmt.Sprintf("%s: removed %d lines", d.Path, d.Removed)
	}
	var notes []string
	if len(d.AddedSymbols) > 0 {
		notes = append(notes, "added "+strings.Join(d.AddedSymbols, ", "))
	}
	if len(d.RemovedSymbols) > 0 {
		notes = append(notes, "removed "+strings.Join(d.RemovedSymbols, ", "))
	}
	line := fmt.Sprintf("%s: +%d/-%d", d.Path, d.Added, d.Removed)
	if len(notes) > 0 {
		line += " (" + strings.Join(notes, "; ") + ")"
	}
	return line
}

// DiffExtractor produces compact line diffs and per-file summaries. It is a
// pure function of its inputs and has no side effects.
type DiffExtractor struct {
	cfg     models.DiffConfig
	chunker *Chunker
}

// NewDiffExtractor creates a DiffExtractor. The chunker supplies the
// boundary grammar used to name added and removed units; it may be nil, in
// which case summaries carry counts only.
func NewDiffExtractor(cfg models.DiffConfig, chunker *Chunker) *DiffExtractor {
	if cfg.ContextLines <= 0 {
		cfg.ContextLines = models.DefaultEngineConfig().Diff.ContextLines
	}
	return &DiffExtractor{cfg: cfg, chunker: chunker}
}

// Extract computes the diff for one file change. An absent before means the
// file was added; an absent after means it was deleted; identical contents
// yield an empty patch and a "no changes" summary.
func (e *DiffExtractor) Extract(change models.FileChange) FileDiff {
	d := FileDiff{Path: change.Path}

	if change.Before == change.After {
		return d
	}
	if change.Before == "" {
		d.Added = len(splitLines(change.After))
		d.AddedSymbols = e.symbols(change.Path, change.After)
		return d
	}
	if change.After == "" {
		d.Removed = len(splitLines(change.Before))
		d.RemovedSymbols = e.symbols(change.Path, change.Before)
		return d
	}

	ops := lineDiff(change.Before, change.After)
	for _, op := range ops {
		switch op.op {
		case diffmatchpatch.DiffInsert:
			d.Added++
		case diffmatchpatch.DiffDelete:
			d.Removed++
		}
	}
	d.Patch = renderHunks(ops, e.cfg.ContextLines)

	before := e.symbols(change.Path, change.Before)
	after := e.symbols(change.Path, change.After)
	d.AddedSymbols = symbolDelta(after, before)
	d.RemovedSymbols = symbolDelta(before, after)
	return d
}

// ChangedAfterRanges returns the inclusive line ranges in the after content
// that differ from before, used to resolve which chunks a change touches.
func (e *DiffExtractor) ChangedAfterRanges(change models.FileChange) [][2]int {
	if change.After == "" {
		return nil
	}
	if change.Before == "" || change.Before == change.After {
		if change.Before == change.After {
			return nil
		}
		return [][2]int{{1, len(splitLines(change.After))}}
	}

	afterLen := len(splitLines(change.After))
	var ranges [][2]int
	line := 0
	start := -1
	flush := func(end int) {
		if start >= 0 {
			ranges = append(ranges, [2]int{start, end})
			start = -1
		}
	}
	for _, op := range lineDiff(change.Before, change.After) {
		switch op.op {
		case diffmatchpatch.DiffDelete:
			// Deleted lines map to the surviving line at that position;
			// trailing deletions fall back to the last remaining line.
			pos := line + 1
			if pos > afterLen {
				pos = afterLen
			}
			if start < 0 {
				start = pos
			}
			flush(pos)
		case diffmatchpatch.DiffInsert:
			line++
			if start < 0 {
				start = line
			}
		default:
			flush(line)
			line++
		}
	}
	flush(line)
	return mergeRanges(ranges)
}

// symbols returns the sorted unit names the chunker's boundary grammar finds.
func (e *DiffExtractor) symbols(path, content string) []string {
	if e.chunker == nil {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	for _, c := range e.chunker.Split(path, content) {
		if c.Symbol != "" && !seen[c.Symbol] {
			seen[c.Symbol] = true
			names = append(names, c.Symbol)
		}
	}
	sort.Strings(names)
	return names
}

// lineDiff computes a line-level diff via go-diff's line-mode optimization.
func lineDiff(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, diff := range diffs {
		for _, text := range splitLines(diff.Text) {
			ops = append(ops, lineOp{op: diff.Type, text: text})
		}
	}
	return ops
}

// renderHunks renders the classic +/- line diff, keeping at most
// contextLines unchanged lines around each change hunk and eliding the rest.
func renderHunks(ops []lineOp, contextLines int) string {
	changed := make([]bool, len(ops))
	for i, op := range ops {
		if op.op != diffmatchpatch.DiffEqual {
			changed[i] = true
		}
	}

	keep := make([]bool, len(ops))
	for i := range ops {
		if !changed[i] {
			continue
		}
		lo := i - contextLines
		if lo < 0 {
			lo = 0
		}
		hi := i + contextLines
		if hi >= len(ops) {
			hi = len(ops) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	var b strings.Builder
	elided := false
	for i, op := range ops {
		if !keep[i] {
			if !elided {
				b.WriteString("...\n")
				elided = true
			}
			continue
		}
		elided = false
		switch op.op {
		case diffmatchpatch.DiffInsert:
			b.WriteString("+ ")
		case diffmatchpatch.DiffDelete:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(op.text)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// symbolDelta returns the names present in a but not in b.
func symbolDelta(a, b []string) []string {
	in := map[string]bool{}
	for _, s := range b {
		in[s] = true
	}
	var out []string
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}

// mergeRanges merges adjacent or overlapping inclusive ranges.
func mergeRanges(ranges [][2]int) [][2]int {
	if len(ranges) <= 1 {
		return ranges
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	merged := [][2]int{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r[0] <= last[1]+1 {
			if r[1] > last[1] {
				last[1] = r[1]
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
