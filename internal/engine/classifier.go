package engine

import (
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// changeShape aggregates what the classifier's predicates look at: the
// changed paths plus the code/comment split of the changed lines.
type changeShape struct {
	changes      []models.FileChange
	summary      string
	codeLines    int
	commentLines int
	blankLines   int
}

// classificationRule is one predicate → label pair. Rules are evaluated in
// order; the first match wins.
type classificationRule struct {
	label models.ModificationType
	match func(shape changeShape) bool
}

// classificationRules is the ordered rule table. It lives in data rather
// than control flow so individual rules can be tested and extended without
// touching the classifier.
var classificationRules = []classificationRule{
	{models.ModTest, func(s changeShape) bool {
		if len(s.changes) == 0 {
			return false
		}
		for _, c := range s.changes {
			if !isTestPath(c.Path) {
				return false
			}
		}
		return true
	}},
	{models.ModTest, func(s changeShape) bool {
		for _, c := range s.changes {
			if c.Before == "" && c.After != "" && isTestPath(c.Path) {
				return true
			}
		}
		return false
	}},
	{models.ModDocumentation, func(s changeShape) bool {
		if len(s.changes) == 0 {
			return false
		}
		docOnly := true
		for _, c := range s.changes {
			if !isDocPath(c.Path) {
				docOnly = false
				break
			}
		}
		if docOnly {
			return true
		}
		return s.codeLines == 0 && s.commentLines > 0
	}},
	{models.ModConfig, func(s changeShape) bool {
		if len(s.changes) == 0 {
			return false
		}
		for _, c := range s.changes {
			if !isConfigPath(c.Path) {
				return false
			}
		}
		return true
	}},
	{models.ModStyle, func(s changeShape) bool {
		if hasKeyword(s.summary, "format", "formatting", "lint", "whitespace", "style") {
			return true
		}
		return len(s.changes) > 0 && s.codeLines == 0 && s.commentLines == 0 && s.blankLines > 0
	}},
	{models.ModBugfix, func(s changeShape) bool {
		return hasKeyword(s.summary, "fix", "bug", "crash", "error", "null", "nil", "issue", "broken", "fail", "regression")
	}},
	{models.ModOptimization, func(s changeShape) bool {
		return hasKeyword(s.summary, "optimize", "optimization", "performance", "perf", "faster", "slow", "speed", "cache", "latency")
	}},
	{models.ModRefactor, func(s changeShape) bool {
		return hasKeyword(s.summary, "refactor", "rename", "restructure", "extract", "simplify", "clean up", "cleanup", "reorganize", "move")
	}},
	{models.ModFeature, func(s changeShape) bool {
		return hasKeyword(s.summary, "add", "implement", "new", "support", "introduce", "create", "feature")
	}},
	{models.ModDocumentation, func(s changeShape) bool {
		return hasKeyword(s.summary, "document", "docs", "comment", "readme", "docstring")
	}},
}

// ClassifyModification assigns exactly one modification type from the file
// changes and the prompt/response summaries. Ambiguity is not an error: when
// no rule matches, the result is ModUnknown.
func ClassifyModification(changes []models.FileChange, promptSummary, responseSummary string) models.ModificationType {
	shape := changeShape{
		changes: changes,
		summary: strings.ToLower(promptSummary + " " + responseSummary),
	}
	for _, c := range changes {
		code, comment, blank := changedLineKinds(c)
		shape.codeLines += code
		shape.commentLines += comment
		shape.blankLines += blank
	}

	for _, rule := range classificationRules {
		if rule.match(shape) {
			return rule.label
		}
	}
	return models.ModUnknown
}

// changedLineKinds counts the changed lines of one file by kind.
func changedLineKinds(change models.FileChange) (code, comment, blank int) {
	count := func(text string) {
		for _, line := range splitLines(text) {
			switch {
			case strings.TrimSpace(line) == "":
				blank++
			case isCommentLine(line):
				comment++
			default:
				code++
			}
		}
	}

	if change.Before == change.After {
		return
	}
	if change.Before == "" {
		count(change.After)
		return
	}
	if change.After == "" {
		count(change.Before)
		return
	}
	for _, op := range lineDiff(change.Before, change.After) {
		if op.op == diffmatchpatch.DiffEqual {
			continue
		}
		switch {
		case strings.TrimSpace(op.text) == "":
			blank++
		case isCommentLine(op.text):
			comment++
		default:
			code++
		}
	}
	return
}

var commentPrefixes = []string{"//", "#", "/*", "*", "*/", "--", "'''", `"""`, "<!--"}

func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func isTestPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	dir := strings.ToLower(filepath.ToSlash(filepath.Dir(path)))
	if strings.HasSuffix(base, "_test.go") ||
		strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, ".test.js") || strings.HasSuffix(base, ".test.ts") ||
		strings.HasSuffix(base, ".spec.js") || strings.HasSuffix(base, ".spec.ts") {
		return true
	}
	for _, segment := range strings.Split(dir, "/") {
		if segment == "test" || segment == "tests" || segment == "__tests__" || segment == "spec" {
			return true
		}
	}
	return false
}

func isDocPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".rst", ".txt", ".adoc":
		return true
	}
	return false
}

var configBasenames = map[string]bool{
	"makefile":         true,
	"dockerfile":       true,
	"go.mod":           true,
	"go.sum":           true,
	"package.json":     true,
	"pyproject.toml":   true,
	"requirements.txt": true,
	".gitignore":       true,
}

func isConfigPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if configBasenames[base] {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml", ".ini", ".env", ".conf", ".cfg", ".json":
		return true
	}
	return false
}

func hasKeyword(summary string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(summary, kw) {
			return true
		}
	}
	return false
}
