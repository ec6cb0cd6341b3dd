package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// boundaryPattern recognizes the start of one logical unit (function, method,
// class) in a given language. The pattern must anchor at line start and may
// capture the unit's name in the group named "sym".
type boundaryPattern struct {
	re *regexp.Regexp
}

// languageSpec holds the boundary grammar for one language tag.
type languageSpec struct {
	boundaries []boundaryPattern
}

// languageRegistry maps a language tag to its boundary grammar. Languages not
// present here always take the fallback line-window path.
var languageRegistry = map[string]languageSpec{
	"go": {boundaries: compilePatterns(
		`^func\s+(?:\([^)]+\)\s+)?(?P<sym>\w+)`,
		`^type\s+(?P<sym>\w+)\s+(?:struct|interface)\b`,
	)},
	"python": {boundaries: compilePatterns(
		`^(?P<indent>\s*)def\s+(?P<sym>\w+)\s*\(`,
		`^(?P<indent>\s*)async\s+def\s+(?P<sym>\w+)\s*\(`,
		`^(?P<indent>\s*)class\s+(?P<sym>\w+)\s*[(:]`,
	)},
	"javascript": {boundaries: compilePatterns(
		`^(?P<indent>\s*)(?:export\s+)?(?:async\s+)?function\s*\*?\s*(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:export\s+)?class\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:export\s+)?(?:const|let|var)\s+(?P<sym>\w+)\s*=\s*(?:async\s+)?(?:function\b|\()`,
	)},
	"typescript": {boundaries: compilePatterns(
		`^(?P<indent>\s*)(?:export\s+)?(?:async\s+)?function\s*\*?\s*(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:export\s+)?(?:abstract\s+)?class\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:export\s+)?interface\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:export\s+)?(?:const|let)\s+(?P<sym>\w+)\s*=\s*(?:async\s+)?(?:function\b|\()`,
	)},
	"java": {boundaries: compilePatterns(
		`^(?P<indent>\s*)(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?(?:abstract\s+)?class\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:public|private|protected)\s+interface\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:public|private|protected)\s+[\w<>\[\],\s]+\s+(?P<sym>\w+)\s*\([^;]*$`,
	)},
	"rust": {boundaries: compilePatterns(
		`^(?P<indent>\s*)(?:pub\s+)?(?:async\s+)?fn\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:pub\s+)?struct\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:pub\s+)?enum\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)(?:pub\s+)?trait\s+(?P<sym>\w+)`,
		`^impl\b.*\bfor\s+(?P<sym>\w+)`,
	)},
	"ruby": {boundaries: compilePatterns(
		`^(?P<indent>\s*)def\s+(?P<sym>[\w.?!]+)`,
		`^(?P<indent>\s*)class\s+(?P<sym>\w+)`,
		`^(?P<indent>\s*)module\s+(?P<sym>\w+)`,
	)},
}

// extensionLanguages maps file extensions to language tags.
var extensionLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".rs":   "rust",
	".rb":   "ruby",
	".md":   "markdown",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".sh":   "shell",
}

func compilePatterns(exprs ...string) []boundaryPattern {
	patterns := make([]boundaryPattern, len(exprs))
	for i, expr := range exprs {
		patterns[i] = boundaryPattern{re: regexp.MustCompile(expr)}
	}
	return patterns
}

// DetectLanguage returns the language tag for a file path, or "plain" when
// the extension is unknown.
func DetectLanguage(path string) string {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plain"
}

// ChunkID derives the deterministic chunk identifier from the file path, the
// chunk content, and the chunk's ordinal index. Identical inputs always yield
// the same identifier.
func ChunkID(path, content, index string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write([]byte(index))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Chunker splits source files into semantically bounded chunks.
type Chunker struct {
	cfg models.ChunkerConfig
}

// NewChunker creates a Chunker with the given bounds.
func NewChunker(cfg models.ChunkerConfig) *Chunker {
	def := models.DefaultEngineConfig().Chunker
	if cfg.MaxChunkLines <= 0 {
		cfg.MaxChunkLines = def.MaxChunkLines
	}
	if cfg.WindowLines <= 0 {
		cfg.WindowLines = def.WindowLines
	}
	if cfg.WindowOverlap < 0 || cfg.WindowOverlap >= cfg.WindowLines {
		cfg.WindowOverlap = def.WindowOverlap
	}
	return &Chunker{cfg: cfg}
}

// boundary marks a detected unit start.
type boundary struct {
	line   int // 0-based line index
	indent int
	symbol string
}

// Split divides a file's content into ordered chunks. Languages with a
// registered boundary grammar are split at unit starts; everything else
// falls back to fixed-size line windows with a small overlap. The result is
// fully determined by (path, content): re-running on unchanged content
// reproduces the same boundaries and identifiers.
func (c *Chunker) Split(path, content string) []models.CodeChunk {
	lang := DetectLanguage(path)
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	spec, ok := languageRegistry[lang]
	if !ok {
		return c.windowChunks(path, lang, lines, 1, "")
	}

	bounds := findBoundaries(spec, lines)
	if len(bounds) == 0 {
		return c.windowChunks(path, lang, lines, 1, "")
	}

	var chunks []models.CodeChunk
	ordinal := 0
	emit := func(start, end int, symbol string) {
		unit := lines[start : end+1]
		index := fmt.Sprintf("%d", ordinal)
		ordinal++
		if len(unit) > c.cfg.MaxChunkLines {
			// Oversized unit: subdivide by line windows, keeping the unit as
			// logical parent via the shared index prefix.
			chunks = append(chunks, c.subdivide(path, lang, unit, start+1, index, symbol)...)
			return
		}
		text := strings.Join(unit, "\n")
		chunks = append(chunks, models.CodeChunk{
			ID:        ChunkID(path, text, index),
			FilePath:  path,
			StartLine: start + 1,
			EndLine:   end + 1,
			Content:   text,
			Language:  lang,
			Symbol:    symbol,
		})
	}

	// Preamble before the first unit (imports, constants) is its own chunk.
	if bounds[0].line > 0 {
		emit(0, bounds[0].line-1, "")
	}

	for i, b := range bounds {
		end := len(lines) - 1
		// The unit extends until the next boundary at the same or shallower
		// nesting depth, or end of file.
		for j := i + 1; j < len(bounds); j++ {
			if bounds[j].indent <= b.indent {
				end = bounds[j].line - 1
				break
			}
		}
		if end < b.line {
			end = b.line
		}
		emit(b.line, end, b.symbol)
	}

	return chunks
}

// findBoundaries scans each line against the language's boundary patterns.
func findBoundaries(spec languageSpec, lines []string) []boundary {
	var bounds []boundary
	for i, line := range lines {
		for _, p := range spec.boundaries {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			b := boundary{line: i, indent: indentWidth(line)}
			for gi, name := range p.re.SubexpNames() {
				if name == "sym" && gi < len(m) {
					b.symbol = m[gi]
				}
			}
			bounds = append(bounds, b)
			break
		}
	}
	return bounds
}

// subdivide splits an oversized unit into overlapping windows sharing the
// parent's index prefix.
func (c *Chunker) subdivide(path, lang string, unit []string, firstLine int, parentIndex, symbol string) []models.CodeChunk {
	chunks := c.windowChunks(path, lang, unit, firstLine, parentIndex)
	for i := range chunks {
		chunks[i].Symbol = symbol
	}
	return chunks
}

// windowChunks is the fallback: fixed-size line windows with overlap.
// indexPrefix is empty for top-level windows and the parent ordinal for
// subdivided units.
func (c *Chunker) windowChunks(path, lang string, lines []string, firstLine int, indexPrefix string) []models.CodeChunk {
	step := c.cfg.WindowLines - c.cfg.WindowOverlap
	var chunks []models.CodeChunk
	sub := 0
	for start := 0; start < len(lines); start += step {
		end := start + c.cfg.WindowLines
		if end > len(lines) {
			end = len(lines)
		}
		index := fmt.Sprintf("%d", sub)
		if indexPrefix != "" {
			index = fmt.Sprintf("%s.%d", indexPrefix, sub)
		}
		sub++
		text := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, models.CodeChunk{
			ID:          ChunkID(path, text, index),
			FilePath:    path,
			StartLine:   firstLine + start,
			EndLine:     firstLine + end - 1,
			Content:     text,
			Language:    lang,
			ParentIndex: indexPrefix,
		})
		if end == len(lines) {
			break
		}
	}
	return chunks
}

// indentWidth counts leading whitespace, with tabs expanded to 4 columns.
// Indentation stands in for nesting depth across the registered languages.
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// splitLines splits content into lines without the trailing newline creating
// a phantom empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
