package models

// CodeChunk is a semantically bounded slice of a source file: a function,
// method, or class where the language has a recognizable boundary grammar,
// or a fixed-size line window otherwise.
//
// The ID is derived deterministically from (file path, content hash, ordinal
// index), so re-chunking unchanged content reproduces the same identifiers.
type CodeChunk struct {
	ID                  string   `json:"id"`
	FilePath            string   `json:"file_path"`
	StartLine           int      `json:"start_line"`
	EndLine             int      `json:"end_line"`
	Content             string   `json:"content"`
	Language            string   `json:"language"`
	Symbol              string   `json:"symbol,omitempty"`
	ParentIndex         string   `json:"parent_index,omitempty"`
	RelatedInteractions []string `json:"related_interactions,omitempty"`
}

// LineCount returns the number of lines the chunk spans.
func (c CodeChunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// Overlaps reports whether the chunk intersects the inclusive line range
// [start, end].
func (c CodeChunk) Overlaps(start, end int) bool {
	return c.StartLine <= end && c.EndLine >= start
}
