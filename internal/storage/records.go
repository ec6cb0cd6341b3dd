package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valter-silva-au/ai-context-engine/internal/engine"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// searchSnippetLen bounds the content excerpt returned per search hit.
const searchSnippetLen = 200

// RecordStore is the typed layer over the document store: it knows how each
// engine record serializes and which metadata keys make it queryable.
type RecordStore struct {
	store Store
}

// NewRecordStore wraps a document Store.
func NewRecordStore(store Store) *RecordStore {
	return &RecordStore{store: store}
}

// Close releases the underlying store.
func (s *RecordStore) Close() error {
	return s.store.Close()
}

func (s *RecordStore) SaveInteraction(ctx context.Context, rec *models.InteractionRecord) error {
	content, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding interaction %s: %w", rec.ID, err)
	}
	meta := map[string]string{
		"status": string(rec.Status),
		"type":   string(rec.Derived.ModificationType),
	}
	if rec.SessionID != "" {
		meta["session"] = rec.SessionID
	}
	return s.store.Upsert(ctx, CollectionInteractions, rec.ID, string(content), meta)
}

func (s *RecordStore) GetInteraction(ctx context.Context, id string) (*models.InteractionRecord, error) {
	doc, err := s.store.GetByID(ctx, CollectionInteractions, id)
	if err != nil {
		return nil, mapNotFound(err, "interaction", id)
	}
	var rec models.InteractionRecord
	if err := json.Unmarshal([]byte(doc.Content), &rec); err != nil {
		return nil, fmt.Errorf("decoding interaction %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RecordStore) ListInteractions(ctx context.Context, limit int) ([]models.InteractionRecord, error) {
	docs, err := s.store.Query(ctx, DocumentQuery{Collection: CollectionInteractions, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	records := make([]models.InteractionRecord, 0, len(docs))
	for _, doc := range docs {
		var rec models.InteractionRecord
		if err := json.Unmarshal([]byte(doc.Content), &rec); err != nil {
			return nil, fmt.Errorf("decoding interaction %s: %w", doc.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RecordStore) SaveChunk(ctx context.Context, chunk models.CodeChunk) error {
	content, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk %s: %w", chunk.ID, err)
	}
	meta := map[string]string{
		"path":     chunk.FilePath,
		"language": chunk.Language,
	}
	return s.store.Upsert(ctx, CollectionChunks, chunk.ID, string(content), meta)
}

func (s *RecordStore) GetChunk(ctx context.Context, id string) (*models.CodeChunk, error) {
	doc, err := s.store.GetByID(ctx, CollectionChunks, id)
	if err != nil {
		return nil, mapNotFound(err, "chunk", id)
	}
	var chunk models.CodeChunk
	if err := json.Unmarshal([]byte(doc.Content), &chunk); err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", id, err)
	}
	return &chunk, nil
}

func (s *RecordStore) SaveTestRun(ctx context.Context, run models.TestRunRecord) error {
	content, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding test run %s: %w", run.ID, err)
	}
	meta := map[string]string{
		"status":   string(run.Status),
		"identity": run.Identity(),
	}
	if run.CommitHash != "" {
		meta["commit"] = run.CommitHash
	}
	return s.store.Upsert(ctx, CollectionTestRuns, run.ID, string(content), meta)
}

// SaveEvidence persists evidence with a kind discriminator so re-deriving
// the same evidence overwrites the prior bit-identical copy.
func (s *RecordStore) SaveEvidence(ctx context.Context, evidence models.ValidationEvidence) error {
	content, err := json.Marshal(evidence)
	if err != nil {
		return fmt.Errorf("encoding evidence %s: %w", evidence.EvidenceID(), err)
	}
	meta := map[string]string{"kind": string(evidence.Kind())}
	return s.store.Upsert(ctx, CollectionEvidence, evidence.EvidenceID(), string(content), meta)
}

func (s *RecordStore) GetEvidence(ctx context.Context, ids []string) ([]models.ValidationEvidence, error) {
	evidence := make([]models.ValidationEvidence, 0, len(ids))
	for _, id := range ids {
		doc, err := s.store.GetByID(ctx, CollectionEvidence, id)
		if err != nil {
			return nil, mapNotFound(err, "evidence", id)
		}
		decoded, err := decodeEvidence(doc)
		if err != nil {
			return nil, err
		}
		evidence = append(evidence, decoded)
	}
	return evidence, nil
}

// ListEvidence returns all evidence of one kind, or all kinds when kind is
// empty.
func (s *RecordStore) ListEvidence(ctx context.Context, kind models.EvidenceKind) ([]models.ValidationEvidence, error) {
	q := DocumentQuery{Collection: CollectionEvidence}
	if kind != "" {
		q.Metadata = map[string]string{"kind": string(kind)}
	}
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing evidence: %w", err)
	}
	evidence := make([]models.ValidationEvidence, 0, len(docs))
	for _, doc := range docs {
		decoded, err := decodeEvidence(&doc)
		if err != nil {
			return nil, err
		}
		evidence = append(evidence, decoded)
	}
	return evidence, nil
}

func (s *RecordStore) SaveLearning(ctx context.Context, learning models.DerivedLearning) error {
	content, err := json.Marshal(learning)
	if err != nil {
		return fmt.Errorf("encoding learning %s: %w", learning.ID, err)
	}
	meta := map[string]string{"source": learning.SourceInteraction}
	return s.store.Upsert(ctx, CollectionLearnings, learning.ID, string(content), meta)
}

// ListLearnings returns all promoted learnings.
func (s *RecordStore) ListLearnings(ctx context.Context) ([]models.DerivedLearning, error) {
	docs, err := s.store.Query(ctx, DocumentQuery{Collection: CollectionLearnings})
	if err != nil {
		return nil, fmt.Errorf("listing learnings: %w", err)
	}
	learnings := make([]models.DerivedLearning, 0, len(docs))
	for _, doc := range docs {
		var l models.DerivedLearning
		if err := json.Unmarshal([]byte(doc.Content), &l); err != nil {
			return nil, fmt.Errorf("decoding learning %s: %w", doc.ID, err)
		}
		learnings = append(learnings, l)
	}
	return learnings, nil
}

// searchCollections are queried in order by Search.
var searchCollections = []string{CollectionLearnings, CollectionInteractions, CollectionChunks}

// Search runs a substring query across learnings, interactions, and chunks,
// in that order of priority, up to n hits total.
func (s *RecordStore) Search(ctx context.Context, query string, n int) ([]engine.SearchResult, error) {
	var results []engine.SearchResult
	for _, collection := range searchCollections {
		remaining := n - len(results)
		if remaining <= 0 {
			break
		}
		docs, err := s.store.Query(ctx, DocumentQuery{
			Collection: collection,
			Contains:   query,
			Limit:      remaining,
		})
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", collection, err)
		}
		for _, doc := range docs {
			results = append(results, engine.SearchResult{
				Collection: doc.Collection,
				ID:         doc.ID,
				Snippet:    snippet(doc.Content, query),
			})
		}
	}
	return results, nil
}

// decodeEvidence rebuilds the concrete evidence type from its stored form.
func decodeEvidence(doc *Document) (models.ValidationEvidence, error) {
	switch models.EvidenceKind(doc.Metadata["kind"]) {
	case models.EvidenceTestTransition:
		var e models.TestTransitionEvidence
		if err := json.Unmarshal([]byte(doc.Content), &e); err != nil {
			return nil, fmt.Errorf("decoding test transition evidence %s: %w", doc.ID, err)
		}
		return e, nil
	case models.EvidenceRuntimeError:
		var e models.RuntimeErrorEvidence
		if err := json.Unmarshal([]byte(doc.Content), &e); err != nil {
			return nil, fmt.Errorf("decoding runtime error evidence %s: %w", doc.ID, err)
		}
		return e, nil
	case models.EvidenceCodeQuality:
		var e models.CodeQualityEvidence
		if err := json.Unmarshal([]byte(doc.Content), &e); err != nil {
			return nil, fmt.Errorf("decoding code quality evidence %s: %w", doc.ID, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("evidence %s: unknown kind %q", doc.ID, doc.Metadata["kind"])
	}
}

// snippet centers a short excerpt on the first occurrence of query.
func snippet(content, query string) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		idx = 0
	}
	start := idx - searchSnippetLen/4
	if start < 0 {
		start = 0
	}
	end := start + searchSnippetLen
	if end > len(content) {
		end = len(content)
	}
	// Never cut a multibyte rune in half.
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	return content[start:end]
}

func mapNotFound(err error, what, id string) error {
	if errors.Is(err, ErrDocumentNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, engine.ErrNotFound)
	}
	return fmt.Errorf("loading %s %s: %w", what, id, err)
}
