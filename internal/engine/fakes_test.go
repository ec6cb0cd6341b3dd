package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// fakeStore is an in-memory RecordStore for exercising the pipeline
// without a real document store behind it.
type fakeStore struct {
	mu           sync.Mutex
	interactions map[string]models.InteractionRecord
	chunks       map[string]models.CodeChunk
	runs         map[string]models.TestRunRecord
	evidence     map[string]models.ValidationEvidence
	learnings    map[string]models.DerivedLearning
	lastSearchN  int
	searchHits   []SearchResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		interactions: map[string]models.InteractionRecord{},
		chunks:       map[string]models.CodeChunk{},
		runs:         map[string]models.TestRunRecord{},
		evidence:     map[string]models.ValidationEvidence{},
		learnings:    map[string]models.DerivedLearning{},
	}
}

func (s *fakeStore) SaveInteraction(_ context.Context, rec *models.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[rec.ID] = *rec
	return nil
}

func (s *fakeStore) GetInteraction(_ context.Context, id string) (*models.InteractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, ErrNotFound)
	}
	return &rec, nil
}

func (s *fakeStore) ListInteractions(_ context.Context, limit int) ([]models.InteractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InteractionRecord
	for _, rec := range s.interactions {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) SaveChunk(_ context.Context, chunk models.CodeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = chunk
	return nil
}

func (s *fakeStore) GetChunk(_ context.Context, id string) (*models.CodeChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	return &chunk, nil
}

func (s *fakeStore) SaveTestRun(_ context.Context, run models.TestRunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *fakeStore) SaveEvidence(_ context.Context, evidence models.ValidationEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence[evidence.EvidenceID()] = evidence
	return nil
}

func (s *fakeStore) GetEvidence(_ context.Context, ids []string) ([]models.ValidationEvidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ValidationEvidence
	for _, id := range ids {
		ev, ok := s.evidence[id]
		if !ok {
			return nil, fmt.Errorf("evidence %s: %w", id, ErrNotFound)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *fakeStore) SaveLearning(_ context.Context, learning models.DerivedLearning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnings[learning.ID] = learning
	return nil
}

func (s *fakeStore) Search(_ context.Context, _ string, n int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSearchN = n
	return s.searchHits, nil
}

// fakeVCS serves file contents keyed by commit and a fixed changed-file
// list per commit pair.
type fakeVCS struct {
	files   map[string]map[string]string // commit -> path -> content
	changed map[string][]string          // "from..to" -> paths
}

func (v *fakeVCS) FileAtCommit(_ context.Context, commit, path string) (string, error) {
	content, ok := v.files[commit][path]
	if !ok {
		return "", fmt.Errorf("file %s at %s: %w", path, commit, ErrNotFound)
	}
	return content, nil
}

func (v *fakeVCS) ChangedFiles(_ context.Context, from, to string) ([]string, error) {
	return v.changed[from+".."+to], nil
}

// fakeEvents records every logged event in order.
type fakeEvents struct {
	mu      sync.Mutex
	entries []string
	data    []map[string]any
}

func (e *fakeEvents) LogEvent(eventType string, data map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, eventType)
	e.data = append(e.data, data)
	return nil
}

func (e *fakeEvents) count(eventType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, entry := range e.entries {
		if entry == eventType {
			n++
		}
	}
	return n
}
