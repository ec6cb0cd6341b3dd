package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryStore is a Store held entirely in process memory. Used by tests and
// by callers that want a throwaway engine without a database file.
type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{docs: make(map[string]map[string]Document)}
}

func (s *memoryStore) Upsert(_ context.Context, collection, id, content string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string]Document)
		s.docs[collection] = coll
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	coll[id] = Document{
		Collection: collection,
		ID:         id,
		Content:    content,
		Metadata:   meta,
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

// Query returns matching documents in ascending ID order so results are
// deterministic across runs.
func (s *memoryStore) Query(_ context.Context, q DocumentQuery) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contains := strings.ToLower(q.Contains)

	var results []Document
	for _, doc := range s.docs[q.Collection] {
		if contains != "" && !strings.Contains(strings.ToLower(doc.Content), contains) {
			continue
		}
		if !metadataMatches(doc.Metadata, q.Metadata) {
			continue
		}
		results = append(results, doc)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (s *memoryStore) Close() error { return nil }

func metadataMatches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
