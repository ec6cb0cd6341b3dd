// Package storage implements the document store behind the context engine:
// an in-memory store for tests and a SQLite store for real use, plus the
// typed record layer the engine consumes.
package storage

import (
	"context"
	"errors"
	"time"
)

// Collection names. Every record the engine persists lives in exactly one.
const (
	CollectionInteractions = "interactions"
	CollectionChunks       = "chunks"
	CollectionTestRuns     = "test_runs"
	CollectionEvidence     = "evidence"
	CollectionLearnings    = "learnings"
)

// ErrDocumentNotFound is returned when a lookup misses.
var ErrDocumentNotFound = errors.New("document not found")

// Document is one stored record: opaque content plus queryable metadata.
type Document struct {
	Collection string            `json:"collection"`
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// DocumentQuery selects documents from one collection. All filters are
// conjunctive; zero values mean "no filter".
type DocumentQuery struct {
	Collection string
	// Contains matches documents whose content includes the substring
	// (case-insensitive).
	Contains string
	// Metadata filters on exact key/value matches.
	Metadata map[string]string
	Limit    int
}

// Store defines the document persistence contract. Upsert must be
// idempotent: writing the same document twice leaves one copy.
type Store interface {
	Upsert(ctx context.Context, collection, id, content string, metadata map[string]string) error
	GetByID(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, q DocumentQuery) ([]Document, error)
	Close() error
}
