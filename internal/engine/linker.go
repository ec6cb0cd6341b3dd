package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// LinkResult reports what linking accomplished. Missing lists chunk
// identifiers whose target no longer exists in the store: advisory, not
// fatal, since linking is best-effort rather than a foreign-key constraint.
type LinkResult struct {
	Chunks  []models.CodeChunk
	Missing []string
}

// LinkManager maintains the bidirectional references between interactions
// and the chunks their file changes touch. All writes are idempotent set
// unions: linking the same interaction twice converges to the same state.
type LinkManager struct {
	store   RecordStore
	chunker *Chunker
	differ  *DiffExtractor
	events  EventLogger
}

// NewLinkManager creates a LinkManager. events may be nil.
func NewLinkManager(store RecordStore, chunker *Chunker, differ *DiffExtractor, events EventLogger) *LinkManager {
	return &LinkManager{store: store, chunker: chunker, differ: differ, events: events}
}

// Link resolves the interaction's file changes to overlapping chunks, adds
// the interaction to each chunk's related set, adds each chunk to the
// interaction's related set, and persists both sides.
func (m *LinkManager) Link(ctx context.Context, rec *models.InteractionRecord) (*LinkResult, error) {
	result := &LinkResult{}

	for _, change := range rec.FileChanges {
		if change.After == "" {
			continue // deleted file: nothing left to link to
		}
		ranges := m.differ.ChangedAfterRanges(change)
		for _, chunk := range m.chunker.Split(change.Path, change.After) {
			touched := false
			for _, r := range ranges {
				if chunk.Overlaps(r[0], r[1]) {
					touched = true
					break
				}
			}
			if !touched {
				continue
			}

			chunk.RelatedInteractions = unionInsert(chunk.RelatedInteractions, rec.ID)
			existing, err := m.store.GetChunk(ctx, chunk.ID)
			switch {
			case err == nil:
				// Preserve links other interactions already created.
				for _, id := range existing.RelatedInteractions {
					chunk.RelatedInteractions = unionInsert(chunk.RelatedInteractions, id)
				}
			case errors.Is(err, ErrNotFound):
				// First time this chunk is persisted.
			default:
				return nil, fmt.Errorf("loading chunk %s: %w", chunk.ID, err)
			}
			if err := m.store.SaveChunk(ctx, chunk); err != nil {
				return nil, fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
			}

			rec.RelatedChunks = unionInsert(rec.RelatedChunks, chunk.ID)
			result.Chunks = append(result.Chunks, chunk)
		}
	}

	if err := m.store.SaveInteraction(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving interaction %s: %w", rec.ID, err)
	}
	return result, nil
}

// ResolveLinks loads the chunks an interaction is linked to. Chunks that no
// longer exist are reported in Missing and as a link.target_missing event,
// never as a fatal error.
func (m *LinkManager) ResolveLinks(ctx context.Context, interactionID string) (*LinkResult, error) {
	rec, err := m.store.GetInteraction(ctx, interactionID)
	if err != nil {
		return nil, fmt.Errorf("loading interaction %s: %w", interactionID, err)
	}

	result := &LinkResult{}
	for _, chunkID := range rec.RelatedChunks {
		chunk, err := m.store.GetChunk(ctx, chunkID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				result.Missing = append(result.Missing, chunkID)
				if m.events != nil {
					_ = m.events.LogEvent("link.target_missing", map[string]any{
						"interaction": interactionID,
						"chunk":       chunkID,
					})
				}
				continue
			}
			return nil, fmt.Errorf("loading chunk %s: %w", chunkID, err)
		}
		result.Chunks = append(result.Chunks, *chunk)
	}
	return result, nil
}

// unionInsert inserts id into the sorted set, keeping set semantics so
// repeated linking never duplicates a reference.
func unionInsert(set []string, id string) []string {
	idx := sort.SearchStrings(set, id)
	if idx < len(set) && set[idx] == id {
		return set
	}
	set = append(set, "")
	copy(set[idx+1:], set[idx:])
	set[idx] = id
	return set
}
