package storage

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/ai-context-engine/internal/engine"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

func newTestRecordStore() *RecordStore {
	return NewRecordStore(NewMemoryStore())
}

func TestInteractionRoundtrip(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	rec := &models.InteractionRecord{
		ID:            "int-1",
		SessionID:     "sess-1",
		Timestamp:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		PromptSummary: "fix the login flow",
		ToolCalls:     []models.ToolCall{{Name: "edit_file", FilePath: "auth.go"}},
		FileChanges:   []models.FileChange{{Path: "auth.go", Before: "a\n", After: "b\n"}},
		Derived: models.DerivedFields{
			ModificationType: models.ModBugfix,
			Confidence:       0.8,
			ToolSequence:     "edit_file",
		},
		RelatedChunks: []string{"c1", "c2"},
		Status:        models.StatusAnalyzed,
	}
	require.NoError(t, s.SaveInteraction(ctx, rec))

	got, err := s.GetInteraction(ctx, "int-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	list, err := s.ListInteractions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "int-1", list[0].ID)
}

func TestGetInteractionMissing(t *testing.T) {
	s := newTestRecordStore()
	_, err := s.GetInteraction(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestChunkRoundtrip(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	chunk := models.CodeChunk{
		ID:                  "c1",
		FilePath:            "auth.go",
		StartLine:           3,
		EndLine:             7,
		Content:             "func CheckToken() bool {\n\treturn true\n}",
		Language:            "go",
		Symbol:              "CheckToken",
		RelatedInteractions: []string{"int-1"},
	}
	require.NoError(t, s.SaveChunk(ctx, chunk))

	got, err := s.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, chunk, *got)

	_, err = s.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestEvidenceRoundtripPreservesKind(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	items := []models.ValidationEvidence{
		models.TestTransitionEvidence{
			ID: "t1", Weight: 1.0,
			TestFile: "auth_test.go", TestName: "TestLogin",
			FromCommit: "aaa", ToCommit: "bbb",
		},
		models.RuntimeErrorEvidence{ID: "r1", Weight: 0.7, ErrorSignature: "panic: nil deref"},
		models.CodeQualityEvidence{ID: "q1", Weight: 0.6, Signal: "net_simplification"},
	}
	for _, ev := range items {
		require.NoError(t, s.SaveEvidence(ctx, ev))
	}

	got, err := s.GetEvidence(ctx, []string{"t1", "r1", "q1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, items[0], got[0])
	assert.Equal(t, items[1], got[1])
	assert.Equal(t, items[2], got[2])

	transitions, err := s.ListEvidence(ctx, models.EvidenceTestTransition)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, "t1", transitions[0].EvidenceID())

	all, err := s.ListEvidence(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSaveEvidenceOverwritesSameID(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	ev := models.TestTransitionEvidence{ID: "t1", Weight: 1.0, FromCommit: "aaa", ToCommit: "bbb"}
	require.NoError(t, s.SaveEvidence(ctx, ev))
	require.NoError(t, s.SaveEvidence(ctx, ev))

	all, err := s.ListEvidence(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTestRunPersists(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	run := models.TestRunRecord{
		ID:           "r1",
		TestFile:     "auth_test.go",
		TestName:     "TestLogin",
		Status:       models.TestFail,
		Duration:     150 * time.Millisecond,
		ErrorMessage: "boom",
		CommitHash:   "aaa",
	}
	require.NoError(t, s.SaveTestRun(ctx, run))
}

func TestLearningRoundtrip(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	score := 0.71
	learning := models.DerivedLearning{
		ID:                "l1",
		Description:       "reject empty tokens before hitting the database",
		Tags:              []string{"auth"},
		Confidence:        0.8,
		ValidationScore:   &score,
		EvidenceIDs:       []string{"t1"},
		SourceInteraction: "int-1",
		CreatedAt:         time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveLearning(ctx, learning))

	list, err := s.ListLearnings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, learning, list[0])
}

func TestSearchPrioritizesLearnings(t *testing.T) {
	s := newTestRecordStore()
	ctx := context.Background()

	require.NoError(t, s.SaveLearning(ctx, models.DerivedLearning{
		ID:          "l1",
		Description: "validate tokens at the boundary",
	}))
	require.NoError(t, s.SaveInteraction(ctx, &models.InteractionRecord{
		ID:            "int-1",
		PromptSummary: "fix token validation",
		Status:        models.StatusAnalyzed,
	}))
	require.NoError(t, s.SaveChunk(ctx, models.CodeChunk{
		ID:       "c1",
		FilePath: "auth.go",
		Content:  "func ValidateToken() {}",
		Language: "go",
	}))

	results, err := s.Search(ctx, "token", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, CollectionLearnings, results[0].Collection)
	assert.Equal(t, CollectionInteractions, results[1].Collection)
	assert.Equal(t, CollectionChunks, results[2].Collection)
	assert.Contains(t, results[0].Snippet, "token")

	limited, err := s.Search(ctx, "token", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "l1", limited[0].ID)
}

func TestSnippetKeepsRunesIntact(t *testing.T) {
	padding := strings.Repeat("é", searchSnippetLen)
	content := padding + " token " + padding

	got := snippet(content, "token")
	assert.True(t, utf8.ValidString(got), "snippet split a rune: %q", got)
	assert.Contains(t, got, "token")

	// A match at the very start keeps the excerpt anchored and valid.
	head := snippet("token "+padding, "token")
	assert.True(t, utf8.ValidString(head))
}

func TestSearchNoHits(t *testing.T) {
	s := newTestRecordStore()
	results, err := s.Search(context.Background(), "nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
