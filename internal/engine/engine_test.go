package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

func newTestEngine(t *testing.T, store RecordStore, vcs VersionControl, events EventLogger) *Engine {
	t.Helper()
	eng, err := New(models.DefaultEngineConfig(), store, vcs, events)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestRecordInteractionDerivesEverything(t *testing.T) {
	store := newFakeStore()
	events := &fakeEvents{}
	eng := newTestEngine(t, store, nil, events)
	ctx := context.Background()

	raw := models.RawInteractionEvent{
		SessionID:       "sess-1",
		PromptSummary:   "fix the token check",
		ResponseSummary: "Fixed the empty-token crash in CheckToken.",
		Response:        strings.Repeat("The check now rejects empty tokens. ", 20),
		ToolCalls:       calls("read_file", "read_file", "edit_file", "run_terminal_cmd"),
		FileChanges: []models.FileChange{{
			Path:   "auth.go",
			Before: "package auth\n\nfunc CheckToken(t string) bool {\n\treturn true\n}\n",
			After:  "package auth\n\nfunc CheckToken(t string) bool {\n\treturn t != \"\"\n}\n",
		}},
	}

	rec, err := eng.RecordInteraction(ctx, raw)
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if rec.ID == "" {
		t.Error("record has no assigned ID")
	}
	if rec.Timestamp.IsZero() {
		t.Error("record has no timestamp")
	}
	if rec.Status != models.StatusAnalyzed {
		t.Errorf("status = %s, want %s", rec.Status, models.StatusAnalyzed)
	}
	if rec.Derived.ModificationType != models.ModBugfix {
		t.Errorf("modification type = %s, want %s", rec.Derived.ModificationType, models.ModBugfix)
	}
	if rec.Derived.Confidence <= 0.5 {
		t.Errorf("verified bugfix confidence = %v, want > 0.5", rec.Derived.Confidence)
	}
	if !strings.Contains(rec.Derived.DiffSummary, "auth.go") {
		t.Errorf("diff summary %q does not mention the file", rec.Derived.DiffSummary)
	}
	if rec.Derived.ToolSequence != "read_file→read_file→edit_file→run_terminal_cmd" {
		t.Errorf("tool sequence = %q", rec.Derived.ToolSequence)
	}
	wantPatterns := map[string]bool{
		"multiple_reads_before_edit": true,
		"execution_verification":     true,
	}
	for _, p := range rec.Derived.ToolPatterns {
		delete(wantPatterns, p)
	}
	if len(wantPatterns) > 0 {
		t.Errorf("derived patterns %v missing %v", rec.Derived.ToolPatterns, wantPatterns)
	}
	if len(rec.RelatedChunks) == 0 {
		t.Error("interaction not linked to any chunk")
	}

	saved, err := store.GetInteraction(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if saved.Derived.Confidence != rec.Derived.Confidence {
		t.Error("persisted record differs from returned record")
	}
	if events.count("interaction.recorded") != 1 {
		t.Errorf("interaction.recorded events = %d, want 1", events.count("interaction.recorded"))
	}
}

func TestRecordInteractionRejectsMalformedInput(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil, nil)
	ctx := context.Background()

	_, err := eng.RecordInteraction(ctx, models.RawInteractionEvent{
		FileChanges: []models.FileChange{{Path: "", After: "x"}},
	})
	if !errors.Is(err, ErrInputMalformed) {
		t.Errorf("empty path error = %v, want ErrInputMalformed", err)
	}

	_, err = eng.RecordInteraction(ctx, models.RawInteractionEvent{
		FileChanges: []models.FileChange{{Path: "bin.go", After: string([]byte{0xff, 0xfe})}},
	})
	if !errors.Is(err, ErrInputMalformed) {
		t.Errorf("invalid UTF-8 error = %v, want ErrInputMalformed", err)
	}

	if len(store.interactions) != 0 || len(store.chunks) != 0 {
		t.Error("rejected input must not leave partial writes behind")
	}
}

func TestRecordInteractionEmitsQualityEvidence(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil, nil)

	before := "a()\nb()\nc()\nd()\ne()\nf()\ng()\n"
	rec, err := eng.RecordInteraction(context.Background(), models.RawInteractionEvent{
		ResponseSummary: "Collapsed the helpers into one call.",
		FileChanges:     []models.FileChange{{Path: "util.txt", Before: before, After: "all()\n"}},
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	found := false
	for _, ev := range store.evidence {
		q, ok := ev.(models.CodeQualityEvidence)
		if ok && q.Signal == "net_simplification" && q.InteractionID == rec.ID {
			found = true
		}
	}
	if !found {
		t.Error("net simplification evidence not persisted")
	}
}

func TestRecordTestRunPersistsAndDetects(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil, nil)
	ctx := context.Background()

	previous := []models.TestRunRecord{
		run("r1", "auth_test.go", "TestLogin", models.TestFail, "aaa", "boom"),
	}
	current := []models.TestRunRecord{
		run("r2", "auth_test.go", "TestLogin", models.TestPass, "bbb", ""),
	}

	stored, evidence, err := eng.RecordTestRun(ctx, current, previous)
	if err != nil {
		t.Fatalf("RecordTestRun: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("stored runs = %d, want 1", len(stored))
	}
	if len(store.runs) != 1 {
		t.Errorf("persisted runs = %d, want 1", len(store.runs))
	}
	if len(evidence) != 2 {
		t.Fatalf("evidence = %d items, want transition plus runtime error", len(evidence))
	}
	for _, ev := range evidence {
		if _, ok := store.evidence[ev.EvidenceID()]; !ok {
			t.Errorf("evidence %s not persisted", ev.EvidenceID())
		}
	}

	// Without a previous report there is nothing to compare against.
	_, evidence, err = eng.RecordTestRun(ctx, current, nil)
	if err != nil {
		t.Fatalf("RecordTestRun without previous: %v", err)
	}
	if len(evidence) != 0 {
		t.Errorf("first report produced evidence: %v", evidence)
	}
}

func TestPromoteLearningRequiresApproval(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil, nil)
	ctx := context.Background()

	rec, err := eng.RecordInteraction(ctx, models.RawInteractionEvent{
		PromptSummary: "fix the retry loop",
		FileChanges: []models.FileChange{{
			Path:  "retry.go",
			After: "package retry\n\nfunc Backoff() {}\n",
		}},
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	_, err = eng.PromoteLearning(ctx, PromoteInput{InteractionID: rec.ID})
	if !errors.Is(err, ErrBelowThreshold) {
		t.Errorf("unapproved promotion error = %v, want ErrBelowThreshold", err)
	}

	learning, err := eng.PromoteLearning(ctx, PromoteInput{
		InteractionID: rec.ID,
		Description:   "exponential backoff on transient failures",
		Tags:          []string{"reliability"},
		Approved:      true,
	})
	if err != nil {
		t.Fatalf("approved promotion: %v", err)
	}
	if learning.Description != "exponential backoff on transient failures" {
		t.Errorf("description = %q", learning.Description)
	}
	if learning.ValidationScore != nil {
		t.Error("promotion without evidence must not carry a validation score")
	}

	promoted, err := store.GetInteraction(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if promoted.Status != models.StatusPromoted {
		t.Errorf("interaction status = %s, want %s", promoted.Status, models.StatusPromoted)
	}
}

func TestPromoteLearningAutoPromotesOnStrongEvidence(t *testing.T) {
	store := newFakeStore()
	cfg := models.DefaultEngineConfig()
	cfg.AutoPromote = true
	eng, err := New(cfg, store, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	rec, err := eng.RecordInteraction(ctx, models.RawInteractionEvent{
		FileChanges: []models.FileChange{{Path: "auth.go", After: "package auth\n"}},
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	strong := []models.ValidationEvidence{
		models.TestTransitionEvidence{ID: "t1", Weight: 1.0},
		models.RuntimeErrorEvidence{ID: "r1", Weight: 0.7},
	}
	for _, ev := range strong {
		if err := store.SaveEvidence(ctx, ev); err != nil {
			t.Fatalf("SaveEvidence: %v", err)
		}
	}

	learning, err := eng.PromoteLearning(ctx, PromoteInput{
		InteractionID: rec.ID,
		EvidenceIDs:   []string{"t1", "r1"},
	})
	if err != nil {
		t.Fatalf("auto promotion: %v", err)
	}
	if learning.ValidationScore == nil {
		t.Fatal("promotion with evidence must carry a validation score")
	}
	if *learning.ValidationScore < 0.7 {
		t.Errorf("validation score = %v, want >= 0.7", *learning.ValidationScore)
	}

	// Weak evidence alone must not auto-promote.
	weak := models.CodeQualityEvidence{ID: "q1", Weight: 0.4}
	if err := store.SaveEvidence(ctx, weak); err != nil {
		t.Fatalf("SaveEvidence: %v", err)
	}
	_, err = eng.PromoteLearning(ctx, PromoteInput{
		InteractionID: rec.ID,
		EvidenceIDs:   []string{"q1"},
	})
	if !errors.Is(err, ErrBelowThreshold) {
		t.Errorf("weak auto promotion error = %v, want ErrBelowThreshold", err)
	}
}

func TestResolveLinksThroughEngine(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil, nil)
	ctx := context.Background()

	rec, err := eng.RecordInteraction(ctx, models.RawInteractionEvent{
		FileChanges: []models.FileChange{{
			Path:  "auth.go",
			After: "package auth\n\nfunc CheckToken() bool {\n\treturn true\n}\n",
		}},
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	chunks, missing, err := eng.ResolveLinks(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ResolveLinks: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("unexpected missing chunks: %v", missing)
	}
	if len(chunks) != len(rec.RelatedChunks) {
		t.Errorf("resolved %d chunks, linked %d", len(chunks), len(rec.RelatedChunks))
	}
}

func TestSearchContextDefaultsLimit(t *testing.T) {
	store := newFakeStore()
	store.searchHits = []SearchResult{{Collection: "chunks", ID: "c1", Snippet: "func A()"}}
	eng := newTestEngine(t, store, nil, nil)

	hits, err := eng.SearchContext(context.Background(), "token", 0)
	if err != nil {
		t.Fatalf("SearchContext: %v", err)
	}
	if store.lastSearchN != 10 {
		t.Errorf("default limit = %d, want 10", store.lastSearchN)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %d, want 1", len(hits))
	}
}
