package engine

import (
	"context"
	"fmt"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// FlakyTest reports a status flip without a code change: same commit hash on
// both sides. Advisory, never evidence.
type FlakyTest struct {
	TestFile string
	TestName string
	Commit   string
}

// TransitionResult is what the detector found in one pair of reports.
type TransitionResult struct {
	Evidence []models.ValidationEvidence
	Flaky    []FlakyTest
}

// TransitionDetector pairs test runs by identity (file + name) and emits
// evidence for fail→pass transitions across distinct commits.
//
// State machine per identity: unseen → failing → passing, or unseen →
// passing. Only the failing → passing edge carries a learning signal.
type TransitionDetector struct {
	vcs     VersionControl
	store   RecordStore
	chunker *Chunker
	differ  *DiffExtractor
	events  EventLogger
}

// NewTransitionDetector creates a detector. vcs, store, and events may be
// nil: without them evidence still carries the run references, just without
// resolved chunks or interactions.
func NewTransitionDetector(vcs VersionControl, store RecordStore, chunker *Chunker, events EventLogger) *TransitionDetector {
	if chunker == nil {
		chunker = NewChunker(models.DefaultEngineConfig().Chunker)
	}
	return &TransitionDetector{
		vcs:     vcs,
		store:   store,
		chunker: chunker,
		differ:  NewDiffExtractor(models.DefaultEngineConfig().Diff, chunker),
		events:  events,
	}
}

// Detect compares an earlier report against a later one. For each test
// identity failing earlier and passing later at a different commit, exactly
// one TestTransitionEvidence is emitted (plus RuntimeErrorEvidence when the
// failure carried an error message). A flip at the same commit is reported
// as flaky and emits nothing.
func (d *TransitionDetector) Detect(ctx context.Context, previous, current []models.TestRunRecord) (*TransitionResult, error) {
	result := &TransitionResult{}

	earlier := make(map[string]models.TestRunRecord, len(previous))
	for _, run := range previous {
		earlier[run.Identity()] = run
	}

	for _, run := range current {
		prev, seen := earlier[run.Identity()]
		if !seen {
			continue // unseen → passing or unseen → failing: no signal
		}
		if prev.Status != models.TestFail || run.Status != models.TestPass {
			continue // still failing, or was never failing
		}

		if prev.CommitHash == run.CommitHash {
			// Status flipped with no code change: flaky, not a fix.
			result.Flaky = append(result.Flaky, FlakyTest{
				TestFile: run.TestFile,
				TestName: run.TestName,
				Commit:   run.CommitHash,
			})
			d.logEvent("test.flaky", map[string]any{
				"test":   run.Identity(),
				"commit": run.CommitHash,
			})
			continue
		}

		chunks, interactions, err := d.resolveChangeContext(ctx, prev, run)
		if err != nil {
			return nil, fmt.Errorf("resolving change context for %s: %w", run.Identity(), err)
		}

		evidence := models.TestTransitionEvidence{
			ID:            evidenceID(models.EvidenceTestTransition, run.Identity(), prev.CommitHash, run.CommitHash),
			Weight:        1.0,
			TestFile:      run.TestFile,
			TestName:      run.TestName,
			FailedRunID:   prev.ID,
			PassedRunID:   run.ID,
			FromCommit:    prev.CommitHash,
			ToCommit:      run.CommitHash,
			ChangedChunks: chunks,
			Interactions:  interactions,
		}
		result.Evidence = append(result.Evidence, evidence)
		d.logEvent("test.transition", map[string]any{
			"test": run.Identity(),
			"from": prev.CommitHash,
			"to":   run.CommitHash,
		})

		if sig := errorSignature(prev.ErrorMessage); sig != "" {
			result.Evidence = append(result.Evidence, models.RuntimeErrorEvidence{
				ID:             evidenceID(models.EvidenceRuntimeError, sig, prev.CommitHash, run.CommitHash),
				Weight:         0.7,
				ErrorSignature: sig,
				FirstSeenRunID: prev.ID,
				ResolvedRunID:  run.ID,
				Interactions:   interactions,
			})
		}
	}

	return result, nil
}

// resolveChangeContext finds the chunks changed between the two commits and
// the recorded interactions whose file changes intersect them.
func (d *TransitionDetector) resolveChangeContext(ctx context.Context, from, to models.TestRunRecord) ([]string, []string, error) {
	if d.vcs == nil {
		return nil, nil, nil
	}

	files, err := d.vcs.ChangedFiles(ctx, from.CommitHash, to.CommitHash)
	if err != nil {
		return nil, nil, fmt.Errorf("listing changed files: %w", err)
	}

	var chunkIDs []string
	changedPaths := make(map[string]bool, len(files))
	for _, path := range files {
		changedPaths[path] = true

		before, err := d.vcs.FileAtCommit(ctx, from.CommitHash, path)
		if err != nil {
			before = "" // file added in the range
		}
		after, err := d.vcs.FileAtCommit(ctx, to.CommitHash, path)
		if err != nil {
			continue // file deleted in the range
		}

		ranges := d.differ.ChangedAfterRanges(models.FileChange{Path: path, Before: before, After: after})
		for _, chunk := range d.chunker.Split(path, after) {
			for _, r := range ranges {
				if chunk.Overlaps(r[0], r[1]) {
					chunkIDs = append(chunkIDs, chunk.ID)
					break
				}
			}
		}
	}

	var interactionIDs []string
	if d.store != nil {
		records, err := d.store.ListInteractions(ctx, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("listing interactions: %w", err)
		}
		for _, rec := range records {
			for _, change := range rec.FileChanges {
				if changedPaths[change.Path] {
					interactionIDs = append(interactionIDs, rec.ID)
					break
				}
			}
		}
	}

	return chunkIDs, interactionIDs, nil
}

func (d *TransitionDetector) logEvent(eventType string, data map[string]any) {
	if d.events != nil {
		_ = d.events.LogEvent(eventType, data)
	}
}
