package engine

import "errors"

var (
	// ErrInputMalformed marks caller input the engine cannot interpret
	// (unparsable report, invalid encoding). Surfaced immediately, never
	// silently dropped.
	ErrInputMalformed = errors.New("input malformed")

	// ErrNotFound marks a missing record lookup.
	ErrNotFound = errors.New("record not found")

	// ErrBelowThreshold marks an automatic promotion attempt whose
	// validation score did not clear the configured cutoff.
	ErrBelowThreshold = errors.New("validation score below promotion threshold")
)
