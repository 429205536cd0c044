package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Pool precondition violations (caller bug).
	ErrFeatureNotInPool     = errors.New("existing feature handle is not present in the pool")
	ErrFeatureAlreadyExists = errors.New("new feature value is already present in the pool")

	// Pool emptiness / addressing.
	ErrPoolEmpty     = errors.New("pool has no regular inputs and no favored input")
	ErrIndexNotFound = errors.New("pool index does not refer to a live input")

	// Sanity-check invariant violations.
	ErrInvariantViolation = errors.New("pool invariant violation")

	// Mutator / driver level.
	ErrComplexityExceeded = errors.New("mutated value exceeds max complexity")
	ErrNoMutationPossible = errors.New("mutator could not produce a new value")

	// Corpus / driver I/O.
	ErrCorpusEntryMissing = errors.New("corpus entry not found on disk")
	ErrInputFileInvalid   = errors.New("input file could not be decoded")
)
