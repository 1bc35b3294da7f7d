package agents

import "errors"

// Collaborator failure sentinels. Every agent error wraps one of these
// so algorithms can report which external call failed.
var (
	// ErrExtraction indicates the constraint extractor failed.
	ErrExtraction = errors.New("constraint extraction failed")

	// ErrVerification indicates the plan verifier failed.
	ErrVerification = errors.New("plan verification failed")

	// ErrSelection indicates the selection agent failed.
	ErrSelection = errors.New("solution selection failed")
)
