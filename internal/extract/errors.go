// Package extract drives one inference round: prompt construction, the
// primary and repair generator calls, and the reconciliation pipeline over
// the parsed result. Every round terminates in a structurally valid snapshot.
package extract

import "errors"

// The local failure taxonomy. All of these are recovered inside RunRound via
// the repair-then-fallback path; none escape as a crash.
var (
	ErrEmptyOutput     = errors.New("generator returned empty or invalid output")
	ErrOutputTooLarge  = errors.New("generator output exceeds size cap")
	ErrRepairFailed    = errors.New("repair attempt failed to produce parseable output")
	ErrRoundInProgress = errors.New("extraction round already in progress for this conversation")
)
