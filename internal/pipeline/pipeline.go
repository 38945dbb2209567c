package pipeline

import "github.com/J-Rosales/st-scene-state/internal/scene"

// Options carries the per-round inputs the stages need beyond the snapshots
// themselves. The zero value disables locks, pins, and pruning.
type Options struct {
	Window     []scene.Message
	Locks      scene.Locks
	Pins       scene.PinSet
	MaxPresent int
	Evidence   EvidenceFunc
}

// Apply runs the reconciliation stages in their fixed order: continuity,
// salience, locks, conflicts, pruning, canonicalization. The previous
// snapshot is read-only input and is never mutated.
func Apply(cur, prev *scene.Snapshot, opts Options) {
	ResolveContinuity(cur, prev)
	ScoreSalience(cur, opts.Window)
	EnforceLocks(cur, prev, opts.Locks, opts.Window, opts.Evidence)
	DetectConflicts(cur, prev, opts.Window)
	PruneAgents(cur, opts.Pins, opts.MaxPresent)
	scene.Canonicalize(cur)
}
