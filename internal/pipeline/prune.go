package pipeline

import (
	"fmt"
	"sort"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// overflowConfidence is the confidence of a pinned-overflow notice.
const overflowConfidence = 0.6

// PruneAgents bounds the number of retained agents. Pinned agents are always
// kept; the remaining budget goes to unpinned agents by salience descending,
// then normalized name, then id. When pins alone exceed the budget, pruning
// is skipped entirely and a ConflictNote records the overflow.
func PruneAgents(s *scene.Snapshot, pins scene.PinSet, maxPresent int) {
	if maxPresent <= 0 || len(s.Agents) <= maxPresent {
		return
	}
	pinnedCount := 0
	for _, a := range s.Agents {
		if pins[a.ID] {
			pinnedCount++
		}
	}
	if pinnedCount > maxPresent {
		s.Conflicts = append(s.Conflicts, scene.ConflictNote{
			Note:       fmt.Sprintf("pinned_overflow: %d pinned agents exceed capacity %d", pinnedCount, maxPresent),
			Confidence: overflowConfidence,
		})
		return
	}

	var unpinned []*scene.Agent
	for _, a := range s.Agents {
		if !pins[a.ID] {
			unpinned = append(unpinned, a)
		}
	}
	sort.SliceStable(unpinned, func(i, j int) bool {
		if unpinned[i].Salience != unpinned[j].Salience {
			return unpinned[i].Salience > unpinned[j].Salience
		}
		ni, nj := NormalizeName(unpinned[i].Name), NormalizeName(unpinned[j].Name)
		if ni != nj {
			return ni < nj
		}
		return unpinned[i].ID < unpinned[j].ID
	})

	keep := make(map[string]bool, maxPresent)
	budget := maxPresent - pinnedCount
	for i := 0; i < budget && i < len(unpinned); i++ {
		keep[unpinned[i].ID] = true
	}

	kept := make([]*scene.Agent, 0, maxPresent)
	for _, a := range s.Agents {
		if pins[a.ID] || keep[a.ID] {
			kept = append(kept, a)
		}
	}
	s.Agents = kept
}
