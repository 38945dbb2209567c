package pipeline

import (
	"strings"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// lockConfidence is the fixed confidence of a lock-reversion note.
const lockConfidence = 0.7

// PostureVerbs is the default explicit-evidence verb list. Its coverage is
// inherently incomplete, which is why the predicate is injectable.
var PostureVerbs = []string{
	"stand", "stand up", "sit", "sit on", "sit in", "kneel", "lie down", "lay down",
}

// EvidenceFunc decides whether the message window contains explicit evidence
// for a posture or support change of the named agent.
type EvidenceFunc func(window []scene.Message, agentName string) bool

// VerbEvidence builds the default predicate: a verb and the agent's
// normalized name co-occurring, case-insensitively, in a single message.
func VerbEvidence(verbs []string) EvidenceFunc {
	lowered := make([]string, len(verbs))
	for i, v := range verbs {
		lowered[i] = strings.ToLower(v)
	}
	return func(window []scene.Message, agentName string) bool {
		name := NormalizeName(agentName)
		if name == "" {
			return false
		}
		for _, msg := range window {
			content := strings.ToLower(msg.Content)
			if !strings.Contains(content, name) {
				continue
			}
			for _, verb := range lowered {
				if strings.Contains(content, verb) {
					return true
				}
			}
		}
		return false
	}
}

// EnforceLocks reverts locked fields of current agents to their previous
// values unless the window holds explicit contradicting evidence. Each
// prevented update appends a ConflictNote with confidence 0.7.
func EnforceLocks(cur, prev *scene.Snapshot, locks scene.Locks, window []scene.Message, evidence EvidenceFunc) {
	if prev == nil || len(locks) == 0 {
		return
	}
	if evidence == nil {
		evidence = VerbEvidence(PostureVerbs)
	}
	prevByID := make(map[string]*scene.Agent, len(prev.Agents))
	for _, a := range prev.Agents {
		prevByID[a.ID] = a
	}
	for _, a := range cur.Agents {
		flags, locked := locks[a.ID]
		if !locked {
			continue
		}
		p, ok := prevByID[a.ID]
		if !ok {
			continue
		}
		if flags.Posture {
			enforcePostureLock(cur, a, p, window, evidence)
		}
		if flags.PrimarySupport {
			enforceSupportLock(cur, a, p, window, evidence)
		}
	}
}

func enforcePostureLock(cur *scene.Snapshot, a, p *scene.Agent, window []scene.Message, evidence EvidenceFunc) {
	prevValue, curValue := "", ""
	if p.Posture != nil {
		prevValue = p.Posture.Value
	}
	if a.Posture != nil {
		curValue = a.Posture.Value
	}
	if strings.EqualFold(prevValue, curValue) {
		return
	}
	if evidence(window, a.Name) {
		return
	}
	if p.Posture == nil {
		a.Posture = nil
	} else {
		restored := *p.Posture
		a.Posture = &restored
	}
	cur.Conflicts = append(cur.Conflicts, scene.ConflictNote{
		EntityID:      a.ID,
		Fields:        []string{"posture"},
		PreviousValue: prevValue,
		CurrentValue:  curValue,
		Note:          "lock_enforced",
		Confidence:    lockConfidence,
	})
}

func enforceSupportLock(cur *scene.Snapshot, a, p *scene.Agent, window []scene.Message, evidence EvidenceFunc) {
	prevSup, prevAnchor, prevOK := p.PrimarySupport()
	curSup, _, curOK := a.PrimarySupport()
	prevValue, curValue := "", ""
	if prevOK {
		prevValue = prevSup.Target
	}
	if curOK {
		curValue = curSup.Target
	}
	if strings.EqualFold(prevValue, curValue) {
		return
	}
	if evidence(window, a.Name) {
		return
	}
	restorePrimarySupport(a, prevSup, prevAnchor, prevOK)
	cur.Conflicts = append(cur.Conflicts, scene.ConflictNote{
		EntityID:      a.ID,
		Fields:        []string{"primary_support"},
		PreviousValue: prevValue,
		CurrentValue:  curValue,
		Note:          "lock_enforced",
		Confidence:    lockConfidence,
	})
}

// restorePrimarySupport overwrites the agent's current primary support record
// with the previous one, adding an anchor when the agent has none to carry it.
func restorePrimarySupport(a *scene.Agent, prevSup scene.Support, prevAnchor string, prevOK bool) {
	if !prevOK {
		// The lock protects the absence of a support; drop the new record.
		removePrimarySupport(a)
		return
	}
	for i := range a.Anchors {
		for j := range a.Anchors[i].Supports {
			cur, _, ok := a.PrimarySupport()
			if ok && a.Anchors[i].Supports[j] == cur {
				a.Anchors[i].Supports[j] = prevSup
				return
			}
		}
	}
	a.Anchors = append(a.Anchors, scene.Anchor{
		Name:     prevAnchor,
		Supports: []scene.Support{prevSup},
	})
}

func removePrimarySupport(a *scene.Agent) {
	cur, _, ok := a.PrimarySupport()
	if !ok {
		return
	}
	for i := range a.Anchors {
		for j := range a.Anchors[i].Supports {
			if a.Anchors[i].Supports[j] == cur {
				a.Anchors[i].Supports = append(a.Anchors[i].Supports[:j], a.Anchors[i].Supports[j+1:]...)
				return
			}
		}
	}
}
