package pipeline

import (
	"strings"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// DetectConflicts compares posture values and primary-support targets of
// current agents against their id-matched previous counterparts. A
// case-insensitive difference between two non-empty values appends a
// ConflictNote with both confidences and the window index of the last
// message mentioning each value.
func DetectConflicts(cur, prev *scene.Snapshot, window []scene.Message) {
	if prev == nil {
		return
	}
	prevByID := make(map[string]*scene.Agent, len(prev.Agents))
	for _, a := range prev.Agents {
		prevByID[a.ID] = a
	}
	for _, a := range cur.Agents {
		p, ok := prevByID[a.ID]
		if !ok {
			continue
		}
		if note, found := postureConflict(a, p, window); found {
			cur.Conflicts = append(cur.Conflicts, note)
		}
		if note, found := supportConflict(a, p, window); found {
			cur.Conflicts = append(cur.Conflicts, note)
		}
	}
}

func postureConflict(a, p *scene.Agent, window []scene.Message) (scene.ConflictNote, bool) {
	if a.Posture == nil || p.Posture == nil {
		return scene.ConflictNote{}, false
	}
	prevValue, curValue := p.Posture.Value, a.Posture.Value
	if prevValue == "" || curValue == "" || strings.EqualFold(prevValue, curValue) {
		return scene.ConflictNote{}, false
	}
	return scene.ConflictNote{
		EntityID:      a.ID,
		Fields:        []string{"posture"},
		PreviousValue: prevValue,
		CurrentValue:  curValue,
		Comparison: &scene.ConfidencePair{
			Previous: scene.Round3(p.Posture.Confidence),
			Current:  scene.Round3(a.Posture.Confidence),
		},
		Indices: &scene.IndexPair{
			Previous: lastMention(window, prevValue),
			Current:  lastMention(window, curValue),
		},
	}, true
}

func supportConflict(a, p *scene.Agent, window []scene.Message) (scene.ConflictNote, bool) {
	prevSup, _, prevOK := p.PrimarySupport()
	curSup, _, curOK := a.PrimarySupport()
	if !prevOK || !curOK {
		return scene.ConflictNote{}, false
	}
	if prevSup.Target == "" || curSup.Target == "" || strings.EqualFold(prevSup.Target, curSup.Target) {
		return scene.ConflictNote{}, false
	}
	return scene.ConflictNote{
		EntityID:      a.ID,
		Fields:        []string{"primary_support"},
		PreviousValue: prevSup.Target,
		CurrentValue:  curSup.Target,
		Comparison: &scene.ConfidencePair{
			Previous: scene.Round3(prevSup.Confidence),
			Current:  scene.Round3(curSup.Confidence),
		},
		Indices: &scene.IndexPair{
			Previous: lastMention(window, prevSup.Target),
			Current:  lastMention(window, curSup.Target),
		},
	}, true
}

// lastMention searches the window backward for the last message containing
// the value, case-insensitively. Nil when the value is not in the window.
func lastMention(window []scene.Message, value string) *int {
	needle := strings.ToLower(value)
	if needle == "" {
		return nil
	}
	for i := len(window) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(window[i].Content), needle) {
			idx := i
			return &idx
		}
	}
	return nil
}
