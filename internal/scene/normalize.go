package scene

import (
	"github.com/J-Rosales/st-scene-state/internal/markup"
)

// Default returns an empty snapshot with every collection present and meta
// set to engine defaults.
func Default() *Snapshot {
	return &Snapshot{
		SchemaVersion: SchemaVersion,
		Meta:          Meta{Mode: ModeConservative},
		Agents:        []*Agent{},
		Objects:       []*Object{},
		Supports:      []SupportEdge{},
		Contacts:      []ContactEdge{},
		Narrative:     []NarrativeLine{},
		Conflicts:     []ConflictNote{},
	}
}

// FromTree normalizes an arbitrary tree into a structurally valid snapshot.
// It never fails: missing or malformed fields fall back to defaults, and
// semantic correctness is deferred to the later pipeline stages.
func FromTree(node markup.Node) *Snapshot {
	s := Default()
	root, ok := node.(*markup.Mapping)
	if !ok {
		return s
	}
	if v := stringAt(root, "schema_version"); v != "" {
		s.SchemaVersion = v
	}
	if meta, ok := mappingAt(root, "meta"); ok {
		s.Meta.UpdatedAt = stringAt(meta, "updated_at")
		if mode := stringAt(meta, "mode"); mode != "" {
			s.Meta.Mode = mode
		}
		s.Meta.WindowK = intAt(meta, "window_k")
		s.Meta.AllowImpliedObjects = boolAt(meta, "allow_implied_objects")
	}
	for _, item := range mappingsAt(root, "agents") {
		s.Agents = append(s.Agents, agentFromTree(item))
	}
	for _, item := range mappingsAt(root, "objects") {
		s.Objects = append(s.Objects, objectFromTree(item))
	}
	for _, item := range mappingsAt(root, "supports") {
		s.Supports = append(s.Supports, SupportEdge{
			AgentID:    stringAt(item, "agent_id"),
			Anchor:     stringAt(item, "anchor"),
			Target:     stringAt(item, "target"),
			Confidence: confidenceAt(item, "confidence"),
		})
	}
	for _, item := range mappingsAt(root, "contacts") {
		s.Contacts = append(s.Contacts, ContactEdge{
			AgentID:    stringAt(item, "agent_id"),
			Anchor:     stringAt(item, "anchor"),
			Target:     stringAt(item, "target"),
			Kind:       stringAt(item, "kind"),
			Confidence: confidenceAt(item, "confidence"),
		})
	}
	for _, item := range mappingsAt(root, "narrative_projection") {
		s.Narrative = append(s.Narrative, NarrativeLine{
			Text:       stringAt(item, "text"),
			Confidence: confidenceAt(item, "confidence"),
		})
	}
	for _, item := range mappingsAt(root, "conflicts") {
		s.Conflicts = append(s.Conflicts, conflictFromTree(item))
	}
	return s
}

func agentFromTree(m *markup.Mapping) *Agent {
	a := &Agent{
		ID:         stringAt(m, "id"),
		Name:       stringAt(m, "name"),
		Confidence: confidenceAt(m, "confidence"),
		Salience:   confidenceAt(m, "salience_score"),
	}
	if pm, ok := mappingAt(m, "posture"); ok {
		a.Posture = &Posture{
			Value:      stringAt(pm, "value"),
			Confidence: confidenceAt(pm, "confidence"),
		}
	}
	for _, am := range mappingsAt(m, "anchors") {
		anchor := Anchor{Name: stringAt(am, "name")}
		for _, cm := range mappingsAt(am, "contacts") {
			anchor.Contacts = append(anchor.Contacts, Contact{
				Target:     stringAt(cm, "target"),
				Kind:       stringAt(cm, "kind"),
				Confidence: confidenceAt(cm, "confidence"),
			})
		}
		for _, sm := range mappingsAt(am, "supports") {
			anchor.Supports = append(anchor.Supports, Support{
				Target:     stringAt(sm, "target"),
				Confidence: confidenceAt(sm, "confidence"),
			})
		}
		a.Anchors = append(a.Anchors, anchor)
	}
	return a
}

func objectFromTree(m *markup.Mapping) *Object {
	return &Object{
		ID:         stringAt(m, "id"),
		Name:       stringAt(m, "name"),
		Type:       stringAt(m, "type"),
		Confidence: confidenceAt(m, "confidence"),
		Salience:   confidenceAt(m, "salience_score"),
	}
}

func conflictFromTree(m *markup.Mapping) ConflictNote {
	note := ConflictNote{
		EntityID:      stringAt(m, "entity_id"),
		PreviousValue: stringAt(m, "previous_value"),
		CurrentValue:  stringAt(m, "current_value"),
		Note:          stringAt(m, "note"),
		Confidence:    confidenceAt(m, "confidence"),
	}
	if fields, ok := m.Get("fields"); ok {
		if seq, ok := fields.(*markup.Sequence); ok {
			for _, item := range seq.Items {
				if sc, ok := item.(markup.Scalar); ok && sc.Kind == markup.KindString {
					note.Fields = append(note.Fields, sc.Str)
				}
			}
		}
	}
	if cmp, ok := mappingAt(m, "confidence_comparison"); ok {
		note.Comparison = &ConfidencePair{
			Previous: confidenceAt(cmp, "previous"),
			Current:  confidenceAt(cmp, "current"),
		}
	}
	if idx, ok := mappingAt(m, "message_indices"); ok {
		note.Indices = &IndexPair{
			Previous: indexAt(idx, "previous"),
			Current:  indexAt(idx, "current"),
		}
	}
	return note
}

func stringAt(m *markup.Mapping, key string) string {
	n, ok := m.Get(key)
	if !ok {
		return ""
	}
	sc, ok := n.(markup.Scalar)
	if !ok || sc.Kind != markup.KindString {
		return ""
	}
	return sc.Str
}

func intAt(m *markup.Mapping, key string) int {
	n, ok := m.Get(key)
	if !ok {
		return 0
	}
	sc, ok := n.(markup.Scalar)
	if !ok || sc.Kind != markup.KindNumber {
		return 0
	}
	return int(sc.Num)
}

func boolAt(m *markup.Mapping, key string) bool {
	n, ok := m.Get(key)
	if !ok {
		return false
	}
	sc, ok := n.(markup.Scalar)
	return ok && sc.Kind == markup.KindBool && sc.Bool
}

// confidenceAt reads a numeric field clamped to [0, 1].
func confidenceAt(m *markup.Mapping, key string) float64 {
	n, ok := m.Get(key)
	if !ok {
		return 0
	}
	sc, ok := n.(markup.Scalar)
	if !ok || sc.Kind != markup.KindNumber {
		return 0
	}
	return Clamp01(sc.Num)
}

func indexAt(m *markup.Mapping, key string) *int {
	n, ok := m.Get(key)
	if !ok {
		return nil
	}
	sc, ok := n.(markup.Scalar)
	if !ok || sc.Kind != markup.KindNumber {
		return nil
	}
	v := int(sc.Num)
	return &v
}

func mappingAt(m *markup.Mapping, key string) (*markup.Mapping, bool) {
	n, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := n.(*markup.Mapping)
	return child, ok
}

// mappingsAt reads a sequence field and keeps only its mapping items.
// Missing fields and wrong shapes yield an empty result.
func mappingsAt(m *markup.Mapping, key string) []*markup.Mapping {
	n, ok := m.Get(key)
	if !ok {
		return nil
	}
	seq, ok := n.(*markup.Sequence)
	if !ok {
		return nil
	}
	var out []*markup.Mapping
	for _, item := range seq.Items {
		if child, ok := item.(*markup.Mapping); ok {
			out = append(out, child)
		}
	}
	return out
}
