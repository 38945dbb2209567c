package scene

import (
	"github.com/J-Rosales/st-scene-state/internal/markup"
)

// Canonicalize rebuilds the derived relationship edges from agent anchors and
// guarantees every collection field is non-nil. Authored supports/contacts are
// always discarded in favor of the rebuilt edges; records with no target are
// dropped.
func Canonicalize(s *Snapshot) {
	if s.SchemaVersion == "" {
		s.SchemaVersion = SchemaVersion
	}
	s.Supports = []SupportEdge{}
	s.Contacts = []ContactEdge{}
	for _, a := range s.Agents {
		for _, anchor := range a.Anchors {
			for _, c := range anchor.Contacts {
				if c.Target == "" {
					continue
				}
				s.Contacts = append(s.Contacts, ContactEdge{
					AgentID:    a.ID,
					Anchor:     anchor.Name,
					Target:     c.Target,
					Kind:       c.Kind,
					Confidence: c.Confidence,
				})
			}
			for _, sup := range anchor.Supports {
				if sup.Target == "" {
					continue
				}
				s.Supports = append(s.Supports, SupportEdge{
					AgentID:    a.ID,
					Anchor:     anchor.Name,
					Target:     sup.Target,
					Confidence: sup.Confidence,
				})
			}
		}
	}
	if s.Agents == nil {
		s.Agents = []*Agent{}
	}
	if s.Objects == nil {
		s.Objects = []*Object{}
	}
	if s.Narrative == nil {
		s.Narrative = []NarrativeLine{}
	}
	if s.Conflicts == nil {
		s.Conflicts = []ConflictNote{}
	}
}

// ToTree converts a snapshot to its canonical tree with the fixed top-level
// key order. Canonicalize should run first so the derived edges are current.
func ToTree(s *Snapshot) *markup.Mapping {
	root := markup.NewMapping()
	root.Set("schema_version", markup.String(s.SchemaVersion))
	root.Set("meta", metaToTree(s.Meta))

	agents := &markup.Sequence{Items: []markup.Node{}}
	for _, a := range s.Agents {
		agents.Append(agentToTree(a))
	}
	root.Set("agents", agents)

	objects := &markup.Sequence{Items: []markup.Node{}}
	for _, o := range s.Objects {
		objects.Append(objectToTree(o))
	}
	root.Set("objects", objects)

	supports := &markup.Sequence{Items: []markup.Node{}}
	for _, e := range s.Supports {
		m := markup.NewMapping()
		m.Set("agent_id", markup.String(e.AgentID))
		m.Set("anchor", markup.String(e.Anchor))
		m.Set("target", markup.String(e.Target))
		m.Set("confidence", markup.Number(Round3(e.Confidence)))
		supports.Append(m)
	}
	root.Set("supports", supports)

	contacts := &markup.Sequence{Items: []markup.Node{}}
	for _, e := range s.Contacts {
		m := markup.NewMapping()
		m.Set("agent_id", markup.String(e.AgentID))
		m.Set("anchor", markup.String(e.Anchor))
		m.Set("target", markup.String(e.Target))
		if e.Kind != "" {
			m.Set("kind", markup.String(e.Kind))
		}
		m.Set("confidence", markup.Number(Round3(e.Confidence)))
		contacts.Append(m)
	}
	root.Set("contacts", contacts)

	narrative := &markup.Sequence{Items: []markup.Node{}}
	for _, line := range s.Narrative {
		m := markup.NewMapping()
		m.Set("text", markup.String(line.Text))
		m.Set("confidence", markup.Number(Round3(line.Confidence)))
		narrative.Append(m)
	}
	root.Set("narrative_projection", narrative)

	conflicts := &markup.Sequence{Items: []markup.Node{}}
	for _, note := range s.Conflicts {
		conflicts.Append(conflictToTree(note))
	}
	root.Set("conflicts", conflicts)

	return root
}

func metaToTree(m Meta) *markup.Mapping {
	out := markup.NewMapping()
	out.Set("updated_at", markup.String(m.UpdatedAt))
	out.Set("mode", markup.String(m.Mode))
	out.Set("window_k", markup.Number(float64(m.WindowK)))
	out.Set("allow_implied_objects", markup.Boolean(m.AllowImpliedObjects))
	return out
}

func agentToTree(a *Agent) *markup.Mapping {
	m := markup.NewMapping()
	m.Set("id", markup.String(a.ID))
	m.Set("name", markup.String(a.Name))
	m.Set("confidence", markup.Number(Round3(a.Confidence)))
	m.Set("salience_score", markup.Number(Round3(a.Salience)))
	if a.Posture != nil {
		pm := markup.NewMapping()
		pm.Set("value", markup.String(a.Posture.Value))
		pm.Set("confidence", markup.Number(Round3(a.Posture.Confidence)))
		m.Set("posture", pm)
	}
	if len(a.Anchors) > 0 {
		anchors := &markup.Sequence{}
		for _, anchor := range a.Anchors {
			anchors.Append(anchorToTree(anchor))
		}
		m.Set("anchors", anchors)
	}
	return m
}

func anchorToTree(a Anchor) *markup.Mapping {
	m := markup.NewMapping()
	m.Set("name", markup.String(a.Name))
	if len(a.Contacts) > 0 {
		seq := &markup.Sequence{}
		for _, c := range a.Contacts {
			cm := markup.NewMapping()
			cm.Set("target", markup.String(c.Target))
			cm.Set("kind", markup.String(c.Kind))
			cm.Set("confidence", markup.Number(Round3(c.Confidence)))
			seq.Append(cm)
		}
		m.Set("contacts", seq)
	}
	if len(a.Supports) > 0 {
		seq := &markup.Sequence{}
		for _, sup := range a.Supports {
			sm := markup.NewMapping()
			sm.Set("target", markup.String(sup.Target))
			sm.Set("confidence", markup.Number(Round3(sup.Confidence)))
			seq.Append(sm)
		}
		m.Set("supports", seq)
	}
	return m
}

func objectToTree(o *Object) *markup.Mapping {
	m := markup.NewMapping()
	m.Set("id", markup.String(o.ID))
	m.Set("name", markup.String(o.Name))
	if o.Type != "" {
		m.Set("type", markup.String(o.Type))
	}
	m.Set("confidence", markup.Number(Round3(o.Confidence)))
	m.Set("salience_score", markup.Number(Round3(o.Salience)))
	return m
}

func conflictToTree(n ConflictNote) *markup.Mapping {
	m := markup.NewMapping()
	if n.EntityID != "" {
		m.Set("entity_id", markup.String(n.EntityID))
	}
	if len(n.Fields) > 0 {
		seq := &markup.Sequence{}
		for _, f := range n.Fields {
			seq.Append(markup.String(f))
		}
		m.Set("fields", seq)
	}
	if n.PreviousValue != "" {
		m.Set("previous_value", markup.String(n.PreviousValue))
	}
	if n.CurrentValue != "" {
		m.Set("current_value", markup.String(n.CurrentValue))
	}
	if n.Comparison != nil {
		cm := markup.NewMapping()
		cm.Set("previous", markup.Number(Round3(n.Comparison.Previous)))
		cm.Set("current", markup.Number(Round3(n.Comparison.Current)))
		m.Set("confidence_comparison", cm)
	}
	if n.Indices != nil {
		im := markup.NewMapping()
		im.Set("previous", indexNode(n.Indices.Previous))
		im.Set("current", indexNode(n.Indices.Current))
		m.Set("message_indices", im)
	}
	if n.Note != "" {
		m.Set("note", markup.String(n.Note))
	}
	if n.Confidence > 0 {
		m.Set("confidence", markup.Number(Round3(n.Confidence)))
	}
	return m
}

func indexNode(v *int) markup.Node {
	if v == nil {
		return markup.Null()
	}
	return markup.Number(float64(*v))
}
