package scene

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/J-Rosales/st-scene-state/internal/markup"
)

func TestCanonicalizeRebuildsEdges(t *testing.T) {
	s := Default()
	s.Agents = []*Agent{{
		ID:   "agent-alice",
		Name: "Alice",
		Anchors: []Anchor{{
			Name:     "hips",
			Supports: []Support{{Target: "object-chair", Confidence: 0.75}},
			Contacts: []Contact{{Target: "object-chair", Kind: "rest", Confidence: 0.7}},
		}},
	}}
	// Authored edges are stale and must be replaced.
	s.Supports = []SupportEdge{{AgentID: "agent-bob", Target: "object-bed", Confidence: 0.9}}

	Canonicalize(s)

	if len(s.Supports) != 1 {
		t.Fatalf("expected 1 support edge, got %d", len(s.Supports))
	}
	want := SupportEdge{AgentID: "agent-alice", Anchor: "hips", Target: "object-chair", Confidence: 0.75}
	if s.Supports[0] != want {
		t.Errorf("support edge = %+v", s.Supports[0])
	}
	if len(s.Contacts) != 1 || s.Contacts[0].Kind != "rest" {
		t.Errorf("contact edges = %+v", s.Contacts)
	}
}

func TestCanonicalizeDropsTargetlessRecords(t *testing.T) {
	s := Default()
	s.Agents = []*Agent{{
		ID: "agent-a",
		Anchors: []Anchor{{
			Name:     "hand",
			Supports: []Support{{Target: "", Confidence: 0.5}},
			Contacts: []Contact{{Target: "", Kind: "grip", Confidence: 0.5}},
		}},
	}}

	Canonicalize(s)

	if len(s.Supports) != 0 || len(s.Contacts) != 0 {
		t.Errorf("targetless records survived: supports=%v contacts=%v", s.Supports, s.Contacts)
	}
}

func TestCanonicalizeFillsDefaults(t *testing.T) {
	s := &Snapshot{}
	Canonicalize(s)
	if s.SchemaVersion != SchemaVersion {
		t.Errorf("schema version = %q", s.SchemaVersion)
	}
	if s.Agents == nil || s.Objects == nil || s.Supports == nil ||
		s.Contacts == nil || s.Narrative == nil || s.Conflicts == nil {
		t.Error("collections must be non-nil after canonicalization")
	}
}

func TestToTreeKeyOrder(t *testing.T) {
	s := Default()
	Canonicalize(s)
	tree := ToTree(s)

	want := []string{"schema_version", "meta", "agents", "objects", "supports", "contacts", "narrative_projection", "conflicts"}
	got := tree.Keys()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top-level key order mismatch (-want +got):\n%s", diff)
	}
}

func TestToTreeRoundsConfidences(t *testing.T) {
	s := Default()
	s.Agents = []*Agent{{ID: "agent-a", Name: "A", Confidence: 0.333333, Salience: 0.666666}}
	Canonicalize(s)
	tree := ToTree(s)

	agents, _ := tree.Get("agents")
	agent := agents.(*markup.Sequence).Items[0].(*markup.Mapping)
	if v, _ := agent.Get("confidence"); v != markup.Number(0.333) {
		t.Errorf("confidence = %#v", v)
	}
	if v, _ := agent.Get("salience_score"); v != markup.Number(0.667) {
		t.Errorf("salience_score = %#v", v)
	}
}

func TestConflictToTreeOmitsEmptyFields(t *testing.T) {
	s := Default()
	s.Conflicts = []ConflictNote{{Note: "pinned_overflow: 5 pinned, capacity 4", Confidence: 0.6}}
	Canonicalize(s)
	text := markup.Dump(ToTree(s))

	if strings.Contains(text, "entity_id") {
		t.Error("empty entity_id should be omitted")
	}
	if !strings.Contains(text, `note: "pinned_overflow: 5 pinned, capacity 4"`) {
		t.Errorf("note missing from output:\n%s", text)
	}
}

// Snapshot round trip: dumping the canonical tree and normalizing the reparse
// must produce an identical snapshot.
func TestSnapshotRoundTrip(t *testing.T) {
	idx := 3
	s := Default()
	s.Meta = Meta{UpdatedAt: "2026-01-02T03:04:05Z", Mode: ModeConservative, WindowK: 8}
	s.Agents = []*Agent{{
		ID:         "agent-alice",
		Name:       "Alice",
		Confidence: 0.9,
		Salience:   0.547,
		Posture:    &Posture{Value: "sitting", Confidence: 0.8},
		Anchors: []Anchor{{
			Name:     "hips",
			Supports: []Support{{Target: "object-chair", Confidence: 0.75}},
			Contacts: []Contact{{Target: "object-chair", Kind: "rest", Confidence: 0.7}},
		}},
	}}
	s.Objects = []*Object{{ID: "object-chair", Name: "chair", Type: "furniture", Confidence: 0.8, Salience: 0.4}}
	s.Narrative = []NarrativeLine{{Text: "Alice sits on the chair.", Confidence: 0.8}}
	s.Conflicts = []ConflictNote{{
		EntityID:      "agent-alice",
		Fields:        []string{"posture"},
		PreviousValue: "standing",
		CurrentValue:  "sitting",
		Comparison:    &ConfidencePair{Previous: 0.7, Current: 0.8},
		Indices:       &IndexPair{Previous: nil, Current: &idx},
	}}
	Canonicalize(s)

	text := markup.Dump(ToTree(s))
	node, err := markup.Parse(text)
	if err != nil {
		t.Fatalf("reparse failed: %v\ntext:\n%s", err, text)
	}
	back := FromTree(node)
	Canonicalize(back)

	if diff := cmp.Diff(s, back); diff != "" {
		t.Errorf("snapshot round trip mismatch (-first +second):\n%s", diff)
	}
}
