// Package scene defines the typed snapshot records and the conversions
// between them and the generic markup tree. Typed records are produced only
// here; the rest of the pipeline never handles untyped trees.
package scene

import "math"

// SchemaVersion tags the snapshot schema in canonical output.
const SchemaVersion = "pose-contact-spec-0.1"

// Extraction modes controlling whether implied baseline objects may appear.
const (
	ModeConservative = "conservative"
	ModeDescriptive  = "descriptive"
)

// Snapshot is the canonical structured scene description for one turn.
// Every collection field is non-nil after normalization.
type Snapshot struct {
	SchemaVersion string
	Meta          Meta
	Agents        []*Agent
	Objects       []*Object
	Supports      []SupportEdge
	Contacts      []ContactEdge
	Narrative     []NarrativeLine
	Conflicts     []ConflictNote
}

// Meta carries round-level bookkeeping.
type Meta struct {
	UpdatedAt           string
	Mode                string
	WindowK             int
	AllowImpliedObjects bool
}

// Agent is a present character.
type Agent struct {
	ID         string
	Name       string
	Confidence float64
	Salience   float64
	Posture    *Posture
	Anchors    []Anchor
}

// Posture is a stated pose with its confidence.
type Posture struct {
	Value      string
	Confidence float64
}

// Object is a present non-character entity.
type Object struct {
	ID         string
	Name       string
	Type       string
	Confidence float64
	Salience   float64
}

// Anchor is a named body reference point owning contact and support records.
type Anchor struct {
	Name     string
	Contacts []Contact
	Supports []Support
}

// Contact records a touch-type relationship from an anchor to a target.
type Contact struct {
	Target     string
	Kind       string
	Confidence float64
}

// Support records a weight-bearing relationship from an anchor to a target.
type Support struct {
	Target     string
	Confidence float64
}

// SupportEdge is a flattened support record, rebuilt from agent anchors.
type SupportEdge struct {
	AgentID    string
	Anchor     string
	Target     string
	Confidence float64
}

// ContactEdge is a flattened contact record, rebuilt from agent anchors.
type ContactEdge struct {
	AgentID    string
	Anchor     string
	Target     string
	Kind       string
	Confidence float64
}

// NarrativeLine is a rendering-ready summary sentence.
type NarrativeLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ConfidencePair compares previous and current confidences.
type ConfidencePair struct {
	Previous float64
	Current  float64
}

// IndexPair records window indices of the last message mentioning each value.
// A nil index means the value was not found in the window.
type IndexPair struct {
	Previous *int
	Current  *int
}

// ConflictNote records a disagreement against the prior snapshot, or a
// free-form engine notice (pruning overflow, inference failure).
type ConflictNote struct {
	EntityID      string
	Fields        []string
	PreviousValue string
	CurrentValue  string
	Comparison    *ConfidencePair
	Indices       *IndexPair
	Note          string
	Confidence    float64
}

// Message is one turn of the surrounding conversation.
type Message struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// LockFlags marks which fields of an agent are pinned against change.
type LockFlags struct {
	Posture        bool `json:"posture,omitempty"`
	PrimarySupport bool `json:"primary_support,omitempty"`
}

// Locks maps agent ids to their lock flags. Locks are externally authored
// user intent; the engine consumes them but never produces them.
type Locks map[string]LockFlags

// PinSet is the set of agent ids exempt from capacity pruning.
type PinSet map[string]bool

// NewPinSet builds a pin set from a list of agent ids.
func NewPinSet(ids []string) PinSet {
	pins := make(PinSet, len(ids))
	for _, id := range ids {
		pins[id] = true
	}
	return pins
}

// Round3 rounds to three decimal places, the precision used for all derived
// confidences and scores.
func Round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// Clamp01 bounds a value to [0, 1].
func Clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PrimarySupport returns the support record with the highest confidence
// across all of the agent's anchors, along with its anchor name. Ties keep
// the earliest record. The second return is false when no support exists.
func (a *Agent) PrimarySupport() (Support, string, bool) {
	var best Support
	var anchor string
	found := false
	for _, an := range a.Anchors {
		for _, sup := range an.Supports {
			if !found || sup.Confidence > best.Confidence {
				best = sup
				anchor = an.Name
				found = true
			}
		}
	}
	return best, anchor, found
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		SchemaVersion: s.SchemaVersion,
		Meta:          s.Meta,
		Agents:        make([]*Agent, len(s.Agents)),
		Objects:       make([]*Object, len(s.Objects)),
		Supports:      append([]SupportEdge(nil), s.Supports...),
		Contacts:      append([]ContactEdge(nil), s.Contacts...),
		Narrative:     append([]NarrativeLine(nil), s.Narrative...),
		Conflicts:     make([]ConflictNote, len(s.Conflicts)),
	}
	if out.Supports == nil {
		out.Supports = []SupportEdge{}
	}
	if out.Contacts == nil {
		out.Contacts = []ContactEdge{}
	}
	if out.Narrative == nil {
		out.Narrative = []NarrativeLine{}
	}
	for i, a := range s.Agents {
		out.Agents[i] = a.clone()
	}
	for i, o := range s.Objects {
		cp := *o
		out.Objects[i] = &cp
	}
	for i, c := range s.Conflicts {
		out.Conflicts[i] = c.clone()
	}
	return out
}

func (a *Agent) clone() *Agent {
	cp := *a
	if a.Posture != nil {
		p := *a.Posture
		cp.Posture = &p
	}
	cp.Anchors = make([]Anchor, len(a.Anchors))
	for i, an := range a.Anchors {
		cp.Anchors[i] = Anchor{
			Name:     an.Name,
			Contacts: append([]Contact(nil), an.Contacts...),
			Supports: append([]Support(nil), an.Supports...),
		}
	}
	return &cp
}

func (c ConflictNote) clone() ConflictNote {
	cp := c
	cp.Fields = append([]string(nil), c.Fields...)
	if c.Comparison != nil {
		pair := *c.Comparison
		cp.Comparison = &pair
	}
	if c.Indices != nil {
		pair := IndexPair{}
		if c.Indices.Previous != nil {
			v := *c.Indices.Previous
			pair.Previous = &v
		}
		if c.Indices.Current != nil {
			v := *c.Indices.Current
			pair.Current = &v
		}
		cp.Indices = &pair
	}
	return cp
}
