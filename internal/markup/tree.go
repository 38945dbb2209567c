// Package markup implements the constrained text-markup dialect used for
// canonical scene snapshots: an indentation-scoped language of mappings,
// ordered sequences, and scalars.
package markup

// Node is a tree value: a Scalar, a Sequence, or a Mapping.
type Node interface {
	isNode()
}

// ScalarKind discriminates the scalar variants.
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindBool
	KindNumber
	KindString
)

// Scalar is a leaf value.
type Scalar struct {
	Kind ScalarKind
	Bool bool
	Num  float64
	Str  string
}

func (Scalar) isNode() {}

// Null returns a null scalar.
func Null() Scalar { return Scalar{Kind: KindNull} }

// Boolean returns a boolean scalar.
func Boolean(b bool) Scalar { return Scalar{Kind: KindBool, Bool: b} }

// Number returns a numeric scalar.
func Number(f float64) Scalar { return Scalar{Kind: KindNumber, Num: f} }

// String returns a string scalar.
func String(s string) Scalar { return Scalar{Kind: KindString, Str: s} }

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
}

func (*Sequence) isNode() {}

// Append adds an item to the sequence.
func (s *Sequence) Append(n Node) {
	s.Items = append(s.Items, n)
}

// Mapping is an insertion-ordered map from string keys to nodes.
type Mapping struct {
	keys []string
	vals map[string]Node
}

func (*Mapping) isNode() {}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Node)}
}

// Set inserts or replaces a key. A new key is appended to the key order.
func (m *Mapping) Set(key string, n Node) {
	if m.vals == nil {
		m.vals = make(map[string]Node)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = n
}

// Get returns the value for key, if present.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil || m.vals == nil {
		return nil, false
	}
	n, ok := m.vals[key]
	return n, ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Delete removes a key, preserving the order of the remaining keys.
func (m *Mapping) Delete(key string) {
	if m == nil || m.vals == nil {
		return
	}
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Equal reports structural equality with another mapping. It makes Mapping
// comparable by go-cmp without exposing the internal key slice.
func (m *Mapping) Equal(o *Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.Keys() {
		if o.keys[i] != k {
			return false
		}
		if !NodeEqual(m.vals[k], o.vals[k]) {
			return false
		}
	}
	return true
}

// NodeEqual reports deep structural equality of two nodes.
func NodeEqual(a, b Node) bool {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av == bv
	case *Sequence:
		bv, ok := b.(*Sequence)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !NodeEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv, ok := b.(*Mapping)
		return ok && av.Equal(bv)
	case nil:
		return b == nil
	}
	return false
}
