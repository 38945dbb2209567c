package markup

import (
	"testing"
)

func TestDumpMapping(t *testing.T) {
	m := NewMapping()
	m.Set("schema_version", String("pose-contact-spec-0.1"))
	meta := NewMapping()
	meta.Set("window_k", Number(8))
	meta.Set("allow_implied_objects", Boolean(true))
	m.Set("meta", meta)

	want := "schema_version: pose-contact-spec-0.1\n" +
		"meta:\n" +
		"  window_k: 8\n" +
		"  allow_implied_objects: true"
	if got := Dump(m); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDumpSequenceOfMappings(t *testing.T) {
	alice := NewMapping()
	alice.Set("id", String("agent-alice"))
	alice.Set("name", String("Alice"))
	posture := NewMapping()
	posture.Set("value", String("sitting"))
	posture.Set("confidence", Number(0.8))
	alice.Set("posture", posture)

	seq := &Sequence{Items: []Node{alice}}
	root := NewMapping()
	root.Set("agents", seq)

	want := "agents:\n" +
		"  - id: agent-alice\n" +
		"    name: Alice\n" +
		"    posture:\n" +
		"      value: sitting\n" +
		"      confidence: 0.8"
	if got := Dump(root); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDumpScalars(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		expected string
	}{
		{name: "null", node: Null(), expected: "null"},
		{name: "true", node: Boolean(true), expected: "true"},
		{name: "false", node: Boolean(false), expected: "false"},
		{name: "integer prints without decimals", node: Number(42), expected: "42"},
		{name: "decimal prints shortest form", node: Number(0.85), expected: "0.85"},
		{name: "plain string unquoted", node: String("sitting"), expected: "sitting"},
		{name: "empty string quoted", node: String(""), expected: `""`},
		{name: "colon forces quotes", node: String("a: b"), expected: `"a: b"`},
		{name: "hash forces quotes", node: String("not # comment"), expected: `"not # comment"`},
		{name: "newline forces quotes", node: String("a\nb"), expected: `"a\nb"`},
		{name: "leading space forces quotes", node: String(" padded"), expected: `" padded"`},
		{name: "numeric-looking string quoted", node: String("42"), expected: `"42"`},
		{name: "boolean-looking string quoted", node: String("true"), expected: `"true"`},
		{name: "null-looking string quoted", node: String("null"), expected: `"null"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dump(tt.node); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	root := NewMapping()
	root.Set("schema_version", String("pose-contact-spec-0.1"))

	meta := NewMapping()
	meta.Set("updated_at", String("2026-01-02T03:04:05Z"))
	meta.Set("mode", String("conservative"))
	meta.Set("window_k", Number(8))
	meta.Set("allow_implied_objects", Boolean(false))
	root.Set("meta", meta)

	alice := NewMapping()
	alice.Set("id", String("agent-alice"))
	alice.Set("name", String("Alice: the first"))
	alice.Set("confidence", Number(0.85))
	posture := NewMapping()
	posture.Set("value", String("sitting"))
	posture.Set("confidence", Number(0.8))
	alice.Set("posture", posture)
	root.Set("agents", &Sequence{Items: []Node{alice}})

	edge := NewMapping()
	edge.Set("agent", String("agent-alice"))
	edge.Set("target", String("object-chair"))
	edge.Set("confidence", Number(0.75))
	root.Set("supports", &Sequence{Items: []Node{edge}})

	conflict := NewMapping()
	conflict.Set("entity_id", String("agent-alice"))
	conflict.Set("fields", &Sequence{Items: []Node{String("posture")}})
	indices := NewMapping()
	indices.Set("previous", Null())
	indices.Set("current", Number(3))
	conflict.Set("message_indices", indices)
	root.Set("conflicts", &Sequence{Items: []Node{conflict}})

	text := Dump(root)
	reparsed, err := Parse(text)
	if err != nil {
		t.Fatalf("reparse failed: %v\ntext:\n%s", err, text)
	}
	if !NodeEqual(root, reparsed) {
		t.Errorf("round trip mismatch\noriginal:\n%s\nreparsed:\n%s", text, Dump(reparsed))
	}
}

func TestDumpIsStable(t *testing.T) {
	m := NewMapping()
	m.Set("b", Number(1))
	m.Set("a", Number(2))

	first := Dump(m)
	for i := 0; i < 5; i++ {
		if got := Dump(m); got != first {
			t.Fatalf("dump changed between calls: %q vs %q", got, first)
		}
	}
	if first != "b: 1\na: 2" {
		t.Errorf("insertion order not preserved: %q", first)
	}
}
