package markup

import (
	"testing"
)

func TestParseScalar(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Scalar
	}{
		{
			name:     "null literal",
			input:    "null",
			expected: Null(),
		},
		{
			name:     "true literal",
			input:    "true",
			expected: Boolean(true),
		},
		{
			name:     "false literal",
			input:    "false",
			expected: Boolean(false),
		},
		{
			name:     "integer",
			input:    "42",
			expected: Number(42),
		},
		{
			name:     "decimal",
			input:    "0.85",
			expected: Number(0.85),
		},
		{
			name:     "negative number",
			input:    "-3.5",
			expected: Number(-3.5),
		},
		{
			name:     "double quoted string",
			input:    `"hello world"`,
			expected: String("hello world"),
		},
		{
			name:     "quoted number stays string",
			input:    `"42"`,
			expected: String("42"),
		},
		{
			name:     "single quoted string",
			input:    "'alice'",
			expected: String("alice"),
		},
		{
			name:     "quoted string with escapes",
			input:    `"a \"b\" c"`,
			expected: String(`a "b" c`),
		},
		{
			name:     "bare string",
			input:    "sitting",
			expected: String("sitting"),
		},
		{
			name:     "bare string with spaces",
			input:    "stand up",
			expected: String("stand up"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseScalar(tt.input)
			if result != tt.expected {
				t.Errorf("expected %#v, got %#v", tt.expected, result)
			}
		})
	}
}

func TestParseMapping(t *testing.T) {
	text := "schema_version: pose-contact-spec-0.1\n" +
		"meta:\n" +
		"  window_k: 8\n" +
		"  allow_implied_objects: true\n"

	node, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, ok := node.(*Mapping)
	if !ok {
		t.Fatalf("expected mapping, got %T", node)
	}
	if v, _ := root.Get("schema_version"); v != String("pose-contact-spec-0.1") {
		t.Errorf("schema_version = %#v", v)
	}
	metaNode, ok := root.Get("meta")
	if !ok {
		t.Fatal("meta missing")
	}
	meta := metaNode.(*Mapping)
	if v, _ := meta.Get("window_k"); v != Number(8) {
		t.Errorf("window_k = %#v", v)
	}
	if v, _ := meta.Get("allow_implied_objects"); v != Boolean(true) {
		t.Errorf("allow_implied_objects = %#v", v)
	}
}

func TestParseSequenceOfMappings(t *testing.T) {
	text := "agents:\n" +
		"  - id: agent-alice\n" +
		"    name: Alice\n" +
		"    posture:\n" +
		"      value: sitting\n" +
		"      confidence: 0.8\n" +
		"  - id: agent-bob\n" +
		"    name: Bob\n"

	node, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := node.(*Mapping)
	agentsNode, _ := root.Get("agents")
	agents, ok := agentsNode.(*Sequence)
	if !ok {
		t.Fatalf("expected sequence, got %T", agentsNode)
	}
	if len(agents.Items) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents.Items))
	}

	alice := agents.Items[0].(*Mapping)
	if v, _ := alice.Get("name"); v != String("Alice") {
		t.Errorf("first agent name = %#v", v)
	}
	postureNode, ok := alice.Get("posture")
	if !ok {
		t.Fatal("nested posture missing from sequence item")
	}
	posture := postureNode.(*Mapping)
	if v, _ := posture.Get("value"); v != String("sitting") {
		t.Errorf("posture value = %#v", v)
	}
	if v, _ := posture.Get("confidence"); v != Number(0.8) {
		t.Errorf("posture confidence = %#v", v)
	}

	bob := agents.Items[1].(*Mapping)
	if v, _ := bob.Get("id"); v != String("agent-bob") {
		t.Errorf("second agent id = %#v", v)
	}
}

func TestParseSequenceOfScalars(t *testing.T) {
	text := "fields:\n  - posture\n  - primary_support\n"

	node, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := node.(*Mapping)
	fieldsNode, _ := root.Get("fields")
	fields := fieldsNode.(*Sequence)
	if len(fields.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(fields.Items))
	}
	if fields.Items[0] != String("posture") || fields.Items[1] != String("primary_support") {
		t.Errorf("items = %#v", fields.Items)
	}
}

func TestParseSkipsBlanksAndComments(t *testing.T) {
	text := "# snapshot\n\nname: Alice\n\n# trailing comment\nvalue: 3\n"

	node, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := node.(*Mapping)
	if root.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", root.Len())
	}
}

func TestParseTopLevelSequence(t *testing.T) {
	text := "- first\n- second\n"

	node, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, ok := node.(*Sequence)
	if !ok {
		t.Fatalf("expected sequence, got %T", node)
	}
	if len(seq.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(seq.Items))
	}
}

func TestParseCRLF(t *testing.T) {
	node, err := Parse("name: Alice\r\nvalue: 2\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := node.(*Mapping)
	if v, _ := root.Get("name"); v != String("Alice") {
		t.Errorf("name = %#v", v)
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "whitespace only", input: "   \n\n  "},
		{name: "comments only", input: "# nothing\n# here\n"},
		{name: "prose without structure", input: "this is just prose\nno structure at all\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestMappingOrder(t *testing.T) {
	m := NewMapping()
	m.Set("b", Number(1))
	m.Set("a", Number(2))
	m.Set("b", Number(3))

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("keys = %v", keys)
	}
	if v, _ := m.Get("b"); v != Number(3) {
		t.Errorf("overwritten value = %#v", v)
	}

	m.Delete("b")
	keys = m.Keys()
	if len(keys) != 1 || keys[0] != "a" {
		t.Errorf("keys after delete = %v", keys)
	}
}
