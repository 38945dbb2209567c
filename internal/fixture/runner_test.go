package fixture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Rosales/st-scene-state/internal/markup"
	"github.com/J-Rosales/st-scene-state/internal/scene"
)

const scriptedResponse = "schema_version: pose-contact-spec-0.1\n" +
	"agents:\n" +
	"  - id: agent-alice\n" +
	"    name: Alice\n" +
	"    confidence: 0.9\n" +
	"    posture:\n" +
	"      value: sitting\n" +
	"      confidence: 0.8\n" +
	"narrative_projection:\n" +
	"  - text: Alice sits quietly.\n" +
	"    confidence: 0.8\n"

const expectedSnapshot = "schema_version: pose-contact-spec-0.1\n" +
	"meta:\n" +
	"  mode: conservative\n" +
	"  window_k: 8\n" +
	"  allow_implied_objects: true\n" +
	"agents:\n" +
	"  - id: agent-alice\n" +
	"    name: Alice\n" +
	"    confidence: 0.9\n" +
	"    salience_score: 0.67\n" +
	"    posture:\n" +
	"      value: sitting\n" +
	"      confidence: 0.8\n" +
	"objects:\n" +
	"supports:\n" +
	"contacts:\n" +
	"narrative_projection:\n" +
	"  - text: Alice sits quietly.\n" +
	"    confidence: 0.8\n" +
	"conflicts:\n"

func writeFixture(t *testing.T, root, slug string, transcript *Transcript, expected string) {
	t.Helper()
	dir := filepath.Join(root, slug)
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(transcript)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transcript.json"), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "expected.snap"), []byte(expected), 0644))
}

func passingTranscript() *Transcript {
	transcript := &Transcript{
		Messages:  []scene.Message{{Role: "user", Content: "Alice sits quietly."}},
		Responses: []string{scriptedResponse},
	}
	transcript.Meta.Title = "alice sits"
	transcript.Meta.K = 8
	transcript.Meta.MaxPresent = 4
	return transcript
}

func TestRunPassingFixture(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "alice-sits", passingTranscript(), expectedSnapshot)

	result := Run(filepath.Join(root, "alice-sits"), "alice-sits")

	assert.True(t, result.Passed, "diffs: %v", result.Diffs)
	assert.Equal(t, "alice sits", result.Title)
}

func TestRunFailingFixture(t *testing.T) {
	root := t.TempDir()
	wrong := strings.Replace(expectedSnapshot, "value: sitting", "value: kneeling", 1)
	writeFixture(t, root, "alice-sits", passingTranscript(), wrong)

	result := Run(filepath.Join(root, "alice-sits"), "alice-sits")

	assert.False(t, result.Passed)
	require.NotEmpty(t, result.Diffs)
	assert.Contains(t, result.Diffs[0], "posture.value")
}

func TestRunMissingTranscript(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	result := Run(filepath.Join(root, "empty"), "empty")

	assert.False(t, result.Passed)
	require.NotEmpty(t, result.Diffs)
	assert.Contains(t, result.Diffs[0], "transcript")
}

func TestRunDir(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "01-pass", passingTranscript(), expectedSnapshot)
	failing := strings.Replace(expectedSnapshot, "name: Alice", "name: Bob", 1)
	writeFixture(t, root, "02-fail", passingTranscript(), failing)

	summary, results, err := RunDir(root, nil)
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 2, Passed: 1, Failed: 1}, summary)
	require.Len(t, results, 2)
	assert.Equal(t, "01-pass", results[0].Slug)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
}

func TestDiffEpsilonOnConfidences(t *testing.T) {
	expected, err := markup.Parse("agents:\n  - id: agent-a\n    confidence: 0.8\n")
	require.NoError(t, err)

	within, err := markup.Parse("agents:\n  - id: agent-a\n    confidence: 0.83\n")
	require.NoError(t, err)
	assert.Empty(t, Diff(expected, within))

	beyond, err := markup.Parse("agents:\n  - id: agent-a\n    confidence: 0.9\n")
	require.NoError(t, err)
	diffs := Diff(expected, beyond)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "confidence diff")
}

func TestDiffExactOnNonConfidenceNumbers(t *testing.T) {
	expected, err := markup.Parse("meta:\n  window_k: 8\n")
	require.NoError(t, err)
	actual, err := markup.Parse("meta:\n  window_k: 9\n")
	require.NoError(t, err)

	diffs := Diff(expected, actual)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "window_k")
}

func TestDiffKeyMismatch(t *testing.T) {
	expected, err := markup.Parse("a: 1\nb: 2\n")
	require.NoError(t, err)
	actual, err := markup.Parse("a: 1\nc: 2\n")
	require.NoError(t, err)

	diffs := Diff(expected, actual)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "keys mismatch")
}

func TestDiffSequenceLength(t *testing.T) {
	expected, err := markup.Parse("items:\n  - one\n  - two\n")
	require.NoError(t, err)
	actual, err := markup.Parse("items:\n  - one\n")
	require.NoError(t, err)

	diffs := Diff(expected, actual)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "sequence length")
}

func TestStripTimestamps(t *testing.T) {
	node, err := markup.Parse("meta:\n  updated_at: \"2026-01-02T03:04:05Z\"\n  mode: conservative\n")
	require.NoError(t, err)

	stripped := stripTimestamps(node).(*markup.Mapping)
	meta, _ := stripped.Get("meta")
	keys := meta.(*markup.Mapping).Keys()
	assert.Equal(t, []string{"mode"}, keys)
}

func TestReport(t *testing.T) {
	summary := Summary{Total: 2, Passed: 1, Failed: 1}
	results := []Result{
		{Slug: "01-pass", Passed: true},
		{Slug: "02-fail", Passed: false, Diffs: []string{"root.a: value diff 1 vs 2"}},
	}

	report := Report(summary, results)

	assert.Contains(t, report, "Fixture run: 1/2 passed")
	assert.Contains(t, report, "PASS: 01-pass")
	assert.Contains(t, report, "FAIL: 02-fail")
	assert.Contains(t, report, "value diff 1 vs 2")
}
