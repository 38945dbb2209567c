// Package fixture runs developer transcript fixtures through the extraction
// engine and diffs the canonical output against an expectation, field by
// field, with timestamps excluded and confidences compared within an epsilon.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/J-Rosales/st-scene-state/internal/extract"
	"github.com/J-Rosales/st-scene-state/internal/generator"
	"github.com/J-Rosales/st-scene-state/internal/markup"
	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// Epsilon is the tolerance for confidence-valued fields.
const Epsilon = 0.05

var (
	timestampKeyRe   = regexp.MustCompile(`(?i)updated_at|timestamp`)
	confidencePathRe = regexp.MustCompile(`(?i)confidence|salience`)
)

// Transcript is the input half of a fixture.
type Transcript struct {
	Meta struct {
		Title               string      `json:"title"`
		K                   int         `json:"k"`
		MaxPresent          int         `json:"max_present_characters"`
		AllowImpliedObjects *bool       `json:"allow_implied_objects"`
		Previous            string      `json:"previous,omitempty"`
		Locks               scene.Locks `json:"locks,omitempty"`
		Pins                []string    `json:"pins,omitempty"`
	} `json:"meta"`
	Messages  []scene.Message `json:"messages"`
	Responses []string        `json:"responses"`
}

// Result is the outcome of one fixture.
type Result struct {
	Slug   string
	Title  string
	Passed bool
	Diffs  []string
}

// Summary totals a fixture run.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// RunDir runs every fixture directory (one containing transcript.json and
// expected.snap) under dir, in name order.
func RunDir(dir string, log *zap.Logger) (Summary, []Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, nil, fmt.Errorf("failed to read fixture directory: %w", err)
	}
	var slugs []string
	for _, entry := range entries {
		if entry.IsDir() {
			slugs = append(slugs, entry.Name())
		}
	}
	sort.Strings(slugs)

	var results []Result
	summary := Summary{}
	for _, slug := range slugs {
		result := Run(filepath.Join(dir, slug), slug)
		if result.Passed {
			summary.Passed++
		} else {
			summary.Failed++
			log.Debug("fixture failed",
				zap.String("slug", slug),
				zap.Strings("diffs", result.Diffs))
		}
		summary.Total++
		results = append(results, result)
	}
	return summary, results, nil
}

// Run executes a single fixture directory.
func Run(dir, slug string) Result {
	result := Result{Slug: slug, Title: slug}

	transcript, err := loadTranscript(filepath.Join(dir, "transcript.json"))
	if err != nil {
		result.Diffs = []string{err.Error()}
		return result
	}
	if transcript.Meta.Title != "" {
		result.Title = transcript.Meta.Title
	}

	expectedText, err := os.ReadFile(filepath.Join(dir, "expected.snap"))
	if err != nil {
		result.Diffs = []string{fmt.Sprintf("failed to read expectation: %v", err)}
		return result
	}
	expected, err := markup.Parse(string(expectedText))
	if err != nil {
		result.Diffs = []string{fmt.Sprintf("expectation parse failed: %v", err)}
		return result
	}

	actual, err := runExtraction(transcript)
	if err != nil {
		result.Diffs = []string{err.Error()}
		return result
	}

	diffs := Diff(stripTimestamps(expected), stripTimestamps(actual))
	result.Passed = len(diffs) == 0
	result.Diffs = diffs
	return result
}

func loadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return &transcript, nil
}

// runExtraction drives one round with the transcript's scripted responses.
func runExtraction(transcript *Transcript) (markup.Node, error) {
	opts := extract.DefaultOptions()
	if transcript.Meta.K > 0 {
		opts.WindowK = transcript.Meta.K
	}
	if transcript.Meta.MaxPresent > 0 {
		opts.MaxPresent = transcript.Meta.MaxPresent
	}
	if transcript.Meta.AllowImpliedObjects != nil {
		opts.AllowImpliedObjects = *transcript.Meta.AllowImpliedObjects
	}

	var previous *scene.Snapshot
	if transcript.Meta.Previous != "" {
		tree, err := markup.Parse(transcript.Meta.Previous)
		if err != nil {
			return nil, fmt.Errorf("previous snapshot parse failed: %w", err)
		}
		previous = scene.FromTree(tree)
	}

	responses := transcript.Responses
	calls := 0
	scripted := generator.Func(func(ctx context.Context, prompt string) (string, error) {
		if calls >= len(responses) {
			return "", fmt.Errorf("fixture has no scripted response for call %d", calls+1)
		}
		out := responses[calls]
		calls++
		return out, nil
	})

	orch := extract.New(scripted, nil)
	round, err := orch.RunRound(context.Background(), extract.Request{
		ConversationID: "fixture",
		Messages:       transcript.Messages,
		Previous:       previous,
		PreviousText:   transcript.Meta.Previous,
		Locks:          transcript.Meta.Locks,
		Pins:           scene.NewPinSet(transcript.Meta.Pins),
		Options:        opts,
	})
	if err != nil {
		return nil, err
	}
	return scene.ToTree(round.Snapshot), nil
}

// stripTimestamps removes timestamp-like keys recursively.
func stripTimestamps(n markup.Node) markup.Node {
	switch v := n.(type) {
	case *markup.Mapping:
		out := markup.NewMapping()
		for _, key := range v.Keys() {
			if timestampKeyRe.MatchString(key) {
				continue
			}
			val, _ := v.Get(key)
			out.Set(key, stripTimestamps(val))
		}
		return out
	case *markup.Sequence:
		out := &markup.Sequence{}
		for _, item := range v.Items {
			out.Append(stripTimestamps(item))
		}
		return out
	default:
		return n
	}
}

// Diff compares two trees and returns human-readable path diffs. Numeric
// fields whose path mentions a confidence are compared within Epsilon; every
// other mismatch is exact.
func Diff(expected, actual markup.Node) []string {
	var diffs []string
	compare(expected, actual, "root", &diffs)
	return diffs
}

func compare(expected, actual markup.Node, path string, diffs *[]string) {
	// An empty sequence serializes as a bare key and reparses as an empty
	// mapping; the two are interchangeable when diffing.
	if emptyContainer(expected) && emptyContainer(actual) {
		return
	}
	switch ev := expected.(type) {
	case markup.Scalar:
		av, ok := actual.(markup.Scalar)
		if !ok {
			*diffs = append(*diffs, path+": type mismatch")
			return
		}
		compareScalar(ev, av, path, diffs)
	case *markup.Sequence:
		av, ok := actual.(*markup.Sequence)
		if !ok {
			*diffs = append(*diffs, path+": expected sequence")
			return
		}
		if len(ev.Items) != len(av.Items) {
			*diffs = append(*diffs, fmt.Sprintf("%s: sequence length %d vs %d", path, len(ev.Items), len(av.Items)))
			return
		}
		for i := range ev.Items {
			compare(ev.Items[i], av.Items[i], fmt.Sprintf("%s[%d]", path, i), diffs)
		}
	case *markup.Mapping:
		av, ok := actual.(*markup.Mapping)
		if !ok {
			*diffs = append(*diffs, path+": expected mapping")
			return
		}
		ek, ak := ev.Keys(), av.Keys()
		if strings.Join(ek, ",") != strings.Join(ak, ",") {
			*diffs = append(*diffs, fmt.Sprintf("%s: keys mismatch %s vs %s", path, strings.Join(ek, ","), strings.Join(ak, ",")))
			return
		}
		for _, key := range ek {
			e, _ := ev.Get(key)
			a, _ := av.Get(key)
			compare(e, a, path+"."+key, diffs)
		}
	}
}

func emptyContainer(n markup.Node) bool {
	switch v := n.(type) {
	case *markup.Sequence:
		return len(v.Items) == 0
	case *markup.Mapping:
		return v.Len() == 0
	}
	return false
}

func compareScalar(expected, actual markup.Scalar, path string, diffs *[]string) {
	if expected.Kind != actual.Kind {
		*diffs = append(*diffs, path+": type mismatch")
		return
	}
	if expected.Kind == markup.KindNumber {
		if confidencePathRe.MatchString(path) {
			if math.Abs(expected.Num-actual.Num) > Epsilon {
				*diffs = append(*diffs, fmt.Sprintf("%s: confidence diff %g vs %g", path, expected.Num, actual.Num))
			}
			return
		}
		if expected.Num != actual.Num {
			*diffs = append(*diffs, fmt.Sprintf("%s: value diff %g vs %g", path, expected.Num, actual.Num))
		}
		return
	}
	if expected != actual {
		*diffs = append(*diffs, fmt.Sprintf("%s: value diff %s vs %s", path, markup.Dump(expected), markup.Dump(actual)))
	}
}

// Report renders a fixture run the way the developer harness prints it.
func Report(summary Summary, results []Result) string {
	lines := []string{
		fmt.Sprintf("Fixture run: %d/%d passed", summary.Passed, summary.Total),
		"",
	}
	for _, result := range results {
		status := "FAIL"
		if result.Passed {
			status = "PASS"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", status, result.Slug))
		if !result.Passed {
			shown := result.Diffs
			if len(shown) > 5 {
				shown = shown[:5]
			}
			lines = append(lines, "  Diffs: "+strings.Join(shown, "; "))
		}
	}
	return strings.Join(lines, "\n")
}
