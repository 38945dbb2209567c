package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/J-Rosales/st-scene-state/internal/markup"
	"github.com/J-Rosales/st-scene-state/internal/pipeline"
	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// Options are the per-round settings, passed explicitly so the engine itself
// holds no global state.
type Options struct {
	WindowK             int
	MaxPresent          int
	AllowImpliedObjects bool
	Mode                string
	PromptProfile       string
	PerMessageCharCap   int
	TotalCharCap        int
	OutputCharCap       int
	Timeout             time.Duration
	Evidence            pipeline.EvidenceFunc
}

// DefaultOptions mirror the documented setting defaults.
func DefaultOptions() Options {
	return Options{
		WindowK:             8,
		MaxPresent:          4,
		AllowImpliedObjects: true,
		Mode:                scene.ModeConservative,
		PromptProfile:       "default",
		PerMessageCharCap:   2000,
		TotalCharCap:        24000,
		OutputCharCap:       16384,
	}
}

// profilePreambles select the instruction opening by prompt profile.
var profilePreambles = map[string][]string{
	"default": {
		"You are a scene-state extraction engine.",
		"Output strict structured markup only (no code fences, no prose).",
	},
	"terse": {
		"Extract scene state as structured markup. No code fences, no prose.",
	},
}

// BuildExtractionPrompt renders the extraction prompt over the windowed
// transcript plus the previous canonical snapshot for continuity.
func BuildExtractionPrompt(messages []scene.Message, previousText string, opts Options) string {
	window := Window(messages, opts.WindowK)
	formatted := formatMessages(window, opts)

	lines := append([]string{}, preamble(opts.PromptProfile)...)
	if opts.Mode == scene.ModeDescriptive {
		lines = append(lines, "Describe posture and contact in as much stated detail as the text supports.")
	} else {
		lines = append(lines, "Do not invent details. Omit unknowns or set low confidence (<=0.4).")
	}
	lines = append(lines,
		"Use character names as they appear. Do not create new names.",
		fmt.Sprintf("Max present characters: %d.", opts.MaxPresent),
		fmt.Sprintf("Allow implied baseline objects: %t.", opts.AllowImpliedObjects),
		"If implied baseline objects are allowed, only include floor/ground/wall/door when posture/support implies them, and set confidence low.",
		"Schema (pose-contact-spec inspired):",
		"schema_version: string",
		"agents: [ { id, name, confidence, posture: { value, confidence }, anchors: [ { name, contacts: [ { target, kind, confidence } ], supports: [ { target, confidence } ] } ] } ]",
		"objects: [ { id, name, type, confidence } ]",
		"narrative_projection: [ { text, confidence } ]",
		"If an agent was present in the prior snapshot with the same name, reuse the same id.",
		"If you are unsure about a fact, reduce confidence rather than guessing.",
		"Messages:",
		formatted,
		"Current snapshot (optional, for continuity only; do not assume it is true):",
	)
	if previousText == "" {
		lines = append(lines, "null")
	} else {
		lines = append(lines, previousText)
	}
	return strings.Join(lines, "\n")
}

// BuildRepairPrompt asks for a reformat of failing output without any new
// content.
func BuildRepairPrompt(raw string, opts Options) string {
	return strings.Join([]string{
		"The following text was supposed to be strict structured markup but failed to parse.",
		"Reformat it into valid markup (mappings as `key: value`, sequences as `- ` items, two-space indentation).",
		"Do not add, remove, or invent any content. Output the reformatted markup only.",
		"Text:",
		truncate(raw, opts.TotalCharCap),
	}, "\n")
}

func preamble(profile string) []string {
	if lines, ok := profilePreambles[profile]; ok {
		return lines
	}
	return profilePreambles["default"]
}

// Window returns the most recent k messages.
func Window(messages []scene.Message, k int) []scene.Message {
	if k <= 0 || len(messages) <= k {
		return messages
	}
	return messages[len(messages)-k:]
}

// formatMessages renders the window as markup-safe role/content lines,
// honoring the per-message and total character caps.
func formatMessages(window []scene.Message, opts Options) string {
	var b strings.Builder
	total := 0
	for i, msg := range window {
		content := sanitizeContent(msg.Content, opts.PerMessageCharCap)
		if opts.TotalCharCap > 0 && total+len(content) > opts.TotalCharCap {
			break
		}
		total += len(content)
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- role: ")
		b.WriteString(msg.Role)
		b.WriteString("\n  content: ")
		b.WriteString(markup.QuoteString(content))
	}
	return b.String()
}

// sanitizeContent flattens newlines and truncates to the per-message cap.
func sanitizeContent(content string, limit int) string {
	flat := strings.Join(strings.Fields(content), " ")
	return truncate(flat, limit)
}

func truncate(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
