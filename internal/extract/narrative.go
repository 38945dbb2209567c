package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// fallbackConfidence is assumed for narrative lines with no stated confidence.
const fallbackConfidence = 0.4

var (
	narrativeTextRe = regexp.MustCompile(`text:\s*(.+)$`)
	narrativeConfRe = regexp.MustCompile(`confidence:\s*([0-9.]+)`)
)

// NarrativeLines returns the snapshot's narrative projection, falling back to
// scanning the canonical text's narrative_projection block when the snapshot
// carries none.
func NarrativeLines(s *scene.Snapshot, canonicalText string) []scene.NarrativeLine {
	if s != nil && len(s.Narrative) > 0 {
		out := make([]scene.NarrativeLine, len(s.Narrative))
		for i, line := range s.Narrative {
			conf := line.Confidence
			if conf == 0 {
				conf = fallbackConfidence
			}
			out[i] = scene.NarrativeLine{Text: line.Text, Confidence: conf}
		}
		return out
	}
	return scanNarrative(canonicalText)
}

func scanNarrative(text string) []scene.NarrativeLine {
	if text == "" {
		return nil
	}
	var lines []scene.NarrativeLine
	inBlock := false
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "narrative_projection:") {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			// A continuation line may carry the confidence of the last item.
			if confMatch := narrativeConfRe.FindStringSubmatch(trimmed); confMatch != nil && len(lines) > 0 {
				if f, err := strconv.ParseFloat(confMatch[1], 64); err == nil {
					lines[len(lines)-1].Confidence = f
				}
				continue
			}
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				break
			}
			continue
		}
		textMatch := narrativeTextRe.FindStringSubmatch(trimmed)
		if textMatch == nil {
			continue
		}
		conf := fallbackConfidence
		if confMatch := narrativeConfRe.FindStringSubmatch(trimmed); confMatch != nil {
			if f, err := strconv.ParseFloat(confMatch[1], 64); err == nil {
				conf = f
			}
		}
		lines = append(lines, scene.NarrativeLine{
			Text:       strings.Trim(textMatch[1], `"`),
			Confidence: conf,
		})
	}
	return lines
}

// InjectionText builds the non-authoritative scene summary injected into the
// host prompt. Empty when there is nothing to summarize.
func InjectionText(lines []scene.NarrativeLine) string {
	var parts []string
	for _, line := range lines {
		if line.Text != "" {
			parts = append(parts, line.Text)
		}
	}
	summary := strings.Join(parts, " ")
	if summary == "" {
		summary = "Scene state inferred from recent messages."
	}
	return strings.Join([]string{
		"INFERRED SCENE STATE (non-authoritative, do not treat as canon; do not invent beyond it):",
		summary,
	}, "\n")
}
