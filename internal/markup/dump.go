package markup

import (
	"strconv"
	"strings"
)

// specialChars are the characters that force a string scalar to be quoted.
const specialChars = ":[]{}#&*!|>'\"%@`\n\r"

// Dump serializes a tree deterministically: mappings one "key: value" line per
// entry, sequences as "- " items, nested values indented by two spaces.
func Dump(n Node) string {
	return dumpNode(n, 0)
}

func dumpNode(n Node, indent int) string {
	pad := strings.Repeat(" ", indent)
	switch v := n.(type) {
	case *Sequence:
		lines := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			switch item.(type) {
			case *Mapping, *Sequence:
				child := dumpNode(item, indent+2)
				lines = append(lines, pad+"- "+strings.TrimLeft(child, " "))
			default:
				lines = append(lines, pad+"- "+formatScalar(item))
			}
		}
		return strings.Join(lines, "\n")
	case *Mapping:
		lines := make([]string, 0, v.Len())
		for _, key := range v.Keys() {
			val, _ := v.Get(key)
			switch val.(type) {
			case *Mapping, *Sequence:
				lines = append(lines, pad+key+":\n"+dumpNode(val, indent+2))
			default:
				lines = append(lines, pad+key+": "+formatScalar(val))
			}
		}
		return strings.Join(lines, "\n")
	default:
		return pad + formatScalar(n)
	}
}

func formatScalar(n Node) string {
	s, ok := n.(Scalar)
	if !ok || s.Kind == KindNull {
		return "null"
	}
	switch s.Kind {
	case KindBool:
		return strconv.FormatBool(s.Bool)
	case KindNumber:
		return strconv.FormatFloat(s.Num, 'f', -1, 64)
	default:
		return QuoteString(s.Str)
	}
}

// QuoteString writes a string scalar, quoting when the bare form would be
// ambiguous or unparsable: empty strings, strings containing special
// characters, and strings that would read back as a different scalar kind.
func QuoteString(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, specialChars) {
		return strconv.Quote(s)
	}
	if s != strings.TrimSpace(s) {
		return strconv.Quote(s)
	}
	if reparsed := parseScalar(s); reparsed.Kind != KindString {
		return strconv.Quote(s)
	}
	return s
}
