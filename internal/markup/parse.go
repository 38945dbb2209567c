package markup

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrNoContent is returned when the input contains no parseable lines.
var ErrNoContent = fmt.Errorf("markup text has no content")

// parser walks the input line-by-line. The position is explicit state shared
// across nested block parses, never a package-level variable.
type parser struct {
	lines []string
	pos   int
}

// Parse reads markup text into a tree. A block at a given indentation is a
// mapping unless its first content line starts a "- " item, in which case the
// block is a sequence. Blank lines and "#" comments are skipped.
func Parse(text string) (Node, error) {
	p := &parser{lines: strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")}
	if !p.hasContent() {
		return nil, ErrNoContent
	}
	node := p.parseBlock(0)
	if m, ok := node.(*Mapping); ok && m.Len() == 0 {
		return nil, ErrNoContent
	}
	return node, nil
}

func (p *parser) hasContent() bool {
	for _, line := range p.lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return true
		}
	}
	return false
}

// peekContent returns the next non-blank, non-comment line without consuming
// it, along with its indentation.
func (p *parser) peekContent() (line string, indent int, ok bool) {
	for i := p.pos; i < len(p.lines); i++ {
		trimmed := strings.TrimSpace(p.lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed, indentOf(p.lines[i]), true
	}
	return "", 0, false
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// parseBlock consumes lines at or deeper than startIndent. The container
// switches from mapping to sequence when the first "- " item appears.
func (p *parser) parseBlock(startIndent int) Node {
	mapping := NewMapping()
	var seq *Sequence

	for p.pos < len(p.lines) {
		raw := p.lines[p.pos]
		p.pos++
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := indentOf(raw)
		if indent < startIndent {
			p.pos--
			break
		}

		if strings.HasPrefix(trimmed, "- ") {
			if seq == nil {
				seq = &Sequence{}
			}
			p.parseSequenceItem(seq, trimmed[2:], indent)
			continue
		}

		colon := strings.Index(trimmed, ":")
		if colon == -1 {
			continue
		}
		key := strings.TrimSpace(trimmed[:colon])
		valuePart := strings.TrimSpace(trimmed[colon+1:])
		if valuePart != "" {
			mapping.Set(key, parseScalar(valuePart))
			continue
		}
		next, _, ok := p.peekContent()
		child := p.parseBlock(indent + 2)
		if ok && strings.HasPrefix(next, "-") {
			if _, isSeq := child.(*Sequence); !isSeq {
				child = &Sequence{Items: []Node{child}}
			}
		}
		mapping.Set(key, child)
	}

	if seq != nil {
		return seq
	}
	return mapping
}

// parseSequenceItem handles one "- " item: a bare scalar, or a mapping item
// whose remaining fields follow on deeper-indented lines.
func (p *parser) parseSequenceItem(seq *Sequence, content string, indent int) {
	colon := strings.Index(content, ":")
	if colon == -1 {
		seq.Append(parseScalar(content))
		return
	}
	key := strings.TrimSpace(content[:colon])
	valuePart := strings.TrimSpace(content[colon+1:])
	item := NewMapping()
	if valuePart == "" {
		item.Set(key, p.parseBlock(indent+2))
		seq.Append(item)
		return
	}
	item.Set(key, parseScalar(valuePart))
	if _, nextIndent, ok := p.peekContent(); ok && nextIndent > indent {
		if child, isMap := p.parseBlock(indent + 2).(*Mapping); isMap {
			for _, k := range child.Keys() {
				v, _ := child.Get(k)
				item.Set(k, v)
			}
		}
	}
	seq.Append(item)
}

// parseScalar interprets a scalar token: null, booleans, numbers, quoted
// strings, then the raw string.
func parseScalar(value string) Scalar {
	switch value {
	case "null":
		return Null()
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return Number(f)
	}
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		if s, err := strconv.Unquote(value); err == nil {
			return String(s)
		}
		return String(value[1 : len(value)-1])
	}
	if len(value) >= 2 && strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
		return String(value[1 : len(value)-1])
	}
	return String(value)
}
