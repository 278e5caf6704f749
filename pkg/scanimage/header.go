package scanimage

import (
	"fmt"
	"sort"
	"strings"
)

// Header is the parsed key/value content of an acquisition header. Keys use
// '_' where the header text used '.', e.g. "hStackManager_numSlices".
type Header struct {
	Dialect Dialect
	Fields  map[string]Value
}

func (h *Header) Lookup(name string) (Value, bool) {
	if h == nil {
		return Value{}, false
	}
	v, ok := h.Fields[name]
	return v, ok
}

// Keys returns the field names in sorted order.
func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.Fields))
	for k := range h.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parser selects a dialect for a header and evaluates its values.
type Parser struct {
	dialects []Dialect
	eval     Evaluator
}

// NewParser returns a parser that tries dialects in the given order. A nil
// list means DefaultDialects and a nil evaluator means LiteralEvaluator.
func NewParser(dialects []Dialect, eval Evaluator) *Parser {
	if dialects == nil {
		dialects = DefaultDialects()
	}
	if eval == nil {
		eval = LiteralEvaluator{}
	}
	return &Parser{
		dialects: append([]Dialect(nil), dialects...),
		eval:     eval,
	}
}

func (p *Parser) Dialects() []Dialect {
	return append([]Dialect(nil), p.dialects...)
}

// Parse picks the first dialect that matches at least one line and returns
// its evaluated fields. Values of the form <...> are object references and
// are left out.
func (p *Parser) Parse(lines []string) (*Header, error) {
	for _, d := range p.dialects {
		raw := make(map[string]string)
		order := make([]string, 0)
		for _, line := range lines {
			attr, value, ok := d.match(strings.TrimSpace(line))
			if !ok {
				continue
			}
			if _, seen := raw[attr]; !seen {
				order = append(order, attr)
			}
			raw[attr] = value
		}
		if len(raw) == 0 {
			continue
		}

		fields := make(map[string]Value, len(raw))
		for _, attr := range order {
			value := raw[attr]
			if strings.HasPrefix(value, "<") || strings.HasSuffix(value, ">") {
				continue
			}
			v, err := p.eval.Eval(value)
			if err != nil {
				return nil, fmt.Errorf("scanimage: evaluate %s = %s: %w", attr, value, err)
			}
			fields[strings.ReplaceAll(attr, ".", "_")] = v
		}
		return &Header{Dialect: d, Fields: fields}, nil
	}
	return nil, ErrVersionNotFound
}

// SplitLines breaks raw tag text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	lines := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		if s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
