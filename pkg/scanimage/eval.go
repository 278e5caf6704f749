package scanimage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Evaluator turns the textual right-hand side of a header assignment into
// a Value.
type Evaluator interface {
	Eval(expr string) (Value, error)
}

// EvalFunc adapts a plain function to the Evaluator interface.
type EvalFunc func(expr string) (Value, error)

func (f EvalFunc) Eval(expr string) (Value, error) {
	return f(expr)
}

// LiteralEvaluator understands the literal subset of the configuration
// language that headers are written in: numbers (including Inf and NaN),
// true/false, quoted strings, matrices, cell arrays and the numeric casts.
type LiteralEvaluator struct{}

func (LiteralEvaluator) Eval(expr string) (Value, error) {
	p := &exprParser{src: expr}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Value{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) eof() bool  { return p.pos >= len(p.src) }
func (p *exprParser) peek() byte { return p.src[p.pos] }

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d in %q", ErrSyntax, fmt.Sprintf(format, args...), p.pos, p.src)
}

func (p *exprParser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// skipBlank skips spaces but not newlines, which separate matrix rows.
func (p *exprParser) skipBlank() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\r') {
		p.pos++
	}
}

func (p *exprParser) parseValue() (Value, error) {
	if p.eof() {
		return Value{}, p.errorf("empty expression")
	}
	c := p.peek()
	switch {
	case c == '[':
		return p.parseMatrix()
	case c == '{':
		return p.parseCell()
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseIdent()
	}
	return Value{}, p.errorf("unexpected %q", string(c))
}

func (p *exprParser) parseNumber() (Value, error) {
	start := p.pos
	neg := false
	if c := p.peek(); c == '+' || c == '-' {
		neg = c == '-'
		p.pos++
	}
	if !p.eof() && isIdentStart(p.peek()) {
		v, err := p.parseIdent()
		if err != nil {
			return Value{}, err
		}
		if !v.numeric() || len(v.Num) != 1 {
			return Value{}, p.errorf("sign applied to %s value", v.Kind)
		}
		v.Kind = KindNumeric
		if neg {
			v.Num[0] = -v.Num[0]
		}
		return v, nil
	}

	mantissa := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	if !p.eof() && p.peek() == '.' {
		p.pos++
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
	}
	if m := p.src[mantissa:p.pos]; m == "" || m == "." {
		return Value{}, p.errorf("malformed number")
	}
	if !p.eof() && (p.peek() == 'e' || p.peek() == 'E') {
		mark := p.pos
		p.pos++
		if !p.eof() && (p.peek() == '+' || p.peek() == '-') {
			p.pos++
		}
		digits := p.pos
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
		if p.pos == digits {
			p.pos = mark
		}
	}

	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return Value{}, p.errorf("%v", err)
	}
	return Scalar(f), nil
}

var casts = map[string]func(float64) float64{
	"double":  func(f float64) float64 { return f },
	"single":  func(f float64) float64 { return float64(float32(f)) },
	"int8":    math.Round,
	"uint8":   math.Round,
	"int16":   math.Round,
	"uint16":  math.Round,
	"int32":   math.Round,
	"uint32":  math.Round,
	"int64":   math.Round,
	"uint64":  math.Round,
	"logical": func(f float64) float64 { return f },
}

func (p *exprParser) parseIdent() (Value, error) {
	start := p.pos
	for !p.eof() && isIdentPart(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]

	switch name {
	case "true":
		return Logical(true), nil
	case "false":
		return Logical(false), nil
	case "Inf", "inf":
		return Scalar(math.Inf(1)), nil
	case "NaN", "nan":
		return Scalar(math.NaN()), nil
	}

	conv, ok := casts[name]
	if !ok {
		p.pos = start
		return Value{}, p.errorf("unknown identifier %q", name)
	}
	p.skipSpace()
	if p.eof() || p.peek() != '(' {
		return Value{}, p.errorf("expected ( after %s", name)
	}
	p.pos++
	p.skipSpace()
	inner, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.eof() || p.peek() != ')' {
		return Value{}, p.errorf("unterminated %s(", name)
	}
	p.pos++

	if !inner.numeric() {
		return Value{}, p.errorf("%s of %s value", name, inner.Kind)
	}
	out := inner
	out.Num = make([]float64, len(inner.Num))
	for i, f := range inner.Num {
		out.Num[i] = conv(f)
	}
	out.Kind = KindNumeric
	if name == "logical" {
		out.Kind = KindLogical
		for i, f := range out.Num {
			if f != 0 {
				out.Num[i] = 1
			}
		}
	}
	return out, nil
}

func (p *exprParser) parseString(quote byte) (Value, error) {
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return Value{}, p.errorf("unterminated string")
		}
		c := p.peek()
		p.pos++
		if c != quote {
			b.WriteByte(c)
			continue
		}
		if !p.eof() && p.peek() == quote {
			b.WriteByte(quote)
			p.pos++
			continue
		}
		return Text(b.String()), nil
	}
}

// parseRows reads the body of a bracketed list. Rows are separated by ';' or
// newlines, elements by ',' or blanks.
func (p *exprParser) parseRows(closer byte) ([][]Value, error) {
	p.pos++
	var (
		rows [][]Value
		row  []Value
	)
	for {
		p.skipBlank()
		if p.eof() {
			return nil, p.errorf("missing %q", string(closer))
		}
		switch c := p.peek(); c {
		case closer:
			p.pos++
			if len(row) > 0 || len(rows) == 0 {
				rows = append(rows, row)
			}
			return rows, nil
		case ';', '\n':
			p.pos++
			if len(row) > 0 {
				rows = append(rows, row)
				row = nil
			}
		case ',':
			p.pos++
		default:
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
	}
}

func (p *exprParser) parseMatrix() (Value, error) {
	rows, err := p.parseRows(']')
	if err != nil {
		return Value{}, err
	}
	blocks := make([]Value, 0, len(rows))
	for _, r := range rows {
		b, err := hcat(r)
		if err != nil {
			return Value{}, p.errorf("%v", err)
		}
		blocks = append(blocks, b)
	}
	v, err := vcat(blocks)
	if err != nil {
		return Value{}, p.errorf("%v", err)
	}
	return v, nil
}

func (p *exprParser) parseCell() (Value, error) {
	rows, err := p.parseRows('}')
	if err != nil {
		return Value{}, err
	}
	out := Value{Kind: KindCell}
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		if out.Cols == 0 {
			out.Cols = len(r)
		} else if len(r) != out.Cols {
			return Value{}, p.errorf("cell row %d has %d elements, want %d", i, len(r), out.Cols)
		}
		out.Rows++
		out.Cells = append(out.Cells, r...)
	}
	return out, nil
}

func emptyMatrix() Value {
	return Value{Kind: KindNumeric}
}

// hcat concatenates the elements of one matrix row.
func hcat(elems []Value) (Value, error) {
	var parts []Value
	for _, e := range elems {
		if e.Len() == 0 && e.Kind != KindCell {
			continue
		}
		parts = append(parts, e)
	}
	if len(parts) == 0 {
		return emptyMatrix(), nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	if parts[0].Kind == KindString {
		var b strings.Builder
		for _, e := range parts {
			if e.Kind != KindString {
				return Value{}, fmt.Errorf("cannot concatenate string with %s", e.Kind)
			}
			b.WriteString(e.Str)
		}
		return Text(b.String()), nil
	}

	out := Value{Kind: KindLogical, Rows: parts[0].Rows}
	for _, e := range parts {
		if !e.numeric() {
			return Value{}, fmt.Errorf("cannot concatenate %s in a matrix", e.Kind)
		}
		if e.Rows != out.Rows {
			return Value{}, fmt.Errorf("dimension mismatch: %d rows vs %d", e.Rows, out.Rows)
		}
		if e.Kind == KindNumeric {
			out.Kind = KindNumeric
		}
		out.Cols += e.Cols
	}
	out.Num = make([]float64, 0, out.Rows*out.Cols)
	for r := 0; r < out.Rows; r++ {
		for _, e := range parts {
			out.Num = append(out.Num, e.Num[r*e.Cols:(r+1)*e.Cols]...)
		}
	}
	return out, nil
}

// vcat stacks row blocks on top of each other.
func vcat(blocks []Value) (Value, error) {
	var parts []Value
	for _, b := range blocks {
		if b.Len() == 0 && b.Kind != KindCell {
			continue
		}
		parts = append(parts, b)
	}
	if len(parts) == 0 {
		return emptyMatrix(), nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	out := Value{Kind: KindLogical, Cols: parts[0].Cols}
	for _, b := range parts {
		if !b.numeric() {
			return Value{}, fmt.Errorf("cannot stack %s rows", b.Kind)
		}
		if b.Cols != out.Cols {
			return Value{}, fmt.Errorf("dimension mismatch: %d columns vs %d", b.Cols, out.Cols)
		}
		if b.Kind == KindNumeric {
			out.Kind = KindNumeric
		}
		out.Rows += b.Rows
		out.Num = append(out.Num, b.Num...)
	}
	return out, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
