// Package scanimage parses the acquisition header that laser-scanning
// microscope software embeds as text in the first page of every TIFF it
// writes, and derives the acquisition parameters needed to index the
// resulting page stack.
//
// Header values are written in the vendor's configuration language. Only
// literal values are evaluated; object references are dropped.
package scanimage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ValueKind uint8

const (
	KindNumeric ValueKind = iota
	KindLogical
	KindString
	KindCell
)

func (k ValueKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindLogical:
		return "logical"
	case KindString:
		return "string"
	case KindCell:
		return "cell"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one evaluated header value. Numeric and logical data is stored
// row-major in Num with Rows×Cols elements; a scalar is 1×1.
type Value struct {
	Kind  ValueKind
	Rows  int
	Cols  int
	Num   []float64
	Str   string
	Cells []Value
}

func Scalar(v float64) Value {
	return Value{Kind: KindNumeric, Rows: 1, Cols: 1, Num: []float64{v}}
}

func Logical(b bool) Value {
	v := 0.0
	if b {
		v = 1
	}
	return Value{Kind: KindLogical, Rows: 1, Cols: 1, Num: []float64{v}}
}

func Text(s string) Value {
	return Value{Kind: KindString, Rows: 1, Cols: len(s), Str: s}
}

func (v Value) numeric() bool {
	return v.Kind == KindNumeric || v.Kind == KindLogical
}

// Len is the number of elements, or characters for strings.
func (v Value) Len() int {
	switch v.Kind {
	case KindString:
		return len(v.Str)
	case KindCell:
		return len(v.Cells)
	default:
		return len(v.Num)
	}
}

func (v Value) Float() (float64, error) {
	if !v.numeric() || len(v.Num) != 1 {
		return 0, fmt.Errorf("%w: %s %dx%d", ErrNotScalar, v.Kind, v.Rows, v.Cols)
	}
	return v.Num[0], nil
}

// Int truncates the scalar toward zero.
func (v Value) Int() (int, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("scanimage: %v is not an integer", f)
	}
	return int(f), nil
}

func (v Value) Bool() (bool, error) {
	f, err := v.Float()
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

func (v Value) Text() (string, error) {
	if v.Kind != KindString {
		return "", fmt.Errorf("scanimage: %s value is not a string", v.Kind)
	}
	return v.Str, nil
}

// Squeeze returns the numeric elements with unit dimensions removed, so a
// 1×n row, an n×1 column and a scalar all come back as a flat list.
func (v Value) Squeeze() []float64 {
	if !v.numeric() {
		return nil
	}
	out := make([]float64, len(v.Num))
	copy(out, v.Num)
	return out
}

// Interface converts the value to plain Go types for JSON rendering.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindCell:
		out := make([]any, len(v.Cells))
		for i, c := range v.Cells {
			out[i] = c.Interface()
		}
		return out
	case KindLogical:
		if len(v.Num) == 1 {
			return v.Num[0] != 0
		}
		out := make([]bool, len(v.Num))
		for i, n := range v.Num {
			out[i] = n != 0
		}
		return out
	default:
		if len(v.Num) == 1 {
			return jsonFloat(v.Num[0])
		}
		if v.Rows > 1 && v.Cols > 1 {
			rows := make([][]any, v.Rows)
			for r := range rows {
				rows[r] = make([]any, v.Cols)
				for c := 0; c < v.Cols; c++ {
					rows[r][c] = jsonFloat(v.Num[r*v.Cols+c])
				}
			}
			return rows
		}
		out := make([]any, len(v.Num))
		for i, n := range v.Num {
			out[i] = jsonFloat(n)
		}
		return out
	}
}

// JSON has no NaN or Inf.
func jsonFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return f
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return "'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	case KindCell:
		parts := make([]string, len(v.Cells))
		for i, c := range v.Cells {
			parts[i] = c.String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	}

	format := func(f float64) string {
		if v.Kind == KindLogical {
			if f != 0 {
				return "true"
			}
			return "false"
		}
		switch {
		case math.IsNaN(f):
			return "NaN"
		case math.IsInf(f, 1):
			return "Inf"
		case math.IsInf(f, -1):
			return "-Inf"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	if len(v.Num) == 1 && v.Rows == 1 && v.Cols == 1 {
		return format(v.Num[0])
	}
	var b strings.Builder
	b.WriteByte('[')
	for r := 0; r < v.Rows; r++ {
		if r > 0 {
			b.WriteByte(';')
		}
		for c := 0; c < v.Cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(format(v.Num[r*v.Cols+c]))
		}
	}
	b.WriteByte(']')
	return b.String()
}
