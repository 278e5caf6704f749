package scanimage

import (
	"errors"
	"math"
	"testing"
)

func TestLiteralEvaluatorScalars(t *testing.T) {
	t.Parallel()

	cases := []struct {
		expr string
		want float64
		kind ValueKind
	}{
		{"3", 3, KindNumeric},
		{"-2.5", -2.5, KindNumeric},
		{"1e-06", 1e-6, KindNumeric},
		{".5", 0.5, KindNumeric},
		{"+7", 7, KindNumeric},
		{"true", 1, KindLogical},
		{"false", 0, KindLogical},
		{"Inf", math.Inf(1), KindNumeric},
		{"-Inf", math.Inf(-1), KindNumeric},
		{"int16(3.6)", 4, KindNumeric},
		{"logical(5)", 1, KindLogical},
		{"single(0.5)", 0.5, KindNumeric},
	}
	var ev LiteralEvaluator
	for _, tc := range cases {
		v, err := ev.Eval(tc.expr)
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if v.Kind != tc.kind {
			t.Fatalf("%s: kind got %s want %s", tc.expr, v.Kind, tc.kind)
		}
		f, err := v.Float()
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if f != tc.want {
			t.Fatalf("%s: got %v want %v", tc.expr, f, tc.want)
		}
	}

	v, err := ev.Eval("NaN")
	if err != nil {
		t.Fatalf("NaN: %v", err)
	}
	if f, _ := v.Float(); !math.IsNaN(f) {
		t.Fatalf("NaN: got %v", f)
	}
}

func TestLiteralEvaluatorMatrices(t *testing.T) {
	t.Parallel()

	var ev LiteralEvaluator
	v, err := ev.Eval("[-4 -4;4 -4;4 4;-4 4]")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Rows != 4 || v.Cols != 2 {
		t.Fatalf("shape: got %dx%d want 4x2", v.Rows, v.Cols)
	}
	if v.Num[2] != 4 || v.Num[3] != -4 {
		t.Fatalf("data: got %v", v.Num)
	}

	v, err = ev.Eval("[1, 2 ,3]")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Rows != 1 || v.Cols != 3 {
		t.Fatalf("row shape: got %dx%d", v.Rows, v.Cols)
	}

	v, err = ev.Eval("[true false true]")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Kind != KindLogical || len(v.Num) != 3 {
		t.Fatalf("logical row: got %s %v", v.Kind, v.Num)
	}

	v, err = ev.Eval("[]")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Len() != 0 {
		t.Fatalf("empty: got %d elements", v.Len())
	}
	if _, err := v.Float(); !errors.Is(err, ErrNotScalar) {
		t.Fatalf("empty Float: got %v want ErrNotScalar", err)
	}

	if _, err := ev.Eval("[1 2;3]"); !errors.Is(err, ErrSyntax) {
		t.Fatalf("ragged: got %v want ErrSyntax", err)
	}
}

func TestLiteralEvaluatorStringsAndCells(t *testing.T) {
	t.Parallel()

	var ev LiteralEvaluator
	v, err := ev.Eval("'it''s'")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if s, _ := v.Text(); s != "it's" {
		t.Fatalf("string: got %q", s)
	}

	v, err = ev.Eval("{'Channel 1' 'Channel 2'}")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Kind != KindCell || len(v.Cells) != 2 {
		t.Fatalf("cell: got %s with %d cells", v.Kind, len(v.Cells))
	}
	if s, _ := v.Cells[1].Text(); s != "Channel 2" {
		t.Fatalf("cell[1]: got %q", s)
	}

	v, err = ev.Eval("{[0 100] [-36 431]}")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if len(v.Cells) != 2 || v.Cells[1].Num[0] != -36 {
		t.Fatalf("cell of matrices: got %v", v)
	}
}

func TestLiteralEvaluatorRejects(t *testing.T) {
	t.Parallel()

	var ev LiteralEvaluator
	for _, expr := range []string{"", "foo", "'open", "[1 2", "1 2", "struct()", "int16('a')"} {
		if _, err := ev.Eval(expr); err == nil {
			t.Fatalf("%q: expected error", expr)
		}
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	var ev LiteralEvaluator
	for _, expr := range []string{"3", "[1 2;3 4]", "'a''b'", "true", "{'x' 2}"} {
		v, err := ev.Eval(expr)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		back, err := ev.Eval(v.String())
		if err != nil {
			t.Fatalf("%s: re-eval %q: %v", expr, v.String(), err)
		}
		if back.String() != v.String() {
			t.Fatalf("%s: got %q want %q", expr, back.String(), v.String())
		}
	}
}
