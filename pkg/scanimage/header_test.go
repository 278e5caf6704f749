package scanimage

import (
	"errors"
	"strings"
	"testing"
)

func TestParseOldestDialect(t *testing.T) {
	t.Parallel()

	lines := []string{
		"scanimage.SI4.channelsSave = [1;2]",
		"scanimage.SI4.stackNumSlices = 3",
		"scanimage.SI4.fastZActive = 0",
		"scanimage.SI4.motorHandle = <handle object>",
		"scanimage.SI4.acqName = 'run_01'",
		"unrelated text line",
	}
	h, err := NewParser(nil, nil).Parse(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Dialect.Label != "4" {
		t.Fatalf("dialect: got %q want %q", h.Dialect.Label, "4")
	}
	if _, ok := h.Lookup("motorHandle"); ok {
		t.Fatalf("angle-bracket value should be dropped")
	}
	if got := len(h.Fields); got != 4 {
		t.Fatalf("fields: got %d want 4 (%v)", got, h.Keys())
	}
	v, ok := h.Lookup("channelsSave")
	if !ok {
		t.Fatalf("channelsSave missing")
	}
	if got := v.Squeeze(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("channelsSave: got %v", got)
	}
	name, _ := h.Lookup("acqName")
	if s, err := name.Text(); err != nil || s != "run_01" {
		t.Fatalf("acqName: got %q, %v", s, err)
	}
}

func TestParseReplacesDots(t *testing.T) {
	t.Parallel()

	lines := []string{
		"SI.hStackManager.numSlices = 5",
		"SI.hChannels.channelSave = 1",
		"SI.hCycleManager.cycleDataGroup = <nonscalar scanimage.components.cycles.CycleDataGroup>",
	}
	h, err := NewParser(nil, nil).Parse(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Dialect.Label != "5.2" {
		t.Fatalf("dialect: got %q want 5.2", h.Dialect.Label)
	}
	for _, key := range []string{"hStackManager_numSlices", "hChannels_channelSave"} {
		if _, ok := h.Lookup(key); !ok {
			t.Fatalf("missing %s in %v", key, h.Keys())
		}
	}
	if _, ok := h.Lookup("hCycleManager_cycleDataGroup"); ok {
		t.Fatalf("object reference should be dropped")
	}
}

func TestParseDialectPrecedence(t *testing.T) {
	t.Parallel()

	lines := []string{
		"SI.hStackManager.numSlices = 5",
		"scanimage.SI.hStackManager.numSlices = 2",
	}
	h, err := NewParser(nil, nil).Parse(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Dialect.Label != "5" {
		t.Fatalf("dialect: got %q want 5", h.Dialect.Label)
	}
	v, _ := h.Lookup("hStackManager_numSlices")
	if n, _ := v.Int(); n != 2 {
		t.Fatalf("numSlices: got %d want 2", n)
	}

	reversed := DefaultDialects()
	reversed[1], reversed[2] = reversed[2], reversed[1]
	h, err = NewParser(reversed, nil).Parse(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Dialect.Label != "5.2" {
		t.Fatalf("custom order: got %q want 5.2", h.Dialect.Label)
	}
}

func TestParseVersionNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewParser(nil, nil).Parse([]string{"ImageJ=1.52", "images=10"})
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("got %v want ErrVersionNotFound", err)
	}
}

func TestParseEvaluatorErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	eval := EvalFunc(func(expr string) (Value, error) {
		if expr == "bad" {
			return Value{}, boom
		}
		return Scalar(1), nil
	})
	_, err := NewParser(nil, eval).Parse([]string{"SI.a = 1", "SI.b = bad"})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "b = bad") {
		t.Fatalf("error should name the expression: %v", err)
	}
}

func TestCompileDialect(t *testing.T) {
	t.Parallel()

	d, err := CompileDialect("2023", "2023.1", `^SI\.(?P<attr>[\.\w]*)\s*=\s*(?P<value>.*\S)\s*$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if d.Version.Major != 2023 || d.Version.Minor != 1 {
		t.Fatalf("version: got %s", d.Version)
	}
	if _, err := CompileDialect("bad", "5", `^SI\.(\w+)=(.*)$`); err == nil {
		t.Fatalf("expected error for pattern without named groups")
	}
	if _, err := CompileDialect("bad", "x.y", `^(?P<attr>a)(?P<value>b)$`); err == nil {
		t.Fatalf("expected error for bad version")
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	got := SplitLines("SI.a = 1\r\n  SI.b = 2  \n\n\x00")
	if len(got) != 2 || got[0] != "SI.a = 1" || got[1] != "SI.b = 2" {
		t.Fatalf("got %q", got)
	}
}
