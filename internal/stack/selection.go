package stack

import (
	"fmt"
	"strconv"
	"strings"
)

type selKind uint8

const (
	selAll selKind = iota
	selAt
	selSpan
	selList
	selRest
)

// Sel selects positions along one axis. The set of kinds is closed: use
// At, Range, Step, All, List or Rest.
type Sel struct {
	kind     selKind
	start    int
	stop     int
	step     int
	hasStart bool
	hasStop  bool
	ids      []int
}

// At selects a single position. Negative values count from the end.
func At(i int) Sel { return Sel{kind: selAt, start: i} }

// Range is the half-open interval [start, stop) with slice semantics:
// bounds are clamped and negative values count from the end.
func Range(start, stop int) Sel {
	return Step(start, stop, 1)
}

// Step is Range with a stride. A negative step walks backwards.
func Step(start, stop, step int) Sel {
	return Sel{kind: selSpan, start: start, stop: stop, step: step, hasStart: true, hasStop: true}
}

func All() Sel { return Sel{kind: selAll} }

// List selects the given positions in the given order.
func List(ids ...int) Sel {
	return Sel{kind: selList, ids: append([]int(nil), ids...)}
}

// Rest is the "all remaining axes" wildcard. It is recognised so that it
// can be rejected with a clear error.
func Rest() Sel { return Sel{kind: selRest} }

// ranged reports whether the selection is a contiguous or strided range.
func (s Sel) ranged() bool {
	return s.kind == selAll || s.kind == selSpan
}

func (s Sel) String() string {
	switch s.kind {
	case selAll:
		return ":"
	case selAt:
		return strconv.Itoa(s.start)
	case selSpan:
		var b strings.Builder
		if s.hasStart {
			b.WriteString(strconv.Itoa(s.start))
		}
		b.WriteByte(':')
		if s.hasStop {
			b.WriteString(strconv.Itoa(s.stop))
		}
		if s.step != 1 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(s.step))
		}
		return b.String()
	case selList:
		parts := make([]string, len(s.ids))
		for i, id := range s.ids {
			parts[i] = strconv.Itoa(id)
		}
		return strings.Join(parts, ",")
	case selRest:
		return "..."
	}
	return "?"
}

// resolve expands the selection against an axis of length n.
func (s Sel) resolve(axis string, n int) ([]int, error) {
	switch s.kind {
	case selAll:
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	case selAt:
		i, err := normIndex(axis, s.start, n)
		if err != nil {
			return nil, err
		}
		return []int{i}, nil
	case selList:
		out := make([]int, len(s.ids))
		for k, id := range s.ids {
			i, err := normIndex(axis, id, n)
			if err != nil {
				return nil, err
			}
			out[k] = i
		}
		return out, nil
	case selSpan:
		return s.span(axis, n)
	case selRest:
		return nil, &UnsupportedIndexError{Axis: axis, Reason: "ellipsis is not supported"}
	}
	return nil, &UnsupportedIndexError{Axis: axis, Reason: fmt.Sprintf("unknown selection kind %d", s.kind)}
}

func normIndex(axis string, i, n int) (int, error) {
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return 0, fmt.Errorf("%w: %s index %d, axis length %d", ErrOutOfRange, axis, i, n)
	}
	return j, nil
}

func (s Sel) span(axis string, n int) ([]int, error) {
	step := s.step
	if step == 0 {
		return nil, &UnsupportedIndexError{Axis: axis, Reason: "slice step cannot be zero"}
	}

	var start, stop int
	if step > 0 {
		start, stop = 0, n
		if s.hasStart {
			start = clamp(s.start, n, 0, n)
		}
		if s.hasStop {
			stop = clamp(s.stop, n, 0, n)
		}
	} else {
		start, stop = n-1, -1
		if s.hasStart {
			start = clamp(s.start, n, -1, n-1)
		}
		if s.hasStop {
			stop = clamp(s.stop, n, -1, n-1)
		}
	}

	var out []int
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	if out == nil {
		out = []int{}
	}
	return out, nil
}

// clamp resolves a negative bound against n and limits it to [lo, hi].
func clamp(v, n, lo, hi int) int {
	if v < 0 {
		v += n
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Axis names in expression order.
var axisNames = [5]string{"row", "col", "channel", "slice", "frame"}

// Selection is a fully resolved index expression: the positions picked on
// every axis, in output order.
type Selection struct {
	Rows     []int
	Cols     []int
	Channels []int
	Slices   []int
	Frames   []int
}

// Shape is (rows, cols, channels, slices, frames).
func (s Selection) Shape() [5]int {
	return [5]int{len(s.Rows), len(s.Cols), len(s.Channels), len(s.Slices), len(s.Frames)}
}

// Len is the number of samples the selection covers.
func (s Selection) Len() int {
	sh := s.Shape()
	return sh[0] * sh[1] * sh[2] * sh[3] * sh[4]
}

// Planes is the number of pages the selection touches before
// deduplication.
func (s Selection) Planes() int {
	return len(s.Channels) * len(s.Slices) * len(s.Frames)
}

// Resolve checks an index expression against the axis lengths without
// touching any data. Components are positional (row, col, channel, slice,
// frame); missing trailing components select everything. Spatial axes
// accept ranges only.
func Resolve(dims [5]int, sels ...Sel) (Selection, error) {
	if len(sels) > len(axisNames) {
		return Selection{}, &UnsupportedIndexError{
			Reason: fmt.Sprintf("%d index components, at most %d", len(sels), len(axisNames)),
		}
	}
	var axes [5][]int
	for i, name := range axisNames {
		sel := All()
		if i < len(sels) {
			sel = sels[i]
		}
		if i < 2 && sel.kind != selRest && !sel.ranged() {
			return Selection{}, &UnsupportedIndexError{Axis: name, Reason: "spatial axes accept ranges only, got " + sel.String()}
		}
		ids, err := sel.resolve(name, dims[i])
		if err != nil {
			return Selection{}, err
		}
		axes[i] = ids
	}
	return Selection{Rows: axes[0], Cols: axes[1], Channels: axes[2], Slices: axes[3], Frames: axes[4]}, nil
}

// ResolveShape returns the output shape an index expression would produce.
func ResolveShape(dims [5]int, sels ...Sel) ([5]int, error) {
	sel, err := Resolve(dims, sels...)
	if err != nil {
		return [5]int{}, err
	}
	return sel.Shape(), nil
}
