package stack

import "fmt"

// Array is a dense C-order int16 array with axes (row, col, channel,
// slice, frame). The frame index varies fastest in Data.
type Array struct {
	Shape [5]int
	Data  []int16
}

func newArray(shape [5]int) *Array {
	n := shape[0] * shape[1] * shape[2] * shape[3] * shape[4]
	return &Array{Shape: shape, Data: make([]int16, n)}
}

func (a *Array) Len() int { return len(a.Data) }

func (a *Array) offset(r, c, ch, s, f int) int {
	sh := a.Shape
	return (((r*sh[1]+c)*sh[2]+ch)*sh[3]+s)*sh[4] + f
}

func (a *Array) At(r, c, ch, s, f int) int16 {
	return a.Data[a.offset(r, c, ch, s, f)]
}

func (a *Array) set(r, c, ch, s, f int, v int16) {
	a.Data[a.offset(r, c, ch, s, f)] = v
}

// Plane copies out the rows x cols image at one (channel, slice, frame)
// position of the output.
func (a *Array) Plane(ch, s, f int) ([]int16, error) {
	sh := a.Shape
	if ch < 0 || ch >= sh[2] || s < 0 || s >= sh[3] || f < 0 || f >= sh[4] {
		return nil, fmt.Errorf("%w: plane (%d, %d, %d) of %v", ErrOutOfRange, ch, s, f, sh)
	}
	out := make([]int16, sh[0]*sh[1])
	for r := 0; r < sh[0]; r++ {
		for c := 0; c < sh[1]; c++ {
			out[r*sh[1]+c] = a.At(r, c, ch, s, f)
		}
	}
	return out, nil
}
