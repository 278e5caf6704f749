package stack

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the samples of an array or one of its planes.
type Stats struct {
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Median float64 `json:"median" yaml:"median"`
}

// Summarize computes Stats over samples. An empty input yields the zero
// value.
func Summarize(samples []int16) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	x := make([]float64, len(samples))
	for i, v := range samples {
		x[i] = float64(v)
	}
	st := Stats{Count: len(x), Min: floats.Min(x), Max: floats.Max(x)}
	st.Mean, st.StdDev = stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		st.StdDev = 0
	}

	// Quantile needs sorted input; x is a private copy.
	sort.Float64s(x)
	st.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	return st
}

func (a *Array) Stats() Stats {
	return Summarize(a.Data)
}

// PlaneStats summarises every (channel, slice, frame) plane in output
// order, frame fastest.
func (a *Array) PlaneStats() []Stats {
	sh := a.Shape
	out := make([]Stats, 0, sh[2]*sh[3]*sh[4])
	for ch := 0; ch < sh[2]; ch++ {
		for s := 0; s < sh[3]; s++ {
			for f := 0; f < sh[4]; f++ {
				p, _ := a.Plane(ch, s, f)
				out = append(out, Summarize(p))
			}
		}
	}
	return out
}
