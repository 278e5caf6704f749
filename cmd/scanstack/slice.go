package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scanstack/internal/stack"
)

type planeReport struct {
	Channel int         `json:"channel"`
	Slice   int         `json:"slice"`
	Frame   int         `json:"frame"`
	Stats   stack.Stats `json:"stats"`
}

type sliceReport struct {
	Index  map[string]string `json:"index"`
	Shape  [5]int            `json:"shape"`
	Stats  stack.Stats       `json:"stats"`
	Planes []planeReport     `json:"planes,omitempty"`
}

var sliceAxes = [...]string{"y", "x", "c", "z", "t"}

func sliceCmd() *cli.Command {
	var (
		exprs  [len(sliceAxes)]string
		planes bool
	)
	usage := [...]string{
		"rows, e.g. 0:256",
		"columns, e.g. ::2",
		"channels, e.g. 0 or 0,1",
		"slices, e.g. -1",
		"frames, e.g. 10:20",
	}
	flags := append(sourceFlags(), outputFlags()...)
	for i, name := range sliceAxes {
		flags = append(flags, &cli.StringFlag{
			Name:        name,
			Usage:       usage[i],
			Destination: &exprs[i],
		})
	}
	flags = append(flags, &cli.BoolFlag{
		Name:        "planes",
		Usage:       "also report statistics per (channel, slice, frame) plane",
		Destination: &planes,
	})

	return &cli.Command{
		Name:      "slice",
		Usage:     "Read a sub-volume and print its shape and statistics",
		ArgsUsage: "[files...]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sels, err := parseSlice(exprs)
			if err != nil {
				return err
			}
			r, err := openReader(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			rep, err := runSlice(r, exprs, sels, planes)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(os.Stdout, rep)
			}
			writeSlice(os.Stdout, rep)
			return nil
		},
	}
}

func parseSlice(exprs [len(sliceAxes)]string) ([]stack.Sel, error) {
	sels := make([]stack.Sel, len(exprs))
	for i, e := range exprs {
		sel, err := stack.ParseSel(e)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", sliceAxes[i], err)
		}
		sels[i] = sel
	}
	return sels, nil
}

func runSlice(r *stack.Reader, exprs [len(sliceAxes)]string, sels []stack.Sel, planes bool) (sliceReport, error) {
	arr, err := r.Read(sels...)
	if err != nil {
		return sliceReport{}, err
	}
	rep := sliceReport{
		Index: make(map[string]string, len(exprs)),
		Shape: arr.Shape,
		Stats: arr.Stats(),
	}
	for i, e := range exprs {
		if e == "" {
			e = ":"
		}
		rep.Index[sliceAxes[i]] = e
	}
	if !planes {
		return rep, nil
	}

	dims, err := r.Dims()
	if err != nil {
		return sliceReport{}, err
	}
	sel, err := stack.Resolve(dims, sels...)
	if err != nil {
		return sliceReport{}, err
	}
	ps := arr.PlaneStats()
	i := 0
	for _, c := range sel.Channels {
		for _, s := range sel.Slices {
			for _, f := range sel.Frames {
				rep.Planes = append(rep.Planes, planeReport{Channel: c, Slice: s, Frame: f, Stats: ps[i]})
				i++
			}
		}
	}
	return rep, nil
}

func writeSlice(w io.Writer, rep sliceReport) {
	section(w, "Slice")
	for _, a := range sliceAxes {
		row(w, a, rep.Index[a])
	}
	row(w, "Shape", formatShape(rep.Shape))
	writeStats(w, rep.Stats)

	if len(rep.Planes) == 0 {
		return
	}
	section(w, "Planes")
	_, _ = fmt.Fprintf(w, "%4s %4s %6s %10s %10s %12s %12s\n", "c", "z", "t", "min", "max", "mean", "std")
	for _, p := range rep.Planes {
		_, _ = fmt.Fprintf(w, "%4d %4d %6d %10g %10g %12.3f %12.3f\n",
			p.Channel, p.Slice, p.Frame, p.Stats.Min, p.Stats.Max, p.Stats.Mean, p.Stats.StdDev)
	}
}

func writeStats(w io.Writer, st stack.Stats) {
	row(w, "Samples", strconv.Itoa(st.Count))
	if st.Count == 0 {
		return
	}
	row(w, "Min", strconv.FormatFloat(st.Min, 'g', -1, 64))
	row(w, "Max", strconv.FormatFloat(st.Max, 'g', -1, 64))
	row(w, "Mean", strconv.FormatFloat(st.Mean, 'f', 3, 64))
	row(w, "Std dev", strconv.FormatFloat(st.StdDev, 'f', 3, 64))
	row(w, "Median", strconv.FormatFloat(st.Median, 'g', -1, 64))
}
