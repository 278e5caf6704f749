package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scanstack/internal/stack"
	"github.com/samcharles93/scanstack/pkg/scanimage"
)

type fileInfo struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	Size  int64  `json:"size"`
}

type infoReport struct {
	ID      string            `json:"id"`
	Files   []fileInfo        `json:"files"`
	Shape   [5]int            `json:"shape"`
	Summary scanimage.Summary `json:"summary"`
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the acquisition geometry and imaging parameters",
		ArgsUsage: "[files...]",
		Flags:     append(sourceFlags(), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := openReader(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			rep, err := buildInfo(r)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(os.Stdout, rep)
			}
			writeInfo(os.Stdout, rep)
			return nil
		},
	}
}

func buildInfo(r *stack.Reader) (infoReport, error) {
	shape, err := r.Dims()
	if err != nil {
		return infoReport{}, err
	}
	idx := r.FileIndex()
	rep := infoReport{
		ID:      r.ID(),
		Shape:   shape,
		Summary: r.Acquisition().Summary(),
	}
	for i, p := range r.Files() {
		fi := fileInfo{Path: p, Pages: idx.Count(i)}
		if st, err := os.Stat(p); err == nil {
			fi.Size = st.Size()
		}
		rep.Files = append(rep.Files, fi)
	}
	return rep, nil
}

func writeInfo(w io.Writer, rep infoReport) {
	s := rep.Summary

	section(w, "Acquisition")
	row(w, "Dialect", s.Dialect)
	row(w, "Pages", humanize.Comma(int64(s.TotalPages)))
	row(w, "Shape", formatShape(rep.Shape))
	rowBool(w, "Structural", s.Structural)
	rowInt(w, "Requested frames", s.RequestedFrames)

	section(w, "Imaging")
	if len(s.Channels) > 0 {
		row(w, "Channels saved", fmt.Sprint(s.Channels))
	}
	rowFloat(w, "Frame rate (Hz)", s.FPS)
	rowFloat(w, "Z step (um)", s.ZStep)
	rowFloat(w, "Fill fraction", s.FillFraction)
	rowBool(w, "Bidirectional", s.Bidirectional)
	rowFloat(w, "Dwell time (us)", s.DwellTimeUS)
	rowFloat(w, "Zoom", s.Zoom)

	section(w, "Files")
	for i, f := range rep.Files {
		row(w, strconv.Itoa(i), fmt.Sprintf("%s  %d pages  %s", f.Path, f.Pages, humanize.Bytes(uint64(f.Size))))
	}

	if len(s.Missing) > 0 {
		section(w, "Unavailable")
		for _, m := range s.Missing {
			_, _ = fmt.Fprintf(w, "  %s\n", m)
		}
	}
}
