package stack

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// slot is an output position (channel, slice, frame) in a Selection.
type slot struct {
	ch, s, f int
}

// fileRequest is everything one bulk read must produce: the sorted,
// deduplicated local pages and where each one lands in the output.
type fileRequest struct {
	file    int
	pages   []int
	targets map[int][]slot
}

// plan maps every selected (channel, slice, frame) to its source page and
// groups the result by file.
func (r *Reader) plan(sel Selection) ([]*fileRequest, error) {
	byFile := make(map[int]*fileRequest)
	for ci, c := range sel.Channels {
		for si, s := range sel.Slices {
			for fi, f := range sel.Frames {
				g, err := r.volume.At(c, s, f)
				if err != nil {
					return nil, err
				}
				loc, err := r.files.Locate(g)
				if err != nil {
					return nil, err
				}
				req := byFile[loc.File]
				if req == nil {
					req = &fileRequest{file: loc.File, targets: make(map[int][]slot)}
					byFile[loc.File] = req
				}
				if _, seen := req.targets[loc.Page]; !seen {
					req.pages = append(req.pages, loc.Page)
				}
				req.targets[loc.Page] = append(req.targets[loc.Page], slot{ci, si, fi})
			}
		}
	}

	reqs := make([]*fileRequest, 0, len(byFile))
	for _, req := range byFile {
		sort.Ints(req.pages)
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].file < reqs[j].file })
	return reqs, nil
}

// scatter copies the selected rows and columns of one page into every
// output slot that refers to it.
func scatter(out *Array, sel Selection, cols int, pix []int16, slots []slot) {
	for _, sl := range slots {
		for ri, row := range sel.Rows {
			base := row * cols
			for cj, col := range sel.Cols {
				out.set(ri, cj, sl.ch, sl.s, sl.f, pix[base+col])
			}
		}
	}
}

// gather serves a resolved selection: cached pages first, then one bulk
// read per file for the rest. Files are read concurrently up to the
// reader's parallelism.
func (r *Reader) gather(sel Selection, rows, cols int) (*Array, gatherStats, error) {
	var st gatherStats
	reqs, err := r.plan(sel)
	if err != nil {
		return nil, st, err
	}
	out := newArray(sel.Shape())

	if r.cache != nil {
		for _, req := range reqs {
			misses := req.pages[:0:0]
			for _, p := range req.pages {
				pr, pc, pix, ok := r.cache.Get(r.id, req.file, p)
				if !ok || pr != rows || pc != cols {
					misses = append(misses, p)
					continue
				}
				scatter(out, sel, cols, pix, req.targets[p])
				st.cached++
			}
			req.pages = misses
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(r.parallel)
	for _, req := range reqs {
		if len(req.pages) == 0 {
			continue
		}
		st.reads++
		st.pages += len(req.pages)
		g.Go(func() error {
			return r.readFile(req, out, sel, rows, cols)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, st, err
	}
	return out, st, nil
}

type gatherStats struct {
	reads  int
	pages  int
	cached int
}

// readFile performs the single bulk read for one file and scatters the
// returned pages by their index. The source's return order is irrelevant.
func (r *Reader) readFile(req *fileRequest, out *Array, sel Selection, rows, cols int) error {
	src := r.sources[req.file]
	src.mu.Lock()
	pages, err := src.ReadPages(req.pages)
	src.mu.Unlock()
	if err != nil {
		return fmt.Errorf("stack: read %s: %w", r.paths[req.file], err)
	}

	got := make(map[int]struct{}, len(pages))
	for _, p := range pages {
		slots, wanted := req.targets[p.Index]
		if !wanted {
			return fmt.Errorf("stack: read %s: unrequested page %d", r.paths[req.file], p.Index)
		}
		if p.Rows != rows || p.Cols != cols || len(p.Pix) != rows*cols {
			return fmt.Errorf("stack: read %s: page %d is %dx%d, want %dx%d",
				r.paths[req.file], p.Index, p.Rows, p.Cols, rows, cols)
		}
		if _, dup := got[p.Index]; dup {
			continue
		}
		got[p.Index] = struct{}{}
		scatter(out, sel, cols, p.Pix, slots)
		if r.cache != nil {
			if err := r.cache.Put(r.id, req.file, p.Index, p.Rows, p.Cols, p.Pix); err != nil {
				r.log.Warn("page cache put failed", "file", r.paths[req.file], "page", p.Index, "error", err)
			}
		}
	}
	for _, p := range req.pages {
		if _, ok := got[p]; !ok {
			return fmt.Errorf("%w: %s page %d", ErrMissingPage, r.paths[req.file], p)
		}
	}
	return nil
}
