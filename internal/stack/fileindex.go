package stack

import "fmt"

// PageLoc is a page position inside one source file.
type PageLoc struct {
	File int
	Page int
}

// FileIndex maps global page ids onto (file, local page) positions. Files
// are concatenated in source order.
type FileIndex struct {
	counts []int
	starts []int
	locs   []PageLoc
}

func NewFileIndex(counts []int) (*FileIndex, error) {
	if len(counts) == 0 {
		return nil, ErrNoSources
	}
	idx := &FileIndex{
		counts: append([]int(nil), counts...),
		starts: make([]int, len(counts)),
	}
	total := 0
	for i, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("stack: file %d has negative page count %d", i, n)
		}
		idx.starts[i] = total
		total += n
	}
	idx.locs = make([]PageLoc, 0, total)
	for f, n := range counts {
		for p := 0; p < n; p++ {
			idx.locs = append(idx.locs, PageLoc{File: f, Page: p})
		}
	}
	return idx, nil
}

func (x *FileIndex) Total() int { return len(x.locs) }
func (x *FileIndex) Files() int { return len(x.counts) }

func (x *FileIndex) Count(file int) int {
	if file < 0 || file >= len(x.counts) {
		return 0
	}
	return x.counts[file]
}

// Locate returns the file and local page of a global page id.
func (x *FileIndex) Locate(g int) (PageLoc, error) {
	if g < 0 || g >= len(x.locs) {
		return PageLoc{}, fmt.Errorf("%w: global page %d of %d", ErrOutOfRange, g, len(x.locs))
	}
	return x.locs[g], nil
}

// Global is the inverse of Locate.
func (x *FileIndex) Global(loc PageLoc) (int, error) {
	if loc.File < 0 || loc.File >= len(x.counts) || loc.Page < 0 || loc.Page >= x.counts[loc.File] {
		return 0, fmt.Errorf("%w: page %d of file %d", ErrOutOfRange, loc.Page, loc.File)
	}
	return x.starts[loc.File] + loc.Page, nil
}
