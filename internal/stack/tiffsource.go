package stack

import (
	"github.com/samcharles93/scanstack/pkg/tifffile"
)

// Page is one decoded plane of a source file. Index is the local page
// number inside that file; Pix is row-major.
type Page struct {
	Index int
	Rows  int
	Cols  int
	Pix   []int16
}

// PageSource is one open source file. ReadPages may return the requested
// pages in any order; callers match them by Index.
type PageSource interface {
	NumPages() int
	PageShape(page int) (rows, cols int, err error)
	ReadPages(pages []int) ([]Page, error)
	Description() (string, error)
	Close() error
}

// Opener opens a source file by path.
type Opener func(path string) (PageSource, error)

type tiffSource struct {
	f *tifffile.File
}

// OpenTIFF is the default Opener.
func OpenTIFF(path string) (PageSource, error) {
	f, err := tifffile.Open(path)
	if err != nil {
		return nil, err
	}
	return &tiffSource{f: f}, nil
}

func (s *tiffSource) NumPages() int { return s.f.NumPages() }

func (s *tiffSource) PageShape(page int) (rows, cols int, err error) {
	return s.f.PageShape(page)
}

func (s *tiffSource) ReadPages(pages []int) ([]Page, error) {
	planes, err := s.f.ReadPages(pages)
	if err != nil {
		return nil, err
	}
	out := make([]Page, len(planes))
	for i, pl := range planes {
		out[i] = Page{Index: pages[i], Rows: pl.Rows, Cols: pl.Cols, Pix: pl.Pix}
	}
	return out, nil
}

func (s *tiffSource) Description() (string, error) {
	return s.f.Description(0)
}

func (s *tiffSource) Close() error {
	return s.f.Close()
}
