// Package stack presents a set of single-page-per-plane microscope files as
// one (row, col, channel, slice, frame) volume and serves multi-dimensional
// slices of it.
package stack

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/samcharles93/scanstack/internal/logger"
	"github.com/samcharles93/scanstack/internal/pagecache"
	"github.com/samcharles93/scanstack/pkg/scanimage"
)

// Options configures a Reader. The zero value opens TIFF files with the
// default dialects, reads files one at a time and does not cache.
type Options struct {
	Open      Opener
	Dialects  []scanimage.Dialect
	Evaluator scanimage.Evaluator
	Logger    logger.Logger

	// Parallel is the number of files read concurrently by one slice.
	Parallel int

	// CacheBytes sizes a private page cache. Cache, when set, is used
	// instead and may be shared between readers.
	CacheBytes int
	Cache      *pagecache.Cache
}

type source struct {
	PageSource
	mu sync.Mutex
}

// Reader owns the open source files of one acquisition for its lifetime.
// It is safe for concurrent use.
type Reader struct {
	id       string
	paths    []string
	sources  []*source
	files    *FileIndex
	header   *scanimage.Header
	acq      *scanimage.Acquisition
	volume   *VolumeIndex
	cache    *pagecache.Cache
	ownCache bool
	parallel int
	log      logger.Logger

	shapeOnce sync.Once
	rows      int
	cols      int
	shapeErr  error

	closeMu sync.RWMutex
	closed  bool
}

// Open resolves a glob pattern and opens the matching files.
func Open(pattern string, opts Options) (*Reader, error) {
	paths, err := ResolveSources(pattern)
	if err != nil {
		return nil, err
	}
	return OpenFiles(paths, opts)
}

// OpenFiles opens an explicit list of files. The list is sorted by base
// name before use.
func OpenFiles(paths []string, opts Options) (*Reader, error) {
	paths, err := SortSources(paths)
	if err != nil {
		return nil, err
	}
	if opts.Open == nil {
		opts.Open = OpenTIFF
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}

	r := &Reader{
		id:       uuid.NewString(),
		paths:    paths,
		parallel: opts.Parallel,
	}
	r.log = opts.Logger.With("reader", r.id)

	start := time.Now()
	counts := make([]int, len(paths))
	for i, p := range paths {
		src, err := opts.Open(p)
		if err != nil {
			_ = r.closeSources()
			return nil, fmt.Errorf("stack: open %s: %w", p, err)
		}
		r.sources = append(r.sources, &source{PageSource: src})
		counts[i] = src.NumPages()
	}

	if err := r.init(counts, opts); err != nil {
		_ = r.closeSources()
		return nil, err
	}

	nc, ns, nf := r.volume.Dims()
	r.log.Info("opened acquisition",
		"files", len(paths),
		"pages", humanize.Comma(int64(r.files.Total())),
		"size", humanize.Bytes(totalSize(paths)),
		"dialect", r.header.Dialect.Label,
		"channels", nc, "slices", ns, "frames", nf,
		"structural", r.volume.Structural(),
		"elapsed", time.Since(start),
	)
	return r, nil
}

func (r *Reader) init(counts []int, opts Options) error {
	files, err := NewFileIndex(counts)
	if err != nil {
		return err
	}
	r.files = files

	text, err := r.sources[0].Description()
	if err != nil {
		return fmt.Errorf("stack: read header of %s: %w", r.paths[0], err)
	}
	header, err := scanimage.NewParser(opts.Dialects, opts.Evaluator).Parse(scanimage.SplitLines(text))
	if err != nil {
		return fmt.Errorf("stack: %s: %w", r.paths[0], err)
	}
	r.header = header

	acq, err := scanimage.NewAcquisition(header, files.Total())
	if err != nil {
		return err
	}
	r.acq = acq

	nc, err := acq.NChannels()
	if err != nil {
		return err
	}
	ns, err := acq.NSlices()
	if err != nil {
		return err
	}
	nf, err := acq.NFrames()
	if err != nil {
		return err
	}
	structural, err := acq.IsStructural()
	if err != nil {
		return err
	}
	r.volume, err = NewVolumeIndex(files.Total(), nc, ns, nf, structural)
	if err != nil {
		return err
	}

	switch {
	case opts.Cache != nil:
		r.cache = opts.Cache
	case opts.CacheBytes > 0:
		r.cache = pagecache.New(opts.CacheBytes)
		r.ownCache = true
		r.log.Debug("page cache enabled", "size", humanize.Bytes(uint64(opts.CacheBytes)))
	}
	return nil
}

func totalSize(paths []string) uint64 {
	var n uint64
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil {
			n += uint64(st.Size())
		}
	}
	return n
}

// ID identifies this reader in logs and cache keys.
func (r *Reader) ID() string { return r.id }

// Files returns the source paths in acquisition order.
func (r *Reader) Files() []string {
	return append([]string(nil), r.paths...)
}

func (r *Reader) FileIndex() *FileIndex                { return r.files }
func (r *Reader) Index() *VolumeIndex                  { return r.volume }
func (r *Reader) Header() *scanimage.Header            { return r.header }
func (r *Reader) Acquisition() *scanimage.Acquisition { return r.acq }

// PageShape returns the rows and columns of a page. It is read from the
// first page on first use and remembered.
func (r *Reader) PageShape() (rows, cols int, err error) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	return r.pageShape()
}

func (r *Reader) pageShape() (rows, cols int, err error) {
	r.shapeOnce.Do(func() {
		if len(r.sources) == 0 {
			r.shapeErr = ErrClosed
			return
		}
		src := r.sources[0]
		src.mu.Lock()
		rows, cols, err := src.PageShape(0)
		src.mu.Unlock()
		if err != nil {
			r.shapeErr = fmt.Errorf("stack: read first page of %s: %w", r.paths[0], err)
			return
		}
		r.rows, r.cols = rows, cols
	})
	return r.rows, r.cols, r.shapeErr
}

// Dims returns the length of every axis: (rows, cols, channels, slices,
// frames).
func (r *Reader) Dims() ([5]int, error) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	return r.dims()
}

func (r *Reader) dims() ([5]int, error) {
	rows, cols, err := r.pageShape()
	if err != nil {
		return [5]int{}, err
	}
	nc, ns, nf := r.volume.Dims()
	return [5]int{rows, cols, nc, ns, nf}, nil
}

// Shape resolves an index expression to its output shape without reading
// any page data beyond the page dimensions.
func (r *Reader) Shape(sels ...Sel) ([5]int, error) {
	dims, err := r.Dims()
	if err != nil {
		return [5]int{}, err
	}
	return ResolveShape(dims, sels...)
}

// Read returns the sub-volume selected by a positional index expression
// (row, col, channel, slice, frame). Missing trailing components select
// the whole axis. Either the full array is returned or an error.
func (r *Reader) Read(sels ...Sel) (*Array, error) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}

	dims, err := r.dims()
	if err != nil {
		return nil, err
	}
	sel, err := Resolve(dims, sels...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, st, err := r.gather(sel, dims[0], dims[1])
	if err != nil {
		return nil, err
	}
	r.log.Debug("slice read",
		"shape", out.Shape,
		"planes", sel.Planes(),
		"file_reads", st.reads,
		"pages_read", st.pages,
		"pages_cached", st.cached,
		"elapsed", time.Since(start),
	)
	return out, nil
}

// Close releases every source file. Further reads fail with ErrClosed.
func (r *Reader) Close() error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cache != nil {
		st := r.cache.Stats()
		r.log.Debug("page cache", "hits", st.Hits, "misses", st.Misses, "entries", st.Entries)
		if r.ownCache {
			r.cache.Clear()
		}
	}
	return r.closeSources()
}

func (r *Reader) closeSources() error {
	var errs []error
	for _, s := range r.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.sources = nil
	return errors.Join(errs...)
}
