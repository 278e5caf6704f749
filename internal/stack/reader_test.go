package stack

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/samcharles93/scanstack/internal/pagecache"
	"github.com/samcharles93/scanstack/pkg/scanimage"
)

const (
	testRows = 4
	testCols = 5
)

// fakeSource serves synthetic pages whose samples encode the global page
// id: sample i of global page g is g*100+i. Pages come back in reverse
// order to exercise scatter-by-index.
type fakeSource struct {
	desc  string
	first int
	n     int
	drop  int
	fail  error

	mu         sync.Mutex
	calls      [][]int
	shapeCalls int
	closed     bool
}

func (s *fakeSource) NumPages() int { return s.n }

func (s *fakeSource) PageShape(page int) (rows, cols int, err error) {
	s.mu.Lock()
	s.shapeCalls++
	s.mu.Unlock()
	if s.fail != nil {
		return 0, 0, s.fail
	}
	return testRows, testCols, nil
}

func (s *fakeSource) ReadPages(pages []int) ([]Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]int(nil), pages...))
	s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]Page, 0, len(pages))
	for i := len(pages) - 1; i >= 0; i-- {
		p := pages[i]
		if p == s.drop {
			continue
		}
		if p < 0 || p >= s.n {
			return nil, fmt.Errorf("page %d of %d", p, s.n)
		}
		pix := make([]int16, testRows*testCols)
		for j := range pix {
			pix[j] = int16((s.first+p)*100 + j)
		}
		out = append(out, Page{Index: p, Rows: testRows, Cols: testCols, Pix: pix})
	}
	return out, nil
}

func (s *fakeSource) Description() (string, error) { return s.desc, nil }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSource) takeCalls() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.calls
	s.calls = nil
	return c
}

func header(nChannels, nSlices int, zEnable bool) string {
	ch := make([]string, nChannels)
	for i := range ch {
		ch[i] = fmt.Sprint(i + 1)
	}
	return strings.Join([]string{
		"SI.hChannels.channelSave = [" + strings.Join(ch, ";") + "]",
		fmt.Sprintf("SI.hStackManager.numSlices = %d", nSlices),
		fmt.Sprintf("SI.hFastZ.enable = %v", zEnable),
		"SI.hRoiManager.scanFrameRate = 30",
		"SI.hRoiManager.scanVolumeRate = 10",
		"SI.hMotors.hMotor = <handle>",
	}, "\n")
}

// openFakes opens a reader over fake files. names are given unsorted on
// purpose; fakes are returned in acquisition (sorted) order.
func openFakes(t *testing.T, desc string, counts map[string]int, opts Options) (*Reader, []*fakeSource) {
	t.Helper()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fakes := make(map[string]*fakeSource, len(names))
	ordered := make([]*fakeSource, len(names))
	first := 0
	for i, name := range names {
		f := &fakeSource{first: first, n: counts[name], drop: -1}
		if i == 0 {
			f.desc = desc
		}
		first += f.n
		fakes[name] = f
		ordered[i] = f
	}

	opts.Open = func(path string) (PageSource, error) {
		f, ok := fakes[filepath.Base(path)]
		if !ok {
			return nil, fmt.Errorf("no fake for %s", path)
		}
		return f, nil
	}

	unsorted := make([]string, len(names))
	for i := range names {
		unsorted[i] = filepath.Join("data", names[len(names)-1-i])
	}
	r, err := OpenFiles(unsorted, opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, ordered
}

var threeFiles = map[string]int{"acq_00001.tif": 10, "acq_00002.tif": 6, "acq_00003.tif": 8}

func expectSample(t *testing.T, arr *Array, sel Selection, v *VolumeIndex) {
	t.Helper()
	for ri, row := range sel.Rows {
		for cj, col := range sel.Cols {
			for ci, c := range sel.Channels {
				for si, s := range sel.Slices {
					for fi, f := range sel.Frames {
						g, err := v.At(c, s, f)
						if err != nil {
							t.Fatalf("At: %v", err)
						}
						want := int16(g*100 + row*testCols + col)
						if got := arr.At(ri, cj, ci, si, fi); got != want {
							t.Fatalf("(%d,%d,%d,%d,%d): got %d want %d", row, col, c, s, f, got, want)
						}
					}
				}
			}
		}
	}
}

func TestOpenDerivesVolume(t *testing.T) {
	t.Parallel()

	r, _ := openFakes(t, header(2, 3, true), threeFiles, Options{})
	files := r.Files()
	if len(files) != 3 || filepath.Base(files[0]) != "acq_00001.tif" || filepath.Base(files[2]) != "acq_00003.tif" {
		t.Fatalf("files not sorted by name: %v", files)
	}
	if !filepath.IsAbs(files[0]) {
		t.Fatalf("files should be absolute: %v", files)
	}
	dims, err := r.Dims()
	if err != nil {
		t.Fatalf("dims: %v", err)
	}
	if want := [5]int{testRows, testCols, 2, 3, 4}; dims != want {
		t.Fatalf("dims: got %v want %v", dims, want)
	}
	if r.Index().Structural() {
		t.Fatal("z-stepping enabled acquisition must not be structural")
	}
	if _, ok := r.Header().Lookup("hMotors_hMotor"); ok {
		t.Fatal("object reference should not be in header")
	}
	if fps, err := r.Acquisition().FPS(); err != nil || fps != 10 {
		t.Fatalf("fps: got %v, %v", fps, err)
	}
}

func TestReadWholeVolume(t *testing.T) {
	t.Parallel()

	for _, structural := range []bool{false, true} {
		r, fakes := openFakes(t, header(2, 3, !structural), threeFiles, Options{})
		dims, err := r.Dims()
		if err != nil {
			t.Fatalf("dims: %v", err)
		}
		for _, f := range fakes {
			f.takeCalls()
		}

		arr, err := r.Read()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if arr.Shape != dims {
			t.Fatalf("shape: got %v want %v", arr.Shape, dims)
		}
		sel, _ := Resolve(dims)
		expectSample(t, arr, sel, r.Index())

		for i, f := range fakes {
			calls := f.takeCalls()
			if len(calls) != 1 {
				t.Fatalf("file %d: got %d reads want 1", i, len(calls))
			}
			if len(calls[0]) != f.n || !sort.IntsAreSorted(calls[0]) {
				t.Fatalf("file %d: read %v", i, calls[0])
			}
		}
	}
}

func TestReadSubsetGroupsByFile(t *testing.T) {
	t.Parallel()

	r, fakes := openFakes(t, header(2, 3, true), threeFiles, Options{})
	if _, err := r.Dims(); err != nil {
		t.Fatalf("dims: %v", err)
	}
	for _, f := range fakes {
		f.takeCalls()
	}

	sels := []Sel{Range(1, 3), Step(0, 5, 2), At(1), List(2, 0, 2), Range(1, 3)}
	arr, err := r.Read(sels...)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	dims, _ := r.Dims()
	sel, _ := Resolve(dims, sels...)
	if arr.Shape != [5]int{2, 3, 1, 3, 2} {
		t.Fatalf("shape: got %v", arr.Shape)
	}
	expectSample(t, arr, sel, r.Index())

	// frames 1..2, channel 1, slices {0, 2}: globals 7, 11, 13, 17
	// -> file 0 page 7, file 1 pages 1 and 3, file 2 page 1.
	want := [][][]int{{{7}}, {{1, 3}}, {{1}}}
	for i, f := range fakes {
		calls := f.takeCalls()
		if fmt.Sprint(calls) != fmt.Sprint(want[i]) {
			t.Fatalf("file %d: got reads %v want %v", i, calls, want[i])
		}
	}
}

func TestGlobalPageOrder(t *testing.T) {
	t.Parallel()

	r, _ := openFakes(t, header(3, 2, true), map[string]int{"a.tif": 12}, Options{})

	// Channel varies fastest: page 1 is channel 1, page nChannels is slice 1.
	arr, err := r.Read(All(), All(), At(1), At(0), At(0))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := arr.At(0, 0, 0, 0, 0); got != 100 {
		t.Fatalf("(c1,z0,t0): got page %d want 1", got/100)
	}
	arr, err = r.Read(All(), All(), At(0), At(1), At(0))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := arr.At(0, 0, 0, 0, 0); got != 300 {
		t.Fatalf("(c0,z1,t0): got page %d want 3", got/100)
	}
}

func TestUnsupportedIndexKeepsReaderUsable(t *testing.T) {
	t.Parallel()

	r, _ := openFakes(t, header(2, 3, true), threeFiles, Options{})
	if _, err := r.Read(At(0)); !errors.Is(err, ErrUnsupportedIndex) {
		t.Fatalf("got %v want ErrUnsupportedIndex", err)
	}
	if _, err := r.Read(All(), All(), All(), All(), All(), All()); !errors.Is(err, ErrUnsupportedIndex) {
		t.Fatalf("got %v want ErrUnsupportedIndex", err)
	}
	if _, err := r.Read(All(), All(), At(0), At(0), At(0)); err != nil {
		t.Fatalf("valid read after rejection: %v", err)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	t.Parallel()

	serial, _ := openFakes(t, header(2, 3, false), threeFiles, Options{Parallel: 1})
	parallel, _ := openFakes(t, header(2, 3, false), threeFiles, Options{Parallel: 4})

	sels := []Sel{All(), Range(1, 4), All(), Step(2, 0, -1), All()}
	a, err := serial.Read(sels...)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	b, err := parallel.Read(sels...)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if a.Shape != b.Shape {
		t.Fatalf("shape: %v vs %v", a.Shape, b.Shape)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("sample %d: %d vs %d", i, a.Data[i], b.Data[i])
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arr, err := parallel.Read(sels...)
			if err == nil && arr.Data[len(arr.Data)-1] != a.Data[len(a.Data)-1] {
				err = errors.New("concurrent read differs")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent: %v", err)
		}
	}
}

func TestCacheServesRepeatReads(t *testing.T) {
	t.Parallel()

	cache := pagecache.New(4 << 20)
	r, fakes := openFakes(t, header(2, 3, true), threeFiles, Options{Cache: cache})
	if _, err := r.Dims(); err != nil {
		t.Fatalf("dims: %v", err)
	}

	first, err := r.Read(All(), All(), At(0))
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	for _, f := range fakes {
		f.takeCalls()
	}

	second, err := r.Read(All(), All(), At(0))
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	for i, f := range fakes {
		if calls := f.takeCalls(); len(calls) != 0 {
			t.Fatalf("file %d: cached read still hit source: %v", i, calls)
		}
	}
	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("sample %d: %d vs %d", i, first.Data[i], second.Data[i])
		}
	}

	// Channel 1 is not cached yet: only those pages are read.
	if _, err := r.Read(); err != nil {
		t.Fatalf("full read: %v", err)
	}
	calls := fakes[1].takeCalls()
	if len(calls) != 1 || fmt.Sprint(calls[0]) != "[1 3 5]" {
		t.Fatalf("file 1: got %v want [[1 3 5]]", calls)
	}
}

func TestDimsReadsShapeOnly(t *testing.T) {
	t.Parallel()

	r, fakes := openFakes(t, header(2, 3, true), threeFiles, Options{})
	for i := 0; i < 2; i++ {
		if _, err := r.Dims(); err != nil {
			t.Fatalf("dims: %v", err)
		}
	}
	if calls := fakes[0].takeCalls(); len(calls) != 0 {
		t.Fatalf("dims decoded pages: %v", calls)
	}
	if fakes[0].shapeCalls != 1 {
		t.Fatalf("shape lookups: got %d want 1", fakes[0].shapeCalls)
	}
}

func TestReadFailuresAreAllOrNothing(t *testing.T) {
	t.Parallel()

	r, fakes := openFakes(t, header(2, 3, true), threeFiles, Options{})
	if _, err := r.Dims(); err != nil {
		t.Fatalf("dims: %v", err)
	}

	fakes[1].drop = 2
	arr, err := r.Read()
	if !errors.Is(err, ErrMissingPage) || arr != nil {
		t.Fatalf("dropped page: got %v, %v", arr, err)
	}

	fakes[1].drop = -1
	boom := errors.New("disk on fire")
	fakes[2].fail = boom
	arr, err = r.Read()
	if !errors.Is(err, boom) || arr != nil {
		t.Fatalf("read failure: got %v, %v", arr, err)
	}
	if !strings.Contains(err.Error(), "acq_00003.tif") {
		t.Fatalf("error should name the file: %v", err)
	}
}

func TestOpenFailures(t *testing.T) {
	t.Parallel()

	open := func(desc string, counts map[string]int) error {
		fakes := make(map[string]*fakeSource)
		var paths []string
		for name, n := range counts {
			fakes[name] = &fakeSource{desc: desc, n: n, drop: -1}
			paths = append(paths, name)
		}
		_, err := OpenFiles(paths, Options{Open: func(path string) (PageSource, error) {
			return fakes[filepath.Base(path)], nil
		}})
		for _, f := range fakes {
			if !f.closed {
				t.Fatalf("source left open after failed open")
			}
		}
		return err
	}

	if err := open(header(2, 2, true), map[string]int{"a.tif": 10}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("10 pages as 2x2x2: got %v", err)
	}
	if err := open("ImageJ=1.52\nimages=10", map[string]int{"a.tif": 10}); !errors.Is(err, scanimage.ErrVersionNotFound) {
		t.Fatalf("no dialect: got %v", err)
	}
	if err := open("SI.hChannels.channelSave = 1", map[string]int{"a.tif": 4}); !errors.Is(err, scanimage.ErrMissingField) {
		t.Fatalf("missing slices: got %v", err)
	}
	if _, err := OpenFiles(nil, Options{}); !errors.Is(err, ErrNoSources) {
		t.Fatalf("no files: got %v", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "*.tif"), Options{}); !errors.Is(err, ErrNoSources) {
		t.Fatalf("empty glob: got %v", err)
	}
}

func TestCloseRejectsReads(t *testing.T) {
	t.Parallel()

	r, fakes := openFakes(t, header(1, 1, true), map[string]int{"a.tif": 3}, Options{})
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !fakes[0].closed {
		t.Fatal("source not closed")
	}
	if _, err := r.Read(); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v want ErrClosed", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestArrayStats(t *testing.T) {
	t.Parallel()

	arr := &Array{Shape: [5]int{1, 2, 1, 1, 2}, Data: []int16{1, 10, 3, 30}}
	st := arr.Stats()
	if st.Count != 4 || st.Min != 1 || st.Max != 30 || st.Mean != 11 {
		t.Fatalf("stats: got %+v", st)
	}
	planes := arr.PlaneStats()
	if len(planes) != 2 {
		t.Fatalf("planes: got %d want 2", len(planes))
	}
	// Frame 0 holds samples 1 and 3, frame 1 holds 10 and 30.
	if planes[0].Max != 3 || planes[1].Min != 10 {
		t.Fatalf("plane stats: got %+v", planes)
	}
	if got := Summarize(nil); got != (Stats{}) {
		t.Fatalf("empty: got %+v", got)
	}
}
