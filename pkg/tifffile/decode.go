package tifffile

import (
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"
)

// Plane is one decoded page. Pix is row-major with Rows*Cols samples.
type Plane struct {
	Rows int
	Cols int
	Pix  []int16
}

// pageView presents the file with a few byte ranges overwritten, so a
// single-image decoder sees the requested page as the first one and reads
// signed samples as unsigned.
type pageView struct {
	data    []byte
	patches []patch
}

type patch struct {
	off int64
	b   []byte
}

func (v *pageView) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("tifffile: negative offset")
	}
	if off >= int64(len(v.data)) {
		return 0, io.EOF
	}
	n := copy(p, v.data[off:])
	end := off + int64(n)
	for _, pt := range v.patches {
		lo, hi := max(pt.off, off), min(pt.off+int64(len(pt.b)), end)
		if lo < hi {
			copy(p[lo-off:hi-off], pt.b[lo-pt.off:])
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// view redirects the first-IFD pointer to d and rewrites its SampleFormat
// values to 1. The decoder refuses signed integer pages; planeOf restores
// the sign from the raw 16 bits.
func (f *File) view(d *ifd) io.Reader {
	head := make([]byte, headerSize)
	copy(head[:4], f.data[:4])
	f.order.PutUint32(head[4:], d.offset)
	v := &pageView{data: f.data, patches: []patch{{off: 0, b: head}}}

	for i, e := range d.entries {
		if e.tag != tagSampleFormat {
			continue
		}
		if p, ok := f.unsignedPatch(d, i); ok {
			v.patches = append(v.patches, p)
		}
	}
	return io.NewSectionReader(v, 0, int64(len(f.data)))
}

// unsignedPatch rewrites a SampleFormat entry whose values are all 1 or 2.
// Anything else, floats included, is left for the decoder to reject.
func (f *File) unsignedPatch(d *ifd, i int) (patch, bool) {
	e := d.entries[i]
	var width int
	switch e.typ {
	case typeShort:
		width = 2
	case typeLong:
		width = 4
	default:
		return patch{}, false
	}
	if e.count == 0 || e.count > 8 {
		return patch{}, false
	}
	n := width * int(e.count)
	off := int64(d.offset) + 2 + int64(i)*entrySize + 8
	if n > 4 {
		off = int64(f.order.Uint32(e.value[:]))
	}
	if off+int64(n) > int64(len(f.data)) {
		return patch{}, false
	}
	vals := append([]byte(nil), f.data[off:off+int64(n)]...)
	for j := 0; j < int(e.count); j++ {
		var fmtv uint32
		if width == 2 {
			fmtv = uint32(f.order.Uint16(vals[j*2:]))
		} else {
			fmtv = f.order.Uint32(vals[j*4:])
		}
		if fmtv != sampleUnsigned && fmtv != sampleSigned {
			return patch{}, false
		}
		if width == 2 {
			f.order.PutUint16(vals[j*2:], sampleUnsigned)
		} else {
			f.order.PutUint32(vals[j*4:], sampleUnsigned)
		}
	}
	return patch{off: off, b: vals}, true
}

// ReadPage decodes one page. 16-bit samples are reinterpreted as signed,
// 8-bit samples are widened.
func (f *File) ReadPage(i int) (Plane, error) {
	d, err := f.page(i)
	if err != nil {
		return Plane{}, err
	}
	img, err := tiff.Decode(f.view(d))
	if err != nil {
		return Plane{}, decodeError(i, err)
	}
	return planeOf(img, i)
}

func decodeError(page int, err error) error {
	var unsupported tiff.UnsupportedError
	if errors.As(err, &unsupported) {
		return fmt.Errorf("%w: page %d: %v", ErrUnsupportedPage, page, err)
	}
	return fmt.Errorf("%w: page %d: %v", ErrCorruptFile, page, err)
}

// ReadPages decodes the given pages in the order requested.
func (f *File) ReadPages(pages []int) ([]Plane, error) {
	out := make([]Plane, 0, len(pages))
	for _, p := range pages {
		pl, err := f.ReadPage(p)
		if err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, nil
}

// PageShape reports the dimensions of a page without decoding its samples.
func (f *File) PageShape(i int) (rows, cols int, err error) {
	d, err := f.page(i)
	if err != nil {
		return 0, 0, err
	}
	cfg, err := tiff.DecodeConfig(f.view(d))
	if err != nil {
		return 0, 0, decodeError(i, err)
	}
	return cfg.Height, cfg.Width, nil
}

func planeOf(img image.Image, page int) (Plane, error) {
	b := img.Bounds()
	pl := Plane{Rows: b.Dy(), Cols: b.Dx(), Pix: make([]int16, b.Dx()*b.Dy())}
	switch m := img.(type) {
	case *image.Gray16:
		for y := 0; y < pl.Rows; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < pl.Cols; x++ {
				pl.Pix[y*pl.Cols+x] = int16(uint16(row[2*x])<<8 | uint16(row[2*x+1]))
			}
		}
	case *image.Gray:
		for y := 0; y < pl.Rows; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < pl.Cols; x++ {
				pl.Pix[y*pl.Cols+x] = int16(row[x])
			}
		}
	default:
		return Plane{}, fmt.Errorf("%w: page %d decodes to %T, want greyscale", ErrUnsupportedPage, page, img)
	}
	return pl, nil
}
