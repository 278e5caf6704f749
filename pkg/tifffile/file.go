// Package tifffile reads multi-page classic TIFF files of the kind laser
// scanning microscopes write: one grey plane per page, acquisition metadata
// as text in the first page's tags.
package tifffile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	headerSize = 8
	entrySize  = 12

	TagImageDescription uint16 = 270
	TagSoftware         uint16 = 305
	tagSampleFormat     uint16 = 339

	typeASCII uint16 = 2
	typeShort uint16 = 3
	typeLong  uint16 = 4

	sampleUnsigned = 1
	sampleSigned   = 2

	magicClassic = 42
	magicBig     = 43
)

// entry is one IFD entry. value holds the inline 4 bytes; out-of-line data
// is resolved on demand.
type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value [4]byte
}

type ifd struct {
	offset  uint32
	entries []entry
}

// File is an opened TIFF with its IFD chain indexed.
type File struct {
	data    []byte
	order   binary.ByteOrder
	ifds    []ifd
	mmapped bool
}

// Open maps a TIFF file read-only and indexes its pages.
// If mmap is unavailable, it falls back to reading the file into memory.
// The returned file must be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < headerSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s: size %d", ErrCorruptFile, path, size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		tf, parseErr := parse(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, fmt.Errorf("%s: %w", path, parseErr)
		}
		return tf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	tf, err := parse(data, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

// OpenReaderAt loads and indexes a TIFF from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < headerSize || size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: size %d", ErrCorruptFile, size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parse(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parse(data []byte, mmapped bool) (*File, error) {
	if len(data) < headerSize {
		return nil, ErrCorruptFile
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad byte-order mark %q", ErrCorruptFile, data[:2])
	}
	switch order.Uint16(data[2:4]) {
	case magicClassic:
	case magicBig:
		return nil, ErrBigTIFF
	default:
		return nil, fmt.Errorf("%w: bad magic %d", ErrCorruptFile, order.Uint16(data[2:4]))
	}

	tf := &File{data: data, order: order, mmapped: mmapped}
	seen := make(map[uint32]struct{})
	next := order.Uint32(data[4:8])
	for next != 0 {
		if _, loop := seen[next]; loop {
			return nil, fmt.Errorf("%w: IFD chain loops at offset %d", ErrCorruptFile, next)
		}
		seen[next] = struct{}{}

		d, after, err := tf.readIFD(next)
		if err != nil {
			return nil, err
		}
		tf.ifds = append(tf.ifds, d)
		next = after
	}
	if len(tf.ifds) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrCorruptFile)
	}
	return tf, nil
}

func (f *File) readIFD(off uint32) (ifd, uint32, error) {
	start := uint64(off)
	if start+2 > uint64(len(f.data)) {
		return ifd{}, 0, fmt.Errorf("%w: IFD offset %d out of bounds", ErrCorruptFile, off)
	}
	n := uint64(f.order.Uint16(f.data[start : start+2]))
	end := start + 2 + n*entrySize + 4
	if end > uint64(len(f.data)) {
		return ifd{}, 0, fmt.Errorf("%w: IFD at %d with %d entries out of bounds", ErrCorruptFile, off, n)
	}

	d := ifd{offset: off, entries: make([]entry, n)}
	for i := range d.entries {
		p := f.data[start+2+uint64(i)*entrySize:]
		e := &d.entries[i]
		e.tag = f.order.Uint16(p[0:2])
		e.typ = f.order.Uint16(p[2:4])
		e.count = f.order.Uint32(p[4:8])
		copy(e.value[:], p[8:12])
	}
	return d, f.order.Uint32(f.data[end-4 : end]), nil
}

// Close releases file resources and any mmap backing.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.data)
	}
	f.data = nil
	f.ifds = nil
	f.mmapped = false
	return err
}

func (f *File) NumPages() int {
	return len(f.ifds)
}

func (f *File) page(i int) (*ifd, error) {
	if f.data == nil {
		return nil, fmt.Errorf("%w: file closed", ErrCorruptFile)
	}
	if i < 0 || i >= len(f.ifds) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageRange, i, len(f.ifds))
	}
	return &f.ifds[i], nil
}

// Text returns an ASCII tag of a page with trailing NULs removed. ok is
// false when the page has no such tag.
func (f *File) Text(page int, tag uint16) (s string, ok bool, err error) {
	d, err := f.page(page)
	if err != nil {
		return "", false, err
	}
	for _, e := range d.entries {
		if e.tag != tag {
			continue
		}
		if e.typ != typeASCII {
			return "", false, fmt.Errorf("%w: tag %d has type %d, want ASCII", ErrCorruptFile, tag, e.typ)
		}
		raw, err := f.entryBytes(e)
		if err != nil {
			return "", false, err
		}
		return strings.TrimRight(string(raw), "\x00"), true, nil
	}
	return "", false, nil
}

func (f *File) entryBytes(e entry) ([]byte, error) {
	n := uint64(e.count)
	if n <= 4 {
		return e.value[:n], nil
	}
	off := uint64(f.order.Uint32(e.value[:]))
	if off+n > uint64(len(f.data)) {
		return nil, fmt.Errorf("%w: tag %d data out of bounds", ErrCorruptFile, e.tag)
	}
	return f.data[off : off+n], nil
}

// Description returns the metadata text of a page: the Software tag when
// present, the ImageDescription tag otherwise.
func (f *File) Description(page int) (string, error) {
	for _, tag := range []uint16{TagSoftware, TagImageDescription} {
		s, ok, err := f.Text(page, tag)
		if err != nil {
			return "", err
		}
		if ok {
			return s, nil
		}
	}
	return "", nil
}
