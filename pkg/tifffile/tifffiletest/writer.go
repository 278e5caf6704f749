// Package tifffiletest builds small uncompressed multi-page TIFF fixtures
// for tests.
package tifffiletest

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"
)

type Page struct {
	Rows int
	Cols int
	Pix  []int16
}

// Options controls the fixture layout. Text tags are written to the first
// page only. A nil Order means little-endian.
type Options struct {
	Order       binary.ByteOrder
	Description string
	Software    string

	// Signed tags every page SampleFormat=2, as ScanImage writes them.
	Signed bool
}

const (
	typeASCII = 2
	typeShort = 3
	typeLong  = 4
)

type tag struct {
	id    uint16
	typ   uint16
	count uint32
	value uint32
}

// Encode returns a classic TIFF with one 16-bit greyscale strip per page.
func Encode(pages []Page, opts Options) []byte {
	order := opts.Order
	if order == nil {
		order = binary.LittleEndian
	}
	var buf bytes.Buffer
	if order == binary.BigEndian {
		buf.WriteString("MM")
	} else {
		buf.WriteString("II")
	}
	put16(&buf, order, 42)
	put32(&buf, order, 0)

	nextPtr := 4
	for i, p := range pages {
		var tags []tag
		if i == 0 {
			if opts.Description != "" {
				tags = append(tags, textTag(&buf, 270, opts.Description))
			}
			if opts.Software != "" {
				tags = append(tags, textTag(&buf, 305, opts.Software))
			}
		}

		align(&buf)
		stripOff := buf.Len()
		for _, v := range p.Pix {
			put16(&buf, order, uint16(v))
		}
		stripLen := buf.Len() - stripOff

		tags = append(tags,
			tag{256, typeLong, 1, uint32(p.Cols)},
			tag{257, typeLong, 1, uint32(p.Rows)},
			tag{258, typeShort, 1, 16},
			tag{259, typeShort, 1, 1},
			tag{262, typeShort, 1, 1},
			tag{273, typeLong, 1, uint32(stripOff)},
			tag{277, typeShort, 1, 1},
			tag{278, typeLong, 1, uint32(p.Rows)},
			tag{279, typeLong, 1, uint32(stripLen)},
		)
		if opts.Signed {
			tags = append(tags, tag{339, typeShort, 1, 2})
		}
		sort.Slice(tags, func(a, b int) bool { return tags[a].id < tags[b].id })

		align(&buf)
		ifdOff := buf.Len()
		put16(&buf, order, uint16(len(tags)))
		for _, t := range tags {
			put16(&buf, order, t.id)
			put16(&buf, order, t.typ)
			put32(&buf, order, t.count)
			if t.typ == typeShort {
				put16(&buf, order, uint16(t.value))
				put16(&buf, order, 0)
			} else {
				put32(&buf, order, t.value)
			}
		}
		order.PutUint32(buf.Bytes()[nextPtr:], uint32(ifdOff))
		nextPtr = buf.Len()
		put32(&buf, order, 0)
	}
	return buf.Bytes()
}

// WriteFile encodes pages to path.
func WriteFile(path string, pages []Page, opts Options) error {
	return os.WriteFile(path, Encode(pages, opts), 0o644)
}

// Ramp returns a rows×cols page whose samples are base+row*cols+col.
func Ramp(rows, cols int, base int16) Page {
	p := Page{Rows: rows, Cols: cols, Pix: make([]int16, rows*cols)}
	for i := range p.Pix {
		p.Pix[i] = base + int16(i)
	}
	return p
}

// textTag appends s NUL-padded to at least five bytes so the value is
// always stored out of line.
func textTag(buf *bytes.Buffer, id uint16, s string) tag {
	raw := append([]byte(s), 0)
	for len(raw) <= 4 {
		raw = append(raw, 0)
	}
	align(buf)
	off := buf.Len()
	buf.Write(raw)
	return tag{id, typeASCII, uint32(len(raw)), uint32(off)}
}

func align(buf *bytes.Buffer) {
	if buf.Len()%2 != 0 {
		buf.WriteByte(0)
	}
}

func put16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func put32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}
