// Package pagecache keeps decoded pages in a fixed-size off-heap cache so
// repeated slices over the same region skip the decoder.
package pagecache

import (
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/coocood/freecache"
)

// Cache stores planes keyed by (namespace, file, page). A namespace
// separates readers that share one cache.
type Cache struct {
	c *freecache.Cache
}

// New returns a cache of roughly size bytes. freecache enforces its own
// minimum.
func New(size int) *Cache {
	return &Cache{c: freecache.NewCache(size)}
}

func key(ns string, file, page int) []byte {
	b := make([]byte, 0, len(ns)+24)
	b = append(b, ns...)
	b = append(b, '/')
	b = strconv.AppendInt(b, int64(file), 10)
	b = append(b, '/')
	b = strconv.AppendInt(b, int64(page), 10)
	return b
}

// Get returns a cached plane. ok is false on a miss or a corrupt entry.
func (c *Cache) Get(ns string, file, page int) (rows, cols int, pix []int16, ok bool) {
	raw, err := c.c.Get(key(ns, file, page))
	if err != nil || len(raw) < 8 {
		return 0, 0, nil, false
	}
	rows = int(binary.LittleEndian.Uint32(raw[0:4]))
	cols = int(binary.LittleEndian.Uint32(raw[4:8]))
	body := raw[8:]
	if len(body) != rows*cols*2 {
		return 0, 0, nil, false
	}
	pix = make([]int16, rows*cols)
	for i := range pix {
		pix[i] = int16(binary.LittleEndian.Uint16(body[2*i:]))
	}
	return rows, cols, pix, true
}

// Put stores a plane. Planes larger than the cache's entry limit are
// silently skipped.
func (c *Cache) Put(ns string, file, page, rows, cols int, pix []int16) error {
	raw := make([]byte, 8+2*len(pix))
	binary.LittleEndian.PutUint32(raw[0:4], uint32(rows))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(cols))
	for i, v := range pix {
		binary.LittleEndian.PutUint16(raw[8+2*i:], uint16(v))
	}
	err := c.c.Set(key(ns, file, page), raw, 0)
	if errors.Is(err, freecache.ErrLargeEntry) {
		return nil
	}
	return err
}

// Stats reports hit and miss counters and the number of live entries.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

func (c *Cache) Stats() Stats {
	return Stats{Hits: c.c.HitCount(), Misses: c.c.MissCount(), Entries: c.c.EntryCount()}
}

func (c *Cache) Clear() {
	c.c.Clear()
}
