package blockcache

import (
	"io"

	"github.com/colstride/colex/column"
)

// ReaderAt wraps an io.ReaderAt, serving reads that fall entirely
// within one non-final block of header from cache: the first read
// touching a block pulls the whole block's bytes once and caches them
// under Key{segmentID, blockID}, after which every subsequent read
// into that block (from any concurrently scanning iterator sharing
// cache) is served from memory. Reads into the final block, or reads
// spanning a block boundary, pass straight through uncached, since
// this module's column.Header does not record the final block's
// length (only its start offset) and a read spanning two blocks is
// not a cacheable unit.
type ReaderAt struct {
	src       io.ReaderAt
	cache     *Cache
	segmentID string
	header    *column.Header
}

// NewReaderAt builds a caching wrapper over src. segmentID is the
// stable cache-key identity for this particular segment file.
func NewReaderAt(src io.ReaderAt, cache *Cache, segmentID string, header *column.Header) *ReaderAt {
	return &ReaderAt{src: src, cache: cache, segmentID: segmentID, header: header}
}

func (r *ReaderAt) blockRange(off int64, n int64) (block int, start, end int64, ok bool) {
	h := r.header
	if h.BlockCount < 2 {
		return 0, 0, 0, false
	}
	b := h.OffsetToBlock(off)
	if b >= h.BlockCount-1 {
		return 0, 0, 0, false // final block: unknown length, no caching
	}
	blockStart := h.BlockOffset(b)
	blockEnd := h.BlockOffset(b + 1)
	if off+n > blockEnd {
		return 0, 0, 0, false // spans past this block's end
	}
	return b, blockStart, blockEnd, true
}

// ReadAt implements io.ReaderAt, transparently caching whole-block
// reads per the type doc.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	block, start, end, ok := r.blockRange(off, int64(len(p)))
	if !ok {
		return r.src.ReadAt(p, off)
	}
	key := Key{Segment: r.segmentID, Block: block}
	data, hit := r.cache.Get(key)
	if !hit {
		buf := make([]byte, end-start)
		if _, err := r.src.ReadAt(buf, start); err != nil {
			return 0, err
		}
		r.cache.Add(key, buf)
		data = buf
	}
	n := copy(p, data[off-start:])
	return n, nil
}
