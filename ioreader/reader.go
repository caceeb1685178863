// Package ioreader implements the buffered, positional, little-endian
// file reader used by every block and index decoder in this module.
//
// It is the direct descendant of zed's pkg/peeker, generalized from a
// streaming io.Reader to a seekable io.ReaderAt (block decoders jump
// around a segment file rather than consume it front to back) and
// extended with the fixed-width and varint primitives the on-disk
// formats in this module need.
package ioreader

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	// ErrBufferOverflow is returned when a single read would need a
	// buffer larger than the configured limit.
	ErrBufferOverflow = errors.New("ioreader: read exceeds buffer limit")
	// ErrTruncated is returned when the underlying source has fewer
	// bytes than requested and is not simply at EOF mid-varint.
	ErrTruncated = errors.New("ioreader: truncated read")
	// ErrVarintOverflow is returned by ReadUvarint when the encoded
	// value does not fit in 64 bits within the 10-byte LEB128 limit.
	ErrVarintOverflow = errors.New("ioreader: varint overflows 64 bits")
)

// DefaultMetaBufSize and DefaultBlockBufSize match spec.md §4.A's
// "typical values": small readers over metadata, larger ones over
// block payloads.
const (
	DefaultMetaBufSize  = 256
	DefaultBlockBufSize = 1024
)

// Reader is a single-threaded cursor over an io.ReaderAt. It owns its
// buffer; once an error occurs it becomes sticky and every subsequent
// read returns it without touching the source again.
type Reader struct {
	src   io.ReaderAt
	limit int

	buf   []byte // backing storage, len(buf) is the live window size
	start int64  // absolute offset of buf[0]
	fill  int    // valid byte count within buf

	pos int64 // logical read position, advances on every Read*

	err error
}

// New returns a Reader over src with an initial buffer of size bufSize
// that may grow (by re-allocation) up to limit bytes for a single read.
func New(src io.ReaderAt, bufSize, limit int) *Reader {
	if bufSize > limit {
		bufSize = limit
	}
	return &Reader{
		src:   src,
		limit: limit,
		buf:   make([]byte, 0, bufSize),
	}
}

// Err returns the sticky error, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) sticky(err error) error {
	if r.err == nil {
		r.err = err
	}
	return r.err
}

// Pos returns the current logical read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Seek repositions the reader. It does not touch the source; the next
// read triggers a refill if pos falls outside the current buffer
// window.
func (r *Reader) Seek(pos int64) {
	if r.err != nil {
		return
	}
	r.pos = pos
}

// buffered reports whether [r.pos, r.pos+n) lies entirely within the
// currently loaded window.
func (r *Reader) buffered(n int) bool {
	return r.pos >= r.start && r.pos+int64(n) <= r.start+int64(r.fill)
}

func (r *Reader) fillAt(pos int64, n int) error {
	size := n
	if size < cap(r.buf) {
		size = cap(r.buf)
	}
	if size > r.limit {
		return r.sticky(ErrBufferOverflow)
	}
	if cap(r.buf) < size {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	nRead, err := r.src.ReadAt(r.buf, pos)
	r.start = pos
	r.fill = nRead
	if nRead < n {
		if err == nil || err == io.EOF {
			if nRead == 0 {
				return r.sticky(io.EOF)
			}
			return r.sticky(ErrTruncated)
		}
		return r.sticky(err)
	}
	return nil
}

// slice returns a borrowed window into r.buf covering the next n bytes
// and advances the logical position. The returned slice is only valid
// until the next call that may refill the buffer.
func (r *Reader) slice(n int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if !r.buffered(n) {
		if err := r.fillAt(r.pos, n); err != nil {
			return nil, err
		}
	}
	off := int(r.pos - r.start)
	b := r.buf[off : off+n]
	r.pos += int64(n)
	return b, nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.slice(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.slice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.slice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.slice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadUvarint reads a LEB128-style unsigned varint: 7 data bits per
// byte, MSB is the continuation flag.
func (r *Reader) ReadUvarint() (uint64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var v uint64
	for shift := 0; shift < 64; shift += 7 {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		if shift == 63 && b >= 2 {
			return 0, r.sticky(ErrVarintOverflow)
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, r.sticky(ErrVarintOverflow)
}

// ReadVarint reads an unsigned varint and casts it to int64; used for
// fields spec.md documents as "varint" without an explicit signedness
// (table deltas, lengths) where negative values cannot occur.
func (r *Reader) ReadVarint() (int64, error) {
	v, err := r.ReadUvarint()
	return int64(v), err
}

// ReadFull copies exactly len(b) bytes into the caller's buffer. Use
// this (rather than ReadInto) when the caller needs to retain the data
// past the next Reader call.
func (r *Reader) ReadFull(b []byte) error {
	s, err := r.slice(len(b))
	if err != nil {
		return err
	}
	copy(b, s)
	return nil
}

// ReadVarBytes reads a varint length followed by that many raw bytes,
// copying into a freshly allocated slice. Used for CONST bodies and
// other one-shot reads where no zero-copy fast path applies.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := r.ReadFull(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInto returns a slice covering the next n bytes at the reader's
// current position. When n fits in the buffer window (refilling the
// window at the current position if it does not already hold the
// bytes) it returns a borrow directly into that window (ok==true) with
// zero copies; the borrow is invalidated by the next call into the
// Reader. A request larger than the buffer allocates and fills an
// owned copy (ok==false).
func (r *Reader) ReadInto(n int) (b []byte, ok bool, err error) {
	if r.err != nil {
		return nil, false, r.err
	}
	if !r.buffered(n) && n <= cap(r.buf) {
		if err := r.fillAt(r.pos, n); err != nil {
			return nil, false, err
		}
	}
	if r.buffered(n) {
		off := int(r.pos - r.start)
		b = r.buf[off : off+n]
		r.pos += int64(n)
		return b, true, nil
	}
	owned := make([]byte, n)
	if err := r.ReadFull(owned); err != nil {
		return nil, false, err
	}
	return owned, false, nil
}

// ReadAtInto reads n bytes starting at absolute position pos without
// disturbing the logical sequential cursor semantics beyond leaving
// pos+n as the new position; equivalent to Seek(pos) followed by
// ReadInto(n).
func (r *Reader) ReadAtInto(pos int64, n int) (b []byte, ok bool, err error) {
	r.Seek(pos)
	return r.ReadInto(n)
}
