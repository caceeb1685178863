package secondary

import "encoding/binary"

// headerWriter mirrors block.byteWriter: a growable buffer with the
// LE-fixed-width/LEB128-varint primitives used by this package's
// Encode* fixture builders. Decoding never imports it.
type headerWriter struct {
	buf []byte
}

func (w *headerWriter) raw(b []byte) { w.buf = append(w.buf, b...) }

func (w *headerWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.raw(b[:])
}

func (w *headerWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.raw(b[:])
}

func (w *headerWriter) uvarint(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

func (w *headerWriter) varBytes(b []byte) {
	w.uvarint(uint64(len(b)))
	w.raw(b)
}

func (w *headerWriter) varString(s string) { w.varBytes([]byte(s)) }

func (w *headerWriter) bytes() []byte { return w.buf }
