package block

import "encoding/binary"

// byteWriter is the write-side counterpart to ioreader.Reader: a
// growable byte buffer with the same LE-fixed-width/LEB128-varint
// primitives, used by this package's Encode* fixture builders. Decoding never
// imports it — spec.md §4.B: "the inverse BitPack128 is used by
// writers but not the read core."
type byteWriter struct {
	buf []byte
}

func (w *byteWriter) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *byteWriter) raw(b []byte) { w.buf = append(w.buf, b...) }

func (w *byteWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.raw(b[:])
}

func (w *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.raw(b[:])
}

func (w *byteWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.raw(b[:])
}

func (w *byteWriter) uvarint(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

func (w *byteWriter) varBytes(b []byte) {
	w.uvarint(uint64(len(b)))
	w.raw(b)
}

func (w *byteWriter) bytes() []byte { return w.buf }
