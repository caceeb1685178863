package codec

import "encoding/binary"

// copyCodec is original_source/util/codec.cpp's "copy" entry
// (FastPForLib::JustCopy): fixed-width little-endian, no compression.
// Useful as a fallback when a column's values don't compress well
// enough to justify PFOR's header, and as a zero-surprise codec for
// tests.
type copyCodec struct{}

func newCopyCodec() IntCodec { return copyCodec{} }

func (copyCodec) Name() string { return "copy" }

func (copyCodec) Encode32(values []uint32) []byte {
	out := make([]byte, 4+4*len(values))
	binary.LittleEndian.PutUint32(out, uint32(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4+4*i:], v)
	}
	return out
}

func (copyCodec) Decode32(data []byte, out []uint32) ([]uint32, error) {
	if len(data) < 4 {
		return nil, ErrShortBuffer
	}
	n := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+4*n {
		return nil, ErrShortBuffer
	}
	out = growU32(out, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[4+4*i:])
	}
	return out, nil
}

func (copyCodec) Encode64(values []uint64) []byte {
	out := make([]byte, 4+8*len(values))
	binary.LittleEndian.PutUint32(out, uint32(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[4+8*i:], v)
	}
	return out
}

func (copyCodec) Decode64(data []byte, out []uint64) ([]uint64, error) {
	if len(data) < 4 {
		return nil, ErrShortBuffer
	}
	n := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+8*n {
		return nil, ErrShortBuffer
	}
	out = growU64(out, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(data[4+8*i:])
	}
	return out, nil
}
