package codec

// varintCodec is the "varint" entry from original_source/util/codec.cpp's
// CreateIntCodec table (FastPForLib::VariableByte): each value is
// stored as a standalone LEB128 varint, no frame-of-reference or
// bit-packing. Used as a correctness baseline and for small/irregular
// arrays where PFOR's header overhead isn't worth it.
type varintCodec struct{}

func newVarintCodec() IntCodec { return varintCodec{} }

func (varintCodec) Name() string { return "varint" }

func (varintCodec) Encode32(values []uint32) []byte {
	w := newBitWriter()
	w.uvarint(uint64(len(values)))
	for _, v := range values {
		w.uvarint(uint64(v))
	}
	return w.bytes()
}

func (varintCodec) Decode32(data []byte, out []uint32) ([]uint32, error) {
	r := newBitReader(data)
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out = growU32(out, int(n))
	for i := range out {
		v, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func (varintCodec) Encode64(values []uint64) []byte {
	w := newBitWriter()
	w.uvarint(uint64(len(values)))
	for _, v := range values {
		w.uvarint(v)
	}
	return w.bytes()
}

func (varintCodec) Decode64(data []byte, out []uint64) ([]uint64, error) {
	r := newBitReader(data)
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	out = growU64(out, int(n))
	for i := range out {
		v, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
