package block

import (
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
)

// intWord is the generics constraint spec.md's "generics expansion
// balances conciseness gains" note anticipates: the 32-bit and 64-bit
// integer domains share every byte of decode logic down to the
// decode-function signature, differing only in the width of the
// decoded word.
type intWord interface {
	uint32 | uint64
}

// decodeFunc matches codec.IntCodec's Decode32/Decode64 method value
// shape, letting IntPForDecoder stay width-agnostic: its caller binds
// T by passing either c.Decode32 or c.Decode64.
type decodeFunc[T intWord] func(data []byte, out []T) ([]T, error)

// IntPForDecoder implements spec.md §4.C's DELTA_PFOR and
// GENERIC_PFOR integer blocks, parameterized over the column's
// declared word width. Both packings share this decoder; the
// difference is whether ReadSubblock applies the inverse prefix sum
// after decoding a subblock's payload. Grounded on
// original_source/accessor/accessorint.cpp's StoredBlock_Int_PFOR_T,
// which likewise shares one m_pCodec instance between the header's
// cumulative-size vector and every subblock's value payload.
type IntPForDecoder[T intWord] struct {
	decode decodeFunc[T]
	delta  bool

	cumulative []uint64 // per-subblock cumulative payload byte size
	base       int64

	loadedSubblock int
	values         []T
}

// NewIntPForDecoder32 binds a decoder to c's 32-bit decode path.
func NewIntPForDecoder32(c codec.IntCodec, delta bool) *IntPForDecoder[uint32] {
	return &IntPForDecoder[uint32]{decode: c.Decode32, delta: delta, loadedSubblock: -1}
}

// NewIntPForDecoder64 binds a decoder to c's 64-bit decode path.
func NewIntPForDecoder64(c codec.IntCodec, delta bool) *IntPForDecoder[uint64] {
	return &IntPForDecoder[uint64]{decode: c.Decode64, delta: delta, loadedSubblock: -1}
}

// SetDelta reconfigures the decoder for DELTA_PFOR (true) or
// GENERIC_PFOR (false) semantics, letting a single instance serve
// successive blocks of either packing. Must be called before
// ReadHeader for the new block.
func (d *IntPForDecoder[T]) SetDelta(delta bool) { d.delta = delta }

// ReadHeader reads the subblock count and the delta-PFOR-coded vector
// of cumulative per-subblock payload sizes.
func (d *IntPForDecoder[T]) ReadHeader(r *ioreader.Reader) error {
	n, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	raw, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	cum, err := codec.DecodeDeltaVector(raw)
	if err != nil {
		return err
	}
	if uint64(len(cum)) != n {
		return colexerr.Corruptf("block.IntPForDecoder.ReadHeader", "cumulative-size vector length %d != declared %d", len(cum), n)
	}
	d.cumulative = cum
	d.base = r.Pos()
	d.loadedSubblock = -1
	return nil
}

// ReadSubblock decodes subblock id's value payload, applying the
// inverse prefix sum when d.delta is set. A repeat call for the same
// id is a no-op.
func (d *IntPForDecoder[T]) ReadSubblock(id int, r *ioreader.Reader) error {
	if d.loadedSubblock == id {
		return nil
	}
	var start uint64
	if id > 0 {
		start = d.cumulative[id-1]
	}
	end := d.cumulative[id]
	r.Seek(d.base + int64(start))
	b, _, err := r.ReadInto(int(end - start))
	if err != nil {
		return err
	}
	values, err := d.decode(b, d.values[:0])
	if err != nil {
		return err
	}
	if d.delta {
		inverseDeltaInPlace(values)
	}
	d.values = values
	d.loadedSubblock = id
	return nil
}

// Value returns the in-subblock value at index i of the loaded
// subblock.
func (d *IntPForDecoder[T]) Value(i int) T { return d.values[i] }

// Values returns the loaded subblock's decoded values directly, used
// by the block analyzer's PFOR specialization to scan without a
// per-index call.
func (d *IntPForDecoder[T]) Values() []T { return d.values }

func inverseDeltaInPlace[T intWord](values []T) {
	for i := 1; i < len(values); i++ {
		values[i] += values[i-1]
	}
}

// EncodeIntPForBlock32/64 build the bytes an IntPForDecoder[uint32] /
// IntPForDecoder[uint64] expect from a list of already-chunked
// subblocks (each ≤ SubblockSize values). When delta is true, each
// subblock's values are assumed sorted ascending and are delta-coded
// before being handed to c.

func EncodeIntPForBlock32(c codec.IntCodec, delta bool, subblocks [][]uint32) []byte {
	return encodeIntPForBlock(delta, subblocks, c.Encode32)
}

func EncodeIntPForBlock64(c codec.IntCodec, delta bool, subblocks [][]uint64) []byte {
	return encodeIntPForBlock(delta, subblocks, c.Encode64)
}

func encodeIntPForBlock[T intWord](delta bool, subblocks [][]T, encode func([]T) []byte) []byte {
	var w byteWriter
	w.uvarint(uint64(len(subblocks)))

	payloads := make([][]byte, len(subblocks))
	cumulative := make([]uint64, len(subblocks))
	var total uint64
	for i, sb := range subblocks {
		enc := sb
		if delta {
			enc = make([]T, len(sb))
			copy(enc, sb)
			for j := len(enc) - 1; j > 0; j-- {
				enc[j] -= enc[j-1]
			}
		}
		payloads[i] = encode(enc)
		total += uint64(len(payloads[i]))
		cumulative[i] = total
	}
	w.varBytes(codec.EncodeDeltaVector(cumulative))
	for _, p := range payloads {
		w.raw(p)
	}
	return w.bytes()
}
