package codec

import "math/bits"

// uintType constrains the two concrete widths IntCodec needs.
type uintType interface {
	uint32 | uint64
}

// pforCodec implements a frame-of-reference + bit-packed-residual +
// exception-list codec, the same shape as the FastPFOR family
// original_source/util/codec.cpp registers under names like
// "fastpfor128"/"simplepfor", and the header/bitWidth/exceptions
// framing other_examples/Akron-fastpfor-go__reader_slim.go uses for its
// block layout. The exact bit layout here is this module's own (spec.md
// leaves the codec's byte format to the plugin), chosen for a simple,
// always-correct Go implementation rather than a SIMD-tuned one.
type pforCodec struct{}

func newPFORCodec() IntCodec { return pforCodec{} }

func (pforCodec) Name() string { return "pfor" }

func (pforCodec) Encode32(values []uint32) []byte {
	u := make([]uint64, len(values))
	for i, v := range values {
		u[i] = uint64(v)
	}
	return encodePFOR(u)
}

func (pforCodec) Decode32(data []byte, out []uint32) ([]uint32, error) {
	u, err := decodePFOR(data)
	if err != nil {
		return nil, err
	}
	out = growU32(out, len(u))
	for i, v := range u {
		out[i] = uint32(v)
	}
	return out, nil
}

func (pforCodec) Encode64(values []uint64) []byte {
	return encodePFOR(values)
}

func (pforCodec) Decode64(data []byte, out []uint64) ([]uint64, error) {
	u, err := decodePFOR(data)
	if err != nil {
		return nil, err
	}
	out = growU64(out, len(u))
	copy(out, u)
	return out, nil
}

func growU32(out []uint32, n int) []uint32 {
	if cap(out) < n {
		return make([]uint32, n)
	}
	return out[:n]
}

func growU64(out []uint64, n int) []uint64 {
	if cap(out) < n {
		return make([]uint64, n)
	}
	return out[:n]
}

// exceptionBudget bounds how many of n values may overflow the chosen
// bit width before falling back to the exception list; spec.md's own
// writer heuristic for the string null-map ("empties exceed ~1/8")
// uses the same fraction, reused here for consistency.
func exceptionBudget(n int) int {
	b := n / 8
	if b < 1 {
		b = 1
	}
	return b
}

func encodePFOR(values []uint64) []byte {
	n := len(values)
	w := newBitWriter()
	w.uvarint(uint64(n))
	if n == 0 {
		return w.bytes()
	}

	base := values[0]
	for _, v := range values {
		if v < base {
			base = v
		}
	}
	deltas := make([]uint64, n)
	for i, v := range values {
		deltas[i] = v - base
	}

	widths := make([]int, n)
	for i, d := range deltas {
		widths[i] = bitLen64(d)
	}
	sorted := append([]int(nil), widths...)
	sortInts(sorted)
	budget := exceptionBudget(n)
	idx := n - 1 - budget
	if idx < 0 {
		idx = 0
	}
	chosenBits := sorted[idx]
	if chosenBits > 64 {
		chosenBits = 64
	}

	var exceptionIdx []int
	packed := make([]uint64, n)
	for i, d := range deltas {
		if widths[i] > chosenBits {
			exceptionIdx = append(exceptionIdx, i)
			packed[i] = 0
		} else {
			packed[i] = d
		}
	}

	w.uvarint(base)
	w.byte(byte(chosenBits))
	w.uvarint(uint64(len(exceptionIdx)))
	prev := 0
	for _, i := range exceptionIdx {
		w.uvarint(uint64(i - prev))
		prev = i
		w.uvarint(deltas[i])
	}
	w.raw(packBits(packed, chosenBits))
	return w.bytes()
}

func decodePFOR(data []byte) ([]uint64, error) {
	r := newBitReader(data)
	n64, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	n := int(n64)
	if n == 0 {
		return nil, nil
	}
	base, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	bitsByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	chosenBits := int(bitsByte)
	numExc, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	type exception struct {
		idx   int
		delta uint64
	}
	exceptions := make([]exception, numExc)
	prev := 0
	for i := range exceptions {
		gap, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		prev += int(gap)
		delta, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		exceptions[i] = exception{idx: prev, delta: delta}
	}
	payload := r.rest()
	deltas, err := unpackBits(payload, n, chosenBits)
	if err != nil {
		return nil, err
	}
	for _, e := range exceptions {
		if e.idx < 0 || e.idx >= n {
			return nil, ErrShortBuffer
		}
		deltas[e.idx] = e.delta
	}
	out := make([]uint64, n)
	for i, d := range deltas {
		out[i] = base + d
	}
	return out, nil
}

func bitLen64(v uint64) int {
	return bits.Len64(v)
}

// sortInts is a tiny insertion sort: widths slices are at most a few
// hundred entries long (one PFOR subblock), so an O(n^2) sort avoids
// pulling in sort.Slice's interface overhead for no measurable benefit.
func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
