// Package pgm implements spec.md §4.G's learned-index query contract:
// given a key, return an ApproxPos{lo, pos, hi} guaranteed to bracket
// the key's true position in a column's sorted-values area. spec.md
// places the index's construction out of scope ("we specify only the
// query surface: approximate position from key"); this package
// therefore exposes a segment-table Index that can load an
// already-built blob (secondary.Open decompresses it with zstd before
// handing the bytes here), plus a reference Build used only by this
// module's own test fixtures, grounded on the PGM-index paper's
// greedy piecewise-linear-approximation construction (the "shrinking
// cone" algorithm): walk the sorted keys once, growing a segment's
// slope interval while every point seen so far stays within epsilon
// of some line in that interval, and starting a new segment the
// moment no such line exists.
package pgm

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/colstride/colex/colexerr"
)

// ApproxPos is the PGM's answer to a key lookup: for a key present in
// the indexed array, at least one of its positions is guaranteed to
// lie in the closed interval [Lo, Hi] (a repeated key's other
// positions may fall outside it); Pos is the best single guess.
type ApproxPos struct {
	Lo, Pos, Hi int64
}

// Oracle is the query surface spec.md §4.G describes: search(key) ->
// ApproxPos.
type Oracle interface {
	Search(key uint64) ApproxPos
}

type segment struct {
	key       uint64
	slope     float64
	intercept float64
}

// Index is a loaded (or built) PGM over one column's sorted key
// domain.
type Index struct {
	epsilon  int64
	n        int64 // size of the sorted array this index positions into
	segments []segment
}

// Search implements Oracle.
func (idx *Index) Search(key uint64) ApproxPos {
	if len(idx.segments) == 0 {
		return ApproxPos{0, 0, idx.n - 1}
	}
	i := sort.Search(len(idx.segments), func(i int) bool { return idx.segments[i].key > key }) - 1
	if i < 0 {
		i = 0
	}
	seg := idx.segments[i]
	pos := int64(seg.intercept + seg.slope*(float64(key)-float64(seg.key)))

	lo := pos - idx.epsilon
	hi := pos + idx.epsilon
	if lo < 0 {
		lo = 0
	}
	if hi > idx.n-1 {
		hi = idx.n - 1
	}
	if idx.n == 0 {
		lo, hi = 0, 0
	}
	if pos < lo {
		pos = lo
	}
	if pos > hi {
		pos = hi
	}
	return ApproxPos{Lo: lo, Pos: pos, Hi: hi}
}

// Build constructs a reference Index over keys (sorted ascending,
// duplicates allowed) with the given error bound. Used only by this
// module's test fixtures — the real write side is out of scope per
// spec.md §1.
func Build(keys []uint64, epsilon int64) *Index {
	idx := &Index{epsilon: epsilon, n: int64(len(keys))}
	n := len(keys)
	i := 0
	for i < n {
		x0 := float64(keys[i])
		y0 := float64(i)
		minSlope := math.Inf(-1)
		maxSlope := math.Inf(1)
		j := i + 1
		for ; j < n; j++ {
			dx := float64(keys[j]) - x0
			dy := float64(j) - y0
			if dx == 0 {
				continue // duplicate of the segment's first key: Search predicts y0, its first position, whatever the slope
			}
			lowSlope := (dy - float64(epsilon)) / dx
			highSlope := (dy + float64(epsilon)) / dx
			newMin := math.Max(minSlope, lowSlope)
			newMax := math.Min(maxSlope, highSlope)
			if newMin > newMax {
				break
			}
			minSlope, maxSlope = newMin, newMax
		}
		slope := chooseSlope(minSlope, maxSlope)
		idx.segments = append(idx.segments, segment{key: keys[i], slope: slope, intercept: y0})
		i = j
	}
	return idx
}

func chooseSlope(min, max float64) float64 {
	switch {
	case math.IsInf(min, -1) && math.IsInf(max, 1):
		return 0
	case math.IsInf(min, -1):
		return max
	case math.IsInf(max, 1):
		return min
	default:
		return (min + max) / 2
	}
}

// Encode serializes idx as: uvarint epsilon, uvarint n, uvarint
// segment count, then per segment a uvarint key delta (from the
// previous segment's key, 0 for the first) followed by slope and
// intercept as little-endian float64 bits. This is the raw,
// already-decompressed form secondary.Open hands to Load after
// stripping the zstd framing spec.md §6's pgm_blob carries.
func (idx *Index) Encode() []byte {
	var buf []byte
	buf = appendUvarint(buf, uint64(idx.epsilon))
	buf = appendUvarint(buf, uint64(idx.n))
	buf = appendUvarint(buf, uint64(len(idx.segments)))
	var prevKey uint64
	for _, s := range idx.segments {
		buf = appendUvarint(buf, s.key-prevKey)
		prevKey = s.key
		var b [16]byte
		binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(s.slope))
		binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(s.intercept))
		buf = append(buf, b[:]...)
	}
	return buf
}

// Load deserializes an Index from Encode's wire format.
func Load(data []byte) (*Index, error) {
	epsilon, data, err := readUvarint(data)
	if err != nil {
		return nil, err
	}
	n, data, err := readUvarint(data)
	if err != nil {
		return nil, err
	}
	count, data, err := readUvarint(data)
	if err != nil {
		return nil, err
	}
	idx := &Index{epsilon: int64(epsilon), n: int64(n), segments: make([]segment, count)}
	var prevKey uint64
	for i := uint64(0); i < count; i++ {
		delta, rest, err := readUvarint(data)
		if err != nil {
			return nil, err
		}
		data = rest
		if len(data) < 16 {
			return nil, colexerr.Corrupt("pgm.Load", nil)
		}
		key := prevKey + delta
		prevKey = key
		slope := math.Float64frombits(binary.LittleEndian.Uint64(data[0:8]))
		intercept := math.Float64frombits(binary.LittleEndian.Uint64(data[8:16]))
		data = data[16:]
		idx.segments[i] = segment{key: key, slope: slope, intercept: intercept}
	}
	return idx, nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func readUvarint(data []byte) (uint64, []byte, error) {
	var v uint64
	for shift := 0; shift < 64; shift += 7 {
		if len(data) == 0 {
			return 0, nil, colexerr.Corrupt("pgm.readUvarint", nil)
		}
		b := data[0]
		data = data[1:]
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, data, nil
		}
	}
	return 0, nil, colexerr.Corrupt("pgm.readUvarint", nil)
}
