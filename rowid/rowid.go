// Package rowid implements spec.md §4.F's row-id iterator: the three
// posting-list packings a secondary index's sorted-value scan
// produces (ROW, ROW_BLOCK, ROW_BLOCKS_LIST), each readable through
// the same hint/next-block/count-processed contract. Grounded on
// zdx/finder.go's hierarchical lookup shape (one small struct per
// open posting list, sequential decode-then-scan) generalized from
// zdx's single-level key/value pairs to this module's three-packing,
// optionally-ranged row-id streams.
package rowid

import (
	"fmt"

	roaring "github.com/RoaringBitmap/roaring/v2"

	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
)

// Packing selects which of the three posting-list shapes a stream
// uses.
type Packing uint8

const (
	Row           Packing = iota // a single row id
	RowBlock                     // one sorted delta-PFOR-coded run
	RowBlocksList                // K independently-ranged delta-PFOR runs
)

// Range restricts an Iterator to row ids in [Min, Max], per spec.md
// §4.F's optional RowidRange.
type Range struct {
	Min, Max int64
}

func (rg *Range) overlaps(min, max int64) bool {
	return rg == nil || (min <= rg.Max && rg.Min <= max)
}

func (rg *Range) contains(v int64) bool {
	return rg == nil || (v >= rg.Min && v <= rg.Max)
}

// Iterator reads one posting list, yielding row ids in ascending
// order through NextBlock. Not safe for concurrent use.
type Iterator struct {
	r       *ioreader.Reader
	packing Packing
	rng     *Range

	processed int64

	// Row
	single     int64
	singleDone bool

	// RowBlock
	blockValues []int64
	blockPos    int

	// RowBlocksList
	mins, maxs  []int64
	cumSizes    []uint64
	payloadBase int64
	matching    []uint32 // ascending block ids overlapping rng
	matchPos    int
	curValues   []int64
	curPos      int

	warning string
}

// Warning returns a non-fatal decode hiccup noticed since the
// iterator was opened, or "" if none occurred, per spec.md §7's
// warning-accessor contract ("non-fatal decode hiccup... via a warning
// accessor").
func (it *Iterator) Warning() string { return it.warning }

// Open reads a posting-list header from r at its current position and
// returns an Iterator scoped to rng (nil for no restriction).
func Open(r *ioreader.Reader, rng *Range) (*Iterator, error) {
	tag, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	it := &Iterator{r: r, packing: Packing(tag), rng: rng}
	switch it.packing {
	case Row:
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		it.single = v
		return it, nil
	case RowBlock:
		raw, err := r.ReadVarBytes()
		if err != nil {
			return nil, err
		}
		deltas, err := codec.DecodeDeltaVector(raw)
		if err != nil {
			return nil, err
		}
		it.blockValues = make([]int64, len(deltas))
		for i, v := range deltas {
			it.blockValues[i] = int64(v)
		}
		return it, nil
	case RowBlocksList:
		return openRowBlocksList(r, it)
	default:
		return nil, colexerr.Corruptf("rowid.Open", "unknown row-id packing tag %d", tag)
	}
}

func openRowBlocksList(r *ioreader.Reader, it *Iterator) (*Iterator, error) {
	k, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	minmaxRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	minmax, err := codec.DecodeDeltaVector(minmaxRaw)
	if err != nil {
		return nil, err
	}
	if uint64(len(minmax)) != 2*k {
		return nil, colexerr.Corruptf("rowid.Open", "min-max vector has %d entries, want %d", len(minmax), 2*k)
	}
	it.mins = make([]int64, k)
	it.maxs = make([]int64, k)
	for i := uint64(0); i < k; i++ {
		it.mins[i] = int64(minmax[2*i])
		it.maxs[i] = int64(minmax[2*i+1])
	}

	sizesRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	sizes, err := codec.DecodeDeltaVector(sizesRaw)
	if err != nil {
		return nil, err
	}
	if uint64(len(sizes)) != k {
		return nil, colexerr.Corruptf("rowid.Open", "cumulative-size vector has %d entries, want %d", len(sizes), k)
	}
	it.cumSizes = sizes
	it.payloadBase = r.Pos()

	bm := roaring.New()
	for i := uint64(0); i < k; i++ {
		if it.rng.overlaps(it.mins[i], it.maxs[i]) {
			bm.Add(uint32(i))
		}
	}
	matchIt := bm.Iterator()
	for matchIt.HasNext() {
		it.matching = append(it.matching, matchIt.Next())
	}
	return it, nil
}

// Hint advises the iterator that rowID is the next value of interest,
// letting it skip ahead. For RowBlocksList this is a real binary
// search into the matching-block min-max table, narrowing matchPos
// before the next NextBlock call; for Row and RowBlock it is a no-op,
// since both are already small enough that a hint buys nothing.
func (it *Iterator) Hint(rowID int64) {
	if it.packing != RowBlocksList {
		return
	}
	lo, hi := it.matchPos, len(it.matching)
	for lo < hi {
		mid := (lo + hi) / 2
		if it.maxs[it.matching[mid]] < rowID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo > it.matchPos {
		it.matchPos = lo
		it.curValues = nil
		it.curPos = 0
	}
}

// NextBlock fills out with up to len(out) ascending row ids and
// reports whether the iterator has more to give. A decoded run larger
// than len(out) is chunked across successive calls rather than
// requiring the caller to size out to the largest possible run.
func (it *Iterator) NextBlock(out []int64) (n int, more bool, err error) {
	switch it.packing {
	case Row:
		return it.nextRow(out)
	case RowBlock:
		return it.nextRowBlock(out)
	case RowBlocksList:
		return it.nextRowBlocksList(out)
	default:
		return 0, false, colexerr.Corrupt("rowid.Iterator.NextBlock", nil)
	}
}

func (it *Iterator) nextRow(out []int64) (int, bool, error) {
	if it.singleDone {
		return 0, false, nil
	}
	if len(out) == 0 {
		return 0, true, nil
	}
	it.singleDone = true
	if !it.rng.contains(it.single) {
		return 0, false, nil
	}
	out[0] = it.single
	it.processed++
	return 1, false, nil
}

func (it *Iterator) nextRowBlock(out []int64) (int, bool, error) {
	n := 0
	for n < len(out) && it.blockPos < len(it.blockValues) {
		v := it.blockValues[it.blockPos]
		it.blockPos++
		if it.rng.contains(v) {
			out[n] = v
			n++
		}
	}
	it.processed += int64(n)
	return n, it.blockPos < len(it.blockValues), nil
}

func (it *Iterator) nextRowBlocksList(out []int64) (int, bool, error) {
	n := 0
	for n < len(out) {
		if it.curValues == nil || it.curPos >= len(it.curValues) {
			if it.matchPos >= len(it.matching) {
				break
			}
			blockID := it.matching[it.matchPos]
			it.matchPos++
			values, err := it.decodeListBlock(blockID)
			if err != nil {
				return 0, false, err
			}
			it.curValues = values
			it.curPos = 0
		}
		v := it.curValues[it.curPos]
		it.curPos++
		if it.rng.contains(v) {
			out[n] = v
			n++
		}
	}
	it.processed += int64(n)
	more := it.matchPos < len(it.matching) || it.curPos < len(it.curValues)
	return n, more, nil
}

func (it *Iterator) decodeListBlock(blockID uint32) ([]int64, error) {
	var start uint64
	if blockID > 0 {
		start = it.cumSizes[blockID-1]
	}
	end := it.cumSizes[blockID]
	it.r.Seek(it.payloadBase + int64(start))
	raw, _, err := it.r.ReadInto(int(end - start))
	if err != nil {
		return nil, err
	}
	deltas, err := codec.DecodeDeltaVector(raw)
	if err != nil {
		return nil, err
	}
	values := make([]int64, len(deltas))
	for i, v := range deltas {
		values[i] = int64(v)
	}
	if len(values) > 0 && (values[0] != it.mins[blockID] || values[len(values)-1] != it.maxs[blockID]) {
		it.warning = fmt.Sprintf(
			"rowid.Iterator: block %d decoded bounds [%d,%d] disagree with recorded min/max [%d,%d]",
			blockID, values[0], values[len(values)-1], it.mins[blockID], it.maxs[blockID])
	}
	return values, nil
}

// CountProcessed returns the number of row ids NextBlock has emitted
// so far, per spec.md §4.F's count_processed.
func (it *Iterator) CountProcessed() int64 { return it.processed }

// EncodeRow builds a Row-packed posting list holding a single row id.
func EncodeRow(value int64) []byte {
	var w byteWriter
	w.uvarint(uint64(Row))
	w.uvarint(uint64(value))
	return w.bytes()
}

// EncodeRowBlock builds a RowBlock-packed posting list: values must be
// sorted ascending.
func EncodeRowBlock(values []int64) []byte {
	deltas := make([]uint64, len(values))
	for i, v := range values {
		deltas[i] = uint64(v)
	}
	var w byteWriter
	w.uvarint(uint64(RowBlock))
	w.varBytes(codec.EncodeDeltaVector(deltas))
	return w.bytes()
}

// EncodeRowBlocksList builds a RowBlocksList-packed posting list from
// K independently-sorted runs; each run's min/max is derived from its
// first/last element.
func EncodeRowBlocksList(blocks [][]int64) []byte {
	minmax := make([]uint64, 0, 2*len(blocks))
	sizes := make([]uint64, len(blocks))
	var payload []byte
	for i, b := range blocks {
		minmax = append(minmax, uint64(b[0]), uint64(b[len(b)-1]))
		deltas := make([]uint64, len(b))
		for j, v := range b {
			deltas[j] = uint64(v)
		}
		enc := codec.EncodeDeltaVector(deltas)
		payload = append(payload, enc...)
		sizes[i] = uint64(len(payload))
	}
	var w byteWriter
	w.uvarint(uint64(RowBlocksList))
	w.uvarint(uint64(len(blocks)))
	w.varBytes(codec.EncodeDeltaVector(minmax))
	w.varBytes(codec.EncodeDeltaVector(sizes))
	w.raw(payload)
	return w.bytes()
}
