package secondary

import (
	"io"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/colexlog"
	"github.com/colstride/colex/filter"
	"github.com/colstride/colex/hashcol"
	"github.com/colstride/colex/ioreader"
	"github.com/colstride/colex/rowid"
)

// Index is an opened secondary index: a decoded Meta plus the
// io.ReaderAt its value blocks live in. Per spec.md §5's resource
// model, a Meta and its PGMs are immutable and safe to share once
// loaded; Index itself hands out a fresh *ioreader.Reader per scan so
// concurrent CreateIterators calls never share reader state.
type Index struct {
	src     io.ReaderAt
	bufSize int
	limit   int

	meta *Meta
	log  *zap.Logger
}

// Option configures optional Open behavior.
type Option func(*Index)

// WithLogger attaches log, used to surface non-fatal decode hiccups
// (rowid.Iterator.Warning) the caller would otherwise have to poll for
// itself. Defaults to colexlog.Nop().
func WithLogger(log *zap.Logger) Option {
	return func(idx *Index) { idx.log = log }
}

// Open reads a secondary index's header and meta block from src.
func Open(src io.ReaderAt, bufSize, limit int, opts ...Option) (*Index, error) {
	r := ioreader.New(src, bufSize, limit)
	m, err := OpenMeta(r)
	if err != nil {
		return nil, err
	}
	idx := &Index{src: src, bufSize: bufSize, limit: limit, meta: m, log: colexlog.Nop()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

func (idx *Index) logWarning(op string, it *rowid.Iterator) {
	if it == nil {
		return
	}
	if w := it.Warning(); w != "" {
		idx.log.Warn(op, zap.String("warning", w))
	}
}

func (idx *Index) newReader() *ioreader.Reader {
	return ioreader.New(idx.src, idx.bufSize, idx.limit)
}

// findAttr resolves a column name to its Attr and position.
func (idx *Index) findAttr(name string) (int, *Attr, error) {
	for i, a := range idx.meta.Attrs {
		if a.Name == name {
			return i, a, nil
		}
	}
	return -1, nil, colexerr.BadArgumentf("secondary.Index", "no such column %q", name)
}

// IsEnabled reports whether col currently has a usable secondary
// index, per spec.md §6's mark_column_updated/is_enabled pair.
func (idx *Index) IsEnabled(col string) (bool, error) {
	i, _, err := idx.findAttr(col)
	if err != nil {
		return false, err
	}
	return idx.meta.Enabled[i], nil
}

// CountDistinct returns col's recorded distinct-value count.
func (idx *Index) CountDistinct(col string) (int64, error) {
	_, a, err := idx.findAttr(col)
	if err != nil {
		return 0, err
	}
	return a.CountDistinct, nil
}

// MarkColumnUpdated disables col's secondary index in memory; a
// caller must still call SaveMeta to persist the change, per spec.md
// §6 ("the host is responsible for the actual write").
func (idx *Index) MarkColumnUpdated(col string) error {
	i, _, err := idx.findAttr(col)
	if err != nil {
		return err
	}
	idx.meta.Enabled[i] = false
	return nil
}

// SaveMeta returns the bytes a host should write back at the file's
// meta offset to persist idx's current Enabled bitset, plus that
// offset. This package has no write access to the underlying
// io.ReaderAt (it is read-only by construction, per spec.md §1
// scoping the write-side packers out), so the actual write is left to
// the caller.
func (idx *Index) SaveMeta() (data []byte, offset int64, err error) {
	r := idx.newReader()
	r.Seek(0)
	if _, err := r.ReadU32(); err != nil {
		return nil, 0, err
	}
	metaOff, err := r.ReadU64()
	if err != nil {
		return nil, 0, err
	}
	return EncodeMetaBlock(idx.meta), int64(metaOff), nil
}

// FixupFilter applies spec.md §4.G's construction-time filter rewrite
// for a named column: equality against a float column becomes a
// closed FloatRange (via filter.NormalizeForFloatColumn), and equality
// against a string column becomes hash equality over the column's
// collation (via filter.HashEqualsFilter), using the fixed FNV-1a-
// family seed hashcol.DefaultSeed.
func (idx *Index) FixupFilter(col string, f filter.Filter, c hashcol.Collation, values [][]byte) (filter.Filter, error) {
	_, a, err := idx.findAttr(col)
	if err != nil {
		return filter.Filter{}, err
	}
	switch a.Domain {
	case KeyFloat:
		return filter.NormalizeForFloatColumn(f), nil
	case KeyString:
		if f.Kind != filter.Values {
			return f, nil
		}
		fn := func(seed uint64, data []byte) uint64 {
			h, _ := hashcol.Hash(c, seed, data)
			return h
		}
		return filter.HashEqualsFilter(values, fn, hashcol.DefaultSeed, f.Exclude), nil
	default:
		return f, nil
	}
}

// blockForKey converts a PGM position into a clamped block index.
func blockForKey(pos int64, valuesPerBlock uint32, blocksCount int) int {
	b := int(pos / int64(valuesPerBlock))
	if b < 0 {
		b = 0
	}
	if b > blocksCount-1 {
		b = blocksCount - 1
	}
	return b
}

// CmpRange reports how block relates to the closed key interval
// [lo, hi]: -1 if block lies entirely below it (keep scanning right),
// 0 if block overlaps it (scan its keys), +1 if block lies entirely
// above it (sorted ascending blocks mean nothing further can match,
// stop).
func CmpRange(block *ValuesBlock, lo, hi uint64) int {
	switch {
	case block.Max() < lo:
		return -1
	case block.Min() > hi:
		return 1
	default:
		return 0
	}
}

func (idx *Index) sweepKeyBounds(a *Attr, f filter.Filter) (lo, hi uint64, closedLo, closedHi bool) {
	switch f.Kind {
	case filter.Range:
		lo, hi = uint64(f.Min), uint64(f.Max)
		if f.LeftUnbounded {
			lo = 0
		}
		if f.RightUnbounded {
			hi = math.MaxUint64
		}
		return lo, hi, f.LeftClosed, f.RightClosed
	case filter.FloatRange:
		lo = uint64(floatSortKey(math.Float32bits(f.FMin)))
		hi = uint64(floatSortKey(math.Float32bits(f.FMax)))
		if f.LeftUnbounded {
			lo = 0
		}
		if f.RightUnbounded {
			hi = math.MaxUint64
		}
		return lo, hi, f.LeftClosed, f.RightClosed
	default:
		return 0, math.MaxUint64, true, true
	}
}

func (a *Attr) valuesAreaHeader(r *ioreader.Reader) (*ValuesAreaHeader, error) {
	r.Seek(a.valuesAreaOffset)
	return OpenValuesAreaHeader(r)
}

func (a *Attr) decodeBlock(r *ioreader.Reader, header *ValuesAreaHeader, blockID int) (*ValuesBlock, error) {
	r.Seek(a.valuesAreaOffset + header.BlockOffset(blockID))
	return DecodeValuesBlock(r)
}

// openPayload opens key i's row-id-iterator payload within block,
// scoped to rng.
func openPayload(r *ioreader.Reader, block *ValuesBlock, i int, rng *rowid.Range) (*rowid.Iterator, error) {
	start, _ := block.PayloadRange(i)
	r.Seek(start)
	return rowid.Open(r, rng)
}

// EstimateNumIterators returns a cost proxy for f against col without
// opening any value blocks, per spec.md §4.G: the PGM's bracket width
// for each distinct key probed, summed.
func (idx *Index) EstimateNumIterators(col string, f filter.Filter) (uint32, error) {
	_, a, err := idx.findAttr(col)
	if err != nil {
		return 0, err
	}
	if a.pgm == nil {
		return 0, nil
	}
	switch f.Kind {
	case filter.Values:
		var total int64
		for _, v := range f.Values {
			pos := a.pgm.Search(v)
			total += pos.Hi - pos.Lo + 1
		}
		return uint32(total), nil
	default:
		lo, hi, _, _ := idx.sweepKeyBounds(a, f)
		loPos := a.pgm.Search(lo)
		hiPos := a.pgm.Search(hi)
		width := hiPos.Hi - loPos.Lo + 1
		if width < 0 {
			width = 0
		}
		return uint32(width), nil
	}
}

// CreateIterators implements spec.md §4.G/§6's
// SecondaryIndex::create_iterators: it returns one rowid.Iterator per
// distinct indexed key matching f on col, each already scoped to
// rowRange (nil for no restriction).
//
// Equality (f.Kind == Values) processes each literal with its own
// *ioreader.Reader, concurrently via golang.org/x/sync/errgroup, per
// spec.md §5's "each literal's scan opens its own reader over
// io.ReaderAt"; literals are looked at in ascending order so the
// reported result preserves a stable, sorted-by-key order. Range and
// FloatRange run a single forward sweep (CmpRange/EvalRange) since
// there is only one interval to scan.
func (idx *Index) CreateIterators(col string, f filter.Filter, rowRange *rowid.Range) ([]*rowid.Iterator, error) {
	_, a, err := idx.findAttr(col)
	if err != nil {
		return nil, err
	}
	if a.pgm == nil || a.blocksCount == 0 {
		return nil, nil
	}

	switch f.Kind {
	case filter.Values:
		return idx.equalityIterators(a, f, rowRange)
	case filter.Range, filter.FloatRange:
		return idx.evalRange(a, f, rowRange)
	default:
		return nil, colexerr.BadArgumentf("secondary.Index.CreateIterators", "unsupported filter kind %v", f.Kind)
	}
}

func (idx *Index) equalityIterators(a *Attr, f filter.Filter, rowRange *rowid.Range) ([]*rowid.Iterator, error) {
	literals := append([]uint64(nil), f.Values...)
	sort.Slice(literals, func(i, j int) bool { return literals[i] < literals[j] })

	out := make([]*rowid.Iterator, len(literals))
	g := new(errgroup.Group)
	for i, key := range literals {
		i, key := i, key
		g.Go(func() error {
			it, err := idx.equalityIterator(a, key, rowRange)
			if err != nil {
				return err
			}
			out[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := out[:0]
	for _, it := range out {
		if it != nil {
			result = append(result, it)
		}
	}
	return result, nil
}

// equalityIterator scans for a single key using its own reader, per
// spec.md §4.G's "PGM -> BlockIter -> binary search within block".
func (idx *Index) equalityIterator(a *Attr, key uint64, rowRange *rowid.Range) (*rowid.Iterator, error) {
	r := idx.newReader()
	header, err := a.valuesAreaHeader(r)
	if err != nil {
		return nil, err
	}
	pos := a.pgm.Search(key)
	start := blockForKey(pos.Lo, idx.meta.ValuesPerBlock, a.blocksCount)
	last := blockForKey(pos.Hi, idx.meta.ValuesPerBlock, a.blocksCount)

	for b := start; b <= last; b++ {
		block, err := a.decodeBlock(r, header, b)
		if err != nil {
			return nil, err
		}
		if block.Min() > key {
			break // sorted ascending: no later block can hold key
		}
		if i, ok := block.Find(key); ok {
			it, err := openPayload(r, block, i, rowRange)
			if err != nil {
				return nil, err
			}
			idx.logWarning("secondary.Index.CreateIterators", it)
			return it, nil
		}
	}
	return nil, nil
}

// evalRange implements the Range/FloatRange sweep: a single BlockIter
// walks forward from the lower bracket's start block, testing each
// block with CmpRange and stopping the instant a block lies entirely
// above the interval.
func (idx *Index) evalRange(a *Attr, f filter.Filter, rowRange *rowid.Range) ([]*rowid.Iterator, error) {
	r := idx.newReader()
	header, err := a.valuesAreaHeader(r)
	if err != nil {
		return nil, err
	}

	lo, hi, closedLo, closedHi := idx.sweepKeyBounds(a, f)
	loPos := a.pgm.Search(lo)
	hiPos := a.pgm.Search(hi)
	start := blockForKey(loPos.Lo, idx.meta.ValuesPerBlock, a.blocksCount)
	last := blockForKey(hiPos.Hi, idx.meta.ValuesPerBlock, a.blocksCount)

	var out []*rowid.Iterator
	for b := start; b <= last; b++ {
		block, err := a.decodeBlock(r, header, b)
		if err != nil {
			return nil, err
		}
		switch CmpRange(block, lo, hi) {
		case -1:
			continue
		case 1:
			return out, nil
		}
		for i, k := range block.Keys {
			if k < lo || (k == lo && !closedLo) {
				continue
			}
			if k > hi || (k == hi && !closedHi) {
				continue
			}
			it, err := openPayload(r, block, i, rowRange)
			if err != nil {
				return nil, err
			}
			idx.logWarning("secondary.Index.CreateIterators", it)
			out = append(out, it)
		}
	}
	return out, nil
}
