// Package segment implements spec.md §6's open_segment entry point: a
// thin version-checked wrapper around column.Header that hands out the
// four named iterator/analyzer factories (create_int_iterator,
// create_string_iterator, create_mva_iterator, create_int_analyzer)
// library callers use to scan one attribute column. Grounded on zed's
// zst/reader.go (ReadHeader checks a magic/version pair before
// delegating to the per-column zst.Column open path) generalized to
// this module's single-column file shape.
package segment

import (
	"io"

	"go.uber.org/zap"

	"github.com/colstride/colex/analyzer"
	"github.com/colstride/colex/blockcache"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/colexlog"
	"github.com/colstride/colex/column"
	"github.com/colstride/colex/filter"
	"github.com/colstride/colex/ioreader"
)

// LibVersion and StorageVersion are embedded at the front of every
// segment file, per spec.md §6/§7: "the current LIB_VERSION and
// STORAGE_VERSION are embedded in the header" and version mismatches
// are reported as a recoverable error at open time, never mid-scan.
const (
	LibVersion     uint32 = 1
	StorageVersion uint32 = 1
)

// Hints carries scan-time knobs a caller passes to create_string_iterator,
// per spec.md §6's "Hints (string iterator)".
type Hints struct {
	// NeedHashes requests that the iterator decode each string
	// value's stored hash alongside its bytes; when false, string
	// decoders skip hash-area decoding entirely (column.ValueIterator's
	// needHashes).
	NeedHashes bool
}

// Segment is an opened attribute-column file: the decoded column.Header
// plus the io.ReaderAt its blocks live in. Like column.Header and
// secondary.Index, a Segment is immutable once opened and safe to
// share across goroutines that each hand out their own reader.
type Segment struct {
	src     io.ReaderAt
	bufSize int
	limit   int

	isFloat bool
	header  *column.Header

	cache     *blockcache.Cache
	segmentID string
	log       *zap.Logger
}

// Option configures optional Open behavior.
type Option func(*Segment)

// WithBlockCache shares a blockcache.Cache across every reader this
// Segment hands out, keyed under segmentID, per spec.md §5's
// allowance for shared, internally-synchronized read-side state.
func WithBlockCache(cache *blockcache.Cache, segmentID string) Option {
	return func(s *Segment) {
		s.cache = cache
		s.segmentID = segmentID
	}
}

// WithLogger attaches log, used to surface non-fatal decode hiccups
// (column.ValueIterator.Warning) the caller would otherwise have to
// poll for itself. Defaults to colexlog.Nop().
func WithLogger(log *zap.Logger) Option {
	return func(s *Segment) { s.log = log }
}

// Open reads and version-checks a segment file's outer prefix, then
// delegates to column.OpenHeader for the per-column body. isFloat
// flags that the column's Int32 values are IEEE-754 bit patterns (a
// physical float column per spec.md §4.G), the same flag
// analyzer.New's FloatRange normalization needs.
func Open(src io.ReaderAt, bufSize, limit int, isFloat bool, opts ...Option) (*Segment, error) {
	r := ioreader.New(src, bufSize, limit)
	libVersion, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if libVersion > LibVersion {
		return nil, colexerr.VersionMismatch("segment.Open", libVersion, LibVersion)
	}
	storageVersion, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if storageVersion > StorageVersion {
		return nil, colexerr.VersionMismatch("segment.Open", storageVersion, StorageVersion)
	}
	h, err := column.OpenHeader(r)
	if err != nil {
		return nil, err
	}
	s := &Segment{src: src, bufSize: bufSize, limit: limit, isFloat: isFloat, header: h, log: colexlog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Segment) logWarning(op string, it *column.ValueIterator) {
	if w := it.Warning(); w != "" {
		s.log.Warn(op, zap.String("warning", w))
	}
}

// Header returns the decoded per-column header underlying s.
func (s *Segment) Header() *column.Header { return s.header }

// RecordScanRows reports how many rows one analyzer/iterator scan over
// s emitted, feeding the attached blockcache.Cache's scan-rows
// histogram (a no-op when s was opened without WithBlockCache). A
// caller drives its own NextSubblock/NextBlock loop to completion, so
// it is the one position that knows a scan's final row count; this
// package has no hook into that loop itself.
func (s *Segment) RecordScanRows(n int) {
	if s.cache != nil {
		s.cache.ObserveScanRows(n)
	}
}

func (s *Segment) newReader() *ioreader.Reader {
	src := s.src
	if s.cache != nil {
		src = blockcache.NewReaderAt(src, s.cache, s.segmentID, s.header)
	}
	return ioreader.New(src, s.bufSize, s.limit)
}

// CreateIntAnalyzer implements create_int_analyzer: a block-level
// filtered scan over an integer (or physical-float) column, per
// spec.md §4.E.
func (s *Segment) CreateIntAnalyzer(f filter.Filter) (*analyzer.Analyzer, error) {
	if s.header.Type != column.Int32 && s.header.Type != column.Int64 {
		return nil, colexerr.BadArgumentf("segment.Segment.CreateIntAnalyzer", "column is not integer-typed")
	}
	return analyzer.New(s.header, s.newReader(), f, s.isFloat)
}

// CreateIntIterator implements create_int_iterator: a row-addressable
// cursor over an integer (or physical-float) column, per spec.md §4.D.
func (s *Segment) CreateIntIterator() (*column.ValueIterator, error) {
	if s.header.Type != column.Int32 && s.header.Type != column.Int64 {
		return nil, colexerr.BadArgumentf("segment.Segment.CreateIntIterator", "column is not integer-typed")
	}
	it, err := column.NewValueIterator(s.header, s.newReader(), false)
	if err != nil {
		return nil, err
	}
	s.logWarning("segment.Segment.CreateIntIterator", it)
	return it, nil
}

// CreateStringIterator implements create_string_iterator: a
// row-addressable cursor over a string column, honoring hints.NeedHashes
// per spec.md §6's Hints contract.
func (s *Segment) CreateStringIterator(hints Hints) (*column.ValueIterator, error) {
	if s.header.Type != column.String {
		return nil, colexerr.BadArgumentf("segment.Segment.CreateStringIterator", "column is not string-typed")
	}
	it, err := column.NewValueIterator(s.header, s.newReader(), hints.NeedHashes)
	if err != nil {
		return nil, err
	}
	s.logWarning("segment.Segment.CreateStringIterator", it)
	return it, nil
}

// CreateMVAIterator implements create_mva_iterator. Per spec.md's
// non-goals, multi-value-attribute scan code "repeats the integer
// design" of a plain column, so a segment storing an MVA's flattened
// postings is scanned with the same column.ValueIterator an ordinary
// integer column uses; no separate MVA-specific decode path exists in
// this package. See DESIGN.md's segment package entry for the rest of
// this decision.
func (s *Segment) CreateMVAIterator() (*column.ValueIterator, error) {
	if s.header.Type != column.Int32 && s.header.Type != column.Int64 {
		return nil, colexerr.BadArgumentf("segment.Segment.CreateMVAIterator", "column is not integer-typed")
	}
	return column.NewValueIterator(s.header, s.newReader(), false)
}
