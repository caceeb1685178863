// Package secondary implements spec.md §4.G's secondary (value -> row)
// index: a per-column sorted-values area backed by a PGM learned index
// for approximate positioning, scanned with the Equality and Range
// sweeps spec.md §4.G and §6 describe. Grounded on zdx/ (brimdata-zed's
// own sorted key/value index over a segment file) for the overall
// open/meta/lookup shape, generalized from zdx's single-level
// key-to-offset table to this module's per-column PGM-bracketed sweep
// over this module's codec, rowid and pgm packages.
package secondary

import (
	"github.com/pierrec/lz4/v4"

	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
	"github.com/colstride/colex/pgm"
)

// KeyDomain selects how a column's sorted keys in the values area map
// back to that column's native value, mirroring spec.md §4.G's
// "equality literals are rewritten... for float columns, for string
// columns."
type KeyDomain uint8

const (
	KeyInt    KeyDomain = iota // signed integer, stored as its uint64 bit pattern
	KeyFloat                   // IEEE-754 float32 bits mapped through floatSortKey, widened to uint64
	KeyString                  // hashcol hash of the string value
)

func (k KeyDomain) String() string {
	switch k {
	case KeyInt:
		return "int"
	case KeyFloat:
		return "float"
	case KeyString:
		return "string"
	default:
		return "unknown"
	}
}

// Attr is one indexed column's metadata record, per spec.md §6's
// per-attr {name, type, count_distinct} plus this module's own
// bookkeeping for locating and loading that column's values area and
// PGM.
type Attr struct {
	Name          string
	Domain        KeyDomain
	CountDistinct int64

	valuesAreaOffset int64
	blocksCount      int

	pgm *pgm.Index
}

// Name, Domain, CountDistinct, BlocksCount are the read-only surface
// CreateIterators/EstimateNumIterators/CountDistinct need.
func (a *Attr) BlocksCount() int { return a.blocksCount }

// Meta is the decompressed metadata block stored at meta_off in a
// secondary index file, per spec.md §6's layout:
//
//	[u32 version][u64 meta_off][value blocks area][meta @ meta_off]
//
// with the meta block itself holding next_meta_off, the enabled
// bitvec, the codec names, values_per_block, and the per-attr records
// this module expands with a values-area offset/block-count and a
// loaded PGM.
type Meta struct {
	Version        uint32
	NextMetaOff    uint64
	Enabled        []bool
	Codec32Name    string
	Codec64Name    string
	ValuesPerBlock uint32
	Attrs          []*Attr
}

const currentVersion uint32 = 1

// OpenMeta reads the secondary-index file header and its lz4-
// decompressed meta block from r, decompressing each attribute's
// zstd-compressed PGM blob as it goes (SPEC_FULL.md's storage-only
// compression additions: both are logically transparent once
// decompressed, byte-identical to spec.md §6's documented layout).
func OpenMeta(r *ioreader.Reader) (*Meta, error) {
	version, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if version > currentVersion {
		return nil, colexerr.VersionMismatch("secondary.OpenMeta", version, currentVersion)
	}
	metaOff, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	r.Seek(int64(metaOff))

	uncompressedLen, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	compressedLen, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	compressed, _, err := r.ReadInto(int(compressedLen))
	if err != nil {
		return nil, err
	}
	plain := make([]byte, uncompressedLen)
	n, err := lz4.UncompressBlock(compressed, plain)
	if err != nil {
		return nil, colexerr.Corrupt("secondary.OpenMeta", err)
	}
	if uint64(n) != uncompressedLen {
		return nil, colexerr.Corruptf("secondary.OpenMeta", "meta block decompressed to %d bytes, want %d", n, uncompressedLen)
	}

	return decodeMeta(version, plain)
}
