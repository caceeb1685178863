// Package column implements spec.md §3's per-column header and §4.D's
// value iterator: the typed columnar reader that decodes one
// attribute's worth of blocks and exposes a row-addressable cursor
// over them. Grounded on zed's zst/column package (one header struct
// per column, block offsets loaded once at open) generalized from
// zst's fixed primitive-type set to this module's four-packing,
// two-domain (integer/string) block spine.
package column

import (
	"github.com/colstride/colex/block"
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
)

// AttributeType selects a column's value domain.
type AttributeType uint8

const (
	Int32 AttributeType = iota
	Int64
	String
)

// Header is the per-column metadata spec.md §3 describes: attribute
// type, block count, per-block byte offsets and row counts, block
// size, subblock size (always block.SubblockSize), and the names of
// the 32-bit and 64-bit integer codecs used inside the column.
type Header struct {
	Type        AttributeType
	HasHashes   bool // meaningful only when Type == String
	BlockCount  int
	BlockSize   int // logical row count per block (last block may be shorter)
	Codec32Name string
	Codec64Name string

	blockOffsets []int64  // absolute byte offset of each block's packing tag
	blockRows    []uint32 // row count of each block
	blockStarts  []int64  // prefix sum of blockRows: row id of each block's first row
}

// OpenHeader reads a column header from r at its current position.
func OpenHeader(r *ioreader.Reader) (*Header, error) {
	h := &Header{}
	t, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.Type = AttributeType(t)

	hasHashes, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	h.HasHashes = hasHashes != 0

	blockCount, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	h.BlockCount = int(blockCount)

	blockSize, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	h.BlockSize = int(blockSize)

	subblockSize, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if int(subblockSize) != block.SubblockSize {
		return nil, colexerr.Corruptf("column.OpenHeader", "subblock size %d != %d", subblockSize, block.SubblockSize)
	}

	c32, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	h.Codec32Name = string(c32)

	c64, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	h.Codec64Name = string(c64)

	offRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	offsets, err := codec.DecodeDeltaVector(offRaw)
	if err != nil {
		return nil, err
	}
	if len(offsets) != h.BlockCount {
		return nil, colexerr.Corruptf("column.OpenHeader", "block offset count %d != block count %d", len(offsets), h.BlockCount)
	}
	h.blockOffsets = make([]int64, h.BlockCount)
	for i, v := range offsets {
		h.blockOffsets[i] = int64(v)
	}

	rowsRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	rows, err := codec.DecodeVector(rowsRaw)
	if err != nil {
		return nil, err
	}
	if len(rows) != h.BlockCount {
		return nil, colexerr.Corruptf("column.OpenHeader", "block row count count %d != block count %d", len(rows), h.BlockCount)
	}
	h.blockRows = make([]uint32, h.BlockCount)
	h.blockStarts = make([]int64, h.BlockCount)
	var rowID int64
	for i, v := range rows {
		h.blockRows[i] = uint32(v)
		h.blockStarts[i] = rowID
		rowID += int64(v)
	}
	return h, nil
}

// RowCount returns the column's total row count.
func (h *Header) RowCount() int64 {
	if h.BlockCount == 0 {
		return 0
	}
	return h.blockStarts[h.BlockCount-1] + int64(h.blockRows[h.BlockCount-1])
}

// BlockStartRowID returns the row id of block blockID's first row.
func (h *Header) BlockStartRowID(blockID int) int64 { return h.blockStarts[blockID] }

// BlockRowCount returns the number of rows stored in blockID.
func (h *Header) BlockRowCount(blockID int) int { return int(h.blockRows[blockID]) }

// BlockOffset returns the absolute byte offset of blockID's packing
// tag.
func (h *Header) BlockOffset(blockID int) int64 { return h.blockOffsets[blockID] }

// OffsetToBlock returns the block id whose byte range
// [BlockOffset(id), BlockOffset(id+1)) contains off, via binary search
// over blockOffsets. Used by blockcache to map a byte-range read back
// to the block it belongs to.
func (h *Header) OffsetToBlock(off int64) int {
	lo, hi := 0, h.BlockCount-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if h.blockOffsets[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// RowIDToBlock returns the block id containing rowID via binary search
// over the prefix-summed block start table.
func (h *Header) RowIDToBlock(rowID int64) int {
	lo, hi := 0, h.BlockCount-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if h.blockStarts[mid] <= rowID {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// EncodeHeader builds the bytes OpenHeader expects, for use by tests.
func EncodeHeader(h *Header) []byte {
	var w headerWriter
	w.u8(uint8(h.Type))
	if h.HasHashes {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.uvarint(uint64(h.BlockCount))
	w.uvarint(uint64(h.BlockSize))
	w.uvarint(uint64(block.SubblockSize))
	w.varBytes([]byte(h.Codec32Name))
	w.varBytes([]byte(h.Codec64Name))

	offsets := make([]uint64, len(h.blockOffsets))
	for i, v := range h.blockOffsets {
		offsets[i] = uint64(v)
	}
	w.varBytes(codec.EncodeDeltaVector(offsets))

	rows := make([]uint64, len(h.blockRows))
	for i, v := range h.blockRows {
		rows[i] = uint64(v)
	}
	w.varBytes(codec.EncodeVector(rows))
	return w.bytes()
}

// NewHeader builds a Header from already-known block metadata, for use
// by EncodeHeader callers building fixtures.
func NewHeader(t AttributeType, hasHashes bool, blockSize int, codec32, codec64 string, blockOffsets []int64, blockRows []uint32) *Header {
	h := &Header{
		Type:         t,
		HasHashes:    hasHashes,
		BlockCount:   len(blockOffsets),
		BlockSize:    blockSize,
		Codec32Name:  codec32,
		Codec64Name:  codec64,
		blockOffsets: blockOffsets,
		blockRows:    blockRows,
		blockStarts:  make([]int64, len(blockRows)),
	}
	var rowID int64
	for i, v := range blockRows {
		h.blockStarts[i] = rowID
		rowID += int64(v)
	}
	return h
}
