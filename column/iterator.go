package column

import (
	"fmt"

	"github.com/colstride/colex/block"
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
)

// ValueIterator is spec.md §4.D's per-column cursor: advance_to a row
// id, read one value/length/hash, switching the active packing-
// specific read routine on every block-boundary crossing. Grounded on
// zed's zst/column iterators (one struct holding every possible
// decoder, a tag switch on block entry) generalized to this module's
// eight block packings.
type ValueIterator struct {
	h *Header
	r *ioreader.Reader

	needHashes bool

	curBlock    int // -1 before the first advance_to
	curSubblock int

	intPacking block.IntPacking
	strPacking block.StrPacking

	intConst    block.IntConstDecoder
	intTable    block.IntTableDecoder
	intPFOR32   *block.IntPForDecoder[uint32]
	intPFOR64   *block.IntPForDecoder[uint64]

	strConst    block.StrConstDecoder
	strConstLen block.StrConstLenDecoder
	strTable    block.StrTableDecoder
	strGeneric  block.StrGenericDecoder

	rowID        int64
	subblockRow  int64 // row id of the current subblock's first row
	lastHashes   []uint64

	warning string
}

// Warning returns a non-fatal decode hiccup noticed since the
// iterator was opened, or "" if none occurred. Per spec.md §7's
// warning-accessor contract, a warning never blocks reads; it is
// informational only.
func (it *ValueIterator) Warning() string { return it.warning }

// NewValueIterator opens a cursor over h's blocks, reading through r
// (an io positioned independently per column). needHashes reflects
// whether the caller will call GetHash; when false, string decoders
// skip hash-area decoding entirely.
func NewValueIterator(h *Header, r *ioreader.Reader, needHashes bool) (*ValueIterator, error) {
	it := &ValueIterator{h: h, r: r, needHashes: needHashes, curBlock: -1}
	if needHashes && h.Type == String && !h.HasHashes {
		it.warning = "column.ValueIterator: hashes requested but column has no hash sidecar; GetHash will return 0"
	}
	if h.Type == Int32 || h.Type == Int64 {
		c32, err := codec.Get(h.Codec32Name)
		if err != nil {
			return nil, err
		}
		c64, err := codec.Get(h.Codec64Name)
		if err != nil {
			return nil, err
		}
		it.intPFOR32 = block.NewIntPForDecoder32(c32, true)
		it.intPFOR64 = block.NewIntPForDecoder64(c64, true)
	}
	return it, nil
}

// AdvanceTo repositions the iterator at rowID, re-reading the block
// header and selecting the active packing routine whenever rowID
// falls in a different block than the one currently loaded. Idempotent
// for repeated calls within the same block.
func (it *ValueIterator) AdvanceTo(rowID int64) (int64, error) {
	blockID := it.h.RowIDToBlock(rowID)
	if blockID != it.curBlock {
		if err := it.readBlockHeader(blockID); err != nil {
			return 0, err
		}
		it.curBlock = blockID
		it.curSubblock = -1
	}
	it.rowID = rowID
	sub := it.rowInBlock(rowID) / block.SubblockSize
	if sub != it.curSubblock {
		if err := it.readSubblock(sub); err != nil {
			return 0, err
		}
		it.curSubblock = sub
		it.subblockRow = it.h.BlockStartRowID(blockID) + int64(sub*block.SubblockSize)
	}
	return rowID, nil
}

func (it *ValueIterator) rowInBlock(rowID int64) int {
	return int(rowID - it.h.BlockStartRowID(it.curBlock))
}

func (it *ValueIterator) indexInSubblock() int {
	return it.rowInBlock(it.rowID) % block.SubblockSize
}

func (it *ValueIterator) readBlockHeader(blockID int) error {
	it.r.Seek(it.h.BlockOffset(blockID))
	tag, err := it.r.ReadUvarint()
	if err != nil {
		return err
	}
	switch it.h.Type {
	case Int32, Int64:
		it.intPacking = block.IntPacking(tag)
		switch it.intPacking {
		case block.IntConst:
			return it.intConst.ReadHeader(it.r)
		case block.IntTable:
			return it.intTable.ReadHeader(it.r)
		case block.IntDeltaPFOR, block.IntGenericPFOR:
			delta := it.intPacking == block.IntDeltaPFOR
			if it.h.Type == Int32 {
				it.intPFOR32.SetDelta(delta)
				return it.intPFOR32.ReadHeader(it.r)
			}
			it.intPFOR64.SetDelta(delta)
			return it.intPFOR64.ReadHeader(it.r)
		default:
			return colexerr.Corruptf("column.ValueIterator.readBlockHeader", "unknown int packing tag %d", tag)
		}
	case String:
		it.strPacking = block.StrPacking(tag)
		switch it.strPacking {
		case block.StrConst:
			return it.strConst.ReadHeader(it.r, it.h.HasHashes, it.needHashes)
		case block.StrConstLen:
			return it.strConstLen.ReadHeader(it.r, it.h.BlockRowCount(blockID), it.h.HasHashes)
		case block.StrTable:
			return it.strTable.ReadHeader(it.r, it.h.HasHashes, it.needHashes)
		case block.StrGeneric:
			return it.strGeneric.ReadHeader(it.r, it.h.HasHashes)
		default:
			return colexerr.Corruptf("column.ValueIterator.readBlockHeader", "unknown string packing tag %d", tag)
		}
	default:
		return colexerr.BadArgumentf("column.ValueIterator.readBlockHeader", "unknown attribute type %d", it.h.Type)
	}
}

func (it *ValueIterator) subblockLen(sub int) int {
	rows := it.h.BlockRowCount(it.curBlock)
	start := sub * block.SubblockSize
	n := rows - start
	if n > block.SubblockSize {
		n = block.SubblockSize
	}
	return n
}

func (it *ValueIterator) readSubblock(sub int) error {
	switch it.h.Type {
	case Int32, Int64:
		switch it.intPacking {
		case block.IntConst:
			return nil
		case block.IntTable:
			return it.intTable.ReadSubblock(sub, it.r)
		case block.IntDeltaPFOR, block.IntGenericPFOR:
			if it.h.Type == Int32 {
				return it.intPFOR32.ReadSubblock(sub, it.r)
			}
			return it.intPFOR64.ReadSubblock(sub, it.r)
		}
	case String:
		switch it.strPacking {
		case block.StrConst:
			return nil
		case block.StrTable:
			return it.strTable.ReadSubblock(sub, it.r)
		case block.StrGeneric:
			hashes, err := it.strGeneric.ReadSubblock(sub, it.subblockLen(sub), it.r, it.needHashes)
			it.lastHashes = hashes
			return err
		}
	}
	return nil
}

// GetValue returns the current row's integer value. Calling it on a
// string-typed iterator is a caller error.
func (it *ValueIterator) GetValue() (uint64, error) {
	if it.h.Type != Int32 && it.h.Type != Int64 {
		return 0, colexerr.BadArgument("column.ValueIterator.GetValue", fmt.Errorf("column is not integer-typed"))
	}
	i := it.indexInSubblock()
	switch it.intPacking {
	case block.IntConst:
		return it.intConst.Value(i), nil
	case block.IntTable:
		return it.intTable.Value(i), nil
	case block.IntDeltaPFOR, block.IntGenericPFOR:
		if it.h.Type == Int32 {
			return uint64(it.intPFOR32.Value(i)), nil
		}
		return it.intPFOR64.Value(i), nil
	}
	return 0, colexerr.Corrupt("column.ValueIterator.GetValue", fmt.Errorf("unset packing"))
}

// GetBytes returns the current row's string value. Calling it on an
// integer-typed iterator is a caller error.
func (it *ValueIterator) GetBytes() ([]byte, error) {
	if it.h.Type != String {
		return nil, colexerr.BadArgument("column.ValueIterator.GetBytes", fmt.Errorf("column is not string-typed"))
	}
	i := it.indexInSubblock()
	switch it.strPacking {
	case block.StrConst:
		return it.strConst.Value(), nil
	case block.StrConstLen:
		return it.strConstLen.Value(it.rowInBlock(it.rowID), it.r)
	case block.StrTable:
		return it.strTable.Value(i), nil
	case block.StrGeneric:
		return it.strGeneric.Value(i, it.r)
	}
	return nil, colexerr.Corrupt("column.ValueIterator.GetBytes", fmt.Errorf("unset packing"))
}

// GetLength returns the current row's string value length without
// materializing the bytes.
func (it *ValueIterator) GetLength() (int, error) {
	if it.h.Type != String {
		return 0, colexerr.BadArgument("column.ValueIterator.GetLength", fmt.Errorf("column is not string-typed"))
	}
	i := it.indexInSubblock()
	switch it.strPacking {
	case block.StrConst:
		return it.strConst.Length(), nil
	case block.StrConstLen:
		return it.strConstLen.Length(), nil
	case block.StrTable:
		return it.strTable.Length(i), nil
	case block.StrGeneric:
		return it.strGeneric.Length(i), nil
	}
	return 0, colexerr.Corrupt("column.ValueIterator.GetLength", fmt.Errorf("unset packing"))
}

// GetHash returns the current row's string hash. Valid only for
// string-typed columns opened with needHashes.
func (it *ValueIterator) GetHash() (uint64, error) {
	if it.h.Type != String {
		return 0, colexerr.BadArgument("column.ValueIterator.GetHash", fmt.Errorf("column is not string-typed"))
	}
	i := it.indexInSubblock()
	switch it.strPacking {
	case block.StrConst:
		h, _ := it.strConst.Hash()
		return h, nil
	case block.StrConstLen:
		return it.strConstLen.Hash(it.rowInBlock(it.rowID), it.r)
	case block.StrTable:
		return it.strTable.Hash(i), nil
	case block.StrGeneric:
		if i < len(it.lastHashes) {
			return it.lastHashes[i], nil
		}
		return 0, nil
	}
	return 0, colexerr.Corrupt("column.ValueIterator.GetHash", fmt.Errorf("unset packing"))
}
