// Package analyzer implements spec.md §4.E's block analyzer: given a
// per-column filter and a column's integer blocks, it emits row ids
// whose value matches the filter without ever materializing the
// values the caller never observes. Grounded on
// original_source/accessor/accessorint.cpp's range/value scan loops
// (NeedBlock/ReadHeader/Scanning state machine, CONST and TABLE
// block-level short-circuits) layered on top of this module's own
// block.IntConstDecoder/IntTableDecoder/IntPForDecoder.
package analyzer

import (
	"fmt"

	"github.com/colstride/colex/block"
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/column"
	"github.com/colstride/colex/filter"
	"github.com/colstride/colex/ioreader"
)

// Analyzer scans an integer column's blocks for rows matching a
// filter, one subblock per NextSubblock call. Not safe for concurrent
// use; spec.md's single-threaded-per-iterator model applies here too.
type Analyzer struct {
	h *column.Header
	r *ioreader.Reader
	f filter.Filter

	lastBlock int
	curBlock  int // -1 before the first NextSubblock call
	curSub    int // -1 before the first subblock of curBlock

	packing block.IntPacking

	intConst  block.IntConstDecoder
	intTable  block.IntTableDecoder
	intPFOR32 *block.IntPForDecoder[uint32]
	intPFOR64 *block.IntPForDecoder[uint64]

	// block-level short-circuit state, recomputed on every
	// ReadBlockHeader.
	constMatch bool
	tableMatch [256]bool
	tableAny   bool
}

// New builds an Analyzer over h's blocks, read through r. isFloat
// flags that h's values are IEEE-754 bit patterns (an f32-as-u32
// physical column per spec.md §4.G), triggering the construction-time
// float normalization spec.md §4.E describes: a singleton Values
// equality or an integer Range against such a column becomes a
// FloatRange before scanning begins.
func New(h *column.Header, r *ioreader.Reader, f filter.Filter, isFloat bool) (*Analyzer, error) {
	if h.Type != column.Int32 && h.Type != column.Int64 {
		return nil, colexerr.BadArgument("analyzer.New", fmt.Errorf("column is not integer-typed"))
	}
	if isFloat {
		f = filter.NormalizeForFloatColumn(f)
	}
	c32, err := codec.Get(h.Codec32Name)
	if err != nil {
		return nil, err
	}
	c64, err := codec.Get(h.Codec64Name)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		h: h, r: r, f: f,
		lastBlock: h.BlockCount - 1,
		curBlock:  -1,
		curSub:    -1,
		intPFOR32: block.NewIntPForDecoder32(c32, true),
		intPFOR64: block.NewIntPForDecoder64(c64, true),
	}, nil
}

func (a *Analyzer) subblocksInBlock(blockID int) int {
	n := a.h.BlockRowCount(blockID)
	return (n + block.SubblockSize - 1) / block.SubblockSize
}

func (a *Analyzer) subblockLen(blockID, sub int) int {
	rows := a.h.BlockRowCount(blockID)
	start := sub * block.SubblockSize
	n := rows - start
	if n > block.SubblockSize {
		n = block.SubblockSize
	}
	return n
}

// NextSubblock decodes and filters the next candidate subblock,
// writing matching row ids in ascending order into out (which must
// have capacity for at least block.SubblockSize entries) and
// returning how many were written. more is false once every block has
// been scanned.
func (a *Analyzer) NextSubblock(out []int64) (n int, more bool, err error) {
	if a.curBlock < 0 || a.curSub+1 >= a.subblocksInBlock(a.curBlock) {
		next := a.curBlock + 1
		if next > a.lastBlock {
			return 0, false, nil
		}
		if err := a.readBlockHeader(next); err != nil {
			return 0, false, err
		}
		a.curBlock = next
		a.curSub = -1
	}
	a.curSub++
	n, err = a.scanSubblock(a.curBlock, a.curSub, out)
	if err != nil {
		return 0, false, err
	}
	more = a.curSub+1 < a.subblocksInBlock(a.curBlock) || a.curBlock < a.lastBlock
	return n, more, nil
}

func (a *Analyzer) readBlockHeader(blockID int) error {
	a.r.Seek(a.h.BlockOffset(blockID))
	tag, err := a.r.ReadUvarint()
	if err != nil {
		return err
	}
	a.packing = block.IntPacking(tag)
	switch a.packing {
	case block.IntConst:
		if err := a.intConst.ReadHeader(a.r); err != nil {
			return err
		}
		a.constMatch = a.f.ValueMatches(a.intConst.Value(0))
		return nil
	case block.IntTable:
		if err := a.intTable.ReadHeader(a.r); err != nil {
			return err
		}
		a.tableAny = false
		size := a.intTable.TableSize()
		for i := 0; i < size; i++ {
			m := a.f.ValueMatches(a.intTable.TableValue(i))
			a.tableMatch[i] = m
			a.tableAny = a.tableAny || m
		}
		return nil
	case block.IntDeltaPFOR, block.IntGenericPFOR:
		delta := a.packing == block.IntDeltaPFOR
		if a.h.Type == column.Int32 {
			a.intPFOR32.SetDelta(delta)
			return a.intPFOR32.ReadHeader(a.r)
		}
		a.intPFOR64.SetDelta(delta)
		return a.intPFOR64.ReadHeader(a.r)
	default:
		return colexerr.Corruptf("analyzer.readBlockHeader", "unknown int packing tag %d", tag)
	}
}

func (a *Analyzer) scanSubblock(blockID, sub int, out []int64) (int, error) {
	startRow := a.h.BlockStartRowID(blockID) + int64(sub*block.SubblockSize)
	n := a.subblockLen(blockID, sub)

	switch a.packing {
	case block.IntConst:
		if !a.constMatch {
			return 0, nil
		}
		for i := 0; i < n; i++ {
			out[i] = startRow + int64(i)
		}
		return n, nil

	case block.IntTable:
		if !a.tableAny {
			return 0, nil
		}
		if err := a.intTable.ReadSubblock(sub, a.r); err != nil {
			return 0, err
		}
		idx := a.intTable.Indices()
		count := 0
		for i := 0; i < n; i++ {
			if a.tableMatch[idx[i]] {
				out[count] = startRow + int64(i)
				count++
			}
		}
		return count, nil

	case block.IntDeltaPFOR, block.IntGenericPFOR:
		if a.h.Type == column.Int32 {
			if err := a.intPFOR32.ReadSubblock(sub, a.r); err != nil {
				return 0, err
			}
			count := 0
			for i := 0; i < n; i++ {
				if a.f.ValueMatches(uint64(a.intPFOR32.Value(i))) {
					out[count] = startRow + int64(i)
					count++
				}
			}
			return count, nil
		}
		if err := a.intPFOR64.ReadSubblock(sub, a.r); err != nil {
			return 0, err
		}
		count := 0
		for i := 0; i < n; i++ {
			if a.f.ValueMatches(a.intPFOR64.Value(i)) {
				out[count] = startRow + int64(i)
				count++
			}
		}
		return count, nil
	}
	return 0, colexerr.Corrupt("analyzer.scanSubblock", fmt.Errorf("unset packing"))
}
