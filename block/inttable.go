package block

import (
	"sort"

	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/ioreader"
)

// IntTableDecoder implements spec.md §4.C's Integer TABLE block: a
// ≤256-entry sorted dictionary plus, per subblock, a bit-packed array
// of 128 table indices. Grounded on
// original_source/accessor/accessorint.cpp's
// StoredBlock_Int_Table_T::ReadHeader/ReadSubblock.
type IntTableDecoder struct {
	table   []uint64
	bits    int
	base    int64
	encSize int // bytes per encoded subblock

	loadedSubblock int
	indices        [SubblockSize]uint32
}

// ReadHeader reads the 1-byte table count, the table (stored as
// sorted deltas), and computes the per-subblock bit width.
func (d *IntTableDecoder) ReadHeader(r *ioreader.Reader) error {
	count, err := r.ReadU8()
	if err != nil {
		return err
	}
	d.table = make([]uint64, count)
	var prev uint64
	for i := range d.table {
		delta, err := r.ReadUvarint()
		if err != nil {
			return err
		}
		prev += delta
		d.table[i] = prev
	}
	d.bits = codec.BitsForCount(len(d.table))
	d.encSize = d.bits * 16 // (128>>5)*bits 32-bit words == bits*16 bytes
	d.base = r.Pos()
	d.loadedSubblock = -1
	return nil
}

// ReadSubblock seeks to and decodes subblock id's bit-packed index
// array, unless it is already the cached subblock.
func (d *IntTableDecoder) ReadSubblock(id int, r *ioreader.Reader) error {
	if d.loadedSubblock == id {
		return nil
	}
	if d.encSize == 0 {
		// bits==0: single-entry table, every index is implicitly 0.
		for i := range d.indices {
			d.indices[i] = 0
		}
		d.loadedSubblock = id
		return nil
	}
	r.Seek(d.base + int64(id)*int64(d.encSize))
	packed := make([]byte, d.encSize)
	if err := r.ReadFull(packed); err != nil {
		return err
	}
	if err := codec.BitUnpack128(packed, d.indices[:], d.bits); err != nil {
		return err
	}
	d.loadedSubblock = id
	return nil
}

// Value returns the value at in-subblock index i of the loaded
// subblock.
func (d *IntTableDecoder) Value(i int) uint64 { return d.table[d.indices[i]] }

// Indices returns the loaded subblock's raw table indices, used by the
// block analyzer's TABLE specialization to avoid a second lookup pass.
func (d *IntTableDecoder) Indices() *[SubblockSize]uint32 { return &d.indices }

// TableSize returns the number of distinct values in the table.
func (d *IntTableDecoder) TableSize() int { return len(d.table) }

// TableValue returns the idx'th sorted table entry.
func (d *IntTableDecoder) TableValue(idx int) uint64 { return d.table[idx] }

// IndexOf binary-searches the sorted table for v, returning -1 if
// absent.
func (d *IntTableDecoder) IndexOf(v uint64) int {
	i := sort.Search(len(d.table), func(i int) bool { return d.table[i] >= v })
	if i < len(d.table) && d.table[i] == v {
		return i
	}
	return -1
}

// EncodeIntTableBlock builds the bytes IntTableDecoder expects:
// subblockIndices[k] must each have length SubblockSize except
// possibly the last.
func EncodeIntTableBlock(table []uint64, subblockIndices [][]uint32) []byte {
	var w byteWriter
	w.u8(uint8(len(table)))
	var prev uint64
	for _, v := range table {
		w.uvarint(v - prev)
		prev = v
	}
	bits := codec.BitsForCount(len(table))
	for _, idx := range subblockIndices {
		full := make([]uint32, SubblockSize)
		copy(full, idx)
		if bits > 0 {
			w.raw(codec.BitPack128(full, bits))
		}
	}
	return w.bytes()
}
