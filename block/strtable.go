package block

import (
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/ioreader"
)

// StrTableDecoder implements spec.md §4.C's String TABLE block: a
// ≤256-entry table of distinct byte strings (with an optional hash per
// entry) plus, per subblock, a bit-packed index array identical in
// shape to the integer TABLE. Grounded on
// original_source/accessor/accessorstr.cpp's StoredBlock_StrTable_c.
type StrTableDecoder struct {
	bodies [][]byte
	hashes []uint64

	bits    int
	base    int64
	encSize int

	loadedSubblock int
	indices        [SubblockSize]uint32
}

// ReadHeader reads the table count, optional hashes, the delta-PFOR
// length vector, and the concatenated table bodies.
func (d *StrTableDecoder) ReadHeader(r *ioreader.Reader, haveHashes, needHashes bool) error {
	count, err := r.ReadU8()
	if err != nil {
		return err
	}
	d.bodies = make([][]byte, count)
	d.hashes = nil
	if haveHashes {
		h, err := readHashArea(r, int(count), needHashes)
		if err != nil {
			return err
		}
		d.hashes = h
	}
	lenRaw, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	lengths, err := codec.DecodeDeltaVector(lenRaw)
	if err != nil {
		return err
	}
	if uint64(len(lengths)) != uint64(count) {
		return errShortTable
	}
	for i := range d.bodies {
		body := make([]byte, lengths[i])
		if err := r.ReadFull(body); err != nil {
			return err
		}
		d.bodies[i] = body
	}
	d.bits = codec.BitsForCount(int(count))
	d.encSize = d.bits * 16
	d.base = r.Pos()
	d.loadedSubblock = -1
	return nil
}

// ReadSubblock decodes subblock id's bit-packed index array.
func (d *StrTableDecoder) ReadSubblock(id int, r *ioreader.Reader) error {
	if d.loadedSubblock == id {
		return nil
	}
	if d.encSize == 0 {
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

// Value returns the body for in-subblock index i of the loaded
// subblock.
func (d *StrTableDecoder) Value(i int) []byte { return d.bodies[d.indices[i]] }

// Length returns the body length for in-subblock index i.
func (d *StrTableDecoder) Length(i int) int { return len(d.bodies[d.indices[i]]) }

// Hash returns the hash for in-subblock index i, valid only when
// ReadHeader was called with needHashes.
func (d *StrTableDecoder) Hash(i int) uint64 {
	if d.hashes == nil {
		return 0
	}
	return d.hashes[d.indices[i]]
}

// TableSize returns the number of distinct values in the table.
func (d *StrTableDecoder) TableSize() int { return len(d.bodies) }

// TableValue returns the idx'th table body.
func (d *StrTableDecoder) TableValue(idx int) []byte { return d.bodies[idx] }

// Indices returns the loaded subblock's raw table indices.
func (d *StrTableDecoder) Indices() *[SubblockSize]uint32 { return &d.indices }

// EncodeStrTableBlock builds the bytes StrTableDecoder expects.
func EncodeStrTableBlock(bodies [][]byte, hashes []uint64, subblockIndices [][]uint32) []byte {
	var w byteWriter
	w.u8(uint8(len(bodies)))
	if hashes != nil {
		present := make([]bool, len(hashes))
		for i := range present {
			present[i] = true
		}
		writeHashArea(&w, hashes, present)
	}
	lengths := make([]uint64, len(bodies))
	for i, b := range bodies {
		lengths[i] = uint64(len(b))
	}
	w.varBytes(codec.EncodeDeltaVector(lengths))
	for _, b := range bodies {
		w.raw(b)
	}
	bits := codec.BitsForCount(len(bodies))
	for _, idx := range subblockIndices {
		full := make([]uint32, SubblockSize)
		copy(full, idx)
		if bits > 0 {
			w.raw(codec.BitPack128(full, bits))
		}
	}
	return w.bytes()
}
