package block

import (
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/ioreader"
)

// StrGenericDecoder implements spec.md §4.C's String GENERIC block:
// per-subblock byte offsets into a values area, and within each
// subblock an optional hash area (present when the block has hashes)
// followed by a cumulative-length vector and the concatenated bodies.
// Grounded on
// original_source/accessor/accessorstr.cpp's StoredBlock_StrGeneric_c.
type StrGenericDecoder struct {
	offsets    []uint64 // per-subblock start byte offset, relative to valuesBase; offsets[0]==0
	valuesBase int64
	haveHashes bool

	subblockID        int
	cumulativeLengths []uint64
	firstValueOffset  int64
	lastRead          int
	scratch           []byte
}

// ReadHeader reads the subblock count and the delta-PFOR-coded
// per-subblock offset vector.
func (d *StrGenericDecoder) ReadHeader(r *ioreader.Reader, haveHashes bool) error {
	n, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	raw, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	offsets, err := codec.DecodeDeltaVector(raw)
	if err != nil {
		return err
	}
	if uint64(len(offsets)) != n {
		return errShortTable
	}
	d.offsets = offsets
	d.valuesBase = r.Pos()
	d.haveHashes = haveHashes
	d.subblockID = -1
	return nil
}

// ReadSubblock seeks to subblock id's area and, depending on
// needHashes, either reads its hash area or its cumulative-length
// vector (never both: spec.md §4.C — "if we need hashes, we don't
// need string lengths/values").
func (d *StrGenericDecoder) ReadSubblock(id, nValues int, r *ioreader.Reader, needHashes bool) (hashes []uint64, err error) {
	r.Seek(d.valuesBase + int64(d.offsets[id]))

	if d.haveHashes {
		hashes, err = readHashArea(r, nValues, needHashes)
		if err != nil {
			return nil, err
		}
	}

	if needHashes {
		d.subblockID = id
		return hashes, nil
	}

	cumRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	cum, err := codec.DecodeDeltaVector(cumRaw)
	if err != nil {
		return nil, err
	}
	d.cumulativeLengths = cum
	d.firstValueOffset = r.Pos()
	d.subblockID = id
	d.lastRead = -1
	return hashes, nil
}

func (d *StrGenericDecoder) length(i int) int {
	n := d.cumulativeLengths[i]
	if i > 0 {
		n -= d.cumulativeLengths[i-1]
	}
	return int(n)
}

// Length returns the in-subblock value's byte length.
func (d *StrGenericDecoder) Length(i int) int { return d.length(i) }

// Value returns the in-subblock value at index i.
func (d *StrGenericDecoder) Value(i int, r *ioreader.Reader) ([]byte, error) {
	n := d.length(i)
	offset := d.firstValueOffset
	if i > 0 {
		offset += int64(d.cumulativeLengths[i-1])
	}
	if d.lastRead == -1 || d.lastRead+1 != i {
		r.Seek(offset)
	}
	d.lastRead = i
	b, ok, err := r.ReadInto(n)
	if err != nil {
		return nil, err
	}
	if ok {
		return b, nil
	}
	if cap(d.scratch) < n {
		d.scratch = make([]byte, n)
	}
	d.scratch = d.scratch[:n]
	copy(d.scratch, b)
	return d.scratch, nil
}

// encodeStrGenericSubblock builds one subblock's bytes for
// EncodeStrGenericBlock: either a hash area (when hashes != nil) or a
// length vector plus bodies.
func encodeStrGenericSubblock(values [][]byte, hashes []uint64, present []bool) []byte {
	var w byteWriter
	if hashes != nil {
		writeHashArea(&w, hashes, present)
		return w.bytes()
	}
	cum := make([]uint64, len(values))
	var total uint64
	for i, v := range values {
		total += uint64(len(v))
		cum[i] = total
	}
	w.varBytes(codec.EncodeDeltaVector(cum))
	for _, v := range values {
		w.raw(v)
	}
	return w.bytes()
}

// EncodeStrGenericBlock builds the bytes StrGenericDecoder expects.
// subblockValues holds each subblock's raw strings, and every subblock
// is written as a length vector plus bodies. No hash area is written,
// so the result is read with haveHashes false.
func EncodeStrGenericBlock(subblockValues [][][]byte) []byte {
	var w byteWriter
	w.uvarint(uint64(len(subblockValues)))
	payloads := make([][]byte, len(subblockValues))
	offsets := make([]uint64, len(subblockValues))
	var total uint64
	for i, values := range subblockValues {
		offsets[i] = total
		payloads[i] = encodeStrGenericSubblock(values, nil, nil)
		total += uint64(len(payloads[i]))
	}
	w.varBytes(codec.EncodeDeltaVector(offsets))
	for _, p := range payloads {
		w.raw(p)
	}
	return w.bytes()
}
