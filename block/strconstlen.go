package block

import "github.com/colstride/colex/ioreader"

// StrConstLenDecoder implements spec.md §4.C's String CONSTLEN block:
// every value in the block has the same length, stored as a flat
// n*length byte area (plus an optional n*8 hash area ahead of it).
// Grounded on original_source/accessor/accessorstr.cpp's
// StoredBlock_StrConstLen_c.
type StrConstLenDecoder struct {
	length     int64
	hashOffset int64
	valuesBase int64
	haveHashes bool
	lastRead   int

	scratch []byte
}

// ReadHeader reads the common length and computes the hash/values
// area offsets. n is the block's row count.
func (d *StrConstLenDecoder) ReadHeader(r *ioreader.Reader, n int, haveHashes bool) error {
	length, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	d.length = int64(length)
	d.haveHashes = haveHashes
	if haveHashes {
		d.hashOffset = r.Pos()
		d.valuesBase = d.hashOffset + int64(n)*8
	} else {
		d.valuesBase = r.Pos()
	}
	d.lastRead = -1
	return nil
}

// Value returns the value at in-block index i, reading through r.
// Non-sequential access reseeks; sequential access continues from the
// reader's current position.
func (d *StrConstLenDecoder) Value(i int, r *ioreader.Reader) ([]byte, error) {
	if d.lastRead == -1 || d.lastRead+1 != i {
		r.Seek(d.valuesBase + int64(i)*d.length)
	}
	d.lastRead = i
	b, ok, err := r.ReadInto(int(d.length))
	if err != nil {
		return nil, err
	}
	if ok {
		return b, nil
	}
	if cap(d.scratch) < int(d.length) {
		d.scratch = make([]byte, d.length)
	}
	d.scratch = d.scratch[:d.length]
	copy(d.scratch, b)
	return d.scratch, nil
}

// Hash returns the hash stored for in-block index i, or 0 when
// ReadHeader was called with haveHashes false.
func (d *StrConstLenDecoder) Hash(i int, r *ioreader.Reader) (uint64, error) {
	if !d.haveHashes {
		return 0, nil
	}
	r.Seek(d.hashOffset + int64(i)*8)
	d.lastRead = -1
	return r.ReadU64()
}

// Length returns the block's common value length.
func (d *StrConstLenDecoder) Length() int { return int(d.length) }

// EncodeStrConstLenBlock builds the bytes StrConstLenDecoder expects.
// hashes may be nil to omit the hash area.
func EncodeStrConstLenBlock(values [][]byte, hashes []uint64) []byte {
	length := 0
	if len(values) > 0 {
		length = len(values[0])
	}
	var w byteWriter
	w.uvarint(uint64(length))
	if hashes != nil {
		for _, h := range hashes {
			w.u64(h)
		}
	}
	for _, v := range values {
		w.raw(v)
	}
	return w.bytes()
}
