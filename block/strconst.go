package block

import "github.com/colstride/colex/ioreader"

// StrConstDecoder implements spec.md §4.C's String CONST block: an
// optional single-value hash area followed by a varint-length-prefixed
// byte string shared by every row. Grounded on
// original_source/accessor/accessorstr.cpp's StoredBlock_StrConst_c.
type StrConstDecoder struct {
	value    []byte
	hash     uint64
	haveHash bool
}

// ReadHeader reads the optional hash then the constant value.
// haveHashes reflects whether the column declares string hashes at
// all; needHashes lets a caller that only wants the value skip hash
// decoding.
func (d *StrConstDecoder) ReadHeader(r *ioreader.Reader, haveHashes, needHashes bool) error {
	d.haveHash = false
	if haveHashes {
		hashes, err := readHashArea(r, 1, needHashes)
		if err != nil {
			return err
		}
		if needHashes {
			d.hash = hashes[0]
			d.haveHash = true
		}
	}
	b, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	d.value = b
	return nil
}

// Value returns the block's constant byte string.
func (d *StrConstDecoder) Value() []byte { return d.value }

// Length returns len(Value()).
func (d *StrConstDecoder) Length() int { return len(d.value) }

// Hash returns the constant value's hash, valid only when ReadHeader
// was called with needHashes.
func (d *StrConstDecoder) Hash() (uint64, bool) { return d.hash, d.haveHash }

// EncodeStrConstBlock builds the bytes StrConstDecoder expects. Pass
// hash=0, haveHash=false to omit the hash area entirely.
func EncodeStrConstBlock(value []byte, hash uint64, haveHash bool) []byte {
	var w byteWriter
	if haveHash {
		writeHashArea(&w, []uint64{hash}, []bool{true})
	}
	w.varBytes(value)
	return w.bytes()
}
