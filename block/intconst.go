package block

import "github.com/colstride/colex/ioreader"

// IntConstDecoder implements spec.md §4.C's Integer CONST block: a
// single varint value shared by every row in the block. Grounded on
// original_source/accessor/accessorint.cpp's
// StoredBlock_Int_Const_T::ReadHeader.
type IntConstDecoder struct {
	value uint64
}

// ReadHeader reads the block's single constant value.
func (d *IntConstDecoder) ReadHeader(r *ioreader.Reader) error {
	v, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	d.value = v
	return nil
}

// Value returns the block's constant value for every row index.
func (d *IntConstDecoder) Value(int) uint64 { return d.value }

// EncodeIntConstBlock builds the bytes IntConstDecoder.ReadHeader
// expects, for use by tests.
func EncodeIntConstBlock(value uint64) []byte {
	var w byteWriter
	w.uvarint(value)
	return w.bytes()
}
