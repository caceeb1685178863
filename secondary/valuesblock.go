package secondary

import (
	"sort"

	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
)

// ValuesAreaHeader is the self-describing block-offset table at the
// start of one column's sorted-values area, mirroring spec.md §6's
// segment value file header shape (`offsets[n_blocks+1]`) so a block's
// byte length is always `offsets[i+1]-offsets[i]` without needing to
// decode the block itself.
type ValuesAreaHeader struct {
	BlockCount int
	offsets    []int64 // length BlockCount+1, relative to the area's own start
}

// OpenValuesAreaHeader reads a ValuesAreaHeader from r at its current
// position.
func OpenValuesAreaHeader(r *ioreader.Reader) (*ValuesAreaHeader, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	offsets, err := codec.DecodeVector(raw)
	if err != nil {
		return nil, err
	}
	if uint64(len(offsets)) != n+1 {
		return nil, colexerr.Corruptf("secondary.OpenValuesAreaHeader", "offset table has %d entries, want %d", len(offsets), n+1)
	}
	h := &ValuesAreaHeader{BlockCount: int(n), offsets: make([]int64, len(offsets))}
	for i, v := range offsets {
		h.offsets[i] = int64(v)
	}
	return h, nil
}

// BlockOffset returns block i's byte offset relative to the area's
// start.
func (h *ValuesAreaHeader) BlockOffset(i int) int64 { return h.offsets[i] }

// EncodeValuesAreaHeader builds the header bytes for blockCount blocks
// whose relative byte offsets are offsets (length blockCount+1).
func EncodeValuesAreaHeader(offsets []int64) []byte {
	var w headerWriter
	w.uvarint(uint64(len(offsets) - 1))
	u := make([]uint64, len(offsets))
	for i, v := range offsets {
		u[i] = uint64(v)
	}
	w.varBytes(codec.EncodeVector(u))
	return w.bytes()
}

// ValuesBlock is one decoded block of a column's sorted-values area:
// the sorted keys it holds plus, for each key, the byte range of its
// row-id-iterator payload. Grounded on spec.md §4.G's "decode the
// sorted values array... read the block's trailing types/sizes/
// row-starts arrays" — types is kept for a caller wanting to
// cheaply classify entries without touching payload bytes (e.g. "is
// this a singleton Row") even though this package's own scan logic
// only needs sizes to locate each payload.
type ValuesBlock struct {
	Keys  []uint64
	Types []byte

	payloadBase int64
	cumSizes    []uint64
}

// DecodeValuesBlock reads one block's metadata (keys, types, and the
// cumulative payload-size vector) from r at its current position,
// without reading any row-id-iterator payload bytes.
func DecodeValuesBlock(r *ioreader.Reader) (*ValuesBlock, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	keysRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	keys, err := codec.DecodeDeltaVector(keysRaw)
	if err != nil {
		return nil, err
	}
	if uint64(len(keys)) != n {
		return nil, colexerr.Corruptf("secondary.DecodeValuesBlock", "key vector has %d entries, want %d", len(keys), n)
	}

	types, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	if uint64(len(types)) != n {
		return nil, colexerr.Corruptf("secondary.DecodeValuesBlock", "type vector has %d entries, want %d", len(types), n)
	}

	sizesRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	sizes, err := codec.DecodeDeltaVector(sizesRaw)
	if err != nil {
		return nil, err
	}
	if uint64(len(sizes)) != n {
		return nil, colexerr.Corruptf("secondary.DecodeValuesBlock", "size vector has %d entries, want %d", len(sizes), n)
	}

	return &ValuesBlock{
		Keys: keys, Types: types,
		payloadBase: r.Pos(),
		cumSizes:    sizes,
	}, nil
}

// Min and Max return the block's lowest and highest key; blocks are
// assumed non-empty.
func (b *ValuesBlock) Min() uint64 { return b.Keys[0] }
func (b *ValuesBlock) Max() uint64 { return b.Keys[len(b.Keys)-1] }

// Find returns the index of key within the block via binary search,
// or ok=false if absent.
func (b *ValuesBlock) Find(key uint64) (idx int, ok bool) {
	i := sort.Search(len(b.Keys), func(i int) bool { return b.Keys[i] >= key })
	if i < len(b.Keys) && b.Keys[i] == key {
		return i, true
	}
	return -1, false
}

// PayloadRange returns key i's row-id-iterator payload as an absolute
// byte range, given the block's own absolute start offset (the area's
// start plus the header's relative BlockOffset).
func (b *ValuesBlock) PayloadRange(i int) (start, end int64) {
	var from uint64
	if i > 0 {
		from = b.cumSizes[i-1]
	}
	return b.payloadBase + int64(from), b.payloadBase + int64(b.cumSizes[i])
}

// EncodeValuesBlock builds one block from parallel sorted keys and
// their already-tagged row-id-iterator payloads (e.g. rowid.EncodeRow,
// EncodeRowBlock, EncodeRowBlocksList).
func EncodeValuesBlock(keys []uint64, payloads [][]byte) []byte {
	types := make([]byte, len(payloads))
	sizes := make([]uint64, len(payloads))
	var body []byte
	for i, p := range payloads {
		types[i] = p[0]
		body = append(body, p...)
		sizes[i] = uint64(len(body))
	}
	var w headerWriter
	w.uvarint(uint64(len(keys)))
	w.varBytes(codec.EncodeDeltaVector(keys))
	w.varBytes(types)
	w.varBytes(codec.EncodeDeltaVector(sizes))
	w.raw(body)
	return w.bytes()
}
