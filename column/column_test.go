package column

import (
	"bytes"
	"testing"

	"github.com/colstride/colex/block"
	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/ioreader"
	"github.com/stretchr/testify/require"
)

func withTag(tag uint64, body []byte) []byte {
	var w headerWriter
	w.uvarint(tag)
	w.raw(body)
	return w.bytes()
}

// buildSegment lays out header+blocks and fixes up h.blockOffsets to
// absolute positions, iterating to a fixed point since the header's
// own encoded length depends on the offsets it carries.
func buildSegment(t *testing.T, h *Header, blockBodies [][]byte) []byte {
	t.Helper()
	var headerLen int
	for i := 0; i < 5; i++ {
		headerBytes := EncodeHeader(h)
		if len(headerBytes) == headerLen {
			pos := int64(len(headerBytes))
			for j, b := range blockBodies {
				h.blockOffsets[j] = pos
				pos += int64(len(b))
			}
			buf := append([]byte{}, headerBytes...)
			for _, b := range blockBodies {
				buf = append(buf, b...)
			}
			return buf
		}
		headerLen = len(headerBytes)
		pos := int64(len(headerBytes))
		for j, b := range blockBodies {
			h.blockOffsets[j] = pos
			pos += int64(len(b))
		}
	}
	t.Fatal("buildSegment: header length did not converge")
	return nil
}

func TestColumnIntDeltaPFORRoundTrip(t *testing.T) {
	c, err := codec.Get("pfor")
	require.NoError(t, err)

	sb0 := make([]uint64, block.SubblockSize)
	for i := range sb0 {
		sb0[i] = uint64(i)
	}
	block0 := withTag(uint64(block.IntDeltaPFOR), block.EncodeIntPForBlock64(c, true, [][]uint64{sb0}))

	h := NewHeader(Int64, false, block.SubblockSize, "pfor", "pfor", []int64{0}, []uint32{block.SubblockSize})
	data := buildSegment(t, h, [][]byte{block0})

	r := ioreader.New(bytes.NewReader(data), 64, 1<<20)
	got, err := OpenHeader(r)
	require.NoError(t, err)
	require.Equal(t, 1, got.BlockCount)

	it, err := NewValueIterator(got, r, false)
	require.NoError(t, err)
	for rowID := int64(0); rowID < block.SubblockSize; rowID++ {
		_, err := it.AdvanceTo(rowID)
		require.NoError(t, err)
		v, err := it.GetValue()
		require.NoError(t, err)
		require.EqualValues(t, rowID, v)
	}
}

func TestColumnIntConstRoundTrip(t *testing.T) {
	block0 := withTag(uint64(block.IntConst), block.EncodeIntConstBlock(99))
	h := NewHeader(Int32, false, 10, "pfor", "pfor", []int64{0}, []uint32{10})
	data := buildSegment(t, h, [][]byte{block0})

	r := ioreader.New(bytes.NewReader(data), 64, 1<<20)
	got, err := OpenHeader(r)
	require.NoError(t, err)

	it, err := NewValueIterator(got, r, false)
	require.NoError(t, err)
	_, err = it.AdvanceTo(5)
	require.NoError(t, err)
	v, err := it.GetValue()
	require.NoError(t, err)
	require.EqualValues(t, 99, v)
}

func TestColumnStringGenericRoundTrip(t *testing.T) {
	sb0 := [][]byte{[]byte("alpha"), []byte("beta"), []byte("c")}
	block0 := withTag(uint64(block.StrGeneric), block.EncodeStrGenericBlock([][][]byte{sb0}))

	h := NewHeader(String, false, len(sb0), "pfor", "pfor", []int64{0}, []uint32{uint32(len(sb0))})
	data := buildSegment(t, h, [][]byte{block0})

	r := ioreader.New(bytes.NewReader(data), 64, 1<<20)
	got, err := OpenHeader(r)
	require.NoError(t, err)

	it, err := NewValueIterator(got, r, false)
	require.NoError(t, err)
	for i, want := range sb0 {
		_, err := it.AdvanceTo(int64(i))
		require.NoError(t, err)
		b, err := it.GetBytes()
		require.NoError(t, err)
		require.Equal(t, string(want), string(b))
	}
}

func TestRowIDToBlock(t *testing.T) {
	h := NewHeader(Int64, false, 100, "pfor", "pfor",
		[]int64{0, 100, 250},
		[]uint32{100, 150, 50})
	require.Equal(t, 0, h.RowIDToBlock(0))
	require.Equal(t, 0, h.RowIDToBlock(99))
	require.Equal(t, 1, h.RowIDToBlock(100))
	require.Equal(t, 2, h.RowIDToBlock(299))
	require.EqualValues(t, 300, h.RowCount())
}
