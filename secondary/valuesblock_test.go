package secondary

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstride/colex/ioreader"
	"github.com/colstride/colex/rowid"
)

func TestValuesBlockFindAndPayloadRange(t *testing.T) {
	keys := []uint64{5, 10, 15, 20}
	payloads := [][]byte{
		rowid.EncodeRow(100),
		rowid.EncodeRow(101),
		rowid.EncodeRowBlock([]int64{1, 2, 3}),
		rowid.EncodeRow(103),
	}
	data := EncodeValuesBlock(keys, payloads)

	r := ioreader.New(bytes.NewReader(data), 64, 1<<20)
	block, err := DecodeValuesBlock(r)
	require.NoError(t, err)
	require.Equal(t, keys, block.Keys)
	require.EqualValues(t, 5, block.Min())
	require.EqualValues(t, 20, block.Max())

	i, ok := block.Find(15)
	require.True(t, ok)
	require.Equal(t, 2, i)

	_, ok = block.Find(12)
	require.False(t, ok)

	start, end := block.PayloadRange(2)
	r.Seek(start)
	raw, _, err := r.ReadInto(int(end - start))
	require.NoError(t, err)
	require.Equal(t, payloads[2], raw)
}

func TestValuesAreaHeaderRoundTrip(t *testing.T) {
	offsets := []int64{0, 40, 95, 150}
	data := EncodeValuesAreaHeader(offsets)

	r := ioreader.New(bytes.NewReader(data), 64, 1<<20)
	h, err := OpenValuesAreaHeader(r)
	require.NoError(t, err)
	require.Equal(t, 3, h.BlockCount)
	for i, want := range offsets {
		require.EqualValues(t, want, h.BlockOffset(i))
	}
}

func TestFloatSortKeyPreservesOrdering(t *testing.T) {
	vals := []float32{-100, -1, -0.5, 0, 0.5, 1, 100}
	var keys []uint32
	for _, v := range vals {
		keys = append(keys, floatSortKey(math.Float32bits(v)))
	}
	for i := 1; i < len(keys); i++ {
		require.Lessf(t, keys[i-1], keys[i], "vals[%d]=%v vals[%d]=%v", i-1, vals[i-1], i, vals[i])
	}
	for _, v := range vals {
		bits := math.Float32bits(v)
		require.Equal(t, bits, floatSortKeyInverse(floatSortKey(bits)))
	}
}
