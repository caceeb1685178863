package rowid

import (
	"bytes"
	"testing"

	"github.com/colstride/colex/ioreader"
	"github.com/stretchr/testify/require"
)

func newReader(t *testing.T, data []byte) *ioreader.Reader {
	t.Helper()
	return ioreader.New(bytes.NewReader(data), 64, 1<<20)
}

func drain(t *testing.T, it *Iterator) []int64 {
	t.Helper()
	var out []int64
	buf := make([]int64, 4)
	for {
		n, more, err := it.NextBlock(buf)
		require.NoError(t, err)
		out = append(out, buf[:n]...)
		if !more {
			break
		}
	}
	return out
}

func TestRowRoundTrip(t *testing.T) {
	data := EncodeRow(42)
	it, err := Open(newReader(t, data), nil)
	require.NoError(t, err)
	require.Equal(t, []int64{42}, drain(t, it))
	require.EqualValues(t, 1, it.CountProcessed())
}

func TestRowOutsideRangeYieldsNothing(t *testing.T) {
	data := EncodeRow(42)
	it, err := Open(newReader(t, data), &Range{Min: 0, Max: 10})
	require.NoError(t, err)
	require.Empty(t, drain(t, it))
}

func TestRowBlockRoundTripAndChunking(t *testing.T) {
	values := []int64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89}
	data := EncodeRowBlock(values)
	it, err := Open(newReader(t, data), nil)
	require.NoError(t, err)
	require.Equal(t, values, drain(t, it))
}

func TestRowBlockRange(t *testing.T) {
	values := []int64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89}
	data := EncodeRowBlock(values)
	it, err := Open(newReader(t, data), &Range{Min: 5, Max: 21})
	require.NoError(t, err)
	require.Equal(t, []int64{5, 8, 13, 21}, drain(t, it))
}

func TestRowBlocksListSkipsNonOverlappingBlocks(t *testing.T) {
	blocks := [][]int64{
		{0, 1, 2, 3},
		{100, 101, 102},
		{200, 201, 202, 203, 204},
	}
	data := EncodeRowBlocksList(blocks)

	it, err := Open(newReader(t, data), &Range{Min: 90, Max: 150})
	require.NoError(t, err)
	require.Equal(t, []int64{100, 101, 102}, drain(t, it))
	require.EqualValues(t, 3, it.CountProcessed())
}

func TestRowBlocksListTrimsPartiallyOverlappingBlock(t *testing.T) {
	blocks := [][]int64{
		{0, 1, 2, 3},
		{100, 101, 102},
		{200, 201, 202, 203, 204},
	}
	data := EncodeRowBlocksList(blocks)

	// [101,150] overlaps the {100,101,102} block (its min/max bracket
	// satisfies the block-level skip test) but row 100 itself falls
	// outside the range and must not be emitted.
	it, err := Open(newReader(t, data), &Range{Min: 101, Max: 150})
	require.NoError(t, err)
	require.Equal(t, []int64{101, 102}, drain(t, it))
	require.EqualValues(t, 2, it.CountProcessed())
}

func TestRowBlocksListNoRangeVisitsAll(t *testing.T) {
	blocks := [][]int64{
		{0, 1, 2},
		{10, 11},
		{20, 21, 22, 23},
	}
	data := EncodeRowBlocksList(blocks)

	it, err := Open(newReader(t, data), nil)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2, 10, 11, 20, 21, 22, 23}, drain(t, it))
}

func TestRowBlocksListHintNarrowsStartingBlock(t *testing.T) {
	blocks := [][]int64{
		{0, 1, 2},
		{10, 11},
		{20, 21, 22, 23},
	}
	data := EncodeRowBlocksList(blocks)

	it, err := Open(newReader(t, data), nil)
	require.NoError(t, err)
	it.Hint(15)
	require.Equal(t, []int64{20, 21, 22, 23}, drain(t, it))
}
