package blockcache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstride/colex/column"
)

// countingReaderAt wraps a []byte source and counts how many ReadAt
// calls reach it, so tests can assert a cache hit skipped the
// underlying read entirely.
type countingReaderAt struct {
	data  []byte
	reads int
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.reads++
	return bytes.NewReader(c.data).ReadAt(p, off)
}

func TestReaderAtCachesWholeBlockOnFirstTouch(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	h := column.NewHeader(column.Int32, false, 4, "pfor", "pfor",
		[]int64{0, 100, 200}, []uint32{4, 4, 4})

	src := &countingReaderAt{data: data}
	cache, err := New(8, nil)
	require.NoError(t, err)
	r := NewReaderAt(src, cache, "seg-a", h)

	buf := make([]byte, 10)
	n, err := r.ReadAt(buf, 5)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, data[5:15], buf)
	require.Equal(t, 1, src.reads)
	require.Equal(t, 1, cache.Len())

	buf2 := make([]byte, 20)
	n, err = r.ReadAt(buf2, 50)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	require.Equal(t, data[50:70], buf2)
	require.Equal(t, 1, src.reads) // served from cache, no second underlying read

	// A read into the final block (unknown length) always passes through.
	buf3 := make([]byte, 10)
	n, err = r.ReadAt(buf3, 250)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, data[250:260], buf3)
	require.Equal(t, 2, src.reads)
}

func TestReaderAtPassesThroughReadsSpanningBlockBoundary(t *testing.T) {
	data := make([]byte, 300)
	h := column.NewHeader(column.Int32, false, 4, "pfor", "pfor",
		[]int64{0, 100, 200}, []uint32{4, 4, 4})

	src := &countingReaderAt{data: data}
	cache, err := New(8, nil)
	require.NoError(t, err)
	r := NewReaderAt(src, cache, "seg-a", h)

	buf := make([]byte, 20)
	_, err = r.ReadAt(buf, 95) // spans block 0 -> block 1
	require.NoError(t, err)
	require.Equal(t, 1, src.reads)
	require.Equal(t, 0, cache.Len())
}

func TestCacheHitMissMetricsByKey(t *testing.T) {
	cache, err := New(4, nil)
	require.NoError(t, err)

	_, ok := cache.Get(Key{Segment: "s", Block: 0})
	require.False(t, ok)

	cache.Add(Key{Segment: "s", Block: 0}, []byte("hello"))
	v, ok := cache.Get(Key{Segment: "s", Block: 0})
	require.True(t, ok)
	require.Equal(t, []byte("hello"), v)

	cache.ObserveScanRows(128)
}
