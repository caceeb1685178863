package secondary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstride/colex/filter"
	"github.com/colstride/colex/hashcol"
	"github.com/colstride/colex/pgm"
	"github.com/colstride/colex/rowid"
)

// buildValuesArea packs one column's sorted keys into fixed-size
// blocks (blocksKeys/blocksPayloads are already split per block) and
// returns the area bytes plus the absolute offsets header needs,
// resolving the header/offset chicken-and-egg the way
// analyzer_test.go's buildSegment helper does: iterate encoding until
// the header's own length stabilizes.
func buildValuesArea(t *testing.T, blocksKeys [][]uint64, blocksPayloads [][][]byte) []byte {
	t.Helper()
	var blockBytes [][]byte
	for i, keys := range blocksKeys {
		blockBytes = append(blockBytes, EncodeValuesBlock(keys, blocksPayloads[i]))
	}

	headerLen := 0
	for iter := 0; iter < 5; iter++ {
		offsets := make([]int64, len(blockBytes)+1)
		offsets[0] = int64(headerLen)
		for i, b := range blockBytes {
			offsets[i+1] = offsets[i] + int64(len(b))
		}
		hdr := EncodeValuesAreaHeader(offsets)
		if len(hdr) == headerLen {
			var out []byte
			out = append(out, hdr...)
			for _, b := range blockBytes {
				out = append(out, b...)
			}
			return out
		}
		headerLen = len(hdr)
	}
	t.Fatal("values-area header length did not stabilize")
	return nil
}

func chunk(values []uint64, size int) [][]uint64 {
	var out [][]uint64
	for len(values) > 0 {
		n := size
		if n > len(values) {
			n = len(values)
		}
		out = append(out, values[:n])
		values = values[n:]
	}
	return out
}

// buildIndex assembles a one-column secondary index file from sorted
// keys (ascending, no duplicates) with one single-row posting list
// per key (row id == its position in keys), using valuesPerBlock-sized
// blocks and an epsilon=2 PGM.
func buildIndex(t *testing.T, colName string, domain KeyDomain, keys []uint64, valuesPerBlock int) *Index {
	t.Helper()
	blocksKeys := chunk(keys, valuesPerBlock)
	var blocksPayloads [][][]byte
	rowID := int64(0)
	for _, bk := range blocksKeys {
		var payloads [][]byte
		for range bk {
			payloads = append(payloads, rowid.EncodeRow(rowID))
			rowID++
		}
		blocksPayloads = append(blocksPayloads, payloads)
	}
	valuesArea := buildValuesArea(t, blocksKeys, blocksPayloads)

	idx := pgm.Build(keys, 2)
	a := &Attr{
		Name:             colName,
		Domain:           domain,
		CountDistinct:    int64(len(keys)),
		valuesAreaOffset: 12,
		blocksCount:      len(blocksKeys),
		pgm:              idx,
	}
	m := &Meta{
		Enabled:        []bool{true},
		Codec32Name:    "pfor",
		Codec64Name:    "pfor",
		ValuesPerBlock: uint32(valuesPerBlock),
		Attrs:          []*Attr{a},
	}

	data := EncodeFile(valuesArea, m)
	out, err := Open(bytes.NewReader(data), 64, 1<<20)
	require.NoError(t, err)
	return out
}

func drainAll(t *testing.T, its []*rowid.Iterator) []int64 {
	t.Helper()
	var out []int64
	buf := make([]int64, 8)
	for _, it := range its {
		for {
			n, more, err := it.NextBlock(buf)
			require.NoError(t, err)
			out = append(out, buf[:n]...)
			if !more {
				break
			}
		}
	}
	return out
}

func TestIndexOpenRecoversMeta(t *testing.T) {
	keys := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	idx := buildIndex(t, "amount", KeyInt, keys, 3)
	require.Equal(t, uint32(3), idx.meta.ValuesPerBlock)
	require.Len(t, idx.meta.Attrs, 1)
	require.Equal(t, "amount", idx.meta.Attrs[0].Name)
	enabled, err := idx.IsEnabled("amount")
	require.NoError(t, err)
	require.True(t, enabled)
	cd, err := idx.CountDistinct("amount")
	require.NoError(t, err)
	require.EqualValues(t, 10, cd)
}

func TestCreateIteratorsValuesEquality(t *testing.T) {
	keys := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	idx := buildIndex(t, "amount", KeyInt, keys, 3)

	f := filter.NewIn([]uint64{30, 70, 999})
	its, err := idx.CreateIterators("amount", f, nil)
	require.NoError(t, err)
	require.Len(t, its, 2) // 999 has no matching key

	rows := drainAll(t, its)
	require.ElementsMatch(t, []int64{2, 6}, rows) // key 30 is index 2, key 70 is index 6
}

func TestCreateIteratorsRangeWithRowIDBound(t *testing.T) {
	keys := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	idx := buildIndex(t, "amount", KeyInt, keys, 3)

	f := filter.NewRange(25, 65, true, true, false, false) // BETWEEN 25 AND 65
	its, err := idx.CreateIterators("amount", f, &rowid.Range{Min: 3, Max: 100})
	require.NoError(t, err)
	// keys 30,40,50,60 match the value range -> rows 2,3,4,5; the
	// rowid.Range{3,100} additionally excludes row 2.
	rows := drainAll(t, its)
	require.ElementsMatch(t, []int64{3, 4, 5}, rows)
}

func TestEstimateNumIteratorsDoesNotOpenBlocks(t *testing.T) {
	keys := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	idx := buildIndex(t, "amount", KeyInt, keys, 3)

	n, err := idx.EstimateNumIterators("amount", filter.NewIn([]uint64{30}))
	require.NoError(t, err)
	require.Greater(t, n, uint32(0))
}

func TestFixupFilterRewritesStringEqualityToHash(t *testing.T) {
	keys := []uint64{100, 200, 300}
	idx := buildIndex(t, "name", KeyString, keys, 3)

	f := filter.NewEquals(0) // placeholder, rewritten by FixupFilter
	fixed, err := idx.FixupFilter("name", f, hashcol.FNV1a, [][]byte{[]byte("abc")})
	require.NoError(t, err)
	require.Equal(t, filter.Values, fixed.Kind)
	require.Len(t, fixed.Values, 1)
	want, _ := hashcol.Hash(hashcol.FNV1a, hashcol.DefaultSeed, []byte("abc"))
	require.Equal(t, want, fixed.Values[0])
}

func TestFixupFilterNormalizesFloatEquality(t *testing.T) {
	keys := []uint64{1, 2, 3}
	idx := buildIndex(t, "score", KeyFloat, keys, 3)

	f := filter.NewEquals(0x3f800000) // 1.0 as IEEE bits
	fixed, err := idx.FixupFilter("score", f, hashcol.FNV1a, nil)
	require.NoError(t, err)
	require.Equal(t, filter.FloatRange, fixed.Kind)
	require.Equal(t, float32(1.0), fixed.FMin)
	require.Equal(t, float32(1.0), fixed.FMax)
}

func TestMarkColumnUpdatedAndSaveMeta(t *testing.T) {
	keys := []uint64{10, 20, 30}
	idx := buildIndex(t, "amount", KeyInt, keys, 3)

	require.NoError(t, idx.MarkColumnUpdated("amount"))
	enabled, err := idx.IsEnabled("amount")
	require.NoError(t, err)
	require.False(t, enabled)

	data, offset, err := idx.SaveMeta()
	require.NoError(t, err)
	require.Greater(t, offset, int64(0))
	require.NotEmpty(t, data)
}
