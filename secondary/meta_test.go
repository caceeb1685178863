package secondary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colstride/colex/pgm"
)

func TestEncodeFileOpenMetaRoundTrip(t *testing.T) {
	keys := []uint64{1, 2, 3, 4, 5}
	idxA := pgm.Build(keys, 1)
	idxB := pgm.Build([]uint64{10, 20, 30}, 1)

	m := &Meta{
		NextMetaOff:    0,
		Enabled:        []bool{true, false},
		Codec32Name:    "pfor",
		Codec64Name:    "varint",
		ValuesPerBlock: 4,
		Attrs: []*Attr{
			{Name: "a", Domain: KeyInt, CountDistinct: 5, valuesAreaOffset: 12, blocksCount: 2, pgm: idxA},
			{Name: "b", Domain: KeyString, CountDistinct: 3, valuesAreaOffset: 50, blocksCount: 1, pgm: idxB},
		},
	}

	valuesArea := make([]byte, 38) // dummy placeholder bytes of the right total length
	data := EncodeFile(valuesArea, m)

	idx, err := Open(bytes.NewReader(data), 64, 1<<20)
	require.NoError(t, err)

	require.Equal(t, currentVersion, idx.meta.Version)
	require.Equal(t, []bool{true, false}, idx.meta.Enabled)
	require.Equal(t, "pfor", idx.meta.Codec32Name)
	require.Equal(t, "varint", idx.meta.Codec64Name)
	require.EqualValues(t, 4, idx.meta.ValuesPerBlock)
	require.Len(t, idx.meta.Attrs, 2)
	require.Equal(t, "a", idx.meta.Attrs[0].Name)
	require.Equal(t, KeyInt, idx.meta.Attrs[0].Domain)
	require.EqualValues(t, 5, idx.meta.Attrs[0].CountDistinct)
	require.Equal(t, 2, idx.meta.Attrs[0].blocksCount)
	require.Equal(t, "b", idx.meta.Attrs[1].Name)
	require.Equal(t, KeyString, idx.meta.Attrs[1].Domain)

	for _, i := range []int{0, 2, 4} {
		pos := idx.meta.Attrs[0].pgm.Search(keys[i])
		require.LessOrEqual(t, pos.Lo, int64(i))
		require.GreaterOrEqual(t, pos.Hi, int64(i))
	}
}

func TestOpenMetaRejectsFutureVersion(t *testing.T) {
	var w headerWriter
	w.u32(currentVersion + 1)
	w.u64(0)
	_, err := Open(bytes.NewReader(w.bytes()), 64, 1<<20)
	require.Error(t, err)
}
