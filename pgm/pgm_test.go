package pgm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSearchBracketsTruePosition(t *testing.T) {
	keys := make([]uint64, 10000)
	for i := range keys {
		keys[i] = uint64(i * 3)
	}
	idx := Build(keys, 8)
	for _, i := range []int{0, 1, 500, 4999, 9999} {
		pos := idx.Search(keys[i])
		require.LessOrEqualf(t, pos.Lo, int64(i), "key %d: lo=%d pos=%d hi=%d", keys[i], pos.Lo, pos.Pos, pos.Hi)
		require.GreaterOrEqualf(t, pos.Hi, int64(i), "key %d: lo=%d pos=%d hi=%d", keys[i], pos.Lo, pos.Pos, pos.Hi)
		require.True(t, pos.Lo <= pos.Pos && pos.Pos <= pos.Hi)
	}
}

func TestBuildSearchWithDuplicateKeys(t *testing.T) {
	keys := []uint64{1, 1, 1, 2, 2, 5, 5, 5, 5, 9}
	idx := Build(keys, 2)
	for i, k := range keys {
		pos := idx.Search(k)
		// k occupies the run [first, last]; [Lo, Hi] must hold at least
		// one position of that run.
		first, last := i, i
		for first > 0 && keys[first-1] == k {
			first--
		}
		for last < len(keys)-1 && keys[last+1] == k {
			last++
		}
		require.LessOrEqual(t, pos.Lo, int64(last))
		require.GreaterOrEqual(t, pos.Hi, int64(first))
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	keys := make([]uint64, 5000)
	for i := range keys {
		keys[i] = uint64(i*i%100000 + i)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			keys[i] = keys[i-1]
		}
	}
	idx := Build(keys, 4)
	data := idx.Encode()

	got, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, idx.epsilon, got.epsilon)
	require.Equal(t, idx.n, got.n)
	require.Equal(t, idx.segments, got.segments)

	for _, i := range []int{0, 1234, 4999} {
		pos := got.Search(keys[i])
		// The clamping above leaves long runs of equal keys; [Lo, Hi]
		// must hold at least one position of keys[i]'s run.
		first, last := i, i
		for first > 0 && keys[first-1] == keys[i] {
			first--
		}
		for last < len(keys)-1 && keys[last+1] == keys[i] {
			last++
		}
		require.LessOrEqual(t, pos.Lo, int64(last))
		require.GreaterOrEqual(t, pos.Hi, int64(first))
	}
}

func TestSearchOnEmptyIndex(t *testing.T) {
	idx := Build(nil, 4)
	pos := idx.Search(42)
	require.Equal(t, ApproxPos{0, 0, -1}, pos)
}
