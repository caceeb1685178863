package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueInIntervalCombinations(t *testing.T) {
	require.True(t, ValueInInterval[int64](5, 1, 10, true, true, false, false))
	require.False(t, ValueInInterval[int64](1, 1, 10, false, true, false, false))
	require.True(t, ValueInInterval[int64](1, 1, 10, true, true, false, false))
	require.False(t, ValueInInterval[int64](10, 1, 10, true, false, false, false))
	require.True(t, ValueInInterval[int64](100, 0, 0, false, false, false, true))
	require.True(t, ValueInInterval[int64](-100, 0, 0, false, false, true, false))
	require.True(t, ValueInInterval[int64](0, 0, 0, true, true, true, true))
	// Both bounds unbounded must match everything, not just values that
	// happen to fall within [min,max]; min=max=0 here would wrongly
	// reject anything above 0 if the identity short-circuit were missing.
	require.True(t, ValueInInterval(int64(1000), 0, 0, true, true, true, true))
	require.True(t, ValueInInterval(int64(-1000), 0, 0, true, true, true, true))
}

func TestIntervalOverlapsAndLess(t *testing.T) {
	a := Interval[int64]{Start: 1, End: 5}
	b := Interval[int64]{Start: 5, End: 9}
	c := Interval[int64]{Start: 6, End: 9}
	require.True(t, a.Overlaps(b))
	require.False(t, a.Overlaps(c))
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestFilterValuesMembership(t *testing.T) {
	f := NewIn([]uint64{10, 20, 30})
	require.True(t, f.ValueMatches(20))
	require.False(t, f.ValueMatches(25))

	f.Exclude = true
	require.False(t, f.ValueMatches(20))
	require.True(t, f.ValueMatches(25))
}

func TestFilterRangeClosedOpenUnbounded(t *testing.T) {
	f := NewRange(10, 20, true, false, false, false)
	require.True(t, f.ValueMatches(10))
	require.False(t, f.ValueMatches(20))

	open := NewRange(0, 0, false, false, true, true)
	require.True(t, open.ValueMatches(math.MaxUint64))
	// math.MaxUint64 casts to int64(-1), which the old leftUnbounded
	// branch happened to accept anyway; probe a large positive value
	// too so a regression of the identity short-circuit is caught.
	require.True(t, open.ValueMatches(1000))
}

func TestNormalizeForFloatColumnSingletonEquality(t *testing.T) {
	bits := math.Float32bits(3.5)
	f := NewEquals(uint64(bits))
	got := NormalizeForFloatColumn(f)
	require.Equal(t, FloatRange, got.Kind)
	require.Equal(t, float32(3.5), got.FMin)
	require.Equal(t, float32(3.5), got.FMax)
	require.True(t, got.LeftClosed && got.RightClosed)
	require.True(t, got.ValueMatches(uint64(bits)))
}

func TestNormalizeForFloatColumnRange(t *testing.T) {
	f := NewRange(1, 10, true, true, false, false)
	got := NormalizeForFloatColumn(f)
	require.Equal(t, FloatRange, got.Kind)
	require.Equal(t, float32(1), got.FMin)
	require.Equal(t, float32(10), got.FMax)
}

func TestNormalizeForFloatColumnPassesThroughMultiValueSet(t *testing.T) {
	f := NewIn([]uint64{1, 2, 3})
	got := NormalizeForFloatColumn(f)
	require.Equal(t, Values, got.Kind)
}

func TestFloatRangeEqualityIsBitExactAndRejectsNaN(t *testing.T) {
	bits := math.Float32bits(2.0)
	f := Filter{Kind: FloatRange, FMin: 2.0, FMax: 2.0, LeftClosed: true, RightClosed: true}
	require.True(t, f.ValueMatches(uint64(bits)))

	nanBits := math.Float32bits(float32(math.NaN()))
	require.False(t, f.ValueMatches(uint64(nanBits)))
}

func TestCompareFloatBitsOrdersNegativesCorrectly(t *testing.T) {
	neg1 := math.Float32bits(-1.0)
	neg100 := math.Float32bits(-100.0)
	// raw bit patterns order the other way from float value: -100.0
	// has the larger bit pattern despite being the smaller float.
	require.Less(t, neg1, neg100)
	require.Equal(t, 1, CompareFloatBits(neg1, neg100))
	require.Equal(t, -1, CompareFloatBits(neg100, neg1))
}

func TestHashEqualsFilterRewritesToValuesOverHashes(t *testing.T) {
	hashFn := func(seed uint64, data []byte) uint64 {
		var h uint64 = seed
		for _, b := range data {
			h = h*31 + uint64(b)
		}
		return h
	}
	f := HashEqualsFilter([][]byte{[]byte("abc"), []byte("xyz")}, hashFn, 1, false)
	require.Equal(t, Values, f.Kind)
	require.Len(t, f.Values, 2)
	require.True(t, f.ValueMatches(hashFn(1, []byte("abc"))))
	require.False(t, f.ValueMatches(hashFn(1, []byte("qqq"))))
}
