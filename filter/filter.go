package filter

import "math"

// Kind is the filter's value domain, per spec.md §4.E's Filter_t shape.
type Kind int

const (
	Values Kind = iota
	Range
	FloatRange
)

func (k Kind) String() string {
	switch k {
	case Values:
		return "Values"
	case Range:
		return "Range"
	case FloatRange:
		return "FloatRange"
	default:
		return "Unknown"
	}
}

// Filter is F = { kind, include|exclude, values|[min,max], left_closed,
// right_closed, left_unbounded, right_unbounded }. Exclude is only
// valid when Kind is Values; Range and FloatRange are always
// inclusion filters.
type Filter struct {
	Kind    Kind
	Exclude bool

	Values []uint64 // membership set, Kind == Values

	Min, Max   int64   // Kind == Range
	FMin, FMax float32 // Kind == FloatRange

	LeftClosed     bool
	RightClosed    bool
	LeftUnbounded  bool
	RightUnbounded bool
}

// NewEquals builds a singleton Values filter.
func NewEquals(value uint64) Filter {
	return Filter{Kind: Values, Values: []uint64{value}}
}

// NewIn builds a Values membership filter over the given set.
func NewIn(values []uint64) Filter {
	return Filter{Kind: Values, Values: values}
}

// NewRange builds an integer Range filter with explicit closedness.
func NewRange(min, max int64, leftClosed, rightClosed, leftUnbounded, rightUnbounded bool) Filter {
	return Filter{
		Kind: Range, Min: min, Max: max,
		LeftClosed: leftClosed, RightClosed: rightClosed,
		LeftUnbounded: leftUnbounded, RightUnbounded: rightUnbounded,
	}
}

// NewFloatRange builds a FloatRange filter with explicit closedness.
func NewFloatRange(min, max float32, leftClosed, rightClosed, leftUnbounded, rightUnbounded bool) Filter {
	return Filter{
		Kind: FloatRange, FMin: min, FMax: max,
		LeftClosed: leftClosed, RightClosed: rightClosed,
		LeftUnbounded: leftUnbounded, RightUnbounded: rightUnbounded,
	}
}

// NormalizeForFloatColumn applies spec.md §4.E's construction-time
// rewrite for filters built against a float-typed column: a
// single-value Values equality becomes a closed FloatRange, and an
// integer Range becomes a FloatRange with cast endpoints. Filters
// already shaped as FloatRange, Exclude filters (FloatRange has no
// exclusion form), or Values filters with more than one member, pass
// through unchanged (set membership against a float
// column is handled by the caller testing each member individually,
// not by this rewrite).
func NormalizeForFloatColumn(f Filter) Filter {
	switch f.Kind {
	case Values:
		if len(f.Values) != 1 || f.Exclude {
			return f
		}
		v := math.Float32frombits(uint32(f.Values[0]))
		return Filter{
			Kind: FloatRange, FMin: v, FMax: v,
			LeftClosed: true, RightClosed: true,
		}
	case Range:
		return Filter{
			Kind: FloatRange, FMin: float32(f.Min), FMax: float32(f.Max),
			LeftClosed: f.LeftClosed, RightClosed: f.RightClosed,
			LeftUnbounded: f.LeftUnbounded, RightUnbounded: f.RightUnbounded,
		}
	default:
		return f
	}
}

// HashEqualsFilter rewrites a string-equality filter into a Values
// filter over the column's hashed representation, per spec.md §4.G's
// Filter_t fixup ("equality against string columns becomes hash
// equality, using the column's declared hash function"). hash is the
// column's configured hashcol.HashFunc; taking it as a plain function
// value here, rather than importing hashcol directly, keeps this
// package free of a dependency secondary.FixupFilter already owns.
func HashEqualsFilter(values [][]byte, hash func(seed uint64, data []byte) uint64, seed uint64, exclude bool) Filter {
	hashes := make([]uint64, len(values))
	for i, v := range values {
		hashes[i] = hash(seed, v)
	}
	return Filter{Kind: Values, Values: hashes, Exclude: exclude}
}

// CompareFloatBits orders two IEEE-754 bit patterns by the float
// values they represent, not by raw uint32 magnitude. Raw bit-pattern
// ordering is correct for non-negative floats (the exponent and
// mantissa occupy the high bits in magnitude order) but inverts for
// negative floats, whose sign bit is set and whose bit pattern
// decreases as the magnitude increases. Grounded on
// blockreader.cpp's FloatValueCmp_t. The secondary index's range sweep
// does not call it: it compares floatSortKey-mapped keys, whose
// unsigned order already matches float order.
func CompareFloatBits(a, b uint32) int {
	fa := math.Float32frombits(a)
	fb := math.Float32frombits(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

// ValueMatches reports whether a decoded column value (as its raw
// uint64, or its IEEE-754 bit pattern for FloatRange) satisfies f,
// honoring Exclude for Values filters.
func (f Filter) ValueMatches(raw uint64) bool {
	switch f.Kind {
	case Values:
		matched := false
		for _, v := range f.Values {
			if v == raw {
				matched = true
				break
			}
		}
		if f.Exclude {
			return !matched
		}
		return matched
	case Range:
		return ValueInInterval(int64(raw), f.Min, f.Max, f.LeftClosed, f.RightClosed, f.LeftUnbounded, f.RightUnbounded)
	case FloatRange:
		v := math.Float32frombits(uint32(raw))
		if math.IsNaN(float64(v)) {
			return false
		}
		return ValueInInterval(v, f.FMin, f.FMax, f.LeftClosed, f.RightClosed, f.LeftUnbounded, f.RightUnbounded)
	default:
		return false
	}
}
