package secondary

// floatSortKey maps an IEEE-754 float32 bit pattern into a uint32
// domain whose unsigned ordering matches float value ordering: flip
// every bit for negatives (sign bit set) so larger-magnitude negatives
// sort lower, and set the sign bit for non-negatives so all of them
// sort above every negative. This is the values area's on-disk sort
// key for float-typed columns; it exists because raw IEEE bit-pattern
// order inverts for negatives (filter.CompareFloatBits), so the sorted
// key domain a PGM/binary search walks cannot be the raw bits
// themselves. The transform is a bijection, so ordering comparisons
// (<, <=, >, >=) carry over unchanged between bits-space and
// sort-key-space — a Range/FloatRange scan never needs to invert it.
func floatSortKey(bits uint32) uint32 {
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits | 0x80000000
}

// floatSortKeyInverse undoes floatSortKey, recovering the original
// IEEE-754 bit pattern. Used only when a caller needs the raw bits
// back (e.g. to report a matched value), never by the sweep logic
// itself.
func floatSortKeyInverse(key uint32) uint32 {
	if key&0x80000000 == 0 {
		return ^key
	}
	return key &^ 0x80000000
}
