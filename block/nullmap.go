package block

import (
	roaring "github.com/RoaringBitmap/roaring/v2"
)

// EncodeNullMap serializes the set of indices where present[i] is true
// as a roaring bitmap. spec.md §4.C describes the null-map as "a
// 128-bit null-map per 128-value subblock"; we generalize the
// container to roaring so the same encoder serves the 128-wide
// subblock case and String TABLE's up-to-256-wide table case without
// two separate formats.
func EncodeNullMap(present []bool) ([]byte, error) {
	bm := roaring.New()
	for i, p := range present {
		if p {
			bm.Add(uint32(i))
		}
	}
	return bm.ToBytes()
}

// DecodeNullMap expands a roaring-encoded null-map back into a dense
// []bool of length n.
func DecodeNullMap(data []byte, n int) ([]bool, error) {
	bm := roaring.New()
	if _, err := bm.FromBuffer(data); err != nil {
		return nil, err
	}
	present := make([]bool, n)
	it := bm.Iterator()
	for it.HasNext() {
		idx := it.Next()
		if int(idx) < n {
			present[idx] = true
		}
	}
	return present, nil
}

// ExpandNullMap walks present and compact from the end backwards,
// writing compact[k] at each set bit and 0 at each cleared bit into a
// dense []uint64 of length len(present). Matches spec.md §4.C's
// "Hash-area null-map expansion": backwards so the same algorithm
// tolerates an in-place expansion when dense aliases compact.
func ExpandNullMap(present []bool, compact []uint64) []uint64 {
	dense := make([]uint64, len(present))
	src := len(compact) - 1
	for i := len(present) - 1; i >= 0; i-- {
		if present[i] {
			dense[i] = compact[src]
			src--
		} else {
			dense[i] = 0
		}
	}
	return dense
}

// CompactNullMap is EncodeNullMap's hash-array counterpart used by test
// fixtures that build block bytes: given the dense hashes and which
// ones are non-empty, returns the compacted (present-only) hash list
// in original order; present itself serves as the null map.
func CompactNullMap(hashes []uint64, present []bool) (compact []uint64) {
	compact = make([]uint64, 0, len(hashes))
	for i, p := range present {
		if p {
			compact = append(compact, hashes[i])
		}
	}
	return compact
}
