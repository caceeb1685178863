package block

import "github.com/colstride/colex/ioreader"

// readHashArea decodes the hash area spec.md §4.C describes for String
// Const/Table/Generic blocks: a varint count of non-empty hashes,
// either followed directly by that many uint64 hashes (when the count
// equals nValues, the dense case) or by a null-map blob plus the
// compacted hashes (the sparse case), which readHashArea expands to
// nValues entries with empty strings synthesized as hash 0.
//
// When need is false the area is skipped without allocating, matching
// StrHashReader_c::ReadHashes's "bNeedHashes" fast path in
// original_source/accessor/accessorstr.cpp — a caller that only wants
// lengths/bodies never pays for hash decoding.
func readHashArea(r *ioreader.Reader, nValues int, need bool) ([]uint64, error) {
	numPresent, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if int(numPresent) == nValues {
		if !need {
			r.Seek(r.Pos() + int64(numPresent)*8)
			return nil, r.Err()
		}
		hashes := make([]uint64, nValues)
		for i := range hashes {
			hashes[i], err = r.ReadU64()
			if err != nil {
				return nil, err
			}
		}
		return hashes, nil
	}

	nullMap, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	if !need {
		r.Seek(r.Pos() + int64(numPresent)*8)
		return nil, r.Err()
	}
	present, err := DecodeNullMap(nullMap, nValues)
	if err != nil {
		return nil, err
	}
	compact := make([]uint64, numPresent)
	for i := range compact {
		compact[i], err = r.ReadU64()
		if err != nil {
			return nil, err
		}
	}
	return ExpandNullMap(present, compact), nil
}

// writeHashArea is readHashArea's inverse, used by this package's
// Encode* builders to produce block bytes for tests.
func writeHashArea(w *byteWriter, hashes []uint64, present []bool) {
	allPresent := true
	for _, p := range present {
		if !p {
			allPresent = false
			break
		}
	}
	if allPresent {
		w.uvarint(uint64(len(hashes)))
		for _, h := range hashes {
			w.u64(h)
		}
		return
	}
	compact := CompactNullMap(hashes, present)
	w.uvarint(uint64(len(compact)))
	nullMap, err := EncodeNullMap(present)
	if err != nil {
		panic(err)
	}
	w.varBytes(nullMap)
	for _, h := range compact {
		w.u64(h)
	}
}
