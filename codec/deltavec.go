package codec

// Vector and DeltaVector wrap the registry's "pfor" codec for the
// handful of structural integer vectors spec.md always encodes the
// same way regardless of a column's declared codec32_name/codec64_name:
// per-subblock cumulative byte sizes, TABLE's sorted value deltas,
// GENERIC string length/offset vectors, and the secondary index's
// block-start-offset tables. spec.md calls these "delta-PFOR-coded"
// as a fixed scheme, distinct from the pluggable codec that encodes a
// column's actual subblock *values* (see block.IntPForDecoder).

var structuralCodec = newPFORCodec()

// EncodeVector encodes values with no delta transform — used for a
// column header's per-block row counts and the secondary index's
// per-attr block counts and values-area block-offset table.
func EncodeVector(values []uint64) []byte {
	return structuralCodec.Encode64(values)
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(data []byte) ([]uint64, error) {
	return structuralCodec.Decode64(data, nil)
}

// EncodeDeltaVector delta-codes values (values[0] absolute, values[i]
// stored as values[i]-values[i-1] for i>0) and PFOR-encodes the
// result.
func EncodeDeltaVector(values []uint64) []byte {
	deltas := make([]uint64, len(values))
	var prev uint64
	for i, v := range values {
		if i == 0 {
			deltas[i] = v
		} else {
			deltas[i] = v - prev
		}
		prev = v
	}
	return structuralCodec.Encode64(deltas)
}

// DecodeDeltaVector is the inverse of EncodeDeltaVector: PFOR-decode
// then apply the inverse prefix sum.
func DecodeDeltaVector(data []byte) ([]uint64, error) {
	deltas, err := structuralCodec.Decode64(data, nil)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(deltas); i++ {
		deltas[i] += deltas[i-1]
	}
	return deltas, nil
}
