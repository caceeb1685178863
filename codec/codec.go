// Package codec implements the pluggable integer array codec spec.md
// §4.B names IntCodec: named 32-bit and 64-bit encoders/decoders
// selected by the string recorded in a column's header, plus the
// fixed-width bit-packing helper TABLE indices use.
//
// The concrete codec set is open (spec.md: "the concrete set of codecs
// is open"); CreateIntCodec in original_source/util/codec.cpp
// dispatches on name to one of a dozen FastPFOR-family implementations.
// This module registers the subset that round-trips correctly without
// a SIMD backend: a frame-of-reference/patched codec ("pfor"), a plain
// varint codec, and an identity "copy" codec — enough for every block
// shape spec.md describes, with Register left open for more.
package codec

import "errors"

// ErrShortBuffer is returned when a decode would read past the end of
// the supplied byte slice.
var ErrShortBuffer = errors.New("codec: short buffer")

// ErrUnknownCodec is returned by Get for an unregistered codec name.
var ErrUnknownCodec = errors.New("codec: unknown codec name")

// IntCodec is the per-column pluggable integer array codec. Decoders
// must be stateless and restartable across calls: nothing in a
// *_pforCodec/*_varintCodec/*_copyCodec carries state between Encode
// and Decode invocations.
type IntCodec interface {
	Name() string
	Encode32(values []uint32) []byte
	Decode32(data []byte, out []uint32) ([]uint32, error)
	Encode64(values []uint64) []byte
	Decode64(data []byte, out []uint64) ([]uint64, error)
}

var registry = map[string]IntCodec{}

func init() {
	Register(newPFORCodec())
	Register(newVarintCodec())
	Register(newCopyCodec())
}

// Register adds or replaces a named codec in the process-wide registry.
func Register(c IntCodec) {
	registry[c.Name()] = c
}

// Get looks up a codec by the name recorded in a column header.
func Get(name string) (IntCodec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, ErrUnknownCodec
	}
	return c, nil
}
