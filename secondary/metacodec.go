package secondary

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/colstride/colex/codec"
	"github.com/colstride/colex/colexerr"
	"github.com/colstride/colex/ioreader"
	"github.com/colstride/colex/pgm"
)

func writeBitvec(w *headerWriter, bits []bool) {
	packed := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	w.varBytes(packed)
}

func readBitvec(r *ioreader.Reader, n int) ([]bool, error) {
	packed, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	if len(packed) < (n+7)/8 {
		return nil, colexerr.Corruptf("secondary.readBitvec", "bitvec has %d bytes, want at least %d", len(packed), (n+7)/8)
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return bits, nil
}

// decodeMeta parses the already lz4-decompressed meta block, per
// spec.md §6's secondary-index layout: next_meta_off, n_attrs, the
// enabled bitvec, codec32/64 names, values_per_block, per-attr
// {name, type, count_distinct}, the packed per-column block-start
// offset and block-count vectors, then per-attr {pgm_len, pgm_blob}
// with pgm_blob zstd-compressed per SPEC_FULL.md.
func decodeMeta(version uint32, plain []byte) (*Meta, error) {
	r := ioreader.New(bytes.NewReader(plain), len(plain), len(plain))
	m := &Meta{Version: version}

	nextMetaOff, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	m.NextMetaOff = nextMetaOff

	nAttrs, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}

	enabled, err := readBitvec(r, int(nAttrs))
	if err != nil {
		return nil, err
	}
	m.Enabled = enabled

	codec32Raw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	m.Codec32Name = string(codec32Raw)

	codec64Raw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	m.Codec64Name = string(codec64Raw)

	valuesPerBlock, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	m.ValuesPerBlock = valuesPerBlock

	m.Attrs = make([]*Attr, nAttrs)
	for i := range m.Attrs {
		nameRaw, err := r.ReadVarBytes()
		if err != nil {
			return nil, err
		}
		domain, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		countDistinct, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		m.Attrs[i] = &Attr{
			Name:          string(nameRaw),
			Domain:        KeyDomain(domain),
			CountDistinct: countDistinct,
		}
	}

	offsetsRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	offsets, err := codec.DecodeDeltaVector(offsetsRaw)
	if err != nil {
		return nil, err
	}
	if uint64(len(offsets)) != nAttrs {
		return nil, colexerr.Corruptf("secondary.decodeMeta", "block-start offset vector has %d entries, want %d", len(offsets), nAttrs)
	}

	countsRaw, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	counts, err := codec.DecodeVector(countsRaw)
	if err != nil {
		return nil, err
	}
	if uint64(len(counts)) != nAttrs {
		return nil, colexerr.Corruptf("secondary.decodeMeta", "block-count vector has %d entries, want %d", len(counts), nAttrs)
	}

	for i, a := range m.Attrs {
		a.valuesAreaOffset = int64(offsets[i])
		a.blocksCount = int(counts[i])
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, colexerr.IO("secondary.decodeMeta", err)
	}
	defer dec.Close()

	for _, a := range m.Attrs {
		pgmUncompressedLen, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		pgmCompressed, err := r.ReadVarBytes()
		if err != nil {
			return nil, err
		}
		pgmPlain, err := dec.DecodeAll(pgmCompressed, make([]byte, 0, pgmUncompressedLen))
		if err != nil {
			return nil, colexerr.Corrupt("secondary.decodeMeta", err)
		}
		if uint64(len(pgmPlain)) != pgmUncompressedLen {
			return nil, colexerr.Corruptf("secondary.decodeMeta", "pgm blob decompressed to %d bytes, want %d", len(pgmPlain), pgmUncompressedLen)
		}
		idx, err := pgm.Load(pgmPlain)
		if err != nil {
			return nil, err
		}
		a.pgm = idx
	}

	return m, nil
}

// EncodeMetaBlock builds the lz4-compressed meta block for m: every
// field spec.md §6 lists after "meta @ meta_off", with each attr's PGM
// blob zstd-compressed per SPEC_FULL.md. Each Attr's valuesAreaOffset
// and blocksCount must already be set by the caller; neither this
// function nor EncodeFile sets them. Used only by this package's
// own test fixtures — the write side is out of scope per spec.md §1.
func EncodeMetaBlock(m *Meta) []byte {
	var body headerWriter
	body.u64(m.NextMetaOff)
	body.uvarint(uint64(len(m.Attrs)))

	enabled := make([]bool, len(m.Attrs))
	copy(enabled, m.Enabled)
	writeBitvec(&body, enabled)

	body.varString(m.Codec32Name)
	body.varString(m.Codec64Name)
	body.u32(m.ValuesPerBlock)

	for _, a := range m.Attrs {
		body.varString(a.Name)
		body.uvarint(uint64(a.Domain))
		body.uvarint(uint64(a.CountDistinct))
	}

	offsets := make([]uint64, len(m.Attrs))
	counts := make([]uint64, len(m.Attrs))
	for i, a := range m.Attrs {
		offsets[i] = uint64(a.valuesAreaOffset)
		counts[i] = uint64(a.blocksCount)
	}
	body.varBytes(codec.EncodeDeltaVector(offsets))
	body.varBytes(codec.EncodeVector(counts))

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	defer enc.Close()
	for _, a := range m.Attrs {
		raw := a.pgm.Encode()
		compressed := enc.EncodeAll(raw, nil)
		body.uvarint(uint64(len(raw)))
		body.varBytes(compressed)
	}

	plain := body.bytes()
	compressed := make([]byte, lz4.CompressBlockBound(len(plain)))
	var lzc lz4.Compressor
	n, err := lzc.CompressBlock(plain, compressed)
	if err != nil {
		panic(err)
	}
	compressed = compressed[:n]

	var block headerWriter
	block.uvarint(uint64(len(plain)))
	block.varBytes(compressed)
	return block.bytes()
}

// EncodeFile assembles a full secondary-index file: the [u32
// version][u64 meta_off] header, valuesArea verbatim, then m's meta
// block. m's attrs must already carry the valuesAreaOffset/blocksCount
// a caller recorded while building valuesArea (see
// ValuesAreaHeader/EncodeValuesBlock).
func EncodeFile(valuesArea []byte, m *Meta) []byte {
	const headerLen = 4 + 8
	metaOff := uint64(headerLen + len(valuesArea))
	metaBlock := EncodeMetaBlock(m)

	var w headerWriter
	w.u32(currentVersion)
	w.u64(metaOff)
	w.raw(valuesArea)
	w.raw(metaBlock)
	return w.bytes()
}
