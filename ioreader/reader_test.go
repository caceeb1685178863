package ioreader

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWidthLE(t *testing.T) {
	src := bytes.NewReader([]byte{
		0x2a,                   // u8
		0x34, 0x12,             // u16 -> 0x1234
		0x78, 0x56, 0x34, 0x12, // u32 -> 0x12345678
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // u64
	})
	r := New(src, 4, 64)
	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x2a), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	u64, err := r.ReadU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)
}

func TestUvarint(t *testing.T) {
	// 300 encodes as [0xac, 0x02] in LEB128.
	src := bytes.NewReader([]byte{0xac, 0x02, 0x00})
	r := New(src, 2, 8)
	v, err := r.ReadUvarint()
	require.NoError(t, err)
	assert.EqualValues(t, 300, v)
}

func TestSeekAndReread(t *testing.T) {
	src := bytes.NewReader([]byte("abcdefghij"))
	r := New(src, 4, 16)
	b, ok, err := r.ReadInto(4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("abcd"), b)

	r.Seek(8)
	b, _, err = r.ReadInto(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("ij"), b)

	r.Seek(0)
	b, _, err = r.ReadInto(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)
}

func TestReadIntoOwnedFallback(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	r := New(src, 4, 16)
	// A request crossing the small buffer window falls back to an
	// owned copy rather than a borrow.
	b, ok, err := r.ReadInto(9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []byte("012345678"), b)
}

func TestStickyErrorOnTruncation(t *testing.T) {
	src := bytes.NewReader([]byte("ab"))
	r := New(src, 4, 16)
	_, err := r.ReadU32()
	require.Error(t, err)
	// Once set, the error persists across further calls.
	_, err2 := r.ReadU8()
	require.Error(t, err2)
	assert.Equal(t, err, err2)
}

func TestBufferOverflow(t *testing.T) {
	src := bytes.NewReader(make([]byte, 100))
	r := New(src, 4, 8)
	_, err := r.slice(9)
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestReadVarBytes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x05}) // length 5
	buf.WriteString("hello")
	r := New(bytes.NewReader(buf.Bytes()), 4, 32)
	b, err := r.ReadVarBytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestEOF(t *testing.T) {
	r := New(bytes.NewReader(nil), 4, 16)
	_, err := r.ReadU8()
	assert.ErrorIs(t, err, io.EOF)
}
