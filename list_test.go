package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitListLayout(t *testing.T) {
	_, seg := newTestMessage(t)
	l, err := NewBitList(seg, 10)
	require.NoError(t, err)

	require.NoError(t, l.SetBit(0, true))
	require.NoError(t, l.SetBit(7, true))
	require.NoError(t, l.SetBit(8, true))

	assert.True(t, l.Bit(0))
	assert.True(t, l.Bit(7))
	assert.True(t, l.Bit(8))
	assert.False(t, l.Bit(1))
	assert.False(t, l.Bit(9))

	// Bits 0 and 7 live in byte 0; verify the little-endian-within-byte
	// placement directly against the backing bytes.
	b := l.Segment().readUint8(l.address())
	assert.Equal(t, uint8(0x81), b)
}

func TestCompositeListRoundTrip(t *testing.T) {
	_, seg := newTestMessage(t)
	l, err := NewCompositeList(seg, ObjectSize{DataSize: 8, PointerCount: 1}, 3)
	require.NoError(t, err)
	require.Equal(t, 3, l.Len())

	for i := 0; i < 3; i++ {
		st := l.Struct(i)
		require.NoError(t, st.SetUint64(0, uint64(i*10)))
		require.NoError(t, st.SetText(0, "item"))
	}

	for i := 0; i < 3; i++ {
		st := l.Struct(i)
		assert.Equal(t, uint64(i*10), st.Uint64(0))
		s, err := st.Text(0)
		require.NoError(t, err)
		assert.Equal(t, "item", s)
	}
}

func TestPointerListRoundTrip(t *testing.T) {
	_, seg := newTestMessage(t)
	pl, err := NewPointerList(seg, 2)
	require.NoError(t, err)

	inner, err := NewStruct(seg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, inner.SetUint64(0, 99))

	require.NoError(t, pl.Set(0, inner.ToPtr()))
	p, err := pl.At(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), p.Struct().Uint64(0))

	empty, err := pl.At(1)
	require.NoError(t, err)
	assert.False(t, empty.IsValid())
}

func TestPrimitiveListBulkWords(t *testing.T) {
	_, seg := newTestMessage(t)
	l, err := NewList(seg, eightByteElementSize, 4)
	require.NoError(t, err)

	in := []uint64{10, 20, 30, 40}
	n := l.SetUint64s(0, 4, in)
	require.Equal(t, 4, n)

	out := make([]uint64, 4)
	n = l.GetUint64s(0, 4, out)
	require.Equal(t, 4, n)
	assert.Equal(t, in, out)

	// A stride mismatch (asking for 32-bit elements on a 64-bit list)
	// must be rejected rather than silently reinterpreting the bytes.
	assert.Equal(t, -1, l.GetUint32s(0, 4, make([]uint32, 4)))
}

func TestPrimitiveListBulkBytes(t *testing.T) {
	_, seg := newTestMessage(t)
	l, err := NewList(seg, byte1ElementSize, 5)
	require.NoError(t, err)

	in := []byte{1, 2, 3, 4, 5}
	require.Equal(t, 5, l.SetUint8s(0, 5, in))

	out := make([]byte, 5)
	require.Equal(t, 5, l.GetUint8s(0, 5, out))
	assert.Equal(t, in, out)

	// Out-of-range offset/count must be rejected rather than clamped.
	assert.Equal(t, -1, l.GetUint8s(3, 5, out))
}

func TestPrimitiveListBulkBits(t *testing.T) {
	_, seg := newTestMessage(t)
	l, err := NewBitList(seg, 16)
	require.NoError(t, err)

	n := l.SetBits(0, 16, []byte{0xaa, 0x55})
	require.Equal(t, 16, n)

	buf := make([]byte, 2)
	n = l.GetBits(0, 16, buf)
	require.Equal(t, 16, n)
	assert.Equal(t, []byte{0xaa, 0x55}, buf)
}
