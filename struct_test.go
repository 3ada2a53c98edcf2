package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessage(t *testing.T) (*Message, *Segment) {
	msg, seg, err := NewMessage(NewHeapArena())
	require.NoError(t, err)
	return msg, seg
}

func TestStructFieldRoundTrip(t *testing.T) {
	_, seg := newTestMessage(t)
	st, err := NewStruct(seg, ObjectSize{DataSize: 16, PointerCount: 1})
	require.NoError(t, err)

	require.NoError(t, st.SetUint64(0, 0xdeadbeefcafebabe))
	require.NoError(t, st.SetUint32(8, 42))
	require.NoError(t, st.SetBit(BitOffset(96), true))

	assert.Equal(t, uint64(0xdeadbeefcafebabe), st.Uint64(0))
	assert.Equal(t, uint32(42), st.Uint32(8))
	assert.True(t, st.Bit(BitOffset(96)))
	assert.False(t, st.Bit(BitOffset(97)))
}

func TestStructOutOfBoundsReadsReturnZero(t *testing.T) {
	_, seg := newTestMessage(t)
	st, err := NewStruct(seg, ObjectSize{DataSize: 8})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), st.Uint64(16))
	assert.Error(t, st.SetUint64(16, 1))
}

func TestStructFloatDefaultXOR(t *testing.T) {
	_, seg := newTestMessage(t)
	st, err := NewStruct(seg, ObjectSize{DataSize: 16})
	require.NoError(t, err)

	require.NoError(t, st.SetFloat64(0, 3.5, 1.0))
	assert.Equal(t, 3.5, st.Float64(0, 1.0))
	// Writing the default value should leave the underlying word zero.
	require.NoError(t, st.SetFloat64(8, 2.0, 2.0))
	assert.Equal(t, uint64(0), st.Uint64(8))
}

func TestStructTextAndData(t *testing.T) {
	_, seg := newTestMessage(t)
	st, err := NewStruct(seg, ObjectSize{PointerCount: 2})
	require.NoError(t, err)

	require.NoError(t, st.SetText(0, "hello"))
	s, err := st.Text(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	require.NoError(t, st.SetData(1, []byte{1, 2, 3}))
	d, err := st.Data(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, d)
}

func TestNewRootStructSetsRoot(t *testing.T) {
	msg, seg := newTestMessage(t)
	st, err := NewRootStruct(seg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, st.SetUint64(0, 7))

	root, err := msg.Root()
	require.NoError(t, err)
	got := root.Struct()
	assert.True(t, got.IsValid())
	assert.Equal(t, uint64(7), got.Uint64(0))
}

func TestStructVersionHandlingZeroFill(t *testing.T) {
	_, seg := newTestMessage(t)
	// src is "newer": bigger data section than dst.
	src, err := NewStruct(seg, ObjectSize{DataSize: 16})
	require.NoError(t, err)
	require.NoError(t, src.SetUint64(0, 1))
	require.NoError(t, src.SetUint64(8, 2))

	dst, err := NewStruct(seg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, copyStruct(dst, src))
	assert.Equal(t, uint64(1), dst.Uint64(0))

	// dst is "newer": copying a smaller src must zero dst's extra fields.
	dst2, err := NewStruct(seg, ObjectSize{DataSize: 16})
	require.NoError(t, err)
	require.NoError(t, dst2.SetUint64(8, 99))
	small, err := NewStruct(seg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, small.SetUint64(0, 5))
	require.NoError(t, copyStruct(dst2, small))
	assert.Equal(t, uint64(5), dst2.Uint64(0))
	assert.Equal(t, uint64(0), dst2.Uint64(8))
}
