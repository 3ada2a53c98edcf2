package capnp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	msg, seg, err := NewMessage(NewHeapArena())
	require.NoError(t, err)
	st, err := NewRootStruct(seg, ObjectSize{DataSize: 8, PointerCount: 1})
	require.NoError(t, err)
	require.NoError(t, st.SetUint64(0, 0x0102030405060708))
	require.NoError(t, st.SetText(0, "round-trip"))

	data, err := msg.Marshal()
	require.NoError(t, err)
	assert.True(t, len(data)%8 == 0)

	got, err := ReadFromBytes(data)
	require.NoError(t, err)
	root, err := got.Root()
	require.NoError(t, err)
	rst := root.Struct()
	assert.Equal(t, uint64(0x0102030405060708), rst.Uint64(0))
	s, err := rst.Text(0)
	require.NoError(t, err)
	assert.Equal(t, "round-trip", s)
}

func TestMarshalPackedUnmarshalRoundTrip(t *testing.T) {
	msg, seg, err := NewMessage(NewHeapArena())
	require.NoError(t, err)
	st, err := NewRootStruct(seg, ObjectSize{DataSize: 16})
	require.NoError(t, err)
	require.NoError(t, st.SetUint64(0, 42))

	packedData, err := msg.MarshalPacked()
	require.NoError(t, err)

	got, err := ReadFromPackedFile(bytes.NewReader(packedData))
	require.NoError(t, err)
	root, err := got.Root()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), root.Struct().Uint64(0))
}

func TestStreamHeaderSizeSingleSegment(t *testing.T) {
	// One segment: a 4-byte count word plus a 4-byte length word, padded
	// to a whole word.
	assert.Equal(t, uint64(8), streamHeaderSize(0))
}
