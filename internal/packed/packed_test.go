package packed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackZeroWord(t *testing.T) {
	data := make([]byte, 16) // two all-zero words
	out, err := Pack(nil, data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, out)
}

func TestPackLiteralWord(t *testing.T) {
	data := []byte{0, 0, 0x12, 0, 0, 0x34, 0, 0}
	out, err := Pack(nil, data)
	require.NoError(t, err)
	// tag byte: bits 2 and 5 set (0x24), followed by the two non-zero bytes.
	assert.Equal(t, []byte{0x24, 0x12, 0x34}, out)
}

func TestPackRejectsMisalignedInput(t *testing.T) {
	_, err := Pack(nil, make([]byte, 9))
	assert.Error(t, err)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		if i%3 == 0 {
			data[i] = byte(i)
		}
	}
	packedData, err := Pack(nil, data)
	require.NoError(t, err)
	unpacked, n, err := Unpack(nil, packedData)
	require.NoError(t, err)
	assert.Equal(t, len(packedData), n)
	assert.True(t, bytes.Equal(data, unpacked))
}

func TestSixteenByteExample(t *testing.T) {
	// A struct pointer word followed by a single non-zero data word, the
	// canonical small example used to sanity-check the codec: first word
	// has bytes 0 and 4 set, second word has bytes 2 and 6 set.
	data := []byte{
		0x04, 0, 0, 0, 1, 0, 0, 0,
		0, 0, 0x12, 0, 0, 0, 0x34, 0,
	}
	out, err := Pack(nil, data)
	require.NoError(t, err)
	unpacked, n, err := Unpack(nil, out)
	require.NoError(t, err)
	assert.Equal(t, len(out), n)
	assert.Equal(t, data, unpacked)
}

func TestReaderMatchesUnpack(t *testing.T) {
	data := make([]byte, 32)
	data[3] = 0xff
	data[20] = 0x01
	packedData, err := Pack(nil, data)
	require.NoError(t, err)

	r := NewReader(bytes.NewReader(packedData))
	got := make([]byte, len(data))
	n, err := r.Read(got)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, got)
}

func TestWriterMatchesPack(t *testing.T) {
	data := make([]byte, 24)
	data[1] = 0x7
	data[16] = 0x9

	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	want, err := Pack(nil, data)
	require.NoError(t, err)
	assert.Equal(t, want, buf.Bytes())
}
