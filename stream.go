package capnp

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/gocapnp/capnp/internal/packed"
)

// streamHeaderSize returns the byte length of a stream header for a
// message with lastSeg+1 segments: a uint32 segment-count-minus-one,
// one uint32 length per segment, padded to a multiple of 8 bytes.
func streamHeaderSize(lastSeg SegmentID) uint64 {
	n := uint64(lastSeg) + 2 // count word + one length word per segment
	if n%2 != 0 {
		n++
	}
	return n * 4
}

// Marshal serializes m as an unpacked stream: a header giving the
// segment count and each segment's word length, followed by the
// segments' raw bytes concatenated in order.
func (m *Message) Marshal() ([]byte, error) {
	nsegs := m.NumSegments()
	if nsegs == 0 {
		return nil, errors.New("capnp: marshal: message has no segments")
	}
	segs := make([]*Segment, nsegs)
	var dataSize uint64
	for i := int64(0); i < nsegs; i++ {
		s, err := m.Segment(SegmentID(i))
		if err != nil {
			return nil, errors.Wrap(err, "capnp: marshal")
		}
		if len(s.data)%int(wordSize) != 0 {
			return nil, errors.Errorf("capnp: marshal: segment %d is not word-aligned", i)
		}
		segs[i] = s
		dataSize += uint64(len(s.data))
	}
	hdrSize := streamHeaderSize(SegmentID(nsegs - 1))
	buf := make([]byte, 0, hdrSize+dataSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(nsegs-1))
	for _, s := range segs {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.data)/int(wordSize)))
	}
	if nsegs%2 == 0 {
		buf = binary.LittleEndian.AppendUint32(buf, 0)
	}
	for _, s := range segs {
		buf = append(buf, s.data...)
	}
	return buf, nil
}

// MarshalPacked serializes m as a packed stream.
func (m *Message) MarshalPacked() ([]byte, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	out, err := packed.Pack(make([]byte, 0, len(data)), data)
	if err != nil {
		return nil, errors.Wrap(err, "capnp: marshal packed")
	}
	m.Logger.Debug().
		Int("unpacked_bytes", len(data)).
		Int("packed_bytes", len(out)).
		Msg("capnp: packed message")
	return out, nil
}

// WriteTo writes m's unpacked stream encoding to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	data, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFromBytes decodes an unpacked stream held entirely in data,
// returning a read-only Message backed by a MultiSegmentArena.
func ReadFromBytes(data []byte) (*Message, error) {
	if len(data) < 4 {
		return nil, errors.New("capnp: unmarshal: truncated stream header")
	}
	lastSeg := binary.LittleEndian.Uint32(data)
	nsegs := uint64(lastSeg) + 1
	hdrWords := (nsegs + 2) / 2
	hdrSize := hdrWords * 8
	if uint64(len(data)) < hdrSize {
		return nil, errors.New("capnp: unmarshal: truncated segment length table")
	}
	lengths := make([]uint64, nsegs)
	for i := uint64(0); i < nsegs; i++ {
		lengths[i] = uint64(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	segs := make([][]byte, nsegs)
	off := hdrSize
	for i, wordLen := range lengths {
		byteLen := wordLen * 8
		if off+byteLen > uint64(len(data)) {
			return nil, errors.Errorf("capnp: unmarshal: segment %d extends past end of stream", i)
		}
		segs[i] = data[off : off+byteLen]
		off += byteLen
	}
	return &Message{Arena: NewMultiSegmentArena(segs)}, nil
}

// ReadFromFile decodes an unpacked stream held in r's entire remaining
// contents.
func ReadFromFile(r io.Reader) (*Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "capnp: unmarshal")
	}
	return ReadFromBytes(data)
}

// ReadFromPackedFile decodes a packed stream held in r's entire
// remaining contents.
func ReadFromPackedFile(r io.Reader) (*Message, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	var data []byte
	buf := make([]byte, 4096)
	pr := packed.NewReader(br)
	for {
		n, err := pr.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "capnp: unmarshal packed")
		}
		if n == 0 {
			break
		}
	}
	return ReadFromBytes(data)
}
