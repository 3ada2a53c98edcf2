package capnp

import "github.com/pkg/errors"

// defaultFirstSegmentSize is the initial chunk size HeapArena allocates.
const defaultFirstSegmentSize = 4096

// HeapArena is the heap-backed Arena collaborator: create grows a
// per-message arena by chunk (doubling with a floor of min_bytes);
// teardown frees all chunks. It implements the original C library's
// capn_init_malloc/capn_free_malloc.
type HeapArena struct {
	segs      []*Segment
	nextChunk Size
}

// NewHeapArena returns an empty, writable arena.
func NewHeapArena() *HeapArena {
	return &HeapArena{nextChunk: defaultFirstSegmentSize}
}

// NumSegments implements Arena.
func (a *HeapArena) NumSegments() int64 {
	return int64(len(a.segs))
}

// Segment implements Arena.
func (a *HeapArena) Segment(id SegmentID) *Segment {
	if int64(id) >= int64(len(a.segs)) {
		return nil
	}
	return a.segs[id]
}

// Allocate implements Arena: it grows pref if it has room, otherwise
// appends a new chunk of at least sz bytes, doubling the previous
// chunk's size (floored at sz).
func (a *HeapArena) Allocate(sz Size, msg *Message, pref *Segment) (*Segment, Address, error) {
	if pref != nil {
		if addr, ok := growInPlace(pref, sz); ok {
			return pref, addr, nil
		}
	}
	chunk := a.nextChunk
	if chunk < sz {
		chunk = sz
	}
	data := make([]byte, 0, chunk)
	seg := &Segment{msg: msg, id: SegmentID(len(a.segs)), data: data}
	a.segs = append(a.segs, seg)
	a.nextChunk = chunk * 2
	addr, ok := growInPlace(seg, sz)
	if !ok {
		return nil, 0, errors.New("capnp: heap arena: fresh segment has insufficient capacity")
	}
	msg.Logger.Debug().
		Uint32("segment", uint32(seg.id)).
		Uint32("chunk_bytes", uint32(chunk)).
		Msg("capnp: heap arena grew message by a new segment")
	return seg, addr, nil
}

// Release implements Arena by dropping all segment references.
func (a *HeapArena) Release() {
	a.segs = nil
}

// growInPlace extends seg's data by sz zero bytes if it has spare
// capacity, returning the address the new region starts at.
func growInPlace(seg *Segment, sz Size) (Address, bool) {
	start := len(seg.data)
	end := start + int(sz)
	if end > cap(seg.data) {
		return 0, false
	}
	seg.data = seg.data[:end]
	for i := start; i < end; i++ {
		seg.data[i] = 0
	}
	return Address(start), true
}

// SingleSegmentArena is a read-only Arena over a single pre-populated
// segment — the "Memory-backed" collaborator (create is nil, so it
// supports neither multi-segment writes nor inter-message copy).
type SingleSegmentArena struct {
	seg *Segment
}

// NewSingleSegmentArena wraps data (which must already hold a
// well-formed, word-aligned message segment) for reading.
func NewSingleSegmentArena(data []byte) *SingleSegmentArena {
	return &SingleSegmentArena{seg: &Segment{id: 0, data: data}}
}

func (a *SingleSegmentArena) NumSegments() int64 { return 1 }

func (a *SingleSegmentArena) Segment(id SegmentID) *Segment {
	if id != 0 {
		return nil
	}
	return a.seg
}

func (a *SingleSegmentArena) Allocate(sz Size, msg *Message, pref *Segment) (*Segment, Address, error) {
	return nil, 0, errors.New("capnp: single-segment arena is read-only")
}

func (a *SingleSegmentArena) Release() {}

// MultiSegmentArena is a read-only Arena over a slice of pre-populated
// segments, the "File-backed"/"Memory-backed" multi-segment collaborator.
type MultiSegmentArena struct {
	segs []*Segment
}

// NewMultiSegmentArena wraps each byte slice in data as a segment, in
// order, for reading.
func NewMultiSegmentArena(data [][]byte) *MultiSegmentArena {
	a := &MultiSegmentArena{segs: make([]*Segment, len(data))}
	for i, d := range data {
		a.segs[i] = &Segment{id: SegmentID(i), data: d}
	}
	return a
}

func (a *MultiSegmentArena) NumSegments() int64 {
	return int64(len(a.segs))
}

func (a *MultiSegmentArena) Segment(id SegmentID) *Segment {
	if int64(id) >= int64(len(a.segs)) {
		return nil
	}
	return a.segs[id]
}

func (a *MultiSegmentArena) Allocate(sz Size, msg *Message, pref *Segment) (*Segment, Address, error) {
	return nil, 0, errors.New("capnp: multi-segment arena is read-only")
}

func (a *MultiSegmentArena) Release() {}
