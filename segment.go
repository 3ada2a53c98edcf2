package capnp

import (
	"github.com/gocapnp/capnp/internal/wire"
)

// A SegmentID is a numeric identifier for a Segment within a Message.
type SegmentID uint32

// LocalSegment is the segment ID reserved for a local copy arena. No
// arena in this package creates a segment with this ID: deep copies are
// allocated directly in the destination message.
const LocalSegment SegmentID = 0xFFFFFFFF

// A Segment is a contiguous, word-aligned buffer holding part of a
// Message. Segments are never moved after
// creation and are freed en masse when their Message's Arena is released.
type Segment struct {
	msg  *Message
	id   SegmentID
	data []byte
}

// Message returns the message that contains s.
func (s *Segment) Message() *Message {
	return s.msg
}

// ID returns the segment's ID.
func (s *Segment) ID() SegmentID {
	return s.id
}

// Data returns the raw byte slice backing the segment.
func (s *Segment) Data() []byte {
	return s.data
}

func (s *Segment) inBounds(addr Address) bool {
	return addr < Address(len(s.data))
}

func (s *Segment) regionInBounds(base Address, sz Size) bool {
	end, ok := base.addSize(sz)
	if !ok {
		return false
	}
	return end <= Address(len(s.data))
}

// slice returns the byte range [base, base+sz) of the segment.
// Bounds checking must have happened before calling slice.
func (s *Segment) slice(base Address, sz Size) []byte {
	return s.data[base : base+Address(sz)]
}

func (s *Segment) readUint8(addr Address) uint8 {
	return wire.ReadUint8(s.slice(addr, 1))
}

func (s *Segment) readUint16(addr Address) uint16 {
	return wire.ReadUint16(s.slice(addr, 2))
}

func (s *Segment) readUint32(addr Address) uint32 {
	return wire.ReadUint32(s.slice(addr, 4))
}

func (s *Segment) readUint64(addr Address) uint64 {
	return wire.ReadUint64(s.slice(addr, 8))
}

func (s *Segment) readRawPointer(addr Address) rawPointer {
	return rawPointer(s.readUint64(addr))
}

func (s *Segment) writeUint8(addr Address, val uint8) {
	wire.WriteUint8(s.slice(addr, 1), val)
}

func (s *Segment) writeUint16(addr Address, val uint16) {
	wire.WriteUint16(s.slice(addr, 2), val)
}

func (s *Segment) writeUint32(addr Address, val uint32) {
	wire.WriteUint32(s.slice(addr, 4), val)
}

func (s *Segment) writeUint64(addr Address, val uint64) {
	wire.WriteUint64(s.slice(addr, 8), val)
}

func (s *Segment) writeRawPointer(addr Address, val rawPointer) {
	s.writeUint64(addr, uint64(val))
}

// root returns a 1-element pointer list referencing word 0 of the
// segment. Only meaningful for the first segment of a message.
func (s *Segment) root() (PointerList, bool) {
	sz := ObjectSize{PointerCount: 1}
	if !s.regionInBounds(0, sz.totalSize()) {
		return PointerList{}, false
	}
	return PointerList{List{
		seg:        s,
		length:     1,
		size:       sz,
		flags:      0,
		depthLimit: s.msg.depthLimit(),
	}}, true
}

func (s *Segment) lookupSegment(id SegmentID) (*Segment, error) {
	if s.id == id {
		return s, nil
	}
	return s.msg.Segment(id)
}

// readPtr decodes the pointer stored at off, resolving far pointers as
// necessary.
func (s *Segment) readPtr(off Address, depthLimit uint) (Ptr, error) {
	val := s.readRawPointer(off)
	s, off, val, err := s.resolveFarPointer(off, val)
	if err != nil {
		return Ptr{}, err
	}
	if val == 0 {
		return Ptr{}, nil
	}
	if depthLimit == 0 {
		return Ptr{}, errDepthLimit
	}
	switch val.pointerType() {
	case structPointer:
		sp, err := s.readStructPtr(off, val)
		if err != nil {
			return Ptr{}, err
		}
		sp.depthLimit = depthLimit - 1
		return sp.ToPtr(), nil
	case listPointer:
		lp, err := s.readListPtr(off, val)
		if err != nil {
			return Ptr{}, err
		}
		lp.depthLimit = depthLimit - 1
		return lp.ToPtr(), nil
	case otherPointer:
		if val.otherPointerType() != 0 {
			return Ptr{}, errOtherPointer
		}
		return NewInterface(s, val.capabilityIndex()).ToPtr(), nil
	default:
		// Only remaining type is a far pointer, which resolveFarPointer
		// should already have followed.
		return Ptr{}, errBadLandingPad
	}
}

func (s *Segment) readStructPtr(off Address, val rawPointer) (Struct, error) {
	addr, ok := val.offset().resolve(off)
	if !ok {
		return Struct{}, errPointerAddress
	}
	sz := val.structSize()
	if !s.regionInBounds(addr, sz.totalSize()) {
		return Struct{}, errPointerAddress
	}
	return Struct{seg: s, off: addr, size: sz}, nil
}

func (s *Segment) readListPtr(off Address, val rawPointer) (List, error) {
	addr, ok := val.offset().resolve(off)
	if !ok {
		return List{}, errPointerAddress
	}
	lsize, ok := val.totalListSize()
	if !ok {
		return List{}, errOverflow
	}
	if !s.regionInBounds(addr, lsize) {
		return List{}, errPointerAddress
	}
	lt := val.listType()
	if lt == compositeElementSize {
		hdr := s.readRawPointer(addr)
		addr, ok = addr.addSize(wordSize)
		if !ok {
			return List{}, errOverflow
		}
		if hdr.pointerType() != structPointer {
			return List{}, errBadTag
		}
		sz := hdr.structSize()
		n := int32(hdr.offset())
		tsize, ok := sz.totalSize().times(n)
		if !ok {
			return List{}, errOverflow
		}
		if !s.regionInBounds(addr, tsize) {
			return List{}, errPointerAddress
		}
		return List{
			seg:    s,
			size:   sz,
			off:    addr,
			length: n,
			flags:  isCompositeList,
		}, nil
	}
	if lt == bit1ElementSize {
		return List{
			seg:    s,
			off:    addr,
			length: val.numListElements(),
			flags:  isBitList,
		}, nil
	}
	return List{
		seg:      s,
		elemSize: lt,
		size:     ObjectSize{DataSize: lt.sizeOf()},
		off:      addr,
		length:   val.numListElements(),
	}, nil
}

// resolveFarPointer follows single or double far indirection, returning
// the segment, address, and raw pointer word of the final near pointer
// (far-pointer handling).
func (s *Segment) resolveFarPointer(off Address, val rawPointer) (*Segment, Address, rawPointer, error) {
	if val.pointerType() != farPointer {
		return s, off, val, nil
	}
	if val.isDoubleFar() {
		faroff, segid := val.farAddress(), val.farSegment()
		ts, err := s.lookupSegment(segid)
		if err != nil {
			return nil, 0, 0, err
		}
		if !ts.regionInBounds(faroff, wordSize*2) {
			return nil, 0, 0, errPointerAddress
		}
		far := ts.readRawPointer(faroff)
		tagStart, ok := faroff.addSize(wordSize)
		if !ok {
			return nil, 0, 0, errOverflow
		}
		tag := ts.readRawPointer(tagStart)
		if far.pointerType() != farPointer || far.isDoubleFar() || tag.offset() != 0 {
			return nil, 0, 0, errBadLandingPad
		}
		fs, err := ts.lookupSegment(far.farSegment())
		if err != nil {
			return nil, 0, 0, errBadLandingPad
		}
		return fs, 0, landingPadNearPointer(far, tag), nil
	}
	faroff, segid := val.farAddress(), val.farSegment()
	ts, err := s.lookupSegment(segid)
	if err != nil {
		return nil, 0, 0, err
	}
	if !ts.regionInBounds(faroff, wordSize) {
		return nil, 0, 0, errPointerAddress
	}
	val = ts.readRawPointer(faroff)
	return ts, faroff, val, nil
}

// writePtr encodes src into the pointer slot at off, performing a near,
// far, double-far, or cross-session copy encoding as required by
// the write-side counterpart of readPtr.
func (s *Segment) writePtr(cc copyContext, off Address, src Ptr) error {
	if !src.IsValid() {
		s.writeRawPointer(off, 0)
		return nil
	}
	switch src.typ {
	case structPtrType:
		st := src.Struct()
		if src.seg.msg != s.msg || st.flags&isListMember != 0 {
			dst, err := cc.copyOrCloneStruct(s, st)
			if err != nil {
				return err
			}
			src = dst.ToPtr()
		}
	case listPtrType:
		if src.seg.msg != s.msg {
			dst, err := cc.copyOrCloneList(s, src.List())
			if err != nil {
				return err
			}
			src = dst.ToPtr()
		}
	case interfacePtrType:
		i := src.Interface()
		if src.seg.msg != s.msg {
			// Capabilities are out of scope for this runtime; round-trip
			// the index unchanged rather than remapping a cap table.
			i = NewInterface(s, uint32(i.idx))
		}
		s.writeRawPointer(off, i.value(off))
		return nil
	}

	if src.seg != s {
		if !hasCapacity(src.seg.data, wordSize) {
			const landingSize = wordSize * 2
			t, dstAddr, err := alloc(s, landingSize)
			if err != nil {
				return err
			}
			srcAddr := src.address()
			t.writeRawPointer(dstAddr, rawFarPointer(src.seg.id, srcAddr))
			t.writeRawPointer(dstAddr+Address(wordSize), src.value(srcAddr-Address(wordSize)))
			s.writeRawPointer(off, rawDoubleFarPointer(t.id, dstAddr))
			s.msg.Logger.Debug().
				Uint32("from_segment", uint32(src.seg.id)).
				Uint32("landing_segment", uint32(t.id)).
				Msg("capnp: promoted pointer to double-far landing pad")
			return nil
		}
		_, srcAddr, err := alloc(src.seg, wordSize)
		if err != nil {
			return err
		}
		src.seg.writeRawPointer(srcAddr, src.value(srcAddr))
		s.writeRawPointer(off, rawFarPointer(src.seg.id, srcAddr))
		s.msg.Logger.Debug().
			Uint32("from_segment", uint32(src.seg.id)).
			Uint32("to_segment", uint32(s.id)).
			Msg("capnp: promoted pointer to far pointer")
		return nil
	}

	s.writeRawPointer(off, src.value(off))
	return nil
}

// hasCapacity reports whether b has room for sz more bytes without
// reallocating (i.e. can still hold an adjacent tag word).
func hasCapacity(b []byte, sz Size) bool {
	return Size(cap(b)-len(b)) >= sz
}
