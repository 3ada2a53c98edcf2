package capnp

// rawPointer is a 64-bit Cap'n Proto pointer in its wire representation.
type rawPointer uint64

// pointerType values, the low 2 bits of a rawPointer.
type pointerType int

const (
	structPointer pointerType = iota
	listPointer
	farPointer
	otherPointer
)

func (p rawPointer) pointerType() pointerType {
	switch p & 3 {
	case 0:
		return structPointer
	case 1:
		return listPointer
	case 2:
		return farPointer
	default:
		return otherPointer
	}
}

// isDoubleFar reports whether a far pointer is a double-far (bit 2 set).
func (p rawPointer) isDoubleFar() bool {
	return p&4 != 0
}

// pointerOffset is a signed word offset, as used by near struct/list
// pointers (bits 2-31, a 30-bit signed field).
type pointerOffset int32

const offsetMask uint64 = 0x3fffffff

// offset returns the signed word-offset field shared by struct and list
// pointers.
func (p rawPointer) offset() pointerOffset {
	raw := uint32(p) >> 2
	// Sign-extend a 30-bit field held in the low 30 bits of raw.
	if raw&(1<<29) != 0 {
		raw |= 3 << 30
	}
	return pointerOffset(int32(raw))
}

func encodeOffset(off pointerOffset) uint64 {
	return (uint64(uint32(off)) & offsetMask) << 2
}

// resolve computes the absolute target address of a near pointer located
// at addr: target address is A + 8*(offset+1).
func (off pointerOffset) resolve(addr Address) (Address, bool) {
	delta := int64(off) + 1
	target := int64(addr) + delta*int64(wordSize)
	if target < 0 || target > int64(^Address(0)) {
		return 0, false
	}
	return Address(target), true
}

// nearPointerOffset computes the offset field for a pointer stored at
// pointerAddr that targets tgtAddr. A zero-sized struct pointing at itself
// uses offset=-1 by convention.
func nearPointerOffset(pointerAddr, tgtAddr Address) pointerOffset {
	if pointerAddr == tgtAddr {
		return -1
	}
	return pointerOffset((int64(tgtAddr)-int64(pointerAddr))/int64(wordSize) - 1)
}

// rawStructPointer returns a near struct pointer with the given offset and
// size.
func rawStructPointer(off pointerOffset, sz ObjectSize) rawPointer {
	v := encodeOffset(off)
	v |= uint64(structPointer)
	v |= uint64(sz.DataSize/wordSize) << 32
	v |= uint64(sz.PointerCount) << 48
	return rawPointer(v)
}

func (p rawPointer) structSize() ObjectSize {
	return ObjectSize{
		DataSize:     Size(uint16(p>>32)) * wordSize,
		PointerCount: uint16(p >> 48),
	}
}

// rawListPointer returns a near list pointer whose elements have size sz
// and whose element (or, for composite lists, word) count is n.
func rawListPointer(off pointerOffset, sz ElementSize, n int32) rawPointer {
	v := encodeOffset(off)
	v |= uint64(listPointer)
	v |= uint64(sz&7) << 32
	v |= uint64(uint32(n)) << 35
	return rawPointer(v)
}

func (p rawPointer) listType() ElementSize {
	return ElementSize((p >> 32) & 7)
}

func (p rawPointer) elementSize() ElementSize {
	return p.listType()
}

func (p rawPointer) numListElements() int32 {
	return int32(p >> 35)
}

// totalListSize returns the number of bytes occupied by a list's element
// payload. For a composite list this is the payload following the tag
// word (the tag word itself is accounted for separately by the caller).
func (p rawPointer) totalListSize() (Size, bool) {
	lt := p.listType()
	n := p.numListElements()
	if n < 0 {
		return 0, false
	}
	switch lt {
	case bit1ElementSize:
		return Size((n + 7) / 8), true
	case compositeElementSize:
		return Size(n) * wordSize, true
	default:
		return lt.sizeOf().times(n)
	}
}

const farAddressMask uint64 = 0x1fffffff

// farAddress returns the target byte address of a far pointer (the word
// offset field converted to bytes).
func (p rawPointer) farAddress() Address {
	return Address(((uint64(p) >> 3) & farAddressMask) * uint64(wordSize))
}

// farSegment returns the target segment ID of a far pointer.
func (p rawPointer) farSegment() SegmentID {
	return SegmentID(p >> 32)
}

// rawFarPointer returns a single-far pointer to byte address addr (which
// must be word-aligned) in segment id.
func rawFarPointer(id SegmentID, addr Address) rawPointer {
	v := uint64(farPointer)
	v |= ((uint64(addr) / uint64(wordSize)) & farAddressMask) << 3
	v |= uint64(id) << 32
	return rawPointer(v)
}

// rawDoubleFarPointer returns a double-far pointer whose 2-word landing
// pad starts at byte address addr in segment id.
func rawDoubleFarPointer(id SegmentID, addr Address) rawPointer {
	return rawFarPointer(id, addr) | 4
}

// landingPadNearPointer reconstitutes the near pointer that a double-far's
// landing pad describes, given its two words: far (a far pointer to the
// payload) and tag (the struct/list tag that would normally precede the
// payload, with its offset field ignored/zero).
func landingPadNearPointer(far, tag rawPointer) rawPointer {
	off := pointerOffset(-1 + int32(far.farAddress()/Address(wordSize)))
	// tag carries kind + size fields; only its offset field is replaced.
	return tag.withOffset(off)
}

// withOffset returns p with its offset field replaced by off, leaving the
// kind bits and any size/count fields untouched.
func (p rawPointer) withOffset(off pointerOffset) rawPointer {
	const clearMask = ^(offsetMask << 2)
	return rawPointer((uint64(p) & clearMask) | encodeOffset(off))
}

// capabilityIndex returns the capability table index of an "other" pointer.
func (p rawPointer) capabilityIndex() uint32 {
	return uint32(p >> 32)
}

// otherPointerType returns the low-bits discriminator for the "other"
// pointer kind (0 = capability).
func (p rawPointer) otherPointerType() int {
	return int((p >> 2) & 0x3f)
}

// rawInterfacePointer returns an "other" pointer referencing capability
// table index capIdx.
func rawInterfacePointer(capIdx uint32) rawPointer {
	return rawPointer(otherPointer) | rawPointer(capIdx)<<32
}
