package capnp

import "github.com/gocapnp/capnp/internal/wire"

// Struct is a pointer to a struct: a fixed-size data section followed by
// a fixed-size pointer section.
type Struct struct {
	seg        *Segment
	off        Address
	size       ObjectSize
	flags      ptrFlags
	depthLimit uint
}

// NewStruct creates a new struct, preferring placement in s.
func NewStruct(s *Segment, sz ObjectSize) (Struct, error) {
	if !sz.isValid() {
		return Struct{}, errObjectSize
	}
	sz.DataSize = sz.DataSize.padToWord()
	seg, addr, err := alloc(s, sz.totalSize())
	if err != nil {
		return Struct{}, err
	}
	return Struct{seg: seg, off: addr, size: sz, depthLimit: maxDepth}, nil
}

// NewRootStruct creates a new struct preferring placement in s, then sets
// it as s's message's root.
func NewRootStruct(s *Segment, sz ObjectSize) (Struct, error) {
	st, err := NewStruct(s, sz)
	if err != nil {
		return Struct{}, err
	}
	if err := s.msg.SetRoot(st.ToPtr()); err != nil {
		return Struct{}, err
	}
	return st, nil
}

// ToPtr returns st as a generic Ptr.
func (st Struct) ToPtr() Ptr {
	if st.seg == nil {
		return Ptr{}
	}
	return Ptr{seg: st.seg, off: st.off, size: st.size, typ: structPtrType, flags: st.flags, depthLimit: st.depthLimit}
}

// IsValid reports whether st refers to a segment.
func (st Struct) IsValid() bool {
	return st.seg != nil
}

// Segment returns the segment st's data lives in.
func (st Struct) Segment() *Segment {
	return st.seg
}

// Address returns the byte address st's data starts at.
func (st Struct) Address() Address {
	return st.off
}

// Size returns st's data and pointer section sizes.
func (st Struct) Size() ObjectSize {
	return st.size
}

// HasData reports whether the struct has a non-zero size.
func (st Struct) HasData() bool {
	return !st.size.isZero()
}

// value returns the raw near-pointer word that, if stored at paddr,
// would reference st.
func (st Struct) value(paddr Address) rawPointer {
	return rawStructPointer(nearPointerOffset(paddr, st.off), st.size)
}

func (st Struct) address() Address {
	return st.off
}

// Ptr returns the i'th pointer in the struct's pointer section, or a
// null Ptr if i is beyond ptrsz: out-of-range reads yield a zero value
// rather than an error.
func (st Struct) Ptr(i uint16) (Ptr, error) {
	if st.seg == nil || i >= st.size.PointerCount {
		return Ptr{}, nil
	}
	return st.seg.readPtr(st.pointerAddress(i), st.effectiveDepthLimit())
}

// HasPtr reports whether the i'th pointer is non-null, without
// resolving it.
func (st Struct) HasPtr(i uint16) bool {
	if st.seg == nil || i >= st.size.PointerCount {
		return false
	}
	return st.seg.readRawPointer(st.pointerAddress(i)) != 0
}

// SetPtr sets the i'th pointer in the struct's pointer section to src,
// performing a cross-segment/cross-session copy as needed.
func (st Struct) SetPtr(i uint16, src Ptr) error {
	if st.seg == nil || i >= st.size.PointerCount {
		return errOutOfBounds
	}
	return st.seg.writePtr(newCopyContext(), st.pointerAddress(i), src)
}

// Text returns the i'th pointer field interpreted as text, excluding the
// NUL.
func (st Struct) Text(i uint16) (string, error) {
	p, err := st.Ptr(i)
	if err != nil {
		return "", err
	}
	return ToText(p).String(), nil
}

// SetText allocates a new Text holding v and sets the i'th pointer field
// to it. The allocated Text holds len(v)+1 bytes: v's bytes followed by
// a NUL terminator.
func (st Struct) SetText(i uint16, v string) error {
	if st.seg == nil || i >= st.size.PointerCount {
		return errOutOfBounds
	}
	t, err := NewTextFromString(st.seg, v)
	if err != nil {
		return err
	}
	return st.SetPtr(i, t.ToPtr())
}

// Data returns the i'th pointer field interpreted as an opaque byte
// string.
func (st Struct) Data(i uint16) ([]byte, error) {
	p, err := st.Ptr(i)
	if err != nil {
		return nil, err
	}
	return ToData(p).Bytes(), nil
}

// SetData allocates a new Data holding v and sets the i'th pointer field
// to it.
func (st Struct) SetData(i uint16, v []byte) error {
	if st.seg == nil || i >= st.size.PointerCount {
		return errOutOfBounds
	}
	d, err := NewData(st.seg, v)
	if err != nil {
		return err
	}
	return st.SetPtr(i, d.ToPtr())
}

func (st Struct) pointerAddress(i uint16) Address {
	ptrStart, _ := st.off.addSize(st.size.DataSize)
	return ptrStart.element(int32(i), wordSize)
}

func (st Struct) effectiveDepthLimit() uint {
	if st.depthLimit == 0 {
		return defaultDepthLimit
	}
	return st.depthLimit
}

func (st Struct) bitInData(bit BitOffset) bool {
	return st.seg != nil && bit < BitOffset(st.size.DataSize*8)
}

// Bit returns the n'th bit of the struct's data section.
func (st Struct) Bit(n BitOffset) bool {
	if !st.bitInData(n) {
		return false
	}
	addr := st.off.addOffset(n.offset())
	return st.seg.readUint8(addr)&n.mask() != 0
}

// SetBit sets the n'th bit of the struct's data section.
func (st Struct) SetBit(n BitOffset, v bool) error {
	if !st.bitInData(n) {
		return errOutOfBounds
	}
	addr := st.off.addOffset(n.offset())
	b := st.seg.readUint8(addr)
	if v {
		b |= n.mask()
	} else {
		b &^= n.mask()
	}
	st.seg.writeUint8(addr, b)
	return nil
}

func (st Struct) dataAddress(off DataOffset, sz Size) (Address, bool) {
	if st.seg == nil || Size(off)+sz > st.size.DataSize {
		return 0, false
	}
	return st.off.addOffset(off), true
}

// Uint8 returns the 8-bit integer off bytes into the data section, or 0
// if off is beyond the struct's data section.
func (st Struct) Uint8(off DataOffset) uint8 {
	addr, ok := st.dataAddress(off, 1)
	if !ok {
		return 0
	}
	return st.seg.readUint8(addr)
}

func (st Struct) Uint16(off DataOffset) uint16 {
	addr, ok := st.dataAddress(off, 2)
	if !ok {
		return 0
	}
	return st.seg.readUint16(addr)
}

func (st Struct) Uint32(off DataOffset) uint32 {
	addr, ok := st.dataAddress(off, 4)
	if !ok {
		return 0
	}
	return st.seg.readUint32(addr)
}

func (st Struct) Uint64(off DataOffset) uint64 {
	addr, ok := st.dataAddress(off, 8)
	if !ok {
		return 0
	}
	return st.seg.readUint64(addr)
}

// SetUint8 writes v at byte offset off in the data section, returning
// an error if off is beyond the struct's data section.
func (st Struct) SetUint8(off DataOffset, v uint8) error {
	addr, ok := st.dataAddress(off, 1)
	if !ok {
		return errOutOfBounds
	}
	st.seg.writeUint8(addr, v)
	return nil
}

func (st Struct) SetUint16(off DataOffset, v uint16) error {
	addr, ok := st.dataAddress(off, 2)
	if !ok {
		return errOutOfBounds
	}
	st.seg.writeUint16(addr, v)
	return nil
}

func (st Struct) SetUint32(off DataOffset, v uint32) error {
	addr, ok := st.dataAddress(off, 4)
	if !ok {
		return errOutOfBounds
	}
	st.seg.writeUint32(addr, v)
	return nil
}

func (st Struct) SetUint64(off DataOffset, v uint64) error {
	addr, ok := st.dataAddress(off, 8)
	if !ok {
		return errOutOfBounds
	}
	st.seg.writeUint64(addr, v)
	return nil
}

// Float32 reads a 32-bit float at off, XORed with def. Generated
// accessor code supplies def; the runtime itself is default-agnostic.
func (st Struct) Float32(off DataOffset, def float32) float32 {
	return wire.BitsToFloat32(st.Uint32(off) ^ wire.Float32ToBits(def))
}

// SetFloat32 writes f, XORed with def.
func (st Struct) SetFloat32(off DataOffset, f, def float32) error {
	return st.SetUint32(off, wire.Float32ToBits(f)^wire.Float32ToBits(def))
}

// Float64 reads a 64-bit float at off, XORed with def.
func (st Struct) Float64(off DataOffset, def float64) float64 {
	return wire.BitsToFloat64(st.Uint64(off) ^ wire.Float64ToBits(def))
}

// SetFloat64 writes f, XORed with def. This follows the *intended*
// semantics of the original capn_write_double: its literal `u.f = f`
// followed by `d.f = f` dropped the XOR against the default value;
// the correct computation XORs f's bits against def's bits.
func (st Struct) SetFloat64(off DataOffset, f, def float64) error {
	return st.SetUint64(off, wire.Float64ToBits(f)^wire.Float64ToBits(def))
}

// copyStruct makes a deep copy of src into dst, using a fresh top-level
// copy context.
func copyStruct(dst, src Struct) error {
	return copyStructBody(newCopyContext(), dst, src)
}
