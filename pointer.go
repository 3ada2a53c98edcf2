package capnp

// ptrType is the kind discriminator of a Ptr, matching the wire format's
// pointer tag kind (collapsing {struct} / {list, ptr-list, bit-list} /
// {interface} into three cases; list flavor is further refined by
// ptrFlags and List.elemSize).
type ptrType uint8

const (
	nullPtrType ptrType = iota
	structPtrType
	listPtrType
	interfacePtrType
)

// ptrFlags carries the remaining per-pointer bits the wire format's
// pointer value encodes: is_list_member, and (for lists) whether the list
// is a bit-list or a composite-struct list.
type ptrFlags uint8

const (
	isListMember ptrFlags = 1 << iota
	isBitList
	isCompositeList
)

// Ptr is a Cap'n Proto pointer: a struct, a list, an interface, or null.
// It is the runtime's "fat handle": a resolved pointer carrying everything
// needed to read or copy the object it refers to, not just its address.
// The zero value is a null pointer.
type Ptr struct {
	seg        *Segment
	off        Address
	size       ObjectSize  // struct: data+pointer section sizes; list: per-element size
	length     int32       // list element count; capability index for an interface
	elemSize   ElementSize // list element size code
	typ        ptrType
	flags      ptrFlags
	depthLimit uint
}

// IsValid reports whether p refers to an object (as opposed to null).
func (p Ptr) IsValid() bool {
	return p.seg != nil
}

// Struct returns p as a Struct, or the zero Struct if p is not a struct.
func (p Ptr) Struct() Struct {
	if p.typ != structPtrType {
		return Struct{}
	}
	return Struct{seg: p.seg, off: p.off, size: p.size, flags: p.flags, depthLimit: p.depthLimit}
}

// List returns p as a List, or the zero List if p is not a list.
func (p Ptr) List() List {
	if p.typ != listPtrType {
		return List{}
	}
	return List{seg: p.seg, off: p.off, length: p.length, size: p.size, elemSize: p.elemSize, flags: p.flags, depthLimit: p.depthLimit}
}

// Interface returns p as an Interface, or the zero Interface if p is not
// an interface.
func (p Ptr) Interface() Interface {
	if p.typ != interfacePtrType {
		return Interface{}
	}
	return Interface{seg: p.seg, idx: p.length}
}

func (p Ptr) address() Address {
	return p.off
}

func (p Ptr) segment() *Segment {
	return p.seg
}

// value returns the raw pointer word that, if stored at paddr in p's own
// segment, would reference p (a near pointer).
func (p Ptr) value(paddr Address) rawPointer {
	switch p.typ {
	case structPtrType:
		return p.Struct().value(paddr)
	case listPtrType:
		return p.List().value(paddr)
	case interfacePtrType:
		return p.Interface().value(paddr)
	default:
		return 0
	}
}

// Interface is a capability pointer. RPC is out of scope for this
// runtime: it only round-trips the capability table index, and does not
// resolve or invoke capabilities.
type Interface struct {
	seg *Segment
	idx int32
}

// NewInterface returns an interface pointer referencing capability table
// index capIdx within seg's message.
func NewInterface(seg *Segment, capIdx uint32) Interface {
	return Interface{seg: seg, idx: int32(capIdx)}
}

// Capability returns the capability table index this interface references.
func (i Interface) Capability() uint32 {
	return uint32(i.idx)
}

// IsValid reports whether i refers to a segment (as opposed to the zero
// Interface).
func (i Interface) IsValid() bool {
	return i.seg != nil
}

// ToPtr returns i as a generic Ptr.
func (i Interface) ToPtr() Ptr {
	if i.seg == nil {
		return Ptr{}
	}
	return Ptr{seg: i.seg, length: i.idx, typ: interfacePtrType}
}

func (i Interface) value(paddr Address) rawPointer {
	return rawInterfacePointer(uint32(i.idx))
}
