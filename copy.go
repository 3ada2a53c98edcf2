package capnp

// copyContext drives a single top-level cross-session pointer assignment.
// It tracks depth (to bound recursion the way
// the depthLimit on reads does) and, for the lifetime of one writePtr
// call chain, the source-address -> destination-pointer map that
// preserves DAG sharing and breaks cycles.
//
// A fresh copyContext is created per top-level Struct.SetPtr /
// PointerList.Set call; the map is discarded when that call returns,
// matching the C original's "tree is destroyed at the end of the
// top-level copy call".
type copyContext struct {
	seen  map[copyKey]Ptr
	depth int
}

// copyKey identifies a source object by its segment and address, the Go
// equivalent of ordering a red-black tree by pointer value (see
// DESIGN.md: a map gives the same lookup behavior without a hand-rolled
// balanced tree).
type copyKey struct {
	msg  *Message
	seg  SegmentID
	addr Address
}

const maxCopyDepth = 64

func newCopyContext() copyContext {
	return copyContext{seen: make(map[copyKey]Ptr)}
}

func (cc copyContext) incDepth() copyContext {
	cc.depth++
	return cc
}

// copyOrCloneStruct returns a Struct living in dst's message that holds a
// deep copy of src (which may live in a different message entirely, or
// may simply be a list element that must not alias its parent list).
func (cc copyContext) copyOrCloneStruct(dst *Segment, src Struct) (Struct, error) {
	if cc.seen == nil {
		cc = newCopyContext()
	}
	if cc.depth > maxCopyDepth {
		return Struct{}, errDepthLimit
	}
	if src.seg != nil && src.seg.msg != dst.msg {
		if cached, ok := cc.seen[structCopyKey(src)]; ok {
			return cached.Struct(), nil
		}
	}
	newSeg, newAddr, err := alloc(dst, src.size.totalSize())
	if err != nil {
		return Struct{}, err
	}
	out := Struct{seg: newSeg, off: newAddr, size: src.size}
	if src.seg != nil && src.seg.msg != dst.msg {
		cc.seen[structCopyKey(src)] = out.ToPtr()
	}
	if err := copyStructBody(cc.incDepth(), out, src); err != nil {
		return Struct{}, err
	}
	return out, nil
}

func structCopyKey(s Struct) copyKey {
	return copyKey{msg: s.seg.msg, seg: s.seg.id, addr: s.off}
}

func listCopyKey(l List) copyKey {
	return copyKey{msg: l.seg.msg, seg: l.seg.id, addr: l.off}
}

// copyOrCloneList returns a List living in dst's message holding a deep
// copy of src.
func (cc copyContext) copyOrCloneList(dst *Segment, src List) (List, error) {
	if cc.seen == nil {
		cc = newCopyContext()
	}
	if cc.depth > maxCopyDepth {
		return List{}, errDepthLimit
	}
	if src.seg != nil && src.seg.msg != dst.msg {
		if cached, ok := cc.seen[listCopyKey(src)]; ok {
			return cached.List(), nil
		}
	}
	sz := src.allocSize()
	newSeg, newAddr, err := alloc(dst, sz)
	if err != nil {
		return List{}, err
	}
	out := List{seg: newSeg, off: newAddr, length: src.length, size: src.size, elemSize: src.elemSize, flags: src.flags &^ isListMember}
	if out.flags&isCompositeList != 0 {
		newSeg.writeRawPointer(newAddr, src.seg.readRawPointer(src.off-Address(wordSize)))
		var ok bool
		out.off, ok = out.off.addSize(wordSize)
		if !ok {
			return List{}, errOverflow
		}
		sz -= wordSize
	}
	if src.seg != nil && src.seg.msg != dst.msg {
		cc.seen[listCopyKey(src)] = out.ToPtr()
	}
	cc = cc.incDepth()
	if out.elemSize == pointerElementSize {
		for i := 0; i < src.Len(); i++ {
			p, err := src.seg.readPtr(src.off.element(int32(i), wordSize), maxDepth)
			if err != nil {
				return List{}, err
			}
			if err := newSeg.writePtr(cc, out.off.element(int32(i), wordSize), p); err != nil {
				return List{}, err
			}
		}
	} else if out.flags&isBitList != 0 || out.size.PointerCount == 0 {
		end, _ := src.off.addSize(sz)
		copy(newSeg.data[out.off:], src.seg.data[src.off:end])
	} else {
		for i := 0; i < src.Len(); i++ {
			if err := copyStructBody(cc, out.Struct(i), src.Struct(i)); err != nil {
				return List{}, err
			}
		}
	}
	return out, nil
}

// copyStructBody copies dst's data and pointer sections from src,
// zero-filling any fields dst has that src lacks (schema-evolution
// tolerance: newer fields on either side are handled field-by-field).
func copyStructBody(cc copyContext, dst, src Struct) error {
	if dst.seg == nil {
		return nil
	}
	if src.seg == nil {
		return nil
	}
	srcData := src.seg.slice(src.off, src.size.DataSize)
	dstData := dst.seg.slice(dst.off, dst.size.DataSize)
	n := copy(dstData, srcData)
	for j := n; j < len(dstData); j++ {
		dstData[j] = 0
	}

	srcPtrSect, ok1 := src.off.addSize(src.size.DataSize)
	dstPtrSect, ok2 := dst.off.addSize(dst.size.DataSize)
	if !ok1 || !ok2 {
		return errOverflow
	}
	numSrcPtrs := src.size.PointerCount
	numDstPtrs := dst.size.PointerCount
	for j := uint16(0); j < numSrcPtrs && j < numDstPtrs; j++ {
		srcAddr := srcPtrSect.element(int32(j), wordSize)
		dstAddr := dstPtrSect.element(int32(j), wordSize)
		p, err := src.seg.readPtr(srcAddr, maxDepth)
		if err != nil {
			return err
		}
		if err := dst.seg.writePtr(cc, dstAddr, p); err != nil {
			return err
		}
	}
	for j := numSrcPtrs; j < numDstPtrs; j++ {
		addr := dstPtrSect.element(int32(j), wordSize)
		dst.seg.writeRawPointer(addr, 0)
	}
	return nil
}
