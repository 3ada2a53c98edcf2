package capnp

import "bytes"

// Equal reports whether a and b have the same value: two null pointers
// are equal, two structs are equal when every field lines up (the
// shorter one's missing fields must be zero), two lists are equal when
// every element lines up, and two interfaces are equal when they name
// the same capability slot.
func Equal(a, b Ptr) (bool, error) {
	if !a.IsValid() || !b.IsValid() {
		return !a.IsValid() && !b.IsValid(), nil
	}
	if a.typ != b.typ {
		return false, nil
	}
	switch a.typ {
	case structPtrType:
		return equalStructs(a.Struct(), b.Struct())
	case listPtrType:
		return equalLists(a.List(), b.List())
	case interfacePtrType:
		return a.Interface().Capability() == b.Interface().Capability(), nil
	default:
		return false, nil
	}
}

// equalStructs walks the shorter data section's length first, then
// requires any remainder on either side to be all zero, then compares
// pointer slots up to whichever struct has more of them (Struct.Ptr
// already yields a null Ptr past its own pointer count, so a missing
// slot on one side just compares against the other side's value).
func equalStructs(a, b Struct) (bool, error) {
	if !equalZeroExtended(a.seg.slice(a.off, a.size.DataSize), b.seg.slice(b.off, b.size.DataSize)) {
		return false, nil
	}
	n := a.size.PointerCount
	if b.size.PointerCount > n {
		n = b.size.PointerCount
	}
	for i := uint16(0); i < n; i++ {
		pa, err := a.Ptr(i)
		if err != nil {
			return false, err
		}
		pb, err := b.Ptr(i)
		if err != nil {
			return false, err
		}
		eq, err := Equal(pa, pb)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

// equalZeroExtended compares two byte slices over their common prefix
// and treats whichever one is longer as equal only if its tail is all
// zero, so a struct with a trailing field added since the other was
// written still compares equal when that field was never set.
func equalZeroExtended(x, y []byte) bool {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if !bytes.Equal(x[:n], y[:n]) {
		return false
	}
	return isZeroFilled(x[n:]) && isZeroFilled(y[n:])
}

func equalLists(a, b List) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	aBits, bBits := a.flags&isBitList != 0, b.flags&isBitList != 0
	if aBits != bBits {
		return false, nil
	}
	if aBits {
		for i := 0; i < a.Len(); i++ {
			if a.Bit(i) != b.Bit(i) {
				return false, nil
			}
		}
		return true, nil
	}
	if a.flags&isCompositeList == 0 && b.flags&isCompositeList == 0 && a.elemSize != b.elemSize {
		return false, nil
	}
	if a.elemSize == pointerElementSize && b.elemSize == pointerElementSize {
		for i := 0; i < a.Len(); i++ {
			pa, err := PointerList{a}.At(i)
			var pb Ptr
			if err == nil {
				pb, err = PointerList{b}.At(i)
			}
			if err != nil {
				return false, err
			}
			if eq, err := Equal(pa, pb); err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	}
	// Lists of pure data with no pointer section can be diffed as raw
	// bytes instead of walking element by element.
	if a.size.PointerCount == 0 && b.size.PointerCount == 0 && a.size.DataSize == b.size.DataSize {
		n, _ := a.size.DataSize.times(a.length)
		return bytes.Equal(a.seg.slice(a.off, n), b.seg.slice(b.off, n)), nil
	}
	for i := 0; i < a.Len(); i++ {
		eq, err := Equal(a.Struct(i).ToPtr(), b.Struct(i).ToPtr())
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func isZeroFilled(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
