package capnp

import "errors"

// Structural errors, returned when a decode detects corruption in the
// wire format itself (a bad pointer address, an unrecognized tag, a
// landing pad that doesn't round-trip). These are left unwrapped since
// they're on the hot read/write path.
var (
	errPointerAddress = errors.New("capnp: invalid pointer address")
	errBadLandingPad  = errors.New("capnp: invalid far pointer landing pad")
	errBadTag         = errors.New("capnp: invalid tag word")
	errOtherPointer   = errors.New("capnp: unknown pointer type")
	errObjectSize     = errors.New("capnp: invalid object size")
	errElementSize    = errors.New("capnp: mismatched list element size")
	errDepthLimit     = errors.New("capnp: depth limit reached")
	errOverflow       = errors.New("capnp: address or size overflow")
	errOutOfBounds    = errors.New("capnp: address out of bounds")
)
