package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossSessionDeepCopy(t *testing.T) {
	srcMsg, srcSeg, err := NewMessage(NewHeapArena())
	require.NoError(t, err)
	_ = srcMsg

	inner, err := NewStruct(srcSeg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, inner.SetUint64(0, 123))

	outer, err := NewRootStruct(srcSeg, ObjectSize{PointerCount: 2})
	require.NoError(t, err)
	require.NoError(t, outer.SetPtr(0, inner.ToPtr()))
	// Both pointer slots reference the same struct; the copy must
	// preserve that sharing rather than duplicating it.
	require.NoError(t, outer.SetPtr(1, inner.ToPtr()))

	dstMsg, dstSeg, err := NewMessage(NewHeapArena())
	require.NoError(t, err)
	dstOuter, err := NewRootStruct(dstSeg, ObjectSize{PointerCount: 1})
	require.NoError(t, err)
	require.NoError(t, dstOuter.SetPtr(0, outer.ToPtr()))

	root, err := dstMsg.Root()
	require.NoError(t, err)
	copied := root.Struct()
	p0, err := copied.Ptr(0)
	require.NoError(t, err)
	copiedOuter := p0.Struct()

	a, err := copiedOuter.Ptr(0)
	require.NoError(t, err)
	b, err := copiedOuter.Ptr(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), a.Struct().Uint64(0))
	assert.Equal(t, uint64(123), b.Struct().Uint64(0))
	// The two copied pointers must land at the same address: DAG
	// sharing survives the cross-message copy.
	assert.Equal(t, a.Struct().Address(), b.Struct().Address())
	assert.NotEqual(t, inner.Address(), a.Struct().Address())
}

func TestDeepCopyBreaksSelfReferenceCycle(t *testing.T) {
	_, seg := newTestMessage(t)
	a, err := NewStruct(seg, ObjectSize{PointerCount: 1})
	require.NoError(t, err)
	require.NoError(t, a.SetPtr(0, a.ToPtr()))

	dstMsg, dstSeg, err := NewMessage(NewHeapArena())
	require.NoError(t, err)
	dst, err := NewRootStruct(dstSeg, ObjectSize{PointerCount: 1})
	require.NoError(t, err)
	require.NoError(t, dst.SetPtr(0, a.ToPtr()))

	root, err := dstMsg.Root()
	require.NoError(t, err)
	outerCopy := root.Struct()
	p0, err := outerCopy.Ptr(0)
	require.NoError(t, err)
	innerCopy := p0.Struct()

	self, err := innerCopy.Ptr(0)
	require.NoError(t, err)
	assert.Equal(t, innerCopy.Address(), self.Struct().Address())
}
