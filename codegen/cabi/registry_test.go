package cabi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
)

// Register a list, read it back, free it once successfully, then fail the
// second free as InvalidHandle.
func TestRegisterDerefFreeThenDoubleFreeIsInvalidHandle(t *testing.T) {
	reg := &cabi.HandleRegistry{}
	h := reg.Register([]int64{10, 20, 30})

	val, status := reg.Deref(h)
	require.Equal(t, cabi.StatusOK, status)
	assert.Equal(t, []int64{10, 20, 30}, val)

	assert.Equal(t, cabi.StatusOK, reg.Free(h))
	_, status = reg.Deref(h)
	assert.Equal(t, cabi.StatusInvalidHandle, status, "deref after free must fail")
	assert.Equal(t, cabi.StatusInvalidHandle, reg.Free(h), "double free must be idempotent, not a crash")
}

func TestFreedSlotIsReusedWithBumpedGeneration(t *testing.T) {
	reg := &cabi.HandleRegistry{}
	h1 := reg.Register("first")
	require.Equal(t, cabi.StatusOK, reg.Free(h1))

	h2 := reg.Register("second")
	val, status := reg.Deref(h2)
	require.Equal(t, cabi.StatusOK, status)
	assert.Equal(t, "second", val)

	_, status = reg.Deref(h1)
	assert.Equal(t, cabi.StatusInvalidHandle, status, "the stale handle from before the slot was reused must not resolve")
}

func TestDerefOutOfRangeHandleIsInvalid(t *testing.T) {
	reg := &cabi.HandleRegistry{}
	_, status := reg.Deref(cabi.Handle(0xFFFFFFFF))
	assert.Equal(t, cabi.StatusInvalidHandle, status)
}

func TestGlobalHandleRegistryIsASingleton(t *testing.T) {
	assert.Same(t, cabi.GlobalHandleRegistry(), cabi.GlobalHandleRegistry())
}
