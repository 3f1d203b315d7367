package cabi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
)

func TestLastErrorRoundTripsPerThread(t *testing.T) {
	tid := cabi.CurrentThreadID()
	cabi.ClearLastError(tid)
	assert.Equal(t, "", cabi.LastError(tid))

	cabi.SetLastError(tid, "boom")
	assert.Equal(t, "boom", cabi.LastError(tid))

	cabi.ClearLastError(tid)
	assert.Equal(t, "", cabi.LastError(tid))
}

func TestWithPanicBoundaryConvertsPanicToThreadPanicStatus(t *testing.T) {
	tid := cabi.CurrentThreadID()
	cabi.ClearLastError(tid)

	status := cabi.WithPanicBoundary(tid, func() cabi.Status {
		panic("kaboom")
	})

	assert.Equal(t, cabi.StatusThreadPanic, status)
	assert.Contains(t, cabi.LastError(tid), "kaboom")
}

func TestWithPanicBoundaryPassesThroughNormalStatus(t *testing.T) {
	status := cabi.WithPanicBoundary(cabi.CurrentThreadID(), func() cabi.Status {
		return cabi.StatusOK
	})
	assert.Equal(t, cabi.StatusOK, status)
}

func TestEmitRuntimeSupportRendersVersionAndErrorAPI(t *testing.T) {
	out := cabi.EmitRuntimeSupport()
	assert.Contains(t, out, "func logos_version() string")
	assert.Contains(t, out, "func logos_abi_version() int")
	assert.Contains(t, out, "func logos_last_error() string")
	assert.Contains(t, out, "func logos_clear_error()")
	assert.Contains(t, out, "func logos_free_string(")
}
