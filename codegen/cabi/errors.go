package cabi

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// PackageVersion is the value logos_version reports to foreign callers.
// ABIVersion is bumped only when the emitted function family's binary
// layout changes in a way a recompiled caller must account for.
const (
	PackageVersion = "0.1.0"
	ABIVersion     = 1
)

// errorStore is the process-wide, per-thread (here: per goroutine-provided
// key, since Go has no stable thread-local storage) map from caller identity
// to the last diagnostic message set on that caller's behalf. A poisoned
// mutex has no Go equivalent; ordinary sync.Mutex already recovers cleanly
// from a panicking holder because Go mutexes do not poison.
type errorStore struct {
	mu   sync.Mutex
	byID map[uint64]string
}

var globalErrors = &errorStore{byID: make(map[uint64]string)}

// SetLastError records msg as the last error for the calling thread/fiber
// id. Every accessor that returns a non-OK Status must call this before
// returning so LastError can report why.
func SetLastError(threadID uint64, msg string) {
	globalErrors.mu.Lock()
	defer globalErrors.mu.Unlock()
	globalErrors.byID[threadID] = msg
}

// LastError returns the last error recorded for threadID, or "" if none (or
// it was cleared). This backs logos_last_error; the caller is expected to
// copy it into its own thread-local CString cache before the next call on
// the same thread can overwrite it.
func LastError(threadID uint64) string {
	globalErrors.mu.Lock()
	defer globalErrors.mu.Unlock()
	return globalErrors.byID[threadID]
}

// ClearLastError resets threadID's last-error slot, backing
// logos_clear_error.
func ClearLastError(threadID uint64) {
	globalErrors.mu.Lock()
	defer globalErrors.mu.Unlock()
	delete(globalErrors.byID, threadID)
}

// CurrentThreadID identifies the calling goroutine for the error store's
// per-thread map. Go exposes no official goroutine ID, so this parses the
// "goroutine N [...]" header off a single-frame stack trace -- the standard
// pragmatic workaround, acceptable here because it is only ever used to key
// a diagnostic string, never for scheduling or correctness.
func CurrentThreadID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// WithPanicBoundary runs fn and converts any panic into StatusThreadPanic,
// recording the panic value as the last error for threadID instead of
// letting it unwind across the FFI edge. The entry points that EmitRecord,
// EmitUnion and the collection emitters generate run their bodies through
// this (or WithPanicBoundaryHandle) rather than bare.
func WithPanicBoundary(threadID uint64, fn func() Status) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			SetLastError(threadID, fmt.Sprintf("panic: %v", r))
			status = StatusThreadPanic
		}
	}()
	return fn()
}

// WithPanicBoundaryHandle is WithPanicBoundary for entry points whose
// success value is a freshly registered Handle; a panic yields the zero
// handle alongside StatusThreadPanic.
func WithPanicBoundaryHandle(threadID uint64, fn func() (Handle, Status)) (h Handle, status Status) {
	defer func() {
		if r := recover(); r != nil {
			SetLastError(threadID, fmt.Sprintf("panic: %v", r))
			h = 0
			status = StatusThreadPanic
		}
	}()
	return fn()
}
