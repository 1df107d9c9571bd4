package abi

import "sync/atomic"

var (
	boxesCreated atomic.Int64
	boxesDropped atomic.Int64
)

// BoxCounts returns how many boxes have been created and dropped since
// the process started.
func BoxCounts() (created, dropped int64) {
	return boxesCreated.Load(), boxesDropped.Load()
}

// Box is a uniquely owned heap value: one pointer.
type Box[T any] struct {
	ptr *T
}

// NewBox moves v to the heap.
func NewBox[T any](v T) Box[T] {
	boxesCreated.Add(1)
	return Box[T]{ptr: &v}
}

// FromRaw takes ownership of a pointer produced by IntoRaw.
func FromRaw[T any](ptr *T) Box[T] {
	return Box[T]{ptr: ptr}
}

// Get returns the boxed value, or nil for a tombstoned box.
func (b *Box[T]) Get() *T {
	return b.ptr
}

// IntoRaw releases ownership of the value to the caller. b becomes a
// tombstone that Drop ignores.
func (b *Box[T]) IntoRaw() *T {
	ptr := b.ptr
	b.ptr = nil

	return ptr
}

// Drop destroys the value once. Dropping a tombstone does nothing.
func (b *Box[T]) Drop() {
	if b.ptr == nil {
		return
	}

	b.ptr = nil
	boxesDropped.Add(1)
}
