package abi

import "unsafe"

// Slice is a borrowed contiguous sequence: pointer and length.
type Slice[T any] struct {
	ptr *T
	len int
}

// SliceOf borrows s.
func SliceOf[T any](s []T) Slice[T] {
	if len(s) == 0 {
		return Slice[T]{}
	}

	return Slice[T]{ptr: &s[0], len: len(s)}
}

// Len returns the number of elements.
func (s Slice[T]) Len() int {
	return s.len
}

// Elems returns the elements as a Go slice sharing the same memory.
func (s Slice[T]) Elems() []T {
	if s.ptr == nil {
		return nil
	}

	return unsafe.Slice(s.ptr, s.len)
}

// Vec is an owned growable sequence: pointer, length and capacity.
type Vec[T any] struct {
	elems []T
}

// VecOf copies elems into a new Vec.
func VecOf[T any](elems ...T) Vec[T] {
	return Vec[T]{elems: append([]T(nil), elems...)}
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int {
	return len(v.elems)
}

// Cap returns the capacity.
func (v *Vec[T]) Cap() int {
	return cap(v.elems)
}

// Push appends x.
func (v *Vec[T]) Push(x T) {
	v.elems = append(v.elems, x)
}

// ReserveTotal grows the capacity to at least n. It never shrinks.
func (v *Vec[T]) ReserveTotal(n int) {
	if n <= cap(v.elems) {
		return
	}

	grown := make([]T, len(v.elems), n)
	copy(grown, v.elems)
	v.elems = grown
}

// SetLen changes the length within the current capacity. Elements exposed
// by growing the length are whatever the storage holds.
func (v *Vec[T]) SetLen(n int) {
	if n < 0 || n > cap(v.elems) {
		panic("abi: Vec.SetLen beyond capacity")
	}

	v.elems = v.elems[:n]
}

// AsSlice borrows the elements.
func (v *Vec[T]) AsSlice() Slice[T] {
	return SliceOf(v.elems)
}

// Drop releases the storage.
func (v *Vec[T]) Drop() {
	v.elems = nil
}
