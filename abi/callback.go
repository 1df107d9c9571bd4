package abi

import "unsafe"

// Callback is a host function handed to native code: a trampoline and
// the function it calls.
type Callback[A, R any] struct {
	trampoline func(fn unsafe.Pointer, arg A) R
	fn         unsafe.Pointer
}

// NewCallback wraps f.
func NewCallback[A, R any](f func(A) R) Callback[A, R] {
	return Callback[A, R]{
		trampoline: func(fn unsafe.Pointer, arg A) R {
			return (*(*func(A) R)(fn))(arg)
		},
		fn: unsafe.Pointer(&f),
	}
}

// Call invokes the wrapped function. A panic escaping the callback
// cannot be reported across the boundary and stops the process.
func (c Callback[A, R]) Call(arg A) R {
	return AbortOnPanic("callback", func() R {
		return c.trampoline(c.fn, arg)
	})
}
