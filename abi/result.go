package abi

import (
	"errors"
	"fmt"
	"os"
)

// Error is a failure reported across the boundary. Message is the text
// the failing side produced, unchanged.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Result carries the outcome of a fallible call.
type Result[T any] struct {
	value T
	err   *string
}

// Ok returns a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err returns a failed result carrying msg.
func Err[T any](msg string) Result[T] {
	return Result[T]{err: &msg}
}

// IsErr reports whether r failed.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Into returns the value, or an *Error holding the message.
func (r Result[T]) Into() (T, error) {
	if r.err != nil {
		var zero T
		return zero, &Error{Message: *r.err}
	}

	return r.value, nil
}

// CatchUnwind runs f and captures both a returned error and a panic as a
// failed result. An *Error keeps its message; other errors contribute
// their Error() text.
func CatchUnwind[T any](f func() (T, error)) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Err[T](panicMessage(p))
		}
	}()

	v, err := f()
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return Err[T](be.Message)
		}

		return Err[T](err.Error())
	}

	return Ok(v)
}

// exit is replaced in tests.
var exit = func(code int) { os.Exit(code) }

// AbortOnPanic runs f. A panic is reported on stderr with label and ends
// the process, since infallible calls have no channel to report it.
func AbortOnPanic[T any](label string, f func() T) T {
	defer func() {
		if p := recover(); p != nil {
			fmt.Fprintf(os.Stderr, "bridge: panic in %s: %s\n", label, panicMessage(p))
			exit(1)
		}
	}()

	return f()
}

func panicMessage(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}
