package abi

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/runtime"
)

func TestSizesMatchRuntimeContracts(t *testing.T) {
	word := unsafe.Sizeof(uintptr(0))

	sizes := map[catalog.TypeKind]uintptr{
		catalog.OwnedString:    unsafe.Sizeof(String{}),
		catalog.OwnedVector:    unsafe.Sizeof(Vec[uint8]{}),
		catalog.BorrowedString: unsafe.Sizeof(Str{}),
		catalog.BorrowedSlice:  unsafe.Sizeof(Slice[uint8]{}),
		catalog.OwnedHostValue: unsafe.Sizeof(Box[uint8]{}),
		catalog.CallbackHandle: unsafe.Sizeof(Callback[int, int]{}),
	}

	for _, c := range runtime.Contracts() {
		if c.Rust == "" {
			continue
		}

		t.Run(c.Kind.String(), func(t *testing.T) {
			size, ok := sizes[c.Kind]
			require.True(t, ok, "no Go model for %s", c.Kind)
			assert.Equal(t, uintptr(c.Words)*word, size)
		})
	}
}

func TestString(t *testing.T) {
	s := NewString("héllo")
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, "héllo", s.AsStr().String())
	assert.Equal(t, "héllo", s.AsStr().ToOwned().String())

	_, err := StringFromBytes([]byte{0xff, 0xfe})
	require.Error(t, err)
	assert.Equal(t, "invalid utf-8", err.Error())

	ok, err := StringFromBytes([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, StrOf(ok.String()).Len())
}

func TestSliceSharesMemory(t *testing.T) {
	backing := []uint8{86, 75, 30, 9}
	s := SliceOf(backing)

	assert.Equal(t, 4, s.Len())
	s.Elems()[0] = 1
	assert.Equal(t, uint8(1), backing[0])

	empty := SliceOf([]uint8(nil))
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Elems())
}

func TestVec(t *testing.T) {
	v := VecOf[uint8](86, 75, 30)
	v.Push(9)

	assert.Equal(t, []uint8{86, 75, 30, 9}, v.AsSlice().Elems())

	v.ReserveTotal(16)
	assert.GreaterOrEqual(t, v.Cap(), 16)
	assert.Equal(t, 4, v.Len())

	v.ReserveTotal(2)
	assert.GreaterOrEqual(t, v.Cap(), 16, "reserve never shrinks")

	v.SetLen(2)
	assert.Equal(t, []uint8{86, 75}, v.AsSlice().Elems())
	assert.Panics(t, func() { v.SetLen(v.Cap() + 1) })

	v.Drop()
	assert.Equal(t, 0, v.Len())
}

func TestBoxOwnership(t *testing.T) {
	created0, dropped0 := BoxCounts()

	b := NewBox(2020)
	assert.Equal(t, 2020, *b.Get())

	raw := b.IntoRaw()
	assert.Nil(t, b.Get(), "IntoRaw leaves a tombstone")

	b.Drop()

	created, dropped := BoxCounts()
	assert.Equal(t, created0+1, created)
	assert.Equal(t, dropped0, dropped, "dropping a tombstone is a no-op")

	back := FromRaw(raw)
	assert.Equal(t, 2020, *back.Get())

	back.Drop()
	back.Drop()

	created, dropped = BoxCounts()
	assert.Equal(t, created0+1, created)
	assert.Equal(t, dropped0+1, dropped, "every box is dropped exactly once")
}

func TestCallback(t *testing.T) {
	var calls int

	cb := NewCallback(func(s String) uint {
		calls++
		return uint(s.Len())
	})

	assert.Equal(t, uint(5), cb.Call(NewString("hello")))
	assert.Equal(t, uint(0), cb.Call(NewString("")))
	assert.Equal(t, 2, calls)
}

func TestResult(t *testing.T) {
	v, err := Ok(2020).Into()
	require.NoError(t, err)
	assert.Equal(t, 2020, v)

	failed := Err[int]("logic error")
	assert.True(t, failed.IsErr())

	v, err = failed.Into()
	assert.Zero(t, v)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "logic error", be.Message)
}

func TestCatchUnwind(t *testing.T) {
	tests := []struct {
		name string
		f    func() (int, error)
		want string
	}{
		{"returned error", func() (int, error) { return 0, errors.New("rust error") }, "rust error"},
		{"bridge error", func() (int, error) { return 0, fmt.Errorf("wrapped: %w", &Error{Message: "inner"}) }, "inner"},
		{"panic string", func() (int, error) { panic("boom") }, "boom"},
		{"panic error", func() (int, error) { panic(errors.New("bad state")) }, "bad state"},
		{"panic value", func() (int, error) { panic(42) }, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CatchUnwind(tt.f).Into()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}

	v, err := CatchUnwind(func() (int, error) { return 7, nil }).Into()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestAbortOnPanic(t *testing.T) {
	var code int

	old := exit
	exit = func(c int) { code = c }

	defer func() { exit = old }()

	assert.Equal(t, 3, AbortOnPanic("ok", func() int { return 3 }))
	assert.Zero(t, code)

	AbortOnPanic("callback", func() int { panic("escaped") })
	assert.Equal(t, 1, code)
}
