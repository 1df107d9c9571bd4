package abi

import "unicode/utf8"

// String is an owned UTF-8 string: pointer, length and capacity.
type String struct {
	buf []byte
}

// NewString copies s into a new String.
func NewString(s string) String {
	return String{buf: []byte(s)}
}

// StringFromBytes validates b as UTF-8 and copies it.
func StringFromBytes(b []byte) (String, error) {
	if !utf8.Valid(b) {
		return String{}, &Error{Message: "invalid utf-8"}
	}

	return String{buf: append([]byte(nil), b...)}, nil
}

// Len returns the length in bytes.
func (s String) Len() int {
	return len(s.buf)
}

// AsStr borrows s. The view is valid until s is modified or dropped.
func (s String) AsStr() Str {
	return Str{s: string(s.buf)}
}

func (s String) String() string {
	return string(s.buf)
}

// Str is a borrowed UTF-8 string: pointer and length.
type Str struct {
	s string
}

// StrOf borrows s.
func StrOf(s string) Str {
	return Str{s: s}
}

// Len returns the length in bytes.
func (s Str) Len() int {
	return len(s.s)
}

// ToOwned copies the borrowed bytes into a new String.
func (s Str) ToOwned() String {
	return NewString(s.s)
}

func (s Str) String() string {
	return s.s
}
