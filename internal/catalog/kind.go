package catalog

import "bridge-generator/internal/common"

//go:generate go tool stringer -type=TypeKind -output=kind_string.go

// TypeKind is the catalog classification of a resolved type.
type TypeKind int

const (
	Primitive TypeKind = iota
	OwnedString
	BorrowedString
	OwnedVector
	BorrowedSlice
	OpaqueNativeHandle
	OwnedHostValue
	OpaqueHostType
	UserStruct
	UserEnum
	CallbackHandle
	ErrorResultWrapper
	Unit
)

// PassingMode describes how a value crosses the boundary.
type PassingMode int

const (
	ByValue PassingMode = iota
	BorrowedRef
	MutableBorrowedRef
)

// String returns the mode name.
func (m PassingMode) String() string {
	switch m {
	case ByValue:
		return "by value"
	case BorrowedRef:
		return "by shared reference"
	case MutableBorrowedRef:
		return "by mutable reference"
	default:
		return common.UnknownStr
	}
}

// Sigil returns the manifest spelling of the mode.
func (m PassingMode) Sigil() string {
	switch m {
	case BorrowedRef:
		return "&"
	case MutableBorrowedRef:
		return "&mut "
	case ByValue:
	}

	return ""
}

// IsBorrow reports whether the mode is a reference.
func (m PassingMode) IsBorrow() bool {
	return m == BorrowedRef || m == MutableBorrowedRef
}

// Direction says which side provides a function body.
type Direction int

const (
	// ImplementedNatively functions have a native body and are called by the host.
	ImplementedNatively Direction = iota
	// ImplementedByHost functions have a host body and are called by native code.
	ImplementedByHost
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case ImplementedNatively:
		return "implemented natively"
	case ImplementedByHost:
		return "implemented by host"
	default:
		return common.UnknownStr
	}
}

// DirectionForABI maps an extern block ABI string to a direction.
func DirectionForABI(abi string) (Direction, bool) {
	switch abi {
	case "C++", "C":
		return ImplementedNatively, true
	case "Rust":
		return ImplementedByHost, true
	default:
		return 0, false
	}
}

// Position is where a type reference appears.
type Position int

const (
	PosParam Position = iota
	PosReturn
	PosField
	PosElement
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case PosParam:
		return "parameter"
	case PosReturn:
		return "return"
	case PosField:
		return "struct field"
	case PosElement:
		return "generic argument"
	default:
		return common.UnknownStr
	}
}
