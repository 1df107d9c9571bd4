package gen

import (
	"bridge-generator/internal/catalog"
	"bridge-generator/internal/ir"
)

// Class is how a value crosses the boundary. Both generators switch on the
// same classification so their calling conventions cannot drift apart.
type Class int

const (
	// Direct values travel in registers at their canonical layout:
	// primitives, enums and trivial structs.
	Direct Class = iota
	// Indirect values travel as a pointer to caller-owned storage; the
	// callee moves out of it (parameters) or constructs into it (returns).
	Indirect
	// Reference is a borrow of a sized value, passed as one pointer.
	Reference
	// StrRepr and SliceRepr are borrows passed as {ptr, len}.
	StrRepr
	SliceRepr
	// RawBox and RawUnique transfer ownership of a heap object as its raw
	// pointer; the sending handle is tombstoned.
	RawBox
	RawUnique
	// Callback is the {trampoline, fn} pair.
	Callback
)

// Classify returns the boundary class of r.
func Classify(r ir.TypeRef) Class {
	switch r.Type.Kind {
	case catalog.BorrowedString:
		return StrRepr
	case catalog.BorrowedSlice:
		return SliceRepr
	case catalog.CallbackHandle:
		return Callback
	}

	if r.Mode.IsBorrow() {
		return Reference
	}

	switch r.Type.Kind {
	case catalog.OwnedHostValue:
		return RawBox
	case catalog.OpaqueNativeHandle:
		return RawUnique
	}

	if r.Type.NeedsIndirectABI() {
		return Indirect
	}

	return Direct
}

// Returns describes the return channel of a signature.
type Returns int

const (
	// ReturnsNothing: no return value and not fallible.
	ReturnsNothing Returns = iota
	// ReturnsValue: the ABI return value carries the result.
	ReturnsValue
	// ReturnsOutParam: an extra trailing pointer receives the result.
	ReturnsOutParam
	// ReturnsResult: an extra trailing pointer receives a ResultRepr.
	ReturnsResult
)

// ReturnChannel classifies how sig hands back its result.
func ReturnChannel(sig *ir.Signature) Returns {
	switch {
	case sig.Fallible:
		return ReturnsResult
	case sig.Ret == nil:
		return ReturnsNothing
	case Classify(*sig.Ret) == Indirect:
		return ReturnsOutParam
	default:
		return ReturnsValue
	}
}
