package catalog

import "fmt"

type modeSet uint8

const (
	val modeSet = 1 << ByValue
	ref modeSet = 1 << BorrowedRef
	mut modeSet = 1 << MutableBorrowedRef
)

func (s modeSet) has(mode PassingMode) bool {
	return s&(1<<mode) != 0
}

type rule struct {
	// allowed modes per Position, indexed by Position.
	allowed [4]modeSet
	// nativeOnly restricts the kind to ImplementedNatively signatures.
	nativeOnly bool
	// reasons overrides the generic rejection text for specific modes.
	reasons map[PassingMode]string
}

// The directionality/ownership matrix. Positions are
// {parameter, return, struct field, generic argument}.
var matrix = map[TypeKind]rule{
	Primitive:   {allowed: [4]modeSet{val | ref | mut, val | ref | mut, val, val}},
	UserEnum:    {allowed: [4]modeSet{val | ref | mut, val | ref | mut, val, val}},
	UserStruct:  {allowed: [4]modeSet{val | ref | mut, val | ref | mut, val, val}},
	OwnedString: {allowed: [4]modeSet{val | ref | mut, val | ref | mut, val, val}},
	BorrowedString: {
		allowed: [4]modeSet{ref, ref, 0, 0},
		reasons: map[PassingMode]string{
			MutableBorrowedRef: "`&mut str` is not supported; pass `&mut String` to mutate an owned string",
		},
	},
	OwnedVector: {allowed: [4]modeSet{val | ref | mut, val | ref | mut, val, 0}},
	BorrowedSlice: {
		allowed: [4]modeSet{ref | mut, ref | mut, 0, 0},
		reasons: map[PassingMode]string{
			ByValue: "slices are unsized and can only be passed behind a reference",
		},
	},
	OpaqueNativeHandle: {
		allowed: [4]modeSet{val | ref, val | ref, 0, 0},
		reasons: map[PassingMode]string{
			MutableBorrowedRef: "mutable borrow of an opaque native type needs an owning handle; pass UniquePtr by value instead",
		},
	},
	OpaqueHostType: {
		allowed: [4]modeSet{ref | mut, ref | mut, 0, 0},
		reasons: map[PassingMode]string{
			ByValue: "opaque host types have no layout known to native code; pass them in a Box or by reference",
		},
	},
	OwnedHostValue: {
		allowed: [4]modeSet{val, val, 0, 0},
		reasons: map[PassingMode]string{
			BorrowedRef:        "borrow the boxed value directly instead of the Box",
			MutableBorrowedRef: "borrow the boxed value directly instead of the Box",
		},
	},
	CallbackHandle: {
		allowed:    [4]modeSet{val, 0, 0, 0},
		nativeOnly: true,
	},
	ErrorResultWrapper: {allowed: [4]modeSet{0, val, 0, 0}},
	Unit:               {allowed: [4]modeSet{0, val, 0, 0}},
}

// Verdict is the outcome of a matrix lookup.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Check looks up whether kind may appear at pos with mode in a signature of
// the given direction. The matrix never changes between manifests.
func Check(kind TypeKind, pos Position, mode PassingMode, dir Direction) Verdict {
	rl, ok := matrix[kind]
	if !ok {
		return Verdict{Reason: fmt.Sprintf("%s is not a bridgeable type", kind)}
	}

	if rl.nativeOnly && dir != ImplementedNatively {
		return Verdict{Reason: fmt.Sprintf("%s may only be passed to natively implemented functions", kindNoun(kind))}
	}

	if rl.allowed[pos].has(mode) {
		return Verdict{Allowed: true}
	}

	if reason, ok := rl.reasons[mode]; ok {
		return Verdict{Reason: reason}
	}

	if rl.allowed[pos] == 0 {
		return Verdict{Reason: fmt.Sprintf("%s is not allowed in %s position", kindNoun(kind), pos)}
	}

	return Verdict{Reason: fmt.Sprintf("%s cannot be passed %s in %s position", kindNoun(kind), mode, pos)}
}

// FallibleOK reports whether a value of kind/mode may be the success payload
// of a fallible function. The error path has no value to hand back, so a
// borrow would dangle.
func FallibleOK(kind TypeKind, mode PassingMode) bool {
	if mode.IsBorrow() {
		return false
	}

	switch kind {
	case BorrowedString, BorrowedSlice, ErrorResultWrapper, CallbackHandle:
		return false
	default:
		return true
	}
}

// VecElementOK reports whether kind may be the element of Vec<T>.
func VecElementOK(kind TypeKind) bool {
	switch kind {
	case Primitive, UserEnum, UserStruct, OwnedString:
		return true
	default:
		return false
	}
}

// SliceElementOK reports whether kind may be the element of &[T]. Struct
// elements must additionally be trivially copyable.
func SliceElementOK(kind TypeKind) bool {
	switch kind {
	case Primitive, UserEnum, UserStruct:
		return true
	default:
		return false
	}
}

// BoxTargetOK reports whether kind may be the pointee of Box<T>.
func BoxTargetOK(kind TypeKind) bool {
	switch kind {
	case OpaqueHostType, UserStruct, Primitive:
		return true
	default:
		return false
	}
}

// RuntimeWords is the fixed runtime-library layout contract in machine words
// for the handle kinds. It is the same for every manifest.
func RuntimeWords(kind TypeKind, mode PassingMode) (int, bool) {
	if mode.IsBorrow() && kind != BorrowedString && kind != BorrowedSlice {
		return 1, true
	}

	switch kind {
	case OwnedString, OwnedVector:
		return 3, true
	case BorrowedString, BorrowedSlice, CallbackHandle:
		return 2, true
	case OwnedHostValue, OpaqueNativeHandle:
		return 1, true
	default:
		return 0, false
	}
}

func kindNoun(kind TypeKind) string {
	switch kind {
	case Primitive:
		return "a primitive"
	case OwnedString:
		return "String"
	case BorrowedString:
		return "&str"
	case OwnedVector:
		return "Vec"
	case BorrowedSlice:
		return "a slice"
	case OpaqueNativeHandle:
		return "an opaque native type"
	case OwnedHostValue:
		return "Box"
	case OpaqueHostType:
		return "an opaque host type"
	case UserStruct:
		return "a shared struct"
	case UserEnum:
		return "a shared enum"
	case CallbackHandle:
		return "a callback"
	case ErrorResultWrapper:
		return "Result"
	case Unit:
		return "()"
	default:
		return kind.String()
	}
}
