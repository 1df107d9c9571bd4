package ir

import (
	"strings"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/diagnostic"
)

// Bridge is one validated manifest.
type Bridge struct {
	// Source is the manifest file name.
	Source string
	// Module is the enclosing host module name ("ffi" when none was written).
	Module    string
	Namespace []string
	Includes  []string
	Structs   []*Struct
	Enums     []*Enum
	Opaques   []*Opaque
	Functions []*Function
	// Generic instantiations in first-use order, deduplicated by Key.
	Vecs       []*Type
	Boxes      []*Type
	UniquePtrs []*Type
	// WordSizes lists the pointer widths (in bytes) layouts were computed for.
	WordSizes []uint64
}

// Struct is a shared value type with fields in declaration order.
type Struct struct {
	Name   string
	Doc    []string
	Fields []Field
	// Trivial structs contain only primitives, enums and trivial structs and
	// can be copied bitwise on both sides.
	Trivial bool
	// Layouts maps a word size to the computed layout.
	Layouts map[uint64]Layout
	Span    diagnostic.Span
}

type Field struct {
	Name string
	Doc  []string
	Type *Type
}

// Layout is the size, alignment and field offsets of a struct.
type Layout struct {
	Size    uint64
	Align   uint64
	Offsets []uint64
}

// Enum is a C-like enum with an explicit integer representation.
type Enum struct {
	Name     string
	Doc      []string
	Repr     catalog.Prim
	Variants []Variant
	Span     diagnostic.Span
}

type Variant struct {
	Name  string
	Doc   []string
	Value uint64
}

// Opaque is a type declared with `type X;` whose layout is known only to
// the side that implements it.
type Opaque struct {
	Name string
	Doc  []string
	// Side is ImplementedNatively for native classes and ImplementedByHost
	// for host types.
	Side catalog.Direction
	Span diagnostic.Span
}

// Function is a bridged function.
type Function struct {
	Name      string
	Doc       []string
	Direction catalog.Direction
	Sig       Signature
	// Symbol is the mangled link name shared by both generated sides.
	Symbol string
	Span   diagnostic.Span
}

// Signature is a parameter list and return.
type Signature struct {
	Params []Param
	// Ret is nil for functions returning nothing.
	Ret      *TypeRef
	Fallible bool
}

type Param struct {
	Name string
	Ref  TypeRef
}

// TypeRef is a resolved type plus its passing mode.
type TypeRef struct {
	Type *Type
	Mode catalog.PassingMode
}

// Type is a resolved catalog type.
type Type struct {
	Kind catalog.TypeKind
	// Prim is set for Primitive.
	Prim catalog.Prim
	// Name is set for user structs, enums and opaque types.
	Name string
	// Elem is the element of Vec and slices and the pointee of Box.
	Elem *Type
	// Owned marks an opaque native type held through UniquePtr.
	Owned bool
	// Sig is set for callbacks.
	Sig *Signature

	Struct *Struct
	Enum   *Enum
}

// Key is a canonical rendering used for deduplication and messages.
func (t *Type) Key() string {
	switch t.Kind {
	case catalog.Primitive:
		return t.Prim.String()
	case catalog.OwnedString:
		return "String"
	case catalog.BorrowedString:
		return "str"
	case catalog.OwnedVector:
		return "Vec<" + t.Elem.Key() + ">"
	case catalog.BorrowedSlice:
		return "[" + t.Elem.Key() + "]"
	case catalog.OpaqueNativeHandle:
		if t.Owned {
			return "UniquePtr<" + t.Name + ">"
		}

		return t.Name
	case catalog.OwnedHostValue:
		return "Box<" + t.Elem.Key() + ">"
	case catalog.CallbackHandle:
		return t.Sig.String()
	case catalog.Unit:
		return "()"
	case catalog.OpaqueHostType, catalog.UserStruct, catalog.UserEnum:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// String renders the reference with its passing-mode sigil.
func (r TypeRef) String() string {
	return r.Mode.Sigil() + r.Type.Key()
}

// String renders the signature as a fn type.
func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Ref.String()
	}

	out := "fn(" + strings.Join(parts, ", ") + ")"
	if s.Ret != nil {
		ret := s.Ret.String()
		if s.Fallible {
			ret = "Result<" + ret + ">"
		}

		out += " -> " + ret
	}

	return out
}

// IsTrivial reports whether values of t can be copied bitwise.
func (t *Type) IsTrivial() bool {
	switch t.Kind {
	case catalog.Primitive, catalog.UserEnum:
		return true
	case catalog.UserStruct:
		return t.Struct != nil && t.Struct.Trivial
	default:
		return false
	}
}

// NeedsIndirectABI reports whether a by-value t crosses the boundary as a
// pointer to caller-owned storage rather than in registers. Any type with a
// destructor on the native side is passed this way.
func (t *Type) NeedsIndirectABI() bool {
	switch t.Kind {
	case catalog.OwnedString, catalog.OwnedVector:
		return true
	case catalog.UserStruct:
		return !t.IsTrivial()
	default:
		return false
	}
}
