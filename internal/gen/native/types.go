package native

import (
	"fmt"
	"strings"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
)

// spelling renders types and value conversions in C++.
type spelling struct {
	ns []string
}

// qualify returns the fully qualified name of a manifest item.
func (s spelling) qualify(name string) string {
	if len(s.ns) == 0 {
		return "::" + name
	}

	return "::" + strings.Join(s.ns, "::") + "::" + name
}

func (s spelling) typ(t *ir.Type) string {
	switch t.Kind {
	case catalog.Primitive:
		return t.Prim.Cxx()
	case catalog.OwnedString:
		return "::bridge::String"
	case catalog.BorrowedString:
		return "::bridge::Str"
	case catalog.OwnedVector:
		return "::bridge::Vec<" + s.typ(t.Elem) + ">"
	case catalog.BorrowedSlice:
		return "::bridge::Slice<" + s.typ(t.Elem) + ">"
	case catalog.OwnedHostValue:
		return "::bridge::Box<" + s.typ(t.Elem) + ">"
	case catalog.OpaqueNativeHandle:
		if t.Owned {
			return "::std::unique_ptr<" + s.qualify(t.Name) + ">"
		}

		return s.qualify(t.Name)
	case catalog.CallbackHandle:
		return "::bridge::Fn<" + s.fnType(t.Sig) + ">"
	case catalog.Unit:
		return "void"
	default:
		return s.qualify(t.Name)
	}
}

// ref renders r as it appears in a user-facing signature.
func (s spelling) ref(r ir.TypeRef) string {
	switch gen.Classify(r) {
	case gen.StrRepr:
		return "::bridge::Str"
	case gen.SliceRepr:
		if r.Mode == catalog.MutableBorrowedRef {
			return "::bridge::Slice<" + s.typ(r.Type.Elem) + ">"
		}

		return "::bridge::Slice<const " + s.typ(r.Type.Elem) + ">"
	case gen.Reference:
		if r.Mode == catalog.MutableBorrowedRef {
			return s.typ(r.Type) + " &"
		}

		return "const " + s.typ(r.Type) + " &"
	default:
		return s.typ(r.Type)
	}
}

func (s spelling) ret(sig *ir.Signature) string {
	if sig.Ret == nil {
		return "void"
	}

	return s.ref(*sig.Ret)
}

// fnType is the function type of sig, e.g. "::std::size_t(::bridge::String)".
func (s spelling) fnType(sig *ir.Signature) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = s.ref(p.Ref)
	}

	return s.ret(sig) + "(" + strings.Join(params, ", ") + ")"
}

func (s spelling) pointer(r ir.TypeRef) string {
	if r.Mode == catalog.MutableBorrowedRef {
		return s.typ(r.Type) + " *"
	}

	return "const " + s.typ(r.Type) + " *"
}

// abiParam is the extern "C" parameter type of r.
func (s spelling) abiParam(r ir.TypeRef) string {
	switch gen.Classify(r) {
	case gen.Indirect:
		return s.typ(r.Type) + " *"
	case gen.RawBox:
		return s.typ(r.Type.Elem) + " *"
	case gen.RawUnique:
		return s.qualify(r.Type.Name) + " *"
	default:
		return s.ref(r)
	}
}

// abiReturn is the extern "C" return type of r on the value channel.
func (s spelling) abiReturn(r ir.TypeRef) string {
	if gen.Classify(r) == gen.Reference {
		return s.pointer(r)
	}

	return s.abiParam(r)
}

// okType is the ResultRepr payload of a fallible signature.
func (s spelling) okType(sig *ir.Signature) string {
	if sig.Ret == nil {
		return "void"
	}

	switch gen.Classify(*sig.Ret) {
	case gen.RawBox, gen.RawUnique:
		return s.abiParam(*sig.Ret)
	default:
		return s.typ(sig.Ret.Type)
	}
}

// fromABI converts an incoming ABI parameter into the user-facing value.
func (s spelling) fromABI(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.Indirect:
		return "::std::move(*" + expr + ")"
	case gen.RawBox:
		return s.typ(r.Type) + "::from_raw(" + expr + ")"
	case gen.RawUnique:
		return s.typ(r.Type) + "(" + expr + ")"
	default:
		return expr
	}
}

// fromReturn converts an ABI return value into the user-facing value.
func (s spelling) fromReturn(r ir.TypeRef, expr string) string {
	if gen.Classify(r) == gen.Reference {
		return "*" + expr
	}

	return s.fromABI(r, expr)
}

// toABI converts a user-facing value into its ABI form. Indirect values
// are handled by the caller, which owns the storage.
func (s spelling) toABI(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.Reference:
		return "&" + expr
	case gen.RawBox:
		return expr + ".into_raw()"
	case gen.RawUnique:
		return expr + ".release()"
	default:
		return expr
	}
}

// toArg converts a user-facing parameter into an ABI argument.
func (s spelling) toArg(r ir.TypeRef, expr string) string {
	if gen.Classify(r) == gen.Reference {
		return expr
	}

	return s.toABI(r, expr)
}

// decl joins a type and a name.
func decl(typ, name string) string {
	if name == "" {
		return strings.TrimSuffix(typ, " ")
	}

	if strings.HasSuffix(typ, "*") || strings.HasSuffix(typ, "&") {
		return typ + name
	}

	return typ + " " + name
}

func paramNames(sig *ir.Signature) []string {
	names := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		names[i] = p.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("arg%d", i)
		}
	}

	return names
}
