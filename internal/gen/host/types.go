package host

import (
	"fmt"
	"strings"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
)

// spelling renders types and value conversions in Rust. rt prefixes
// runtime items, e.g. "::bridge::".
type spelling struct {
	rt string
}

// typ is the Rust spelling of t as written in user code.
func (s spelling) typ(t *ir.Type) string {
	switch t.Kind {
	case catalog.Primitive:
		return t.Prim.String()
	case catalog.OwnedString:
		return "::std::string::String"
	case catalog.BorrowedString:
		return "str"
	case catalog.OwnedVector:
		return "::std::vec::Vec<" + s.typ(t.Elem) + ">"
	case catalog.BorrowedSlice:
		return "[" + s.typ(t.Elem) + "]"
	case catalog.OwnedHostValue:
		return "::std::boxed::Box<" + s.typ(t.Elem) + ">"
	case catalog.OpaqueNativeHandle:
		if t.Owned {
			return s.rt + "UniquePtr<" + t.Name + ">"
		}

		return t.Name
	case catalog.CallbackHandle:
		return s.fnPointer(t.Sig)
	case catalog.Unit:
		return "()"
	default:
		return t.Name
	}
}

// ref renders r with its passing mode. A non-empty lifetime is attached to
// borrows.
func (s spelling) ref(r ir.TypeRef, lifetime string) string {
	if !r.Mode.IsBorrow() {
		return s.typ(r.Type)
	}

	out := "&"
	if lifetime != "" {
		out += lifetime + " "
	}

	if r.Mode == catalog.MutableBorrowedRef {
		out += "mut "
	}

	return out + s.typ(r.Type)
}

func (s spelling) fnPointer(sig *ir.Signature) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = s.ref(p.Ref, "")
	}

	out := "fn(" + strings.Join(params, ", ") + ")"
	if sig.Ret != nil {
		out += " -> " + s.ref(*sig.Ret, "")
	}

	return out
}

// rawPointer is the pointer a Reference return travels as.
func (s spelling) rawPointer(r ir.TypeRef) string {
	if r.Mode == catalog.MutableBorrowedRef {
		return "*mut " + s.typ(r.Type)
	}

	return "*const " + s.typ(r.Type)
}

// abiParam is the extern "C" parameter type of r.
func (s spelling) abiParam(r ir.TypeRef) string {
	switch gen.Classify(r) {
	case gen.Indirect:
		return "*mut " + s.typ(r.Type)
	case gen.Reference:
		return s.ref(r, "")
	case gen.StrRepr:
		return s.rt + "Str"
	case gen.SliceRepr:
		return s.rt + "SliceRepr<" + s.typ(r.Type.Elem) + ">"
	case gen.RawBox:
		return "*mut " + s.typ(r.Type.Elem)
	case gen.RawUnique:
		return "*mut " + r.Type.Name
	case gen.Callback:
		return s.rt + "FnRepr"
	default:
		return s.typ(r.Type)
	}
}

// abiReturn is the extern "C" return type of r on the value channel.
func (s spelling) abiReturn(r ir.TypeRef) string {
	if gen.Classify(r) == gen.Reference {
		return s.rawPointer(r)
	}

	return s.abiParam(r)
}

// okType is the ResultRepr payload of a fallible signature.
func (s spelling) okType(sig *ir.Signature) string {
	if sig.Ret == nil {
		return "()"
	}

	switch gen.Classify(*sig.Ret) {
	case gen.RawBox, gen.RawUnique:
		return s.abiParam(*sig.Ret)
	default:
		return s.typ(sig.Ret.Type)
	}
}

// toABI converts the Rust value expr into its ABI argument form.
func (s spelling) toABI(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.Indirect:
		return "&mut *" + expr + " as *mut " + s.typ(r.Type)
	case gen.StrRepr:
		return s.rt + "Str::from(" + expr + ")"
	case gen.SliceRepr:
		if r.Mode == catalog.MutableBorrowedRef {
			return s.rt + "SliceRepr::from_mut(" + expr + ")"
		}

		return s.rt + "SliceRepr::from_ref(" + expr + ")"
	case gen.RawBox:
		return "::std::boxed::Box::into_raw(" + expr + ")"
	case gen.RawUnique:
		return expr + ".into_raw()"
	case gen.Callback:
		return fmt.Sprintf("%sFnRepr::new(%s as *const (), %s as *const ())", s.rt, trampolineName(expr), expr)
	default:
		return expr
	}
}

// toReturn converts the Rust value expr into its ABI return form.
func (s spelling) toReturn(r ir.TypeRef, expr string) string {
	if gen.Classify(r) == gen.Reference {
		return expr + " as " + s.rawPointer(r)
	}

	return s.toABI(r, expr)
}

// toOK converts the Rust value expr into a ResultRepr payload. Only
// owning pointers change form; everything else is stored as is.
func (s spelling) toOK(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.RawBox, gen.RawUnique:
		return s.toABI(r, expr)
	default:
		return expr
	}
}

// fromParam converts an incoming ABI parameter into the Rust value.
func (s spelling) fromParam(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.Indirect:
		return "::core::ptr::read(" + expr + ")"
	case gen.Reference:
		return expr
	default:
		return s.fromReturn(r, expr)
	}
}

// fromReturn converts an ABI return value into the Rust value.
func (s spelling) fromReturn(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.Reference:
		if r.Mode == catalog.MutableBorrowedRef {
			return "&mut *" + expr
		}

		return "&*" + expr
	case gen.StrRepr:
		return expr + ".as_str()"
	case gen.SliceRepr:
		if r.Mode == catalog.MutableBorrowedRef {
			return expr + ".as_mut_slice()"
		}

		return expr + ".as_slice()"
	case gen.RawBox:
		return "::std::boxed::Box::from_raw(" + expr + ")"
	case gen.RawUnique:
		return s.rt + "UniquePtr::from_raw(" + expr + ")"
	default:
		return expr
	}
}

func trampolineName(param string) string {
	return "__" + param + "_trampoline"
}

// paramNames names every parameter; callback parameters are unnamed in the
// manifest.
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
