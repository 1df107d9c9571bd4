package ir

import (
	"strings"

	"bridge-generator/internal/catalog"
)

// ABIVersion is embedded in every symbol so glue from incompatible
// generator versions fails to link instead of misbehaving.
const ABIVersion = "bridge1"

// Mangle returns the link name of a manifest item, e.g.
// "tests$bridge1$c_return_primitive".
func Mangle(namespace []string, name string) string {
	parts := make([]string, 0, len(namespace)+2)
	parts = append(parts, namespace...)
	parts = append(parts, ABIVersion, name)

	return strings.Join(parts, "$")
}

// RuntimeSymbol returns the link name of a runtime-library entry point,
// e.g. "bridge1$string$new".
func RuntimeSymbol(parts ...string) string {
	return ABIVersion + "$" + strings.Join(parts, "$")
}

// LinkName is the symbol fragment identifying t inside instantiation
// symbols: "u8", "string", "tests$Shared".
func (b *Bridge) LinkName(t *Type) string {
	switch t.Kind {
	case catalog.Primitive:
		return t.Prim.String()
	case catalog.OwnedString:
		return "string"
	case catalog.UserStruct, catalog.UserEnum, catalog.OpaqueHostType, catalog.OpaqueNativeHandle:
		return strings.Join(append(append([]string{}, b.Namespace...), t.Name), "$")
	default:
		return strings.ToLower(t.Kind.String())
	}
}

// VecSymbol names an operation of the Vec<elem> instantiation.
func (b *Bridge) VecSymbol(elem *Type, op string) string {
	return RuntimeSymbol("vec", b.LinkName(elem), op)
}

// BoxSymbol names an operation of the Box<target> instantiation.
func (b *Bridge) BoxSymbol(target *Type, op string) string {
	return RuntimeSymbol("box", b.LinkName(target), op)
}

// UniquePtrSymbol names an operation of the UniquePtr<class> instantiation.
func (b *Bridge) UniquePtrSymbol(class *Type, op string) string {
	return RuntimeSymbol("unique_ptr", b.LinkName(class), op)
}
