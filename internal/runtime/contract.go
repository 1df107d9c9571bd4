package runtime

import (
	"bridge-generator/internal/catalog"
	"bridge-generator/internal/ir"
)

// Contract is one fixed-layout runtime type.
type Contract struct {
	Kind catalog.TypeKind
	Mode catalog.PassingMode
	// Rust and Cxx are representative spellings inside the runtime. An
	// empty spelling means the side has no distinct type to assert on.
	Rust string
	Cxx  string
	// Words is the size in machine words; alignment is always one word.
	Words int
}

// Contracts returns the runtime layout table. It is derived from the
// catalog so the emitted assertions and the generators cannot disagree.
func Contracts() []Contract {
	rows := []Contract{
		{Kind: catalog.OwnedString, Rust: "::std::string::String", Cxx: "String"},
		{Kind: catalog.OwnedVector, Rust: "::std::vec::Vec<u8>", Cxx: "Vec<::std::uint8_t>"},
		{Kind: catalog.BorrowedString, Mode: catalog.BorrowedRef, Rust: "Str", Cxx: "Str"},
		{Kind: catalog.BorrowedSlice, Mode: catalog.BorrowedRef, Rust: "SliceRepr<u8>", Cxx: "Slice<const ::std::uint8_t>"},
		{Kind: catalog.OwnedHostValue, Rust: "::std::boxed::Box<u8>", Cxx: "Box<::std::uint8_t>"},
		{Kind: catalog.OpaqueNativeHandle, Cxx: "::std::unique_ptr<int>"},
		{Kind: catalog.CallbackHandle, Rust: "FnRepr", Cxx: "Fn<void()>"},
	}

	for i := range rows {
		words, ok := catalog.RuntimeWords(rows[i].Kind, rows[i].Mode)
		if !ok {
			panic("runtime: no layout for " + rows[i].Kind.String())
		}

		rows[i].Words = words
	}

	return rows
}

// Provides reports whether the runtime library already carries the
// instantiation for element or pointee t.
func Provides(t *ir.Type) bool {
	return t.Kind == catalog.Primitive || t.Kind == catalog.OwnedString
}

// Builtins returns the element types whose Vec instantiations the runtime
// carries, in emission order.
func Builtins() []*ir.Type {
	out := make([]*ir.Type, 0, len(catalog.Prims())+1)
	for _, p := range catalog.Prims() {
		out = append(out, &ir.Type{Kind: catalog.Primitive, Prim: p})
	}

	return append(out, &ir.Type{Kind: catalog.OwnedString})
}
