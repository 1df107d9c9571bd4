package check

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/diagnostic"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/syntax"
)

const ffi = `#[bridge(namespace = tests)]
mod ffi {
    struct Shared {
        z: usize,
    }

    struct Named {
        id: u32,
        name: String,
        shared: Shared,
    }

    enum Color {
        Red,
        Green = 5,
        Blue,
    }

    extern "C++" {
        include!("tests/ffi/tests.h");

        type C;

        fn c_return_primitive() -> usize;
        fn c_return_shared() -> Shared;
        fn c_return_box() -> Box<R>;
        fn c_return_unique_ptr() -> UniquePtr<C>;
        fn c_return_ref(shared: &Shared) -> &usize;
        fn c_return_str(shared: &Shared) -> &str;
        fn c_return_vec_u8() -> Vec<u8>;
        fn c_take_shared(shared: Shared);
        fn c_take_ref_c(c: &C);
        fn c_take_slice(s: &[u8]);
        fn c_take_callback(callback: fn(String) -> usize);
        fn c_take_vec_u8(v: Vec<u8>);
        fn c_fail_return_primitive() -> Result<usize>;
        fn c_try_unit() -> Result<()>;
    }

    extern "Rust" {
        type R;

        fn r_return_primitive() -> usize;
        fn r_take_mut(r: &mut R);
        fn r_take_color(c: Color) -> Color;
        fn r_fail_return_primitive() -> Result<usize>;
    }
}
`

func checkSource(t *testing.T, src string) (*ir.Bridge, diagnostic.Diagnostics) {
	t.Helper()

	f, diags := syntax.Parse("ffi.rs", src)
	require.True(t, diags.IsValid(), "%v", diags.Error())

	return Check(f, DefaultOptions())
}

func errorCodes(d diagnostic.Diagnostics) []string {
	codes := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		codes = append(codes, e.Code)
	}

	return codes
}

func TestCheck_FullManifest(t *testing.T) {
	b, diags := checkSource(t, ffi)
	require.True(t, diags.IsValid(), "%v", diags.Error())
	require.NotNil(t, b)

	assert.Equal(t, []string{"tests"}, b.Namespace)
	assert.Equal(t, "ffi", b.Module)
	assert.Equal(t, []string{"tests/ffi/tests.h"}, b.Includes)
	require.Len(t, b.Structs, 2)
	require.Len(t, b.Enums, 1)
	require.Len(t, b.Opaques, 2)
	require.Len(t, b.Functions, 18)

	shared := b.Structs[0]
	assert.True(t, shared.Trivial)
	assert.Equal(t, ir.Layout{Size: 8, Align: 8, Offsets: []uint64{0}}, shared.Layouts[8])
	assert.Equal(t, ir.Layout{Size: 4, Align: 4, Offsets: []uint64{0}}, shared.Layouts[4])

	named := b.Structs[1]
	assert.False(t, named.Trivial)
	assert.Equal(t, []uint64{0, 8, 32}, named.Layouts[8].Offsets)
	assert.Equal(t, uint64(40), named.Layouts[8].Size)

	color := b.Enums[0]
	assert.Equal(t, catalog.U8, color.Repr)
	require.Len(t, color.Variants, 3)
	assert.Equal(t, "Green", color.Variants[1].Name)
	assert.Equal(t, uint64(5), color.Variants[1].Value)
	assert.Equal(t, uint64(6), color.Variants[2].Value)

	fn := b.Functions[0]
	assert.Equal(t, "c_return_primitive", fn.Name)
	assert.Equal(t, "tests$bridge1$c_return_primitive", fn.Symbol)
	assert.Equal(t, catalog.ImplementedNatively, fn.Direction)
	require.NotNil(t, fn.Sig.Ret)
	assert.Equal(t, catalog.Primitive, fn.Sig.Ret.Type.Kind)

	// Box<R> references a host type declared in a later block.
	box := b.Functions[2]
	assert.Equal(t, "Box<R>", box.Sig.Ret.Type.Key())
	assert.Equal(t, catalog.OwnedHostValue, box.Sig.Ret.Type.Kind)

	ret := b.Functions[5].Sig.Ret
	assert.Equal(t, catalog.BorrowedString, ret.Type.Kind)
	assert.Equal(t, catalog.BorrowedRef, ret.Mode)

	fail := b.Functions[12]
	assert.True(t, fail.Sig.Fallible)
	assert.Equal(t, "fn() -> Result<usize>", fail.Sig.String())

	unit := b.Functions[13]
	assert.True(t, unit.Sig.Fallible)
	assert.Nil(t, unit.Sig.Ret)

	mut := b.Functions[15].Sig.Params[0].Ref
	assert.Equal(t, catalog.OpaqueHostType, mut.Type.Kind)
	assert.Equal(t, catalog.MutableBorrowedRef, mut.Mode)
	assert.Equal(t, catalog.ImplementedByHost, b.Functions[15].Direction)

	require.Len(t, b.Vecs, 1)
	assert.Equal(t, "u8", b.Vecs[0].Key())
	require.Len(t, b.Boxes, 1)
	assert.Equal(t, "R", b.Boxes[0].Key())
	require.Len(t, b.UniquePtrs, 1)
	assert.Equal(t, "UniquePtr<C>", b.UniquePtrs[0].Key())

	require.Len(t, b.Callbacks(), 1)
	assert.Equal(t, "fn(String) -> usize", b.Callbacks()[0].String())
}

func TestCheck_UnknownTypeReportedPerUse(t *testing.T) {
	src := "extern \"C++\" {\n    fn f(x: Vec<Foo>, y: &Foo) -> usize;\n}\n"

	b, diags := checkSource(t, src)
	assert.Nil(t, b)
	require.Len(t, diags.Errors, 2)

	assert.Equal(t, []string{"unknown_type", "unknown_type"}, errorCodes(diags))

	first := diags.Errors[0]
	assert.Equal(t, diagnostic.ClassSemantic, first.Class)
	assert.Equal(t, 2, first.Span.Start.Line)
	assert.Equal(t, 17, first.Span.Start.Column)
	assert.Equal(t, 20, first.Span.End.Column)
}

func TestCheck_UndeclaredTypeScenario(t *testing.T) {
	src := "#[bridge]\nmod ffi {\n    extern \"C++\" {\n        fn c_take_thing(t: Thing);\n    }\n}\n"

	b, diags := checkSource(t, src)
	assert.Nil(t, b)
	require.Len(t, diags.Errors, 1)
	assert.Empty(t, diags.Warnings)

	d := diags.Errors[0]
	assert.Equal(t, "unknown_type", d.Code)
	offset := strings.Index(src, "Thing")
	assert.Equal(t, diagnostic.Span{
		File:  "ffi.rs",
		Start: diagnostic.Position{Offset: offset, Line: 4, Column: 28},
		End:   diagnostic.Position{Offset: offset + 5, Line: 4, Column: 33},
	}, d.Span)
}

func TestCheck_Suggestions(t *testing.T) {
	src := "struct Shared { z: usize }\nenum Color { Red }\nextern \"C++\" { fn f(s: Shard); fn g() -> Colr; }"

	_, diags := checkSource(t, src)
	require.Len(t, diags.Errors, 2)
	assert.Equal(t, []string{"did you mean `Shared`?"}, diags.Errors[0].Suggestions)
	assert.Equal(t, []string{"did you mean `Color`?"}, diags.Errors[1].Suggestions)
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"forward reference", "extern \"C++\" { fn f(s: S); }\nstruct S { x: u8 }", "forward_reference"},
		{"forward field", "struct A { b: B }\nstruct B { x: u8 }", "forward_reference"},
		{"recursive struct", "struct A { a: A }", "recursive_struct"},
		{"empty struct", "struct A {}", "empty_struct"},
		{"empty enum", "enum E {}", "empty_enum"},
		{"duplicate struct", "struct A { x: u8 }\nstruct A { y: u8 }", "duplicate_name"},
		{"duplicate fn and type", "extern \"C++\" { type f; fn f(); }", "duplicate_name"},
		{"reserved name", "struct Box { x: u8 }", "reserved_name"},
		{"reserved primitive", "extern \"Rust\" { type u8; }", "reserved_name"},
		{"duplicate field", "struct A { x: u8, x: u16 }", "duplicate_field"},
		{"duplicate parameter", "extern \"C++\" { fn f(a: u8, a: u8); }", "duplicate_parameter"},
		{"duplicate variant", "enum E { A, A }", "duplicate_variant"},
		{"duplicate discriminant", "enum E { A = 1, B = 1 }", "duplicate_discriminant"},
		{"implicit duplicate discriminant", "enum E { A = 1, B = 0, C }", "duplicate_discriminant"},
		{"discriminant overflow", "enum E { A = 4294967296 }", "discriminant_overflow"},
		{"unsupported abi", "extern \"Python\" { fn f(); }", "unsupported_abi"},
		{"fallible borrow", "extern \"C++\" { fn f(x: &u8) -> Result<&u8>; }", "fallible_borrow"},
		{"fallible str", "extern \"C++\" { fn f(x: &str) -> Result<&str>; }", "fallible_borrow"},
		{"missing borrow source", "extern \"C++\" { fn f() -> &str; }", "missing_borrow_source"},
		{"opaque native by value", "extern \"C++\" { type C; fn f(c: C); }", "illegal_passing_mode"},
		{"opaque native mut", "extern \"C++\" { type C; fn f(c: &mut C); }", "illegal_passing_mode"},
		{"opaque host by value", "extern \"Rust\" { type R; fn f(r: R); }", "illegal_passing_mode"},
		{"borrowed box", "extern \"Rust\" { type R; fn f(r: &Box<R>); }", "illegal_passing_mode"},
		{"borrowed unique ptr", "extern \"C++\" { type C; fn f(c: &UniquePtr<C>); }", "illegal_passing_mode"},
		{"mut str", "extern \"C++\" { fn f(s: &mut str); }", "illegal_passing_mode"},
		{"bare str", "extern \"C++\" { fn f(s: str); }", "illegal_passing_mode"},
		{"bare slice", "extern \"C++\" { fn f(s: [u8]); }", "illegal_passing_mode"},
		{"nested reference", "extern \"C++\" { fn f(s: &&u8); }", "nested_reference"},
		{"reference field", "struct A { x: &u8 }", "illegal_passing_mode"},
		{"str field", "struct A { x: &str }", "illegal_passing_mode"},
		{"box field", "extern \"Rust\" { type R; }\nstruct A { x: Box<R> }", "illegal_passing_mode"},
		{"callback to host", "extern \"Rust\" { fn f(cb: fn(u8)); }", "illegal_passing_mode"},
		{"callback return", "extern \"C++\" { fn f() -> fn(u8); }", "illegal_passing_mode"},
		{"fallible callback", "extern \"C++\" { fn f(cb: fn() -> Result<u8>); }", "misplaced_result"},
		{"nested result", "extern \"C++\" { fn f() -> Vec<Result<u8>>; }", "misplaced_result"},
		{"result param", "extern \"C++\" { fn f(r: Result<u8>); }", "misplaced_result"},
		{"unit param", "extern \"C++\" { fn f(u: ()); }", "illegal_passing_mode"},
		{"nested vec", "extern \"C++\" { fn f(v: Vec<Vec<u8>>); }", "invalid_type_argument"},
		{"vec of opaque", "extern \"C++\" { type C; fn f(v: Vec<C>); }", "invalid_type_argument"},
		{"box of native", "extern \"C++\" { type C; fn f() -> Box<C>; }", "invalid_type_argument"},
		{"unique ptr of struct", "struct S { x: u8 }\nextern \"C++\" { fn f() -> UniquePtr<S>; }", "invalid_type_argument"},
		{"slice of strings", "extern \"C++\" { fn f(s: &[String]); }", "invalid_type_argument"},
		{"slice of non trivial", "struct S { s: String }\nextern \"C++\" { fn f(s: &[S]); }", "invalid_type_argument"},
		{"vec without arg", "extern \"C++\" { fn f(v: Vec); }", "missing_type_argument"},
		{"arg on primitive", "extern \"C++\" { fn f(v: u8<u8>); }", "unexpected_type_argument"},
		{"cxx string", "extern \"C++\" { fn f(s: &CxxString); }", "unsupported_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, diags := checkSource(t, tt.src)
			assert.Nil(t, b)
			assert.Equal(t, []string{tt.code}, errorCodes(diags))
		})
	}
}

func TestCheck_CollectsAllErrors(t *testing.T) {
	src := `struct A { x: Missing }
enum E { X, X }
extern "C++" {
    type C;
    fn f(c: C) -> Result<&u8>;
    fn g(s: &mut str);
}
extern "Rust" {
    fn h(cb: fn());
}
`

	b, diags := checkSource(t, src)
	assert.Nil(t, b)
	assert.Equal(t, []string{
		"unknown_type",
		"duplicate_variant",
		"illegal_passing_mode",
		"fallible_borrow",
		"illegal_passing_mode",
		"illegal_passing_mode",
	}, errorCodes(diags))
}

func TestCheck_DefaultNamespace(t *testing.T) {
	f, diags := syntax.Parse("a.bridge", "extern \"C++\" { fn f(); }")
	require.True(t, diags.IsValid())

	b, diags := Check(f, Options{Namespace: []string{"org", "app"}})
	require.True(t, diags.IsValid())
	assert.Equal(t, "org$app$bridge1$f", b.Functions[0].Symbol)
	assert.Equal(t, []uint64{8, 4}, b.WordSizes)
}

func TestCheck_ManifestNamespaceWins(t *testing.T) {
	f, _ := syntax.Parse("a.bridge", "#[bridge(namespace = x)]\nextern \"C++\" { fn f(); }")

	b, diags := Check(f, Options{Namespace: []string{"org"}})
	require.True(t, diags.IsValid())
	assert.Equal(t, "x$bridge1$f", b.Functions[0].Symbol)
}

func TestCheck_UnusedOpaqueWarns(t *testing.T) {
	src := `extern "C++" {
    type Used;
    type Spare;
    fn f(u: &Used);
}
extern "Rust" {
    type Idle;
}
`

	b, diags := checkSource(t, src)
	require.NotNil(t, b, "warnings do not block lowering")
	assert.Empty(t, diags.Errors)
	require.Len(t, diags.Warnings, 2)

	w := diags.Warnings[0]
	assert.Equal(t, "unused_type", w.Code)
	assert.Equal(t, diagnostic.DiagnosticWarning, w.Severity)
	assert.Equal(t, "opaque type `Spare` is never used", w.Message)
	assert.Equal(t, 3, w.Span.Start.Line)
	assert.Equal(t, "opaque type `Idle` is never used", diags.Warnings[1].Message)
}

func TestCheck_NoWarningsForUsedOpaques(t *testing.T) {
	_, diags := checkSource(t, ffi)
	assert.Empty(t, diags.Warnings)
}
