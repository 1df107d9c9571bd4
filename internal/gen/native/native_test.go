package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/gen"
	"bridge-generator/internal/gen/gentest"
)

func generate(t *testing.T, opts gen.Options) (header, source string) {
	t.Helper()

	files, err := Generate(gentest.Bridge(t, gentest.Manifest), opts)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "tests.bridge.h", files[0].Filename)
	assert.Equal(t, "tests.bridge.cc", files[1].Filename)

	return string(files[0].Content), string(files[1].Content)
}

func TestGenerate_HeaderLayout(t *testing.T) {
	header, _ := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, header, `// `+gen.Banner+`
// source: tests.rs
#pragma once
#include "bridge.h"

namespace tests {
struct C;
struct R;
struct Shared;
struct Named;
enum class Color : ::std::uint8_t;
} // namespace tests
`)

	assert.Contains(t, header, `enum class Color : ::std::uint8_t {
  Red = 0,
  Green = 5,
  Blue = 6,
};`)

	assert.Contains(t, header, `/// A value both sides can copy.
struct Shared final {
  ::std::size_t z;
};`)

	assert.Contains(t, header, `struct Named final {
  ::std::uint32_t id;
  ::bridge::String name;
  ::tests::Shared shared;
};`)
}

func TestGenerate_HeaderDeclarations(t *testing.T) {
	header, _ := generate(t, gen.DefaultOptions("tests"))

	for _, want := range []string{
		"::std::size_t r_return_primitive() noexcept;\n",
		"::bridge::String r_return_string() noexcept;\n",
		"::bridge::Box<::tests::R> r_return_box() noexcept;\n",
		"void r_take_string(::bridge::String s) noexcept;\n",
		"void r_take_mut(::tests::R &r) noexcept;\n",
		"::tests::Color r_take_color(::tests::Color c) noexcept;\n",
		"::std::size_t r_fail_return_primitive();\n",
		"::bridge::Box<::tests::R> r_fail_return_box();\n",
	} {
		assert.Contains(t, header, want)
	}

	assert.Contains(t, header, "namespace bridge {\ntemplate <>\nVec<::tests::Shared>::Vec() noexcept;\n")
	assert.Contains(t, header, "template <>\nvoid Box<::tests::R>::drop() noexcept;\n")
	assert.Contains(t, header, "template <>\n::tests::Shared *Box<::tests::Shared>::alloc() noexcept;\n")
	assert.NotContains(t, header, "Box<::tests::R>::alloc")
	assert.Contains(t, header,
		"template <>\n::std::size_t Fn<::std::size_t(::bridge::String)>::operator()(::bridge::String arg0) const noexcept;\n")

	assert.NotContains(t, header, "c_return_primitive", "native functions are declared by the user's headers")
}

func TestGenerate_HeaderAssertions(t *testing.T) {
	header, _ := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, header, `#if UINTPTR_MAX == 0xFFFFFFFFFFFFFFFFu
static_assert(sizeof(::tests::Shared) == 8, "bridge layout: size of ::tests::Shared");
static_assert(alignof(::tests::Shared) == 8, "bridge layout: alignment of ::tests::Shared");
static_assert(offsetof(::tests::Shared, z) == 0, "bridge layout: offset of ::tests::Shared::z");
static_assert(sizeof(::tests::Named) == 40, "bridge layout: size of ::tests::Named");`)
	assert.Contains(t, header, `static_assert(offsetof(::tests::Named, shared) == 32, "bridge layout: offset of ::tests::Named::shared");
static_assert(sizeof(::tests::Color) == 1, "bridge layout: size of ::tests::Color");
#elif UINTPTR_MAX == 0xFFFFFFFFu
static_assert(sizeof(::tests::Shared) == 4, "bridge layout: size of ::tests::Shared");`)
	assert.Contains(t, header, `static_assert(offsetof(::tests::Named, shared) == 16, "bridge layout: offset of ::tests::Named::shared");
static_assert(sizeof(::tests::Color) == 1, "bridge layout: size of ::tests::Color");
#endif
`)
}

func TestGenerate_Trampolines(t *testing.T) {
	_, source := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, source, "#include \"tests/ffi/tests.h\"\n#include \"tests.bridge.h\"\n\nextern \"C\" {\n")

	assert.Contains(t, source, `::std::size_t tests$bridge1$c_return_primitive() noexcept {
  ::std::size_t (*c_return_primitive$)() = ::tests::c_return_primitive;
  return c_return_primitive$();
}`)

	assert.Contains(t, source, `void tests$bridge1$c_return_named(::tests::Named *return$) noexcept {
  ::tests::Named (*c_return_named$)() = ::tests::c_return_named;
  ::new (return$) ::tests::Named(c_return_named$());
}`)

	assert.Contains(t, source, `const ::std::size_t *tests$bridge1$c_return_ref(const ::tests::Shared &shared) noexcept {
  const ::std::size_t &(*c_return_ref$)(const ::tests::Shared &) = ::tests::c_return_ref;
  return &c_return_ref$(shared);
}`)

	for _, want := range []string{
		"::std::size_t *tests$bridge1$c_return_mut(::tests::Shared &shared) noexcept {",
		"::bridge::Str tests$bridge1$c_return_str(const ::tests::Shared &shared) noexcept {",
		"return c_return_unique_ptr$().release();",
		"c_take_unique_ptr$(::std::unique_ptr<::tests::C>(c));",
		"c_take_named$(::std::move(*named));",
		"c_take_box$(::bridge::Box<::tests::Shared>::from_raw(b));",
		"return c_return_box$().into_raw();",
		"void tests$bridge1$c_take_slice(::bridge::Slice<const ::std::uint8_t> s) noexcept {",
		"void tests$bridge1$c_take_mut_slice(::bridge::Slice<::std::uint8_t> s) noexcept {",
		"void tests$bridge1$c_take_ref_c(const ::tests::C &c) noexcept {",
		"void (*c_take_callback$)(::bridge::Fn<::std::size_t(::bridge::String)>) = ::tests::c_take_callback;",
	} {
		assert.Contains(t, source, want)
	}
}

func TestGenerate_FallibleTrampolines(t *testing.T) {
	_, source := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, source, `void tests$bridge1$c_fail_return_primitive(::bridge::detail::ResultRepr<::std::size_t> *return$) noexcept {
  ::std::size_t (*c_fail_return_primitive$)() = ::tests::c_fail_return_primitive;
  try {
    return$->set_ok(c_fail_return_primitive$());
  } catch (const ::std::exception &e) {
    return$->set_err(e.what());
  } catch (...) {
    return$->set_err("unknown exception");
  }
}`)

	assert.Contains(t, source, `void tests$bridge1$c_try_unit(::bridge::detail::ResultRepr<void> *return$) noexcept {
  void (*c_try_unit$)() = ::tests::c_try_unit;
  try {
    c_try_unit$();
    return$->set_ok();
  }`)
}

func TestGenerate_HostWrappers(t *testing.T) {
	_, source := generate(t, gen.DefaultOptions("tests"))

	for _, want := range []string{
		"::std::size_t tests$bridge1$r_return_primitive() noexcept;\n",
		"void tests$bridge1$r_return_string(::bridge::String *return$) noexcept;\n",
		"::tests::R *tests$bridge1$r_return_box() noexcept;\n",
		"void tests$bridge1$r_take_mut(::tests::R &r) noexcept;\n",
		"void tests$bridge1$r_fail_return_box(::bridge::detail::ResultRepr<::tests::R *> *return$) noexcept;\n",
	} {
		assert.Contains(t, source, want)
	}

	assert.Contains(t, source, `::bridge::String r_return_string() noexcept {
  ::bridge::detail::MaybeUninit<::bridge::String> return$;
  tests$bridge1$r_return_string(&return$.value);
  return return$.take();
}`)

	assert.Contains(t, source, `void r_take_string(::bridge::String s) noexcept {
  ::bridge::detail::ManuallyDrop<::bridge::String> s$(::std::move(s));
  tests$bridge1$r_take_string(&s$.value);
}`)

	assert.Contains(t, source, `::bridge::Box<::tests::R> r_return_box() noexcept {
  return ::bridge::Box<::tests::R>::from_raw(tests$bridge1$r_return_box());
}`)

	assert.Contains(t, source, `::std::size_t r_fail_return_primitive() {
  ::bridge::detail::ResultRepr<::std::size_t> return$;
  tests$bridge1$r_fail_return_primitive(&return$);
  return return$.take();
}`)

	assert.Contains(t, source, `::bridge::Box<::tests::R> r_fail_return_box() {
  ::bridge::detail::ResultRepr<::tests::R *> return$;
  tests$bridge1$r_fail_return_box(&return$);
  return ::bridge::Box<::tests::R>::from_raw(return$.take());
}`)
}

func TestGenerate_Specializations(t *testing.T) {
	_, source := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, source, `void bridge1$unique_ptr$tests$C$drop(::tests::C *ptr) noexcept {
  ::std::default_delete<::tests::C>()(ptr);
}`)

	assert.Contains(t, source, "void bridge1$vec$tests$Shared$new(::bridge::Vec<::tests::Shared> *ptr) noexcept;\n")
	assert.Contains(t, source, "::tests::Shared *bridge1$box$tests$Shared$alloc() noexcept;\n")
	assert.Contains(t, source, "template <>\nVec<::tests::Shared>::Vec() noexcept {\n  bridge1$vec$tests$Shared$new(this);\n}")
	assert.NotContains(t, source, "inline Vec<", "specializations for user types are defined once")

	assert.Contains(t, source, `template <>
::std::size_t Fn<::std::size_t(::bridge::String)>::operator()(::bridge::String arg0) const noexcept {
  auto trampoline$ = reinterpret_cast<::std::size_t (*)(::bridge::String *, void *)>(this->trampoline);
  ::bridge::detail::ManuallyDrop<::bridge::String> arg0$(::std::move(arg0));
  return trampoline$(&arg0$.value, this->fn);
}`)
}

func TestGenerate_HeaderOnly(t *testing.T) {
	opts := gen.DefaultOptions("tests")
	opts.HeaderOnly = true
	opts.HeaderExt = ".hpp"
	opts.RuntimeHeader = "rt/bridge.h"

	files, err := Generate(gentest.Bridge(t, gentest.Manifest), opts)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "tests.bridge.hpp", files[0].Filename)
	assert.Contains(t, string(files[0].Content), `#include "rt/bridge.h"`)
}

func TestGenerate_ClassKey(t *testing.T) {
	opts := gen.DefaultOptions("tests")
	opts.ClassKey = "class"

	header, _ := generate(t, opts)

	assert.Contains(t, header, "namespace tests {\nclass C;\nstruct R;\nstruct Shared;\n")
}

func TestGenerate_NoNamespace(t *testing.T) {
	b := gentest.Bridge(t, `mod ffi {
    struct P {
        x: f64,
    }

    extern "C++" {
        fn area(p: P) -> f64;
    }
}`)

	files, err := Generate(b, gen.DefaultOptions("shapes"))
	require.NoError(t, err)
	require.Len(t, files, 2)

	header, source := string(files[0].Content), string(files[1].Content)

	assert.Contains(t, header, "\nstruct P;\n")
	assert.Contains(t, header, "static_assert(sizeof(::P) == 8")
	assert.NotContains(t, header, "namespace bridge {", "no user instantiations or callbacks")
	assert.Contains(t, source, "double bridge1$area(::P p) noexcept {\n  double (*area$)(::P) = ::area;\n  return area$(p);\n}")
	assert.NotContains(t, source, "namespace")
}
