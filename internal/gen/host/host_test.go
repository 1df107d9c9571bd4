package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/gen"
	"bridge-generator/internal/gen/gentest"
)

func generate(t *testing.T, opts gen.Options) string {
	t.Helper()

	file, err := Generate(gentest.Bridge(t, gentest.Manifest), opts)
	require.NoError(t, err)
	assert.Equal(t, opts.HostFile(), file.Filename)

	return string(file.Content)
}

func TestGenerate_Header(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, out, "// "+gen.Banner+"\n// source: tests.rs\n")
	assert.Contains(t, out, "`#[path = \"tests.bridge.rs\"] mod ffi;`")
	assert.Contains(t, out, "#![allow(\n")
	assert.Contains(t, out, "\nuse super::R;\n")
}

func TestGenerate_Types(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, out, `/// A value both sides can copy.
#[repr(C)]
#[derive(Clone, Copy)]
pub struct Shared {
    pub z: usize,
}`)

	assert.Contains(t, out, `#[repr(C)]
pub struct Named {
    pub id: u32,
    pub name: ::std::string::String,
    pub shared: Shared,
}`)

	assert.Contains(t, out, `#[repr(transparent)]
#[derive(Clone, Copy, PartialEq, Eq, Hash, Debug)]
pub struct Color {
    pub repr: u8,
}`)
	assert.Contains(t, out, "    pub const Red: Self = Color { repr: 0 };\n")
	assert.Contains(t, out, "    pub const Green: Self = Color { repr: 5 };\n")
	assert.Contains(t, out, "    pub const Blue: Self = Color { repr: 6 };\n")

	assert.Contains(t, out, `#[repr(C)]
pub struct C {
    _private: [u8; 0],`)
	assert.NotContains(t, out, "pub struct R", "host types are the user's own")
}

func TestGenerate_NativeCalls(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	tests := []struct {
		name string
		want []string
	}{
		{"direct return", []string{
			"pub fn c_return_primitive() -> usize {",
			"#[link_name = \"tests$bridge1$c_return_primitive\"]",
			"fn __c_return_primitive() -> usize;",
			"unsafe { __c_return_primitive() }",
		}},
		{"indirect return", []string{
			"fn __c_return_named(__return: *mut Named);",
			"let mut __return = ::core::mem::MaybeUninit::<Named>::uninit();",
			"        __c_return_named(__return.as_mut_ptr());\n        __return.assume_init()\n",
		}},
		{"borrowed return", []string{
			"pub fn c_return_ref<'a>(shared: &'a Shared) -> &'a usize {",
			"fn __c_return_ref(shared: &Shared) -> *const usize;",
			"unsafe { &*__c_return_ref(shared) }",
			"pub fn c_return_mut<'a>(shared: &'a mut Shared) -> &'a mut usize {",
			"unsafe { &mut *__c_return_mut(shared) }",
			"fn __c_return_str(shared: &Shared) -> ::bridge::Str;",
			"unsafe { __c_return_str(shared).as_str() }",
		}},
		{"owning pointers", []string{
			"pub fn c_return_unique_ptr() -> ::bridge::UniquePtr<C> {",
			"unsafe { ::bridge::UniquePtr::from_raw(__c_return_unique_ptr()) }",
			"fn __c_take_unique_ptr(c: *mut C);",
			"unsafe { __c_take_unique_ptr(c.into_raw()) }",
			"unsafe { ::std::boxed::Box::from_raw(__c_return_box()) }",
			"unsafe { __c_take_box(::std::boxed::Box::into_raw(b)) }",
		}},
		{"indirect parameter", []string{
			"let mut named = ::core::mem::ManuallyDrop::new(named);",
			"unsafe { __c_take_named(&mut *named as *mut Named) }",
		}},
		{"slices and strings", []string{
			"fn __c_take_slice(s: ::bridge::SliceRepr<u8>);",
			"unsafe { __c_take_slice(::bridge::SliceRepr::from_ref(s)) }",
			"unsafe { __c_take_mut_slice(::bridge::SliceRepr::from_mut(s)) }",
			"unsafe { __c_take_str(::bridge::Str::from(s)) }",
		}},
		{"fallible", []string{
			"pub fn c_fail_return_primitive() -> ::core::result::Result<usize, ::bridge::Error> {",
			"fn __c_fail_return_primitive(__return: *mut ::bridge::ResultRepr<usize>);",
			"let mut __return = ::core::mem::MaybeUninit::<::bridge::ResultRepr<usize>>::uninit();",
			"__return.assume_init().into_result()\n",
			"pub fn c_fail_return_string() -> ::core::result::Result<::std::string::String, ::bridge::Error> {",
			"pub fn c_try_unit() -> ::core::result::Result<(), ::bridge::Error> {",
			"::bridge::ResultRepr<()>",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestGenerate_Callback(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, out, "/// Calls back into the host.\npub fn c_take_callback(callback: fn(::std::string::String) -> usize) {")
	assert.Contains(t, out, "fn __c_take_callback(callback: ::bridge::FnRepr);")
	assert.Contains(t, out, `    unsafe extern "C" fn __callback_trampoline(arg0: *mut ::std::string::String, __fn: *const ()) -> usize {
        let __fn = ::core::mem::transmute::<*const (), fn(::std::string::String) -> usize>(__fn);
        let arg0 = ::core::ptr::read(arg0);
        ::bridge::abort_on_panic("callback callback", move || __fn(arg0))
    }`)
	assert.Contains(t, out,
		"unsafe { __c_take_callback(::bridge::FnRepr::new(__callback_trampoline as *const (), callback as *const ())) }")
}

func TestGenerate_HostExports(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, out, `#[doc(hidden)]
#[export_name = "tests$bridge1$r_return_primitive"]
unsafe extern "C" fn __r_return_primitive() -> usize {
    ::bridge::abort_on_panic("r_return_primitive", move || super::r_return_primitive())
}`)

	assert.Contains(t, out, `unsafe extern "C" fn __r_return_string(__return: *mut ::std::string::String) {
    ::core::ptr::write(__return, ::bridge::abort_on_panic("r_return_string", move || super::r_return_string()));
}`)

	assert.Contains(t, out, `unsafe extern "C" fn __r_take_string(s: *mut ::std::string::String) {
    let s = ::core::ptr::read(s);
    ::bridge::abort_on_panic("r_take_string", move || super::r_take_string(s));
}`)

	assert.Contains(t, out, "unsafe extern \"C\" fn __r_take_mut(r: &mut R) {")
	assert.Contains(t, out, "::std::boxed::Box::into_raw(::bridge::abort_on_panic(\"r_return_box\", move || super::r_return_box()))")
	assert.Contains(t, out, "unsafe extern \"C\" fn __r_take_color(c: Color) -> Color {")

	assert.Contains(t, out, `unsafe extern "C" fn __r_fail_return_primitive(__return: *mut ::bridge::ResultRepr<usize>) {
    let __result = ::bridge::catch_unwind_result(move || super::r_fail_return_primitive());
    ::core::ptr::write(__return, ::bridge::ResultRepr::from_result(__result));
}`)

	assert.Contains(t, out, `unsafe extern "C" fn __r_fail_return_box(__return: *mut ::bridge::ResultRepr<*mut R>) {
    let __result = ::bridge::catch_unwind_result(move || super::r_fail_return_box());
    let __result = __result.map(|__value| ::std::boxed::Box::into_raw(__value));`)
}

func TestGenerate_Instances(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, out, `#[export_name = "bridge1$vec$tests$Shared$new"]`)
	assert.Contains(t, out, `#[export_name = "bridge1$box$tests$Shared$alloc"]`)
	assert.Contains(t, out, `#[export_name = "bridge1$box$tests$R$drop"]`)
	assert.NotContains(t, out, `bridge1$box$tests$R$alloc`, "opaque host types cannot be allocated natively")
	assert.NotContains(t, out, `bridge1$vec$u8$`, "builtin instantiations live in the runtime")

	assert.Contains(t, out, `unsafe impl ::bridge::UniquePtrTarget for C {
    unsafe fn __drop(ptr: *mut Self) {
        extern "C" {
            #[link_name = "bridge1$unique_ptr$tests$C$drop"]
            fn __unique_ptr_drop(ptr: *mut C);
        }
        __unique_ptr_drop(ptr)
    }
}`)
}

func TestGenerate_Layouts(t *testing.T) {
	out := generate(t, gen.DefaultOptions("tests"))

	assert.Contains(t, out, `#[cfg(target_pointer_width = "64")]
const _: () = {
    assert!(::core::mem::size_of::<Shared>() == 8);
    assert!(::core::mem::align_of::<Shared>() == 8);
    assert!(::core::mem::offset_of!(Shared, z) == 0);
    assert!(::core::mem::size_of::<Named>() == 40);
    assert!(::core::mem::align_of::<Named>() == 8);
    assert!(::core::mem::offset_of!(Named, id) == 0);
    assert!(::core::mem::offset_of!(Named, name) == 8);
    assert!(::core::mem::offset_of!(Named, shared) == 32);
    assert!(::core::mem::size_of::<Color>() == 1);
};`)

	assert.Contains(t, out, `#[cfg(target_pointer_width = "32")]
const _: () = {
    assert!(::core::mem::size_of::<Shared>() == 4);
    assert!(::core::mem::align_of::<Shared>() == 4);
    assert!(::core::mem::offset_of!(Shared, z) == 0);
    assert!(::core::mem::size_of::<Named>() == 20);
    assert!(::core::mem::align_of::<Named>() == 4);
    assert!(::core::mem::offset_of!(Named, id) == 0);
    assert!(::core::mem::offset_of!(Named, name) == 4);
    assert!(::core::mem::offset_of!(Named, shared) == 16);`)
}

func TestGenerate_RuntimePath(t *testing.T) {
	opts := gen.DefaultOptions("tests")
	opts.HostRuntime = "crate::bridge_rt"

	out := generate(t, opts)

	assert.Contains(t, out, "crate::bridge_rt::abort_on_panic(\"r_return_primitive\"")
	assert.Contains(t, out, "crate::bridge_rt::Str::from(s)")
	assert.NotContains(t, out, "::bridge::")
}

func TestGenerate_Minimal(t *testing.T) {
	b := gentest.Bridge(t, `mod ffi {
    extern "Rust" {
        fn ping();
    }
}`)

	file, err := Generate(b, gen.DefaultOptions("ping"))
	require.NoError(t, err)

	out := string(file.Content)
	assert.Equal(t, "ping.bridge.rs", file.Filename)
	assert.Contains(t, out, `#[export_name = "bridge1$ping"]`)
	assert.Contains(t, out, "::bridge::abort_on_panic(\"ping\", move || super::ping());")
	assert.NotContains(t, out, "const _: ()", "no types, no layout assertions")
	assert.NotContains(t, out, "use super::")
}
