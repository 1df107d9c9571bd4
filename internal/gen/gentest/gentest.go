// Package gentest builds checked bridges for generator tests.
package gentest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bridge-generator/internal/check"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/syntax"
)

// Manifest exercises every boundary class in both directions.
const Manifest = `#[bridge(namespace = tests)]
mod ffi {
    /// A value both sides can copy.
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
        fn c_return_named() -> Named;
        fn c_return_box() -> Box<R>;
        fn c_return_unique_ptr() -> UniquePtr<C>;
        fn c_return_ref(shared: &Shared) -> &usize;
        fn c_return_mut(shared: &mut Shared) -> &mut usize;
        fn c_return_str(shared: &Shared) -> &str;
        fn c_return_vec_shared() -> Vec<Shared>;
        fn c_take_named(named: Named);
        fn c_take_ref_c(c: &C);
        fn c_take_unique_ptr(c: UniquePtr<C>);
        fn c_take_slice(s: &[u8]);
        fn c_take_mut_slice(s: &mut [u8]);
        fn c_take_str(s: &str);
        fn c_take_box(b: Box<Shared>);
        /// Calls back into the host.
        fn c_take_callback(callback: fn(String) -> usize);
        fn c_fail_return_primitive() -> Result<usize>;
        fn c_fail_return_string() -> Result<String>;
        fn c_try_unit() -> Result<()>;
    }

    extern "Rust" {
        type R;

        fn r_return_primitive() -> usize;
        fn r_return_string() -> String;
        fn r_return_box() -> Box<R>;
        fn r_take_string(s: String);
        fn r_take_mut(r: &mut R);
        fn r_take_color(c: Color) -> Color;
        fn r_fail_return_primitive() -> Result<usize>;
        fn r_fail_return_box() -> Result<Box<R>>;
    }
}
`

// Bridge parses and checks src, failing the test on any error.
func Bridge(t testing.TB, src string) *ir.Bridge {
	t.Helper()

	f, diags := syntax.Parse("tests.rs", src)
	require.True(t, diags.IsValid(), "%v", diags.Error())

	b, diags := check.Check(f, check.DefaultOptions())
	require.False(t, diags.HasErrors(), "%v", diags.Error())
	require.NotNil(t, b)

	return b
}
