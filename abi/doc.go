// Package abi is a Go model of the bridge runtime types.
//
// Every type here has the same size as its counterpart in the generated
// runtime (see the layout contract in internal/runtime), and the ownership
// operations follow the same rules: IntoRaw hands ownership across the
// boundary and leaves a tombstone behind, FromRaw takes it back, and a
// fallible call carries either a value or an error message, never both.
// Generator tests use it to exercise those rules without a Rust or C++
// toolchain.
package abi
