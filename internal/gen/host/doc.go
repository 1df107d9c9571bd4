// Package host renders the Rust side of a bridge: shared types, safe
// wrappers around native functions, and the exported entry points native
// code calls for host functions and callbacks.
//
// The generated file is a module of its own. Host functions are resolved
// through `super::`, so it is declared next to their implementations.
package host
