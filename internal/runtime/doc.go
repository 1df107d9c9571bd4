// Package runtime emits the runtime type library shared by every generated
// bridge: a C++ header (bridge.h) and a Rust module (bridge_rt.rs).
//
// The layout of the types in these files is the contract the generators
// rely on. The generators never emit String or primitive Vec/Box
// instantiations themselves; those live here, so several bridges can be
// linked into one program without duplicate symbols.
package runtime
