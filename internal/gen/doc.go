// Package gen holds what the host and native generators share: the
// GeneratedFile type, file naming, the layout facts both sides assert, and
// writing outputs to disk.
//
// The generators themselves live in gen/host (Rust glue) and gen/native
// (C++ header and implementation unit). Both are pure functions of an
// ir.Bridge and never see each other's output.
package gen
