package gen

import (
	"path/filepath"
	"strings"
)

// Banner is the first line of every emitted file.
const Banner = "Code generated by bridgegen. DO NOT EDIT."

// GeneratedFile represents one emitted artifact.
type GeneratedFile struct {
	// Filename is relative to the output directory (e.g. "ffi.bridge.rs").
	Filename string
	// Content is the complete file text.
	Content []byte
}

// Options holds settings shared by the host and native generators.
type Options struct {
	// Stem names the outputs: <stem>.bridge.rs, <stem>.bridge.h, <stem>.bridge.cc.
	Stem string
	// HeaderOnly skips the native implementation unit.
	HeaderOnly bool
	// HostRuntime is the Rust path of the runtime module.
	HostRuntime string
	// RuntimeHeader is the include path of the C++ runtime header.
	RuntimeHeader string
	HeaderExt     string
	SourceExt     string
	// ClassKey is the keyword forward-declaring opaque native types. It
	// must match the user's definition ("struct" or "class").
	ClassKey string
}

// DefaultOptions returns the default generator options for stem.
func DefaultOptions(stem string) Options {
	return Options{
		Stem:          stem,
		HostRuntime:   "::bridge",
		RuntimeHeader: "bridge.h",
		HeaderExt:     ".h",
		SourceExt:     ".cc",
		ClassKey:      "struct",
	}
}

// HostFile is the name of the Rust glue file.
func (o Options) HostFile() string {
	return o.Stem + ".bridge.rs"
}

// HeaderFile is the name of the C++ glue header.
func (o Options) HeaderFile() string {
	return o.Stem + ".bridge" + o.HeaderExt
}

// SourceFile is the name of the C++ implementation unit.
func (o Options) SourceFile() string {
	return o.Stem + ".bridge" + o.SourceExt
}

// Stem derives an output stem from a manifest path: "src/ffi.rs" and
// "ffi.bridge" both give "ffi".
func Stem(path string) string {
	base := filepath.Base(path)

	for _, ext := range []string{".rs", ".bridge"} {
		base = strings.TrimSuffix(base, ext)
	}

	if base == "" || base == "." {
		return "bridge"
	}

	return base
}
