package runtime

import (
	"bytes"
	"errors"
	"fmt"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
)

// Options names the runtime files.
type Options struct {
	Header string
	Rust   string
}

// DefaultOptions returns the conventional runtime file names.
func DefaultOptions() Options {
	return Options{Header: "bridge.h", Rust: "bridge_rt.rs"}
}

type fileData struct {
	Banner    string
	ABI       string
	Contracts []Contract

	CxxExterns         string
	CxxSpecializations string
	RustInstances      string
}

// Files renders both runtime files.
func Files(opts Options) ([]gen.GeneratedFile, error) {
	header, err := Header()
	if err != nil {
		return nil, err
	}

	rust, err := Rust()
	if err != nil {
		return nil, err
	}

	return []gen.GeneratedFile{
		{Filename: opts.Header, Content: header},
		{Filename: opts.Rust, Content: rust},
	}, nil
}

// Header renders the C++ runtime header.
func Header() ([]byte, error) {
	data, err := newFileData()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := execute(&buf, headerTemplate, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Rust renders the Rust runtime module.
func Rust() ([]byte, error) {
	data, err := newFileData()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := execute(&buf, rustTemplate, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func newFileData() (*fileData, error) {
	data := &fileData{Banner: gen.Banner, ABI: ir.ABIVersion, Contracts: Contracts()}

	var externs, specs, rust bytes.Buffer

	b := &ir.Bridge{}

	for _, t := range Builtins() {
		in := VecInstance(b, t, rustSpelling(t), cxxSpelling(t)).WithRuntime("").Inlined()

		err := errors.Join(in.WriteCxxVecExterns(&externs), in.WriteCxxVec(&specs), in.WriteRustVec(&rust))
		if err != nil {
			return nil, fmt.Errorf("runtime Vec<%s>: %w", t.Key(), err)
		}
	}

	for _, p := range catalog.Prims() {
		t := &ir.Type{Kind: catalog.Primitive, Prim: p}
		in := BoxInstance(b, t, rustSpelling(t), cxxSpelling(t)).WithRuntime("").Inlined()

		err := errors.Join(in.WriteCxxBoxExterns(&externs), in.WriteCxxBox(&specs), in.WriteRustBox(&rust))
		if err != nil {
			return nil, fmt.Errorf("runtime Box<%s>: %w", t.Key(), err)
		}
	}

	data.CxxExterns = externs.String()
	data.CxxSpecializations = specs.String()
	data.RustInstances = rust.String()

	return data, nil
}

func rustSpelling(t *ir.Type) string {
	if t.Kind == catalog.OwnedString {
		return "::std::string::String"
	}

	return t.Prim.String()
}

// cxxSpelling names the element type of a runtime specialization. usize and
// isize go through detail slots: where the platform spells them as a
// fixed-width integer, the fixed-width specialization already covers them
// and a second one would be a redefinition.
func cxxSpelling(t *ir.Type) string {
	switch {
	case t.Kind == catalog.OwnedString:
		return "::bridge::String"
	case t.Prim == catalog.Usize:
		return "::bridge::detail::usize_slot"
	case t.Prim == catalog.Isize:
		return "::bridge::detail::isize_slot"
	}

	return t.Prim.Cxx()
}
