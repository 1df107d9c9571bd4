package host

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/runtime"
)

// Generator renders the Rust side of one bridge.
type Generator struct {
	b    *ir.Bridge
	opts gen.Options
	s    spelling
}

// New creates a Generator for b.
func New(b *ir.Bridge, opts gen.Options) *Generator {
	rt := ""
	if opts.HostRuntime != "" {
		rt = opts.HostRuntime + "::"
	}

	return &Generator{b: b, opts: opts, s: spelling{rt: rt}}
}

// Generate renders the host glue file for b.
func Generate(b *ir.Bridge, opts gen.Options) (gen.GeneratedFile, error) {
	return New(b, opts).Generate()
}

type structData struct {
	Doc    []string
	Name   string
	Copy   bool
	Fields []fieldData
}

type fieldData struct {
	Doc  []string
	Name string
	Type string
}

type enumData struct {
	Doc      []string
	Name     string
	Repr     string
	Variants []ir.Variant
}

type fileData struct {
	Banner     string
	Source     string
	Filename   string
	Module     string
	HostTypes  []string
	Enums      []enumData
	Structs    []structData
	Opaques    []*ir.Opaque
	Targets    []string
	Wrappers   []string
	Exports    []string
	Instances  string
	Layouts    []gen.TargetLayout
	HasLayouts bool
}

// Generate renders the host glue file.
func (g *Generator) Generate() (gen.GeneratedFile, error) {
	data, err := g.fileData()
	if err != nil {
		return gen.GeneratedFile{}, err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return gen.GeneratedFile{}, fmt.Errorf("executing host template for %s: %w", g.b.Source, err)
	}

	return gen.GeneratedFile{Filename: g.opts.HostFile(), Content: buf.Bytes()}, nil
}

func (g *Generator) fileData() (*fileData, error) {
	data := &fileData{
		Banner:   gen.Banner,
		Source:   g.b.Source,
		Filename: g.opts.HostFile(),
		Module:   g.b.Module,
		Layouts:  gen.Layouts(g.b),
	}

	data.HasLayouts = len(g.b.Structs)+len(g.b.Enums) > 0

	for _, o := range g.b.OpaquesFor(catalog.ImplementedByHost) {
		data.HostTypes = append(data.HostTypes, o.Name)
	}

	data.Opaques = g.b.OpaquesFor(catalog.ImplementedNatively)

	for _, e := range g.b.Enums {
		data.Enums = append(data.Enums, enumData{Doc: e.Doc, Name: e.Name, Repr: e.Repr.String(), Variants: e.Variants})
	}

	for _, st := range g.b.Structs {
		sd := structData{Doc: st.Doc, Name: st.Name, Copy: st.Trivial}
		for _, f := range st.Fields {
			sd.Fields = append(sd.Fields, fieldData{Doc: f.Doc, Name: f.Name, Type: g.s.typ(f.Type)})
		}

		data.Structs = append(data.Structs, sd)
	}

	for _, class := range g.b.UniquePtrs {
		data.Targets = append(data.Targets, g.s.uniquePtrTarget(g.b, class))
	}

	for _, fn := range g.b.Functions {
		if fn.Direction == catalog.ImplementedNatively {
			data.Wrappers = append(data.Wrappers, g.s.wrapper(fn))
		} else {
			data.Exports = append(data.Exports, g.s.export(fn))
		}
	}

	instances, err := g.instances()
	if err != nil {
		return nil, err
	}

	data.Instances = instances

	return data, nil
}

// instances renders the Vec and Box exports for user types. Builtin
// element types are provided once by the runtime.
func (g *Generator) instances() (string, error) {
	var buf bytes.Buffer

	var errs []error

	for _, elem := range g.b.Vecs {
		if runtime.Provides(elem) {
			continue
		}

		in := runtime.VecInstance(g.b, elem, g.s.typ(elem), "").WithRuntime(g.opts.HostRuntime)
		errs = append(errs, in.WriteRustVec(&buf))
	}

	for _, target := range g.b.Boxes {
		if runtime.Provides(target) {
			continue
		}

		in := runtime.BoxInstance(g.b, target, g.s.typ(target), "").WithRuntime(g.opts.HostRuntime)
		errs = append(errs, in.WriteRustBox(&buf))
	}

	if err := errors.Join(errs...); err != nil {
		return "", fmt.Errorf("rendering instantiations for %s: %w", g.b.Source, err)
	}

	return buf.String(), nil
}

var fileTemplate = template.Must(template.New("host").Funcs(template.FuncMap{
	"doc": docLines,
}).Parse(`// {{.Banner}}
// source: {{.Source}}
//
// Declare with ` + "`" + `#[path = "{{.Filename}}"] mod {{.Module}};` + "`" + ` in the module that
// implements the extern "Rust" functions.

#![allow(
    dead_code,
    improper_ctypes,
    improper_ctypes_definitions,
    non_camel_case_types,
    non_snake_case,
    non_upper_case_globals,
    unsafe_op_in_unsafe_fn,
    unused_mut,
    clippy::all
)]
{{range .HostTypes}}
use super::{{.}};
{{- end}}
{{range .Enums}}
{{doc .Doc ""}}#[repr(transparent)]
#[derive(Clone, Copy, PartialEq, Eq, Hash, Debug)]
pub struct {{.Name}} {
    pub repr: {{.Repr}},
}

impl {{.Name}} {
{{- $name := .Name}}
{{- range .Variants}}
{{doc .Doc "    "}}    pub const {{.Name}}: Self = {{$name}} { repr: {{.Value}} };
{{- end}}
}
{{end}}
{{- range .Structs}}
{{doc .Doc ""}}#[repr(C)]
{{- if .Copy}}
#[derive(Clone, Copy)]
{{- end}}
pub struct {{.Name}} {
{{- range .Fields}}
{{doc .Doc "    "}}    pub {{.Name}}: {{.Type}},
{{- end}}
}
{{end}}
{{- range .Opaques}}
{{doc .Doc ""}}#[repr(C)]
pub struct {{.Name}} {
    _private: [u8; 0],
    _pinned: ::core::marker::PhantomData<(*mut u8, ::core::marker::PhantomPinned)>,
}
{{end}}
{{- range .Targets}}
{{.}}{{end}}
{{- range .Wrappers}}
{{.}}{{end}}
{{- range .Exports}}
{{.}}{{end}}
{{- .Instances}}
{{- if .HasLayouts}}{{range .Layouts}}
#[cfg(target_pointer_width = "{{.Bits}}")]
const _: () = {
{{- range .Structs}}
    assert!(::core::mem::size_of::<{{.Name}}>() == {{.Size}});
    assert!(::core::mem::align_of::<{{.Name}}>() == {{.Align}});
{{- $s := .Name}}
{{- range .Fields}}
    assert!(::core::mem::offset_of!({{$s}}, {{.Name}}) == {{.Offset}});
{{- end}}
{{- end}}
{{- range .Enums}}
    assert!(::core::mem::size_of::<{{.Name}}>() == {{.Size}});
{{- end}}
};
{{end}}{{end}}`))

// docLines renders doc comment lines at indent, each with its newline.
func docLines(lines []string, indent string) string {
	var c code

	c.doc(lines)

	if indent == "" {
		return c.String()
	}

	var buf bytes.Buffer

	for _, l := range bytes.SplitAfter([]byte(c.String()), []byte("\n")) {
		if len(l) > 0 {
			buf.WriteString(indent)
			buf.Write(l)
		}
	}

	return buf.String()
}
