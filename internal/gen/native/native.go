package native

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/runtime"
)

// Generator renders the C++ side of one bridge.
type Generator struct {
	b    *ir.Bridge
	opts gen.Options
	s    spelling
}

// New creates a Generator for b.
func New(b *ir.Bridge, opts gen.Options) *Generator {
	return &Generator{b: b, opts: opts, s: spelling{ns: b.Namespace}}
}

// Generate renders the header and, unless opts.HeaderOnly is set, the
// implementation unit.
func Generate(b *ir.Bridge, opts gen.Options) ([]gen.GeneratedFile, error) {
	return New(b, opts).Generate()
}

type enumData struct {
	Doc      []string
	Name     string
	Repr     string
	Variants []ir.Variant
}

type structData struct {
	Doc    []string
	Name   string
	Fields []fieldData
}

type fieldData struct {
	Doc  []string
	Name string
	Type string
}

type headerData struct {
	Banner        string
	Source        string
	RuntimeHeader string
	NsOpen        string
	NsClose       string
	Forward       []string
	SpecDecls     string
	Enums         []enumData
	Structs       []structData
	Prototypes    []string
	Layouts       []gen.TargetLayout
	HasLayouts    bool
}

type sourceData struct {
	Banner      string
	Source      string
	Includes    []string
	Header      string
	Trampolines []string
	HostSymbols []string
	Drops       []string
	Externs     string
	NsOpen      string
	NsClose     string
	Wrappers    []string
	SpecDefs    string
}

// Generate renders the native glue files.
func (g *Generator) Generate() ([]gen.GeneratedFile, error) {
	hd, err := g.headerData()
	if err != nil {
		return nil, err
	}

	var header bytes.Buffer
	if err := headerTemplate.Execute(&header, hd); err != nil {
		return nil, fmt.Errorf("executing header template for %s: %w", g.b.Source, err)
	}

	files := []gen.GeneratedFile{{Filename: g.opts.HeaderFile(), Content: header.Bytes()}}

	if g.opts.HeaderOnly {
		return files, nil
	}

	sd, err := g.sourceData()
	if err != nil {
		return nil, err
	}

	var source bytes.Buffer
	if err := sourceTemplate.Execute(&source, sd); err != nil {
		return nil, fmt.Errorf("executing source template for %s: %w", g.b.Source, err)
	}

	return append(files, gen.GeneratedFile{Filename: g.opts.SourceFile(), Content: source.Bytes()}), nil
}

func (g *Generator) namespace() (open, closing string) {
	if len(g.b.Namespace) == 0 {
		return "", ""
	}

	ns := strings.Join(g.b.Namespace, "::")

	return "namespace " + ns + " {", "} // namespace " + ns
}

func (g *Generator) headerData() (*headerData, error) {
	data := &headerData{
		Banner:        gen.Banner,
		Source:        g.b.Source,
		RuntimeHeader: g.opts.RuntimeHeader,
		Layouts:       g.layouts(),
	}

	data.HasLayouts = len(data.Layouts) > 0 && len(g.b.Structs)+len(g.b.Enums) > 0

	data.NsOpen, data.NsClose = g.namespace()

	for _, o := range g.b.Opaques {
		key := "struct"
		if o.Side == catalog.ImplementedNatively && g.opts.ClassKey != "" {
			key = g.opts.ClassKey
		}

		data.Forward = append(data.Forward, key+" "+o.Name+";")
	}

	for _, st := range g.b.Structs {
		data.Forward = append(data.Forward, "struct "+st.Name+";")
	}

	for _, e := range g.b.Enums {
		data.Forward = append(data.Forward, "enum class "+e.Name+" : "+e.Repr.Cxx()+";")

		data.Enums = append(data.Enums, enumData{Doc: e.Doc, Name: e.Name, Repr: e.Repr.Cxx(), Variants: e.Variants})
	}

	for _, st := range g.b.Structs {
		sd := structData{Doc: st.Doc, Name: st.Name}
		for _, f := range st.Fields {
			sd.Fields = append(sd.Fields, fieldData{Doc: f.Doc, Name: f.Name, Type: g.s.typ(f.Type)})
		}

		data.Structs = append(data.Structs, sd)
	}

	for _, fn := range g.b.FunctionsFor(catalog.ImplementedByHost) {
		data.Prototypes = append(data.Prototypes, g.s.hostPrototype(fn))
	}

	var specs bytes.Buffer

	if err := g.instances(nil, &specs, true); err != nil {
		return nil, err
	}

	for _, sig := range g.b.Callbacks() {
		specs.WriteString(g.s.callbackHead(sig) + ";\n")
	}

	data.SpecDecls = specs.String()

	return data, nil
}

// layouts returns the layout facts with fully qualified type names.
func (g *Generator) layouts() []gen.TargetLayout {
	targets := gen.Layouts(g.b)

	for i := range targets {
		for j := range targets[i].Structs {
			targets[i].Structs[j].Name = g.s.qualify(targets[i].Structs[j].Name)
		}

		for j := range targets[i].Enums {
			targets[i].Enums[j].Name = g.s.qualify(targets[i].Enums[j].Name)
		}
	}

	return targets
}

func (g *Generator) sourceData() (*sourceData, error) {
	data := &sourceData{
		Banner: gen.Banner,
		Source: g.b.Source,
		Header: g.opts.HeaderFile(),
	}

	data.NsOpen, data.NsClose = g.namespace()

	for _, inc := range g.b.Includes {
		if strings.HasPrefix(inc, "<") {
			data.Includes = append(data.Includes, inc)
		} else {
			data.Includes = append(data.Includes, `"`+inc+`"`)
		}
	}

	for _, fn := range g.b.Functions {
		if fn.Direction == catalog.ImplementedNatively {
			data.Trampolines = append(data.Trampolines, g.s.trampoline(fn))
		} else {
			data.HostSymbols = append(data.HostSymbols, g.s.hostSymbol(fn))
			data.Wrappers = append(data.Wrappers, g.s.hostWrapper(fn))
		}
	}

	for _, class := range g.b.UniquePtrs {
		data.Drops = append(data.Drops, g.s.uniquePtrDrop(g.b, class))
	}

	var externs, specs bytes.Buffer

	if err := g.instances(&externs, &specs, false); err != nil {
		return nil, err
	}

	for _, sig := range g.b.Callbacks() {
		specs.WriteString("\n" + g.s.callback(sig))
	}

	data.Externs = externs.String()
	data.SpecDefs = specs.String()

	return data, nil
}

// instances renders the Vec and Box specializations for user types:
// declarations for the header, or the extern prototypes and definitions
// for the implementation unit. Builtin element types live in the runtime.
func (g *Generator) instances(externs, specs *bytes.Buffer, declared bool) error {
	var errs []error

	for _, elem := range g.b.Vecs {
		if runtime.Provides(elem) {
			continue
		}

		in := runtime.VecInstance(g.b, elem, "", g.s.typ(elem))
		if declared {
			in = in.Declared()
		} else {
			errs = append(errs, in.WriteCxxVecExterns(externs))
		}

		errs = append(errs, in.WriteCxxVec(specs))
	}

	for _, target := range g.b.Boxes {
		if runtime.Provides(target) {
			continue
		}

		in := runtime.BoxInstance(g.b, target, "", g.s.typ(target))
		if declared {
			in = in.Declared()
		} else {
			errs = append(errs, in.WriteCxxBoxExterns(externs))
		}

		errs = append(errs, in.WriteCxxBox(specs))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("rendering instantiations for %s: %w", g.b.Source, err)
	}

	return nil
}

var funcs = template.FuncMap{
	"doc": docLines,
	"wordMax": func(word uint64) string {
		return "0x" + strings.Repeat("FF", int(word)) + "u"
	},
}

var headerTemplate = template.Must(template.New("header").Funcs(funcs).Parse(`// {{.Banner}}
// source: {{.Source}}
#pragma once
#include "{{.RuntimeHeader}}"
{{if .Forward}}
{{.NsOpen}}
{{- range .Forward}}
{{.}}
{{- end}}
{{.NsClose}}
{{end}}
{{- if .SpecDecls}}
namespace bridge {
{{.SpecDecls}}} // namespace bridge
{{end}}
{{.NsOpen}}
{{- range .Enums}}

{{doc .Doc ""}}enum class {{.Name}} : {{.Repr}} {
{{- range .Variants}}
{{doc .Doc "  "}}  {{.Name}} = {{.Value}},
{{- end}}
};
{{- end}}
{{- range .Structs}}

{{doc .Doc ""}}struct {{.Name}} final {
{{- range .Fields}}
{{doc .Doc "  "}}  {{.Type}} {{.Name}};
{{- end}}
};
{{- end}}
{{- if .Prototypes}}

{{range .Prototypes}}{{.}}{{end}}
{{- end}}
{{.NsClose}}
{{- if .HasLayouts}}
{{range $i, $t := .Layouts}}
{{if eq $i 0}}#if{{else}}#elif{{end}} UINTPTR_MAX == {{wordMax $t.Word}}
{{- range $t.Structs}}
{{- $s := .Name}}
static_assert(sizeof({{$s}}) == {{.Size}}, "bridge layout: size of {{$s}}");
static_assert(alignof({{$s}}) == {{.Align}}, "bridge layout: alignment of {{$s}}");
{{- range .Fields}}
static_assert(offsetof({{$s}}, {{.Name}}) == {{.Offset}}, "bridge layout: offset of {{$s}}::{{.Name}}");
{{- end}}
{{- end}}
{{- range $t.Enums}}
{{- $e := .Name}}
static_assert(sizeof({{$e}}) == {{.Size}}, "bridge layout: size of {{$e}}");
{{- end}}
{{- end}}
#endif
{{- end}}
`))

var sourceTemplate = template.Must(template.New("source").Parse(`// {{.Banner}}
// source: {{.Source}}
{{- range .Includes}}
#include {{.}}
{{- end}}
#include "{{.Header}}"

extern "C" {
{{- range .Trampolines}}

{{.}}{{- end}}
{{- if .HostSymbols}}
{{range .HostSymbols}}
{{.}}{{end}}
{{- end}}
{{- range .Drops}}

{{.}}{{- end}}
{{- if .Externs}}

{{.Externs}}{{- end}}
} // extern "C"
{{- if .Wrappers}}

{{.NsOpen}}
{{- range .Wrappers}}

{{.}}{{- end}}
{{.NsClose}}
{{- end}}
{{- if .SpecDefs}}

namespace bridge {
{{.SpecDefs}}} // namespace bridge
{{- end}}
`))

// docLines renders doc comment lines at indent, each with its newline.
func docLines(lines []string, indent string) string {
	var c code

	c.doc(lines)

	var buf strings.Builder

	for _, l := range strings.SplitAfter(c.String(), "\n") {
		if l != "" {
			buf.WriteString(indent + l)
		}
	}

	return buf.String()
}
