package check

import (
	"fmt"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/common"
	"bridge-generator/internal/diagnostic"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/layout"
	"bridge-generator/internal/syntax"
)

// Options tune validation.
type Options struct {
	// Namespace applies when the manifest does not declare one.
	Namespace []string
	// WordSizes are the pointer widths, in bytes, to compute layouts for.
	WordSizes []uint64
}

// DefaultOptions returns options computing layouts for 64- and 32-bit targets.
func DefaultOptions() Options {
	return Options{WordSizes: []uint64{layout.Word64, layout.Word32}}
}

type checker struct {
	file  *syntax.File
	b     *ir.Bridge
	diags diagnostic.Diagnostics

	structs map[string]*ir.Struct
	enums   map[string]*ir.Enum
	opaques map[string]*ir.Opaque
	// pending holds structs and enums declared anywhere in the manifest
	// that have not been reached yet.
	pending map[string]bool
	// current is the struct whose fields are being resolved.
	current   string
	names     map[string]diagnostic.Span
	instances map[string]bool
}

// Check validates f and lowers it to IR. The returned bridge is nil if any
// error diagnostic was produced.
func Check(f *syntax.File, opts Options) (*ir.Bridge, diagnostic.Diagnostics) {
	if len(opts.WordSizes) == 0 {
		opts.WordSizes = DefaultOptions().WordSizes
	}

	c := &checker{
		file: f,
		b: &ir.Bridge{
			Source:    f.Name,
			Module:    f.Module,
			Namespace: f.Namespace,
			WordSizes: opts.WordSizes,
		},
		structs:   make(map[string]*ir.Struct),
		enums:     make(map[string]*ir.Enum),
		opaques:   make(map[string]*ir.Opaque),
		pending:   make(map[string]bool),
		names:     make(map[string]diagnostic.Span),
		instances: make(map[string]bool),
	}

	if c.b.Module == "" {
		c.b.Module = "ffi"
	}

	if len(c.b.Namespace) == 0 {
		c.b.Namespace = opts.Namespace
	}

	c.collectDeclarations()

	for _, item := range f.Items {
		switch it := item.(type) {
		case *syntax.Struct:
			c.checkStruct(it)
		case *syntax.Enum:
			c.checkEnum(it)
		case *syntax.ExternBlock:
			c.checkExtern(it)
		}
	}

	if c.diags.HasErrors() {
		return nil, c.diags
	}

	c.warnUnusedOpaques()
	c.computeLayouts()

	return c.b, c.diags
}

func (c *checker) errorf(span diagnostic.Span, code, format string, args ...any) *diagnostic.Diagnostic {
	return c.diags.AddError(diagnostic.ClassSemantic, code, span, format, args...)
}

// warnUnusedOpaques flags opaque types that no signature or field mentions.
// They still get forward declarations, so this is not an error.
func (c *checker) warnUnusedOpaques() {
	used := make(map[string]bool)

	c.b.Walk(func(t *ir.Type) {
		if t.Kind == catalog.OpaqueNativeHandle || t.Kind == catalog.OpaqueHostType {
			used[t.Name] = true
		}
	})

	for _, o := range c.b.Opaques {
		if !used[o.Name] {
			c.diags.AddWarning(diagnostic.ClassSemantic, "unused_type", o.Span,
				"opaque type `%s` is never used", o.Name)
		}
	}
}

// collectDeclarations records struct and enum names for forward-reference
// detection and registers opaque types, which carry no layout and may be
// referenced before their declaration.
func (c *checker) collectDeclarations() {
	for _, item := range c.file.Items {
		switch it := item.(type) {
		case *syntax.Struct:
			c.pending[it.Name.Name] = true
		case *syntax.Enum:
			c.pending[it.Name.Name] = true
		case *syntax.ExternBlock:
			dir, ok := catalog.DirectionForABI(it.ABI)
			if !ok {
				continue
			}

			for _, fi := range it.Items {
				decl, ok := fi.(*syntax.TypeDecl)
				if !ok || !c.declare(decl.Name, "type") {
					continue
				}

				o := &ir.Opaque{Name: decl.Name.Name, Doc: decl.Doc, Side: dir, Span: decl.Span}
				c.opaques[o.Name] = o
				c.b.Opaques = append(c.b.Opaques, o)
			}
		}
	}
}

// declare registers a fully qualified item name. It reports reserved and
// duplicate names and returns false for them.
func (c *checker) declare(name syntax.Ident, what string) bool {
	if catalog.IsReserved(name.Name) {
		c.errorf(name.Span, "reserved_name", "%s name `%s` is reserved by the type catalog", what, name.Name)
		return false
	}

	qualified := common.QualifiedName(c.b.Namespace, name.Name)
	if first, dup := c.names[qualified]; dup {
		c.errorf(name.Span, "duplicate_name", "`%s` is declared more than once", qualified).
			WithSuggestions(fmt.Sprintf("first declared at %s", first))

		return false
	}

	c.names[qualified] = name.Span

	return true
}

func (c *checker) checkStruct(s *syntax.Struct) {
	delete(c.pending, s.Name.Name)

	declared := c.declare(s.Name, "struct")

	out := &ir.Struct{Name: s.Name.Name, Doc: s.Doc, Trivial: true, Span: s.Span}

	if len(s.Fields) == 0 {
		c.errorf(s.Name.Span, "empty_struct", "struct `%s` must have at least one field", s.Name.Name)
	}

	c.current = s.Name.Name
	defer func() { c.current = "" }()

	seen := make(map[string]bool, len(s.Fields))

	for _, f := range s.Fields {
		if seen[f.Name.Name] {
			c.errorf(f.Name.Span, "duplicate_field", "field `%s` is declared more than once in `%s`", f.Name.Name, s.Name.Name)
			continue
		}

		seen[f.Name.Name] = true

		ref, ok := c.resolve(f.Type, catalog.PosField, catalog.ImplementedNatively)
		if !ok {
			continue
		}

		if !ref.Type.IsTrivial() {
			out.Trivial = false
		}

		out.Fields = append(out.Fields, ir.Field{Name: f.Name.Name, Doc: f.Doc, Type: ref.Type})
	}

	if declared {
		c.structs[out.Name] = out
		c.b.Structs = append(c.b.Structs, out)
	}
}

func (c *checker) checkEnum(e *syntax.Enum) {
	delete(c.pending, e.Name.Name)

	declared := c.declare(e.Name, "enum")

	out := &ir.Enum{Name: e.Name.Name, Doc: e.Doc, Span: e.Span}

	if len(e.Variants) == 0 {
		c.errorf(e.Name.Span, "empty_enum", "enum `%s` must have at least one variant", e.Name.Name)
	}

	names := make(map[string]bool, len(e.Variants))
	values := make(map[uint64]string, len(e.Variants))

	var next, maxValue uint64

	for _, v := range e.Variants {
		value := next
		span := v.Name.Span

		if v.Value != nil {
			value = v.Value.Value
			span = v.Value.Span
		}

		next = value + 1

		switch {
		case names[v.Name.Name]:
			c.errorf(v.Name.Span, "duplicate_variant", "variant `%s` is declared more than once in `%s`", v.Name.Name, e.Name.Name)
			continue
		case value > 0xffffffff:
			c.errorf(span, "discriminant_overflow", "discriminant %d of `%s::%s` does not fit in u32", value, e.Name.Name, v.Name.Name)
			continue
		}

		if other, dup := values[value]; dup {
			c.errorf(span, "duplicate_discriminant", "`%s::%s` reuses discriminant %d of `%s`", e.Name.Name, v.Name.Name, value, other)
			continue
		}

		names[v.Name.Name] = true
		values[value] = v.Name.Name
		maxValue = max(maxValue, value)

		out.Variants = append(out.Variants, ir.Variant{Name: v.Name.Name, Doc: v.Doc, Value: value})
	}

	out.Repr = catalog.SmallestUnsigned(maxValue)

	if declared {
		c.enums[out.Name] = out
		c.b.Enums = append(c.b.Enums, out)
	}
}

func (c *checker) checkExtern(block *syntax.ExternBlock) {
	dir, ok := catalog.DirectionForABI(block.ABI)
	if !ok {
		c.errorf(block.ABISpan, "unsupported_abi", "unsupported extern ABI %q; use \"C++\" for native functions or \"Rust\" for host functions", block.ABI)
		return
	}

	for _, item := range block.Items {
		switch it := item.(type) {
		case *syntax.Include:
			c.addInclude(it.Path)
		case *syntax.FnDecl:
			c.checkFn(it, dir)
		case *syntax.TypeDecl:
		}
	}
}

func (c *checker) addInclude(path string) {
	for _, existing := range c.b.Includes {
		if existing == path {
			return
		}
	}

	c.b.Includes = append(c.b.Includes, path)
}

func (c *checker) checkFn(fn *syntax.FnDecl, dir catalog.Direction) {
	declared := c.declare(fn.Name, "function")

	out := &ir.Function{
		Name:      fn.Name.Name,
		Doc:       fn.Doc,
		Direction: dir,
		Symbol:    ir.Mangle(c.b.Namespace, fn.Name.Name),
		Span:      fn.Span,
	}

	sig, ok := c.resolveSignature(fn.Params, fn.Ret, fn.Fallible, dir, fn.Name.Name)
	if !ok || !declared {
		return
	}

	out.Sig = *sig
	c.b.Functions = append(c.b.Functions, out)
}

// resolveSignature resolves parameters and the return type. It keeps going
// after a bad parameter so every problem in the signature is reported.
func (c *checker) resolveSignature(params []syntax.Param, ret syntax.Type, fallible bool,
	dir catalog.Direction, name string,
) (*ir.Signature, bool) {
	sig := &ir.Signature{Fallible: fallible}
	ok := true
	borrows := false
	seen := make(map[string]bool, len(params))

	for _, p := range params {
		if p.Name.Name != "" {
			if seen[p.Name.Name] {
				c.errorf(p.Name.Span, "duplicate_parameter", "parameter `%s` is declared more than once in `%s`", p.Name.Name, name)
				ok = false

				continue
			}

			seen[p.Name.Name] = true
		}

		ref, resolved := c.resolve(p.Type, catalog.PosParam, dir)
		if !resolved {
			ok = false
			continue
		}

		if ref.Mode.IsBorrow() {
			borrows = true
		}

		sig.Params = append(sig.Params, ir.Param{Name: p.Name.Name, Ref: ref})
	}

	if ret == nil {
		return sig, ok
	}

	if _, unit := ret.(*syntax.UnitType); unit {
		return sig, ok
	}

	ref, resolved := c.resolve(ret, catalog.PosReturn, dir)
	if !resolved {
		return nil, false
	}

	switch {
	case fallible && !catalog.FallibleOK(ref.Type.Kind, ref.Mode):
		c.errorf(ret.TypeSpan(), "fallible_borrow",
			"fallible function `%s` cannot return the borrowed type `%s`; return an owned or value type", name, ref)

		return nil, false
	case ref.Mode.IsBorrow() && !borrows:
		c.errorf(ret.TypeSpan(), "missing_borrow_source",
			"`%s` returns a borrow but takes no borrowed parameter for it to borrow from", name)

		return nil, false
	}

	sig.Ret = &ref

	return sig, ok
}

func (c *checker) computeLayouts() {
	for _, word := range c.b.WordSizes {
		calc := layout.NewCalculator(word)

		for _, s := range c.b.Structs {
			if s.Layouts == nil {
				s.Layouts = make(map[uint64]ir.Layout, len(c.b.WordSizes))
			}

			s.Layouts[word] = calc.Struct(s)
		}
	}
}
