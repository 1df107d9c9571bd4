package check

import (
	"fmt"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/suggest"
	"bridge-generator/internal/syntax"
)

// resolve resolves t at pos in a signature implemented on side dir and
// checks it against the matrix. A false result means a diagnostic was
// already reported for t; callers must not report another.
func (c *checker) resolve(t syntax.Type, pos catalog.Position, dir catalog.Direction) (ir.TypeRef, bool) {
	var (
		ref ir.TypeRef
		ok  bool
	)

	switch tt := t.(type) {
	case *syntax.RefType:
		ref, ok = c.resolveRef(tt)
	case *syntax.SliceType:
		c.errorf(tt.Span, "illegal_passing_mode", "slices are unsized and can only be passed behind a reference: write `&%s`", tt)
		return ir.TypeRef{}, false
	case *syntax.FnType:
		ref, ok = c.resolveCallback(tt)
	case *syntax.UnitType:
		ref, ok = ir.TypeRef{Type: &ir.Type{Kind: catalog.Unit}}, true
	case *syntax.NamedType:
		var typ *ir.Type

		typ, ok = c.resolveNamed(tt)
		if ok && !typ.Owned && typ.Kind == catalog.OpaqueNativeHandle {
			c.errorf(tt.Span, "illegal_passing_mode",
				"opaque native type `%s` cannot be passed by value; use `UniquePtr<%s>` or `&%s`", tt.Name.Name, tt.Name.Name, tt.Name.Name)

			return ir.TypeRef{}, false
		}

		ref = ir.TypeRef{Type: typ, Mode: catalog.ByValue}
	}

	if !ok {
		return ir.TypeRef{}, false
	}

	if verdict := catalog.Check(ref.Type.Kind, pos, ref.Mode, dir); !verdict.Allowed {
		c.errorf(t.TypeSpan(), "illegal_passing_mode", "`%s` is not allowed here: %s", ref, verdict.Reason)
		return ir.TypeRef{}, false
	}

	return ref, true
}

func (c *checker) resolveRef(t *syntax.RefType) (ir.TypeRef, bool) {
	mode := catalog.BorrowedRef
	if t.Mut {
		mode = catalog.MutableBorrowedRef
	}

	switch elem := t.Elem.(type) {
	case *syntax.RefType:
		c.errorf(t.Span, "nested_reference", "references to references are not supported")
		return ir.TypeRef{}, false
	case *syntax.SliceType:
		inner, ok := c.resolveElement(elem.Elem)
		if !ok {
			return ir.TypeRef{}, false
		}

		if !catalog.SliceElementOK(inner.Kind) || (inner.Kind == catalog.UserStruct && !inner.IsTrivial()) {
			c.errorf(elem.Elem.TypeSpan(), "invalid_type_argument",
				"`%s` cannot be a slice element; slices hold primitives, enums or plain structs", inner.Key())

			return ir.TypeRef{}, false
		}

		return ir.TypeRef{Type: &ir.Type{Kind: catalog.BorrowedSlice, Elem: inner}, Mode: mode}, true
	case *syntax.NamedType:
		if elem.Name.Name == "str" && elem.Arg == nil {
			return ir.TypeRef{Type: &ir.Type{Kind: catalog.BorrowedString}, Mode: mode}, true
		}

		typ, ok := c.resolveNamed(elem)
		if !ok {
			return ir.TypeRef{}, false
		}

		if typ.Owned {
			c.errorf(t.Span, "illegal_passing_mode", "borrow the native object directly: write `&%s`", typ.Name)
			return ir.TypeRef{}, false
		}

		return ir.TypeRef{Type: typ, Mode: mode}, true
	default:
		typ, ok := c.resolveOther(t.Elem)
		return ir.TypeRef{Type: typ, Mode: mode}, ok
	}
}

// resolveOther handles the remaining referents (`&()`, `&fn()`), which
// are never legal behind a reference.
func (c *checker) resolveOther(t syntax.Type) (*ir.Type, bool) {
	c.errorf(t.TypeSpan(), "illegal_passing_mode", "`%s` cannot be borrowed", t)
	return nil, false
}

// resolveElement resolves a generic argument, which is always by value.
func (c *checker) resolveElement(t syntax.Type) (*ir.Type, bool) {
	named, ok := t.(*syntax.NamedType)
	if !ok {
		c.errorf(t.TypeSpan(), "invalid_type_argument", "`%s` cannot be used as a generic argument", t)
		return nil, false
	}

	return c.resolveNamed(named)
}

func (c *checker) resolveNamed(t *syntax.NamedType) (*ir.Type, bool) {
	name := t.Name.Name

	switch name {
	case "Vec", "Box", "UniquePtr":
		return c.resolveGeneric(t)
	}

	switch name {
	case "Result":
		c.errorf(t.Span, "misplaced_result", "Result is only allowed as the return type of an extern function")
		return nil, false
	case "CxxString":
		c.errorf(t.Span, "unsupported_type", "CxxString is not in the type catalog; use String")
		return nil, false
	}

	if t.Arg != nil {
		c.errorf(t.Span, "unexpected_type_argument", "`%s` does not take a type argument", name)
		return nil, false
	}

	if p, ok := catalog.LookupPrim(name); ok {
		return &ir.Type{Kind: catalog.Primitive, Prim: p}, true
	}

	switch name {
	case "String":
		return &ir.Type{Kind: catalog.OwnedString}, true
	case "str":
		c.errorf(t.Span, "illegal_passing_mode", "`str` is unsized and must be borrowed: write `&str`")
		return nil, false
	}

	if s, ok := c.structs[name]; ok {
		return &ir.Type{Kind: catalog.UserStruct, Name: name, Struct: s}, true
	}

	if e, ok := c.enums[name]; ok {
		return &ir.Type{Kind: catalog.UserEnum, Name: name, Enum: e}, true
	}

	if o, ok := c.opaques[name]; ok {
		kind := catalog.OpaqueHostType
		if o.Side == catalog.ImplementedNatively {
			kind = catalog.OpaqueNativeHandle
		}

		return &ir.Type{Kind: kind, Name: name}, true
	}

	switch {
	case name == c.current:
		c.errorf(t.Span, "recursive_struct", "struct `%s` cannot contain itself", name)
	case c.pending[name]:
		c.errorf(t.Span, "forward_reference",
			"`%s` is used before its declaration; declare structs and enums before they are used", name)
	default:
		d := c.errorf(t.Span, "unknown_type", "unknown type `%s`", name)
		for _, s := range suggest.Names(name, c.knownNames(), 2) {
			d.WithSuggestions(fmt.Sprintf("did you mean `%s`?", s))
		}
	}

	return nil, false
}

func (c *checker) resolveGeneric(t *syntax.NamedType) (*ir.Type, bool) {
	name := t.Name.Name

	if t.Arg == nil {
		c.errorf(t.Span, "missing_type_argument", "`%s` needs a type argument", name)
		return nil, false
	}

	arg, ok := c.resolveElement(t.Arg)
	if !ok {
		return nil, false
	}

	var out *ir.Type

	switch name {
	case "Vec":
		if !catalog.VecElementOK(arg.Kind) {
			c.errorf(t.Arg.TypeSpan(), "invalid_type_argument",
				"`%s` cannot be a Vec element; vectors hold primitives, enums, structs or String", arg.Key())

			return nil, false
		}

		out = &ir.Type{Kind: catalog.OwnedVector, Elem: arg}
		c.instantiate(&c.b.Vecs, out, arg)
	case "Box":
		if !catalog.BoxTargetOK(arg.Kind) {
			c.errorf(t.Arg.TypeSpan(), "invalid_type_argument",
				"`%s` cannot be boxed; Box holds host types, structs or primitives", arg.Key())

			return nil, false
		}

		out = &ir.Type{Kind: catalog.OwnedHostValue, Elem: arg}
		c.instantiate(&c.b.Boxes, out, arg)
	default:
		if arg.Kind != catalog.OpaqueNativeHandle {
			c.errorf(t.Arg.TypeSpan(), "invalid_type_argument",
				"UniquePtr needs an opaque native type declared with `type %s;` in an extern \"C++\" block", arg.Key())

			return nil, false
		}

		out = &ir.Type{Kind: catalog.OpaqueNativeHandle, Name: arg.Name, Owned: true}
		c.instantiate(&c.b.UniquePtrs, out, out)
	}

	return out, true
}

// instantiate records a generic instantiation once, in first-use order.
// For Vec and Box the list holds the element type; for UniquePtr the
// owned handle itself.
func (c *checker) instantiate(list *[]*ir.Type, whole, elem *ir.Type) {
	key := whole.Key()
	if c.instances[key] {
		return
	}

	c.instances[key] = true
	*list = append(*list, elem)
}

func (c *checker) resolveCallback(t *syntax.FnType) (ir.TypeRef, bool) {
	if named, ok := t.Ret.(*syntax.NamedType); ok && named.Name.Name == "Result" {
		c.errorf(named.Span, "misplaced_result", "callbacks cannot be fallible")
		return ir.TypeRef{}, false
	}

	// Native code invokes the callback, so its signature is checked as a
	// host-implemented one.
	sig, ok := c.resolveSignature(t.Params, t.Ret, false, catalog.ImplementedByHost, "callback")
	if !ok {
		return ir.TypeRef{}, false
	}

	if sig.Ret != nil && sig.Ret.Mode.IsBorrow() {
		c.errorf(t.Ret.TypeSpan(), "illegal_passing_mode", "callbacks cannot return borrowed values")
		return ir.TypeRef{}, false
	}

	return ir.TypeRef{Type: &ir.Type{Kind: catalog.CallbackHandle, Sig: sig}, Mode: catalog.ByValue}, true
}

func (c *checker) knownNames() []string {
	names := catalog.BuiltinNames()

	for _, s := range c.b.Structs {
		names = append(names, s.Name)
	}

	for _, e := range c.b.Enums {
		names = append(names, e.Name)
	}

	for _, o := range c.b.Opaques {
		names = append(names, o.Name)
	}

	return names
}
