package syntax

import (
	"strings"

	"bridge-generator/internal/diagnostic"
)

// File is a parsed bridge manifest.
type File struct {
	Name string
	// Module is the name of the enclosing `mod` item, empty for a bare manifest.
	Module    string
	Attrs     []Attr
	Namespace []string
	Items     []Item
	Span      diagnostic.Span
}

// Ident is a name with its source span.
type Ident struct {
	Name string
	Span diagnostic.Span
}

// Attr is an outer attribute such as #[bridge(namespace = tests)].
type Attr struct {
	Path string
	Args []AttrArg
	Span diagnostic.Span
}

// AttrArg is one `key` or `key = value` entry inside an attribute.
type AttrArg struct {
	Key   string
	Value string
	Span  diagnostic.Span
}

// Arg returns the value for key.
func (a Attr) Arg(key string) (AttrArg, bool) {
	for _, arg := range a.Args {
		if arg.Key == key {
			return arg, true
		}
	}

	return AttrArg{}, false
}

// IsBridge reports whether the attribute marks a bridge module.
func (a Attr) IsBridge() bool {
	return a.Path == "bridge" || strings.HasSuffix(a.Path, "::bridge")
}

// Item is a top-level manifest item.
type Item interface {
	ItemSpan() diagnostic.Span
	item()
}

type Struct struct {
	Doc    []string
	Attrs  []Attr
	Name   Ident
	Fields []Field
	Span   diagnostic.Span
}

type Field struct {
	Doc  []string
	Name Ident
	Type Type
	Span diagnostic.Span
}

type Enum struct {
	Doc      []string
	Attrs    []Attr
	Name     Ident
	Variants []Variant
	Span     diagnostic.Span
}

type Variant struct {
	Doc   []string
	Name  Ident
	Value *IntLit
	Span  diagnostic.Span
}

type IntLit struct {
	Value uint64
	Span  diagnostic.Span
}

// ExternBlock groups foreign items implemented on one side of the bridge.
type ExternBlock struct {
	ABI     string
	ABISpan diagnostic.Span
	Unsafe  bool
	Items   []ForeignItem
	Span    diagnostic.Span
}

func (s *Struct) ItemSpan() diagnostic.Span      { return s.Span }
func (e *Enum) ItemSpan() diagnostic.Span        { return e.Span }
func (b *ExternBlock) ItemSpan() diagnostic.Span { return b.Span }

func (*Struct) item()      {}
func (*Enum) item()        {}
func (*ExternBlock) item() {}

// ForeignItem is an item inside an extern block.
type ForeignItem interface {
	ForeignSpan() diagnostic.Span
	foreign()
}

// TypeDecl declares an opaque type: `type C;`.
type TypeDecl struct {
	Doc  []string
	Name Ident
	Span diagnostic.Span
}

// FnDecl is a function signature.
type FnDecl struct {
	Doc    []string
	Attrs  []Attr
	Name   Ident
	Params []Param
	// Ret is nil when the function returns nothing.
	Ret Type
	// Fallible is set when the return type was written Result<T>;
	// Ret then holds T.
	Fallible   bool
	ResultSpan diagnostic.Span
	Span       diagnostic.Span
}

type Param struct {
	Name Ident
	Type Type
	Span diagnostic.Span
}

// Include is `include!("path");`.
type Include struct {
	Path string
	Span diagnostic.Span
}

func (t *TypeDecl) ForeignSpan() diagnostic.Span { return t.Span }
func (f *FnDecl) ForeignSpan() diagnostic.Span   { return f.Span }
func (i *Include) ForeignSpan() diagnostic.Span  { return i.Span }

func (*TypeDecl) foreign() {}
func (*FnDecl) foreign()   {}
func (*Include) foreign()  {}

// Type is an unresolved type expression.
type Type interface {
	TypeSpan() diagnostic.Span
	String() string
	typ()
}

// NamedType is `Name` or `Name<Arg>`.
type NamedType struct {
	Name Ident
	Arg  Type
	Span diagnostic.Span
}

// RefType is `&T` or `&mut T`.
type RefType struct {
	Mut  bool
	Elem Type
	Span diagnostic.Span
}

// SliceType is `[T]`.
type SliceType struct {
	Elem Type
	Span diagnostic.Span
}

// FnType is `fn(A, B) -> R`.
type FnType struct {
	Params []Param
	Ret    Type
	Span   diagnostic.Span
}

// UnitType is `()`.
type UnitType struct {
	Span diagnostic.Span
}

func (t *NamedType) TypeSpan() diagnostic.Span { return t.Span }
func (t *RefType) TypeSpan() diagnostic.Span   { return t.Span }
func (t *SliceType) TypeSpan() diagnostic.Span { return t.Span }
func (t *FnType) TypeSpan() diagnostic.Span    { return t.Span }
func (t *UnitType) TypeSpan() diagnostic.Span  { return t.Span }

func (*NamedType) typ() {}
func (*RefType) typ()   {}
func (*SliceType) typ() {}
func (*FnType) typ()    {}
func (*UnitType) typ()  {}

func (t *NamedType) String() string {
	if t.Arg == nil {
		return t.Name.Name
	}

	return t.Name.Name + "<" + t.Arg.String() + ">"
}

func (t *RefType) String() string {
	if t.Mut {
		return "&mut " + t.Elem.String()
	}

	return "&" + t.Elem.String()
}

func (t *SliceType) String() string {
	return "[" + t.Elem.String() + "]"
}

func (t *FnType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.Type.String()
	}

	s := "fn(" + strings.Join(parts, ", ") + ")"
	if t.Ret != nil {
		s += " -> " + t.Ret.String()
	}

	return s
}

func (*UnitType) String() string {
	return "()"
}
