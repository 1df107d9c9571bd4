package runtime

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"bridge-generator/internal/catalog"
	"bridge-generator/internal/ir"
)

// Instance is one Vec<T> or Box<T> instantiation. Both sides render it from
// the same value, so symbol names always agree.
type Instance struct {
	// Prefix is the symbol prefix, e.g. "bridge1$vec$u8$".
	Prefix string
	// Ident is Prefix made safe for Rust item names.
	Ident string
	Rust  string
	Cxx   string
	// RT prefixes runtime items in Rust code: "::bridge::" from generated
	// glue, empty inside the runtime itself.
	RT string
	// Constructible Box targets can be allocated by native code. Opaque
	// host types cannot.
	Constructible bool
	// Inline marks C++ specializations that are defined in a header.
	Inline bool
	// Decl emits C++ specialization declarations instead of definitions.
	Decl bool
}

// VecInstance describes Vec<elem>.
func VecInstance(b *ir.Bridge, elem *ir.Type, rust, cxx string) Instance {
	return newInstance(ir.RuntimeSymbol("vec", b.LinkName(elem), ""), rust, cxx)
}

// BoxInstance describes Box<target>.
func BoxInstance(b *ir.Bridge, target *ir.Type, rust, cxx string) Instance {
	in := newInstance(ir.RuntimeSymbol("box", b.LinkName(target), ""), rust, cxx)
	in.Constructible = target.Kind != catalog.OpaqueHostType

	return in
}

func newInstance(prefix, rust, cxx string) Instance {
	return Instance{
		Prefix: prefix,
		Ident:  strings.Trim(strings.ReplaceAll(prefix, "$", "_"), "_"),
		Rust:   rust,
		Cxx:    cxx,
		RT:     "::bridge::",
	}
}

// WithRuntime returns a copy referring to runtime items through path, a
// Rust path such as "::bridge" or "crate::bridge_rt". An empty path means
// the items are in scope.
func (in Instance) WithRuntime(path string) Instance {
	in.RT = ""
	if path != "" {
		in.RT = path + "::"
	}

	return in
}

// Inlined returns a copy whose C++ specializations are header definitions.
func (in Instance) Inlined() Instance {
	in.Inline = true
	return in
}

// Declared returns a copy that renders C++ specialization declarations.
func (in Instance) Declared() Instance {
	in.Decl = true
	return in
}

// WriteRustVec writes the host exports backing Vec<T>.
func (in Instance) WriteRustVec(w io.Writer) error {
	return execute(w, rustVecTemplate, in)
}

// WriteRustBox writes the host exports backing Box<T>.
func (in Instance) WriteRustBox(w io.Writer) error {
	return execute(w, rustBoxTemplate, in)
}

// WriteCxxVecExterns writes the extern "C" prototypes of the Vec<T> exports.
func (in Instance) WriteCxxVecExterns(w io.Writer) error {
	return execute(w, cxxVecExternTemplate, in)
}

// WriteCxxVec writes the Vec<T> member specializations. It must appear
// inside namespace bridge.
func (in Instance) WriteCxxVec(w io.Writer) error {
	return execute(w, cxxVecTemplate, in)
}

// WriteCxxBoxExterns writes the extern "C" prototypes of the Box<T> exports.
func (in Instance) WriteCxxBoxExterns(w io.Writer) error {
	return execute(w, cxxBoxExternTemplate, in)
}

// WriteCxxBox writes the Box<T> member specializations. It must appear
// inside namespace bridge.
func (in Instance) WriteCxxBox(w io.Writer) error {
	return execute(w, cxxBoxTemplate, in)
}

func execute(w io.Writer, t *template.Template, data any) error {
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("executing %s template: %w", t.Name(), err)
	}

	return nil
}

var rustVecTemplate = template.Must(template.New("rust_vec").Parse(`
#[doc(hidden)]
#[export_name = "{{.Prefix}}new"]
unsafe extern "C" fn __{{.Ident}}_new(this: *mut ::std::vec::Vec<{{.Rust}}>) {
    ::core::ptr::write(this, ::std::vec::Vec::new());
}

#[doc(hidden)]
#[export_name = "{{.Prefix}}drop"]
unsafe extern "C" fn __{{.Ident}}_drop(this: *mut ::std::vec::Vec<{{.Rust}}>) {
    {{.RT}}abort_on_panic("Vec<{{.Rust}}> drop", || ::core::ptr::drop_in_place(this));
}

#[doc(hidden)]
#[export_name = "{{.Prefix}}len"]
unsafe extern "C" fn __{{.Ident}}_len(this: *const ::std::vec::Vec<{{.Rust}}>) -> usize {
    (*this).len()
}

#[doc(hidden)]
#[export_name = "{{.Prefix}}data"]
unsafe extern "C" fn __{{.Ident}}_data(this: *const ::std::vec::Vec<{{.Rust}}>) -> *const {{.Rust}} {
    (*this).as_ptr()
}

#[doc(hidden)]
#[export_name = "{{.Prefix}}reserve_total"]
unsafe extern "C" fn __{{.Ident}}_reserve_total(this: *mut ::std::vec::Vec<{{.Rust}}>, cap: usize) {
    let this = &mut *this;
    let additional = cap.saturating_sub(this.len());
    this.reserve(additional);
}

#[doc(hidden)]
#[export_name = "{{.Prefix}}set_len"]
unsafe extern "C" fn __{{.Ident}}_set_len(this: *mut ::std::vec::Vec<{{.Rust}}>, len: usize) {
    (*this).set_len(len);
}
`))

var rustBoxTemplate = template.Must(template.New("rust_box").Parse(`
#[doc(hidden)]
#[export_name = "{{.Prefix}}drop"]
unsafe extern "C" fn __{{.Ident}}_drop(ptr: *mut {{.Rust}}) {
    {{.RT}}abort_on_panic("Box<{{.Rust}}> drop", || ::core::mem::drop(::std::boxed::Box::from_raw(ptr)));
}
{{- if .Constructible}}

#[doc(hidden)]
#[export_name = "{{.Prefix}}alloc"]
unsafe extern "C" fn __{{.Ident}}_alloc() -> *mut {{.Rust}} {
    let uninit = ::std::boxed::Box::new(::core::mem::MaybeUninit::<{{.Rust}}>::uninit());
    ::std::boxed::Box::into_raw(uninit).cast()
}

#[doc(hidden)]
#[export_name = "{{.Prefix}}dealloc"]
unsafe extern "C" fn __{{.Ident}}_dealloc(ptr: *mut {{.Rust}}) {
    ::core::mem::drop(::std::boxed::Box::from_raw(ptr.cast::<::core::mem::MaybeUninit<{{.Rust}}>>()));
}
{{- end}}
`))

var cxxVecExternTemplate = template.Must(template.New("cxx_vec_extern").Parse(
	`void {{.Prefix}}new(::bridge::Vec<{{.Cxx}}> *ptr) noexcept;
void {{.Prefix}}drop(::bridge::Vec<{{.Cxx}}> *ptr) noexcept;
::std::size_t {{.Prefix}}len(const ::bridge::Vec<{{.Cxx}}> *ptr) noexcept;
const {{.Cxx}} *{{.Prefix}}data(const ::bridge::Vec<{{.Cxx}}> *ptr) noexcept;
void {{.Prefix}}reserve_total(::bridge::Vec<{{.Cxx}}> *ptr, ::std::size_t cap) noexcept;
void {{.Prefix}}set_len(::bridge::Vec<{{.Cxx}}> *ptr, ::std::size_t len) noexcept;
`))

var cxxVecTemplate = template.Must(template.New("cxx_vec").Parse(
	`{{$in := .Inline}}{{if .Decl}}template <>
Vec<{{.Cxx}}>::Vec() noexcept;
template <>
void Vec<{{.Cxx}}>::drop() noexcept;
template <>
::std::size_t Vec<{{.Cxx}}>::size() const noexcept;
template <>
const {{.Cxx}} *Vec<{{.Cxx}}>::data() const noexcept;
template <>
void Vec<{{.Cxx}}>::reserve_total(::std::size_t cap) noexcept;
template <>
void Vec<{{.Cxx}}>::set_len(::std::size_t len) noexcept;
{{else}}template <>
{{if $in}}inline {{end}}Vec<{{.Cxx}}>::Vec() noexcept {
  {{.Prefix}}new(this);
}
template <>
{{if $in}}inline {{end}}void Vec<{{.Cxx}}>::drop() noexcept {
  {{.Prefix}}drop(this);
}
template <>
{{if $in}}inline {{end}}::std::size_t Vec<{{.Cxx}}>::size() const noexcept {
  return {{.Prefix}}len(this);
}
template <>
{{if $in}}inline {{end}}const {{.Cxx}} *Vec<{{.Cxx}}>::data() const noexcept {
  return {{.Prefix}}data(this);
}
template <>
{{if $in}}inline {{end}}void Vec<{{.Cxx}}>::reserve_total(::std::size_t cap) noexcept {
  {{.Prefix}}reserve_total(this, cap);
}
template <>
{{if $in}}inline {{end}}void Vec<{{.Cxx}}>::set_len(::std::size_t len) noexcept {
  {{.Prefix}}set_len(this, len);
}
{{end}}`))

var cxxBoxExternTemplate = template.Must(template.New("cxx_box_extern").Parse(
	`void {{.Prefix}}drop({{.Cxx}} *ptr) noexcept;
{{if .Constructible}}{{.Cxx}} *{{.Prefix}}alloc() noexcept;
void {{.Prefix}}dealloc({{.Cxx}} *ptr) noexcept;
{{end}}`))

var cxxBoxTemplate = template.Must(template.New("cxx_box").Parse(
	`{{$in := .Inline}}{{if .Decl}}template <>
void Box<{{.Cxx}}>::drop() noexcept;
{{if .Constructible}}template <>
{{.Cxx}} *Box<{{.Cxx}}>::alloc() noexcept;
template <>
void Box<{{.Cxx}}>::dealloc({{.Cxx}} *ptr) noexcept;
{{end}}{{else}}template <>
{{if $in}}inline {{end}}void Box<{{.Cxx}}>::drop() noexcept {
  {{.Prefix}}drop(this->ptr);
}
{{if .Constructible}}template <>
{{if $in}}inline {{end}}{{.Cxx}} *Box<{{.Cxx}}>::alloc() noexcept {
  return {{.Prefix}}alloc();
}
template <>
{{if $in}}inline {{end}}void Box<{{.Cxx}}>::dealloc({{.Cxx}} *ptr) noexcept {
  {{.Prefix}}dealloc(ptr);
}
{{end}}{{end}}`))
