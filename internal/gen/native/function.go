package native

import (
	"fmt"
	"strings"

	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
)

type code struct {
	strings.Builder
	depth int
}

func (c *code) line(format string, args ...any) {
	if format != "" {
		c.WriteString(strings.Repeat("  ", c.depth))
		fmt.Fprintf(c, format, args...)
	}

	c.WriteByte('\n')
}

func (c *code) doc(lines []string) {
	for _, l := range lines {
		if l == "" {
			c.line("///")
			continue
		}

		c.line("/// %s", l)
	}
}

// abiParams renders the extern "C" parameter list of sig; nil names gives
// the bare types. trampoline appends the host function pointer a callback
// trampoline receives.
func (s spelling) abiParams(sig *ir.Signature, names []string, trampoline bool) string {
	name := func(n string) string {
		if names == nil {
			return ""
		}

		return n
	}

	params := make([]string, 0, len(sig.Params)+2)
	for i, p := range sig.Params {
		n := ""
		if names != nil {
			n = names[i]
		}

		params = append(params, decl(s.abiParam(p.Ref), n))
	}

	switch gen.ReturnChannel(sig) {
	case gen.ReturnsOutParam:
		params = append(params, decl(s.typ(sig.Ret.Type)+" *", name("return$")))
	case gen.ReturnsResult:
		params = append(params, decl("::bridge::detail::ResultRepr<"+s.okType(sig)+"> *", name("return$")))
	}

	if trampoline {
		params = append(params, decl("void *", name("fn")))
	}

	return strings.Join(params, ", ")
}

func (s spelling) abiRet(sig *ir.Signature) string {
	if gen.ReturnChannel(sig) == gen.ReturnsValue {
		return s.abiReturn(*sig.Ret)
	}

	return "void"
}

// apiParams renders the user-facing parameter list of sig.
func (s spelling) apiParams(sig *ir.Signature, names []string) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = decl(s.ref(p.Ref), names[i])
	}

	return strings.Join(params, ", ")
}

// trampoline renders the extern "C" entry point the host calls for a
// native function. The function pointer assignment makes a mismatch
// between the manifest and the native declaration a compile error.
func (s spelling) trampoline(fn *ir.Function) string {
	var c code

	sig := &fn.Sig
	names := paramNames(sig)

	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = s.ref(p.Ref)
	}

	c.line("%s noexcept {", decl(s.abiRet(sig), fn.Symbol+"("+s.abiParams(sig, names, false)+")"))
	c.depth++
	c.line("%s = %s;", decl(s.ret(sig), "(*"+fn.Name+"$)("+strings.Join(params, ", ")+")"), s.qualify(fn.Name))

	args := make([]string, len(names))
	for i, p := range sig.Params {
		args[i] = s.fromABI(p.Ref, names[i])
	}

	call := fn.Name + "$(" + strings.Join(args, ", ") + ")"

	switch gen.ReturnChannel(sig) {
	case gen.ReturnsNothing:
		c.line("%s;", call)
	case gen.ReturnsValue:
		c.line("return %s;", s.toABI(*sig.Ret, call))
	case gen.ReturnsOutParam:
		c.line("::new (return$) %s(%s);", s.typ(sig.Ret.Type), call)
	case gen.ReturnsResult:
		c.line("try {")
		c.depth++

		if sig.Ret == nil {
			c.line("%s;", call)
			c.line("return$->set_ok();")
		} else {
			c.line("return$->set_ok(%s);", s.toABI(*sig.Ret, call))
		}

		c.depth--
		c.line("} catch (const ::std::exception &e) {")
		c.line("  return$->set_err(e.what());")
		c.line("} catch (...) {")
		c.line("  return$->set_err(\"unknown exception\");")
		c.line("}")
	}

	c.depth--
	c.line("}")

	return c.String()
}

// hostSymbol declares the Rust export implementing a host function.
func (s spelling) hostSymbol(fn *ir.Function) string {
	names := paramNames(&fn.Sig)
	return decl(s.abiRet(&fn.Sig), fn.Symbol+"("+s.abiParams(&fn.Sig, names, false)+")") + " noexcept;"
}

// hostPrototype declares a host function for native callers. Fallible
// functions throw ::bridge::Error.
func (s spelling) hostPrototype(fn *ir.Function) string {
	var c code

	c.doc(fn.Doc)
	c.line("%s;", s.hostHead(fn))

	return c.String()
}

func (s spelling) hostHead(fn *ir.Function) string {
	head := decl(s.ret(&fn.Sig), fn.Name+"("+s.apiParams(&fn.Sig, paramNames(&fn.Sig))+")")
	if !fn.Sig.Fallible {
		head += " noexcept"
	}

	return head
}

// hostWrapper defines a host function for native callers.
func (s spelling) hostWrapper(fn *ir.Function) string {
	var c code

	c.line("%s {", s.hostHead(fn))
	c.depth++
	s.call(&c, &fn.Sig, paramNames(&fn.Sig), fn.Symbol, "")
	c.depth--
	c.line("}")

	return c.String()
}

// call passes user-facing parameters to callee and converts its result.
// Indirect arguments are moved into storage the host takes ownership of.
func (s spelling) call(c *code, sig *ir.Signature, names []string, callee, extra string) {
	args := make([]string, 0, len(names)+2)

	for i, p := range sig.Params {
		if gen.Classify(p.Ref) == gen.Indirect {
			c.line("::bridge::detail::ManuallyDrop<%s> %s$(::std::move(%s));", s.typ(p.Ref.Type), names[i], names[i])
			args = append(args, "&"+names[i]+"$.value")

			continue
		}

		args = append(args, s.toArg(p.Ref, names[i]))
	}

	channel := gen.ReturnChannel(sig)

	switch channel {
	case gen.ReturnsOutParam:
		c.line("::bridge::detail::MaybeUninit<%s> return$;", s.typ(sig.Ret.Type))
		args = append(args, "&return$.value")
	case gen.ReturnsResult:
		c.line("::bridge::detail::ResultRepr<%s> return$;", s.okType(sig))
		args = append(args, "&return$")
	}

	if extra != "" {
		args = append(args, extra)
	}

	invoke := callee + "(" + strings.Join(args, ", ") + ")"

	switch channel {
	case gen.ReturnsNothing:
		c.line("%s;", invoke)
	case gen.ReturnsValue:
		c.line("return %s;", s.fromReturn(*sig.Ret, invoke))
	case gen.ReturnsOutParam:
		c.line("%s;", invoke)
		c.line("return return$.take();")
	case gen.ReturnsResult:
		c.line("%s;", invoke)

		if sig.Ret == nil {
			c.line("return$.take();")
		} else {
			c.line("return %s;", s.fromOK(*sig.Ret, "return$.take()"))
		}
	}
}

// fromOK converts a ResultRepr payload into the user-facing value.
func (s spelling) fromOK(r ir.TypeRef, expr string) string {
	switch gen.Classify(r) {
	case gen.RawBox, gen.RawUnique:
		return s.fromABI(r, expr)
	default:
		return expr
	}
}

// callbackHead is the Fn<sig>::operator() specialization head.
func (s spelling) callbackHead(sig *ir.Signature) string {
	fnType := "Fn<" + s.fnType(sig) + ">"
	return "template <>\n" + decl(s.ret(sig), fnType+"::operator()("+s.apiParams(sig, paramNames(sig))+")") + " const noexcept"
}

// callback defines Fn<sig>::operator(), which calls the host trampoline
// with the host function pointer.
func (s spelling) callback(sig *ir.Signature) string {
	var c code

	names := paramNames(sig)

	c.line("%s {", s.callbackHead(sig))
	c.depth++
	c.line("auto trampoline$ = reinterpret_cast<%s (*)(%s)>(this->trampoline);", s.abiRet(sig), s.abiParams(sig, nil, true))
	s.call(&c, sig, names, "trampoline$", "this->fn")
	c.depth--
	c.line("}")

	return c.String()
}

// uniquePtrDrop defines the deleter UniquePtr<class> runs from the host.
func (s spelling) uniquePtrDrop(b *ir.Bridge, class *ir.Type) string {
	var c code

	name := s.qualify(class.Name)

	c.line("void %s(%s *ptr) noexcept {", b.UniquePtrSymbol(class, "drop"), name)
	c.line("  ::std::default_delete<%s>()(ptr);", name)
	c.line("}")

	return c.String()
}
