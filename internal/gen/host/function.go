package host

import (
	"fmt"
	"strings"

	"bridge-generator/internal/gen"
	"bridge-generator/internal/ir"
)

// code accumulates indented source lines.
type code struct {
	strings.Builder
	depth int
}

func (c *code) line(format string, args ...any) {
	if format != "" {
		c.WriteString(strings.Repeat("    ", c.depth))
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

// abiSignature renders the extern "C" parameter list and return of sig.
// trampoline appends the function pointer a callback trampoline receives.
func (s spelling) abiSignature(sig *ir.Signature, names []string, trampoline bool) string {
	params := make([]string, 0, len(names)+2)
	for i, p := range sig.Params {
		params = append(params, names[i]+": "+s.abiParam(p.Ref))
	}

	switch gen.ReturnChannel(sig) {
	case gen.ReturnsOutParam:
		params = append(params, "__return: *mut "+s.typ(sig.Ret.Type))
	case gen.ReturnsResult:
		params = append(params, "__return: *mut "+s.rt+"ResultRepr<"+s.okType(sig)+">")
	}

	if trampoline {
		params = append(params, "__fn: *const ()")
	}

	out := "(" + strings.Join(params, ", ") + ")"
	if gen.ReturnChannel(sig) == gen.ReturnsValue {
		out += " -> " + s.abiReturn(*sig.Ret)
	}

	return out
}

// export renders the exported entry point native code calls for a host
// function.
func (s spelling) export(fn *ir.Function) string {
	var c code

	names := paramNames(&fn.Sig)

	c.line("#[doc(hidden)]")
	c.line("#[export_name = \"%s\"]", fn.Symbol)
	c.line("unsafe extern \"C\" fn __%s%s {", fn.Name, s.abiSignature(&fn.Sig, names, false))
	c.depth++
	s.forward(&c, &fn.Sig, names, fn.Name, "super::"+fn.Name)
	c.depth--
	c.line("}")

	return c.String()
}

// forward converts incoming ABI parameters, calls callee and hands the
// result back through the signature's return channel. Panics never unwind
// into native code: they abort, or become the error of a fallible call.
func (s spelling) forward(c *code, sig *ir.Signature, names []string, label, callee string) {
	for i, p := range sig.Params {
		if conv := s.fromParam(p.Ref, names[i]); conv != names[i] {
			c.line("let %s = %s;", names[i], conv)
		}
	}

	call := fmt.Sprintf("move || %s(%s)", callee, strings.Join(names, ", "))
	guarded := fmt.Sprintf("%sabort_on_panic(%q, %s)", s.rt, label, call)

	switch gen.ReturnChannel(sig) {
	case gen.ReturnsNothing:
		c.line("%s;", guarded)
	case gen.ReturnsValue:
		c.line("%s", s.toReturn(*sig.Ret, guarded))
	case gen.ReturnsOutParam:
		c.line("::core::ptr::write(__return, %s);", guarded)
	case gen.ReturnsResult:
		c.line("let __result = %scatch_unwind_result(%s);", s.rt, call)

		if sig.Ret != nil {
			if conv := s.toOK(*sig.Ret, "__value"); conv != "__value" {
				c.line("let __result = __result.map(|__value| %s);", conv)
			}
		}

		c.line("::core::ptr::write(__return, %sResultRepr::from_result(__result));", s.rt)
	}
}

// wrapper renders the safe Rust function calling a native function.
func (s spelling) wrapper(fn *ir.Function) string {
	var c code

	sig := &fn.Sig
	names := paramNames(sig)

	lifetime, generics := "", ""
	if sig.Ret != nil && sig.Ret.Mode.IsBorrow() {
		lifetime, generics = "'a", "<'a>"
	}

	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = names[i] + ": " + s.ref(p.Ref, lifetime)
	}

	c.doc(fn.Doc)
	c.line("pub fn %s%s(%s)%s {", fn.Name, generics, strings.Join(params, ", "), s.wrapperReturn(sig, lifetime))
	c.depth++
	c.line("extern \"C\" {")
	c.depth++
	c.line("#[link_name = \"%s\"]", fn.Symbol)
	c.line("fn __%s%s;", fn.Name, s.abiSignature(sig, names, false))
	c.depth--
	c.line("}")

	for i, p := range sig.Params {
		if gen.Classify(p.Ref) == gen.Callback {
			c.line("")
			s.trampoline(&c, names[i], p.Ref.Type.Sig)
		}
	}

	c.line("")

	args := make([]string, 0, len(names)+1)
	for i, p := range sig.Params {
		if gen.Classify(p.Ref) == gen.Indirect {
			c.line("let mut %s = ::core::mem::ManuallyDrop::new(%s);", names[i], names[i])
		}

		args = append(args, s.toABI(p.Ref, names[i]))
	}

	channel := gen.ReturnChannel(sig)
	if channel == gen.ReturnsOutParam || channel == gen.ReturnsResult {
		args = append(args, "__return.as_mut_ptr()")
	}

	call := fmt.Sprintf("__%s(%s)", fn.Name, strings.Join(args, ", "))

	switch channel {
	case gen.ReturnsNothing:
		c.line("unsafe { %s }", call)
	case gen.ReturnsValue:
		c.line("unsafe { %s }", s.fromReturn(*sig.Ret, call))
	case gen.ReturnsOutParam:
		c.line("let mut __return = ::core::mem::MaybeUninit::<%s>::uninit();", s.typ(sig.Ret.Type))
		c.line("unsafe {")
		c.line("    %s;", call)
		c.line("    __return.assume_init()")
		c.line("}")
	case gen.ReturnsResult:
		result := "__return.assume_init().into_result()"

		if sig.Ret != nil {
			if conv := s.fromReturn(*sig.Ret, "__value"); conv != "__value" {
				result += ".map(|__value| " + conv + ")"
			}
		}

		c.line("let mut __return = ::core::mem::MaybeUninit::<%sResultRepr<%s>>::uninit();", s.rt, s.okType(sig))
		c.line("unsafe {")
		c.line("    %s;", call)
		c.line("    %s", result)
		c.line("}")
	}

	c.depth--
	c.line("}")

	return c.String()
}

func (s spelling) wrapperReturn(sig *ir.Signature, lifetime string) string {
	ret := "()"
	if sig.Ret != nil {
		ret = s.ref(*sig.Ret, lifetime)
	}

	switch {
	case sig.Fallible:
		return " -> ::core::result::Result<" + ret + ", " + s.rt + "Error>"
	case sig.Ret == nil:
		return ""
	default:
		return " -> " + ret
	}
}

// trampoline renders the function native code calls to invoke the host
// function pointer of callback parameter param.
func (s spelling) trampoline(c *code, param string, sig *ir.Signature) {
	names := paramNames(sig)

	c.line("unsafe extern \"C\" fn %s%s {", trampolineName(param), s.abiSignature(sig, names, true))
	c.depth++
	c.line("let __fn = ::core::mem::transmute::<*const (), %s>(__fn);", s.fnPointer(sig))
	s.forward(c, sig, names, "callback "+param, "__fn")
	c.depth--
	c.line("}")
}

// uniquePtrTarget lets UniquePtr<class> run the native deleter.
func (s spelling) uniquePtrTarget(b *ir.Bridge, class *ir.Type) string {
	var c code

	c.line("unsafe impl %sUniquePtrTarget for %s {", s.rt, class.Name)
	c.depth++
	c.line("unsafe fn __drop(ptr: *mut Self) {")
	c.depth++
	c.line("extern \"C\" {")
	c.line("    #[link_name = \"%s\"]", b.UniquePtrSymbol(class, "drop"))
	c.line("    fn __unique_ptr_drop(ptr: *mut %s);", class.Name)
	c.line("}")
	c.line("__unique_ptr_drop(ptr)")
	c.depth--
	c.line("}")
	c.depth--
	c.line("}")

	return c.String()
}
