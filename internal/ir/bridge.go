package ir

import "bridge-generator/internal/catalog"

// HasFallible reports whether any function is fallible.
func (b *Bridge) HasFallible() bool {
	for _, fn := range b.Functions {
		if fn.Sig.Fallible {
			return true
		}
	}

	return false
}

// FunctionsFor returns the functions implemented on side d, in declaration order.
func (b *Bridge) FunctionsFor(d catalog.Direction) []*Function {
	var out []*Function

	for _, fn := range b.Functions {
		if fn.Direction == d {
			out = append(out, fn)
		}
	}

	return out
}

// OpaquesFor returns the opaque types owned by side d.
func (b *Bridge) OpaquesFor(d catalog.Direction) []*Opaque {
	var out []*Opaque

	for _, o := range b.Opaques {
		if o.Side == d {
			out = append(out, o)
		}
	}

	return out
}

// Uses reports whether any signature or struct field mentions kind.
func (b *Bridge) Uses(kind catalog.TypeKind) bool {
	found := false

	b.Walk(func(t *Type) {
		if t.Kind == kind {
			found = true
		}
	})

	return found
}

// Walk calls visit for every type reachable from struct fields and
// function signatures, including element types and callback signatures.
func (b *Bridge) Walk(visit func(*Type)) {
	for _, s := range b.Structs {
		for _, f := range s.Fields {
			walkType(f.Type, visit)
		}
	}

	for _, fn := range b.Functions {
		walkSig(&fn.Sig, visit)
	}
}

func walkSig(sig *Signature, visit func(*Type)) {
	for _, p := range sig.Params {
		walkType(p.Ref.Type, visit)
	}

	if sig.Ret != nil {
		walkType(sig.Ret.Type, visit)
	}
}

func walkType(t *Type, visit func(*Type)) {
	if t == nil {
		return
	}

	visit(t)
	walkType(t.Elem, visit)

	if t.Sig != nil {
		walkSig(t.Sig, visit)
	}
}

// Callbacks returns the distinct callback signatures in first-use order.
func (b *Bridge) Callbacks() []*Signature {
	seen := make(map[string]bool)

	var out []*Signature

	b.Walk(func(t *Type) {
		if t.Kind != catalog.CallbackHandle || seen[t.Key()] {
			return
		}

		seen[t.Key()] = true
		out = append(out, t.Sig)
	})

	return out
}
