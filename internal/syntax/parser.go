package syntax

import (
	"strconv"
	"strings"

	"bridge-generator/internal/diagnostic"
)

// Parser is a recursive-descent parser over a token slice. It never stops at
// the first error; each failed item is skipped up to the next boundary.
type Parser struct {
	file  string
	toks  []Token
	pos   int
	diags *diagnostic.Diagnostics
}

// Parse parses a standalone manifest.
func Parse(file, src string) (*File, diagnostic.Diagnostics) {
	return ParseAt(file, src, diagnostic.Position{})
}

// ParseAt parses a manifest whose text begins at base within file.
func ParseAt(file, src string, base diagnostic.Position) (*File, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	p := &Parser{
		file:  file,
		toks:  Tokenize(file, src, base, &diags),
		diags: &diags,
	}

	return p.parseFile(), diags
}

func (p *Parser) peek() Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.pos+n]
}

func (p *Parser) next() Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return tok
}

func (p *Parser) at(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) accept(typ TokenType) bool {
	if p.at(typ) {
		p.next()
		return true
	}

	return false
}

func (p *Parser) acceptKw(kw string) bool {
	if p.peek().Is(kw) {
		p.next()
		return true
	}

	return false
}

func (p *Parser) expect(typ TokenType, context string) (Token, bool) {
	if p.at(typ) {
		return p.next(), true
	}

	p.errorf(p.peek().Span, "unexpected_token", "expected %s %s, found %s", typ, context, p.peek().Describe())

	return Token{}, false
}

func (p *Parser) expectIdent(what string) (Ident, bool) {
	tok := p.peek()
	if tok.Type != Identifier {
		p.errorf(tok.Span, "expected_identifier", "expected %s, found %s", what, tok.Describe())
		return Ident{}, false
	}

	p.next()

	return Ident{Name: tok.Value, Span: tok.Span}, true
}

func (p *Parser) errorf(span diagnostic.Span, code, format string, args ...any) *diagnostic.Diagnostic {
	return p.diags.AddError(diagnostic.ClassSyntax, code, span, format, args...)
}

// spanFrom covers start through the last consumed token.
func (p *Parser) spanFrom(start diagnostic.Span) diagnostic.Span {
	if p.pos == 0 {
		return start
	}

	last := p.toks[p.pos-1].Span
	if last.Start.Before(start.Start) {
		return start
	}

	return diagnostic.Span{File: start.File, Start: start.Start, End: last.End}
}

// sync skips to the end of the current item: past the next ';' or balanced
// '{...}', or up to a '}' closing the enclosing block or the start of the
// next item.
func (p *Parser) sync() {
	depth := 0
	moved := false

	for !p.at(EOF) {
		tok := p.peek()

		switch {
		case tok.Type == Semi && depth == 0:
			p.next()
			return
		case tok.Type == LBrace:
			depth++
		case tok.Type == RBrace:
			if depth == 0 {
				return
			}

			depth--
			if depth == 0 {
				p.next()
				return
			}
		case depth == 0 && moved && startsItem(tok):
			return
		}

		p.next()
		moved = true
	}
}

func startsItem(tok Token) bool {
	if tok.Type == Hash {
		return true
	}

	switch tok.Value {
	case "struct", "enum", "extern", "fn", "type", "include", "pub":
		return tok.Type == Identifier
	}

	return false
}

func (p *Parser) parseFile() *File {
	f := &File{Name: p.file, Span: p.peek().Span}

	attrs := p.parseAttrs()

	if p.peek().Is("pub") && p.peekAt(1).Is("mod") {
		p.next()
	}

	if p.acceptKw("mod") {
		f.Attrs = attrs
		if name, ok := p.expectIdent("module name"); ok {
			f.Module = name.Name
		}

		if _, ok := p.expect(LBrace, "to open the bridge module"); ok {
			f.Items = p.parseItems(nil)
			p.expect(RBrace, "to close the bridge module")
		}

		if !p.at(EOF) {
			p.errorf(p.peek().Span, "trailing_input", "unexpected %s after the bridge module", p.peek().Describe())
		}
	} else {
		var pending []Attr
		for _, a := range attrs {
			if a.IsBridge() {
				f.Attrs = append(f.Attrs, a)
			} else {
				pending = append(pending, a)
			}
		}

		f.Items = p.parseItems(pending)

		for !p.at(EOF) {
			p.errorf(p.peek().Span, "unexpected_token", "unexpected %s at top level", p.peek().Describe())
			p.next()
			f.Items = append(f.Items, p.parseItems(nil)...)
		}
	}

	f.Namespace = p.namespace(f.Attrs)
	f.Span = p.spanFrom(f.Span)

	return f
}

func (p *Parser) namespace(attrs []Attr) []string {
	for _, a := range attrs {
		if !a.IsBridge() {
			continue
		}

		arg, ok := a.Arg("namespace")
		if !ok {
			continue
		}

		if arg.Value == "" {
			return nil
		}

		parts := strings.Split(arg.Value, "::")
		for _, part := range parts {
			if !isIdent(part) {
				p.errorf(arg.Span, "invalid_namespace", "invalid namespace %q", arg.Value)
				return nil
			}
		}

		return parts
	}

	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}

	return true
}

func (p *Parser) parseAttrs() []Attr {
	var attrs []Attr

	for p.at(Hash) {
		if a, ok := p.parseAttr(); ok {
			attrs = append(attrs, a)
		}
	}

	return attrs
}

func (p *Parser) parseAttr() (Attr, bool) {
	start := p.next().Span

	if _, ok := p.expect(LBracket, "to open the attribute"); !ok {
		p.skipPast(RBracket)
		return Attr{}, false
	}

	path, ok := p.parsePath()
	if !ok {
		p.skipPast(RBracket)
		return Attr{}, false
	}

	attr := Attr{Path: path}

	if p.accept(LParen) {
		for !p.at(RParen) && !p.at(EOF) {
			arg, ok := p.parseAttrArg()
			if !ok {
				p.skipPast(RBracket)
				return Attr{}, false
			}

			attr.Args = append(attr.Args, arg)

			if !p.accept(Comma) {
				break
			}
		}

		if _, ok := p.expect(RParen, "to close the attribute arguments"); !ok {
			p.skipPast(RBracket)
			return Attr{}, false
		}
	} else if p.accept(Eq) {
		tok := p.next()
		attr.Args = append(attr.Args, AttrArg{Value: tok.Value, Span: tok.Span})
	}

	if _, ok := p.expect(RBracket, "to close the attribute"); !ok {
		p.skipPast(RBracket)
		return Attr{}, false
	}

	attr.Span = p.spanFrom(start)

	return attr, true
}

func (p *Parser) parseAttrArg() (AttrArg, bool) {
	start := p.peek().Span

	key, ok := p.parsePath()
	if !ok {
		return AttrArg{}, false
	}

	arg := AttrArg{Key: key}

	if p.accept(Eq) {
		switch tok := p.peek(); tok.Type {
		case String, Int:
			p.next()
			arg.Value = tok.Value
		case Identifier:
			arg.Value, ok = p.parsePath()
			if !ok {
				return AttrArg{}, false
			}
		default:
			p.errorf(tok.Span, "invalid_attribute", "expected an attribute value, found %s", tok.Describe())
			return AttrArg{}, false
		}
	}

	arg.Span = p.spanFrom(start)

	return arg, true
}

func (p *Parser) parsePath() (string, bool) {
	first, ok := p.expectIdent("a path")
	if !ok {
		return "", false
	}

	parts := []string{first.Name}
	for p.accept(PathSep) {
		seg, ok := p.expectIdent("a path segment")
		if !ok {
			return "", false
		}

		parts = append(parts, seg.Name)
	}

	return strings.Join(parts, "::"), true
}

func (p *Parser) skipPast(typ TokenType) {
	for !p.at(EOF) {
		if p.next().Type == typ {
			return
		}
	}
}

// parseItems parses items up to a closing '}' or end of input. The first
// item receives the pending attributes.
func (p *Parser) parseItems(pending []Attr) []Item {
	var items []Item

	for !p.at(RBrace) && !p.at(EOF) {
		before := p.pos

		item, ok := p.parseItem(pending)
		pending = nil

		if ok {
			items = append(items, item)
		} else {
			p.sync()
		}

		if p.pos == before {
			p.next()
		}
	}

	return items
}

func (p *Parser) parseItem(pending []Attr) (Item, bool) {
	first := p.peek()
	doc := first.Doc

	before := p.pos

	attrs := append(pending, p.parseAttrs()...)
	if p.pos != before {
		doc = append(doc, p.peek().Doc...)
	}

	p.acceptKw("pub")

	tok := p.peek()
	start := first.Span

	switch {
	case tok.Is("struct"):
		return p.parseStruct(doc, attrs, start)
	case tok.Is("enum"):
		return p.parseEnum(doc, attrs, start)
	case tok.Is("extern"), tok.Is("unsafe") && p.peekAt(1).Is("extern"):
		return p.parseExtern(start)
	case tok.Is("use"):
		p.errorf(tok.Span, "use_not_allowed", "use items are not allowed in a bridge")
	case tok.Is("fn"), tok.Is("type"):
		p.errorf(tok.Span, "outside_extern", "`%s` items must be declared inside an extern block", tok.Value)
	default:
		p.errorf(tok.Span, "unexpected_token", "expected struct, enum or extern block, found %s", tok.Describe())
	}

	return nil, false
}

func (p *Parser) parseStruct(doc []string, attrs []Attr, start diagnostic.Span) (Item, bool) {
	p.next()

	name, ok := p.expectIdent("struct name")
	if !ok {
		return nil, false
	}

	s := &Struct{Doc: doc, Attrs: attrs, Name: name}

	if p.at(LParen) || p.at(Semi) {
		p.errorf(p.peek().Span, "unsupported_struct", "struct %s must have named fields", name.Name)
		return nil, false
	}

	if _, ok := p.expect(LBrace, "after struct name"); !ok {
		return nil, false
	}

	for !p.at(RBrace) && !p.at(EOF) {
		before := p.pos

		if field, ok := p.parseField(); ok {
			s.Fields = append(s.Fields, field)
		} else {
			p.skipToListEnd()
		}

		if !p.accept(Comma) && !p.at(RBrace) && p.pos != before {
			p.errorf(p.peek().Span, "unexpected_token", "expected ',' or '}' after field, found %s", p.peek().Describe())
			p.skipToListEnd()
			p.accept(Comma)
		}

		if p.pos == before {
			p.next()
		}
	}

	if _, ok := p.expect(RBrace, "to close the struct"); !ok {
		return nil, false
	}

	s.Span = p.spanFrom(start)

	return s, true
}

func (p *Parser) parseField() (Field, bool) {
	start := p.peek().Span
	doc := p.peek().Doc

	p.acceptKw("pub")

	name, ok := p.expectIdent("field name")
	if !ok {
		return Field{}, false
	}

	if _, ok := p.expect(Colon, "after field name"); !ok {
		return Field{}, false
	}

	ty, ok := p.parseType()
	if !ok {
		return Field{}, false
	}

	return Field{Doc: doc, Name: name, Type: ty, Span: p.spanFrom(start)}, true
}

// skipToListEnd skips to the next ',' or '}' at the current nesting level
// without consuming it.
func (p *Parser) skipToListEnd() {
	depth := 0

	for !p.at(EOF) {
		switch p.peek().Type {
		case LBrace, LParen, LBracket:
			depth++
		case RParen, RBracket:
			depth--
		case RBrace:
			if depth == 0 {
				return
			}

			depth--
		case Comma:
			if depth == 0 {
				return
			}
		default:
		}

		p.next()
	}
}

func (p *Parser) parseEnum(doc []string, attrs []Attr, start diagnostic.Span) (Item, bool) {
	p.next()

	name, ok := p.expectIdent("enum name")
	if !ok {
		return nil, false
	}

	e := &Enum{Doc: doc, Attrs: attrs, Name: name}

	if _, ok := p.expect(LBrace, "after enum name"); !ok {
		return nil, false
	}

	for !p.at(RBrace) && !p.at(EOF) {
		before := p.pos

		if v, ok := p.parseVariant(); ok {
			e.Variants = append(e.Variants, v)
		} else {
			p.skipToListEnd()
		}

		if !p.accept(Comma) && !p.at(RBrace) && p.pos != before {
			p.errorf(p.peek().Span, "unexpected_token", "expected ',' or '}' after variant, found %s", p.peek().Describe())
			p.skipToListEnd()
			p.accept(Comma)
		}

		if p.pos == before {
			p.next()
		}
	}

	if _, ok := p.expect(RBrace, "to close the enum"); !ok {
		return nil, false
	}

	e.Span = p.spanFrom(start)

	return e, true
}

func (p *Parser) parseVariant() (Variant, bool) {
	start := p.peek().Span
	doc := p.peek().Doc

	name, ok := p.expectIdent("variant name")
	if !ok {
		return Variant{}, false
	}

	v := Variant{Doc: doc, Name: name}

	if p.at(LParen) || p.at(LBrace) {
		p.errorf(p.peek().Span, "unsupported_variant", "enum variant %s cannot carry data", name.Name)
		return Variant{}, false
	}

	if p.accept(Eq) {
		if p.at(Minus) {
			p.errorf(p.peek().Span, "negative_discriminant", "enum discriminants must be non-negative")
			return Variant{}, false
		}

		tok, ok := p.expect(Int, "as discriminant")
		if !ok {
			return Variant{}, false
		}

		value, err := strconv.ParseUint(strings.ReplaceAll(tok.Value, "_", ""), 0, 64)
		if err != nil {
			p.errorf(tok.Span, "invalid_integer", "invalid discriminant %s", tok.Value)
			return Variant{}, false
		}

		v.Value = &IntLit{Value: value, Span: tok.Span}
	}

	v.Span = p.spanFrom(start)

	return v, true
}

func (p *Parser) parseExtern(start diagnostic.Span) (Item, bool) {
	b := &ExternBlock{Unsafe: p.acceptKw("unsafe")}
	p.next()

	abi, ok := p.expect(String, "naming the extern ABI (\"C++\" or \"Rust\")")
	if !ok {
		return nil, false
	}

	b.ABI = abi.Value
	b.ABISpan = abi.Span

	if _, ok := p.expect(LBrace, "to open the extern block"); !ok {
		return nil, false
	}

	for !p.at(RBrace) && !p.at(EOF) {
		before := p.pos

		if item, ok := p.parseForeign(); ok {
			b.Items = append(b.Items, item)
		} else {
			p.sync()
		}

		if p.pos == before {
			p.next()
		}
	}

	if _, ok := p.expect(RBrace, "to close the extern block"); !ok {
		return nil, false
	}

	b.Span = p.spanFrom(start)

	return b, true
}

func (p *Parser) parseForeign() (ForeignItem, bool) {
	first := p.peek()
	doc := first.Doc

	attrs := p.parseAttrs()
	if len(attrs) > 0 {
		doc = append(doc, p.peek().Doc...)
	}

	p.acceptKw("pub")
	p.acceptKw("unsafe")

	tok := p.peek()

	switch {
	case tok.Is("type"):
		return p.parseTypeDecl(doc, first.Span)
	case tok.Is("fn"):
		return p.parseFn(doc, attrs, first.Span)
	case tok.Is("include"):
		return p.parseInclude(first.Span)
	default:
		p.errorf(tok.Span, "unexpected_token", "expected `type`, `fn` or `include!` in extern block, found %s", tok.Describe())
		return nil, false
	}
}

func (p *Parser) parseTypeDecl(doc []string, start diagnostic.Span) (ForeignItem, bool) {
	p.next()

	name, ok := p.expectIdent("type name")
	if !ok {
		return nil, false
	}

	if p.at(Eq) {
		p.errorf(p.peek().Span, "unsupported_alias", "type aliases are not supported; declare `type %s;`", name.Name)
		return nil, false
	}

	if _, ok := p.expect(Semi, "after type declaration"); !ok {
		return nil, false
	}

	return &TypeDecl{Doc: doc, Name: name, Span: p.spanFrom(start)}, true
}

func (p *Parser) parseInclude(start diagnostic.Span) (ForeignItem, bool) {
	p.next()

	if _, ok := p.expect(Bang, "after include"); !ok {
		return nil, false
	}

	if _, ok := p.expect(LParen, "after include!"); !ok {
		return nil, false
	}

	tok, ok := p.expect(String, "as include path")
	if !ok {
		return nil, false
	}

	path, err := strconv.Unquote(`"` + tok.Value + `"`)
	if err != nil {
		p.errorf(tok.Span, "invalid_string", "invalid escape in include path")
		return nil, false
	}

	if _, ok := p.expect(RParen, "to close include!"); !ok {
		return nil, false
	}

	if _, ok := p.expect(Semi, "after include!"); !ok {
		return nil, false
	}

	return &Include{Path: path, Span: p.spanFrom(start)}, true
}

func (p *Parser) parseFn(doc []string, attrs []Attr, start diagnostic.Span) (ForeignItem, bool) {
	p.next()

	name, ok := p.expectIdent("function name")
	if !ok {
		return nil, false
	}

	fn := &FnDecl{Doc: doc, Attrs: attrs, Name: name}

	if _, ok := p.expect(LParen, "to open the parameter list"); !ok {
		return nil, false
	}

	params, ok := p.parseParams(true)
	if !ok {
		return nil, false
	}

	fn.Params = params

	if p.accept(Arrow) {
		ret, ok := p.parseType()
		if !ok {
			return nil, false
		}

		if named, isNamed := ret.(*NamedType); isNamed && named.Name.Name == "Result" {
			if named.Arg == nil {
				p.errorf(named.Span, "missing_type_argument", "Result needs a type argument, e.g. Result<()>")
				return nil, false
			}

			fn.Fallible = true
			fn.ResultSpan = named.Span
			ret = named.Arg
		}

		fn.Ret = ret
	}

	if p.at(LBrace) {
		p.errorf(p.peek().Span, "unexpected_body", "functions in an extern block cannot have a body")
		return nil, false
	}

	if _, ok := p.expect(Semi, "after function signature"); !ok {
		return nil, false
	}

	fn.Span = p.spanFrom(start)

	return fn, true
}

// parseParams parses a parameter list after '(' through ')'. Names are
// required for function declarations and optional for fn types.
func (p *Parser) parseParams(named bool) ([]Param, bool) {
	var params []Param

	for !p.at(RParen) && !p.at(EOF) {
		start := p.peek().Span

		if p.peek().Is("self") || (p.at(Amp) && (p.peekAt(1).Is("self") || p.peekAt(2).Is("self"))) {
			p.errorf(start, "unsupported_receiver", "methods with a self receiver are not supported")
			return nil, false
		}

		var param Param

		switch {
		case p.at(Identifier) && p.peekAt(1).Type == Colon:
			param.Name, _ = p.expectIdent("parameter name")
			p.next()
		case named:
			p.errorf(start, "missing_parameter_name", "parameters must be written `name: Type`")
			return nil, false
		}

		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}

		param.Type = ty
		param.Span = p.spanFrom(start)
		params = append(params, param)

		if !p.accept(Comma) {
			break
		}
	}

	if _, ok := p.expect(RParen, "to close the parameter list"); !ok {
		return nil, false
	}

	return params, true
}

func (p *Parser) parseType() (Type, bool) {
	tok := p.peek()
	start := tok.Span

	switch tok.Type {
	case Amp:
		p.next()
		mut := p.acceptKw("mut")

		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}

		return &RefType{Mut: mut, Elem: elem, Span: p.spanFrom(start)}, true
	case LBracket:
		p.next()

		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}

		if p.at(Semi) {
			p.errorf(p.peek().Span, "unsupported_type", "fixed-size arrays are not supported")
			return nil, false
		}

		if _, ok := p.expect(RBracket, "to close the slice type"); !ok {
			return nil, false
		}

		return &SliceType{Elem: elem, Span: p.spanFrom(start)}, true
	case LParen:
		p.next()
		if p.accept(RParen) {
			return &UnitType{Span: p.spanFrom(start)}, true
		}

		p.errorf(start, "unsupported_type", "tuple types are not supported")

		return nil, false
	case Star:
		p.errorf(start, "unsupported_type", "raw pointers are not supported; use a reference or an owned handle")
		return nil, false
	case Identifier:
		switch tok.Value {
		case "fn":
			return p.parseFnType()
		case "dyn", "impl":
			p.errorf(start, "unsupported_type", "trait objects are not supported")
			return nil, false
		}

		p.next()

		t := &NamedType{Name: Ident{Name: tok.Value, Span: tok.Span}}

		if p.at(PathSep) {
			p.errorf(p.peek().Span, "unsupported_type", "qualified type paths are not supported")
			return nil, false
		}

		if p.accept(Lt) {
			arg, ok := p.parseType()
			if !ok {
				return nil, false
			}

			if p.at(Comma) {
				p.errorf(p.peek().Span, "unsupported_type", "%s takes a single type argument", tok.Value)
				return nil, false
			}

			if _, ok := p.expect(Gt, "to close the type arguments"); !ok {
				return nil, false
			}

			t.Arg = arg
		}

		t.Span = p.spanFrom(start)

		return t, true
	default:
		p.errorf(start, "expected_type", "expected a type, found %s", tok.Describe())
		return nil, false
	}
}

func (p *Parser) parseFnType() (Type, bool) {
	start := p.next().Span

	if _, ok := p.expect(LParen, "after fn"); !ok {
		return nil, false
	}

	params, ok := p.parseParams(false)
	if !ok {
		return nil, false
	}

	ft := &FnType{Params: params}

	if p.accept(Arrow) {
		ret, ok := p.parseType()
		if !ok {
			return nil, false
		}

		ft.Ret = ret
	}

	ft.Span = p.spanFrom(start)

	return ft, true
}
