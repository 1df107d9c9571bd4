package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"bridge-generator/internal/diagnostic"
)

type lexer struct {
	file  string
	src   string
	i     int
	pos   diagnostic.Position
	base  int
	diags *diagnostic.Diagnostics
	doc   []string
}

// Tokenize splits src into tokens. Positions start at base, which lets a
// manifest cut out of a larger host file keep file-relative spans. A zero
// base means the start of the file.
func Tokenize(file, src string, base diagnostic.Position, diags *diagnostic.Diagnostics) []Token {
	if !base.IsValid() {
		base = diagnostic.Position{Line: 1, Column: 1}
	}

	lx := &lexer{file: file, src: src, pos: base, base: base.Offset, diags: diags}

	var tokens []Token

	for {
		tok, ok := lx.next()
		if !ok {
			continue
		}

		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func (lx *lexer) peekRune(ahead int) rune {
	j := lx.i
	for k := 0; k < ahead; k++ {
		if j >= len(lx.src) {
			return 0
		}

		_, w := utf8.DecodeRuneInString(lx.src[j:])
		j += w
	}

	if j >= len(lx.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(lx.src[j:])

	return r
}

func (lx *lexer) advance() rune {
	r, w := utf8.DecodeRuneInString(lx.src[lx.i:])
	lx.i += w
	lx.pos.Offset = lx.base + lx.i

	if r == '\n' {
		lx.pos.Line++
		lx.pos.Column = 1
	} else {
		lx.pos.Column++
	}

	return r
}

func (lx *lexer) span(start diagnostic.Position) diagnostic.Span {
	return diagnostic.Span{File: lx.file, Start: start, End: lx.pos}
}

func (lx *lexer) errorf(start diagnostic.Position, code, format string, args ...any) {
	lx.diags.AddError(diagnostic.ClassSyntax, code, lx.span(start), format, args...)
}

// next returns the next token. ok is false when input was consumed without
// producing a token (whitespace, comments, illegal characters).
func (lx *lexer) next() (Token, bool) {
	if lx.i >= len(lx.src) {
		return Token{Type: EOF, Span: lx.span(lx.pos), Doc: lx.takeDoc()}, true
	}

	start := lx.pos
	r := lx.peekRune(0)

	switch {
	case unicode.IsSpace(r):
		lx.advance()
		return Token{}, false
	case r == '/' && lx.peekRune(1) == '/':
		lx.lineComment()
		return Token{}, false
	case r == '/' && lx.peekRune(1) == '*':
		lx.blockComment(start)
		return Token{}, false
	case r == '"':
		return lx.str(start), true
	case r == '_' || unicode.IsLetter(r):
		begin := lx.i
		for c := lx.peekRune(0); c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c); c = lx.peekRune(0) {
			lx.advance()
		}

		return lx.tok(Identifier, lx.src[begin:lx.i], start), true
	case unicode.IsDigit(r):
		begin := lx.i
		for c := lx.peekRune(0); c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c); c = lx.peekRune(0) {
			lx.advance()
		}

		return lx.tok(Int, lx.src[begin:lx.i], start), true
	}

	lx.advance()

	typ, ok := punct(r, lx)
	if !ok {
		lx.errorf(start, "unexpected_character", "unexpected character %q", r)
		return Token{}, false
	}

	return lx.tok(typ, lx.src[start.Offset-lx.base:lx.i], start), true
}

func punct(r rune, lx *lexer) (TokenType, bool) {
	switch r {
	case '{':
		return LBrace, true
	case '}':
		return RBrace, true
	case '(':
		return LParen, true
	case ')':
		return RParen, true
	case '[':
		return LBracket, true
	case ']':
		return RBracket, true
	case '<':
		return Lt, true
	case '>':
		return Gt, true
	case ',':
		return Comma, true
	case ';':
		return Semi, true
	case ':':
		if lx.peekRune(0) == ':' {
			lx.advance()
			return PathSep, true
		}

		return Colon, true
	case '-':
		if lx.peekRune(0) == '>' {
			lx.advance()
			return Arrow, true
		}

		return Minus, true
	case '&':
		return Amp, true
	case '*':
		return Star, true
	case '#':
		return Hash, true
	case '!':
		return Bang, true
	case '=':
		return Eq, true
	}

	return EOF, false
}

func (lx *lexer) tok(typ TokenType, value string, start diagnostic.Position) Token {
	return Token{Type: typ, Value: value, Span: lx.span(start), Doc: lx.takeDoc()}
}

func (lx *lexer) takeDoc() []string {
	doc := lx.doc
	lx.doc = nil

	return doc
}

func (lx *lexer) lineComment() {
	begin := lx.i
	for lx.i < len(lx.src) && lx.peekRune(0) != '\n' {
		lx.advance()
	}

	text := lx.src[begin:lx.i]
	// `///` is a doc comment, `////` is an ordinary comment.
	if strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////") {
		line := strings.TrimPrefix(text, "///")
		line = strings.TrimPrefix(line, " ")
		lx.doc = append(lx.doc, strings.TrimRight(line, "\r"))
	}
}

func (lx *lexer) blockComment(start diagnostic.Position) {
	lx.advance()
	lx.advance()

	depth := 1
	for lx.i < len(lx.src) && depth > 0 {
		switch {
		case lx.peekRune(0) == '/' && lx.peekRune(1) == '*':
			lx.advance()
			depth++
		case lx.peekRune(0) == '*' && lx.peekRune(1) == '/':
			lx.advance()
			depth--
		}

		lx.advance()
	}

	if depth > 0 {
		lx.errorf(start, "unterminated_comment", "unterminated block comment")
	}
}

func (lx *lexer) str(start diagnostic.Position) Token {
	lx.advance()

	begin := lx.i
	for lx.i < len(lx.src) && lx.peekRune(0) != '"' {
		if lx.peekRune(0) == '\\' {
			lx.advance()
			if lx.i >= len(lx.src) {
				break
			}
		}

		lx.advance()
	}

	if lx.i >= len(lx.src) {
		lx.errorf(start, "unterminated_string", "unterminated string literal")
		return lx.tok(String, lx.src[begin:lx.i], start)
	}

	value := lx.src[begin:lx.i]
	lx.advance()

	return lx.tok(String, value, start)
}
