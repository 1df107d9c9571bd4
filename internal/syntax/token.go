package syntax

import "bridge-generator/internal/diagnostic"

// TokenType is the lexical class of a manifest token.
type TokenType int

const (
	EOF TokenType = iota
	// Identifier covers keywords too; see Token.Is.
	Identifier
	Int
	String
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Lt
	Gt
	Comma
	Semi
	Colon
	PathSep
	Arrow
	Amp
	Star
	Hash
	Bang
	Eq
	Minus
)

// String names the class for diagnostics.
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Identifier:
		return "identifier"
	case Int:
		return "integer"
	case String:
		return "string literal"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Lt:
		return "'<'"
	case Gt:
		return "'>'"
	case Comma:
		return "','"
	case Semi:
		return "';'"
	case Colon:
		return "':'"
	case PathSep:
		return "'::'"
	case Arrow:
		return "'->'"
	case Amp:
		return "'&'"
	case Star:
		return "'*'"
	case Hash:
		return "'#'"
	case Bang:
		return "'!'"
	case Eq:
		return "'='"
	case Minus:
		return "'-'"
	}
	return "unknown"
}

// Token is one lexeme with its source span.
type Token struct {
	Value string
	Type  TokenType
	Span  diagnostic.Span
	// Doc holds the `///` comment lines immediately preceding the token.
	Doc []string
}

// Is reports whether the token is the identifier or keyword kw.
func (t Token) Is(kw string) bool {
	return t.Type == Identifier && t.Value == kw
}

// Describe renders the token for "found X" messages.
func (t Token) Describe() string {
	switch t.Type {
	case Identifier:
		return "`" + t.Value + "`"
	case Int, String:
		return t.Type.String() + " " + t.Value
	default:
		return t.Type.String()
	}
}
