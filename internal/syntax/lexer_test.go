package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/diagnostic"
)

func TestTokenize(t *testing.T) {
	var diags diagnostic.Diagnostics

	toks := Tokenize("ffi.rs", "fn f(x: &mut [u8]) -> Result<()>;", diagnostic.Position{}, &diags)
	require.True(t, diags.IsValid())

	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}

	assert.Equal(t, []TokenType{
		Identifier, Identifier, LParen, Identifier, Colon, Amp, Identifier, LBracket, Identifier, RBracket, RParen,
		Arrow, Identifier, Lt, LParen, RParen, Gt, Semi, EOF,
	}, types)
}

func TestTokenize_Spans(t *testing.T) {
	var diags diagnostic.Diagnostics

	toks := Tokenize("ffi.rs", "struct\n  Shared", diagnostic.Position{}, &diags)
	require.Len(t, toks, 3)

	assert.Equal(t, diagnostic.Position{Offset: 0, Line: 1, Column: 1}, toks[0].Span.Start)
	assert.Equal(t, diagnostic.Position{Offset: 6, Line: 1, Column: 7}, toks[0].Span.End)
	assert.Equal(t, diagnostic.Position{Offset: 9, Line: 2, Column: 3}, toks[1].Span.Start)
	assert.Equal(t, diagnostic.Position{Offset: 15, Line: 2, Column: 9}, toks[1].Span.End)
}

func TestTokenize_BaseOffset(t *testing.T) {
	var diags diagnostic.Diagnostics

	base := diagnostic.Position{Offset: 100, Line: 10, Column: 5}
	toks := Tokenize("lib.rs", "mod ffi\n{}", base, &diags)

	assert.Equal(t, diagnostic.Position{Offset: 100, Line: 10, Column: 5}, toks[0].Span.Start)
	assert.Equal(t, diagnostic.Position{Offset: 104, Line: 10, Column: 9}, toks[1].Span.Start)
	assert.Equal(t, diagnostic.Position{Offset: 108, Line: 11, Column: 1}, toks[2].Span.Start)
}

func TestTokenize_Comments(t *testing.T) {
	var diags diagnostic.Diagnostics

	src := "// plain\n/// Doc one\n///   indented\n//// not doc\n/* block /* nested */ */ struct"
	toks := Tokenize("ffi.rs", src, diagnostic.Position{}, &diags)

	require.True(t, diags.IsValid())
	require.Len(t, toks, 2)
	assert.True(t, toks[0].Is("struct"))
	assert.Equal(t, []string{"Doc one", "  indented"}, toks[0].Doc)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"unterminated string", `include!("a.h`, "unterminated_string"},
		{"unterminated comment", "/* open", "unterminated_comment"},
		{"illegal character", "struct $", "unexpected_character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diagnostic.Diagnostics

			toks := Tokenize("ffi.rs", tt.src, diagnostic.Position{}, &diags)
			require.Len(t, diags.Errors, 1)
			assert.Equal(t, tt.code, diags.Errors[0].Code)
			assert.Equal(t, EOF, toks[len(toks)-1].Type)
		})
	}
}

func TestToken_Describe(t *testing.T) {
	var diags diagnostic.Diagnostics

	toks := Tokenize("ffi.rs", `struct 42 "C++" ;`, diagnostic.Position{}, &diags)
	require.Len(t, toks, 5)

	assert.True(t, toks[0].Is("struct"))
	assert.False(t, toks[1].Is("42"), "only identifiers match keywords")
	assert.Equal(t, "`struct`", toks[0].Describe())
	assert.Equal(t, Int, toks[1].Type)
	assert.Equal(t, "string literal C++", toks[2].Describe())
	assert.Equal(t, "';'", toks[3].Describe())
	assert.Equal(t, "identifier", Identifier.String())
}
