package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/token"
)

func tokenize(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	diags := diag.New()
	toks := New([]byte(src), diags).Tokenize()
	return toks, diags
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	toks, diags := tokenize(t, "var x int func")
	require.Empty(t, diags.Errors)
	assert.Equal(t, []token.Kind{token.VAR, token.IDENTIFIER, token.INT, token.FUNC, token.EOF}, kinds(toks))
}

func TestTokenizeLongestMatchOperators(t *testing.T) {
	toks, diags := tokenize(t, "== = != ! <= < >= >")
	require.Empty(t, diags.Errors)
	assert.Equal(t, []token.Kind{
		token.EQ, token.ASSIGN, token.NEQ, token.NOT,
		token.LE, token.LT, token.GE, token.GT, token.EOF,
	}, kinds(toks))
}

func TestTokenizeNumberKinds(t *testing.T) {
	toks, diags := tokenize(t, "42 3.14")
	require.Empty(t, diags.Errors)
	require.Len(t, toks, 3)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, token.FLOATNUM, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Text)
}

// Multi-dot numeric lexemes lex as a single FLOATNUM without a lexical
// error (spec.md §9, open question 1) — the ambiguity is left for the
// evaluator's string-to-float conversion to fail silently on.
func TestTokenizeMultiDotNumberIsOneFloatToken(t *testing.T) {
	toks, diags := tokenize(t, "1.2.3")
	require.Empty(t, diags.Errors)
	require.Len(t, toks, 2)
	assert.Equal(t, token.FLOATNUM, toks[0].Kind)
	assert.Equal(t, "1.2.3", toks[0].Text)
}

func TestTokenizeLineComment(t *testing.T) {
	toks, diags := tokenize(t, "var x // this is ignored\n: int")
	require.Empty(t, diags.Errors)
	assert.Equal(t, []token.Kind{token.VAR, token.IDENTIFIER, token.COLON, token.INT, token.EOF}, kinds(toks))
	assert.Equal(t, 2, toks[2].Position.Line)
}

func TestTokenizeIllegalCharacterRecordsErrorAndContinues(t *testing.T) {
	toks, diags := tokenize(t, "var x $ int")
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Illegal character '$'")
	assert.Equal(t, []token.Kind{token.VAR, token.IDENTIFIER, token.ILLEGAL, token.INT, token.EOF}, kinds(toks))
}

func TestTokenizeMaxTokensStopsEarlyWithError(t *testing.T) {
	diags := diag.New()
	toks := New([]byte("var a var b var c"), diags, 2).Tokenize()
	require.Len(t, diags.Errors, 1)
	assert.Contains(t, diags.Errors[0], "Token limit of 2 exceeded")
	assert.Equal(t, []token.Kind{token.VAR, token.IDENTIFIER, token.EOF}, kinds(toks))
}

func TestStripBOM(t *testing.T) {
	withBOM := append([]byte("\xef\xbb\xbf"), []byte("var")...)
	assert.Equal(t, []byte("var"), StripBOM(withBOM))
	assert.Equal(t, []byte("var"), StripBOM([]byte("var")))
}
