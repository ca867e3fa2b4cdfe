// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jscore-lang/jscore/token"
)

func scanAll(t *testing.T, src string) ([]Token, token.Diagnostics) {
	t.Helper()
	file := token.NewFileSet().AddFile("(test)", len(src))
	return NewLexer(file, src).Tokenize()
}

func kinds(toks []Token) []token.Token {
	ks := make([]token.Token, len(toks))
	for i, tk := range toks {
		ks[i] = tk.Kind
	}
	return ks
}

func TestLexerPunctuators(t *testing.T) {
	toks, diags := scanAll(t, `( ) { } [ ] , ; : ... . ?. ?? ??= ?`)
	require.Empty(t, diags)
	require.Equal(t, []token.Token{
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.LBrack, token.RBrack, token.Comma, token.Semicolon,
		token.Colon, token.Ellipsis, token.Period, token.QuestionD,
		token.Nullish, token.NullAssign, token.Question, token.EOF,
	}, kinds(toks))
}

func TestLexerOperators(t *testing.T) {
	toks, diags := scanAll(t, `+ - * / % ** ++ -- == != === !== < > <= >= && || !`)
	require.Empty(t, diags)
	require.Equal(t, []token.Token{
		token.Add, token.Sub, token.Mul, token.Quo, token.Rem, token.Pow,
		token.Inc, token.Dec, token.Equal, token.NotEqual, token.StrictEQ,
		token.StrictNEQ, token.Less, token.Greater, token.LessEq,
		token.GreaterEq, token.LAnd, token.LOr, token.Not, token.EOF,
	}, kinds(toks))
}

func TestLexerBitwiseAndCompoundAssign(t *testing.T) {
	toks, diags := scanAll(t, `& | ^ ~ << >> >>> += -= *= /= %= **= &&= ||=`)
	require.Empty(t, diags)
	require.Equal(t, []token.Token{
		token.And, token.Or, token.Xor, token.BitNot, token.Shl, token.Shr,
		token.UShr, token.AddAssign, token.SubAssign, token.MulAssign,
		token.QuoAssign, token.RemAssign, token.PowAssign, token.LAndAssign,
		token.LOrAssign, token.EOF,
	}, kinds(toks))
}

func TestLexerKeywords(t *testing.T) {
	toks, diags := scanAll(t, `function let var const this typeof void delete while for if else return break continue null undefined true false`)
	require.Empty(t, diags)
	want := []token.Token{
		token.Function, token.Let, token.Var, token.Const, token.This,
		token.Typeof, token.Void, token.Delete, token.While, token.For,
		token.If, token.Else, token.Return, token.Break, token.Continue,
		token.Null, token.Undefined, token.True, token.False, token.EOF,
	}
	require.Equal(t, want, kinds(toks))
}

func TestLexerIdentifiers(t *testing.T) {
	toks, diags := scanAll(t, `foo _bar $baz qux123`)
	require.Empty(t, diags)
	require.Len(t, toks, 5)
	for i, want := range []string{"foo", "_bar", "$baz", "qux123"} {
		require.Equal(t, token.Ident, toks[i].Kind)
		require.Equal(t, want, toks[i].Lit)
	}
}

func TestLexerNumbers(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"3.14", 3.14},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
		{"2E+2", 200},
	}
	for _, c := range cases {
		toks, diags := scanAll(t, c.src)
		require.Empty(t, diags, c.src)
		require.Equal(t, token.Float, toks[0].Kind, c.src)
		require.Equal(t, c.want, toks[0].Num, c.src)
	}
}

func TestLexerNumberMissingExponentDigitsIsError(t *testing.T) {
	_, diags := scanAll(t, `1e`)
	require.NotEmpty(t, diags)
}

func TestLexerStringEscapes(t *testing.T) {
	toks, diags := scanAll(t, `"hello\nworld\t\"quoted\""`)
	require.Empty(t, diags)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, "hello\nworld\t\"quoted\"", toks[0].Lit)
}

func TestLexerStringSingleQuote(t *testing.T) {
	toks, diags := scanAll(t, `'it''s'`)
	// Two adjacent single-quoted strings: 'it' then 's'.
	require.Empty(t, diags)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, "it", toks[0].Lit)
	require.Equal(t, token.String, toks[1].Kind)
	require.Equal(t, "s", toks[1].Lit)
}

func TestLexerStringUnicodeEscape(t *testing.T) {
	toks, diags := scanAll(t, `"A\u{1F600}"`)
	require.Empty(t, diags)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, "A\U0001F600", toks[0].Lit)
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	_, diags := scanAll(t, `"unterminated`)
	require.NotEmpty(t, diags)
}

func TestLexerLineComment(t *testing.T) {
	toks, diags := scanAll(t, "1 // trailing comment\n+ 2")
	require.Empty(t, diags)
	require.Equal(t, []token.Token{token.Float, token.Add, token.Float, token.EOF}, kinds(toks))
}

func TestLexerBlockComment(t *testing.T) {
	toks, diags := scanAll(t, "1 /* a\nmulti\nline comment */ + 2")
	require.Empty(t, diags)
	require.Equal(t, []token.Token{token.Float, token.Add, token.Float, token.EOF}, kinds(toks))
}

func TestLexerUnterminatedBlockCommentIsError(t *testing.T) {
	_, diags := scanAll(t, "1 /* never closed")
	require.NotEmpty(t, diags)
}

func TestLexerUnexpectedCharacterIsError(t *testing.T) {
	_, diags := scanAll(t, "@")
	require.NotEmpty(t, diags)
}

func TestLexerArrowToken(t *testing.T) {
	toks, diags := scanAll(t, `=>`)
	require.Empty(t, diags)
	require.Equal(t, token.Arrow, toks[0].Kind)
}
