// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jscore-lang/jscore/token"
)

// Token is one lexical token: a kind plus its decoded literal payload (if
// any) and source span.
type Token struct {
	Kind token.Token
	Lit  string  // decoded string/identifier text, or the raw text of a number
	Num  float64 // decoded value, valid when Kind == token.Float
	Span token.Span
}

func (t Token) String() string {
	if t.Kind.IsLiteral() {
		return t.Lit
	}
	return t.Kind.String()
}

// Lexer turns UTF-8 source text into a Token stream. It is grounded on
// original_source's hand-written recursive-descent scanner, adapted to
// track byte offsets into a token.SourceFile the way go/scanner does.
type Lexer struct {
	file *token.SourceFile
	src  string

	offset   int // current byte offset
	rdOffset int // reading offset (offset of ch)
	ch       rune

	diags token.Diagnostics
}

// NewLexer creates a Lexer over src, whose byte offsets are registered
// against file. file.Size must equal len(src).
func NewLexer(file *token.SourceFile, src string) *Lexer {
	l := &Lexer{file: file, src: src}
	l.rdOffset = 0
	l.next()
	return l
}

const eof = -1

func (l *Lexer) next() {
	if l.rdOffset < len(l.src) {
		l.offset = l.rdOffset
		if l.ch == '\n' {
			l.file.AddLine(l.offset)
		}
		r, w := rune(l.src[l.rdOffset]), 1
		switch {
		case r == 0:
			l.errorf(l.offset, l.offset+1, "illegal NUL byte")
		case r >= utf8.RuneSelf:
			r, w = utf8.DecodeRuneInString(l.src[l.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				l.errorf(l.offset, l.offset+1, "invalid UTF-8 encoding")
			}
		}
		l.rdOffset += w
		l.ch = r
	} else {
		l.offset = len(l.src)
		if l.ch == '\n' {
			l.file.AddLine(l.offset)
		}
		l.ch = eof
	}
}

func (l *Lexer) peekByte() byte {
	if l.rdOffset < len(l.src) {
		return l.src[l.rdOffset]
	}
	return 0
}

func (l *Lexer) errorf(begin, end int, format string, args ...interface{}) {
	l.diags.Add(token.Lexical, l.file, token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(end)}, format, args...)
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == ' ' || r == ' '
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Tokenize scans the whole source and returns every token including a
// trailing token.EOF, plus any diagnostics. Scanning stops at the first
// lexical error; tokens recognized up to that point are still returned.
func (l *Lexer) Tokenize() ([]Token, token.Diagnostics) {
	var toks []Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF || len(l.diags) > 0 {
			break
		}
	}
	return toks, l.diags
}

// Scan returns the next token in the stream.
func (l *Lexer) Scan() Token {
	l.skipWhitespaceAndComments()

	begin := l.offset
	span := func() token.Span {
		return token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}
	}

	if l.ch == eof {
		return Token{Kind: token.EOF, Span: span()}
	}

	ch := l.ch
	switch {
	case isDigit(ch):
		return l.scanNumber(begin)
	case ch == '"' || ch == '\'':
		return l.scanString(begin, byte(ch))
	case isIdentStart(ch):
		return l.scanIdentifier(begin)
	}

	l.next()
	mk := func(k token.Token) Token { return Token{Kind: k, Span: span()} }

	switch ch {
	case '(':
		return mk(token.LParen)
	case ')':
		return mk(token.RParen)
	case '{':
		return mk(token.LBrace)
	case '}':
		return mk(token.RBrace)
	case '[':
		return mk(token.LBrack)
	case ']':
		return mk(token.RBrack)
	case ',':
		return mk(token.Comma)
	case ';':
		return mk(token.Semicolon)
	case ':':
		return mk(token.Colon)
	case '~':
		return mk(token.BitNot)
	case '.':
		if l.ch == '.' && l.peekByte() == '.' {
			l.next()
			l.next()
			return mk(token.Ellipsis)
		}
		return mk(token.Period)
	case '?':
		if l.ch == '.' {
			l.next()
			return mk(token.QuestionD)
		}
		if l.ch == '?' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.NullAssign)
			}
			return mk(token.Nullish)
		}
		return mk(token.Question)
	case '+':
		if l.ch == '+' {
			l.next()
			return mk(token.Inc)
		}
		if l.ch == '=' {
			l.next()
			return mk(token.AddAssign)
		}
		return mk(token.Add)
	case '-':
		if l.ch == '-' {
			l.next()
			return mk(token.Dec)
		}
		if l.ch == '=' {
			l.next()
			return mk(token.SubAssign)
		}
		return mk(token.Sub)
	case '*':
		if l.ch == '*' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.PowAssign)
			}
			return mk(token.Pow)
		}
		if l.ch == '=' {
			l.next()
			return mk(token.MulAssign)
		}
		return mk(token.Mul)
	case '/':
		if l.ch == '=' {
			l.next()
			return mk(token.QuoAssign)
		}
		return mk(token.Quo)
	case '%':
		if l.ch == '=' {
			l.next()
			return mk(token.RemAssign)
		}
		return mk(token.Rem)
	case '=':
		if l.ch == '=' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.StrictEQ)
			}
			return mk(token.Equal)
		}
		if l.ch == '>' {
			l.next()
			return mk(token.Arrow)
		}
		return mk(token.Assign)
	case '!':
		if l.ch == '=' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.StrictNEQ)
			}
			return mk(token.NotEqual)
		}
		return mk(token.Not)
	case '<':
		if l.ch == '=' {
			l.next()
			return mk(token.LessEq)
		}
		if l.ch == '<' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.ShlAssign)
			}
			return mk(token.Shl)
		}
		return mk(token.Less)
	case '>':
		if l.ch == '=' {
			l.next()
			return mk(token.GreaterEq)
		}
		if l.ch == '>' {
			l.next()
			if l.ch == '>' {
				l.next()
				if l.ch == '=' {
					l.next()
					return mk(token.UShrAssign)
				}
				return mk(token.UShr)
			}
			if l.ch == '=' {
				l.next()
				return mk(token.ShrAssign)
			}
			return mk(token.Shr)
		}
		return mk(token.Greater)
	case '&':
		if l.ch == '&' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.LAndAssign)
			}
			return mk(token.LAnd)
		}
		if l.ch == '=' {
			l.next()
			return mk(token.AndAssign)
		}
		return mk(token.And)
	case '|':
		if l.ch == '|' {
			l.next()
			if l.ch == '=' {
				l.next()
				return mk(token.LOrAssign)
			}
			return mk(token.LOr)
		}
		if l.ch == '=' {
			l.next()
			return mk(token.OrAssign)
		}
		return mk(token.Or)
	case '^':
		if l.ch == '=' {
			l.next()
			return mk(token.XorAssign)
		}
		return mk(token.Xor)
	}

	l.errorf(begin, l.offset, "unexpected character: %q", ch)
	return mk(token.Illegal)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch != eof && (unicode.IsSpace(l.ch) || isLineTerminator(l.ch)) {
			l.next()
		}
		if l.ch == '/' && l.peekByte() == '/' {
			for l.ch != eof && !isLineTerminator(l.ch) {
				l.next()
			}
			continue
		}
		if l.ch == '/' && l.peekByte() == '*' {
			begin := l.offset
			l.next()
			l.next()
			closed := false
			for l.ch != eof {
				if l.ch == '*' && l.peekByte() == '/' {
					l.next()
					l.next()
					closed = true
					break
				}
				l.next()
			}
			if !closed {
				l.errorf(begin, l.offset, "unterminated block comment")
				return
			}
			continue
		}
		return
	}
}

func (l *Lexer) scanNumber(begin int) Token {
	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' && isDigit(rune(l.peekByte())) {
		l.next()
		for isDigit(l.ch) {
			l.next()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.next()
		if l.ch == '+' || l.ch == '-' {
			l.next()
		}
		if !isDigit(l.ch) {
			l.errorf(begin, l.offset+1, "invalid number: expected digits after exponent")
			return Token{Kind: token.Illegal, Span: token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}}
		}
		for isDigit(l.ch) {
			l.next()
		}
	}
	raw := l.src[begin:l.offset]
	v, err := strconv.ParseFloat(raw, 64)
	span := token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}
	if err != nil {
		l.errorf(begin, l.offset, "invalid number: %s", raw)
		return Token{Kind: token.Illegal, Span: span}
	}
	return Token{Kind: token.Float, Lit: raw, Num: v, Span: span}
}

func (l *Lexer) scanIdentifier(begin int) Token {
	for isIdentContinue(l.ch) {
		l.next()
	}
	text := l.src[begin:l.offset]
	span := token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}
	kind := token.Lookup(text)
	return Token{Kind: kind, Lit: text, Span: span}
}

func (l *Lexer) scanString(begin int, quote byte) Token {
	l.next() // consume opening quote
	var sb strings.Builder
	for {
		if l.ch == eof || isLineTerminator(l.ch) {
			l.errorf(begin, l.offset, "unterminated string literal")
			return Token{Kind: token.Illegal, Span: token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}}
		}
		if byte(l.ch) == quote && l.ch < utf8.RuneSelf {
			l.next()
			break
		}
		if l.ch == '\\' {
			l.next()
			r, ok := l.scanEscape(begin)
			if !ok {
				return Token{Kind: token.Illegal, Span: token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}}
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.ch)
		l.next()
	}
	span := token.Span{Begin: l.file.Pos(begin), End: l.file.Pos(l.offset)}
	return Token{Kind: token.String, Lit: sb.String(), Span: span}
}

func (l *Lexer) scanEscape(strBegin int) (rune, bool) {
	if l.ch == eof {
		l.errorf(strBegin, l.offset, "unterminated string: unexpected end of input after escape")
		return 0, false
	}
	c := l.ch
	l.next()
	switch c {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'v':
		return '\v', true
	case '0':
		return 0, true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	case 'x':
		return l.scanHexEscape(2)
	case 'u':
		if l.ch == '{' {
			l.next()
			begin := l.offset
			for l.ch != '}' && l.ch != eof && isHexDigit(l.ch) {
				l.next()
			}
			hex := l.src[begin:l.offset]
			if l.ch != '}' || hex == "" {
				l.errorf(begin, l.offset, "invalid unicode escape sequence")
				return 0, false
			}
			l.next() // consume '}'
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				l.errorf(begin, l.offset, "invalid unicode code point")
				return 0, false
			}
			return rune(v), true
		}
		return l.scanHexEscape(4)
	default:
		return c, true
	}
}

func (l *Lexer) scanHexEscape(n int) (rune, bool) {
	begin := l.offset
	for i := 0; i < n; i++ {
		if l.ch == eof || !isHexDigit(l.ch) {
			l.errorf(begin, l.offset+1, "invalid hex escape sequence: expected %d hex digits", n)
			return 0, false
		}
		l.next()
	}
	v, err := strconv.ParseUint(l.src[begin:l.offset], 16, 32)
	if err != nil {
		l.errorf(begin, l.offset, "invalid hex escape sequence")
		return 0, false
	}
	return rune(v), true
}
