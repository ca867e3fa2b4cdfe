// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package parser

import (
	"strconv"

	"github.com/jscore-lang/jscore/token"
)

// reserved words that lex as keywords but are not usable as identifiers.
// Parser statement dispatch switches on these token kinds directly.

// Parser builds a syntax tree from a token stream using recursive descent
// for statements and Pratt (operator-precedence) parsing for expressions,
// the way github.com/ozanh/ugo's parser.go is structured.
type Parser struct {
	file *token.SourceFile
	lex  *Lexer

	tok  Token // current token
	next Token // lookahead

	diags token.Diagnostics
}

// NewParser creates a Parser reading src, whose offsets are registered in
// file (file.Size must equal len(src)).
func NewParser(file *token.SourceFile, src string) *Parser {
	p := &Parser{file: file, lex: NewLexer(file, src)}
	p.tok = p.lex.Scan()
	p.next = p.lex.Scan()
	p.diags = append(p.diags, p.lex.diags...)
	return p
}

func (p *Parser) advance() {
	p.tok = p.next
	if len(p.lex.diags) == 0 {
		p.next = p.lex.Scan()
		p.diags = append(p.diags, p.lex.diags...)
	}
}

func (p *Parser) errorf(sp token.Span, format string, args ...interface{}) {
	p.diags.Add(token.Syntax, p.file, sp, format, args...)
}

func (p *Parser) expect(k token.Token) token.Span {
	sp := p.tok.Span
	if p.tok.Kind != k {
		p.errorf(p.tok.Span, "expected %s, got %s", k, p.tok.Kind)
		return sp
	}
	p.advance()
	return sp
}

// ParseProgram parses the whole token stream into a Program node. Parse
// errors are recorded and the parser resynchronizes; the returned tree may
// contain Bad* placeholder nodes at the failure points.
func (p *Parser) ParseProgram() (*Program, token.Diagnostics) {
	prog := &Program{}
	begin := p.tok.Span.Begin
	for p.tok.Kind != token.EOF {
		s := p.parseStmt()
		if s != nil {
			prog.Stmts = append(prog.Stmts, s)
		}
	}
	prog.span = token.Span{Begin: begin, End: p.tok.Span.End}
	return prog, p.diags
}

// synchronize skips tokens until the next semicolon or closing brace at the
// current nesting depth, or EOF, then resumes -- per the recovery strategy
// spec'd for statement-level errors.
func (p *Parser) synchronize() {
	depth := 0
	for p.tok.Kind != token.EOF {
		switch p.tok.Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// ---- Statements ---------------------------------------------------------

func (p *Parser) parseStmt() Stmt {
	switch p.tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Return:
		return p.parseReturn()
	case token.Break:
		sp := p.tok.Span
		p.advance()
		p.expect(token.Semicolon)
		return &BreakStmt{span: sp}
	case token.Continue:
		sp := p.tok.Span
		p.advance()
		p.expect(token.Semicolon)
		return &ContinueStmt{span: sp}
	case token.Var, token.Let, token.Const:
		return p.parseVarDecl()
	case token.Function:
		return p.parseFuncDecl()
	case token.Semicolon:
		sp := p.tok.Span
		p.advance()
		return &EmptyStmt{span: sp}
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseBlock() *BlockStmt {
	begin := p.expect(token.LBrace).Begin
	var stmts []Stmt
	for p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	end := p.expect(token.RBrace).End
	return &BlockStmt{Stmts: stmts, span: token.Span{Begin: begin, End: end}}
}

func (p *Parser) parseIf() Stmt {
	begin := p.tok.Span.Begin
	p.advance()
	p.expect(token.LParen)
	cond := p.parseExpr(token.LowestPrec + 1)
	p.expect(token.RParen)
	then := p.parseStmt()
	var els Stmt
	end := then.Span().End
	if p.tok.Kind == token.Else {
		p.advance()
		els = p.parseStmt()
		end = els.Span().End
	}
	return &IfStmt{Cond: cond, Then: then, Else: els, span: token.Span{Begin: begin, End: end}}
}

func (p *Parser) parseWhile() Stmt {
	begin := p.tok.Span.Begin
	p.advance()
	p.expect(token.LParen)
	cond := p.parseExpr(token.LowestPrec + 1)
	p.expect(token.RParen)
	body := p.parseStmt()
	return &WhileStmt{Cond: cond, Body: body, span: token.Span{Begin: begin, End: body.Span().End}}
}

func (p *Parser) parseFor() Stmt {
	begin := p.tok.Span.Begin
	p.advance()
	p.expect(token.LParen)

	var init Stmt
	if p.tok.Kind != token.Semicolon {
		switch p.tok.Kind {
		case token.Var, token.Let, token.Const:
			init = p.parseVarDeclNoSemi()
		default:
			x := p.parseExpr(token.LowestPrec + 1)
			init = &ExprStmt{X: x, span: x.Span()}
		}
	}
	p.expect(token.Semicolon)

	var test Expr
	if p.tok.Kind != token.Semicolon {
		test = p.parseExpr(token.LowestPrec + 1)
	}
	p.expect(token.Semicolon)

	var update Expr
	if p.tok.Kind != token.RParen {
		update = p.parseExpr(token.LowestPrec + 1)
	}
	p.expect(token.RParen)

	body := p.parseStmt()
	return &ForStmt{Init: init, Test: test, Update: update, Body: body, span: token.Span{Begin: begin, End: body.Span().End}}
}

func (p *Parser) parseReturn() Stmt {
	begin := p.tok.Span.Begin
	p.advance()
	var val Expr
	end := p.tok.Span.End
	if p.tok.Kind != token.Semicolon {
		val = p.parseExpr(token.LowestPrec + 1)
		end = val.Span().End
	}
	end = p.expect(token.Semicolon).End
	return &ReturnStmt{Value: val, span: token.Span{Begin: begin, End: end}}
}

func (p *Parser) parseVarDecl() Stmt {
	s := p.parseVarDeclNoSemi()
	p.expect(token.Semicolon)
	return s
}

func (p *Parser) parseVarDeclNoSemi() *VarDecl {
	kind := p.tok.Kind
	begin := p.tok.Span.Begin
	p.advance()

	d := &VarDecl{Kind: kind}
	for {
		if p.tok.Kind != token.Ident {
			p.errorf(p.tok.Span, "expected binding name, got %s", p.tok.Kind)
			p.synchronize()
			d.span = token.Span{Begin: begin, End: p.tok.Span.End}
			return d
		}
		name := &Ident{Name: p.tok.Lit, span: p.tok.Span}
		p.advance()
		var init Expr
		if p.tok.Kind == token.Assign {
			p.advance()
			init = p.parseExpr(token.AssignPrec + 1)
		}
		d.Names = append(d.Names, name)
		d.Inits = append(d.Inits, init)
		if p.tok.Kind != token.Comma {
			break
		}
		p.advance()
	}
	d.span = token.Span{Begin: begin, End: p.tok.Span.Begin}
	return d
}

func (p *Parser) parseFuncDecl() Stmt {
	begin := p.tok.Span.Begin
	fn := p.parseFuncLit(true)
	return &FuncDeclStmt{Fn: fn, span: token.Span{Begin: begin, End: fn.Span().End}}
}

func (p *Parser) parseExprStmt() Stmt {
	x := p.parseExpr(token.LowestPrec + 1)
	if x == nil {
		p.errorf(p.tok.Span, "unexpected token %s", p.tok.Kind)
		sp := p.tok.Span
		p.synchronize()
		return &BadStmt{span: sp}
	}
	end := p.expect(token.Semicolon).End
	return &ExprStmt{X: x, span: token.Span{Begin: x.Span().Begin, End: end}}
}

// ---- Expressions (Pratt parser) -----------------------------------------

// parseExpr parses an expression whose operators bind at least as tightly
// as minPrec (see the precedence table in package token).
func (p *Parser) parseExpr(minPrec int) Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	return p.parseInfix(left, minPrec)
}

func (p *Parser) parseInfix(left Expr, minPrec int) Expr {
	for {
		tok := p.tok.Kind
		prec := tok.Precedence()
		if prec == token.LowestPrec || prec < minPrec {
			return left
		}

		switch {
		case tok.IsAssignOp():
			opSpan := p.tok.Span
			p.advance()
			right := p.parseExpr(prec) // right-assoc
			if !isAssignable(left) {
				p.errorf(opSpan, "invalid left-hand side in assignment")
			}
			left = &AssignExpr{Op: tok, Left: left, Right: right, span: token.Span{Begin: left.Span().Begin, End: right.Span().End}}
		case tok == token.Question:
			p.advance()
			then := p.parseExpr(token.AssignPrec)
			p.expect(token.Colon)
			els := p.parseExpr(token.CondPrec)
			left = &ConditionalExpr{Cond: left, Then: then, Else: els, span: token.Span{Begin: left.Span().Begin, End: els.Span().End}}
		case tok == token.LAnd || tok == token.LOr || tok == token.Nullish:
			p.advance()
			nextMin := prec + 1
			if tok.IsRightAssociative() {
				nextMin = prec
			}
			right := p.parseExpr(nextMin)
			left = &LogicalExpr{Op: tok, Left: left, Right: right, span: token.Span{Begin: left.Span().Begin, End: right.Span().End}}
		case tok == token.LParen:
			left = p.parseCall(left)
		case tok == token.Period:
			p.advance()
			if p.tok.Kind != token.Ident && !p.tok.Kind.IsKeyword() {
				p.errorf(p.tok.Span, "expected property name, got %s", p.tok.Kind)
			}
			name := &Ident{Name: p.tok.Lit, span: p.tok.Span}
			end := p.tok.Span.End
			p.advance()
			left = &MemberExpr{Object: left, Property: name, span: token.Span{Begin: left.Span().Begin, End: end}}
		case tok == token.LBrack:
			p.advance()
			key := p.parseExpr(token.LowestPrec + 1)
			end := p.expect(token.RBrack).End
			left = &MemberExpr{Object: left, Property: key, Computed: true, span: token.Span{Begin: left.Span().Begin, End: end}}
		case tok == token.Inc || tok == token.Dec:
			end := p.tok.Span.End
			p.advance()
			left = &UnaryExpr{Op: tok, Operand: left, Postfix: true, span: token.Span{Begin: left.Span().Begin, End: end}}
		default:
			nextMin := prec + 1
			if tok.IsRightAssociative() {
				nextMin = prec
			}
			p.advance()
			right := p.parseExpr(nextMin)
			left = &BinaryExpr{Op: tok, Left: left, Right: right, span: token.Span{Begin: left.Span().Begin, End: right.Span().End}}
		}
	}
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *Ident, *MemberExpr:
		return true
	}
	return false
}

func (p *Parser) parseCall(callee Expr) Expr {
	begin := callee.Span().Begin
	p.expect(token.LParen)
	var args []Expr
	for p.tok.Kind != token.RParen && p.tok.Kind != token.EOF {
		args = append(args, p.parseExpr(token.AssignPrec+1))
		if p.tok.Kind != token.Comma {
			break
		}
		p.advance()
	}
	end := p.expect(token.RParen).End
	return &CallExpr{Callee: callee, Args: args, span: token.Span{Begin: begin, End: end}}
}

// parsePrefix handles null-denotation positions: literals, identifiers,
// parenthesized expressions, unary/prefix-update operators, and literal
// aggregates.
func (p *Parser) parsePrefix() Expr {
	sp := p.tok.Span
	switch p.tok.Kind {
	case token.Float:
		v, raw := p.tok.Num, p.tok.Lit
		p.advance()
		return &NumberLit{Value: v, Raw: raw, span: sp}
	case token.String:
		v := p.tok.Lit
		p.advance()
		return &StringLit{Value: v, span: sp}
	case token.True, token.False:
		v := p.tok.Kind == token.True
		p.advance()
		return &BoolLit{Value: v, span: sp}
	case token.Null:
		p.advance()
		return &NullLit{span: sp}
	case token.Undefined:
		p.advance()
		return &UndefinedLit{span: sp}
	case token.Ident, token.This:
		name := p.tok.Lit
		if p.tok.Kind == token.This {
			name = "this"
		}
		p.advance()
		return &Ident{Name: name, span: sp}
	case token.LParen:
		p.advance()
		x := p.parseExpr(token.LowestPrec + 1)
		p.expect(token.RParen)
		return x
	case token.Function:
		return p.parseFuncLit(false)
	case token.LBrace:
		return p.parseObjectLit()
	case token.LBrack:
		return p.parseArrayLit()
	case token.Not, token.BitNot, token.Sub, token.Add, token.Typeof, token.Void, token.Delete:
		op := p.tok.Kind
		p.advance()
		operand := p.parseExpr(token.HighestPrec - 1)
		return &UnaryExpr{Op: op, Operand: operand, span: token.Span{Begin: sp.Begin, End: operand.Span().End}}
	case token.Inc, token.Dec:
		op := p.tok.Kind
		p.advance()
		operand := p.parseExpr(token.HighestPrec - 1)
		return &UnaryExpr{Op: op, Operand: operand, span: token.Span{Begin: sp.Begin, End: operand.Span().End}}
	}
	return nil
}

func (p *Parser) parseFuncLit(decl bool) *FuncLit {
	begin := p.tok.Span.Begin
	p.advance() // consume 'function'
	name := ""
	if p.tok.Kind == token.Ident {
		name = p.tok.Lit
		p.advance()
	} else if decl {
		p.errorf(p.tok.Span, "expected function name, got %s", p.tok.Kind)
	}
	p.expect(token.LParen)
	var params []*Ident
	for p.tok.Kind != token.RParen && p.tok.Kind != token.EOF {
		if p.tok.Kind == token.Ident {
			params = append(params, &Ident{Name: p.tok.Lit, span: p.tok.Span})
			p.advance()
		} else {
			p.errorf(p.tok.Span, "expected parameter name, got %s", p.tok.Kind)
			break
		}
		if p.tok.Kind != token.Comma {
			break
		}
		p.advance()
	}
	p.expect(token.RParen)
	body := p.parseBlock()
	return &FuncLit{Name: name, Params: params, Body: body, span: token.Span{Begin: begin, End: body.Span().End}}
}

func (p *Parser) parseObjectLit() Expr {
	begin := p.tok.Span.Begin
	p.advance() // consume '{'
	var props []ObjectProp
	for p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
		var key string
		switch p.tok.Kind {
		case token.String:
			key = p.tok.Lit
			p.advance()
		case token.Float:
			key = strconv.FormatFloat(p.tok.Num, 'g', -1, 64)
			p.advance()
		case token.Ident:
			key = p.tok.Lit
			p.advance()
		default:
			if p.tok.Kind.IsKeyword() {
				key = p.tok.Kind.String()
				p.advance()
			} else {
				p.errorf(p.tok.Span, "expected property key, got %s", p.tok.Kind)
				p.advance()
			}
		}
		p.expect(token.Colon)
		val := p.parseExpr(token.AssignPrec + 1)
		props = append(props, ObjectProp{Key: key, Value: val})
		if p.tok.Kind != token.Comma {
			break
		}
		p.advance()
	}
	end := p.expect(token.RBrace).End
	return &ObjectLit{Props: props, span: token.Span{Begin: begin, End: end}}
}

func (p *Parser) parseArrayLit() Expr {
	begin := p.tok.Span.Begin
	p.advance() // consume '['
	var elems []Expr
	for p.tok.Kind != token.RBrack && p.tok.Kind != token.EOF {
		if p.tok.Kind == token.Comma {
			elems = append(elems, nil) // hole
			p.advance()
			continue
		}
		elems = append(elems, p.parseExpr(token.AssignPrec+1))
		if p.tok.Kind != token.Comma {
			break
		}
		p.advance()
	}
	end := p.expect(token.RBrack).End
	return &ArrayLit{Elements: elems, span: token.Span{Begin: begin, End: end}}
}
