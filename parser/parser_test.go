// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jscore-lang/jscore/token"
)

func parseSrc(t *testing.T, src string) (*Program, token.Diagnostics) {
	t.Helper()
	file := token.NewFileSet().AddFile("(test)", len(src))
	return NewParser(file, src).ParseProgram()
}

func parseExprStmtOK(t *testing.T, src string) Expr {
	t.Helper()
	prog, diags := parseSrc(t, src)
	require.Empty(t, diags)
	require.Len(t, prog.Stmts, 1)
	es, ok := prog.Stmts[0].(*ExprStmt)
	require.True(t, ok, "expected ExprStmt, got %T", prog.Stmts[0])
	return es.X
}

func TestParserPrecedenceMulOverAdd(t *testing.T) {
	x := parseExprStmtOK(t, `1 + 2 * 3;`)
	bin, ok := x.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.Add, bin.Op)
	require.Equal(t, "1", bin.Left.(*NumberLit).Raw)
	rhs, ok := bin.Right.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.Mul, rhs.Op)
}

func TestParserPrecedenceParensOverride(t *testing.T) {
	x := parseExprStmtOK(t, `(1 + 2) * 3;`)
	bin, ok := x.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.Mul, bin.Op)
	_, ok = bin.Left.(*BinaryExpr)
	require.True(t, ok)
}

func TestParserPowIsRightAssociative(t *testing.T) {
	// 2 ** 3 ** 2 should parse as 2 ** (3 ** 2), not (2 ** 3) ** 2.
	x := parseExprStmtOK(t, `2 ** 3 ** 2;`)
	bin, ok := x.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.Pow, bin.Op)
	require.Equal(t, "2", bin.Left.(*NumberLit).Raw)
	rhs, ok := bin.Right.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.Pow, rhs.Op)
}

func TestParserAssignmentIsRightAssociative(t *testing.T) {
	// a = b = 1 should parse as a = (b = 1).
	x := parseExprStmtOK(t, `a = b = 1;`)
	assign, ok := x.(*AssignExpr)
	require.True(t, ok)
	require.Equal(t, "a", assign.Left.(*Ident).Name)
	inner, ok := assign.Right.(*AssignExpr)
	require.True(t, ok)
	require.Equal(t, "b", inner.Left.(*Ident).Name)
}

func TestParserTernaryAssociatesRight(t *testing.T) {
	x := parseExprStmtOK(t, `a ? b : c ? d : e;`)
	cond, ok := x.(*ConditionalExpr)
	require.True(t, ok)
	require.Equal(t, "a", cond.Cond.(*Ident).Name)
	_, ok = cond.Else.(*ConditionalExpr)
	require.True(t, ok)
}

func TestParserLogicalAndOverOr(t *testing.T) {
	x := parseExprStmtOK(t, `a || b && c;`)
	lo, ok := x.(*LogicalExpr)
	require.True(t, ok)
	require.Equal(t, token.LOr, lo.Op)
	_, ok = lo.Right.(*LogicalExpr)
	require.True(t, ok)
}

func TestParserMemberAccessDotAndComputed(t *testing.T) {
	x := parseExprStmtOK(t, `o.x;`)
	m, ok := x.(*MemberExpr)
	require.True(t, ok)
	require.False(t, m.Computed)
	require.Equal(t, "x", m.Property.(*Ident).Name)

	x2 := parseExprStmtOK(t, `o["y"];`)
	m2, ok := x2.(*MemberExpr)
	require.True(t, ok)
	require.True(t, m2.Computed)
	require.Equal(t, "y", m2.Property.(*StringLit).Value)
}

func TestParserCallExpression(t *testing.T) {
	x := parseExprStmtOK(t, `f(1, 2, 3);`)
	call, ok := x.(*CallExpr)
	require.True(t, ok)
	require.Equal(t, "f", call.Callee.(*Ident).Name)
	require.Len(t, call.Args, 3)
}

func TestParserIIFE(t *testing.T) {
	x := parseExprStmtOK(t, `(function(){ return 1; })();`)
	call, ok := x.(*CallExpr)
	require.True(t, ok)
	_, ok = call.Callee.(*FuncLit)
	require.True(t, ok)
}

func TestParserPostfixVsPrefixIncrement(t *testing.T) {
	x := parseExprStmtOK(t, `x++;`)
	u, ok := x.(*UnaryExpr)
	require.True(t, ok)
	require.True(t, u.Postfix)
	require.Equal(t, token.Inc, u.Op)

	x2 := parseExprStmtOK(t, `++x;`)
	u2, ok := x2.(*UnaryExpr)
	require.True(t, ok)
	require.False(t, u2.Postfix)
}

func TestParserObjectLiteral(t *testing.T) {
	x := parseExprStmtOK(t, `({x: 1, y: 2});`)
	obj, ok := x.(*ObjectLit)
	require.True(t, ok)
	require.Len(t, obj.Props, 2)
	require.Equal(t, "x", obj.Props[0].Key)
	require.Equal(t, "y", obj.Props[1].Key)
}

func TestParserArrayLiteralWithHoles(t *testing.T) {
	x := parseExprStmtOK(t, `[1, , 3];`)
	arr, ok := x.(*ArrayLit)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
	require.Nil(t, arr.Elements[1])
}

func TestParserVarLetConstDecl(t *testing.T) {
	prog, diags := parseSrc(t, `var a = 1; let b = 2; const c = 3;`)
	require.Empty(t, diags)
	require.Len(t, prog.Stmts, 3)
	kinds := []token.Token{token.Var, token.Let, token.Const}
	for i, k := range kinds {
		vd, ok := prog.Stmts[i].(*VarDecl)
		require.True(t, ok)
		require.Equal(t, k, vd.Kind)
	}
}

func TestParserMultipleBindingsOneDecl(t *testing.T) {
	prog, diags := parseSrc(t, `let a = 1, b = 2, c;`)
	require.Empty(t, diags)
	vd := prog.Stmts[0].(*VarDecl)
	require.Len(t, vd.Names, 3)
	require.Nil(t, vd.Inits[2])
}

func TestParserIfElse(t *testing.T) {
	prog, diags := parseSrc(t, `if (a) b; else c;`)
	require.Empty(t, diags)
	ifs, ok := prog.Stmts[0].(*IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifs.Then)
	require.NotNil(t, ifs.Else)
}

func TestParserWhileLoop(t *testing.T) {
	prog, diags := parseSrc(t, `while (x < 10) { x = x + 1; }`)
	require.Empty(t, diags)
	ws, ok := prog.Stmts[0].(*WhileStmt)
	require.True(t, ok)
	_, ok = ws.Body.(*BlockStmt)
	require.True(t, ok)
}

func TestParserForLoop(t *testing.T) {
	prog, diags := parseSrc(t, `for (let i = 0; i < 10; i = i + 1) {}`)
	require.Empty(t, diags)
	fs, ok := prog.Stmts[0].(*ForStmt)
	require.True(t, ok)
	require.NotNil(t, fs.Init)
	require.NotNil(t, fs.Test)
	require.NotNil(t, fs.Update)
}

func TestParserForLoopOptionalClauses(t *testing.T) {
	prog, diags := parseSrc(t, `for (;;) { break; }`)
	require.Empty(t, diags)
	fs, ok := prog.Stmts[0].(*ForStmt)
	require.True(t, ok)
	require.Nil(t, fs.Init)
	require.Nil(t, fs.Test)
	require.Nil(t, fs.Update)
}

func TestParserFunctionDeclaration(t *testing.T) {
	prog, diags := parseSrc(t, `function add(a, b) { return a + b; }`)
	require.Empty(t, diags)
	fd, ok := prog.Stmts[0].(*FuncDeclStmt)
	require.True(t, ok)
	require.Equal(t, "add", fd.Fn.Name)
	require.Len(t, fd.Fn.Params, 2)
}

func TestParserReturnBareAndWithValue(t *testing.T) {
	prog, diags := parseSrc(t, `function f() { return; }`)
	require.Empty(t, diags)
	fd := prog.Stmts[0].(*FuncDeclStmt)
	ret := fd.Fn.Body.Stmts[0].(*ReturnStmt)
	require.Nil(t, ret.Value)
}

func TestParserTypeofVoidDelete(t *testing.T) {
	for _, op := range []token.Token{token.Typeof, token.Void, token.Delete} {
		x := parseExprStmtOK(t, op.String()+" x;")
		u, ok := x.(*UnaryExpr)
		require.True(t, ok, op.String())
		require.Equal(t, op, u.Op)
	}
}

func TestParserErrorRecoverySkipsToSemicolon(t *testing.T) {
	prog, diags := parseSrc(t, `let = ; let b = 1;`)
	require.NotEmpty(t, diags)
	// Despite the malformed first declaration, the parser should recover
	// and still produce the second statement.
	var found bool
	for _, s := range prog.Stmts {
		if vd, ok := s.(*VarDecl); ok && len(vd.Names) == 1 && vd.Names[0].Name == "b" {
			found = true
		}
	}
	require.True(t, found)
}

func TestParserInvalidAssignmentTargetIsError(t *testing.T) {
	_, diags := parseSrc(t, `1 = 2;`)
	require.NotEmpty(t, diags)
}
