// Package parser turns a token stream into a syntax tree. It bundles the
// lexer, the AST node types and the recursive-descent/Pratt parser in one
// package, the way github.com/ozanh/ugo's own parser package bundles its
// scanner, ast and parser files together.
//
// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package parser

import "github.com/jscore-lang/jscore/token"

// Node is implemented by every syntax tree node.
type Node interface {
	Span() token.Span
	String() string
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a parsed source file.
type Program struct {
	Stmts []Stmt
	span  token.Span
}

func (p *Program) Span() token.Span { return p.span }
func (p *Program) String() string   { return "<program>" }

// ---- Expressions -----------------------------------------------------

// BadExpr is an error-placeholder node produced during parser recovery.
type BadExpr struct{ span token.Span }

func (e *BadExpr) exprNode()          {}
func (e *BadExpr) Span() token.Span   { return e.span }
func (e *BadExpr) String() string     { return "<bad-expr>" }

// Ident is an identifier reference.
type Ident struct {
	Name string
	span token.Span
}

func (e *Ident) exprNode()        {}
func (e *Ident) Span() token.Span { return e.span }
func (e *Ident) String() string   { return e.Name }

// NumberLit is a numeric literal, already decoded to float64.
type NumberLit struct {
	Value float64
	Raw   string
	span  token.Span
}

func (e *NumberLit) exprNode()        {}
func (e *NumberLit) Span() token.Span { return e.span }
func (e *NumberLit) String() string   { return e.Raw }

// StringLit is a string literal with escapes already decoded.
type StringLit struct {
	Value string
	span  token.Span
}

func (e *StringLit) exprNode()        {}
func (e *StringLit) Span() token.Span { return e.span }
func (e *StringLit) String() string   { return "\"" + e.Value + "\"" }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	span  token.Span
}

func (e *BoolLit) exprNode()        {}
func (e *BoolLit) Span() token.Span { return e.span }
func (e *BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

// NullLit is the `null` literal.
type NullLit struct{ span token.Span }

func (e *NullLit) exprNode()        {}
func (e *NullLit) Span() token.Span { return e.span }
func (e *NullLit) String() string   { return "null" }

// UndefinedLit is the `undefined` literal.
type UndefinedLit struct{ span token.Span }

func (e *UndefinedLit) exprNode()        {}
func (e *UndefinedLit) Span() token.Span { return e.span }
func (e *UndefinedLit) String() string   { return "undefined" }

// UnaryExpr covers prefix operators (`-x !x ~x typeof x void x`) and
// pre/post increment-decrement (`++x x++ --x x--`).
type UnaryExpr struct {
	Op       token.Token
	Operand  Expr
	Postfix  bool
	span     token.Span
}

func (e *UnaryExpr) exprNode()        {}
func (e *UnaryExpr) Span() token.Span { return e.span }
func (e *UnaryExpr) String() string {
	if e.Postfix {
		return e.Operand.String() + e.Op.String()
	}
	return e.Op.String() + e.Operand.String()
}

// BinaryExpr covers arithmetic, bitwise, comparison and equality
// operators.
type BinaryExpr struct {
	Op          token.Token
	Left, Right Expr
	span        token.Span
}

func (e *BinaryExpr) exprNode()        {}
func (e *BinaryExpr) Span() token.Span { return e.span }
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// LogicalExpr covers `&&`, `||` and `??`, kept distinct from BinaryExpr
// because they short-circuit.
type LogicalExpr struct {
	Op          token.Token
	Left, Right Expr
	span        token.Span
}

func (e *LogicalExpr) exprNode()        {}
func (e *LogicalExpr) Span() token.Span { return e.span }
func (e *LogicalExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// AssignExpr covers `=` and every compound-assignment operator.
type AssignExpr struct {
	Op          token.Token
	Left, Right Expr
	span        token.Span
}

func (e *AssignExpr) exprNode()        {}
func (e *AssignExpr) Span() token.Span { return e.span }
func (e *AssignExpr) String() string {
	return e.Left.String() + " " + e.Op.String() + " " + e.Right.String()
}

// ConditionalExpr is the ternary `cond ? then : else`.
type ConditionalExpr struct {
	Cond, Then, Else Expr
	span             token.Span
}

func (e *ConditionalExpr) exprNode()        {}
func (e *ConditionalExpr) Span() token.Span { return e.span }
func (e *ConditionalExpr) String() string {
	return e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String()
}

// CallExpr is a function/method invocation.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	span   token.Span
}

func (e *CallExpr) exprNode()        {}
func (e *CallExpr) Span() token.Span { return e.span }
func (e *CallExpr) String() string   { return e.Callee.String() + "(...)" }

// MemberExpr is `o.p` (Computed == false) or `o[k]` (Computed == true).
type MemberExpr struct {
	Object   Expr
	Property Expr // *Ident when !Computed, arbitrary expr when Computed
	Computed bool
	span     token.Span
}

func (e *MemberExpr) exprNode()        {}
func (e *MemberExpr) Span() token.Span { return e.span }
func (e *MemberExpr) String() string {
	if e.Computed {
		return e.Object.String() + "[" + e.Property.String() + "]"
	}
	return e.Object.String() + "." + e.Property.String()
}

// ObjectProp is one key-value entry of an ObjectLit.
type ObjectProp struct {
	Key   string
	Value Expr
}

// ObjectLit is an object literal `{k: v, ...}`.
type ObjectLit struct {
	Props []ObjectProp
	span  token.Span
}

func (e *ObjectLit) exprNode()        {}
func (e *ObjectLit) Span() token.Span { return e.span }
func (e *ObjectLit) String() string   { return "{...}" }

// ArrayLit is an array literal `[a, b, ...]`. A nil element at index i
// represents a hole (elided element, e.g. `[1,,3]`).
type ArrayLit struct {
	Elements []Expr
	span     token.Span
}

func (e *ArrayLit) exprNode()        {}
func (e *ArrayLit) Span() token.Span { return e.span }
func (e *ArrayLit) String() string   { return "[...]" }

// FuncLit is a function expression, optionally named.
type FuncLit struct {
	Name   string // may be empty
	Params []*Ident
	Body   *BlockStmt
	span   token.Span
}

func (e *FuncLit) exprNode()        {}
func (e *FuncLit) Span() token.Span { return e.span }
func (e *FuncLit) String() string   { return "function " + e.Name + "(...)" }

// ---- Statements --------------------------------------------------------

// BadStmt is an error-placeholder node produced during parser recovery.
type BadStmt struct{ span token.Span }

func (s *BadStmt) stmtNode()        {}
func (s *BadStmt) Span() token.Span { return s.span }
func (s *BadStmt) String() string   { return "<bad-stmt>" }

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	X    Expr
	span token.Span
}

func (s *ExprStmt) stmtNode()        {}
func (s *ExprStmt) Span() token.Span { return s.span }
func (s *ExprStmt) String() string   { return s.X.String() + ";" }

// VarDecl is one `var`/`let`/`const` declaration statement, which may
// bind more than one name.
type VarDecl struct {
	Kind  token.Token // Var, Let or Const
	Names []*Ident
	Inits []Expr // Inits[i] is nil when Names[i] has no initializer
	span  token.Span
}

func (s *VarDecl) stmtNode()        {}
func (s *VarDecl) Span() token.Span { return s.span }
func (s *VarDecl) String() string   { return s.Kind.String() + " ..." }

// BlockStmt is a brace-delimited statement list introducing a new block
// scope.
type BlockStmt struct {
	Stmts []Stmt
	span  token.Span
}

func (s *BlockStmt) stmtNode()        {}
func (s *BlockStmt) Span() token.Span { return s.span }
func (s *BlockStmt) String() string   { return "{...}" }

// IfStmt is `if (cond) then [else else]`.
type IfStmt struct {
	Cond       Expr
	Then, Else Stmt // Else may be nil
	span       token.Span
}

func (s *IfStmt) stmtNode()        {}
func (s *IfStmt) Span() token.Span { return s.span }
func (s *IfStmt) String() string   { return "if (...) ..." }

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	span token.Span
}

func (s *WhileStmt) stmtNode()        {}
func (s *WhileStmt) Span() token.Span { return s.span }
func (s *WhileStmt) String() string   { return "while (...) ..." }

// ForStmt is a C-style `for (init; test; update) body`; Init, Test and
// Update are each optionally nil.
type ForStmt struct {
	Init   Stmt // *VarDecl or *ExprStmt, or nil
	Test   Expr // nil means "always true"
	Update Expr // nil means "no update"
	Body   Stmt
	span   token.Span
}

func (s *ForStmt) stmtNode()        {}
func (s *ForStmt) Span() token.Span { return s.span }
func (s *ForStmt) String() string   { return "for (...) ..." }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Value Expr // nil for a bare `return;`
	span  token.Span
}

func (s *ReturnStmt) stmtNode()        {}
func (s *ReturnStmt) Span() token.Span { return s.span }
func (s *ReturnStmt) String() string   { return "return ...;" }

// BreakStmt is `break;`.
type BreakStmt struct{ span token.Span }

func (s *BreakStmt) stmtNode()        {}
func (s *BreakStmt) Span() token.Span { return s.span }
func (s *BreakStmt) String() string   { return "break;" }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ span token.Span }

func (s *ContinueStmt) stmtNode()        {}
func (s *ContinueStmt) Span() token.Span { return s.span }
func (s *ContinueStmt) String() string   { return "continue;" }

// FuncDeclStmt is a named function declaration.
type FuncDeclStmt struct {
	Fn   *FuncLit
	span token.Span
}

func (s *FuncDeclStmt) stmtNode()        {}
func (s *FuncDeclStmt) Span() token.Span { return s.span }
func (s *FuncDeclStmt) String() string   { return s.Fn.String() }

// EmptyStmt is a bare `;`.
type EmptyStmt struct{ span token.Span }

func (s *EmptyStmt) stmtNode()        {}
func (s *EmptyStmt) Span() token.Span { return s.span }
func (s *EmptyStmt) String() string   { return ";" }
