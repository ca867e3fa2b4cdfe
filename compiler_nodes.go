// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"github.com/jscore-lang/jscore/parser"
	"github.com/jscore-lang/jscore/token"
)

// allocTemp reserves one hidden local slot for a compiler-internal
// temporary (e.g. holding an object literal under construction). Freed
// with freeTemp in strict LIFO order, since every use here is
// stack-structured.
func (c *Compiler) allocTemp() int {
	fn := c.scope.fn
	slot := fn.nextSlot
	fn.nextSlot++
	if fn.nextSlot > fn.maxSlot {
		fn.maxSlot = fn.nextSlot
	}
	return slot
}

func (c *Compiler) freeTemp() { c.scope.fn.nextSlot-- }

func (c *Compiler) loadName(sp token.Span, name string) {
	line := c.lineOf(sp)
	if name == "this" {
		c.emit(line, OpLoadThis)
		return
	}
	if b, ok := c.scope.resolve(name); ok {
		c.emit(line, OpLoadLocal, b.slot)
		return
	}
	idx := c.code.addConstant(String(name))
	c.emit(line, OpLoadGlobal, idx)
}

func (c *Compiler) storeName(sp token.Span, name string) {
	line := c.lineOf(sp)
	if b, ok := c.scope.resolve(name); ok {
		if b.kind == token.Const {
			c.errorf(sp, "assignment to constant variable: %s", name)
		}
		c.emit(line, OpStoreLocal, b.slot)
		return
	}
	idx := c.code.addConstant(String(name))
	c.emit(line, OpStoreGlobal, idx)
}

// ---- Statements -----------------------------------------------------------

func (c *Compiler) compileStmt(s parser.Stmt) {
	switch st := s.(type) {
	case *parser.ExprStmt:
		c.compileExpr(st.X)
	case *parser.VarDecl:
		c.compileVarDecl(st)
	case *parser.BlockStmt:
		_, saved := c.enterBlock()
		for _, inner := range st.Stmts {
			c.compileStmt(inner)
		}
		c.exitBlock(saved)
	case *parser.IfStmt:
		c.compileIfStmt(st)
	case *parser.WhileStmt:
		c.compileWhileStmt(st)
	case *parser.ForStmt:
		c.compileForStmt(st)
	case *parser.ReturnStmt:
		c.compileReturnStmt(st)
	case *parser.BreakStmt:
		if len(c.loops) == 0 {
			c.errorf(st.Span(), "break outside loop")
			return
		}
		pos := c.emitJump(c.lineOf(st.Span()), OpJump)
		top := len(c.loops) - 1
		c.loops[top].breakPatches = append(c.loops[top].breakPatches, pos)
	case *parser.ContinueStmt:
		if len(c.loops) == 0 {
			c.errorf(st.Span(), "continue outside loop")
			return
		}
		pos := c.emitJump(c.lineOf(st.Span()), OpJump)
		top := len(c.loops) - 1
		c.loops[top].continuePatches = append(c.loops[top].continuePatches, pos)
	case *parser.FuncDeclStmt:
		idx := c.compileFuncLit(st.Fn)
		c.emit(c.lineOf(st.Span()), OpNewClosure, idx)
		c.storeName(st.Span(), st.Fn.Name)
	case *parser.EmptyStmt, *parser.BadStmt:
		// no-op
	}
}

func (c *Compiler) compileVarDecl(d *parser.VarDecl) {
	for i, name := range d.Names {
		line := c.lineOf(name.Span())
		if d.Kind != token.Var {
			if err := c.scope.define(d.Kind, name.Name); err != nil {
				c.errorf(name.Span(), "%s", err.Error())
			}
		}
		if init := d.Inits[i]; init != nil {
			c.compileExpr(init)
		} else {
			c.emit(line, OpLoadUndefined)
		}
		if d.Kind == token.Const {
			// The initializer is the one store a const binding accepts;
			// storeName would reject it as an assignment to a constant.
			b, _ := c.scope.resolve(name.Name)
			c.emit(line, OpStoreLocal, b.slot)
			continue
		}
		c.storeName(name.Span(), name.Name)
	}
}

func (c *Compiler) compileIfStmt(s *parser.IfStmt) {
	line := c.lineOf(s.Span())
	c.compileExpr(s.Cond)
	elseJump := c.emitJump(line, OpJumpFalse)
	c.compileStmt(s.Then)
	if s.Else == nil {
		c.patchJump(elseJump)
		return
	}
	endJump := c.emitJump(line, OpJump)
	c.patchJump(elseJump)
	c.compileStmt(s.Else)
	c.patchJump(endJump)
}

func (c *Compiler) compileWhileStmt(s *parser.WhileStmt) {
	line := c.lineOf(s.Span())
	head := c.here()
	c.compileExpr(s.Cond)
	exitJump := c.emitJump(line, OpJumpFalse)

	c.loops = append(c.loops, loopCtx{})
	c.compileStmt(s.Body)
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	for _, p := range loop.continuePatches {
		c.patchJumpTo(p, head)
	}
	c.emitJumpTo(line, OpJump, head)
	c.patchJump(exitJump)
	for _, p := range loop.breakPatches {
		c.patchJumpTo(p, c.here())
	}
}

func (c *Compiler) compileForStmt(s *parser.ForStmt) {
	line := c.lineOf(s.Span())
	_, saved := c.enterBlock()
	if s.Init != nil {
		c.compileStmt(s.Init)
	}

	head := c.here()
	var exitJump int
	hasTest := s.Test != nil
	if hasTest {
		c.compileExpr(s.Test)
		exitJump = c.emitJump(line, OpJumpFalse)
	}

	c.loops = append(c.loops, loopCtx{})
	c.compileStmt(s.Body)
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	continueTarget := c.here()
	for _, p := range loop.continuePatches {
		c.patchJumpTo(p, continueTarget)
	}
	if s.Update != nil {
		c.compileExpr(s.Update)
	}
	c.emitJumpTo(line, OpJump, head)
	if hasTest {
		c.patchJump(exitJump)
	}
	for _, p := range loop.breakPatches {
		c.patchJumpTo(p, c.here())
	}
	c.exitBlock(saved)
}

func (c *Compiler) compileReturnStmt(s *parser.ReturnStmt) {
	if !c.inFunc {
		c.errorf(s.Span(), "return outside function")
		return
	}
	line := c.lineOf(s.Span())
	if s.Value == nil {
		c.emit(line, OpReturnUndefined)
		return
	}
	c.compileExpr(s.Value)
	c.emit(line, OpReturn)
}

// emitJumpTo emits a jump-family instruction whose target is already
// known (a backward jump), rather than a forward placeholder.
func (c *Compiler) emitJumpTo(line int, op Opcode, target int) int {
	pos := c.emitJump(line, op)
	c.patchJumpTo(pos, target)
	return pos
}

// ---- Expressions ------------------------------------------------------

func (c *Compiler) compileExpr(e parser.Expr) {
	switch x := e.(type) {
	case *parser.NumberLit:
		idx := c.code.addConstant(Number(x.Value))
		c.emit(c.lineOf(x.Span()), OpLoadConst, idx)
	case *parser.StringLit:
		idx := c.code.addConstant(String(x.Value))
		c.emit(c.lineOf(x.Span()), OpLoadConst, idx)
	case *parser.BoolLit:
		if x.Value {
			c.emit(c.lineOf(x.Span()), OpLoadTrue)
		} else {
			c.emit(c.lineOf(x.Span()), OpLoadFalse)
		}
	case *parser.NullLit:
		c.emit(c.lineOf(x.Span()), OpLoadNull)
	case *parser.UndefinedLit:
		c.emit(c.lineOf(x.Span()), OpLoadUndefined)
	case *parser.Ident:
		c.loadName(x.Span(), x.Name)
	case *parser.UnaryExpr:
		c.compileUnary(x)
	case *parser.BinaryExpr:
		c.compileBinary(x)
	case *parser.LogicalExpr:
		c.compileLogical(x)
	case *parser.AssignExpr:
		c.compileAssign(x)
	case *parser.ConditionalExpr:
		c.compileConditional(x)
	case *parser.CallExpr:
		c.compileCall(x)
	case *parser.MemberExpr:
		c.compileMemberLoad(x)
	case *parser.ObjectLit:
		c.compileObjectLit(x)
	case *parser.ArrayLit:
		c.compileArrayLit(x)
	case *parser.FuncLit:
		idx := c.compileFuncLit(x)
		c.emit(c.lineOf(x.Span()), OpNewClosure, idx)
	case *parser.BadExpr:
		c.emit(c.lineOf(x.Span()), OpLoadUndefined)
	}
}

var binaryOps = map[token.Token]Opcode{
	token.Add: OpAdd, token.Sub: OpSub, token.Mul: OpMul, token.Quo: OpDiv,
	token.Rem: OpMod, token.Pow: OpPow,
	token.Equal: OpEqual, token.NotEqual: OpNotEqual,
	token.StrictEQ: OpStrictEqual, token.StrictNEQ: OpStrictNotEqual,
	token.Less: OpLess, token.Greater: OpGreater, token.LessEq: OpLessEq, token.GreaterEq: OpGreaterEq,
	token.And: OpBitAnd, token.Or: OpBitOr, token.Xor: OpBitXor,
	token.Shl: OpShl, token.Shr: OpShr, token.UShr: OpUShr,
}

// compoundOps maps a compound-assignment token to its underlying binary
// operator token, e.g. AddAssign -> Add.
var compoundOps = map[token.Token]token.Token{
	token.AddAssign: token.Add, token.SubAssign: token.Sub, token.MulAssign: token.Mul,
	token.QuoAssign: token.Quo, token.RemAssign: token.Rem, token.PowAssign: token.Pow,
	token.AndAssign: token.And, token.OrAssign: token.Or, token.XorAssign: token.Xor,
	token.ShlAssign: token.Shl, token.ShrAssign: token.Shr, token.UShrAssign: token.UShr,
}

func (c *Compiler) compileBinary(x *parser.BinaryExpr) {
	line := c.lineOf(x.Span())
	c.compileExpr(x.Left)
	c.emit(line, OpPush)
	c.push(1)
	c.compileExpr(x.Right)
	op, ok := binaryOps[x.Op]
	if !ok {
		c.errorf(x.Span(), "unsupported binary operator %s", x.Op)
		return
	}
	c.emit(line, op)
	c.pop(1)
}

// compileLogical lowers `&&`/`||`/`??` to branches rather than opcodes, so
// the right operand only evaluates when needed (spec.md §9).
func (c *Compiler) compileLogical(x *parser.LogicalExpr) {
	line := c.lineOf(x.Span())
	c.compileExpr(x.Left)
	switch x.Op {
	case token.LAnd:
		skip := c.emitJump(line, OpJumpFalse)
		c.compileExpr(x.Right)
		c.patchJump(skip)
	case token.LOr:
		skip := c.emitJump(line, OpJumpTrue)
		c.compileExpr(x.Right)
		c.patchJump(skip)
	case token.Nullish:
		// Only OpJumpNullish (not its inverse) exists, so branch to the
		// right-hand side on nullish and jump around it otherwise.
		toRight := c.emitJump(line, OpJumpNullish)
		end := c.emitJump(line, OpJump)
		c.patchJump(toRight)
		c.compileExpr(x.Right)
		c.patchJump(end)
	}
}

func (c *Compiler) compileUnary(x *parser.UnaryExpr) {
	line := c.lineOf(x.Span())
	if x.Op == token.Inc || x.Op == token.Dec {
		c.compileIncDec(x)
		return
	}
	// Fold unary minus over a numeric literal into the negated constant
	// itself, the way ugo's optimizer folds UnaryExpr over a literal
	// operand (optimizer.go's unaryop/evalExpr). Without this, `-0`
	// would only ever exist as a runtime OpNeg result and the constant
	// pool would never hold the bit-distinct negative zero.
	if x.Op == token.Sub {
		if lit, ok := x.Operand.(*parser.NumberLit); ok {
			idx := c.code.addConstant(Number(-lit.Value))
			c.emit(line, OpLoadConst, idx)
			return
		}
	}
	c.compileExpr(x.Operand)
	switch x.Op {
	case token.Sub:
		c.emit(line, OpNeg)
	case token.Add:
		c.emit(line, OpPlus)
	case token.Not:
		c.emit(line, OpNot)
	case token.BitNot:
		c.emit(line, OpBitNot)
	case token.Typeof:
		c.emit(line, OpTypeof)
	case token.Void:
		c.emit(line, OpLoadUndefined)
	case token.Delete:
		c.emit(line, OpLoadTrue)
	}
}

func (c *Compiler) compileIncDec(x *parser.UnaryExpr) {
	line := c.lineOf(x.Span())
	ident, ok := x.Operand.(*parser.Ident)
	if !ok {
		c.errorf(x.Span(), "invalid left-hand side in increment/decrement")
		return
	}
	post := 0
	if x.Postfix {
		post = 1
	}
	if b, ok := c.scope.resolve(ident.Name); ok {
		op := OpIncLocal
		if x.Op == token.Dec {
			op = OpDecLocal
		}
		c.emit(line, op, b.slot, post)
		return
	}
	// Undeclared name: falls back to the global table. Postfix and prefix
	// both yield the updated value here -- a documented simplification
	// for the uncommon global-increment path (see DESIGN.md).
	c.loadName(x.Span(), ident.Name)
	c.emit(line, OpPush)
	c.push(1)
	c.emit(line, OpLoadConst, c.code.addConstant(Number(1)))
	if x.Op == token.Inc {
		c.emit(line, OpAdd)
	} else {
		c.emit(line, OpSub)
	}
	c.pop(1)
	c.storeName(x.Span(), ident.Name)
}

func (c *Compiler) compileAssign(x *parser.AssignExpr) {
	if x.Op != token.Assign {
		base, ok := compoundOps[x.Op]
		if !ok {
			c.errorf(x.Span(), "unsupported assignment operator %s", x.Op)
			return
		}
		c.compileCompoundAssign(x, base)
		return
	}
	switch target := x.Left.(type) {
	case *parser.Ident:
		c.compileExpr(x.Right)
		c.storeName(target.Span(), target.Name)
	case *parser.MemberExpr:
		c.compileMemberStore(target, func() { c.compileExpr(x.Right) })
	default:
		c.errorf(x.Span(), "invalid left-hand side in assignment")
	}
}

func (c *Compiler) compileCompoundAssign(x *parser.AssignExpr, base token.Token) {
	line := c.lineOf(x.Span())
	op, ok := binaryOps[base]
	if !ok {
		c.errorf(x.Span(), "unsupported assignment operator %s", x.Op)
		return
	}
	switch target := x.Left.(type) {
	case *parser.Ident:
		c.loadName(target.Span(), target.Name)
		c.emit(line, OpPush)
		c.push(1)
		c.compileExpr(x.Right)
		c.emit(line, op)
		c.pop(1)
		c.storeName(target.Span(), target.Name)
	case *parser.MemberExpr:
		c.compileMemberStore(target, func() {
			c.compileMemberLoad(target)
			c.emit(line, OpPush)
			c.push(1)
			c.compileExpr(x.Right)
			c.emit(line, op)
			c.pop(1)
		})
	default:
		c.errorf(x.Span(), "invalid left-hand side in assignment")
	}
}

func (c *Compiler) compileConditional(x *parser.ConditionalExpr) {
	line := c.lineOf(x.Span())
	c.compileExpr(x.Cond)
	elseJump := c.emitJump(line, OpJumpFalse)
	c.compileExpr(x.Then)
	endJump := c.emitJump(line, OpJump)
	c.patchJump(elseJump)
	c.compileExpr(x.Else)
	c.patchJump(endJump)
}

// compileMemberLoad handles both `o.p` and `o[k]` in value (non-assign)
// position.
func (c *Compiler) compileMemberLoad(x *parser.MemberExpr) {
	line := c.lineOf(x.Span())
	c.compileExpr(x.Object)
	c.emit(line, OpPush)
	c.push(1)
	if x.Computed {
		c.compileExpr(x.Property)
		c.emit(line, OpLoadKeyed)
	} else {
		name := x.Property.(*parser.Ident).Name
		idx := c.code.addConstant(String(name))
		c.emit(line, OpLoadNamed, idx)
	}
	c.pop(1)
}

// compileMemberStore compiles `o.p = ...` / `o[k] = ...`, calling
// compileValue to leave the value being assigned in the accumulator once
// the base (and, for computed access, the key) are on the stack -- shared
// by both plain and compound member assignment.
func (c *Compiler) compileMemberStore(x *parser.MemberExpr, compileValue func()) {
	line := c.lineOf(x.Span())
	c.compileExpr(x.Object)
	c.emit(line, OpPush)
	c.push(1)
	if x.Computed {
		c.compileExpr(x.Property)
		c.emit(line, OpPush)
		c.push(1)
		compileValue()
		c.emit(line, OpStoreKeyed)
		c.pop(2)
	} else {
		compileValue()
		name := x.Property.(*parser.Ident).Name
		idx := c.code.addConstant(String(name))
		c.emit(line, OpStoreNamed, idx)
		c.pop(1)
	}
}

// compileCall handles a call `f(...)`, binding `this` when the callee is
// a member expression (spec.md §9 Open Question #2: implicit-slot
// convention, base object pushed alongside the callee).
func (c *Compiler) compileCall(x *parser.CallExpr) {
	line := c.lineOf(x.Span())
	flags := 0
	if member, ok := x.Callee.(*parser.MemberExpr); ok {
		c.compileExpr(member.Object)
		c.emit(line, OpPush) // this
		c.push(1)
		c.emit(line, OpPush) // duplicate for the property load below
		c.push(1)
		if member.Computed {
			c.compileExpr(member.Property)
			c.emit(line, OpLoadKeyed)
		} else {
			name := member.Property.(*parser.Ident).Name
			idx := c.code.addConstant(String(name))
			c.emit(line, OpLoadNamed, idx)
		}
		c.pop(1) // one of the two pushed copies was consumed by the load
		c.emit(line, OpPush) // callee
		c.push(1)
		flags = CallHasThis
	} else {
		c.compileExpr(x.Callee)
		c.emit(line, OpPush)
		c.push(1)
	}
	for _, arg := range x.Args {
		c.compileExpr(arg)
		c.emit(line, OpPush)
		c.push(1)
	}
	c.emit(line, OpCall, len(x.Args), flags)
	extra := 1
	if flags&CallHasThis != 0 {
		extra = 2
	}
	c.pop(len(x.Args) + extra)
}

func (c *Compiler) compileObjectLit(x *parser.ObjectLit) {
	line := c.lineOf(x.Span())
	c.emit(line, OpNewObject)
	tmp := c.allocTemp()
	c.emit(line, OpStoreLocal, tmp)
	for _, prop := range x.Props {
		c.emit(line, OpLoadLocal, tmp)
		c.emit(line, OpPush)
		c.push(1)
		c.compileExpr(prop.Value)
		idx := c.code.addConstant(String(prop.Key))
		c.emit(line, OpStoreNamed, idx)
		c.pop(1)
	}
	c.emit(line, OpLoadLocal, tmp)
	c.freeTemp()
}

func (c *Compiler) compileArrayLit(x *parser.ArrayLit) {
	line := c.lineOf(x.Span())
	for _, el := range x.Elements {
		if el == nil {
			c.emit(line, OpLoadUndefined)
		} else {
			c.compileExpr(el)
		}
		c.emit(line, OpPush)
		c.push(1)
	}
	n := len(x.Elements)
	c.emit(line, OpNewArray, n)
	c.pop(n)
}

// compileFuncLit compiles fn's body into its own CodeObject, added to the
// enclosing code object's constant pool, and returns its index. Nested
// functions never see an enclosing scope (closures over outer frames are
// out of scope): their symbolTable root has no parent, so any name they
// don't declare themselves resolves to the global table, exactly like a
// top-level program.
func (c *Compiler) compileFuncLit(fn *parser.FuncLit) int {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	inner := &Compiler{
		file:   c.file,
		code:   &CodeObject{Name: fn.Name, Arity: len(params), Lines: map[int]int{}},
		scope:  newFunctionScope(nil, params),
		inFunc: true,
		diags:  c.diags,
	}
	inner.hoistVars(fn.Body.Stmts)
	for _, s := range fn.Body.Stmts {
		inner.compileStmt(s)
	}
	inner.emit(inner.lineOf(fn.Body.Span()), OpReturnUndefined)
	inner.code.NumLocals = inner.scope.fn.maxSlot
	inner.code.MaxStack = inner.maxStack
	return c.code.addConstant(inner.code)
}
