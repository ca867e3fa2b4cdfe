// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"github.com/jscore-lang/jscore/parser"
	"github.com/jscore-lang/jscore/token"
)

// loopCtx tracks the pending jump-patch positions for one active loop, so
// that `break`/`continue` inside it can be resolved once the loop's end
// and continue-point are known. Grounded on ugo's compiler_nodes.go
// pattern of "emit placeholder, push the position, patch later", extended
// with two stacks (one per keyword) as spec.md §4.3 requires for correct
// nesting.
type loopCtx struct {
	breakPatches    []int
	continuePatches []int
}

// Compiler lowers one syntax tree (a whole program, or one function body)
// into a CodeObject. Nested function literals compile recursively via
// compileFuncLit, each with its own Compiler sharing the same file and
// diagnostics sink.
type Compiler struct {
	file  *token.SourceFile
	code  *CodeObject
	scope *symbolTable
	loops []loopCtx

	curStack int
	maxStack int
	inFunc   bool // false only for the outermost top-level compiler

	diags *token.Diagnostics
}

// Compile compiles prog into a top-level CodeObject.
func Compile(file *token.SourceFile, prog *parser.Program) (*CodeObject, token.Diagnostics) {
	var diags token.Diagnostics
	c := &Compiler{
		file:  file,
		code:  &CodeObject{Name: "<main>", Lines: map[int]int{}},
		scope: newFunctionScope(nil, nil),
		diags: &diags,
	}
	c.hoistVars(programStmts(prog))
	for _, s := range prog.Stmts {
		c.compileStmt(s)
	}
	// The accumulator already holds the last expression statement's value
	// (spec.md §4.4); OpReturn yields it as-is. OpReturnUndefined would
	// clobber it, which is right for a function falling off its body
	// without a `return`, but wrong for the top-level program.
	c.emit(0, OpReturn)
	c.code.NumLocals = c.scope.fn.maxSlot
	c.code.MaxStack = c.maxStack
	return c.code, diags
}

func programStmts(p *parser.Program) []parser.Stmt { return p.Stmts }

func (c *Compiler) errorf(sp token.Span, format string, args ...interface{}) {
	c.diags.Add(token.Compile, c.file, sp, format, args...)
}

func (c *Compiler) lineOf(sp token.Span) int {
	return c.file.Position(sp.Begin).Line
}

// ---- emission primitives -------------------------------------------------

// emit appends one instruction and updates the debug line map. It does not
// touch stack accounting -- callers track push/pop explicitly around each
// call site, since the net effect of OpCall/OpNewArray/etc depends on an
// operand value known only at the call site.
func (c *Compiler) emit(line int, op Opcode, args ...int) int {
	pos := len(c.code.Instructions)
	c.code.Instructions = append(c.code.Instructions, op)
	widths := opcodeOperands[op]
	for i, w := range widths {
		v := 0
		if i < len(args) {
			v = args[i]
		}
		switch w {
		case 1:
			c.code.Instructions = append(c.code.Instructions, byte(v))
		case 2:
			uv := uint16(v)
			c.code.Instructions = append(c.code.Instructions, byte(uv>>8), byte(uv&0xFF))
		}
	}
	c.code.Lines[pos] = line
	return pos
}

// emitJump emits a jump-family instruction with a placeholder offset and
// returns its instruction start position, to be resolved by patchJump.
func (c *Compiler) emitJump(line int, op Opcode) int {
	return c.emit(line, op, 0xFFFF)
}

// patchJump backfills the relative offset of the jump instruction starting
// at pos so that it lands on the current end of the instruction stream.
func (c *Compiler) patchJump(pos int) {
	target := len(c.code.Instructions)
	rel := target - (pos + 3) // offset is relative to the instruction after the jump
	uv := uint16(int16(rel))
	c.code.Instructions[pos+1] = byte(uv >> 8)
	c.code.Instructions[pos+2] = byte(uv & 0xFF)
}

// patchJumpTo backfills pos to jump to the explicit target offset (used
// for backward jumps, e.g. a loop's jump back to its head).
func (c *Compiler) patchJumpTo(pos, target int) {
	rel := target - (pos + 3)
	uv := uint16(int16(rel))
	c.code.Instructions[pos+1] = byte(uv >> 8)
	c.code.Instructions[pos+2] = byte(uv & 0xFF)
}

func (c *Compiler) here() int { return len(c.code.Instructions) }

// push/pop track the operand stack's current depth so MaxStack can be
// derived, per spec.md §4.3's stack-depth accounting requirement.
func (c *Compiler) push(n int) {
	c.curStack += n
	if c.curStack > c.maxStack {
		c.maxStack = c.curStack
	}
}

func (c *Compiler) pop(n int) { c.curStack -= n }

// ---- scope helpers --------------------------------------------------------

func (c *Compiler) enterBlock() (*symbolTable, int) {
	saved := c.scope.fn.nextSlot
	c.scope = newBlockScope(c.scope)
	return c.scope, saved
}

func (c *Compiler) exitBlock(saved int) {
	c.scope.closeBlock(saved)
	c.scope = c.scope.parent
}

// hoistVars implements spec.md §9 Open Question #1: `var` declarations
// hoist to the nearest enclosing function scope, before any statement in
// that function body executes. It walks the body once, defining every
// `var` name it finds (without descending into nested function literals,
// whose own hoisting pass runs independently when they are compiled).
func (c *Compiler) hoistVars(stmts []parser.Stmt) {
	for _, s := range stmts {
		c.hoistVarsStmt(s)
	}
}

func (c *Compiler) hoistVarsStmt(s parser.Stmt) {
	switch st := s.(type) {
	case *parser.VarDecl:
		if st.Kind == token.Var {
			for _, n := range st.Names {
				if err := c.scope.define(token.Var, n.Name); err != nil {
					c.errorf(n.Span(), "%s", err.Error())
				}
			}
		}
	case *parser.BlockStmt:
		c.hoistVars(st.Stmts)
	case *parser.IfStmt:
		c.hoistVarsStmt(st.Then)
		if st.Else != nil {
			c.hoistVarsStmt(st.Else)
		}
	case *parser.WhileStmt:
		c.hoistVarsStmt(st.Body)
	case *parser.ForStmt:
		if st.Init != nil {
			c.hoistVarsStmt(st.Init)
		}
		c.hoistVarsStmt(st.Body)
	}
	// FuncDeclStmt intentionally does not hoist a local binding for its own
	// name: a nested function's body compiles with no parent scope (no
	// closures over outer frames), so the only name a function can call
	// itself by -- or that a sibling top-level function can call it by --
	// is one that resolves to the global table from every scope. storeName
	// falls through to OpStoreGlobal for any name never defined in a
	// scope, so leaving the name undefined here is what makes
	// self-/mutual-recursion work; see compileStmt's FuncDeclStmt case.
}
