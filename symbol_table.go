// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import "github.com/jscore-lang/jscore/token"

// symbolScope tags whether a symbolTable frame is a function boundary or
// an inner block, matching the Fork/Parent scope-stack shape of ugo's
// symbol_table.go, simplified: no free-variable/closure resolution since
// closures over outer frames are an explicit non-goal.
type symbolScope int

const (
	scopeFunction symbolScope = iota
	scopeBlock
)

type binding struct {
	name string
	slot int
	kind token.Token // Var, Let or Const
}

// funcState is shared by every symbolTable belonging to the same function
// body, so that block scopes can recycle slots on exit while the
// function's high-water mark (NumLocals) keeps growing.
type funcState struct {
	nextSlot int
	maxSlot  int
}

// symbolTable is one scope frame: a function scope or a nested block
// scope. Name resolution walks outward through Parent to the function
// boundary, then to Global for anything undeclared.
type symbolTable struct {
	parent   *symbolTable
	scope    symbolScope
	bindings []binding
	fn       *funcState
}

// newFunctionScope starts a fresh function scope with parameters
// pre-bound to slots 0..len(params)-1, per spec.md §4.3.
func newFunctionScope(parent *symbolTable, params []string) *symbolTable {
	st := &symbolTable{parent: parent, scope: scopeFunction, fn: &funcState{}}
	for _, p := range params {
		st.define(token.Var, p)
	}
	return st
}

// newBlockScope pushes a nested block scope sharing the enclosing
// function's slot table.
func newBlockScope(parent *symbolTable) *symbolTable {
	return &symbolTable{parent: parent, scope: scopeBlock, fn: parent.fn}
}

// enclosingFunction walks outward to the nearest function-scope frame,
// which is where `var` bindings hoist to (spec.md §9 Open Question #1).
func (st *symbolTable) enclosingFunction() *symbolTable {
	s := st
	for s.scope != scopeFunction {
		s = s.parent
	}
	return s
}

// declaredInCurrentBlock reports whether name is already bound directly in
// st (not an ancestor).
func (st *symbolTable) declaredInCurrentBlock(name string) (binding, bool) {
	for _, b := range st.bindings {
		if b.name == name {
			return b, true
		}
	}
	return binding{}, false
}

// define binds name in st (for `let`/`const`) or in st's enclosing
// function scope (for `var`, implementing hoisting), allocating a fresh
// slot. It returns an error for a duplicate let/const binding in the same
// block, matching spec.md §7's duplicate-binding compile-error kind.
func (st *symbolTable) define(kind token.Token, name string) error {
	target := st
	if kind == token.Var {
		target = st.enclosingFunction()
	}
	if existing, ok := target.declaredInCurrentBlock(name); ok {
		if kind != token.Var || existing.kind != token.Var {
			return &compileError{Message: "duplicate binding: " + name}
		}
		return nil // re-declaring the same var is allowed
	}
	slot := target.fn.nextSlot
	target.fn.nextSlot++
	if target.fn.nextSlot > target.fn.maxSlot {
		target.fn.maxSlot = target.fn.nextSlot
	}
	target.bindings = append(target.bindings, binding{name: name, slot: slot, kind: kind})
	return nil
}

// resolve looks up name outward from st. ok is false when name is
// undeclared anywhere in the function-nesting chain, meaning it resolves
// to the global scope instead.
func (st *symbolTable) resolve(name string) (binding, bool) {
	for s := st; s != nil; s = s.parent {
		if b, ok := s.declaredInCurrentBlock(name); ok {
			return b, true
		}
	}
	return binding{}, false
}

// closeBlock recycles the slots this block scope allocated back to its
// parent's watermark; NumLocals (fn.maxSlot) is unaffected, matching
// spec.md §4.3's "on block exit the slots are released (the pool's
// max-count remains monotonically increasing)".
func (st *symbolTable) closeBlock(savedNextSlot int) {
	st.fn.nextSlot = savedNextSlot
}
