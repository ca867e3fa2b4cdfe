// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// CodeObject is the immutable unit of compilation for one function body or
// one top-level program: its instructions, its constant pool and the
// metadata the VM needs to run it. Grounded on ugo's CompiledFunction in
// bytecode.go, generalized to carry a debug line map (spec.md §3.6).
type CodeObject struct {
	Name         string
	Arity        int
	NumLocals    int
	MaxStack     int
	Instructions []byte
	Constants    []Value
	// Lines maps an instruction's start offset to its source line, for
	// every instruction the compiler emitted.
	Lines map[int]int
}

// addConstant appends v to the pool, deduplicating by the rules spec.md
// §4.3 requires: numbers dedupe bit-exactly (math.Float64bits), so +0/-0
// stay distinct and NaN bit-patterns coalesce; strings/bools/null/
// undefined dedupe by value; nested code objects are never deduplicated.
func (c *CodeObject) addConstant(v Value) int {
	for i, existing := range c.Constants {
		if constantsEqual(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func constantsEqual(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av.bits() == bv.bits()
	case String:
		bv, ok := b.(String)
		return ok && string(av) == string(bv)
	case Bool:
		bv, ok := b.(Bool)
		return ok && bool(av) == bool(bv)
	case Null:
		_, ok := b.(Null)
		return ok
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	default:
		return false
	}
}

// Fprint renders the disassembly of c in the format spec.md §6.5 mandates:
// "NNNN  OPCODE  OPERAND  ; inline", four-digit zero-padded offsets, and
// jump targets labeled L0, L1, ... in instruction order.
func (c *CodeObject) Fprint(w io.Writer) {
	labels := jumpLabels(c.Instructions)

	offset := 0
	for offset < len(c.Instructions) {
		if name, ok := labels[offset]; ok {
			fmt.Fprintf(w, "%s:\n", name)
		}
		op := c.Instructions[offset]
		widths := opcodeOperands[op]
		operands, _ := readOperands(widths, c.Instructions[offset+1:], nil)

		operandStr := ""
		inline := ""
		switch len(operands) {
		case 0:
		case 1:
			operandStr = fmt.Sprintf("%d", operands[0])
		default:
			parts := make([]string, len(operands))
			for i, v := range operands {
				parts[i] = fmt.Sprintf("%d", v)
			}
			operandStr = strings.Join(parts, ",")
		}

		switch op {
		case OpLoadConst:
			inline = c.Constants[operands[0]].String()
		case OpLoadGlobal, OpStoreGlobal, OpLoadNamed, OpStoreNamed:
			inline = c.Constants[operands[0]].String()
		case OpNewClosure:
			inline = fmt.Sprintf("fn %s", constFuncName(c.Constants[operands[0]]))
		case OpJump, OpJumpFalse, OpJumpTrue, OpJumpNullish:
			target := offset + instrWidth(widths) + signedOffset(operands[0])
			if lbl, ok := labels[target]; ok {
				inline = lbl
			}
		}

		if inline != "" {
			fmt.Fprintf(w, "%04d  %-11s %-8s ; %s\n", offset, OpcodeName(op), operandStr, inline)
		} else {
			fmt.Fprintf(w, "%04d  %-11s %s\n", offset, OpcodeName(op), operandStr)
		}
		offset += instrWidth(widths)
	}
}

func constFuncName(v Value) string {
	if fn, ok := v.(*CodeObject); ok {
		if fn.Name == "" {
			return "<anonymous>"
		}
		return fn.Name
	}
	return "?"
}

// signedOffset interprets a raw 16-bit jump operand as a signed offset;
// the compiler emits it via unsigned 2-byte encoding to reuse the constant
// pool's operand width, so this reverses the two's-complement encoding.
func signedOffset(raw int) int {
	v := int16(raw)
	return int(v)
}

// jumpLabels scans the instruction stream once to find every distinct jump
// target and number them L0, L1, ... in instruction (i.e. ascending
// target-offset) order, per spec.md §6.5.
func jumpLabels(ins []byte) map[int]string {
	targets := map[int]bool{}
	offset := 0
	for offset < len(ins) {
		op := ins[offset]
		widths := opcodeOperands[op]
		operands, _ := readOperands(widths, ins[offset+1:], nil)
		w := instrWidth(widths)
		switch op {
		case OpJump, OpJumpFalse, OpJumpTrue, OpJumpNullish:
			targets[offset+w+signedOffset(operands[0])] = true
		}
		offset += w
	}
	sorted := make([]int, 0, len(targets))
	for t := range targets {
		sorted = append(sorted, t)
	}
	sort.Ints(sorted)
	labels := make(map[int]string, len(sorted))
	for i, t := range sorted {
		labels[t] = fmt.Sprintf("L%d", i)
	}
	return labels
}

// LineAt returns the source line recorded for the instruction starting at
// offset, or 0 if none was recorded.
func (c *CodeObject) LineAt(offset int) int {
	return c.Lines[offset]
}
