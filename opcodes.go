// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

// Opcode identifies a single accumulator-VM instruction.
type Opcode = byte

// The instruction set. Every instruction implicitly reads and/or writes
// the accumulator register; operands are either indices into a code
// object's constant pool or local-slot table, or signed jump offsets.
const (
	OpNoOp Opcode = iota

	// Loads/stores.
	OpLoadConst  // load constant[idx] -> acc
	OpLoadLocal  // load local[idx] -> acc
	OpStoreLocal // acc -> local[idx]
	OpLoadGlobal // load global[name const idx] -> acc
	OpStoreGlobal // acc -> global[name const idx]
	OpLoadUndefined
	OpLoadNull
	OpLoadTrue
	OpLoadFalse
	OpLoadThis

	// Stack shuffles.
	OpPush // push acc
	OpPop  // pop -> acc

	// Binary arithmetic: pop left, combine with acc (right), acc = result.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow

	// Unary.
	OpNeg    // acc = -acc
	OpPlus   // acc = +acc (numeric coercion)
	OpNot    // acc = !acc
	OpBitNot // acc = ~acc
	OpTypeof // acc = typeof acc
	OpIncLocal // ++ on a named local; operands: slot, isPost
	OpDecLocal // -- on a named local; operands: slot, isPost

	// Comparison.
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq

	// Logical (non-short-circuit combinators; the compiler lowers && and
	// || to branches, not to these opcodes -- see compileLogical in
	// compiler_nodes.go).
	OpLogicalAnd
	OpLogicalOr

	// Bitwise.
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr

	// Control flow. Offsets are relative to the instruction following the
	// jump.
	OpJump
	OpJumpFalse
	OpJumpTrue
	OpJumpNullish

	// Calls/returns.
	OpCall // operands: argCount, flags (bit0 = hasThis)
	OpReturn
	OpReturnUndefined

	// Object / array / closures.
	OpNewObject
	OpNewArray // operand: element count, pops that many
	OpNewClosure

	// Property access.
	OpLoadNamed  // operand: name const idx; pops object from stack
	OpStoreNamed // operand: name const idx; stack: [object, value=acc]
	OpLoadKeyed  // acc=key, pops object from stack
	OpStoreKeyed // stack: [object, key], acc=value
)

// opcodeNames is the disassembler mnemonic table.
var opcodeNames = [...]string{
	OpNoOp:            "NOOP",
	OpLoadConst:       "LOADCONST",
	OpLoadLocal:       "LOADLOCAL",
	OpStoreLocal:      "STORELOCAL",
	OpLoadGlobal:      "LOADGLOBAL",
	OpStoreGlobal:     "STOREGLOBAL",
	OpLoadUndefined:   "LOADUNDEF",
	OpLoadNull:        "LOADNULL",
	OpLoadTrue:        "LOADTRUE",
	OpLoadFalse:       "LOADFALSE",
	OpLoadThis:        "LOADTHIS",
	OpPush:            "PUSH",
	OpPop:             "POP",
	OpAdd:             "ADD",
	OpSub:             "SUB",
	OpMul:             "MUL",
	OpDiv:             "DIV",
	OpMod:             "MOD",
	OpPow:             "POW",
	OpNeg:             "NEG",
	OpPlus:            "PLUS",
	OpNot:             "NOT",
	OpBitNot:          "BITNOT",
	OpTypeof:          "TYPEOF",
	OpIncLocal:        "INCLOCAL",
	OpDecLocal:        "DECLOCAL",
	OpEqual:           "EQUAL",
	OpNotEqual:        "NOTEQUAL",
	OpStrictEqual:     "SEQUAL",
	OpStrictNotEqual:  "SNOTEQUAL",
	OpLess:            "LESS",
	OpGreater:         "GREATER",
	OpLessEq:          "LESSEQ",
	OpGreaterEq:       "GREATEREQ",
	OpLogicalAnd:      "LAND",
	OpLogicalOr:       "LOR",
	OpBitAnd:          "BITAND",
	OpBitOr:           "BITOR",
	OpBitXor:          "BITXOR",
	OpShl:             "SHL",
	OpShr:             "SHR",
	OpUShr:            "USHR",
	OpJump:            "JUMP",
	OpJumpFalse:       "JUMPFALSE",
	OpJumpTrue:        "JUMPTRUE",
	OpJumpNullish:     "JUMPNULLISH",
	OpCall:            "CALL",
	OpReturn:          "RETURN",
	OpReturnUndefined: "RETURNUNDEF",
	OpNewObject:       "NEWOBJECT",
	OpNewArray:        "NEWARRAY",
	OpNewClosure:      "NEWCLOSURE",
	OpLoadNamed:       "LOADNAMED",
	OpStoreNamed:      "STORENAMED",
	OpLoadKeyed:       "LOADKEYED",
	OpStoreKeyed:      "STOREKEYED",
}

// OpcodeName returns the mnemonic for op, or "OP(?)" if unknown.
func OpcodeName(op Opcode) string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "OP(?)"
}

// opcodeOperands lists, for each opcode, the byte-width of each of its
// operands in emission order. Two-byte operands are constant-pool indices,
// jump offsets and OpNewArray's element count; one-byte operands are small
// counts/flags/slots.
var opcodeOperands = [...][]int{
	OpNoOp:            {},
	OpLoadConst:       {2},
	OpLoadLocal:       {1},
	OpStoreLocal:      {1},
	OpLoadGlobal:      {2},
	OpStoreGlobal:     {2},
	OpLoadUndefined:   {},
	OpLoadNull:        {},
	OpLoadTrue:        {},
	OpLoadFalse:       {},
	OpLoadThis:        {},
	OpPush:            {},
	OpPop:             {},
	OpAdd:             {},
	OpSub:             {},
	OpMul:             {},
	OpDiv:             {},
	OpMod:             {},
	OpPow:             {},
	OpNeg:             {},
	OpPlus:            {},
	OpNot:             {},
	OpBitNot:          {},
	OpTypeof:          {},
	OpIncLocal:        {1, 1}, // slot, isPost (0/1)
	OpDecLocal:        {1, 1},
	OpEqual:           {},
	OpNotEqual:        {},
	OpStrictEqual:     {},
	OpStrictNotEqual:  {},
	OpLess:            {},
	OpGreater:         {},
	OpLessEq:          {},
	OpGreaterEq:       {},
	OpLogicalAnd:      {},
	OpLogicalOr:       {},
	OpBitAnd:          {},
	OpBitOr:           {},
	OpBitXor:          {},
	OpShl:             {},
	OpShr:             {},
	OpUShr:            {},
	OpJump:            {2},
	OpJumpFalse:       {2},
	OpJumpTrue:        {2},
	OpJumpNullish:     {2},
	OpCall:            {1, 1}, // argCount, flags
	OpReturn:          {},
	OpReturnUndefined: {},
	OpNewObject:       {},
	OpNewArray:        {2},
	OpNewClosure:      {2}, // constant index of the inner code object
	OpLoadNamed:       {2},
	OpStoreNamed:      {2},
	OpLoadKeyed:       {},
	OpStoreKeyed:      {},
}

// CallHasThis is the OpCall flags bit indicating a method call whose base
// object must be bound to the callee's `this`.
const CallHasThis = 1

// readOperands decodes an instruction's operands starting at ins[0], and
// returns them together with the number of operand bytes consumed. dst is
// reused when it has enough capacity, mirroring ugo's ReadOperands.
func readOperands(widths []int, ins []byte, dst []int) ([]int, int) {
	dst = dst[:0]
	offset := 0
	for _, w := range widths {
		switch w {
		case 1:
			dst = append(dst, int(ins[offset]))
		case 2:
			dst = append(dst, int(ins[offset])<<8|int(ins[offset+1]))
		}
		offset += w
	}
	return dst, offset
}

func instrWidth(widths []int) int {
	n := 1
	for _, w := range widths {
		n += w
	}
	return n
}
