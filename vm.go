// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"context"
	"fmt"
	"math"
)

// Options configures a VM. Grounded on ugo's CompilerOptions/RunOpts
// pattern in eval.go: a small struct of tunables rather than a config
// file, since a VM library has nothing else worth externalizing.
type Options struct {
	// MaxCallDepth bounds the call-frame stack; exceeding it raises
	// ErrStackOverflow (spec.md §4.4 Limits).
	MaxCallDepth int
}

// DefaultOptions returns the Options a bare Execute call uses.
func DefaultOptions() Options {
	return Options{MaxCallDepth: 1024}
}

// frame is one call-frame: the running code object, its instruction
// pointer, and the stack region ([base, base+NumLocals)) holding its
// locals, per spec.md §4.4.
type frame struct {
	code *CodeObject
	ip   int
	base int
	this Value
	line int
}

// VM executes compiled code objects on an accumulator register, an
// operand stack shared with locals, and a call-frame stack. Grounded on
// ugo's vm.go dispatch-loop shape (switch on opcode byte, ip/frame
// fields), with the opcode semantics replaced throughout by the
// accumulator-oriented behavior original_source's machine.rs specifies.
type VM struct {
	opts    Options
	stack   []Value
	frames  []*frame
	globals map[string]Value
	acc     Value

	operandBuf []int
}

// NewVM creates a VM with builtins (print, console, isNaN, parseInt, ...)
// pre-registered in the global table, per spec.md §4.4's "at minimum a
// printing primitive" requirement.
func NewVM(opts Options) *VM {
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultOptions().MaxCallDepth
	}
	vm := &VM{opts: opts, globals: make(map[string]Value)}
	registerBuiltins(vm.globals)
	return vm
}

// Run executes code to completion (or to the first runtime error / ctx
// cancellation) and returns the final accumulator value -- the value of
// the last top-level expression statement, by convention (spec.md §4.4).
func (vm *VM) Run(ctx context.Context, code *CodeObject) (Value, error) {
	vm.stack = make([]Value, code.NumLocals, code.NumLocals+code.MaxStack+8)
	for i := range vm.stack {
		vm.stack[i] = UndefinedValue
	}
	vm.frames = []*frame{{code: code, base: 0, this: UndefinedValue}}
	vm.acc = UndefinedValue

	result, err := vm.dispatch(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) curFrame() *frame { return vm.frames[len(vm.frames)-1] }

// dispatch is the tight instruction loop. Every opcode handler updates
// acc, the stack, the instruction pointer or the frame stack, then loops.
func (vm *VM) dispatch(ctx context.Context) (Value, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := vm.curFrame()
		ins := f.code.Instructions
		if f.ip >= len(ins) {
			// Fell off the end without an explicit return.
			vm.acc = UndefinedValue
			if len(vm.frames) == 1 {
				return vm.acc, nil
			}
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack = vm.stack[:f.base]
			continue
		}
		op := ins[f.ip]
		widths := opcodeOperands[op]
		operands, read := readOperands(widths, ins[f.ip+1:], vm.operandBuf)
		vm.operandBuf = operands
		f.ip += 1 + read
		if line, ok := f.code.Lines[f.ip-1-read]; ok {
			f.line = line
		}

		switch op {
		case OpNoOp:

		case OpLoadConst:
			vm.acc = f.code.Constants[operands[0]]
		case OpLoadLocal:
			vm.acc = vm.stack[f.base+operands[0]]
		case OpStoreLocal:
			vm.stack[f.base+operands[0]] = vm.acc
		case OpLoadGlobal:
			name := string(f.code.Constants[operands[0]].(String))
			v, ok := vm.globals[name]
			if !ok {
				return nil, vm.runtimeErr(f, NewReferenceError(name))
			}
			vm.acc = v
		case OpStoreGlobal:
			name := string(f.code.Constants[operands[0]].(String))
			vm.globals[name] = vm.acc
		case OpLoadUndefined:
			vm.acc = UndefinedValue
		case OpLoadNull:
			vm.acc = NullValue
		case OpLoadTrue:
			vm.acc = TrueValue
		case OpLoadFalse:
			vm.acc = FalseValue
		case OpLoadThis:
			vm.acc = f.this

		case OpPush:
			vm.push(vm.acc)
		case OpPop:
			vm.acc = vm.pop()

		case OpAdd:
			left := vm.pop()
			vm.acc = add(left, vm.acc)
		case OpSub:
			left := vm.pop()
			vm.acc = Number(toNumber(left) - toNumber(vm.acc))
		case OpMul:
			left := vm.pop()
			vm.acc = Number(toNumber(left) * toNumber(vm.acc))
		case OpDiv:
			left := vm.pop()
			vm.acc = Number(toNumber(left) / toNumber(vm.acc))
		case OpMod:
			left := vm.pop()
			vm.acc = Number(math.Mod(toNumber(left), toNumber(vm.acc)))
		case OpPow:
			left := vm.pop()
			vm.acc = Number(math.Pow(toNumber(left), toNumber(vm.acc)))

		case OpNeg:
			vm.acc = Number(-toNumber(vm.acc))
		case OpPlus:
			vm.acc = Number(toNumber(vm.acc))
		case OpNot:
			vm.acc = boolValue(vm.acc.IsFalsy())
		case OpBitNot:
			vm.acc = Number(float64(^toInt32(vm.acc)))
		case OpTypeof:
			vm.acc = String(vm.acc.TypeName())

		case OpIncLocal, OpDecLocal:
			slot, post := operands[0], operands[1]
			old := toNumber(vm.stack[f.base+slot])
			delta := 1.0
			if op == OpDecLocal {
				delta = -1.0
			}
			newV := old + delta
			vm.stack[f.base+slot] = Number(newV)
			if post == 1 {
				vm.acc = Number(old)
			} else {
				vm.acc = Number(newV)
			}

		case OpEqual:
			left := vm.pop()
			vm.acc = boolValue(looseEqual(left, vm.acc))
		case OpNotEqual:
			left := vm.pop()
			vm.acc = boolValue(!looseEqual(left, vm.acc))
		case OpStrictEqual:
			left := vm.pop()
			vm.acc = boolValue(strictEqual(left, vm.acc))
		case OpStrictNotEqual:
			left := vm.pop()
			vm.acc = boolValue(!strictEqual(left, vm.acc))
		case OpLess:
			left := vm.pop()
			vm.acc = boolValue(compareOp("<", left, vm.acc))
		case OpGreater:
			left := vm.pop()
			vm.acc = boolValue(compareOp(">", left, vm.acc))
		case OpLessEq:
			left := vm.pop()
			vm.acc = boolValue(compareOp("<=", left, vm.acc))
		case OpGreaterEq:
			left := vm.pop()
			vm.acc = boolValue(compareOp(">=", left, vm.acc))

		case OpLogicalAnd:
			left := vm.pop()
			if left.IsFalsy() {
				vm.acc = left
			}
		case OpLogicalOr:
			left := vm.pop()
			if !left.IsFalsy() {
				vm.acc = left
			}

		case OpBitAnd:
			left := vm.pop()
			vm.acc = Number(float64(toInt32(left) & toInt32(vm.acc)))
		case OpBitOr:
			left := vm.pop()
			vm.acc = Number(float64(toInt32(left) | toInt32(vm.acc)))
		case OpBitXor:
			left := vm.pop()
			vm.acc = Number(float64(toInt32(left) ^ toInt32(vm.acc)))
		case OpShl:
			left := vm.pop()
			vm.acc = Number(float64(toInt32(left) << (toUint32(vm.acc) & 31)))
		case OpShr:
			left := vm.pop()
			vm.acc = Number(float64(toInt32(left) >> (toUint32(vm.acc) & 31)))
		case OpUShr:
			left := vm.pop()
			vm.acc = Number(float64(toUint32(left) >> (toUint32(vm.acc) & 31)))

		case OpJump:
			f.ip = f.ip + signedOffset(operands[0])
		case OpJumpFalse:
			if vm.acc.IsFalsy() {
				f.ip = f.ip + signedOffset(operands[0])
			}
		case OpJumpTrue:
			if !vm.acc.IsFalsy() {
				f.ip = f.ip + signedOffset(operands[0])
			}
		case OpJumpNullish:
			if isNullish(vm.acc) {
				f.ip = f.ip + signedOffset(operands[0])
			}

		case OpCall:
			if err := vm.call(f, operands[0], operands[1]); err != nil {
				return nil, vm.runtimeErr(f, err)
			}
			continue // vm.call may have pushed a new frame; re-read it

		case OpReturn:
			if err := vm.doReturn(f); err != nil {
				return nil, err
			}
			if len(vm.frames) == 0 {
				return vm.acc, nil
			}
			continue
		case OpReturnUndefined:
			vm.acc = UndefinedValue
			if err := vm.doReturn(f); err != nil {
				return nil, err
			}
			if len(vm.frames) == 0 {
				return vm.acc, nil
			}
			continue

		case OpNewObject:
			vm.acc = NewObject()
		case OpNewArray:
			n := operands[0]
			elems := make([]Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			vm.acc = NewArray(elems)
		case OpNewClosure:
			code := f.code.Constants[operands[0]].(*CodeObject)
			vm.acc = &Function{Code: code}

		case OpLoadNamed:
			obj := vm.pop()
			name := string(f.code.Constants[operands[0]].(String))
			v, err := vm.getProperty(obj, name)
			if err != nil {
				return nil, vm.runtimeErr(f, err)
			}
			vm.acc = v
		case OpStoreNamed:
			obj := vm.pop()
			name := string(f.code.Constants[operands[0]].(String))
			if err := vm.setProperty(obj, name, vm.acc); err != nil {
				return nil, vm.runtimeErr(f, err)
			}
		case OpLoadKeyed:
			obj := vm.pop()
			name := toStr(vm.acc)
			v, err := vm.getIndexed(obj, vm.acc, name)
			if err != nil {
				return nil, vm.runtimeErr(f, err)
			}
			vm.acc = v
		case OpStoreKeyed:
			key := vm.pop()
			obj := vm.pop()
			if err := vm.setIndexed(obj, key, vm.acc); err != nil {
				return nil, vm.runtimeErr(f, err)
			}

		default:
			return nil, vm.runtimeErr(f, NewTypeError("unknown opcode %d", op))
		}
	}
}

func isNullish(v Value) bool {
	switch v.(type) {
	case Null, Undefined:
		return true
	}
	return false
}

func (vm *VM) runtimeErr(f *frame, err error) error {
	return fmt.Errorf("%w (line %d)", err, f.line)
}

// call implements spec.md §4.4's Calls contract: pop n args, pop callee
// (and, when flags carries CallHasThis, the base object beneath it),
// dispatch to a bytecode closure (new frame) or a builtin (native call).
func (vm *VM) call(f *frame, argCount, flags int) error {
	args := make([]Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	callee := vm.pop()
	this := Value(UndefinedValue)
	if flags&CallHasThis != 0 {
		this = vm.pop()
	}

	switch fn := callee.(type) {
	case *Function:
		if len(vm.frames) >= vm.opts.MaxCallDepth {
			return ErrStackOverflow
		}
		base := len(vm.stack)
		locals := make([]Value, fn.Code.NumLocals)
		for i := range locals {
			if i < fn.Code.Arity && i < len(args) {
				locals[i] = args[i]
			} else {
				locals[i] = UndefinedValue
			}
		}
		vm.stack = append(vm.stack, locals...)
		vm.frames = append(vm.frames, &frame{code: fn.Code, base: base, this: this})
		return nil
	case *Builtin:
		v, err := fn.Fn(args)
		if err != nil {
			return err
		}
		vm.acc = v
		return nil
	default:
		return ErrNotCallable
	}
}

// doReturn pops the current frame, restoring the caller's stack to its
// depth at the call site (spec.md §4.4 Returns / §8 property 5, Stack
// invariance).
func (vm *VM) doReturn(f *frame) error {
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:f.base]
	return nil
}

func (vm *VM) getProperty(obj Value, name string) (Value, error) {
	switch o := obj.(type) {
	case *Object:
		return o.Get(name), nil
	case *Array:
		if name == "length" {
			return Number(o.Length()), nil
		}
		return UndefinedValue, nil
	case String:
		if name == "length" {
			return Number(len([]rune(string(o)))), nil
		}
		return UndefinedValue, nil
	case *Function, *Builtin:
		return UndefinedValue, nil
	default:
		return nil, ErrNotAnObject
	}
}

func (vm *VM) setProperty(obj Value, name string, v Value) error {
	o, ok := obj.(*Object)
	if !ok {
		return ErrNotAnObject
	}
	o.Set(name, v)
	return nil
}

func (vm *VM) getIndexed(obj, key Value, name string) (Value, error) {
	if arr, ok := obj.(*Array); ok {
		if idx, isInt := numericIndex(key); isInt {
			return arr.Get(idx), nil
		}
	}
	return vm.getProperty(obj, name)
}

func (vm *VM) setIndexed(obj, key, v Value) error {
	if arr, ok := obj.(*Array); ok {
		if idx, isInt := numericIndex(key); isInt {
			arr.Set(idx, v)
			return nil
		}
	}
	return vm.setProperty(obj, toStr(key), v)
}

func numericIndex(key Value) (int, bool) {
	n, ok := key.(Number)
	if !ok {
		return 0, false
	}
	f := float64(n)
	i := int(f)
	if float64(i) != f || i < 0 {
		return 0, false
	}
	return i, true
}

