// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"math"
	"strconv"
	"strings"
)

// toNumber coerces v to a float64 following the source language's usual
// rules for the subset spec.md §4.4 covers: numbers pass through, booleans
// become 0/1, null becomes 0, undefined and non-numeric strings become
// NaN, numeric strings parse, objects/arrays/functions become NaN.
func toNumber(v Value) float64 {
	switch t := v.(type) {
	case Number:
		return float64(t)
	case Bool:
		if t {
			return 1
		}
		return 0
	case Null:
		return 0
	case Undefined:
		return math.NaN()
	case String:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// toStr coerces v to its string representation for `+` concatenation and
// for display, using each Value's own String().
func toStr(v Value) string { return v.String() }

// toInt32 coerces v to a 32-bit signed integer per IEEE-754 ToInt32,
// spec.md §4.4's "bitwise operators coerce operands to 32-bit integers".
func toInt32(v Value) int32 {
	f := toNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func toUint32(v Value) uint32 {
	return uint32(toInt32(v))
}

// isString reports whether v is a String value.
func isString(v Value) bool {
	_, ok := v.(String)
	return ok
}

// add implements `+`: string concatenation if either operand is a string,
// otherwise numeric addition, per spec.md §4.4.
func add(left, right Value) Value {
	if isString(left) || isString(right) {
		return String(toStr(left) + toStr(right))
	}
	return Number(toNumber(left) + toNumber(right))
}

// looseEqual implements `==`/`!=` cross-type coercion between number and
// string; same-tag values compare by identity/value.
func looseEqual(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		switch bv := b.(type) {
		case Number:
			return float64(av) == float64(bv)
		case String, Bool:
			return float64(av) == toNumber(b)
		case Null, Undefined:
			return false
		}
	case String:
		switch b.(type) {
		case String:
			return av == b.(String)
		case Number, Bool:
			return toNumber(a) == toNumber(b)
		case Null, Undefined:
			return false
		}
	case Bool:
		switch b.(type) {
		case Bool:
			return av == b.(Bool)
		default:
			return toNumber(a) == toNumber(b)
		}
	case Null:
		switch b.(type) {
		case Null, Undefined:
			return true
		default:
			return false
		}
	case Undefined:
		switch b.(type) {
		case Null, Undefined:
			return true
		default:
			return false
		}
	}
	return strictEqual(a, b)
}

// strictEqual implements `===`: same tag required, reference identity for
// objects/arrays/functions.
func strictEqual(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && float64(av) == float64(bv)
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Null:
		_, ok := b.(Null)
		return ok
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case *Object:
		bv, ok := b.(*Object)
		return ok && av == bv
	case *Array:
		bv, ok := b.(*Array)
		return ok && av == bv
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	case *Builtin:
		bv, ok := b.(*Builtin)
		return ok && av == bv
	}
	return false
}

// compareOp evaluates a relational operator. If both operands are strings,
// comparison is lexicographic; otherwise both coerce to number.
func compareOp(op string, left, right Value) bool {
	if isString(left) && isString(right) {
		l, r := string(left.(String)), string(right.(String))
		switch op {
		case "<":
			return l < r
		case ">":
			return l > r
		case "<=":
			return l <= r
		case ">=":
			return l >= r
		}
	}
	l, r := toNumber(left), toNumber(right)
	if math.IsNaN(l) || math.IsNaN(r) {
		return false
	}
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	}
	return false
}
