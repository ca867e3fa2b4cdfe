// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// registerBuiltins populates the global table with the native functions
// spec.md §4.4 requires "at minimum a printing primitive", supplemented
// with the runtime helpers the original prototype's builtins.rs shipped:
// print, console (a real object this time, see below), isNaN, isFinite,
// parseInt and parseFloat.
func registerBuiltins(globals map[string]Value) {
	globals["print"] = &Builtin{Name: "print", Fn: builtinPrint}
	globals["isNaN"] = &Builtin{Name: "isNaN", Fn: builtinIsNaN}
	globals["isFinite"] = &Builtin{Name: "isFinite", Fn: builtinIsFinite}
	globals["parseInt"] = &Builtin{Name: "parseInt", Fn: builtinParseInt}
	globals["parseFloat"] = &Builtin{Name: "parseFloat", Fn: builtinParseFloat}
	globals["console"] = newConsoleObject()
}

// newConsoleObject builds a real console object whose methods are
// callable properties, replacing the prototype's flat "console.log"
// name (a workaround for an evaluator with no member access) and its
// Undefined placeholders for error/warn/info/debug -- our object model
// and OpLoadNamed/OpCall make a genuine console.log(...) reachable, so
// every one of the prototype's five methods gets a real implementation.
func newConsoleObject() *Object {
	console := NewObject()
	log := &Builtin{Name: "log", Fn: builtinPrint}
	console.Set("log", log)
	console.Set("info", log)
	console.Set("debug", log)
	console.Set("warn", &Builtin{Name: "warn", Fn: builtinWarn})
	console.Set("error", &Builtin{Name: "error", Fn: builtinWarn})
	return console
}

func joinArgs(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

func builtinPrint(args []Value) (Value, error) {
	fmt.Fprintln(os.Stdout, joinArgs(args))
	return UndefinedValue, nil
}

func builtinWarn(args []Value) (Value, error) {
	fmt.Fprintln(os.Stderr, joinArgs(args))
	return UndefinedValue, nil
}

// builtinIsNaN mirrors original_source's is_nan: no argument is treated
// as NaN, per spec's leniency toward missing arguments.
func builtinIsNaN(args []Value) (Value, error) {
	if len(args) == 0 {
		return TrueValue, nil
	}
	return boolValue(math.IsNaN(toNumber(args[0]))), nil
}

func builtinIsFinite(args []Value) (Value, error) {
	if len(args) == 0 {
		return FalseValue, nil
	}
	f := toNumber(args[0])
	return boolValue(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
}

// builtinParseInt follows original_source's parse_int algorithm exactly:
// radix defaults to 10 (no implicit hex-prefix detection unless radix is
// explicitly 16), then parses the longest valid digit prefix.
func builtinParseInt(args []Value) (Value, error) {
	if len(args) == 0 {
		return Number(math.NaN()), nil
	}
	s := strings.TrimSpace(toStr(args[0]))
	radix := 10
	if len(args) > 1 {
		r := toNumber(args[1])
		if !math.IsNaN(r) && r != 0 {
			radix = int(r)
		}
	}
	if radix < 2 || radix > 36 {
		return Number(math.NaN()), nil
	}
	if s == "" {
		return Number(math.NaN()), nil
	}
	if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	}

	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	end := 0
	for end < len(s) {
		if digitValue(s[end]) >= radix {
			break
		}
		end++
	}
	if end == 0 {
		return Number(math.NaN()), nil
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		return Number(math.NaN()), nil
	}
	if neg {
		n = -n
	}
	return Number(float64(n)), nil
}

func digitValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'z':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 10
	default:
		return 99
	}
}

// builtinParseFloat follows original_source's parse_float: it consumes
// the longest valid leading numeric prefix (sign, digits, one '.', one
// exponent) and ignores trailing garbage, unlike strconv.ParseFloat
// which rejects the whole string on any trailing character.
func builtinParseFloat(args []Value) (Value, error) {
	if len(args) == 0 {
		return Number(math.NaN()), nil
	}
	s := strings.TrimSpace(toStr(args[0]))
	if s == "" {
		return Number(math.NaN()), nil
	}
	end, expAt := 0, 0
	hasDot, hasExp := false, false
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			end++
		case c == '.' && !hasDot && !hasExp:
			hasDot = true
			end++
		case (c == 'e' || c == 'E') && !hasExp && end > 0:
			hasExp = true
			expAt = end
			end++
			if end < len(s) && (s[end] == '+' || s[end] == '-') {
				end++
			}
		default:
			goto done
		}
	}
done:
	if hasExp && !(s[end-1] >= '0' && s[end-1] <= '9') {
		end = expAt // an exponent marker with no digits is not part of the number
	}
	valid := s[:end]
	if valid == "" || valid == "+" || valid == "-" {
		return Number(math.NaN()), nil
	}
	f, err := strconv.ParseFloat(valid, 64)
	if err != nil {
		return Number(math.NaN()), nil
	}
	return Number(f), nil
}
