// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// run compiles and executes src on a fresh VM, the way expectRun does in
// ugo's vm_test.go, minus the optimizer-variant looping this engine has no
// use for (there is no bytecode optimizer here).
func run(t *testing.T, src string) Value {
	t.Helper()
	val, err := Execute(context.Background(), "(test)", src, DefaultOptions())
	require.NoError(t, err)
	return val
}

func expectRun(t *testing.T, src string, expect Value) {
	t.Helper()
	require.Equal(t, expect, run(t, src))
}

func expectRunErr(t *testing.T, src string, wantErrSubstr string) {
	t.Helper()
	_, err := Execute(context.Background(), "(test)", src, DefaultOptions())
	require.Error(t, err)
	require.Contains(t, err.Error(), wantErrSubstr)
}

// The seven end-to-end scenarios from spec.md's testable-properties table.

func TestEndToEndFactorialLoop(t *testing.T) {
	expectRun(t, `
		let n = 5;
		let r = 1;
		while (n > 1) {
			r = r * n;
			n = n - 1;
		}
		r;
	`, Number(120))
}

func TestEndToEndRecursiveGCD(t *testing.T) {
	expectRun(t, `
		function gcd(a, b) {
			if (b == 0) return a;
			return gcd(b, a % b);
		}
		gcd(48, 18);
	`, Number(6))
}

func TestEndToEndObjectPropertyAccess(t *testing.T) {
	expectRun(t, `
		let o = {x: 1, y: 2};
		o.x + o["y"];
	`, Number(3))
}

func TestEndToEndArrayIndexingInFor(t *testing.T) {
	expectRun(t, `
		let a = [3, 1, 4, 1, 5, 9, 2, 6];
		let s = 0;
		for (let i = 0; i < 8; i = i + 1) {
			s = s + a[i];
		}
		s;
	`, Number(31))
}

func TestEndToEndFunctionExpression(t *testing.T) {
	expectRun(t, `
		let f = function(x) { return x * 2; };
		f(21);
	`, Number(42))
}

func TestEndToEndStrictInequality(t *testing.T) {
	expectRun(t, `
		let a = 1;
		let b = 2;
		a === b;
	`, FalseValue)
}

func TestEndToEndIIFEBlockScopeShadowing(t *testing.T) {
	expectRun(t, `
		(function() {
			let x = 10;
			{
				let x = 20;
			}
			return x;
		})();
	`, Number(10))
}

// Additional VM-level coverage beyond the seven canonical scenarios.

func TestVMArithmetic(t *testing.T) {
	expectRun(t, `2 + 3 * 4;`, Number(14))
	expectRun(t, `(2 + 3) * 4;`, Number(20))
	expectRun(t, `2 ** 10;`, Number(1024))
	expectRun(t, `7 % 3;`, Number(1))
	expectRun(t, `10 / 4;`, Number(2.5))
	expectRun(t, `-5 + 3;`, Number(-2))
}

func TestVMStringConcat(t *testing.T) {
	expectRun(t, `"foo" + "bar";`, String("foobar"))
	expectRun(t, `"n=" + 5;`, String("n=5"))
}

func TestVMComparisons(t *testing.T) {
	expectRun(t, `1 < 2;`, TrueValue)
	expectRun(t, `2 <= 2;`, TrueValue)
	expectRun(t, `3 > 4;`, FalseValue)
	expectRun(t, `"1" == 1;`, TrueValue)
	expectRun(t, `"1" === 1;`, FalseValue)
	expectRun(t, `null == undefined;`, TrueValue)
	expectRun(t, `null === undefined;`, FalseValue)
}

func TestVMLogicalOperators(t *testing.T) {
	expectRun(t, `true && false;`, FalseValue)
	expectRun(t, `false || true;`, TrueValue)
	expectRun(t, `null ?? "default";`, String("default"))
	expectRun(t, `0 ?? "default";`, Number(0))
}

func TestVMBitwise(t *testing.T) {
	expectRun(t, `5 & 3;`, Number(1))
	expectRun(t, `5 | 2;`, Number(7))
	expectRun(t, `5 ^ 1;`, Number(4))
	expectRun(t, `1 << 4;`, Number(16))
	expectRun(t, `-1 >>> 28;`, Number(15))
}

func TestVMTernary(t *testing.T) {
	expectRun(t, `1 < 2 ? "yes" : "no";`, String("yes"))
}

func TestVMIncDecLocal(t *testing.T) {
	expectRun(t, `let x = 5; x++; x;`, Number(6))
	expectRun(t, `let x = 5; x--; x;`, Number(4))
	expectRun(t, `let x = 5; let y = x++; y;`, Number(5))
	expectRun(t, `let x = 5; let y = ++x; y;`, Number(6))
}

func TestVMConstReassignmentIsCompileError(t *testing.T) {
	_, diags := CompileSource("(test)", `const x = 1; x = 2;`)
	require.NotNil(t, diags)
}

func TestVMBreakContinue(t *testing.T) {
	expectRun(t, `
		let s = 0;
		for (let i = 0; i < 10; i = i + 1) {
			if (i == 5) break;
			s = s + i;
		}
		s;
	`, Number(10))

	expectRun(t, `
		let s = 0;
		for (let i = 0; i < 5; i = i + 1) {
			if (i % 2 == 0) continue;
			s = s + i;
		}
		s;
	`, Number(4))
}

func TestVMNestedFunctionCallsShareGlobals(t *testing.T) {
	// Two top-level function declarations calling each other by name --
	// only possible because their names resolve through the global table.
	expectRun(t, `
		function isEven(n) {
			if (n == 0) return true;
			return isOdd(n - 1);
		}
		function isOdd(n) {
			if (n == 0) return false;
			return isEven(n - 1);
		}
		isEven(10);
	`, TrueValue)
}

func TestVMArrayLiteralAndLength(t *testing.T) {
	expectRun(t, `let a = [1, 2, 3]; a.length;`, Number(3))
	expectRun(t, `let a = [1, 2, 3]; a[5] = 9; a.length;`, Number(6))
	expectRun(t, `let a = [1, 2, 3]; a[10];`, UndefinedValue)
}

func TestVMObjectMutation(t *testing.T) {
	expectRun(t, `
		let o = {};
		o.a = 1;
		o["b"] = 2;
		o.a + o.b;
	`, Number(3))
}

func TestVMThisBinding(t *testing.T) {
	expectRun(t, `
		let o = {
			v: 21,
			getV: function() { return this.v; }
		};
		o.getV();
	`, Number(21))
}

func TestVMTypeofOperator(t *testing.T) {
	expectRun(t, `typeof 1;`, String("number"))
	expectRun(t, `typeof "s";`, String("string"))
	expectRun(t, `typeof true;`, String("boolean"))
	expectRun(t, `typeof undefined;`, String("undefined"))
	expectRun(t, `typeof null;`, String("object"))
	expectRun(t, `typeof (function(){});`, String("function"))
}

func TestVMUndeclaredGlobalReadIsReferenceError(t *testing.T) {
	expectRunErr(t, `x;`, "not defined")
}

func TestVMCallingNonCallableIsTypeError(t *testing.T) {
	expectRunErr(t, `let x = 1; x();`, "not callable")
}

func TestVMStackOverflowOnUnboundedRecursion(t *testing.T) {
	expectRunErr(t, `
		function loop() { return loop(); }
		loop();
	`, "call stack size exceeded")
}

func TestVMExecuteRespectsContextCancellation(t *testing.T) {
	code, diags := CompileSource("(test)", `
		function spin() { return spin(); }
		let x = 1;
		x;
	`)
	require.Nil(t, diags)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewVM(DefaultOptions()).Run(ctx, code)
	// The dispatch loop checks ctx before every instruction, including the
	// first, so a context cancelled before Run makes it return ctx.Err().
	require.Equal(t, context.Canceled, err)
}

func TestBuiltinPrintReturnsUndefined(t *testing.T) {
	expectRun(t, `print("hello");`, UndefinedValue)
}

func TestBuiltinIsNaN(t *testing.T) {
	expectRun(t, `isNaN(0 / 0);`, TrueValue)
	// A finite number is not NaN.
	expectRun(t, `isNaN(1);`, FalseValue)
}

func TestBuiltinIsFinite(t *testing.T) {
	expectRun(t, `isFinite(1);`, TrueValue)
	expectRun(t, `isFinite(1 / 0);`, FalseValue)
}

func TestBuiltinParseInt(t *testing.T) {
	expectRun(t, `parseInt("42");`, Number(42))
	expectRun(t, `parseInt("1010", 2);`, Number(10))
	expectRun(t, `parseInt("0xFF", 16);`, Number(255))
	expectRun(t, `parseInt("  -7  ");`, Number(-7))
}

func TestBuiltinParseIntNaNCases(t *testing.T) {
	v := run(t, `parseInt("abc");`)
	n, ok := v.(Number)
	require.True(t, ok)
	require.True(t, float64(n) != float64(n)) // NaN != itself
}

func TestBuiltinParseFloat(t *testing.T) {
	expectRun(t, `parseFloat("1.5e3");`, Number(1500))
	expectRun(t, `parseFloat("3.14 trailing garbage");`, Number(3.14))
	expectRun(t, `parseFloat("-2.5");`, Number(-2.5))
}
