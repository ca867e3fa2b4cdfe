// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, src string) *CodeObject {
	t.Helper()
	code, diags := CompileSource("(test)", src)
	require.Nil(t, diags)
	require.NotNil(t, code)
	return code
}

func TestCompilerConstantDedupNumbers(t *testing.T) {
	code := compileOK(t, `let a = 5; let b = 5; a;`)
	count := 0
	for _, c := range code.Constants {
		if n, ok := c.(Number); ok && float64(n) == 5 {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestCompilerConstantPositiveNegativeZeroDistinct(t *testing.T) {
	code := compileOK(t, `let a = 0; let b = -0; a;`)
	var posZero, negZero bool
	for _, c := range code.Constants {
		if n, ok := c.(Number); ok {
			bits := math.Float64bits(float64(n))
			if bits == math.Float64bits(0) {
				posZero = true
			}
			if bits == math.Float64bits(math.Copysign(0, -1)) {
				negZero = true
			}
		}
	}
	require.True(t, posZero)
	require.True(t, negZero)
}

func TestCompilerConstantDedupStrings(t *testing.T) {
	code := compileOK(t, `let a = "hi"; let b = "hi"; a;`)
	count := 0
	for _, c := range code.Constants {
		if s, ok := c.(String); ok && string(s) == "hi" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestCompilerNestedCodeObjectsNotDeduped(t *testing.T) {
	code := compileOK(t, `
		let f = function() { return 1; };
		let g = function() { return 1; };
		f;
	`)
	count := 0
	for _, c := range code.Constants {
		if _, ok := c.(*CodeObject); ok {
			count++
		}
	}
	require.Equal(t, 2, count)
}

func TestCompilerJumpPatchingWhileLoop(t *testing.T) {
	code := compileOK(t, `let n = 0; while (n < 3) { n = n + 1; } n;`)
	var buf bytes.Buffer
	code.Fprint(&buf)
	out := buf.String()
	require.Contains(t, out, "JUMPFALSE")
	require.Contains(t, out, "JUMP ")
	require.Contains(t, out, "L0:")
}

func TestCompilerBreakContinuePatchToLoopBoundaries(t *testing.T) {
	code := compileOK(t, `
		for (let i = 0; i < 10; i = i + 1) {
			if (i == 5) break;
			if (i == 2) continue;
		}
	`)
	var buf bytes.Buffer
	code.Fprint(&buf)
	// A well-formed disassembly must not panic and must have jump labels
	// for the loop head, the two if-exits (the second is the continue-point)
	// and the loop exit.
	require.True(t, strings.Contains(buf.String(), "JUMP"))
	require.Contains(t, buf.String(), "L3:")
}

func TestCompilerReturnOutsideFunctionIsCompileError(t *testing.T) {
	_, diags := CompileSource("(test)", `return 1;`)
	require.NotNil(t, diags)
}

func TestCompilerBreakOutsideLoopIsCompileError(t *testing.T) {
	_, diags := CompileSource("(test)", `break;`)
	require.NotNil(t, diags)
}

func TestCompilerContinueOutsideLoopIsCompileError(t *testing.T) {
	_, diags := CompileSource("(test)", `continue;`)
	require.NotNil(t, diags)
}

func TestCompilerDuplicateBindingInSameScopeIsError(t *testing.T) {
	_, diags := CompileSource("(test)", `let a = 1; let a = 2;`)
	require.NotNil(t, diags)
}

func TestCompilerShadowingInNestedBlockIsOK(t *testing.T) {
	_, diags := CompileSource("(test)", `let a = 1; { let a = 2; }`)
	require.Nil(t, diags)
}

func TestCompilerFunctionArityRecorded(t *testing.T) {
	code := compileOK(t, `function f(a, b, c) { return a; }`)
	var fn *CodeObject
	for _, c := range code.Constants {
		if co, ok := c.(*CodeObject); ok {
			fn = co
		}
	}
	require.NotNil(t, fn)
	require.Equal(t, 3, fn.Arity)
}

func TestCompilerDisassemblyFormat(t *testing.T) {
	code := compileOK(t, `let a = 1; a;`)
	var buf bytes.Buffer
	code.Fprint(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.NotEmpty(t, lines)
	// Every non-label line begins with a 4-digit zero-padded offset.
	for _, l := range lines {
		if strings.HasSuffix(l, ":") {
			continue
		}
		require.Regexp(t, `^\d{4}  `, l)
	}
}

func TestCompilerEveryInstructionHasALine(t *testing.T) {
	code := compileOK(t, `
		let a = 1;
		if (a > 0) {
			a = a + 1;
		}
	`)
	offset := 0
	for offset < len(code.Instructions) {
		op := code.Instructions[offset]
		widths := opcodeOperands[op]
		_, read := readOperands(widths, code.Instructions[offset+1:], nil)
		_, ok := code.Lines[offset]
		require.True(t, ok, "no line recorded for instruction at offset %d", offset)
		offset += 1 + read
	}
}
