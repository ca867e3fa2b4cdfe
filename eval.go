// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import (
	"context"

	"github.com/jscore-lang/jscore/parser"
	"github.com/jscore-lang/jscore/token"
)

// newSourceFile registers one source unit in a fresh file set. Each call
// to Tokenize/Parse/CompileSource/Execute compiles a standalone unit, so
// a private file set per call is enough; the multi-file layout in
// token.SourceFileSet exists for a future host that keeps several units
// (e.g. REPL history) alive at once.
func newSourceFile(filename, src string) *token.SourceFile {
	return token.NewFileSet().AddFile(filename, len(src))
}

// Tokenize lexes src to completion, per spec.md §6.1. It stops at the
// first lexical error, matching the lexer's own batched-tokens-so-far
// policy (spec.md §7).
func Tokenize(filename, src string) ([]parser.Token, token.Diagnostics) {
	file := newSourceFile(filename, src)
	return parser.NewLexer(file, src).Tokenize()
}

// Parse lexes and parses src into a Program, collecting every diagnostic
// the parser's error-recovery (synchronize-to-`;`-or-`}`) lets it find in
// one pass, per spec.md §6.1 and §4.2.
func Parse(filename, src string) (*parser.Program, token.Diagnostics) {
	file := newSourceFile(filename, src)
	return parser.NewParser(file, src).ParseProgram()
}

// CompileSource parses and compiles src into a top-level CodeObject, per
// spec.md §6.1. Parse diagnostics are returned without compiling if the
// parse failed; a syntactically valid-but-erroneous program is compiled
// as far as possible so multiple compile errors can be reported together.
func CompileSource(filename, src string) (*CodeObject, token.Diagnostics) {
	file := newSourceFile(filename, src)
	prog, diags := parser.NewParser(file, src).ParseProgram()
	if len(diags) > 0 {
		return nil, diags
	}
	code, cdiags := Compile(file, prog)
	if len(cdiags) > 0 {
		return nil, cdiags
	}
	return code, nil
}

// Execute runs src to completion on a fresh VM and returns the value of
// its last top-level expression statement (spec.md §4.4, §6.1). It
// mirrors ugo's Eval.run: the VM runs on its own goroutine and Execute
// selects on ctx.Done(). On cancellation it still waits for that goroutine,
// which stops at its next ctx.Err() check between instructions, and then
// returns ctx.Err().
func Execute(ctx context.Context, filename, src string, opts Options) (Value, error) {
	code, diags := CompileSource(filename, src)
	if diags != nil {
		return nil, diags
	}

	if ctx == nil {
		ctx = context.Background()
	}

	type result struct {
		val Value
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := NewVM(opts).Run(ctx, code)
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		<-done // dispatch loop observes ctx.Err() on its next instruction and exits
		return nil, ctx.Err()
	case r := <-done:
		return r.val, r.err
	}
}
