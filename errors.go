// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.
package jscore

import "fmt"

// Error is a runtime error raised by the VM: a kind tag plus a message,
// matching the sentinel-error idiom of ugo's errors.go (package-level
// values for the fixed cases, constructors for parametrized ones).
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return e.Kind + ": " + e.Message }

// Sentinel runtime errors (spec.md §7's Runtime row), constructed once.
var (
	ErrStackOverflow = &Error{Kind: "range-error", Message: "call stack size exceeded"}
	ErrNotCallable   = &Error{Kind: "type-error", Message: "value is not callable"}
	ErrNotAnObject   = &Error{Kind: "type-error", Message: "value is not an object"}
)

// NewTypeError builds a parametrized type-error, e.g. for a non-callable
// call or a property access on a non-object.
func NewTypeError(format string, args ...interface{}) *Error {
	return &Error{Kind: "type-error", Message: fmt.Sprintf(format, args...)}
}

// NewReferenceError builds a reference-error for an undeclared global read.
func NewReferenceError(name string) *Error {
	return &Error{Kind: "reference-error", Message: fmt.Sprintf("%s is not defined", name)}
}

// NewRangeError builds a range-error, e.g. for call-stack overflow.
func NewRangeError(format string, args ...interface{}) *Error {
	return &Error{Kind: "range-error", Message: fmt.Sprintf(format, args...)}
}

// compileError is returned by symbolTable.define for a duplicate binding;
// the Compiler reports it, like its other errors (break/continue outside a
// loop, return outside a function, assignment to a const), as a
// token.Compile diagnostic.
type compileError struct {
	Message string
}

func (e *compileError) Error() string { return "compile error: " + e.Message }
