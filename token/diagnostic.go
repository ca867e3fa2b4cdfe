package token

import "fmt"

// Kind classifies which pipeline stage raised a Diagnostic.
type Kind string

// The four diagnostic kinds produced by the pipeline.
const (
	Lexical Kind = "lexical"
	Syntax  Kind = "parse"
	Compile Kind = "compile"
	Runtime Kind = "runtime"
)

// Diagnostic is a structured error carrying its stage, a human-readable
// message and the source span it applies to. The lexer, parser and
// compiler report failures in this shape so a host can render them
// uniformly; the VM returns its runtime errors as plain error values.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
	Pos     Position
}

func (d *Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s error: %s\n\tat %s", d.Kind, d.Message, d.Pos)
	}
	return fmt.Sprintf("%s error: %s", d.Kind, d.Message)
}

// Diagnostics is an accumulated, ordered collection of Diagnostic values.
// The parser and compiler append to it and keep going instead of aborting
// on the first failure so a host can report every problem in one pass; the
// lexer stops at its first error.
type Diagnostics []*Diagnostic

func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no errors"
	case 1:
		return ds[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", ds[0].Error(), len(ds)-1)
	}
}

// Err returns ds as an error, or nil if it is empty.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

// Add appends a new diagnostic built from a file, span and message.
func (ds *Diagnostics) Add(kind Kind, file *SourceFile, span Span, format string, args ...interface{}) {
	pos := Position{}
	if file != nil {
		pos = file.Position(span.Begin)
	}
	*ds = append(*ds, &Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
		Pos:     pos,
	})
}
