// Package cellerr wraps a failure captured while running cell code so that it
// can travel through the same result channel as a successful value.
package cellerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/cellgrid/internal/cellscript"
)

// Kind names the class of a captured failure.
type Kind string

const (
	KindRaise    Kind = "raise"
	KindSyntax   Kind = "syntax"
	KindEval     Kind = "eval"
	KindPanic    Kind = "panic"
	KindCanceled Kind = "canceled"
	KindInternal Kind = "internal"
)

// PanicError carries a value recovered from a panic inside cell execution.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Error is the immutable capture of a failed cell run.
type Error struct {
	err   error
	kind  Kind
	extra string
}

// Wrap captures err. extra holds optional diagnostic detail.
func Wrap(err error, extra string) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Error{err: err, kind: classify(err), extra: extra}
}

func classify(err error) Kind {
	var (
		raised    *cellscript.RaisedError
		syntaxErr *cellscript.SyntaxError
		evalErr   *cellscript.EvalError
		panicErr  *PanicError
		diags     hcl.Diagnostics
	)
	switch {
	case errors.As(err, &raised):
		return KindRaise
	case errors.As(err, &syntaxErr):
		return KindSyntax
	case errors.As(err, &panicErr):
		return KindPanic
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &evalErr), errors.As(err, &diags):
		return KindEval
	default:
		return KindInternal
	}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.kind, e.err)
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error { return e.err }

// Original returns the captured error.
func (e *Error) Original() error { return e.err }

// Kind returns the failure class.
func (e *Error) Kind() Kind { return e.kind }

// Extra returns the optional diagnostic detail.
func (e *Error) Extra() string { return e.extra }

// Message returns the user-facing message: the raised text for raise
// statements, the original error text otherwise.
func (e *Error) Message() string {
	var raised *cellscript.RaisedError
	if errors.As(e.err, &raised) {
		return raised.Message
	}
	return e.err.Error()
}

// Text is what a cell shows in place of a value.
func (e *Error) Text() string {
	return fmt.Sprintf("#ERR %s: %s", e.kind, e.Message())
}
