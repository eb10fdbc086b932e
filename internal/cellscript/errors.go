package cellscript

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ErrNotDefined is wrapped by errors about unbound names.
var ErrNotDefined = errors.New("name is not defined")

// ErrRecursionLimit is returned when user functions nest too deeply.
var ErrRecursionLimit = errors.New("maximum call depth exceeded")

// SyntaxError reports code that could not be parsed.
type SyntaxError struct {
	Line  int
	Msg   string
	Diags hcl.Diagnostics
}

func (e *SyntaxError) Error() string {
	if e.Diags.HasErrors() {
		return fmt.Sprintf("line %d: syntax error: %s", e.Line, e.Diags.Error())
	}
	return fmt.Sprintf("line %d: syntax error: %s", e.Line, e.Msg)
}

// Unwrap exposes the HCL diagnostics, if any.
func (e *SyntaxError) Unwrap() error {
	if e.Diags.HasErrors() {
		return e.Diags
	}
	return nil
}

// EvalError reports a statement that parsed but failed to evaluate.
type EvalError struct {
	Line int
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// RaisedError is produced by a raise statement.
type RaisedError struct {
	Line    int
	Message string
}

func (e *RaisedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("line %d: raised", e.Line)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
