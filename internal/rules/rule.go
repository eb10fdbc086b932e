// Package rules decides how a displayable value is extracted from a namespace
// after cell code ran.
//
// A Registry holds an ordered chain of Rule values. The first rule that matches
// wins; the last built-in rule always matches. After the scan, a
// function-result marker found in the winning value supersedes it, unless the
// winner already unwrapped one.
package rules

import (
	"github.com/specialistvlad/cellgrid/internal/namespace"
	"github.com/zclconf/go-cty/cty"
)

// Evaluator evaluates a single expression against a namespace.
type Evaluator interface {
	Eval(ns *namespace.Namespace, src string) (cty.Value, error)
}

// Input is what every rule looks at.
type Input struct {
	NS *namespace.Namespace
	// Code is the sanitized code that was executed.
	Code string
	// Source is the code as submitted, comments included.
	Source string
	Eval   Evaluator
}

// Rule is one matching strategy. Rules must be pointer types or otherwise
// comparable, since the registry tracks them by identity.
type Rule interface {
	// Name identifies the rule in logs and results.
	Name() string
	// Match reports whether the rule applies to in and, if so, the value it
	// extracts. An error aborts classification.
	Match(in *Input) (cty.Value, bool, error)
}

// FuncRule adapts a plain function to Rule.
type FuncRule struct {
	name string
	fn   func(in *Input) (cty.Value, bool, error)
}

// NewFuncRule returns a rule backed by fn.
func NewFuncRule(name string, fn func(in *Input) (cty.Value, bool, error)) *FuncRule {
	return &FuncRule{name: name, fn: fn}
}

// Name implements Rule.
func (r *FuncRule) Name() string { return r.name }

// Match implements Rule.
func (r *FuncRule) Match(in *Input) (cty.Value, bool, error) { return r.fn(in) }
