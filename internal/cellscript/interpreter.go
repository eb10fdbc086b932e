// Package cellscript executes cell code against a namespace.
//
// Each statement is one of `name = expr`, `def name(params) = expr`,
// `del name`, `raise expr` or a bare expression. Expressions use the HCL
// native syntax and evaluate to cty values, with the namespace bindings as
// variables and its callables next to the builtins as functions.
package cellscript

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cellgrid/internal/ctxlog"
	"github.com/specialistvlad/cellgrid/internal/doc"
	"github.com/specialistvlad/cellgrid/internal/namespace"
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// DefaultMaxDepth bounds nested user function calls.
const DefaultMaxDepth = 64

const sourceName = "cell"

// Interpreter runs statements. It is not safe for concurrent use.
type Interpreter struct {
	builtins map[string]function.Function
	maxDepth int
	depth    int
}

// New returns an interpreter whose sheet builtins read from sheet. A nil
// sheet is allowed; the sheet builtins then fail when called.
func New(sheet doc.Sheet) *Interpreter {
	return &Interpreter{
		builtins: Builtins(sheet),
		maxDepth: DefaultMaxDepth,
	}
}

// Exec runs every statement of code against ns. Effects of statements that
// completed before a failure stay in ns.
func (i *Interpreter) Exec(ctx context.Context, ns *namespace.Namespace, code string) error {
	logger := ctxlog.FromContext(ctx)
	stmts, err := Parse(code)
	if err != nil {
		return err
	}
	for _, st := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Executing statement.", "line", st.Line, "kind", st.Kind.String())
		if err := i.exec(ns, st); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) exec(ns *namespace.Namespace, st Statement) error {
	switch st.Kind {
	case KindAssign:
		v, err := i.eval(ns, st.Expr, st.Line)
		if err != nil {
			return err
		}
		ns.Set(st.Name, v)
	case KindDef:
		c, err := i.define(ns, st)
		if err != nil {
			return err
		}
		ns.Set(st.Name, value.CallableVal(c))
	case KindDel:
		if !ns.Delete(st.Name) {
			return &EvalError{Line: st.Line, Err: fmt.Errorf("%q: %w", st.Name, ErrNotDefined)}
		}
	case KindRaise:
		msg := ""
		if st.Expr != "" {
			v, err := i.eval(ns, st.Expr, st.Line)
			if err != nil {
				return err
			}
			if v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
				msg = v.AsString()
			} else {
				msg = value.Describe(v)
			}
		}
		return &RaisedError{Line: st.Line, Message: msg}
	default:
		if _, err := i.eval(ns, st.Expr, st.Line); err != nil {
			return err
		}
	}
	return nil
}

// Eval evaluates a single expression against ns without binding anything.
func (i *Interpreter) Eval(ns *namespace.Namespace, src string) (cty.Value, error) {
	return i.eval(ns, strings.TrimSpace(src), 1)
}

func (i *Interpreter) eval(ns *namespace.Namespace, src string, line int) (cty.Value, error) {
	expr, err := parseExpr(src, line)
	if err != nil {
		return cty.NilVal, err
	}
	v, diags := expr.Value(i.evalContext(ns))
	if diags.HasErrors() {
		return cty.NilVal, &EvalError{Line: line, Err: diags}
	}
	return v, nil
}

func parseExpr(src string, line int) (hclsyntax.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), sourceName, hcl.Pos{Line: line, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, &SyntaxError{Line: line, Diags: diags}
	}
	return expr, nil
}

// evalContext exposes every binding as a variable and every callable binding
// as a function, shadowing builtins of the same name.
func (i *Interpreter) evalContext(ns *namespace.Namespace) *hcl.EvalContext {
	vars, callables := ns.Split()
	funcs := make(map[string]function.Function, len(i.builtins)+len(callables))
	for name, fn := range i.builtins {
		funcs[name] = fn
	}
	for name, c := range callables {
		funcs[name] = c.Fn
	}
	return &hcl.EvalContext{Variables: vars, Functions: funcs}
}

// define builds a callable whose body is evaluated against the live ns at
// call time, with the parameters in a child scope.
func (i *Interpreter) define(ns *namespace.Namespace, st Statement) (*value.Callable, error) {
	body, err := parseExpr(st.Expr, st.Line)
	if err != nil {
		return nil, err
	}

	params := make([]function.Parameter, 0, len(st.Params))
	for _, p := range st.Params {
		params = append(params, function.Parameter{
			Name:             p,
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
		})
	}

	c := &value.Callable{Name: st.Name, Params: st.Params}
	c.Fn = function.New(&function.Spec{
		Description: fmt.Sprintf("user function %s defined on line %d", st.Name, st.Line),
		Params:      params,
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if i.depth >= i.maxDepth {
				return cty.NilVal, fmt.Errorf("%s: %w (%d)", st.Name, ErrRecursionLimit, i.maxDepth)
			}
			i.depth++
			defer func() { i.depth-- }()

			scope := i.evalContext(ns).NewChild()
			scope.Variables = make(map[string]cty.Value, len(args))
			for idx, p := range st.Params {
				scope.Variables[p] = args[idx]
			}
			v, diags := body.Value(scope)
			if diags.HasErrors() {
				return cty.NilVal, diags
			}
			return v, nil
		},
	})
	return c, nil
}
