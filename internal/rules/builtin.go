package rules

import (
	"fmt"
	"regexp"

	"github.com/specialistvlad/cellgrid/internal/cellscript"
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

var (
	// AssignPattern matches a final line that assigns to a bare name.
	AssignPattern = regexp.MustCompile(`^(\w+)\s*=($|[^=])`)
	// IdentPattern matches a final line that is only a name.
	IdentPattern = regexp.MustCompile(`^(\w+)$`)
)

// LastLineRule matches when the last logical line matches a pattern whose
// first group captures a bound name. The value of that binding is the result.
type LastLineRule struct {
	name    string
	pattern *regexp.Regexp
}

// NewLastLineRule returns a LastLineRule. A nil pattern means AssignPattern.
func NewLastLineRule(name string, pattern *regexp.Regexp) *LastLineRule {
	if pattern == nil {
		pattern = AssignPattern
	}
	return &LastLineRule{name: name, pattern: pattern}
}

func (r *LastLineRule) Name() string { return r.name }

func (r *LastLineRule) Match(in *Input) (cty.Value, bool, error) {
	line := cellscript.LastLogicalLine(in.Code)
	if line == "" {
		return cty.NilVal, false, nil
	}
	m := r.pattern.FindStringSubmatch(line)
	if len(m) < 2 {
		return cty.NilVal, false, nil
	}
	v, ok := in.NS.Get(m[1])
	if !ok {
		return cty.NilVal, false, nil
	}
	return v, true, nil
}

// CallableRule matches code that ends by defining a zero-parameter function
// which is also the newest binding. The function is invoked and its return
// value is the result.
type CallableRule struct{}

func (r *CallableRule) Name() string { return "callable" }

func (r *CallableRule) Match(in *Input) (cty.Value, bool, error) {
	st, ok := cellscript.LastStatement(in.Code)
	if !ok || st.Kind != cellscript.KindDef || len(st.Params) != 0 {
		return cty.NilVal, false, nil
	}
	last, ok := in.NS.Last()
	if !ok || last.Name != st.Name {
		return cty.NilVal, false, nil
	}
	c, ok := value.AsCallable(last.Value)
	if !ok || len(c.Params) != 0 {
		return cty.NilVal, false, nil
	}
	v, err := c.Fn.Call(nil)
	if err != nil {
		return cty.NilVal, true, fmt.Errorf("calling %s(): %w", c.Name, err)
	}
	return v, true, nil
}

// EvalRule matches when the last statement is a bare expression and returns
// its value, evaluated again against the namespace.
type EvalRule struct{}

func (r *EvalRule) Name() string { return "eval" }

func (r *EvalRule) Match(in *Input) (cty.Value, bool, error) {
	st, ok := cellscript.LastStatement(in.Code)
	if !ok || st.Kind != cellscript.KindExpr || in.Eval == nil {
		return cty.NilVal, false, nil
	}
	v, err := in.Eval.Eval(in.NS, st.Expr)
	if err != nil {
		return cty.NilVal, true, err
	}
	return v, true, nil
}

// FnResultRule matches when the newest binding is a function-result marker
// of the given kind, and unwraps it.
type FnResultRule struct {
	kind value.FnKind
}

// NewFnResultRule returns a FnResultRule for kind.
func NewFnResultRule(kind value.FnKind) *FnResultRule {
	return &FnResultRule{kind: kind}
}

func (r *FnResultRule) Name() string { return "fn-" + string(r.kind) }

func (r *FnResultRule) Match(in *Input) (cty.Value, bool, error) {
	last, ok := in.NS.Last()
	if !ok {
		return cty.NilVal, false, nil
	}
	fr, ok := value.AsFnResult(last.Value)
	if !ok || fr.Kind != r.kind {
		return cty.NilVal, false, nil
	}
	return fr.Data, true, nil
}

// FnValueRule is the post-pass rule. Data holds the value another rule
// extracted; it matches when that value is a function-result marker.
type FnValueRule struct {
	Data cty.Value
}

func (r *FnValueRule) Name() string { return "fn-value" }

func (r *FnValueRule) Match(*Input) (cty.Value, bool, error) {
	fr, ok := value.AsFnResult(r.Data)
	if !ok {
		return cty.NilVal, false, nil
	}
	return fr.Data, true, nil
}

// LastBindingRule always matches. It returns the newest non-callable binding,
// or a single empty cell when there is none.
type LastBindingRule struct{}

func (r *LastBindingRule) Name() string { return "last-binding" }

func (r *LastBindingRule) Match(in *Input) (cty.Value, bool, error) {
	if b, ok := in.NS.LastValue(); ok {
		return b.Value, true, nil
	}
	return value.EmptyGrid, true, nil
}

// KnownRules returns fresh instances of the built-in chain in priority order.
func KnownRules() []Rule {
	return []Rule{
		NewLastLineRule("last-line-assign", AssignPattern),
		NewLastLineRule("last-line-ident", IdentPattern),
		&CallableRule{},
		&EvalRule{},
		NewFnResultRule(value.FnRange),
		NewFnResultRule(value.FnObject),
		&LastBindingRule{},
	}
}
