package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/specialistvlad/cellgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrRuleNotFound is wrapped by failed removals.
	ErrRuleNotFound = errors.New("removal target not found")
	// ErrNoRuleMatched means the chain has no always-matching rule.
	ErrNoRuleMatched = errors.New("no rule matched")
)

// Match is the outcome of a classification.
type Match struct {
	Rule  Rule
	Value cty.Value
}

// Registry is an ordered, duplicate-free chain of rules.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

// New returns a registry. With autoRegister the built-in chain is installed.
func New(autoRegister bool) *Registry {
	r := &Registry{}
	if autoRegister {
		r.rules = KnownRules()
	}
	return r
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Rules returns a copy of the chain.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Index returns the position of rule, or -1.
func (r *Registry) Index(rule Rule) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index(rule)
}

func (r *Registry) index(rule Rule) int {
	for i, existing := range r.rules {
		if existing == rule {
			return i
		}
	}
	return -1
}

// Contains reports whether rule is registered.
func (r *Registry) Contains(rule Rule) bool {
	return r.Index(rule) >= 0
}

// Add appends rule. Adding a rule already present does nothing.
func (r *Registry) Add(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(rule) >= 0 {
		slog.Debug("Rule already registered.", "rule", rule.Name())
		return
	}
	slog.Debug("Registering rule.", "rule", rule.Name())
	r.rules = append(r.rules, rule)
}

// AddAt inserts rule before position index. Negative indexes count from the
// end and out of range indexes are clamped. Adding a rule already present
// does nothing.
func (r *Registry) AddAt(index int, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(rule) >= 0 {
		slog.Debug("Rule already registered.", "rule", rule.Name())
		return
	}
	n := len(r.rules)
	if index < 0 {
		index += n
		if index < 0 {
			index = 0
		}
	}
	if index > n {
		index = n
	}
	slog.Debug("Inserting rule.", "rule", rule.Name(), "index", index)
	r.rules = append(r.rules, nil)
	copy(r.rules[index+1:], r.rules[index:])
	r.rules[index] = rule
}

// Remove unregisters rule.
func (r *Registry) Remove(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(rule)
	if i < 0 {
		slog.Error("Unable to unregister rule.", "rule", rule.Name())
		return fmt.Errorf("unregister rule %q: %w", rule.Name(), ErrRuleNotFound)
	}
	r.rules = append(r.rules[:i], r.rules[i+1:]...)
	slog.Debug("Removed rule.", "rule", rule.Name())
	return nil
}

// RemoveAt unregisters the rule at index. Negative indexes count from the end.
func (r *Registry) RemoveAt(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := index
	if i < 0 {
		i += len(r.rules)
	}
	if i < 0 || i >= len(r.rules) {
		slog.Error("Unable to unregister rule.", "index", index)
		return fmt.Errorf("unregister rule at index %d: %w", index, ErrRuleNotFound)
	}
	r.rules = append(r.rules[:i], r.rules[i+1:]...)
	slog.Debug("Removed rule.", "index", index)
	return nil
}

// Resolve runs the chain against in and returns the winning rule with its
// value. Unless the winner is a FnResultRule, a function-result marker in
// its value supersedes it.
func (r *Registry) Resolve(ctx context.Context, in *Input) (Match, error) {
	logger := ctxlog.FromContext(ctx)
	chain := r.Rules()

	var found *Match
	for _, rule := range chain {
		v, ok, err := rule.Match(in)
		if err != nil {
			return Match{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		if ok {
			logger.Debug("Rule matched.", "rule", rule.Name())
			found = &Match{Rule: rule, Value: v}
			break
		}
	}
	if found == nil {
		return Match{}, fmt.Errorf("%w for code %q", ErrNoRuleMatched, in.Code)
	}

	if _, ok := found.Rule.(*FnResultRule); ok {
		return *found, nil
	}
	candidate := &FnValueRule{Data: found.Value}
	if v, ok, _ := candidate.Match(in); ok {
		logger.Debug("Swapping rule for function value.", "rule", found.Rule.Name(), "swap", candidate.Name())
		return Match{Rule: candidate, Value: v}, nil
	}
	return *found, nil
}
