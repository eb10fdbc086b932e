// Package namespace implements the insertion-ordered binding store that backs
// a cell execution scope.
//
// Ordering follows the rules of a dictionary that remembers insertion: a
// rebinding keeps the original position, a deletion followed by a new
// assignment moves the name to the end. "Last inserted" is therefore
// well-defined and stable across in-place updates.
package namespace

import (
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Binding is one name/value pair.
type Binding struct {
	Name  string
	Value cty.Value
}

// Snapshot is an ordered copy of a namespace's bindings.
type Snapshot []Binding

// Namespace is not safe for concurrent use; its owner serializes access.
type Namespace struct {
	order []string
	vals  map[string]cty.Value
}

// New returns an empty namespace.
func New() *Namespace {
	return &Namespace{vals: make(map[string]cty.Value)}
}

// FromSnapshot builds a namespace holding a copy of s. Later bindings for a
// repeated name overwrite earlier ones in place.
func FromSnapshot(s Snapshot) *Namespace {
	ns := New()
	for _, b := range s {
		ns.Set(b.Name, b.Value)
	}
	return ns
}

// Len returns the number of bindings.
func (n *Namespace) Len() int { return len(n.order) }

// Get returns the value bound to name.
func (n *Namespace) Get(name string) (cty.Value, bool) {
	v, ok := n.vals[name]
	return v, ok
}

// Has reports whether name is bound.
func (n *Namespace) Has(name string) bool {
	_, ok := n.vals[name]
	return ok
}

// Set binds name to v.
func (n *Namespace) Set(name string, v cty.Value) {
	if _, ok := n.vals[name]; !ok {
		n.order = append(n.order, name)
	}
	n.vals[name] = v
}

// Delete removes name and reports whether it was bound.
func (n *Namespace) Delete(name string) bool {
	if _, ok := n.vals[name]; !ok {
		return false
	}
	delete(n.vals, name)
	for i, k := range n.order {
		if k == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every binding.
func (n *Namespace) Clear() {
	n.order = nil
	n.vals = make(map[string]cty.Value)
}

// Replace clears n and installs a copy of s.
func (n *Namespace) Replace(s Snapshot) {
	n.Clear()
	for _, b := range s {
		n.Set(b.Name, b.Value)
	}
}

// Last returns the most recently inserted binding.
func (n *Namespace) Last() (Binding, bool) {
	if len(n.order) == 0 {
		return Binding{}, false
	}
	name := n.order[len(n.order)-1]
	return Binding{Name: name, Value: n.vals[name]}, true
}

// LastValue returns the most recently inserted binding that is not callable.
func (n *Namespace) LastValue() (Binding, bool) {
	for i := len(n.order) - 1; i >= 0; i-- {
		name := n.order[i]
		v := n.vals[name]
		if value.IsCallable(v) {
			continue
		}
		return Binding{Name: name, Value: v}, true
	}
	return Binding{}, false
}

// Names returns the bound names in insertion order.
func (n *Namespace) Names() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Snapshot returns an ordered copy of the bindings.
func (n *Namespace) Snapshot() Snapshot {
	out := make(Snapshot, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, Binding{Name: name, Value: n.vals[name]})
	}
	return out
}

// Split separates the bindings into plain variables and callables, the
// shape an HCL evaluation context wants.
func (n *Namespace) Split() (vars map[string]cty.Value, funcs map[string]*value.Callable) {
	vars = make(map[string]cty.Value, len(n.vals))
	funcs = make(map[string]*value.Callable)
	for name, v := range n.vals {
		vars[name] = v
		if c, ok := value.AsCallable(v); ok {
			funcs[name] = c
		}
	}
	return vars, funcs
}

// Equal reports whether two snapshots hold the same names in the same order
// with raw-equal values.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Name != other[i].Name || !s[i].Value.RawEquals(other[i].Value) {
			return false
		}
	}
	return true
}

// Clone returns a copy of s that shares no backing array with it.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
