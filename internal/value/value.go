// Package value defines the tagged cty capsule types that can live in a cell
// namespace next to ordinary cty values: callables, tables, series and the
// function-result marker. Rules tell them apart by capsule type and by the
// FnResult kind, never by probing for attributes.
package value

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Callable is a named function bound in a namespace.
type Callable struct {
	Name    string
	Params  []string
	Builtin bool
	Fn      function.Function
}

// Table is a column-labelled rectangular data set.
type Table struct {
	Columns []string
	Rows    [][]cty.Value
}

// Series is a labelled one-dimensional data set. Index and Values have the
// same length.
type Series struct {
	Name   string
	Index  []string
	Values []cty.Value
}

// FnKind discriminates what an FnResult wraps.
type FnKind string

const (
	// FnRange marks a raw range read, Data is a tuple of row tuples.
	FnRange FnKind = "range"
	// FnObject marks a structured object, Data is usually a Table capsule.
	FnObject FnKind = "object"
)

// FnResult is the marker produced by the sheet-reading builtins.
type FnResult struct {
	Kind FnKind
	Ref  string
	Data cty.Value
}

var (
	CallableType = cty.Capsule("callable", reflect.TypeOf(Callable{}))
	TableType    = cty.Capsule("table", reflect.TypeOf(Table{}))
	SeriesType   = cty.Capsule("series", reflect.TypeOf(Series{}))
	FnResultType = cty.Capsule("fn_result", reflect.TypeOf(FnResult{}))
)

// CallableVal wraps c as a cty value.
func CallableVal(c *Callable) cty.Value { return cty.CapsuleVal(CallableType, c) }

// TableVal wraps t as a cty value.
func TableVal(t *Table) cty.Value { return cty.CapsuleVal(TableType, t) }

// SeriesVal wraps s as a cty value.
func SeriesVal(s *Series) cty.Value { return cty.CapsuleVal(SeriesType, s) }

// FnResultVal wraps r as a cty value.
func FnResultVal(r *FnResult) cty.Value { return cty.CapsuleVal(FnResultType, r) }

func capsule[T any](v cty.Value, ty cty.Type) (*T, bool) {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() || !v.Type().Equals(ty) {
		return nil, false
	}
	p, ok := v.EncapsulatedValue().(*T)
	return p, ok
}

// AsCallable unwraps a callable capsule.
func AsCallable(v cty.Value) (*Callable, bool) { return capsule[Callable](v, CallableType) }

// AsTable unwraps a table capsule.
func AsTable(v cty.Value) (*Table, bool) { return capsule[Table](v, TableType) }

// AsSeries unwraps a series capsule.
func AsSeries(v cty.Value) (*Series, bool) { return capsule[Series](v, SeriesType) }

// AsFnResult unwraps a function-result marker.
func AsFnResult(v cty.Value) (*FnResult, bool) { return capsule[FnResult](v, FnResultType) }

// IsCallable reports whether v is a callable capsule.
func IsCallable(v cty.Value) bool {
	_, ok := AsCallable(v)
	return ok
}

// Null is the untyped null used for sentinels.
var Null = cty.NullVal(cty.DynamicPseudoType)

// EmptyGrid is the single empty-string cell returned when nothing is bound.
var EmptyGrid = cty.TupleVal([]cty.Value{cty.TupleVal([]cty.Value{cty.StringVal("")})})

// Describe returns a short human readable form of v for logs and displays.
func Describe(v cty.Value) string {
	if v == cty.NilVal {
		return "<nil>"
	}
	if c, ok := AsCallable(v); ok {
		return fmt.Sprintf("<function %s/%d>", c.Name, len(c.Params))
	}
	if t, ok := AsTable(v); ok {
		return fmt.Sprintf("<table %dx%d>", len(t.Rows), len(t.Columns))
	}
	if s, ok := AsSeries(v); ok {
		return fmt.Sprintf("<series %q len=%d>", s.Name, len(s.Values))
	}
	if r, ok := AsFnResult(v); ok {
		return fmt.Sprintf("<%s %s>", r.Kind, r.Ref)
	}
	if native, err := ToNative(v); err == nil {
		return fmt.Sprintf("%v", native)
	}
	return v.GoString()
}
