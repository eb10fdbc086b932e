// Package grid shapes a cell result into something a spreadsheet can show:
// a single scalar or a rectangular block of primitive values.
package grid

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/specialistvlad/cellgrid/internal/engine"
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Grid is a scalar or a rectangular block of primitive cty values.
type Grid struct {
	rows   [][]cty.Value
	scalar bool
}

// Scalar returns a one-value grid.
func Scalar(v cty.Value) Grid {
	return Grid{rows: [][]cty.Value{{v}}, scalar: true}
}

// IsScalar reports whether g holds a single value rather than an array.
func (g Grid) IsScalar() bool { return g.scalar }

// Rows returns the cells row by row. Every row has the same width.
func (g Grid) Rows() [][]cty.Value { return g.rows }

// Height returns the number of rows.
func (g Grid) Height() int { return len(g.rows) }

// Width returns the number of columns.
func (g Grid) Width() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows[0])
}

// Value returns the top-left cell, or null for an empty grid.
func (g Grid) Value() cty.Value {
	if len(g.rows) == 0 || len(g.rows[0]) == 0 {
		return value.Null
	}
	return g.rows[0][0]
}

// Strings renders every cell for display.
func (g Grid) Strings() [][]string {
	out := make([][]string, len(g.rows))
	for i, row := range g.rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = Text(c)
		}
	}
	return out
}

// Text renders one primitive cell.
func Text(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return ""
	}
	if !v.IsKnown() {
		return "?"
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "TRUE"
		}
		return "FALSE"
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return fmt.Sprintf("%d", i)
			}
		}
		return bf.Text('g', -1)
	}
	return value.Describe(v)
}

// FromResult shapes an engine result. A failed result becomes the scalar
// error text.
func FromResult(r *engine.Result) (Grid, error) {
	if r == nil {
		return Scalar(value.Null), nil
	}
	if r.IsError() {
		return Scalar(cty.StringVal(r.Err.Text())), nil
	}
	return FromValue(r.Data)
}

// FromValue shapes v:
//   - primitives and nulls become scalars
//   - a list of lists becomes rows, short rows padded with ""
//   - a flat list becomes one row
//   - objects and maps become [key, value] rows
//   - tables get a header row, series an optional ["", name] header
//   - function-result markers are replaced by their data
//
// Collections nested inside a cell are rendered as JSON text.
func FromValue(v cty.Value) (Grid, error) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return Scalar(value.Null), nil
	}
	ty := v.Type()

	if ty.IsCapsuleType() {
		if fr, ok := value.AsFnResult(v); ok {
			return FromValue(fr.Data)
		}
		if t, ok := value.AsTable(v); ok {
			return fromTable(t), nil
		}
		if s, ok := value.AsSeries(v); ok {
			return fromSeries(s), nil
		}
		return Scalar(cty.StringVal(value.Describe(v))), nil
	}
	if ty.IsPrimitiveType() {
		return Scalar(v), nil
	}
	if ty.IsObjectType() || ty.IsMapType() {
		return fromObject(v), nil
	}
	if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
		return fromCollection(v), nil
	}
	return Grid{}, fmt.Errorf("cannot shape %s into a grid", ty.FriendlyName())
}

func fromCollection(v cty.Value) Grid {
	var elems []cty.Value
	nested := false
	for it := v.ElementIterator(); it.Next(); {
		_, e := it.Element()
		if isCollection(e) {
			nested = true
		}
		elems = append(elems, e)
	}
	if len(elems) == 0 {
		return rect([][]cty.Value{{cty.StringVal("")}})
	}
	if !nested {
		return rect([][]cty.Value{cells(elems)})
	}

	rows := make([][]cty.Value, 0, len(elems))
	for _, e := range elems {
		var raw []cty.Value
		if isCollection(e) {
			for it := e.ElementIterator(); it.Next(); {
				_, c := it.Element()
				raw = append(raw, c)
			}
		} else {
			raw = []cty.Value{e}
		}
		rows = append(rows, cells(raw))
	}
	return rect(rows)
}

func fromObject(v cty.Value) Grid {
	m := v.AsValueMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return rect([][]cty.Value{{cty.StringVal("")}})
	}
	rows := make([][]cty.Value, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []cty.Value{cty.StringVal(k), cell(m[k])})
	}
	return rect(rows)
}

func fromTable(t *value.Table) Grid {
	header := make([]cty.Value, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = cty.StringVal(c)
	}
	rows := [][]cty.Value{header}
	for _, r := range t.Rows {
		rows = append(rows, cells(r))
	}
	return rect(rows)
}

func fromSeries(s *value.Series) Grid {
	var rows [][]cty.Value
	if s.Name != "" {
		rows = append(rows, []cty.Value{cty.StringVal(""), cty.StringVal(s.Name)})
	}
	for i, v := range s.Values {
		rows = append(rows, []cty.Value{cty.StringVal(s.Index[i]), cell(v)})
	}
	if len(rows) == 0 {
		rows = [][]cty.Value{{cty.StringVal("")}}
	}
	return rect(rows)
}

// rect pads rows to the widest one.
func rect(rows [][]cty.Value) Grid {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for i, r := range rows {
		for len(r) < width {
			r = append(r, cty.StringVal(""))
		}
		rows[i] = r
	}
	return Grid{rows: rows}
}

func cells(vals []cty.Value) []cty.Value {
	out := make([]cty.Value, len(vals))
	for i, v := range vals {
		out[i] = cell(v)
	}
	return out
}

// cell reduces v to a primitive value that fits in one cell.
func cell(v cty.Value) cty.Value {
	if v == cty.NilVal || v.IsNull() {
		return cty.StringVal("")
	}
	ty := v.Type()
	switch {
	case ty.IsPrimitiveType():
		return v
	case ty.IsCapsuleType():
		if fr, ok := value.AsFnResult(v); ok {
			return cell(fr.Data)
		}
		return cty.StringVal(value.Describe(v))
	}
	if !v.IsWhollyKnown() {
		return cty.StringVal("?")
	}
	b, err := ctyjson.Marshal(v, ty)
	if err != nil {
		// Collections holding capsules have no JSON form.
		return cty.StringVal(value.Describe(v))
	}
	return cty.StringVal(string(b))
}

func isCollection(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	return ty.IsListType() || ty.IsTupleType() || ty.IsSetType()
}
