package cellscript

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/specialistvlad/cellgrid/internal/doc"
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// errNoSheet is returned by the sheet builtins of a detached interpreter.
var errNoSheet = errors.New("no sheet is attached to this namespace")

// Builtins returns the function table every namespace starts from.
func Builtins(sheet doc.Sheet) map[string]function.Function {
	funcs := map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"ceil":       stdlib.CeilFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"concat":     stdlib.ConcatFunc,
		"contains":   stdlib.ContainsFunc,
		"distinct":   stdlib.DistinctFunc,
		"element":    stdlib.ElementFunc,
		"flatten":    stdlib.FlattenFunc,
		"floor":      stdlib.FloorFunc,
		"format":     stdlib.FormatFunc,
		"int":        stdlib.IntFunc,
		"join":       stdlib.JoinFunc,
		"jsondecode": stdlib.JSONDecodeFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"keys":       stdlib.KeysFunc,
		"length":     stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"merge":      stdlib.MergeFunc,
		"min":        stdlib.MinFunc,
		"range":      stdlib.RangeFunc,
		"replace":    stdlib.ReplaceFunc,
		"reverse":    stdlib.ReverseListFunc,
		"sort":       stdlib.SortFunc,
		"split":      stdlib.SplitFunc,
		"strlen":     stdlib.StrlenFunc,
		"substr":     stdlib.SubstrFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"upper":      stdlib.UpperFunc,
		"values":     stdlib.ValuesFunc,

		"sum":    sumFunc,
		"fail":   failFunc,
		"table":  tableFunc,
		"series": seriesFunc,
	}
	s := sheetFuncs{sheet: sheet}
	funcs["cell"] = s.cellFunc()
	funcs["lp"] = s.lpFunc()
	funcs["lp_table"] = s.lpTableFunc()
	return funcs
}

var sumFunc = function.New(&function.Spec{
	Description: "Adds up every number of a list or tuple.",
	Params: []function.Parameter{
		{Name: "list", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		list := args[0]
		ty := list.Type()
		if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
			return cty.NilVal, fmt.Errorf("sum expects a list, got %s", ty.FriendlyName())
		}
		total := new(big.Float)
		for it := list.ElementIterator(); it.Next(); {
			_, v := it.Element()
			n, err := convert.Convert(v, cty.Number)
			if err != nil {
				return cty.NilVal, fmt.Errorf("sum: %w", err)
			}
			if n.IsNull() {
				continue
			}
			total.Add(total, n.AsBigFloat())
		}
		return cty.NumberVal(total), nil
	},
})

var failFunc = function.New(&function.Spec{
	Description: "Fails the evaluation with the given message.",
	Params: []function.Parameter{
		{Name: "message", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.DynamicPseudoType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.NilVal, errors.New(args[0].AsString())
	},
})

var tableFunc = function.New(&function.Spec{
	Description: "Builds a table from column names and rows.",
	Params: []function.Parameter{
		{Name: "columns", Type: cty.List(cty.String)},
		{Name: "rows", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(value.TableType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		t := &value.Table{}
		for it := args[0].ElementIterator(); it.Next(); {
			_, c := it.Element()
			t.Columns = append(t.Columns, c.AsString())
		}
		rows, err := rowsOf(args[1])
		if err != nil {
			return cty.NilVal, fmt.Errorf("table: %w", err)
		}
		for i, row := range rows {
			if len(row) != len(t.Columns) {
				return cty.NilVal, fmt.Errorf("table: row %d has %d values, want %d", i, len(row), len(t.Columns))
			}
		}
		t.Rows = rows
		return value.TableVal(t), nil
	},
})

var seriesFunc = function.New(&function.Spec{
	Description: "Builds a named series from an object or from a list of [label, value] pairs.",
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
		{Name: "data", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(value.SeriesType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		s := &value.Series{Name: args[0].AsString()}
		data := args[1]
		ty := data.Type()
		switch {
		case ty.IsObjectType() || ty.IsMapType():
			m := data.AsValueMap()
			labels := make([]string, 0, len(m))
			for k := range m {
				labels = append(labels, k)
			}
			sort.Strings(labels)
			for _, k := range labels {
				s.Index = append(s.Index, k)
				s.Values = append(s.Values, m[k])
			}
		case ty.IsListType() || ty.IsTupleType():
			pairs, err := rowsOf(data)
			if err != nil {
				return cty.NilVal, fmt.Errorf("series: %w", err)
			}
			for i, p := range pairs {
				if len(p) != 2 {
					return cty.NilVal, fmt.Errorf("series: element %d is not a [label, value] pair", i)
				}
				label, err := convert.Convert(p[0], cty.String)
				if err != nil || label.IsNull() {
					return cty.NilVal, fmt.Errorf("series: element %d has no usable label", i)
				}
				s.Index = append(s.Index, label.AsString())
				s.Values = append(s.Values, p[1])
			}
		default:
			return cty.NilVal, fmt.Errorf("series: unsupported data of type %s", ty.FriendlyName())
		}
		return value.SeriesVal(s), nil
	},
})

// rowsOf reads a list or tuple of lists or tuples.
func rowsOf(v cty.Value) ([][]cty.Value, error) {
	ty := v.Type()
	if !ty.IsListType() && !ty.IsTupleType() {
		return nil, fmt.Errorf("expected a list of rows, got %s", ty.FriendlyName())
	}
	var rows [][]cty.Value
	for it := v.ElementIterator(); it.Next(); {
		_, row := it.Element()
		rty := row.Type()
		if !rty.IsListType() && !rty.IsTupleType() {
			return nil, fmt.Errorf("row %d is a %s, not a list", len(rows), rty.FriendlyName())
		}
		var cells []cty.Value
		for rit := row.ElementIterator(); rit.Next(); {
			_, c := rit.Element()
			cells = append(cells, c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

type sheetFuncs struct {
	sheet doc.Sheet
}

func (s sheetFuncs) refParam() []function.Parameter {
	return []function.Parameter{{Name: "ref", Type: cty.String}}
}

func (s sheetFuncs) cellFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Reads one cell of the current sheet.",
		Params:      s.refParam(),
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if s.sheet == nil {
				return cty.NilVal, errNoSheet
			}
			return s.sheet.Cell(args[0].AsString())
		},
	})
}

func (s sheetFuncs) lpFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Reads a range of the current sheet as rows.",
		Params:      s.refParam(),
		Type:        function.StaticReturnType(value.FnResultType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if s.sheet == nil {
				return cty.NilVal, errNoSheet
			}
			ref := args[0].AsString()
			rows, err := s.sheet.Range(ref)
			if err != nil {
				return cty.NilVal, err
			}
			return value.FnResultVal(&value.FnResult{
				Kind: value.FnRange,
				Ref:  ref,
				Data: doc.RowsVal(rows),
			}), nil
		},
	})
}

func (s sheetFuncs) lpTableFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Reads a range of the current sheet as a table whose first row holds the column names.",
		Params:      s.refParam(),
		Type:        function.StaticReturnType(value.FnResultType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if s.sheet == nil {
				return cty.NilVal, errNoSheet
			}
			ref := args[0].AsString()
			rows, err := s.sheet.Range(ref)
			if err != nil {
				return cty.NilVal, err
			}
			t := &value.Table{}
			if len(rows) > 0 {
				for _, h := range rows[0] {
					name, err := convert.Convert(h, cty.String)
					if err != nil || name.IsNull() {
						name = cty.StringVal("")
					}
					t.Columns = append(t.Columns, name.AsString())
				}
				t.Rows = rows[1:]
			}
			return value.FnResultVal(&value.FnResult{
				Kind: value.FnObject,
				Ref:  ref,
				Data: value.TableVal(t),
			}), nil
		},
	})
}
