// Package doc declares the spreadsheet collaborator contracts the cell engine
// reads from. The engine never writes back to a document.
package doc

import (
	"errors"

	"github.com/zclconf/go-cty/cty"
)

// ErrSheetNotFound is returned by Document.Sheet for an unknown name.
var ErrSheetNotFound = errors.New("sheet not found")

// Sheet gives read access to one worksheet.
type Sheet interface {
	Name() string
	// Cell returns the value at an A1-style reference.
	Cell(ref string) (cty.Value, error)
	// Range returns the rows of an A1-style range such as "A1:C3". A single
	// cell reference yields a 1x1 range.
	Range(ref string) ([][]cty.Value, error)
}

// Document is an open workbook.
type Document interface {
	Title() string
	SheetNames() []string
	Sheet(name string) (Sheet, error)
}

// DocumentAccessor returns the value bound to "doc" in a fresh namespace.
func DocumentAccessor(d Document) cty.Value {
	if d == nil {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	names := d.SheetNames()
	sheets := make([]cty.Value, 0, len(names))
	for _, n := range names {
		sheets = append(sheets, cty.StringVal(n))
	}
	return cty.ObjectVal(map[string]cty.Value{
		"title":  cty.StringVal(d.Title()),
		"sheets": cty.TupleVal(sheets),
	})
}

// SheetAccessor returns the value bound to "sheet" in a fresh namespace.
func SheetAccessor(s Sheet) cty.Value {
	if s == nil {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"name": cty.StringVal(s.Name()),
	})
}

// RowsVal converts range rows into a tuple of row tuples.
func RowsVal(rows [][]cty.Value) cty.Value {
	out := make([]cty.Value, 0, len(rows))
	for _, row := range rows {
		out = append(out, cty.TupleVal(row))
	}
	return cty.TupleVal(out)
}
