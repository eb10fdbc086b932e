// Package workbook adapts an excelize workbook to the doc.Document and
// doc.Sheet contracts. Access is read-only.
package workbook

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/cellgrid/internal/doc"
	"github.com/xuri/excelize/v2"
	"github.com/zclconf/go-cty/cty"
)

// maxRangeCells guards against accidental whole-column reads.
const maxRangeCells = 100_000

// Workbook is a doc.Document backed by an excelize file.
type Workbook struct {
	f     *excelize.File
	title string
}

// Open reads a workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook '%s': %w", path, err)
	}
	return New(f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))), nil
}

// New wraps an already open file.
func New(f *excelize.File, title string) *Workbook {
	return &Workbook{f: f, title: title}
}

// Close releases the file.
func (w *Workbook) Close() error { return w.f.Close() }

// Title implements doc.Document.
func (w *Workbook) Title() string { return w.title }

// SheetNames implements doc.Document.
func (w *Workbook) SheetNames() []string { return w.f.GetSheetList() }

// Sheet implements doc.Document.
func (w *Workbook) Sheet(name string) (doc.Sheet, error) {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%q: %w", name, doc.ErrSheetNotFound)
	}
	return &Sheet{f: w.f, name: name}, nil
}

// Sheet is a doc.Sheet for one worksheet of a Workbook.
type Sheet struct {
	f    *excelize.File
	name string
}

// Name implements doc.Sheet.
func (s *Sheet) Name() string { return s.name }

// Cell implements doc.Sheet.
func (s *Sheet) Cell(ref string) (cty.Value, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if _, _, err := excelize.CellNameToCoordinates(ref); err != nil {
		return cty.NilVal, fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}
	raw, err := s.f.GetCellValue(s.name, ref)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to read %s!%s: %w", s.name, ref, err)
	}
	return cellValue(raw), nil
}

// Range implements doc.Sheet.
func (s *Sheet) Range(ref string) ([][]cty.Value, error) {
	startCol, startRow, endCol, endRow, err := parseRange(ref)
	if err != nil {
		return nil, err
	}
	if (endCol-startCol+1)*(endRow-startRow+1) > maxRangeCells {
		return nil, fmt.Errorf("range %q is larger than %d cells", ref, maxRangeCells)
	}

	rows := make([][]cty.Value, 0, endRow-startRow+1)
	for r := startRow; r <= endRow; r++ {
		row := make([]cty.Value, 0, endCol-startCol+1)
		for c := startCol; c <= endCol; c++ {
			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return nil, err
			}
			raw, err := s.f.GetCellValue(s.name, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s!%s: %w", s.name, name, err)
			}
			row = append(row, cellValue(raw))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRange accepts "A1", "A1:C3" and reversed corners such as "C3:A1".
func parseRange(ref string) (startCol, startRow, endCol, endRow int, err error) {
	ref = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	from, to, found := strings.Cut(ref, ":")
	if !found {
		to = from
	}
	startCol, startRow, err = excelize.CellNameToCoordinates(from)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	endCol, endRow, err = excelize.CellNameToCoordinates(to)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	return startCol, startRow, endCol, endRow, nil
}

// cellValue turns formatted cell text into a number or bool where it looks
// like one, and a string otherwise.
func cellValue(raw string) cty.Value {
	if raw == "" {
		return cty.StringVal("")
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		if v, err := cty.ParseNumberVal(raw); err == nil {
			return v
		}
	}
	switch raw {
	case "TRUE":
		return cty.True
	case "FALSE":
		return cty.False
	}
	return cty.StringVal(raw)
}
