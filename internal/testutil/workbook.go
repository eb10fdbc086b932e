package testutil

import (
	"testing"

	"github.com/specialistvlad/cellgrid/internal/workbook"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet every new excelize file starts with.
const DefaultSheet = "Sheet1"

// NewWorkbook builds an in-memory workbook whose default sheet is filled from
// cells (A1 reference to value). Extra sheets are created empty.
func NewWorkbook(t *testing.T, cells map[string]any, extraSheets ...string) *workbook.Workbook {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for ref, v := range cells {
		require.NoError(t, f.SetCellValue(DefaultSheet, ref, v))
	}
	for _, name := range extraSheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	return workbook.New(f, "test-book")
}

// SalesCells is a small fixture: a header row and three data rows.
func SalesCells() map[string]any {
	return map[string]any{
		"A1": "region", "B1": "units",
		"A2": "north", "B2": 10,
		"A3": "south", "B3": 20,
		"A4": "west", "B4": 5,
	}
}
