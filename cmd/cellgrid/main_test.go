package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/cellgrid/internal/app"
	"github.com/specialistvlad/cellgrid/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_EvaluatesCells(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "item"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "bolts"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 4))
	book := filepath.Join(dir, "stock.xlsx")
	require.NoError(t, f.SaveAs(book))
	require.NoError(t, f.Close())

	first := writeFile(t, dir, "1.cell", "# the rate\nrate = 3\n")
	second := writeFile(t, dir, "2.cell", "cell(\"B2\") * rate\n")
	third := writeFile(t, dir, "3.cell", "lp(\"A1:B2\")\n")
	broken := writeFile(t, dir, "4.cell", "raise \"broken\"\n")

	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}
	err := run(context.Background(), out, logs, []string{"-w", book, first, "C5=" + second, third, broken})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1!A1 (last-line-assign)\n"+
		"3\n"+
		"Sheet1!C5 (eval)\n"+
		"12\n"+
		"Sheet1!A2 (fn-value)\n"+
		"item   qty\n"+
		"bolts  4\n"+
		"Sheet1!A3 (error)\n"+
		"#ERR raise: broken\n", out.String())
	assert.Contains(t, logs.String(), "Cell execution failed.")
}

func TestRun_FailOnError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.cell", "x = missing + 1")

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"-fail-on-error", script})
	require.ErrorIs(t, err, app.ErrCellsFailed)
}

func TestRun_MissingWorkbook(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeFile(t, dir, "a.cell", "x = 1")

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"-w", filepath.Join(dir, "nope.xlsx"), script})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application startup failed")
}
