package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/cellgrid/internal/ctxlog"
	"github.com/specialistvlad/cellgrid/internal/engine"
	"github.com/specialistvlad/cellgrid/internal/grid"
	"github.com/specialistvlad/cellgrid/internal/session"
	"github.com/specialistvlad/cellgrid/internal/workbook"
	"github.com/xuri/excelize/v2"
)

// ErrCellsFailed is returned by Run with FailOnError when any cell failed.
var ErrCellsFailed = errors.New("one or more cells failed")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	session *session.Session
}

// NewApp opens the workbook named by cfg, or an empty in-memory one, and
// starts a session on it. Logs go to logW, results to outW.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	var (
		book *workbook.Workbook
		err  error
	)
	if cfg.WorkbookPath != "" {
		book, err = workbook.Open(cfg.WorkbookPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("Workbook opened.", "path", cfg.WorkbookPath, "sheets", book.SheetNames())
	} else {
		book = workbook.New(excelize.NewFile(), "untitled")
		logger.Debug("Using an empty in-memory workbook.")
	}

	sess := session.New(book, session.Options{
		Engine: engine.Options{
			VerboseErrors: cfg.VerboseErrors,
			CommentMarker: cfg.CommentMarker,
		},
	})
	return &App{outW: outW, logger: logger, config: cfg, session: sess}, nil
}

// Session returns the application's session. This is primarily for testing.
func (a *App) Session() *session.Session { return a.session }

// Run evaluates every configured cell in order and prints its grid.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "cells", len(a.config.Cells), "sheet", a.config.Sheet)

	failed := 0
	for _, c := range a.config.Cells {
		code, err := os.ReadFile(c.Path)
		if err != nil {
			return fmt.Errorf("reading script for %s: %w", c.Ref, err)
		}
		res, err := a.session.RunCell(ctx, a.config.Sheet, c.Ref, string(code))
		if err != nil {
			return fmt.Errorf("evaluating %s: %w", c.Ref, err)
		}
		if res.IsError() {
			failed++
		}
		g, err := grid.FromResult(res)
		if err != nil {
			return fmt.Errorf("shaping result of %s: %w", c.Ref, err)
		}
		if err := a.print(c, res, g); err != nil {
			return err
		}
	}

	a.logger.Info("Evaluation finished.", "cells", len(a.config.Cells), "failed", failed)
	if failed > 0 && a.config.FailOnError {
		return fmt.Errorf("%w: %d of %d", ErrCellsFailed, failed, len(a.config.Cells))
	}
	return nil
}

func (a *App) print(c Cell, res *engine.Result, g grid.Grid) error {
	label := res.Rule
	if res.IsError() {
		label = "error"
	}
	if _, err := fmt.Fprintf(a.outW, "%s!%s (%s)\n", a.config.Sheet, c.Ref, label); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	for _, row := range g.Strings() {
		// Padding cells would leave trailing blanks on the line.
		for len(row) > 1 && row[len(row)-1] == "" {
			row = row[:len(row)-1]
		}
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Close releases the workbook.
func (a *App) Close(ctx context.Context) error {
	return a.session.Close(ctxlog.WithLogger(ctx, a.logger))
}
