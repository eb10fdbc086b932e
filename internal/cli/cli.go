package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/specialistvlad/cellgrid/internal/app"
	"github.com/specialistvlad/cellgrid/internal/engine"
	"github.com/specialistvlad/cellgrid/internal/fsutil"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

var refRe = regexp.MustCompile(`^[A-Za-z]{1,3}[1-9][0-9]*$`)

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// Values are taken from the defaults, then from the -config file, then from
// flags given explicitly on the command line.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("cellgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
cellgrid - Evaluates cell scripts against a spreadsheet, one shared namespace per sheet.

Usage:
  cellgrid [options] CELL...

Arguments:
  CELL
    REF=PATH evaluates the script at PATH as the formula of cell REF.
    PATH alone gets the next free reference in column A. A directory
    stands for every *`+app.DefaultExtension+` file below it, in lexical order.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL config file.")
	workbookFlag := flagSet.String("workbook", "", "Path to the .xlsx workbook to read from.")
	wFlag := flagSet.String("w", "", "Path to the .xlsx workbook (shorthand).")
	sheetFlag := flagSet.String("sheet", app.DefaultSheet, "Sheet whose namespace the cells run in.")
	markerFlag := flagSet.String("comment-marker", engine.DefaultCommentMarker, "Marker that starts a comment in cell scripts.")
	verboseFlag := flagSet.Bool("verbose-errors", false, "Include the failing code in error results and logs.")
	failFlag := flagSet.Bool("fail-on-error", false, "Exit with status 1 when any cell fails.")
	logFormatFlag := flagSet.String("log-format", app.DefaultLogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", app.DefaultLogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No cells provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	var cfg app.Config
	if *configFlag != "" {
		fc, err := app.LoadFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		fc.Apply(&cfg)
		slog.Debug("Config file applied.", "path", *configFlag)
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workbook":
			cfg.WorkbookPath = *workbookFlag
		case "w":
			cfg.WorkbookPath = *wFlag
		case "sheet":
			cfg.Sheet = *sheetFlag
		case "comment-marker":
			cfg.CommentMarker = *markerFlag
		case "verbose-errors":
			cfg.VerboseErrors = *verboseFlag
		case "fail-on-error":
			cfg.FailOnError = *failFlag
		case "log-format":
			cfg.LogFormat = *logFormatFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		}
	})

	cells, err := parseCells(flagSet.Args())
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	cfg.Cells = cells

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// parseCells expands the positional arguments into cells.
func parseCells(args []string) ([]app.Cell, error) {
	var cells []app.Cell
	used := make(map[string]bool)
	next := 1
	auto := func() string {
		for {
			ref := fmt.Sprintf("A%d", next)
			next++
			if !used[ref] {
				return ref
			}
		}
	}

	// Explicit references are reserved first so auto-assigned ones skip them.
	for _, arg := range args {
		if ref, _, ok := strings.Cut(arg, "="); ok {
			used[strings.ToUpper(ref)] = true
		}
	}

	for _, arg := range args {
		if ref, path, ok := strings.Cut(arg, "="); ok {
			if !refRe.MatchString(ref) {
				return nil, fmt.Errorf("invalid cell reference %q", ref)
			}
			if path == "" {
				return nil, fmt.Errorf("cell %s has no script path", ref)
			}
			cells = append(cells, app.Cell{Ref: strings.ToUpper(ref), Path: path})
			continue
		}
		files, err := fsutil.FindFilesByExtension(arg, app.DefaultExtension)
		if err != nil {
			return nil, fmt.Errorf("finding cell scripts in %s: %w", arg, err)
		}
		for _, f := range files {
			cells = append(cells, app.Cell{Ref: auto(), Path: f})
		}
	}
	return cells, nil
}
