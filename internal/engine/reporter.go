package engine

import (
	"context"

	"github.com/specialistvlad/cellgrid/internal/cellerr"
	"github.com/specialistvlad/cellgrid/internal/ctxlog"
)

// Reporter receives every failed run together with the code that caused it.
// Its own failures are logged and dropped.
type Reporter interface {
	Report(ctx context.Context, err *cellerr.Error, code string) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, err *cellerr.Error, code string) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, err *cellerr.Error, code string) error {
	return f(ctx, err, code)
}

// LogReporter writes failures to the context logger at warn level.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(ctx context.Context, err *cellerr.Error, code string) error {
	ctxlog.FromContext(ctx).Warn("Cell reported an error.",
		"kind", string(err.Kind()), "message", err.Message(), "code", code)
	return nil
}
