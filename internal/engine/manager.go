package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/cellgrid/internal/cellerr"
	"github.com/specialistvlad/cellgrid/internal/cellscript"
	"github.com/specialistvlad/cellgrid/internal/ctxlog"
	"github.com/specialistvlad/cellgrid/internal/doc"
	"github.com/specialistvlad/cellgrid/internal/namespace"
	"github.com/specialistvlad/cellgrid/internal/rules"
	"github.com/specialistvlad/cellgrid/internal/strutil"
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// BaselineVersion changes whenever BaselineCode does.
const BaselineVersion = 1

// BaselineCode initializes the per-call sentinels.
const BaselineCode = `CURRENT_CELL = null
CURRENT_CELL_ID = ""
LAST_VALUE = null
CALL_ARGS = null`

// Sentinel names set by BaselineCode and by the session before a run.
const (
	CurrentCell   = "CURRENT_CELL"
	CurrentCellID = "CURRENT_CELL_ID"
	LastValue     = "LAST_VALUE"
	CallArgs      = "CALL_ARGS"
)

// DefaultCommentMarker starts a comment that runs to the end of the line.
const DefaultCommentMarker = "#"

// Options tune a Manager. The zero value is usable.
type Options struct {
	// VerboseErrors adds the failing code to error results and logs.
	VerboseErrors bool
	// CommentMarker defaults to DefaultCommentMarker.
	CommentMarker string
	// Reporter defaults to LogReporter.
	Reporter Reporter
	// Rules defaults to the built-in chain.
	Rules *rules.Registry
}

// Manager serializes every operation on its namespace with one mutex.
type Manager struct {
	mu       sync.Mutex
	doc      doc.Document
	sheet    doc.Sheet
	ns       *namespace.Namespace
	interp   *cellscript.Interpreter
	rules    *rules.Registry
	baseline namespace.Snapshot
	opts     Options
}

// New returns an initialized manager for sheet of d. Both may be nil, in
// which case the accessors are null and the sheet builtins fail when called.
func New(ctx context.Context, d doc.Document, sheet doc.Sheet, opts Options) (*Manager, error) {
	if opts.CommentMarker == "" {
		opts.CommentMarker = DefaultCommentMarker
	}
	if opts.Reporter == nil {
		opts.Reporter = LogReporter{}
	}
	if opts.Rules == nil {
		opts.Rules = rules.New(true)
	}
	m := &Manager{
		doc:    d,
		sheet:  sheet,
		ns:     namespace.New(),
		interp: cellscript.New(sheet),
		rules:  opts.Rules,
		opts:   opts,
	}
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Initialize rebuilds the namespace from scratch, runs the baseline code and
// records the result as the baseline snapshot.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger := ctxlog.FromContext(ctx)

	m.ns.Clear()
	m.ns.Set("doc", doc.DocumentAccessor(m.doc))
	m.ns.Set("sheet", doc.SheetAccessor(m.sheet))
	if err := m.interp.Exec(ctx, m.ns, BaselineCode); err != nil {
		return fmt.Errorf("executing baseline v%d: %w", BaselineVersion, err)
	}
	m.baseline = m.ns.Snapshot()
	logger.Debug("Namespace initialized.", "baseline_version", BaselineVersion, "bindings", len(m.baseline))
	return nil
}

// Rules returns the registry used for classification. It may be extended
// between runs.
func (m *Manager) Rules() *rules.Registry { return m.rules }

// Run executes code against the live namespace and classifies the outcome.
func (m *Manager) Run(ctx context.Context, code string) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run(ctx, code)
}

func (m *Manager) run(ctx context.Context, code string) (res *Result) {
	logger := ctxlog.FromContext(ctx)
	clean := strutil.Clean(strutil.RemoveComments(code, m.opts.CommentMarker))

	defer func() {
		if p := recover(); p != nil {
			res = m.fail(ctx, &cellerr.PanicError{Value: p}, code)
		}
	}()

	if clean != "" {
		if err := m.interp.Exec(ctx, m.ns, clean); err != nil {
			return m.fail(ctx, err, code)
		}
	}
	match, err := m.rules.Resolve(ctx, &rules.Input{NS: m.ns, Code: clean, Source: code, Eval: m.interp})
	if err != nil {
		return m.fail(ctx, err, code)
	}
	logger.Debug("Cell evaluated.", "rule", match.Rule.Name())
	return &Result{Data: match.Value, Rule: match.Rule.Name()}
}

func (m *Manager) fail(ctx context.Context, err error, code string) *Result {
	logger := ctxlog.FromContext(ctx)
	extra := ""
	if m.opts.VerboseErrors {
		extra = "code: " + code
	}
	cerr := cellerr.Wrap(err, extra)

	args := []any{"kind", string(cerr.Kind()), "error", cerr.Message()}
	if m.opts.VerboseErrors {
		args = append(args, "code", code, "original", fmt.Sprintf("%+v", cerr.Original()))
	}
	logger.Error("Cell execution failed.", args...)

	m.report(ctx, cerr, code)
	return &Result{Data: value.Null, Err: cerr}
}

// report hands cerr to the reporter. A failing reporter never changes the
// result of the run.
func (m *Manager) report(ctx context.Context, cerr *cellerr.Error, code string) {
	logger := ctxlog.FromContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			logger.Warn("Error reporter panicked.", "panic", fmt.Sprint(p))
		}
	}()
	if err := m.opts.Reporter.Report(ctx, cerr, code); err != nil {
		logger.Warn("Error reporter failed.", "error", err)
	}
}

// Reset restores a copy of the baseline snapshot.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ns.Replace(m.baseline)
	ctxlog.FromContext(ctx).Debug("Namespace reset to baseline.", "bindings", len(m.baseline))
}

// ResetTo installs a copy of snap as the live namespace. With non-empty code
// it then behaves like Run; with empty code it returns nil.
func (m *Manager) ResetTo(ctx context.Context, snap namespace.Snapshot, code string) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ns.Replace(snap)
	ctxlog.FromContext(ctx).Debug("Namespace reset to snapshot.", "bindings", len(snap), "rerun", code != "")
	if code == "" {
		return nil
	}
	return m.run(ctx, code)
}

// SetGlobal binds name directly, without running any code.
func (m *Manager) SetGlobal(name string, v cty.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ns.Set(name, v)
}

// Lookup returns the current value of name.
func (m *Manager) Lookup(name string) (cty.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ns.Get(name)
}

// Snapshot returns an ordered copy of the live bindings.
func (m *Manager) Snapshot() namespace.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ns.Snapshot()
}

// Baseline returns a copy of the baseline snapshot.
func (m *Manager) Baseline() namespace.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline.Clone()
}
