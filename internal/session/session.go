// Package session is the explicit context object of one open document. It
// is built once, when the document is opened, and handed to whatever needs
// to evaluate cells.
//
// A Session owns one engine.Manager per sheet, created on first use, so all
// cells of a sheet share a namespace. It hands out a stable ID per cell and
// records each cell's code and resulting snapshot in a cellstore.Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/cellgrid/internal/cellstore"
	"github.com/specialistvlad/cellgrid/internal/ctxlog"
	"github.com/specialistvlad/cellgrid/internal/doc"
	"github.com/specialistvlad/cellgrid/internal/engine"
	"github.com/specialistvlad/cellgrid/internal/inmemorystore"
	"github.com/zclconf/go-cty/cty"
)

// ErrUnknownCell is returned when a cell has never been run in this session.
var ErrUnknownCell = errors.New("cell has not been evaluated")

// Options configure a Session.
type Options struct {
	Engine engine.Options
	// Store defaults to an in-memory store.
	Store cellstore.Store
}

// Session serializes access to its own maps. Each Manager serializes its
// namespace.
type Session struct {
	mu       sync.Mutex
	doc      doc.Document
	engine   engine.Options
	store    cellstore.Store
	managers map[string]*engine.Manager
	cells    map[cellKey]string
}

type cellKey struct {
	sheet string
	ref   string
}

// New returns a session over d.
func New(d doc.Document, opts Options) *Session {
	if opts.Store == nil {
		opts.Store = inmemorystore.New()
	}
	return &Session{
		doc:      d,
		engine:   opts.Engine,
		store:    opts.Store,
		managers: make(map[string]*engine.Manager),
		cells:    make(map[cellKey]string),
	}
}

// Document returns the document the session was opened on.
func (s *Session) Document() doc.Document { return s.doc }

// Manager returns the manager of sheet, creating it on first use.
func (s *Session) Manager(ctx context.Context, sheet string) (*engine.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.managers[sheet]; ok {
		return m, nil
	}

	sh, err := s.doc.Sheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("opening sheet %q: %w", sheet, err)
	}
	m, err := engine.New(ctxlog.With(ctx, "sheet", sheet), s.doc, sh, s.engine)
	if err != nil {
		return nil, fmt.Errorf("starting namespace for sheet %q: %w", sheet, err)
	}
	s.managers[sheet] = m
	ctxlog.FromContext(ctx).Debug("Created namespace manager.", "sheet", sheet)
	return m, nil
}

// CellID returns the ID of the cell at ref in sheet, assigning one if needed.
func (s *Session) CellID(sheet, ref string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cellKey{sheet: sheet, ref: ref}
	if id, ok := s.cells[key]; ok {
		return id
	}
	id := uuid.NewString()
	s.cells[key] = id
	return id
}

func (s *Session) lookupID(sheet, ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.cells[cellKey{sheet: sheet, ref: ref}]
	return id, ok
}

// RunCell evaluates code as the formula of the cell at ref. The cell's
// identity is injected first; after a successful run LAST_VALUE holds the
// result. The new namespace snapshot is recorded for the cell.
func (s *Session) RunCell(ctx context.Context, sheet, ref, code string) (*engine.Result, error) {
	m, err := s.Manager(ctx, sheet)
	if err != nil {
		return nil, err
	}
	id := s.CellID(sheet, ref)
	ctx = ctxlog.With(ctx, "sheet", sheet, "cell", ref)

	m.SetGlobal(engine.CurrentCell, cty.StringVal(ref))
	m.SetGlobal(engine.CurrentCellID, cty.StringVal(id))
	res := m.Run(ctx, code)
	return res, s.record(ctx, m, id, sheet, ref, code, res)
}

// RestoreCell reinstalls the snapshot recorded for the cell without running
// anything.
func (s *Session) RestoreCell(ctx context.Context, sheet, ref string) error {
	m, rec, err := s.recorded(ctx, sheet, ref)
	if err != nil {
		return err
	}
	m.ResetTo(ctx, rec.Snapshot, "")
	return nil
}

// RecalcCell reinstalls the snapshot recorded for the cell and runs its code
// again on top of it.
func (s *Session) RecalcCell(ctx context.Context, sheet, ref string) (*engine.Result, error) {
	m, rec, err := s.recorded(ctx, sheet, ref)
	if err != nil {
		return nil, err
	}
	ctx = ctxlog.With(ctx, "sheet", sheet, "cell", ref)
	res := m.ResetTo(ctx, rec.Snapshot, rec.Code)
	if res == nil {
		// Empty code: classify the restored namespace as Run would.
		res = m.Run(ctx, "")
	}
	return res, s.record(ctx, m, rec.ID, sheet, ref, rec.Code, res)
}

// Forget drops what the session knows about a cell.
func (s *Session) Forget(ctx context.Context, sheet, ref string) error {
	key := cellKey{sheet: sheet, ref: ref}
	s.mu.Lock()
	id, ok := s.cells[key]
	delete(s.cells, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.store.Delete(ctx, id)
}

// ResetSheet returns the namespace of sheet to its baseline.
func (s *Session) ResetSheet(ctx context.Context, sheet string) error {
	m, err := s.Manager(ctx, sheet)
	if err != nil {
		return err
	}
	m.Reset(ctxlog.With(ctx, "sheet", sheet))
	return nil
}

// Close releases the document when it holds resources.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Closing session.")
	if c, ok := s.doc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) recorded(ctx context.Context, sheet, ref string) (*engine.Manager, cellstore.Record, error) {
	id, ok := s.lookupID(sheet, ref)
	if !ok {
		return nil, cellstore.Record{}, fmt.Errorf("%s!%s: %w", sheet, ref, ErrUnknownCell)
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, cellstore.Record{}, fmt.Errorf("%s!%s: %w", sheet, ref, err)
	}
	m, err := s.Manager(ctx, sheet)
	if err != nil {
		return nil, cellstore.Record{}, err
	}
	return m, rec, nil
}

func (s *Session) record(ctx context.Context, m *engine.Manager, id, sheet, ref, code string, res *engine.Result) error {
	if !res.IsError() {
		m.SetGlobal(engine.LastValue, res.Data)
	}
	rec := cellstore.Record{
		ID:        id,
		Sheet:     sheet,
		Ref:       ref,
		Code:      code,
		Snapshot:  m.Snapshot(),
		Failed:    res.IsError(),
		UpdatedAt: time.Now(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("recording cell %s!%s: %w", sheet, ref, err)
	}
	return nil
}
