package session_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/cellgrid/internal/cellstore"
	"github.com/specialistvlad/cellgrid/internal/doc"
	"github.com/specialistvlad/cellgrid/internal/engine"
	"github.com/specialistvlad/cellgrid/internal/inmemorystore"
	"github.com/specialistvlad/cellgrid/internal/session"
	"github.com/specialistvlad/cellgrid/internal/testutil"
	"github.com/specialistvlad/cellgrid/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const sheet = testutil.DefaultSheet

func newSession(t *testing.T, opts session.Options) (*session.Session, context.Context) {
	t.Helper()
	ctx, _ := testutil.LogContext()
	wb := testutil.NewWorkbook(t, testutil.SalesCells(), "Other")
	return session.New(wb, opts), ctx
}

func run(ctx context.Context, t *testing.T, s *session.Session, ref, code string) any {
	t.Helper()
	res, err := s.RunCell(ctx, sheet, ref, code)
	require.NoError(t, err)
	require.False(t, res.IsError(), "cell %s failed: %v", ref, res.Err)
	out, err := value.ToNative(res.Data)
	require.NoError(t, err)
	return out
}

func lookup(ctx context.Context, t *testing.T, s *session.Session, sheetName, name string) (cty.Value, bool) {
	t.Helper()
	m, err := s.Manager(ctx, sheetName)
	require.NoError(t, err)
	return m.Lookup(name)
}

func TestRunCell_SharedNamespace(t *testing.T) {
	s, ctx := newSession(t, session.Options{})

	assert.Equal(t, int64(10), run(ctx, t, s, "C1", "a = 10"))
	assert.Equal(t, int64(20), run(ctx, t, s, "C2", "a * 2"))
	assert.Equal(t, int64(35), run(ctx, t, s, "C3", "total = sum([cell(\"B2\"), cell(\"B3\"), cell(\"B4\")])"))

	_, ok := lookup(ctx, t, s, "Other", "a")
	assert.False(t, ok, "sheets must not share bindings")
}

func TestRunCell_InjectsCellContext(t *testing.T) {
	s, ctx := newSession(t, session.Options{})

	id := s.CellID(sheet, "D4")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, s.CellID(sheet, "D4"))
	assert.NotEqual(t, id, s.CellID(sheet, "D5"))

	assert.Equal(t, "D4", run(ctx, t, s, "D4", "here = CURRENT_CELL"))
	assert.Equal(t, id, run(ctx, t, s, "D4", "me = CURRENT_CELL_ID"))

	run(ctx, t, s, "E1", "x = 5")
	assert.Equal(t, int64(6), run(ctx, t, s, "E2", "LAST_VALUE + 1"))
}

func TestRunCell_ErrorResultIsRecorded(t *testing.T) {
	store := inmemorystore.New()
	s, ctx := newSession(t, session.Options{Store: store})

	res, err := s.RunCell(ctx, sheet, "A9", "raise \"bad cell\"")
	require.NoError(t, err)
	require.True(t, res.IsError())
	assert.Equal(t, "bad cell", res.Err.Message())

	rec, err := store.Get(ctx, s.CellID(sheet, "A9"))
	require.NoError(t, err)
	assert.True(t, rec.Failed)
	assert.Equal(t, "A9", rec.Ref)
	assert.Equal(t, "raise \"bad cell\"", rec.Code)
}

func TestRestoreCell(t *testing.T) {
	s, ctx := newSession(t, session.Options{})
	run(ctx, t, s, "A1", "a = 1")
	run(ctx, t, s, "A2", "a = 2\nb = 3")

	require.NoError(t, s.RestoreCell(ctx, sheet, "A1"))
	v, ok := lookup(ctx, t, s, sheet, "a")
	require.True(t, ok)
	assert.True(t, v.RawEquals(cty.NumberIntVal(1)))
	_, ok = lookup(ctx, t, s, sheet, "b")
	assert.False(t, ok)
}

func TestRecalcCell(t *testing.T) {
	s, ctx := newSession(t, session.Options{})
	run(ctx, t, s, "A1", "n = 0")
	run(ctx, t, s, "A2", "n = n + 1")
	run(ctx, t, s, "A3", "n = 100")

	res, err := s.RecalcCell(ctx, sheet, "A2")
	require.NoError(t, err)
	require.False(t, res.IsError())
	assert.True(t, res.Data.RawEquals(cty.NumberIntVal(2)))
}

func TestRecalcCell_EmptyCode(t *testing.T) {
	s, ctx := newSession(t, session.Options{})
	run(ctx, t, s, "A1", "v = \"kept\"")
	run(ctx, t, s, "A2", "")

	res, err := s.RecalcCell(ctx, sheet, "A2")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "last-binding", res.Rule)
}

func TestUnknownCells(t *testing.T) {
	s, ctx := newSession(t, session.Options{})

	assert.ErrorIs(t, s.RestoreCell(ctx, sheet, "Z1"), session.ErrUnknownCell)
	_, err := s.RecalcCell(ctx, sheet, "Z1")
	assert.ErrorIs(t, err, session.ErrUnknownCell)

	run(ctx, t, s, "Z1", "z = 1")
	require.NoError(t, s.Forget(ctx, sheet, "Z1"))
	require.NoError(t, s.Forget(ctx, sheet, "Z1"))
	assert.ErrorIs(t, s.RestoreCell(ctx, sheet, "Z1"), session.ErrUnknownCell)
}

func TestStoreMissingRecord(t *testing.T) {
	store := inmemorystore.New()
	s, ctx := newSession(t, session.Options{Store: store})
	run(ctx, t, s, "A1", "a = 1")
	require.NoError(t, store.Delete(ctx, s.CellID(sheet, "A1")))

	assert.ErrorIs(t, s.RestoreCell(ctx, sheet, "A1"), cellstore.ErrNotFound)
}

func TestUnknownSheet(t *testing.T) {
	s, ctx := newSession(t, session.Options{})
	_, err := s.RunCell(ctx, "Missing", "A1", "a = 1")
	assert.ErrorIs(t, err, doc.ErrSheetNotFound)
}

func TestResetSheet(t *testing.T) {
	s, ctx := newSession(t, session.Options{Engine: engine.Options{VerboseErrors: true}})
	run(ctx, t, s, "A1", "a = 1")
	require.NoError(t, s.ResetSheet(ctx, sheet))

	_, ok := lookup(ctx, t, s, sheet, "a")
	assert.False(t, ok)
	m, err := s.Manager(ctx, sheet)
	require.NoError(t, err)
	assert.True(t, m.Snapshot().Equal(m.Baseline()))
}
