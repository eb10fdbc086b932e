package inmemorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/cellgrid/internal/cellstore"
	"github.com/specialistvlad/cellgrid/internal/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestPutAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Get a record that doesn't exist yet
	_, err := s.Get(ctx, "cell-1")
	require.ErrorIs(t, err, cellstore.ErrNotFound)

	snap := namespace.Snapshot{{Name: "a", Value: cty.NumberIntVal(1)}}
	rec := cellstore.Record{ID: "cell-1", Sheet: "Sheet1", Ref: "B2", Code: "a = 1", Snapshot: snap}
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "cell-1")
	require.NoError(t, err)
	assert.Equal(t, "B2", got.Ref)
	assert.Equal(t, "a = 1", got.Code)
	assert.True(t, got.Snapshot.Equal(snap))
}

func TestPut_CopiesSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()

	snap := namespace.Snapshot{{Name: "a", Value: cty.NumberIntVal(1)}}
	require.NoError(t, s.Put(ctx, cellstore.Record{ID: "c", Snapshot: snap}))
	snap[0].Value = cty.NumberIntVal(2)

	got, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, got.Snapshot[0].Value.RawEquals(cty.NumberIntVal(1)))

	got.Snapshot[0].Value = cty.NumberIntVal(3)
	again, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, again.Snapshot[0].Value.RawEquals(cty.NumberIntVal(1)))
}

func TestPut_RejectsEmptyID(t *testing.T) {
	require.Error(t, New().Put(context.Background(), cellstore.Record{}))
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, cellstore.Record{ID: "c"}))
	require.NoError(t, s.Delete(ctx, "c"))
	require.NoError(t, s.Delete(ctx, "never-stored"))

	_, err := s.Get(ctx, "c")
	assert.ErrorIs(t, err, cellstore.ErrNotFound)
}

// TestConcurrentAccess writes and reads distinct cells from many goroutines.
func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	numGoroutines := 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("cell-%d", i)
			rec := cellstore.Record{ID: id, Code: fmt.Sprintf("v = %d", i)}
			assert.NoError(t, s.Put(ctx, rec))
			got, err := s.Get(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, rec.Code, got.Code, "mismatched code for cell %d", i)
		}(i)
	}
	wg.Wait()
}
