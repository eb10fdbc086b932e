// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of cellstore.Store.
//
// Records are kept in a sync.Map keyed by cell ID. Each cell's record is
// independent of the others, so writes for different cells never contend.
// Nothing survives the process.
package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/cellgrid/internal/cellstore"
)

// Store is an in-memory cellstore.Store.
type Store struct {
	records sync.Map // Key: cell ID, Value: cellstore.Record
}

// New creates a new, empty in-memory cell store.
func New() cellstore.Store {
	return &Store{}
}

// Put records rec. The snapshot is copied so later changes by the caller do
// not leak into the store.
func (s *Store) Put(ctx context.Context, rec cellstore.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("storing cell record: empty id")
	}
	rec.Snapshot = rec.Snapshot.Clone()
	s.records.Store(rec.ID, rec)
	return nil
}

// Get retrieves the record for id.
func (s *Store) Get(ctx context.Context, id string) (cellstore.Record, error) {
	v, ok := s.records.Load(id)
	if !ok {
		return cellstore.Record{}, fmt.Errorf("cell %q: %w", id, cellstore.ErrNotFound)
	}
	rec := v.(cellstore.Record)
	rec.Snapshot = rec.Snapshot.Clone()
	return rec, nil
}

// Delete forgets the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.records.Delete(id)
	return nil
}
