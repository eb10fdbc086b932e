// Package cellstore defines where the session keeps what it knows about each
// evaluated cell: its identity, its code and the namespace it left behind.
//
// A stored snapshot is what RestoreCell and RecalcCell reinstall after the
// namespace moved on, for example after a document reload.
package cellstore

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/cellgrid/internal/namespace"
)

// ErrNotFound is returned by Get for an unknown cell ID.
var ErrNotFound = errors.New("cell record not found")

// Record is the persisted state of one cell.
type Record struct {
	ID    string
	Sheet string
	Ref   string
	Code  string
	// Snapshot is the namespace right after the cell's last run.
	Snapshot namespace.Snapshot
	// Failed is set when the last run returned an error result.
	Failed    bool
	UpdatedAt time.Time
}

// Store keeps cell records. Implementations must be safe for concurrent use.
type Store interface {
	// Put inserts or replaces the record with rec.ID.
	Put(ctx context.Context, rec Record) error
	// Get returns the record for id or an error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)
	// Delete removes the record for id. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
