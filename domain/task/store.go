package task

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no task exists for the given id.
	ErrNotFound = errors.New("task not found")
	// ErrConflict is returned when a versioned write finds the row changed
	// or removed since it was read.
	ErrConflict = errors.New("task was modified concurrently")
)

// Store is durable, id-keyed storage for tasks.
type Store interface {
	// Insert assigns a fresh id, defaults CreatedAt to now when zero and
	// sets Version to 1.
	Insert(ctx context.Context, t *Task) error
	Get(ctx context.Context, id int64) (*Task, error)
	// List returns every task in storage (id) order.
	List(ctx context.Context) ([]*Task, error)
	// Update replaces the row matching t.ID and t.Version and bumps
	// t.Version. A stale or missing row yields ErrConflict.
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
