// Package tokencache provides a single-slot concurrent cell with an atomic
// read-modify-write operation.
package tokencache

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Cell holds exactly one value of type T. All access is serialized; a caller
// waiting for the cell gives up when its context is done.
type Cell[T any] struct {
	sem   *semaphore.Weighted
	value T
}

// New creates a Cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		sem:   semaphore.NewWeighted(1),
		value: initial,
	}
}

// Modify runs f with the current value while holding the cell. When f
// succeeds its first result is stored and its second is returned. When f
// fails the cell keeps its previous value.
//
// f may block (for example on a network refresh); other callers wait until
// it returns, so they observe either the old or the new value, never both.
func Modify[T, R any](ctx context.Context, c *Cell[T], f func(ctx context.Context, current T) (T, R, error)) (R, error) {
	var zero R
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("token cache: acquire: %w", err)
	}
	defer c.sem.Release(1)

	next, result, err := f(ctx, c.value)
	if err != nil {
		return zero, err
	}
	c.value = next
	return result, nil
}
