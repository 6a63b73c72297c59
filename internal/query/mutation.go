// internal/query/mutation.go
package query

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoInvalidation = errors.New("mutation declares no keys to invalidate")

// Mutation names a write and the reads it makes stale.
type Mutation struct {
	Name        string
	Invalidates []Key
}

func (m Mutation) Validate() error {
	if len(m.Invalidates) == 0 {
		return fmt.Errorf("%s: %w", m.Name, ErrNoInvalidation)
	}
	return nil
}

// Mutate runs fn and, only when it succeeds, invalidates m.Invalidates.
func Mutate[T any](ctx context.Context, c *Cache, m Mutation, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := m.Validate(); err != nil {
		return zero, err
	}

	v, err := fn(ctx)
	if err != nil {
		return zero, err
	}
	c.Invalidate(m.Invalidates...)
	return v, nil
}

// MutateErr is Mutate for writes without a result.
func MutateErr(ctx context.Context, c *Cache, m Mutation, fn func(context.Context) error) error {
	_, err := Mutate(ctx, c, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
