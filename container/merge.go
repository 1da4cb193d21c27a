package container

import (
	"context"

	"github.com/tailored-agentic-units/statekit/flow"
)

// MergeFunc folds one emitted value into the state. It may block, honouring
// ctx; while it runs other writers can publish, in which case it is called
// again with the newer state before its result is published.
type MergeFunc[S, T any] func(ctx context.Context, state S, value T) (S, error)

// Reduce adapts a pure, infallible fold to a MergeFunc.
func Reduce[S, T any](fn func(S, T) S) MergeFunc[S, T] {
	return func(_ context.Context, state S, value T) (S, error) {
		return fn(state, value), nil
	}
}

// Replace returns a MergeFunc that makes every emitted value the new state.
func Replace[S any]() MergeFunc[S, S] {
	return func(_ context.Context, _ S, value S) (S, error) {
		return value, nil
	}
}

// Slice is the handle of one merge subscription.
type Slice struct {
	id  string
	job *flow.Job
}

// ID returns the slice's unique identifier.
func (s *Slice) ID() string {
	return s.id
}

// Cancel stops the slice. Other slices and the current state are unaffected.
func (s *Slice) Cancel() {
	s.job.Cancel()
}

// Done is closed when the slice has stopped.
func (s *Slice) Done() <-chan struct{} {
	return s.job.Done()
}

// Err returns the *MergeError the slice failed with, or nil if it is still
// running, completed, or was cancelled.
func (s *Slice) Err() error {
	return s.job.Err()
}

// Wait blocks until the slice stops or ctx is done.
func (s *Slice) Wait(ctx context.Context) error {
	return s.job.Wait(ctx)
}

// Merge subscribes to src and folds every value into c with fn until src
// completes, fn fails, ctx is done, or c is closed.
func Merge[S, T any](ctx context.Context, c *Container[S], src flow.Flow[T], fn MergeFunc[S, T]) *Slice {
	return c.launch(ctx, func(ctx context.Context) error {
		return src.Collect(ctx, func(ctx context.Context, value T) error {
			_, err := c.apply(ctx, func(ctx context.Context, state S) (S, error) {
				return fn(ctx, state, value)
			})
			return err
		})
	})
}

// MergeContainer merges another container's states into c.
func MergeContainer[S, T any](ctx context.Context, c *Container[S], src *Container[T], fn MergeFunc[S, T]) *Slice {
	return Merge[S, T](ctx, c, src, fn)
}

// MergeView merges a read-only state view into c.
func MergeView[S, T any](ctx context.Context, c *Container[S], src flow.StateFlow[T], fn MergeFunc[S, T]) *Slice {
	return Merge[S, T](ctx, c, src, fn)
}
