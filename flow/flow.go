// Package flow is the reactive substrate statekit is built on.
//
// A Flow delivers values to a Collector until it completes, fails, or its
// context is cancelled. A StateFlow is a Flow that always has a current value
// and replays it to every new collector before any later value. MutableState is
// the one writable StateFlow: it publishes through compare-and-set, so writers
// never need a lock and readers never miss a publication.
//
// Scope and Job bound the lifetime of background collections: cancelling a
// Scope stops every Job launched in it.
package flow

import (
	"context"
)

// Collector receives values from a Flow. Returning an error stops the
// collection and the error is returned from Collect.
type Collector[T any] func(ctx context.Context, value T) error

// Flow is a source of values.
type Flow[T any] interface {
	// Collect delivers values to collector in order and blocks until the flow
	// completes (nil), the collector fails, or ctx is done (ctx.Err()).
	Collect(ctx context.Context, collector Collector[T]) error
}

// Func adapts a plain function to the Flow interface.
type Func[T any] func(ctx context.Context, collector Collector[T]) error

// Collect calls f.
func (f Func[T]) Collect(ctx context.Context, collector Collector[T]) error {
	return f(ctx, collector)
}

// Of returns a finite flow that emits values in order and completes.
func Of[T any](values ...T) Flow[T] {
	return Func[T](func(ctx context.Context, collector Collector[T]) error {
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := collector(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// FromChannel returns a flow that emits every value received from ch and
// completes when ch is closed. Several collectors share the channel, so each
// value reaches only one of them.
func FromChannel[T any](ch <-chan T) Flow[T] {
	return Func[T](func(ctx context.Context, collector Collector[T]) error {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if err := collector(ctx, v); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

// Map returns a flow that emits fn(v) for every v emitted by src.
func Map[T, R any](src Flow[T], fn func(T) R) Flow[R] {
	return Func[R](func(ctx context.Context, collector Collector[R]) error {
		return src.Collect(ctx, func(ctx context.Context, v T) error {
			return collector(ctx, fn(v))
		})
	})
}

// ToChannel collects src in a new goroutine and forwards every value to the
// returned channel, which is closed when the collection ends. The goroutine
// blocks while the channel buffer is full, so a slow reader applies
// backpressure to src.
func ToChannel[T any](ctx context.Context, src Flow[T], buffer int) <-chan T {
	out := make(chan T, buffer)
	go func() {
		defer close(out)
		_ = src.Collect(ctx, func(ctx context.Context, v T) error {
			select {
			case out <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return out
}
