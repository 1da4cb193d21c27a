package flow

import (
	"context"
	"sync/atomic"
)

// Channel is a buffered channel bound to a context. Sends and receives give up
// when either the call's context or the channel's own context is done.
// A Channel is a Flow: collecting it drains values until it is closed.
type Channel[T any] struct {
	channel    chan T
	context    context.Context
	bufferSize int
	closed     atomic.Int32
}

// NewChannel creates a Channel bound to ctx.
func NewChannel[T any](ctx context.Context, bufferSize int) *Channel[T] {
	return &Channel[T]{
		channel:    make(chan T, bufferSize),
		context:    ctx,
		bufferSize: bufferSize,
	}
}

// Send blocks until value is buffered or a context is done.
// Sending on a closed Channel returns ErrClosed.
func (c *Channel[T]) Send(ctx context.Context, value T) error {
	if c.IsClosed() {
		return ErrClosed
	}
	select {
	case c.channel <- value:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.context.Done():
		return c.context.Err()
	}
}

// Receive blocks for the next value. It returns ErrClosed once the Channel is
// closed and drained.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case value, ok := <-c.channel:
		if !ok {
			return zero, ErrClosed
		}
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.context.Done():
		return zero, c.context.Err()
	}
}

// TryReceive returns the next buffered value without blocking.
func (c *Channel[T]) TryReceive() (T, bool) {
	select {
	case value, ok := <-c.channel:
		return value, ok
	default:
		var zero T
		return zero, false
	}
}

// Close closes the Channel. It is safe to call more than once, but must not
// race with Send.
func (c *Channel[T]) Close() {
	if c.closed.CompareAndSwap(0, 1) {
		close(c.channel)
	}
}

func (c *Channel[T]) IsClosed() bool {
	return c.closed.Load() == 1
}

func (c *Channel[T]) BufferSize() int {
	return c.bufferSize
}

func (c *Channel[T]) QueueLength() int {
	return len(c.channel)
}

// Collect implements Flow. It completes when the Channel is closed and
// drained, and stops early when ctx or the Channel's context is done.
func (c *Channel[T]) Collect(ctx context.Context, collector Collector[T]) error {
	for {
		value, err := c.Receive(ctx)
		if err == ErrClosed {
			return nil
		}
		if err != nil {
			return err
		}
		if err := collector(ctx, value); err != nil {
			return err
		}
	}
}
