package container

import (
	"context"

	"github.com/tailored-agentic-units/statekit/flow"
)

// Binding is one source-to-merge-function pair waiting to be wired into a
// container. Create bindings with Into.
type Binding[S any] interface {
	bind(ctx context.Context, c *Container[S]) *Slice
}

type binding[S, T any] struct {
	src flow.Flow[T]
	fn  MergeFunc[S, T]
}

func (b binding[S, T]) bind(ctx context.Context, c *Container[S]) *Slice {
	return Merge(ctx, c, b.src, b.fn)
}

// Into pairs src with fn. It reads as "src into fn" and does nothing until the
// binding is added to a Composer or built by a ComposedProvider.
func Into[S, T any](src flow.Flow[T], fn MergeFunc[S, T]) Binding[S] {
	return binding[S, T]{src: src, fn: fn}
}

// Composer wires slices into one container within one context.
type Composer[S any] struct {
	ctx       context.Context
	container *Container[S]
	slices    []*Slice
}

// Compose runs recipe against a new Composer and returns the slices it wired.
// Calling Compose again adds slices without touching earlier ones.
func (c *Container[S]) Compose(ctx context.Context, recipe func(*Composer[S])) []*Slice {
	cp := &Composer[S]{ctx: ctx, container: c}
	recipe(cp)
	return cp.slices
}

// Container returns the container being composed.
func (cp *Composer[S]) Container() *Container[S] {
	return cp.container
}

// Add wires every binding and returns their slices in order.
func (cp *Composer[S]) Add(bindings ...Binding[S]) []*Slice {
	out := make([]*Slice, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, cp.track(b.bind(cp.ctx, cp.container)))
	}
	return out
}

func (cp *Composer[S]) track(s *Slice) *Slice {
	cp.slices = append(cp.slices, s)
	return s
}

// SliceFlow wires a flow into the composed container.
func SliceFlow[S, T any](cp *Composer[S], src flow.Flow[T], fn MergeFunc[S, T]) *Slice {
	return cp.track(Merge(cp.ctx, cp.container, src, fn))
}

// SliceContainer wires another container's states into the composed container.
func SliceContainer[S, T any](cp *Composer[S], src *Container[T], fn MergeFunc[S, T]) *Slice {
	return cp.track(MergeContainer(cp.ctx, cp.container, src, fn))
}

// SliceView wires a read-only state view into the composed container.
func SliceView[S, T any](cp *Composer[S], src flow.StateFlow[T], fn MergeFunc[S, T]) *Slice {
	return cp.track(MergeView(cp.ctx, cp.container, src, fn))
}
