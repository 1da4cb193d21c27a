package container

import (
	"context"
	"sync"

	"github.com/tailored-agentic-units/statekit/flow"
)

// Provider supplies a container's initial state. InitialState is called once,
// when the container is created.
type Provider[S any] interface {
	InitialState() S
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc[S any] func() S

func (f ProviderFunc[S]) InitialState() S {
	return f()
}

// Initial returns a Provider for a fixed value.
func Initial[S any](value S) Provider[S] {
	return ProviderFunc[S](func() S { return value })
}

// Lazy returns a Provider that computes its value on first use and reuses it
// afterwards, so the same provider can seed several containers.
func Lazy[S any](fn func() S) Provider[S] {
	return ProviderFunc[S](sync.OnceValue(fn))
}

// FlowProvider is a Provider that also pushes replacement states. A container
// built from it merges Updates with Replace for as long as the container lives.
type FlowProvider[S any] interface {
	Provider[S]
	Updates() flow.Flow[S]
}

type flowProvider[S any] struct {
	Provider[S]
	updates flow.Flow[S]
}

func (p flowProvider[S]) Updates() flow.Flow[S] {
	return p.updates
}

// FromFlow returns a FlowProvider seeded with initial and fed by updates.
func FromFlow[S any](initial Provider[S], updates flow.Flow[S]) FlowProvider[S] {
	return flowProvider[S]{Provider: initial, updates: updates}
}

// ComposedProvider pairs an initial state with the bindings to wire once the
// container exists. It is a plain value: building it twice yields two
// independent containers, each with its own slices.
type ComposedProvider[S any] struct {
	initial  Provider[S]
	bindings []Binding[S]
}

// Composed creates a ComposedProvider.
func Composed[S any](initial Provider[S], bindings ...Binding[S]) *ComposedProvider[S] {
	return &ComposedProvider[S]{
		initial:  initial,
		bindings: append([]Binding[S](nil), bindings...),
	}
}

func (p *ComposedProvider[S]) InitialState() S {
	return p.initial.InitialState()
}

// Bindings returns a copy of the recipe.
func (p *ComposedProvider[S]) Bindings() []Binding[S] {
	return append([]Binding[S](nil), p.bindings...)
}

// With returns a new ComposedProvider with bindings appended to the recipe.
func (p *ComposedProvider[S]) With(bindings ...Binding[S]) *ComposedProvider[S] {
	return Composed(p.initial, append(p.Bindings(), bindings...)...)
}

// Build creates the container and wires every binding exactly once. The
// returned slices can be cancelled individually.
func (p *ComposedProvider[S]) Build(ctx context.Context, opts ...Option) (*Container[S], []*Slice) {
	return newContainer[S](ctx, p, opts...)
}

type composedRecipe[S any] interface {
	Bindings() []Binding[S]
}
