package flow

import (
	"context"
	"sync/atomic"
)

// StateFlow is a read-only, replay-latest view of a value. Collect first
// delivers the value current at subscription, then every later publication
// exactly once and in publication order. It never completes on its own.
type StateFlow[T any] interface {
	Flow[T]
	Value() T
}

// publication is one link in a MutableState's chain of published values.
// next is stored before done is closed, so a collector woken by done always
// finds its successor.
type publication[T any] struct {
	value   T
	version uint64
	next    atomic.Pointer[publication[T]]
	done    chan struct{}
}

func newPublication[T any](value T, version uint64) *publication[T] {
	return &publication[T]{value: value, version: version, done: make(chan struct{})}
}

// Snapshot is a value read from a MutableState together with the identity of
// its publication, for use with CompareAndSet.
type Snapshot[T any] struct {
	p *publication[T]
}

// Value returns the snapshot's value.
func (s Snapshot[T]) Value() T {
	return s.p.value
}

// Version returns the publication number of the snapshot, starting at 0 for
// the initial value.
func (s Snapshot[T]) Version() uint64 {
	return s.p.version
}

// MutableState is a replay-latest cell updated by compare-and-set.
// All methods are safe for concurrent use. Values must be treated as immutable
// once published.
type MutableState[T any] struct {
	head atomic.Pointer[publication[T]]
}

// NewMutableState creates a MutableState holding initial at version 0.
func NewMutableState[T any](initial T) *MutableState[T] {
	s := &MutableState[T]{}
	s.head.Store(newPublication(initial, 0))
	return s
}

// Value returns the current value.
func (s *MutableState[T]) Value() T {
	return s.head.Load().value
}

// Version returns the number of publications since creation.
func (s *MutableState[T]) Version() uint64 {
	return s.head.Load().version
}

// Snapshot returns the current publication.
func (s *MutableState[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{p: s.head.Load()}
}

// CompareAndSet publishes value only if expected is still the current
// publication. It reports whether the value was published.
func (s *MutableState[T]) CompareAndSet(expected Snapshot[T], value T) bool {
	next := newPublication(value, expected.p.version+1)
	if !s.head.CompareAndSwap(expected.p, next) {
		return false
	}
	expected.p.next.Store(next)
	close(expected.p.done)
	return true
}

// Set publishes value unconditionally.
func (s *MutableState[T]) Set(value T) {
	for {
		if s.CompareAndSet(s.Snapshot(), value) {
			return
		}
	}
}

// Update applies fn to the current value and publishes the result, retrying
// with the newer value whenever another writer published first. fn may run
// more than once and must be free of side effects. Every call publishes
// exactly once, even when fn returns an equal value.
func (s *MutableState[T]) Update(fn func(T) T) T {
	for {
		snap := s.Snapshot()
		next := fn(snap.Value())
		if s.CompareAndSet(snap, next) {
			return next
		}
	}
}

// TryUpdate is Update for transforms that may decline to publish: when fn
// returns false nothing is published and the current value is returned.
func (s *MutableState[T]) TryUpdate(fn func(T) (T, bool)) (T, bool) {
	for {
		snap := s.Snapshot()
		next, ok := fn(snap.Value())
		if !ok {
			return snap.Value(), false
		}
		if s.CompareAndSet(snap, next) {
			return next, true
		}
	}
}

// Collect implements Flow with replay-latest semantics.
func (s *MutableState[T]) Collect(ctx context.Context, collector Collector[T]) error {
	p := s.head.Load()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := collector(ctx, p.value); err != nil {
			return err
		}
		select {
		case <-p.done:
			p = p.next.Load()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// View returns a read-only StateFlow over s.
func (s *MutableState[T]) View() StateFlow[T] {
	return stateView[T]{s: s}
}

type stateView[T any] struct {
	s *MutableState[T]
}

func (v stateView[T]) Value() T { return v.s.Value() }

func (v stateView[T]) Collect(ctx context.Context, collector Collector[T]) error {
	return v.s.Collect(ctx, collector)
}

// MapState returns a StateFlow whose value is fn applied to src's value.
// fn runs on every read and every delivered publication, so it should be cheap.
func MapState[T, R any](src StateFlow[T], fn func(T) R) StateFlow[R] {
	return mappedState[T, R]{src: src, fn: fn}
}

type mappedState[T, R any] struct {
	src StateFlow[T]
	fn  func(T) R
}

func (m mappedState[T, R]) Value() R { return m.fn(m.src.Value()) }

func (m mappedState[T, R]) Collect(ctx context.Context, collector Collector[R]) error {
	return m.src.Collect(ctx, func(ctx context.Context, v T) error {
		return collector(ctx, m.fn(v))
	})
}
