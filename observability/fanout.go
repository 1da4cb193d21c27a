package observability

import (
	"context"
	"sync"
)

// NoOpObserver ignores events. Resolve falls back to it.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// MultiObserver delivers each event to every observer in the order they were
// added. Observers may be added while events are flowing.
type MultiObserver struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewMultiObserver creates a MultiObserver over the non-nil observers given.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	m.Add(observers...)
	return m
}

// Add appends the non-nil observers.
func (m *MultiObserver) Add(observers ...Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]Observer, len(m.observers), len(m.observers)+len(observers))
	copy(next, m.observers)
	for _, o := range observers {
		if o != nil {
			next = append(next, o)
		}
	}
	m.observers = next
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	m.mu.RLock()
	targets := m.observers
	m.mu.RUnlock()

	for _, o := range targets {
		o.OnEvent(ctx, event)
	}
}

// Len reports how many observers receive events.
func (m *MultiObserver) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}
