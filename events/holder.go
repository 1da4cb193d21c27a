package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/statekit/config"
	"github.com/tailored-agentic-units/statekit/flow"
	"github.com/tailored-agentic-units/statekit/observability"
)

// Option configures a Holder.
type Option func(*options)

type options struct {
	name     string
	observer observability.Observer
}

func defaultOptions() options {
	cfg := config.DefaultEventsConfig()
	obs, _ := observability.Resolve(cfg.Observer)
	return options{name: cfg.Name, observer: obs}
}

// WithName sets the name reported in observability events.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithObserver overrides the default slog observer.
func WithObserver(observer observability.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithConfig applies an EventsConfig, resolving its observer by name.
func WithConfig(cfg config.EventsConfig) Option {
	return func(o *options) {
		if cfg.Name != "" {
			o.name = cfg.Name
		}
		if cfg.Observer == "" {
			return
		}
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			slog.Default().Warn("events observer not registered, using slog",
				slog.String("observer", cfg.Observer),
				slog.String("error", err.Error()),
			)
			o.observer = observability.NewSlogObserver(nil)
			return
		}
		o.observer = obs
	}
}

// Holder is an ordered queue of pending events. All methods are safe for
// concurrent use; every change is one compare-and-set of the whole list.
type Holder[E any] struct {
	id       string
	name     string
	state    *flow.MutableState[pending[E]]
	equal    func(a, b E) bool
	observer observability.Observer
}

// New creates an empty Holder that falls back to reflect.DeepEqual when no
// pending instance matches a handled event by identity.
func New[E any](opts ...Option) *Holder[E] {
	return NewWithEqual[E](deepEqual[E], opts...)
}

// NewWithEqual creates an empty Holder with a custom structural equality.
func NewWithEqual[E any](equal func(a, b E) bool, opts ...Option) *Holder[E] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if equal == nil {
		equal = deepEqual[E]
	}
	return &Holder[E]{
		id:       uuid.New().String(),
		name:     o.name,
		state:    flow.NewMutableState(pending[E]{next: 1}),
		equal:    equal,
		observer: o.observer,
	}
}

// ID returns the holder's unique identifier.
func (h *Holder[E]) ID() string {
	return h.id
}

// Version returns the number of publications since creation.
func (h *Holder[E]) Version() uint64 {
	return h.state.Version()
}

// Events returns the pending events as a replay-latest flow, oldest first.
func (h *Holder[E]) Events() flow.StateFlow[[]E] {
	return flow.MapState(h.state.View(), pending[E].events)
}

// Entries is Events with sequence numbers attached.
func (h *Holder[E]) Entries() flow.StateFlow[[]Entry[E]] {
	return flow.MapState(h.state.View(), pending[E].copyEntries)
}

// Pending returns a copy of the pending events, oldest first.
func (h *Holder[E]) Pending() []E {
	return h.state.Value().events()
}

// Len returns the number of pending events.
func (h *Holder[E]) Len() int {
	return len(h.state.Value().entries)
}

// Emit appends events in order, tagging each with the next sequence number,
// and publishes the new list once. It returns the assigned sequence numbers.
// Emitting nothing publishes nothing.
func (h *Holder[E]) Emit(events ...E) []uint64 {
	if len(events) == 0 {
		return nil
	}

	var seqs []uint64
	h.state.Update(func(p pending[E]) pending[E] {
		seqs = make([]uint64, len(events))
		entries := make([]Entry[E], len(p.entries), len(p.entries)+len(events))
		copy(entries, p.entries)
		next := p.next
		for i, e := range events {
			seqs[i] = next
			entries = append(entries, Entry[E]{Seq: next, Event: e})
			next++
		}
		return pending[E]{next: next, entries: entries}
	})

	h.emit(EventEmit, map[string]any{
		"count":     len(seqs),
		"first_seq": seqs[0],
	})
	return seqs
}

// Handle removes one pending entry for event and reports whether one was
// removed. The entry holding this exact instance is removed if it is still
// pending; otherwise the first structurally equal entry is. When nothing
// matches, nothing is published.
func (h *Holder[E]) Handle(event E) bool {
	var (
		seq   uint64
		match string
	)
	_, ok := h.state.TryUpdate(func(p pending[E]) (pending[E], bool) {
		i, how := h.find(p.entries, event)
		if i < 0 {
			return p, false
		}
		seq, match = p.entries[i].Seq, how
		return p.without(i), true
	})
	if ok {
		h.emit(EventHandle, map[string]any{"seq": seq, "match": match})
	}
	return ok
}

// HandleSeq removes the entry emitted with seq, if it is still pending.
func (h *Holder[E]) HandleSeq(seq uint64) bool {
	_, ok := h.state.TryUpdate(func(p pending[E]) (pending[E], bool) {
		for i, e := range p.entries {
			if e.Seq == seq {
				return p.without(i), true
			}
		}
		return p, false
	})
	if ok {
		h.emit(EventHandle, map[string]any{"seq": seq, "match": "seq"})
	}
	return ok
}

// HandleAll removes every entry pending at the moment of the swap and returns
// how many were removed. Events emitted concurrently either land before the
// swap and are removed, or after it and stay pending.
func (h *Holder[E]) HandleAll() int {
	var n int
	_, ok := h.state.TryUpdate(func(p pending[E]) (pending[E], bool) {
		n = len(p.entries)
		if n == 0 {
			return p, false
		}
		return pending[E]{next: p.next}, true
	})
	if !ok {
		return 0
	}
	h.emit(EventClear, map[string]any{"count": n})
	return n
}

func (h *Holder[E]) find(entries []Entry[E], event E) (int, string) {
	if hasIdentity(event) {
		for i, e := range entries {
			if sameInstance(e.Event, event) {
				return i, "identity"
			}
		}
	}
	for i, e := range entries {
		if h.equal(e.Event, event) {
			return i, "equal"
		}
	}
	return -1, ""
}

func (h *Holder[E]) emit(eventType observability.EventType, data map[string]any) {
	data["holder_id"] = h.id
	observability.Emit(context.Background(), h.observer, eventType, observability.LevelVerbose, "events/"+h.name, data)
}

// Consume delivers every pending event to fn once, oldest first, and handles
// it after fn returns. It runs until ctx is done or fn fails; an event whose fn
// call failed stays pending.
func Consume[E any](ctx context.Context, h *Holder[E], fn func(ctx context.Context, event E) error) error {
	seen := make(map[uint64]struct{})
	return h.Entries().Collect(ctx, func(ctx context.Context, entries []Entry[E]) error {
		live := make(map[uint64]struct{}, len(entries))
		for _, e := range entries {
			live[e.Seq] = struct{}{}
			if _, ok := seen[e.Seq]; ok {
				continue
			}
			seen[e.Seq] = struct{}{}
			if err := fn(ctx, e.Event); err != nil {
				return err
			}
			h.HandleSeq(e.Seq)
		}
		// Sequence numbers are never reused, so handled ones can be forgotten.
		for seq := range seen {
			if _, ok := live[seq]; !ok {
				delete(seen, seq)
			}
		}
		return nil
	})
}
