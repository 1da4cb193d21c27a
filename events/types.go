package events

import "github.com/tailored-agentic-units/statekit/observability"

const (
	EventEmit   observability.EventType = "events.emit"
	EventHandle observability.EventType = "events.handle"
	EventClear  observability.EventType = "events.clear"
)

// Entry is one pending event and the sequence number it was emitted with.
type Entry[E any] struct {
	Seq   uint64
	Event E
}

// pending is the whole holder state. The sequence counter lives next to the
// list so both advance in the same compare-and-set.
type pending[E any] struct {
	next    uint64
	entries []Entry[E]
}

func (p pending[E]) without(i int) pending[E] {
	entries := make([]Entry[E], 0, len(p.entries)-1)
	entries = append(entries, p.entries[:i]...)
	entries = append(entries, p.entries[i+1:]...)
	return pending[E]{next: p.next, entries: entries}
}

func (p pending[E]) events() []E {
	out := make([]E, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Event
	}
	return out
}

func (p pending[E]) copyEntries() []Entry[E] {
	return append([]Entry[E](nil), p.entries...)
}
