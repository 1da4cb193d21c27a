package events_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/statekit/config"
	"github.com/tailored-agentic-units/statekit/events"
	"github.com/tailored-agentic-units/statekit/observability"
)

type toast struct {
	Message string
}

func quiet() events.Option {
	return events.WithObserver(observability.NoOpObserver{})
}

func TestHolder_EmitThenHandle(t *testing.T) {
	h := events.New[string](quiet())

	if got := h.Events().Value(); len(got) != 0 {
		t.Fatalf("initial Events() = %v, want empty", got)
	}

	h.Emit("E1")
	if got := h.Events().Value(); len(got) != 1 || got[0] != "E1" {
		t.Fatalf("Events() after Emit = %v, want [E1]", got)
	}

	if !h.Handle("E1") {
		t.Fatal("Handle(E1) = false, want true")
	}
	if got := h.Events().Value(); len(got) != 0 {
		t.Errorf("Events() after Handle = %v, want empty", got)
	}
}

func TestHolder_HandlePrefersInstance(t *testing.T) {
	h := events.New[*toast](quiet())

	x := &toast{Message: "saved"}
	y := &toast{Message: "synced"}
	xPrime := &toast{Message: "saved"}
	h.Emit(x, y, xPrime)

	if !h.Handle(xPrime) {
		t.Fatal("Handle(x') = false")
	}
	got := h.Pending()
	if len(got) != 2 || got[0] != x || got[1] != y {
		t.Fatalf("after Handle(x') pending = %v, want [x y]", got)
	}

	h.Emit(xPrime)
	if !h.Handle(x) {
		t.Fatal("Handle(x) = false")
	}
	got = h.Pending()
	if len(got) != 2 || got[0] != y || got[1] != xPrime {
		t.Errorf("after Handle(x) pending = %v, want [y x']", got)
	}
}

func TestHolder_FIFOWithEqualValues(t *testing.T) {
	tests := []struct {
		name    string
		emitted []any
		handle  any
		want    []any
	}{
		{
			name:    "values remove first equal",
			emitted: []any{toast{"x"}, toast{"y"}, toast{"x"}},
			handle:  toast{"x"},
			want:    []any{toast{"y"}, toast{"x"}},
		},
		{
			name:    "no match leaves list",
			emitted: []any{toast{"x"}},
			handle:  toast{"z"},
			want:    []any{toast{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := events.New[any](quiet())
			h.Emit(tt.emitted...)
			h.Handle(tt.handle)

			got := h.Pending()
			if len(got) != len(tt.want) {
				t.Fatalf("pending = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pending[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHolder_IdentityThroughInterface(t *testing.T) {
	h := events.New[any](quiet())

	first := &toast{Message: "dup"}
	second := &toast{Message: "dup"}
	h.Emit(first, "between", second)

	h.Handle(second)
	got := h.Pending()
	if len(got) != 2 || got[0] != any(first) || got[1] != "between" {
		t.Errorf("pending = %v, want [first between]", got)
	}
}

func TestHolder_HandleFallsBackToEqual(t *testing.T) {
	h := events.New[*toast](quiet())
	h.Emit(&toast{Message: "a"}, &toast{Message: "b"})

	if !h.Handle(&toast{Message: "b"}) {
		t.Fatal("Handle of an equal but distinct instance = false")
	}
	got := h.Pending()
	if len(got) != 1 || got[0].Message != "a" {
		t.Errorf("pending = %v, want [a]", got)
	}
}

func TestHolder_UnmatchedHandleDoesNotPublish(t *testing.T) {
	rec := &observability.Recorder{}
	h := events.New[string](events.WithObserver(rec))
	h.Emit("a")
	version := h.Version()

	if h.Handle("missing") {
		t.Error("Handle(missing) = true")
	}
	if h.HandleSeq(999) {
		t.Error("HandleSeq(999) = true")
	}
	if h.Version() != version {
		t.Errorf("Version() = %d, want %d", h.Version(), version)
	}
	if rec.Count(events.EventHandle) != 0 {
		t.Errorf("handle events = %d, want 0", rec.Count(events.EventHandle))
	}
}

func TestHolder_CustomEqual(t *testing.T) {
	type notice struct {
		ID   int
		At   time.Time
		Text string
	}
	h := events.NewWithEqual(func(a, b notice) bool { return a.ID == b.ID }, quiet())
	h.Emit(notice{ID: 1, At: time.Unix(1, 0)}, notice{ID: 2})

	if !h.Handle(notice{ID: 1, At: time.Unix(99, 0)}) {
		t.Fatal("custom equality did not match")
	}
	if got := h.Pending(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("pending = %v, want [ID 2]", got)
	}
}

func TestHolder_BatchEmitPublishesOnce(t *testing.T) {
	h := events.New[int](quiet())

	seqs := h.Emit(1, 2, 3)
	if h.Version() != 1 {
		t.Errorf("Version() = %d, want 1", h.Version())
	}
	if len(seqs) != 3 || seqs[0] >= seqs[1] || seqs[1] >= seqs[2] {
		t.Errorf("seqs = %v, want strictly increasing", seqs)
	}
	if h.Emit() != nil || h.Version() != 1 {
		t.Error("empty Emit published")
	}

	more := h.Emit(4)
	if more[0] <= seqs[2] {
		t.Errorf("later seq %d not greater than %d", more[0], seqs[2])
	}
}

func TestHolder_HandleSeq(t *testing.T) {
	h := events.New[string](quiet())
	seqs := h.Emit("a", "a", "a")

	if !h.HandleSeq(seqs[1]) {
		t.Fatal("HandleSeq = false")
	}
	entries := h.Entries().Value()
	if len(entries) != 2 || entries[0].Seq != seqs[0] || entries[1].Seq != seqs[2] {
		t.Errorf("entries = %+v, want seqs %d and %d", entries, seqs[0], seqs[2])
	}
}

func TestHolder_HandleAll(t *testing.T) {
	rec := &observability.Recorder{}
	h := events.New[string](events.WithObserver(rec))
	h.Emit("a", "b", "c")

	if n := h.HandleAll(); n != 3 {
		t.Errorf("HandleAll() = %d, want 3", n)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
	version := h.Version()
	if n := h.HandleAll(); n != 0 || h.Version() != version {
		t.Errorf("HandleAll() on empty = %d (version %d), want 0 without publishing", n, h.Version())
	}
	if rec.Count(events.EventClear) != 1 {
		t.Errorf("clear events = %d, want 1", rec.Count(events.EventClear))
	}
}

func TestHolder_HandleAllKeepsLaterEmits(t *testing.T) {
	const emitters = 8
	const perEmitter = 50

	h := events.New[int](quiet())
	var removed int
	var wg sync.WaitGroup
	for i := 0; i < emitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perEmitter; j++ {
				h.Emit(j)
			}
		}()
	}

	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		for k := 0; k < 20; k++ {
			n := h.HandleAll()
			mu.Lock()
			removed += n
			mu.Unlock()
		}
	}()
	wg.Wait()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if removed+h.Len() != emitters*perEmitter {
		t.Errorf("removed %d + pending %d != emitted %d", removed, h.Len(), emitters*perEmitter)
	}
}

func TestHolder_ConcurrentEmitOrdersBySeq(t *testing.T) {
	const emitters = 16
	h := events.New[int](quiet())

	var wg sync.WaitGroup
	for i := 0; i < emitters; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			h.Emit(v)
		}(i)
	}
	wg.Wait()

	entries := h.Entries().Value()
	if len(entries) != emitters {
		t.Fatalf("len = %d, want %d", len(entries), emitters)
	}
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq }) {
		t.Errorf("entries not in sequence order: %+v", entries)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq == entries[i-1].Seq {
			t.Errorf("duplicate seq %d", entries[i].Seq)
		}
	}
}

func TestHolder_EventsReplayLatest(t *testing.T) {
	h := events.New[string](quiet())
	h.Emit("a")
	h.Emit("b")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var first []string
	stop := errors.New("stop")
	_ = h.Events().Collect(ctx, func(_ context.Context, v []string) error {
		first = v
		return stop
	})
	if len(first) != 2 || first[0] != "a" || first[1] != "b" {
		t.Errorf("first observed = %v, want [a b]", first)
	}
}

func TestConsume(t *testing.T) {
	h := events.New[string](quiet())
	h.Emit("one", "two")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	errc := make(chan error, 1)
	go func() {
		errc <- events.Consume(ctx, h, func(_ context.Context, e string) error {
			mu.Lock()
			seen = append(seen, e)
			n := len(seen)
			mu.Unlock()
			if n == 3 {
				cancel()
			}
			return nil
		})
	}()

	h.Emit("three")

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Consume() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not see all events")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != "one" || seen[1] != "two" || seen[2] != "three" {
		t.Errorf("seen = %v, want [one two three]", seen)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Consume", h.Len())
	}
}

func TestConsume_ErrorKeepsEvent(t *testing.T) {
	h := events.New[string](quiet())
	h.Emit("bad", "good")

	boom := errors.New("boom")
	err := events.Consume(context.Background(), h, func(_ context.Context, e string) error {
		if e == "bad" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Consume() = %v, want boom", err)
	}
	if got := h.Pending(); len(got) != 2 || got[0] != "bad" {
		t.Errorf("pending = %v, want [bad good]", got)
	}
}

func TestHolder_WithConfig(t *testing.T) {
	rec := &observability.Recorder{}
	observability.RegisterObserver("events-test", rec)

	h := events.New[string](events.WithConfig(config.EventsConfig{Name: "toasts", Observer: "events-test"}))
	h.Emit("hi")
	h.Handle("hi")

	if rec.Count(events.EventEmit) != 1 || rec.Count(events.EventHandle) != 1 {
		t.Fatalf("events = %+v", rec.Events())
	}
	for _, e := range rec.Events() {
		if e.Source != "events/toasts" {
			t.Errorf("source = %q, want events/toasts", e.Source)
		}
		if e.Data["holder_id"] != h.ID() {
			t.Errorf("holder_id = %v, want %s", e.Data["holder_id"], h.ID())
		}
	}
}
