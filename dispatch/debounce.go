package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tailored-agentic-units/statekit/config"
	"github.com/tailored-agentic-units/statekit/observability"
)

const (
	EventInvoke   observability.EventType = "dispatch.invoke"
	EventSuppress observability.EventType = "dispatch.suppress"
	EventBypass   observability.EventType = "dispatch.bypass"
)

// ErrInvalidWindow is returned by NewDebounce for a negative window.
var ErrInvalidWindow = errors.New("debounce window must not be negative")

// Option configures a Debounce.
type Option[A comparable] func(*debounceOptions[A])

type debounceOptions[A comparable] struct {
	exclude  func(A) bool
	clock    clockwork.Clock
	observer observability.Observer
}

// WithExclude adds a predicate for actions that bypass debouncing. It is
// combined with the configured Exclude expression: either one excludes.
func WithExclude[A comparable](pred func(A) bool) Option[A] {
	return func(o *debounceOptions[A]) {
		o.exclude = pred
	}
}

// WithClock replaces the real clock, typically with a clockwork.FakeClock.
func WithClock[A comparable](clock clockwork.Clock) Option[A] {
	return func(o *debounceOptions[A]) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithObserver overrides the observer named in the config.
func WithObserver[A comparable](observer observability.Observer) Option[A] {
	return func(o *debounceOptions[A]) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// Debounce forwards an action only if no equal action was forwarded within
// the window. Actions are keyed by Go equality: value types compare by value,
// pointers by address, so two distinct pointers to equal structs are not
// debounced against each other.
//
// The table of last-dispatch times is replaced as a whole by compare-and-set,
// so concurrent callers never corrupt it and, for one action, only the caller
// that wins the swap invokes the next dispatcher.
type Debounce[A comparable] struct {
	next     Dispatcher[A]
	name     string
	window   time.Duration
	exclude  func(A) bool
	clock    clockwork.Clock
	observer observability.Observer

	table atomic.Pointer[map[A]time.Time]
}

// NewDebounce decorates next with the window and exclusion from cfg.
func NewDebounce[A comparable](next Dispatcher[A], cfg config.DebounceConfig, opts ...Option[A]) (*Debounce[A], error) {
	if cfg.WindowMillis < 0 {
		return nil, fmt.Errorf("%w: %dms", ErrInvalidWindow, cfg.WindowMillis)
	}

	o := debounceOptions[A]{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.observer == nil {
		name := cfg.Observer
		if name == "" {
			name = config.DefaultDebounceConfig().Observer
		}
		obs, err := observability.Resolve(name)
		if err != nil {
			slog.Default().Warn("dispatch observer not registered",
				slog.String("observer", name),
				slog.String("error", err.Error()),
			)
		}
		o.observer = obs
	}

	exclude := o.exclude
	if cfg.Exclude != "" {
		compiled, err := CompileExclude[A](cfg.Exclude)
		if err != nil {
			return nil, err
		}
		exclude = either(exclude, compiled)
	}

	d := &Debounce[A]{
		next:     next,
		name:     cfg.Name,
		window:   cfg.Window(),
		exclude:  exclude,
		clock:    o.clock,
		observer: o.observer,
	}
	d.table.Store(&map[A]time.Time{})
	return d, nil
}

func either[A any](a, b func(A) bool) func(A) bool {
	if a == nil {
		return b
	}
	return func(action A) bool {
		return a(action) || b(action)
	}
}

// Window returns the debounce window.
func (d *Debounce[A]) Window() time.Duration {
	return d.window
}

// Tracked returns how many actions currently have a recorded dispatch time.
func (d *Debounce[A]) Tracked() int {
	return len(*d.table.Load())
}

// Dispatch forwards action unless an equal one was forwarded within the
// window. Excluded actions are always forwarded and never recorded. A
// suppressed action does not refresh its recorded time.
func (d *Debounce[A]) Dispatch(action A) {
	if d.exclude != nil && d.exclude(action) {
		d.emit(EventBypass, action)
		d.next.Dispatch(action)
		return
	}

	for {
		now := d.clock.Now()
		current := d.table.Load()

		if last, ok := (*current)[action]; ok && now.Sub(last) <= d.window {
			if pruned, changed := d.prune(*current, now); changed {
				// Losing this swap only delays pruning to a later dispatch.
				d.table.CompareAndSwap(current, &pruned)
			}
			d.emit(EventSuppress, action)
			return
		}

		next, _ := d.prune(*current, now)
		next[action] = now
		if d.table.CompareAndSwap(current, &next) {
			d.emit(EventInvoke, action)
			d.next.Dispatch(action)
			return
		}
	}
}

// prune returns a copy of table without entries older than the window.
func (d *Debounce[A]) prune(table map[A]time.Time, now time.Time) (map[A]time.Time, bool) {
	out := make(map[A]time.Time, len(table)+1)
	changed := false
	for action, at := range table {
		if now.Sub(at) > d.window {
			changed = true
			continue
		}
		out[action] = at
	}
	return out, changed
}

func (d *Debounce[A]) emit(eventType observability.EventType, action A) {
	observability.Emit(context.Background(), d.observer, eventType, observability.LevelVerbose, "dispatch/"+d.name, map[string]any{
		"action":  fmt.Sprint(action),
		"tracked": d.Tracked(),
	})
}
