package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/statekit/config"
	"github.com/tailored-agentic-units/statekit/flow"
	"github.com/tailored-agentic-units/statekit/observability"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	name     string
	observer observability.Observer
}

func defaultOptions() options {
	cfg := config.DefaultContainerConfig()
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

// WithConfig applies a ContainerConfig, resolving its observer by name.
// An unknown observer name falls back to the default slog observer and is
// reported as a warning.
func WithConfig(cfg config.ContainerConfig) Option {
	return func(o *options) {
		if cfg.Name != "" {
			o.name = cfg.Name
		}
		if cfg.Observer == "" {
			return
		}
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			slog.Default().Warn("container observer not registered, using slog",
				slog.String("observer", cfg.Observer),
				slog.String("error", err.Error()),
			)
			o.observer = observability.NewSlogObserver(nil)
			return
		}
		o.observer = obs
	}
}

// Container owns one state value. It is itself a StateFlow: Collect replays
// the current state and then every later state exactly once, in order.
// All methods are safe for concurrent use.
type Container[S any] struct {
	id       string
	name     string
	state    *flow.MutableState[S]
	scope    *flow.Scope
	observer observability.Observer
	metrics  *Metrics

	slices   []*Slice
	slicesMu sync.Mutex
}

// New creates a container seeded from provider. Slices started by the
// container, including those wired from a FlowProvider or ComposedProvider,
// stop when ctx is done or Close is called.
func New[S any](ctx context.Context, provider Provider[S], opts ...Option) *Container[S] {
	c, _ := newContainer(ctx, provider, opts...)
	return c
}

func newContainer[S any](ctx context.Context, provider Provider[S], opts ...Option) (*Container[S], []*Slice) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container[S]{
		id:       uuid.New().String(),
		name:     o.name,
		state:    flow.NewMutableState(provider.InitialState()),
		scope:    flow.NewScope(ctx),
		observer: o.observer,
		metrics:  NewMetrics(),
	}

	c.emit(ctx, EventContainerCreate, observability.LevelVerbose, map[string]any{})

	var wired []*Slice
	if fp, ok := provider.(FlowProvider[S]); ok {
		wired = append(wired, Merge(ctx, c, fp.Updates(), Replace[S]()))
	}
	if recipe, ok := provider.(composedRecipe[S]); ok {
		for _, b := range recipe.Bindings() {
			wired = append(wired, b.bind(ctx, c))
		}
	}

	return c, wired
}

// ID returns the container's unique identifier.
func (c *Container[S]) ID() string {
	return c.id
}

// Name returns the configured name.
func (c *Container[S]) Name() string {
	return c.name
}

// Value returns the current state.
func (c *Container[S]) Value() S {
	return c.state.Value()
}

// Version returns the number of publications since creation.
func (c *Container[S]) Version() uint64 {
	return c.state.Version()
}

// State returns a read-only view of the state.
func (c *Container[S]) State() flow.StateFlow[S] {
	return c.state.View()
}

// Collect implements flow.Flow.
func (c *Container[S]) Collect(ctx context.Context, collector flow.Collector[S]) error {
	return c.state.Collect(ctx, collector)
}

// Update applies fn to the current state and publishes the result as one
// step. If another writer publishes first, fn is re-run against the newer
// state, so fn must be pure. Every call publishes exactly once, even when fn
// returns an equal value. A panic in fn propagates to the caller and leaves
// the state untouched.
func (c *Container[S]) Update(fn func(S) S) S {
	next, _ := c.apply(context.Background(), func(_ context.Context, s S) (S, error) {
		return fn(s), nil
	})
	return next
}

// UpdateE is Update for transforms that can fail. On error nothing is
// published and the current state is returned with the error.
func (c *Container[S]) UpdateE(fn func(S) (S, error)) (S, error) {
	return c.apply(context.Background(), func(_ context.Context, s S) (S, error) {
		return fn(s)
	})
}

// apply is the compare-and-retry loop shared by Update and every slice.
func (c *Container[S]) apply(ctx context.Context, fn func(context.Context, S) (S, error)) (S, error) {
	for {
		snap := c.state.Snapshot()

		next, err := fn(ctx, snap.Value())
		if err != nil {
			return snap.Value(), err
		}
		if err := ctx.Err(); err != nil {
			return snap.Value(), err
		}

		if c.state.CompareAndSet(snap, next) {
			c.metrics.RecordUpdate(1)
			c.emit(ctx, EventContainerUpdate, observability.LevelVerbose, map[string]any{
				"version": snap.Version() + 1,
			})
			return next, nil
		}
		c.metrics.RecordRetry(1)
	}
}

// launch runs collect as a slice in the container's scope.
func (c *Container[S]) launch(ctx context.Context, collect func(ctx context.Context) error) *Slice {
	slice := &Slice{id: uuid.New().String()}

	c.metrics.RecordSliceStart()
	c.emit(ctx, EventSliceStart, observability.LevelVerbose, map[string]any{
		"slice_id": slice.id,
	})

	// finish takes slicesMu, so the slice is registered before it can be removed.
	c.slicesMu.Lock()
	defer c.slicesMu.Unlock()

	slice.job = c.scope.Go(ctx, func(ctx context.Context) error {
		err := runSlice(ctx, collect)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			err = nil
		}
		if err != nil {
			err = &MergeError{SliceID: slice.id, Err: err}
		}
		c.finish(slice, err)
		return err
	})
	c.slices = append(c.slices, slice)

	return slice
}

func runSlice(ctx context.Context, collect func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &flow.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return collect(ctx)
}

func (c *Container[S]) finish(slice *Slice, err error) {
	c.slicesMu.Lock()
	for i, s := range c.slices {
		if s == slice {
			c.slices = append(c.slices[:i], c.slices[i+1:]...)
			break
		}
	}
	c.slicesMu.Unlock()

	c.metrics.RecordSliceStop(err != nil)

	// The scope context may already be cancelled; events still go out.
	ctx := context.Background()
	if err != nil {
		c.emit(ctx, EventSliceError, observability.LevelError, map[string]any{
			"slice_id": slice.id,
			"error":    err.Error(),
		})
		return
	}
	c.emit(ctx, EventSliceStop, observability.LevelVerbose, map[string]any{
		"slice_id": slice.id,
	})
}

// Slices returns the slices that are still running, in start order.
func (c *Container[S]) Slices() []*Slice {
	c.slicesMu.Lock()
	defer c.slicesMu.Unlock()
	return append([]*Slice(nil), c.slices...)
}

// Metrics returns a snapshot of the container's counters.
func (c *Container[S]) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Close cancels every slice and waits for them to stop. The last state stays
// readable and Update keeps working; only merged sources stop.
func (c *Container[S]) Close() {
	c.scope.Cancel()
	c.scope.Wait()
	c.emit(context.Background(), EventContainerClose, observability.LevelVerbose, map[string]any{
		"version": c.state.Version(),
	})
}

// Shutdown is Close with a bound on how long to wait for slices whose merge
// functions ignore cancellation.
func (c *Container[S]) Shutdown(timeout time.Duration) error {
	if err := c.scope.Shutdown(timeout); err != nil {
		return fmt.Errorf("container %s: %w", c.name, err)
	}
	c.emit(context.Background(), EventContainerClose, observability.LevelVerbose, map[string]any{
		"version": c.state.Version(),
	})
	return nil
}

func (c *Container[S]) source() string {
	return "container/" + c.name
}

func (c *Container[S]) emit(ctx context.Context, eventType observability.EventType, level observability.Level, data map[string]any) {
	data["container_id"] = c.id
	observability.Emit(ctx, c.observer, eventType, level, c.source(), data)
}
