package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/statekit/container"
	"github.com/tailored-agentic-units/statekit/dispatch"
	"github.com/tailored-agentic-units/statekit/events"
	"github.com/tailored-agentic-units/statekit/flow"
	"github.com/tailored-agentic-units/statekit/observability"
)

const settleTimeout = 5 * time.Second

var errSettled = errors.New("settled")

// screen is the state of the simulated screen.
type screen struct {
	Label  string `json:"label"`
	Ticks  int    `json:"ticks"`
	Clicks int    `json:"clicks"`
}

func setTicks(s screen, n int) screen {
	s.Ticks = n
	return s
}

func setLabel(s screen, label string) screen {
	s.Label = label
	return s
}

type simulateOptions struct {
	configFile string
	clicks     int
	verbose    bool
	metrics    bool
	otel       bool
}

func simulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted screen session",
		Long: `Run a scripted screen session.

A container is composed from a tick channel and a label flow. A burst of
identical "click" actions goes through a debounced dispatcher, followed by one
more click after the window. Each click that gets through bumps the counter
and emits a toast, which a consumer handles.

Examples:
  statekit simulate
  statekit simulate --clicks 20 --verbose
  statekit simulate --config screen.json --metrics
  statekit simulate --otel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.clicks < 0 {
				return fmt.Errorf("--clicks must not be negative")
			}
			return runSimulate(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to config JSON file")
	cmd.Flags().IntVarP(&opts.clicks, "clicks", "n", 5, "Number of clicks in the burst")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every observability event to stderr")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print Prometheus counters after the run")
	cmd.Flags().BoolVar(&opts.otel, "otel", false, "Export OpenTelemetry spans and metrics to stdout")

	return cmd
}

func runSimulate(out io.Writer, opts simulateOptions) error {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	logger := newLogger(opts.verbose)
	slogObserver := observability.NewSlogObserver(logger)
	observability.RegisterObserver("slog", slogObserver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := observability.NewMultiObserver(slogObserver)

	var registry *prometheus.Registry
	if opts.metrics {
		registry = prometheus.NewRegistry()
		session.Add(observability.NewPrometheusObserver(observability.WithRegistry(registry)))
	}

	if opts.otel {
		tel, err := newTelemetry(out)
		if err != nil {
			return err
		}
		defer func() {
			if err := tel.shutdown(context.Background()); err != nil {
				logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
		session.Add(tel.observer)

		var span trace.Span
		ctx, span = tel.tracer.Start(ctx, "simulate")
		defer span.End()
	}

	if session.Len() > 1 {
		observability.RegisterObserver("session", session)
		cfg.Container.Observer = "session"
		cfg.Events.Observer = "session"
		cfg.Debounce.Observer = "session"
	}

	ticks := flow.NewChannel[int](ctx, opts.clicks)
	defer ticks.Close()

	provider := container.Composed(container.Initial(screen{}),
		container.Into[screen, int](ticks, container.Reduce(setTicks)),
		container.Into(flow.Of("ready"), container.Reduce(setLabel)),
	)
	state, _ := provider.Build(ctx, container.WithConfig(cfg.Container))
	defer state.Close()

	toasts := events.New[string](events.WithConfig(cfg.Events))

	handler := dispatch.Func[string](func(action string) {
		next := state.Update(func(s screen) screen {
			s.Clicks++
			return s
		})
		toasts.Emit(fmt.Sprintf("%s #%d", action, next.Clicks))
	})
	debounced, err := dispatch.NewDebounce[string](handler, cfg.Debounce)
	if err != nil {
		return err
	}

	consumeCtx, cancelConsume := context.WithCancel(ctx)
	defer cancelConsume()

	var handled []string
	consumed := make(chan error, 1)
	go func() {
		consumed <- events.Consume(consumeCtx, toasts, func(_ context.Context, msg string) error {
			handled = append(handled, msg)
			logger.Info("toast", slog.String("message", msg))
			return nil
		})
	}()

	click := dispatch.Bind[string](debounced, "click")
	for i := 1; i <= opts.clicks; i++ {
		click()
		if err := ticks.Send(ctx, i); err != nil {
			return err
		}
	}

	select {
	case <-time.After(debounced.Window() + 10*time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	click()

	final, err := awaitState(ctx, state, func(s screen) bool {
		return s.Label != "" && s.Ticks == opts.clicks
	})
	if err != nil {
		return err
	}
	if err := awaitDrained(ctx, toasts); err != nil {
		return err
	}

	cancelConsume()
	if err := <-consumed; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	data, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	m := state.Metrics()

	fmt.Fprintf(out, "State:   %s\n", data)
	fmt.Fprintf(out, "Toasts:  %s\n", strings.Join(handled, ", "))
	fmt.Fprintf(out, "Updates: %d (retries %d, slices started %d)\n", m.Updates, m.Retries, m.SlicesStarted)
	fmt.Fprintf(out, "Debounce window: %v, tracked actions: %d\n", debounced.Window(), debounced.Tracked())

	if registry != nil {
		return printMetrics(out, registry)
	}
	return nil
}

func awaitState(ctx context.Context, c *container.Container[screen], pred func(screen) bool) (screen, error) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	var last screen
	err := c.Collect(ctx, func(_ context.Context, s screen) error {
		last = s
		if pred(s) {
			return errSettled
		}
		return nil
	})
	if !errors.Is(err, errSettled) {
		return last, fmt.Errorf("state did not settle: %w", err)
	}
	return last, nil
}

func awaitDrained(ctx context.Context, h *events.Holder[string]) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	err := h.Events().Collect(ctx, func(_ context.Context, pending []string) error {
		if len(pending) == 0 {
			return errSettled
		}
		return nil
	})
	if !errors.Is(err, errSettled) {
		return fmt.Errorf("toasts were not handled: %w", err)
	}
	return nil
}

func printMetrics(out io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	fmt.Fprintln(out, "\nMetrics:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			fmt.Fprintf(out, "  %s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
	return nil
}
