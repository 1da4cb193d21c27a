package observability

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tailored-agentic-units/statekit"

// OTelObserver records events as OpenTelemetry metrics and, when the context
// carries a recording span, as span events on that span. Error-level events
// mark the span as failed.
type OTelObserver struct {
	meter  metric.Meter
	events metric.Int64Counter
	errors metric.Int64Counter
}

// OTelOption configures an OTelObserver.
type OTelOption func(*OTelObserver)

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(o *OTelObserver) {
		o.meter = provider.Meter(instrumentationName)
	}
}

// NewOTelObserver creates an OTelObserver using the global meter provider
// unless WithMeterProvider is given.
func NewOTelObserver(opts ...OTelOption) (*OTelObserver, error) {
	obs := &OTelObserver{
		meter: otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(obs)
	}

	var err error
	obs.events, err = obs.meter.Int64Counter(
		"statekit.events",
		metric.WithDescription("Number of statekit events observed"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	obs.errors, err = obs.meter.Int64Counter(
		"statekit.errors",
		metric.WithDescription("Number of error-level statekit events"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return obs, nil
}

func (o *OTelObserver) OnEvent(ctx context.Context, event Event) {
	base := []attribute.KeyValue{
		attribute.String("event.type", string(event.Type)),
		attribute.String("event.source", event.Source),
		attribute.String("event.level", event.Level.String()),
	}

	o.events.Add(ctx, 1, metric.WithAttributes(base...))
	if event.Level >= LevelError {
		o.errors.Add(ctx, 1, metric.WithAttributes(base...))
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := append(base, dataAttributes(event.Data)...)
	span.AddEvent(string(event.Type), trace.WithAttributes(attrs...), trace.WithTimestamp(event.Timestamp))
	if event.Level >= LevelError {
		msg := string(event.Type)
		if errVal, ok := event.Data["error"]; ok {
			msg = fmt.Sprint(errVal)
		}
		span.SetStatus(codes.Error, msg)
	}
}

func dataAttributes(data map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		key := "data." + k
		switch v := data[k].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case uint64:
			attrs = append(attrs, attribute.Int64(key, int64(v)))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		default:
			attrs = append(attrs, attribute.String(key, fmt.Sprint(v)))
		}
	}
	return attrs
}
