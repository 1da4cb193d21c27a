// Package observability carries the event model every statekit component
// reports through. Containers, event holders and dispatchers emit Events to an
// Observer; the package ships slog, OpenTelemetry, Prometheus, fan-out and
// no-op observers plus a name registry so configuration can pick one by string.
//
// Level values follow OpenTelemetry SeverityNumber ranges, so events translate
// to OTel log records without a lookup table.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// severities lists the OTel SeverityNumber ranges by their upper bound.
var severities = []struct {
	upTo Level
	text string
	slog slog.Level
}{
	{4, "TRACE", slog.LevelDebug},
	{8, "DEBUG", slog.LevelDebug},
	{12, "INFO", slog.LevelInfo},
	{16, "WARN", slog.LevelWarn},
	{20, "ERROR", slog.LevelError},
}

func (l Level) severity() (string, slog.Level) {
	for _, s := range severities {
		if l <= s.upTo {
			return s.text, s.slog
		}
	}
	return "FATAL", slog.LevelError
}

// String returns the OTel severity text for the level.
func (l Level) String() string {
	text, _ := l.severity()
	return text
}

// SlogLevel maps the level onto slog's four levels.
func (l Level) SlogLevel() slog.Level {
	_, level := l.severity()
	return level
}

// EventType names what happened, e.g. "container.update" or "dispatch.suppress".
// Each package declares its own constants.
type EventType string

// Event is one observation reported by a component. Source names the emitting
// instance (kind plus instance name), Data carries flat attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events for logging, tracing, or metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit stamps the event with the current time and hands it to observer.
// A nil observer is ignored.
func Emit(ctx context.Context, observer Observer, eventType EventType, level Level, source string, data map[string]any) {
	if observer == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	observer.OnEvent(ctx, Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
