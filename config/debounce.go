package config

import "time"

// DefaultDebounceMillis is the debounce window used when none is configured.
const DefaultDebounceMillis = 100

// DebounceConfig configures a debouncing dispatcher.
//
// Configuration fields:
//   - WindowMillis: repeats of an equal action within this many milliseconds of
//     its last dispatch are suppressed. Negative values are rejected when the
//     dispatcher is built.
//   - Exclude: optional expr-lang expression over `action`; actions for which
//     it evaluates to true bypass debouncing entirely.
type DebounceConfig struct {
	Name         string `json:"name"`
	Observer     string `json:"observer"`
	WindowMillis int64  `json:"window_ms"`
	Exclude      string `json:"exclude,omitempty"`
}

// DefaultDebounceConfig returns a 100ms window that excludes nothing.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Name:         "dispatch",
		Observer:     "slog",
		WindowMillis: DefaultDebounceMillis,
	}
}

// Window returns WindowMillis as a duration.
func (c DebounceConfig) Window() time.Duration {
	return time.Duration(c.WindowMillis) * time.Millisecond
}

// Merge copies non-zero fields from source. A negative window is copied too,
// so that an invalid file value reaches construction and is rejected there
// instead of silently falling back to the default.
func (c *DebounceConfig) Merge(source *DebounceConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.WindowMillis != 0 {
		c.WindowMillis = source.WindowMillis
	}

	if source.Exclude != "" {
		c.Exclude = source.Exclude
	}
}
