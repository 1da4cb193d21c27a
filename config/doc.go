// Package config holds the construction-time settings for statekit components.
//
// Configuration follows one pattern throughout: a struct with JSON tags, a
// DefaultXConfig constructor, and a Merge method that copies the non-zero
// fields of a source config. Load reads a JSON file and merges it onto the
// defaults, so a file only needs the fields it changes:
//
//	{
//	  "container": {"name": "profile", "observer": "slog"},
//	  "events":    {"name": "toasts"},
//	  "debounce":  {"window_ms": 250, "exclude": "action == 'scroll'"}
//	}
//
// Observers are referenced by name and resolved through the observability
// registry when a component is built.
package config
