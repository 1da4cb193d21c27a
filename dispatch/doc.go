// Package dispatch routes UI actions to application logic.
//
// A Dispatcher has a single method, Dispatch. Everything else is built on top
// of it as free functions (Bind, Adapt, Filter, Fanout) or as decorators. The
// Debounce decorator drops repeats of an equal action that arrive within a
// time window of the last one it let through.
package dispatch
