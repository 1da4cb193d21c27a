// Package events queues one-time events, such as toasts or navigation
// requests, until a consumer handles them.
//
// A Holder keeps pending events in emission order and publishes the pending
// list as a replay-latest StateFlow. Consumers observe the list, act on each
// event they have not seen, and then remove it with Handle. Removal prefers the
// exact instance handed back, so two equal events queued together are removed
// one at a time in a predictable order.
package events
