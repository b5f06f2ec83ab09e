// Package sharedmap defines the key-value provider the profile cache is
// built on, and an in-memory implementation of it.
//
// # Provider Contract
//
// A Map exposes Get, Put, Remove, Clear, Iterate and Subscribe. Every
// mutation is reported to subscribers as an Event carrying the key, the new
// or removed value and whether the key existed before. Several consumers may
// share one provider; each sees the others' writes through its subscription.
//
// A clustered provider (replicated across processes) satisfies the same
// interface. Memory is the single-process implementation used in production
// for one node and in tests.
//
// # Delivery
//
// Each subscriber owns an unbounded Queue drained into its channel by a
// pump goroutine. Delivery never blocks a writer and never drops an event;
// events are emitted in write order. A subscriber that stops reading makes
// its queue grow until its context is cancelled, which discards the rest.
// Unsubscribe and Close deliver what is already queued before closing the
// channel.
package sharedmap
