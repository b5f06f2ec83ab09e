// Package cache holds the in-memory working set of profiles.
//
// # Overview
//
// A Cache wraps a sharedmap.Map provider keyed by profile id. Every value
// crosses the cache boundary as a copy: Add, Update and Mutate store a
// normalised clone and Get, GetAll return clones, so callers never share
// mutable state with the cache or with each other.
//
// # Writes
//
// Writes to the same id serialise on a per-id mutex. There is no cross-key
// atomicity and no expiry. After Shutdown every mutation returns ErrClosed.
//
// # Events
//
// The cache subscribes to its provider and turns provider mutations into
// added, updated and removed events. Writes made by another Cache sharing
// the same provider are relayed the same way, and the relay never loses an
// event. Delivery never blocks a writer.
//
// Listeners registered with AddListener receive every event in order. Each
// runs on its own goroutine behind an unbounded queue, and a panicking
// listener is recovered. Subscribe hands out a bounded channel instead: when
// it is full the event is dropped for that subscriber and the next event it
// receives reports the count in Missed.
//
// Shutdown waits for listeners at most Options.DrainTimeout, so a hung
// listener is logged and left behind rather than blocking the caller.
package cache
