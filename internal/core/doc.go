// Package core wires the profile cache, store and backup service together.
//
// # Ownership
//
// A Core is the single owner of one cache, one store and one backup
// service. Each is built on first use and at most once, even under
// concurrent first access. Close shuts them down in reverse order. Pass the
// core explicitly or through a context with WithContext; there are no
// package-level singletons.
//
// # Failure Policy
//
// The facade methods (LoadAll, Get, Exists, Delete, SaveAll, Export,
// Import) never return errors for expected failures. They log the failure
// and return an empty list, nil, false or zero. Store opens and Preload do
// return errors, since a missing store is fatal at startup.
//
// # Autosave
//
// StartAutosave runs a worker that registers a cache listener, so it sees
// every change however large the burst, and writes changed profiles to the
// store on a fixed interval. Removals are deleted from the store. Pending
// changes are flushed when the worker stops; Close shuts the cache down
// first so that every relayed change reaches that final flush. There
// is no transaction spanning cache and store; a crash between a cache
// write and the next flush loses that write.
package core
