// ABOUTME: Shared key-value provider interface with change subscriptions
// ABOUTME: In-memory implementation with lossless, non-blocking fan-out to subscribers

package sharedmap

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the capacity of each subscriber channel. Events
// beyond it wait in the subscriber's queue.
const DefaultBufferSize = 64

// EventKind describes a provider mutation.
type EventKind string

// Event kinds.
const (
	EventPut    EventKind = "put"
	EventRemove EventKind = "remove"
)

// Event reports one mutation of the map.
type Event[V any] struct {
	Kind  EventKind
	Key   string
	Value V
	// Existed is true when the key held a value before the mutation.
	Existed bool
}

// Map is the shared key-value provider contract.
type Map[V any] interface {
	Get(key string) (V, bool)
	// Put stores v and returns the previous value, if any.
	Put(key string, v V) (V, bool)
	// Remove deletes key and returns the removed value, if any.
	Remove(key string) (V, bool)
	// Clear removes every key and returns how many were removed.
	Clear() int
	// Iterate calls fn for each entry in key order until fn returns false.
	Iterate(fn func(key string, v V) bool)
	Len() int
	// Subscribe registers for mutation events. Every mutation after the call
	// is delivered in order. The subscription ends when ctx is cancelled or
	// Unsubscribe is called.
	Subscribe(ctx context.Context) (<-chan Event[V], string)
	Unsubscribe(subID string)
}

// Memory is an in-process Map.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]V

	subMu       sync.RWMutex
	subscribers map[string]*subscriber[V]
	bufferSize  int
	closed      bool

	logger *slog.Logger
}

// NewMemory creates an empty in-memory map. Pass nil logger for default and
// a non-positive bufferSize for DefaultBufferSize.
func NewMemory[V any](bufferSize int, logger *slog.Logger) *Memory[V] {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Memory[V]{
		entries:     make(map[string]V),
		subscribers: make(map[string]*subscriber[V]),
		bufferSize:  bufferSize,
		logger:      logger.With("component", "sharedmap"),
	}
}

// Get returns the value stored under key.
func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	return v, ok
}

// Put stores v under key.
func (m *Memory[V]) Put(key string, v V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.entries[key]
	m.entries[key] = v
	m.publish(Event[V]{Kind: EventPut, Key: key, Value: v, Existed: existed})
	return prev, existed
}

// Remove deletes key.
func (m *Memory[V]) Remove(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.entries[key]
	if !existed {
		return prev, false
	}
	delete(m.entries, key)
	m.publish(Event[V]{Kind: EventRemove, Key: key, Value: prev, Existed: true})
	return prev, true
}

// Clear removes every entry, emitting one remove event per key.
func (m *Memory[V]) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	for _, key := range sortedKeys(m.entries) {
		v := m.entries[key]
		delete(m.entries, key)
		m.publish(Event[V]{Kind: EventRemove, Key: key, Value: v, Existed: true})
	}
	return n
}

// Iterate visits a snapshot of the entries in key order.
func (m *Memory[V]) Iterate(fn func(key string, v V) bool) {
	m.mu.RLock()
	keys := sortedKeys(m.entries)
	snapshot := make([]V, len(keys))
	for i, k := range keys {
		snapshot[i] = m.entries[k]
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if !fn(k, snapshot[i]) {
			return
		}
	}
}

// Len returns the number of entries.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// subscriber pairs an unbounded queue with the channel handed to the
// consumer. A pump goroutine moves events from one to the other.
type subscriber[V any] struct {
	queue    *Queue[Event[V]]
	out      chan Event[V]
	quit     chan struct{}
	quitOnce sync.Once
}

// stop abandons delivery and drops whatever is still queued.
func (s *subscriber[V]) stop() int {
	s.quitOnce.Do(func() { close(s.quit) })
	return s.queue.Discard()
}

func (s *subscriber[V]) pump() {
	defer close(s.out)
	for {
		ev, ok := s.queue.Pop()
		if !ok {
			return
		}
		select {
		case s.out <- ev:
		case <-s.quit:
			return
		}
	}
}

// Subscribe registers a subscriber. After Close the returned channel is
// already closed.
func (m *Memory[V]) Subscribe(ctx context.Context) (<-chan Event[V], string) {
	subID := uuid.New().String()
	sub := &subscriber[V]{
		queue: NewQueue[Event[V]](),
		out:   make(chan Event[V], m.bufferSize),
		quit:  make(chan struct{}),
	}

	m.subMu.Lock()
	if m.closed {
		m.subMu.Unlock()
		close(sub.out)
		return sub.out, subID
	}
	m.subscribers[subID] = sub
	m.subMu.Unlock()

	go sub.pump()
	m.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		m.abandon(subID, sub)
	}()

	return sub.out, subID
}

// Unsubscribe ends a subscription. Events published before the call are
// still delivered, then the channel is closed; keep reading until it is.
func (m *Memory[V]) Unsubscribe(subID string) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	sub, ok := m.subscribers[subID]
	if !ok {
		return
	}
	delete(m.subscribers, subID)
	sub.queue.Close()

	m.logger.Debug("subscriber removed", "sub_id", subID)
}

// abandon ends a subscription whose consumer has gone away, dropping
// anything still queued.
func (m *Memory[V]) abandon(subID string, sub *subscriber[V]) {
	m.subMu.Lock()
	if m.subscribers[subID] == sub {
		delete(m.subscribers, subID)
	}
	m.subMu.Unlock()

	if n := sub.stop(); n > 0 {
		m.logger.Debug("discarded events for cancelled subscriber", "sub_id", subID, "count", n)
	}
}

// Close ends every subscription. Queued events are still delivered before
// each channel closes. Entries stay readable and writable. Safe to call
// multiple times.
func (m *Memory[V]) Close() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for id, sub := range m.subscribers {
		sub.queue.Close()
		delete(m.subscribers, id)
	}
}

// publish queues ev for every subscriber. It never blocks and never drops.
// Called with m.mu held so that events keep write order.
func (m *Memory[V]) publish(ev Event[V]) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for _, sub := range m.subscribers {
		sub.queue.Push(ev)
	}
}

func sortedKeys[V any](entries map[string]V) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
