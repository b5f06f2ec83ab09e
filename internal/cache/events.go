// ABOUTME: In-memory fan-out broadcaster for profile cache change events
// ABOUTME: Bounded subscriber channels plus queued, panic-isolated listener goroutines

package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/2389/profilevault/internal/sharedmap"
	"github.com/2389/profilevault/internal/store"
)

// DefaultDrainTimeout bounds how long Close and listener cancellation wait
// for listeners to finish.
const DefaultDrainTimeout = 5 * time.Second

// EventKind names a cache change.
type EventKind string

// Event kinds.
const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
)

// Event reports one change to the cache. Profile is a private snapshot; for
// EventRemoved it is the value that was removed.
type Event struct {
	Kind    EventKind
	Profile *store.Profile
	// Missed is the number of events dropped for this subscriber since the
	// previous event it received. Listeners never miss events.
	Missed int
}

type subscription struct {
	ch     chan Event
	missed atomic.Int64
}

type listener struct {
	queue *sharedmap.Queue[Event]
	done  chan struct{}
}

// Broadcaster provides in-memory pub/sub for cache events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*subscription // subID -> sub
	listeners   map[string]*listener
	bufferSize  int
	closed      bool

	running      sync.WaitGroup
	drainTimeout time.Duration
	logger       *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(bufferSize int, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Broadcaster{
		subscribers:  make(map[string]*subscription),
		listeners:    make(map[string]*listener),
		bufferSize:   bufferSize,
		drainTimeout: DefaultDrainTimeout,
		logger:       logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber with a bounded channel. The subscription
// is cleaned up when ctx is cancelled. After Close the returned channel is
// already closed.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	sub := &subscription{ch: make(chan Event, b.bufferSize)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, subID
	}
	b.subscribers[subID] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return sub.ch, subID
}

// AddListener runs fn on its own goroutine for every event until the
// returned cancel func is called or the broadcaster closes. Events wait in
// an unbounded queue, so a listener sees every event in order however slow
// it is. A panic in fn is recovered and logged; the listener keeps
// receiving. Cancel lets the listener finish what is already queued and
// waits for it, at most the drain timeout.
func (b *Broadcaster) AddListener(fn func(Event)) (cancel func()) {
	id := uuid.New().String()
	l := &listener{
		queue: sharedmap.NewQueue[Event](),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.listeners[id] = l
	b.running.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.running.Done()
		defer close(l.done)
		for {
			ev, ok := l.queue.Pop()
			if !ok {
				return
			}
			b.dispatch(id, fn, ev)
		}
	}()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
		l.queue.Close()

		if !b.await(l.done) {
			b.logger.Warn("listener still running after cancel", "listener_id", id, "timeout", b.drainTimeout)
		}
	}
}

func (b *Broadcaster) dispatch(id string, fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked", "listener_id", id, "kind", ev.Kind, "panic", r)
		}
	}()
	fn(ev)
}

// await waits for done at most the drain timeout and reports whether it
// closed in time.
func (b *Broadcaster) await(done <-chan struct{}) bool {
	timer := time.NewTimer(b.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Publish delivers ev without blocking. Listeners always receive it.
// Subscribers with a full channel miss it; the next event they receive
// carries the count in Missed. Each receiver gets its own copy of the
// profile.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, l := range b.listeners {
		l.queue.Push(Event{Kind: ev.Kind, Profile: ev.Profile.Clone()})
	}

	for id, sub := range b.subscribers {
		missed := sub.missed.Swap(0)
		out := Event{Kind: ev.Kind, Profile: ev.Profile.Clone(), Missed: int(missed)}
		select {
		case sub.ch <- out:
		default:
			sub.missed.Add(missed + 1)
			b.logger.Warn("dropped event for slow subscriber", "sub_id", id, "kind", ev.Kind)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(sub.ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close closes every subscriber channel and lets listeners drain their
// queues. It waits for them at most the drain timeout, so a hung listener
// cannot block shutdown. Safe to call multiple times.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		for id, sub := range b.subscribers {
			close(sub.ch)
			delete(b.subscribers, id)
		}
		for id, l := range b.listeners {
			l.queue.Close()
			delete(b.listeners, id)
		}
		b.logger.Debug("broadcaster closed")
	}
	b.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		b.running.Wait()
		close(drained)
	}()
	if !b.await(drained) {
		b.logger.Warn("listeners still running after drain timeout", "timeout", b.drainTimeout)
	}
}
