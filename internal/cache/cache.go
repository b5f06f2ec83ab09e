// ABOUTME: Profile cache over a shared key-value provider with per-id write locks
// ABOUTME: Copies in and out, normalises settings, relays provider changes as events

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389/profilevault/internal/settings"
	"github.com/2389/profilevault/internal/sharedmap"
	"github.com/2389/profilevault/internal/store"
)

var (
	// ErrNilProfile is returned when a nil profile is written.
	ErrNilProfile = errors.New("nil profile")
	// ErrClosed is returned by mutations after Shutdown.
	ErrClosed = errors.New("cache is shut down")
	// ErrNotFound is returned by Mutate when the id is not cached.
	ErrNotFound = errors.New("profile not in cache")
)

// Options configures a Cache.
type Options struct {
	// Policy controls settings normalisation on every write.
	Policy settings.Policy
	// BufferSize is the channel capacity of each Subscribe subscriber.
	BufferSize int
	// DrainTimeout bounds how long Shutdown waits for listeners. Zero means
	// DefaultDrainTimeout.
	DrainTimeout time.Duration
	Logger       *slog.Logger
}

// Cache is the in-memory profile working set.
type Cache struct {
	provider sharedmap.Map[*store.Profile]
	policy   settings.Policy
	events   *Broadcaster

	locks  sync.Map // id -> *sync.Mutex
	closed atomic.Bool

	relaySub    string
	relayCancel context.CancelFunc
	relayDone   chan struct{}
	stopOnce    sync.Once

	logger *slog.Logger
}

// New creates a cache over provider. A nil provider gets a private
// in-memory map.
func New(provider sharedmap.Map[*store.Profile], opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = sharedmap.NewMemory[*store.Profile](opts.BufferSize, logger)
	}

	c := &Cache{
		provider:  provider,
		policy:    opts.Policy,
		events:    NewBroadcaster(opts.BufferSize, logger),
		relayDone: make(chan struct{}),
		logger:    logger.With("component", "cache"),
	}
	if opts.DrainTimeout > 0 {
		c.events.drainTimeout = opts.DrainTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, subID := provider.Subscribe(ctx)
	c.relaySub = subID
	c.relayCancel = cancel
	go c.relay(ch)

	return c
}

// relay turns provider mutations into cache events until the provider
// subscription ends.
func (c *Cache) relay(ch <-chan sharedmap.Event[*store.Profile]) {
	defer close(c.relayDone)

	for ev := range ch {
		var kind EventKind
		switch {
		case ev.Kind == sharedmap.EventRemove:
			kind = EventRemoved
		case ev.Existed:
			kind = EventUpdated
		default:
			kind = EventAdded
		}
		c.events.Publish(Event{Kind: kind, Profile: ev.Value})
	}
}

func (c *Cache) lockFor(id string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Add stores a copy of p and returns the stored snapshot. A missing id is
// assigned on p itself so the caller learns it.
func (c *Cache) Add(p *store.Profile) (*store.Profile, error) {
	return c.upsert(p)
}

// Update is Add under another name; both replace any existing entry.
func (c *Cache) Update(p *store.Profile) (*store.Profile, error) {
	return c.upsert(p)
}

func (c *Cache) upsert(p *store.Profile) (*store.Profile, error) {
	if p == nil {
		return nil, ErrNilProfile
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}

	p.EnsureID()
	if p.LastUpdated == 0 {
		p.Touch(time.Now())
	}

	mu := c.lockFor(p.ID)
	mu.Lock()
	defer mu.Unlock()

	stored := p.Clone()
	settings.NormalizeWith(stored.Settings, c.policy)
	c.provider.Put(stored.ID, stored)

	c.logger.Debug("profile cached", "id", stored.ID, "name", stored.Name)
	return stored.Clone(), nil
}

// Mutate runs fn on a copy of the cached profile under the id's write lock
// and stores the result. Nothing is stored when fn returns an error.
func (c *Cache) Mutate(id string, fn func(p *store.Profile) error) (*store.Profile, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	mu := c.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	current, ok := c.provider.Get(id)
	if !ok {
		return nil, fmt.Errorf("mutate %s: %w", id, ErrNotFound)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, fmt.Errorf("mutate %s: %w", id, err)
	}
	next.ID = id
	if next.Settings == nil {
		next.Settings = settings.Map{}
	}
	settings.NormalizeWith(next.Settings, c.policy)
	next.Touch(time.Now())

	c.provider.Put(id, next)
	return next.Clone(), nil
}

// Remove deletes id and reports whether it was cached.
func (c *Cache) Remove(id string) bool {
	if c.closed.Load() {
		return false
	}

	mu := c.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	_, ok := c.provider.Remove(id)
	return ok
}

// Get returns a copy of the cached profile.
func (c *Cache) Get(id string) (*store.Profile, bool) {
	p, ok := c.provider.Get(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Contains reports whether id is cached.
func (c *Cache) Contains(id string) bool {
	_, ok := c.provider.Get(id)
	return ok
}

// GetAll returns copies of every cached profile ordered by name, then id.
func (c *Cache) GetAll() []*store.Profile {
	out := make([]*store.Profile, 0, c.provider.Len())
	c.provider.Iterate(func(_ string, p *store.Profile) bool {
		out = append(out, p.Clone())
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of cached profiles.
func (c *Cache) Len() int {
	return c.provider.Len()
}

// Clear removes every profile and returns how many were removed.
func (c *Cache) Clear() int {
	if c.closed.Load() {
		return 0
	}
	n := c.provider.Clear()
	c.logger.Debug("cache cleared", "count", n)
	return n
}

// Subscribe registers for change events until ctx is cancelled.
func (c *Cache) Subscribe(ctx context.Context) (<-chan Event, string) {
	return c.events.Subscribe(ctx)
}

// Unsubscribe ends a subscription.
func (c *Cache) Unsubscribe(subID string) {
	c.events.Unsubscribe(subID)
}

// AddListener calls fn for every change event on a dedicated goroutine.
func (c *Cache) AddListener(fn func(Event)) (cancel func()) {
	return c.events.AddListener(fn)
}

// Shutdown relays the provider events already queued, stops event delivery
// and waits for listeners to finish, at most the drain timeout. Cached
// profiles stay readable. Safe to call multiple times.
func (c *Cache) Shutdown() {
	c.stopOnce.Do(func() {
		c.closed.Store(true)
		c.provider.Unsubscribe(c.relaySub)
		c.relayCancel()
		<-c.relayDone
		c.events.Close()
		c.logger.Info("cache shut down", "profiles", c.provider.Len())
	})
}
