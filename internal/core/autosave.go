// ABOUTME: Background worker persisting cache changes to the store
// ABOUTME: Collects changed ids through a cache listener and flushes them on a ticker

package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/2389/profilevault/internal/cache"
	"github.com/2389/profilevault/internal/store"
)

type autosaver struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
	// id -> true when the latest change was a removal
	pending map[string]bool
}

func (a *autosaver) record(ev cache.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[ev.Profile.ID] = ev.Kind == cache.EventRemoved
}

// StartAutosave starts a worker that writes cache changes to the store
// every cache.autosave interval until ctx is cancelled or StopAutosave is
// called. Pending changes are flushed on exit. It reports whether a worker
// is running; an interval of zero disables autosave.
func (c *Core) StartAutosave(ctx context.Context) bool {
	interval := c.cfg.Cache.Autosave
	if interval <= 0 {
		c.logger.Debug("autosave disabled")
		return false
	}

	c.autosaveMu.Lock()
	defer c.autosaveMu.Unlock()

	if c.autosave != nil {
		return true
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &autosaver{
		cancel:  cancel,
		done:    make(chan struct{}),
		pending: make(map[string]bool),
	}
	stopListening := c.Cache().AddListener(a.record)
	c.autosave = a

	go c.runAutosave(ctx, a, interval, stopListening)

	c.logger.Info("autosave started", "interval", interval)
	return true
}

// StopAutosave stops the autosave worker and waits for its final flush.
func (c *Core) StopAutosave() {
	c.autosaveMu.Lock()
	a := c.autosave
	c.autosave = nil
	c.autosaveMu.Unlock()

	if a == nil {
		return
	}
	a.cancel()
	<-a.done
}

func (c *Core) runAutosave(ctx context.Context, a *autosaver, interval time.Duration, stopListening func()) {
	defer close(a.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush(ctx, a)
		case <-ctx.Done():
			// The listener finishes its backlog before the last flush, which
			// must outlive the cancelled worker context.
			stopListening()
			c.flush(context.WithoutCancel(ctx), a)
			return
		}
	}
}

// flush persists pending changes. Entries that fail stay pending for the
// next flush.
func (c *Core) flush(ctx context.Context, a *autosaver) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pending := a.pending
	if len(pending) == 0 {
		return
	}
	s, err := c.Store(ctx)
	if err != nil {
		return
	}

	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var batch []*store.Profile
	for _, id := range ids {
		if pending[id] {
			err := s.Delete(ctx, id)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				c.logger.Warn("autosave delete failed", "id", id, "error", err)
				continue
			}
			delete(pending, id)
			continue
		}
		if p, ok := c.Cache().Get(id); ok {
			batch = append(batch, p)
		} else {
			delete(pending, id)
		}
	}

	if len(batch) == 0 {
		return
	}
	if err := s.UpsertBatch(ctx, batch); err != nil {
		c.logger.Warn("autosave failed", "count", len(batch), "error", err)
		return
	}
	for _, p := range batch {
		delete(pending, p.ID)
	}
	c.logger.Debug("autosave flushed", "count", len(batch))
}
