// ABOUTME: Core owner of the profile cache, store and backup service
// ABOUTME: Lazy at-most-once construction plus a facade that logs failures and returns safe defaults

package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/profilevault/internal/backup"
	"github.com/2389/profilevault/internal/cache"
	"github.com/2389/profilevault/internal/config"
	"github.com/2389/profilevault/internal/sharedmap"
	"github.com/2389/profilevault/internal/store"
)

// Option customises a Core.
type Option func(*Core)

// WithStore makes the core use s instead of opening the configured SQLite
// database. The core still closes it.
func WithStore(s store.ProfileStore) Option {
	return func(c *Core) {
		c.openStore = func(context.Context) (store.ProfileStore, error) { return s, nil }
	}
}

// WithProvider backs the cache with a shared provider, so that several
// cores observe each other's writes.
func WithProvider(p sharedmap.Map[*store.Profile]) Option {
	return func(c *Core) {
		c.provider = p
	}
}

// Core owns the cache, store and backup service of one process.
type Core struct {
	cfg    *config.Config
	logger *slog.Logger

	provider  sharedmap.Map[*store.Profile]
	openStore func(context.Context) (store.ProfileStore, error)

	cacheOnce sync.Once
	cache     *cache.Cache

	storeOnce sync.Once
	store     store.ProfileStore
	storeErr  error

	backupOnce sync.Once
	backup     *backup.Service

	autosaveMu sync.Mutex
	autosave   *autosaver

	closeOnce sync.Once
}

// New creates a core for cfg. Components are built on first use. Pass nil
// logger for default.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Core {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Core{
		cfg:    cfg,
		logger: logger,
	}
	c.openStore = c.openSQLite
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the core was built with.
func (c *Core) Config() *config.Config {
	return c.cfg
}

// Cache returns the profile cache, creating it on first call.
func (c *Core) Cache() *cache.Cache {
	c.cacheOnce.Do(func() {
		c.cache = cache.New(c.provider, cache.Options{
			Policy:     c.cfg.Policy(),
			BufferSize: c.cfg.Cache.EventBuffer,
			Logger:     c.logger,
		})
	})
	return c.cache
}

// Store returns the profile store, opening it on first call. A failure is
// remembered and returned on every later call.
func (c *Core) Store(ctx context.Context) (store.ProfileStore, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = c.openStore(ctx)
		if c.storeErr != nil {
			c.logger.Error("failed to open store", "error", c.storeErr)
		}
	})
	return c.store, c.storeErr
}

func (c *Core) openSQLite(ctx context.Context) (store.ProfileStore, error) {
	s, err := store.NewSQLiteStoreWithOptions(store.Options{
		Driver: c.cfg.Database.Driver,
		Path:   c.cfg.Database.Path,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// Backup returns the backup service, creating it on first call.
func (c *Core) Backup() *backup.Service {
	c.backupOnce.Do(func() {
		c.backup = backup.NewService(c.logger)
	})
	return c.backup
}

// Preload loads every stored profile into the cache and returns how many
// were loaded.
func (c *Core) Preload(ctx context.Context) (int, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return 0, err
	}
	profiles, err := s.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("preloading profiles: %w", err)
	}

	cc := c.Cache()
	n := 0
	for _, p := range profiles {
		if _, err := cc.Add(p); err != nil {
			return n, fmt.Errorf("preloading %s: %w", p.ID, err)
		}
		n++
	}
	c.logger.Info("profiles preloaded", "count", n)
	return n, nil
}

// LoadAll returns every stored profile, or an empty list when the store
// fails.
func (c *Core) LoadAll(ctx context.Context) []*store.Profile {
	s, err := c.Store(ctx)
	if err != nil {
		return []*store.Profile{}
	}
	profiles, err := s.LoadAll(ctx)
	if err != nil {
		c.logger.Error("load all failed", "error", err)
		return []*store.Profile{}
	}
	return profiles
}

// Get returns the profile with id from the cache, falling back to the
// store. It returns nil when the profile is absent or the store fails.
func (c *Core) Get(ctx context.Context, id string) *store.Profile {
	if p, ok := c.Cache().Get(id); ok {
		return p
	}

	s, err := c.Store(ctx)
	if err != nil {
		return nil
	}
	p, err := s.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.logger.Debug("profile not found", "id", id)
		return nil
	}
	if err != nil {
		c.logger.Error("get failed", "id", id, "error", err)
		return nil
	}
	return p
}

// Exists reports whether id is cached or stored. Store failures count as
// absent.
func (c *Core) Exists(ctx context.Context, id string) bool {
	if c.Cache().Contains(id) {
		return true
	}

	s, err := c.Store(ctx)
	if err != nil {
		return false
	}
	ok, err := s.Exists(ctx, id)
	if err != nil {
		c.logger.Error("exists failed", "id", id, "error", err)
		return false
	}
	return ok
}

// Delete removes id from the cache and the store and reports whether it
// was present in either.
func (c *Core) Delete(ctx context.Context, id string) bool {
	removed := c.Cache().Remove(id)

	s, err := c.Store(ctx)
	if err != nil {
		return removed
	}
	err = s.Delete(ctx, id)
	switch {
	case err == nil:
		removed = true
	case errors.Is(err, store.ErrNotFound):
	default:
		c.logger.Error("delete failed", "id", id, "error", err)
	}
	return removed
}

// SaveAll writes every cached profile to the store in one batch and
// reports whether it succeeded.
func (c *Core) SaveAll(ctx context.Context) bool {
	s, err := c.Store(ctx)
	if err != nil {
		return false
	}
	profiles := c.Cache().GetAll()
	if err := s.UpsertBatch(ctx, profiles); err != nil {
		c.logger.Error("save all failed", "count", len(profiles), "error", err)
		return false
	}
	c.logger.Debug("cache saved", "count", len(profiles))
	return true
}

// Export writes every cached profile to a backup in dir and reports
// whether it succeeded.
func (c *Core) Export(dir string, f backup.Format) bool {
	if err := c.Backup().Save(c.Cache().GetAll(), dir, f); err != nil {
		c.logger.Error("export failed", "dir", dir, "format", f, "error", err)
		return false
	}
	return true
}

// Import loads a backup from dir into the cache and returns how many
// profiles were imported.
func (c *Core) Import(dir string, f backup.Format) int {
	cc := c.Cache()
	n := 0
	for _, p := range c.Backup().Load(dir, f) {
		if _, err := cc.Add(p); err != nil {
			c.logger.Warn("import skipped profile", "id", p.ID, "error", err)
			continue
		}
		n++
	}
	c.logger.Info("backup imported", "dir", dir, "format", f, "count", n)
	return n
}

// Close shuts the cache down, stops autosave (flushing every change the
// cache reported) and closes the store. Safe to call multiple times.
func (c *Core) Close() error {
	var err error
	c.closeOnce.Do(func() {
		// Shutdown drains relayed events into the autosave listener first.
		if c.cache != nil {
			c.cache.Shutdown()
		}
		c.StopAutosave()
		if c.store != nil {
			if cerr := c.store.Close(); cerr != nil {
				err = fmt.Errorf("closing store: %w", cerr)
			}
		}
	})
	return err
}
