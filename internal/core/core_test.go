// ABOUTME: Tests for the core owner and its never-fail facade
// ABOUTME: Uses MockStore for failure injection and a temp SQLite file for the default path

package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/profilevault/internal/backup"
	"github.com/2389/profilevault/internal/cache"
	"github.com/2389/profilevault/internal/config"
	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/settings"
	"github.com/2389/profilevault/internal/sharedmap"
	"github.com/2389/profilevault/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "profiles.db")
	cfg.Backup.Dir = filepath.Join(dir, "backups")
	cfg.Cache.Autosave = 0
	return cfg
}

func newMockCore(t *testing.T) (*Core, *store.MockStore) {
	t.Helper()
	ms := store.NewMockStore()
	c := New(testConfig(t), nil, WithStore(ms))
	t.Cleanup(func() { _ = c.Close() })
	return c, ms
}

func profile(id, name string) *store.Profile {
	return &store.Profile{
		ID:       id,
		Name:     name,
		Variant:  keys.VariantA,
		Settings: settings.Map{"combat": settings.Map{"eatAt": "40"}},
	}
}

func TestCore_ComponentsBuiltOnce(t *testing.T) {
	c, _ := newMockCore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	caches := make([]*cache.Cache, 16)
	stores := make([]store.ProfileStore, 16)
	backups := make([]*backup.Service, 16)
	for i := range caches {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caches[i] = c.Cache()
			stores[i], _ = c.Store(ctx)
			backups[i] = c.Backup()
		}(i)
	}
	wg.Wait()

	for i := range caches {
		assert.Same(t, caches[0], caches[i])
		assert.Equal(t, stores[0], stores[i])
		assert.Same(t, backups[0], backups[i])
	}
}

func TestCore_DefaultStoreIsSQLite(t *testing.T) {
	c := New(testConfig(t), nil)
	defer c.Close()

	s, err := c.Store(context.Background())
	require.NoError(t, err)
	_, ok := s.(*store.SQLiteStore)
	assert.True(t, ok)
}

func TestCore_StoreOpenFailureIsRemembered(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "postgres"
	c := New(cfg, nil)
	defer c.Close()

	ctx := context.Background()
	_, err := c.Store(ctx)
	require.Error(t, err)
	_, again := c.Store(ctx)
	assert.Equal(t, err, again)

	// The facade degrades instead of failing.
	assert.Empty(t, c.LoadAll(ctx))
	assert.Nil(t, c.Get(ctx, "x"))
	assert.False(t, c.Exists(ctx, "x"))
	assert.False(t, c.SaveAll(ctx))

	_, err = c.Preload(ctx)
	assert.Error(t, err)
}

func TestCore_PreloadAndSaveAll(t *testing.T) {
	c, ms := newMockCore(t)
	ctx := context.Background()

	require.NoError(t, ms.UpsertBatch(ctx, []*store.Profile{profile("p1", "alpha"), profile("p2", "bravo")}))

	n, err := c.Preload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Preloaded settings are normalised in the cache.
	p, ok := c.Cache().Get("p1")
	require.True(t, ok)
	assert.Equal(t, 40, p.Settings.Get("combat", "eatAt", nil))

	_, err = c.Cache().Add(profile("p3", "charlie"))
	require.NoError(t, err)
	require.True(t, c.SaveAll(ctx))

	all := c.LoadAll(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, "charlie", all[2].Name)
}

func TestCore_GetFallsBackToStore(t *testing.T) {
	c, ms := newMockCore(t)
	ctx := context.Background()

	require.NoError(t, ms.UpsertBatch(ctx, []*store.Profile{profile("stored", "stored")}))
	_, err := c.Cache().Add(profile("cached", "cached"))
	require.NoError(t, err)

	assert.Equal(t, "cached", c.Get(ctx, "cached").Name)
	assert.Equal(t, "stored", c.Get(ctx, "stored").Name)
	assert.Nil(t, c.Get(ctx, "missing"))

	assert.True(t, c.Exists(ctx, "cached"))
	assert.True(t, c.Exists(ctx, "stored"))
	assert.False(t, c.Exists(ctx, "missing"))
}

func TestCore_Delete(t *testing.T) {
	c, ms := newMockCore(t)
	ctx := context.Background()

	require.NoError(t, ms.UpsertBatch(ctx, []*store.Profile{profile("p1", "alpha")}))
	_, err := c.Cache().Add(profile("p1", "alpha"))
	require.NoError(t, err)

	assert.True(t, c.Delete(ctx, "p1"))
	assert.False(t, c.Exists(ctx, "p1"))
	assert.False(t, c.Delete(ctx, "p1"))
}

func TestCore_FacadeSwallowsStoreFailures(t *testing.T) {
	c, ms := newMockCore(t)
	ctx := context.Background()

	_, err := c.Cache().Add(profile("p1", "alpha"))
	require.NoError(t, err)

	ms.FailWith(errors.New("disk full"))

	assert.Empty(t, c.LoadAll(ctx))
	assert.Nil(t, c.Get(ctx, "missing"))
	assert.False(t, c.Exists(ctx, "missing"))
	assert.False(t, c.SaveAll(ctx))
	// The cached copy is still removed.
	assert.True(t, c.Delete(ctx, "p1"))

	_, err = c.Preload(ctx)
	var perr *store.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestCore_ExportImport(t *testing.T) {
	for _, f := range backup.Formats() {
		t.Run(string(f), func(t *testing.T) {
			src, _ := newMockCore(t)
			dir := t.TempDir()

			_, err := src.Cache().Add(profile("p1", "alpha"))
			require.NoError(t, err)
			b := profile("p2", "bravo")
			b.Variant = keys.VariantB
			_, err = src.Cache().Add(b)
			require.NoError(t, err)

			require.True(t, src.Export(dir, f))

			dst, _ := newMockCore(t)
			assert.Equal(t, 2, dst.Import(dir, f))
			assert.Equal(t, src.Cache().GetAll(), dst.Cache().GetAll())
		})
	}
}

func TestCore_ExportFailure(t *testing.T) {
	c, _ := newMockCore(t)
	assert.False(t, c.Export(t.TempDir(), backup.Format("csv")))
}

func TestCore_ImportMissingDirectory(t *testing.T) {
	c, _ := newMockCore(t)
	assert.Equal(t, 0, c.Import(filepath.Join(t.TempDir(), "nothing"), backup.FormatJSON))
}

func TestCore_Autosave(t *testing.T) {
	ms := store.NewMockStore()
	cfg := testConfig(t)
	cfg.Cache.Autosave = 10 * time.Millisecond
	c := New(cfg, nil, WithStore(ms))
	defer c.Close()

	ctx := context.Background()
	require.True(t, c.StartAutosave(ctx))
	require.True(t, c.StartAutosave(ctx))

	_, err := c.Cache().Add(profile("p1", "alpha"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		ok, _ := ms.Exists(ctx, "p1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, c.Cache().Remove("p1"))

	require.Eventually(t, func() bool {
		ok, _ := ms.Exists(ctx, "p1")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCore_AutosaveFlushesOnStop(t *testing.T) {
	ms := store.NewMockStore()
	cfg := testConfig(t)
	cfg.Cache.Autosave = time.Hour
	c := New(cfg, nil, WithStore(ms))
	defer c.Close()

	ctx := context.Background()
	require.True(t, c.StartAutosave(ctx))

	_, err := c.Cache().Add(profile("p1", "alpha"))
	require.NoError(t, err)

	// Let the event reach the worker before stopping it.
	time.Sleep(50 * time.Millisecond)
	c.StopAutosave()

	ok, err := ms.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCore_AutosaveDisabled(t *testing.T) {
	c, _ := newMockCore(t)
	assert.False(t, c.StartAutosave(context.Background()))
	c.StopAutosave()
}

func TestCore_SharedProvider(t *testing.T) {
	provider := sharedmap.NewMemory[*store.Profile](0, nil)
	defer provider.Close()

	a := New(testConfig(t), nil, WithStore(store.NewMockStore()), WithProvider(provider))
	defer a.Close()
	b := New(testConfig(t), nil, WithStore(store.NewMockStore()), WithProvider(provider))
	defer b.Close()

	_, err := a.Cache().Add(profile("p1", "alpha"))
	require.NoError(t, err)

	got, ok := b.Cache().Get("p1")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Name)
}

func TestCore_Close(t *testing.T) {
	ms := store.NewMockStore()
	c := New(testConfig(t), nil, WithStore(ms))

	ctx := context.Background()
	_, err := c.Store(ctx)
	require.NoError(t, err)
	_, err = c.Cache().Add(profile("p1", "alpha"))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Cache().Add(profile("p2", "bravo"))
	assert.ErrorIs(t, err, cache.ErrClosed)

	_, err = ms.LoadAll(ctx)
	assert.Error(t, err)
}

func TestCore_Context(t *testing.T) {
	c, _ := newMockCore(t)

	ctx := WithContext(context.Background(), c)
	assert.Same(t, c, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestCore_AutosaveAfterBurstAndClear(t *testing.T) {
	ms := store.NewMockStore()
	cfg := testConfig(t)
	cfg.Cache.Autosave = time.Hour
	cfg.Cache.EventBuffer = 4
	c := New(cfg, nil, WithStore(ms))
	defer c.Close()

	ctx := context.Background()
	require.True(t, c.StartAutosave(ctx))

	for i := 0; i < 300; i++ {
		_, err := c.Cache().Add(profile(fmt.Sprintf("p%03d", i), "bulk"))
		require.NoError(t, err)
	}

	// Same order as Close, without closing the store.
	c.Cache().Shutdown()
	c.StopAutosave()

	stored, err := ms.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 300)
}

func TestCore_AutosaveDeletesEverythingCleared(t *testing.T) {
	ms := store.NewMockStore()
	cfg := testConfig(t)
	cfg.Cache.Autosave = 10 * time.Millisecond
	cfg.Cache.EventBuffer = 4
	c := New(cfg, nil, WithStore(ms))
	defer c.Close()

	ctx := context.Background()
	var seed []*store.Profile
	for i := 0; i < 200; i++ {
		seed = append(seed, profile(fmt.Sprintf("p%03d", i), "bulk"))
	}
	require.NoError(t, ms.UpsertBatch(ctx, seed))
	n, err := c.Preload(ctx)
	require.NoError(t, err)
	require.Equal(t, 200, n)

	require.True(t, c.StartAutosave(ctx))
	assert.Equal(t, 200, c.Cache().Clear())

	require.Eventually(t, func() bool {
		all, err := ms.LoadAll(ctx)
		return err == nil && len(all) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
