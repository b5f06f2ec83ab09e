// ABOUTME: Binds UI widgets to generated keys and to the active profile's settings
// ABOUTME: Commits widget values through the cache when a widget loses focus

package binder

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/store"
)

// ErrUnknownBinding is returned for keys with no registered widget.
var ErrUnknownBinding = errors.New("no widget bound to key")

// ErrNoProfile is returned when the binder has no active profile.
var ErrNoProfile = errors.New("no active profile")

// ProfileCache is the part of the profile cache the binder writes through.
type ProfileCache interface {
	Get(id string) (*store.Profile, bool)
	Mutate(id string, fn func(p *store.Profile) error) (*store.Profile, error)
}

// Binding records one registered widget.
type Binding struct {
	Key      string // generated key
	Panel    string
	Category string
	Setting  string // key inside the category
	Widget   Widget
}

// Binder connects widgets of one panel tree to one profile.
type Binder struct {
	cache   ProfileCache
	variant keys.Variant

	mu         sync.RWMutex
	profileID  string
	bindings   map[string]*Binding
	extractors map[Kind]Extractor

	logger *slog.Logger
}

// New creates a binder writing to profileID in c. Pass nil logger for default.
func New(c ProfileCache, profileID string, variant keys.Variant, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{
		cache:      c,
		variant:    variant,
		profileID:  profileID,
		bindings:   make(map[string]*Binding),
		extractors: DefaultExtractors(),
		logger:     logger.With("component", "binder", "variant", variant.Tag()),
	}
}

// SetExtractor installs or replaces the extractor for a widget kind.
func (b *Binder) SetExtractor(kind Kind, fn Extractor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.extractors[kind] = fn
}

// SetProfile switches the profile that commits write to.
func (b *Binder) SetProfile(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileID = id
}

// ProfileID returns the active profile id.
func (b *Binder) ProfileID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profileID
}

// RegisterComponent binds w to the setting category/key and returns the
// generated key. A later registration for the same key replaces this one.
// A blank key returns keys.ErrBlankComponent and registers nothing.
func (b *Binder) RegisterComponent(panel, category, key string, w Widget) (string, error) {
	generated, err := keys.Generate(b.variant, panel, key)
	if err != nil {
		b.logger.Warn("skipping component registration", "panel", panel, "category", category, "error", err)
		return "", err
	}
	if w == nil {
		return "", fmt.Errorf("register %s: nil widget", generated)
	}

	binding := &Binding{
		Key:      generated,
		Panel:    panel,
		Category: category,
		Setting:  key,
		Widget:   w,
	}

	b.mu.Lock()
	if _, exists := b.bindings[generated]; exists {
		b.logger.Debug("replacing binding", "key", generated)
	}
	b.bindings[generated] = binding
	b.mu.Unlock()

	w.OnFocusLost(func() {
		if err := b.commit(binding); err != nil {
			b.logger.Warn("commit failed", "key", generated, "error", err)
		}
	})

	b.logger.Debug("component registered", "key", generated, "kind", w.Kind())
	return generated, nil
}

// Commit writes the current value of the widget bound to key.
func (b *Binder) Commit(key string) error {
	binding, ok := b.Binding(key)
	if !ok {
		return fmt.Errorf("commit %s: %w", key, ErrUnknownBinding)
	}
	return b.commit(binding)
}

// commit is a no-op for a binding that has since been replaced.
func (b *Binder) commit(binding *Binding) error {
	b.mu.RLock()
	current := b.bindings[binding.Key]
	extract, ok := b.extractors[binding.Widget.Kind()]
	profileID := b.profileID
	b.mu.RUnlock()

	if current != binding {
		b.logger.Debug("ignoring stale binding", "key", binding.Key)
		return nil
	}
	if !ok {
		return fmt.Errorf("commit %s: %w: %s", binding.Key, ErrNoExtractor, binding.Widget.Kind())
	}

	value, err := extract(binding.Widget.Value())
	if err != nil {
		return fmt.Errorf("commit %s: %w", binding.Key, err)
	}
	return b.write(profileID, binding.Category, binding.Setting, value)
}

func (b *Binder) write(profileID, category, key string, value any) error {
	if profileID == "" {
		return ErrNoProfile
	}
	_, err := b.cache.Mutate(profileID, func(p *store.Profile) error {
		p.Settings.Set(category, key, value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving %s.%s: %w", category, key, err)
	}
	b.logger.Debug("setting saved", "profile_id", profileID, "category", category, "key", key)
	return nil
}

// LoadSetting returns the stored value of key in the panel's category of
// the active profile.
func (b *Binder) LoadSetting(panel, key string) (any, bool) {
	p, ok := b.cache.Get(b.ProfileID())
	if !ok {
		return nil, false
	}
	v := p.Settings.Get(panel, key, nil)
	return v, v != nil
}

// SaveSetting stores value under key in the panel's category of the active
// profile.
func (b *Binder) SaveSetting(panel, key string, value any) error {
	return b.write(b.ProfileID(), panel, key, value)
}

// Refresh pushes stored values into every bound widget and returns how many
// widgets were updated. Widgets without a stored value are left alone.
func (b *Binder) Refresh() int {
	p, ok := b.cache.Get(b.ProfileID())
	if !ok {
		return 0
	}

	n := 0
	for _, binding := range b.snapshot() {
		v := p.Settings.Get(binding.Category, binding.Setting, nil)
		if v == nil {
			continue
		}
		binding.Widget.SetValue(v)
		n++
	}
	return n
}

// Binding returns the binding registered under key.
func (b *Binder) Binding(key string) (*Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	binding, ok := b.bindings[key]
	return binding, ok
}

// Keys returns every bound key, sorted.
func (b *Binder) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.bindings))
	for k := range b.bindings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (b *Binder) snapshot() []*Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Binding, 0, len(b.bindings))
	for _, binding := range b.bindings {
		out = append(out, binding)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
