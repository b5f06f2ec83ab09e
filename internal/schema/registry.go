// ABOUTME: Process-wide cache of entity descriptors keyed by entity name
// ABOUTME: Column lookups fall back to the field name instead of failing

package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrAlreadyRegistered is returned when an entity is registered twice.
var ErrAlreadyRegistered = errors.New("entity already registered")

// Descriptor is the immutable, type-independent view of a registered table.
type Descriptor struct {
	Entity  string
	Table   string
	Columns []Column
}

type entry struct {
	desc    Descriptor
	byField map[string]Column
}

// Registry caches descriptors for the life of the process.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *slog.Logger
}

// Default is the registry used by the store.
var Default = NewRegistry(nil)

// NewRegistry creates an empty registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger.With("component", "schema"),
	}
}

// Register validates t and caches its descriptor. A failed validation is
// logged and returned; the entity stays unregistered.
func Register[T any](r *Registry, t *Table[T]) error {
	if err := t.Validate(); err != nil {
		r.logger.Warn("schema validation failed", "entity", t.Entity, "error", err)
		return err
	}

	cols := t.Columns()
	e := &entry{
		desc:    Descriptor{Entity: t.Entity, Table: t.Name, Columns: cols},
		byField: make(map[string]Column, len(cols)),
	}
	for _, c := range cols {
		e.byField[c.Field] = c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[t.Entity]; exists {
		return fmt.Errorf("%s: %w", t.Entity, ErrAlreadyRegistered)
	}
	r.entries[t.Entity] = e

	r.logger.Debug("schema registered", "entity", t.Entity, "table", t.Name, "columns", len(cols))
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry, t *Table[T]) {
	if err := Register(r, t); err != nil {
		panic("schema: " + err.Error())
	}
}

// ColumnNameFor returns the column mapped to field on entity. Unknown
// entities and unmapped fields fall back to the field name.
func (r *Registry) ColumnNameFor(entity, field string) string {
	r.mu.RLock()
	e, ok := r.entries[entity]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("unknown entity, using field name", "entity", entity, "field", field)
		return field
	}
	c, ok := e.byField[field]
	if !ok {
		r.logger.Debug("unmapped field, using field name", "entity", entity, "field", field)
		return field
	}
	return c.Name
}

// Columns returns the ordered columns of entity, or nil if unknown.
func (r *Registry) Columns(entity string) []Column {
	d, ok := r.Descriptor(entity)
	if !ok {
		return nil
	}
	return d.Columns
}

// Descriptor returns a copy of the descriptor for entity.
func (r *Registry) Descriptor(entity string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[entity]
	if !ok {
		return Descriptor{}, false
	}
	d := e.desc
	d.Columns = append([]Column(nil), e.desc.Columns...)
	return d, true
}

// Entities returns the registered entity names in sorted order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
