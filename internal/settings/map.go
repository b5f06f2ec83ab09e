// ABOUTME: Nested settings container with typed accessors and deep copy
// ABOUTME: Categories are created lazily; lookups fall back to caller defaults

package settings

import (
	"reflect"
	"sort"
)

// Map is a nested category → key → value container.
type Map map[string]any

// Get returns the value stored under category/key. It returns def when the
// entry is missing, or when def is non-nil and the stored value has a
// different dynamic type.
func (m Map) Get(category, key string, def any) any {
	cat, ok := asMap(m[category])
	if !ok {
		return def
	}
	v, ok := cat[key]
	if !ok {
		return def
	}
	if def != nil && reflect.TypeOf(v) != reflect.TypeOf(def) {
		return def
	}
	return v
}

// GetString returns the string under category/key or def.
func (m Map) GetString(category, key, def string) string {
	s, _ := m.Get(category, key, def).(string)
	return s
}

// GetInt returns the int under category/key or def.
func (m Map) GetInt(category, key string, def int) int {
	n, _ := m.Get(category, key, def).(int)
	return n
}

// GetBool returns the bool under category/key or def.
func (m Map) GetBool(category, key string, def bool) bool {
	b, _ := m.Get(category, key, def).(bool)
	return b
}

// Set stores value under category/key, creating the category if needed.
// A non-map value already stored under category is replaced.
func (m Map) Set(category, key string, value any) {
	cat, ok := asMap(m[category])
	if !ok {
		cat = Map{}
		m[category] = cat
	}
	cat[key] = value
}

// Delete removes category/key. Empty categories are removed as well.
func (m Map) Delete(category, key string) {
	cat, ok := asMap(m[category])
	if !ok {
		return
	}
	delete(cat, key)
	if len(cat) == 0 {
		delete(m, category)
	}
}

// Category returns the sub-map for category, or nil.
func (m Map) Category(category string) Map {
	cat, _ := asMap(m[category])
	return cat
}

// Categories returns the category names in sorted order.
func (m Map) Categories() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if _, ok := asMap(v); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of m in canonical form. Clone of nil is an
// empty Map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if sub, ok := asMap(v); ok {
			out[k] = sub.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// asMap reports whether v is a nested map and returns it as a Map.
func asMap(v any) (Map, bool) {
	switch t := v.(type) {
	case Map:
		return t, true
	case map[string]any:
		return Map(t), true
	default:
		return nil, false
	}
}
