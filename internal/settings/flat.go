// ABOUTME: Conversions between nested settings and single-level delimited keys
// ABOUTME: Used by the relational row mapper which stores settings flattened

package settings

import (
	"sort"
	"strings"
)

// DefaultDelimiter joins nested keys in flat form.
const DefaultDelimiter = "."

// Flatten joins nested keys with delim and returns a single-level map of
// leaves. Empty nested maps produce no entries.
func Flatten(m Map, delim string) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", m, delim)
	return out
}

func flattenInto(out map[string]any, prefix string, m Map, delim string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + delim + k
		}
		if sub, ok := asMap(v); ok {
			flattenInto(out, key, sub, delim)
			continue
		}
		out[key] = v
	}
}

// Unflatten splits each key on delim and rebuilds the nesting. Keys are
// applied in sorted order, so the result does not depend on map iteration.
// When a key needs an existing leaf as its parent, the leaf is replaced.
func Unflatten(flat map[string]any, delim string) Map {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Map{}
	for _, k := range keys {
		parts := []string{k}
		if delim != "" {
			parts = strings.Split(k, delim)
		}

		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := asMap(node[p])
			if !ok {
				child = Map{}
				node[p] = child
			}
			node = child
		}

		leaf := parts[len(parts)-1]
		if _, isParent := asMap(node[leaf]); isParent {
			continue
		}
		node[leaf] = flat[k]
	}
	return out
}

// escapeChar marks a literal delimiter or escape inside a key in strict
// flat form.
const escapeChar = '\\'

// FlattenStrict is Flatten for storage. Delimiters and backslashes inside
// keys are escaped with a backslash, and empty nested maps are kept as empty
// map leaves, so UnflattenStrict restores every Map exactly. Keys without
// either character come out the same as with Flatten.
func FlattenStrict(m Map, delim string) map[string]any {
	out := make(map[string]any)
	flattenStrictInto(out, "", m, delim)
	return out
}

func flattenStrictInto(out map[string]any, prefix string, m Map, delim string) {
	for k, v := range m {
		key := escapeKey(k, delim)
		if prefix != "" {
			key = prefix + delim + key
		}
		if sub, ok := asMap(v); ok {
			if len(sub) == 0 {
				out[key] = Map{}
				continue
			}
			flattenStrictInto(out, key, sub, delim)
			continue
		}
		out[key] = v
	}
}

// UnflattenStrict reverses FlattenStrict.
func UnflattenStrict(flat map[string]any, delim string) Map {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Map{}
	for _, k := range keys {
		parts := splitEscaped(k, delim)

		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := asMap(node[p])
			if !ok {
				child = Map{}
				node[p] = child
			}
			node = child
		}

		leaf := parts[len(parts)-1]
		if existing, isParent := asMap(node[leaf]); isParent && len(existing) > 0 {
			continue
		}
		v := flat[k]
		if sub, ok := asMap(v); ok {
			v = sub.Clone()
		}
		node[leaf] = v
	}
	return out
}

func escapeKey(k, delim string) string {
	if delim == "" {
		return k
	}
	if !strings.ContainsRune(k, escapeChar) && !strings.Contains(k, delim) {
		return k
	}
	k = strings.ReplaceAll(k, string(escapeChar), string(escapeChar)+string(escapeChar))
	return strings.ReplaceAll(k, delim, string(escapeChar)+delim)
}

// splitEscaped splits s on unescaped delim and unescapes each part.
func splitEscaped(s, delim string) []string {
	if delim == "" {
		return []string{s}
	}

	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); {
		switch {
		case s[i] == escapeChar && i+1 < len(s):
			if strings.HasPrefix(s[i+1:], delim) {
				cur.WriteString(delim)
				i += 1 + len(delim)
			} else {
				cur.WriteByte(s[i+1])
				i += 2
			}
		case strings.HasPrefix(s[i:], delim):
			parts = append(parts, cur.String())
			cur.Reset()
			i += len(delim)
		default:
			cur.WriteByte(s[i])
			i++
		}
	}
	return append(parts, cur.String())
}
