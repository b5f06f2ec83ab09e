// ABOUTME: Variant type naming the ruleset a profile belongs to
// ABOUTME: Known variants carry a canonical tag and aliases used for prefix stripping

package keys

import (
	"sort"
	"sync"
)

// Variant identifies which ruleset (product edition) a profile belongs to.
// The string value is the canonical tag.
type Variant string

// Known variants.
const (
	VariantA Variant = "a"
	VariantB Variant = "b"
)

// known maps canonical tags to their accepted aliases.
var known = map[Variant][]string{
	VariantA: {"a", "edition_a"},
	VariantB: {"b", "edition_b"},
}

var (
	aliasOnce   sync.Once
	aliasSorted []string
	aliasLookup map[string]Variant
)

func buildAliases() {
	aliasLookup = make(map[string]Variant)
	for v, aliases := range known {
		for _, a := range aliases {
			aliasLookup[a] = v
			aliasSorted = append(aliasSorted, a)
		}
	}
	sort.Slice(aliasSorted, func(i, j int) bool {
		if len(aliasSorted[i]) != len(aliasSorted[j]) {
			return len(aliasSorted[i]) > len(aliasSorted[j])
		}
		return aliasSorted[i] < aliasSorted[j]
	})
}

func aliasesLongestFirst() []string {
	aliasOnce.Do(buildAliases)
	return aliasSorted
}

// Tag returns the canonical key prefix for v. Unknown variants are
// normalised and used as-is.
func (v Variant) Tag() string {
	if _, ok := known[v]; ok {
		return string(v)
	}
	return Normalize(string(v))
}

// IsKnown reports whether v is one of the declared variants.
func (v Variant) IsKnown() bool {
	_, ok := known[v]
	return ok
}

func (v Variant) String() string {
	return string(v)
}

// ParseVariant resolves a tag or alias to its canonical Variant.
// The second result is false when s matches no known variant.
func ParseVariant(s string) (Variant, bool) {
	aliasOnce.Do(buildAliases)
	v, ok := aliasLookup[Normalize(s)]
	return v, ok
}

// Known returns the declared variants in tag order.
func Known() []Variant {
	out := make([]Variant, 0, len(known))
	for v := range known {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
