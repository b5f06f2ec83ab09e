// ABOUTME: Canonical storage key generation from variant, panel path and component id
// ABOUTME: Handles camelCase splitting, separator collapsing and variant prefix stripping

package keys

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrBlankComponent is returned when the component id is empty or has no
// alphanumeric characters.
var ErrBlankComponent = errors.New("component id is blank")

// separator joins key segments.
const separator = "_"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate returns the storage key for a component on a panel of the given
// variant. The same inputs always produce the same key.
func Generate(variant Variant, panelPath, componentID string) (string, error) {
	component := Normalize(componentID)
	if component == "" {
		return "", ErrBlankComponent
	}

	panel := stripVariantPrefix(Normalize(panelPath))

	segments := make([]string, 0, 3)
	if tag := variant.Tag(); tag != "" {
		segments = append(segments, tag)
	}
	if panel != "" {
		segments = append(segments, panel)
	}
	segments = append(segments, component)

	return strings.Join(segments, separator), nil
}

// MustGenerate is like Generate but panics on a blank component id.
// Intended for statically declared keys.
func MustGenerate(variant Variant, panelPath, componentID string) string {
	key, err := Generate(variant, panelPath, componentID)
	if err != nil {
		panic("keys: " + err.Error() + ": " + panelPath)
	}
	return key
}

// Normalize lower-cases s, splits camelCase words and collapses every run of
// non-alphanumeric characters into a single underscore.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(splitCamel(s))
	s = nonAlnum.ReplaceAllString(s, separator)
	return strings.Trim(s, separator)
}

// splitCamel inserts an underscore at lower→upper boundaries and before the
// last capital of an acronym followed by a lower-case letter, so that
// "trainingMethod" becomes "training_Method" and "HPThreshold" becomes
// "HP_Threshold".
func splitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteString(separator)
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripVariantPrefix drops a leading variant alias segment from a normalised
// panel path.
func stripVariantPrefix(panel string) string {
	for _, alias := range aliasesLongestFirst() {
		if panel == alias {
			return ""
		}
		if strings.HasPrefix(panel, alias+separator) {
			return strings.TrimPrefix(panel, alias+separator)
		}
	}
	return panel
}
