// Package keys builds canonical storage keys for UI components.
//
// # Key Format
//
// A key is the variant tag, the panel path and the component id, each
// normalised to lower snake case and joined with underscores:
//
//	Generate(VariantA, "stats.leveling.tweaks", "trainingMethod")
//	// a_stats_leveling_tweaks_training_method
//
// If the panel path already starts with a variant alias (for example
// "edition_a.stats"), that prefix is dropped before the canonical tag is
// prepended, so keys never carry two variant prefixes.
//
// # Variants
//
// A Variant names the ruleset a profile belongs to. Known variants have a
// short canonical tag and a set of aliases accepted by ParseVariant.
// Unknown variants are normalised and used as their own tag.
//
// # Errors
//
// Generate returns ErrBlankComponent when the component id is blank. Callers
// skip registration for that component; nothing is panicked or retried.
// Uniqueness of keys within a panel is the caller's responsibility.
package keys
