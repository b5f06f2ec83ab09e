// Package settings implements the nested category → key → value container
// stored inside every profile.
//
// # Shape
//
// A Map is a map[string]any whose nested maps are themselves Maps and whose
// leaves are string, bool, int or float64. Decoders (JSON, YAML, TOML, the
// SQL row mapper) produce other shapes; Canonicalize converts them.
//
// # Flat Form
//
// Flatten joins nested keys with a delimiter and Unflatten reverses it. For
// every map of primitive leaves whose keys do not contain the delimiter:
//
//	Unflatten(Flatten(m, "."), ".") == m
//
// Empty nested maps are not leaves and do not survive Flatten.
//
// FlattenStrict and UnflattenStrict are the storage forms. They escape the
// delimiter and backslash inside keys with a backslash and keep empty maps,
// so categories named after dotted panel paths survive a round trip:
//
//	UnflattenStrict(FlattenStrict(m, "."), ".") == m   // for every m
//
// # Normalisation
//
// Normalize coerces numeric-looking strings and floats to int everywhere in
// the tree. Fractions are truncated toward zero unless the Policy keeps them.
package settings
