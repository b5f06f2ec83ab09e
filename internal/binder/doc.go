// Package binder connects UI widgets to profile settings.
//
// RegisterComponent generates a namespaced key for a widget with the keys
// package, records the binding and hooks the widget's focus-lost signal.
// When focus is lost the widget value is extracted according to its kind
// and written to the active profile through the cache:
//
//	text      trimmed string
//	checkbox  bool
//	spinner   int
//	slider    int
//	combo     string
//
// Extraction failures are logged and leave the stored value unchanged.
package binder
