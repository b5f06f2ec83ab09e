// Package schema holds the field ↔ column metadata used by the relational
// store.
//
// Each entity type declares a Table: an ordered list of fields, each with
// its column name, column type and a pair of binder functions that read and
// write the field on the entity. Tables are declared in Go source and
// validated when registered, so no reflection runs at query time.
//
// The Registry caches one descriptor per entity name for the life of the
// process. Lookups never fail: an unknown entity or unmapped field falls back
// to the field name and the miss is logged at debug level.
package schema
