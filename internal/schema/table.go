// ABOUTME: Declared field-to-column tables with typed value binders per entity
// ABOUTME: Generates idempotent DDL and upsert statements from the declaration

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType is the SQL storage class of a column.
type ColumnType string

// Column types understood by the store.
const (
	TypeText    ColumnType = "TEXT"
	TypeInteger ColumnType = "INTEGER"
	TypeBoolean ColumnType = "BOOLEAN"
)

// Validation errors returned by Table.Validate.
var (
	ErrNoFields          = errors.New("table declares no fields")
	ErrBlankName         = errors.New("blank table, field or column name")
	ErrDuplicateField    = errors.New("duplicate field name")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrPrimaryKeyCount   = errors.New("table must declare exactly one primary key")
	ErrMissingBinder     = errors.New("field is missing a get or set binder")
	ErrUnknownColumnType = errors.New("unknown column type")
)

// Column is the type-independent part of a field declaration.
type Column struct {
	Field      string
	Name       string
	Type       ColumnType
	PrimaryKey bool
	NotNull    bool
}

// Field declares one column of an entity of type T.
type Field[T any] struct {
	Column

	// Get returns the column value for the entity.
	Get func(*T) (any, error)
	// Set assigns a scanned column value to the entity.
	Set func(*T, any) error
}

// Table is the declared mapping between entity T and one SQL table.
type Table[T any] struct {
	Entity string
	Name   string
	Fields []Field[T]
}

// Validate checks names, uniqueness, binders and the primary key.
func (t *Table[T]) Validate() error {
	if t.Entity == "" || t.Name == "" {
		return ErrBlankName
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("%s: %w", t.Entity, ErrNoFields)
	}

	fields := make(map[string]bool, len(t.Fields))
	columns := make(map[string]bool, len(t.Fields))
	pks := 0
	for _, f := range t.Fields {
		if f.Field == "" || f.Name == "" {
			return fmt.Errorf("%s: %w", t.Entity, ErrBlankName)
		}
		if fields[f.Field] {
			return fmt.Errorf("%s.%s: %w", t.Entity, f.Field, ErrDuplicateField)
		}
		if columns[f.Name] {
			return fmt.Errorf("%s.%s: %w", t.Entity, f.Name, ErrDuplicateColumn)
		}
		if f.Get == nil || f.Set == nil {
			return fmt.Errorf("%s.%s: %w", t.Entity, f.Field, ErrMissingBinder)
		}
		switch f.Type {
		case TypeText, TypeInteger, TypeBoolean:
		default:
			return fmt.Errorf("%s.%s %q: %w", t.Entity, f.Field, f.Type, ErrUnknownColumnType)
		}
		fields[f.Field] = true
		columns[f.Name] = true
		if f.PrimaryKey {
			pks++
		}
	}
	if pks != 1 {
		return fmt.Errorf("%s: %w", t.Entity, ErrPrimaryKeyCount)
	}
	return nil
}

// Columns returns the column declarations in order.
func (t *Table[T]) Columns() []Column {
	out := make([]Column, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Column
	}
	return out
}

// ColumnNames returns the column names in declaration order.
func (t *Table[T]) ColumnNames() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Name
	}
	return out
}

// PrimaryKey returns the primary key column.
func (t *Table[T]) PrimaryKey() Column {
	for _, f := range t.Fields {
		if f.PrimaryKey {
			return f.Column
		}
	}
	return Column{}
}

// Values extracts the column values of e in declaration order.
func (t *Table[T]) Values(e *T) ([]any, error) {
	out := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		v, err := f.Get(e)
		if err != nil {
			return nil, fmt.Errorf("reading %s.%s: %w", t.Entity, f.Field, err)
		}
		out[i] = v
	}
	return out, nil
}

// Bind assigns scanned values, in declaration order, to e.
func (t *Table[T]) Bind(e *T, values []any) error {
	if len(values) != len(t.Fields) {
		return fmt.Errorf("binding %s: got %d values for %d columns", t.Entity, len(values), len(t.Fields))
	}
	for i, f := range t.Fields {
		if err := f.Set(e, values[i]); err != nil {
			return fmt.Errorf("binding %s.%s: %w", t.Entity, f.Field, err)
		}
	}
	return nil
}

// CreateTableSQL returns an idempotent CREATE TABLE statement.
func (t *Table[T]) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for i, f := range t.Fields {
		fmt.Fprintf(&b, "\t%s %s", f.Name, f.Type)
		if f.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		} else if f.NotNull {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// SelectSQL returns a SELECT of every column with an optional WHERE clause.
func (t *Table[T]) SelectSQL(where string) string {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.ColumnNames(), ", "), t.Name)
	if where != "" {
		q += " WHERE " + where
	}
	return q
}

// UpsertSQL returns an INSERT that updates every non-key column on primary
// key conflict.
func (t *Table[T]) UpsertSQL() string {
	cols := t.ColumnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	pk := t.PrimaryKey().Name

	updates := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == pk {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s)",
		t.Name, strings.Join(cols, ", "), placeholders, pk)
	if len(updates) == 0 {
		return insert + " DO NOTHING"
	}
	return insert + " DO UPDATE SET " + strings.Join(updates, ", ")
}
