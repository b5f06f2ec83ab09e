// ABOUTME: Tests for declared tables and the descriptor registry
// ABOUTME: Covers validation, SQL generation, value binding and column fallback

package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    string
	Label string
	Count int64
	On    bool
}

func widgetTable() *Table[widget] {
	return &Table[widget]{
		Entity: "widget",
		Name:   "widgets",
		Fields: []Field[widget]{
			{
				Column: Column{Field: "ID", Name: "id", Type: TypeText, PrimaryKey: true},
				Get:    func(w *widget) (any, error) { return w.ID, nil },
				Set: func(w *widget, v any) error {
					s, ok := v.(string)
					if !ok {
						return fmt.Errorf("want string, got %T", v)
					}
					w.ID = s
					return nil
				},
			},
			{
				Column: Column{Field: "Label", Name: "label_text", Type: TypeText, NotNull: true},
				Get:    func(w *widget) (any, error) { return w.Label, nil },
				Set:    func(w *widget, v any) error { w.Label, _ = v.(string); return nil },
			},
			{
				Column: Column{Field: "Count", Name: "count", Type: TypeInteger},
				Get:    func(w *widget) (any, error) { return w.Count, nil },
				Set:    func(w *widget, v any) error { w.Count, _ = v.(int64); return nil },
			},
			{
				Column: Column{Field: "On", Name: "is_on", Type: TypeBoolean},
				Get:    func(w *widget) (any, error) { return w.On, nil },
				Set:    func(w *widget, v any) error { w.On, _ = v.(bool); return nil },
			},
		},
	}
}

func TestTable_Validate(t *testing.T) {
	require.NoError(t, widgetTable().Validate())

	tests := []struct {
		name   string
		mutate func(*Table[widget])
		want   error
	}{
		{"blank table name", func(tb *Table[widget]) { tb.Name = "" }, ErrBlankName},
		{"no fields", func(tb *Table[widget]) { tb.Fields = nil }, ErrNoFields},
		{"blank column", func(tb *Table[widget]) { tb.Fields[1].Name = "" }, ErrBlankName},
		{"duplicate field", func(tb *Table[widget]) { tb.Fields[2].Field = "Label" }, ErrDuplicateField},
		{"duplicate column", func(tb *Table[widget]) { tb.Fields[2].Name = "label_text" }, ErrDuplicateColumn},
		{"missing binder", func(tb *Table[widget]) { tb.Fields[3].Set = nil }, ErrMissingBinder},
		{"bad type", func(tb *Table[widget]) { tb.Fields[3].Type = "BLOB" }, ErrUnknownColumnType},
		{"no primary key", func(tb *Table[widget]) { tb.Fields[0].PrimaryKey = false }, ErrPrimaryKeyCount},
		{"two primary keys", func(tb *Table[widget]) { tb.Fields[1].PrimaryKey = true }, ErrPrimaryKeyCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := widgetTable()
			tt.mutate(tb)
			assert.ErrorIs(t, tb.Validate(), tt.want)
		})
	}
}

func TestTable_SQL(t *testing.T) {
	tb := widgetTable()

	ddl := tb.CreateTableSQL()
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS widgets (")
	assert.Contains(t, ddl, "id TEXT PRIMARY KEY,")
	assert.Contains(t, ddl, "label_text TEXT NOT NULL,")
	assert.Contains(t, ddl, "is_on BOOLEAN\n)")

	assert.Equal(t, "SELECT id, label_text, count, is_on FROM widgets WHERE id = ?", tb.SelectSQL("id = ?"))
	assert.Equal(t, "SELECT id, label_text, count, is_on FROM widgets", tb.SelectSQL(""))

	assert.Equal(t,
		"INSERT INTO widgets (id, label_text, count, is_on) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET "+
			"label_text = excluded.label_text, count = excluded.count, is_on = excluded.is_on",
		tb.UpsertSQL())
}

func TestTable_UpsertSQL_KeyOnly(t *testing.T) {
	tb := widgetTable()
	tb.Fields = tb.Fields[:1]
	assert.Equal(t, "INSERT INTO widgets (id) VALUES (?) ON CONFLICT(id) DO NOTHING", tb.UpsertSQL())
}

func TestTable_ValuesAndBind(t *testing.T) {
	tb := widgetTable()
	in := widget{ID: "w1", Label: "dial", Count: 3, On: true}

	values, err := tb.Values(&in)
	require.NoError(t, err)
	assert.Equal(t, []any{"w1", "dial", int64(3), true}, values)

	var out widget
	require.NoError(t, tb.Bind(&out, values))
	assert.Equal(t, in, out)

	assert.Error(t, tb.Bind(&out, values[:2]))
	assert.Error(t, tb.Bind(&out, []any{42, "x", int64(1), false}))
}

func TestTable_ValuesPropagatesGetterError(t *testing.T) {
	tb := widgetTable()
	boom := errors.New("boom")
	tb.Fields[2].Get = func(*widget) (any, error) { return nil, boom }

	_, err := tb.Values(&widget{})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ColumnNameFor(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, Register(r, widgetTable()))

	assert.Equal(t, "label_text", r.ColumnNameFor("widget", "Label"))
	assert.Equal(t, "is_on", r.ColumnNameFor("widget", "On"))

	// Fallbacks never fail.
	assert.Equal(t, "Missing", r.ColumnNameFor("widget", "Missing"))
	assert.Equal(t, "Label", r.ColumnNameFor("gadget", "Label"))
}

func TestRegistry_RegisterOnce(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, Register(r, widgetTable()))
	assert.ErrorIs(t, Register(r, widgetTable()), ErrAlreadyRegistered)
	assert.Equal(t, []string{"widget"}, r.Entities())
}

func TestRegistry_InvalidTableStaysUnregistered(t *testing.T) {
	r := NewRegistry(nil)
	tb := widgetTable()
	tb.Fields[0].PrimaryKey = false

	assert.ErrorIs(t, Register(r, tb), ErrPrimaryKeyCount)
	assert.Empty(t, r.Entities())
	assert.Nil(t, r.Columns("widget"))
	assert.Panics(t, func() { MustRegister(r, tb) })
}

func TestRegistry_DescriptorIsCopy(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, Register(r, widgetTable()))

	d, ok := r.Descriptor("widget")
	require.True(t, ok)
	assert.Equal(t, "widgets", d.Table)
	d.Columns[0].Name = "mutated"

	assert.Equal(t, "id", r.Columns("widget")[0].Name)
}
