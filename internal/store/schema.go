// ABOUTME: Declared per-variant profile tables and their column binders
// ABOUTME: Variant b stores a reduced column set; all variants share one entity type

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/schema"
	"github.com/2389/profilevault/internal/settings"
)

// Profile column names.
const (
	colID           = "id"
	colName         = "name"
	colMembership   = "membership_status"
	colMode         = "mode"
	colPlaystyle    = "playstyle"
	colAutoProfiler = "autoprofiler"
	colSettings     = "settings_map"
	colNotes        = "notes"
	colLastUpdated  = "last_updated"
)

// variantColumns lists the columns each variant persists. Variants not
// listed here persist every column.
var variantColumns = map[keys.Variant][]string{
	keys.VariantB: {colID, colName, colMembership, colMode, colSettings, colNotes, colLastUpdated},
}

// profileFields is the full ordered column set.
func profileFields() []schema.Field[Profile] {
	return []schema.Field[Profile]{
		{
			Column: schema.Column{Field: "ID", Name: colID, Type: schema.TypeText, PrimaryKey: true},
			Get:    func(p *Profile) (any, error) { return p.ID, nil },
			Set:    func(p *Profile, v any) (err error) { p.ID, err = asString(v); return },
		},
		{
			Column: schema.Column{Field: "Name", Name: colName, Type: schema.TypeText, NotNull: true},
			Get:    func(p *Profile) (any, error) { return p.Name, nil },
			Set:    func(p *Profile, v any) (err error) { p.Name, err = asString(v); return },
		},
		{
			Column: schema.Column{Field: "Membership", Name: colMembership, Type: schema.TypeBoolean},
			Get:    func(p *Profile) (any, error) { return p.Membership, nil },
			Set:    func(p *Profile, v any) (err error) { p.Membership, err = asBool(v); return },
		},
		{
			Column: schema.Column{Field: "Mode", Name: colMode, Type: schema.TypeText},
			Get:    func(p *Profile) (any, error) { return p.Mode, nil },
			Set:    func(p *Profile, v any) (err error) { p.Mode, err = asString(v); return },
		},
		{
			Column: schema.Column{Field: "Playstyle", Name: colPlaystyle, Type: schema.TypeText},
			Get:    func(p *Profile) (any, error) { return p.Playstyle, nil },
			Set:    func(p *Profile, v any) (err error) { p.Playstyle, err = asString(v); return },
		},
		{
			Column: schema.Column{Field: "AutoProfiler", Name: colAutoProfiler, Type: schema.TypeBoolean},
			Get:    func(p *Profile) (any, error) { return p.AutoProfiler, nil },
			Set:    func(p *Profile, v any) (err error) { p.AutoProfiler, err = asBool(v); return },
		},
		{
			Column: schema.Column{Field: "Settings", Name: colSettings, Type: schema.TypeText, NotNull: true},
			Get:    func(p *Profile) (any, error) { return encodeSettings(p.Settings) },
			Set: func(p *Profile, v any) error {
				s, err := asString(v)
				if err != nil {
					return err
				}
				p.Settings, err = decodeSettings(s)
				return err
			},
		},
		{
			Column: schema.Column{Field: "Notes", Name: colNotes, Type: schema.TypeText},
			Get:    func(p *Profile) (any, error) { return p.Notes, nil },
			Set:    func(p *Profile, v any) (err error) { p.Notes, err = asString(v); return },
		},
		{
			Column: schema.Column{Field: "LastUpdated", Name: colLastUpdated, Type: schema.TypeInteger, NotNull: true},
			Get:    func(p *Profile) (any, error) { return p.LastUpdated, nil },
			Set:    func(p *Profile, v any) (err error) { p.LastUpdated, err = asInt64(v); return },
		},
	}
}

// EntityName returns the schema entity name of a variant's profile table.
func EntityName(v keys.Variant) string {
	return "profile." + v.Tag()
}

// TableName returns the SQL table holding profiles of variant v.
func TableName(v keys.Variant) string {
	return v.Tag() + "_profiles"
}

// ProfileTable declares the table for variant v.
func ProfileTable(v keys.Variant) *schema.Table[Profile] {
	fields := profileFields()
	if cols, ok := variantColumns[v]; ok {
		keep := make(map[string]bool, len(cols))
		for _, c := range cols {
			keep[c] = true
		}
		filtered := fields[:0]
		for _, f := range fields {
			if keep[f.Name] {
				filtered = append(filtered, f)
			}
		}
		fields = filtered
	}
	return &schema.Table[Profile]{
		Entity: EntityName(v),
		Name:   TableName(v),
		Fields: fields,
	}
}

var (
	tablesOnce sync.Once
	tables     map[keys.Variant]*schema.Table[Profile]
)

// profileTables returns the declared tables of every known variant,
// registering them with the default schema registry on first use.
func profileTables() map[keys.Variant]*schema.Table[Profile] {
	tablesOnce.Do(func() {
		tables = make(map[keys.Variant]*schema.Table[Profile])
		for _, v := range keys.Known() {
			t := ProfileTable(v)
			if err := schema.Register(schema.Default, t); err != nil {
				continue
			}
			tables[v] = t
		}
	})
	return tables
}

func encodeSettings(m settings.Map) (string, error) {
	data, err := json.Marshal(settings.FlattenStrict(m, settings.DefaultDelimiter))
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	return string(data), nil
}

func decodeSettings(s string) (settings.Map, error) {
	if s == "" {
		return settings.Map{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var flat map[string]any
	if err := dec.Decode(&flat); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return settings.UnflattenStrict(settings.Canonicalize(flat), settings.DefaultDelimiter), nil
}

// unpersistedFields names the non-zero fields of p that table has no
// column for.
func unpersistedFields(table *schema.Table[Profile], p *Profile) []string {
	has := make(map[string]bool)
	for _, name := range table.ColumnNames() {
		has[name] = true
	}

	var lost []string
	if !has[colPlaystyle] && p.Playstyle != "" {
		lost = append(lost, colPlaystyle)
	}
	if !has[colAutoProfiler] && p.AutoProfiler {
		lost = append(lost, colAutoProfiler)
	}
	return lost
}

func asString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		return "", fmt.Errorf("want text, got %T", v)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func asBool(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case []byte:
		return strconv.ParseBool(string(t))
	case string:
		return strconv.ParseBool(t)
	default:
		return false, fmt.Errorf("want boolean, got %T", v)
	}
}
