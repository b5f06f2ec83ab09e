// ABOUTME: Numeric coercion and canonical-form conversion for settings trees
// ABOUTME: Normalize turns numeric strings and floats into ints, in place and recursively

package settings

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Policy controls how Normalize treats fractional values.
type Policy struct {
	// KeepFractions leaves fractional floats and fractional numeric strings
	// untouched instead of truncating them toward zero.
	KeepFractions bool
}

// Normalize applies the default policy, which truncates fractions.
func Normalize(m Map) {
	NormalizeWith(m, Policy{})
}

// NormalizeWith walks m in place and coerces every numeric-looking string and
// every float to int. Other integer widths become int as well.
func NormalizeWith(m Map, p Policy) {
	for k, v := range m {
		if sub, ok := asMap(v); ok {
			NormalizeWith(sub, p)
			m[k] = sub
			continue
		}
		m[k] = coerce(v, p)
	}
}

func coerce(v any, p Policy) any {
	switch t := v.(type) {
	case string:
		if n, ok := parseNumeric(t, p); ok {
			return n
		}
		return t
	case float64:
		return floatToInt(t, p)
	case float32:
		return floatToInt(float64(t), p)
	case json.Number:
		if n, ok := parseNumeric(t.String(), p); ok {
			return n
		}
		return canonicalValue(t)
	default:
		if n, ok := toInt(v); ok {
			return n
		}
		return v
	}
}

// parseNumeric parses integer or finite float syntax. Fractional values are
// truncated unless the policy keeps them, in which case they are rejected
// and the string is kept as-is.
func parseNumeric(s string, p Policy) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	if p.KeepFractions && f != math.Trunc(f) {
		return nil, false
	}
	if !fitsInt(f) {
		slog.Debug("numeric setting out of int range, left as-is", "value", s)
		return nil, false
	}
	return int(f), true
}

func floatToInt(f float64, p Policy) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	if p.KeepFractions && f != math.Trunc(f) {
		return f
	}
	if !fitsInt(f) {
		slog.Debug("numeric setting out of int range, left as-is", "value", f)
		return f
	}
	return int(f)
}

// fitsInt reports whether f truncates to a value int can hold.
func fitsInt(f float64) bool {
	return f >= math.MinInt && f < math.MaxInt
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint8:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case uint64:
		if t > math.MaxInt {
			return 0, false
		}
		return int(t), true
	case uint:
		if t > math.MaxInt {
			return 0, false
		}
		return int(t), true
	default:
		return 0, false
	}
}

// Canonicalize converts decoder output into canonical form without touching
// strings: nested maps become Map, integer widths become int, json.Number
// becomes int or float64, float64 values are kept and float32 widens.
// A nil input yields an empty Map.
func Canonicalize(v map[string]any) Map {
	out := make(Map, len(v))
	for k, val := range v {
		out[k] = canonicalValue(val)
	}
	return out
}

func canonicalValue(v any) any {
	switch t := v.(type) {
	case Map:
		return Canonicalize(t)
	case map[string]any:
		return Canonicalize(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float32:
		return float64(t)
	default:
		if n, ok := toInt(v); ok {
			return n
		}
		return v
	}
}
