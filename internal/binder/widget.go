// ABOUTME: Widget contract and per-kind value extractors
// ABOUTME: Converts raw widget values into canonical settings leaves

package binder

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnsupportedValue is returned when an extractor cannot convert a
// widget value.
var ErrUnsupportedValue = errors.New("unsupported widget value")

// ErrNoExtractor is returned when no extractor exists for a widget kind.
var ErrNoExtractor = errors.New("no extractor for widget kind")

// Kind names a widget type.
type Kind string

// Widget kinds.
const (
	KindText     Kind = "text"
	KindCheckbox Kind = "checkbox"
	KindSpinner  Kind = "spinner"
	KindCombo    Kind = "combo"
	KindSlider   Kind = "slider"
)

// Widget is an interactive component whose value is bound to a setting.
type Widget interface {
	Kind() Kind
	Value() any
	SetValue(v any)
	// OnFocusLost registers fn to run when the widget loses focus.
	OnFocusLost(fn func())
}

// Extractor converts a raw widget value into a settings leaf.
type Extractor func(raw any) (any, error)

// DefaultExtractors returns a fresh copy of the built-in extractors.
func DefaultExtractors() map[Kind]Extractor {
	return map[Kind]Extractor{
		KindText:     extractText,
		KindCheckbox: extractBool,
		KindSpinner:  extractInt,
		KindCombo:    extractChoice,
		KindSlider:   extractInt,
	}
}

func extractText(raw any) (any, error) {
	s, err := asText(raw)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s), nil
}

// extractChoice keeps the selection verbatim; no selection is "".
func extractChoice(raw any) (any, error) {
	if raw == nil {
		return "", nil
	}
	return asText(raw)
}

func asText(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: %T as text", ErrUnsupportedValue, raw)
	}
}

func extractBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %q as bool", ErrUnsupportedValue, v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %T as bool", ErrUnsupportedValue, raw)
	}
}

func extractInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return nil, fmt.Errorf("%w: %q as integer", ErrUnsupportedValue, v)
	default:
		return nil, fmt.Errorf("%w: %T as integer", ErrUnsupportedValue, raw)
	}
}

func floatToInt(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v as integer", ErrUnsupportedValue, f)
	}
	if f < math.MinInt || f >= math.MaxInt {
		return nil, fmt.Errorf("%w: %v out of integer range", ErrUnsupportedValue, f)
	}
	return int(f), nil
}
