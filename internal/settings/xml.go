// ABOUTME: XML encoding for settings maps as typed, nested entry elements
// ABOUTME: Preserves nesting and leaf types so XML backups round-trip exactly

package settings

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
)

const (
	xmlEntry = "entry"

	typeMap    = "map"
	typeString = "string"
	typeBool   = "bool"
	typeInt    = "int"
	typeFloat  = "float"
)

// MarshalXML writes m as nested <entry key=".." type=".."> elements in key
// order.
func (m Map) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := writeEntries(e, m); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

func writeEntries(e *xml.Encoder, m Map) error {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		v := m[k]
		if sub, ok := asMap(v); ok {
			el := entryElement(k, typeMap)
			if err := e.EncodeToken(el); err != nil {
				return err
			}
			if err := writeEntries(e, sub); err != nil {
				return err
			}
			if err := e.EncodeToken(el.End()); err != nil {
				return err
			}
			continue
		}

		typ, text, err := encodeLeaf(canonicalValue(v))
		if err != nil {
			return fmt.Errorf("settings key %q: %w", k, err)
		}
		if err := e.EncodeElement(text, entryElement(k, typ)); err != nil {
			return err
		}
	}
	return nil
}

func entryElement(key, typ string) xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: xmlEntry},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "key"}, Value: key},
			{Name: xml.Name{Local: "type"}, Value: typ},
		},
	}
}

func encodeLeaf(v any) (string, string, error) {
	switch t := v.(type) {
	case string:
		return typeString, t, nil
	case bool:
		return typeBool, strconv.FormatBool(t), nil
	case int:
		return typeInt, strconv.Itoa(t), nil
	case float64:
		return typeFloat, strconv.FormatFloat(t, 'g', -1, 64), nil
	default:
		return "", "", fmt.Errorf("unsupported value type %T", v)
	}
}

// UnmarshalXML reads nested entry elements written by MarshalXML.
func (m *Map) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	out, err := readEntries(d)
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// readEntries consumes entries until the end of the enclosing element.
func readEntries(d *xml.Decoder) (Map, error) {
	out := Map{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != xmlEntry {
				if err := d.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			key, typ := attr(t, "key"), attr(t, "type")
			if typ == typeMap {
				sub, err := readEntries(d)
				if err != nil {
					return nil, err
				}
				out[key] = sub
				continue
			}
			v, err := readLeaf(d, typ)
			if err != nil {
				return nil, fmt.Errorf("settings key %q: %w", key, err)
			}
			out[key] = v
		case xml.EndElement:
			return out, nil
		}
	}
}

func readLeaf(d *xml.Decoder, typ string) (any, error) {
	var text []byte
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text = append(text, t...)
		case xml.StartElement:
			return nil, fmt.Errorf("unexpected element <%s> in leaf", t.Name.Local)
		case xml.EndElement:
			return decodeLeaf(typ, string(text))
		}
	}
}

func decodeLeaf(typ, text string) (any, error) {
	switch typ {
	case typeString, "":
		return text, nil
	case typeBool:
		return strconv.ParseBool(text)
	case typeInt:
		return strconv.Atoi(text)
	case typeFloat:
		return strconv.ParseFloat(text, 64)
	default:
		return nil, fmt.Errorf("unknown entry type %q", typ)
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
