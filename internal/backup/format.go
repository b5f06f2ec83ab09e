// ABOUTME: Backup file formats and their encoders and decoders
// ABOUTME: JSON array, XML <profiles> document, YAML list and TOML [[profiles]] tables

package backup

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/profilevault/internal/store"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown backup format")

// Format names a backup serialisation.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatXML, FormatYAML, FormatTOML}
}

// ParseFormat resolves a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension without a dot.
func (f Format) Ext() string {
	return string(f)
}

// xmlDocument is the XML root element.
type xmlDocument struct {
	XMLName  xml.Name         `xml:"profiles"`
	Profiles []*store.Profile `xml:"profile"`
}

// tomlDocument is the TOML top level.
type tomlDocument struct {
	Profiles []*store.Profile `toml:"profiles"`
}

func encode(f Format, profiles []*store.Profile) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(profiles, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatXML:
		data, err := xml.MarshalIndent(xmlDocument{Profiles: profiles}, "", "  ")
		if err != nil {
			return nil, err
		}
		return append([]byte(xml.Header), append(data, '\n')...), nil
	case FormatYAML:
		return yaml.Marshal(profiles)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(tomlDocument{Profiles: profiles}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func decode(f Format, data []byte) ([]*store.Profile, error) {
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var profiles []*store.Profile
		if err := dec.Decode(&profiles); err != nil {
			return nil, err
		}
		return profiles, nil
	case FormatXML:
		var doc xmlDocument
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.Profiles, nil
	case FormatYAML:
		var profiles []*store.Profile
		if err := yaml.Unmarshal(data, &profiles); err != nil {
			return nil, err
		}
		return profiles, nil
	case FormatTOML:
		var doc tomlDocument
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, err
		}
		return doc.Profiles, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
