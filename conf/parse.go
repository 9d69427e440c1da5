package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatTOML  Format = "toml"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// Parse turns a serialized policy document into the generic tree consumed by
// the engine. Mapping order in the source is preserved.
func Parse(data []byte, format Format) (*Map, error) {
	switch format {
	case FormatTOML:
		return parseTOML(data)
	case FormatYAML, FormatJSON:
		// JSON is a YAML subset, both go through the same node walk.
		return parseYAML(data)
	case FormatJSONC:
		return parseJSONC(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ParseFile reads and parses path, inferring the format from the extension.
func ParseFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if format == "yml" {
		format = FormatYAML
	}
	return Parse(data, format)
}
