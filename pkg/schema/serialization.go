package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/relstore/internal/codec"
	"github.com/aretw0/relstore/pkg/domain"
)

// Format is the encoding of a schema file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath guesses the format from the file extension. Unknown extensions are
// read as YAML, which also accepts JSON documents.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// fileSchema is the on-disk layout of a schema.
type fileSchema struct {
	Name   string                    `mapstructure:"name"`
	Tables map[string]map[string]any `mapstructure:"tables"`
}

// fileField is one field entry. A bare string is shorthand for {type: <string>}.
type fileField struct {
	Type        string       `mapstructure:"type"`
	Default     any          `mapstructure:"default"`
	Constraints []Constraint `mapstructure:"constraints"`
}

// ParseFile reads a schema definition from a YAML or JSON file.
func ParseFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	def, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a schema definition. Structural errors wrap domain.ErrSchema.
func Parse(data []byte, format Format) (Definition, error) {
	var raw any
	switch format {
	case FormatJSON:
		v, err := codec.Unmarshal(data)
		if err != nil {
			return Definition{}, fmt.Errorf("%w: invalid JSON: %v", domain.ErrSchema, err)
		}
		raw = v
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Definition{}, fmt.Errorf("%w: invalid YAML: %v", domain.ErrSchema, err)
		}
	default:
		return Definition{}, fmt.Errorf("%w: unknown format %q", domain.ErrSchema, format)
	}

	var fs fileSchema
	if err := mapstructure.Decode(raw, &fs); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}

	def := Definition{
		Name:   fs.Name,
		Tables: make(map[string]TableDefinition, len(fs.Tables)),
	}
	for tableName, fields := range fs.Tables {
		td := make(TableDefinition, len(fields))
		for fieldName, rawField := range fields {
			fd, err := decodeField(rawField)
			if err != nil {
				return Definition{}, fmt.Errorf("%w: table %q field %q: %v", domain.ErrSchema, tableName, fieldName, err)
			}
			td[fieldName] = fd
		}
		def.Tables[tableName] = td
	}
	return def, nil
}

func decodeField(raw any) (FieldDefinition, error) {
	if name, ok := raw.(string); ok {
		t, err := ParseType(name)
		if err != nil {
			return FieldDefinition{}, err
		}
		return FieldDefinition{Type: t}, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return FieldDefinition{}, fmt.Errorf("expected a type name or a mapping, got %T", raw)
	}

	var ff fileField
	if err := mapstructure.Decode(m, &ff); err != nil {
		return FieldDefinition{}, err
	}

	t, err := ParseType(ff.Type)
	if err != nil {
		return FieldDefinition{}, err
	}

	fd := FieldDefinition{Type: t, Constraints: ff.Constraints}
	if _, ok := m["default"]; ok {
		fd.Default = Literal(ff.Default)
	}
	return fd, nil
}
