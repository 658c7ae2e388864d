package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a mapping file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension; anything that is not
// .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile loads, parses and validates a mapping table from the given path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	t, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("mapping file %s: %w", path, err)
	}

	return t, nil
}

// Parse decodes a mapping table without validating it.
func Parse(data []byte, format Format) (*Table, error) {
	var t Table

	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &t)
	} else {
		err = json.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping %s: %w", format, err)
	}

	applyDefaults(&t)
	return &t, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(t *Table) {
	if t.Version == "" {
		t.Version = "1"
	}
	if t.Entities == nil {
		t.Entities = make(map[EntityType]EntityMapping)
	}

	for entity, em := range t.Entities {
		for _, rules := range [][]MappingRule{em.DirectRules, em.MultiLanguageRules, em.MultiRegionRules} {
			for i := range rules {
				if rules[i].Kind == "" {
					rules[i].Kind = KindDirect
				}
				if rules[i].DestinationField == "" {
					rules[i].DestinationField = rules[i].SourceField
				}
			}
		}
		t.Entities[entity] = em
	}
}

// Marshal serializes a table in the given format.
func Marshal(t *Table, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(t)
	}
	return json.MarshalIndent(t, "", "  ")
}

// WriteFile writes a table to the given path, picking the format from the extension.
func WriteFile(t *Table, path string) error {
	data, err := Marshal(t, FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}
