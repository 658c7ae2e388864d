package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// Format types understood by FormatRule
const (
	FormatEmail   = "email"
	FormatURL     = "url"
	FormatSlug    = "slug"
	FormatPhone   = "phone"
	FormatNumeric = "numeric"
	FormatBoolean = "boolean"
	FormatEnum    = "enum"
	FormatObject  = "object"
	FormatArray   = "array"
)

// Relationship types
const (
	RelReference  = "reference"
	RelReferences = "references"
)

// FormatRule describes the shape of one field
type FormatRule struct {
	Type    string      `json:"type" yaml:"type"`
	Values  []string    `json:"values,omitempty" yaml:"values,omitempty"`
	Min     *float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64    `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string      `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Fields  []string    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Items   *FormatRule `json:"items,omitempty" yaml:"items,omitempty"`

	re *regexp.Regexp
}

// Relationship declares that a field holds ids of another entity
type Relationship struct {
	Type   string             `json:"type" yaml:"type"`
	Target mapping.EntityType `json:"target" yaml:"target"`
}

// EntityRules holds the checks for one entity type
type EntityRules struct {
	RequiredFields []string                `json:"required_fields" yaml:"required_fields"`
	Formats        map[string]FormatRule   `json:"formats,omitempty" yaml:"formats,omitempty"`
	Relationships  map[string]Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// RuleSet is the content of the validation rules file
type RuleSet struct {
	Entities map[mapping.EntityType]EntityRules `json:"entities" yaml:"entities"`
	// Locales lists the languages each region must be published in
	Locales map[string][]string `json:"locales,omitempty" yaml:"locales,omitempty"`
}

// For returns the rules of an entity; unknown entities have no rules
func (rs *RuleSet) For(entity mapping.EntityType) EntityRules {
	if rs == nil {
		return EntityRules{}
	}
	return rs.Entities[entity]
}

// LoadRules reads a rule set from a JSON or YAML file
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	rs, err := ParseRules(data, mapping.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes a rule set and compiles its patterns
func ParseRules(data []byte, format mapping.Format) (*RuleSet, error) {
	var rs RuleSet
	var err error
	if format == mapping.FormatYAML {
		err = yaml.Unmarshal(data, &rs)
	} else {
		err = json.Unmarshal(data, &rs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules %s: %w", format, err)
	}

	if rs.Entities == nil {
		rs.Entities = make(map[mapping.EntityType]EntityRules)
	}
	for entity, er := range rs.Entities {
		if _, err := mapping.ParseEntityType(string(entity)); err != nil {
			return nil, err
		}
		for field, f := range er.Formats {
			if err := compile(&f); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", entity, field, err)
			}
			er.Formats[field] = f
		}
		for field, rel := range er.Relationships {
			if rel.Type != RelReference && rel.Type != RelReferences {
				return nil, fmt.Errorf("%s.%s: relationship type must be %q or %q", entity, field, RelReference, RelReferences)
			}
			if _, err := mapping.ParseEntityType(string(rel.Target)); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", entity, field, err)
			}
		}
	}
	return &rs, nil
}

func compile(f *FormatRule) error {
	switch f.Type {
	case FormatEmail, FormatURL, FormatSlug, FormatPhone, FormatNumeric, FormatBoolean, FormatEnum, FormatObject, FormatArray, "":
	default:
		return fmt.Errorf("unknown format type %q", f.Type)
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		f.re = re
	}
	if f.Items != nil {
		return compile(f.Items)
	}
	return nil
}
