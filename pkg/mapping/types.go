package mapping

import (
	"fmt"
	"sort"
)

// EntityType names one unit of mapping, validation and import.
type EntityType string

const (
	EntityProduct  EntityType = "product"
	EntityCategory EntityType = "category"
	EntityCustomer EntityType = "customer"
	EntityOrder    EntityType = "order"
	EntityPage     EntityType = "page"
)

// EntityTypes returns every known entity type in import order. Categories come
// before products so product relationships can be resolved against them.
func EntityTypes() []EntityType {
	return []EntityType{EntityCategory, EntityProduct, EntityCustomer, EntityOrder, EntityPage}
}

// ParseEntityType converts a name into an EntityType.
func ParseEntityType(name string) (EntityType, error) {
	for _, e := range EntityTypes() {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", name)
}

// Kind is a transformation kind from the fixed vocabulary.
type Kind string

const (
	KindDirect         Kind = "direct"
	KindSlugify        Kind = "slugify"
	KindLowercase      Kind = "lowercase"
	KindMultiplyBy100  Kind = "multiply_by_100"
	KindDivisionBy100  Kind = "division_by_100"
	KindStatusMap      Kind = "status_map"
	KindNameSplit      Kind = "name_split"
	KindMediaReference Kind = "media_reference"
	KindRelationshipID Kind = "relationship_id"
	KindFlatten        Kind = "flatten"
)

var kinds = map[Kind]struct{}{
	KindDirect:         {},
	KindSlugify:        {},
	KindLowercase:      {},
	KindMultiplyBy100:  {},
	KindDivisionBy100:  {},
	KindStatusMap:      {},
	KindNameSplit:      {},
	KindMediaReference: {},
	KindRelationshipID: {},
	KindFlatten:        {},
}

// Kinds returns the vocabulary sorted by name.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether k is part of the vocabulary.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Price units accepted on multiply_by_100 rules.
const (
	UnitMajor = "major"
	UnitMinor = "minor"
)

// MappingRule maps one source field onto one destination dot-path.
type MappingRule struct {
	SourceField      string `json:"sourceField" yaml:"sourceField" validate:"required"`
	DestinationField string `json:"destinationField" yaml:"destinationField" validate:"required"`
	Kind             Kind   `json:"kind" yaml:"kind" validate:"required"`
	DefaultValue     any    `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`

	// Unit tags the source price unit for multiply_by_100. Empty falls back
	// to the integral-and-at-least-100 guess.
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// SecondaryField receives the last name for name_split.
	SecondaryField string `json:"secondaryField,omitempty" yaml:"secondaryField,omitempty"`
}

// EntityMapping holds the rules for one entity type.
type EntityMapping struct {
	DirectRules        []MappingRule `json:"directRules" yaml:"directRules"`
	MultiLanguageRules []MappingRule `json:"multiLanguageRules,omitempty" yaml:"multiLanguageRules,omitempty"`
	MultiRegionRules   []MappingRule `json:"multiRegionRules,omitempty" yaml:"multiRegionRules,omitempty"`
}

// Table is the whole mapping document.
type Table struct {
	Version   string                       `json:"version" yaml:"version"`
	Regions   []string                     `json:"regions,omitempty" yaml:"regions,omitempty"`
	Languages []string                     `json:"languages,omitempty" yaml:"languages,omitempty"`
	Entities  map[EntityType]EntityMapping `json:"entities" yaml:"entities"`
}

// Entity returns a copy of the mapping for entity. The copy keeps the table
// immutable for the rest of the run.
func (t *Table) Entity(entity EntityType) (EntityMapping, bool) {
	em, ok := t.Entities[entity]
	if !ok {
		return EntityMapping{}, false
	}
	return EntityMapping{
		DirectRules:        append([]MappingRule(nil), em.DirectRules...),
		MultiLanguageRules: append([]MappingRule(nil), em.MultiLanguageRules...),
		MultiRegionRules:   append([]MappingRule(nil), em.MultiRegionRules...),
	}, true
}

// Target is a destination system.
type Target string

const (
	TargetCommerce Target = "commerce"
	TargetContent  Target = "content"
)

// ParseTarget converts a name into a Target.
func ParseTarget(name string) (Target, error) {
	switch Target(name) {
	case TargetCommerce, TargetContent:
		return Target(name), nil
	default:
		return "", fmt.Errorf("unknown target system %q", name)
	}
}
