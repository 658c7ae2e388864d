package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownKind is returned for rules whose kind is not in the vocabulary.
var ErrUnknownKind = errors.New("unknown transformation kind")

// ValidationError aggregates every problem found in a table.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid mapping table (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Is lets errors.Is match ErrUnknownKind when any rule has an unknown kind.
func (e *ValidationError) Is(target error) bool {
	if target != ErrUnknownKind {
		return false
	}
	for _, p := range e.Problems {
		if strings.Contains(p, ErrUnknownKind.Error()) {
			return true
		}
	}
	return false
}

var ruleValidator = validator.New()

// Validate checks every rule of every entity. Unknown kinds are rejected here
// so they never reach the transformer.
func (t *Table) Validate() error {
	var problems []string

	entities := make([]string, 0, len(t.Entities))
	for e := range t.Entities {
		entities = append(entities, string(e))
	}
	sort.Strings(entities)

	for _, name := range entities {
		entity := EntityType(name)
		if _, err := ParseEntityType(name); err != nil {
			problems = append(problems, err.Error())
			continue
		}

		em := t.Entities[entity]
		groups := []struct {
			name  string
			rules []MappingRule
		}{
			{"directRules", em.DirectRules},
			{"multiLanguageRules", em.MultiLanguageRules},
			{"multiRegionRules", em.MultiRegionRules},
		}
		for _, g := range groups {
			for i, r := range g.rules {
				for _, p := range validateRule(r) {
					problems = append(problems, fmt.Sprintf("%s.%s[%d]: %s", entity, g.name, i, p))
				}
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateRule(r MappingRule) []string {
	var problems []string

	if err := ruleValidator.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
			}
		}
	}

	if r.Kind != "" && !r.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("%s %q", ErrUnknownKind, r.Kind))
	}

	if r.DestinationField != "" {
		if _, err := ParsePath(r.DestinationField); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if r.SecondaryField != "" {
		if _, err := ParsePath(r.SecondaryField); err != nil {
			problems = append(problems, err.Error())
		}
	}

	switch r.Unit {
	case "", UnitMajor, UnitMinor:
	default:
		problems = append(problems, fmt.Sprintf("unit must be %q or %q, got %q", UnitMajor, UnitMinor, r.Unit))
	}

	return problems
}

// UntaggedPriceRules lists the multiply_by_100 rules that carry no unit and so
// fall back to guessing whether a value is already in minor units.
func (t *Table) UntaggedPriceRules() []string {
	var out []string
	for _, entity := range EntityTypes() {
		em, ok := t.Entities[entity]
		if !ok {
			continue
		}
		for _, r := range em.DirectRules {
			if r.Kind == KindMultiplyBy100 && r.Unit == "" {
				out = append(out, fmt.Sprintf("%s.%s", entity, r.SourceField))
			}
		}
	}
	return out
}
