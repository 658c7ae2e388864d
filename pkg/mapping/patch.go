package mapping

import "fmt"

// RulePatch lists the rule attributes to overwrite. Nil fields are left alone.
type RulePatch struct {
	DestinationField *string
	Kind             *Kind
	DefaultValue     any
	// ClearDefault removes the default value; it wins over DefaultValue
	ClearDefault     bool
	Unit             *string
	SecondaryField   *string
}

// Patch updates the direct rule reading sourceField on entity, or appends a new
// rule when none exists and the patch names a destination. It reports whether a
// rule was created.
func (t *Table) Patch(entity EntityType, sourceField string, patch RulePatch) (bool, error) {
	if _, err := ParseEntityType(string(entity)); err != nil {
		return false, err
	}
	if sourceField == "" {
		return false, fmt.Errorf("source field is required")
	}

	em := t.Entities[entity]
	em.DirectRules = append([]MappingRule(nil), em.DirectRules...)
	idx := -1
	for i, r := range em.DirectRules {
		if r.SourceField == sourceField {
			idx = i
			break
		}
	}

	created := false
	if idx < 0 {
		if patch.DestinationField == nil {
			return false, fmt.Errorf("no %s rule reads %q; a destination field is required to add one", entity, sourceField)
		}
		em.DirectRules = append(em.DirectRules, MappingRule{SourceField: sourceField, Kind: KindDirect})
		idx = len(em.DirectRules) - 1
		created = true
	}

	r := &em.DirectRules[idx]
	if patch.DestinationField != nil {
		r.DestinationField = *patch.DestinationField
	}
	if patch.Kind != nil {
		r.Kind = *patch.Kind
	}
	if patch.ClearDefault {
		r.DefaultValue = nil
	} else if patch.DefaultValue != nil {
		r.DefaultValue = patch.DefaultValue
	}
	if patch.Unit != nil {
		r.Unit = *patch.Unit
	}
	if patch.SecondaryField != nil {
		r.SecondaryField = *patch.SecondaryField
	}

	if problems := validateRule(*r); len(problems) > 0 {
		return false, &ValidationError{Problems: problems}
	}

	if t.Entities == nil {
		t.Entities = make(map[EntityType]EntityMapping)
	}
	t.Entities[entity] = em
	return created, nil
}
