package mapping

import (
	"bytes"
	"fmt"
	"strings"
)

// RenderMarkdown renders the human-readable companion document of a table.
func RenderMarkdown(t *Table) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Field Mapping (version %s)\n\n", t.Version)
	if len(t.Regions) > 0 {
		fmt.Fprintf(&b, "Regions: %s\n\n", strings.Join(t.Regions, ", "))
	}
	if len(t.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n\n", strings.Join(t.Languages, ", "))
	}

	for _, entity := range EntityTypes() {
		em, ok := t.Entities[entity]
		if !ok {
			continue
		}

		fmt.Fprintf(&b, "## %s\n\n", entity)
		writeRuleTable(&b, "Direct rules", em.DirectRules)
		writeRuleTable(&b, "Language-specific fields", em.MultiLanguageRules)
		writeRuleTable(&b, "Region-specific fields", em.MultiRegionRules)
	}

	return b.Bytes()
}

func writeRuleTable(b *bytes.Buffer, title string, rules []MappingRule) {
	if len(rules) == 0 {
		return
	}

	fmt.Fprintf(b, "### %s\n\n", title)
	b.WriteString("| Source | Destination | Kind | Default | Notes |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range rules {
		def := ""
		if r.DefaultValue != nil {
			def = fmt.Sprintf("`%v`", r.DefaultValue)
		}

		var notes []string
		if r.Unit != "" {
			notes = append(notes, "unit: "+r.Unit)
		}
		if r.SecondaryField != "" {
			notes = append(notes, "last name: `"+r.SecondaryField+"`")
		}

		fmt.Fprintf(b, "| `%s` | `%s` | %s | %s | %s |\n",
			r.SourceField, r.DestinationField, r.Kind, def, strings.Join(notes, ", "))
	}
	b.WriteString("\n")
}
