package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

func main() {
	mappingPath := flag.String("mapping", "field-mapping.json", "Path to the field mapping table")
	entity := flag.String("entity", "", "Entity type of the rule (required)")
	sourceField := flag.String("source", "", "Source field the rule reads (required)")
	destination := flag.String("destination", "", "Destination field path")
	kind := flag.String("kind", "", "Transformation kind")
	defaultValue := flag.String("default", "", "Default value, parsed as JSON when possible; null clears it")
	clearDefault := flag.Bool("clear-default", false, "Remove the default value")
	unit := flag.String("unit", "", "Price unit for multiply_by_100: major or minor")
	secondary := flag.String("secondary", "", "Last name field for name_split")
	docs := flag.String("docs", "", "Also write the mapping table as Markdown to this path")
	help := flag.Bool("help", false, "Display help information")
	flag.Parse()

	if *help {
		displayUsage()
		os.Exit(0)
	}

	log := logger.New()

	if *entity == "" || *sourceField == "" {
		displayUsage()
		os.Exit(1)
	}

	table, err := mapping.LoadFile(*mappingPath)
	if err != nil {
		log.Fatalf("Failed to load mapping table: %v", err)
	}

	var patch mapping.RulePatch
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "destination":
			patch.DestinationField = destination
		case "kind":
			k := mapping.Kind(*kind)
			patch.Kind = &k
		case "default":
			patch.DefaultValue = parseDefault(*defaultValue)
			patch.ClearDefault = patch.ClearDefault || patch.DefaultValue == nil
		case "clear-default":
			patch.ClearDefault = *clearDefault
		case "unit":
			patch.Unit = unit
		case "secondary":
			patch.SecondaryField = secondary
		}
	})

	created, err := table.Patch(mapping.EntityType(*entity), *sourceField, patch)
	if err != nil {
		log.Fatalf("Failed to update rule: %v", err)
	}

	if err := mapping.WriteFile(table, *mappingPath); err != nil {
		log.Fatalf("Failed to write mapping table: %v", err)
	}

	action := "Updated"
	if created {
		action = "Added"
	}
	log.WithEntity(*entity).Infof("%s rule for %s in %s", action, *sourceField, *mappingPath)

	if *docs != "" {
		if err := os.WriteFile(*docs, mapping.RenderMarkdown(table), 0644); err != nil {
			log.Fatalf("Failed to write mapping documentation: %v", err)
		}
		log.Infof("Mapping documentation written to %s", *docs)
	}
}

// parseDefault keeps numbers, booleans and objects typed; anything that is not
// JSON is taken as a plain string. "null" yields nil.
func parseDefault(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// displayUsage displays usage information
func displayUsage() {
	fmt.Println("\nField Mapping Editor")
	fmt.Println("====================")
	fmt.Println("Usage: update-mapping -entity=<entity> -source=<field> [options]")
	fmt.Println("Options:")
	fmt.Println("  -mapping string")
	fmt.Println("        Path to the field mapping table (default \"field-mapping.json\")")
	fmt.Println("  -entity string")
	fmt.Println("        product, category, customer, order or page")
	fmt.Println("  -source string")
	fmt.Println("        Source field the rule reads")
	fmt.Println("  -destination string")
	fmt.Println("        Destination field path; required when adding a rule")
	fmt.Println("  -kind string")
	fmt.Println("        Transformation kind, e.g. slugify or multiply_by_100")
	fmt.Println("  -default string")
	fmt.Println("        Default value used when the source field is missing; null clears it")
	fmt.Println("  -clear-default")
	fmt.Println("        Remove the default value")
	fmt.Println("  -unit string")
	fmt.Println("        Price unit for multiply_by_100: major or minor")
	fmt.Println("  -secondary string")
	fmt.Println("        Last name field for name_split")
	fmt.Println("  -docs string")
	fmt.Println("        Write the mapping table as Markdown to this path")
	fmt.Println("  -help")
	fmt.Println("        Display this help information")
	fmt.Println("Examples:")
	fmt.Println("  update-mapping -entity=product -source=price -kind=multiply_by_100 -unit=major")
	fmt.Println("  update-mapping -entity=page -source=body -destination=content -docs=docs/field-mapping.md")
}
