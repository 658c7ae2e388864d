package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gsbingo17/cms-to-commerce/pkg/config"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
	"github.com/gsbingo17/cms-to-commerce/pkg/migration"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file (JSON or YAML)")
	mappingPath := flag.String("mapping", "", "Path to the field mapping table")
	rulesPath := flag.String("rules", "", "Path to the validation rules")
	inputDir := flag.String("input", "", "Directory holding the extracted source files")
	outputDir := flag.String("output", "", "Directory for exports and reports")
	entities := flag.String("entity", "", "Comma separated entity types to migrate, or \"all\"")
	targets := flag.String("target", "", "Target system: commerce, content or all")
	regions := flag.String("region", "", "Comma separated region codes to expand")
	languages := flag.String("language", "", "Comma separated language codes to expand")
	dryRun := flag.Bool("dry-run", false, "Transform and validate without calling the destination APIs")
	strict := flag.Bool("strict", false, "Abort before importing when any record fails validation")
	validateOnly := flag.Bool("validate-only", false, "Stop after validation and export")
	skipValidation := flag.Bool("skip-validation", false, "Import without validating")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	help := flag.Bool("help", false, "Display help information")
	flag.Parse()

	// Display help if requested
	if *help {
		displayUsage()
		os.Exit(0)
	}

	// Create logger
	log := logger.New()

	// Tokens usually live in .env next to the config
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.SetFormat(cfg.Logging.Format)
	log.SetLevel(cfg.Logging.Level)
	if *logLevel != "" {
		log.SetLevel(*logLevel)
	}

	if *mappingPath != "" {
		cfg.MappingPath = *mappingPath
	}
	if *rulesPath != "" {
		cfg.RulesPath = *rulesPath
	}
	if *inputDir != "" {
		cfg.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	switch *entities {
	case "":
	case "all":
		cfg.Entities = entityNames()
	default:
		cfg.Entities = config.SplitList(*entities)
	}
	switch *targets {
	case "":
	case "all":
		cfg.Targets = []string{string(mapping.TargetCommerce), string(mapping.TargetContent)}
	default:
		cfg.Targets = config.SplitList(*targets)
	}
	if *regions != "" {
		cfg.Regions = config.SplitList(*regions)
	}
	if *languages != "" {
		cfg.Languages = config.SplitList(*languages)
	}

	if *validateOnly && *skipValidation {
		log.Fatal("-validate-only and -skip-validation cannot be combined")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Info("Received interrupt signal. Shutting down...")
		cancel()
		// Give some time for graceful shutdown
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}()

	migrator, err := migration.NewMigrator(cfg, migration.Options{
		DryRun:         *dryRun,
		Strict:         *strict,
		ValidateOnly:   *validateOnly,
		SkipValidation: *skipValidation,
	}, log)
	if err != nil {
		log.Fatalf("Failed to set up migration: %v", err)
	}

	startTime := time.Now()
	log.WithField("dry_run", *dryRun).Infof("Starting migration of %v to %v", cfg.Entities, cfg.Targets)

	summary, err := migrator.Start(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Info("Process stopped due to user interrupt (Ctrl+C)")
			os.Exit(1)
		case errors.Is(err, migration.ErrValidationFailed):
			log.Errorf("%v; see %s", err, cfg.OutputDir)
			os.Exit(1)
		default:
			log.Fatalf("Error during migration process: %v", err)
		}
	}

	failed := 0
	for _, byEntity := range summary.Imports {
		for _, results := range byEntity {
			for _, r := range results {
				if !r.Success {
					failed++
				}
			}
		}
	}

	duration := time.Since(startTime)
	log.Infof("Migration completed in %.2f seconds (%d invalid records, %d failed imports)",
		duration.Seconds(), summary.Report.InvalidEntities, failed)
}

func entityNames() []string {
	var names []string
	for _, e := range mapping.EntityTypes() {
		names = append(names, string(e))
	}
	return names
}

// displayUsage displays usage information
func displayUsage() {
	fmt.Println("\nCMS to Commerce Migration Tool")
	fmt.Println("==============================")
	fmt.Println("Usage: migrate [options]")
	fmt.Println("Options:")
	fmt.Println("  -config string")
	fmt.Println("        Path to configuration file; MIGRATE_* environment variables override it")
	fmt.Println("  -mapping string")
	fmt.Println("        Path to the field mapping table (default \"field-mapping.json\")")
	fmt.Println("  -rules string")
	fmt.Println("        Path to the validation rules (default \"validation-rules.json\")")
	fmt.Println("  -input string")
	fmt.Println("        Directory holding the extracted source files (default \"data/source\")")
	fmt.Println("  -output string")
	fmt.Println("        Directory for exports and reports (default \"data/output\")")
	fmt.Println("  -entity string")
	fmt.Println("        product, category, customer, order, page, a comma separated list or all")
	fmt.Println("  -target string")
	fmt.Println("        commerce, content or all")
	fmt.Println("  -region string")
	fmt.Println("        Comma separated region codes, e.g. de,fr")
	fmt.Println("  -language string")
	fmt.Println("        Comma separated language codes, e.g. en,fr")
	fmt.Println("  -dry-run")
	fmt.Println("        Transform and validate without calling the destination APIs")
	fmt.Println("  -strict")
	fmt.Println("        Exit with status 1 before importing when any record fails validation")
	fmt.Println("  -validate-only")
	fmt.Println("        Stop after validation and export")
	fmt.Println("  -skip-validation")
	fmt.Println("        Import every transformed record without validating")
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: debug, info, warn, error (default from config, \"info\")")
	fmt.Println("  -help")
	fmt.Println("        Display this help information")
	fmt.Println("Examples:")
	fmt.Println("  migrate -config=migrate_config.yaml -dry-run")
	fmt.Println("  migrate -entity=product,category -target=commerce -region=de -strict")
	fmt.Println("  migrate -validate-only -log-level=debug")
}
