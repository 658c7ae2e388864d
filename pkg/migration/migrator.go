package migration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gsbingo17/cms-to-commerce/pkg/cache"
	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/config"
	"github.com/gsbingo17/cms-to-commerce/pkg/db"
	"github.com/gsbingo17/cms-to-commerce/pkg/enrich"
	"github.com/gsbingo17/cms-to-commerce/pkg/es"
	"github.com/gsbingo17/cms-to-commerce/pkg/expand"
	"github.com/gsbingo17/cms-to-commerce/pkg/export"
	"github.com/gsbingo17/cms-to-commerce/pkg/importer"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
	"github.com/gsbingo17/cms-to-commerce/pkg/transform"
	"github.com/gsbingo17/cms-to-commerce/pkg/validate"
)

// ErrValidationFailed is returned in strict mode when any record has issues
var ErrValidationFailed = errors.New("validation failed")

// Report file names written to the output directory
const (
	ValidationReportJSON = "validation-report.json"
	ValidationReportMD   = "validation-report.md"
	ImportReportJSON     = "import-report.json"
)

// Options selects the run mode
type Options struct {
	// DryRun transforms and validates but makes no calls to the destinations
	DryRun bool
	// Strict aborts before importing when any record has validation issues
	Strict bool
	// ValidateOnly stops after validation and export
	ValidateOnly bool
	// SkipValidation imports every transformed record without checking it
	SkipValidation bool
}

// Summary is the outcome of a run
type Summary struct {
	Report  *validate.Report
	Imports map[mapping.Target]map[mapping.EntityType][]importer.Result
}

// batch holds the transformed records of one entity for one target
type batch struct {
	entity  mapping.EntityType
	target  mapping.Target
	records []common.Record
	valid   []common.Record
}

// Migrator runs the pipeline: read, enrich, expand, transform, validate,
// export and import
type Migrator struct {
	config *config.Config
	opts   Options
	log    *logger.Logger

	table       *mapping.Table
	rules       *validate.RuleSet
	transformer *transform.Transformer

	entities  []mapping.EntityType
	targets   []mapping.Target
	regions   []string
	languages []string

	reader       Reader
	destinations map[mapping.Target]Destination
	sink         Sink
	enricher     Enricher
}

// NewMigrator loads the mapping table and validation rules and prepares the
// destination clients. Connections to Elasticsearch, MongoDB and Redis are
// opened by Start.
func NewMigrator(cfg *config.Config, opts Options, log *logger.Logger) (*Migrator, error) {
	table, err := mapping.LoadFile(cfg.MappingPath)
	if err != nil {
		return nil, err
	}
	for _, field := range table.UntaggedPriceRules() {
		log.Warnf("Price rule %s has no unit; integral values >= 100 will be read as minor units", field)
	}

	m := &Migrator{
		config: cfg,
		opts:   opts,
		log:    log,
		table:  table,
		transformer: transform.NewTransformer(transform.Options{
			DefaultCurrency:      cfg.DefaultCurrency,
			MediaBaseURL:         cfg.MediaBaseURL,
			RelationshipPrefixes: cfg.RelationshipPrefixes,
		}, log),
		reader:       &fileReader{dir: cfg.InputDir, log: log},
		destinations: make(map[mapping.Target]Destination),
	}

	if !opts.SkipValidation && cfg.RulesPath != "" {
		if m.rules, err = validate.LoadRules(cfg.RulesPath); err != nil {
			return nil, err
		}
	}

	for _, name := range cfg.Entities {
		entity, err := mapping.ParseEntityType(name)
		if err != nil {
			return nil, err
		}
		m.entities = append(m.entities, entity)
	}
	m.entities = inImportOrder(m.entities)

	for _, name := range cfg.Targets {
		target, err := mapping.ParseTarget(name)
		if err != nil {
			return nil, err
		}
		m.targets = append(m.targets, target)
	}

	m.regions = cfg.Regions
	if len(m.regions) == 0 {
		m.regions = table.Regions
	}
	m.languages = cfg.Languages
	if len(m.languages) == 0 {
		m.languages = table.Languages
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	needsAPI := !opts.DryRun && !opts.ValidateOnly
	for _, target := range m.targets {
		dest := cfg.Destination(string(target))
		if needsAPI && dest.BaseURL == "" {
			return nil, fmt.Errorf("%s.baseUrl is required unless running with dry-run or validate-only", target)
		}
		client, err := importer.NewClient(importer.Options{
			Target:    target,
			BaseURL:   dest.BaseURL,
			Token:     importer.TokenFromEnv(dest.TokenEnv),
			Endpoints: dest.Endpoints,
			Timeout:   timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		m.destinations[target] = client
	}

	return m, nil
}

// Start connects the optional services and runs the pipeline
func (m *Migrator) Start(ctx context.Context) (*Summary, error) {
	if m.config.Source.Type == "elasticsearch" {
		m.log.Infof("Connecting to Elasticsearch at %v", m.config.Source.Addresses)
		client, err := es.NewClient(
			m.config.Source.Addresses,
			m.config.Source.Username,
			m.config.Source.Password,
			m.config.Source.APIKey,
			nil,
			m.log,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
		}
		m.reader = &indexReader{client: client, prefix: m.config.Source.IndexPrefix, batchSize: m.config.Source.BatchSize}
	}

	if mc := m.config.Export.Mongo; mc.ConnectionString != "" && !m.opts.DryRun {
		m.log.Infof("Connecting to MongoDB database %s", mc.Database)
		mongo, err := db.NewMongoDB(mc.ConnectionString, mc.Database, m.log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer func() {
			if err := mongo.Close(context.Background()); err != nil {
				m.log.Errorf("Error closing MongoDB connection: %v", err)
			}
		}()
		m.sink = mongo
	}

	if ec := m.config.Enrichment; ec.BaseURL != "" {
		var c cache.Cache
		if ec.Cache == "redis" {
			r := cache.NewRedis(cache.RedisOptions{
				Addr:     ec.Redis.Addr,
				Password: ec.Redis.Password,
				DB:       ec.Redis.DB,
				Prefix:   "cms-to-commerce:",
			}, m.log)
			defer r.Close()
			c = r
		} else {
			c = cache.NewMemory()
		}
		m.enricher = enrich.NewService(ec.BaseURL, c,
			time.Duration(ec.CacheTTLSeconds)*time.Second,
			time.Duration(m.config.RequestTimeoutSeconds)*time.Second,
			m.log)
	}

	return m.Run(ctx)
}

// Run executes the pipeline with the components already in place
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		Report:  validate.NewReport(),
		Imports: make(map[mapping.Target]map[mapping.EntityType][]importer.Result),
	}

	sources, err := m.readAll(ctx)
	if err != nil {
		return summary, err
	}
	index := validate.BuildIndex(sources)

	var batches []*batch
	for _, entity := range m.entities {
		em, ok := m.table.Entity(entity)
		if !ok {
			m.log.WithEntity(string(entity)).Warn("No mapping for entity, skipping")
			continue
		}

		records := sources[entity]
		if entity == mapping.EntityProduct && m.enricher != nil && len(records) > 0 {
			m.log.WithEntity(string(entity)).Infof("Enriching %d products", len(records))
			records = m.enricher.EnrichAll(ctx, records)
		}

		for _, target := range m.targets {
			if !m.destinations[target].Supports(entity) {
				m.log.WithTarget(string(target)).Debugf("Target has no endpoint for %s, skipping", entity)
				continue
			}
			b, err := m.transformBatch(ctx, records, entity, em, target)
			if err != nil {
				return summary, err
			}
			m.validateBatch(b, index, summary.Report)
			batches = append(batches, b)
		}
	}
	summary.Report.Finish()

	if !m.opts.SkipValidation {
		if err := m.writeValidationReport(summary.Report); err != nil {
			return summary, err
		}
		m.log.Infof("Validation: %d records, %d valid, %d invalid, %d issues",
			summary.Report.TotalEntities, summary.Report.ValidEntities, summary.Report.InvalidEntities, summary.Report.TotalIssues)
	}

	if m.opts.Strict && summary.Report.HasIssues() {
		return summary, fmt.Errorf("%w: %d issues in %d records", ErrValidationFailed, summary.Report.TotalIssues, summary.Report.InvalidEntities)
	}

	for _, b := range batches {
		m.exportBatch(ctx, b)
	}

	if m.opts.ValidateOnly {
		m.log.Info("Validate-only run, skipping import")
		return summary, nil
	}

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		results := m.destinations[b.target].ImportBatch(ctx, b.valid, b.entity, m.opts.DryRun)
		if summary.Imports[b.target] == nil {
			summary.Imports[b.target] = make(map[mapping.EntityType][]importer.Result)
		}
		summary.Imports[b.target][b.entity] = results

		s := importer.Summarize(results)
		m.log.WithTarget(string(b.target)).WithField("entity", b.entity).
			Infof("Imported %d/%d records (%d failed, %d dry run)", s.Succeeded, s.Total, s.Failed, s.DryRun)
	}

	reportPath := filepath.Join(m.config.OutputDir, ImportReportJSON)
	if err := importer.WriteImportReport(reportPath, summary.Report.RunID, m.opts.DryRun, summary.Imports); err != nil {
		return summary, err
	}
	m.log.Infof("Import report written to %s", reportPath)

	return summary, nil
}

// readAll reads every entity, selected or not, so relationship checks can see
// the whole export. A failed read is logged and yields no records.
func (m *Migrator) readAll(ctx context.Context) (map[mapping.EntityType][]common.Record, error) {
	sources := make(map[mapping.EntityType][]common.Record)
	for _, entity := range mapping.EntityTypes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := m.reader.Read(ctx, entity)
		if err != nil {
			m.log.WithEntity(string(entity)).Errorf("Failed to read source records: %v", err)
			records = []common.Record{}
		}
		sources[entity] = records
	}
	return sources, nil
}

func (m *Migrator) transformBatch(ctx context.Context, records []common.Record, entity mapping.EntityType, em mapping.EntityMapping, target mapping.Target) (*batch, error) {
	b := &batch{entity: entity, target: target}
	regions, languages := m.expansionFor(em)
	for _, src := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, v := range expand.Flatten(expand.Expand(src, em, regions, languages)) {
			rec := m.transformer.Transform(v.Record, entity, em, target)
			expand.Tag(rec, v.Region, v.Language)
			b.records = append(b.records, rec)
		}
	}
	m.log.WithTarget(string(target)).WithField("entity", entity).
		Infof("Transformed %d source records into %d records", len(records), len(b.records))
	return b, nil
}

// expansionFor limits expansion to the dimensions em has rules for. An entity
// without region or language rules is migrated once.
func (m *Migrator) expansionFor(em mapping.EntityMapping) (regions, languages []string) {
	if len(em.MultiRegionRules) > 0 {
		regions = m.regions
	}
	if len(em.MultiLanguageRules) > 0 {
		languages = m.languages
	}
	return regions, languages
}

func (m *Migrator) validateBatch(b *batch, index validate.Index, report *validate.Report) {
	if m.opts.SkipValidation {
		b.valid = b.records
		return
	}
	for _, rec := range b.records {
		res := validate.Validate(rec, b.entity, m.rules, index)
		report.Add(b.entity, recordLabel(rec, b.target), res)
		if res.Valid {
			b.valid = append(b.valid, rec)
		}
	}
}

func (m *Migrator) exportBatch(ctx context.Context, b *batch) {
	if m.config.Export.JSON {
		path, err := export.WriteJSON(m.config.OutputDir, b.entity, b.target, b.records)
		if err != nil {
			m.log.WithEntity(string(b.entity)).Errorf("JSON export failed: %v", err)
		} else {
			m.log.WithEntity(string(b.entity)).Debugf("Exported %d records to %s", len(b.records), path)
		}
	}
	if m.sink != nil {
		collection := db.CollectionName(b.target, b.entity)
		if _, err := m.sink.UpsertRecords(ctx, collection, b.records); err != nil {
			m.log.WithEntity(string(b.entity)).Errorf("MongoDB export failed: %v", err)
		}
	}
}

func (m *Migrator) writeValidationReport(report *validate.Report) error {
	if err := os.MkdirAll(m.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := report.WriteJSON(filepath.Join(m.config.OutputDir, ValidationReportJSON)); err != nil {
		return err
	}
	return report.WriteMarkdown(filepath.Join(m.config.OutputDir, ValidationReportMD))
}

// recordLabel names a record in reports: target, original id and the
// region/language tags when present
func recordLabel(rec common.Record, target mapping.Target) string {
	label := string(target) + ":"
	if id, ok := rec.Get("metadata.original_id"); ok {
		label += fmt.Sprint(id)
	}
	if region, ok := rec.Get("metadata.region"); ok {
		label += fmt.Sprintf(" [%v", region)
		if lang, ok := rec.Get("metadata.language"); ok {
			label += fmt.Sprintf("/%v", lang)
		}
		label += "]"
	} else if lang, ok := rec.Get("metadata.language"); ok {
		label += fmt.Sprintf(" [%v]", lang)
	}
	return label
}

func inImportOrder(selected []mapping.EntityType) []mapping.EntityType {
	want := make(map[mapping.EntityType]bool, len(selected))
	for _, e := range selected {
		want[e] = true
	}
	var out []mapping.EntityType
	for _, e := range mapping.EntityTypes() {
		if want[e] {
			out = append(out, e)
		}
	}
	return out
}
