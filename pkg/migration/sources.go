package migration

import (
	"context"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/es"
	"github.com/gsbingo17/cms-to-commerce/pkg/importer"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
	"github.com/gsbingo17/cms-to-commerce/pkg/source"
)

// Reader returns the source records of one entity
type Reader interface {
	Read(ctx context.Context, entity mapping.EntityType) ([]common.Record, error)
}

// Destination imports records into one target system
type Destination interface {
	Supports(entity mapping.EntityType) bool
	ImportBatch(ctx context.Context, records []common.Record, entity mapping.EntityType, dryRun bool) []importer.Result
}

// Sink keeps a copy of transformed records
type Sink interface {
	UpsertRecords(ctx context.Context, collection string, records []common.Record) (int64, error)
}

// Enricher fills product content from the legacy content service
type Enricher interface {
	EnrichAll(ctx context.Context, records []common.Record) []common.Record
}

// fileReader reads the exports found in a directory
type fileReader struct {
	dir string
	log *logger.Logger
}

func (r *fileReader) Read(_ context.Context, entity mapping.EntityType) ([]common.Record, error) {
	return source.ReadFile(source.FindFile(r.dir, entity), entity, r.log)
}

// indexReader reads one Elasticsearch index per entity, named
// <prefix><plural entity name>
type indexReader struct {
	client    *es.Client
	prefix    string
	batchSize int
}

func (r *indexReader) Read(ctx context.Context, entity mapping.EntityType) ([]common.Record, error) {
	return r.client.ReadIndex(ctx, r.prefix+source.Plural(entity), r.batchSize)
}
