package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// MongoDB stores transformed records so a run can be inspected or replayed
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	log      *logger.Logger
}

// NewMongoDB creates a new MongoDB connection
func NewMongoDB(connectionString, databaseName string, log *logger.Logger) (*MongoDB, error) {
	clientOptions := options.Client().
		ApplyURI(connectionString).
		SetMaxPoolSize(16).
		SetConnectTimeout(30 * time.Second).
		SetSocketTimeout(120 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoDB{
		client:   client,
		database: client.Database(databaseName),
		log:      log,
	}, nil
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// CollectionName returns the collection holding records of entity for target
func CollectionName(target mapping.Target, entity mapping.EntityType) string {
	return fmt.Sprintf("%s_%s", target, entity)
}

// UpsertRecords replaces the stored copy of each record, keyed by its
// original id. Records without an original id are skipped.
func (m *MongoDB) UpsertRecords(ctx context.Context, collection string, records []common.Record) (int64, error) {
	models, skipped := upsertModels(records)
	if skipped > 0 {
		m.log.Warnf("Skipping %d records without original id in %s", skipped, collection)
	}
	if len(models) == 0 {
		return 0, nil
	}

	res, err := m.database.Collection(collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert into %s: %w", collection, err)
	}

	written := res.UpsertedCount + res.ModifiedCount
	m.log.Debugf("Upserted %d records into %s (%d matched)", written, collection, res.MatchedCount)
	return written, nil
}

func upsertModels(records []common.Record) ([]mongo.WriteModel, int) {
	models := make([]mongo.WriteModel, 0, len(records))
	skipped := 0
	for _, rec := range records {
		id := documentID(rec)
		if id == "" {
			skipped++
			continue
		}

		doc := bson.M{}
		for k, v := range rec {
			doc[k] = v
		}
		doc["_id"] = id

		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	return models, skipped
}

// documentID is the original id followed by the region and language tags,
// when present
func documentID(rec common.Record) string {
	v, ok := rec.Get("metadata.original_id")
	if !ok || common.IsEmpty(v) {
		return ""
	}
	id := fmt.Sprint(v)
	if region, ok := rec.Get("metadata.region"); ok && !common.IsEmpty(region) {
		id += ":" + fmt.Sprint(region)
	}
	if lang, ok := rec.Get("metadata.language"); ok && !common.IsEmpty(lang) {
		id += ":" + fmt.Sprint(lang)
	}
	return id
}
